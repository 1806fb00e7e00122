package geospatial

import (
	"math"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// Distance is Haversine over two coordinates.
func Distance(a, b domain.Coordinate) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// PathLength sums the segment lengths of a route in meters. Segments with a
// non-finite end are skipped.
func PathLength(r domain.Route) float64 {
	var total float64
	for i := 1; i < len(r); i++ {
		if !r[i-1].IsFinite() || !r[i].IsFinite() {
			continue
		}
		total += Distance(r[i-1], r[i])
	}
	return total
}

// Remaining returns the distance in meters still to travel from pos along r:
// the hop to the nearest route vertex plus the route from that vertex on.
// An empty route yields 0.
func Remaining(r domain.Route, pos domain.Coordinate) float64 {
	if len(r) == 0 || !pos.IsFinite() {
		return 0
	}

	nearest, best := -1, math.Inf(1)
	for i, c := range r {
		if !c.IsFinite() {
			continue
		}
		if d := Distance(pos, c); d < best {
			nearest, best = i, d
		}
	}
	if nearest < 0 {
		return 0
	}
	return best + PathLength(r[nearest:])
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
