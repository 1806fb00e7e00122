package geospatial

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

// EncodeRoute returns the Google encoded-polyline form of r (lat,lng order).
// Routes containing non-finite points cannot be encoded and yield "".
func EncodeRoute(r domain.Route) string {
	if len(r) == 0 {
		return ""
	}
	coords := make([][]float64, 0, len(r))
	for _, c := range r {
		if !c.IsFinite() {
			return ""
		}
		coords = append(coords, []float64{c.Lat, c.Lng})
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodeRoute parses an encoded polyline back into a route.
func DecodeRoute(encoded string) (domain.Route, error) {
	if encoded == "" {
		return nil, nil
	}
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("decode polyline: %d trailing bytes", len(rest))
	}

	r := make(domain.Route, 0, len(coords))
	for i, c := range coords {
		p := domain.Coordinate{Lat: c[0], Lng: c[1]}
		if !p.InRange() {
			return nil, fmt.Errorf("decode polyline: point %d out of range", i)
		}
		r = append(r, p)
	}
	return r, nil
}
