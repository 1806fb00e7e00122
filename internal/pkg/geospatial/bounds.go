package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

// Extent scans r once and returns its bounding box. ok is false when r is
// empty or any component is NaN or infinite; a single bad point poisons the
// whole box rather than being dropped.
func Extent(r domain.Route) (b orb.Bound, ok bool) {
	if len(r) == 0 {
		return orb.Bound{}, false
	}

	minLng, minLat := math.Inf(1), math.Inf(1)
	maxLng, maxLat := math.Inf(-1), math.Inf(-1)
	for _, c := range r {
		if !c.IsFinite() {
			return orb.Bound{}, false
		}
		minLng = math.Min(minLng, c.Lng)
		minLat = math.Min(minLat, c.Lat)
		maxLng = math.Max(maxLng, c.Lng)
		maxLat = math.Max(maxLat, c.Lat)
	}

	return orb.Bound{
		Min: orb.Point{minLng, minLat},
		Max: orb.Point{maxLng, maxLat},
	}, true
}

// ToBounds converts an orb bound into the API shape.
func ToBounds(b orb.Bound) domain.Bounds {
	return domain.Bounds{
		MinLng: b.Min.Lon(),
		MinLat: b.Min.Lat(),
		MaxLng: b.Max.Lon(),
		MaxLat: b.Max.Lat(),
	}
}

// LineString converts the finite points of r into an orb geometry.
func LineString(r domain.Route) orb.LineString {
	ls := make(orb.LineString, 0, len(r))
	for _, c := range r {
		if c.IsFinite() {
			ls = append(ls, orb.Point{c.Lng, c.Lat})
		}
	}
	return ls
}

// LineFeature wraps r in a GeoJSON Feature with LineString geometry. The
// feature carries a bbox when the route has a valid extent.
func LineFeature(r domain.Route) *geojson.Feature {
	f := geojson.NewFeature(LineString(r))
	if b, ok := Extent(r); ok {
		f.BBox = geojson.NewBBox(b)
	}
	return f
}
