package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Coordinate is a WGS 84 position expressed as longitude/latitude.
type Coordinate struct {
	Lng float64 `json:"longitude"`
	Lat float64 `json:"latitude"`
}

// IsFinite reports whether both components are finite numbers.
func (c Coordinate) IsFinite() bool {
	return !math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0) &&
		!math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0)
}

// InRange reports whether the coordinate lies on the globe.
func (c Coordinate) InRange() bool {
	return c.IsFinite() && c.Lng >= -180 && c.Lng <= 180 && c.Lat >= -90 && c.Lat <= 90
}

// Route is an ordered path of coordinates. On the wire it is an array of
// [lng, lat] pairs, the shape map SDKs expect for LineString data.
// A null component decodes as NaN so that a malformed pair is carried
// through to the bounds check instead of silently becoming 0. Encoding
// drops non-finite points, so a malformed route never fails a response.
type Route []Coordinate

func (r Route) MarshalJSON() ([]byte, error) {
	pairs := make([][2]float64, 0, len(r))
	for _, c := range r {
		if c.IsFinite() {
			pairs = append(pairs, [2]float64{c.Lng, c.Lat})
		}
	}
	return json.Marshal(pairs)
}

func (r *Route) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = nil
		return nil
	}

	var pairs [][]*float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("route must be an array of [lng, lat] pairs: %w", err)
	}

	out := make(Route, 0, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return fmt.Errorf("route point %d: expected 2 values, got %d", i, len(p))
		}
		out = append(out, Coordinate{Lng: orNaN(p[0]), Lat: orNaN(p[1])})
	}
	*r = out
	return nil
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Bounds is a geographic bounding box.
type Bounds struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// Contains reports whether c lies inside the box (edges inclusive).
func (b Bounds) Contains(c Coordinate) bool {
	return c.Lng >= b.MinLng && c.Lng <= b.MaxLng && c.Lat >= b.MinLat && c.Lat <= b.MaxLat
}

// Viewport is the camera state of a map.
type Viewport struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Zoom      float64 `json:"zoom"`
}

// DefaultViewport is centred on Lagos.
var DefaultViewport = Viewport{Longitude: 3.3792, Latitude: 6.5244, Zoom: 12}

// Validate rejects viewports a map cannot be positioned at.
func (v Viewport) Validate() error {
	c := Coordinate{Lng: v.Longitude, Lat: v.Latitude}
	if !c.InRange() {
		return NewValidationError("view_state", "longitude must be in [-180, 180] and latitude in [-90, 90]")
	}
	if math.IsNaN(v.Zoom) || v.Zoom < 0 {
		return NewValidationError("view_state.zoom", "zoom must be a non-negative number")
	}
	return nil
}

// Marker is a point annotation. Element, when present, is opaque client
// content rendered in place of the default coloured dot.
type Marker struct {
	Longitude float64         `json:"longitude"`
	Latitude  float64         `json:"latitude"`
	Color     string          `json:"color,omitempty"`
	Title     string          `json:"title,omitempty"`
	Element   json.RawMessage `json:"element,omitempty"`
}

// HasElement reports whether the marker carries custom content.
func (m Marker) HasElement() bool {
	trimmed := bytes.TrimSpace(m.Element)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
