package domain

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"
)

// Overlay styling constants shared by every map surface of the app.
const (
	DefaultMarkerColor = "#3b82f6"
	MarkerAnchor       = "bottom"
	FitPadding         = 40
	FitDurationMs      = 1000
	RouteSourceID      = "route"
	RouteLineColor     = "#3b82f6"
	RouteLineWidth     = 4
	RouteLineOpacity   = 0.8
)

// OverlayRequest is everything a map surface is rendered from. Markers and
// Route are supplied fresh on every render.
type OverlayRequest struct {
	InitialViewState *Viewport `json:"initial_view_state,omitempty"`
	Markers          []Marker  `json:"markers"`
	Route            Route     `json:"route_coordinates,omitempty"`
	Width            string    `json:"width,omitempty"`
	Height           string    `json:"height,omitempty"`
	ShowNavigation   *bool     `json:"show_navigation,omitempty"`
	ShowGeolocate    *bool     `json:"show_geolocate,omitempty"`
	Interactive      *bool     `json:"interactive,omitempty"`
}

// FitCommand asks the client map to frame Bounds.
type FitCommand struct {
	Bounds     Bounds `json:"bounds"`
	Padding    int    `json:"padding"`
	DurationMs int    `json:"duration_ms"`
}

// RenderedMarker is a marker as the map should draw it. Color is empty
// when Content replaces the default dot.
type RenderedMarker struct {
	Longitude float64         `json:"longitude"`
	Latitude  float64         `json:"latitude"`
	Anchor    string          `json:"anchor"`
	Color     string          `json:"color,omitempty"`
	Title     string          `json:"title,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

// LineLayout and LinePaint mirror the style-spec keys of a line layer.
type LineLayout struct {
	LineJoin string `json:"line-join"`
	LineCap  string `json:"line-cap"`
}

type LinePaint struct {
	LineColor   string  `json:"line-color"`
	LineWidth   float64 `json:"line-width"`
	LineOpacity float64 `json:"line-opacity"`
}

// RouteLayer is a GeoJSON line source plus its layer style.
type RouteLayer struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Source   *geojson.Feature `json:"source"`
	Layout   LineLayout       `json:"layout"`
	Paint    LinePaint        `json:"paint"`
	Polyline string           `json:"polyline,omitempty"`
}

// MapControls are the presentation flags of a map surface.
type MapControls struct {
	Width          string `json:"width"`
	Height         string `json:"height"`
	ShowNavigation bool   `json:"show_navigation"`
	ShowGeolocate  bool   `json:"show_geolocate"`
	Interactive    bool   `json:"interactive"`
}

// MapStyle tells the client which tiles to load.
type MapStyle struct {
	URL         string `json:"url"`
	AccessToken string `json:"access_token,omitempty"`
}

// Overlay is the full, client-renderable description of a map surface.
type Overlay struct {
	ViewState  Viewport         `json:"view_state"`
	Fit        *FitCommand      `json:"fit,omitempty"`
	Markers    []RenderedMarker `json:"markers"`
	RouteLayer *RouteLayer      `json:"route_layer,omitempty"`
	Controls   MapControls      `json:"controls"`
	Style      MapStyle         `json:"style"`
}
