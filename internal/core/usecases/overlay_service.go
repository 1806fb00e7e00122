package usecases

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/pkg/geospatial"
	"github.com/cargoconnect/gateway/internal/pkg/logging"
	"github.com/cargoconnect/gateway/internal/pkg/metrics"
	"github.com/cargoconnect/gateway/internal/pkg/telemetry"
)

// Reasons a bounds fit is skipped.
const (
	skipTooFewPoints = "too_few_points"
	skipNonFinite    = "non_finite"
)

// OverlayService turns markers and a route into a client-renderable map
// overlay. It is stateless apart from recording viewports in sessions.
type OverlayService struct {
	sessions *SessionService
	style    domain.MapStyle
}

// NewOverlayService creates a new OverlayService.
func NewOverlayService(sessions *SessionService, style domain.MapStyle) *OverlayService {
	return &OverlayService{sessions: sessions, style: style}
}

// ComputeBounds returns the bounding box to fit the camera to. ok is false
// for routes of fewer than two points or with any non-finite coordinate.
func (s *OverlayService) ComputeBounds(route domain.Route) (domain.Bounds, bool) {
	b, reason := fitBounds(route)
	return b, reason == ""
}

func fitBounds(route domain.Route) (domain.Bounds, string) {
	if len(route) < 2 {
		return domain.Bounds{}, skipTooFewPoints
	}
	ext, ok := geospatial.Extent(route)
	if !ok {
		return domain.Bounds{}, skipNonFinite
	}
	return geospatial.ToBounds(ext), ""
}

// Build produces the overlay for one render. It never fails: a route that
// cannot be fitted only loses its fit command.
func (s *OverlayService) Build(ctx context.Context, req domain.OverlayRequest) domain.Overlay {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanOverlayBuild)
	defer span.End()
	span.SetAttributes(
		telemetry.AttrRoutePoints.Int(len(req.Route)),
		telemetry.AttrMarkers.Int(len(req.Markers)),
	)

	view := domain.DefaultViewport
	if req.InitialViewState != nil {
		view = *req.InitialViewState
	}

	out := domain.Overlay{
		ViewState: view,
		Markers:   renderMarkers(req.Markers),
		Controls:  controls(req),
		Style:     s.style,
	}

	if len(req.Route) > 0 {
		out.RouteLayer = routeLayer(req.Route)
	}

	bounds, reason := fitBounds(req.Route)
	if reason == "" {
		out.Fit = &domain.FitCommand{
			Bounds:     bounds,
			Padding:    domain.FitPadding,
			DurationMs: domain.FitDurationMs,
		}
	} else if len(req.Route) > 0 {
		// An empty route is the normal bare-map case and is not worth a log line.
		logging.FromContext(ctx).Debug("overlay fit skipped",
			"reason", reason,
			"route_points", len(req.Route),
		)
		metrics.OverlayFitSkipped.WithLabelValues(reason).Inc()
		span.SetAttributes(telemetry.AttrFitSkipReason.String(reason))
	}
	metrics.OverlaysBuilt.WithLabelValues(strconv.FormatBool(out.Fit != nil)).Inc()

	return out
}

// Render is Build for a client that already has a map on screen: the last
// viewport it reported replaces the initial view state.
func (s *OverlayService) Render(ctx context.Context, sess *domain.Session, req domain.OverlayRequest) domain.Overlay {
	if sess != nil && sess.LastViewport != nil {
		vp := *sess.LastViewport
		req.InitialViewState = &vp
	}
	return s.Build(ctx, req)
}

// TrackViewport records the viewport the client reports after a pan or
// zoom. It is display state only.
func (s *OverlayService) TrackViewport(ctx context.Context, sessionID string, vp domain.Viewport) error {
	if err := vp.Validate(); err != nil {
		return err
	}
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	sess.LastViewport = &vp
	if err := s.sessions.Save(ctx, sess); err != nil {
		return err
	}
	logging.FromContext(ctx).Debug("viewport tracked", "session", sessionID, "zoom", vp.Zoom)
	return nil
}

func renderMarkers(in []domain.Marker) []domain.RenderedMarker {
	out := make([]domain.RenderedMarker, 0, len(in))
	for _, m := range in {
		r := domain.RenderedMarker{
			Longitude: m.Longitude,
			Latitude:  m.Latitude,
			Anchor:    domain.MarkerAnchor,
			Title:     m.Title,
		}
		if m.HasElement() {
			r.Content = m.Element
		} else {
			r.Color = m.Color
			if r.Color == "" {
				r.Color = domain.DefaultMarkerColor
			}
		}
		out = append(out, r)
	}
	return out
}

func routeLayer(route domain.Route) *domain.RouteLayer {
	return &domain.RouteLayer{
		ID:     domain.RouteSourceID,
		Type:   "line",
		Source: geospatial.LineFeature(route),
		Layout: domain.LineLayout{LineJoin: "round", LineCap: "round"},
		Paint: domain.LinePaint{
			LineColor:   domain.RouteLineColor,
			LineWidth:   domain.RouteLineWidth,
			LineOpacity: domain.RouteLineOpacity,
		},
		Polyline: geospatial.EncodeRoute(route),
	}
}

func controls(req domain.OverlayRequest) domain.MapControls {
	c := domain.MapControls{
		Width:          "100%",
		Height:         "100%",
		ShowNavigation: boolOr(req.ShowNavigation, true),
		ShowGeolocate:  boolOr(req.ShowGeolocate, true),
		Interactive:    boolOr(req.Interactive, true),
	}
	if req.Width != "" {
		c.Width = req.Width
	}
	if req.Height != "" {
		c.Height = req.Height
	}
	return c
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
