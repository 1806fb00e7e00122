package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/core/ports"
	"github.com/cargoconnect/gateway/internal/pkg/geospatial"
	"github.com/cargoconnect/gateway/internal/pkg/logging"
	"github.com/cargoconnect/gateway/internal/pkg/metrics"
	"github.com/cargoconnect/gateway/internal/pkg/telemetry"
)

const (
	// CourierSpeedKmh is the average speed ETAs are estimated with.
	CourierSpeedKmh = 25.0

	trackingCacheTTL  = 15  // seconds
	positionCacheTTL  = 600 // seconds
	trackingZoom      = 12
	maxHistoryPerPage = 100
)

// DeliveryService serves delivery history, shipment details and live
// tracking.
type DeliveryService struct {
	backend ports.Backend
	overlay *OverlayService
	cache   ports.CacheService
	events  ports.EventPublisher
	now     func() time.Time
}

// NewDeliveryService creates a new DeliveryService. cache and events may be nil.
func NewDeliveryService(backend ports.Backend, overlay *OverlayService, cache ports.CacheService, events ports.EventPublisher) *DeliveryService {
	return &DeliveryService{backend: backend, overlay: overlay, cache: cache, events: events, now: time.Now}
}

// History returns one page of the customer's deliveries, newest first,
// along with the total count.
func (s *DeliveryService) History(ctx context.Context, sess *domain.Session, offset, limit int) ([]domain.Delivery, int, error) {
	if !sess.Authenticated() {
		return nil, 0, domain.ErrUnauthenticated
	}
	if limit <= 0 || limit > maxHistoryPerPage {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	all, err := s.backend.ListDeliveries(ctx, sess.Authorization)
	if err != nil {
		return nil, 0, fmt.Errorf("list deliveries: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })

	total := len(all)
	if offset >= total {
		return []domain.Delivery{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// Shipments returns the deliveries of one tab: "active" (pending or in
// transit) or "completed" (delivered or completed).
func (s *DeliveryService) Shipments(ctx context.Context, sess *domain.Session, tab string) (*domain.ShipmentList, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	tab = strings.ToLower(strings.TrimSpace(tab))
	if tab == "" {
		tab = domain.TabActive
	}

	var keep func(domain.Delivery) bool
	switch tab {
	case domain.TabActive:
		keep = domain.Delivery.IsActive
	case domain.TabCompleted:
		keep = domain.Delivery.IsFinished
	default:
		return nil, domain.NewValidationError("tab", "tab must be 'active' or 'completed'")
	}

	all, err := s.backend.ListDeliveries(ctx, sess.Authorization)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	out := &domain.ShipmentList{Tab: tab, Items: []domain.Delivery{}}
	for _, d := range all {
		if keep(d) {
			out.Items = append(out.Items, d)
		}
	}
	return out, nil
}

// Shipment returns a delivery's details and timeline with its map overlay.
func (s *DeliveryService) Shipment(ctx context.Context, sess *domain.Session, id string) (*domain.Shipment, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("id", "shipment id is required")
	}

	sh, err := s.backend.GetShipment(ctx, sess.Authorization, id)
	if err != nil {
		return nil, fmt.Errorf("get shipment %s: %w", id, err)
	}

	route := sh.Route
	if len(route) == 0 && sh.OriginLocation.IsFinite() && sh.DestLocation.IsFinite() &&
		sh.OriginLocation != (domain.Coordinate{}) && sh.DestLocation != (domain.Coordinate{}) {
		route = domain.Route{sh.OriginLocation, sh.DestLocation}
	}
	ov := s.overlay.Render(ctx, sess, domain.OverlayRequest{
		Markers: []domain.Marker{
			{Longitude: sh.OriginLocation.Lng, Latitude: sh.OriginLocation.Lat, Color: PickupMarkerColor, Title: sh.Origin},
			{Longitude: sh.DestLocation.Lng, Latitude: sh.DestLocation.Lat, Color: DeliveryMarkerColor, Title: sh.Destination},
		},
		Route: route,
	})
	sh.Overlay = &ov
	return sh, nil
}

// Track returns the live view of a delivery: rider, remaining distance,
// ETA and the map overlay.
func (s *DeliveryService) Track(ctx context.Context, sess *domain.Session, trackingID string) (*domain.Tracking, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanTrackingLookup)
	defer span.End()
	span.SetAttributes(telemetry.AttrTrackingID.String(trackingID))

	tr, hit, err := s.lookup(ctx, sess, trackingID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.AttrCacheHit.Bool(hit))

	s.applyLatestPosition(ctx, tr)
	s.enrich(ctx, sess, tr)
	return tr, nil
}

// Authorize reports whether the caller may follow or feed trackingID: the
// backend has to resolve it with the caller's own credential. A delivery
// the backend refuses surfaces as the backend's error (usually not found).
func (s *DeliveryService) Authorize(ctx context.Context, sess *domain.Session, trackingID string) error {
	if _, _, err := s.lookup(ctx, sess, trackingID); err != nil {
		return err
	}
	return nil
}

// lookup fetches the backend tracking view, read through a cache keyed by
// user so one customer never sees another's backend answer.
func (s *DeliveryService) lookup(ctx context.Context, sess *domain.Session, trackingID string) (*domain.Tracking, bool, error) {
	if !sess.Authenticated() {
		return nil, false, domain.ErrUnauthenticated
	}
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, false, domain.NewValidationError("id", "tracking id is required")
	}

	cacheKey := fmt.Sprintf("tracking:%d:%s", sess.User.ID, trackingID)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached domain.Tracking
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.CacheHits.WithLabelValues("tracking").Inc()
				return &cached, true, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("tracking").Inc()
	}

	tr, err := s.backend.GetTracking(ctx, sess.Authorization, trackingID)
	if err != nil {
		return nil, false, fmt.Errorf("get tracking %s: %w", trackingID, err)
	}
	if tr.TrackingID == "" {
		tr.TrackingID = trackingID
	}
	if s.cache != nil {
		if data, err := json.Marshal(tr); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, trackingCacheTTL)
		}
	}
	return tr, false, nil
}

// applyLatestPosition overrides the rider position with the newest relayed
// update, if one is known.
func (s *DeliveryService) applyLatestPosition(ctx context.Context, tr *domain.Tracking) {
	if s.cache == nil {
		return
	}
	data, err := s.cache.Get(ctx, positionKey(tr.TrackingID))
	if err != nil {
		return
	}
	var u domain.TrackingUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		return
	}
	tr.Rider.Location = u.Location
	tr.ActiveStep = u.ActiveStep
}

func (s *DeliveryService) enrich(ctx context.Context, sess *domain.Session, tr *domain.Tracking) {
	if tr.ActiveStep >= domain.StepDelivered {
		tr.RemainingMeters = 0
		tr.ETAMinutes = 0
	} else {
		tr.RemainingMeters = math.Round(geospatial.Remaining(tr.Route, tr.Rider.Location))
		tr.ETAMinutes = ETAMinutes(tr.RemainingMeters)
	}
	tr.EncodedRoute = geospatial.EncodeRoute(tr.Route)

	view := domain.Viewport{Longitude: tr.Rider.Location.Lng, Latitude: tr.Rider.Location.Lat, Zoom: trackingZoom}
	req := domain.OverlayRequest{
		Markers: []domain.Marker{
			{Longitude: tr.Rider.Location.Lng, Latitude: tr.Rider.Location.Lat, Color: domain.DefaultMarkerColor, Title: "Rider Location"},
			{Longitude: tr.Pickup.Location.Lng, Latitude: tr.Pickup.Location.Lat, Color: PickupMarkerColor, Title: "Pickup Location"},
			{Longitude: tr.Destination.Location.Lng, Latitude: tr.Destination.Location.Lat, Color: DeliveryMarkerColor, Title: "Destination"},
		},
		Route: tr.Route,
	}
	if view.Validate() == nil {
		req.InitialViewState = &view
	}
	ov := s.overlay.Render(ctx, sess, req)
	tr.Overlay = &ov
}

// ETAMinutes estimates minutes to cover meters at CourierSpeedKmh, rounded up.
func ETAMinutes(meters float64) int {
	if meters <= 0 || math.IsNaN(meters) || math.IsInf(meters, 0) {
		return 0
	}
	return int(math.Ceil(meters / 1000 / CourierSpeedKmh * 60))
}

// PublishTrackingUpdate validates and broadcasts a rider position for a
// delivery the caller can see.
func (s *DeliveryService) PublishTrackingUpdate(ctx context.Context, sess *domain.Session, u *domain.TrackingUpdate) error {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanTrackingPublish)
	defer span.End()

	if !sess.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if err := validateUpdate(u); err != nil {
		return err
	}
	span.SetAttributes(telemetry.AttrTrackingID.String(u.TrackingID))
	if err := s.Authorize(ctx, sess, u.TrackingID); err != nil {
		return err
	}
	if u.Time.IsZero() {
		u.Time = s.now().UTC()
	}
	if s.events == nil {
		return fmt.Errorf("publish tracking update: %w", domain.ErrBackendUnavailable)
	}
	if err := s.events.PublishTrackingUpdate(ctx, u); err != nil {
		return fmt.Errorf("publish tracking update: %w", err)
	}
	metrics.TrackingUpdatesPublished.Inc()
	return nil
}

// ApplyTrackingUpdate remembers the newest position relayed for a delivery
// so later Track calls reflect it before the backend catches up.
func (s *DeliveryService) ApplyTrackingUpdate(ctx context.Context, u *domain.TrackingUpdate) error {
	if err := validateUpdate(u); err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal tracking update: %w", err)
	}
	if err := s.cache.Set(ctx, positionKey(u.TrackingID), data, positionCacheTTL); err != nil {
		return fmt.Errorf("cache tracking update: %w", err)
	}
	logging.FromContext(ctx).Debug("tracking position applied", "tracking_id", u.TrackingID, "step", u.ActiveStep)
	return nil
}

func validateUpdate(u *domain.TrackingUpdate) error {
	v := &domain.ValidationError{}
	if u == nil {
		return domain.NewValidationError("update", "update is required")
	}
	if strings.TrimSpace(u.TrackingID) == "" {
		v.Add("tracking_id", "tracking id is required")
	}
	if !u.Location.InRange() {
		v.Add("location", "location must be a valid coordinate")
	}
	if u.ActiveStep < domain.StepPickup || u.ActiveStep > domain.StepDelivered {
		v.Add("active_step", "active step must be 0, 1 or 2")
	}
	return v.OrNil()
}

func positionKey(trackingID string) string {
	return "tracking:pos:" + trackingID
}
