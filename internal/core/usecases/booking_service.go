package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/core/ports"
	"github.com/cargoconnect/gateway/internal/pkg/logging"
	"github.com/cargoconnect/gateway/internal/pkg/metrics"
	"github.com/cargoconnect/gateway/internal/pkg/telemetry"
)

// Marker colours used on booking and tracking maps.
const (
	PickupMarkerColor   = "#10B981"
	DeliveryMarkerColor = "#EF4444"
)

// Geocoding belongs to the backend; until it returns positions the booking
// map shows this Amuwo Odofin sample trip.
var (
	samplePickup = domain.Place{
		Address:  "Satelite town, Amuwo Odofin",
		Location: domain.Coordinate{Lng: 3.36, Lat: 6.515},
	}
	sampleDelivery = domain.Place{
		Address:  "Festac town, Amuwo Odofin",
		Location: domain.Coordinate{Lng: 3.2847, Lat: 6.4698},
	}
	sampleRoute = domain.Route{
		{Lng: 3.36, Lat: 6.515}, {Lng: 3.35, Lat: 6.51}, {Lng: 3.34, Lat: 6.5},
		{Lng: 3.33, Lat: 6.49}, {Lng: 3.32, Lat: 6.48}, {Lng: 3.2847, Lat: 6.4698},
	}
)

// BookingService drives the vehicle selection, booking and confirmation flow.
type BookingService struct {
	backend  ports.Backend
	sessions *SessionService
	overlay  *OverlayService
	bookings ports.BookingRepository
	events   ports.EventPublisher
	workflow ports.BookingWorkflow
	now      func() time.Time
}

// NewBookingService creates a new BookingService. bookings, events and
// workflow may be nil.
func NewBookingService(
	backend ports.Backend,
	sessions *SessionService,
	overlay *OverlayService,
	bookings ports.BookingRepository,
	events ports.EventPublisher,
	workflow ports.BookingWorkflow,
) *BookingService {
	return &BookingService{
		backend:  backend,
		sessions: sessions,
		overlay:  overlay,
		bookings: bookings,
		events:   events,
		workflow: workflow,
		now:      time.Now,
	}
}

// Vehicles returns the bookable vehicle catalog.
func (s *BookingService) Vehicles() []domain.Vehicle {
	return domain.Vehicles()
}

// PackageTypes returns the selectable parcel categories.
func (s *BookingService) PackageTypes() []domain.PackageType {
	return domain.PackageTypes()
}

// StartBooking selects a vehicle for the session and returns the booking
// screen: form defaults and the pickup/delivery map.
func (s *BookingService) StartBooking(ctx context.Context, sess *domain.Session, vehicleType string) (*domain.BookingStart, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	v, err := domain.LookupVehicle(vehicleType)
	if err != nil {
		return nil, err
	}

	sess.Booking = &domain.BookingDraft{VehicleType: v.Type, QuotedPrice: v.Price}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	form := domain.BookingInput{
		PickupAddress:   samplePickup.Address,
		DeliveryAddress: sampleDelivery.Address,
		Sender:          domain.Contact{Name: sess.User.FullName, Phone: sess.User.PhoneNumber},
	}

	overlay := s.overlay.Render(ctx, sess, domain.OverlayRequest{
		Markers: []domain.Marker{
			{Longitude: samplePickup.Location.Lng, Latitude: samplePickup.Location.Lat, Color: PickupMarkerColor, Title: "Pickup"},
			{Longitude: sampleDelivery.Location.Lng, Latitude: sampleDelivery.Location.Lat, Color: DeliveryMarkerColor, Title: "Delivery"},
		},
		Route: sampleRoute,
	})

	return &domain.BookingStart{
		Vehicle:      v,
		PackageTypes: domain.PackageTypes(),
		Form:         form,
		Pickup:       samplePickup,
		Delivery:     sampleDelivery,
		Overlay:      overlay,
	}, nil
}

// SubmitBooking validates the form and places the booking, either directly
// against the backend or through the booking workflow when one is wired.
func (s *BookingService) SubmitBooking(ctx context.Context, sess *domain.Session, in domain.BookingInput) (*domain.BookingSummary, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanBookingSubmit)
	defer span.End()

	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if sess.Booking == nil || sess.Booking.VehicleType == "" {
		return nil, domain.ErrNoActiveBooking
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.AttrVehicleType.String(sess.Booking.VehicleType))

	draft := &domain.Booking{
		Reference:       uuid.NewString(),
		UserID:          sess.User.ID,
		VehicleType:     sess.Booking.VehicleType,
		PickupAddress:   strings.TrimSpace(in.PickupAddress),
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
		PackageType:     in.ResolvedPackageType(),
		IsFragile:       in.IsFragile,
		Sender:          trimContact(in.Sender),
		Receiver:        trimContact(in.Receiver),
		PaymentMethod:   domain.PaymentCashOrXfer,
		Amount:          sess.Booking.QuotedPrice,
		Status:          domain.StatusPending,
		CreatedAt:       s.now().UTC(),
	}

	var (
		booking *domain.Booking
		err     error
		mode    = "direct"
	)
	if s.workflow != nil {
		mode = "workflow"
		booking, err = s.workflow.PlaceBooking(ctx, ports.BookingRequest{
			Authorization: sess.Authorization,
			Booking:       *draft,
		})
	} else {
		booking, err = s.placeDirect(ctx, sess.Authorization, draft)
	}
	if err != nil {
		return nil, fmt.Errorf("submit booking: %w", err)
	}
	span.SetAttributes(telemetry.AttrBookingID.String(booking.ID))
	metrics.BookingsSubmitted.WithLabelValues(booking.VehicleType, mode).Inc()

	summary := summarize(booking)
	sess.Booking.BookingID = booking.ID
	sess.Booking.Summary = summary
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("booking submitted",
		"booking_id", booking.ID,
		"vehicle_type", booking.VehicleType,
		"mode", mode,
	)
	return summary, nil
}

// placeDirect creates the booking upstream, then records and announces it.
// The local record and event are best effort here; the workflow path is
// the one that compensates.
func (s *BookingService) placeDirect(ctx context.Context, authorization string, draft *domain.Booking) (*domain.Booking, error) {
	booking, err := s.backend.CreateBooking(ctx, authorization, draft)
	if err != nil {
		return nil, err
	}
	booking.FillMissing(draft)

	log := logging.FromContext(ctx)
	if s.bookings != nil {
		if err := s.bookings.Record(ctx, booking); err != nil {
			log.Warn("record booking failed", "booking_id", booking.ID, "error", err)
		}
	}
	if s.events != nil {
		if err := s.events.PublishBookingCreated(ctx, booking); err != nil {
			log.Warn("publish booking failed", "booking_id", booking.ID, "error", err)
		}
	}
	return booking, nil
}

// Summary returns the confirmation summary of the booking in progress.
func (s *BookingService) Summary(ctx context.Context, sess *domain.Session) (*domain.BookingSummary, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if sess.Booking == nil || sess.Booking.Summary == nil {
		return nil, domain.ErrNoActiveBooking
	}
	return sess.Booking.Summary, nil
}

// ConfirmBooking confirms the submitted booking and ends the booking flow.
func (s *BookingService) ConfirmBooking(ctx context.Context, sess *domain.Session, paymentMethod string) (*domain.BookingSuccess, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanBookingConfirm)
	defer span.End()

	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if sess.Booking == nil || sess.Booking.BookingID == "" {
		return nil, domain.ErrNoActiveBooking
	}
	if strings.TrimSpace(paymentMethod) == "" {
		paymentMethod = domain.PaymentCashOrXfer
	}
	draft := *sess.Booking
	span.SetAttributes(telemetry.AttrBookingID.String(draft.BookingID))

	confirmed, err := s.backend.ConfirmBooking(ctx, sess.Authorization, draft.BookingID, paymentMethod)
	if err != nil {
		return nil, fmt.Errorf("confirm booking: %w", err)
	}
	status := confirmed.Status
	if status == "" {
		status = domain.StatusPending
	}
	if s.bookings != nil {
		if err := s.bookings.UpdateStatus(ctx, draft.BookingID, status); err != nil {
			logging.FromContext(ctx).Warn("update booking status failed", "booking_id", draft.BookingID, "error", err)
		}
	}

	sess.Booking = nil
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	metrics.BookingsConfirmed.WithLabelValues(draft.VehicleType).Inc()

	title := draft.VehicleType
	if v, err := domain.LookupVehicle(draft.VehicleType); err == nil {
		title = strings.TrimSuffix(v.Title, " Delivery")
	}
	return &domain.BookingSuccess{
		Title:        "Booking Successful!",
		Description:  "Your delivery has been booked successfully. You can track your delivery in the Track section.",
		BookingID:    draft.BookingID,
		VehicleType:  draft.VehicleType,
		VehicleTitle: title,
		Status:       status,
		Links: []domain.Link{
			{Label: "Track Delivery", Href: "/dashboard/track"},
			{Label: "Back to Home", Href: "/dashboard"},
		},
		Summary: draft.Summary,
	}, nil
}

func summarize(b *domain.Booking) *domain.BookingSummary {
	return &domain.BookingSummary{
		BookingID:       b.ID,
		PickupAddress:   b.PickupAddress,
		DeliveryAddress: b.DeliveryAddress,
		VehicleType:     b.VehicleType,
		EstimatedTime:   domain.EstimatedTime,
		PackageType:     b.PackageType,
		IsFragile:       b.IsFragile,
		SenderName:      b.Sender.Name,
		SenderPhone:     b.Sender.Phone,
		ReceiverName:    b.Receiver.Name,
		ReceiverPhone:   b.Receiver.Phone,
		PaymentMethod:   b.PaymentMethod,
		TotalAmount:     b.Amount,
	}
}

func trimContact(c domain.Contact) domain.Contact {
	return domain.Contact{Name: strings.TrimSpace(c.Name), Phone: strings.TrimSpace(c.Phone)}
}
