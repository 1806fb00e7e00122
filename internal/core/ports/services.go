package ports

import (
	"context"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

// Backend is the Cargo Connect REST API. authorization is the full
// Authorization header value ("Bearer ...").
type Backend interface {
	Register(ctx context.Context, r domain.Registration) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
	CurrentUser(ctx context.Context, authorization string) (*domain.User, error)
	UpdateProfile(ctx context.Context, authorization string, p domain.ProfileUpdate) (*domain.User, error)
	ChangePassword(ctx context.Context, authorization string, p domain.PasswordChange) error
	DeleteAccount(ctx context.Context, authorization string) error

	CreateBooking(ctx context.Context, authorization string, b *domain.Booking) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, authorization, bookingID, paymentMethod string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, authorization, bookingID string) error

	ListDeliveries(ctx context.Context, authorization string) ([]domain.Delivery, error)
	GetShipment(ctx context.Context, authorization, id string) (*domain.Shipment, error)
	GetTracking(ctx context.Context, authorization, trackingID string) (*domain.Tracking, error)
}

// EventPublisher publishes gateway events to a message broker.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, b *domain.Booking) error
	PublishTrackingUpdate(ctx context.Context, u *domain.TrackingUpdate) error
	PublishSupportTicket(ctx context.Context, t *domain.SupportTicket) error
}

// EventSubscriber subscribes to gateway events from a message broker.
type EventSubscriber interface {
	SubscribeTrackingUpdates(ctx context.Context, handler func(ctx context.Context, u *domain.TrackingUpdate) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// TokenIssuer signs and verifies the opaque session token handed to browsers.
type TokenIssuer interface {
	Issue(sessionID string) (string, error)
	Parse(token string) (sessionID string, err error)
}

// BookingRequest is what the booking saga needs to place a booking.
type BookingRequest struct {
	Authorization string
	Booking       domain.Booking
}

// BookingWorkflow places a booking through a durable workflow engine.
type BookingWorkflow interface {
	PlaceBooking(ctx context.Context, req BookingRequest) (*domain.Booking, error)
}
