package ports

import (
	"context"
	"time"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

// SessionStore persists typed browser sessions.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// BookingRepository keeps a local record of bookings placed through the gateway.
type BookingRepository interface {
	Record(ctx context.Context, b *domain.Booking) error
	UpdateStatus(ctx context.Context, id, status string) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Booking, error)
}

// SettingsRepository persists notification settings and preferences.
type SettingsRepository interface {
	Get(ctx context.Context, userID int64) (*domain.Settings, error)
	Upsert(ctx context.Context, s *domain.Settings) error
	Delete(ctx context.Context, userID int64) error
}

// SupportTicketRepository persists contact-support messages.
type SupportTicketRepository interface {
	Create(ctx context.Context, t *domain.SupportTicket) error
}
