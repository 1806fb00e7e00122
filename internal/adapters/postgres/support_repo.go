package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

// SupportTicketRepo implements ports.SupportTicketRepository.
type SupportTicketRepo struct {
	db *DB
}

func NewSupportTicketRepo(db *DB) *SupportTicketRepo {
	return &SupportTicketRepo{db: db}
}

func (r *SupportTicketRepo) Create(ctx context.Context, t *domain.SupportTicket) error {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return domain.NewValidationError("id", "ticket id must be a uuid")
	}
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO support_tickets (id, user_id, email, message)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, id.String(), t.UserID, t.Email, t.Message).Scan(&t.CreatedAt)
}
