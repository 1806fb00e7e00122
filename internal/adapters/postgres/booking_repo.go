package postgres

import (
	"context"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

// BookingRepo implements ports.BookingRepository.
type BookingRepo struct {
	db *DB
}

func NewBookingRepo(db *DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// Record inserts the booking; recording the same id twice only refreshes its status.
func (r *BookingRepo) Record(ctx context.Context, b *domain.Booking) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO bookings (
			id, reference, user_id, vehicle_type, pickup_address, delivery_address,
			package_type, is_fragile, sender_name, sender_phone, receiver_name, receiver_phone,
			payment_method, amount, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, COALESCE($16, now()))
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, updated_at = now()
	`, b.ID, b.Reference, b.UserID, b.VehicleType, b.PickupAddress, b.DeliveryAddress,
		b.PackageType, b.IsFragile, b.Sender.Name, b.Sender.Phone, b.Receiver.Name, b.Receiver.Phone,
		b.PaymentMethod, b.Amount, statusOrPending(b.Status), nilIfZeroTime(b))
	return err
}

func (r *BookingRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BookingRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, reference, user_id, vehicle_type, pickup_address, delivery_address,
			package_type, is_fragile, sender_name, sender_phone, receiver_name, receiver_phone,
			payment_method, amount::float8, status, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.Reference, &b.UserID, &b.VehicleType, &b.PickupAddress, &b.DeliveryAddress,
			&b.PackageType, &b.IsFragile, &b.Sender.Name, &b.Sender.Phone, &b.Receiver.Name, &b.Receiver.Phone,
			&b.PaymentMethod, &b.Amount, &b.Status, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func statusOrPending(s string) string {
	if s == "" {
		return domain.StatusPending
	}
	return s
}

func nilIfZeroTime(b *domain.Booking) interface{} {
	if b.CreatedAt.IsZero() {
		return nil
	}
	return b.CreatedAt
}
