package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/core/ports"
	"github.com/cargoconnect/gateway/internal/pkg/metrics"
)

// backendErrorType tags application errors that carry a backend status.
const backendErrorType = "BackendError"

// BookingActivities holds the activity implementations for the booking workflow.
type BookingActivities struct {
	Backend  ports.Backend
	Bookings ports.BookingRepository
	Events   ports.EventPublisher
}

// CreateBackendBooking posts the booking to the backend. Client errors
// (4xx) are not retried.
func (a *BookingActivities) CreateBackendBooking(ctx context.Context, authorization string, b domain.Booking) (*domain.Booking, error) {
	created, err := a.Backend.CreateBooking(ctx, authorization, &b)
	if err != nil {
		return nil, asActivityError("create booking", err)
	}
	created.FillMissing(&b)
	return created, nil
}

// RecordBooking stores the booking locally.
func (a *BookingActivities) RecordBooking(ctx context.Context, b domain.Booking) error {
	if a.Bookings == nil {
		return nil
	}
	if err := a.Bookings.Record(ctx, &b); err != nil {
		return fmt.Errorf("record booking %s: %w", b.ID, err)
	}
	return nil
}

// PublishBookingCreated announces the booking on the event bus.
func (a *BookingActivities) PublishBookingCreated(ctx context.Context, b domain.Booking) error {
	if a.Events == nil {
		return nil
	}
	if err := a.Events.PublishBookingCreated(ctx, &b); err != nil {
		return fmt.Errorf("publish booking %s: %w", b.ID, err)
	}
	return nil
}

// CancelBackendBooking cancels the backend booking (saga compensation / rollback).
func (a *BookingActivities) CancelBackendBooking(ctx context.Context, authorization, bookingID string) error {
	if err := a.Backend.CancelBooking(ctx, authorization, bookingID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return asActivityError("cancel booking "+bookingID, err)
	}
	metrics.BookingCompensations.Inc()
	slog.Info("backend booking cancelled (saga compensation)", "booking_id", bookingID)
	return nil
}

func asActivityError(op string, err error) error {
	var be *domain.BackendError
	if errors.As(err, &be) && be.Status >= 400 && be.Status < 500 {
		return temporal.NewNonRetryableApplicationError(be.Message, backendErrorType, err, be.Status, be.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// backendErrorFrom recovers a *domain.BackendError from a workflow failure.
func backendErrorFrom(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) || appErr.Type() != backendErrorType {
		return err
	}
	var (
		status int
		msg    string
	)
	if !appErr.HasDetails() || appErr.Details(&status, &msg) != nil {
		return err
	}
	return &domain.BackendError{Status: status, Message: msg}
}
