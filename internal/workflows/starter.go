package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/core/ports"
)

// Starter runs BookingWorkflow on a Temporal cluster and waits for it.
type Starter struct {
	client    client.Client
	taskQueue string
}

var _ ports.BookingWorkflow = (*Starter)(nil)

// NewStarter creates a Starter bound to taskQueue.
func NewStarter(c client.Client, taskQueue string) *Starter {
	return &Starter{client: c, taskQueue: taskQueue}
}

// PlaceBooking executes the saga and blocks until it completes.
func (s *Starter) PlaceBooking(ctx context.Context, req ports.BookingRequest) (*domain.Booking, error) {
	opts := client.StartWorkflowOptions{
		ID:        "booking-" + req.Booking.Reference,
		TaskQueue: s.taskQueue,
	}
	run, err := s.client.ExecuteWorkflow(ctx, opts, BookingWorkflow, BookingInput{
		Authorization: req.Authorization,
		Booking:       req.Booking,
	})
	if err != nil {
		return nil, fmt.Errorf("start booking workflow: %w: %v", domain.ErrBackendUnavailable, err)
	}

	var out domain.Booking
	if err := run.Get(ctx, &out); err != nil {
		return nil, backendErrorFrom(err)
	}
	return &out, nil
}
