package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

// Activity names, as registered from BookingActivities.
const (
	ActivityCreateBackendBooking  = "CreateBackendBooking"
	ActivityRecordBooking         = "RecordBooking"
	ActivityPublishBookingCreated = "PublishBookingCreated"
	ActivityCancelBackendBooking  = "CancelBackendBooking"
)

// BookingInput is the input for the booking workflow.
type BookingInput struct {
	Authorization string
	Booking       domain.Booking
}

// BookingWorkflow creates the booking upstream, records it locally and
// announces it. If recording or announcing fails after the backend accepted
// the booking, the backend booking is cancelled (saga compensation).
func BookingWorkflow(ctx workflow.Context, input BookingInput) (*domain.Booking, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting booking workflow", "reference", input.Booking.Reference)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: create upstream
	var booking domain.Booking
	err := workflow.ExecuteActivity(ctx, ActivityCreateBackendBooking, input.Authorization, input.Booking).Get(ctx, &booking)
	if err != nil {
		return nil, err
	}

	// Step 2: record locally
	err = workflow.ExecuteActivity(ctx, ActivityRecordBooking, booking).Get(ctx, nil)
	if err == nil {
		// Step 3: announce
		err = workflow.ExecuteActivity(ctx, ActivityPublishBookingCreated, booking).Get(ctx, nil)
	}
	if err != nil {
		logger.Warn("booking follow-up failed, compensating", "bookingID", booking.ID, "error", err)
		cancelCtx, _ := workflow.NewDisconnectedContext(ctx)
		if cerr := workflow.ExecuteActivity(cancelCtx, ActivityCancelBackendBooking, input.Authorization, booking.ID).Get(cancelCtx, nil); cerr != nil {
			logger.Error("compensation failed", "bookingID", booking.ID, "error", cerr)
		}
		return nil, err
	}

	logger.Info("Booking placed", "bookingID", booking.ID)
	return &booking, nil
}
