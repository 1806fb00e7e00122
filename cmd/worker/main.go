package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/cargoconnect/gateway/internal/adapters/backend"
	natsadapter "github.com/cargoconnect/gateway/internal/adapters/nats"
	"github.com/cargoconnect/gateway/internal/adapters/postgres"
	"github.com/cargoconnect/gateway/internal/pkg/config"
	"github.com/cargoconnect/gateway/internal/pkg/logging"
	"github.com/cargoconnect/gateway/internal/workflows"
)

func main() {
	logging.FromEnv()

	cfg, err := config.Load("cargoconnect-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	activities := &workflows.BookingActivities{
		Backend:  backend.New(cfg.Backend),
		Bookings: postgres.NewBookingRepo(db),
	}

	nc, err := natsadapter.Connect(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, booking events disabled", "error", err)
	} else {
		pub, err := natsadapter.NewPublisher(nc)
		if err != nil {
			slog.Warn("nats streams unavailable, booking events disabled", "error", err)
		} else {
			activities.Events = pub
		}
		defer nc.Drain()
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporallog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.BookingWorkflow)
	w.RegisterActivity(activities)

	slog.Info("booking worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
