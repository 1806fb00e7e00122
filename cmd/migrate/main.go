package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/cargoconnect/gateway/internal/adapters/postgres"
	"github.com/cargoconnect/gateway/internal/pkg/config"
	"github.com/cargoconnect/gateway/internal/pkg/logging"
)

func main() {
	logger := logging.FromEnv()

	if len(os.Args) < 2 {
		logger.Error("usage: migrate <up>")
		os.Exit(2)
	}

	cfg, err := config.Load("cargoconnect-migrate")
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Error("db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		applied, err := db.Migrate(ctx)
		for _, name := range applied {
			logger.Info("applied", "migration", name)
		}
		if err != nil {
			logger.Error("migrate", "error", err)
			os.Exit(1)
		}
		logger.Info("all migrations applied", slog.Int("new", len(applied)))
	default:
		logger.Error("unknown command", "command", os.Args[1])
		os.Exit(2)
	}
}
