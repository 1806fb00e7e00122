package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"
	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"

	"github.com/cargoconnect/gateway/internal/adapters/backend"
	"github.com/cargoconnect/gateway/internal/adapters/http"
	natsadapter "github.com/cargoconnect/gateway/internal/adapters/nats"
	"github.com/cargoconnect/gateway/internal/adapters/postgres"
	"github.com/cargoconnect/gateway/internal/adapters/valkey"
	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/core/ports"
	"github.com/cargoconnect/gateway/internal/core/usecases"
	"github.com/cargoconnect/gateway/internal/pkg/auth"
	"github.com/cargoconnect/gateway/internal/pkg/config"
	"github.com/cargoconnect/gateway/internal/pkg/logging"
	"github.com/cargoconnect/gateway/internal/pkg/telemetry"
	"github.com/cargoconnect/gateway/internal/workflows"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("cargoconnect-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	logging.Setup(logLevel, logFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	// Cache; sessions live here so it is required.
	cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	// NATS is optional: without it tracking updates are not relayed.
	var (
		events   ports.EventPublisher
		natsConn = connectNATS(cfg.NATS.URL)
	)
	if natsConn != nil {
		defer natsConn.Drain()
		pub, err := natsadapter.NewPublisher(natsConn)
		if err != nil {
			slog.Warn("nats streams unavailable", "error", err)
		} else {
			events = pub
		}
	}

	// Temporal is optional: without it bookings are placed directly.
	var bookingWorkflow ports.BookingWorkflow
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
			Logger:    temporallog.NewStructuredLogger(slog.Default()),
		})
		if err != nil {
			slog.Warn("temporal unavailable, placing bookings directly", "error", err)
		} else {
			defer tc.Close()
			bookingWorkflow = workflows.NewStarter(tc, cfg.Temporal.TaskQueue)
		}
	}

	// Adapters
	api := backend.New(cfg.Backend)
	tokens := auth.NewTokenService(cfg.Session.Secret, cfg.Session.TTL())
	bookingRepo := postgres.NewBookingRepo(db)
	settingsRepo := postgres.NewSettingsRepo(db)
	ticketRepo := postgres.NewSupportTicketRepo(db)

	// Use cases
	sessionSvc := usecases.NewSessionService(valkey.NewSessionStore(cache), tokens, cfg.Session.TTL())
	overlaySvc := usecases.NewOverlayService(sessionSvc, domain.MapStyle{
		URL:         cfg.Mapbox.StyleURL,
		AccessToken: cfg.Mapbox.AccessToken,
	})
	authSvc := usecases.NewAuthService(api, sessionSvc, settingsRepo)
	bookingSvc := usecases.NewBookingService(api, sessionSvc, overlaySvc, bookingRepo, events, bookingWorkflow)
	deliverySvc := usecases.NewDeliveryService(api, overlaySvc, cache, events)
	profileSvc := usecases.NewProfileService(api, authSvc, sessionSvc, settingsRepo, ticketRepo, events)

	// Relayed rider positions feed later tracking lookups.
	if natsConn != nil {
		sub, err := natsadapter.NewSubscriber(natsConn)
		if err != nil {
			slog.Warn("tracking subscriber unavailable", "error", err)
		} else if err := sub.SubscribeTrackingUpdates(ctx, deliverySvc.ApplyTrackingUpdate); err != nil {
			slog.Warn("subscribe tracking updates failed", "error", err)
		} else {
			defer sub.Close()
		}
	}

	deps := &http.Dependencies{
		Sessions:   sessionSvc,
		Overlay:    overlaySvc,
		Auth:       authSvc,
		Bookings:   bookingSvc,
		Deliveries: deliverySvc,
		Profile:    profileSvc,
		NATS:       natsConn,
		DB:         db,
		Cache:      cache,
		Cookie: http.SessionCookie{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL(),
			Secure: cfg.Session.CookieSecure,
		},
		Proxy: http.ProxyConfig{
			BaseURL:            cfg.Backend.BaseURL,
			InsecureSkipVerify: cfg.Backend.InsecureSkipVerify,
			Timeout:            cfg.Backend.TimeoutDuration(),
		},
		Version: version,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Cargo Connect Gateway",
	})
	app.Use(recover.New())
	if strings.EqualFold(logFormat, "text") {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("gateway starting", "addr", addr, "version", version, "backend", cfg.Backend.BaseURL)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func connectNATS(url string) *nats.Conn {
	nc, err := natsadapter.Connect(url)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		return nil
	}
	return nc
}
