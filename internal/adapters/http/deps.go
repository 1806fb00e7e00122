package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/cargoconnect/gateway/internal/core/usecases"
)

// Pinger is a dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCookie configures the browser session cookie.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// ProxyConfig configures the /api/proxy passthrough.
type ProxyConfig struct {
	BaseURL            string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions   *usecases.SessionService
	Overlay    *usecases.OverlayService
	Auth       *usecases.AuthService
	Bookings   *usecases.BookingService
	Deliveries *usecases.DeliveryService
	Profile    *usecases.ProfileService
	NATS       *nats.Conn
	DB         Pinger
	Cache      Pinger
	Cookie     SessionCookie
	Proxy      ProxyConfig
	Version    string
}
