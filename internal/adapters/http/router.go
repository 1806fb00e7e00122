package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/cargoconnect/gateway/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// shipmentsSunset is when the /v1/shipments aliases go away.
var shipmentsSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, proxy and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware("/metrics", "/v1/health", "/v1/ready"))

	// 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/v1/shipments*", SunsetDate: shipmentsSunset, Alternative: "/v1/deliveries"},
	}))
	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	t := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, requestTimeout)
	}
	auth := RequireSession(deps)
	optional := OptionalSession(deps)

	v1 := app.Group("/v1")

	// Public
	v1.Get("/vehicles", ListVehiclesHandler(deps))
	v1.Get("/vehicles/:type", GetVehicleHandler(deps))
	v1.Get("/package-types", PackageTypesHandler(deps))
	v1.Post("/auth/register", t(RegisterHandler(deps)))
	v1.Post("/auth/login", t(LoginHandler(deps)))
	v1.Post("/overlay", optional, OverlayHandler(deps))

	// Session
	v1.Post("/auth/logout", auth, t(LogoutHandler(deps)))
	v1.Get("/auth/me", auth, t(MeHandler(deps)))
	v1.Put("/session/viewport", auth, t(TrackViewportHandler(deps)))

	// Booking
	v1.Post("/bookings/start", auth, t(StartBookingHandler(deps)))
	v1.Post("/bookings", auth, t(SubmitBookingHandler(deps)))
	v1.Get("/bookings/summary", auth, t(BookingSummaryHandler(deps)))
	v1.Post("/bookings/confirm", auth, t(ConfirmBookingHandler(deps)))

	// Deliveries and tracking
	v1.Get("/deliveries", auth, t(ListDeliveriesHandler(deps)))
	v1.Get("/deliveries/:id", auth, t(GetDeliveryHandler(deps)))
	v1.Get("/shipments", auth, t(ListDeliveriesHandler(deps)))
	v1.Get("/shipments/:id", auth, t(GetDeliveryHandler(deps)))
	v1.Get("/tracking/:id", auth, t(TrackingHandler(deps)))
	v1.Post("/tracking/:id/updates", auth, t(PublishTrackingHandler(deps)))

	// Profile and settings
	v1.Get("/profile", auth, t(GetProfileHandler(deps)))
	v1.Put("/profile", auth, t(UpdateProfileHandler(deps)))
	v1.Delete("/profile", auth, t(DeleteAccountHandler(deps)))
	v1.Post("/profile/password", auth, t(ChangePasswordHandler(deps)))
	v1.Get("/settings", auth, t(GetSettingsHandler(deps)))
	v1.Put("/settings/notifications", auth, t(UpdateNotificationsHandler(deps)))
	v1.Put("/settings/preferences", auth, t(UpdatePreferencesHandler(deps)))
	v1.Post("/support", auth, t(ContactSupportHandler(deps)))

	app.Post("/graphql", optional, GraphQLHandler(deps))

	app.All("/api/proxy/*", optional, ProxyHandler(deps.Proxy))

	SetupDocs(app, "")

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/tracking", auth, RequireTrackingAccess(deps), websocket.New(TrackingSocketHandler(deps.NATS)))
}
