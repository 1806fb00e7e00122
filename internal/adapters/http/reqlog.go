package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/cargoconnect/gateway/internal/pkg/logging"
)

// RequestIDLogMiddleware injects a request-scoped logger carrying the Fiber
// request ID into the user context, where logging.FromContext finds it.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ridStr, _ := c.Locals("requestid").(string)
		if ridStr == "" {
			return c.Next()
		}

		reqLogger := slog.Default().With("request_id", ridStr)
		c.SetUserContext(logging.WithContext(c.UserContext(), reqLogger))

		return c.Next()
	}
}
