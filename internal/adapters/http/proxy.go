package http

import (
	"crypto/tls"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"github.com/valyala/fasthttp"

	"github.com/cargoconnect/gateway/internal/pkg/logging"
	"github.com/cargoconnect/gateway/internal/pkg/metrics"
)

// ProxyHandler forwards /api/proxy/<path> to the backend, any method. A
// signed-in caller's backend credential replaces whatever Authorization
// header it sent.
func ProxyHandler(cfg ProxyConfig) fiber.Handler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &fasthttp.Client{
		TLSConfig:                &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // opt-in for self-signed staging backends
		ReadTimeout:              timeout,
		WriteTimeout:             timeout,
		NoDefaultUserAgentHeader: true,
		DisablePathNormalizing:   true,
	}
	base := strings.TrimRight(cfg.BaseURL, "/")

	return func(c *fiber.Ctx) error {
		if base == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Proxy configuration error."})
		}

		target := base + "/" + strings.TrimLeft(c.Params("*"), "/")
		if q := c.Request().URI().QueryString(); len(q) > 0 {
			target += "?" + string(q)
		}

		c.Request().Header.Del(fiber.HeaderHost)
		c.Request().Header.Del(fiber.HeaderConnection)
		if sess := currentSession(c); sess.Authenticated() {
			c.Request().Header.Set(fiber.HeaderAuthorization, sess.Authorization)
		}

		start := time.Now()
		if err := proxy.Do(c, target, client); err != nil {
			metrics.ObserveBackend("proxy", 0, start)
			logging.FromContext(c.UserContext()).Warn("proxy request failed", "target", target, "error", err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":   "Proxy request failed",
				"details": err.Error(),
			})
		}
		metrics.ObserveBackend("proxy", c.Response().StatusCode(), start)

		c.Response().Header.Del(fiber.HeaderTransferEncoding)
		c.Response().Header.Del(fiber.HeaderConnection)
		return nil
	}
}
