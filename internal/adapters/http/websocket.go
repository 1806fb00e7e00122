package http

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/cargoconnect/gateway/internal/adapters/nats"
	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/pkg/logging"
	"github.com/cargoconnect/gateway/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// RequireTrackingAccess runs before the WebSocket upgrade and admits only
// callers whose backend credential resolves the ?id= delivery.
func RequireTrackingAccess(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Deliveries.Authorize(c.UserContext(), currentSession(c), c.Query("id")); err != nil {
			return errFrom(c, err)
		}
		return c.Next()
	}
}

// TrackingSocketHandler relays rider positions for ?id=<tracking id> to the
// connected client until either side goes away. Client messages are
// ignored apart from keeping the read loop alive.
func TrackingSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		log := logging.FromContext(context.Background())
		if sess, ok := c.Locals(sessionLocal).(*domain.Session); ok && sess != nil {
			log = log.With("session", sess.ID)
		}
		trackingID := c.Query("id")
		log = log.With("tracking_id", trackingID, "remote", c.RemoteAddr().String())

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		if trackingID == "" {
			_ = writeJSON(map[string]string{"error": "id query parameter is required"})
			return
		}
		if nc == nil {
			_ = writeJSON(map[string]string{"error": "live tracking unavailable"})
			return
		}

		sub, err := nc.Subscribe(natsadapter.TrackingSubject(trackingID), func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		})
		if err != nil {
			log.Error("ws subscribe failed", "error", err)
			_ = writeJSON(map[string]string{"error": "subscribe failed"})
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Info("ws tracking client connected")
		_ = writeJSON(map[string]string{"status": "subscribed", "tracking_id": trackingID})

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		log.Info("ws tracking client disconnected")
	}
}
