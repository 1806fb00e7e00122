package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/pkg/logging"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber sharing conn.
func NewSubscriber(conn *nats.Conn) (*Subscriber, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{js: js}, nil
}

// SubscribeTrackingUpdates feeds every rider position to handler through a
// durable consumer shared by all gateway instances. Malformed messages are
// terminated; handler failures are redelivered up to three times.
func (s *Subscriber) SubscribeTrackingUpdates(ctx context.Context, handler func(ctx context.Context, u *domain.TrackingUpdate) error) error {
	log := logging.FromContext(ctx)
	sub, err := s.js.Subscribe(SubjectTrackingAll, func(msg *nats.Msg) {
		var u domain.TrackingUpdate
		if err := json.Unmarshal(msg.Data, &u); err != nil {
			log.Warn("dropping malformed tracking update", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &u); err != nil {
			log.Warn("tracking update handler failed", "tracking_id", u.TrackingID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("gateway-tracking"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes. The shared connection is drained by its owner.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}
