package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

// Subjects.
const (
	SubjectBookingCreated = "cargo.booking.created"
	SubjectTrackingPrefix = "cargo.tracking."
	SubjectTrackingAll    = "cargo.tracking.>"
	SubjectSupportCreated = "cargo.support.created"
)

var tokenReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

// TrackingSubject is the subject carrying rider positions for one delivery.
func TrackingSubject(trackingID string) string {
	return SubjectTrackingPrefix + tokenReplacer.Replace(trackingID)
}

// Streams the gateway publishes into.
var streams = []nats.StreamConfig{
	{
		Name:      "CARGO_BOOKINGS",
		Subjects:  []string{"cargo.booking.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	},
	{
		Name:      "CARGO_TRACKING",
		Subjects:  []string{SubjectTrackingAll},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    1 * time.Hour,
		Storage:   nats.FileStorage,
	},
	{
		Name:      "CARGO_SUPPORT",
		Subjects:  []string{"cargo.support.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    30 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	},
}

// Connect dials NATS with reconnects enabled. The same connection backs the
// publisher, the subscriber and the WebSocket relay.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("cargoconnect-gateway"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher enables JetStream on conn and makes sure the streams exist.
func NewPublisher(conn *nats.Conn) (*Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	for i := range streams {
		cfg := streams[i]
		if _, err := js.AddStream(&cfg); err != nil {
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) publish(ctx context.Context, subject string, v any, msgID string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	opts := []nats.PubOpt{nats.Context(ctx)}
	if msgID != "" {
		opts = append(opts, nats.MsgId(msgID))
	}
	if _, err := p.js.Publish(subject, data, opts...); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// PublishBookingCreated deduplicates on the booking id.
func (p *Publisher) PublishBookingCreated(ctx context.Context, b *domain.Booking) error {
	return p.publish(ctx, SubjectBookingCreated, b, "booking-"+b.ID)
}

func (p *Publisher) PublishTrackingUpdate(ctx context.Context, u *domain.TrackingUpdate) error {
	return p.publish(ctx, TrackingSubject(u.TrackingID), u, "")
}

func (p *Publisher) PublishSupportTicket(ctx context.Context, t *domain.SupportTicket) error {
	return p.publish(ctx, SubjectSupportCreated, t, "support-"+t.ID)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
