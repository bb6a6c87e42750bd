package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/dejobratic/idemorders/internal/orders/domain"
)

// StreamPublisher is the subset of jetstream.JetStream used for publishing.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSPublisher sends order events to a JetStream stream.
type NATSPublisher struct {
	js StreamPublisher
}

func NewNATSPublisher(js StreamPublisher) *NATSPublisher {
	return &NATSPublisher{js: js}
}

// PublishOrderCreated uses the order ID as the message ID so JetStream
// deduplicates repeated publishes of the same order.
func (p *NATSPublisher) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	data, err := NewOrderCreated(order).Payload()
	if err != nil {
		return fmt.Errorf("encode order created event: %w", err)
	}

	if _, err := p.js.Publish(ctx, OrderCreatedSubject, data, jetstream.WithMsgID(order.ID)); err != nil {
		return fmt.Errorf("publish %s: %w", OrderCreatedSubject, err)
	}

	return nil
}

// Connect dials NATS and makes sure the order stream exists.
func Connect(ctx context.Context, url string, timeout time.Duration) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url, nats.Timeout(timeout), nats.Name("orders-api"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"orders.>"},
	})
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("ensure stream %s: %w", StreamName, err)
	}

	return nc, js, nil
}
