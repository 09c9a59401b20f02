package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const defaultFlushTimeout = 2 * time.Second

// NATSPublisher publishes events on NATS subjects named after the stream.
type NATSPublisher struct {
	nc           *nats.Conn
	flushTimeout time.Duration
}

// NewNATSPublisher returns a NATSPublisher over an open connection.
func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc, flushTimeout: defaultFlushTimeout}
}

// Publish sends the event and waits for the server to acknowledge the
// flush, so a dead connection surfaces as an error.
func (p *NATSPublisher) Publish(ctx context.Context, subject, eventType string, data any) error {
	payload, err := marshalEvent(eventType, data)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.flushTimeout)
	defer cancel()
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	return nil
}
