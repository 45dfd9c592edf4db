package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

// NATSForwarder republishes bus events as JSON on "{prefix}.{event type}".
type NATSForwarder struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSForwarder creates a forwarder. An empty prefix defaults to "companion".
func NewNATSForwarder(nc *nats.Conn, prefix string) *NATSForwarder {
	if prefix == "" {
		prefix = "companion"
	}
	return &NATSForwarder{nc: nc, prefix: prefix}
}

// Subject returns the NATS subject used for an event type.
func (f *NATSForwarder) Subject(eventType EventType) string {
	return f.prefix + "." + string(eventType)
}

// Handle publishes one event.
func (f *NATSForwarder) Handle(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := f.nc.Publish(f.Subject(event.Type), payload); err != nil {
		return errors.Wrapf(err, "publish %s", event.Type)
	}
	return nil
}

// Attach subscribes the forwarder to the given event types on the bus.
func (f *NATSForwarder) Attach(bus *Bus, types ...EventType) {
	for _, t := range types {
		bus.Subscribe(t, f.Handle)
	}
}
