// Package events fans relationship notifications out to in-process handlers
// and, optionally, to a NATS subject.
package events

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	companion "github.com/cyberFlowTech/companion-sdk-go"
)

// EventType names a kind of event.
type EventType string

const (
	// MilestoneReached fires once per milestone per relationship.
	MilestoneReached EventType = "relationship.milestone"
)

// Event is a published notification.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

// Handler handles one event.
type Handler func(ctx context.Context, event Event) error

// Bus manages event subscriptions and publishing.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Handler
	logger      *log.Logger
	now         func() time.Time
}

// NewBus creates an event bus. A nil logger discards output.
func NewBus(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Bus{
		subscribers: make(map[EventType][]Handler),
		logger:      logger,
		now:         time.Now,
	}
}

// Subscribe adds a handler for an event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
	b.logger.Debug("Event handler subscribed", "event_type", eventType)
}

// Publish runs every handler for the event concurrently and waits for them.
// Handler errors are logged, never returned.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.Timestamp == 0 {
		event.Timestamp = b.now().Unix()
	}
	b.logger.Debug("Publishing event", "event_type", event.Type, "handlers_count", len(handlers))

	var wg sync.WaitGroup
	for _, handler := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			if err := h(ctx, event); err != nil {
				b.logger.Error("Event handler failed", "event_type", event.Type, "error", err)
			}
		}(handler)
	}
	wg.Wait()
}

// Unsubscribe removes all handlers for an event type.
func (b *Bus) Unsubscribe(eventType EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, eventType)
	b.logger.Debug("Event handlers unsubscribed", "event_type", eventType)
}

// SubscriberCount returns the number of handlers for an event type.
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[eventType])
}

// MilestoneSink returns a sink that publishes MilestoneReached events for
// one session. Pass it to companion.WithMilestoneSinks.
func (b *Bus) MilestoneSink(sessionID string) companion.MilestoneSink {
	return companion.MilestoneSinkFunc(func(milestone, total int) {
		b.Publish(context.Background(), Event{
			Type:      MilestoneReached,
			SessionID: sessionID,
			Data: map[string]any{
				"milestone":          milestone,
				"total_interactions": total,
			},
		})
	})
}
