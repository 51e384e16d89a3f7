// Package events provides an in-process publish/subscribe bus for item
// changes. The runtime publishes "<list>.<operation>" events after each
// committed write, e.g. "post.created" or "tag.deleted".
package events

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Operations carried in event names.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// Event is a published item change.
type Event struct {
	// Name is "<list>.<operation>" with the list key lower-cased.
	Name string

	// List is the list key, e.g. "Post".
	List string

	// Operation is one of Created, Updated, Deleted.
	Operation string

	// Item is the item after the write, or before it for deletes.
	// Password fields are never included.
	Item map[string]any

	// Actor is the id of the session item that made the change, if any.
	Actor string
}

// Name builds the event name for a list operation.
func Name(list, operation string) string {
	return strings.ToLower(list) + "." + operation
}

// Handler processes an event.
type Handler func(ctx context.Context, event Event) error

// Bus dispatches events to subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewBus creates an event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler. Patterns:
//   - "post.created" - exact match
//   - "post.*" - every event of a list
//   - "*" - all events
func (b *Bus) Subscribe(pattern string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[pattern] = append(b.handlers[pattern], handler)
}

// Publish calls every matching handler synchronously in the order exact,
// list wildcard, global wildcard. Handler errors are logged and do not stop
// delivery.
func (b *Bus) Publish(ctx context.Context, event Event) {
	matched := b.match(event.Name)

	b.logger.Debug().
		Str("event", event.Name).
		Str("list", event.List).
		Int("handlers", len(matched)).
		Msg("event published")

	for _, handler := range matched {
		if err := handler(ctx, event); err != nil {
			b.logger.Error().
				Err(err).
				Str("event", event.Name).
				Msg("event handler error")
		}
	}
}

// HasSubscribers reports whether any handler matches the event name.
func (b *Bus) HasSubscribers(name string) bool {
	return len(b.match(name)) > 0
}

func (b *Bus) match(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []Handler
	matched = append(matched, b.handlers[name]...)
	if prefix, _, ok := strings.Cut(name, "."); ok {
		matched = append(matched, b.handlers[prefix+".*"]...)
	}
	matched = append(matched, b.handlers["*"]...)
	return matched
}
