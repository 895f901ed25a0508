package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire shape published to a channel. Connected socket
// gateways fan the payload out to clients subscribed to the channel.
type Envelope struct {
	ID      string    `json:"id"`
	Event   string    `json:"event"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// Bus publishes events to named channels, fire-and-forget. Implementations
// must never require delivery acknowledgment from the engine.
type Bus interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}

// Handler receives envelopes published to a subscribed channel.
type Handler func(ctx context.Context, channel string, envelope Envelope)

// MemoryBus is a synchronous in-process bus, used in tests and as a
// fallback when no Redis address is configured.
type MemoryBus struct {
	mu        sync.RWMutex
	listeners map[string][]Handler
}

// NewMemoryBus creates a bus instance.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{listeners: make(map[string][]Handler)}
}

// Publish synchronously invokes handlers subscribed to the channel.
func (b *MemoryBus) Publish(ctx context.Context, channel, event string, payload any) error {
	envelope := Envelope{
		ID:      uuid.NewString(),
		Event:   event,
		At:      time.Now(),
		Payload: payload,
	}

	b.mu.RLock()
	handlers := append([]Handler{}, b.listeners[channel]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, channel, envelope)
	}
	return nil
}

// Subscribe registers a handler for the given channel.
func (b *MemoryBus) Subscribe(channel string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[channel] = append(b.listeners[channel], handler)
}
