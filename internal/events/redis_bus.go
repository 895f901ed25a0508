package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus publishes JSON envelopes over Redis pub/sub. The socket gateway
// processes subscribe to the same channels and relay to connected clients.
type RedisBus struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBus creates a bus over an existing client.
func NewRedisBus(client *redis.Client, logger *zap.Logger) *RedisBus {
	return &RedisBus{client: client, logger: logger}
}

// Publish serializes the envelope and fires it at the channel. Delivery is
// best-effort; a publish with zero receivers is not an error.
func (b *RedisBus) Publish(ctx context.Context, channel, event string, payload any) error {
	envelope := Envelope{
		ID:      uuid.NewString(),
		Event:   event,
		At:      time.Now(),
		Payload: payload,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if err := b.client.Publish(ctx, channel, body).Err(); err != nil {
		return err
	}
	b.logger.Debug("event published",
		zap.String("channel", channel),
		zap.String("event", event))
	return nil
}
