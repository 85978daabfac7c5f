package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"dealer_crm_backend/internal/notification/sse"
	"dealer_crm_backend/platform/logger"
)

// LiveChannel is the Redis pub/sub channel carrying dashboard updates between
// the API and scheduler processes.
const LiveChannel = "crm:live"

// LiveFeed publishes a dashboard update.
type LiveFeed interface {
	Publish(ctx context.Context, event sse.Event) error
}

// Broadcaster delivers an update to the clients connected to this process.
type Broadcaster interface {
	Broadcast(event sse.Event) int
}

type localFeed struct {
	dst Broadcaster
}

func (f localFeed) Publish(_ context.Context, event sse.Event) error {
	f.dst.Broadcast(event)
	return nil
}

// RedisRelay fans live updates out through Redis so every API instance sees
// events raised by any process.
type RedisRelay struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

// NewRedisRelay creates a relay on LiveChannel.
func NewRedisRelay(client *redis.Client, log *logger.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: LiveChannel, log: log}
}

// Publish implements LiveFeed.
func (r *RedisRelay) Publish(ctx context.Context, event sse.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode live event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish live event: %w", err)
	}
	return nil
}

// Run forwards every relayed event to dst until ctx is done.
func (r *RedisRelay) Run(ctx context.Context, dst Broadcaster) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.log.Info("live relay subscribed", "channel", r.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event sse.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.log.Warn("dropping malformed live event", "error", err)
				continue
			}
			dst.Broadcast(event)
		}
	}
}

var _ LiveFeed = (*RedisRelay)(nil)
