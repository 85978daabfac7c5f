package notification

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle admits one alert per key per cooloff window.
type Throttle interface {
	Allow(ctx context.Context, key string, cooloff time.Duration) (bool, error)
}

// RedisThrottle shares the cooloff across processes.
type RedisThrottle struct {
	client *redis.Client
}

// NewRedisThrottle creates a Redis-backed throttle.
func NewRedisThrottle(client *redis.Client) *RedisThrottle {
	return &RedisThrottle{client: client}
}

// Allow reports whether key was free and claims it for cooloff.
func (t *RedisThrottle) Allow(ctx context.Context, key string, cooloff time.Duration) (bool, error) {
	return t.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), cooloff).Result()
}

// MemoryThrottle is a single-process throttle.
type MemoryThrottle struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

// NewMemoryThrottle creates an in-process throttle.
func NewMemoryThrottle() *MemoryThrottle {
	return &MemoryThrottle{until: make(map[string]time.Time), now: time.Now}
}

// Allow reports whether key was free and claims it for cooloff.
func (t *MemoryThrottle) Allow(_ context.Context, key string, cooloff time.Duration) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if until, ok := t.until[key]; ok && now.Before(until) {
		return false, nil
	}
	t.until[key] = now.Add(cooloff)
	return true, nil
}

func slaThrottleKey(leadID string) string {
	return "notify:sla:" + leadID
}
