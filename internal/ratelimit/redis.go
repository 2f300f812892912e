package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/encounterhq/discovery/internal/domain"
)

// CounterStore is the consumer interface for the shared atomic counter backing
// multi-instance rate limiting.
type CounterStore interface {
	// Incr atomically increments key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// PExpireNX sets a TTL on key only if it has none yet.
	PExpireNX(ctx context.Context, key string, ttl time.Duration) error
	// PTTL returns the remaining TTL of key (negative when none).
	PTTL(ctx context.Context, key string) (time.Duration, error)
}

// Redis is a sliding-window governor backed by a shared atomic counter, for
// multi-instance deployments. The window is anchored by the key's TTL: the
// first increment creates the window, later increments ride it until expiry.
// The check/increment contract is identical to the in-memory governor.
type Redis struct {
	store  CounterStore
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

var _ Governor = (*Redis)(nil)

// NewRedis creates a Redis-backed governor. prefix namespaces keys per
// endpoint class so distinct limiters never share a counter.
func NewRedis(store CounterStore, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{store: store, prefix: prefix, limit: limit, window: window, now: time.Now}
}

// Check atomically consumes one slot for key.
func (g *Redis) Check(ctx context.Context, key string) (Decision, error) {
	counterKey := g.prefix + key

	count, err := g.store.Incr(ctx, counterKey)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: rate counter incr: %w", domain.ErrDatastore, err)
	}

	// First request in the window owns TTL creation; NX guards the race where
	// two first requests interleave.
	if count == 1 {
		if err := g.store.PExpireNX(ctx, counterKey, g.window); err != nil {
			return Decision{}, fmt.Errorf("%w: rate counter expire: %w", domain.ErrDatastore, err)
		}
	}

	resetAt := g.now().Add(g.window)
	if ttl, err := g.store.PTTL(ctx, counterKey); err == nil && ttl > 0 {
		resetAt = g.now().Add(ttl)
	}

	if count > int64(g.limit) {
		return Decision{Allowed: false, Limit: g.limit, Remaining: 0, ResetAt: resetAt}, nil
	}

	return Decision{
		Allowed:   true,
		Limit:     g.limit,
		Remaining: g.limit - int(count),
		ResetAt:   resetAt,
	}, nil
}
