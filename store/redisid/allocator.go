// Package redisid allocates record IDs from a Redis counter.
package redisid

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jacentio/sammy/store"
)

// DefaultKey is the Redis key holding the last allocated ID.
const DefaultKey = "sammy:unique_id"

// Counter is the subset of the go-redis client used by Allocator.
// *redis.Client and *redis.ClusterClient satisfy it.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// Allocator is a Redis-backed store.IDAllocator. INCR is atomic, so
// concurrent callers across processes never receive the same ID.
type Allocator struct {
	client Counter
	key    string
}

var _ store.IDAllocator = (*Allocator)(nil)

// Option configures an Allocator instance.
type Option func(*Allocator)

// WithKey sets the counter key. The default is DefaultKey.
func WithKey(key string) Option {
	return func(a *Allocator) { a.key = key }
}

// New constructs a Redis-backed ID allocator.
func New(client Counter, opts ...Option) *Allocator {
	a := &Allocator{
		client: client,
		key:    DefaultKey,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Allocate increments the counter and returns its new value.
func (a *Allocator) Allocate(ctx context.Context) (int64, error) {
	id, err := a.client.Incr(ctx, a.key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", a.key, err)
	}
	if id <= 0 {
		// Someone reset or decremented the counter.
		return 0, fmt.Errorf("%w: counter %s at %d", store.ErrIDCollision, a.key, id)
	}
	return id, nil
}
