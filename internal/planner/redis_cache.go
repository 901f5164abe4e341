package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
)

// RedisCache shares projections between server processes. Each projection
// is stored under its key and its key is added to a tag set per unit, so
// invalidating a unit deletes exactly the projections that include it.
// Calls go through a circuit breaker: while Redis is failing the cache
// behaves as empty instead of adding latency to every request.
type RedisCache struct {
	cli    *redis.Client
	ttl    time.Duration
	prefix string
	cb     *gobreaker.CircuitBreaker
}

// NewRedisCache wraps an existing client. prefix namespaces every key.
func NewRedisCache(cli *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		cli:    cli,
		ttl:    ttl,
		prefix: prefix,
		cb:     newBreaker("projection-cache"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || err == redis.Nil
		},
	})
}

func (c *RedisCache) projectionKey(key Key) string {
	return c.prefix + "proj:" + key.String()
}

func (c *RedisCache) unitKey(unitID string) string {
	return c.prefix + "unit:" + unitID
}

func (c *RedisCache) Get(ctx context.Context, key Key) (*Projection, bool) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.cli.Get(ctx, c.projectionKey(key)).Bytes()
	})
	if err != nil {
		if err != redis.Nil {
			slog.Debug("projection cache get failed", "key", key.String(), "error", err)
		}
		return nil, false
	}

	var p Projection
	if err := json.Unmarshal(res.([]byte), &p); err != nil {
		slog.Warn("discarding unreadable cached projection", "key", key.String(), "error", err)
		return nil, false
	}
	return &p, true
}

func (c *RedisCache) Set(ctx context.Context, key Key, p *Projection) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Warn("encoding projection", "key", key.String(), "error", err)
		return
	}

	pk := c.projectionKey(key)
	_, err = c.cb.Execute(func() (interface{}, error) {
		return c.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, pk, data, c.ttl)
			for _, id := range key.Units {
				pipe.SAdd(ctx, c.unitKey(id), pk)
				if c.ttl > 0 {
					pipe.Expire(ctx, c.unitKey(id), c.ttl)
				}
			}
			return nil
		})
	})
	if err != nil {
		slog.Debug("projection cache set failed", "key", key.String(), "error", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, unitIDs ...string) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		for _, id := range unitIDs {
			uk := c.unitKey(id)
			keys, err := c.cli.SMembers(ctx, uk).Result()
			if err != nil {
				return nil, fmt.Errorf("reading cache tags for %s: %w", id, err)
			}
			if err := c.cli.Del(ctx, append(keys, uk)...).Err(); err != nil {
				return nil, fmt.Errorf("deleting cached projections for %s: %w", id, err)
			}
		}
		return nil, nil
	})
	return err
}

func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		var cursor uint64
		for {
			keys, next, err := c.cli.Scan(ctx, cursor, c.prefix+"*", 500).Result()
			if err != nil {
				return nil, fmt.Errorf("scanning cached projections: %w", err)
			}
			if len(keys) > 0 {
				if err := c.cli.Del(ctx, keys...).Err(); err != nil {
					return nil, fmt.Errorf("deleting cached projections: %w", err)
				}
			}
			if next == 0 {
				return nil, nil
			}
			cursor = next
		}
	})
	return err
}

// State reports the breaker state, for health output.
func (c *RedisCache) State() gobreaker.State {
	return c.cb.State()
}
