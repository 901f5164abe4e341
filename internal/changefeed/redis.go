package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

// Relay republishes the store's change log on a Redis channel so several
// server processes can follow one database without each polling it.
type Relay struct {
	src     Feed
	heads   HeadReader
	cli     *redis.Client
	channel string
}

// NewRelay creates a relay from src to the Redis channel.
func NewRelay(src Feed, heads HeadReader, cli *redis.Client, channel string) *Relay {
	return &Relay{src: src, heads: heads, cli: cli, channel: channel}
}

// Run publishes every change made after the relay starts until ctx is
// done or publishing fails.
func (r *Relay) Run(ctx context.Context) error {
	after, err := r.heads.Head(ctx)
	if err != nil {
		return err
	}
	slog.Info("change relay started", "channel", r.channel, "after", after)

	return r.src.Stream(ctx, after, func(ev Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encoding change %d: %w", ev.Seq, err)
		}
		if err := r.cli.Publish(ctx, r.channel, data).Err(); err != nil {
			return fmt.Errorf("publishing change %d: %w", ev.Seq, err)
		}
		return nil
	})
}

// RedisFeed receives changes published by a Relay.
type RedisFeed struct {
	cli     *redis.Client
	channel string
	heads   HeadReader
}

// NewRedisFeed creates a feed on channel. heads is read right after
// subscribing: anything published before the subscription took effect is
// lost on a pub/sub channel, so a head beyond after is reported as a gap.
func NewRedisFeed(cli *redis.Client, channel string, heads HeadReader) *RedisFeed {
	return &RedisFeed{cli: cli, channel: channel, heads: heads}
}

// Stream implements Feed.
func (f *RedisFeed) Stream(ctx context.Context, after int64, fn func(Event) error) error {
	sub := f.cli.Subscribe(ctx, f.channel)
	defer func() {
		if err := sub.Close(); err != nil {
			slog.Debug("closing redis subscription", "error", err)
		}
	}()

	// Wait for the subscription to be confirmed.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", f.channel, err)
	}

	head, err := f.heads.Head(ctx)
	if err != nil {
		return err
	}
	if head > after {
		return &GapError{After: after, Got: head}
	}

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("receiving from %s: %w", f.channel, err)
		}

		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			slog.Warn("ignoring malformed change message", "channel", f.channel, "error", err)
			continue
		}
		if ev.Seq <= after {
			continue
		}
		if err := fn(ev); err != nil {
			return err
		}
		after = ev.Seq
	}
}
