package changefeed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	cli := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = cli.Close() })
	return cli
}

func TestRedisFeedReportsTransportLoss(t *testing.T) {
	f := NewRedisFeed(unreachableRedis(t), "campbook:changes", &fixedHead{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := f.Stream(ctx, 0, func(Event) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "subscribing to campbook:changes") {
		t.Fatalf("error = %v, want subscription failure", err)
	}
}

func TestRelayStopsWhenPublishFails(t *testing.T) {
	src := &scriptedFeed{sessions: []session{{events: []Event{{Seq: 1, Op: Insert, ReservationID: "r1", UnitID: "C1"}}}}}
	r := NewRelay(src, &fixedHead{}, unreachableRedis(t), "campbook:changes")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := r.Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "publishing change 1") {
		t.Fatalf("error = %v, want publish failure", err)
	}
}
