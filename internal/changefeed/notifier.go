package changefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evcraddock/campbook/internal/index"
)

// Target is what the notifier keeps up to date. availability.Service
// implements it.
type Target interface {
	Resync(ctx context.Context) error
	RefreshUnits(ctx context.Context, unitIDs []string) error
}

// Backoff bounds the delay between reconnect and resync attempts.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

// Next returns the delay to use after d; zero d starts at Initial.
func (b Backoff) Next(d time.Duration) time.Duration {
	if d <= 0 {
		return b.Initial
	}
	d *= 2
	if d > b.Max {
		d = b.Max
	}
	return d
}

// Notifier applies change feed events to the index. After every
// disconnect or gap it marks the index stale and does a full resync
// before following the feed again; a partial replay is never trusted.
type Notifier struct {
	feed    Feed
	heads   HeadReader
	target  Target
	idx     *index.Index
	backoff Backoff

	mu          sync.Mutex
	subscribers []func(units []string)
	last        int64

	kick  chan struct{}
	sleep func(ctx context.Context, d time.Duration) error
}

// NewNotifier creates a notifier. heads must read the same store the
// target resyncs from.
func NewNotifier(feed Feed, heads HeadReader, target Target, idx *index.Index, backoff Backoff) *Notifier {
	if backoff.Initial <= 0 {
		backoff.Initial = 500 * time.Millisecond
	}
	if backoff.Max < backoff.Initial {
		backoff.Max = 30 * time.Second
	}
	return &Notifier{
		feed:    feed,
		heads:   heads,
		target:  target,
		idx:     idx,
		backoff: backoff,
		kick:    make(chan struct{}, 1),
		sleep:   sleep,
	}
}

// Subscribe registers fn to be called with the units whose reservations
// changed. A nil slice means everything was reloaded.
func (n *Notifier) Subscribe(fn func(units []string)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscribers = append(n.subscribers, fn)
}

func (n *Notifier) notify(units []string) {
	n.mu.Lock()
	subs := make([]func([]string), len(n.subscribers))
	copy(subs, n.subscribers)
	n.mu.Unlock()
	for _, fn := range subs {
		fn(units)
	}
}

// LastSeq returns the sequence number of the last applied event.
func (n *Notifier) LastSeq() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

func (n *Notifier) setLast(seq int64) {
	n.mu.Lock()
	n.last = seq
	n.mu.Unlock()
}

// RequestResync asks Run to reload everything at the next opportunity.
// The index stays fresh meanwhile.
func (n *Notifier) RequestResync() {
	select {
	case n.kick <- struct{}{}:
	default:
	}
}

// Resync loads the head sequence and then the full state. Events after
// the head are replayed by the feed; applying one twice is harmless
// because every event re-reads its units from the store.
func (n *Notifier) Resync(ctx context.Context) (int64, error) {
	head, err := n.heads.Head(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading change head: %w", err)
	}
	if err := n.target.Resync(ctx); err != nil {
		return 0, err
	}
	n.idx.MarkFresh()
	n.setLast(head)
	n.notify(nil)
	return head, nil
}

// Run follows the feed until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	var delay time.Duration
	for {
		last, err := n.Resync(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			n.idx.MarkUnreliable(err)
			delay = n.backoff.Next(delay)
			slog.Error("availability resync failed", "error", err, "retry_in", delay)
			if err := n.sleep(ctx, delay); err != nil {
				return err
			}
			continue
		}
		slog.Info("availability resynced", "seq", last, "reservations", n.idx.Len())
		delay = 0

		kicked, err := n.follow(ctx, last)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if kicked {
			slog.Info("scheduled availability resync")
			continue
		}

		n.idx.MarkStale(err.Error())
		if errors.Is(err, ErrGap) {
			slog.Warn("change feed gap, resyncing", "error", err)
			continue
		}
		delay = n.backoff.Next(delay)
		slog.Warn("change feed lost, reconnecting", "error", err, "retry_in", delay)
		if err := n.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// follow streams events after last. It reports true when a resync was
// requested.
func (n *Notifier) follow(ctx context.Context, last int64) (bool, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var kicked atomic.Bool
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-n.kick:
			kicked.Store(true)
			cancel()
		case <-stop:
		}
	}()

	err := n.feed.Stream(streamCtx, last, func(ev Event) error {
		if ev.Seq <= last {
			return nil
		}
		if ev.Seq != last+1 {
			return &GapError{After: last, Got: ev.Seq}
		}
		units := ev.Units()
		if err := n.target.RefreshUnits(ctx, units); err != nil {
			return fmt.Errorf("applying change %d: %w", ev.Seq, err)
		}
		last = ev.Seq
		n.setLast(last)
		slog.Debug("applied change", "seq", ev.Seq, "op", ev.Op, "reservation", ev.ReservationID, "units", units)
		n.notify(units)
		return nil
	})

	if kicked.Load() {
		return true, nil
	}
	if err == nil {
		err = errors.New("change feed closed")
	}
	return false, err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
