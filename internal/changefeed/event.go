// Package changefeed follows reservation mutations in the store and keeps
// the availability index in step with them.
package changefeed

import (
	"context"
	"errors"
	"fmt"
)

// Op is the kind of mutation.
type Op string

const (
	Insert Op = "insert"
	Update Op = "update"
	Delete Op = "delete"
)

// Event is one reservation mutation. Seq increases by exactly one per
// mutation, so a jump means events were missed.
type Event struct {
	Seq           int64  `json:"seq"`
	Op            Op     `json:"op"`
	ReservationID string `json:"reservation_id"`
	UnitID        string `json:"unit_id"`
	PrevUnitID    string `json:"prev_unit_id,omitempty"`
}

// Units returns the units the event touched: the current one and, for a
// move, the one the reservation left.
func (e Event) Units() []string {
	if e.PrevUnitID != "" && e.PrevUnitID != e.UnitID {
		return []string{e.UnitID, e.PrevUnitID}
	}
	return []string{e.UnitID}
}

// Feed delivers events after a sequence number in order. Stream blocks
// until ctx is done, fn returns an error, or the transport fails.
type Feed interface {
	Stream(ctx context.Context, after int64, fn func(Event) error) error
}

// HeadReader reports the sequence number of the latest mutation.
type HeadReader interface {
	Head(ctx context.Context) (int64, error)
}

// ErrGap is returned when the feed skipped sequence numbers.
var ErrGap = errors.New("change feed gap")

// GapError describes a gap between the last applied event and the next.
type GapError struct {
	After int64
	Got   int64
}

func (e *GapError) Error() string {
	return fmt.Sprintf("change feed gap: expected seq %d, got %d", e.After+1, e.Got)
}

// Is lets errors.Is match ErrGap.
func (e *GapError) Is(target error) bool {
	return target == ErrGap
}
