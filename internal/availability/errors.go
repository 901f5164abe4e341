package availability

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evcraddock/campbook/internal/reservation"
)

var (
	// ErrOverlapConflict is returned when the index already holds a stay
	// sharing a date with the candidate.
	ErrOverlapConflict = errors.New("overlap conflict")

	// ErrConcurrentOverlapConflict is returned when the local check passed
	// but the store rejected the write because another client booked first.
	ErrConcurrentOverlapConflict = errors.New("concurrent overlap conflict")
)

// OverlapConflictError lists the reservations a candidate collides with.
type OverlapConflictError struct {
	UnitID      string
	Interval    reservation.Interval
	ConflictIDs []string
}

func (e *OverlapConflictError) Error() string {
	return fmt.Sprintf("unit %s is already booked during %s by reservation %s",
		e.UnitID, e.Interval, strings.Join(e.ConflictIDs, ", "))
}

// Is lets errors.Is match ErrOverlapConflict.
func (e *OverlapConflictError) Is(target error) bool {
	return target == ErrOverlapConflict
}

// ConcurrentOverlapConflictError reports a booking lost to a concurrent
// writer. It is never retried automatically: picking another unit or date
// is up to the person booking.
type ConcurrentOverlapConflictError struct {
	UnitID   string
	Interval reservation.Interval
	Err      error
}

func (e *ConcurrentOverlapConflictError) Error() string {
	return fmt.Sprintf("unit %s was booked for %s by another client; reload and try again", e.UnitID, e.Interval)
}

// Is lets errors.Is match ErrConcurrentOverlapConflict.
func (e *ConcurrentOverlapConflictError) Is(target error) bool {
	return target == ErrConcurrentOverlapConflict
}

func (e *ConcurrentOverlapConflictError) Unwrap() error {
	return e.Err
}
