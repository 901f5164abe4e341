package reservation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInterval is returned when check-out is not after check-in.
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrNotFound is returned when a reservation does not exist.
	ErrNotFound = errors.New("reservation not found")

	// ErrImmutableField is returned when a checked-in reservation's unit or
	// check-in date would change.
	ErrImmutableField = errors.New("field is immutable after check-in")

	// ErrAlreadyCheckedIn is returned by a second check-in.
	ErrAlreadyCheckedIn = errors.New("reservation already checked in")

	// ErrCheckInTooEarly is returned when checking in before the check-in date.
	ErrCheckInTooEarly = errors.New("check-in date not reached")

	// ErrConcurrentUpdate is returned when another writer changed the
	// reservation after it was read.
	ErrConcurrentUpdate = errors.New("reservation changed since it was read")

	// ErrStoreOverlap is returned when the store's own overlap constraint
	// rejected a write.
	ErrStoreOverlap = errors.New("store rejected overlapping reservation")
)

// ImmutableFieldError names the field a checked-in reservation may not change.
type ImmutableFieldError struct {
	ReservationID string
	Field         string
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("reservation %s: %s is immutable after check-in", e.ReservationID, e.Field)
}

// Is lets errors.Is match ErrImmutableField.
func (e *ImmutableFieldError) Is(target error) bool {
	return target == ErrImmutableField
}
