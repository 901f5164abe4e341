// Package availability decides whether a booking may be made and answers
// occupancy questions from the interval index.
package availability

import (
	"github.com/evcraddock/campbook/internal/index"
	"github.com/evcraddock/campbook/internal/reservation"
)

// Candidate is a proposed placement of a reservation. ReservationID is set
// when an existing reservation is being edited so it is not compared with
// itself.
type Candidate struct {
	ReservationID string
	UnitID        string
	Interval      reservation.Interval
}

// Validator enforces that no two stays on a unit share a date.
type Validator struct {
	idx *index.Index
}

// NewValidator creates a validator over idx.
func NewValidator(idx *index.Index) *Validator {
	return &Validator{idx: idx}
}

// Check accepts the candidate or explains why not: an invalid interval
// first, then an index that cannot be trusted, then any overlapping stays.
func (v *Validator) Check(c Candidate) error {
	if err := c.Interval.Validate(); err != nil {
		return err
	}

	conflicts, err := v.idx.Overlapping(c.UnitID, c.Interval, c.ReservationID)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}

	ids := make([]string, len(conflicts))
	for i, e := range conflicts {
		ids[i] = e.ReservationID
	}
	return &OverlapConflictError{UnitID: c.UnitID, Interval: c.Interval, ConflictIDs: ids}
}
