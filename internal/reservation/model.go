// Package reservation provides the reservation domain model and data access.
package reservation

import (
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/campbook/internal/calday"
)

// Status is a reservation's lifecycle stage.
type Status string

const (
	Confirmed Status = "confirmed"
	CheckedIn Status = "checked_in"
)

// IsValid reports whether s is a known lifecycle stage.
func (s Status) IsValid() bool {
	return s == Confirmed || s == CheckedIn
}

// Label returns a human-readable label for the status.
func (s Status) Label() string {
	switch s {
	case Confirmed:
		return "Confirmada"
	case CheckedIn:
		return "Check-in realizado"
	default:
		return string(s)
	}
}

// Interval is the half-open date range [CheckIn, CheckOut) a reservation
// holds its unit for.
type Interval struct {
	CheckIn  calday.Date `json:"check_in"`
	CheckOut calday.Date `json:"check_out"`
}

// NewInterval returns a validated interval.
func NewInterval(checkIn, checkOut calday.Date) (Interval, error) {
	iv := Interval{CheckIn: checkIn, CheckOut: checkOut}
	return iv, iv.Validate()
}

// Validate rejects unset dates and zero-night or inverted stays.
func (iv Interval) Validate() error {
	if iv.CheckIn.IsZero() || iv.CheckOut.IsZero() {
		return fmt.Errorf("%w: check-in and check-out are required", ErrInvalidInterval)
	}
	if !iv.CheckOut.After(iv.CheckIn) {
		return fmt.Errorf("%w: check-out %s must be after check-in %s", ErrInvalidInterval, iv.CheckOut, iv.CheckIn)
	}
	return nil
}

// Overlaps reports whether the two intervals share at least one date.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(iv.CheckOut)
}

// Contains reports whether d is one of the occupied dates.
func (iv Interval) Contains(d calday.Date) bool {
	return !d.Before(iv.CheckIn) && d.Before(iv.CheckOut)
}

// Nights is the number of occupied dates.
func (iv Interval) Nights() int {
	return iv.CheckIn.DaysUntil(iv.CheckOut)
}

// Intersect returns the common part of both intervals; ok is false when
// they do not overlap.
func (iv Interval) Intersect(other Interval) (Interval, bool) {
	if !iv.Overlaps(other) {
		return Interval{}, false
	}
	return Interval{
		CheckIn:  calday.Max(iv.CheckIn, other.CheckIn),
		CheckOut: calday.Min(iv.CheckOut, other.CheckOut),
	}, true
}

func (iv Interval) String() string {
	return "[" + iv.CheckIn.String() + ", " + iv.CheckOut.String() + ")"
}

// Counters are the headcounts recorded for a stay. They are independent of
// each other; nothing ties the partial counts to the total.
type Counters struct {
	Total      int `json:"pax_total"`
	Affiliated int `json:"pax_affiliated"`
	Agreement  int `json:"pax_agreement"`
	Intern     int `json:"pax_intern"`
}

func (c Counters) validate() error {
	for _, f := range []struct {
		name string
		v    int
	}{
		{"pax_total", c.Total},
		{"pax_affiliated", c.Affiliated},
		{"pax_agreement", c.Agreement},
		{"pax_intern", c.Intern},
	} {
		if f.v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", f.name, f.v)
		}
	}
	return nil
}

// Reservation is one guest's hold on a unit.
type Reservation struct {
	ID        string      `json:"id"`
	UnitID    string      `json:"unit_id"`
	GuestID   int64       `json:"guest_id"`
	GuestName string      `json:"guest_name,omitempty"`
	CheckIn   calday.Date `json:"check_in"`
	CheckOut  calday.Date `json:"check_out"`
	Status    Status      `json:"status"`
	Counters
	Notes     string    `json:"notes"`
	StayOrder *int64    `json:"stay_order,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// Interval returns the occupied date range.
func (r *Reservation) Interval() Interval {
	return Interval{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

// Nights is the length of the stay.
func (r *Reservation) Nights() int {
	return r.Interval().Nights()
}

// Validate checks a reservation before it is written.
func (r *Reservation) Validate() error {
	if strings.TrimSpace(r.UnitID) == "" {
		return fmt.Errorf("unit id is required")
	}
	if r.GuestID <= 0 {
		return fmt.Errorf("guest id is required")
	}
	if err := r.Interval().Validate(); err != nil {
		return err
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("invalid reservation status: %q", r.Status)
	}
	return r.Counters.validate()
}

// Patch is a partial edit. Nil fields are left unchanged.
type Patch struct {
	UnitID     *string      `json:"unit_id,omitempty"`
	CheckIn    *calday.Date `json:"check_in,omitempty"`
	CheckOut   *calday.Date `json:"check_out,omitempty"`
	Total      *int         `json:"pax_total,omitempty"`
	Affiliated *int         `json:"pax_affiliated,omitempty"`
	Agreement  *int         `json:"pax_agreement,omitempty"`
	Intern     *int         `json:"pax_intern,omitempty"`
	Notes      *string      `json:"notes,omitempty"`
	StayOrder  *int64       `json:"stay_order,omitempty"`
}

// Apply returns a copy of r with the patch applied. Once a reservation is
// checked in its unit and check-in date can no longer change.
func (p Patch) Apply(r *Reservation) (*Reservation, error) {
	next := *r
	if p.UnitID != nil && *p.UnitID != r.UnitID {
		if r.Status == CheckedIn {
			return nil, &ImmutableFieldError{ReservationID: r.ID, Field: "unit_id"}
		}
		next.UnitID = *p.UnitID
	}
	if p.CheckIn != nil && *p.CheckIn != r.CheckIn {
		if r.Status == CheckedIn {
			return nil, &ImmutableFieldError{ReservationID: r.ID, Field: "check_in"}
		}
		next.CheckIn = *p.CheckIn
	}
	if p.CheckOut != nil {
		next.CheckOut = *p.CheckOut
	}
	if p.Total != nil {
		next.Total = *p.Total
	}
	if p.Affiliated != nil {
		next.Affiliated = *p.Affiliated
	}
	if p.Agreement != nil {
		next.Agreement = *p.Agreement
	}
	if p.Intern != nil {
		next.Intern = *p.Intern
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	if p.StayOrder != nil {
		order := *p.StayOrder
		next.StayOrder = &order
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return &next, nil
}

// MovesInterval reports whether applying the patch can change where or
// when the reservation sits, which is what needs overlap validation.
func (p Patch) MovesInterval() bool {
	return p.UnitID != nil || p.CheckIn != nil || p.CheckOut != nil
}
