// Package occupancy derives what a unit looks like on a given day from the
// reservation covering it.
package occupancy

import (
	"github.com/evcraddock/campbook/internal/calday"
	"github.com/evcraddock/campbook/internal/reservation"
)

// Label is the single status shown for a unit on a day.
type Label string

const (
	Free        Label = "free"
	Occupied    Label = "occupied"
	CheckInDue  Label = "checkin_due"
	CheckOutDue Label = "checkout_due"
	Reserved    Label = "reserved"
)

// Text returns the display text used on the front desk screens.
func (l Label) Text() string {
	switch l {
	case Free:
		return "Libre"
	case Occupied:
		return "Ocupado"
	case CheckInDue:
		return "Check-in Hoy"
	case CheckOutDue:
		return "Check-out Hoy"
	case Reserved:
		return "Reservado"
	default:
		return string(l)
	}
}

// Class returns the CSS class for the label.
func (l Label) Class() string {
	switch l {
	case CheckInDue:
		return "status-checkin"
	case CheckOutDue:
		return "status-checkout"
	default:
		return "status-" + string(l)
	}
}

// State is the occupancy of one unit on one day. The three facts are
// independent: a checked-in guest leaving today is both occupying the unit
// and due to check out. Label is the first match of free, occupied,
// check-in due, check-out due, reserved.
type State struct {
	Label            Label  `json:"label"`
	Text             string `json:"text"`
	Class            string `json:"class"`
	OccupiedNow      bool   `json:"occupied_now"`
	CheckInDueToday  bool   `json:"checkin_due_today"`
	CheckOutDueToday bool   `json:"checkout_due_today"`
	ReservationID    string `json:"reservation_id,omitempty"`
}

func newState(l Label) State {
	return State{Label: l, Text: l.Text(), Class: l.Class()}
}

// Derive maps a reservation (nil when the unit has none) and today to the
// unit's state. It has no hidden inputs.
func Derive(r *reservation.Reservation, today calday.Date) State {
	if r == nil || today.After(r.CheckOut) {
		return newState(Free)
	}

	checkedIn := r.Status == reservation.CheckedIn
	inStay := !today.Before(r.CheckIn) && today.Before(r.CheckOut)

	var label Label
	switch {
	case checkedIn && inStay:
		label = Occupied
	case !checkedIn && today == r.CheckIn:
		label = CheckInDue
	case today == r.CheckOut:
		label = CheckOutDue
	default:
		label = Reserved
	}

	s := newState(label)
	s.ReservationID = r.ID
	s.OccupiedNow = checkedIn && !today.Before(r.CheckIn) && !today.After(r.CheckOut)
	s.CheckInDueToday = !checkedIn && today == r.CheckIn
	s.CheckOutDueToday = today == r.CheckOut
	return s
}

// Cell merges the two reservations that can touch a unit on one day: the
// occupant whose stay covers it and the stay checking out that morning.
// The occupant decides the label; the departure still raises the
// check-out fact.
func Cell(occupant, departing *reservation.Reservation, today calday.Date) State {
	switch {
	case occupant != nil:
		s := Derive(occupant, today)
		if departing != nil {
			d := Derive(departing, today)
			s.CheckOutDueToday = s.CheckOutDueToday || d.CheckOutDueToday
			s.OccupiedNow = s.OccupiedNow || d.OccupiedNow
		}
		return s
	case departing != nil:
		return Derive(departing, today)
	default:
		return newState(Free)
	}
}
