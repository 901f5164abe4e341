package planner

import (
	"fmt"

	"github.com/evcraddock/campbook/internal/calday"
	"github.com/evcraddock/campbook/internal/reservation"
)

// Window is the half-open range of dates [Start, End) a projection covers.
type Window struct {
	Start calday.Date `json:"start"`
	End   calday.Date `json:"end"`
}

// NewWindow returns a validated window.
func NewWindow(start, end calday.Date) (Window, error) {
	w := Window{Start: start, End: end}
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return Window{}, fmt.Errorf("%w: window end %s must be after start %s", reservation.ErrInvalidInterval, end, start)
	}
	return w, nil
}

// WindowOf returns the window of n days starting at start.
func WindowOf(start calday.Date, days int) (Window, error) {
	return NewWindow(start, start.AddDays(days))
}

// Days is the number of dates in the window.
func (w Window) Days() int {
	return w.Start.DaysUntil(w.End)
}

// Dates lists every date in the window.
func (w Window) Dates() []calday.Date {
	n := w.Days()
	dates := make([]calday.Date, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, w.Start.AddDays(i))
	}
	return dates
}

func (w Window) interval() reservation.Interval {
	return reservation.Interval{CheckIn: w.Start, CheckOut: w.End}
}

func (w Window) String() string {
	return w.interval().String()
}
