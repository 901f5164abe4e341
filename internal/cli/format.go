package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/campbook/internal/availability"
	"github.com/evcraddock/campbook/internal/occupancy"
	"github.com/evcraddock/campbook/internal/planner"
	"github.com/evcraddock/campbook/internal/reservation"
	"github.com/evcraddock/campbook/internal/unit"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printReservation prints a single reservation in text format.
func printReservation(w io.Writer, r *reservation.Reservation) {
	fmt.Fprintf(w, "Reservation %s\n", r.ID)
	fmt.Fprintf(w, "  Unit:      %s\n", r.UnitID)
	fmt.Fprintf(w, "  Guest:     %s (#%d)\n", orDash(r.GuestName), r.GuestID)
	fmt.Fprintf(w, "  Stay:      %s → %s (%s)\n", r.CheckIn, r.CheckOut, formatNights(r.Nights()))
	fmt.Fprintf(w, "  Status:    %s\n", r.Status.Label())
	fmt.Fprintf(w, "  Pax:       %d (affiliated %d, agreement %d, intern %d)\n",
		r.Total, r.Affiliated, r.Agreement, r.Intern)
	if r.StayOrder != nil {
		fmt.Fprintf(w, "  Order:     %d\n", *r.StayOrder)
	}
	if r.Notes != "" {
		fmt.Fprintf(w, "  Notes:     %s\n", r.Notes)
	}
}

// printUnitTable prints the inventory as a formatted table.
func printUnitTable(out io.Writer, units []*unit.Unit) error {
	if len(units) == 0 {
		fmt.Fprintln(out, "No units found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tCATEGORY\tCAPACITY"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t--------\t--------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}
	for _, u := range units {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", u.ID, u.Category.Label(), u.Capacity); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(out, "\nTotal: %d units\n", len(units))
	return nil
}

// printState prints a unit's occupancy on one day.
func printState(w io.Writer, unitID, date string, st occupancy.State) {
	fmt.Fprintf(w, "%s on %s: %s\n", unitID, date, st.Text)
	if st.ReservationID != "" {
		fmt.Fprintf(w, "  Reservation: %s\n", st.ReservationID)
	}
	var facts []string
	if st.OccupiedNow {
		facts = append(facts, "occupied")
	}
	if st.CheckInDueToday {
		facts = append(facts, "check-in due")
	}
	if st.CheckOutDueToday {
		facts = append(facts, "check-out due")
	}
	if len(facts) > 0 {
		fmt.Fprintf(w, "  Today:       %s\n", strings.Join(facts, ", "))
	}
}

// printSummary prints the front desk overview.
func printSummary(w io.Writer, sum *availability.Summary) {
	fmt.Fprintf(w, "Summary for %s\n", sum.Date)
	fmt.Fprintf(w, "  Cabins:     %d/%d occupied\n", sum.Cabins.Occupied, sum.Cabins.Total)
	fmt.Fprintf(w, "  Campsites:  %d/%d occupied\n", sum.Campsites.Occupied, sum.Campsites.Total)
	fmt.Fprintf(w, "  Check-ins:  %d\n", sum.CheckIns)
	fmt.Fprintf(w, "  Check-outs: %d\n", sum.CheckOuts)

	var due []string
	for _, u := range sum.Units {
		switch u.State.Label {
		case occupancy.CheckInDue, occupancy.CheckOutDue:
			due = append(due, fmt.Sprintf("%s %s", u.UnitID, u.State.Text))
		}
	}
	if len(due) > 0 {
		fmt.Fprintf(w, "\n  %s\n", strings.Join(due, "\n  "))
	}
}

// spanMark is the grid cell character for a span's state.
func spanMark(l occupancy.Label) rune {
	switch l {
	case occupancy.Occupied:
		return '#'
	case occupancy.CheckInDue:
		return '>'
	case occupancy.CheckOutDue:
		return '<'
	default:
		return '='
	}
}

// renderCalendar draws the planning grid: one row per unit, one column per
// day. Day headers carry the weekday letter and day of month.
func renderCalendar(w io.Writer, proj *planner.Projection) error {
	width := 4
	for _, l := range proj.Lanes {
		if len(l.UnitID)+1 > width {
			width = len(l.UnitID) + 1
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width))
	for _, d := range proj.Days {
		fmt.Fprintf(&b, "%3s", d.Label)
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", width))
	for _, d := range proj.Days {
		fmt.Fprintf(&b, "%3s", d.Display)
	}
	b.WriteString("\n")

	for _, lane := range proj.Lanes {
		cells := make([]rune, len(proj.Days))
		for i := range cells {
			cells[i] = '.'
		}
		for _, sp := range lane.Spans {
			for i := sp.Offset; i < sp.Offset+sp.Days && i < len(cells); i++ {
				cells[i] = spanMark(sp.Label)
			}
		}
		fmt.Fprintf(&b, "%-*s", width, lane.UnitID)
		for _, c := range cells {
			fmt.Fprintf(&b, "%3c", c)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n= reserved  > check-in today  < check-out today  # occupied\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func formatNights(n int) string {
	if n == 1 {
		return "1 night"
	}
	return fmt.Sprintf("%d nights", n)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
