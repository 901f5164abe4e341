package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/evcraddock/campbook/internal/availability"
	"github.com/evcraddock/campbook/internal/calday"
	"github.com/evcraddock/campbook/internal/occupancy"
	"github.com/evcraddock/campbook/internal/planner"
	"github.com/evcraddock/campbook/internal/reservation"
	"github.com/evcraddock/campbook/internal/unit"
)

func TestFormatNights(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "1 night"},
		{2, "2 nights"},
		{14, "14 nights"},
	}
	for _, tt := range tests {
		if got := formatNights(tt.n); got != tt.want {
			t.Errorf("formatNights(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestPrintReservation(t *testing.T) {
	order := int64(12)
	r := &reservation.Reservation{
		ID:        "res-1",
		UnitID:    "C3",
		GuestID:   7,
		GuestName: "Ana Pérez",
		CheckIn:   calday.New(2024, time.May, 1),
		CheckOut:  calday.New(2024, time.May, 4),
		Status:    reservation.Confirmed,
		Counters:  reservation.Counters{Total: 3, Affiliated: 1},
		StayOrder: &order,
	}

	var buf bytes.Buffer
	printReservation(&buf, r)
	out := buf.String()

	for _, want := range []string{"res-1", "C3", "Ana Pérez (#7)", "2024-05-01", "3 nights", "Confirmada", "Order:     12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Notes:") {
		t.Error("empty notes should not be printed")
	}
}

func TestPrintUnitTable(t *testing.T) {
	var buf bytes.Buffer
	if err := printUnitTable(&buf, nil); err != nil {
		t.Fatalf("printUnitTable: %v", err)
	}
	if !strings.Contains(buf.String(), "No units found.") {
		t.Errorf("empty table output = %q", buf.String())
	}

	buf.Reset()
	units := []*unit.Unit{
		{ID: "C1", Category: unit.Cabin, Capacity: 4},
		{ID: "P1", Category: unit.Campsite, Capacity: 6},
	}
	if err := printUnitTable(&buf, units); err != nil {
		t.Fatalf("printUnitTable: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "C1") || !strings.Contains(out, "P1") {
		t.Errorf("missing rows:\n%s", out)
	}
	if !strings.Contains(out, "Total: 2 units") {
		t.Errorf("missing total:\n%s", out)
	}
}

func TestPrintSummary(t *testing.T) {
	sum := &availability.Summary{
		Date:      calday.New(2024, time.May, 3),
		Cabins:    availability.Tally{Occupied: 1, Total: 2},
		Campsites: availability.Tally{Occupied: 0, Total: 2},
		CheckIns:  1,
		Units: []availability.UnitState{
			{UnitID: "C1", State: occupancy.State{Label: occupancy.CheckInDue, Text: "Check-in Hoy"}},
			{UnitID: "C2", State: occupancy.State{Label: occupancy.Occupied, Text: "Ocupado"}},
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, sum)
	out := buf.String()

	for _, want := range []string{"2024-05-03", "1/2 occupied", "0/2 occupied", "C1 Check-in Hoy"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "C2 Ocupado") {
		t.Error("occupied units should not be listed as due")
	}
}

func TestRenderCalendar(t *testing.T) {
	from := calday.New(2024, time.May, 1)
	proj := &planner.Projection{
		Today: from,
		Lanes: []planner.Lane{
			{UnitID: "C1", Spans: []planner.Span{
				{ReservationID: "a", Offset: 0, Days: 2, Label: occupancy.Occupied},
				{ReservationID: "b", Offset: 3, Days: 2, Label: occupancy.Reserved},
			}},
			{UnitID: "P10"},
		},
	}
	for i := 0; i < 5; i++ {
		d := from.AddDays(i)
		proj.Days = append(proj.Days, planner.DayHeader{Date: d, Label: d.DayLabel(), Display: d.Display()})
	}

	var buf bytes.Buffer
	if err := renderCalendar(&buf, proj); err != nil {
		t.Fatalf("renderCalendar: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")

	var c1, p10 string
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "C1 "):
			c1 = l
		case strings.HasPrefix(l, "P10 "):
			p10 = l
		}
	}
	if got := strings.Join(strings.Fields(c1)[1:], ""); got != "##.==" {
		t.Errorf("C1 cells = %q, want %q (line %q)", got, "##.==", c1)
	}
	if got := strings.Join(strings.Fields(p10)[1:], ""); got != "....." {
		t.Errorf("P10 cells = %q, want %q (line %q)", got, ".....", p10)
	}
}

func TestSpanMark(t *testing.T) {
	tests := []struct {
		label occupancy.Label
		want  rune
	}{
		{occupancy.Occupied, '#'},
		{occupancy.CheckInDue, '>'},
		{occupancy.CheckOutDue, '<'},
		{occupancy.Reserved, '='},
	}
	for _, tt := range tests {
		if got := spanMark(tt.label); got != tt.want {
			t.Errorf("spanMark(%s) = %q, want %q", tt.label, got, tt.want)
		}
	}
}
