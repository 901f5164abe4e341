package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evcraddock/campbook/internal/availability"
	"github.com/evcraddock/campbook/internal/calday"
	"github.com/evcraddock/campbook/internal/db"
	"github.com/evcraddock/campbook/internal/guest"
	"github.com/evcraddock/campbook/internal/index"
	"github.com/evcraddock/campbook/internal/planner"
	"github.com/evcraddock/campbook/internal/reservation"
	"github.com/evcraddock/campbook/internal/unit"
	"github.com/evcraddock/campbook/internal/web"
)

func TestListUnitsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/units" {
			t.Errorf("path = %q, want /api/units", r.URL.Path)
		}
		if got := r.URL.Query().Get("category"); got != "cabin" {
			t.Errorf("category = %q, want cabin", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode([]*unit.Unit{{ID: "C1", Category: unit.Cabin, Capacity: 4}}); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	defer srv.Close()

	units, err := New(srv.URL+"/").ListUnits(context.Background(), "cabin")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(units) != 1 || units[0].ID != "C1" {
		t.Errorf("units = %+v", units)
	}
}

func TestCalendarOptionsQuery(t *testing.T) {
	tests := []struct {
		name string
		opts CalendarOptions
		want string
	}{
		{"empty", CalendarOptions{}, ""},
		{"range", CalendarOptions{From: "2024-05-01", To: "2024-05-10"}, "?from=2024-05-01&to=2024-05-10"},
		{"days and units", CalendarOptions{Days: 7, Units: []string{"C1", "P2"}}, "?days=7&units=C1%2CP2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.query(); got != tt.want {
				t.Errorf("query = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"unit C1 is already booked","kind":"overlap_conflict","conflicts":["r1"]}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateReservation(context.Background(), BookingRequest{UnitID: "C1"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Kind != "overlap_conflict" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if len(apiErr.Conflicts) != 1 || apiErr.Conflicts[0] != "r1" {
		t.Errorf("conflicts = %v", apiErr.Conflicts)
	}
	if err.Error() != "unit C1 is already booked" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestErrorResponseWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL).DeleteReservation(context.Background(), "abc")
	if err == nil || !strings.Contains(err.Error(), "Bad Gateway") {
		t.Errorf("error = %v", err)
	}
}

// liveServer runs the real API over a temporary database.
func liveServer(t *testing.T) *Client {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	ctx := context.Background()
	units := unit.NewRepository(d)
	if _, err := units.Seed(ctx, []unit.Spec{{Prefix: "C", Count: 2, Capacity: 4}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	idx := index.New()
	svc := availability.NewService(units, reservation.NewRepository(d), guest.NewRepository(d),
		idx, planner.New(idx, nil))
	if err := svc.Resync(ctx); err != nil {
		t.Fatalf("resync: %v", err)
	}
	idx.MarkFresh()

	srv := httptest.NewServer(web.NewServer(svc, calday.FixedClock(calday.MustParse("2024-05-03"))))
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestReservationLifecycle(t *testing.T) {
	c := liveServer(t)
	ctx := context.Background()

	res, err := c.CreateReservation(ctx, BookingRequest{
		UnitID:   "C1",
		CheckIn:  "2024-05-03",
		CheckOut: "2024-05-06",
		Guest:    &GuestInput{FullName: "Juan Gómez", City: "Córdoba"},
		PaxTotal: 3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = c.CreateReservation(ctx, BookingRequest{
		UnitID: "C1", CheckIn: "2024-05-05", CheckOut: "2024-05-08",
		Guest: &GuestInput{FullName: "Otra Persona"},
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != "overlap_conflict" {
		t.Fatalf("overlapping create error = %v", err)
	}

	st, err := c.UnitStatus(ctx, "C1", "")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.State.Label != "checkin_due" {
		t.Errorf("label = %q, want checkin_due", st.State.Label)
	}

	checkOut := "2024-05-07"
	if _, err := c.UpdateReservation(ctx, res.ID, UpdateRequest{CheckOut: &checkOut}); err != nil {
		t.Fatalf("update: %v", err)
	}

	pax := 4
	checked, err := c.CheckIn(ctx, res.ID, CheckInRequest{Guest: GuestInput{Province: "Córdoba"}, PaxTotal: &pax})
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if checked.Status != reservation.CheckedIn || checked.Total != 4 {
		t.Errorf("checked in = %+v", checked)
	}

	proj, err := c.Calendar(ctx, CalendarOptions{From: "2024-05-01", Days: 10, Units: []string{"C1"}})
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	lane := proj.Lane("C1")
	if lane == nil || len(lane.Spans) != 1 || lane.Spans[0].Days != 4 || lane.Spans[0].Offset != 2 {
		t.Errorf("lane = %+v", lane)
	}

	ics, err := c.UnitICS(ctx, "C1", CalendarOptions{From: "2024-05-01", Days: 10})
	if err != nil {
		t.Fatalf("ics: %v", err)
	}
	if !strings.Contains(string(ics), "DTEND;VALUE=DATE:20240507") {
		t.Errorf("ics = %s", ics)
	}

	sum, err := c.Summary(ctx, "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Cabins.Occupied != 1 || sum.Cabins.Total != 2 {
		t.Errorf("cabins = %+v", sum.Cabins)
	}

	if err := c.DeleteReservation(ctx, res.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.GetReservation(ctx, res.ID); !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete error = %v, want 404", err)
	}
}
