package web

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	ics "github.com/emersion/go-ical"
	"github.com/gorilla/mux"

	"github.com/evcraddock/campbook/internal/planner"
)

const defaultICSDays = 90

// apiUnitICS exports a unit's stays in the requested window as all-day
// events. DTEND is the check-out date, which iCalendar treats as
// exclusive, matching the booked nights. A window with no stays answers
// 204, since a VCALENDAR must hold at least one component.
func (s *Server) apiUnitICS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	win, today, err := s.calendarWindow(r, defaultICSDays)
	if err != nil {
		writeError(w, err)
		return
	}

	proj, err := s.svc.CalendarProjection(r.Context(), []string{id}, win, today)
	if err != nil {
		writeError(w, err)
		return
	}

	lane := proj.Lane(id)
	if lane == nil || len(lane.Spans) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := encodeLane(&buf, lane, time.Now().UTC()); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", id+".ics"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func encodeLane(buf *bytes.Buffer, lane *planner.Lane, stamp time.Time) error {
	cal := ics.NewCalendar()
	cal.Props.SetText(ics.PropVersion, "2.0")
	cal.Props.SetText(ics.PropProductID, "-//campbook//campbook//ES")

	for _, sp := range lane.Spans {
		ev := ics.NewComponent(ics.CompEvent)
		ev.Props.SetText(ics.PropUID, sp.ReservationID+"@campbook")
		ev.Props.SetDateTime(ics.PropDateTimeStamp, stamp)
		ev.Props.SetDate(ics.PropDateTimeStart, sp.CheckIn.Time())
		ev.Props.SetDate(ics.PropDateTimeEnd, sp.CheckOut.Time())

		summary := lane.UnitID + ": " + sp.LabelText
		if sp.GuestName != "" {
			summary = lane.UnitID + ": " + sp.GuestName + " (" + sp.LabelText + ")"
		}
		ev.Props.SetText(ics.PropSummary, summary)
		ev.Props.SetText("X-CAMPBOOK-STATUS", string(sp.Status))
		cal.Children = append(cal.Children, ev)
	}

	if err := ics.NewEncoder(buf).Encode(cal); err != nil {
		return fmt.Errorf("encode ICS: %w", err)
	}
	return nil
}
