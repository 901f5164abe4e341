package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/evcraddock/campbook/internal/availability"
	"github.com/evcraddock/campbook/internal/calday"
	"github.com/evcraddock/campbook/internal/guest"
	"github.com/evcraddock/campbook/internal/occupancy"
	"github.com/evcraddock/campbook/internal/planner"
	"github.com/evcraddock/campbook/internal/reservation"
	"github.com/evcraddock/campbook/internal/unit"
)

const (
	defaultCalendarDays = 14
	maxCalendarDays     = 366
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error     string   `json:"error"`
	Kind      string   `json:"kind"`
	Conflicts []string `json:"conflicts,omitempty"`
	Fields    []string `json:"fields,omitempty"`
}

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg, kind string, code int) {
	apiJSON(w, errorResponse{Error: msg, Kind: kind}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// decodeBody reads a JSON body into dst and validates it.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		apiError(w, fmt.Sprintf("invalid JSON body: %v", err), "bad_request", http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			resp := errorResponse{Kind: "validation"}
			for _, fe := range verrs {
				resp.Fields = append(resp.Fields, fmt.Sprintf("%s: %s", fieldPath(fe), fe.Tag()))
			}
			resp.Error = "invalid request: " + strings.Join(resp.Fields, "; ")
			apiJSON(w, resp, http.StatusBadRequest)
			return false
		}
		apiError(w, err.Error(), "validation", http.StatusBadRequest)
		return false
	}
	return true
}

// fieldPath drops the top-level struct name from a validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// queryDate parses a YYYY-MM-DD query parameter, falling back to def.
func queryDate(r *http.Request, name string, def calday.Date) (calday.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	d, err := calday.Parse(v)
	if err != nil {
		return calday.Date{}, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

// parseDate parses an optional date from a request body.
func parseDate(name string, v *string) (*calday.Date, error) {
	if v == nil {
		return nil, nil
	}
	d, err := calday.Parse(*v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &d, nil
}

// apiListUnits returns the inventory, optionally filtered by ?category=.
func (s *Server) apiListUnits(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !unit.ValidCategory(category) {
		apiError(w, "category must be cabin or campsite", "bad_request", http.StatusBadRequest)
		return
	}

	units := make([]*unit.Unit, 0)
	for _, u := range s.svc.Units() {
		if category == "" || string(u.Category) == category {
			units = append(units, u)
		}
	}
	apiJSON(w, units, http.StatusOK)
}

// apiUnitStatus returns a unit's occupancy state on ?date= (default today).
func (s *Server) apiUnitStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	day, err := queryDate(r, "date", s.clock.Today())
	if err != nil {
		writeError(w, err)
		return
	}

	st, err := s.svc.OccupancyState(id, day)
	if err != nil {
		writeError(w, err)
		return
	}

	type response struct {
		UnitID string          `json:"unit_id"`
		Date   calday.Date     `json:"date"`
		State  occupancy.State `json:"state"`
	}
	apiJSON(w, response{UnitID: id, Date: day, State: st}, http.StatusOK)
}

// calendarWindow reads from/to/days query parameters. The window starts
// at ?from= (default today) and ends at ?to= or after ?days= days.
func (s *Server) calendarWindow(r *http.Request, defDays int) (planner.Window, calday.Date, error) {
	today, err := queryDate(r, "today", s.clock.Today())
	if err != nil {
		return planner.Window{}, calday.Date{}, err
	}
	from, err := queryDate(r, "from", today)
	if err != nil {
		return planner.Window{}, calday.Date{}, err
	}

	if r.URL.Query().Get("to") != "" {
		to, err := queryDate(r, "to", calday.Date{})
		if err != nil {
			return planner.Window{}, calday.Date{}, err
		}
		w, err := planner.NewWindow(from, to)
		if err == nil && w.Days() > maxCalendarDays {
			err = fmt.Errorf("%w: window is longer than %d days", reservation.ErrInvalidInterval, maxCalendarDays)
		}
		return w, today, err
	}

	days := defDays
	if v := r.URL.Query().Get("days"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil || days < 1 || days > maxCalendarDays {
			return planner.Window{}, calday.Date{}, fmt.Errorf("%w: days must be 1-%d", reservation.ErrInvalidInterval, maxCalendarDays)
		}
	}
	w, err := planner.WindowOf(from, days)
	return w, today, err
}

// apiCalendar returns the planning grid for ?units= (comma separated,
// default all) over the requested window.
func (s *Server) apiCalendar(w http.ResponseWriter, r *http.Request) {
	win, today, err := s.calendarWindow(r, defaultCalendarDays)
	if err != nil {
		writeError(w, err)
		return
	}

	var unitIDs []string
	if v := r.URL.Query().Get("units"); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				unitIDs = append(unitIDs, id)
			}
		}
	}

	proj, err := s.svc.CalendarProjection(r.Context(), unitIDs, win, today)
	if err != nil {
		writeError(w, err)
		return
	}
	apiJSON(w, proj, http.StatusOK)
}

// apiSummary returns the front desk overview for ?date= (default today).
func (s *Server) apiSummary(w http.ResponseWriter, r *http.Request) {
	day, err := queryDate(r, "date", s.clock.Today())
	if err != nil {
		writeError(w, err)
		return
	}
	sum, err := s.svc.Summary(day)
	if err != nil {
		writeError(w, err)
		return
	}
	apiJSON(w, sum, http.StatusOK)
}

type guestRequest struct {
	FullName   string `json:"full_name" validate:"required,max=200"`
	City       string `json:"city" validate:"max=100"`
	Province   string `json:"province" validate:"max=100"`
	Country    string `json:"country" validate:"max=100"`
	DocumentID string `json:"document_id" validate:"max=50"`
	Phone      string `json:"phone" validate:"max=50"`
	Email      string `json:"email" validate:"omitempty,email"`
}

func (g *guestRequest) guest() *guest.Guest {
	return &guest.Guest{
		FullName:   g.FullName,
		City:       g.City,
		Province:   g.Province,
		Country:    g.Country,
		DocumentID: g.DocumentID,
		Phone:      g.Phone,
		Email:      g.Email,
	}
}

type createReservationRequest struct {
	UnitID        string        `json:"unit_id" validate:"required"`
	CheckIn       string        `json:"check_in" validate:"required"`
	CheckOut      string        `json:"check_out" validate:"required"`
	GuestID       int64         `json:"guest_id" validate:"gte=0"`
	Guest         *guestRequest `json:"guest" validate:"required_without=GuestID"`
	PaxTotal      int           `json:"pax_total" validate:"gte=0"`
	PaxAffiliated int           `json:"pax_affiliated" validate:"gte=0"`
	PaxAgreement  int           `json:"pax_agreement" validate:"gte=0"`
	PaxIntern     int           `json:"pax_intern" validate:"gte=0"`
	Notes         string        `json:"notes" validate:"max=2000"`
	StayOrder     *int64        `json:"stay_order" validate:"omitempty,gte=0"`
}

// apiCreateReservation books a unit.
func (s *Server) apiCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	checkIn, err := calday.Parse(req.CheckIn)
	if err != nil {
		writeError(w, fmt.Errorf("check_in: %w", err))
		return
	}
	checkOut, err := calday.Parse(req.CheckOut)
	if err != nil {
		writeError(w, fmt.Errorf("check_out: %w", err))
		return
	}

	b := availability.Booking{
		UnitID:   strings.TrimSpace(req.UnitID),
		CheckIn:  checkIn,
		CheckOut: checkOut,
		GuestID:  req.GuestID,
		Counters: reservation.Counters{
			Total:      req.PaxTotal,
			Affiliated: req.PaxAffiliated,
			Agreement:  req.PaxAgreement,
			Intern:     req.PaxIntern,
		},
		Notes:     strings.TrimSpace(req.Notes),
		StayOrder: req.StayOrder,
	}
	if req.GuestID == 0 {
		b.Guest = req.Guest.guest()
	}

	res, err := s.svc.Create(r.Context(), b)
	if err != nil {
		writeError(w, err)
		return
	}
	apiJSON(w, res, http.StatusCreated)
}

// apiGetReservation returns one reservation.
func (s *Server) apiGetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	apiJSON(w, res, http.StatusOK)
}

type updateReservationRequest struct {
	UnitID        *string `json:"unit_id" validate:"omitempty,min=1"`
	CheckIn       *string `json:"check_in"`
	CheckOut      *string `json:"check_out"`
	PaxTotal      *int    `json:"pax_total" validate:"omitempty,gte=0"`
	PaxAffiliated *int    `json:"pax_affiliated" validate:"omitempty,gte=0"`
	PaxAgreement  *int    `json:"pax_agreement" validate:"omitempty,gte=0"`
	PaxIntern     *int    `json:"pax_intern" validate:"omitempty,gte=0"`
	Notes         *string `json:"notes" validate:"omitempty,max=2000"`
	StayOrder     *int64  `json:"stay_order" validate:"omitempty,gte=0"`
}

func (u *updateReservationRequest) patch() (reservation.Patch, error) {
	checkIn, err := parseDate("check_in", u.CheckIn)
	if err != nil {
		return reservation.Patch{}, err
	}
	checkOut, err := parseDate("check_out", u.CheckOut)
	if err != nil {
		return reservation.Patch{}, err
	}
	return reservation.Patch{
		UnitID:     u.UnitID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Total:      u.PaxTotal,
		Affiliated: u.PaxAffiliated,
		Agreement:  u.PaxAgreement,
		Intern:     u.PaxIntern,
		Notes:      u.Notes,
		StayOrder:  u.StayOrder,
	}, nil
}

// apiUpdateReservation applies a partial edit.
func (s *Server) apiUpdateReservation(w http.ResponseWriter, r *http.Request) {
	var req updateReservationRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	p, err := req.patch()
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.svc.Update(r.Context(), mux.Vars(r)["id"], p)
	if err != nil {
		writeError(w, err)
		return
	}
	apiJSON(w, res, http.StatusOK)
}

// apiDeleteReservation cancels a reservation.
func (s *Server) apiDeleteReservation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
}

type checkInRequest struct {
	Guest struct {
		FullName   string `json:"full_name" validate:"max=200"`
		City       string `json:"city" validate:"max=100"`
		Province   string `json:"province" validate:"max=100"`
		Country    string `json:"country" validate:"max=100"`
		DocumentID string `json:"document_id" validate:"max=50"`
		Phone      string `json:"phone" validate:"max=50"`
		Email      string `json:"email" validate:"omitempty,email"`
	} `json:"guest"`
	PaxTotal      *int    `json:"pax_total" validate:"omitempty,gte=0"`
	PaxAffiliated *int    `json:"pax_affiliated" validate:"omitempty,gte=0"`
	PaxAgreement  *int    `json:"pax_agreement" validate:"omitempty,gte=0"`
	PaxIntern     *int    `json:"pax_intern" validate:"omitempty,gte=0"`
	Notes         *string `json:"notes" validate:"omitempty,max=2000"`
	StayOrder     *int64  `json:"stay_order" validate:"omitempty,gte=0"`
}

// apiCheckIn records a guest's arrival. Counters left out of the body
// keep their booked values.
func (s *Server) apiCheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if r.ContentLength != 0 && !s.decodeBody(w, r, &req) {
		return
	}

	id := mux.Vars(r)["id"]
	ctx := r.Context()

	ci := availability.CheckInRequest{
		Guest: guest.Details{
			FullName:   req.Guest.FullName,
			City:       req.Guest.City,
			Province:   req.Guest.Province,
			Country:    req.Guest.Country,
			DocumentID: req.Guest.DocumentID,
			Phone:      req.Guest.Phone,
			Email:      req.Guest.Email,
		},
		Notes:     req.Notes,
		StayOrder: req.StayOrder,
	}
	if req.PaxTotal != nil || req.PaxAffiliated != nil || req.PaxAgreement != nil || req.PaxIntern != nil {
		current, err := s.svc.Get(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		counters := current.Counters
		setIf(&counters.Total, req.PaxTotal)
		setIf(&counters.Affiliated, req.PaxAffiliated)
		setIf(&counters.Agreement, req.PaxAgreement)
		setIf(&counters.Intern, req.PaxIntern)
		ci.Counters = &counters
	}

	res, err := s.svc.CheckIn(ctx, id, s.clock.Today(), ci)
	if err != nil {
		writeError(w, err)
		return
	}
	apiJSON(w, res, http.StatusOK)
}

func setIf(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// apiResync schedules a full reload of the availability index.
func (s *Server) apiResync(w http.ResponseWriter, r *http.Request) {
	s.resync()
	apiJSON(w, map[string]string{"status": "scheduled"}, http.StatusAccepted)
}
