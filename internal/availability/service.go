package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/evcraddock/campbook/internal/calday"
	"github.com/evcraddock/campbook/internal/guest"
	"github.com/evcraddock/campbook/internal/index"
	"github.com/evcraddock/campbook/internal/occupancy"
	"github.com/evcraddock/campbook/internal/planner"
	"github.com/evcraddock/campbook/internal/reservation"
	"github.com/evcraddock/campbook/internal/unit"
)

// Service is the booking and occupancy API the web and CLI layers use.
// Writes go to the store and are applied to the index straight away; the
// change notifier later refreshes the same units from the store, which
// also covers writes made by other processes.
type Service struct {
	units        *unit.Repository
	reservations *reservation.Repository
	guests       *guest.Repository
	idx          *index.Index
	validator    *Validator
	projector    *planner.Projector

	mu        sync.RWMutex
	inventory []*unit.Unit
	byUnit    map[string]*unit.Unit
}

// NewService wires the service. Call Resync before serving queries.
func NewService(units *unit.Repository, reservations *reservation.Repository, guests *guest.Repository,
	idx *index.Index, projector *planner.Projector) *Service {
	return &Service{
		units:        units,
		reservations: reservations,
		guests:       guests,
		idx:          idx,
		validator:    NewValidator(idx),
		projector:    projector,
		byUnit:       make(map[string]*unit.Unit),
	}
}

// Index returns the interval index the service answers from.
func (s *Service) Index() *index.Index {
	return s.idx
}

// Resync reloads the unit inventory and every reservation, replaces the
// whole index and drops all cached projections. It leaves the index health
// to the caller.
func (s *Service) Resync(ctx context.Context) error {
	units, err := s.units.List(ctx, unit.ListOptions{})
	if err != nil {
		return fmt.Errorf("loading units: %w", err)
	}
	all, err := s.reservations.FetchReservations(ctx, nil, reservation.Interval{})
	if err != nil {
		return fmt.Errorf("loading reservations: %w", err)
	}

	byUnit := make(map[string]*unit.Unit, len(units))
	for _, u := range units {
		byUnit[u.ID] = u
	}
	s.mu.Lock()
	s.inventory = units
	s.byUnit = byUnit
	s.mu.Unlock()

	entries := make([]index.Entry, len(all))
	for i, r := range all {
		entries[i] = index.FromReservation(r)
	}
	s.idx.ReplaceAll(entries)
	s.projector.InvalidateAll(ctx)

	slog.Info("availability index loaded", "units", len(units), "reservations", len(entries))
	return nil
}

// RefreshUnits re-reads the reservations of the given units from the store
// and replaces them in the index.
func (s *Service) RefreshUnits(ctx context.Context, unitIDs []string) error {
	if len(unitIDs) == 0 {
		return nil
	}
	list, err := s.reservations.FetchReservations(ctx, unitIDs, reservation.Interval{})
	if err != nil {
		return fmt.Errorf("refreshing units %v: %w", unitIDs, err)
	}

	perUnit := make(map[string][]index.Entry, len(unitIDs))
	for _, r := range list {
		perUnit[r.UnitID] = append(perUnit[r.UnitID], index.FromReservation(r))
	}
	for _, id := range unitIDs {
		s.idx.ReplaceUnit(id, perUnit[id])
	}
	s.projector.Invalidate(ctx, unitIDs...)
	return nil
}

// Units returns the inventory in display order.
func (s *Service) Units() []*unit.Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*unit.Unit, len(s.inventory))
	copy(out, s.inventory)
	return out
}

func (s *Service) unit(id string) (*unit.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byUnit[id]
	if !ok {
		return nil, fmt.Errorf("unit %s: %w", id, unit.ErrNotFound)
	}
	return u, nil
}

// Booking is a request for a new reservation. Either GuestID refers to an
// existing guest or Guest describes a new one.
type Booking struct {
	UnitID   string
	CheckIn  calday.Date
	CheckOut calday.Date
	GuestID  int64
	Guest    *guest.Guest
	reservation.Counters
	Notes     string
	StayOrder *int64
}

// Create validates and stores a new confirmed reservation.
func (s *Service) Create(ctx context.Context, b Booking) (*reservation.Reservation, error) {
	iv, err := reservation.NewInterval(b.CheckIn, b.CheckOut)
	if err != nil {
		return nil, err
	}
	if _, err := s.unit(b.UnitID); err != nil {
		return nil, err
	}
	if b.GuestID == 0 && b.Guest == nil {
		return nil, fmt.Errorf("booking needs a guest")
	}
	if b.GuestID != 0 {
		if _, err := s.guests.GetByID(ctx, b.GuestID); err != nil {
			return nil, err
		}
	}
	if err := s.validator.Check(Candidate{UnitID: b.UnitID, Interval: iv}); err != nil {
		return nil, err
	}

	res := &reservation.Reservation{
		UnitID:    b.UnitID,
		GuestID:   b.GuestID,
		CheckIn:   iv.CheckIn,
		CheckOut:  iv.CheckOut,
		Status:    reservation.Confirmed,
		Counters:  b.Counters,
		Notes:     b.Notes,
		StayOrder: b.StayOrder,
	}
	var newGuest *guest.Guest
	if b.GuestID == 0 {
		newGuest = b.Guest
	}

	saved, err := s.reservations.CreateWithGuest(ctx, res, newGuest)
	if err != nil {
		return nil, s.storeError(b.UnitID, iv, err)
	}

	s.apply(ctx, saved, "")
	slog.Info("reservation created", "id", saved.ID, "unit", saved.UnitID, "check_in", saved.CheckIn, "check_out", saved.CheckOut)
	return saved, nil
}

// Get returns a reservation from the store.
func (s *Service) Get(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

// Update applies a patch. Moving a reservation re-runs overlap validation
// against every other stay on the target unit.
func (s *Service) Update(ctx context.Context, id string, p reservation.Patch) (*reservation.Reservation, error) {
	current, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := p.Apply(current)
	if err != nil {
		return nil, err
	}
	if next.UnitID != current.UnitID {
		if _, err := s.unit(next.UnitID); err != nil {
			return nil, err
		}
	}
	if next.Interval() != current.Interval() || next.UnitID != current.UnitID {
		err := s.validator.Check(Candidate{ReservationID: id, UnitID: next.UnitID, Interval: next.Interval()})
		if err != nil {
			return nil, err
		}
	}

	saved, err := s.reservations.Update(ctx, next)
	if err != nil {
		return nil, s.storeError(next.UnitID, next.Interval(), err)
	}

	s.apply(ctx, saved, current.UnitID)
	slog.Info("reservation updated", "id", id, "unit", saved.UnitID, "check_in", saved.CheckIn, "check_out", saved.CheckOut)
	return saved, nil
}

// Delete removes a reservation and frees its dates.
func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reservations.Delete(ctx, id); err != nil {
		return err
	}

	s.idx.Remove(id)
	s.projector.Invalidate(ctx, current.UnitID)
	slog.Info("reservation deleted", "id", id, "unit", current.UnitID)
	return nil
}

// CheckInRequest carries what the front desk records on arrival. Nil
// fields keep their current values.
type CheckInRequest struct {
	Guest     guest.Details
	Counters  *reservation.Counters
	Notes     *string
	StayOrder *int64
}

// CheckIn marks a reservation as checked in. It is allowed once, on or
// after the check-in date, and updates the guest's details in the same
// write.
func (s *Service) CheckIn(ctx context.Context, id string, today calday.Date, req CheckInRequest) (*reservation.Reservation, error) {
	current, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == reservation.CheckedIn {
		return nil, fmt.Errorf("reservation %s: %w", id, reservation.ErrAlreadyCheckedIn)
	}
	if today.Before(current.CheckIn) {
		return nil, fmt.Errorf("reservation %s checks in on %s: %w", id, current.CheckIn, reservation.ErrCheckInTooEarly)
	}

	g, err := s.guests.GetByID(ctx, current.GuestID)
	if err != nil {
		return nil, fmt.Errorf("loading guest for reservation %s: %w", id, err)
	}
	req.Guest.Apply(g)

	next := *current
	next.Status = reservation.CheckedIn
	if req.Counters != nil {
		next.Counters = *req.Counters
	}
	if req.Notes != nil {
		next.Notes = *req.Notes
	}
	if req.StayOrder != nil {
		order := *req.StayOrder
		next.StayOrder = &order
	}

	saved, err := s.reservations.CheckIn(ctx, &next, g)
	if err != nil {
		return nil, err
	}

	s.apply(ctx, saved, "")
	slog.Info("reservation checked in", "id", id, "unit", saved.UnitID, "guest", saved.GuestName)
	return saved, nil
}

// apply mirrors a stored reservation into the index and drops projections
// of the units it left and entered.
func (s *Service) apply(ctx context.Context, r *reservation.Reservation, prevUnitID string) {
	s.idx.Upsert(index.FromReservation(r))
	units := []string{r.UnitID}
	if prevUnitID != "" && prevUnitID != r.UnitID {
		units = append(units, prevUnitID)
	}
	s.projector.Invalidate(ctx, units...)
}

func (s *Service) storeError(unitID string, iv reservation.Interval, err error) error {
	if errors.Is(err, reservation.ErrStoreOverlap) {
		slog.Warn("booking lost to a concurrent writer", "unit", unitID, "interval", iv.String())
		return &ConcurrentOverlapConflictError{UnitID: unitID, Interval: iv, Err: err}
	}
	return err
}

// OccupancyState answers what unitID looks like on day.
func (s *Service) OccupancyState(unitID string, day calday.Date) (occupancy.State, error) {
	if _, err := s.unit(unitID); err != nil {
		return occupancy.State{}, err
	}
	occupant, departing, err := s.idx.At(unitID, day)
	if err != nil {
		return occupancy.State{}, err
	}
	return occupancy.Cell(toReservation(occupant), toReservation(departing), day), nil
}

func toReservation(e *index.Entry) *reservation.Reservation {
	if e == nil {
		return nil
	}
	return e.Reservation()
}

// CalendarProjection returns the planning grid for unitIDs over w. An
// empty unit list means the whole inventory.
func (s *Service) CalendarProjection(ctx context.Context, unitIDs []string, w planner.Window, today calday.Date) (*planner.Projection, error) {
	if len(unitIDs) == 0 {
		for _, u := range s.Units() {
			unitIDs = append(unitIDs, u.ID)
		}
	}
	for _, id := range unitIDs {
		if _, err := s.unit(id); err != nil {
			return nil, err
		}
	}
	return s.projector.Project(ctx, unitIDs, w, today)
}

// Tally counts occupied units of one category.
type Tally struct {
	Occupied int `json:"occupied"`
	Total    int `json:"total"`
}

// Full reports whether every unit is occupied.
func (t Tally) Full() bool {
	return t.Total > 0 && t.Occupied == t.Total
}

// UnitState pairs a unit with its state on the summary day.
type UnitState struct {
	UnitID   string          `json:"unit_id"`
	Category unit.Category   `json:"category"`
	State    occupancy.State `json:"state"`
}

// Summary is the front desk overview for one day.
type Summary struct {
	Date      calday.Date `json:"date"`
	Cabins    Tally       `json:"cabins"`
	Campsites Tally       `json:"campsites"`
	CheckIns  int         `json:"checkins_today"`
	CheckOuts int         `json:"checkouts_today"`
	Units     []UnitState `json:"units"`
}

// Summary derives the day's overview from the index.
func (s *Service) Summary(day calday.Date) (*Summary, error) {
	if err := s.idx.Err(); err != nil {
		return nil, err
	}

	sum := &Summary{Date: day, Units: []UnitState{}}
	for _, u := range s.Units() {
		st, err := s.OccupancyState(u.ID, day)
		if err != nil {
			return nil, err
		}
		sum.Units = append(sum.Units, UnitState{UnitID: u.ID, Category: u.Category, State: st})

		tally := &sum.Campsites
		if u.Category == unit.Cabin {
			tally = &sum.Cabins
		}
		tally.Total++
		if st.OccupiedNow {
			tally.Occupied++
		}
		if st.CheckInDueToday {
			sum.CheckIns++
		}
		if st.CheckOutDueToday {
			sum.CheckOuts++
		}
	}
	return sum, nil
}
