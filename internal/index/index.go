// Package index keeps the occupied intervals of every unit in memory,
// sorted by check-in, so overlap checks and calendar windows only touch
// the reservations near the dates asked about.
package index

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/evcraddock/campbook/internal/calday"
	"github.com/evcraddock/campbook/internal/reservation"
)

var (
	// ErrStaleIndex is returned by queries while the index may be missing
	// changes from the store.
	ErrStaleIndex = errors.New("availability index is stale")

	// ErrUnreliable is returned alongside ErrStaleIndex when resynchronising
	// with the store failed. Booking decisions must wait until it clears.
	ErrUnreliable = errors.New("availability data unreliable")
)

// Health describes how far the index can be trusted.
type Health int

const (
	Fresh Health = iota
	Stale
	Unreliable
)

func (h Health) String() string {
	switch h {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Unreliable:
		return "unreliable"
	default:
		return fmt.Sprintf("health(%d)", int(h))
	}
}

// Entry is one reservation's hold on a unit.
type Entry struct {
	ReservationID string               `json:"reservation_id"`
	UnitID        string               `json:"unit_id"`
	GuestName     string               `json:"guest_name,omitempty"`
	Interval      reservation.Interval `json:"interval"`
	Status        reservation.Status   `json:"status"`
}

// FromReservation builds the entry for r.
func FromReservation(r *reservation.Reservation) Entry {
	return Entry{
		ReservationID: r.ID,
		UnitID:        r.UnitID,
		GuestName:     r.GuestName,
		Interval:      r.Interval(),
		Status:        r.Status,
	}
}

// Reservation returns the scheduling fields of the entry as a reservation.
func (e Entry) Reservation() *reservation.Reservation {
	return &reservation.Reservation{
		ID:        e.ReservationID,
		UnitID:    e.UnitID,
		GuestName: e.GuestName,
		CheckIn:   e.Interval.CheckIn,
		CheckOut:  e.Interval.CheckOut,
		Status:    e.Status,
	}
}

func (e Entry) less(other Entry) bool {
	if c := e.Interval.CheckIn.Compare(other.Interval.CheckIn); c != 0 {
		return c < 0
	}
	return e.ReservationID < other.ReservationID
}

// Index is safe for concurrent use. Mutations hold the write lock for their
// whole duration so readers never see a half-applied change; queries
// return copies.
type Index struct {
	mu     sync.RWMutex
	units  map[string][]Entry // sorted by check-in, then reservation id
	byID   map[string]Entry
	health Health
	reason string
	cause  error
}

// New returns an empty index. It starts stale: nothing can be answered
// until the first full load calls ReplaceAll and MarkFresh.
func New() *Index {
	return &Index{
		units:  make(map[string][]Entry),
		byID:   make(map[string]Entry),
		health: Stale,
		reason: "not loaded",
	}
}

// Health reports the current health state.
func (x *Index) Health() Health {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.health
}

// Err returns nil when the index is fresh, and the error queries would
// fail with otherwise.
func (x *Index) Err() error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.errLocked()
}

func (x *Index) errLocked() error {
	switch x.health {
	case Fresh:
		return nil
	case Unreliable:
		return fmt.Errorf("%w: %w: %v", ErrStaleIndex, ErrUnreliable, x.cause)
	default:
		return fmt.Errorf("%w: %s", ErrStaleIndex, x.reason)
	}
}

// MarkStale flags the index as possibly missing changes. An unreliable
// index stays unreliable until a resync succeeds.
func (x *Index) MarkStale(reason string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.health == Unreliable {
		return
	}
	x.health = Stale
	x.reason = reason
}

// MarkUnreliable records that resynchronising failed.
func (x *Index) MarkUnreliable(cause error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.health = Unreliable
	x.cause = cause
}

// MarkFresh clears any stale or unreliable state.
func (x *Index) MarkFresh() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.health = Fresh
	x.reason = ""
	x.cause = nil
}

// Upsert inserts e or replaces the entry with the same reservation id,
// moving it between units when its unit changed.
func (x *Index) Upsert(e Entry) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.removeLocked(e.ReservationID)
	x.insertLocked(e)
}

// Remove drops the entry for a reservation. Unknown ids are ignored.
func (x *Index) Remove(reservationID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.removeLocked(reservationID)
}

// ReplaceUnit swaps a unit's entries for a freshly fetched set.
func (x *Index) ReplaceUnit(unitID string, entries []Entry) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, old := range x.units[unitID] {
		delete(x.byID, old.ReservationID)
	}
	delete(x.units, unitID)
	for _, e := range entries {
		if e.UnitID != unitID {
			continue
		}
		x.removeLocked(e.ReservationID)
		x.insertLocked(e)
	}
}

// ReplaceAll rebuilds the whole index from entries.
func (x *Index) ReplaceAll(entries []Entry) {
	byID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byID[e.ReservationID] = e
	}
	units := make(map[string][]Entry)
	for _, e := range byID {
		units[e.UnitID] = append(units[e.UnitID], e)
	}
	for _, list := range units {
		sort.Slice(list, func(i, j int) bool { return list[i].less(list[j]) })
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.units = units
	x.byID = byID
}

func (x *Index) insertLocked(e Entry) {
	list := x.units[e.UnitID]
	i := sort.Search(len(list), func(i int) bool { return e.less(list[i]) })
	list = append(list, Entry{})
	copy(list[i+1:], list[i:])
	list[i] = e
	x.units[e.UnitID] = list
	x.byID[e.ReservationID] = e
}

func (x *Index) removeLocked(reservationID string) {
	old, ok := x.byID[reservationID]
	if !ok {
		return
	}
	delete(x.byID, reservationID)
	list := deleteEntry(x.units[old.UnitID], old)
	if len(list) == 0 {
		delete(x.units, old.UnitID)
		return
	}
	x.units[old.UnitID] = list
}

func deleteEntry(list []Entry, e Entry) []Entry {
	i := sort.Search(len(list), func(i int) bool { return !list[i].less(e) })
	if i < len(list) && list[i].ReservationID == e.ReservationID {
		return append(list[:i], list[i+1:]...)
	}
	return list
}

// firstAtOrAfter returns the position of the first entry starting on or
// after d.
func firstAtOrAfter(list []Entry, d calday.Date) int {
	return sort.Search(len(list), func(i int) bool { return !list[i].Interval.CheckIn.Before(d) })
}

// Get returns the entry for a reservation.
func (x *Index) Get(reservationID string) (Entry, bool, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if err := x.errLocked(); err != nil {
		return Entry{}, false, err
	}
	e, ok := x.byID[reservationID]
	return e, ok, nil
}

// Overlapping returns the unit's entries sharing a date with iv, in
// check-in order, skipping excludeID. Only the entries just before iv's end
// are visited: a unit's stays never overlap each other, so their
// check-outs are sorted too and the backward scan can stop at the first
// stay that ends on or before iv starts.
func (x *Index) Overlapping(unitID string, iv reservation.Interval, excludeID string) ([]Entry, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if err := x.errLocked(); err != nil {
		return nil, err
	}
	return overlapping(x.units[unitID], iv, excludeID), nil
}

func overlapping(list []Entry, iv reservation.Interval, excludeID string) []Entry {
	var out []Entry
	for i := firstAtOrAfter(list, iv.CheckOut) - 1; i >= 0; i-- {
		e := list[i]
		if !e.Interval.CheckOut.After(iv.CheckIn) {
			break
		}
		if e.ReservationID != excludeID {
			out = append(out, e)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// InRange returns the entries of the given units that intersect
// [start, end), sorted by check-in, then unit id, then reservation id. A
// nil unit list means every unit.
func (x *Index) InRange(unitIDs []string, start, end calday.Date) ([]Entry, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if err := x.errLocked(); err != nil {
		return nil, err
	}

	if unitIDs == nil {
		for id := range x.units {
			unitIDs = append(unitIDs, id)
		}
	}

	window := reservation.Interval{CheckIn: start, CheckOut: end}
	var out []Entry
	seen := make(map[string]bool, len(unitIDs))
	for _, id := range unitIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, overlapping(x.units[id], window, "")...)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.Interval.CheckIn.Compare(b.Interval.CheckIn); c != 0 {
			return c < 0
		}
		if a.UnitID != b.UnitID {
			return a.UnitID < b.UnitID
		}
		return a.ReservationID < b.ReservationID
	})
	return out, nil
}

// At resolves a (unit, date) cell: the occupant holding the unit on day,
// and the stay whose check-out falls on day. Either may be nil.
func (x *Index) At(unitID string, day calday.Date) (occupant, departing *Entry, err error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if err := x.errLocked(); err != nil {
		return nil, nil, err
	}

	list := x.units[unitID]
	for i := firstAtOrAfter(list, day.AddDays(1)) - 1; i >= 0; i-- {
		e := list[i]
		if e.Interval.CheckOut.Before(day) {
			break
		}
		switch {
		case e.Interval.Contains(day) && occupant == nil:
			occupant = &e
		case e.Interval.CheckOut == day && departing == nil:
			departing = &e
		}
	}
	return occupant, departing, nil
}

// Len returns the number of indexed reservations.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byID)
}
