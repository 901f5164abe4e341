// Package planner turns the interval index into the planning grid: one lane
// per unit, one span per reservation visible in the window.
package planner

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/evcraddock/campbook/internal/calday"
	"github.com/evcraddock/campbook/internal/index"
	"github.com/evcraddock/campbook/internal/occupancy"
	"github.com/evcraddock/campbook/internal/reservation"
)

// Source is the part of the index the projector reads.
type Source interface {
	Err() error
	InRange(unitIDs []string, start, end calday.Date) ([]index.Entry, error)
}

// Span is one reservation's visible part of the window.
type Span struct {
	ReservationID string             `json:"reservation_id"`
	GuestName     string             `json:"guest_name,omitempty"`
	CheckIn       calday.Date        `json:"check_in"`
	CheckOut      calday.Date        `json:"check_out"`
	VisibleStart  calday.Date        `json:"visible_start"`
	Offset        int                `json:"offset"`
	Days          int                `json:"days"`
	Status        reservation.Status `json:"status"`
	Label         occupancy.Label    `json:"label"`
	LabelText     string             `json:"label_text"`
	ClippedStart  bool               `json:"clipped_start"`
	ClippedEnd    bool               `json:"clipped_end"`
}

// Lane holds a unit's spans in check-in order.
type Lane struct {
	UnitID string `json:"unit_id"`
	Spans  []Span `json:"spans"`
}

// DayHeader labels one column of the grid.
type DayHeader struct {
	Date    calday.Date `json:"date"`
	Label   string      `json:"label"`
	Display string      `json:"display"`
}

// Projection is the render-ready grid. Cached projections are shared, so
// callers must not modify them.
type Projection struct {
	Window Window      `json:"window"`
	Today  calday.Date `json:"today"`
	Days   []DayHeader `json:"days"`
	Lanes  []Lane      `json:"lanes"`
}

// Lane returns the lane of a unit, or nil.
func (p *Projection) Lane(unitID string) *Lane {
	for i := range p.Lanes {
		if p.Lanes[i].UnitID == unitID {
			return &p.Lanes[i]
		}
	}
	return nil
}

// Key identifies a cached projection.
type Key struct {
	Window Window
	Today  calday.Date
	Units  []string // sorted, unique
}

// NewKey builds the cache key for a request.
func NewKey(unitIDs []string, w Window, today calday.Date) Key {
	units := make([]string, 0, len(unitIDs))
	seen := make(map[string]bool, len(unitIDs))
	for _, id := range unitIDs {
		if !seen[id] {
			seen[id] = true
			units = append(units, id)
		}
	}
	sort.Strings(units)
	return Key{Window: w, Today: today, Units: units}
}

func (k Key) String() string {
	return k.Window.Start.String() + "/" + k.Window.End.String() + "/" + k.Today.String() + "/" + strings.Join(k.Units, ",")
}

// Touches reports whether any of unitIDs is part of the key.
func (k Key) Touches(unitIDs []string) bool {
	for _, id := range unitIDs {
		i := sort.SearchStrings(k.Units, id)
		if i < len(k.Units) && k.Units[i] == id {
			return true
		}
	}
	return false
}

// Projector builds projections and caches them.
type Projector struct {
	src   Source
	cache Cache

	// gen counts invalidations. A projection built from an index read that
	// an invalidation overtook is not cached.
	mu  sync.RWMutex
	gen uint64
}

// New creates a projector. A nil cache disables caching.
func New(src Source, cache Cache) *Projector {
	if cache == nil {
		cache = noCache{}
	}
	return &Projector{src: src, cache: cache}
}

// Project returns the lanes for unitIDs (in that order) over w, with span
// labels evaluated against today.
func (p *Projector) Project(ctx context.Context, unitIDs []string, w Window, today calday.Date) (*Projection, error) {
	// A stale index must not be hidden behind a cached answer.
	if err := p.src.Err(); err != nil {
		return nil, err
	}

	key := NewKey(unitIDs, w, today)
	if cached, ok := p.cache.Get(ctx, key); ok {
		return reorder(cached, unitIDs), nil
	}

	gen := p.generation()
	entries, err := p.src.InRange(key.Units, w.Start, w.End)
	if err != nil {
		return nil, err
	}

	proj := Build(key.Units, w, today, entries)
	p.store(ctx, gen, key, proj)
	return reorder(proj, unitIDs), nil
}

func (p *Projector) generation() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gen
}

// store caches proj unless an invalidation happened since gen was read.
// Set runs under the read lock, so an invalidation either sees the entry
// and drops it or bumps gen first and keeps it out.
func (p *Projector) store(ctx context.Context, gen uint64, key Key, proj *Projection) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.gen != gen {
		return
	}
	p.cache.Set(ctx, key, proj)
}

func (p *Projector) bump() {
	p.mu.Lock()
	p.gen++
	p.mu.Unlock()
}

// Invalidate drops cached projections covering any of unitIDs.
func (p *Projector) Invalidate(ctx context.Context, unitIDs ...string) {
	if len(unitIDs) == 0 {
		return
	}
	p.bump()
	if err := p.cache.Invalidate(ctx, unitIDs...); err != nil {
		slog.Warn("projection cache invalidation failed", "units", unitIDs, "error", err)
	}
}

// InvalidateAll empties the projection cache.
func (p *Projector) InvalidateAll(ctx context.Context) {
	p.bump()
	if err := p.cache.InvalidateAll(ctx); err != nil {
		slog.Warn("projection cache flush failed", "error", err)
	}
}

// Build lays entries out as lanes. Entries must intersect w; each becomes
// exactly one span, clipped to the window.
func Build(unitIDs []string, w Window, today calday.Date, entries []index.Entry) *Projection {
	proj := &Projection{
		Window: w,
		Today:  today,
		Days:   make([]DayHeader, 0, w.Days()),
		Lanes:  make([]Lane, len(unitIDs)),
	}
	for _, d := range w.Dates() {
		proj.Days = append(proj.Days, DayHeader{Date: d, Label: d.DayLabel(), Display: d.Display()})
	}

	lanes := make(map[string]int, len(unitIDs))
	for i, id := range unitIDs {
		proj.Lanes[i] = Lane{UnitID: id, Spans: []Span{}}
		lanes[id] = i
	}

	for _, e := range entries {
		i, ok := lanes[e.UnitID]
		if !ok {
			continue
		}
		visible, ok := e.Interval.Intersect(w.interval())
		if !ok {
			continue
		}
		state := occupancy.Derive(e.Reservation(), today)
		proj.Lanes[i].Spans = append(proj.Lanes[i].Spans, Span{
			ReservationID: e.ReservationID,
			GuestName:     e.GuestName,
			CheckIn:       e.Interval.CheckIn,
			CheckOut:      e.Interval.CheckOut,
			VisibleStart:  visible.CheckIn,
			Offset:        w.Start.DaysUntil(visible.CheckIn),
			Days:          visible.Nights(),
			Status:        e.Status,
			Label:         state.Label,
			LabelText:     state.Text,
			ClippedStart:  e.Interval.CheckIn.Before(w.Start),
			ClippedEnd:    e.Interval.CheckOut.After(w.End),
		})
	}

	for i := range proj.Lanes {
		spans := proj.Lanes[i].Spans
		sort.SliceStable(spans, func(a, b int) bool {
			return spans[a].CheckIn.Before(spans[b].CheckIn)
		})
	}
	return proj
}

// reorder returns p with lanes in the caller's order. Cached projections
// are stored with sorted unit ids.
func reorder(p *Projection, unitIDs []string) *Projection {
	if len(unitIDs) == len(p.Lanes) {
		inOrder := true
		for i, id := range unitIDs {
			if p.Lanes[i].UnitID != id {
				inOrder = false
				break
			}
		}
		if inOrder {
			return p
		}
	}

	out := *p
	out.Lanes = make([]Lane, 0, len(unitIDs))
	seen := make(map[string]bool, len(unitIDs))
	for _, id := range unitIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if lane := p.Lane(id); lane != nil {
			out.Lanes = append(out.Lanes, *lane)
		}
	}
	return &out
}
