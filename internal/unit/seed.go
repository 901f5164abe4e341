package unit

import (
	"context"
	"fmt"
	"strconv"
)

// Spec describes one unit (ID set) or a numbered run of units (Prefix and
// Count set, e.g. P1..P45).
type Spec struct {
	ID       string
	Prefix   string
	Count    int
	Capacity int
	Category Category // inferred from the ID prefix when empty
}

// Units expands the spec into concrete units.
func (s Spec) Units() ([]*Unit, error) {
	var ids []string
	switch {
	case s.ID != "" && s.Prefix != "":
		return nil, fmt.Errorf("inventory entry sets both id %q and prefix %q", s.ID, s.Prefix)
	case s.ID != "":
		ids = []string{s.ID}
	case s.Prefix != "":
		if s.Count <= 0 {
			return nil, fmt.Errorf("inventory prefix %q needs a positive count", s.Prefix)
		}
		for i := 1; i <= s.Count; i++ {
			ids = append(ids, s.Prefix+strconv.Itoa(i))
		}
	default:
		return nil, fmt.Errorf("inventory entry needs an id or a prefix")
	}

	units := make([]*Unit, 0, len(ids))
	for _, id := range ids {
		category := s.Category
		if category == "" {
			c, err := CategoryForID(id)
			if err != nil {
				return nil, err
			}
			category = c
		}
		u := &Unit{ID: id, Category: category, Capacity: s.Capacity}
		if err := u.Validate(); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

// Seed upserts every unit the specs describe and returns how many were written.
func (r *Repository) Seed(ctx context.Context, specs []Spec) (int, error) {
	n := 0
	for _, s := range specs {
		units, err := s.Units()
		if err != nil {
			return n, err
		}
		for _, u := range units {
			if _, err := r.Upsert(ctx, u); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}
