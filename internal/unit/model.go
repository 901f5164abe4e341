// Package unit provides the lodging unit domain model and data access.
package unit

import (
	"fmt"
	"strings"
	"time"
)

// Category is the kind of lodging a unit offers.
type Category string

const (
	Cabin    Category = "cabin"
	Campsite Category = "campsite"
)

// ValidCategory returns true if s is a known category.
func ValidCategory(s string) bool {
	switch Category(s) {
	case Cabin, Campsite:
		return true
	}
	return false
}

// Label returns a human-readable label for the category.
func (c Category) Label() string {
	switch c {
	case Cabin:
		return "Cabaña"
	case Campsite:
		return "Camping"
	default:
		return string(c)
	}
}

// CategoryForID infers the category from the unit ID prefix:
// C for cabins, P for campsite pitches.
func CategoryForID(id string) (Category, error) {
	switch {
	case strings.HasPrefix(id, "C"):
		return Cabin, nil
	case strings.HasPrefix(id, "P"):
		return Campsite, nil
	}
	return "", fmt.Errorf("cannot infer category for unit %q (expected C or P prefix)", id)
}

// Unit is a bookable cabin or campsite.
type Unit struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the fields a unit must have before it is stored.
func (u *Unit) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("unit id is required")
	}
	if !ValidCategory(string(u.Category)) {
		return fmt.Errorf("invalid unit category: %q", u.Category)
	}
	if u.Capacity <= 0 {
		return fmt.Errorf("unit %s capacity must be positive, got %d", u.ID, u.Capacity)
	}
	return nil
}

// scanUnit scans a unit from a database row.
func scanUnit(row interface{ Scan(...interface{}) error }) (*Unit, error) {
	var u Unit
	var category string
	if err := row.Scan(&u.ID, &category, &u.Capacity, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Category = Category(category)
	return &u, nil
}
