// Package guest provides the guest domain model and data access.
package guest

import (
	"fmt"
	"strings"
	"time"
)

// DefaultCountry is assumed when a guest's country is left blank.
const DefaultCountry = "Argentina"

// Guest is a person holding one or more reservations.
type Guest struct {
	ID         int64     `json:"id"`
	FullName   string    `json:"full_name"`
	City       string    `json:"city"`
	Province   string    `json:"province"`
	Country    string    `json:"country"`
	DocumentID string    `json:"document_id,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// normalize trims free-text fields and fills the default country.
func (g *Guest) normalize() error {
	g.FullName = strings.TrimSpace(g.FullName)
	g.City = strings.TrimSpace(g.City)
	g.Province = strings.TrimSpace(g.Province)
	g.Country = strings.TrimSpace(g.Country)
	if g.FullName == "" {
		return fmt.Errorf("guest full name is required")
	}
	if g.Country == "" {
		g.Country = DefaultCountry
	}
	return nil
}

// Details are the guest fields collected at check-in. Empty fields leave
// the stored value untouched.
type Details struct {
	FullName   string `json:"full_name,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	Country    string `json:"country,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Apply copies the non-empty fields of d onto g.
func (d Details) Apply(g *Guest) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&g.FullName, d.FullName)
	set(&g.City, d.City)
	set(&g.Province, d.Province)
	set(&g.Country, d.Country)
	set(&g.DocumentID, d.DocumentID)
	set(&g.Phone, d.Phone)
	set(&g.Email, d.Email)
}
