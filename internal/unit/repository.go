package unit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a unit does not exist.
var ErrNotFound = errors.New("unit not found")

// Repository provides access to the unit inventory.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a unit repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, category, capacity, created_at`

// Upsert inserts a unit or updates its category and capacity.
func (r *Repository) Upsert(ctx context.Context, u *Unit) (*Unit, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO units (id, category, capacity) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET category = excluded.category, capacity = excluded.capacity`,
		u.ID, string(u.Category), u.Capacity,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting unit %s: %w", u.ID, err)
	}

	return r.GetByID(ctx, u.ID)
}

// GetByID returns a unit by its ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Unit, error) {
	query := fmt.Sprintf("SELECT %s FROM units WHERE id = ?", selectColumns)
	u, err := scanUnit(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("unit %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying unit %s: %w", id, err)
	}
	return u, nil
}

// ListOptions controls filtering for List.
type ListOptions struct {
	Category Category // empty = all
}

// List returns units ordered cabins first, then by natural ID order (C2 before C10).
func (r *Repository) List(ctx context.Context, opts ListOptions) (units []*Unit, err error) {
	query := fmt.Sprintf("SELECT %s FROM units", selectColumns)
	var args []interface{}
	var conditions []string

	if opts.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, string(opts.Category))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY category, length(id), id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning unit: %w", err)
		}
		units = append(units, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating units: %w", err)
	}

	return units, nil
}

// IDs returns every unit ID in list order.
func (r *Repository) IDs(ctx context.Context) ([]string, error) {
	units, err := r.List(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	return ids, nil
}
