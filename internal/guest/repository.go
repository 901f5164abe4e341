package guest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a guest does not exist.
var ErrNotFound = errors.New("guest not found")

// Execer is satisfied by *sql.DB and *sql.Tx so guest writes can join a
// reservation transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Repository provides access to guest records.
type Repository struct {
	db Execer
}

// NewRepository creates a guest repository.
func NewRepository(db Execer) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, full_name, city, province, country, document_id, phone, email, created_at, updated_at`

// Insert stores a new guest and returns it as saved.
func (r *Repository) Insert(ctx context.Context, g *Guest) (*Guest, error) {
	if err := g.normalize(); err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO guests (full_name, city, province, country, document_id, phone, email)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.FullName, g.City, g.Province, g.Country, g.DocumentID, g.Phone, g.Email,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting guest: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID returns a guest by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Guest, error) {
	var g Guest
	err := r.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM guests WHERE id = ?", id,
	).Scan(&g.ID, &g.FullName, &g.City, &g.Province, &g.Country,
		&g.DocumentID, &g.Phone, &g.Email, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("guest %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying guest %d: %w", id, err)
	}
	return &g, nil
}

// Update overwrites a guest's details.
func (r *Repository) Update(ctx context.Context, g *Guest) error {
	if err := g.normalize(); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE guests SET full_name = ?, city = ?, province = ?, country = ?,
		 document_id = ?, phone = ?, email = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		g.FullName, g.City, g.Province, g.Country, g.DocumentID, g.Phone, g.Email, g.ID,
	)
	if err != nil {
		return fmt.Errorf("updating guest %d: %w", g.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("guest %d: %w", g.ID, ErrNotFound)
	}
	return nil
}
