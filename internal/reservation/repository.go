package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/evcraddock/campbook/internal/db"
	"github.com/evcraddock/campbook/internal/guest"
)

// Repository stores reservations in SQLite. The schema's triggers enforce
// the no-overlap and locked-after-check-in rules; their failures come back
// as ErrStoreOverlap and ErrImmutableField.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a reservation repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `r.id, r.unit_id, r.guest_id, COALESCE(g.full_name, ''), r.check_in, r.check_out, r.status,
	r.pax_total, r.pax_affiliated, r.pax_agreement, r.pax_intern, r.notes, r.stay_order,
	r.created_at, r.updated_at, r.version`

const fromClause = ` FROM reservations r LEFT JOIN guests g ON g.id = r.guest_id`

func scanReservation(row interface{ Scan(...interface{}) error }) (*Reservation, error) {
	var r Reservation
	var status string
	var stayOrder sql.NullInt64
	err := row.Scan(&r.ID, &r.UnitID, &r.GuestID, &r.GuestName, &r.CheckIn, &r.CheckOut, &status,
		&r.Total, &r.Affiliated, &r.Agreement, &r.Intern, &r.Notes, &stayOrder,
		&r.CreatedAt, &r.UpdatedAt, &r.Version)
	if err != nil {
		return nil, err
	}
	r.Status = Status(status)
	if stayOrder.Valid {
		v := stayOrder.Int64
		r.StayOrder = &v
	}
	return &r, nil
}

// Create inserts a confirmed reservation for an existing guest.
func (r *Repository) Create(ctx context.Context, res *Reservation) (*Reservation, error) {
	return r.CreateWithGuest(ctx, res, nil)
}

// CreateWithGuest inserts g (when non-nil) and the reservation in one
// transaction, linking the reservation to the new guest.
func (r *Repository) CreateWithGuest(ctx context.Context, res *Reservation, g *guest.Guest) (*Reservation, error) {
	next := *res
	if next.ID == "" {
		next.ID = uuid.NewString()
	}
	if next.Status == "" {
		next.Status = Confirmed
	}

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if g != nil {
			saved, err := guest.NewRepository(tx).Insert(ctx, g)
			if err != nil {
				return err
			}
			next.GuestID = saved.ID
		}
		if err := next.Validate(); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO reservations (id, unit_id, guest_id, check_in, check_out, status,
			 pax_total, pax_affiliated, pax_agreement, pax_intern, notes, stay_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			next.ID, next.UnitID, next.GuestID, next.CheckIn, next.CheckOut, string(next.Status),
			next.Total, next.Affiliated, next.Agreement, next.Intern, next.Notes, nullableInt(next.StayOrder),
		)
		if err != nil {
			return fmt.Errorf("inserting reservation: %w", storeError(next.ID, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, next.ID)
}

// GetByID returns a reservation by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+fromClause+" WHERE r.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying reservation %s: %w", id, err)
	}
	return res, nil
}

// Update writes every mutable column of res. It fails with
// ErrConcurrentUpdate when the stored row is no longer at res.Version.
func (r *Repository) Update(ctx context.Context, res *Reservation) (*Reservation, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	if err := r.update(ctx, r.db, res); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, res.ID)
}

// CheckIn stores the checked-in reservation and the guest's updated details
// together.
func (r *Repository) CheckIn(ctx context.Context, res *Reservation, g *guest.Guest) (*Reservation, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if g != nil {
			if err := guest.NewRepository(tx).Update(ctx, g); err != nil {
				return err
			}
		}
		return r.update(ctx, tx, res)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, res.ID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *Repository) update(ctx context.Context, ex execer, res *Reservation) error {
	result, err := ex.ExecContext(ctx,
		`UPDATE reservations SET unit_id = ?, check_in = ?, check_out = ?, status = ?,
		 pax_total = ?, pax_affiliated = ?, pax_agreement = ?, pax_intern = ?,
		 notes = ?, stay_order = ?, updated_at = CURRENT_TIMESTAMP, version = version + 1
		 WHERE id = ? AND version = ?`,
		res.UnitID, res.CheckIn, res.CheckOut, string(res.Status),
		res.Total, res.Affiliated, res.Agreement, res.Intern,
		res.Notes, nullableInt(res.StayOrder), res.ID, res.Version,
	)
	if err != nil {
		return fmt.Errorf("updating reservation %s: %w", res.ID, storeError(res.ID, err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var one int
	err = ex.QueryRowContext(ctx, "SELECT 1 FROM reservations WHERE id = ?", res.ID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("reservation %s: %w", res.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying reservation %s: %w", res.ID, err)
	}
	return fmt.Errorf("reservation %s at version %d: %w", res.ID, res.Version, ErrConcurrentUpdate)
}

// Delete removes a reservation, freeing its interval.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM reservations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting reservation %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("reservation %s: %w", id, ErrNotFound)
	}
	return nil
}

// FetchReservations returns the reservations of the given units whose
// stay intersects window, ordered by unit then check-in. An empty unit list
// means every unit; a zero window means all dates.
func (r *Repository) FetchReservations(ctx context.Context, unitIDs []string, window Interval) (list []*Reservation, err error) {
	query := "SELECT " + selectColumns + fromClause
	var args []interface{}
	var conditions []string

	if len(unitIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(unitIDs)), ", ")
		conditions = append(conditions, "r.unit_id IN ("+placeholders+")")
		for _, id := range unitIDs {
			args = append(args, id)
		}
	}
	if !window.CheckIn.IsZero() {
		conditions = append(conditions, "r.check_out > ?")
		args = append(args, window.CheckIn)
	}
	if !window.CheckOut.IsZero() {
		conditions = append(conditions, "r.check_in < ?")
		args = append(args, window.CheckOut)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.unit_id, r.check_in, r.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching reservations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		list = append(list, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reservations: %w", err)
	}

	return list, nil
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (also failed to roll back: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// storeError maps trigger aborts onto the package's sentinel errors.
func storeError(id string, err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, db.OverlapMessage):
		return fmt.Errorf("%w: %s", ErrStoreOverlap, msg)
	case strings.Contains(msg, db.LockedMessage):
		return &ImmutableFieldError{ReservationID: id, Field: "unit_id/check_in/status"}
	}
	return err
}

func nullableInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
