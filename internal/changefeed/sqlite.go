package changefeed

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteFeed tails the reservation_changes table the store's triggers
// write to.
type SQLiteFeed struct {
	db           *sql.DB
	pollInterval time.Duration
	batchSize    int
}

// NewSQLiteFeed creates a feed polling every pollInterval and reading at
// most batchSize changes per query.
func NewSQLiteFeed(db *sql.DB, pollInterval time.Duration, batchSize int) *SQLiteFeed {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return &SQLiteFeed{db: db, pollInterval: pollInterval, batchSize: batchSize}
}

// Head returns the last sequence number handed out. It reads the
// AUTOINCREMENT counter so pruning the log does not move it backwards.
func (f *SQLiteFeed) Head(ctx context.Context) (int64, error) {
	var seq int64
	err := f.db.QueryRowContext(ctx,
		"SELECT seq FROM sqlite_sequence WHERE name = 'reservation_changes'",
	).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading change log head: %w", err)
	}
	return seq, nil
}

// Stream delivers changes after the given sequence number, polling for
// new ones until ctx is done or a query fails.
func (f *SQLiteFeed) Stream(ctx context.Context, after int64, fn func(Event) error) error {
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		events, err := f.read(ctx, after)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if err := fn(ev); err != nil {
				return err
			}
			after = ev.Seq
		}
		if len(events) == f.batchSize {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *SQLiteFeed) read(ctx context.Context, after int64) (events []Event, err error) {
	rows, err := f.db.QueryContext(ctx,
		`SELECT seq, op, reservation_id, unit_id, prev_unit_id
		 FROM reservation_changes WHERE seq > ? ORDER BY seq LIMIT ?`,
		after, f.batchSize,
	)
	if err != nil {
		return nil, fmt.Errorf("reading change log: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var ev Event
		var op string
		if err := rows.Scan(&ev.Seq, &op, &ev.ReservationID, &ev.UnitID, &ev.PrevUnitID); err != nil {
			return nil, fmt.Errorf("scanning change: %w", err)
		}
		ev.Op = Op(op)
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating changes: %w", err)
	}
	return events, nil
}

// Prune deletes changes recorded before cutoff, always keeping the newest
// one. Followers that were behind the pruned range see a gap and resync.
func (f *SQLiteFeed) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := f.db.ExecContext(ctx,
		`DELETE FROM reservation_changes
		 WHERE changed_at < ? AND seq < (SELECT MAX(seq) FROM reservation_changes)`,
		cutoff.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning change log: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
