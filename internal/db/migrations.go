package db

import (
	"database/sql"
	"fmt"
)

// OverlapMessage is raised by the reservation triggers when a write would
// double-book a unit. Repositories match on it.
const OverlapMessage = "reservation overlap"

// LockedMessage is raised when a checked-in reservation's unit or check-in
// date is changed, or when it is moved back to confirmed.
const LockedMessage = "reservation locked after check-in"

// migrations is an ordered list of SQL statements to run.
// Dates are stored as YYYY-MM-DD TEXT so string comparison is date order.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS units (
		id         TEXT    PRIMARY KEY,
		category   TEXT    NOT NULL CHECK (category IN ('cabin', 'campsite')),
		capacity   INTEGER NOT NULL CHECK (capacity > 0),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS guests (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		full_name  TEXT    NOT NULL,
		city       TEXT    NOT NULL DEFAULT '',
		province   TEXT    NOT NULL DEFAULT '',
		country    TEXT    NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id             TEXT    PRIMARY KEY,
		unit_id        TEXT    NOT NULL REFERENCES units(id),
		guest_id       INTEGER NOT NULL REFERENCES guests(id),
		check_in       TEXT    NOT NULL,
		check_out      TEXT    NOT NULL,
		status         TEXT    NOT NULL DEFAULT 'confirmed' CHECK (status IN ('confirmed', 'checked_in')),
		pax_total      INTEGER NOT NULL DEFAULT 0 CHECK (pax_total >= 0),
		pax_affiliated INTEGER NOT NULL DEFAULT 0 CHECK (pax_affiliated >= 0),
		pax_agreement  INTEGER NOT NULL DEFAULT 0 CHECK (pax_agreement >= 0),
		pax_intern     INTEGER NOT NULL DEFAULT 0 CHECK (pax_intern >= 0),
		notes          TEXT    NOT NULL DEFAULT '',
		stay_order     INTEGER,
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME DEFAULT CURRENT_TIMESTAMP,
		CHECK (check_out > check_in)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_unit_check_in ON reservations (unit_id, check_in)`,
	`CREATE TRIGGER IF NOT EXISTS reservations_no_overlap_insert
	BEFORE INSERT ON reservations
	WHEN EXISTS (
		SELECT 1 FROM reservations r
		WHERE r.unit_id = NEW.unit_id
		  AND r.check_in < NEW.check_out
		  AND NEW.check_in < r.check_out
	)
	BEGIN
		SELECT RAISE(ABORT, '` + OverlapMessage + `');
	END`,
	`CREATE TRIGGER IF NOT EXISTS reservations_no_overlap_update
	BEFORE UPDATE OF unit_id, check_in, check_out ON reservations
	WHEN EXISTS (
		SELECT 1 FROM reservations r
		WHERE r.unit_id = NEW.unit_id
		  AND r.id <> NEW.id
		  AND r.check_in < NEW.check_out
		  AND NEW.check_in < r.check_out
	)
	BEGIN
		SELECT RAISE(ABORT, '` + OverlapMessage + `');
	END`,
	`CREATE TRIGGER IF NOT EXISTS reservations_locked_after_check_in
	BEFORE UPDATE ON reservations
	WHEN OLD.status = 'checked_in' AND (
		NEW.unit_id <> OLD.unit_id OR NEW.check_in <> OLD.check_in OR NEW.status <> 'checked_in'
	)
	BEGIN
		SELECT RAISE(ABORT, '` + LockedMessage + `');
	END`,
	`CREATE TABLE IF NOT EXISTS reservation_changes (
		seq            INTEGER PRIMARY KEY AUTOINCREMENT,
		op             TEXT    NOT NULL CHECK (op IN ('insert', 'update', 'delete')),
		reservation_id TEXT    NOT NULL,
		unit_id        TEXT    NOT NULL,
		prev_unit_id   TEXT    NOT NULL DEFAULT '',
		changed_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TRIGGER IF NOT EXISTS reservations_log_insert
	AFTER INSERT ON reservations
	BEGIN
		INSERT INTO reservation_changes (op, reservation_id, unit_id) VALUES ('insert', NEW.id, NEW.unit_id);
	END`,
	`CREATE TRIGGER IF NOT EXISTS reservations_log_update
	AFTER UPDATE ON reservations
	BEGIN
		INSERT INTO reservation_changes (op, reservation_id, unit_id, prev_unit_id) VALUES ('update', NEW.id, NEW.unit_id, OLD.unit_id);
	END`,
	`CREATE TRIGGER IF NOT EXISTS reservations_log_delete
	AFTER DELETE ON reservations
	BEGIN
		INSERT INTO reservation_changes (op, reservation_id, unit_id) VALUES ('delete', OLD.id, OLD.unit_id);
	END`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Contact fields collected on the booking form, added after the first release.
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"guests", "document_id", "TEXT NOT NULL DEFAULT ''"},
		{"guests", "phone", "TEXT NOT NULL DEFAULT ''"},
		{"guests", "email", "TEXT NOT NULL DEFAULT ''"},
		// Bumped by every update; writers compare it to detect lost updates.
		{"reservations", "version", "INTEGER NOT NULL DEFAULT 1"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}

	exists := false
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			exists = true
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterating columns: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("closing column info: %w", err)
	}
	if exists {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
