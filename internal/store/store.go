// Package store persists bookings, waitlist entries and specialist
// schedules in SQLite.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the booking platform.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            specialist_id TEXT NOT NULL,
            service_id TEXT NOT NULL,
            client_id TEXT NOT NULL,
            client_email TEXT,
            client_phone TEXT,
            start_time DATETIME NOT NULL,
            end_time DATETIME NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		// Backstop against a last-moment race between the waitlist
		// coordinator and a direct booking request.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_exact_slot
            ON bookings(specialist_id, start_time, end_time)
            WHERE status NOT IN ('canceled', 'rejected')`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_specialist_start
            ON bookings(specialist_id, start_time)`,

		`CREATE TABLE IF NOT EXISTS waitlist_entries (
            id TEXT PRIMARY KEY,
            client_id TEXT NOT NULL,
            client_email TEXT,
            client_phone TEXT,
            service_id TEXT NOT NULL,
            specialist_id TEXT NOT NULL,
            window_start DATETIME NOT NULL,
            window_end DATETIME NOT NULL,
            status TEXT NOT NULL DEFAULT 'waiting',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_waitlist_lookup
            ON waitlist_entries(specialist_id, service_id, status, created_at)`,

		`CREATE TABLE IF NOT EXISTS specialist_schedules (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            specialist_id TEXT NOT NULL,
            day_of_week INTEGER NOT NULL,
            start_time TEXT NOT NULL,
            end_time TEXT NOT NULL,
            break_start TEXT,
            break_end TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(specialist_id, day_of_week)
        )`,

		`CREATE TABLE IF NOT EXISTS schedule_overrides (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            specialist_id TEXT NOT NULL,
            date TEXT NOT NULL,
            is_closed BOOLEAN NOT NULL DEFAULT 0,
            start_time TEXT,
            end_time TEXT,
            break_start TEXT,
            break_end TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(specialist_id, date)
        )`,

		`CREATE TABLE IF NOT EXISTS time_off (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            specialist_id TEXT NOT NULL,
            start_time DATETIME NOT NULL,
            end_time DATETIME NOT NULL,
            reason TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}
