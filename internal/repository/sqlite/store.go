// Package sqlite provides the durable local store for calculation records,
// settings, bills and the sync queue. A single database file keeps the
// "persist record + enqueue sync operation" pair inside one transaction.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register sqlite driver
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS calculation_records (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    amount          TEXT NOT NULL,
    duration        TEXT NOT NULL,
    breakdown_json  TEXT NOT NULL,
    forecast_json   TEXT NOT NULL,
    insights_json   TEXT NOT NULL,
    created_at      TEXT NOT NULL,
    synced          INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sync_queue (
    seq                INTEGER PRIMARY KEY AUTOINCREMENT,
    id                 TEXT NOT NULL UNIQUE,
    action             TEXT NOT NULL,
    target_collection  TEXT NOT NULL,
    payload_json       TEXT NOT NULL,
    timestamp          TEXT NOT NULL,
    attempts           INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS settings (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bills (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT NOT NULL,
    amount        TEXT NOT NULL,
    due_day       INTEGER NOT NULL,
    category      TEXT NOT NULL,
    is_recurring  INTEGER NOT NULL DEFAULT 1,
    is_archived   INTEGER NOT NULL DEFAULT 0,
    is_paid       INTEGER NOT NULL DEFAULT 0,
    payment_date  TEXT,
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_created ON calculation_records(created_at);
CREATE INDEX IF NOT EXISTS idx_bills_archived ON bills(is_archived);
`

// Store owns the SQLite database shared by all repositories
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path and applies the
// schema. WAL keeps writes durable across crashes without blocking reads.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// database/sql pooling breaks the single-writer discipline sqlite wants
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// ClearAll wipes calculation records, the sync queue and settings in a
// single transaction. Used for logout/reset; all-or-nothing.
func (s *Store) ClearAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"calculation_records", "sync_queue", "settings"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	return tx.Commit()
}
