// Package sqlite is the local persistence layer.
// It stores the opaque state blobs in a key-value table and the wallet
// ledger in an append-only table, using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the database file created inside the data directory.
const FileName = "stakeday.db"

// DB wraps the SQLite connection.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database in dir and applies migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dir, FileName)

	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; the session store serializes anyway.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	d := &DB{db: conn, path: path}
	if err := d.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Close releases the connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string { return d.path }

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Opaque blobs keyed by fixed identifiers (state, proof history)
		`CREATE TABLE IF NOT EXISTS kv_blobs (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Wallet ledger (deposits and applied penalties)
		`CREATE TABLE IF NOT EXISTS wallet_ledger (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			type      TEXT NOT NULL,
			amount    REAL NOT NULL,
			balance   REAL NOT NULL,
			date_key  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_date ON wallet_ledger(date_key)`,
	}
}

func (d *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := d.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
