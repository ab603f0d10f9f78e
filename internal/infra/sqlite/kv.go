package sqlite

import (
	"database/sql"
	"errors"

	"github.com/stakeday/stakeday/internal/domain"
)

// ─── Blob Operations ────────────────────────────────────────────────────────
// DB implements domain.BlobStore.

var _ domain.BlobStore = (*DB)(nil)

// Get returns the blob stored under key, or domain.ErrBlobNotFound.
func (d *DB) Get(key string) ([]byte, error) {
	var value []byte
	err := d.db.QueryRow(`SELECT value FROM kv_blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put inserts or replaces the blob under key.
func (d *DB) Put(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := d.db.Exec(`
		INSERT INTO kv_blobs (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = datetime('now')
	`, key, value)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (d *DB) Delete(key string) error {
	_, err := d.db.Exec(`DELETE FROM kv_blobs WHERE key = ?`, key)
	return err
}
