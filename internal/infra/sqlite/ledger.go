package sqlite

import (
	"time"

	"github.com/stakeday/stakeday/internal/domain"
)

// ─── Ledger Operations ──────────────────────────────────────────────────────

var _ domain.Ledger = (*DB)(nil)

// AppendEntry records a wallet movement.
func (d *DB) AppendEntry(e domain.LedgerEntry) error {
	_, err := d.db.Exec(`
		INSERT INTO wallet_ledger (timestamp, type, amount, balance, date_key)
		VALUES (?, ?, ?, ?, ?)
	`, e.Timestamp.Format(time.RFC3339Nano), string(e.Type), e.Amount, e.Balance, e.DateKey)
	return err
}

// ListEntries returns the most recent entries first. limit <= 0 returns all.
func (d *DB) ListEntries(limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := d.db.Query(`
		SELECT id, timestamp, type, amount, balance, date_key
		FROM wallet_ledger ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.LedgerEntry{}
	for rows.Next() {
		var e domain.LedgerEntry
		var ts, typ string
		if err := rows.Scan(&e.ID, &ts, &typ, &e.Amount, &e.Balance, &e.DateKey); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		e.Type = domain.TransactionType(typ)
		result = append(result, e)
	}
	return result, rows.Err()
}

// PenaltyTotal sums every applied penalty in the ledger.
func (d *DB) PenaltyTotal() (float64, error) {
	var total float64
	err := d.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM wallet_ledger WHERE type = ?
	`, string(domain.TxPenalty)).Scan(&total)
	return total, err
}
