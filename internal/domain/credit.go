package domain

import "time"

// ─── Wallet Ledger Types ────────────────────────────────────────────────────
// The stake wallet is a local counter. The ledger only records how it moved.

// TransactionType represents the business reason for a wallet movement.
type TransactionType string

const (
	TxDeposit TransactionType = "DEPOSIT"
	TxPenalty TransactionType = "PENALTY"
)

// LedgerEntry is a single row in the wallet ledger.
// Amount is always positive; Type says which way it moved.
type LedgerEntry struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      TransactionType `json:"type"`
	Amount    float64         `json:"amount"`
	Balance   float64         `json:"balance"` // balance after the movement
	DateKey   string          `json:"date_key"`
}
