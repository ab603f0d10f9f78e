package domain

import "time"

// ─── Capability Interfaces ──────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// Clock supplies wall-clock time to decision logic.
type Clock interface {
	Now() time.Time
}

// IDGenerator hands out unique identifiers for actions, rewards and proofs.
type IDGenerator interface {
	Next() string
}

// BlobStore is a key-value store of opaque byte buffers.
// Get returns ErrBlobNotFound for a missing key.
type BlobStore interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// StateRepository loads and saves the two persisted blobs.
// Load never fails on bad data: corrupt blobs are discarded and defaults returned.
type StateRepository interface {
	Load() (SavedState, error)
	Save(state SavedState) error
	LoadProofs() ([]ProofEntry, error)
	SaveProofs(entries []ProofEntry) error
	Clear() error
}

// Ledger records wallet movements for later inspection.
type Ledger interface {
	AppendEntry(entry LedgerEntry) error
	ListEntries(limit int) ([]LedgerEntry, error)
}
