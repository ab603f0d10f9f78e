package session

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/stakeday/stakeday/internal/app/codec"
	"github.com/stakeday/stakeday/internal/domain"
	"github.com/stakeday/stakeday/internal/infra/logging"
	"github.com/stakeday/stakeday/internal/infra/observability"
)

// Fixed keys of the two persisted blobs.
const (
	StateKey  = "stakeday.state.v1"
	ProofsKey = "stakeday.proofs.v1"
)

// Repository implements domain.StateRepository over a BlobStore.
// Corrupt blobs are deleted on load and defaults returned in their place.
type Repository struct {
	store domain.BlobStore
	ids   domain.IDGenerator
	log   *logrus.Entry
}

var _ domain.StateRepository = (*Repository)(nil)

// NewRepository wraps store. ids fills in missing identifiers on decode.
func NewRepository(store domain.BlobStore, ids domain.IDGenerator, logger logrus.FieldLogger) *Repository {
	return &Repository{store: store, ids: ids, log: logging.Component(logger, "repository")}
}

// Load reads the state blob. Only storage failures are returned as errors.
func (r *Repository) Load() (domain.SavedState, error) {
	raw, err := r.read(StateKey)
	if err != nil {
		return domain.DefaultState(), err
	}
	state, res := codec.DecodeState(raw, r.ids)
	if err := r.afterDecode(StateKey, "state", res); err != nil {
		return state, err
	}
	if res.Repaired > 0 {
		// Keep generated ids stable across processes.
		r.writeBack("state", r.Save(state))
	}
	return state, nil
}

// Save writes the state blob.
func (r *Repository) Save(state domain.SavedState) error {
	raw, err := codec.EncodeState(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := r.store.Put(StateKey, raw); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// LoadProofs reads the proof-history blob.
func (r *Repository) LoadProofs() ([]domain.ProofEntry, error) {
	raw, err := r.read(ProofsKey)
	if err != nil {
		return []domain.ProofEntry{}, err
	}
	entries, res := codec.DecodeProofs(raw)
	if err := r.afterDecode(ProofsKey, "proofs", res); err != nil {
		return entries, err
	}
	if res.Repaired > 0 {
		r.writeBack("proofs", r.SaveProofs(entries))
	}
	return entries, nil
}

// SaveProofs writes the proof-history blob.
func (r *Repository) SaveProofs(entries []domain.ProofEntry) error {
	raw, err := codec.EncodeProofs(entries)
	if err != nil {
		return fmt.Errorf("encode proofs: %w", err)
	}
	if err := r.store.Put(ProofsKey, raw); err != nil {
		return fmt.Errorf("write proofs: %w", err)
	}
	return nil
}

// Clear deletes both blobs.
func (r *Repository) Clear() error {
	if err := r.store.Delete(StateKey); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	if err := r.store.Delete(ProofsKey); err != nil {
		return fmt.Errorf("delete proofs: %w", err)
	}
	return nil
}

// read returns nil bytes for a missing blob.
func (r *Repository) read(key string) ([]byte, error) {
	raw, err := r.store.Get(key)
	if errors.Is(err, domain.ErrBlobNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return raw, nil
}

func (r *Repository) afterDecode(key, label string, res codec.Result) error {
	if res.Repaired > 0 {
		observability.RepairedFields.WithLabelValues(label).Add(float64(res.Repaired))
		r.log.WithFields(logrus.Fields{"blob": label, "repaired": res.Repaired}).Warn("repaired persisted data")
	}
	if !res.Corrupt {
		return nil
	}
	observability.CorruptBlobs.WithLabelValues(label).Inc()
	r.log.WithField("blob", label).Warn("discarding corrupt blob")
	if err := r.store.Delete(key); err != nil {
		return fmt.Errorf("delete corrupt %s: %w", key, err)
	}
	return nil
}

// writeBack records a failed save of a repaired blob. The repaired value is
// still returned to the caller.
func (r *Repository) writeBack(label string, err error) {
	if err == nil {
		return
	}
	observability.PersistFailures.WithLabelValues(label).Inc()
	r.log.WithError(err).WithField("blob", label).Warn("write back repaired blob failed")
}
