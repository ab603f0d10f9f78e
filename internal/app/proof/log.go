// Package proof keeps the append-only history of daily proof notes.
// Entries are kept newest first and never edited.
package proof

import (
	"strings"

	"github.com/stakeday/stakeday/internal/domain"
)

// DefaultRetention is how many entries are kept when no cap is configured.
const DefaultRetention = 365

// Log is an in-memory proof history.
type Log struct {
	entries   []domain.ProofEntry
	retention int
	clock     domain.Clock
	ids       domain.IDGenerator
}

// NewLog wraps existing entries (newest first). retention <= 0 means DefaultRetention.
func NewLog(entries []domain.ProofEntry, retention int, clock domain.Clock, ids domain.IDGenerator) *Log {
	if retention <= 0 {
		retention = DefaultRetention
	}
	l := &Log{retention: retention, clock: clock, ids: ids}
	l.entries = l.trim(append([]domain.ProofEntry(nil), entries...))
	return l
}

// Append records a note with the current streak and progress snapshots.
// A blank note is ignored and reported with ok=false.
func (l *Log) Append(note string, streak, progress int) (domain.ProofEntry, bool) {
	note = strings.TrimSpace(note)
	if note == "" {
		return domain.ProofEntry{}, false
	}
	entry := domain.ProofEntry{
		ID:       l.ids.Next(),
		Date:     l.clock.Now(),
		Note:     note,
		Streak:   max(streak, 0),
		Progress: min(max(progress, 0), 100),
	}
	l.entries = l.trim(append([]domain.ProofEntry{entry}, l.entries...))
	return entry, true
}

// Entries returns a copy of up to limit entries, newest first. limit <= 0 returns all.
func (l *Log) Entries(limit int) []domain.ProofEntry {
	n := len(l.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.ProofEntry, n)
	copy(out, l.entries[:n])
	return out
}

// Len returns the number of stored entries.
func (l *Log) Len() int { return len(l.entries) }

func (l *Log) trim(entries []domain.ProofEntry) []domain.ProofEntry {
	if len(entries) > l.retention {
		entries = entries[:l.retention]
	}
	return entries
}
