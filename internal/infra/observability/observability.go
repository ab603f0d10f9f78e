// Package observability records what the session store does.
//
// This provides:
//   - A bounded in-memory journal of recent state transitions
//   - Prometheus metrics for transitions, wallet movements and blob repairs
package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ═══════════════════════════════════════════════════════════════════════════
// Transition Journal
// ═══════════════════════════════════════════════════════════════════════════

// TransitionStatus indicates success/failure.
type TransitionStatus int

const (
	TransitionOK TransitionStatus = iota
	TransitionError
)

// Transition is one committed (or rejected) session operation.
type Transition struct {
	Operation string            `json:"operation"`
	StartTime time.Time         `json:"start_time"`
	Duration  time.Duration     `json:"duration"`
	Status    TransitionStatus  `json:"status"`
	Changed   bool              `json:"changed"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// JournalConfig configures the journal.
type JournalConfig struct {
	Enabled bool
	MaxSize int // ring buffer size (default 500)
}

// DefaultJournalConfig returns production defaults.
func DefaultJournalConfig() JournalConfig {
	return JournalConfig{
		Enabled: true,
		MaxSize: 500,
	}
}

// Journal keeps the most recent transitions.
type Journal struct {
	mu      sync.Mutex
	entries []Transition
	maxSize int
	enabled bool
}

// NewJournal creates a journal.
func NewJournal(cfg JournalConfig) *Journal {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultJournalConfig().MaxSize
	}
	return &Journal{
		entries: make([]Transition, 0, cfg.MaxSize),
		maxSize: cfg.MaxSize,
		enabled: cfg.Enabled,
	}
}

// Record stores a finished transition and updates the transition metrics.
// err marks the transition failed; changed says whether state moved.
func (j *Journal) Record(op string, start time.Time, changed bool, err error, attrs map[string]string) {
	result := "noop"
	if changed {
		result = "changed"
	}
	if err != nil {
		result = "error"
	}
	TransitionsTotal.WithLabelValues(op, result).Inc()

	if j == nil || !j.enabled {
		return
	}

	tr := Transition{
		Operation: op,
		StartTime: start,
		Duration:  time.Since(start),
		Status:    TransitionOK,
		Changed:   changed,
		Attrs:     attrs,
	}
	if err != nil {
		tr.Status = TransitionError
		if tr.Attrs == nil {
			tr.Attrs = make(map[string]string)
		}
		tr.Attrs["error"] = err.Error()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	// Ring buffer: overwrite oldest if at capacity
	if len(j.entries) >= j.maxSize {
		j.entries = j.entries[1:]
	}
	j.entries = append(j.entries, tr)
}

// Recent returns a copy of up to limit transitions, oldest first.
func (j *Journal) Recent(limit int) []Transition {
	j.mu.Lock()
	defer j.mu.Unlock()

	if limit <= 0 || limit > len(j.entries) {
		limit = len(j.entries)
	}

	start := len(j.entries) - limit
	out := make([]Transition, limit)
	copy(out, j.entries[start:])
	return out
}

// Len returns the number of recorded transitions.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// ═══════════════════════════════════════════════════════════════════════════
// Prometheus Metrics
// ═══════════════════════════════════════════════════════════════════════════

// ─── Session Metrics ────────────────────────────────────────────────────────

// TransitionsTotal counts session operations by outcome.
var TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stakeday",
	Subsystem: "session",
	Name:      "transitions_total",
	Help:      "Total session operations by operation and result (changed, noop, error).",
}, []string{"op", "result"})

// PersistFailures counts save-on-change writes that failed.
var PersistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stakeday",
	Subsystem: "session",
	Name:      "persist_failures_total",
	Help:      "Total failed blob writes after a committed change.",
}, []string{"blob"})

// SuggestionsGenerated counts suggestion runs by resistance category.
var SuggestionsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stakeday",
	Subsystem: "planner",
	Name:      "suggestions_total",
	Help:      "Total suggestion runs by resistance category.",
}, []string{"resistance"})

// ─── Wallet Metrics ─────────────────────────────────────────────────────────

// StakeBalance tracks the current stake balance.
var StakeBalance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "stakeday",
	Subsystem: "wallet",
	Name:      "balance",
	Help:      "Current stake balance.",
})

// PenaltiesApplied counts applied penalties.
var PenaltiesApplied = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stakeday",
	Subsystem: "wallet",
	Name:      "penalties_applied_total",
	Help:      "Total penalties applied.",
})

// PenaltyAmount sums the amounts deducted by penalties.
var PenaltyAmount = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stakeday",
	Subsystem: "wallet",
	Name:      "penalty_amount_total",
	Help:      "Total amount deducted by penalties.",
})

// ─── Progress Metrics ───────────────────────────────────────────────────────

// CurrentStreak tracks the current streak in days.
var CurrentStreak = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "stakeday",
	Subsystem: "progress",
	Name:      "streak_days",
	Help:      "Current consecutive-day streak.",
})

// DailyProgress tracks today's completion percentage.
var DailyProgress = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "stakeday",
	Subsystem: "progress",
	Name:      "daily_percent",
	Help:      "Percentage of today's actions completed.",
})

// ─── Storage Metrics ────────────────────────────────────────────────────────

// CorruptBlobs counts blobs discarded because they could not be parsed.
var CorruptBlobs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stakeday",
	Subsystem: "storage",
	Name:      "corrupt_blobs_total",
	Help:      "Total persisted blobs discarded as corrupt.",
}, []string{"blob"})

// RepairedFields counts fields or entries replaced with defaults on load.
var RepairedFields = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stakeday",
	Subsystem: "storage",
	Name:      "repaired_fields_total",
	Help:      "Total fields or entries replaced or dropped while decoding.",
}, []string{"blob"})
