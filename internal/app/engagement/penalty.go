package engagement

import (
	"math"
	"time"

	"github.com/stakeday/stakeday/internal/app/codec"
	"github.com/stakeday/stakeday/internal/domain"
)

// ─── Penalty Engine ─────────────────────────────────────────────────────────
// Strict mode turns open tasks after the daily deadline into a deduction
// from the stake balance. lastPenaltyDate gates it to once per calendar day.

// PenaltyStatus is the derived penalty picture for one moment.
type PenaltyStatus struct {
	TodayKey       string  `json:"today"`
	MissedTasks    int     `json:"missed_tasks"`
	RawPenalty     float64 `json:"raw_penalty"`
	PenaltyToday   float64 `json:"penalty_today"`
	DeadlinePassed bool    `json:"deadline_passed"`
	AlreadyApplied bool    `json:"already_applied"`
	CanApply       bool    `json:"can_apply"`
}

// Evaluate computes the penalty status of state at now.
// The calendar day is now's date in now's location.
func Evaluate(state domain.SavedState, now time.Time) PenaltyStatus {
	today := domain.DateKey(now)
	missed := len(state.Actions) - CompletedToday(state.Actions, today)

	raw := finite(roundCents(float64(missed) * finite(state.StakePerMiss)))
	balance := finite(state.StakeBalance)

	st := PenaltyStatus{
		TodayKey:       today,
		MissedTasks:    missed,
		RawPenalty:     raw,
		PenaltyToday:   math.Min(balance, raw),
		DeadlinePassed: DeadlinePassed(state.DeadlineTime, now),
		AlreadyApplied: state.LastPenaltyDate == today,
	}
	st.CanApply = state.StrictMode &&
		st.DeadlinePassed &&
		st.MissedTasks > 0 &&
		!st.AlreadyApplied &&
		balance > 0
	return st
}

// DeadlinePassed reports whether now is strictly after today's HH:MM deadline.
// An unparsable deadline never counts as passed.
func DeadlinePassed(deadline string, now time.Time) bool {
	h, m, ok := codec.ParseDeadline(deadline)
	if !ok {
		return false
	}
	y, mo, d := now.Date()
	cutoff := time.Date(y, mo, d, h, m, 0, 0, now.Location())
	return now.After(cutoff)
}

// ApplyPenalty deducts today's penalty when Evaluate allows it.
// It returns the new state, the amount deducted and whether anything changed.
// Calling it again on the same day is a no-op.
func ApplyPenalty(state domain.SavedState, now time.Time) (domain.SavedState, float64, bool) {
	st := Evaluate(state, now)
	if !st.CanApply {
		return state, 0, false
	}
	next := state.Clone()
	next.StakeBalance = roundCents(math.Max(0, state.StakeBalance-st.PenaltyToday))
	next.TotalPenalties = math.Min(codec.MaxAmount, roundCents(state.TotalPenalties+st.PenaltyToday))
	next.LastPenaltyDate = st.TodayKey
	return next, st.PenaltyToday, true
}

// finite maps NaN and negatives to 0 and caps +Inf at MaxFloat64.
func finite(f float64) float64 {
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case math.IsInf(f, 1):
		return math.MaxFloat64
	}
	return f
}

func roundCents(f float64) float64 {
	return math.Round(f*100) / 100
}
