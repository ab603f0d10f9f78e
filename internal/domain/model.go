// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring — every other package depends on it, it depends on nothing.
package domain

import (
	"sort"
	"time"
)

// ─── Planner Types ──────────────────────────────────────────────────────────

// ActionItem is one small task on today's list.
// CompletedDates holds ISO date keys (2006-01-02), sorted and unique.
type ActionItem struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	CompletedDates []string `json:"completedDates"`
}

// CompletedOn reports whether the action was checked off on dateKey.
func (a ActionItem) CompletedOn(dateKey string) bool {
	i := sort.SearchStrings(a.CompletedDates, dateKey)
	return i < len(a.CompletedDates) && a.CompletedDates[i] == dateKey
}

// Toggle flips membership of dateKey in CompletedDates and returns the new state.
func (a *ActionItem) Toggle(dateKey string) bool {
	i := sort.SearchStrings(a.CompletedDates, dateKey)
	if i < len(a.CompletedDates) && a.CompletedDates[i] == dateKey {
		a.CompletedDates = append(a.CompletedDates[:i], a.CompletedDates[i+1:]...)
		return false
	}
	a.CompletedDates = append(a.CompletedDates, "")
	copy(a.CompletedDates[i+1:], a.CompletedDates[i:])
	a.CompletedDates[i] = dateKey
	return true
}

// Clone returns a deep copy so callers can't alias the date slice.
func (a ActionItem) Clone() ActionItem {
	dates := make([]string, len(a.CompletedDates))
	copy(dates, a.CompletedDates)
	a.CompletedDates = dates
	return a
}

// RewardItem is a self-chosen treat that unlocks at a streak length.
// Once claimed it stays claimed.
type RewardItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	UnlockStreak int    `json:"unlockStreak"`
	Claimed      bool   `json:"claimed"`
}

// Unlocked reports whether the reward can be claimed at the given streak.
func (r RewardItem) Unlocked(streak int) bool {
	return streak >= r.UnlockStreak
}

// ProofEntry is a dated note documenting a day's work.
type ProofEntry struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Note     string    `json:"note"`
	Streak   int       `json:"streak"`
	Progress int       `json:"progress"`
}

// ─── Saved State ────────────────────────────────────────────────────────────

// SavedState is everything persisted in the primary state blob.
type SavedState struct {
	Goal    string `json:"goal"`
	Blocker string `json:"blocker"`
	Why     string `json:"why"`

	Actions []ActionItem `json:"actions"`
	Rewards []RewardItem `json:"rewards"`

	StrictMode      bool    `json:"strictMode"`
	DeadlineTime    string  `json:"deadlineTime"` // HH:MM, local time
	StakeBalance    float64 `json:"stakeBalance"`
	StakePerMiss    float64 `json:"stakePerMiss"`
	TotalPenalties  float64 `json:"totalPenalties"`
	LastPenaltyDate string  `json:"lastPenaltyDate"`
	WeeklyTarget    int     `json:"weeklyTarget"`
}

// Default values for a fresh state.
const (
	DefaultDeadlineTime = "21:00"
	DefaultStakePerMiss = 5.0
	DefaultWeeklyTarget = 5
)

// DefaultState returns the state used on first run and after corruption.
func DefaultState() SavedState {
	return SavedState{
		Actions:      []ActionItem{},
		Rewards:      []RewardItem{},
		DeadlineTime: DefaultDeadlineTime,
		StakePerMiss: DefaultStakePerMiss,
		WeeklyTarget: DefaultWeeklyTarget,
	}
}

// Clone returns a deep copy of the state.
func (s SavedState) Clone() SavedState {
	actions := make([]ActionItem, len(s.Actions))
	for i, a := range s.Actions {
		actions[i] = a.Clone()
	}
	rewards := make([]RewardItem, len(s.Rewards))
	copy(rewards, s.Rewards)
	s.Actions = actions
	s.Rewards = rewards
	return s
}

// ─── Dates ──────────────────────────────────────────────────────────────────

// DateKey formats t as an ISO calendar date in t's own location.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// ParseDateKey parses an ISO date key. Only exact 2006-01-02 form is valid.
func ParseDateKey(key string) (time.Time, bool) {
	t, err := time.Parse(time.DateOnly, key)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AddDays shifts a date key by n calendar days. Invalid keys come back unchanged.
func AddDays(key string, n int) string {
	t, ok := ParseDateKey(key)
	if !ok {
		return key
	}
	return DateKey(t.AddDate(0, 0, n))
}
