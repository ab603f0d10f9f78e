// Package engagement derives streaks, progress and penalties from the action list.
//
// A day counts as active when at least one action was completed on it.
// The streak is a whole-day indicator, not a per-task one.
package engagement

import (
	"math"
	"sort"

	"github.com/stakeday/stakeday/internal/domain"
)

// activeDays returns the union of completion dates across all actions.
func activeDays(actions []domain.ActionItem) map[string]struct{} {
	days := make(map[string]struct{})
	for _, a := range actions {
		for _, d := range a.CompletedDates {
			days[d] = struct{}{}
		}
	}
	return days
}

// Streak counts consecutive active days ending at todayKey.
// It is zero when today has no completion.
func Streak(actions []domain.ActionItem, todayKey string) int {
	if _, ok := domain.ParseDateKey(todayKey); !ok {
		return 0
	}
	days := activeDays(actions)
	streak := 0
	for key := todayKey; ; key = domain.AddDays(key, -1) {
		if _, ok := days[key]; !ok {
			return streak
		}
		streak++
	}
}

// LongestStreak returns the longest run of consecutive active days ever recorded.
func LongestStreak(actions []domain.ActionItem) int {
	days := activeDays(actions)
	keys := make([]string, 0, len(days))
	for k := range days {
		if _, ok := domain.ParseDateKey(k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	longest, run := 0, 0
	prev := ""
	for _, k := range keys {
		if prev != "" && domain.AddDays(prev, 1) == k {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = k
	}
	return longest
}

// ActiveDays counts active days in the window of the given length ending at todayKey.
func ActiveDays(actions []domain.ActionItem, todayKey string, window int) int {
	if _, ok := domain.ParseDateKey(todayKey); !ok || window <= 0 {
		return 0
	}
	days := activeDays(actions)
	count := 0
	key := todayKey
	for i := 0; i < window; i++ {
		if _, ok := days[key]; ok {
			count++
		}
		key = domain.AddDays(key, -1)
	}
	return count
}

// CompletedToday counts actions completed on todayKey.
func CompletedToday(actions []domain.ActionItem, todayKey string) int {
	n := 0
	for _, a := range actions {
		if a.CompletedOn(todayKey) {
			n++
		}
	}
	return n
}

// DailyProgress returns the rounded percentage of actions completed today, 0–100.
func DailyProgress(actions []domain.ActionItem, todayKey string) int {
	if len(actions) == 0 {
		return 0
	}
	pct := float64(CompletedToday(actions, todayKey)) / float64(len(actions)) * 100
	return int(math.Round(pct))
}
