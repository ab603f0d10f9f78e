package engagement

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stakeday/stakeday/internal/domain"
)

const today = "2026-10-19"

func action(id string, dates ...string) domain.ActionItem {
	if dates == nil {
		dates = []string{}
	}
	return domain.ActionItem{ID: id, Text: "task " + id, CompletedDates: dates}
}

// at returns hh:mm on the test day, in UTC.
func at(hh, mm int) time.Time {
	return time.Date(2026, 10, 19, hh, mm, 0, 0, time.UTC)
}

// ─── Streak Tests ───────────────────────────────────────────────────────────

func TestStreak(t *testing.T) {
	tests := []struct {
		name    string
		actions []domain.ActionItem
		want    int
	}{
		{"no actions", nil, 0},
		{"nothing today", []domain.ActionItem{action("a", "2026-10-18", "2026-10-17")}, 0},
		{"today only", []domain.ActionItem{action("a", today)}, 1},
		{"three in a row", []domain.ActionItem{action("a", today, "2026-10-18", "2026-10-17", "2026-10-15")}, 3},
		{"union across actions", []domain.ActionItem{
			action("a", today, "2026-10-17"),
			action("b", "2026-10-18"),
		}, 3},
		{"old history only", []domain.ActionItem{action("a", "2026-10-01", "2026-09-30", "2026-09-29")}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.actions, today); got != tt.want {
				t.Errorf("Streak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStreak_Consecutive(t *testing.T) {
	for k := 1; k <= 40; k++ {
		dates := make([]string, 0, k)
		for i := 0; i < k; i++ {
			dates = append(dates, domain.AddDays(today, -i))
		}
		// gap at d-k, then more history
		dates = append(dates, domain.AddDays(today, -k-1), domain.AddDays(today, -k-2))
		got := Streak([]domain.ActionItem{action("a", dates...)}, today)
		if got != k {
			t.Fatalf("k=%d: Streak() = %d", k, got)
		}
	}
}

func TestStreak_AcrossMonthBoundary(t *testing.T) {
	actions := []domain.ActionItem{action("a", "2026-10-01", "2026-09-30", "2026-09-29")}
	if got := Streak(actions, "2026-10-01"); got != 3 {
		t.Errorf("Streak() = %d, want 3", got)
	}
}

func TestStreak_InvalidToday(t *testing.T) {
	if got := Streak([]domain.ActionItem{action("a", today)}, "not-a-date"); got != 0 {
		t.Errorf("Streak(invalid today) = %d, want 0", got)
	}
}

func TestLongestStreak(t *testing.T) {
	actions := []domain.ActionItem{
		action("a", "2026-10-01", "2026-10-02", "2026-10-03", "2026-10-10"),
		action("b", "2026-10-04", "2026-10-11"),
	}
	if got := LongestStreak(actions); got != 4 {
		t.Errorf("LongestStreak() = %d, want 4", got)
	}
	if got := LongestStreak(nil); got != 0 {
		t.Errorf("LongestStreak(nil) = %d, want 0", got)
	}
}

func TestActiveDays(t *testing.T) {
	actions := []domain.ActionItem{
		action("a", today, "2026-10-17", "2026-10-13", "2026-10-12"),
		action("b", "2026-10-17"),
	}
	if got := ActiveDays(actions, today, 7); got != 3 {
		t.Errorf("ActiveDays(7) = %d, want 3", got)
	}
	if got := ActiveDays(actions, today, 0); got != 0 {
		t.Errorf("ActiveDays(0) = %d, want 0", got)
	}
}

// ─── Progress Tests ─────────────────────────────────────────────────────────

func TestDailyProgress(t *testing.T) {
	tests := []struct {
		name    string
		actions []domain.ActionItem
		want    int
	}{
		{"empty", nil, 0},
		{"none done", []domain.ActionItem{action("a"), action("b")}, 0},
		{"one of three", []domain.ActionItem{action("a", today), action("b"), action("c")}, 33},
		{"two of three", []domain.ActionItem{action("a", today), action("b", today), action("c")}, 67},
		{"all done", []domain.ActionItem{action("a", today)}, 100},
		{"done yesterday only", []domain.ActionItem{action("a", "2026-10-18")}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DailyProgress(tt.actions, today); got != tt.want {
				t.Errorf("DailyProgress() = %d, want %d", got, tt.want)
			}
		})
	}
}

// ─── Penalty Tests ──────────────────────────────────────────────────────────

func strictState(balance, rate float64, actions ...domain.ActionItem) domain.SavedState {
	s := domain.DefaultState()
	s.StrictMode = true
	s.DeadlineTime = "21:00"
	s.StakeBalance = balance
	s.StakePerMiss = rate
	s.Actions = actions
	return s
}

func TestEvaluate_CappedByBalance(t *testing.T) {
	s := strictState(10, 15, action("a"))
	st := Evaluate(s, at(22, 0))
	if st.MissedTasks != 1 {
		t.Errorf("MissedTasks = %d, want 1", st.MissedTasks)
	}
	if st.RawPenalty != 15 {
		t.Errorf("RawPenalty = %v, want 15", st.RawPenalty)
	}
	if st.PenaltyToday != 10 {
		t.Errorf("PenaltyToday = %v, want 10", st.PenaltyToday)
	}
	if !st.CanApply {
		t.Error("CanApply = false, want true")
	}
}

func TestDeadlinePassed(t *testing.T) {
	tests := []struct {
		deadline string
		now      time.Time
		want     bool
	}{
		{"21:00", at(20, 59), false},
		{"21:00", at(21, 0), false},
		{"21:00", at(21, 1), true},
		{"00:00", at(0, 1), true},
		{"23:59", at(23, 58), false},
		{"bogus", at(23, 59), false},
		{"", at(23, 59), false},
	}
	for _, tt := range tests {
		t.Run(tt.deadline+"@"+tt.now.Format("15:04"), func(t *testing.T) {
			if got := DeadlinePassed(tt.deadline, tt.now); got != tt.want {
				t.Errorf("DeadlinePassed(%q, %s) = %v, want %v", tt.deadline, tt.now.Format("15:04"), got, tt.want)
			}
		})
	}
}

func TestDeadlinePassed_UsesClockLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 21:30 in Tokyo is 12:30 UTC.
	now := time.Date(2026, 10, 19, 21, 30, 0, 0, tokyo)
	if !DeadlinePassed("21:00", now) {
		t.Error("deadline should be compared in the clock's own location")
	}
}

func TestEvaluate_CanApplyConditions(t *testing.T) {
	base := func() domain.SavedState { return strictState(50, 5, action("a"), action("b", today)) }

	tests := []struct {
		name   string
		mutate func(*domain.SavedState)
		now    time.Time
		want   bool
	}{
		{"all conditions met", func(*domain.SavedState) {}, at(21, 30), true},
		{"strict mode off", func(s *domain.SavedState) { s.StrictMode = false }, at(21, 30), false},
		{"before deadline", func(*domain.SavedState) {}, at(20, 0), false},
		{"nothing missed", func(s *domain.SavedState) { s.Actions[0].CompletedDates = []string{today} }, at(21, 30), false},
		{"already applied today", func(s *domain.SavedState) { s.LastPenaltyDate = today }, at(21, 30), false},
		{"applied yesterday", func(s *domain.SavedState) { s.LastPenaltyDate = "2026-10-18" }, at(21, 30), true},
		{"empty wallet", func(s *domain.SavedState) { s.StakeBalance = 0 }, at(21, 30), false},
		{"bad deadline fails open", func(s *domain.SavedState) { s.DeadlineTime = "late" }, at(23, 59), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(&s)
			if got := Evaluate(s, tt.now).CanApply; got != tt.want {
				t.Errorf("CanApply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_PenaltyBound(t *testing.T) {
	balances := []float64{0, 0.5, 10, 100}
	rates := []float64{0, 1, 15, 1000}
	for _, b := range balances {
		for _, r := range rates {
			for missed := 0; missed <= 4; missed++ {
				actions := make([]domain.ActionItem, missed)
				for i := range actions {
					actions[i] = action("x")
				}
				st := Evaluate(strictState(b, r, actions...), at(22, 0))
				if st.PenaltyToday < 0 || st.PenaltyToday > b {
					t.Fatalf("balance=%v rate=%v missed=%d: PenaltyToday=%v out of bounds", b, r, missed, st.PenaltyToday)
				}
			}
		}
	}
}

func TestEvaluate_NonFiniteWalletStaysBounded(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		rate    float64
		missed  int
	}{
		{"infinite rate no actions", 10, math.Inf(1), 0},
		{"infinite rate missed", 10, math.Inf(1), 3},
		{"huge rate overflows", 5, math.MaxFloat64, 4},
		{"nan balance", math.NaN(), 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions := make([]domain.ActionItem, tt.missed)
			for i := range actions {
				actions[i] = action("x")
			}
			st := Evaluate(strictState(tt.balance, tt.rate, actions...), at(22, 0))
			for name, v := range map[string]float64{"RawPenalty": st.RawPenalty, "PenaltyToday": st.PenaltyToday} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Errorf("%s = %v, want finite", name, v)
				}
			}
			balance := tt.balance
			if math.IsNaN(balance) {
				balance = 0
			}
			if st.PenaltyToday < 0 || st.PenaltyToday > balance {
				t.Errorf("PenaltyToday = %v outside [0, %v]", st.PenaltyToday, balance)
			}
		})
	}
}

func TestApplyPenalty_OncePerDay(t *testing.T) {
	s := strictState(30, 5, action("a"), action("b"))
	now := at(21, 30)

	s1, amount, ok := ApplyPenalty(s, now)
	if !ok || amount != 10 {
		t.Fatalf("first ApplyPenalty() = %v, %v; want 10, true", amount, ok)
	}
	if s1.StakeBalance != 20 || s1.TotalPenalties != 10 || s1.LastPenaltyDate != today {
		t.Errorf("after first apply: %+v", s1)
	}

	s2, amount, ok := ApplyPenalty(s1, now.Add(time.Hour))
	if ok || amount != 0 {
		t.Errorf("second ApplyPenalty() = %v, %v; want no-op", amount, ok)
	}
	if s2.StakeBalance != 20 || s2.TotalPenalties != 10 {
		t.Errorf("second apply changed wallet: %+v", s2)
	}

	if s.StakeBalance != 30 {
		t.Error("ApplyPenalty mutated its input")
	}
}

func TestApplyPenalty_FloorsAtZero(t *testing.T) {
	s := strictState(10, 15, action("a"))
	next, amount, ok := ApplyPenalty(s, at(22, 0))
	if !ok || amount != 10 {
		t.Fatalf("ApplyPenalty() = %v, %v", amount, ok)
	}
	if next.StakeBalance != 0 {
		t.Errorf("StakeBalance = %v, want 0", next.StakeBalance)
	}
}

func TestApplyPenalty_NotDue(t *testing.T) {
	s := strictState(10, 5, action("a"))
	next, _, ok := ApplyPenalty(s, at(20, 0))
	if ok {
		t.Error("ApplyPenalty() before deadline should be a no-op")
	}
	if next.StakeBalance != 10 || next.LastPenaltyDate != "" {
		t.Errorf("state changed: %+v", next)
	}
}

// ─── Reward Tests ───────────────────────────────────────────────────────────

func TestRewards(t *testing.T) {
	rewards := []domain.RewardItem{
		{ID: "r1", Title: "Coffee", UnlockStreak: 2},
		{ID: "r2", Title: "Book", UnlockStreak: 7},
		{ID: "r3", Title: "Walk", UnlockStreak: 1, Claimed: true},
	}
	views := Rewards(rewards, 3)
	if !views[0].Claimable || views[0].DaysToGo != 0 {
		t.Errorf("r1 = %+v, want claimable", views[0])
	}
	if views[1].Unlocked || views[1].DaysToGo != 4 {
		t.Errorf("r2 = %+v, want locked with 4 days to go", views[1])
	}
	if views[2].Claimable {
		t.Error("claimed reward should not be claimable")
	}
}

func TestClaimReward(t *testing.T) {
	rewards := []domain.RewardItem{
		{ID: "r1", Title: "Coffee", UnlockStreak: 2},
		{ID: "r2", Title: "Book", UnlockStreak: 7},
	}

	got, err := ClaimReward(rewards, "r1", 2)
	if err != nil {
		t.Fatalf("ClaimReward(r1) error: %v", err)
	}
	if !got[0].Claimed {
		t.Error("r1 not claimed")
	}
	if rewards[0].Claimed {
		t.Error("ClaimReward mutated its input")
	}

	if _, err := ClaimReward(rewards, "r2", 2); !errors.Is(err, domain.ErrRewardLocked) {
		t.Errorf("ClaimReward(r2) err = %v, want ErrRewardLocked", err)
	}
	if _, err := ClaimReward(rewards, "nope", 99); !errors.Is(err, domain.ErrRewardNotFound) {
		t.Errorf("ClaimReward(nope) err = %v, want ErrRewardNotFound", err)
	}

	// Claimed is monotonic: the streak dropping does not un-claim.
	again, err := ClaimReward(got, "r1", 0)
	if err != nil || !again[0].Claimed {
		t.Errorf("re-claim = %+v, %v", again[0], err)
	}
}
