// Package session owns the live planner state for one user.
//
// Every operation is one atomic transition under a single mutex: validate,
// compute the next state, commit, then save-on-change. Saves are
// fire-and-forget; a failed write is logged and counted but the in-memory
// transition stands.
package session

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stakeday/stakeday/internal/app/codec"
	"github.com/stakeday/stakeday/internal/app/engagement"
	"github.com/stakeday/stakeday/internal/app/proof"
	"github.com/stakeday/stakeday/internal/app/suggest"
	"github.com/stakeday/stakeday/internal/app/tasks"
	"github.com/stakeday/stakeday/internal/domain"
	"github.com/stakeday/stakeday/internal/infra/logging"
	"github.com/stakeday/stakeday/internal/infra/observability"
)

// WeeklyWindow is the number of trailing days the weekly target covers.
const WeeklyWindow = 7

// Options wires a Store to its collaborators. Repo, Clock and IDs are required.
type Options struct {
	Repo           domain.StateRepository
	Ledger         domain.Ledger // optional
	Clock          domain.Clock
	IDs            domain.IDGenerator
	Journal        *observability.Journal // optional
	Logger         logrus.FieldLogger
	ProofRetention int
}

// Store is the single session-scoped owner of SavedState and proof history.
type Store struct {
	mu      sync.Mutex
	state   domain.SavedState
	proofs  *proof.Log
	repo    domain.StateRepository
	ledger  domain.Ledger
	clock   domain.Clock
	ids     domain.IDGenerator
	journal *observability.Journal
	log     *logrus.Entry

	retention int
}

// New loads persisted state through opts.Repo and returns a ready store.
// Only storage failures are returned; bad data has already been repaired.
func New(opts Options) (*Store, error) {
	state, err := opts.Repo.Load()
	if err != nil {
		return nil, err
	}
	entries, err := opts.Repo.LoadProofs()
	if err != nil {
		return nil, err
	}

	s := &Store{
		state:   state,
		repo:    opts.Repo,
		ledger:  opts.Ledger,
		clock:   opts.Clock,
		ids:     opts.IDs,
		journal: opts.Journal,
		log:     logging.Component(opts.Logger, "session"),

		retention: opts.ProofRetention,
	}
	s.proofs = proof.NewLog(entries, opts.ProofRetention, opts.Clock, opts.IDs)
	s.updateGauges(s.clock.Now())
	return s, nil
}

// ─── Views ──────────────────────────────────────────────────────────────────

// Status is the set of derived display values.
type Status struct {
	Today            string                   `json:"today"`
	DailyProgress    int                      `json:"daily_progress"`
	CompletedToday   int                      `json:"completed_today"`
	TotalActions     int                      `json:"total_actions"`
	Streak           int                      `json:"streak"`
	LongestStreak    int                      `json:"longest_streak"`
	WeeklyActiveDays int                      `json:"weekly_active_days"`
	WeeklyTarget     int                      `json:"weekly_target"`
	WeeklyTargetMet  bool                     `json:"weekly_target_met"`
	Resistance       suggest.Resistance       `json:"resistance"`
	StakeBalance     float64                  `json:"stake_balance"`
	StakePerMiss     float64                  `json:"stake_per_miss"`
	TotalPenalties   float64                  `json:"total_penalties"`
	StrictMode       bool                     `json:"strict_mode"`
	DeadlineTime     string                   `json:"deadline_time"`
	Penalty          engagement.PenaltyStatus `json:"penalty"`
	Rewards          []engagement.RewardView  `json:"rewards"`
	ProofCount       int                      `json:"proof_count"`
}

// View is the full state plus its derived status.
type View struct {
	State  domain.SavedState `json:"state"`
	Status Status            `json:"status"`
}

// Snapshot returns a copy of the current state and its status.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{State: s.state.Clone(), Status: s.statusLocked(s.clock.Now())}
}

// Status returns the derived display values.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked(s.clock.Now())
}

// Refresh recomputes the progress gauges for the current day and returns
// the status. Nothing is persisted.
func (s *Store) Refresh() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	s.updateGauges(now)
	return s.statusLocked(now)
}

func (s *Store) statusLocked(now time.Time) Status {
	st := s.state
	today := domain.DateKey(now)
	streak := engagement.Streak(st.Actions, today)
	weekly := engagement.ActiveDays(st.Actions, today, WeeklyWindow)
	return Status{
		Today:            today,
		DailyProgress:    engagement.DailyProgress(st.Actions, today),
		CompletedToday:   engagement.CompletedToday(st.Actions, today),
		TotalActions:     len(st.Actions),
		Streak:           streak,
		LongestStreak:    engagement.LongestStreak(st.Actions),
		WeeklyActiveDays: weekly,
		WeeklyTarget:     st.WeeklyTarget,
		WeeklyTargetMet:  weekly >= st.WeeklyTarget,
		Resistance:       suggest.Classify(st.Goal, st.Blocker),
		StakeBalance:     st.StakeBalance,
		StakePerMiss:     st.StakePerMiss,
		TotalPenalties:   st.TotalPenalties,
		StrictMode:       st.StrictMode,
		DeadlineTime:     st.DeadlineTime,
		Penalty:          engagement.Evaluate(st, now),
		Rewards:          engagement.Rewards(st.Rewards, streak),
		ProofCount:       s.proofs.Len(),
	}
}

// ─── Planner ────────────────────────────────────────────────────────────────

// SetPlan replaces the goal, blocker and why text.
func (s *Store) SetPlan(goal, blocker, why string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	next := s.state.Clone()
	next.Goal, next.Blocker, next.Why = goal, blocker, why
	changed := next.Goal != s.state.Goal || next.Blocker != s.state.Blocker || next.Why != s.state.Why
	if changed {
		s.commit(next, start)
	}
	s.journal.Record("set_plan", start, changed, nil, nil)
	return View{State: s.state.Clone(), Status: s.statusLocked(start)}
}

// Suggest generates tasks for the saved goal and blocker and merges the new
// ones into the action list. It returns the suggestions and how many were added.
func (s *Store) Suggest() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	resistance := suggest.Classify(s.state.Goal, s.state.Blocker)
	observability.SuggestionsGenerated.WithLabelValues(string(resistance)).Inc()

	suggestions := suggest.Suggest(s.state.Goal, s.state.Blocker)
	merged, added := tasks.Merge(s.state.Actions, suggestions, s.ids)
	if added > 0 {
		next := s.state.Clone()
		next.Actions = merged
		s.commit(next, start)
	}
	s.journal.Record("suggest", start, added > 0, nil, map[string]string{"resistance": string(resistance)})
	return suggestions, added
}

// AddAction appends a manual task. Blank or duplicate text is a no-op.
func (s *Store) AddAction(text string) (domain.ActionItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	merged, added := tasks.Merge(s.state.Actions, []string{text}, s.ids)
	if added == 0 {
		s.journal.Record("add_action", start, false, nil, nil)
		return domain.ActionItem{}, false
	}
	next := s.state.Clone()
	next.Actions = merged
	s.commit(next, start)
	item := merged[len(merged)-1].Clone()
	s.journal.Record("add_action", start, true, nil, map[string]string{"id": item.ID})
	return item, true
}

// RemoveAction deletes an action and its completion history.
func (s *Store) RemoveAction(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	idx := s.indexOf(id)
	if idx < 0 {
		s.journal.Record("remove_action", start, false, domain.ErrActionNotFound, map[string]string{"id": id})
		return domain.ErrActionNotFound
	}
	next := s.state.Clone()
	next.Actions = append(next.Actions[:idx], next.Actions[idx+1:]...)
	s.commit(next, start)
	s.journal.Record("remove_action", start, true, nil, map[string]string{"id": id})
	return nil
}

// ToggleToday flips today's completion of an action and returns the new state.
func (s *Store) ToggleToday(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	idx := s.indexOf(id)
	if idx < 0 {
		s.journal.Record("toggle", start, false, domain.ErrActionNotFound, map[string]string{"id": id})
		return false, domain.ErrActionNotFound
	}
	next := s.state.Clone()
	done := next.Actions[idx].Toggle(domain.DateKey(start))
	s.commit(next, start)
	s.journal.Record("toggle", start, true, nil, map[string]string{"id": id})
	return done, nil
}

func (s *Store) indexOf(id string) int {
	for i, a := range s.state.Actions {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// ─── Wallet ─────────────────────────────────────────────────────────────────

// Deposit adds a user-typed amount to the stake balance. Non-numeric,
// negative or zero input is a no-op, as is a deposit that would push the
// balance past codec.MaxAmount.
func (s *Store) Deposit(raw string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	amount := codec.ParseAmount(raw, 0)
	balance := roundCents(s.state.StakeBalance + amount)
	if amount <= 0 || balance > codec.MaxAmount {
		s.journal.Record("deposit", start, false, nil, nil)
		return 0, false
	}
	next := s.state.Clone()
	next.StakeBalance = balance
	s.commit(next, start)
	s.appendLedger(domain.TxDeposit, amount, next.StakeBalance, start)
	s.journal.Record("deposit", start, true, nil, nil)
	return amount, true
}

// SetStakeRate sets the penalty per missed task. Invalid input keeps the current rate.
func (s *Store) SetStakeRate(raw string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	rate := codec.ParseAmount(raw, s.state.StakePerMiss)
	changed := rate != s.state.StakePerMiss
	if changed {
		next := s.state.Clone()
		next.StakePerMiss = rate
		s.commit(next, start)
	}
	s.journal.Record("set_rate", start, changed, nil, nil)
	return s.state.StakePerMiss
}

// SetDeadline sets the HH:MM deadline. An unparsable value is a no-op.
func (s *Store) SetDeadline(hhmm string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	h, m, ok := codec.ParseDeadline(hhmm)
	if !ok {
		s.journal.Record("set_deadline", start, false, nil, nil)
		return s.state.DeadlineTime, false
	}
	canonical := time.Date(0, 1, 1, h, m, 0, 0, time.UTC).Format("15:04")
	if canonical != s.state.DeadlineTime {
		next := s.state.Clone()
		next.DeadlineTime = canonical
		s.commit(next, start)
	}
	s.journal.Record("set_deadline", start, true, nil, nil)
	return canonical, true
}

// SetStrictMode turns deadline-driven penalties on or off.
func (s *Store) SetStrictMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	changed := s.state.StrictMode != on
	if changed {
		next := s.state.Clone()
		next.StrictMode = on
		s.commit(next, start)
	}
	s.journal.Record("set_strict", start, changed, nil, nil)
}

// ApplyPenalty deducts today's penalty if one is due. At most once per day.
func (s *Store) ApplyPenalty() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	next, amount, ok := engagement.ApplyPenalty(s.state, start)
	if !ok {
		s.journal.Record("apply_penalty", start, false, nil, nil)
		return 0, false
	}
	s.commit(next, start)
	observability.PenaltiesApplied.Inc()
	observability.PenaltyAmount.Add(amount)
	s.appendLedger(domain.TxPenalty, amount, next.StakeBalance, start)
	s.log.WithFields(logrus.Fields{"amount": amount, "balance": next.StakeBalance}).Info("penalty applied")
	s.journal.Record("apply_penalty", start, true, nil, nil)
	return amount, true
}

// Ledger returns recent wallet movements, newest first.
func (s *Store) Ledger(limit int) ([]domain.LedgerEntry, error) {
	if s.ledger == nil {
		return []domain.LedgerEntry{}, nil
	}
	return s.ledger.ListEntries(limit)
}

func (s *Store) appendLedger(tx domain.TransactionType, amount, balance float64, now time.Time) {
	if s.ledger == nil {
		return
	}
	err := s.ledger.AppendEntry(domain.LedgerEntry{
		Timestamp: now,
		Type:      tx,
		Amount:    amount,
		Balance:   balance,
		DateKey:   domain.DateKey(now),
	})
	if err != nil {
		s.log.WithError(err).WithField("type", tx).Warn("ledger append failed")
	}
}

// ─── Weekly Target ──────────────────────────────────────────────────────────

// SetWeeklyTarget sets how many active days per week the user aims for.
// Input outside 1..7 keeps the current target.
func (s *Store) SetWeeklyTarget(raw string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	target := codec.ParseCount(raw, s.state.WeeklyTarget)
	if target < 1 || target > WeeklyWindow {
		target = s.state.WeeklyTarget
	}
	changed := target != s.state.WeeklyTarget
	if changed {
		next := s.state.Clone()
		next.WeeklyTarget = target
		s.commit(next, start)
	}
	s.journal.Record("set_weekly_target", start, changed, nil, nil)
	return s.state.WeeklyTarget
}

// ─── Proofs ─────────────────────────────────────────────────────────────────

// AddProof records a proof note with today's streak and progress.
// A blank note is a no-op.
func (s *Store) AddProof(note string) (domain.ProofEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	today := domain.DateKey(start)
	entry, ok := s.proofs.Append(note,
		engagement.Streak(s.state.Actions, today),
		engagement.DailyProgress(s.state.Actions, today))
	if ok {
		s.persistProofs()
	}
	s.journal.Record("add_proof", start, ok, nil, nil)
	return entry, ok
}

// Proofs returns up to limit proof entries, newest first.
func (s *Store) Proofs(limit int) []domain.ProofEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proofs.Entries(limit)
}

// ─── Rewards ────────────────────────────────────────────────────────────────

// AddReward adds a reward unlocked at the given streak. A blank title or an
// unlock streak below 1 is a no-op.
func (s *Store) AddReward(title, unlockRaw string) (domain.RewardItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	title = strings.TrimSpace(title)
	unlock := codec.ParseCount(unlockRaw, 0)
	if title == "" || unlock < 1 {
		s.journal.Record("add_reward", start, false, nil, nil)
		return domain.RewardItem{}, false
	}
	item := domain.RewardItem{ID: s.ids.Next(), Title: title, UnlockStreak: unlock}
	next := s.state.Clone()
	next.Rewards = append(next.Rewards, item)
	s.commit(next, start)
	s.journal.Record("add_reward", start, true, nil, map[string]string{"id": item.ID})
	return item, true
}

// ClaimReward claims an unlocked reward.
func (s *Store) ClaimReward(id string) (domain.RewardItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	streak := engagement.Streak(s.state.Actions, domain.DateKey(start))
	rewards, err := engagement.ClaimReward(s.state.Rewards, id, streak)
	if err != nil {
		s.journal.Record("claim_reward", start, false, err, map[string]string{"id": id})
		return domain.RewardItem{}, err
	}
	next := s.state.Clone()
	next.Rewards = rewards
	s.commit(next, start)
	s.journal.Record("claim_reward", start, true, nil, map[string]string{"id": id})
	for _, r := range rewards {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.RewardItem{}, domain.ErrRewardNotFound
}

// ─── Reset ──────────────────────────────────────────────────────────────────

// Reset discards all state and proof history by deleting both blobs.
// If the delete fails the defaults are written over them instead.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()

	s.proofs = proof.NewLog(nil, s.retention, s.clock, s.ids)
	if err := s.repo.Clear(); err != nil {
		s.log.WithError(err).Warn("clear blobs failed; overwriting with defaults")
		s.commit(domain.DefaultState(), start)
		s.persistProofs()
	} else {
		s.state = domain.DefaultState()
		s.updateGauges(start)
	}
	s.journal.Record("reset", start, true, nil, nil)
}

// ─── Commit ─────────────────────────────────────────────────────────────────

// commit installs next and saves it. Caller holds s.mu.
func (s *Store) commit(next domain.SavedState, now time.Time) {
	s.state = next
	if err := s.repo.Save(next); err != nil {
		observability.PersistFailures.WithLabelValues("state").Inc()
		s.log.WithError(err).Warn("save state failed")
	}
	s.updateGauges(now)
}

func (s *Store) persistProofs() {
	if err := s.repo.SaveProofs(s.proofs.Entries(0)); err != nil {
		observability.PersistFailures.WithLabelValues("proofs").Inc()
		s.log.WithError(err).Warn("save proofs failed")
	}
}

func (s *Store) updateGauges(now time.Time) {
	today := domain.DateKey(now)
	observability.StakeBalance.Set(s.state.StakeBalance)
	observability.CurrentStreak.Set(float64(engagement.Streak(s.state.Actions, today)))
	observability.DailyProgress.Set(float64(engagement.DailyProgress(s.state.Actions, today)))
}

func roundCents(f float64) float64 {
	return math.Round(f*100) / 100
}
