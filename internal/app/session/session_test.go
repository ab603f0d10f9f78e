package session

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/stakeday/stakeday/internal/domain"
	"github.com/stakeday/stakeday/internal/infra/clock"
	"github.com/stakeday/stakeday/internal/infra/ident"
	"github.com/stakeday/stakeday/internal/infra/logging"
	"github.com/stakeday/stakeday/internal/infra/memstore"
	"github.com/stakeday/stakeday/internal/infra/observability"
)

// ─── Fixtures ───────────────────────────────────────────────────────────────

type memLedger struct {
	mu      sync.Mutex
	entries []domain.LedgerEntry
}

func (l *memLedger) AppendEntry(e domain.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.ID = int64(len(l.entries) + 1)
	l.entries = append(l.entries, e)
	return nil
}

func (l *memLedger) ListEntries(limit int) ([]domain.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.LedgerEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		out = append(out, l.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// failingStore accepts reads but rejects every write.
type failingStore struct{ *memstore.Store }

func (failingStore) Put(string, []byte) error { return errors.New("disk full") }

type harness struct {
	store  *Store
	blobs  *memstore.Store
	clock  *clock.Manual
	ledger *memLedger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	blobs := memstore.New()
	return newHarnessWith(t, blobs, blobs)
}

func newHarnessWith(t *testing.T, blobs *memstore.Store, backing domain.BlobStore) *harness {
	t.Helper()
	ids := &ident.Sequence{Prefix: "id"}
	clk := clock.NewManual(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	ledger := &memLedger{}
	s, err := New(Options{
		Repo:    NewRepository(backing, ids, logging.Discard()),
		Ledger:  ledger,
		Clock:   clk,
		IDs:     ids,
		Journal: observability.NewJournal(observability.DefaultJournalConfig()),
		Logger:  logging.Discard(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{store: s, blobs: blobs, clock: clk, ledger: ledger}
}

// reload builds a second store over the same blobs.
func (h *harness) reload(t *testing.T) *Store {
	t.Helper()
	ids := &ident.Sequence{Prefix: "re"}
	s, err := New(Options{
		Repo:   NewRepository(h.blobs, ids, logging.Discard()),
		Clock:  h.clock,
		IDs:    ids,
		Logger: logging.Discard(),
	})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	return s
}

// ─── Planner ────────────────────────────────────────────────────────────────

func TestStore_FreshStateIsDefault(t *testing.T) {
	h := newHarness(t)
	v := h.store.Snapshot()
	if v.State.DeadlineTime != domain.DefaultDeadlineTime || v.State.StakePerMiss != domain.DefaultStakePerMiss {
		t.Errorf("defaults = %q/%v", v.State.DeadlineTime, v.State.StakePerMiss)
	}
	if v.Status.DailyProgress != 0 || v.Status.Streak != 0 {
		t.Errorf("status = %+v", v.Status)
	}
}

func TestStore_SuggestMergesWithoutDuplicates(t *testing.T) {
	h := newHarness(t)
	h.store.SetPlan("Finish the methods section", "I keep procrastinating", "")

	suggestions, added := h.store.Suggest()
	if len(suggestions) == 0 || added != len(suggestions) {
		t.Fatalf("Suggest() = %d suggestions, %d added", len(suggestions), added)
	}
	if _, again := h.store.Suggest(); again != 0 {
		t.Errorf("second Suggest() added %d, want 0", again)
	}
	if got := h.store.Status().TotalActions; got != added {
		t.Errorf("TotalActions = %d, want %d", got, added)
	}
}

func TestStore_AddAction(t *testing.T) {
	h := newHarness(t)

	item, ok := h.store.AddAction("  Write 300 words  ")
	if !ok || item.Text != "Write 300 words" || item.ID == "" {
		t.Fatalf("AddAction = %+v, %v", item, ok)
	}

	tests := []struct {
		name string
		text string
	}{
		{"blank", "   "},
		{"duplicate ignoring case", "write 300 WORDS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := h.store.AddAction(tt.text); ok {
				t.Errorf("AddAction(%q) ok = true", tt.text)
			}
		})
	}
}

func TestStore_ToggleAndProgress(t *testing.T) {
	h := newHarness(t)
	a, _ := h.store.AddAction("one")
	h.store.AddAction("two")

	done, err := h.store.ToggleToday(a.ID)
	if err != nil || !done {
		t.Fatalf("ToggleToday = %v, %v", done, err)
	}
	st := h.store.Status()
	if st.DailyProgress != 50 || st.CompletedToday != 1 || st.Streak != 1 {
		t.Errorf("status = progress %d, completed %d, streak %d", st.DailyProgress, st.CompletedToday, st.Streak)
	}

	done, _ = h.store.ToggleToday(a.ID)
	if done {
		t.Error("second toggle should clear completion")
	}
	if _, err := h.store.ToggleToday("missing"); !errors.Is(err, domain.ErrActionNotFound) {
		t.Errorf("ToggleToday(missing) err = %v", err)
	}
}

func TestStore_StreakAcrossDays(t *testing.T) {
	h := newHarness(t)
	a, _ := h.store.AddAction("daily")
	for i := 0; i < 3; i++ {
		if i > 0 {
			h.clock.Advance(24 * time.Hour)
		}
		h.store.ToggleToday(a.ID)
	}
	if got := h.store.Status().Streak; got != 3 {
		t.Errorf("Streak = %d, want 3", got)
	}
	// Nothing done on day four.
	h.clock.Advance(24 * time.Hour)
	if got := h.store.Status().Streak; got != 0 {
		t.Errorf("Streak with today open = %d, want 0", got)
	}
	if got := h.store.Status().LongestStreak; got != 3 {
		t.Errorf("LongestStreak = %d, want 3", got)
	}
}

func TestStore_RemoveAction(t *testing.T) {
	h := newHarness(t)
	a, _ := h.store.AddAction("gone soon")
	if err := h.store.RemoveAction(a.ID); err != nil {
		t.Fatalf("RemoveAction: %v", err)
	}
	if err := h.store.RemoveAction(a.ID); !errors.Is(err, domain.ErrActionNotFound) {
		t.Errorf("second RemoveAction err = %v", err)
	}
}

// ─── Wallet ─────────────────────────────────────────────────────────────────

func TestStore_Deposit(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantOK bool
		want   float64
	}{
		{"plain", "20", true, 20},
		{"currency", "$1,250.50", true, 1250.5},
		{"zero", "0", false, 0},
		{"negative", "-5", false, 0},
		{"garbage", "abc", false, 0},
		{"overflowing", "1e307", false, 0},
		{"above cap", "1000000000001", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			amount, ok := h.store.Deposit(tt.raw)
			if ok != tt.wantOK || amount != tt.want {
				t.Fatalf("Deposit(%q) = %v, %v", tt.raw, amount, ok)
			}
			if got := h.store.Status().StakeBalance; got != tt.want {
				t.Errorf("balance = %v, want %v", got, tt.want)
			}
			entries, _ := h.store.Ledger(0)
			if tt.wantOK != (len(entries) == 1) {
				t.Errorf("ledger entries = %d", len(entries))
			}
		})
	}
}

func TestStore_SetStakeRateKeepsCurrentOnBadInput(t *testing.T) {
	h := newHarness(t)
	if got := h.store.SetStakeRate("7.5"); got != 7.5 {
		t.Fatalf("SetStakeRate(7.5) = %v", got)
	}
	if got := h.store.SetStakeRate("lots"); got != 7.5 {
		t.Errorf("SetStakeRate(lots) = %v, want 7.5", got)
	}
}

func TestStore_HugeAmountsKeepStateEncodable(t *testing.T) {
	h := newHarness(t)
	h.store.SetStakeRate("1e307")
	h.store.Deposit("1e307")
	if _, ok := h.store.Deposit("999999999999"); !ok {
		t.Fatal("deposit below the cap rejected")
	}
	if _, ok := h.store.Deposit("5"); ok {
		t.Error("deposit past the cap accepted")
	}
	h.store.AddAction("still saved")

	v := h.store.Snapshot()
	if v.State.StakePerMiss != domain.DefaultStakePerMiss {
		t.Errorf("StakePerMiss = %v, want default", v.State.StakePerMiss)
	}
	if _, err := json.Marshal(v); err != nil {
		t.Fatalf("snapshot not encodable: %v", err)
	}
	if got := h.reload(t).Status(); got.TotalActions != 1 || got.StakeBalance != 999999999999 {
		t.Errorf("reloaded status = %+v", got)
	}
}

func TestStore_SetDeadline(t *testing.T) {
	h := newHarness(t)
	got, ok := h.store.SetDeadline("7:05")
	if !ok || got != "07:05" {
		t.Errorf("SetDeadline(7:05) = %q, %v", got, ok)
	}
	got, ok = h.store.SetDeadline("25:00")
	if ok || got != "07:05" {
		t.Errorf("SetDeadline(25:00) = %q, %v", got, ok)
	}
}

func TestStore_PenaltyFlow(t *testing.T) {
	h := newHarness(t)
	h.store.AddAction("a")
	h.store.AddAction("b")
	h.store.Deposit("20")
	h.store.SetStakeRate("5")
	h.store.SetStrictMode(true)

	// 09:00, deadline 21:00.
	if _, ok := h.store.ApplyPenalty(); ok {
		t.Fatal("penalty applied before the deadline")
	}

	h.clock.Set(time.Date(2026, 10, 19, 21, 30, 0, 0, time.UTC))
	st := h.store.Status()
	if !st.Penalty.CanApply || st.Penalty.PenaltyToday != 10 {
		t.Fatalf("penalty status = %+v", st.Penalty)
	}

	before := testutil.ToFloat64(observability.PenaltiesApplied)
	amount, ok := h.store.ApplyPenalty()
	if !ok || amount != 10 {
		t.Fatalf("ApplyPenalty = %v, %v", amount, ok)
	}
	if got := testutil.ToFloat64(observability.PenaltiesApplied) - before; got != 1 {
		t.Errorf("penalties counter delta = %v", got)
	}

	st = h.store.Status()
	if st.StakeBalance != 10 || st.TotalPenalties != 10 {
		t.Errorf("balance/total = %v/%v", st.StakeBalance, st.TotalPenalties)
	}
	if _, ok := h.store.ApplyPenalty(); ok {
		t.Error("penalty applied twice on one day")
	}

	entries, _ := h.store.Ledger(1)
	if len(entries) != 1 || entries[0].Type != domain.TxPenalty {
		t.Errorf("latest ledger entry = %+v", entries)
	}
}

func TestStore_PenaltyRequiresStrictMode(t *testing.T) {
	h := newHarness(t)
	h.store.AddAction("a")
	h.store.Deposit("20")
	h.clock.Set(time.Date(2026, 10, 19, 22, 0, 0, 0, time.UTC))
	if _, ok := h.store.ApplyPenalty(); ok {
		t.Error("penalty applied with strict mode off")
	}
}

func TestStore_SetWeeklyTarget(t *testing.T) {
	h := newHarness(t)
	if got := h.store.SetWeeklyTarget("3"); got != 3 {
		t.Errorf("SetWeeklyTarget(3) = %d", got)
	}
	for _, raw := range []string{"0", "9", "x"} {
		if got := h.store.SetWeeklyTarget(raw); got != 3 {
			t.Errorf("SetWeeklyTarget(%q) = %d, want 3", raw, got)
		}
	}
}

// ─── Proofs and Rewards ─────────────────────────────────────────────────────

func TestStore_AddProofSnapshotsProgress(t *testing.T) {
	h := newHarness(t)
	a, _ := h.store.AddAction("a")
	h.store.ToggleToday(a.ID)

	entry, ok := h.store.AddProof("photo of the draft")
	if !ok || entry.Streak != 1 || entry.Progress != 100 {
		t.Fatalf("AddProof = %+v, %v", entry, ok)
	}
	if _, ok := h.store.AddProof("  "); ok {
		t.Error("blank proof accepted")
	}
	if got := h.store.Proofs(0); len(got) != 1 {
		t.Errorf("Proofs = %d entries", len(got))
	}
	if got := h.store.Status().ProofCount; got != 1 {
		t.Errorf("ProofCount = %d, want 1", got)
	}
}

func TestStore_RewardLifecycle(t *testing.T) {
	h := newHarness(t)
	reward, ok := h.store.AddReward("New book", "2")
	if !ok {
		t.Fatal("AddReward ok = false")
	}
	if _, ok := h.store.AddReward("", "2"); ok {
		t.Error("blank reward title accepted")
	}
	if _, err := h.store.ClaimReward(reward.ID); !errors.Is(err, domain.ErrRewardLocked) {
		t.Fatalf("early claim err = %v", err)
	}

	a, _ := h.store.AddAction("a")
	h.store.ToggleToday(a.ID)
	h.clock.Advance(24 * time.Hour)
	h.store.ToggleToday(a.ID)

	claimed, err := h.store.ClaimReward(reward.ID)
	if err != nil || !claimed.Claimed {
		t.Fatalf("ClaimReward = %+v, %v", claimed, err)
	}
	if _, err := h.store.ClaimReward("missing"); !errors.Is(err, domain.ErrRewardNotFound) {
		t.Errorf("ClaimReward(missing) err = %v", err)
	}
}

// ─── Persistence ────────────────────────────────────────────────────────────

func TestStore_PersistsAcrossReload(t *testing.T) {
	h := newHarness(t)
	h.store.SetPlan("goal", "blocker", "why")
	a, _ := h.store.AddAction("keep me")
	h.store.ToggleToday(a.ID)
	h.store.Deposit("12.50")
	h.store.AddProof("done")

	again := h.reload(t)
	v := again.Snapshot()
	if v.State.Goal != "goal" || v.State.Why != "why" || v.State.StakeBalance != 12.5 {
		t.Errorf("reloaded state = %+v", v.State)
	}
	if len(v.State.Actions) != 1 || v.State.Actions[0].ID != a.ID {
		t.Errorf("reloaded actions = %+v", v.State.Actions)
	}
	if v.Status.DailyProgress != 100 {
		t.Errorf("reloaded progress = %d", v.Status.DailyProgress)
	}
	if got := again.Proofs(0); len(got) != 1 {
		t.Errorf("reloaded proofs = %d", len(got))
	}
}

func TestStore_SaveFailureKeepsTransition(t *testing.T) {
	blobs := memstore.New()
	h := newHarnessWith(t, blobs, failingStore{blobs})

	before := testutil.ToFloat64(observability.PersistFailures.WithLabelValues("state"))
	if _, ok := h.store.AddAction("still here"); !ok {
		t.Fatal("AddAction ok = false")
	}
	if got := h.store.Status().TotalActions; got != 1 {
		t.Errorf("TotalActions = %d, want 1", got)
	}
	if got := testutil.ToFloat64(observability.PersistFailures.WithLabelValues("state")) - before; got != 1 {
		t.Errorf("persist failure delta = %v, want 1", got)
	}
}

func TestStore_Reset(t *testing.T) {
	h := newHarness(t)
	h.store.AddAction("a")
	h.store.Deposit("10")
	h.store.AddProof("p")

	h.store.Reset()

	v := h.store.Snapshot()
	if len(v.State.Actions) != 0 || v.State.StakeBalance != 0 {
		t.Errorf("state after reset = %+v", v.State)
	}
	if len(h.store.Proofs(0)) != 0 {
		t.Error("proofs survived reset")
	}
	if h.blobs.Has(StateKey) || h.blobs.Has(ProofsKey) {
		t.Error("blobs survived reset")
	}
	if got := h.reload(t).Snapshot().State; len(got.Actions) != 0 {
		t.Errorf("reloaded after reset = %+v", got)
	}
}

func TestStore_ConcurrentToggles(t *testing.T) {
	h := newHarness(t)
	a, _ := h.store.AddAction("race")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.store.ToggleToday(a.ID)
		}()
	}
	wg.Wait()

	// An even number of toggles leaves the action incomplete.
	if got := h.store.Status().CompletedToday; got != 0 {
		t.Errorf("CompletedToday = %d, want 0", got)
	}
}
