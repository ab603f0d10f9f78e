// Package codec converts persisted blobs to typed state and back.
//
// Decoding never fails. Each field is validated on its own and replaced by
// its default when it has the wrong shape; a blob that is not a JSON object
// at all is reported as corrupt so the caller can discard it.
package codec

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/stakeday/stakeday/internal/app/tasks"
	"github.com/stakeday/stakeday/internal/domain"
)

// SchemaVersion is written into every encoded state blob.
const SchemaVersion = 1

// Result describes what decoding had to do.
type Result struct {
	Corrupt  bool // top-level parse failed; blob should be deleted
	Repaired int  // fields or entries replaced or dropped
}

// ─── State ──────────────────────────────────────────────────────────────────

type stateDoc struct {
	Version int `json:"version"`
	domain.SavedState
}

// EncodeState serializes state as canonical JSON.
func EncodeState(s domain.SavedState) ([]byte, error) {
	return json.Marshal(stateDoc{Version: SchemaVersion, SavedState: s})
}

// DecodeState parses raw into a valid SavedState. Actions without an id get
// one from ids. Empty input is not corrupt; it is simply a fresh state.
func DecodeState(raw []byte, ids domain.IDGenerator) (domain.SavedState, Result) {
	var res Result
	state := domain.DefaultState()
	if len(strings.TrimSpace(string(raw))) == 0 {
		return state, res
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		res.Corrupt = true
		return state, res
	}

	d := &decoder{fields: fields, res: &res}
	state.Goal = d.str("goal", "")
	state.Blocker = d.str("blocker", "")
	state.Why = d.str("why", "")
	state.StrictMode = d.boolean("strictMode", false)
	state.DeadlineTime = d.deadline("deadlineTime", domain.DefaultDeadlineTime)
	state.StakeBalance = d.amount("stakeBalance", 0)
	state.StakePerMiss = d.amount("stakePerMiss", domain.DefaultStakePerMiss)
	state.TotalPenalties = d.amount("totalPenalties", 0)
	state.LastPenaltyDate = d.dateKey("lastPenaltyDate")
	state.WeeklyTarget = d.weeklyTarget("weeklyTarget", domain.DefaultWeeklyTarget)
	state.Actions = d.actions("actions", ids)
	state.Rewards = d.rewards("rewards", ids)
	return state, res
}

// decoder pulls individual fields out of a parsed object, counting repairs.
type decoder struct {
	fields map[string]json.RawMessage
	res    *Result
}

func (d *decoder) raw(key string) (json.RawMessage, bool) {
	v, ok := d.fields[key]
	if !ok || string(v) == "null" {
		return nil, false
	}
	return v, true
}

func (d *decoder) str(key, def string) string {
	v, ok := d.raw(key)
	if !ok {
		return def
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		d.res.Repaired++
		return def
	}
	return s
}

func (d *decoder) boolean(key string, def bool) bool {
	v, ok := d.raw(key)
	if !ok {
		return def
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		d.res.Repaired++
		return def
	}
	return b
}

func (d *decoder) amount(key string, def float64) float64 {
	v, ok := d.raw(key)
	if !ok {
		return def
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil || !validAmount(f) {
		d.res.Repaired++
		return def
	}
	return f
}

func (d *decoder) deadline(key, def string) string {
	s := d.str(key, def)
	if _, _, ok := ParseDeadline(s); !ok {
		d.res.Repaired++
		return def
	}
	return s
}

func (d *decoder) dateKey(key string) string {
	s := d.str(key, "")
	if s == "" {
		return ""
	}
	if _, ok := domain.ParseDateKey(s); !ok {
		d.res.Repaired++
		return ""
	}
	return s
}

func (d *decoder) weeklyTarget(key string, def int) int {
	v, ok := d.raw(key)
	if !ok {
		return def
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil || n != math.Trunc(n) || n < 1 || n > 7 {
		d.res.Repaired++
		return def
	}
	return int(n)
}

func (d *decoder) list(key string) []json.RawMessage {
	v, ok := d.raw(key)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		d.res.Repaired++
		return nil
	}
	return items
}

func (d *decoder) actions(key string, ids domain.IDGenerator) []domain.ActionItem {
	items := d.list(key)
	out := make([]domain.ActionItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		a, ok := decodeAction(item, ids)
		if !ok {
			d.res.Repaired++
			continue
		}
		a.ID = d.uniqueID(seen, a.ID, ids)
		out = append(out, a)
	}
	normalized := tasks.Normalize(out)
	d.res.Repaired += len(out) - len(normalized)
	return normalized
}

func decodeAction(raw json.RawMessage, ids domain.IDGenerator) (domain.ActionItem, bool) {
	var doc struct {
		ID             *string         `json:"id"`
		Text           *string         `json:"text"`
		CompletedDates json.RawMessage `json:"completedDates"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Text == nil {
		return domain.ActionItem{}, false
	}
	a := domain.ActionItem{Text: *doc.Text, CompletedDates: decodeDates(doc.CompletedDates)}
	if doc.ID != nil && strings.TrimSpace(*doc.ID) != "" {
		a.ID = *doc.ID
	} else {
		a.ID = ids.Next()
	}
	return a, true
}

// uniqueID returns id, or a fresh one if id was already taken in seen.
func (d *decoder) uniqueID(seen map[string]struct{}, id string, ids domain.IDGenerator) string {
	if _, dup := seen[id]; dup {
		d.res.Repaired++
		id = ids.Next()
	}
	seen[id] = struct{}{}
	return id
}

// decodeDates keeps valid ISO date keys, sorted and unique.
func decodeDates(raw json.RawMessage) []string {
	out := []string{}
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return out
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) != nil {
			continue
		}
		if _, ok := domain.ParseDateKey(s); !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (d *decoder) rewards(key string, ids domain.IDGenerator) []domain.RewardItem {
	items := d.list(key)
	out := make([]domain.RewardItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		var doc struct {
			ID           *string  `json:"id"`
			Title        *string  `json:"title"`
			UnlockStreak *float64 `json:"unlockStreak"`
			Claimed      *bool    `json:"claimed"`
		}
		if err := json.Unmarshal(item, &doc); err != nil ||
			doc.Title == nil || strings.TrimSpace(*doc.Title) == "" ||
			doc.UnlockStreak == nil || *doc.UnlockStreak < 1 || *doc.UnlockStreak != math.Trunc(*doc.UnlockStreak) {
			d.res.Repaired++
			continue
		}
		r := domain.RewardItem{Title: *doc.Title, UnlockStreak: int(*doc.UnlockStreak)}
		if doc.Claimed != nil {
			r.Claimed = *doc.Claimed
		}
		if doc.ID != nil && strings.TrimSpace(*doc.ID) != "" {
			r.ID = *doc.ID
		} else {
			r.ID = ids.Next()
		}
		r.ID = d.uniqueID(seen, r.ID, ids)
		out = append(out, r)
	}
	return out
}

// ─── Proof History ──────────────────────────────────────────────────────────

// EncodeProofs serializes proof history, newest first as given.
func EncodeProofs(entries []domain.ProofEntry) ([]byte, error) {
	if entries == nil {
		entries = []domain.ProofEntry{}
	}
	return json.Marshal(entries)
}

// DecodeProofs parses the proof-history blob. Invalid entries are dropped;
// a blob that is not a JSON array is corrupt.
func DecodeProofs(raw []byte) ([]domain.ProofEntry, Result) {
	var res Result
	out := []domain.ProofEntry{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return out, res
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		res.Corrupt = true
		return out, res
	}
	for _, item := range items {
		var doc struct {
			ID       *string  `json:"id"`
			Date     *string  `json:"date"`
			Note     *string  `json:"note"`
			Streak   *float64 `json:"streak"`
			Progress *float64 `json:"progress"`
		}
		if err := json.Unmarshal(item, &doc); err != nil || doc.ID == nil || doc.Date == nil || doc.Note == nil {
			res.Repaired++
			continue
		}
		date, err := time.Parse(time.RFC3339Nano, *doc.Date)
		if err != nil || strings.TrimSpace(*doc.Note) == "" {
			res.Repaired++
			continue
		}
		out = append(out, domain.ProofEntry{
			ID:       *doc.ID,
			Date:     date,
			Note:     *doc.Note,
			Streak:   clampInt(doc.Streak, 0, math.MaxInt32),
			Progress: clampInt(doc.Progress, 0, 100),
		})
	}
	return out, res
}

func clampInt(v *float64, lo, hi int) int {
	if v == nil || math.IsNaN(*v) {
		return lo
	}
	f := math.Trunc(*v)
	if f < float64(lo) {
		return lo
	}
	if f > float64(hi) {
		return hi
	}
	return int(f)
}
