package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stakeday/stakeday/internal/app/suggest"
	"github.com/stakeday/stakeday/internal/domain"
)

// ─── Request Helpers ────────────────────────────────────────────────────────

// rawInput accepts a JSON string or number and keeps its text, so user-typed
// values like "$1,200" reach the lenient parsers untouched.
type rawInput string

func (r *rawInput) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = rawInput(s)
		return nil
	}
	*r = rawInput(strings.TrimSpace(string(b)))
	return nil
}

// decodeBody reads a JSON body into v, writing 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

// limitParam reads ?limit=, defaulting to def.
func limitParam(r *http.Request, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		return n
	}
	return def
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrActionNotFound), errors.Is(err, domain.ErrRewardNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRewardLocked):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyText):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ─── Status ─────────────────────────────────────────────────────────────────

// handleStatus returns the full state and its derived values.
// GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// ─── Planner ────────────────────────────────────────────────────────────────

// PUT /api/plan
func (s *Server) handleSetPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Goal    string `json:"goal"`
		Blocker string `json:"blocker"`
		Why     string `json:"why"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.store.SetPlan(req.Goal, req.Blocker, req.Why))
}

// handleSuggest merges suggestions for the saved plan into the action list.
// POST /api/plan/suggest
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	suggestions, added := s.store.Suggest()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"added":       added,
		"actions":     s.store.Snapshot().State.Actions,
	})
}

// handlePreviewSuggestions runs the engine without touching state.
// GET /api/suggestions?goal=&blocker=
func (s *Server) handlePreviewSuggestions(w http.ResponseWriter, r *http.Request) {
	goal := r.URL.Query().Get("goal")
	blocker := r.URL.Query().Get("blocker")
	a := suggest.Analyze(goal, blocker)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resistance":  a.Resistance,
		"flags":       a.Flags,
		"suggestions": suggest.Suggest(goal, blocker),
	})
}

// POST /api/actions
func (s *Server) handleAddAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	item, ok := s.store.AddAction(req.Text)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"added": false})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"added": true, "action": item})
}

// DELETE /api/actions/{id}
func (s *Server) handleRemoveAction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveAction(chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /api/actions/{id}/toggle
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	done, err := s.store.ToggleToday(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	st := s.store.Status()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"done":     done,
		"progress": st.DailyProgress,
		"streak":   st.Streak,
	})
}

// PUT /api/weekly-target
func (s *Server) handleWeeklyTarget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target rawInput `json:"target"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"weekly_target": s.store.SetWeeklyTarget(string(req.Target))})
}

// ─── Wallet ─────────────────────────────────────────────────────────────────

// POST /api/wallet/deposit
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount rawInput `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	amount, ok := s.store.Deposit(string(req.Amount))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deposited": ok,
		"amount":    amount,
		"balance":   s.store.Status().StakeBalance,
	})
}

// PUT /api/wallet/rate
func (s *Server) handleStakeRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate rawInput `json:"rate"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"stake_per_miss": s.store.SetStakeRate(string(req.Rate))})
}

// PUT /api/wallet/deadline
func (s *Server) handleDeadline(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Deadline string `json:"deadline"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	deadline, ok := s.store.SetDeadline(req.Deadline)
	if !ok {
		writeError(w, http.StatusBadRequest, "deadline must be HH:MM")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deadline_time": deadline})
}

// PUT /api/wallet/strict
func (s *Server) handleStrict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.store.SetStrictMode(req.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"strict_mode": req.Enabled})
}

// handlePenalty applies today's penalty when one is due.
// POST /api/wallet/penalty
func (s *Server) handlePenalty(w http.ResponseWriter, r *http.Request) {
	amount, applied := s.store.ApplyPenalty()
	st := s.store.Status()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applied": applied,
		"amount":  amount,
		"balance": st.StakeBalance,
		"penalty": st.Penalty,
	})
}

// GET /api/ledger?limit=
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Ledger(limitParam(r, 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// ─── Proofs ─────────────────────────────────────────────────────────────────

// GET /api/proofs?limit=
func (s *Server) handleListProofs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"proofs": s.store.Proofs(limitParam(r, 0)),
	})
}

// POST /api/proofs
func (s *Server) handleAddProof(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	entry, ok := s.store.AddProof(req.Note)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"added": false})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"added": true, "proof": entry})
}

// ─── Rewards ────────────────────────────────────────────────────────────────

// GET /api/rewards
func (s *Server) handleListRewards(w http.ResponseWriter, r *http.Request) {
	st := s.store.Status()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"streak":  st.Streak,
		"rewards": st.Rewards,
	})
}

// POST /api/rewards
func (s *Server) handleAddReward(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title        string   `json:"title"`
		UnlockStreak rawInput `json:"unlock_streak"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	item, ok := s.store.AddReward(req.Title, string(req.UnlockStreak))
	if !ok {
		writeError(w, http.StatusBadRequest, "title and a positive unlock_streak are required")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// POST /api/rewards/{id}/claim
func (s *Server) handleClaimReward(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.ClaimReward(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ─── Maintenance ────────────────────────────────────────────────────────────

// POST /api/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.store.Reset()
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// GET /api/journal?limit=
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"size":        s.journal.Len(),
		"transitions": s.journal.Recent(limitParam(r, 100)),
	})
}
