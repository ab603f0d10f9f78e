package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.
// Core recovery paths never return these; they exist for the outer layers.

var (
	// Planner errors
	ErrActionNotFound = errors.New("action not found")
	ErrEmptyText      = errors.New("text is required")

	// Reward errors
	ErrRewardNotFound = errors.New("reward not found")
	ErrRewardLocked   = errors.New("reward is still locked")

	// Wallet errors
	ErrPenaltyNotDue = errors.New("no penalty is due right now")

	// Storage errors
	ErrBlobNotFound = errors.New("blob not found")
)
