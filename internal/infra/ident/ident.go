// Package ident provides domain.IDGenerator implementations.
package ident

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// UUID generates random v4 identifiers.
type UUID struct{}

// Next returns a new random UUID string.
func (UUID) Next() string {
	return uuid.NewString()
}

// Sequence generates prefix-1, prefix-2, ... for tests and fixtures.
type Sequence struct {
	Prefix string
	n      atomic.Int64
}

// Next returns the next identifier in the sequence.
func (s *Sequence) Next() string {
	return fmt.Sprintf("%s-%d", s.Prefix, s.n.Add(1))
}
