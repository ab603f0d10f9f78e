// Package tasks keeps action lists free of blank and duplicate entries.
//
// Two actions are the same task when their normalized keys match: lowercase,
// every run of characters outside [a-z0-9] collapsed to one space, trimmed.
package tasks

import (
	"strings"

	"github.com/stakeday/stakeday/internal/domain"
)

// Key returns the normalized comparison key for task text.
func Key(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// Normalize drops entries with an empty key or a key already seen,
// preserving first-seen order. The result never aliases the input.
func Normalize(candidates []domain.ActionItem) []domain.ActionItem {
	return appendUnique(make([]domain.ActionItem, 0, len(candidates)), map[string]struct{}{}, candidates)
}

// Merge adds texts to existing as new actions, skipping anything whose key
// is already present in existing or earlier in texts.
// It returns the merged list and how many actions were added.
func Merge(existing []domain.ActionItem, texts []string, ids domain.IDGenerator) ([]domain.ActionItem, int) {
	out := Normalize(existing)
	seen := make(map[string]struct{}, len(out)+len(texts))
	for _, a := range out {
		seen[Key(a.Text)] = struct{}{}
	}

	added := 0
	for _, text := range texts {
		k := Key(text)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, domain.ActionItem{
			ID:             ids.Next(),
			Text:           strings.TrimSpace(text),
			CompletedDates: []string{},
		})
		added++
	}
	return out, added
}

func appendUnique(out []domain.ActionItem, seen map[string]struct{}, candidates []domain.ActionItem) []domain.ActionItem {
	for _, c := range candidates {
		k := Key(c.Text)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c.Clone())
	}
	return out
}
