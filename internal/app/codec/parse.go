package codec

import (
	"math"
	"strconv"
	"strings"
)

// MaxAmount bounds every stored money value so sums and products stay finite.
const MaxAmount = 1e12

// ParseAmount reads a user-typed money amount. Anything non-numeric,
// non-finite, negative or above MaxAmount yields fallback. Results are
// rounded to cents.
func ParseAmount(raw string, fallback float64) float64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !validAmount(f) {
		return fallback
	}
	f = math.Round(f*100) / 100
	if !validAmount(f) {
		return fallback
	}
	return f
}

// ParseCount reads a user-typed whole number with the same fallback rules.
func ParseCount(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// ParseDeadline parses a 24-hour HH:MM time of day.
func ParseDeadline(s string) (hour, minute int, ok bool) {
	h, m, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func validAmount(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0 && f <= MaxAmount
}
