// Package suggest turns a goal and a blocker into a short list of small,
// time-boxed tasks.
//
// The pipeline is pure and deterministic:
//
//	goal + blocker → Classify (resistance) + topic flags → six fixed slots
package suggest

import "strings"

// Resistance is a coarse reason a user is stuck.
type Resistance string

const (
	ResistanceAmbiguity     Resistance = "ambiguity"
	ResistanceOverwhelm     Resistance = "overwhelm"
	ResistanceAnxiety       Resistance = "anxiety"
	ResistanceInertia       Resistance = "inertia"
	ResistancePerfectionism Resistance = "perfectionism"
	ResistanceDefault       Resistance = "default"
)

// resistanceRules is checked in order; the first category with a matching
// phrase wins.
var resistanceRules = []struct {
	category Resistance
	phrases  []string
}{
	{ResistanceAmbiguity, []string{
		"don't know where to start", "dont know where to start",
		"not sure where to start", "no idea", "unclear", "confused",
		"don't know how", "dont know how", "not sure how", "where do i begin",
	}},
	{ResistanceOverwhelm, []string{
		"too much", "piling up", "overwhelm", "so many", "too many",
		"behind on everything", "drowning", "never ending", "endless",
	}},
	{ResistanceAnxiety, []string{
		"stressed", "stress", "pressure", "anxious", "anxiety", "scared",
		"afraid", "fear", "panic", "nervous", "worried", "dread",
	}},
	{ResistanceInertia, []string{
		"procrastinat", "been meaning to", "delay", "putting off", "put off",
		"keep avoiding", "lazy", "no motivation", "unmotivated",
		"can't get going", "cant get going", "can't start", "cant start",
	}},
	{ResistancePerfectionism, []string{
		"has to be perfect", "perfect", "not good enough", "good enough",
		"overthink", "overthinking", "judged", "embarrass", "polish",
	}},
}

// Classify maps free text to a resistance category.
// Matching is case-insensitive over goal and blocker joined by a space.
func Classify(goal, blocker string) Resistance {
	return classifyText(combined(goal, blocker))
}

func classifyText(text string) Resistance {
	for _, rule := range resistanceRules {
		if containsAny(text, rule.phrases) {
			return rule.category
		}
	}
	return ResistanceDefault
}

func combined(goal, blocker string) string {
	text := strings.ToLower(goal + " " + blocker)
	// Curly apostrophes from phone keyboards.
	return strings.ReplaceAll(text, "’", "'")
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
