package suggest

import (
	"strings"
	"unicode"

	"github.com/stakeday/stakeday/internal/app/tasks"
)

// MaxSuggestions caps the list returned by Suggest.
const MaxSuggestions = 6

// Placeholders used when the user leaves a field blank.
const (
	PlaceholderGoal    = "your main goal"
	PlaceholderBlocker = "starting feels hard"
)

// maxGoalRunes bounds how much user text is embedded in a phrase.
const maxGoalRunes = 80

// Flags are topical signals detected in the goal and blocker.
type Flags struct {
	Tidy       bool `json:"tidy"`
	Baking     bool `json:"baking"`
	Academic   bool `json:"academic"`
	Figures    bool `json:"figures"`
	Results    bool `json:"results"`
	Discussion bool `json:"discussion"`
	Project    bool `json:"project"`
}

var (
	tidyWords       = []string{"clean", "tidy", "declutter", "laundry", "dishes", "vacuum", "messy", "room", "bedroom"}
	bakingWords     = []string{"bake", "baking", "cake", "bread", "cookie", "muffin", "pastry", "dough", "oven"}
	academicWords   = []string{"paper", "thesis", "dissertation", "essay", "manuscript", "draft", "chapter", "section", "methods", "literature review", "abstract", "write up", "writeup"}
	figureWords     = []string{"figure", "figures", "plot", "chart", "graph", "diagram"}
	resultsWords    = []string{"results section", "results"}
	discussionWords = []string{"discussion"}
	projectWords    = []string{"project", "website", "prototype", "build", "launch", "coding", "portfolio"}
)

// DetectFlags scans the combined goal and blocker for topical signals.
func DetectFlags(goal, blocker string) Flags {
	return detect(combined(goal, blocker))
}

func detect(text string) Flags {
	words := " " + tasks.Key(text)
	return Flags{
		Tidy:       hasWordPrefix(words, tidyWords),
		Baking:     hasWordPrefix(words, bakingWords),
		Academic:   hasWordPrefix(words, academicWords),
		Figures:    hasWordPrefix(words, figureWords),
		Results:    hasWordPrefix(words, resultsWords),
		Discussion: hasWordPrefix(words, discussionWords),
		Project:    hasWordPrefix(words, projectWords),
	}
}

// hasWordPrefix reports whether any phrase begins at a word start in words,
// which must be a task key with a leading space. "graph" matches "graphs"
// but not "paragraph".
func hasWordPrefix(words string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(words, " "+tasks.Key(p)) {
			return true
		}
	}
	return false
}

// Analysis is what the engine derived from the input, for display.
type Analysis struct {
	Goal       string     `json:"goal"`
	Blocker    string     `json:"blocker"`
	Resistance Resistance `json:"resistance"`
	Flags      Flags      `json:"flags"`
}

// Analyze cleans the inputs and derives category and flags.
func Analyze(goal, blocker string) Analysis {
	g := clean(goal, PlaceholderGoal)
	b := clean(blocker, PlaceholderBlocker)
	text := combined(goal, blocker)
	return Analysis{
		Goal:       g,
		Blocker:    b,
		Resistance: classifyText(text),
		Flags:      detect(text),
	}
}

// Suggest returns up to MaxSuggestions concrete tasks for goal and blocker.
// The same input always yields the same output.
func Suggest(goal, blocker string) []string {
	a := Analyze(goal, blocker)
	out := []string{
		opening(a),
		setup(a),
		firstCore(a),
		reset(a),
		secondCore(a),
		closing(a),
	}
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// ─── Slots ──────────────────────────────────────────────────────────────────

func opening(a Analysis) string {
	switch {
	case a.Flags.Tidy:
		return "Pick up five things from the floor and put them away, for 3 minutes only."
	case a.Flags.Baking:
		return "Clear and wipe one counter surface, for 3-5 minutes only."
	case a.Resistance == ResistanceAnxiety:
		return "Take five slow breaths, then clear your desk, for 3 minutes only."
	default:
		return "Clear your desk of everything unrelated to " + a.Goal + ", for 3-5 minutes only."
	}
}

func setup(a Analysis) string {
	switch {
	case a.Flags.Academic || a.Flags.Figures:
		return "Open the draft, close every other tab and silence your phone, for 5 minutes only."
	case a.Flags.Baking:
		return "Lay out every ingredient and tool you need, for 5 minutes only."
	case a.Flags.Tidy:
		return "Grab a bag for trash and a box for things that live elsewhere, for 2 minutes only."
	default:
		return "Open only the file, tool or page you need for " + a.Goal + ", for 5 minutes only."
	}
}

func firstCore(a Analysis) string {
	switch {
	case a.Flags.Results:
		return "Write one sentence stating the main result, for 10 minutes only."
	case a.Flags.Discussion:
		return "Write one sentence on what the main finding means, for 10 minutes only."
	case a.Flags.Academic:
		return "Add exactly one sentence to the draft, for 10 minutes only."
	case a.Flags.Figures:
		return "Sketch the layout of one figure on paper, for 10 minutes only."
	case a.Flags.Baking:
		return "Measure out the dry ingredients, for 10 minutes only."
	case a.Flags.Tidy:
		return "Clear one surface completely, for 10 minutes only."
	case a.Flags.Project:
		return "Write down the next smallest step of the project and start it, for 10 minutes only."
	}
	return byResistance(a.Resistance, map[Resistance]string{
		ResistanceAmbiguity:     "List three possible first steps for " + a.Goal + " and pick one, for 10 minutes only.",
		ResistanceOverwhelm:     "Choose the single smallest piece of " + a.Goal + " and work on only that, for 10 minutes only.",
		ResistanceAnxiety:       "Do the easiest part of " + a.Goal + " with a timer running, for 10 minutes only.",
		ResistanceInertia:       "Set a timer and start " + a.Goal + " badly on purpose, for 10 minutes only.",
		ResistancePerfectionism: "Make an ugly first version of " + a.Goal + " that nobody will see, for 10 minutes only.",
	}, "Work on "+a.Goal+" and nothing else, for 10 minutes only.")
}

func reset(a Analysis) string {
	switch {
	case a.Resistance == ResistanceAnxiety || a.Resistance == ResistanceOverwhelm:
		return "Step away from the screen and breathe slowly, for 3 minutes only."
	case a.Flags.Baking:
		return "Wash the bowls you have used so far, for 3 minutes only."
	default:
		return "Stand up, stretch and drink a glass of water, for 2 minutes only."
	}
}

func secondCore(a Analysis) string {
	switch {
	case a.Flags.Results && a.Flags.Figures:
		return "Add one sentence that points the reader to a figure, for 10 minutes only."
	case a.Flags.Results:
		return "Add the numbers behind the main result in one sentence, for 10 minutes only."
	case a.Flags.Discussion:
		return "Add one sentence on a limitation of the work, for 10 minutes only."
	case a.Flags.Figures:
		return "Label the axes and write a one-line caption for that figure, for 10 minutes only."
	case a.Flags.Academic:
		return "Read back what you wrote and fix just one sentence, for 10 minutes only."
	case a.Flags.Baking:
		return "Mix the batter and get it into the oven, for 15 minutes only."
	case a.Flags.Tidy:
		return "Put away everything in the box, for 10 minutes only."
	case a.Flags.Project:
		return "Finish the step you started, or write down exactly where you got stuck, for 10 minutes only."
	}
	return byResistance(a.Resistance, map[Resistance]string{
		ResistanceAmbiguity:     "Write one question that would make " + a.Goal + " clearer and try to answer it, for 10 minutes only.",
		ResistanceOverwhelm:     "Write the rest of " + a.Goal + " as a list and cross off one item, for 10 minutes only.",
		ResistanceAnxiety:       "Write down the worst realistic outcome, then keep going, for 10 minutes only.",
		ResistanceInertia:       "Do one more round on " + a.Goal + " while you still have momentum, for 10 minutes only.",
		ResistancePerfectionism: "Improve just one part of the rough version and stop, for 10 minutes only.",
	}, "Note why \""+a.Blocker+"\" felt hard, then do one more round, for 10 minutes only.")
}

func closing(a Analysis) string {
	switch {
	case a.Flags.Academic || a.Flags.Figures:
		return "Save the draft and write the next sentence you would add, for 2 minutes only."
	case a.Flags.Baking || a.Flags.Tidy:
		return "Take a photo of what you did and log one line about it, for 2 minutes only."
	default:
		return "Save your work and log one line about what you did, for 2 minutes only."
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func byResistance(r Resistance, phrases map[Resistance]string, fallback string) string {
	if p, ok := phrases[r]; ok {
		return p
	}
	return fallback
}

// clean collapses whitespace, strips control characters and clips to
// maxGoalRunes. Blank input becomes placeholder.
func clean(s, placeholder string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r) || r == unicode.ReplacementChar
	})
	out := strings.Join(fields, " ")
	if out == "" {
		return placeholder
	}
	runes := []rune(out)
	if len(runes) > maxGoalRunes {
		out = strings.TrimSpace(string(runes[:maxGoalRunes])) + "…"
	}
	return out
}
