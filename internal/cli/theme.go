package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// stakeday terminal theme. Small on purpose: a few styles and icons.

const (
	IconTarget = "🎯"
	IconDone   = "✅"
	IconOpen   = "⬜"
	IconFire   = "🔥"
	IconMoney  = "💰"
	IconClock  = "⏰"
	IconTrophy = "🏆"
	IconScroll = "📜"
	IconWarn   = "⚠️"
	IconIdea   = "💡"
	IconLock   = "🔒"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

// Heading renders an icon and a title.
func Heading(icon, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

// LabelValue renders "label: value".
func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// Money formats an amount with two decimals.
func Money(f float64) string {
	return fmt.Sprintf("$%.2f", f)
}

// ProgressBar renders pct (0..100) as a bar of width cells.
func ProgressBar(pct, width int) string {
	pct = min(max(pct, 0), 100)
	filled := pct * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	style := Warn
	if pct == 100 {
		style = Good
	}
	return fmt.Sprintf("%s %d%%", style.Render(bar), pct)
}

// OrPlaceholder renders s, or a muted placeholder when s is blank.
func OrPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return Muted.Render(placeholder)
	}
	return s
}
