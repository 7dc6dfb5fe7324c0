package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Shared CLI and TUI styles.

const (
	IconQuest   = "🗡️"
	IconSpecial = "🌀"
	IconDone    = "✅"
	IconFail    = "💀"
	IconLevelUp = "⬆️"
	IconTitle   = "👑"
	IconInfo    = "ℹ️"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconInbox   = "📬"
	IconScroll  = "📜"
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

	Panel       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)

	BadgeLevelUp = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("LEVEL UP")
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

func StatusText(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed":
		return Good.Render("completed")
	case "failed":
		return Bad.Render("failed")
	case "expired":
		return Muted.Render("expired")
	case "pending":
		return Warn.Render("pending")
	default:
		return Muted.Render(status)
	}
}

// PlayerTitle colours the narrative title: gold while levelling up, red otherwise.
func PlayerTitle(title string) string {
	if strings.HasSuffix(title, "Level Up") {
		return Gold.Render(title)
	}
	return Bad.Render(title)
}

func QuestIcon(optional bool) string {
	if optional {
		return IconSpecial
	}
	return IconQuest
}

func Stars(difficulty int) string {
	if difficulty < 0 {
		difficulty = 0
	}
	return strings.Repeat("★", difficulty)
}

// SignedXP renders a delta with an explicit sign.
func SignedXP(delta int) string {
	if delta < 0 {
		return Bad.Render(fmt.Sprintf("%d XP", delta))
	}
	return Good.Render(fmt.Sprintf("+%d XP", delta))
}

// Bar draws value/total as a fixed-width ASCII gauge.
func Bar(value, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 3 {
		width = 3
	}
	if value < 0 {
		value = 0
	}
	if value > total {
		value = total
	}
	filled := value * width / total
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// StatBar draws a stat in [lo, hi] as a gauge centred on zero: negative values fill
// the left half, positive values the right.
func StatBar(value, lo, hi, width int) string {
	if width < 4 {
		width = 4
	}
	half := width / 2
	var left, right string
	if value < 0 {
		n := clampFill(-value, -lo, half)
		left = strings.Repeat("-", half-n) + Bad.Render(strings.Repeat("#", n))
		right = strings.Repeat("-", width-half)
	} else {
		n := clampFill(value, hi, width-half)
		left = strings.Repeat("-", half)
		right = Good.Render(strings.Repeat("#", n)) + strings.Repeat("-", width-half-n)
	}
	return "[" + left + "|" + right + "]"
}

func clampFill(v, limit, width int) int {
	if limit <= 0 {
		return 0
	}
	if v > limit {
		v = limit
	}
	return v * width / limit
}
