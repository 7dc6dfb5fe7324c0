package questgen

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/githubb-dot/gamified-app/internal/engine"
)

const (
	minReward = 10
	maxReward = 1000
)

// ParseSuggestion reads the line format the prompt asks for:
//
//	[QUEST] title
//	Difficulty: ***
//	Reward: 30 XP
//	Stat: focus
//
// Missing fields fall back to defaults; only an empty reply is an error.
func ParseSuggestion(text string, optional bool) (engine.QuestSuggestion, error) {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return engine.QuestSuggestion{}, errors.New("empty reply")
	}

	minDiff, maxDiff, rewardPerStar := 1, 5, 10
	difficulty := 3
	if optional {
		minDiff, rewardPerStar = 3, 15
		difficulty = 4
	}

	reward := 0
	stat := engine.DefaultAttribute
	for _, line := range lines {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "difficulty:"):
			if d, ok := parseStars(line); ok {
				difficulty = d
			}
		case strings.Contains(lower, "reward:") && strings.Contains(lower, "xp"):
			if r, ok := digitsOf(line); ok {
				reward = r
			}
		case strings.Contains(lower, "stat:"):
			stat = matchAttribute(afterColon(lower))
		}
	}

	difficulty = clamp(difficulty, minDiff, maxDiff)
	if reward == 0 {
		reward = difficulty * rewardPerStar
	}
	return engine.QuestSuggestion{
		Text:        lines[0],
		Difficulty:  engine.Difficulty(difficulty),
		RewardXP:    clamp(reward, minReward, maxReward),
		PrimaryStat: stat,
	}, nil
}

// parseStars counts * or ★; otherwise it takes the first digit after the colon.
func parseStars(line string) (int, bool) {
	if n := strings.Count(line, "*") + strings.Count(line, "★"); n > 0 {
		return n, true
	}
	for _, r := range afterColon(line) {
		if unicode.IsDigit(r) {
			return int(r - '0'), true
		}
	}
	return 0, false
}

func digitsOf(line string) (int, bool) {
	var b strings.Builder
	for _, r := range line {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

func matchAttribute(text string) engine.Attribute {
	for _, a := range engine.Attributes {
		if strings.Contains(text, string(a)) {
			return a
		}
	}
	return engine.DefaultAttribute
}

func afterColon(s string) string {
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
