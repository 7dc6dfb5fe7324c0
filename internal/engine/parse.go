package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDifficulty accepts a digit ("3"), a star rating ("***") or a name ("medium").
func ParseDifficulty(input string) (Difficulty, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	var d Difficulty
	switch s {
	case "trivial":
		d = DifficultyTrivial
	case "easy":
		d = DifficultyEasy
	case "medium":
		d = DifficultyMedium
	case "hard":
		d = DifficultyHard
	case "epic":
		d = DifficultyEpic
	default:
		if s != "" && strings.Trim(s, "*") == "" {
			d = Difficulty(len(s))
			break
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid difficulty: %q", input)
		}
		d = Difficulty(n)
	}
	if !d.IsValid() {
		return 0, fmt.Errorf("invalid difficulty: %q", input)
	}
	return d, nil
}
