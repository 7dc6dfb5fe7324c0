package engine

import (
	"strings"
)

// Attribute is one of the six tracked stats.
type Attribute string

const (
	AttributeStrength      Attribute = "strength"
	AttributeIntelligence  Attribute = "intelligence"
	AttributeDiscipline    Attribute = "discipline"
	AttributeFocus         Attribute = "focus"
	AttributeCommunication Attribute = "communication"
	AttributeAdaptability  Attribute = "adaptability"
)

// Attributes lists every attribute in display order.
var Attributes = []Attribute{
	AttributeStrength,
	AttributeIntelligence,
	AttributeDiscipline,
	AttributeFocus,
	AttributeCommunication,
	AttributeAdaptability,
}

// DefaultAttribute is used when a quest has no primary stat.
const DefaultAttribute Attribute = AttributeDiscipline

func (a Attribute) IsValid() bool {
	_, ok := statFields[a]
	return ok
}

// ParseAttribute accepts any casing and surrounding space.
func ParseAttribute(s string) (Attribute, error) {
	a := Attribute(strings.ToLower(strings.TrimSpace(s)))
	if !a.IsValid() {
		return "", InvalidAttributeError{Name: s}
	}
	return a, nil
}

// questAttribute resolves a stored primary stat; nil or blank means DefaultAttribute.
func questAttribute(primary *string) (Attribute, error) {
	if primary == nil || strings.TrimSpace(*primary) == "" {
		return DefaultAttribute, nil
	}
	return ParseAttribute(*primary)
}

type Difficulty int

const (
	DifficultyTrivial Difficulty = 1
	DifficultyEasy    Difficulty = 2
	DifficultyMedium  Difficulty = 3
	DifficultyHard    Difficulty = 4
	DifficultyEpic    Difficulty = 5
)

func (d Difficulty) IsValid() bool {
	return d >= DifficultyTrivial && d <= DifficultyEpic
}

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusExpired   = "expired"
)

// Title is the two-state narrative label derived from stats and activity.
type Title string

const (
	TitleLevelUp   Title = "Alone, I Level Up"
	TitleLevelDown Title = "Alone, I Level Down"
)

// Resolution is the caller's intent when resolving a pending quest.
type Resolution string

const (
	ResolveComplete Resolution = "complete"
	ResolveFail     Resolution = "fail"
)
