package engine

import (
	"time"

	"github.com/githubb-dot/gamified-app/internal/storage"
)

const (
	StatMin = -99
	StatMax = 99
)

var statFields = map[Attribute]func(*storage.Stat) *int{
	AttributeStrength:      func(s *storage.Stat) *int { return &s.Strength },
	AttributeIntelligence:  func(s *storage.Stat) *int { return &s.Intelligence },
	AttributeDiscipline:    func(s *storage.Stat) *int { return &s.Discipline },
	AttributeFocus:         func(s *storage.Stat) *int { return &s.Focus },
	AttributeCommunication: func(s *storage.Stat) *int { return &s.Communication },
	AttributeAdaptability:  func(s *storage.Stat) *int { return &s.Adaptability },
}

// StatValue returns the current value of attr. Unknown attributes read as 0.
func StatValue(s *storage.Stat, attr Attribute) int {
	field, ok := statFields[attr]
	if !ok {
		return 0
	}
	return *field(s)
}

// ApplyStat adds delta to attr, saturating at [StatMin, StatMax], and returns the new value.
// attr must already be valid.
func ApplyStat(s *storage.Stat, attr Attribute, delta int, now time.Time) int {
	p := statFields[attr](s)
	*p = clampStat(*p + delta)
	s.LastUpdated = now
	return *p
}

func clampStat(v int) int {
	if v < StatMin {
		return StatMin
	}
	if v > StatMax {
		return StatMax
	}
	return v
}

func hasNegativeStat(s *storage.Stat) bool {
	for _, attr := range Attributes {
		if StatValue(s, attr) < 0 {
			return true
		}
	}
	return false
}
