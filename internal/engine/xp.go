package engine

import (
	"time"

	"github.com/githubb-dot/gamified-app/internal/storage"
)

const (
	// XPPerStatPoint converts XP into stat points.
	XPPerStatPoint = 100

	// XPPerLevel is the flat width of every level.
	XPPerLevel = 1000

	// PointsPerLevel is granted for each level gained.
	PointsPerLevel = 3
)

// StatDeltaForXP is floor(xp / 100), rounding toward negative infinity.
func StatDeltaForXP(xp int) int {
	return floorDiv(xp, XPPerStatPoint)
}

// LevelForTotalXP is max(1, 1 + floor(total / 1000)).
func LevelForTotalXP(totalXP int) int {
	level := 1 + floorDiv(totalXP, XPPerLevel)
	if level < 1 {
		return 1
	}
	return level
}

// XPRequiredForLevel returns the total XP at which level starts.
func XPRequiredForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return (level - 1) * XPPerLevel
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

type LevelChange struct {
	Level         int
	TotalXP       int
	PointsGranted int
	LeveledUp     bool
}

// ApplyXP recomputes the level from the new total. Levels may fall; points are only
// ever granted, never reclaimed.
func ApplyXP(level, totalXP, delta int) LevelChange {
	newTotal := totalXP + delta
	newLevel := LevelForTotalXP(newTotal)
	out := LevelChange{Level: newLevel, TotalXP: newTotal}
	if newLevel > level {
		out.LeveledUp = true
		out.PointsGranted = (newLevel - level) * PointsPerLevel
	}
	return out
}

// applyXPToLevel mutates l and returns the change.
func applyXPToLevel(l *storage.UserLevel, delta int, now time.Time) LevelChange {
	ch := ApplyXP(l.Level, l.TotalXP, delta)
	l.Level = ch.Level
	l.TotalXP = ch.TotalXP
	l.AvailablePoints += ch.PointsGranted
	l.LastUpdated = now
	return ch
}

// Allocate spends points from l onto attr. Nothing is mutated on error.
func Allocate(s *storage.Stat, l *storage.UserLevel, attrName string, points int, now time.Time) (int, error) {
	if points <= 0 {
		return 0, ErrInvalidAmount
	}
	attr, err := ParseAttribute(attrName)
	if err != nil {
		return 0, err
	}
	if points > l.AvailablePoints {
		return 0, InsufficientPointsError{Requested: points, Available: l.AvailablePoints}
	}
	value := ApplyStat(s, attr, points, now)
	l.AvailablePoints -= points
	l.LastUpdated = now
	return value, nil
}
