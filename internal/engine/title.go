package engine

import (
	"time"

	"github.com/githubb-dot/gamified-app/internal/storage"
)

const (
	// InactivityLimit drops the title when no activity happened for longer than this.
	InactivityLimit = 72 * time.Hour

	// RecoveryStreak is how long every stat must stay >= 0 before LevelDown lifts.
	RecoveryStreak = 7 * 24 * time.Hour
)

type TitleInput struct {
	Current          Title
	Stat             *storage.Stat
	LastActivity     time.Time
	NonNegativeSince *time.Time
	Now              time.Time
}

type TitleDecision struct {
	Title   Title
	Changed bool
	// NonNegativeSince is the streak marker to persist.
	NonNegativeSince *time.Time
	Reason           string
}

// EvaluateTitle derives the title. It is a pure function of its input.
func EvaluateTitle(in TitleInput) TitleDecision {
	current := in.Current
	if current != TitleLevelDown {
		current = TitleLevelUp
	}

	negative := hasNegativeStat(in.Stat)
	var since *time.Time
	switch {
	case negative:
		since = nil
	case in.NonNegativeSince != nil:
		since = in.NonNegativeSince
	default:
		now := in.Now
		since = &now
	}

	d := TitleDecision{NonNegativeSince: since}
	switch {
	case negative:
		d.Title, d.Reason = TitleLevelDown, "negative stat"
	case in.Now.Sub(in.LastActivity) > InactivityLimit:
		d.Title, d.Reason = TitleLevelDown, "inactive"
	case current == TitleLevelDown:
		if in.Now.Sub(*since) >= RecoveryStreak {
			d.Title, d.Reason = TitleLevelUp, "recovered"
		} else {
			d.Title, d.Reason = TitleLevelDown, "recovery pending"
		}
	default:
		d.Title, d.Reason = TitleLevelUp, "in good standing"
	}
	d.Changed = d.Title != Title(in.Current)
	return d
}

// applyTitle evaluates and writes the decision onto u.
func applyTitle(u *storage.User, s *storage.Stat, now time.Time) TitleDecision {
	last := u.LastSeen
	if last.IsZero() {
		last = u.Created
	}
	d := EvaluateTitle(TitleInput{
		Current:          Title(u.Title),
		Stat:             s,
		LastActivity:     last,
		NonNegativeSince: u.NonNegativeSince,
		Now:              now,
	})
	u.Title = string(d.Title)
	u.NonNegativeSince = d.NonNegativeSince
	return d
}
