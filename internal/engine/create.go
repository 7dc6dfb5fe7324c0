package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/githubb-dot/gamified-app/internal/storage"
)

type CreateQuestInput struct {
	UserID      string
	GoalID      *string
	Text        string
	Difficulty  Difficulty
	RewardXP    int
	PrimaryStat string
	// DueDate defaults to the end of the current day.
	DueDate *time.Time
}

// RewardError reports a non-positive reward.
type RewardError struct {
	RewardXP int
}

func (e RewardError) Error() string {
	return fmt.Sprintf("reward_xp must be positive, got %d", e.RewardXP)
}

func (s *Service) CreateQuest(ctx context.Context, in CreateQuestInput) (*storage.Quest, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, errors.New("quest text is required")
	}
	if !in.Difficulty.IsValid() {
		return nil, fmt.Errorf("invalid difficulty: %d", in.Difficulty)
	}
	if in.RewardXP <= 0 {
		return nil, RewardError{RewardXP: in.RewardXP}
	}
	attr := DefaultAttribute
	if strings.TrimSpace(in.PrimaryStat) != "" {
		a, err := ParseAttribute(in.PrimaryStat)
		if err != nil {
			return nil, err
		}
		attr = a
	}

	u, err := s.repos.Users.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, userNotFound(in.UserID)
	}
	if in.GoalID != nil {
		g, err := s.repos.Goals.Get(ctx, *in.GoalID)
		if err != nil {
			return nil, err
		}
		if g == nil || g.UserID != in.UserID {
			return nil, fmt.Errorf("goal %s: %w", *in.GoalID, ErrNotFound)
		}
	}

	now := s.now()
	due := endOfDay(now)
	if in.DueDate != nil {
		due = in.DueDate.UTC()
	}
	stat := string(attr)
	q := &storage.Quest{
		UserID:      in.UserID,
		GoalID:      in.GoalID,
		Text:        text,
		Difficulty:  int(in.Difficulty),
		RewardXP:    in.RewardXP,
		Status:      StatusPending,
		PrimaryStat: &stat,
		DueDate:     due,
		CreatedAt:   now,
	}
	if err := s.repos.Quests.Insert(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// endOfDay is the last second of t's UTC calendar day.
func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Second)
}
