package engine

import (
	"context"

	"github.com/githubb-dot/gamified-app/internal/storage"
)

type Dashboard struct {
	User     storage.User
	Stat     storage.Stat
	Level    storage.UserLevel
	Title    Title
	Daily    []storage.Quest
	Optional []storage.Quest

	XPIntoLevel    int
	XPForNextLevel int
}

// Dashboard is a read-only view. The title is recomputed against now but not persisted,
// and optional quests already past expiry are left out.
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	p, err := loadProgress(ctx, s.repos, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	u := *p.User
	td := applyTitle(&u, p.Stat, now)

	pending, err := s.repos.Quests.ListByUser(ctx, userID, storage.QuestFilter{Status: StatusPending})
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		User:           *p.User,
		Stat:           *p.Stat,
		Level:          *p.Level,
		Title:          td.Title,
		XPIntoLevel:    p.Level.TotalXP - XPRequiredForLevel(p.Level.Level),
		XPForNextLevel: XPRequiredForLevel(p.Level.Level+1) - p.Level.TotalXP,
	}
	if d.XPIntoLevel < 0 {
		d.XPIntoLevel = 0
	}
	for _, q := range pending {
		if !q.IsOptional {
			d.Daily = append(d.Daily, q)
			continue
		}
		if q.ExpirationTime != nil && now.After(*q.ExpirationTime) {
			continue
		}
		d.Optional = append(d.Optional, q)
	}
	return d, nil
}

func (s *Service) ListQuests(ctx context.Context, userID string, f storage.QuestFilter) ([]storage.Quest, error) {
	return s.repos.Quests.ListByUser(ctx, userID, f)
}

func (s *Service) Quest(ctx context.Context, userID, questID string) (*storage.Quest, error) {
	q, err := s.repos.Quests.Get(ctx, questID)
	if err != nil {
		return nil, err
	}
	if q == nil || q.UserID != userID {
		return nil, questNotFound(questID)
	}
	return q, nil
}

type Reconciliation struct {
	TotalXP    int
	EventSum   int
	Consistent bool
}

// Reconcile checks the running XP total against the append-only event log.
func (s *Service) Reconcile(ctx context.Context, userID string) (*Reconciliation, error) {
	lvl, err := s.repos.Levels.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lvl == nil {
		return nil, userNotFound(userID)
	}
	sum, err := s.repos.XPEvents.SumByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rec := &Reconciliation{TotalXP: lvl.TotalXP, EventSum: sum, Consistent: lvl.TotalXP == sum}
	if !rec.Consistent {
		s.log.Warn("xp ledger mismatch", "user", userID, "total_xp", lvl.TotalXP, "event_sum", sum)
	}
	return rec, nil
}

func (s *Service) XPHistory(ctx context.Context, userID string, limit int) ([]storage.XPEvent, error) {
	return s.repos.XPEvents.ListByUser(ctx, userID, limit)
}

func (s *Service) Notifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]storage.Notification, error) {
	return s.repos.Notifications.ListByUser(ctx, userID, unreadOnly, limit)
}

func (s *Service) MarkNotificationsRead(ctx context.Context, userID string) (int, error) {
	return s.repos.Notifications.MarkAllRead(ctx, userID)
}
