package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/githubb-dot/gamified-app/internal/storage"
)

// EnsureUser returns the user called name, creating it with zeroed stats and level 1
// on first use.
func (s *Service) EnsureUser(ctx context.Context, name string) (*storage.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("user name is required")
	}

	u, err := s.repos.Users.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	now := s.now()
	err = storage.InTx(ctx, s.db, func(r storage.Repos) error {
		existing, err := r.Users.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			u = existing
			return nil
		}
		u = &storage.User{
			Name:             name,
			Title:            string(TitleLevelUp),
			Created:          now,
			LastSeen:         now,
			NonNegativeSince: &now,
		}
		if err := r.Users.Insert(ctx, u); err != nil {
			return err
		}
		if err := r.Stats.Insert(ctx, &storage.Stat{UserID: u.ID, LastUpdated: now}); err != nil {
			return err
		}
		return r.Levels.Insert(ctx, &storage.UserLevel{UserID: u.ID, Level: 1, LastUpdated: now})
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("user ready", "user", u.ID, "name", name)
	return u, nil
}
