package engine

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/githubb-dot/gamified-app/internal/storage"
)

type AllocateResult struct {
	Attribute Attribute
	Value     int
	Stat      storage.Stat
	Level     storage.UserLevel
	Title     Title
}

// AllocatePoints spends available points on one attribute.
func (s *Service) AllocatePoints(ctx context.Context, userID, attr string, points int) (*AllocateResult, error) {
	ctx, span := s.tracer.Start(ctx, "engine.AllocatePoints")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int("points", points))

	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.now()
	var (
		res     *AllocateResult
		changed *TitleDecision
	)
	err := storage.InTx(ctx, s.db, func(r storage.Repos) error {
		p, err := loadProgress(ctx, r, userID)
		if err != nil {
			return err
		}
		value, err := Allocate(p.Stat, p.Level, attr, points, now)
		if err != nil {
			return err
		}
		td := applyTitle(p.User, p.Stat, now)
		if err := r.Stats.Update(ctx, p.Stat); err != nil {
			return err
		}
		if err := r.Levels.Update(ctx, p.Level); err != nil {
			return err
		}
		if err := r.Users.UpdateProgress(ctx, p.User); err != nil {
			return err
		}
		a, _ := ParseAttribute(attr)
		res = &AllocateResult{Attribute: a, Value: value, Stat: *p.Stat, Level: *p.Level, Title: td.Title}
		if td.Changed {
			changed = &td
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.log.Info("points allocated", "user", userID, "attribute", res.Attribute, "points", points, "value", res.Value)
	if changed != nil {
		ev := titleEvent(userID, changed.Title)
		ev.CreatedAt = now
		s.notify(ctx, []Event{ev})
	}
	return res, nil
}
