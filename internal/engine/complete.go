package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/githubb-dot/gamified-app/internal/storage"
)

const (
	ReasonCompletion = "quest completion"
	ReasonFailure    = "quest failure"
)

type Outcome struct {
	XPGained      int
	StatAffected  Attribute
	StatDelta     int
	StatValue     int
	LeveledUp     bool
	PointsGranted int
	LevelBefore   int
	LevelAfter    int
	TitleChanged  bool
}

type ResolveResult struct {
	Quest   storage.Quest
	User    storage.User
	Stat    storage.Stat
	Level   storage.UserLevel
	Title   Title
	XPEvent storage.XPEvent
	Outcome Outcome
}

type ResolveInput struct {
	Quest storage.Quest
	User  storage.User
	Stat  storage.Stat
	Level storage.UserLevel
	Now   time.Time
}

// ResolveQuest applies a completion or failure to copies of the given records.
// On error nothing in the result is meaningful and the inputs are untouched.
func ResolveQuest(in ResolveInput, action Resolution) (*ResolveResult, error) {
	q := in.Quest
	if q.Status != StatusPending {
		return nil, QuestStateError{QuestID: q.ID, Status: q.Status}
	}
	if q.IsOptional && q.ExpirationTime != nil && in.Now.After(*q.ExpirationTime) {
		return nil, fmt.Errorf("quest %s expired at %s: %w", q.ID, q.ExpirationTime.Format(time.RFC3339), ErrQuestExpired)
	}
	attr, err := questAttribute(q.PrimaryStat)
	if err != nil {
		return nil, err
	}

	var (
		status string
		xp     int
		reason string
	)
	switch action {
	case ResolveComplete:
		status, xp, reason = StatusCompleted, q.RewardXP, ReasonCompletion
	case ResolveFail:
		status, xp, reason = StatusFailed, -q.RewardXP, ReasonFailure
	default:
		return nil, fmt.Errorf("unknown resolution %q", action)
	}

	now := in.Now
	res := &ResolveResult{User: in.User, Stat: in.Stat, Level: in.Level}

	q.Status = status
	q.CompletedAt = &now
	res.Quest = q

	questID := q.ID
	res.XPEvent = storage.XPEvent{
		UserID:    q.UserID,
		QuestID:   &questID,
		DeltaXP:   xp,
		Reason:    reason,
		Timestamp: now,
	}

	statDelta := StatDeltaForXP(xp)
	value := ApplyStat(&res.Stat, attr, statDelta, now)

	levelBefore := res.Level.Level
	ch := applyXPToLevel(&res.Level, xp, now)

	res.User.LastSeen = now
	td := applyTitle(&res.User, &res.Stat, now)
	res.Title = td.Title

	res.Outcome = Outcome{
		XPGained:      xp,
		StatAffected:  attr,
		StatDelta:     statDelta,
		StatValue:     value,
		LeveledUp:     ch.LeveledUp,
		PointsGranted: ch.PointsGranted,
		LevelBefore:   levelBefore,
		LevelAfter:    ch.Level,
		TitleChanged:  td.Changed,
	}
	return res, nil
}

func (s *Service) CompleteQuest(ctx context.Context, userID, questID string) (*ResolveResult, error) {
	return s.resolve(ctx, "engine.CompleteQuest", userID, questID, ResolveComplete)
}

func (s *Service) FailQuest(ctx context.Context, userID, questID string) (*ResolveResult, error) {
	return s.resolve(ctx, "engine.FailQuest", userID, questID, ResolveFail)
}

func (s *Service) resolve(ctx context.Context, spanName, userID, questID string, action Resolution) (*ResolveResult, error) {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("quest.id", questID))

	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.now()
	var res *ResolveResult
	err := storage.InTx(ctx, s.db, func(r storage.Repos) error {
		p, err := loadProgress(ctx, r, userID)
		if err != nil {
			return err
		}
		q, err := r.Quests.Get(ctx, questID)
		if err != nil {
			return err
		}
		if q == nil || q.UserID != userID {
			return questNotFound(questID)
		}

		out, err := ResolveQuest(ResolveInput{Quest: *q, User: *p.User, Stat: *p.Stat, Level: *p.Level, Now: now}, action)
		if err != nil {
			return err
		}

		ok, err := r.Quests.TransitionStatus(ctx, q.ID, userID, out.Quest.Status, out.Quest.CompletedAt)
		if err != nil {
			return err
		}
		if !ok {
			return QuestStateError{QuestID: q.ID, Status: "unknown"}
		}
		if err := r.XPEvents.Insert(ctx, &out.XPEvent); err != nil {
			return err
		}
		if err := r.Stats.Update(ctx, &out.Stat); err != nil {
			return err
		}
		if err := r.Levels.Update(ctx, &out.Level); err != nil {
			return err
		}
		if err := r.Users.UpdateProgress(ctx, &out.User); err != nil {
			return err
		}
		res = out
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.log.Info("quest resolved",
		"user", userID,
		"quest", questID,
		"status", res.Quest.Status,
		"xp", res.Outcome.XPGained,
		"stat", res.Outcome.StatAffected,
		"level", res.Outcome.LevelAfter,
	)
	s.notify(ctx, resolutionEvents(res))
	return res, nil
}

func resolutionEvents(res *ResolveResult) []Event {
	q := res.Quest
	o := res.Outcome
	now := res.XPEvent.Timestamp

	var events []Event
	if q.Status == StatusCompleted {
		events = append(events, Event{
			UserID:  q.UserID,
			Kind:    EventQuestCompleted,
			Title:   "Quest Completed",
			Message: fmt.Sprintf("You gained %d XP and %+d %s.", o.XPGained, o.StatDelta, o.StatAffected),
			QuestID: q.ID,
		})
	} else {
		events = append(events, Event{
			UserID:  q.UserID,
			Kind:    EventQuestFailed,
			Title:   "Quest Failed",
			Message: fmt.Sprintf("You lost %d XP and %+d %s.", -o.XPGained, o.StatDelta, o.StatAffected),
			QuestID: q.ID,
		})
	}
	if o.LeveledUp {
		events = append(events, Event{
			UserID:  q.UserID,
			Kind:    EventLevelUp,
			Title:   "Level Up!",
			Message: fmt.Sprintf("You reached level %d and earned %d stat points.", o.LevelAfter, o.PointsGranted),
			QuestID: q.ID,
		})
	}
	if o.TitleChanged {
		events = append(events, titleEvent(q.UserID, res.Title))
	}
	for i := range events {
		events[i].CreatedAt = now
	}
	return events
}

func titleEvent(userID string, t Title) Event {
	msg := fmt.Sprintf("Your title has changed to '%s'.", t)
	if t == TitleLevelDown {
		msg = fmt.Sprintf("Your title has changed to '%s' due to negative stats or inactivity.", t)
	}
	return Event{UserID: userID, Kind: EventTitleChanged, Title: "Title Changed", Message: msg}
}
