package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/githubb-dot/gamified-app/internal/storage"
)

// maxConcurrentSuggestions bounds parallel generator calls during daily generation.
const maxConcurrentSuggestions = 4

type LoginResult struct {
	User         storage.User
	Title        Title
	TitleChanged bool
	Expired      []storage.Quest
	Daily        []storage.Quest
	Optional     *storage.Quest
}

// Login expires overdue optional quests, records the login, evaluates the title, runs
// daily generation and may spawn an optional quest.
//
// The login itself is activity, so the title is evaluated after LastSeen moves to now.
// An absence longer than InactivityLimit is therefore visible on the dashboard until the
// user logs in again, and the stored title always matches what Dashboard reports.
func (s *Service) Login(ctx context.Context, userID string) (*LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "engine.Login")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	res, err := s.login(ctx, userID, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (s *Service) login(ctx context.Context, userID string, now time.Time) (*LoginResult, error) {
	// Generator calls run before the user lock is taken; the insert steps re-check storage.
	daily, err := s.planDaily(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	optional, err := s.planOptional(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	res := &LoginResult{}
	var events []Event
	err = storage.InTx(ctx, s.db, func(r storage.Repos) error {
		p, err := loadProgress(ctx, r, userID)
		if err != nil {
			return err
		}
		expired, err := expireOverdue(ctx, r, userID, now)
		if err != nil {
			return err
		}
		p.User.LastSeen = now
		td := applyTitle(p.User, p.Stat, now)
		if err := r.Users.UpdateProgress(ctx, p.User); err != nil {
			return err
		}
		res.User = *p.User
		res.Title = td.Title
		res.TitleChanged = td.Changed
		res.Expired = expired
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, q := range res.Expired {
		events = append(events, Event{
			UserID:    userID,
			Kind:      EventQuestExpired,
			Title:     "Optional Quest Expired",
			Message:   fmt.Sprintf("The optional quest %q expired before it was resolved.", q.Text),
			QuestID:   q.ID,
			CreatedAt: now,
		})
	}
	if res.TitleChanged {
		ev := titleEvent(userID, res.Title)
		ev.CreatedAt = now
		events = append(events, ev)
	}

	created, dailyEvents, err := s.insertDaily(ctx, userID, daily, now)
	if err != nil {
		return nil, err
	}
	res.Daily = created
	events = append(events, dailyEvents...)

	if optional != nil {
		q, ev, err := s.insertOptional(ctx, optional, now)
		if err != nil {
			return nil, err
		}
		res.Optional = q
		events = append(events, *ev)
	}

	s.log.Info("login processed",
		"user", userID,
		"title", res.Title,
		"expired", len(res.Expired),
		"daily", len(res.Daily),
		"optional", res.Optional != nil,
	)
	s.notify(ctx, events)
	return res, nil
}

// expireOverdue moves pending optional quests past their expiration to expired.
func expireOverdue(ctx context.Context, r storage.Repos, userID string, now time.Time) ([]storage.Quest, error) {
	overdue, err := r.Quests.ListOverdueOptional(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	var out []storage.Quest
	for _, q := range overdue {
		ok, err := r.Quests.TransitionStatus(ctx, q.ID, userID, StatusExpired, nil)
		if err != nil {
			return nil, err
		}
		if ok {
			q.Status = StatusExpired
			out = append(out, q)
		}
	}
	return out, nil
}

// EnsureDailyQuests creates one quest per active goal when the user has no pending
// daily quest due today. It returns the quests it created.
func (s *Service) EnsureDailyQuests(ctx context.Context, userID string) ([]storage.Quest, error) {
	ctx, span := s.tracer.Start(ctx, "engine.EnsureDailyQuests")
	defer span.End()

	now := s.now()
	created, events, err := s.ensureDaily(ctx, userID, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.notify(ctx, events)
	return created, nil
}

func (s *Service) ensureDaily(ctx context.Context, userID string, now time.Time) ([]storage.Quest, []Event, error) {
	plan, err := s.planDaily(ctx, userID, now)
	if err != nil {
		return nil, nil, err
	}
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.insertDaily(ctx, userID, plan, now)
}

// dailyPlan holds one suggestion per active goal, fetched without the user lock.
type dailyPlan struct {
	goals       []storage.Goal
	suggestions []QuestSuggestion
}

// planDaily returns nil when a pending daily quest is already due today or no goal is active.
func (s *Service) planDaily(ctx context.Context, userID string, now time.Time) (*dailyPlan, error) {
	start := startOfDay(now)
	n, err := s.repos.Quests.CountPendingDailyDue(ctx, userID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}
	goals, err := s.repos.Goals.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, nil
	}

	plan := &dailyPlan{goals: goals, suggestions: make([]QuestSuggestion, len(goals))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSuggestions)
	for i, goal := range goals {
		g.Go(func() error {
			plan.suggestions[i] = s.suggest(gctx, QuestRequest{Goal: goal.Description, Category: goal.Category})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plan, nil
}

// insertDaily expects the user lock to be held. It re-counts inside the transaction and
// skips goals deactivated since the plan was made.
func (s *Service) insertDaily(ctx context.Context, userID string, plan *dailyPlan, now time.Time) ([]storage.Quest, []Event, error) {
	if plan == nil {
		return nil, nil, nil
	}
	start := startOfDay(now)
	end := start.AddDate(0, 0, 1)

	var created []storage.Quest
	var goals []storage.Goal
	err := storage.InTx(ctx, s.db, func(r storage.Repos) error {
		n, err := r.Quests.CountPendingDailyDue(ctx, userID, start, end)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		active, err := r.Goals.ListByUser(ctx, userID, true)
		if err != nil {
			return err
		}
		still := make(map[string]bool, len(active))
		for _, g := range active {
			still[g.ID] = true
		}
		for i, goal := range plan.goals {
			if !still[goal.ID] {
				continue
			}
			q := questFromSuggestion(userID, goal.ID, plan.suggestions[i], now)
			q.DueDate = endOfDay(now)
			if err := r.Quests.Insert(ctx, &q); err != nil {
				return err
			}
			created = append(created, q)
			goals = append(goals, goal)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	events := make([]Event, 0, len(created))
	for i, q := range created {
		events = append(events, Event{
			UserID:    userID,
			Kind:      EventQuestAvailable,
			Title:     "New Daily Quest",
			Message:   fmt.Sprintf("A new daily quest has been generated for your goal: %s", goals[i].Description),
			QuestID:   q.ID,
			CreatedAt: now,
		})
	}
	return created, events, nil
}

type optionalPlan struct {
	userID     string
	goal       storage.Goal
	hours      int
	suggestion QuestSuggestion
}

// planOptional rolls for an optional quest and fetches its suggestion. It returns nil
// when the roll misses or no goal is active.
func (s *Service) planOptional(ctx context.Context, userID string, now time.Time) (*optionalPlan, error) {
	if s.roll() >= OptionalQuestChance {
		return nil, nil
	}
	goals, err := s.repos.Goals.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, nil
	}
	goal := goals[s.intn(len(goals))]
	hours := 1 + s.intn(4)
	sug := s.suggest(ctx, QuestRequest{Goal: goal.Description, Category: goal.Category, Optional: true})
	return &optionalPlan{userID: userID, goal: goal, hours: hours, suggestion: sug}, nil
}

// insertOptional expects the user lock to be held.
func (s *Service) insertOptional(ctx context.Context, plan *optionalPlan, now time.Time) (*storage.Quest, *Event, error) {
	q := questFromSuggestion(plan.userID, plan.goal.ID, plan.suggestion, now)
	exp := now.Add(time.Duration(plan.hours) * time.Hour)
	q.IsOptional = true
	q.ExpirationTime = &exp
	q.DueDate = exp
	if err := s.repos.Quests.Insert(ctx, &q); err != nil {
		return nil, nil, err
	}

	ev := &Event{
		UserID:    plan.userID,
		Kind:      EventQuestAvailable,
		Title:     "Optional Quest Available!",
		Message:   fmt.Sprintf("A time-limited optional quest has appeared! Complete it within %d hours for bonus rewards.", plan.hours),
		QuestID:   q.ID,
		CreatedAt: now,
	}
	return &q, ev, nil
}

func questFromSuggestion(userID, goalID string, sug QuestSuggestion, now time.Time) storage.Quest {
	stat := string(sug.PrimaryStat)
	return storage.Quest{
		UserID:      userID,
		GoalID:      &goalID,
		Text:        sug.Text,
		Difficulty:  int(sug.Difficulty),
		RewardXP:    sug.RewardXP,
		Status:      StatusPending,
		PrimaryStat: &stat,
		CreatedAt:   now,
	}
}
