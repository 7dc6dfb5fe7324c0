package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/githubb-dot/gamified-app/internal/storage"
)

const (
	CategoryPhysical      = "physical"
	CategoryLearning      = "learning"
	CategoryRoutine       = "routine"
	CategoryConcentration = "concentration"
	CategorySocial        = "social"
	CategoryChallenge     = "challenge"
)

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{CategoryPhysical, []string{"exercise", "workout", "gym", "fitness", "strength", "run", "physical"}},
	{CategoryLearning, []string{"learn", "study", "read", "book", "course", "education", "knowledge", "intelligence"}},
	{CategoryRoutine, []string{"habit", "routine", "daily", "consistent", "discipline", "regular"}},
	{CategoryConcentration, []string{"focus", "concentrate", "attention", "mindful", "meditation"}},
	{CategorySocial, []string{"social", "communicate", "talk", "friend", "network", "relationship"}},
	{CategoryChallenge, []string{"challenge", "adapt", "change", "new", "try", "experiment"}},
}

var categoryAttributes = map[string]Attribute{
	CategoryPhysical:      AttributeStrength,
	CategoryLearning:      AttributeIntelligence,
	CategoryRoutine:       AttributeDiscipline,
	CategoryConcentration: AttributeFocus,
	CategorySocial:        AttributeCommunication,
	CategoryChallenge:     AttributeAdaptability,
}

// ClassifyGoal picks the first category whose keywords appear in description.
func ClassifyGoal(description string) string {
	text := strings.ToLower(description)
	for _, c := range categoryKeywords {
		for _, w := range c.words {
			if strings.Contains(text, w) {
				return c.category
			}
		}
	}
	return CategoryRoutine
}

// CategoryAttribute maps a goal category to the stat it trains.
func CategoryAttribute(category string) Attribute {
	if a, ok := categoryAttributes[category]; ok {
		return a
	}
	return DefaultAttribute
}

// AddGoalResult is the stored goal and the first quest generated for it.
type AddGoalResult struct {
	Goal  storage.Goal
	Quest storage.Quest
}

// AddGoal stores an active goal and immediately generates its first quest, due at the end
// of today. An empty category is derived from the description with ClassifyGoal.
func (s *Service) AddGoal(ctx context.Context, userID, description, category string) (*AddGoalResult, error) {
	ctx, span := s.tracer.Start(ctx, "engine.AddGoal")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, errors.New("goal description is required")
	}
	category, err := resolveCategory(description, category)
	if err != nil {
		return nil, err
	}
	u, err := s.repos.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, userNotFound(userID)
	}

	// The generator may be slow, so it runs before the user lock is taken.
	sug := s.suggest(ctx, QuestRequest{Goal: description, Category: category})

	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.now()
	res := &AddGoalResult{}
	err = storage.InTx(ctx, s.db, func(r storage.Repos) error {
		g := storage.Goal{
			UserID:      userID,
			Description: description,
			Category:    category,
			IsActive:    true,
			CreatedAt:   now,
		}
		if err := r.Goals.Insert(ctx, &g); err != nil {
			return err
		}
		q := questFromSuggestion(userID, g.ID, sug, now)
		q.DueDate = endOfDay(now)
		if err := r.Quests.Insert(ctx, &q); err != nil {
			return err
		}
		res.Goal, res.Quest = g, q
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.log.Info("goal added", "user", userID, "goal", res.Goal.ID, "category", category, "quest", res.Quest.ID)
	s.notify(ctx, []Event{{
		UserID:    userID,
		Kind:      EventQuestAvailable,
		Title:     "New Quest Available!",
		Message:   fmt.Sprintf("A new quest has been generated for your goal: %s", description),
		QuestID:   res.Quest.ID,
		CreatedAt: now,
	}})
	return res, nil
}

// resolveCategory validates an explicit category or classifies the description.
func resolveCategory(description, category string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return ClassifyGoal(description), nil
	}
	if _, ok := categoryAttributes[c]; !ok {
		return "", fmt.Errorf("unknown goal category %q", category)
	}
	return c, nil
}

func (s *Service) ListGoals(ctx context.Context, userID string, activeOnly bool) ([]storage.Goal, error) {
	return s.repos.Goals.ListByUser(ctx, userID, activeOnly)
}

func (s *Service) DeactivateGoal(ctx context.Context, userID, goalID string) error {
	g, err := s.repos.Goals.Get(ctx, goalID)
	if err != nil {
		return err
	}
	if g == nil || g.UserID != userID {
		return fmt.Errorf("goal %s: %w", goalID, ErrNotFound)
	}
	return s.repos.Goals.SetActive(ctx, goalID, false)
}
