package engine

import (
	"context"
	"time"
)

// QuestRequest asks the generator for one quest tied to a goal.
type QuestRequest struct {
	Goal     string
	Category string
	Optional bool
}

type QuestSuggestion struct {
	Text        string
	Difficulty  Difficulty
	RewardXP    int
	PrimaryStat Attribute
}

// QuestGenerator produces quest text. Errors are recovered with FallbackSuggestion.
type QuestGenerator interface {
	Suggest(ctx context.Context, req QuestRequest) (QuestSuggestion, error)
}

const (
	FallbackDifficulty     = DifficultyMedium
	FallbackReward         = 25
	FallbackOptionalReward = 30
)

// FallbackSuggestion is the deterministic quest used when generation is unavailable.
func FallbackSuggestion(req QuestRequest) QuestSuggestion {
	if req.Optional {
		return QuestSuggestion{
			Text:        "[SPECIAL QUEST] Push one step further on: " + req.Goal,
			Difficulty:  FallbackDifficulty,
			RewardXP:    FallbackOptionalReward,
			PrimaryStat: DefaultAttribute,
		}
	}
	return QuestSuggestion{
		Text:        "[QUEST] Complete one task related to: " + req.Goal,
		Difficulty:  FallbackDifficulty,
		RewardXP:    FallbackReward,
		PrimaryStat: DefaultAttribute,
	}
}

type EventKind string

const (
	EventQuestCompleted EventKind = "quest_completed"
	EventQuestFailed    EventKind = "quest_failed"
	EventQuestExpired   EventKind = "quest_expired"
	EventLevelUp        EventKind = "level_up"
	EventTitleChanged   EventKind = "title_changed"
	EventQuestAvailable EventKind = "quest_available"
)

// Event is an advisory record of a state transition.
type Event struct {
	UserID    string    `json:"user_id"`
	Kind      EventKind `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	QuestID   string    `json:"quest_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier receives events after the state they describe has committed.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) error { return nil }
