package engine

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyProcessed      = errors.New("quest already processed")
	ErrQuestExpired          = errors.New("quest expired")
	ErrInvalidAttribute      = errors.New("invalid attribute")
	ErrInsufficientPoints    = errors.New("insufficient points")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrGenerationUnavailable = errors.New("quest generation unavailable")
	ErrNotFound              = errors.New("not found")
)

// InvalidAttributeError names the rejected stat.
type InvalidAttributeError struct {
	Name string
}

func (e InvalidAttributeError) Error() string {
	return fmt.Sprintf("invalid attribute %q", e.Name)
}

func (e InvalidAttributeError) Is(target error) bool {
	return target == ErrInvalidAttribute
}

type InsufficientPointsError struct {
	Requested int
	Available int
}

func (e InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: requested %d, available %d", e.Requested, e.Available)
}

func (e InsufficientPointsError) Is(target error) bool {
	return target == ErrInsufficientPoints
}

// QuestStateError is returned when a quest is no longer pending. An expired quest
// matches ErrQuestExpired as well as ErrAlreadyProcessed.
type QuestStateError struct {
	QuestID string
	Status  string
}

func (e QuestStateError) Error() string {
	return fmt.Sprintf("quest %s already processed (status %s)", e.QuestID, e.Status)
}

func (e QuestStateError) Is(target error) bool {
	switch target {
	case ErrAlreadyProcessed:
		return true
	case ErrQuestExpired:
		return e.Status == StatusExpired
	default:
		return false
	}
}
