package storage

import "time"

type User struct {
	ID       string
	Name     string
	Title    string
	Created  time.Time
	LastSeen time.Time
	// NonNegativeSince marks when every stat last became >= 0; nil while any stat is negative.
	NonNegativeSince *time.Time
}

// Stat holds the six attribute values of one user.
type Stat struct {
	UserID        string
	Strength      int
	Intelligence  int
	Discipline    int
	Focus         int
	Communication int
	Adaptability  int
	LastUpdated   time.Time
}

type UserLevel struct {
	UserID          string
	Level           int
	TotalXP         int
	AvailablePoints int
	LastUpdated     time.Time
}

type Goal struct {
	ID          string
	UserID      string
	Description string
	Category    string
	IsActive    bool
	CreatedAt   time.Time
}

type Quest struct {
	ID             string
	UserID         string
	GoalID         *string
	Text           string
	Difficulty     int
	RewardXP       int
	Status         string
	IsOptional     bool
	PrimaryStat    *string
	DueDate        time.Time
	ExpirationTime *time.Time
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// XPEvent is an append-only audit row.
type XPEvent struct {
	ID        string
	UserID    string
	QuestID   *string
	DeltaXP   int
	Reason    string
	Timestamp time.Time
}

type Notification struct {
	ID        string
	UserID    string
	QuestID   *string
	Kind      string
	Title     string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
