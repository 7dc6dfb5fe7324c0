package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repos need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repos bundles every repo bound to the same connection or transaction.
type Repos struct {
	Users         *UserRepo
	Stats         *StatRepo
	Levels        *LevelRepo
	Goals         *GoalRepo
	Quests        *QuestRepo
	XPEvents      *XPEventRepo
	Notifications *NotificationRepo
}

func NewRepos(db DBTX) Repos {
	return Repos{
		Users:         NewUserRepo(db),
		Stats:         NewStatRepo(db),
		Levels:        NewLevelRepo(db),
		Goals:         NewGoalRepo(db),
		Quests:        NewQuestRepo(db),
		XPEvents:      NewXPEventRepo(db),
		Notifications: NewNotificationRepo(db),
	}
}

// WithTx runs fn inside a SQL transaction. Everything fn writes commits together or not at all.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// InTx is WithTx with the repos already bound to the transaction.
func InTx(ctx context.Context, db *sql.DB, fn func(r Repos) error) error {
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		return fn(NewRepos(tx))
	})
}
