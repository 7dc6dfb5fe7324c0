package storage

import (
	"context"
	"database/sql"
	"fmt"
)

func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			last_active INTEGER NOT NULL,
			nonnegative_since INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS stats (
			user_id TEXT PRIMARY KEY,
			strength INTEGER NOT NULL DEFAULT 0 CHECK (strength BETWEEN -99 AND 99),
			intelligence INTEGER NOT NULL DEFAULT 0 CHECK (intelligence BETWEEN -99 AND 99),
			discipline INTEGER NOT NULL DEFAULT 0 CHECK (discipline BETWEEN -99 AND 99),
			focus INTEGER NOT NULL DEFAULT 0 CHECK (focus BETWEEN -99 AND 99),
			communication INTEGER NOT NULL DEFAULT 0 CHECK (communication BETWEEN -99 AND 99),
			adaptability INTEGER NOT NULL DEFAULT 0 CHECK (adaptability BETWEEN -99 AND 99),
			last_updated INTEGER NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS user_levels (
			user_id TEXT PRIMARY KEY,
			level INTEGER NOT NULL DEFAULT 1 CHECK (level >= 1),
			total_xp INTEGER NOT NULL DEFAULT 0,
			available_points INTEGER NOT NULL DEFAULT 0 CHECK (available_points >= 0),
			last_updated INTEGER NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS goals (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS quests (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			goal_id TEXT,
			text TEXT NOT NULL,
			difficulty INTEGER NOT NULL CHECK (difficulty BETWEEN 1 AND 5),
			reward_xp INTEGER NOT NULL CHECK (reward_xp > 0),
			status TEXT NOT NULL DEFAULT 'pending',
			is_optional INTEGER NOT NULL DEFAULT 0,
			primary_stat TEXT,
			due_date INTEGER NOT NULL,
			expiration_time INTEGER,
			created_at INTEGER NOT NULL,
			completed_at INTEGER,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY(goal_id) REFERENCES goals(id) ON DELETE SET NULL
		);`,
		// Append-only; nothing updates or deletes rows here.
		`CREATE TABLE IF NOT EXISTS xp_events (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			quest_id TEXT,
			delta_xp INTEGER NOT NULL,
			reason TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY(quest_id) REFERENCES quests(id) ON DELETE SET NULL
		);`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			quest_id TEXT,
			kind TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			is_read INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_goals_user_active ON goals(user_id, is_active);`,
		`CREATE INDEX IF NOT EXISTS idx_quests_user_status ON quests(user_id, status, is_optional);`,
		`CREATE INDEX IF NOT EXISTS idx_quests_user_due ON quests(user_id, due_date);`,
		`CREATE INDEX IF NOT EXISTS idx_xp_events_user ON xp_events(user_id, timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
