package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type LevelRepo struct {
	db DBTX
}

func NewLevelRepo(db DBTX) *LevelRepo {
	return &LevelRepo{db: db}
}

func (r *LevelRepo) Insert(ctx context.Context, l *UserLevel) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_levels (user_id, level, total_xp, available_points, last_updated)
		VALUES (?, ?, ?, ?, ?)
	`, l.UserID, l.Level, l.TotalXP, l.AvailablePoints, toMillis(l.LastUpdated))
	if err != nil {
		return fmt.Errorf("level insert: %w", err)
	}
	return nil
}

func (r *LevelRepo) Get(ctx context.Context, userID string) (*UserLevel, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, level, total_xp, available_points, last_updated
		FROM user_levels WHERE user_id = ?
	`, userID)

	var (
		l       UserLevel
		updated int64
	)
	if err := row.Scan(&l.UserID, &l.Level, &l.TotalXP, &l.AvailablePoints, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("level get: %w", err)
	}
	l.LastUpdated = fromMillis(updated)
	return &l, nil
}

func (r *LevelRepo) Update(ctx context.Context, l *UserLevel) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_levels
		SET level = ?, total_xp = ?, available_points = ?, last_updated = ?
		WHERE user_id = ?
	`, l.Level, l.TotalXP, l.AvailablePoints, toMillis(l.LastUpdated), l.UserID)
	if err != nil {
		return fmt.Errorf("level update: %w", err)
	}
	return nil
}
