package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type StatRepo struct {
	db DBTX
}

func NewStatRepo(db DBTX) *StatRepo {
	return &StatRepo{db: db}
}

func (r *StatRepo) Insert(ctx context.Context, s *Stat) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stats (user_id, strength, intelligence, discipline, focus, communication, adaptability, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.UserID, s.Strength, s.Intelligence, s.Discipline, s.Focus, s.Communication, s.Adaptability, toMillis(s.LastUpdated))
	if err != nil {
		return fmt.Errorf("stat insert: %w", err)
	}
	return nil
}

func (r *StatRepo) Get(ctx context.Context, userID string) (*Stat, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, strength, intelligence, discipline, focus, communication, adaptability, last_updated
		FROM stats WHERE user_id = ?
	`, userID)

	var (
		s       Stat
		updated int64
	)
	if err := row.Scan(&s.UserID, &s.Strength, &s.Intelligence, &s.Discipline, &s.Focus, &s.Communication, &s.Adaptability, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat get: %w", err)
	}
	s.LastUpdated = fromMillis(updated)
	return &s, nil
}

func (r *StatRepo) Update(ctx context.Context, s *Stat) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE stats
		SET strength = ?, intelligence = ?, discipline = ?, focus = ?, communication = ?, adaptability = ?, last_updated = ?
		WHERE user_id = ?
	`, s.Strength, s.Intelligence, s.Discipline, s.Focus, s.Communication, s.Adaptability, toMillis(s.LastUpdated), s.UserID)
	if err != nil {
		return fmt.Errorf("stat update: %w", err)
	}
	return nil
}
