package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type GoalRepo struct {
	db DBTX
}

func NewGoalRepo(db DBTX) *GoalRepo {
	return &GoalRepo{db: db}
}

func (r *GoalRepo) Insert(ctx context.Context, g *Goal) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, description, category, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, g.ID, g.UserID, g.Description, g.Category, boolToInt(g.IsActive), toMillis(g.CreatedAt))
	if err != nil {
		return fmt.Errorf("goal insert: %w", err)
	}
	return nil
}

func (r *GoalRepo) Get(ctx context.Context, id string) (*Goal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, description, category, is_active, created_at
		FROM goals WHERE id = ?
	`, id)
	return scanGoal(row)
}

// ListByUser lists goals oldest first; activeOnly drops inactive goals.
func (r *GoalRepo) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]Goal, error) {
	query := `
		SELECT id, user_id, description, category, is_active, created_at
		FROM goals WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("goal list: %w", err)
	}
	defer rows.Close()

	var out []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("goal rows: %w", err)
	}
	return out, nil
}

func (r *GoalRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE goals SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("goal set active: %w", err)
	}
	return nil
}

func scanGoal(row scanner) (*Goal, error) {
	var (
		g       Goal
		active  int
		created int64
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Description, &g.Category, &active, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("goal scan: %w", err)
	}
	g.IsActive = active != 0
	g.CreatedAt = fromMillis(created)
	return &g, nil
}
