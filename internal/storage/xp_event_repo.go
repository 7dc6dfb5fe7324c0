package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// XPEventRepo only ever appends.
type XPEventRepo struct {
	db DBTX
}

func NewXPEventRepo(db DBTX) *XPEventRepo {
	return &XPEventRepo{db: db}
}

func (r *XPEventRepo) Insert(ctx context.Context, e *XPEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO xp_events (id, user_id, quest_id, delta_xp, reason, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.UserID, nullString(e.QuestID), e.DeltaXP, e.Reason, toMillis(e.Timestamp))
	if err != nil {
		return fmt.Errorf("xp event insert: %w", err)
	}
	return nil
}

func (r *XPEventRepo) SumByUser(ctx context.Context, userID string) (int, error) {
	var sum sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT SUM(delta_xp) FROM xp_events WHERE user_id = ?`, userID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("xp event sum: %w", err)
	}
	return int(sum.Int64), nil
}

// ListByUser returns the newest events first. limit <= 0 means no limit.
func (r *XPEventRepo) ListByUser(ctx context.Context, userID string, limit int) ([]XPEvent, error) {
	query := `
		SELECT id, user_id, quest_id, delta_xp, reason, timestamp
		FROM xp_events WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("xp event list: %w", err)
	}
	defer rows.Close()

	var out []XPEvent
	for rows.Next() {
		var (
			e       XPEvent
			questID sql.NullString
			ts      int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &questID, &e.DeltaXP, &e.Reason, &ts); err != nil {
			return nil, fmt.Errorf("xp event scan: %w", err)
		}
		e.QuestID = stringPtr(questID)
		e.Timestamp = fromMillis(ts)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("xp event rows: %w", err)
	}
	return out, nil
}
