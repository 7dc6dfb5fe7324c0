package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type NotificationRepo struct {
	db DBTX
}

func NewNotificationRepo(db DBTX) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Insert(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, quest_id, kind, title, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, nullString(n.QuestID), n.Kind, n.Title, n.Message, boolToInt(n.IsRead), toMillis(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("notification insert: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error) {
	query := `
		SELECT id, user_id, quest_id, kind, title, message, is_read, created_at
		FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("notification list: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n       Notification
			questID sql.NullString
			read    int
			created int64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &questID, &n.Kind, &n.Title, &n.Message, &read, &created); err != nil {
			return nil, fmt.Errorf("notification scan: %w", err)
		}
		n.QuestID = stringPtr(questID)
		n.IsRead = read != 0
		n.CreatedAt = fromMillis(created)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notification rows: %w", err)
	}
	return out, nil
}

// MarkAllRead returns the number of notifications flipped to read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("notification mark read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("notification mark read rows: %w", err)
	}
	return int(n), nil
}
