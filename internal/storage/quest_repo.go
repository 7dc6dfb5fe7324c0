package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type QuestRepo struct {
	db DBTX
}

func NewQuestRepo(db DBTX) *QuestRepo {
	return &QuestRepo{db: db}
}

const questColumns = `id, user_id, goal_id, text, difficulty, reward_xp, status, is_optional,
	primary_stat, due_date, expiration_time, created_at, completed_at`

func (r *QuestRepo) Insert(ctx context.Context, q *Quest) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Status == "" {
		q.Status = "pending"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quests (`+questColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		q.ID, q.UserID, nullString(q.GoalID), q.Text, q.Difficulty, q.RewardXP, q.Status, boolToInt(q.IsOptional),
		nullString(q.PrimaryStat), toMillis(q.DueDate), nullMillis(q.ExpirationTime), toMillis(q.CreatedAt), nullMillis(q.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("quest insert: %w", err)
	}
	return nil
}

func (r *QuestRepo) Get(ctx context.Context, id string) (*Quest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+questColumns+` FROM quests WHERE id = ?`, id)
	return scanQuest(row)
}

// QuestFilter narrows ListByUser. Zero values match everything.
type QuestFilter struct {
	Status       string
	OptionalOnly bool
	DailyOnly    bool
	Limit        int
}

func (r *QuestRepo) ListByUser(ctx context.Context, userID string, f QuestFilter) ([]Quest, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.OptionalOnly {
		where = append(where, "is_optional = 1")
	}
	if f.DailyOnly {
		where = append(where, "is_optional = 0")
	}

	query := `SELECT ` + questColumns + ` FROM quests WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY due_date ASC, created_at ASC, id ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("quest list: %w", err)
	}
	defer rows.Close()

	var out []Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quest rows: %w", err)
	}
	return out, nil
}

// TransitionStatus moves a pending quest to status. It reports false when the
// quest was no longer pending, leaving the row untouched.
func (r *QuestRepo) TransitionStatus(ctx context.Context, id, userID, status string, completedAt *time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE quests SET status = ?, completed_at = ?
		WHERE id = ? AND user_id = ? AND status = 'pending'
	`, status, nullMillis(completedAt), id, userID)
	if err != nil {
		return false, fmt.Errorf("quest transition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("quest transition rows: %w", err)
	}
	return n == 1, nil
}

// CountPendingDailyDue counts pending non-optional quests with a due date in [start, end).
func (r *QuestRepo) CountPendingDailyDue(ctx context.Context, userID string, start, end time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM quests
		WHERE user_id = ? AND status = 'pending' AND is_optional = 0
		  AND due_date >= ? AND due_date < ?
	`, userID, toMillis(start), toMillis(end)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("quest count due: %w", err)
	}
	return n, nil
}

// ListOverdueOptional returns pending optional quests whose expiration is strictly before
// now. A quest expiring exactly at now can still be resolved.
func (r *QuestRepo) ListOverdueOptional(ctx context.Context, userID string, now time.Time) ([]Quest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+questColumns+` FROM quests
		WHERE user_id = ? AND status = 'pending' AND is_optional = 1
		  AND expiration_time IS NOT NULL AND expiration_time < ?
		ORDER BY expiration_time ASC
	`, userID, toMillis(now))
	if err != nil {
		return nil, fmt.Errorf("quest list overdue: %w", err)
	}
	defer rows.Close()

	var out []Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quest rows: %w", err)
	}
	return out, nil
}

func scanQuest(row scanner) (*Quest, error) {
	var (
		q          Quest
		goalID     sql.NullString
		primary    sql.NullString
		optional   int
		due        int64
		expiration sql.NullInt64
		created    int64
		completed  sql.NullInt64
	)
	err := row.Scan(
		&q.ID, &q.UserID, &goalID, &q.Text, &q.Difficulty, &q.RewardXP, &q.Status, &optional,
		&primary, &due, &expiration, &created, &completed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("quest scan: %w", err)
	}
	q.GoalID = stringPtr(goalID)
	q.PrimaryStat = stringPtr(primary)
	q.IsOptional = optional != 0
	q.DueDate = fromMillis(due)
	q.ExpirationTime = timePtr(expiration)
	q.CreatedAt = fromMillis(created)
	q.CompletedAt = timePtr(completed)
	return &q, nil
}
