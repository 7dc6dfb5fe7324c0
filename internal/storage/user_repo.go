package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Insert(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, title, created_at, last_active, nonnegative_since)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.Name, u.Title, toMillis(u.Created), toMillis(u.LastSeen), nullMillis(u.NonNegativeSince))
	if err != nil {
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, title, created_at, last_active, nonnegative_since
		FROM users WHERE id = ?
	`, id)
	return scanUser(row)
}

func (r *UserRepo) GetByName(ctx context.Context, name string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, title, created_at, last_active, nonnegative_since
		FROM users WHERE name = ?
	`, name)
	return scanUser(row)
}

// UpdateProgress persists the derived title state and the last activity timestamp.
func (r *UserRepo) UpdateProgress(ctx context.Context, u *User) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET title = ?, last_active = ?, nonnegative_since = ?
		WHERE id = ?
	`, u.Title, toMillis(u.LastSeen), nullMillis(u.NonNegativeSince), u.ID)
	if err != nil {
		return fmt.Errorf("user update: %w", err)
	}
	return nil
}

func scanUser(row scanner) (*User, error) {
	var (
		u        User
		created  int64
		lastSeen int64
		nonNeg   sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Title, &created, &lastSeen, &nonNeg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("user scan: %w", err)
	}
	u.Created = fromMillis(created)
	u.LastSeen = fromMillis(lastSeen)
	u.NonNegativeSince = timePtr(nonNeg)
	return &u, nil
}

type scanner interface {
	Scan(dest ...any) error
}
