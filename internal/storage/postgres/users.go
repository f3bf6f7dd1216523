// Package postgres keeps known chat identities in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/rentbot/core/logger"
	"github.com/m3rciful/rentbot/internal/booking"
)

const componentDB = "db"

// UserStore implements booking.UserStore on the users table.
type UserStore struct {
	db *sqlx.DB
}

// NewUserStore wraps an open connection pool.
func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// Lookup returns the stored record for id.
func (s *UserStore) Lookup(ctx context.Context, id int64) (booking.User, bool, error) {
	start := time.Now()
	var u booking.User
	err := s.db.GetContext(ctx, &u,
		`SELECT telegram_id, username, created_at FROM users WHERE telegram_id = $1`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		logger.Debug(ctx, componentDB, "users.lookup",
			slog.String("cache", "miss"),
			slog.Int64("user_id", id),
			slog.Duration("duration", logger.Took(start)),
		)
		return booking.User{}, false, nil
	case err != nil:
		return booking.User{}, false, fmt.Errorf("lookup user %d: %w", id, err)
	}
	logger.Debug(ctx, componentDB, "users.lookup",
		slog.String("cache", "hit"),
		slog.Int64("user_id", id),
		slog.Duration("duration", logger.Took(start)),
	)
	return u, true, nil
}

// Persist inserts id or refreshes its handle.
func (s *UserStore) Persist(ctx context.Context, id int64, handle string) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, username)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET username = EXCLUDED.username`,
		id, handle)
	if err != nil {
		return fmt.Errorf("persist user %d: %w", id, err)
	}
	logger.Info(ctx, componentDB, "users.persist",
		slog.String("status", "ok"),
		slog.Int64("user_id", id),
		slog.String("username", handle),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// List returns all stored users, oldest first.
func (s *UserStore) List(ctx context.Context) ([]booking.User, error) {
	var users []booking.User
	if err := s.db.SelectContext(ctx, &users,
		`SELECT telegram_id, username, created_at FROM users ORDER BY created_at, telegram_id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
