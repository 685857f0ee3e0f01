package aiusage

import (
	"context"
	"database/sql"
	"errors"
)

// Store handles ai_usage persistence in the device-local SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// UseToken atomically checks the daily quota and deducts one token.
// It resets the counter to DefaultTokens when last_reset_day is behind day.
// Returns ErrInsufficientTokens when 0 rows are updated (quota exhausted or user absent).
func (s *Store) UseToken(ctx context.Context, uid, day string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ai_usage SET
			tokens_remaining = CASE WHEN last_reset_day != ?1 THEN ?2 - 1 ELSE tokens_remaining - 1 END,
			last_reset_day = ?1
		WHERE uid = ?3 AND (last_reset_day < ?1 OR tokens_remaining > 0)
	`, day, DefaultTokens, uid)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientTokens
	}
	return nil
}

// EnsureUser inserts a new ai_usage row for uid with the default allowance.
// If the row already exists the insert is silently skipped.
func (s *Store) EnsureUser(ctx context.Context, uid, day string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_usage (uid, tokens_remaining, last_reset_day)
		VALUES (?, ?, ?)
		ON CONFLICT (uid) DO NOTHING
	`, uid, DefaultTokens, day)
	return err
}

func (s *Store) Remaining(ctx context.Context, uid, day string) (int, error) {
	var remaining int
	var last string
	err := s.db.QueryRowContext(ctx,
		`SELECT tokens_remaining, last_reset_day FROM ai_usage WHERE uid = ?`, uid,
	).Scan(&remaining, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultTokens, nil
	}
	if err != nil {
		return 0, err
	}
	if last < day {
		return DefaultTokens, nil
	}
	return remaining, nil
}
