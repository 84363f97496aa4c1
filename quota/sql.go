package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ============================================================================
// SQL STORE — Durable usage records via database/sql + sqlx
// ============================================================================
// One row per normalized user id. The schema is deliberately minimal:
//
//	usage(user_id TEXT PRIMARY KEY, usage_count INTEGER, updated_at TEXT)
//
// Writes run inside a transaction so a failed upsert never leaves a
// partial increment behind.
// ============================================================================

const usageSchema = `
CREATE TABLE IF NOT EXISTS usage (
    user_id     TEXT PRIMARY KEY,
    usage_count INTEGER NOT NULL,
    updated_at  TEXT NOT NULL
)`

// SQLStore persists usage records in a SQL database.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open sqlx handle. The caller owns the connection.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// EnsureSchema creates the usage table when missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, usageSchema); err != nil {
		return fmt.Errorf("failed to create usage table: %w", err)
	}
	return nil
}

// Count returns the stored count, 0 for unknown users.
func (s *SQLStore) Count(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		s.db.Rebind(`SELECT usage_count FROM usage WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage for %q: %w", userID, err)
	}
	return count, nil
}

// SetCount upserts a usage record transactionally.
func (s *SQLStore) SetCount(ctx context.Context, userID string, count int, updatedAt time.Time) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin usage transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO usage (user_id, usage_count, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET usage_count = excluded.usage_count, updated_at = excluded.updated_at`),
		userID, count, updatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert usage for %q: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit usage for %q: %w", userID, err)
	}
	return nil
}
