package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ResetTokenRepo persists/validates password reset tokens (single
// 'token_hash' column, same storage idiom as refresh tokens: only the
// SHA-256 digest of the token ever reaches the database).
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Store inserts a reset token hash row.
func (r *ResetTokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_resets (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Consume returns the owning userID if an unused, non-expired token exists,
// and marks it used in the same call. A second Consume with the same hash
// fails with ErrResetNotFound.
func (r *ResetTokenRepo) Consume(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		usedAt    sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, used_at FROM password_resets WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &usedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrResetNotFound
		}
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if usedAt.Valid {
		return 0, ErrResetNotFound
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, ErrResetNotFound
	}
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE password_resets SET used_at=NOW() WHERE token_hash=? AND used_at IS NULL",
		tokenHash); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return userID, nil
}
