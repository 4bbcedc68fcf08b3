package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/psp-portal/portal-api/internal/model"
)

// PrincipalRepo reads principals from the 'users' table. It is the single
// authority for identity data: token refresh and session expansion both
// re-query it so that role or verification changes take effect without
// re-login.
type PrincipalRepo struct{ DB *sql.DB }

func NewPrincipalRepo(db *sql.DB) *PrincipalRepo { return &PrincipalRepo{DB: db} }

const principalColumns = "id,username,email,role,is_active,is_verified,created_at,updated_at"

// GetByID fetches a principal by id.
func (r *PrincipalRepo) GetByID(ctx context.Context, id uint64) (model.Principal, error) {
	var p model.Principal
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+principalColumns+" FROM users WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.Username, &p.Email, &p.Role, &p.IsActive, &p.IsVerified, &p.CreatedAt, &p.UpdatedAt)
	return p, mapLookupErr(err)
}

// GetByEmail fetches a principal by email. The email is passed through
// verbatim; uniqueness across letter case is enforced by the column's
// collation, not by normalizing here.
func (r *PrincipalRepo) GetByEmail(ctx context.Context, email string) (model.Principal, error) {
	var p model.Principal
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+principalColumns+" FROM users WHERE email=? LIMIT 1",
		email).Scan(&p.ID, &p.Username, &p.Email, &p.Role, &p.IsActive, &p.IsVerified, &p.CreatedAt, &p.UpdatedAt)
	return p, mapLookupErr(err)
}

// GetSessionView fetches the minimal projection stored behind a session
// reference. Reading is_verified fresh here is the point: sessions hold a
// pointer to the principal, not a cached copy.
func (r *PrincipalRepo) GetSessionView(ctx context.Context, id uint64) (model.SessionView, error) {
	var v model.SessionView
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,username,is_verified FROM users WHERE id=? LIMIT 1",
		id).Scan(&v.ID, &v.Email, &v.Username, &v.IsVerified)
	return v, mapLookupErr(err)
}

// UpdatePassword replaces the stored bcrypt hash for a principal. Used only
// by the password reset completion flow.
func (r *PrincipalRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=NOW() WHERE id=?",
		passwordHash, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPrincipalNotFound
	}
	return nil
}

// mapLookupErr folds driver errors into the repository's sentinel taxonomy:
// a missing row is ErrPrincipalNotFound, anything else wraps
// ErrStoreUnavailable so callers can tell the two apart with errors.Is.
func mapLookupErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrPrincipalNotFound
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
