package model

import "time"

// Role values stored in users.role.  The portal distinguishes regular
// employees from administrators; the admin-gated federated login path only
// accepts principals carrying RoleAdmin.
const (
    RoleUser  = "user"
    RoleAdmin = "admin"
)

// Principal represents an authenticated identity as stored in the `users`
// table.  Each field corresponds to a column.  FederatedID and
// FederatedProvider are transient: the federated resolver stamps them onto
// the in-memory copy after a successful provider callback, and persisting
// them is the caller's decision, not the resolver's.
//
// Fields:
//  ID                – primary key identifier of the user.
//  Username          – display/login name.
//  Email             – unique email address (case-insensitive match key).
//  Role              – role name ("user" or "admin").
//  IsActive          – whether the account is active.
//  IsVerified        – whether the email address has been verified.
//  FederatedID       – subject id assigned by the external provider.
//  FederatedProvider – provider name (e.g. "google").
//  CreatedAt         – timestamp of creation.
//  UpdatedAt         – timestamp of last update.
type Principal struct {
    ID                uint64    // users.id
    Username          string    // users.username
    Email             string    // users.email
    Role              string    // users.role
    IsActive          bool      // users.is_active
    IsVerified        bool      // users.is_verified
    FederatedID       string    // transient, provider subject id
    FederatedProvider string    // transient, provider name
    CreatedAt         time.Time // users.created_at
    UpdatedAt         time.Time // users.updated_at
}

// SessionView is the minimal principal projection re-read from the store on
// every session expansion.  IsVerified is deliberately included so each
// request observes the current verification status rather than a value
// cached at login time.
type SessionView struct {
    ID         uint64
    Email      string
    Username   string
    IsVerified bool
}

// FederatedProfile is the transient input delivered by the identity
// provider's callback: the subject id the provider assigned, the emails on
// the account and a display name.  It is consumed once per callback and
// never persisted.
type FederatedProfile struct {
    SubjectID   string
    Emails      []string
    DisplayName string
}

// Email returns the profile's primary email, defined as the first email the
// provider listed, or "" when the provider sent none.
func (p FederatedProfile) Email() string {
    if len(p.Emails) == 0 {
        return ""
    }
    return p.Emails[0]
}

// PasswordReset models an entry in the `password_resets` table.  The plain
// token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the reset request.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  UsedAt    – when the token was consumed (null if still usable).
//  CreatedAt – timestamp of creation.
type PasswordReset struct {
    ID        uint64     // password_resets.id
    UserID    uint64     // password_resets.user_id
    TokenHash string     // password_resets.token_hash
    ExpiresAt time.Time  // password_resets.expires_at
    UsedAt    *time.Time // password_resets.used_at (nullable)
    CreatedAt time.Time  // password_resets.created_at
}
