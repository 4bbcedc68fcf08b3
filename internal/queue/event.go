// Package queue defines message payloads exchanged over the message broker.
package queue

// Auth event types published to the auth.events queue.
const (
    EventLogin          = "login"
    EventRefresh        = "refresh"
    EventLogout         = "logout"
    EventResetRequested = "password_reset.requested"
)

// AuthEvent is published whenever the identity core makes a decision worth
// auditing: a federated login, a token refresh, a logout, or a password
// reset request. It carries enough information for downstream consumers to
// log, notify, or feed analytics without querying the primary database.
// For password reset requests, ResetToken carries the raw token for the
// mail worker to deliver; it is never stored by this service.
type AuthEvent struct {
    EventID    string `json:"event_id"`
    Type       string `json:"type"`
    UserID     uint64 `json:"user_id,omitempty"`
    Email      string `json:"email,omitempty"`
    Username   string `json:"username,omitempty"`
    Role       string `json:"role,omitempty"`
    Provider   string `json:"provider,omitempty"`
    RemoteIP   string `json:"remote_ip,omitempty"`
    ResetToken string `json:"reset_token,omitempty"`
    OccurredAt string `json:"occurred_at"`
}
