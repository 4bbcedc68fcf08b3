package auth

import (
    "context"
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/psp-portal/portal-api/internal/model"
    "github.com/psp-portal/portal-api/internal/repository"
)

// SessionCookieName is the cookie carrying the signed session principal
// reference.
const SessionCookieName = "portal_session"

// isNotFound reports whether a store error means "no such principal" as
// opposed to "store failed".
func isNotFound(err error) bool { return errors.Is(err, repository.ErrPrincipalNotFound) }

// SessionStore is the read surface session expansion needs.
type SessionStore interface {
    GetSessionView(ctx context.Context, id uint64) (model.SessionView, error)
}

// SessionResolver reduces a principal to the minimal durable reference held
// in a session and re-hydrates it per request.  The session is a pointer,
// not a cache: Expand re-reads the store every time so the current
// verification status is always observed.
type SessionResolver struct {
    store SessionStore
}

func NewSessionResolver(store SessionStore) *SessionResolver {
    return &SessionResolver{store: store}
}

// Reduce returns the only thing a session may durably hold: the principal id.
func (r *SessionResolver) Reduce(p model.Principal) uint64 { return p.ID }

// Expand re-queries the store for the session view behind a reference.  It
// fails with repository.ErrPrincipalNotFound when the id no longer resolves
// (account deleted after session creation); callers treat that as "session
// invalid", not as an internal error.
func (r *SessionResolver) Expand(ctx context.Context, id uint64) (model.SessionView, error) {
    return r.store.GetSessionView(ctx, id)
}

// CookieCodec signs session principal references into cookie values and
// verifies them back. The value format is "<id>.<hex hmac-sha256>" under
// the session secret — the payload is the reference only, never a
// credential.
type CookieCodec struct {
    secret []byte
    maxAge time.Duration
    secure bool
}

// NewCookieCodec builds a codec.  secure should be true only in
// production-like deployments so that local HTTP development keeps working.
func NewCookieCodec(secret string, maxAge time.Duration, secure bool) *CookieCodec {
    return &CookieCodec{secret: []byte(secret), maxAge: maxAge, secure: secure}
}

// Encode returns the signed cookie value for a principal id.
func (c *CookieCodec) Encode(principalID uint64) string {
    payload := strconv.FormatUint(principalID, 10)
    return payload + "." + c.sign(payload)
}

// Decode verifies a cookie value and returns the principal id.  The second
// result is false for a missing signature, a tampered payload, or a value
// signed under a different secret.
func (c *CookieCodec) Decode(value string) (uint64, bool) {
    payload, sig, ok := strings.Cut(value, ".")
    if !ok {
        return 0, false
    }
    if !hmac.Equal([]byte(c.sign(payload)), []byte(sig)) {
        return 0, false
    }
    id, err := strconv.ParseUint(payload, 10, 64)
    if err != nil {
        return 0, false
    }
    return id, true
}

// NewCookie returns the Set-Cookie for a fresh session.
func (c *CookieCodec) NewCookie(principalID uint64) *http.Cookie {
    return &http.Cookie{
        Name:     SessionCookieName,
        Value:    c.Encode(principalID),
        Path:     "/",
        MaxAge:   int(c.maxAge / time.Second),
        HttpOnly: true,
        Secure:   c.secure,
        SameSite: http.SameSiteLaxMode,
    }
}

// ExpiredCookie returns a Set-Cookie that clears the session on logout.
func (c *CookieCodec) ExpiredCookie() *http.Cookie {
    return &http.Cookie{
        Name:     SessionCookieName,
        Value:    "",
        Path:     "/",
        MaxAge:   -1,
        HttpOnly: true,
        Secure:   c.secure,
        SameSite: http.SameSiteLaxMode,
    }
}

func (c *CookieCodec) sign(payload string) string {
    mac := hmac.New(sha256.New, c.secret)
    mac.Write([]byte(payload))
    return hex.EncodeToString(mac.Sum(nil))
}
