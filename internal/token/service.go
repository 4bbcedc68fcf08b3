package token

import (
    "context"
    "errors"
    "fmt"
    "strconv"
    "strings"
    "time"

    "github.com/psp-portal/portal-api/internal/model"
    "github.com/psp-portal/portal-api/internal/repository"
)

// PrincipalStore is the read surface the token service needs from the
// identity store.  *repository.PrincipalRepo satisfies it; tests substitute
// an in-memory fake.
type PrincipalStore interface {
    GetByID(ctx context.Context, id uint64) (model.Principal, error)
}

// Pair is the result of a login: a short-lived access token, a longer-lived
// refresh token and the configured access-token lifetime so clients can
// schedule their refresh.
type Pair struct {
    AccessToken  string
    RefreshToken string
    ExpiresIn    time.Duration
}

// Service issues and verifies access/refresh tokens.  Configuration
// (secret, issuer, expiries) is loaded once at startup and never reloaded.
// The only mutable state is the injected revocation store.
type Service struct {
    codec      *Codec
    issuer     string
    accessTTL  time.Duration
    refreshTTL time.Duration
    store      PrincipalStore
    revoked    RevocationStore
}

func NewService(secret, issuer string, accessTTL, refreshTTL time.Duration, store PrincipalStore, revoked RevocationStore) *Service {
    return &Service{
        codec:      NewCodec(secret),
        issuer:     issuer,
        accessTTL:  accessTTL,
        refreshTTL: refreshTTL,
        store:      store,
        revoked:    revoked,
    }
}

// GenerateAccessToken signs the full claim set for a principal: id,
// username, email, role and active flag, plus the registered claims.
func (s *Service) GenerateAccessToken(p model.Principal) (string, error) {
    claims := Claims{
        UserID:   p.ID,
        Username: p.Username,
        Email:    p.Email,
        Role:     p.Role,
        IsActive: p.IsActive,
    }
    claims.Subject = strconv.FormatUint(p.ID, 10)
    return s.codec.Sign(claims, SignOptions{ExpiresIn: s.accessTTL, Issuer: s.issuer})
}

// GenerateRefreshToken signs the minimal claim set: the principal id as
// subject, nothing else.  Everything the refresh flow needs later is
// re-read from the store, so baking more claims in would only freeze state.
func (s *Service) GenerateRefreshToken(principalID uint64) (string, error) {
    var claims Claims
    claims.Subject = strconv.FormatUint(principalID, 10)
    return s.codec.Sign(claims, SignOptions{ExpiresIn: s.refreshTTL, Issuer: s.issuer})
}

// GenerateTokenPair issues both tokens for a principal.  The refresh token
// uses the same minimal subject-only shape as GenerateRefreshToken.
func (s *Service) GenerateTokenPair(p model.Principal) (Pair, error) {
    access, err := s.GenerateAccessToken(p)
    if err != nil {
        return Pair{}, err
    }
    refresh, err := s.GenerateRefreshToken(p.ID)
    if err != nil {
        return Pair{}, err
    }
    return Pair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.accessTTL}, nil
}

// Verify checks a token string end to end: signature, expiry and issuer via
// the codec, then revocation-set membership.  A token that is otherwise
// valid but revoked fails with ErrRevokedToken.
func (s *Service) Verify(ctx context.Context, raw string) (Claims, error) {
    claims, err := s.codec.Verify(raw, s.issuer)
    if err != nil {
        return Claims{}, err
    }
    revoked, err := s.revoked.Contains(ctx, raw)
    if err != nil {
        return Claims{}, fmt.Errorf("revocation check: %w", err)
    }
    if revoked {
        return Claims{}, ErrRevokedToken
    }
    return claims, nil
}

// RefreshAccessToken verifies a refresh token and issues a fresh access
// token built from the principal's current stored state, so a role or
// active-status change is picked up at refresh time rather than frozen at
// the original login.  Fails with ErrUnknownPrincipal when the subject no
// longer resolves; store failures propagate unchanged.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
    claims, err := s.Verify(ctx, refreshToken)
    if err != nil {
        return "", err
    }
    id, err := claims.SubjectID()
    if err != nil {
        return "", ErrInvalidSignature
    }
    p, err := s.store.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrPrincipalNotFound) {
            return "", ErrUnknownPrincipal
        }
        return "", err
    }
    return s.GenerateAccessToken(p)
}

// Revoke adds a token to the revocation set.  The entry's TTL is the
// token's remaining lifetime, with a one-minute floor for input whose
// expiry cannot be decoded, so a revocation is never a silent no-op.
// An empty token is ignored.
func (s *Service) Revoke(ctx context.Context, raw string) error {
    if raw == "" {
        return nil
    }
    ttl := time.Minute
    if claims, ok := s.codec.Decode(raw); ok && claims.ExpiresAt != nil {
        if remaining := time.Until(claims.ExpiresAt.Time); remaining > ttl {
            ttl = remaining
        }
    }
    return s.revoked.Add(ctx, raw, ttl)
}

// ExtractTokenFromHeader parses a two-part "Bearer <token>" Authorization
// header value.  It returns "" (no credential presented) when the header is
// absent, uses a different scheme, or carries no token; malformed input is
// anonymous, not an error.
func ExtractTokenFromHeader(header string) string {
    parts := strings.Split(header, " ")
    if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
        return ""
    }
    return parts[1]
}
