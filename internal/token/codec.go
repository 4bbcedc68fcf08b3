package token // package token implements the claims codec and the token lifecycle service

import (
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// Verification failures surfaced as typed errors so callers branch on data
// rather than on library error classes.  Each maps to an unauthorized-class
// response at the HTTP boundary.
var (
    ErrExpiredToken     = errors.New("token expired")
    ErrInvalidSignature = errors.New("invalid token signature")
    ErrIssuerMismatch   = errors.New("token issuer mismatch")
    ErrRevokedToken     = errors.New("token revoked")
)

// ErrUnknownPrincipal is returned by the refresh flow when the subject of a
// valid refresh token no longer resolves to a stored principal.  It maps to
// a not-found-class response, not an unauthorized one.
var ErrUnknownPrincipal = errors.New("unknown principal")

// Claims is the payload signed into a token.  An access token carries the
// full shape; a refresh token carries only the registered claims with the
// principal id in Subject.  Once signed the claim set is immutable: any
// change means issuing a new token.
type Claims struct {
    UserID   uint64 `json:"id,omitempty"`
    Username string `json:"username,omitempty"`
    Email    string `json:"email,omitempty"`
    Role     string `json:"role,omitempty"`
    IsActive bool   `json:"is_active,omitempty"`
    jwt.RegisteredClaims
}

// SubjectID parses the registered Subject claim back into a principal id.
// Falls back to the UserID field for access-token shapes.
func (c Claims) SubjectID() (uint64, error) {
    if c.Subject != "" {
        return strconv.ParseUint(c.Subject, 10, 64)
    }
    if c.UserID != 0 {
        return c.UserID, nil
    }
    return 0, errors.New("token has no subject")
}

// SignOptions carries the registered claims the codec stamps onto a claim
// set at signing time.
type SignOptions struct {
    ExpiresIn time.Duration // embedded as exp relative to now
    Issuer    string        // embedded as iss
}

// Codec signs and verifies claim sets under a single process-wide HS256
// secret.  It is a pure cryptographic primitive: signature, expiry and
// issuer checks live here, while business policy (revocation, role gates,
// principal lookups) lives in Service.
type Codec struct {
    secret []byte
}

func NewCodec(secret string) *Codec { return &Codec{secret: []byte(secret)} }

// Sign serializes claims plus the registered claims derived from opts and
// returns the compact signed token string.
func (c *Codec) Sign(claims Claims, opts SignOptions) (string, error) {
    now := time.Now().UTC()
    claims.Issuer = opts.Issuer
    claims.IssuedAt = jwt.NewNumericDate(now)
    claims.ExpiresAt = jwt.NewNumericDate(now.Add(opts.ExpiresIn))
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString(c.secret)
}

// Verify parses and checks a token string.  It fails with ErrExpiredToken
// when now >= exp, ErrIssuerMismatch when the embedded issuer differs from
// the expected one, and ErrInvalidSignature for a bad signature or a token
// that does not parse at all.  On success the original claim set is
// returned, registered claims included.
func (c *Codec) Verify(raw, issuer string) (Claims, error) {
    var claims Claims
    _, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        // Reject any signing method other than HMAC before touching the
        // secret; an RS256 token must never verify against HS256 bytes.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidSignature
        }
        return c.secret, nil
    }, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
    if err != nil {
        switch {
        case errors.Is(err, jwt.ErrTokenExpired):
            return Claims{}, ErrExpiredToken
        case errors.Is(err, jwt.ErrTokenInvalidIssuer):
            return Claims{}, ErrIssuerMismatch
        default:
            // Malformed input and wrong-algorithm tokens fold into the
            // signature failure: the credential cannot be authenticated.
            return Claims{}, ErrInvalidSignature
        }
    }
    return claims, nil
}

// Decode parses a token without verifying signature or expiry.  The result
// is untrusted and must only be used for diagnostics or non-trust-boundary
// inspection such as reading exp to size a revocation TTL.  Returns false
// when the token does not even parse.
func (c *Codec) Decode(raw string) (Claims, bool) {
    var claims Claims
    if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
        return Claims{}, false
    }
    return claims, true
}
