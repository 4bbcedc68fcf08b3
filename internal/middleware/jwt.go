package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "errors"
    "net/http" // HTTP status codes for responses

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/psp-portal/portal-api/internal/token"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// through the token service (signature, expiry, issuer and revocation) and
// injects the verified claims into the request context.  This middleware
// should wrap protected routes so that handlers can access authenticated
// user information via `c.Get("user_id")`, `c.Get("role")` and
// `c.Get("claims")`.
//
// A missing or malformed Authorization header means no credential was
// presented; on protected routes that is a 401.  A credential that fails
// verification is never downgraded to anonymous: the typed failure is
// reported so clients can tell an expired token from a revoked one.
func JWTAuth(svc *token.Service) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := token.ExtractTokenFromHeader(c.Request().Header.Get("Authorization"))
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            claims, err := svc.Verify(c.Request().Context(), raw)
            if err != nil {
                // Only a decision about the credential itself is a 401.  A
                // collaborator failure (e.g. the revocation store being
                // unreachable) is a server-side outage and must not be
                // dressed up as an invalid token.
                if !isCredentialError(err) {
                    c.Logger().Errorf("token verification failed: %v", err)
                    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authentication unavailable"})
                }
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": verifyErrMessage(err)})
            }
            // Store the verified identity in the context.  Handlers and
            // downstream middleware read these via c.Get().
            c.Set("user_id", claims.UserID)
            c.Set("role", claims.Role)
            c.Set("claims", claims)
            return next(c)
        }
    }
}

// isCredentialError reports whether a verification failure is a typed
// decision about the presented token, as opposed to an unexpected
// collaborator failure that must propagate as a server error.
func isCredentialError(err error) bool {
    return errors.Is(err, token.ErrExpiredToken) ||
        errors.Is(err, token.ErrRevokedToken) ||
        errors.Is(err, token.ErrIssuerMismatch) ||
        errors.Is(err, token.ErrInvalidSignature)
}

// verifyErrMessage maps typed verification failures to the client-facing
// error string.
func verifyErrMessage(err error) string {
    switch {
    case errors.Is(err, token.ErrExpiredToken):
        return "token expired"
    case errors.Is(err, token.ErrRevokedToken):
        return "token revoked"
    case errors.Is(err, token.ErrIssuerMismatch):
        return "token issuer mismatch"
    default:
        return "invalid token"
    }
}
