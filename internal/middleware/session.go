package middleware

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/psp-portal/portal-api/internal/auth"
    "github.com/psp-portal/portal-api/internal/repository"
)

// SessionAuth returns a middleware that authenticates requests through the
// signed session cookie.  The cookie holds only the principal id; the
// resolver re-queries the store on every request, so a deleted account or a
// changed verification status takes effect immediately.  The expanded view
// is stored in the context under "session_view".
func SessionAuth(cookies *auth.CookieCodec, sessions *auth.SessionResolver) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ck, err := c.Cookie(auth.SessionCookieName)
            if err != nil || ck.Value == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
            }
            id, ok := cookies.Decode(ck.Value)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session"})
            }
            view, err := sessions.Expand(c.Request().Context(), id)
            if err != nil {
                // A reference that no longer resolves means the session is
                // invalid, not that the server failed.
                if errors.Is(err, repository.ErrPrincipalNotFound) {
                    c.SetCookie(cookies.ExpiredCookie())
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
                }
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session lookup failed"})
            }
            c.Set("session_view", view)
            return next(c)
        }
    }
}
