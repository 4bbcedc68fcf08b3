package middleware

// identity.go defines helper functions shared across middleware files and
// handlers. PrincipalID pulls the user id stored by JWTAuth out of the Echo
// context; zero means no authenticated user.

import "github.com/labstack/echo/v4"

// PrincipalID extracts the authenticated principal id from the context.  It
// returns 0 when no user is authenticated or the value has an unexpected
// type.
func PrincipalID(c echo.Context) uint64 {
    if v, ok := c.Get("user_id").(uint64); ok {
        return v
    }
    return 0
}

// Role extracts the authenticated principal's role from the context, or ""
// when absent.
func Role(c echo.Context) string {
    if v, ok := c.Get("role").(string); ok {
        return v
    }
    return ""
}
