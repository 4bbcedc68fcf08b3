package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/psp-portal/portal-api/internal/auth"
	"github.com/psp-portal/portal-api/internal/handler"
	"github.com/psp-portal/portal-api/internal/middleware"
	"github.com/psp-portal/portal-api/internal/model"
	"github.com/psp-portal/portal-api/internal/token"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  The federated login paths live at the root
// (/auth/google for employees, /admin/google for the back office), token
// lifecycle operations live under /v1/auth, and protected endpoints under
// /v1 require a verified bearer token or session cookie.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rs *handler.ResetHandler,
	tokens *token.Service, cookies *auth.CookieCodec, sessions *auth.SessionResolver) {
	// Federated login: each path is the same handler parameterized by a
	// provider instance and an acceptance policy.
	e.GET("/auth/google", a.Begin(a.Public))
	e.GET("/auth/google/callback", a.Callback(a.Public))
	e.GET("/admin/google", a.Begin(a.Admin))
	e.GET("/admin/google/callback", a.Callback(a.Admin))

	// Token lifecycle and password reset do not require an existing bearer
	// credential; the operations validate their own inputs.
	g := e.Group("/v1/auth")
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.POST("/password-reset", rs.Request)
	g.POST("/password-reset/complete", rs.Complete)

	// Stateless bearer flow: JWTAuth verifies signature, expiry, issuer and
	// revocation before any handler runs.
	protected := e.Group("/v1")
	protected.Use(middleware.JWTAuth(tokens))
	protected.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	protected.GET("/me", a.Me)

	// Stateful session flow: the cookie is a signed principal reference,
	// re-expanded from the store on every request.
	sess := e.Group("/v1/session")
	sess.Use(middleware.SessionAuth(cookies, sessions))
	sess.GET("/me", a.SessionMe)
}
