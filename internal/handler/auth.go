package handler

import (
	"context"  // provides context with cancellation for DB calls
	"errors"   // sentinel error checks
	"net/http" // HTTP status codes and primitives
	"net/url"  // building redirect URLs with query parameters
	"strings"  // string manipulation utilities
	"time"     // timeouts for DB calls

	"github.com/google/uuid"      // event ids
	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/psp-portal/portal-api/internal/auth"
	"github.com/psp-portal/portal-api/internal/config"
	"github.com/psp-portal/portal-api/internal/queue"
	"github.com/psp-portal/portal-api/internal/repository"
	queue_publisher "github.com/psp-portal/portal-api/internal/service"
	"github.com/psp-portal/portal-api/internal/token"
)

// stateCookieName holds the OAuth state value between the redirect to the
// provider and the callback.
const stateCookieName = "oauth_state"

// LoginPath pairs a provider instance with a resolver variant.  The portal
// runs two: the public self-service path and the admin-gated back-office
// path.  They share all handler logic; only the callback URL and the
// acceptance policy differ.
type LoginPath struct {
	Provider *auth.Provider
	Resolver *auth.Resolver
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg        config.Config
	Principals *repository.PrincipalRepo
	Tokens     *token.Service
	Cookies    *auth.CookieCodec
	Sessions   *auth.SessionResolver
	Public     *LoginPath
	Admin      *LoginPath
}

func NewAuthHandler(cfg config.Config, p *repository.PrincipalRepo, t *token.Service,
	ck *auth.CookieCodec, s *auth.SessionResolver, pub, adm *LoginPath) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Principals: p, Tokens: t, Cookies: ck, Sessions: s, Public: pub, Admin: adm}
}

// ----- DTOs -----

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

type pairResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

// Begin starts the federated login dance for a path: it plants the state
// cookie and sends the browser to the provider's consent screen.
func (h *AuthHandler) Begin(path *LoginPath) echo.HandlerFunc {
	return func(c echo.Context) error {
		state := path.Provider.StateToken()
		c.SetCookie(&http.Cookie{
			Name:     stateCookieName,
			Value:    state,
			Path:     "/",
			MaxAge:   600,
			HttpOnly: true,
			Secure:   h.Cfg.IsProd(),
			SameSite: http.SameSiteLaxMode,
		})
		return c.Redirect(http.StatusFound, path.Provider.AuthURL(state))
	}
}

// Callback finishes the federated login dance for a path.  Outcomes map to
// redirects: unknown email goes to the registration flow carrying the
// provider email and name, a policy rejection or provider error goes to the
// failure URL with the message, and an accepted principal gets a session
// cookie plus a token pair before landing on the success URL.
func (h *AuthHandler) Callback(path *LoginPath) echo.HandlerFunc {
	return func(c echo.Context) error {
		if e := c.QueryParam("error"); e != "" {
			return h.redirectFailure(c, e)
		}
		state := c.QueryParam("state")
		ck, err := c.Cookie(stateCookieName)
		if err != nil || state == "" || ck.Value != state {
			return h.redirectFailure(c, "invalid login state")
		}
		code := c.QueryParam("code")
		if code == "" {
			return h.redirectFailure(c, "missing authorization code")
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
		defer cancel()

		profile, err := path.Provider.FetchProfile(ctx, code)
		if err != nil {
			c.Logger().Errorf("federated profile fetch failed: %v", err)
			return h.redirectFailure(c, "login failed")
		}

		principal, rejection, err := path.Resolver.Resolve(ctx, profile)
		if err != nil {
			// Store failure, not an identity decision. Never present it as
			// "not registered".
			c.Logger().Errorf("federated resolve failed: %v", err)
			return h.redirectFailure(c, "login failed")
		}
		if rejection != nil {
			if rejection.Message == auth.MsgNotRegistered {
				return redirectWithParams(c, h.Cfg.CompleteProfileURL, map[string]string{
					"email": rejection.Email,
					"name":  rejection.Name,
				})
			}
			return h.redirectFailure(c, rejection.Message)
		}

		pair, err := h.Tokens.GenerateTokenPair(principal)
		if err != nil {
			c.Logger().Errorf("issue token pair failed: %v", err)
			return h.redirectFailure(c, "login failed")
		}

		c.SetCookie(h.Cookies.NewCookie(h.Sessions.Reduce(principal)))
		publish(c, queue.AuthEvent{
			Type:     queue.EventLogin,
			UserID:   principal.ID,
			Email:    principal.Email,
			Username: principal.Username,
			Role:     principal.Role,
			Provider: principal.FederatedProvider,
		})

		return redirectWithParams(c, h.Cfg.DefaultRedirectURL, map[string]string{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
		})
	}
}

// Refresh exchanges a valid refresh token for a new access token built from
// the principal's current stored state.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	access, err := h.Tokens.RefreshAccessToken(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpiredToken):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "refresh token expired"})
		case errors.Is(err, token.ErrInvalidSignature), errors.Is(err, token.ErrIssuerMismatch):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid refresh token"})
		case errors.Is(err, token.ErrRevokedToken):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "refresh token revoked"})
		case errors.Is(err, token.ErrUnknownPrincipal):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		default:
			c.Logger().Errorf("refresh failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
		}
	}

	publish(c, queue.AuthEvent{Type: queue.EventRefresh})
	return c.JSON(http.StatusOK, refreshResp{
		AccessToken: access,
		ExpiresIn:   int64(h.Cfg.AccessTokenExpiry / time.Second),
	})
}

// Logout revokes the presented credentials.  A bearer access token in the
// Authorization header and/or a refresh token in the body each land in the
// revocation set; the session cookie is cleared either way.  With nothing
// to revoke the request is rejected.
func (h *AuthHandler) Logout(c echo.Context) error {
	bearer := token.ExtractTokenFromHeader(c.Request().Header.Get("Authorization"))

	var req refreshReq
	_ = c.Bind(&req)
	refresh := strings.TrimSpace(req.RefreshToken)

	if bearer == "" && refresh == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.Revoke(ctx, bearer); err != nil {
		c.Logger().Errorf("revoke access token failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	if err := h.Tokens.Revoke(ctx, refresh); err != nil {
		c.Logger().Errorf("revoke refresh token failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}

	c.SetCookie(h.Cookies.ExpiredCookie())
	publish(c, queue.AuthEvent{Type: queue.EventLogout})
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated bearer identity as seen by the middleware.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"role":    c.Get("role"),
	})
}

// SessionMe returns the session view expanded by the session middleware.
// Because expansion re-reads the store, is_verified here is always current.
func (h *AuthHandler) SessionMe(c echo.Context) error {
	return c.JSON(http.StatusOK, c.Get("session_view"))
}

// redirectFailure sends the browser to the configured failure URL carrying
// a human-readable message.
func (h *AuthHandler) redirectFailure(c echo.Context, message string) error {
	return redirectWithParams(c, h.Cfg.FailureRedirectURL, map[string]string{"message": message})
}

// redirectWithParams appends query parameters to a base URL (absolute or
// relative) and issues a 302.
func redirectWithParams(c echo.Context, base string, params map[string]string) error {
	u, err := url.Parse(base)
	if err != nil {
		return c.Redirect(http.StatusFound, base)
	}
	q := u.Query()
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return c.Redirect(http.StatusFound, u.String())
}

// publish fills in the envelope fields and fires the audit event without
// blocking the request; a down broker only costs a log line.
func publish(c echo.Context, ev queue.AuthEvent) {
	ev.EventID = uuid.NewString()
	ev.RemoteIP = c.RealIP()
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishAuthEvent(ctx, ev)
	}()
}
