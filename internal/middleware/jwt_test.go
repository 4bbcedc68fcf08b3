package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psp-portal/portal-api/internal/auth"
	"github.com/psp-portal/portal-api/internal/model"
	"github.com/psp-portal/portal-api/internal/repository"
	"github.com/psp-portal/portal-api/internal/token"
)

type stubStore struct {
	views map[uint64]model.SessionView
}

func (s *stubStore) GetByID(_ context.Context, id uint64) (model.Principal, error) {
	return model.Principal{}, repository.ErrPrincipalNotFound
}

func (s *stubStore) GetSessionView(_ context.Context, id uint64) (model.SessionView, error) {
	v, ok := s.views[id]
	if !ok {
		return model.SessionView{}, repository.ErrPrincipalNotFound
	}
	return v, nil
}

func newService(ttl time.Duration) *token.Service {
	return token.NewService("mw-secret", "portal-api", ttl, time.Hour,
		&stubStore{}, token.NewMemoryRevocationStore())
}

// invoke runs the JWTAuth middleware against a request carrying the given
// Authorization header and returns the recorder plus whether the wrapped
// handler ran.
func invoke(t *testing.T, svc *token.Service, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := JWTAuth(svc)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, called
}

func TestJWTAuthValidToken(t *testing.T) {
	svc := newService(time.Hour)
	raw, err := svc.GenerateAccessToken(model.Principal{ID: 9, Username: "frank", Role: model.RoleAdmin, IsActive: true})
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTAuth(svc)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, handler(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(9), PrincipalID(c))
	assert.Equal(t, model.RoleAdmin, Role(c))
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, called := invoke(t, newService(time.Hour), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestJWTAuthWrongScheme(t *testing.T) {
	rec, called := invoke(t, newService(time.Hour), "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	svc := newService(-time.Second)
	raw, err := svc.GenerateAccessToken(model.Principal{ID: 9})
	require.NoError(t, err)

	rec, called := invoke(t, svc, "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Body.String(), "token expired")
}

// downRevocations simulates an unreachable revocation store.
type downRevocations struct{}

func (downRevocations) Add(context.Context, string, time.Duration) error {
	return errors.New("redis: connection refused")
}

func (downRevocations) Contains(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestJWTAuthRevocationStoreOutage(t *testing.T) {
	svc := token.NewService("mw-secret", "portal-api", time.Hour, time.Hour,
		&stubStore{}, downRevocations{})
	raw, err := svc.GenerateAccessToken(model.Principal{ID: 9, Role: model.RoleUser, IsActive: true})
	require.NoError(t, err)

	// The credential is fine; the store is down.  That is a server-side
	// failure, not an unauthorized credential.
	rec, called := invoke(t, svc, "Bearer "+raw)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, called)
	assert.NotContains(t, rec.Body.String(), "invalid token")
	assert.Contains(t, rec.Body.String(), "authentication unavailable")
}

func TestJWTAuthRevokedToken(t *testing.T) {
	svc := newService(time.Hour)
	raw, err := svc.GenerateAccessToken(model.Principal{ID: 9})
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(context.Background(), raw))

	rec, called := invoke(t, svc, "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Body.String(), "token revoked")
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	mw := RequireRole(model.RoleAdmin)

	run := func(role interface{}) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		require.NoError(t, h(c))
		return rec
	}

	assert.Equal(t, http.StatusOK, run(model.RoleAdmin).Code)
	assert.Equal(t, http.StatusForbidden, run(model.RoleUser).Code)
	assert.Equal(t, http.StatusForbidden, run(nil).Code)
}

func TestSessionAuth(t *testing.T) {
	store := &stubStore{views: map[uint64]model.SessionView{
		5: {ID: 5, Email: "gina@example.com", Username: "gina", IsVerified: true},
	}}
	cookies := auth.NewCookieCodec("session-secret", time.Hour, false)
	sessions := auth.NewSessionResolver(store)
	e := echo.New()

	run := func(cookieValue string) (*httptest.ResponseRecorder, echo.Context) {
		req := httptest.NewRequest(http.MethodGet, "/v1/session/me", nil)
		if cookieValue != "" {
			req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: cookieValue})
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := SessionAuth(cookies, sessions)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		require.NoError(t, h(c))
		return rec, c
	}

	// Valid session: view lands in context.
	rec, c := run(cookies.Encode(5))
	assert.Equal(t, http.StatusOK, rec.Code)
	view, ok := c.Get("session_view").(model.SessionView)
	require.True(t, ok)
	assert.Equal(t, "gina", view.Username)
	assert.True(t, view.IsVerified)

	// No cookie.
	rec, _ = run("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Tampered cookie.
	rec, _ = run("5.deadbeef")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid signature but deleted principal: session invalid, cookie cleared.
	rec, _ = run(cookies.Encode(99))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), auth.SessionCookieName+"=")
}
