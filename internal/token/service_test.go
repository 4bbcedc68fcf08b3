package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psp-portal/portal-api/internal/model"
	"github.com/psp-portal/portal-api/internal/repository"
)

type fakeStore struct {
	principals map[uint64]model.Principal
}

func (f *fakeStore) GetByID(_ context.Context, id uint64) (model.Principal, error) {
	p, ok := f.principals[id]
	if !ok {
		return model.Principal{}, repository.ErrPrincipalNotFound
	}
	return p, nil
}

func newTestService(store *fakeStore) *Service {
	if store == nil {
		store = &fakeStore{principals: map[uint64]model.Principal{}}
	}
	return NewService("test-secret", "portal-api", time.Hour, 7*24*time.Hour, store, NewMemoryRevocationStore())
}

func testPrincipal() model.Principal {
	return model.Principal{
		ID:       1,
		Username: "bob",
		Email:    "bob@example.com",
		Role:     model.RoleUser,
		IsActive: true,
	}
}

func TestGenerateTokenPair(t *testing.T) {
	svc := newTestService(nil)
	pair, err := svc.GenerateTokenPair(testPrincipal())
	require.NoError(t, err)
	assert.Equal(t, time.Hour, pair.ExpiresIn)

	access, err := svc.Verify(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "bob", access.Username)
	assert.Equal(t, model.RoleUser, access.Role)

	// The refresh token carries the minimal shape: subject only.
	refresh, err := svc.Verify(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "1", refresh.Subject)
	assert.Empty(t, refresh.Username)
	assert.Empty(t, refresh.Email)
	assert.Empty(t, refresh.Role)
}

func TestRefreshReflectsCurrentState(t *testing.T) {
	store := &fakeStore{principals: map[uint64]model.Principal{1: testPrincipal()}}
	svc := newTestService(store)

	refresh, err := svc.GenerateRefreshToken(1)
	require.NoError(t, err)

	// Promote the principal between issuance and refresh; the new access
	// token must show the current role, not the one at login.
	p := store.principals[1]
	p.Role = model.RoleAdmin
	store.principals[1] = p

	access, err := svc.RefreshAccessToken(context.Background(), refresh)
	require.NoError(t, err)

	claims, err := svc.Verify(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestRefreshUnknownPrincipal(t *testing.T) {
	svc := newTestService(nil) // empty store
	refresh, err := svc.GenerateRefreshToken(404)
	require.NoError(t, err)

	_, err = svc.RefreshAccessToken(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrUnknownPrincipal)
}

func TestRefreshRejectsExpiredAndForged(t *testing.T) {
	store := &fakeStore{principals: map[uint64]model.Principal{1: testPrincipal()}}
	expired := NewService("test-secret", "portal-api", time.Hour, -time.Second, store, NewMemoryRevocationStore())
	raw, err := expired.GenerateRefreshToken(1)
	require.NoError(t, err)
	_, err = expired.RefreshAccessToken(context.Background(), raw)
	assert.ErrorIs(t, err, ErrExpiredToken)

	forged := NewService("other-secret", "portal-api", time.Hour, time.Hour, store, NewMemoryRevocationStore())
	raw, err = forged.GenerateRefreshToken(1)
	require.NoError(t, err)
	svc := newTestService(store)
	_, err = svc.RefreshAccessToken(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestRevocation(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	raw, err := svc.GenerateAccessToken(testPrincipal())
	require.NoError(t, err)

	// Valid before revocation.
	_, err = svc.Verify(ctx, raw)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, raw))
	_, err = svc.Verify(ctx, raw)
	assert.ErrorIs(t, err, ErrRevokedToken)

	// A different token never added still passes.
	p := testPrincipal()
	p.ID = 2
	other, err := svc.GenerateAccessToken(p)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, other)
	assert.NoError(t, err)
}

func TestRevokeEmptyTokenIsNoop(t *testing.T) {
	svc := newTestService(nil)
	assert.NoError(t, svc.Revoke(context.Background(), ""))
}

func TestMemoryRevocationStoreTTL(t *testing.T) {
	s := NewMemoryRevocationStore()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "short-lived", 10*time.Millisecond))
	ok, err := s.Contains(ctx, "short-lived")
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	ok, err = s.Contains(ctx, "short-lived")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire with its TTL")
}

func TestExtractTokenFromHeader(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", ""},
		{"different scheme", "Basic xyz", ""},
		{"bearer without token", "Bearer", ""},
		{"bearer with empty token", "Bearer ", ""},
		{"three parts", "Bearer abc def", ""},
		{"well-formed", "Bearer abc.def.ghi", "abc.def.ghi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractTokenFromHeader(tc.header))
		})
	}
}
