package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psp-portal/portal-api/internal/model"
	"github.com/psp-portal/portal-api/internal/repository"
)

type fakePrincipalStore struct {
	byEmail map[string]model.Principal
	fail    error
}

func (f *fakePrincipalStore) GetByEmail(_ context.Context, email string) (model.Principal, error) {
	if f.fail != nil {
		return model.Principal{}, f.fail
	}
	p, ok := f.byEmail[email]
	if !ok {
		return model.Principal{}, repository.ErrPrincipalNotFound
	}
	return p, nil
}

func googleProfile(email, name string) model.FederatedProfile {
	return model.FederatedProfile{
		SubjectID:   "google-subject-123",
		Emails:      []string{email},
		DisplayName: name,
	}
}

func TestResolveAccepted(t *testing.T) {
	store := &fakePrincipalStore{byEmail: map[string]model.Principal{
		"carol@example.com": {ID: 3, Username: "carol", Email: "carol@example.com", Role: model.RoleUser, IsActive: true},
	}}
	r := NewResolver(store, ProviderGoogle, PublicPolicy)

	p, rej, err := r.Resolve(context.Background(), googleProfile("carol@example.com", "Carol"))
	require.NoError(t, err)
	require.Nil(t, rej)
	assert.Equal(t, uint64(3), p.ID)
	assert.Equal(t, "google-subject-123", p.FederatedID)
	assert.Equal(t, ProviderGoogle, p.FederatedProvider)
}

func TestResolveUnknownEmailEchoesProfile(t *testing.T) {
	store := &fakePrincipalStore{byEmail: map[string]model.Principal{}}

	for _, policy := range []AcceptancePolicy{PublicPolicy, AdminGatedPolicy} {
		r := NewResolver(store, ProviderGoogle, policy)
		_, rej, err := r.Resolve(context.Background(), googleProfile("nobody@example.com", "No Body"))
		require.NoError(t, err)
		require.NotNil(t, rej)
		assert.Equal(t, MsgNotRegistered, rej.Message)
		assert.Equal(t, "nobody@example.com", rej.Email)
		assert.Equal(t, "No Body", rej.Name)
	}
}

func TestResolveAdminGate(t *testing.T) {
	store := &fakePrincipalStore{byEmail: map[string]model.Principal{
		"dave@example.com": {ID: 4, Email: "dave@example.com", Role: model.RoleUser},
	}}
	profile := googleProfile("dave@example.com", "Dave")

	// The admin-gated variant rejects a non-admin with the permission
	// message, not with "not registered".
	admin := NewResolver(store, ProviderGoogle, AdminGatedPolicy)
	_, rej, err := admin.Resolve(context.Background(), profile)
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, MsgInsufficientPermission, rej.Message)
	assert.Empty(t, rej.Email)

	// The public variant accepts the same profile.
	public := NewResolver(store, ProviderGoogle, PublicPolicy)
	p, rej, err := public.Resolve(context.Background(), profile)
	require.NoError(t, err)
	require.Nil(t, rej)
	assert.Equal(t, uint64(4), p.ID)
}

func TestResolveAdminAccepted(t *testing.T) {
	store := &fakePrincipalStore{byEmail: map[string]model.Principal{
		"root@example.com": {ID: 5, Email: "root@example.com", Role: model.RoleAdmin},
	}}
	r := NewResolver(store, ProviderGoogle, AdminGatedPolicy)

	p, rej, err := r.Resolve(context.Background(), googleProfile("root@example.com", "Root"))
	require.NoError(t, err)
	require.Nil(t, rej)
	assert.Equal(t, model.RoleAdmin, p.Role)
}

func TestResolveStoreFailureIsNotUnknown(t *testing.T) {
	storeErr := errors.New("connection refused")
	store := &fakePrincipalStore{fail: storeErr}
	r := NewResolver(store, ProviderGoogle, PublicPolicy)

	_, rej, err := r.Resolve(context.Background(), googleProfile("carol@example.com", "Carol"))
	require.Error(t, err)
	assert.Nil(t, rej, "a broken store must not look like an unregistered user")
	assert.ErrorIs(t, err, storeErr)
}
