package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wardadevcode/buildwise-backend/internal/auth"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
)

type memKeyStore struct {
	mu      sync.Mutex
	keys    map[string]*auth.APIKey
	touched int
}

func newMemKeyStore() *memKeyStore {
	return &memKeyStore{keys: map[string]*auth.APIKey{}}
}

func (s *memKeyStore) CreateAPIKey(_ context.Context, key *auth.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key.Hash] = key
	return nil
}

func (s *memKeyStore) GetAPIKey(_ context.Context, hash string) (*auth.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return key, nil
}

func (s *memKeyStore) TouchAPIKey(_ context.Context, hash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched++
	s.keys[hash].LastUsed = &at
	return nil
}

func TestJWTResolver_RoundTrip(t *testing.T) {
	r, err := auth.NewJWTResolver("secret", "buildwise")
	require.NoError(t, err)

	want := actor.Actor{ID: "u1", Name: "Jane Doe", Role: actor.RoleCustomer}
	token, err := r.Issue(want, time.Hour)
	require.NoError(t, err)

	got, err := r.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestJWTResolver_Rejects(t *testing.T) {
	ctx := context.Background()
	r, err := auth.NewJWTResolver("secret", "buildwise")
	require.NoError(t, err)

	other, err := auth.NewJWTResolver("other-secret", "buildwise")
	require.NoError(t, err)
	forged, err := other.Issue(actor.Actor{ID: "u1", Role: actor.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, forged)
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	expired, err := r.Issue(actor.Actor{ID: "u1", Role: actor.RoleStaff}, -time.Minute)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, expired)
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	badRole, err := r.Issue(actor.Actor{ID: "u1", Role: "janitor"}, time.Hour)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, badRole)
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	wrongIssuer, err := auth.NewJWTResolver("secret", "elsewhere")
	require.NoError(t, err)
	foreign, err := wrongIssuer.Issue(actor.Actor{ID: "u1", Role: actor.RoleStaff}, time.Hour)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, foreign)
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = r.Resolve(ctx, "not-a-jwt")
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = auth.NewJWTResolver("", "")
	require.Error(t, err)
}

func TestAPIKeyResolver(t *testing.T) {
	ctx := context.Background()
	store := newMemKeyStore()

	a := actor.Actor{ID: "svc-1", Name: "Importer", Role: actor.RoleStaff}
	token, err := auth.IssueAPIKey(ctx, store, a, "nightly import")
	require.NoError(t, err)
	require.Contains(t, token, "bw_")
	require.NotContains(t, store.keys, token)

	r := auth.NewAPIKeyResolver(store, nil)
	got, err := r.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, a, got)
	require.Equal(t, 1, store.touched)

	_, err = r.Resolve(ctx, "bw_unknown")
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = auth.IssueAPIKey(ctx, store, actor.Actor{ID: "x", Role: "root"}, "")
	require.Error(t, err)
}

type errResolver struct{ err error }

func (e errResolver) Resolve(context.Context, string) (actor.Actor, error) {
	return actor.Actor{}, e.err
}

func TestChainResolver(t *testing.T) {
	ctx := context.Background()
	staff := actor.Actor{ID: "s", Role: actor.RoleStaff}

	chain := auth.ChainResolver{errResolver{auth.ErrUnauthorized}, auth.StaticResolver{Actor: staff}}
	got, err := chain.Resolve(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, staff, got)

	_, err = chain.Resolve(ctx, " ")
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	boom := errors.New("db down")
	_, err = auth.ChainResolver{errResolver{boom}, auth.StaticResolver{Actor: staff}}.Resolve(ctx, "token")
	require.ErrorIs(t, err, boom)

	_, err = auth.ChainResolver{errResolver{auth.ErrUnauthorized}}.Resolve(ctx, "token")
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestHashToken(t *testing.T) {
	require.Equal(t, auth.HashToken("abc"), auth.HashToken("abc"))
	require.NotEqual(t, auth.HashToken("abc"), auth.HashToken("abd"))
	require.Len(t, auth.HashToken("abc"), 64)
}
