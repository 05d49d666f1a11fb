package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
)

// APIKey is a hashed service-account credential.
type APIKey struct {
	Hash        string
	ActorID     string
	ActorName   string
	Role        actor.Role
	Description string
	CreatedAt   time.Time
	LastUsed    *time.Time
}

// Actor returns the identity the key authenticates as.
func (k *APIKey) Actor() actor.Actor {
	return actor.Actor{ID: k.ActorID, Name: k.ActorName, Role: k.Role}
}

// APIKeyStore persists API keys by hash.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key *APIKey) error
	GetAPIKey(ctx context.Context, hash string) (*APIKey, error)
	TouchAPIKey(ctx context.Context, hash string, at time.Time) error
}

// APIKeyResolver authenticates opaque API keys.
type APIKeyResolver struct {
	store  APIKeyStore
	logger *slog.Logger
	now    func() time.Time
}

// NewAPIKeyResolver creates a resolver over store.
func NewAPIKeyResolver(store APIKeyStore, logger *slog.Logger) *APIKeyResolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &APIKeyResolver{store: store, logger: logger, now: time.Now}
}

// Resolve implements Resolver.
func (r *APIKeyResolver) Resolve(ctx context.Context, token string) (actor.Actor, error) {
	key, err := r.store.GetAPIKey(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return actor.Actor{}, ErrUnauthorized
		}
		return actor.Actor{}, fmt.Errorf("looking up api key: %w", err)
	}
	if !key.Role.Valid() {
		return actor.Actor{}, ErrUnauthorized
	}
	if err := r.store.TouchAPIKey(ctx, key.Hash, r.now()); err != nil {
		r.logger.Warn("failed to record api key use", "actor_id", key.ActorID, "error", err)
	}
	return key.Actor(), nil
}

// IssueAPIKey stores a new key for a and returns the plaintext token. The
// token is not recoverable afterwards.
func IssueAPIKey(ctx context.Context, store APIKeyStore, a actor.Actor, description string) (string, error) {
	if !a.Role.Valid() {
		return "", fmt.Errorf("unknown role %q", a.Role)
	}
	if a.ID == "" {
		return "", errors.New("actor id is required")
	}
	token, err := GenerateToken()
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	key := &APIKey{
		Hash:        HashToken(token),
		ActorID:     a.ID,
		ActorName:   a.DisplayName(),
		Role:        a.Role,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.CreateAPIKey(ctx, key); err != nil {
		return "", fmt.Errorf("storing api key: %w", err)
	}
	return token, nil
}
