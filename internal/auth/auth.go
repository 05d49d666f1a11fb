// Package auth resolves bearer tokens to actors.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Resolver resolves a bearer token to an actor.
type Resolver interface {
	Resolve(ctx context.Context, token string) (actor.Actor, error)
}

// ChainResolver tries each resolver in order and returns the first match.
type ChainResolver []Resolver

// Resolve implements Resolver.
func (c ChainResolver) Resolve(ctx context.Context, token string) (actor.Actor, error) {
	if strings.TrimSpace(token) == "" {
		return actor.Actor{}, ErrUnauthorized
	}
	for _, r := range c {
		if r == nil {
			continue
		}
		a, err := r.Resolve(ctx, token)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, ErrUnauthorized) {
			return actor.Actor{}, err
		}
	}
	return actor.Actor{}, ErrUnauthorized
}

// StaticResolver always returns the same actor. It backs deployments with
// authentication disabled.
type StaticResolver struct {
	Actor actor.Actor
}

// Resolve implements Resolver.
func (s StaticResolver) Resolve(context.Context, string) (actor.Actor, error) {
	return s.Actor, nil
}

// HashToken returns the stored form of an API key.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GenerateToken returns a new random API key.
func GenerateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "bw_" + hex.EncodeToString(buf), nil
}
