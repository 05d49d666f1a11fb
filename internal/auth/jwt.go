package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
)

// Claims carries the actor in a signed token. Subject is the actor id.
type Claims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTResolver authenticates HS256 tokens.
type JWTResolver struct {
	secret []byte
	issuer string
}

// NewJWTResolver creates a resolver. An empty issuer accepts any issuer.
func NewJWTResolver(secret, issuer string) (*JWTResolver, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &JWTResolver{secret: []byte(secret), issuer: issuer}, nil
}

// Resolve implements Resolver.
func (r *JWTResolver) Resolve(_ context.Context, token string) (actor.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}, opts...)
	if err != nil {
		return actor.Actor{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	role, ok := actor.ParseRole(claims.Role)
	if !ok || claims.Subject == "" {
		return actor.Actor{}, fmt.Errorf("%w: missing subject or role", ErrUnauthorized)
	}
	return actor.Actor{ID: claims.Subject, Name: claims.Name, Role: role}, nil
}

// Issue signs a token for a that expires after ttl.
func (r *JWTResolver) Issue(a actor.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: a.Name,
		Role: string(a.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			Issuer:    r.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}
