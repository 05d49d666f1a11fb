// Package actor describes the authenticated party behind a request.
package actor

import (
	"context"
	"strings"
)

// Role identifies an actor category for authorization.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleStaff     Role = "staff"
	RoleEstimator Role = "estimator"
	RoleCustomer  Role = "customer"
	RoleAdjuster  Role = "adjuster"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleEstimator, RoleCustomer, RoleAdjuster:
		return true
	}
	return false
}

// ParseRole normalizes a role string. Unknown values return false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Actor is the authenticated caller. Name is the display name snapshot
// written into ledger entries.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// DisplayName returns Name, falling back to ID.
func (a Actor) DisplayName() string {
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	return a.ID
}

// System is used for maintenance commands run from the CLI.
var System = Actor{ID: "system", Name: "System", Role: RoleAdmin}

type actorContextKey struct{}

// WithActor stores the actor in context.
func WithActor(ctx context.Context, a Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, a)
}

// FromContext returns the actor stored in context.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	a, ok := ctx.Value(actorContextKey{}).(Actor)
	return a, ok
}
