// Package policy provides role-based authorization decisions for workflow
// operations.
package policy

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
)

// ErrForbidden matches every authorization denial.
var ErrForbidden = errors.New("forbidden")

// Operation names an action subject to authorization.
type Operation string

const (
	OpCreateProject     Operation = "project.create"
	OpViewProject       Operation = "project.view"
	OpUpdateProject     Operation = "project.update"
	OpAssignAdjuster    Operation = "project.assign"
	OpDeleteProject     Operation = "project.delete"
	OpSetStatus         Operation = "project.set_status"
	OpCreateEstimate    Operation = "estimate.create"
	OpApproveEstimate   Operation = "estimate.approve"
	OpSubmitChangeOrder Operation = "change_order.submit"
	OpUploadAttachment  Operation = "attachment.upload"
	OpManageInvoice     Operation = "invoice.manage"
	OpPayInvoice        Operation = "invoice.pay"
)

// Scope identifies the parties attached to the project an operation targets.
type Scope struct {
	CustomerID string
	AdjusterID string
}

// Policy decides whether an actor may perform an operation.
type Policy interface {
	Authorize(a actor.Actor, op Operation, scope Scope) error
}

// Func adapts a function to Policy.
type Func func(a actor.Actor, op Operation, scope Scope) error

// Authorize calls f.
func (f Func) Authorize(a actor.Actor, op Operation, scope Scope) error {
	return f(a, op, scope)
}

// DeniedError describes a denial. It matches ErrForbidden.
type DeniedError struct {
	Operation Operation
	Role      actor.Role
	Allowed   []actor.Role
	Reason    string
}

func (e *DeniedError) Error() string {
	allowed := make([]string, 0, len(e.Allowed))
	for _, r := range e.Allowed {
		allowed = append(allowed, string(r))
	}
	msg := fmt.Sprintf("forbidden: role %q may not perform %s (allowed: %s)", e.Role, e.Operation, strings.Join(allowed, ", "))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is lets errors.Is match ErrForbidden.
func (e *DeniedError) Is(target error) bool {
	return target == ErrForbidden
}

// Rules maps operations to the non-admin roles allowed to perform them.
type Rules map[Operation][]actor.Role

// DefaultRules returns the standard grants. Admins are implicitly allowed
// everything; customer and adjuster grants only apply to their own projects.
func DefaultRules() Rules {
	return Rules{
		OpCreateProject:     {actor.RoleStaff, actor.RoleEstimator},
		OpViewProject:       {actor.RoleStaff, actor.RoleEstimator, actor.RoleCustomer, actor.RoleAdjuster},
		OpUpdateProject:     {actor.RoleStaff, actor.RoleEstimator},
		OpAssignAdjuster:    {actor.RoleStaff},
		OpDeleteProject:     nil,
		OpSetStatus:         {actor.RoleStaff, actor.RoleEstimator},
		OpCreateEstimate:    {actor.RoleStaff, actor.RoleEstimator},
		OpApproveEstimate:   {actor.RoleCustomer},
		OpSubmitChangeOrder: {actor.RoleStaff, actor.RoleEstimator},
		OpUploadAttachment:  {actor.RoleStaff, actor.RoleEstimator, actor.RoleCustomer, actor.RoleAdjuster},
		OpManageInvoice:     {actor.RoleStaff},
		OpPayInvoice:        {actor.RoleStaff, actor.RoleCustomer},
	}
}

// RolePolicy is the table-driven Policy.
type RolePolicy struct {
	rules Rules
}

// NewRolePolicy creates a policy from rules. A nil map uses DefaultRules.
func NewRolePolicy(rules Rules) *RolePolicy {
	if rules == nil {
		rules = DefaultRules()
	}
	copied := make(Rules, len(rules))
	for op, roles := range rules {
		copied[op] = slices.Clone(roles)
	}
	return &RolePolicy{rules: copied}
}

// Allowed returns every role permitted to perform op, admin first.
func (p *RolePolicy) Allowed(op Operation) []actor.Role {
	return append([]actor.Role{actor.RoleAdmin}, p.rules[op]...)
}

// Authorize implements Policy.
func (p *RolePolicy) Authorize(a actor.Actor, op Operation, scope Scope) error {
	if a.Role == actor.RoleAdmin {
		return nil
	}
	deny := func(reason string) error {
		return &DeniedError{Operation: op, Role: a.Role, Allowed: p.Allowed(op), Reason: reason}
	}
	if !a.Role.Valid() {
		return deny("unknown role")
	}
	if !slices.Contains(p.rules[op], a.Role) {
		return deny("")
	}

	switch a.Role {
	case actor.RoleCustomer:
		if scope.CustomerID == "" || scope.CustomerID != a.ID {
			return deny("not the project customer")
		}
	case actor.RoleAdjuster:
		if scope.AdjusterID == "" || scope.AdjusterID != a.ID {
			return deny("not the assigned adjuster")
		}
	}
	return nil
}
