package project

import "fmt"

// Status is a project lifecycle state.
type Status string

const (
	StatusPending            Status = "PENDING"
	StatusEstimateReady      Status = "ESTIMATE_READY"
	StatusApproved           Status = "APPROVED"
	StatusInConstruction     Status = "IN_CONSTRUCTION"
	StatusChangeOrderPending Status = "CHANGE_ORDER_PENDING"
	StatusCompleted          Status = "COMPLETED"
	StatusCancelled          Status = "CANCELLED"
)

// transitions lists the allowed edges. CANCELLED is reachable from every
// non-terminal state; COMPLETED and CANCELLED have no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending:            {StatusEstimateReady, StatusCancelled},
	StatusEstimateReady:      {StatusApproved, StatusCancelled},
	StatusApproved:           {StatusInConstruction, StatusChangeOrderPending, StatusCancelled},
	StatusInConstruction:     {StatusChangeOrderPending, StatusCompleted, StatusCancelled},
	StatusChangeOrderPending: {StatusInConstruction, StatusCompleted, StatusCancelled},
	StatusCompleted:          nil,
	StatusCancelled:          nil,
}

// Statuses returns every status in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusPending,
		StatusEstimateReady,
		StatusApproved,
		StatusInConstruction,
		StatusChangeOrderPending,
		StatusCompleted,
		StatusCancelled,
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether s has no outgoing edges.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// AllowedTransitions returns the statuses reachable from s in one step.
func AllowedTransitions(from Status) []Status {
	next := transitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError names the rejected edge.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid project status transition from %s to %s", e.From, e.To)
}

// Is lets errors.Is match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ValidateTransition checks a requested status change. Re-applying the
// current status is valid and means no change.
func ValidateTransition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
