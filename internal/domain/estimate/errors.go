package estimate

import "errors"

var (
	// ErrEstimateNotFound indicates the estimate doesn't exist.
	ErrEstimateNotFound = errors.New("estimate not found")
	// ErrInvalidInput indicates malformed monetary or line-item input.
	ErrInvalidInput = errors.New("invalid estimate input")
	// ErrInvalidState indicates the project status does not allow the estimate operation.
	ErrInvalidState = errors.New("project status does not allow this estimate operation")
)
