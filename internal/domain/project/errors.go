package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrInvalidStatus indicates an unknown status value.
	ErrInvalidStatus = errors.New("invalid project status")
	// ErrInvalidTransition indicates a status change outside the allowed edge set.
	ErrInvalidTransition = errors.New("invalid project status transition")
	// ErrProjectLocked indicates a project that may not be deleted in its current status.
	ErrProjectLocked = errors.New("project cannot be deleted in its current status")
)
