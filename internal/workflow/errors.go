package workflow

import "errors"

var (
	// ErrConflict indicates concurrent writes kept winning after every retry.
	ErrConflict = errors.New("workflow conflict: concurrent modification, retry later")
	// ErrInvalidInput indicates a malformed workflow request.
	ErrInvalidInput = errors.New("invalid workflow input")
)
