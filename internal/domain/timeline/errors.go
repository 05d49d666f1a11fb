package timeline

import "errors"

// ErrInvalidInput indicates a malformed ledger entry or query.
var ErrInvalidInput = errors.New("invalid timeline input")
