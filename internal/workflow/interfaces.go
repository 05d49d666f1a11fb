package workflow

import (
	"context"

	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
)

// Repositories are bound to one transaction.
type Repositories struct {
	Projects  project.Repository
	Timeline  timeline.Repository
	Estimates estimate.Repository
	Invoices  invoice.Repository
}

// UnitOfWork runs fn in a transaction. A nil return commits; any error rolls
// back every write fn made and is returned unchanged.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repositories) error) error
}
