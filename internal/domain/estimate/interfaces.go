package estimate

import "context"

// Repository provides persistence for the estimate series.
type Repository interface {
	// Create returns repository.ErrConflict when the project already has an
	// estimate with the same change-order number.
	Create(ctx context.Context, est *Estimate) error
	Get(ctx context.Context, id string) (*Estimate, error)
	// List returns a project's estimates ordered by change-order number.
	List(ctx context.Context, projectID string) ([]Estimate, error)
	// MaxChangeOrderNumber returns the highest number used, or 0 when none.
	MaxChangeOrderNumber(ctx context.Context, projectID string) (int, error)
	SetDocumentURL(ctx context.Context, id, url string) error
}
