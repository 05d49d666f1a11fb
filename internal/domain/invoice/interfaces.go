package invoice

import "context"

// Repository provides persistence for invoices.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, opts ListOptions) ([]Invoice, error)
	// Update writes inv only if the stored status equals expectedStatus and is not PAID.
	Update(ctx context.Context, inv *Invoice, expectedStatus Status) error
	// Delete removes an invoice that is not PAID.
	Delete(ctx context.Context, id string) error
}
