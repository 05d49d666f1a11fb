package timeline

import "context"

// Repository persists ledger entries. There is no update or delete.
type Repository interface {
	Append(ctx context.Context, event *Event) error
	List(ctx context.Context, opts ListOptions) ([]Event, error)
}
