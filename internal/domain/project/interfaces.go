package project

import "context"

// Repository provides persistence for projects.
type Repository interface {
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, opts ListOptions) ([]Project, error)
	// Update writes proj only if the stored version equals expectedVersion.
	Update(ctx context.Context, proj *Project, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
	AddAttachment(ctx context.Context, att *Attachment) error
	ListAttachments(ctx context.Context, projectID string) ([]Attachment, error)
}
