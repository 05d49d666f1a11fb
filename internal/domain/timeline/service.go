package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Entry describes a ledger append.
type Entry struct {
	ProjectID  string
	Text       string
	Type       EventType
	ActorID    string
	ActorName  string
	FromStatus string
	ToStatus   string
	Date       time.Time
}

// Append validates entry and writes it through repo. The repository may be
// bound to a transaction; storage errors are returned unchanged in the chain.
func Append(ctx context.Context, repo Repository, entry Entry) (*Event, error) {
	if strings.TrimSpace(entry.ProjectID) == "" || strings.TrimSpace(entry.Text) == "" {
		return nil, fmt.Errorf("%w: project_id and text are required", ErrInvalidInput)
	}
	if !entry.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, entry.Type)
	}
	if strings.TrimSpace(entry.ActorName) == "" {
		return nil, fmt.Errorf("%w: actor name is required", ErrInvalidInput)
	}

	date := entry.Date
	if date.IsZero() {
		date = time.Now()
	}
	event := &Event{
		ProjectID:  entry.ProjectID,
		Date:       date.UTC(),
		Event:      entry.Text,
		Type:       entry.Type,
		User:       entry.ActorName,
		ActorID:    entry.ActorID,
		FromStatus: entry.FromStatus,
		ToStatus:   entry.ToStatus,
	}
	if err := repo.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("appending timeline event: %w", err)
	}
	return event, nil
}

// Service handles ledger reads.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new timeline service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Query returns a project's events oldest-first unless opts.Order is OrderDesc.
func (s *Service) Query(ctx context.Context, projectID string, opts ListOptions) ([]Event, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	switch opts.Order {
	case "":
		opts.Order = OrderAsc
	case OrderAsc, OrderDesc:
	default:
		return nil, fmt.Errorf("%w: unknown order %q", ErrInvalidInput, opts.Order)
	}
	for _, t := range opts.Types {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, t)
		}
	}
	opts.ProjectID = projectID

	events, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying timeline: %w", err)
	}
	return events, nil
}
