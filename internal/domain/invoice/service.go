package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/policy"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
)

// Service handles invoice reads. Writes go through the workflow engine.
type Service struct {
	repo     Repository
	projects project.Repository
	policy   policy.Policy
	logger   *slog.Logger
}

// NewService creates a new invoice service.
func NewService(repo Repository, projects project.Repository, pol policy.Policy, logger *slog.Logger) *Service {
	return &Service{repo: repo, projects: projects, policy: pol, logger: logger}
}

// Get returns an invoice if the actor may view it.
func (s *Service) Get(ctx context.Context, a actor.Actor, id string) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("getting invoice: %w", err)
	}
	if _, err := s.scope(ctx, a, inv.ProjectID); err != nil {
		return nil, err
	}
	return inv, nil
}

// List returns invoices for a project.
func (s *Service) List(ctx context.Context, a actor.Actor, opts ListOptions) ([]Invoice, error) {
	if _, err := s.scope(ctx, a, opts.ProjectID); err != nil {
		return nil, err
	}
	for _, st := range opts.Statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, st)
		}
	}
	invs, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return invs, nil
}

// Totals aggregates a project's invoices by status.
func (s *Service) Totals(ctx context.Context, a actor.Actor, projectID string) (Totals, error) {
	proj, err := s.scope(ctx, a, projectID)
	if err != nil {
		return Totals{}, err
	}
	invs, err := s.repo.List(ctx, ListOptions{ProjectID: projectID})
	if err != nil {
		return Totals{}, fmt.Errorf("listing invoices: %w", err)
	}
	return Total(invs, proj.Currency)
}

// scope authorizes a view of the project the invoice belongs to. Invoices
// without a project are visible to internal roles only.
func (s *Service) scope(ctx context.Context, a actor.Actor, projectID string) (*project.Project, error) {
	if projectID == "" {
		if err := s.policy.Authorize(a, policy.OpManageInvoice, policy.Scope{}); err != nil {
			return nil, err
		}
		return &project.Project{}, nil
	}
	proj, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, project.ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	if err := s.policy.Authorize(a, policy.OpViewProject, proj.Scope()); err != nil {
		return nil, err
	}
	return proj, nil
}
