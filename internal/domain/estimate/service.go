package estimate

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

// Service handles estimate reads. Estimates are created by the workflow engine.
type Service struct {
	repo     Repository
	projects project.Repository
	policy   policy.Policy
	logger   *slog.Logger
}

// NewService creates a new estimate service.
func NewService(repo Repository, projects project.Repository, pol policy.Policy, logger *slog.Logger) *Service {
	return &Service{repo: repo, projects: projects, policy: pol, logger: logger}
}

// Get returns an estimate if the actor may view its project.
func (s *Service) Get(ctx context.Context, a actor.Actor, id string) (*Estimate, error) {
	est, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEstimateNotFound
		}
		return nil, fmt.Errorf("getting estimate: %w", err)
	}
	if _, err := s.authorize(ctx, a, est.ProjectID); err != nil {
		return nil, err
	}
	return est, nil
}

// List returns a project's estimate series ordered by change-order number.
func (s *Service) List(ctx context.Context, a actor.Actor, projectID string) ([]Estimate, error) {
	if _, err := s.authorize(ctx, a, projectID); err != nil {
		return nil, err
	}
	ests, err := s.repo.List(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing estimates: %w", err)
	}
	return ests, nil
}

// Summary aggregates a project's estimate series.
func (s *Service) Summary(ctx context.Context, a actor.Actor, projectID string) (Summary, error) {
	proj, err := s.authorize(ctx, a, projectID)
	if err != nil {
		return Summary{}, err
	}
	ests, err := s.repo.List(ctx, projectID)
	if err != nil {
		return Summary{}, fmt.Errorf("listing estimates: %w", err)
	}
	return Summarize(ests, proj.Currency)
}

func (s *Service) authorize(ctx context.Context, a actor.Actor, projectID string) (*project.Project, error) {
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
