package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/policy"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
)

// Service handles project reads and deletion. Status and detail changes go
// through the workflow engine.
type Service struct {
	repo   Repository
	policy policy.Policy
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, pol policy.Policy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, policy: pol, logger: logger}
}

// Get fetches a project visible to the actor.
func (s *Service) Get(ctx context.Context, a actor.Actor, id string) (*Project, error) {
	proj, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(a, policy.OpViewProject, proj.Scope()); err != nil {
		return nil, err
	}
	return proj, nil
}

// List returns projects visible to the actor. Customers and adjusters only
// see their own or assigned projects regardless of the filters passed in.
func (s *Service) List(ctx context.Context, a actor.Actor, opts ListOptions) ([]Project, error) {
	switch a.Role {
	case actor.RoleCustomer:
		opts.CustomerID = a.ID
	case actor.RoleAdjuster:
		opts.AdjusterID = a.ID
	}
	if err := s.policy.Authorize(a, policy.OpViewProject, policy.Scope{CustomerID: opts.CustomerID, AdjusterID: opts.AdjusterID}); err != nil {
		return nil, err
	}
	for _, st := range opts.Statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, st)
		}
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, fmt.Errorf("%w: negative limit or offset", ErrInvalidInput)
	}

	projects, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// Attachments lists blob references stored against a project.
func (s *Service) Attachments(ctx context.Context, a actor.Actor, projectID string) ([]Attachment, error) {
	if _, err := s.Get(ctx, a, projectID); err != nil {
		return nil, err
	}
	atts, err := s.repo.ListAttachments(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	return atts, nil
}

// Delete removes a project. Projects under construction or completed are kept.
func (s *Service) Delete(ctx context.Context, a actor.Actor, id string) error {
	proj, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(a, policy.OpDeleteProject, proj.Scope()); err != nil {
		return err
	}
	if !proj.Deletable() {
		return fmt.Errorf("%w: status %s", ErrProjectLocked, proj.Status)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%w: status changed before delete", ErrProjectLocked)
		}
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return fmt.Errorf("%w: project has invoices", ErrProjectLocked)
		}
		return fmt.Errorf("deleting project: %w", err)
	}
	s.logger.Info("project deleted", "project_id", id, "actor_id", a.ID)
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}
