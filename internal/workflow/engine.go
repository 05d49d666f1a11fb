// Package workflow coordinates project lifecycle changes. Every operation
// authorizes the actor, serializes on the project, and commits its status
// change, ledger entries and related rows in one unit of work.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wardadevcode/buildwise-backend/internal/blob"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/policy"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
	"github.com/wardadevcode/buildwise-backend/internal/payments"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxConflictRetries is the number of attempts made before a
// conflict is returned to the caller.
const DefaultMaxConflictRetries = 3

// Config wires an Engine. UnitOfWork and Policy are required.
type Config struct {
	UnitOfWork UnitOfWork
	Policy     policy.Policy
	Blobs      blob.Store
	Payments   payments.Gateway
	Logger     *slog.Logger
	// Now defaults to time.Now in UTC.
	Now func() time.Time
	// NewID defaults to uuid.NewString.
	NewID              func() string
	MaxConflictRetries int
}

// Engine runs workflow operations.
type Engine struct {
	uow        UnitOfWork
	policy     policy.Policy
	blobs      blob.Store
	payments   payments.Gateway
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
	maxRetries int
	locks      *keyedMutex
	tracer     trace.Tracer
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.UnitOfWork == nil {
		return nil, errors.New("workflow: unit of work is required")
	}
	if cfg.Policy == nil {
		return nil, errors.New("workflow: policy is required")
	}
	e := &Engine{
		uow:        cfg.UnitOfWork,
		policy:     cfg.Policy,
		blobs:      cfg.Blobs,
		payments:   cfg.Payments,
		logger:     cfg.Logger,
		now:        cfg.Now,
		newID:      cfg.NewID,
		maxRetries: cfg.MaxConflictRetries,
		locks:      newKeyedMutex(),
		tracer:     otel.Tracer("buildwise/workflow"),
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.maxRetries <= 0 {
		e.maxRetries = DefaultMaxConflictRetries
	}
	return e, nil
}

// CreateProject stores a new PENDING project and records its creation.
func (e *Engine) CreateProject(ctx context.Context, a actor.Actor, req project.CreateRequest) (*project.Project, error) {
	if err := e.policy.Authorize(a, policy.OpCreateProject, policy.Scope{CustomerID: req.CustomerID, AdjusterID: req.AdjusterID}); err != nil {
		return nil, err
	}
	id := req.ID
	if id == "" {
		id = e.newID()
	}
	proj, err := project.New(req, id, e.now())
	if err != nil {
		return nil, err
	}

	err = e.atomic(ctx, "create_project", proj.ID, func(ctx context.Context, r Repositories) error {
		if err := r.Projects.Create(ctx, proj); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		return e.record(ctx, r, proj.ID, timeline.TypeCreated, a, proj.CreatedAt,
			fmt.Sprintf("Project %q created by %s", proj.Name, a.DisplayName()))
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("project created", "project_id", proj.ID, "actor_id", a.ID)
	return proj, nil
}

// UpdateProject changes project details. Status is not part of it.
func (e *Engine) UpdateProject(ctx context.Context, a actor.Actor, projectID string, req project.UpdateRequest) (*project.Project, error) {
	if req.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", project.ErrInvalidInput)
	}
	var out *project.Project
	err := e.atomic(ctx, "update_project", projectID, func(ctx context.Context, r Repositories) error {
		proj, err := loadProject(ctx, r, projectID)
		if err != nil {
			return err
		}
		if err := e.policy.Authorize(a, policy.OpUpdateProject, proj.Scope()); err != nil {
			return err
		}
		next, err := project.ApplyUpdate(*proj, req)
		if err != nil {
			return err
		}
		if err := e.save(ctx, r, proj, &next); err != nil {
			return err
		}
		if err := e.record(ctx, r, proj.ID, timeline.TypeUpdated, a, next.UpdatedAt,
			fmt.Sprintf("Project details updated by %s", a.DisplayName())); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AssignAdjuster sets or clears the project's adjuster. Re-assigning the
// current adjuster changes nothing.
func (e *Engine) AssignAdjuster(ctx context.Context, a actor.Actor, projectID, adjusterID string) (*project.Project, error) {
	adjusterID = strings.TrimSpace(adjusterID)
	var out *project.Project
	err := e.atomic(ctx, "assign_adjuster", projectID, func(ctx context.Context, r Repositories) error {
		proj, err := loadProject(ctx, r, projectID)
		if err != nil {
			return err
		}
		if err := e.policy.Authorize(a, policy.OpAssignAdjuster, proj.Scope()); err != nil {
			return err
		}
		if proj.AdjusterID == adjusterID {
			out = proj
			return nil
		}
		next := *proj
		next.AdjusterID = adjusterID
		if err := e.save(ctx, r, proj, &next); err != nil {
			return err
		}
		text := fmt.Sprintf("Adjuster %s assigned by %s", adjusterID, a.DisplayName())
		if adjusterID == "" {
			text = fmt.Sprintf("Adjuster unassigned by %s", a.DisplayName())
		}
		if err := e.record(ctx, r, proj.ID, timeline.TypeAssigned, a, next.UpdatedAt, text); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus moves a project along one allowed edge. Setting the current
// status is a no-op without a ledger entry.
func (e *Engine) SetStatus(ctx context.Context, a actor.Actor, projectID string, status project.Status) (*project.Project, error) {
	var out *project.Project
	err := e.atomic(ctx, "set_status", projectID, func(ctx context.Context, r Repositories) error {
		proj, err := loadProject(ctx, r, projectID)
		if err != nil {
			return err
		}
		if err := e.policy.Authorize(a, policy.OpSetStatus, proj.Scope()); err != nil {
			return err
		}
		if _, err := e.transition(ctx, r, proj, status, a, ""); err != nil {
			return err
		}
		out = proj
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveEstimate approves a project's ESTIMATE_READY estimate. It records
// the status change and a separate approval entry. Approving an APPROVED
// project changes nothing.
func (e *Engine) ApproveEstimate(ctx context.Context, a actor.Actor, projectID string) (*project.Project, error) {
	var out *project.Project
	err := e.atomic(ctx, "approve_estimate", projectID, func(ctx context.Context, r Repositories) error {
		proj, err := loadProject(ctx, r, projectID)
		if err != nil {
			return err
		}
		if err := e.policy.Authorize(a, policy.OpApproveEstimate, proj.Scope()); err != nil {
			return err
		}
		changed, err := e.transition(ctx, r, proj, project.StatusApproved, a, "")
		if err != nil {
			return err
		}
		if changed {
			if err := e.record(ctx, r, proj.ID, timeline.TypeApproved, a, proj.UpdatedAt,
				fmt.Sprintf("Estimate approved by %s", a.DisplayName())); err != nil {
				return err
			}
		}
		out = proj
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// atomic runs fn in a unit of work while holding the lock for key.
func (e *Engine) atomic(ctx context.Context, op, key string, fn func(ctx context.Context, r Repositories) error) error {
	return e.run(ctx, op, key, func(ctx context.Context) error {
		return e.retry(ctx, op, fn)
	})
}

// run opens a span and holds the lock for key while body executes.
func (e *Engine) run(ctx context.Context, op, key string, body func(ctx context.Context) error) error {
	ctx, span := e.tracer.Start(ctx, "workflow."+op, trace.WithAttributes(
		attribute.String("workflow.operation", op),
		attribute.String("workflow.key", key),
	))
	defer span.End()

	unlock := e.locks.Lock(key)
	defer unlock()

	err := body(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// retry re-runs fn in a fresh unit of work while storage reports a conflict.
func (e *Engine) retry(ctx context.Context, op string, fn func(ctx context.Context, r Repositories) error) error {
	var err error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err = e.uow.Do(ctx, func(r Repositories) error {
			return fn(ctx, r)
		})
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
		e.logger.Warn("workflow conflict", "operation", op, "attempt", attempt, "error", err)
	}
	return fmt.Errorf("%w: %s gave up after %d attempts", ErrConflict, op, e.maxRetries)
}

// transition applies one status change to proj inside r. It returns false
// when proj already has status to. On success proj holds the stored state.
func (e *Engine) transition(ctx context.Context, r Repositories, proj *project.Project, to project.Status, a actor.Actor, text string) (bool, error) {
	if err := project.ValidateTransition(proj.Status, to); err != nil {
		return false, err
	}
	if proj.Status == to {
		return false, nil
	}

	from := proj.Status
	next := *proj
	next.Status = to
	if err := e.save(ctx, r, proj, &next); err != nil {
		return false, err
	}
	if text == "" {
		text = fmt.Sprintf("Status changed from %s to %s by %s", from, to, a.DisplayName())
	}
	_, err := timeline.Append(ctx, r.Timeline, timeline.Entry{
		ProjectID:  proj.ID,
		Text:       text,
		Type:       timeline.TypeStatusChange,
		ActorID:    a.ID,
		ActorName:  a.DisplayName(),
		FromStatus: string(from),
		ToStatus:   string(to),
		Date:       next.UpdatedAt,
	})
	if err != nil {
		return false, err
	}
	e.logger.Info("project status changed", "project_id", proj.ID, "from", from, "to", to, "actor_id", a.ID)
	*proj = next
	return true, nil
}

// save writes next over prev with an optimistic version check.
func (e *Engine) save(ctx context.Context, r Repositories, prev, next *project.Project) error {
	next.Version = prev.Version + 1
	next.UpdatedAt = e.now()
	if err := r.Projects.Update(ctx, next, prev.Version); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return project.ErrProjectNotFound
		}
		return fmt.Errorf("updating project: %w", err)
	}
	return nil
}

func (e *Engine) record(ctx context.Context, r Repositories, projectID string, typ timeline.EventType, a actor.Actor, at time.Time, text string) error {
	_, err := timeline.Append(ctx, r.Timeline, timeline.Entry{
		ProjectID: projectID,
		Text:      text,
		Type:      typ,
		ActorID:   a.ID,
		ActorName: a.DisplayName(),
		Date:      at,
	})
	return err
}

func loadProject(ctx context.Context, r Repositories, id string) (*project.Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: project_id is required", project.ErrInvalidInput)
	}
	proj, err := r.Projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, project.ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}
