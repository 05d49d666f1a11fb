package workflow

import (
	"context"
	"fmt"

	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/policy"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
)

// EstimateResult is the project and estimate after an estimate operation.
type EstimateResult struct {
	Project  *project.Project   `json:"project"`
	Estimate *estimate.Estimate `json:"estimate"`
}

// CreateOriginal stores change order 0 for a PENDING project and moves it to
// ESTIMATE_READY.
func (e *Engine) CreateOriginal(ctx context.Context, a actor.Actor, d estimate.Draft) (*EstimateResult, error) {
	var out *EstimateResult
	err := e.atomic(ctx, "create_original", d.ProjectID, func(ctx context.Context, r Repositories) error {
		proj, err := loadProject(ctx, r, d.ProjectID)
		if err != nil {
			return err
		}
		if err := e.policy.Authorize(a, policy.OpCreateEstimate, proj.Scope()); err != nil {
			return err
		}
		if proj.Status != project.StatusPending {
			return fmt.Errorf("%w: original estimate requires %s, project is %s",
				estimate.ErrInvalidState, project.StatusPending, proj.Status)
		}

		est, err := e.newEstimate(d, proj, estimate.OriginalNumber, a)
		if err != nil {
			return err
		}
		if err := r.Estimates.Create(ctx, est); err != nil {
			return fmt.Errorf("creating estimate: %w", err)
		}
		text := fmt.Sprintf("Original estimate of %s ready, submitted by %s", est.Total, a.DisplayName())
		if _, err := e.transition(ctx, r, proj, project.StatusEstimateReady, a, text); err != nil {
			return err
		}
		out = &EstimateResult{Project: proj, Estimate: est}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitChangeOrder stores the next change order for a project and moves it
// to CHANGE_ORDER_PENDING. Numbers are contiguous per project.
func (e *Engine) SubmitChangeOrder(ctx context.Context, a actor.Actor, d estimate.Draft) (*EstimateResult, error) {
	var out *EstimateResult
	err := e.atomic(ctx, "submit_change_order", d.ProjectID, func(ctx context.Context, r Repositories) error {
		proj, err := loadProject(ctx, r, d.ProjectID)
		if err != nil {
			return err
		}
		if err := e.policy.Authorize(a, policy.OpSubmitChangeOrder, proj.Scope()); err != nil {
			return err
		}
		if err := project.ValidateTransition(proj.Status, project.StatusChangeOrderPending); err != nil {
			return err
		}

		last, err := r.Estimates.MaxChangeOrderNumber(ctx, proj.ID)
		if err != nil {
			return fmt.Errorf("reading change order number: %w", err)
		}
		est, err := e.newEstimate(d, proj, last+1, a)
		if err != nil {
			return err
		}
		if err := r.Estimates.Create(ctx, est); err != nil {
			return fmt.Errorf("creating change order: %w", err)
		}
		if _, err := e.transition(ctx, r, proj, project.StatusChangeOrderPending, a, ""); err != nil {
			return err
		}
		if err := e.record(ctx, r, proj.ID, timeline.TypeChangeOrder, a, e.now(),
			fmt.Sprintf("Change order #%d for %s submitted by %s", est.ChangeOrderNumber, est.Total, a.DisplayName())); err != nil {
			return err
		}
		out = &EstimateResult{Project: proj, Estimate: est}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("change order submitted", "project_id", d.ProjectID, "number", out.Estimate.ChangeOrderNumber, "actor_id", a.ID)
	return out, nil
}

func (e *Engine) newEstimate(d estimate.Draft, proj *project.Project, number int, a actor.Actor) (*estimate.Estimate, error) {
	total, items, err := estimate.Price(d, proj.Currency)
	if err != nil {
		return nil, err
	}
	return &estimate.Estimate{
		ID:                e.newID(),
		ProjectID:         proj.ID,
		ChangeOrderNumber: number,
		Total:             total,
		LineItems:         items,
		Notes:             d.Notes,
		CreatedBy:         a.DisplayName(),
		CreatedAt:         e.now(),
	}, nil
}
