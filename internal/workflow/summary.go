package workflow

import (
	"context"
	"fmt"

	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/policy"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
)

// ProjectSummary aggregates a project's estimates, invoices and ledger.
type ProjectSummary struct {
	Project   *project.Project `json:"project"`
	Estimates estimate.Summary `json:"estimates"`
	Invoices  invoice.Totals   `json:"invoices"`
	Events    int              `json:"events"`
	// LastEvent is the most recent ledger entry, if any.
	LastEvent *timeline.Event `json:"last_event,omitempty"`
}

// Summary reads a consistent snapshot of a project. It takes no lock.
func (e *Engine) Summary(ctx context.Context, a actor.Actor, projectID string) (*ProjectSummary, error) {
	var out *ProjectSummary
	err := e.uow.Do(ctx, func(r Repositories) error {
		proj, err := loadProject(ctx, r, projectID)
		if err != nil {
			return err
		}
		if err := e.policy.Authorize(a, policy.OpViewProject, proj.Scope()); err != nil {
			return err
		}

		ests, err := r.Estimates.List(ctx, proj.ID)
		if err != nil {
			return fmt.Errorf("listing estimates: %w", err)
		}
		estSummary, err := estimate.Summarize(ests, proj.Currency)
		if err != nil {
			return err
		}

		invs, err := r.Invoices.List(ctx, invoice.ListOptions{ProjectID: proj.ID})
		if err != nil {
			return fmt.Errorf("listing invoices: %w", err)
		}
		totals, err := invoice.Total(invs, proj.Currency)
		if err != nil {
			return err
		}

		events, err := r.Timeline.List(ctx, timeline.ListOptions{ProjectID: proj.ID, Order: timeline.OrderAsc})
		if err != nil {
			return fmt.Errorf("listing timeline: %w", err)
		}

		out = &ProjectSummary{Project: proj, Estimates: estSummary, Invoices: totals, Events: len(events)}
		if len(events) > 0 {
			last := events[len(events)-1]
			out.LastEvent = &last
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
