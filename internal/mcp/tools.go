package mcp

import (
	"context"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
)

type ListProjectsInput struct {
	Statuses   []project.Status `json:"statuses,omitempty" jsonschema:"only projects in these statuses"`
	CustomerID string           `json:"customer_id,omitempty" jsonschema:"filter by customer id"`
	AdjusterID string           `json:"adjuster_id,omitempty" jsonschema:"filter by adjuster id"`
	Query      string           `json:"query,omitempty" jsonschema:"full-text search over name, address, description and claim number"`
	Limit      int              `json:"limit,omitempty"`
	Offset     int              `json:"offset,omitempty"`
}

type ProjectIDInput struct {
	ProjectID string `json:"project_id"`
}

type CreateProjectInput struct {
	ID          string           `json:"id,omitempty" jsonschema:"optional id, generated when empty"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Address     string           `json:"address,omitempty"`
	ClaimNumber string           `json:"claim_number,omitempty" jsonschema:"insurance claim number"`
	CustomerID  string           `json:"customer_id"`
	AdjusterID  string           `json:"adjuster_id,omitempty"`
	Priority    project.Priority `json:"priority,omitempty" jsonschema:"LOW, MEDIUM, HIGH or URGENT"`
	Currency    string           `json:"currency,omitempty" jsonschema:"ISO 4217 code"`
	BudgetMin   int64            `json:"budget_min,omitempty" jsonschema:"minor units"`
	BudgetMax   int64            `json:"budget_max,omitempty" jsonschema:"minor units"`
}

type UpdateProjectInput struct {
	ProjectID   string            `json:"project_id"`
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	Address     *string           `json:"address,omitempty"`
	ClaimNumber *string           `json:"claim_number,omitempty"`
	Priority    *project.Priority `json:"priority,omitempty"`
	BudgetMin   *int64            `json:"budget_min,omitempty"`
	BudgetMax   *int64            `json:"budget_max,omitempty"`
	ActualCost  *int64            `json:"actual_cost,omitempty"`
}

type AssignAdjusterInput struct {
	ProjectID  string `json:"project_id"`
	AdjusterID string `json:"adjuster_id"`
}

type SetStatusInput struct {
	ProjectID string         `json:"project_id"`
	Status    project.Status `json:"status"`
}

type TimelineInput struct {
	ProjectID string               `json:"project_id"`
	Order     timeline.Order       `json:"order,omitempty" jsonschema:"asc (default) or desc"`
	Types     []timeline.EventType `json:"types,omitempty"`
	Limit     int                  `json:"limit,omitempty"`
	Offset    int                  `json:"offset,omitempty"`
}

type EstimateInput struct {
	ProjectID string              `json:"project_id"`
	Total     int64               `json:"total,omitempty" jsonschema:"minor units; derived from line items when zero"`
	Currency  string              `json:"currency,omitempty" jsonschema:"must match the project currency"`
	LineItems []estimate.LineItem `json:"line_items,omitempty"`
	Notes     string              `json:"notes,omitempty"`
}

type ListInvoicesInput struct {
	ProjectID string           `json:"project_id,omitempty"`
	Statuses  []invoice.Status `json:"statuses,omitempty"`
	Limit     int              `json:"limit,omitempty"`
	Offset    int              `json:"offset,omitempty"`
}

type CreateInvoiceInput struct {
	ProjectID string `json:"project_id,omitempty"`
	Amount    int64  `json:"amount" jsonschema:"minor units"`
	Currency  string `json:"currency,omitempty" jsonschema:"defaults to the project currency"`
	DueDate   string `json:"due_date,omitempty" jsonschema:"RFC 3339 timestamp"`
}

type InvoiceIDInput struct {
	InvoiceID string `json:"invoice_id"`
}

func (in EstimateInput) draft() estimate.Draft {
	return estimate.Draft{
		ProjectID: in.ProjectID,
		Total:     in.Total,
		Currency:  in.Currency,
		LineItems: in.LineItems,
		Notes:     in.Notes,
	}
}

func registerTools(server *sdkmcp.Server, svc Services) {
	// Projects
	addTool(server, "list_projects", "List projects visible to the caller, newest activity first",
		func(ctx context.Context, a actor.Actor, in ListProjectsInput) (any, error) {
			return svc.Projects.List(ctx, a, project.ListOptions{
				Statuses:   in.Statuses,
				CustomerID: in.CustomerID,
				AdjusterID: in.AdjusterID,
				Query:      in.Query,
				Limit:      in.Limit,
				Offset:     in.Offset,
			})
		})
	addTool(server, "get_project", "Get a project by id",
		func(ctx context.Context, a actor.Actor, in ProjectIDInput) (any, error) {
			return svc.Projects.Get(ctx, a, in.ProjectID)
		})
	addTool(server, "create_project", "Create a PENDING project for a customer",
		func(ctx context.Context, a actor.Actor, in CreateProjectInput) (any, error) {
			return svc.Engine.CreateProject(ctx, a, project.CreateRequest(in))
		})
	addTool(server, "update_project", "Change project details; status is changed with set_project_status",
		func(ctx context.Context, a actor.Actor, in UpdateProjectInput) (any, error) {
			return svc.Engine.UpdateProject(ctx, a, in.ProjectID, project.UpdateRequest{
				Name:        in.Name,
				Description: in.Description,
				Address:     in.Address,
				ClaimNumber: in.ClaimNumber,
				Priority:    in.Priority,
				BudgetMin:   in.BudgetMin,
				BudgetMax:   in.BudgetMax,
				ActualCost:  in.ActualCost,
			})
		})
	addTool(server, "assign_adjuster", "Assign the insurance adjuster of a project",
		func(ctx context.Context, a actor.Actor, in AssignAdjusterInput) (any, error) {
			return svc.Engine.AssignAdjuster(ctx, a, in.ProjectID, in.AdjusterID)
		})
	addTool(server, "set_project_status", "Move a project along the lifecycle; setting the current status is a no-op",
		func(ctx context.Context, a actor.Actor, in SetStatusInput) (any, error) {
			return svc.Engine.SetStatus(ctx, a, in.ProjectID, in.Status)
		})
	addTool(server, "get_project_summary", "Estimate totals, invoice totals and the latest ledger entry of a project",
		func(ctx context.Context, a actor.Actor, in ProjectIDInput) (any, error) {
			return svc.Engine.Summary(ctx, a, in.ProjectID)
		})

	// Timeline
	addTool(server, "get_timeline", "Read a project's append-only ledger",
		func(ctx context.Context, a actor.Actor, in TimelineInput) (any, error) {
			if _, err := svc.Projects.Get(ctx, a, in.ProjectID); err != nil {
				return nil, err
			}
			return svc.Timeline.Query(ctx, in.ProjectID, timeline.ListOptions{
				Order:  in.Order,
				Types:  in.Types,
				Limit:  in.Limit,
				Offset: in.Offset,
			})
		})

	// Estimates
	addTool(server, "list_estimates", "List a project's estimates ordered by change-order number",
		func(ctx context.Context, a actor.Actor, in ProjectIDInput) (any, error) {
			return svc.Estimates.List(ctx, a, in.ProjectID)
		})
	addTool(server, "create_original_estimate", "Store estimate 0 for a PENDING project and mark it ESTIMATE_READY",
		func(ctx context.Context, a actor.Actor, in EstimateInput) (any, error) {
			return svc.Engine.CreateOriginal(ctx, a, in.draft())
		})
	addTool(server, "approve_estimate", "Approve the estimate of an ESTIMATE_READY project",
		func(ctx context.Context, a actor.Actor, in ProjectIDInput) (any, error) {
			return svc.Engine.ApproveEstimate(ctx, a, in.ProjectID)
		})
	addTool(server, "submit_change_order", "Add the next change order to an approved or in-construction project",
		func(ctx context.Context, a actor.Actor, in EstimateInput) (any, error) {
			return svc.Engine.SubmitChangeOrder(ctx, a, in.draft())
		})

	// Invoices
	addTool(server, "list_invoices", "List invoices, optionally for one project",
		func(ctx context.Context, a actor.Actor, in ListInvoicesInput) (any, error) {
			return svc.Invoices.List(ctx, a, invoice.ListOptions{
				ProjectID: in.ProjectID,
				Statuses:  in.Statuses,
				Limit:     in.Limit,
				Offset:    in.Offset,
			})
		})
	addTool(server, "create_invoice", "Issue a PENDING invoice",
		func(ctx context.Context, a actor.Actor, in CreateInvoiceInput) (any, error) {
			d := invoice.Draft{ProjectID: in.ProjectID, Amount: in.Amount, Currency: in.Currency}
			if in.DueDate != "" {
				due, err := time.Parse(time.RFC3339, in.DueDate)
				if err != nil {
					return nil, fmt.Errorf("%w: due_date: %v", invoice.ErrInvalidInput, err)
				}
				d.DueDate = &due
			}
			return svc.Engine.CreateInvoice(ctx, a, d)
		})
	addTool(server, "mark_invoice_overdue", "Mark a PENDING invoice OVERDUE",
		func(ctx context.Context, a actor.Actor, in InvoiceIDInput) (any, error) {
			return svc.Engine.MarkInvoiceOverdue(ctx, a, in.InvoiceID)
		})
}

// addTool registers a tool that runs as the request's actor. Domain errors
// become tool errors; the call itself succeeds.
func addTool[In any](server *sdkmcp.Server, name, description string, fn func(ctx context.Context, a actor.Actor, in In) (any, error)) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		sdkmcp.ToolHandlerFor[In, any](func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			a, err := callerFrom(ctx)
			if err != nil {
				return errorResult(err), nil, nil
			}
			out, err := fn(ctx, a, in)
			if err != nil {
				return errorResult(err), nil, nil
			}
			return jsonResult(out)
		}))
}
