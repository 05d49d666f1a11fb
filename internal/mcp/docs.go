package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `buildwise tracks restoration projects from first estimate to final invoice.

Core concepts:
- Project: a job owned by one customer, optionally assigned to an insurance adjuster. Its status follows a fixed lifecycle.
- Estimate series: change order 0 is the original estimate; later change orders are numbered 1, 2, 3 without gaps.
- Timeline: an append-only ledger. Every status change, estimate, document and invoice event adds one entry; nothing is edited.
- Invoice: PENDING, OVERDUE or PAID. A PAID invoice never changes again.

Typical workflow:
1) list_projects or get_project to orient.
2) create_original_estimate on a PENDING project (moves it to ESTIMATE_READY).
3) approve_estimate as the project's customer (moves it to APPROVED).
4) set_project_status to IN_CONSTRUCTION, submit_change_order as scope grows, then COMPLETED.
5) get_timeline to audit what happened and who did it.

Money is always {amount, currency}: amount in minor units (cents), currency an ISO 4217 code.

Docs:
- buildwise://docs/lifecycle (status edges and who may take them)
- buildwise://docs/errors (error codes and how to recover)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "buildwise://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Project lifecycle",
		Description: "Allowed status transitions, the operations that drive them and the ledger entries they write.",
		Content: `# Project lifecycle

## Statuses

PENDING, ESTIMATE_READY, APPROVED, IN_CONSTRUCTION, CHANGE_ORDER_PENDING, COMPLETED, CANCELLED.
COMPLETED and CANCELLED are terminal.

## Edges

| From | To |
| --- | --- |
| PENDING | ESTIMATE_READY, CANCELLED |
| ESTIMATE_READY | APPROVED, CANCELLED |
| APPROVED | IN_CONSTRUCTION, CHANGE_ORDER_PENDING, CANCELLED |
| IN_CONSTRUCTION | CHANGE_ORDER_PENDING, COMPLETED, CANCELLED |
| CHANGE_ORDER_PENDING | IN_CONSTRUCTION, COMPLETED, CANCELLED |

Setting the status a project already has succeeds and writes nothing.
Any other edge fails with ` + "`INVALID_TRANSITION`" + ` and leaves the project unchanged.

## Operations

- ` + "`create_original_estimate`" + `: PENDING only. Stores change order 0 and moves to ESTIMATE_READY.
- ` + "`approve_estimate`" + `: ESTIMATE_READY only, by the project's customer or an admin. Writes two ledger entries: the status change and the approval.
- ` + "`submit_change_order`" + `: APPROVED, IN_CONSTRUCTION or CHANGE_ORDER_PENDING. Numbers are assigned by the server.
- ` + "`set_project_status`" + `: staff, estimators and admins. Customers approve estimates but cannot set status directly.
`,
	},
	{
		URI:         "buildwise://docs/errors",
		Name:        "docs_errors",
		Title:       "Error codes",
		Description: "Tool error codes and the usual recovery for each.",
		Content: `# Error codes

Failed tool calls return ` + "`isError: true`" + ` with a JSON body ` + "`{code, message, recovery_hint}`" + `.

| Code | Meaning |
| --- | --- |
| PROJECT_NOT_FOUND, ESTIMATE_NOT_FOUND, INVOICE_NOT_FOUND | The id does not exist. |
| INVALID_TRANSITION | The status edge is not allowed from the current status. |
| INVALID_STATE | The project status does not allow this estimate or invoice operation. |
| PROJECT_LOCKED | Projects under construction, completed, or with invoices cannot be deleted. |
| INVOICE_PAID | Paid invoices cannot be changed or deleted. |
| FORBIDDEN | The caller's role or relationship to the project does not allow the operation. |
| CONFLICT | Concurrent writers kept colliding; retrying the call is safe. |
| INVALID_INPUT | A field is missing or malformed, or currencies do not match. |
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
