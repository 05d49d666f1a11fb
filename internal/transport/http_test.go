package transport_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
	"github.com/wardadevcode/buildwise-backend/internal/testserver"
	"github.com/wardadevcode/buildwise-backend/internal/transport"
	"github.com/wardadevcode/buildwise-backend/internal/workflow"
)

var (
	staff     = actor.Actor{ID: "staff1", Name: "Sam Staff", Role: actor.RoleStaff}
	estimator = actor.Actor{ID: "est1", Name: "Erin Estimator", Role: actor.RoleEstimator}
	customer  = actor.Actor{ID: "cust1", Name: "Casey Customer", Role: actor.RoleCustomer}
	stranger  = actor.Actor{ID: "cust2", Name: "Other Customer", Role: actor.RoleCustomer}
	admin     = actor.Actor{ID: "admin1", Name: "Ada Admin", Role: actor.RoleAdmin}
)

type client struct {
	t     *testing.T
	ts    *testserver.TestServer
	token string
}

type env struct {
	ts        *testserver.TestServer
	staff     client
	estimator client
	customer  client
	stranger  client
	admin     client
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ts := testserver.New(t)
	as := func(a actor.Actor) client {
		return client{t: t, ts: ts, token: ts.AddAPIKey(t, a)}
	}
	return &env{
		ts:        ts,
		staff:     as(staff),
		estimator: as(estimator),
		customer:  as(customer),
		stranger:  as(stranger),
		admin:     as(admin),
	}
}

// do sends body as JSON and returns the status and raw response body.
func (c client) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.ts.URL(path), reader)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return send(c.t, req)
}

func send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

// decode asserts the status and unmarshals the body into out.
func (c client) decode(method, path string, body any, want int, out any) {
	c.t.Helper()
	status, data := c.do(method, path, body)
	require.Equal(c.t, want, status, string(data))
	if out != nil {
		require.NoError(c.t, json.Unmarshal(data, out))
	}
}

func (c client) expectError(method, path string, body any, wantStatus int, wantCode string) {
	c.t.Helper()
	status, data := c.do(method, path, body)
	require.Equal(c.t, wantStatus, status, string(data))
	var envelope transport.ErrorBody
	require.NoError(c.t, json.Unmarshal(data, &envelope))
	require.Equal(c.t, wantCode, envelope.Error.Code)
	require.NotEmpty(c.t, envelope.Error.Message)
}

func (e *env) createProject(id string) project.Project {
	var proj project.Project
	e.staff.decode(http.MethodPost, "/api/v1/projects", map[string]any{
		"id":          id,
		"name":        "Water damage " + id,
		"address":     "12 Elm Street",
		"customer_id": customer.ID,
		"currency":    "USD",
	}, http.StatusCreated, &proj)
	return proj
}

func (e *env) approvedProject(id string) {
	e.createProject(id)
	e.estimator.decode(http.MethodPost, "/api/v1/projects/"+id+"/estimates",
		map[string]any{"total": 500000}, http.StatusCreated, nil)
	e.customer.decode(http.MethodPost, "/api/v1/projects/"+id+"/approve", nil, http.StatusOK, nil)
}

func (e *env) timeline(id string) []timeline.Event {
	var events []timeline.Event
	e.staff.decode(http.MethodGet, "/api/v1/projects/"+id+"/timeline", nil, http.StatusOK, &events)
	return events
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.ts.URL("/health"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_RejectsMissingAndUnknownTokens(t *testing.T) {
	e := newEnv(t)

	anonymous := client{t: t, ts: e.ts}
	anonymous.expectError(http.MethodGet, "/api/v1/projects", nil, http.StatusUnauthorized, transport.CodeUnauthorized)

	bogus := client{t: t, ts: e.ts, token: "bw_not-a-key"}
	bogus.expectError(http.MethodGet, "/api/v1/projects", nil, http.StatusUnauthorized, transport.CodeUnauthorized)
}

func TestProjectLifecycle(t *testing.T) {
	e := newEnv(t)
	proj := e.createProject("p1")
	require.Equal(t, project.StatusPending, proj.Status)
	require.Equal(t, "USD", proj.Currency)

	var original workflow.EstimateResult
	e.estimator.decode(http.MethodPost, "/api/v1/projects/p1/estimates", map[string]any{
		"line_items": []map[string]any{
			{"description": "Drywall", "quantity": 40, "unit": "sqft", "unit_price": 2500},
		},
	}, http.StatusCreated, &original)
	require.Equal(t, 0, original.Estimate.ChangeOrderNumber)
	require.Equal(t, int64(100000), original.Estimate.Total.Amount)
	require.Equal(t, project.StatusEstimateReady, original.Project.Status)

	// Customers approve but never set status directly.
	e.customer.expectError(http.MethodPost, "/api/v1/projects/p1/status",
		map[string]any{"status": "APPROVED"}, http.StatusForbidden, transport.CodeForbidden)

	var approved project.Project
	e.customer.decode(http.MethodPost, "/api/v1/projects/p1/approve", nil, http.StatusOK, &approved)
	require.Equal(t, project.StatusApproved, approved.Status)

	var building project.Project
	e.staff.decode(http.MethodPost, "/api/v1/projects/p1/status",
		map[string]any{"status": "IN_CONSTRUCTION"}, http.StatusOK, &building)
	require.Equal(t, project.StatusInConstruction, building.Status)

	var co workflow.EstimateResult
	e.estimator.decode(http.MethodPost, "/api/v1/projects/p1/change-orders",
		map[string]any{"total": 25000, "notes": "Extra cabinets"}, http.StatusCreated, &co)
	require.Equal(t, 1, co.Estimate.ChangeOrderNumber)
	require.Equal(t, project.StatusChangeOrderPending, co.Project.Status)

	var ests []estimate.Estimate
	e.customer.decode(http.MethodGet, "/api/v1/projects/p1/estimates", nil, http.StatusOK, &ests)
	require.Len(t, ests, 2)
	require.Equal(t, 0, ests[0].ChangeOrderNumber)
	require.Equal(t, 1, ests[1].ChangeOrderNumber)

	var est estimate.Estimate
	e.customer.decode(http.MethodGet, "/api/v1/estimates/"+co.Estimate.ID, nil, http.StatusOK, &est)
	require.Equal(t, "Extra cabinets", est.Notes)

	var summary workflow.ProjectSummary
	e.customer.decode(http.MethodGet, "/api/v1/projects/p1/summary", nil, http.StatusOK, &summary)
	require.Equal(t, int64(125000), summary.Estimates.Total.Amount)
	require.Equal(t, 1, summary.Estimates.LatestChangeOrder)

	events := e.timeline("p1")
	require.Len(t, events, 7)
	require.Equal(t, timeline.TypeCreated, events[0].Type)
	require.Equal(t, timeline.TypeApproved, events[3].Type)
	require.Equal(t, timeline.TypeChangeOrder, events[6].Type)

	var desc []timeline.Event
	e.staff.decode(http.MethodGet, "/api/v1/projects/p1/timeline?order=desc&type=STATUS_CHANGE&limit=2",
		nil, http.StatusOK, &desc)
	require.Len(t, desc, 2)
	require.Equal(t, "CHANGE_ORDER_PENDING", desc[0].ToStatus)
	require.Equal(t, "IN_CONSTRUCTION", desc[1].ToStatus)
}

func TestSetStatus_Errors(t *testing.T) {
	e := newEnv(t)
	e.createProject("p1")

	e.staff.expectError(http.MethodPost, "/api/v1/projects/p1/status",
		map[string]any{"status": "COMPLETED"}, http.StatusConflict, transport.CodeInvalidTransition)
	e.staff.expectError(http.MethodPost, "/api/v1/projects/p1/status",
		map[string]any{"status": "DONE"}, http.StatusBadRequest, transport.CodeInvalidInput)
	e.staff.expectError(http.MethodPost, "/api/v1/projects/missing/status",
		map[string]any{"status": "CANCELLED"}, http.StatusNotFound, transport.CodeProjectNotFound)

	before := len(e.timeline("p1"))
	var same project.Project
	e.staff.decode(http.MethodPost, "/api/v1/projects/p1/status",
		map[string]any{"status": "PENDING"}, http.StatusOK, &same)
	require.Equal(t, project.StatusPending, same.Status)
	require.Len(t, e.timeline("p1"), before, "same-status change writes nothing")
}

func TestProjects_Visibility(t *testing.T) {
	e := newEnv(t)
	e.createProject("p1")

	var mine []project.Project
	e.customer.decode(http.MethodGet, "/api/v1/projects", nil, http.StatusOK, &mine)
	require.Len(t, mine, 1)

	var theirs []project.Project
	e.stranger.decode(http.MethodGet, "/api/v1/projects", nil, http.StatusOK, &theirs)
	require.Empty(t, theirs)

	e.stranger.expectError(http.MethodGet, "/api/v1/projects/p1", nil, http.StatusForbidden, transport.CodeForbidden)
	e.stranger.expectError(http.MethodGet, "/api/v1/projects/p1/timeline", nil, http.StatusForbidden, transport.CodeForbidden)
}

func TestProjects_ListFilters(t *testing.T) {
	e := newEnv(t)
	e.createProject("p1")
	e.approvedProject("p2")

	var approved []project.Project
	e.staff.decode(http.MethodGet, "/api/v1/projects?status=APPROVED,COMPLETED", nil, http.StatusOK, &approved)
	require.Len(t, approved, 1)
	require.Equal(t, "p2", approved[0].ID)

	var found []project.Project
	e.staff.decode(http.MethodGet, "/api/v1/projects?q=elm", nil, http.StatusOK, &found)
	require.Len(t, found, 2)

	e.staff.expectError(http.MethodGet, "/api/v1/projects?limit=-1", nil, http.StatusBadRequest, transport.CodeInvalidInput)
	e.staff.expectError(http.MethodGet, "/api/v1/projects?status=NOPE", nil, http.StatusBadRequest, transport.CodeInvalidInput)
}

func TestProjects_UpdateAssignDelete(t *testing.T) {
	e := newEnv(t)
	e.createProject("p1")

	var updated project.Project
	e.estimator.decode(http.MethodPatch, "/api/v1/projects/p1",
		map[string]any{"name": "Basement flood", "budget_max": 900000}, http.StatusOK, &updated)
	require.Equal(t, "Basement flood", updated.Name)
	require.Equal(t, int64(900000), updated.BudgetMax.Amount)

	var assigned project.Project
	e.staff.decode(http.MethodPut, "/api/v1/projects/p1/adjuster",
		map[string]any{"adjuster_id": "adj9"}, http.StatusOK, &assigned)
	require.Equal(t, "adj9", assigned.AdjusterID)

	e.staff.expectError(http.MethodDelete, "/api/v1/projects/p1", nil, http.StatusForbidden, transport.CodeForbidden)
	status, _ := e.admin.do(http.MethodDelete, "/api/v1/projects/p1", nil)
	require.Equal(t, http.StatusNoContent, status)
	e.admin.expectError(http.MethodGet, "/api/v1/projects/p1", nil, http.StatusNotFound, transport.CodeProjectNotFound)
}

func TestProjects_RejectsMalformedBodies(t *testing.T) {
	e := newEnv(t)

	req, err := http.NewRequest(http.MethodPost, e.ts.URL("/api/v1/projects"), bytes.NewBufferString("{"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+e.staff.token)
	status, _ := send(t, req)
	require.Equal(t, http.StatusBadRequest, status)

	e.staff.expectError(http.MethodPost, "/api/v1/projects",
		map[string]any{"name": "x", "customer_id": "c", "colour": "red"}, http.StatusBadRequest, transport.CodeInvalidInput)
	e.staff.expectError(http.MethodPost, "/api/v1/projects",
		map[string]any{"customer_id": "c"}, http.StatusBadRequest, transport.CodeInvalidInput)
}

func TestDocuments_Upload(t *testing.T) {
	e := newEnv(t)
	e.createProject("p1")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "damage.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, e.ts.URL("/api/v1/projects/p1/documents"), &body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+e.customer.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, data := send(t, req)
	require.Equal(t, http.StatusCreated, status, string(data))

	var att project.Attachment
	require.NoError(t, json.Unmarshal(data, &att))
	require.Equal(t, "damage.jpg", att.Name)
	require.Equal(t, int64(len("jpeg-bytes")), att.Size)

	var atts []project.Attachment
	e.staff.decode(http.MethodGet, "/api/v1/projects/p1/documents", nil, http.StatusOK, &atts)
	require.Len(t, atts, 1)

	events := e.timeline("p1")
	require.Equal(t, timeline.TypeDocument, events[len(events)-1].Type)
}

func TestDocuments_MissingFile(t *testing.T) {
	e := newEnv(t)
	e.createProject("p1")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("estimate_id", "e1"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, e.ts.URL("/api/v1/projects/p1/documents"), &body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+e.staff.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, _ := send(t, req)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestInvoices(t *testing.T) {
	e := newEnv(t)
	e.createProject("p1")

	var inv invoice.Invoice
	e.staff.decode(http.MethodPost, "/api/v1/invoices",
		map[string]any{"project_id": "p1", "amount": 150000}, http.StatusCreated, &inv)
	require.Equal(t, invoice.StatusPending, inv.Status)
	require.Equal(t, "USD", inv.Amount.Currency)

	e.customer.expectError(http.MethodPost, "/api/v1/invoices",
		map[string]any{"project_id": "p1", "amount": 1}, http.StatusForbidden, transport.CodeForbidden)
	e.staff.expectError(http.MethodPatch, "/api/v1/invoices/"+inv.ID,
		map[string]any{}, http.StatusBadRequest, transport.CodeInvalidInput)

	var changed invoice.Invoice
	e.staff.decode(http.MethodPatch, "/api/v1/invoices/"+inv.ID,
		map[string]any{"amount": 160000}, http.StatusOK, &changed)
	require.Equal(t, int64(160000), changed.Amount.Amount)

	var overdue invoice.Invoice
	e.staff.decode(http.MethodPost, "/api/v1/invoices/"+inv.ID+"/overdue", nil, http.StatusOK, &overdue)
	require.Equal(t, invoice.StatusOverdue, overdue.Status)

	var mine []invoice.Invoice
	e.customer.decode(http.MethodGet, "/api/v1/invoices?project_id=p1&status=OVERDUE", nil, http.StatusOK, &mine)
	require.Len(t, mine, 1)

	var paid invoice.Invoice
	e.customer.decode(http.MethodPost, "/api/v1/invoices/"+inv.ID+"/pay",
		map[string]any{"payer_email": "casey@example.com"}, http.StatusOK, &paid)
	require.Equal(t, invoice.StatusPaid, paid.Status)
	require.NotEmpty(t, paid.PaymentReference)

	e.staff.expectError(http.MethodPatch, "/api/v1/invoices/"+inv.ID,
		map[string]any{"amount": 1}, http.StatusConflict, transport.CodeInvoicePaid)
	e.staff.expectError(http.MethodDelete, "/api/v1/invoices/"+inv.ID, nil, http.StatusConflict, transport.CodeInvoicePaid)

	var got invoice.Invoice
	e.customer.decode(http.MethodGet, "/api/v1/invoices/"+inv.ID, nil, http.StatusOK, &got)
	require.Equal(t, invoice.StatusPaid, got.Status)
	require.Equal(t, int64(160000), got.Amount.Amount)

	// Invoices pin the project.
	e.admin.expectError(http.MethodDelete, "/api/v1/projects/p1", nil, http.StatusConflict, transport.CodeProjectLocked)
}

func TestInvoices_DeleteUnpaid(t *testing.T) {
	e := newEnv(t)

	var inv invoice.Invoice
	e.staff.decode(http.MethodPost, "/api/v1/invoices",
		map[string]any{"amount": 5000, "currency": "EUR"}, http.StatusCreated, &inv)

	status, _ := e.staff.do(http.MethodDelete, "/api/v1/invoices/"+inv.ID, nil)
	require.Equal(t, http.StatusNoContent, status)
	e.staff.expectError(http.MethodGet, "/api/v1/invoices/"+inv.ID, nil, http.StatusNotFound, transport.CodeInvoiceNotFound)
}
