package transport

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
	"github.com/wardadevcode/buildwise-backend/internal/workflow"
)

type createProjectBody struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Address     string           `json:"address"`
	ClaimNumber string           `json:"claim_number"`
	CustomerID  string           `json:"customer_id"`
	AdjusterID  string           `json:"adjuster_id"`
	Priority    project.Priority `json:"priority"`
	Currency    string           `json:"currency"`
	BudgetMin   int64            `json:"budget_min"`
	BudgetMax   int64            `json:"budget_max"`
}

type updateProjectBody struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Address     *string           `json:"address"`
	ClaimNumber *string           `json:"claim_number"`
	Priority    *project.Priority `json:"priority"`
	BudgetMin   *int64            `json:"budget_min"`
	BudgetMax   *int64            `json:"budget_max"`
	ActualCost  *int64            `json:"actual_cost"`
}

type estimateBody struct {
	Total     int64               `json:"total"`
	Currency  string              `json:"currency"`
	LineItems []estimate.LineItem `json:"line_items"`
	Notes     string              `json:"notes"`
}

func (b estimateBody) draft(projectID string) estimate.Draft {
	return estimate.Draft{
		ProjectID: projectID,
		Total:     b.Total,
		Currency:  b.Currency,
		LineItems: b.LineItems,
		Notes:     b.Notes,
	}
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	limit, offset, err := page(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	opts := project.ListOptions{
		CustomerID: r.URL.Query().Get("customer_id"),
		AdjusterID: r.URL.Query().Get("adjuster_id"),
		Query:      r.URL.Query().Get("q"),
		Limit:      limit,
		Offset:     offset,
	}
	for _, st := range listParam(r, "status") {
		opts.Statuses = append(opts.Statuses, project.Status(st))
	}

	projects, err := s.Projects.List(r.Context(), a, opts)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body createProjectBody
	if err := decodeJSON(r.Body, &body); err != nil {
		WriteError(w, err)
		return
	}

	proj, err := s.Engine.CreateProject(r.Context(), a, project.CreateRequest{
		ID:          body.ID,
		Name:        body.Name,
		Description: body.Description,
		Address:     body.Address,
		ClaimNumber: body.ClaimNumber,
		CustomerID:  body.CustomerID,
		AdjusterID:  body.AdjusterID,
		Priority:    body.Priority,
		Currency:    body.Currency,
		BudgetMin:   body.BudgetMin,
		BudgetMax:   body.BudgetMax,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proj)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	proj, err := s.Projects.Get(r.Context(), a, chi.URLParam(r, "projectID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body updateProjectBody
	if err := decodeJSON(r.Body, &body); err != nil {
		WriteError(w, err)
		return
	}

	proj, err := s.Engine.UpdateProject(r.Context(), a, chi.URLParam(r, "projectID"), project.UpdateRequest(body))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := s.Projects.Delete(r.Context(), a, chi.URLParam(r, "projectID")); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) assignAdjuster(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		AdjusterID string `json:"adjuster_id"`
	}
	if err := decodeJSON(r.Body, &body); err != nil {
		WriteError(w, err)
		return
	}

	proj, err := s.Engine.AssignAdjuster(r.Context(), a, chi.URLParam(r, "projectID"), body.AdjusterID)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		Status project.Status `json:"status"`
	}
	if err := decodeJSON(r.Body, &body); err != nil {
		WriteError(w, err)
		return
	}

	proj, err := s.Engine.SetStatus(r.Context(), a, chi.URLParam(r, "projectID"), body.Status)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) listTimeline(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	projectID := chi.URLParam(r, "projectID")
	if _, err := s.Projects.Get(r.Context(), a, projectID); err != nil {
		WriteError(w, err)
		return
	}
	limit, offset, err := page(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	opts := timeline.ListOptions{
		Order:  timeline.Order(r.URL.Query().Get("order")),
		Limit:  limit,
		Offset: offset,
	}
	for _, t := range listParam(r, "type") {
		opts.Types = append(opts.Types, timeline.EventType(t))
	}

	events, err := s.Timeline.Query(r.Context(), projectID, opts)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) listEstimates(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	ests, err := s.Estimates.List(r.Context(), a, chi.URLParam(r, "projectID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ests)
}

func (s *Server) getEstimate(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	est, err := s.Estimates.Get(r.Context(), a, chi.URLParam(r, "estimateID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

type estimateFunc func(ctx context.Context, a actor.Actor, d estimate.Draft) (*workflow.EstimateResult, error)

func (s *Server) createOriginal(w http.ResponseWriter, r *http.Request) {
	s.submitEstimate(w, r, s.Engine.CreateOriginal)
}

func (s *Server) submitChangeOrder(w http.ResponseWriter, r *http.Request) {
	s.submitEstimate(w, r, s.Engine.SubmitChangeOrder)
}

func (s *Server) submitEstimate(w http.ResponseWriter, r *http.Request, submit estimateFunc) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body estimateBody
	if err := decodeJSON(r.Body, &body); err != nil {
		WriteError(w, err)
		return
	}

	res, err := submit(r.Context(), a, body.draft(chi.URLParam(r, "projectID")))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) approveEstimate(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	proj, err := s.Engine.ApproveEstimate(r.Context(), a, chi.URLParam(r, "projectID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	atts, err := s.Projects.Attachments(r.Context(), a, chi.URLParam(r, "projectID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, atts)
}

// uploadDocument accepts a multipart form with a "file" part and an optional
// "estimate_id" field.
func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, workflow.MaxDocumentSize+(1<<20))
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		WriteError(w, badRequest("invalid multipart form: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			WriteError(w, badRequest("file is required"))
			return
		}
		WriteError(w, badRequest("reading file: %v", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, badRequest("reading file: %v", err))
		return
	}

	att, err := s.Engine.AttachDocument(r.Context(), a, workflow.DocumentUpload{
		ProjectID:   chi.URLParam(r, "projectID"),
		EstimateID:  r.FormValue("estimate_id"),
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, att)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	sum, err := s.Engine.Summary(r.Context(), a, chi.URLParam(r, "projectID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
