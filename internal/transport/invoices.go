package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/workflow"
)

type createInvoiceBody struct {
	ProjectID string     `json:"project_id"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
	DueDate   *time.Time `json:"due_date"`
}

type payInvoiceBody struct {
	PayerEmail      string `json:"payer_email"`
	PaymentMethodID string `json:"payment_method_id"`
	Token           string `json:"token"`
	Installments    int    `json:"installments"`
}

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
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
	opts := invoice.ListOptions{
		ProjectID: r.URL.Query().Get("project_id"),
		Limit:     limit,
		Offset:    offset,
	}
	for _, st := range listParam(r, "status") {
		opts.Statuses = append(opts.Statuses, invoice.Status(st))
	}

	invs, err := s.Invoices.List(r.Context(), a, opts)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invs)
}

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body createInvoiceBody
	if err := decodeJSON(r.Body, &body); err != nil {
		WriteError(w, err)
		return
	}

	inv, err := s.Engine.CreateInvoice(r.Context(), a, invoice.Draft(body))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	inv, err := s.Invoices.Get(r.Context(), a, chi.URLParam(r, "invoiceID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) updateInvoice(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		Amount *int64 `json:"amount"`
	}
	if err := decodeJSON(r.Body, &body); err != nil {
		WriteError(w, err)
		return
	}
	if body.Amount == nil {
		WriteError(w, badRequest("amount is required"))
		return
	}

	inv, err := s.Engine.UpdateInvoiceAmount(r.Context(), a, chi.URLParam(r, "invoiceID"), *body.Amount)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := s.Engine.DeleteInvoice(r.Context(), a, chi.URLParam(r, "invoiceID")); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) markOverdue(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	inv, err := s.Engine.MarkInvoiceOverdue(r.Context(), a, chi.URLParam(r, "invoiceID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) payInvoice(w http.ResponseWriter, r *http.Request) {
	a, err := actorFrom(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body payInvoiceBody
	if err := decodeJSON(r.Body, &body); err != nil {
		WriteError(w, err)
		return
	}

	inv, err := s.Engine.PayInvoice(r.Context(), a, chi.URLParam(r, "invoiceID"), workflow.PaymentDetails(body))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
