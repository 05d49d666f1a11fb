package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wardadevcode/buildwise-backend/internal/auth"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/policy"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
	"github.com/wardadevcode/buildwise-backend/internal/money"
	"github.com/wardadevcode/buildwise-backend/internal/payments"
	"github.com/wardadevcode/buildwise-backend/internal/workflow"
)

// Error codes shared by the REST and MCP surfaces.
const (
	CodeProjectNotFound   = "PROJECT_NOT_FOUND"
	CodeEstimateNotFound  = "ESTIMATE_NOT_FOUND"
	CodeInvoiceNotFound   = "INVOICE_NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInvalidState      = "INVALID_STATE"
	CodeProjectLocked     = "PROJECT_LOCKED"
	CodeInvoicePaid       = "INVOICE_PAID"
	CodeForbidden         = "FORBIDDEN"
	CodeConflict          = "CONFLICT"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodePaymentDeclined   = "PAYMENT_DECLINED"
	CodeUnavailable       = "UNAVAILABLE"
	CodeInternal          = "INTERNAL"
)

// Problem is the classification of an error for clients.
type Problem struct {
	Status int
	Code   string
}

var problems = []struct {
	target  error
	problem Problem
}{
	{project.ErrProjectNotFound, Problem{http.StatusNotFound, CodeProjectNotFound}},
	{estimate.ErrEstimateNotFound, Problem{http.StatusNotFound, CodeEstimateNotFound}},
	{invoice.ErrInvoiceNotFound, Problem{http.StatusNotFound, CodeInvoiceNotFound}},
	{project.ErrInvalidTransition, Problem{http.StatusConflict, CodeInvalidTransition}},
	{estimate.ErrInvalidState, Problem{http.StatusConflict, CodeInvalidState}},
	{invoice.ErrInvalidStatusChange, Problem{http.StatusConflict, CodeInvalidState}},
	{project.ErrProjectLocked, Problem{http.StatusConflict, CodeProjectLocked}},
	{invoice.ErrInvoicePaid, Problem{http.StatusConflict, CodeInvoicePaid}},
	{policy.ErrForbidden, Problem{http.StatusForbidden, CodeForbidden}},
	{workflow.ErrConflict, Problem{http.StatusConflict, CodeConflict}},
	{auth.ErrUnauthorized, Problem{http.StatusUnauthorized, CodeUnauthorized}},
	{invoice.ErrPaymentDeclined, Problem{http.StatusPaymentRequired, CodePaymentDeclined}},
	{payments.ErrNotConfigured, Problem{http.StatusServiceUnavailable, CodeUnavailable}},
	{project.ErrInvalidStatus, Problem{http.StatusBadRequest, CodeInvalidInput}},
	{project.ErrInvalidInput, Problem{http.StatusBadRequest, CodeInvalidInput}},
	{estimate.ErrInvalidInput, Problem{http.StatusBadRequest, CodeInvalidInput}},
	{invoice.ErrInvalidInput, Problem{http.StatusBadRequest, CodeInvalidInput}},
	{timeline.ErrInvalidInput, Problem{http.StatusBadRequest, CodeInvalidInput}},
	{workflow.ErrInvalidInput, Problem{http.StatusBadRequest, CodeInvalidInput}},
	{money.ErrInvalidCurrency, Problem{http.StatusBadRequest, CodeInvalidInput}},
	{money.ErrCurrencyMismatch, Problem{http.StatusBadRequest, CodeInvalidInput}},
	{money.ErrNegativeAmount, Problem{http.StatusBadRequest, CodeInvalidInput}},
	{money.ErrOverflow, Problem{http.StatusBadRequest, CodeInvalidInput}},
	{errBadRequest, Problem{http.StatusBadRequest, CodeInvalidInput}},
}

// Classify maps err to a status and code. Unknown errors are internal.
func Classify(err error) Problem {
	for _, p := range problems {
		if errors.Is(err, p.target) {
			return p.problem
		}
	}
	return Problem{http.StatusInternalServerError, CodeInternal}
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes err as a JSON error response. Internal errors are not
// echoed to the client.
func WriteError(w http.ResponseWriter, err error) {
	p := Classify(err)
	msg := err.Error()
	if p.Status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, p.Status, ErrorBody{Error: ErrorDetail{Code: p.Code, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON parses a request body into dst, rejecting unknown fields.
func decodeJSON(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}
