// Package payments charges invoices through an external payment provider.
package payments

import (
	"context"
	"errors"

	"github.com/wardadevcode/buildwise-backend/internal/money"
)

var (
	// ErrMissingAccessToken indicates a live gateway without credentials.
	ErrMissingAccessToken = errors.New("missing payment gateway access token")
	// ErrNotConfigured indicates a nil or uninitialized gateway.
	ErrNotConfigured = errors.New("payment gateway not configured")
)

// ChargeRequest describes a single charge.
type ChargeRequest struct {
	// Reference is our id for the charge; providers echo it back.
	Reference       string
	Description     string
	Amount          money.Money
	PayerEmail      string
	PaymentMethodID string
	Token           string
	Installments    int
}

// ChargeResult is the provider's answer.
type ChargeResult struct {
	ID           string
	Status       string
	StatusDetail string
}

// Approved reports whether the provider accepted the charge.
func (r ChargeResult) Approved() bool {
	return r.Status == "approved"
}

// Gateway charges money.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}
