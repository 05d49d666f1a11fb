package invoice

import (
	"time"

	"github.com/wardadevcode/buildwise-backend/internal/money"
)

// Status is an invoice payment state.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusOverdue Status = "OVERDUE"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusPaid || s == StatusOverdue
}

// Invoice bills a project. Once PAID it is immutable.
type Invoice struct {
	ID               string      `json:"id"`
	ProjectID        string      `json:"project_id,omitempty"`
	Number           string      `json:"number"`
	Amount           money.Money `json:"amount"`
	Status           Status      `json:"status"`
	DueDate          *time.Time  `json:"due_date,omitempty"`
	PaidAt           *time.Time  `json:"paid_at,omitempty"`
	PaymentReference string      `json:"payment_reference,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// ListOptions provides filtering options for listing invoices.
type ListOptions struct {
	ProjectID string
	Statuses  []Status
	Limit     int
	Offset    int
}

// Totals aggregates invoice amounts by status.
type Totals struct {
	Invoiced    money.Money `json:"invoiced"`
	Paid        money.Money `json:"paid"`
	Outstanding money.Money `json:"outstanding"`
	Overdue     money.Money `json:"overdue"`
}
