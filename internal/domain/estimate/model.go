package estimate

import (
	"time"

	"github.com/wardadevcode/buildwise-backend/internal/money"
)

// OriginalNumber is the change-order number of a project's first estimate.
const OriginalNumber = 0

// LineItem is one priced row of an estimate. Prices are minor units in the
// estimate currency.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit,omitempty"`
	UnitPrice   int64   `json:"unit_price"`
	Amount      int64   `json:"amount"`
}

// Estimate is a versioned monetary proposal. Number 0 is the original;
// change orders are numbered 1..n per project.
type Estimate struct {
	ID                string      `json:"id"`
	ProjectID         string      `json:"project_id"`
	ChangeOrderNumber int         `json:"change_order_number"`
	Total             money.Money `json:"total"`
	LineItems         []LineItem  `json:"line_items"`
	Notes             string      `json:"notes,omitempty"`
	DocumentURL       string      `json:"document_url,omitempty"`
	CreatedBy         string      `json:"created_by"`
	CreatedAt         time.Time   `json:"created_at"`
}

// IsOriginal reports whether e is the project's original estimate.
func (e *Estimate) IsOriginal() bool {
	return e.ChangeOrderNumber == OriginalNumber
}

// Summary aggregates a project's estimate series.
type Summary struct {
	Count             int         `json:"count"`
	LatestChangeOrder int         `json:"latest_change_order"`
	OriginalTotal     money.Money `json:"original_total"`
	ChangeOrderTotal  money.Money `json:"change_order_total"`
	Total             money.Money `json:"total"`
}
