package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/wardadevcode/buildwise-backend/internal/money"
)

// Draft describes a new invoice. Amount is in minor units.
type Draft struct {
	ProjectID string
	Amount    int64
	Currency  string
	DueDate   *time.Time
}

// New validates d and builds a PENDING invoice. projectCurrency is empty for
// invoices without a project.
func New(d Draft, projectCurrency, id string, now time.Time) (*Invoice, error) {
	code := d.Currency
	if strings.TrimSpace(code) == "" {
		code = projectCurrency
	}
	if strings.TrimSpace(code) == "" {
		code = money.DefaultCurrency
	}
	amount, err := money.New(d.Amount, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if projectCurrency != "" && amount.Currency != projectCurrency {
		return nil, fmt.Errorf("%w: %w: invoice in %s, project in %s",
			ErrInvalidInput, money.ErrCurrencyMismatch, amount.Currency, projectCurrency)
	}
	if amount.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	return &Invoice{
		ID:        id,
		ProjectID: d.ProjectID,
		Number:    numberFor(id, now),
		Amount:    amount,
		Status:    StatusPending,
		DueDate:   d.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func numberFor(id string, now time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("INV-%s-%s", now.UTC().Format("20060102"), short)
}

// CheckMutable rejects any change to a paid invoice.
func CheckMutable(inv *Invoice) error {
	if inv.Status == StatusPaid {
		return fmt.Errorf("%w: %s", ErrInvoicePaid, inv.Number)
	}
	return nil
}

var statusChanges = map[Status][]Status{
	StatusPending: {StatusOverdue, StatusPaid},
	StatusOverdue: {StatusPending, StatusPaid},
}

// ValidateStatusChange checks from -> to. PAID has no outgoing changes.
func ValidateStatusChange(from, to Status) error {
	if from == StatusPaid {
		return ErrInvoicePaid
	}
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidStatusChange, to)
	}
	for _, s := range statusChanges[from] {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidStatusChange, from, to)
}

// Total sums invoices by status in the given currency.
func Total(invoices []Invoice, currency string) (Totals, error) {
	t := Totals{
		Invoiced:    money.Zero(currency),
		Paid:        money.Zero(currency),
		Outstanding: money.Zero(currency),
		Overdue:     money.Zero(currency),
	}
	for _, inv := range invoices {
		var err error
		if t.Invoiced, err = t.Invoiced.Add(inv.Amount); err != nil {
			return Totals{}, err
		}
		switch inv.Status {
		case StatusPaid:
			t.Paid, err = t.Paid.Add(inv.Amount)
		case StatusOverdue:
			if t.Overdue, err = t.Overdue.Add(inv.Amount); err == nil {
				t.Outstanding, err = t.Outstanding.Add(inv.Amount)
			}
		default:
			t.Outstanding, err = t.Outstanding.Add(inv.Amount)
		}
		if err != nil {
			return Totals{}, err
		}
	}
	return t, nil
}
