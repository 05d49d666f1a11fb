package estimate

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wardadevcode/buildwise-backend/internal/money"
)

// Draft is an estimate proposal before numbering. Total is in minor units;
// Currency defaults to the project currency.
type Draft struct {
	ProjectID string
	Total     int64
	Currency  string
	LineItems []LineItem
	Notes     string
}

// Price validates a draft against the project currency and settles all
// arithmetic: missing line amounts become round(quantity * unit_price), and
// a zero total with line items becomes the line sum. The returned values are
// what gets persisted.
func Price(d Draft, projectCurrency string) (money.Money, []LineItem, error) {
	if strings.TrimSpace(d.ProjectID) == "" {
		return money.Money{}, nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}

	code := d.Currency
	if strings.TrimSpace(code) == "" {
		code = projectCurrency
	}
	total, err := money.New(d.Total, code)
	if err != nil {
		return money.Money{}, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if total.Currency != projectCurrency {
		return money.Money{}, nil, fmt.Errorf("%w: %w: estimate in %s, project in %s",
			ErrInvalidInput, money.ErrCurrencyMismatch, total.Currency, projectCurrency)
	}
	if total.Amount < 0 {
		return money.Money{}, nil, fmt.Errorf("%w: total must not be negative", ErrInvalidInput)
	}

	items := make([]LineItem, len(d.LineItems))
	lineSum := money.Zero(total.Currency)
	for i, item := range d.LineItems {
		if strings.TrimSpace(item.Description) == "" {
			return money.Money{}, nil, fmt.Errorf("%w: line item %d needs a description", ErrInvalidInput, i+1)
		}
		if item.Quantity < 0 || math.IsNaN(item.Quantity) || math.IsInf(item.Quantity, 0) ||
			item.UnitPrice < 0 || item.Amount < 0 {
			return money.Money{}, nil, fmt.Errorf("%w: line item %d has a negative or non-finite value", ErrInvalidInput, i+1)
		}
		if item.Amount == 0 && item.UnitPrice != 0 {
			amount, err := money.MultiplyRounded(item.Quantity, item.UnitPrice)
			if err != nil {
				return money.Money{}, nil, fmt.Errorf("%w: line item %d: %w", ErrInvalidInput, i+1, err)
			}
			item.Amount = amount
		}
		items[i] = item

		next, err := lineSum.Add(money.Money{Amount: item.Amount, Currency: total.Currency})
		if err != nil {
			return money.Money{}, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		lineSum = next
	}

	if total.IsZero() && len(items) > 0 {
		total = lineSum
	}
	if total.IsZero() {
		return money.Money{}, nil, fmt.Errorf("%w: total or priced line items required", ErrInvalidInput)
	}
	return total, items, nil
}

// Summarize aggregates an estimate series in the given currency.
func Summarize(estimates []Estimate, currency string) (Summary, error) {
	s := Summary{
		OriginalTotal:    money.Zero(currency),
		ChangeOrderTotal: money.Zero(currency),
		Total:            money.Zero(currency),
	}
	var errs []error
	for _, est := range estimates {
		s.Count++
		if est.IsOriginal() {
			next, err := s.OriginalTotal.Add(est.Total)
			errs = append(errs, err)
			s.OriginalTotal = next
		} else {
			if est.ChangeOrderNumber > s.LatestChangeOrder {
				s.LatestChangeOrder = est.ChangeOrderNumber
			}
			next, err := s.ChangeOrderTotal.Add(est.Total)
			errs = append(errs, err)
			s.ChangeOrderTotal = next
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Summary{}, err
	}
	total, err := s.OriginalTotal.Add(s.ChangeOrderTotal)
	if err != nil {
		return Summary{}, err
	}
	s.Total = total
	return s, nil
}
