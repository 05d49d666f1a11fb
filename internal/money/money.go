// Package money represents monetary values as integer minor units plus an
// ISO 4217 currency code.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
)

var (
	// ErrInvalidCurrency indicates a code that is not a recognized ISO 4217 currency.
	ErrInvalidCurrency = errors.New("invalid currency code")
	// ErrCurrencyMismatch indicates arithmetic across different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrNegativeAmount indicates a negative amount where none is allowed.
	ErrNegativeAmount = errors.New("negative amount")
	// ErrOverflow indicates an amount that does not fit in int64 minor units.
	ErrOverflow = errors.New("amount overflow")
)

// DefaultCurrency is used when a caller does not name one.
const DefaultCurrency = "USD"

// Money is an amount in minor units (cents for USD) of a currency.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// New validates the currency code and returns a normalized Money.
func New(amount int64, code string) (Money, error) {
	cur, err := NormalizeCurrency(code)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: amount, Currency: cur}, nil
}

// Zero returns a zero amount in the given currency.
func Zero(code string) Money {
	return Money{Currency: strings.ToUpper(strings.TrimSpace(code))}
}

// NormalizeCurrency upper-cases and validates an ISO 4217 code.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return unit.String(), nil
}

// Validate checks the currency code and rejects negative amounts.
func (m Money) Validate() error {
	if _, err := NormalizeCurrency(m.Currency); err != nil {
		return err
	}
	if m.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// Add returns m + other. Both values must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	if (other.Amount > 0 && m.Amount > math.MaxInt64-other.Amount) ||
		(other.Amount < 0 && m.Amount < math.MinInt64-other.Amount) {
		return Money{}, ErrOverflow
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sum adds values in the given currency. An empty list yields zero.
func Sum(code string, values ...Money) (Money, error) {
	total := Zero(code)
	for _, v := range values {
		next, err := total.Add(v)
		if err != nil {
			return Money{}, err
		}
		total = next
	}
	return total, nil
}

// Scale returns the number of minor-unit digits for the currency (2 for USD, 0 for JPY).
func Scale(code string) int {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// MultiplyRounded returns round(quantity * unitPrice) in minor units.
func MultiplyRounded(quantity float64, unitPrice int64) (int64, error) {
	v := math.Round(quantity * float64(unitPrice))
	if math.IsNaN(v) || math.IsInf(v, 0) || v >= math.MaxInt64 || v < math.MinInt64 {
		return 0, ErrOverflow
	}
	return int64(v), nil
}

// String renders the value as "USD 1234.56". Intended for logs and ledger text.
func (m Money) String() string {
	scale := Scale(m.Currency)
	amount := m.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	if scale == 0 {
		return fmt.Sprintf("%s %s%d", m.Currency, sign, amount)
	}
	div := int64(math.Pow10(scale))
	return fmt.Sprintf("%s %s%d.%0*d", m.Currency, sign, amount/div, scale, amount%div)
}
