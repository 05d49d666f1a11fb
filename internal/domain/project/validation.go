package project

import (
	"fmt"
	"strings"
	"time"

	"github.com/wardadevcode/buildwise-backend/internal/money"
)

// CreateRequest defines project creation inputs. Budgets are minor units in Currency.
type CreateRequest struct {
	ID          string
	Name        string
	Description string
	Address     string
	ClaimNumber string
	CustomerID  string
	AdjusterID  string
	Priority    Priority
	Currency    string
	BudgetMin   int64
	BudgetMax   int64
}

// UpdateRequest describes a partial update of project details. Status is
// not part of it.
type UpdateRequest struct {
	Name        *string
	Description *string
	Address     *string
	ClaimNumber *string
	Priority    *Priority
	BudgetMin   *int64
	BudgetMax   *int64
	ActualCost  *int64
}

// Empty reports whether the request changes nothing.
func (r UpdateRequest) Empty() bool {
	return r.Name == nil && r.Description == nil && r.Address == nil && r.ClaimNumber == nil &&
		r.Priority == nil && r.BudgetMin == nil && r.BudgetMax == nil && r.ActualCost == nil
}

// New validates req and builds a PENDING project.
func New(req CreateRequest, id string, now time.Time) (*Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return nil, fmt.Errorf("%w: customer_id is required", ErrInvalidInput)
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, priority)
	}

	code := req.Currency
	if strings.TrimSpace(code) == "" {
		code = money.DefaultCurrency
	}
	cur, err := money.NormalizeCurrency(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	proj := &Project{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Address:     req.Address,
		ClaimNumber: req.ClaimNumber,
		CustomerID:  req.CustomerID,
		AdjusterID:  req.AdjusterID,
		Status:      StatusPending,
		Priority:    priority,
		Currency:    cur,
		BudgetMin:   money.Money{Amount: req.BudgetMin, Currency: cur},
		BudgetMax:   money.Money{Amount: req.BudgetMax, Currency: cur},
		ActualCost:  money.Zero(cur),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateBudgets(proj); err != nil {
		return nil, err
	}
	return proj, nil
}

// ApplyUpdate returns a copy of p with the update applied and validated.
func ApplyUpdate(p Project, req UpdateRequest) (Project, error) {
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return Project{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.ClaimNumber != nil {
		p.ClaimNumber = *req.ClaimNumber
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return Project{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, *req.Priority)
		}
		p.Priority = *req.Priority
	}
	if req.BudgetMin != nil {
		p.BudgetMin = money.Money{Amount: *req.BudgetMin, Currency: p.Currency}
	}
	if req.BudgetMax != nil {
		p.BudgetMax = money.Money{Amount: *req.BudgetMax, Currency: p.Currency}
	}
	if req.ActualCost != nil {
		p.ActualCost = money.Money{Amount: *req.ActualCost, Currency: p.Currency}
	}
	if err := validateBudgets(&p); err != nil {
		return Project{}, err
	}
	return p, nil
}

func validateBudgets(p *Project) error {
	for _, m := range []money.Money{p.BudgetMin, p.BudgetMax, p.ActualCost} {
		if m.Amount < 0 {
			return fmt.Errorf("%w: amounts must not be negative", ErrInvalidInput)
		}
	}
	if p.BudgetMax.Amount > 0 && p.BudgetMax.Amount < p.BudgetMin.Amount {
		return fmt.Errorf("%w: budget_max is below budget_min", ErrInvalidInput)
	}
	return nil
}
