package project

import (
	"slices"
	"time"

	"github.com/wardadevcode/buildwise-backend/internal/domain/policy"
	"github.com/wardadevcode/buildwise-backend/internal/money"
)

// Priority ranks projects for scheduling.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Project is a restoration job owned by one customer. Status is written only
// by the workflow engine; Version guards concurrent writes.
type Project struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Address     string      `json:"address,omitempty"`
	ClaimNumber string      `json:"claim_number,omitempty"`
	CustomerID  string      `json:"customer_id"`
	AdjusterID  string      `json:"adjuster_id,omitempty"`
	Status      Status      `json:"status"`
	Priority    Priority    `json:"priority"`
	Currency    string      `json:"currency"`
	BudgetMin   money.Money `json:"budget_min"`
	BudgetMax   money.Money `json:"budget_max"`
	ActualCost  money.Money `json:"actual_cost"`
	Version     int64       `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Scope returns the parties used by role policy checks.
func (p *Project) Scope() policy.Scope {
	if p == nil {
		return policy.Scope{}
	}
	return policy.Scope{CustomerID: p.CustomerID, AdjusterID: p.AdjusterID}
}

// LockedStatuses lists the statuses in which a project is never deleted.
var LockedStatuses = []Status{StatusInConstruction, StatusCompleted}

// Deletable reports whether the project may be physically removed.
func (p *Project) Deletable() bool {
	return !slices.Contains(LockedStatuses, p.Status)
}

// Attachment is a blob reference stored against a project and optionally an estimate.
type Attachment struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	EstimateID  string    `json:"estimate_id,omitempty"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListOptions provides filtering options for listing projects.
type ListOptions struct {
	Statuses   []Status
	CustomerID string
	AdjusterID string
	// Query runs a full-text match over name, address, description and claim number.
	Query  string
	Limit  int
	Offset int
}
