package postgres

import (
	"time"

	"github.com/wardadevcode/buildwise-backend/internal/auth"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
	"github.com/wardadevcode/buildwise-backend/internal/money"
)

type projectRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Address     string `gorm:"size:512"`
	ClaimNumber string `gorm:"size:128"`
	CustomerID  string `gorm:"size:64;not null;index"`
	AdjusterID  string `gorm:"size:64;index"`
	Status      string `gorm:"type:varchar(32);not null;index"`
	Priority    string `gorm:"type:varchar(16);not null"`
	Currency    string `gorm:"type:char(3);not null"`
	BudgetMin   int64  `gorm:"not null;default:0"`
	BudgetMax   int64  `gorm:"not null;default:0"`
	ActualCost  int64  `gorm:"not null;default:0"`
	Version     int64  `gorm:"not null;default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Events      []timelineRow   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Estimates   []estimateRow   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Attachments []attachmentRow `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Invoices    []invoiceRow    `gorm:"foreignKey:ProjectID;constraint:OnDelete:RESTRICT"`
}

func (projectRow) TableName() string { return "projects" }

func projectToRow(p *project.Project) projectRow {
	return projectRow{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Address:     p.Address,
		ClaimNumber: p.ClaimNumber,
		CustomerID:  p.CustomerID,
		AdjusterID:  p.AdjusterID,
		Status:      string(p.Status),
		Priority:    string(p.Priority),
		Currency:    p.Currency,
		BudgetMin:   p.BudgetMin.Amount,
		BudgetMax:   p.BudgetMax.Amount,
		ActualCost:  p.ActualCost.Amount,
		Version:     p.Version,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func (r projectRow) toDomain() project.Project {
	return project.Project{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Address:     r.Address,
		ClaimNumber: r.ClaimNumber,
		CustomerID:  r.CustomerID,
		AdjusterID:  r.AdjusterID,
		Status:      project.Status(r.Status),
		Priority:    project.Priority(r.Priority),
		Currency:    r.Currency,
		BudgetMin:   money.Money{Amount: r.BudgetMin, Currency: r.Currency},
		BudgetMax:   money.Money{Amount: r.BudgetMax, Currency: r.Currency},
		ActualCost:  money.Money{Amount: r.ActualCost, Currency: r.Currency},
		Version:     r.Version,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type timelineRow struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	ProjectID  string    `gorm:"size:64;not null;index:idx_timeline_project_date,priority:1"`
	Date       time.Time `gorm:"not null;index:idx_timeline_project_date,priority:2"`
	Event      string    `gorm:"type:text;not null"`
	Type       string    `gorm:"type:varchar(32);not null"`
	UserName   string    `gorm:"size:255;not null"`
	ActorID    string    `gorm:"size:64"`
	FromStatus string    `gorm:"type:varchar(32)"`
	ToStatus   string    `gorm:"type:varchar(32)"`
}

func (timelineRow) TableName() string { return "timeline_events" }

func timelineToRow(e *timeline.Event) timelineRow {
	return timelineRow{
		ProjectID:  e.ProjectID,
		Date:       e.Date.UTC(),
		Event:      e.Event,
		Type:       string(e.Type),
		UserName:   e.User,
		ActorID:    e.ActorID,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
	}
}

func (r timelineRow) toDomain() timeline.Event {
	return timeline.Event{
		ID:         r.ID,
		ProjectID:  r.ProjectID,
		Date:       r.Date.UTC(),
		Event:      r.Event,
		Type:       timeline.EventType(r.Type),
		User:       r.UserName,
		ActorID:    r.ActorID,
		FromStatus: r.FromStatus,
		ToStatus:   r.ToStatus,
	}
}

type estimateRow struct {
	ID                string              `gorm:"primaryKey;size:64"`
	ProjectID         string              `gorm:"size:64;not null;uniqueIndex:idx_estimates_project_number,priority:1"`
	ChangeOrderNumber int                 `gorm:"not null;uniqueIndex:idx_estimates_project_number,priority:2"`
	TotalAmount       int64               `gorm:"not null"`
	Currency          string              `gorm:"type:char(3);not null"`
	LineItems         []estimate.LineItem `gorm:"type:jsonb;serializer:json"`
	Notes             string              `gorm:"type:text"`
	DocumentURL       string              `gorm:"size:1024"`
	CreatedBy         string              `gorm:"size:255;not null"`
	CreatedAt         time.Time
}

func (estimateRow) TableName() string { return "estimates" }

func estimateToRow(e *estimate.Estimate) estimateRow {
	items := e.LineItems
	if items == nil {
		items = []estimate.LineItem{}
	}
	return estimateRow{
		ID:                e.ID,
		ProjectID:         e.ProjectID,
		ChangeOrderNumber: e.ChangeOrderNumber,
		TotalAmount:       e.Total.Amount,
		Currency:          e.Total.Currency,
		LineItems:         items,
		Notes:             e.Notes,
		DocumentURL:       e.DocumentURL,
		CreatedBy:         e.CreatedBy,
		CreatedAt:         e.CreatedAt.UTC(),
	}
}

func (r estimateRow) toDomain() estimate.Estimate {
	items := r.LineItems
	if items == nil {
		items = []estimate.LineItem{}
	}
	return estimate.Estimate{
		ID:                r.ID,
		ProjectID:         r.ProjectID,
		ChangeOrderNumber: r.ChangeOrderNumber,
		Total:             money.Money{Amount: r.TotalAmount, Currency: r.Currency},
		LineItems:         items,
		Notes:             r.Notes,
		DocumentURL:       r.DocumentURL,
		CreatedBy:         r.CreatedBy,
		CreatedAt:         r.CreatedAt.UTC(),
	}
}

type invoiceRow struct {
	ID               string  `gorm:"primaryKey;size:64"`
	ProjectID        *string `gorm:"size:64;index"`
	Number           string  `gorm:"size:64;not null;uniqueIndex"`
	Amount           int64   `gorm:"not null"`
	Currency         string  `gorm:"type:char(3);not null"`
	Status           string  `gorm:"type:varchar(16);not null;index"`
	DueDate          *time.Time
	PaidAt           *time.Time
	PaymentReference string `gorm:"size:128"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (invoiceRow) TableName() string { return "invoices" }

func invoiceToRow(inv *invoice.Invoice) invoiceRow {
	row := invoiceRow{
		ID:               inv.ID,
		Number:           inv.Number,
		Amount:           inv.Amount.Amount,
		Currency:         inv.Amount.Currency,
		Status:           string(inv.Status),
		DueDate:          utcPtr(inv.DueDate),
		PaidAt:           utcPtr(inv.PaidAt),
		PaymentReference: inv.PaymentReference,
		CreatedAt:        inv.CreatedAt.UTC(),
		UpdatedAt:        inv.UpdatedAt.UTC(),
	}
	if inv.ProjectID != "" {
		pid := inv.ProjectID
		row.ProjectID = &pid
	}
	return row
}

func (r invoiceRow) toDomain() invoice.Invoice {
	inv := invoice.Invoice{
		ID:               r.ID,
		Number:           r.Number,
		Amount:           money.Money{Amount: r.Amount, Currency: r.Currency},
		Status:           invoice.Status(r.Status),
		DueDate:          utcPtr(r.DueDate),
		PaidAt:           utcPtr(r.PaidAt),
		PaymentReference: r.PaymentReference,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
	if r.ProjectID != nil {
		inv.ProjectID = *r.ProjectID
	}
	return inv
}

type attachmentRow struct {
	ID          string  `gorm:"primaryKey;size:64"`
	ProjectID   string  `gorm:"size:64;not null;index"`
	EstimateID  *string `gorm:"size:64"`
	Name        string  `gorm:"size:255;not null"`
	ContentType string  `gorm:"size:255;not null"`
	URL         string  `gorm:"size:1024;not null"`
	Size        int64   `gorm:"not null;default:0"`
	UploadedBy  string  `gorm:"size:255;not null"`
	CreatedAt   time.Time
}

func (attachmentRow) TableName() string { return "attachments" }

func attachmentToRow(a *project.Attachment) attachmentRow {
	row := attachmentRow{
		ID:          a.ID,
		ProjectID:   a.ProjectID,
		Name:        a.Name,
		ContentType: a.ContentType,
		URL:         a.URL,
		Size:        a.Size,
		UploadedBy:  a.UploadedBy,
		CreatedAt:   a.CreatedAt.UTC(),
	}
	if a.EstimateID != "" {
		eid := a.EstimateID
		row.EstimateID = &eid
	}
	return row
}

func (r attachmentRow) toDomain() project.Attachment {
	a := project.Attachment{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Name:        r.Name,
		ContentType: r.ContentType,
		URL:         r.URL,
		Size:        r.Size,
		UploadedBy:  r.UploadedBy,
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if r.EstimateID != nil {
		a.EstimateID = *r.EstimateID
	}
	return a
}

type apiKeyRow struct {
	KeyHash     string `gorm:"primaryKey;size:64"`
	ActorID     string `gorm:"size:64;not null;index"`
	ActorName   string `gorm:"size:255;not null"`
	Role        string `gorm:"type:varchar(16);not null"`
	Description string `gorm:"size:255"`
	CreatedAt   time.Time
	LastUsed    *time.Time
}

func (apiKeyRow) TableName() string { return "api_keys" }

func apiKeyToRow(k *auth.APIKey) apiKeyRow {
	return apiKeyRow{
		KeyHash:     k.Hash,
		ActorID:     k.ActorID,
		ActorName:   k.ActorName,
		Role:        string(k.Role),
		Description: k.Description,
		CreatedAt:   k.CreatedAt.UTC(),
		LastUsed:    utcPtr(k.LastUsed),
	}
}

func (r apiKeyRow) toDomain() auth.APIKey {
	return auth.APIKey{
		Hash:        r.KeyHash,
		ActorID:     r.ActorID,
		ActorName:   r.ActorName,
		Role:        actor.Role(r.Role),
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
		LastUsed:    utcPtr(r.LastUsed),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
