package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, opts project.ListOptions) ([]project.Project, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Update(ctx context.Context, proj *project.Project, expectedVersion int64) error {
	args := m.Called(ctx, proj, expectedVersion)
	return args.Error(0)
}

func (m *ProjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProjectRepository) AddAttachment(ctx context.Context, att *project.Attachment) error {
	args := m.Called(ctx, att)
	return args.Error(0)
}

func (m *ProjectRepository) ListAttachments(ctx context.Context, projectID string) ([]project.Attachment, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]project.Attachment); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// TimelineRepository is a mock for timeline.Repository.
type TimelineRepository struct {
	mock.Mock
}

func (m *TimelineRepository) Append(ctx context.Context, event *timeline.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *TimelineRepository) List(ctx context.Context, opts timeline.ListOptions) ([]timeline.Event, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]timeline.Event); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// EstimateRepository is a mock for estimate.Repository.
type EstimateRepository struct {
	mock.Mock
}

func (m *EstimateRepository) Create(ctx context.Context, est *estimate.Estimate) error {
	args := m.Called(ctx, est)
	return args.Error(0)
}

func (m *EstimateRepository) Get(ctx context.Context, id string) (*estimate.Estimate, error) {
	args := m.Called(ctx, id)
	if est, ok := args.Get(0).(*estimate.Estimate); ok {
		return est, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EstimateRepository) List(ctx context.Context, projectID string) ([]estimate.Estimate, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]estimate.Estimate); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EstimateRepository) MaxChangeOrderNumber(ctx context.Context, projectID string) (int, error) {
	args := m.Called(ctx, projectID)
	return args.Int(0), args.Error(1)
}

func (m *EstimateRepository) SetDocumentURL(ctx context.Context, id, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

// InvoiceRepository is a mock for invoice.Repository.
type InvoiceRepository struct {
	mock.Mock
}

func (m *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *InvoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	args := m.Called(ctx, id)
	if inv, ok := args.Get(0).(*invoice.Invoice); ok {
		return inv, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InvoiceRepository) List(ctx context.Context, opts invoice.ListOptions) ([]invoice.Invoice, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]invoice.Invoice); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice, expectedStatus invoice.Status) error {
	args := m.Called(ctx, inv, expectedStatus)
	return args.Error(0)
}

func (m *InvoiceRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
