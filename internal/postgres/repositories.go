package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/wardadevcode/buildwise-backend/internal/auth"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
	"github.com/wardadevcode/buildwise-backend/internal/workflow"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repositories returns repositories bound to db, which may be a transaction.
func Repositories(db *gorm.DB) workflow.Repositories {
	return workflow.Repositories{
		Projects:  &ProjectRepository{db: db},
		Timeline:  &TimelineRepository{db: db},
		Estimates: &EstimateRepository{db: db},
		Invoices:  &InvoiceRepository{db: db},
	}
}

// ProjectRepository implements project.Repository.
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db.DB}
}

func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	row := projectToRow(proj)
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error, "failed to create project")
}

func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	var row projectRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translateError(err, "failed to get project")
	}
	proj := row.toDomain()
	return &proj, nil
}

func (r *ProjectRepository) List(ctx context.Context, opts project.ListOptions) ([]project.Project, error) {
	q := r.db.WithContext(ctx).Model(&projectRow{})
	if len(opts.Statuses) > 0 {
		statuses := make([]string, len(opts.Statuses))
		for i, s := range opts.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}
	if opts.CustomerID != "" {
		q = q.Where("customer_id = ?", opts.CustomerID)
	}
	if opts.AdjusterID != "" {
		q = q.Where("adjuster_id = ?", opts.AdjusterID)
	}
	for _, term := range strings.Fields(opts.Query) {
		like := "%" + escapeLike(term) + "%"
		q = q.Where("(name ILIKE ? OR address ILIKE ? OR description ILIKE ? OR claim_number ILIKE ?)", like, like, like, like)
	}

	var rows []projectRow
	if err := page(q.Order("updated_at DESC, id"), opts.Limit, opts.Offset).Find(&rows).Error; err != nil {
		return nil, translateError(err, "failed to list projects")
	}
	out := make([]project.Project, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// Update writes proj if the stored version still equals expectedVersion.
func (r *ProjectRepository) Update(ctx context.Context, proj *project.Project, expectedVersion int64) error {
	result := r.db.WithContext(ctx).Model(&projectRow{}).
		Where("id = ? AND version = ?", proj.ID, expectedVersion).
		Updates(map[string]any{
			"name":         proj.Name,
			"description":  proj.Description,
			"address":      proj.Address,
			"claim_number": proj.ClaimNumber,
			"adjuster_id":  proj.AdjusterID,
			"status":       string(proj.Status),
			"priority":     string(proj.Priority),
			"budget_min":   proj.BudgetMin.Amount,
			"budget_max":   proj.BudgetMax.Amount,
			"actual_cost":  proj.ActualCost.Amount,
			"version":      proj.Version,
			"updated_at":   proj.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return translateError(result.Error, "failed to update project")
	}
	if result.RowsAffected == 0 {
		return missingOrConflict(ctx, r.db, &projectRow{}, "id = ?", proj.ID)
	}
	return nil
}

// Delete removes a project unless it is in a locked status.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	locked := make([]string, len(project.LockedStatuses))
	for i, st := range project.LockedStatuses {
		locked[i] = string(st)
	}
	result := r.db.WithContext(ctx).
		Where("id = ? AND status NOT IN ?", id, locked).
		Delete(&projectRow{})
	if result.Error != nil {
		return translateError(result.Error, "failed to delete project")
	}
	if result.RowsAffected == 0 {
		return missingOrConflict(ctx, r.db, &projectRow{}, "id = ?", id)
	}
	return nil
}

func (r *ProjectRepository) AddAttachment(ctx context.Context, att *project.Attachment) error {
	row := attachmentToRow(att)
	return translateError(r.db.WithContext(ctx).Create(&row).Error, "failed to add attachment")
}

func (r *ProjectRepository) ListAttachments(ctx context.Context, projectID string) ([]project.Attachment, error) {
	var rows []attachmentRow
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at, id").Find(&rows).Error
	if err != nil {
		return nil, translateError(err, "failed to list attachments")
	}
	out := make([]project.Attachment, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// TimelineRepository implements timeline.Repository. Rows are only inserted.
type TimelineRepository struct {
	db *gorm.DB
}

// NewTimelineRepository creates a new TimelineRepository
func NewTimelineRepository(db *DB) *TimelineRepository {
	return &TimelineRepository{db: db.DB}
}

func (r *TimelineRepository) Append(ctx context.Context, event *timeline.Event) error {
	row := timelineToRow(event)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translateError(err, "failed to append timeline event")
	}
	event.ID = row.ID
	event.Date = row.Date
	return nil
}

func (r *TimelineRepository) List(ctx context.Context, opts timeline.ListOptions) ([]timeline.Event, error) {
	q := r.db.WithContext(ctx).Where("project_id = ?", opts.ProjectID)
	if len(opts.Types) > 0 {
		types := make([]string, len(opts.Types))
		for i, t := range opts.Types {
			types[i] = string(t)
		}
		q = q.Where("type IN ?", types)
	}
	if opts.Order == timeline.OrderDesc {
		q = q.Order("date DESC, id DESC")
	} else {
		q = q.Order("date ASC, id ASC")
	}

	var rows []timelineRow
	if err := page(q, opts.Limit, opts.Offset).Find(&rows).Error; err != nil {
		return nil, translateError(err, "failed to list timeline")
	}
	out := make([]timeline.Event, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// EstimateRepository implements estimate.Repository.
type EstimateRepository struct {
	db *gorm.DB
}

// NewEstimateRepository creates a new EstimateRepository
func NewEstimateRepository(db *DB) *EstimateRepository {
	return &EstimateRepository{db: db.DB}
}

func (r *EstimateRepository) Create(ctx context.Context, est *estimate.Estimate) error {
	row := estimateToRow(est)
	return translateError(r.db.WithContext(ctx).Create(&row).Error, "failed to create estimate")
}

func (r *EstimateRepository) Get(ctx context.Context, id string) (*estimate.Estimate, error) {
	var row estimateRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translateError(err, "failed to get estimate")
	}
	est := row.toDomain()
	return &est, nil
}

func (r *EstimateRepository) List(ctx context.Context, projectID string) ([]estimate.Estimate, error) {
	var rows []estimateRow
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("change_order_number").Find(&rows).Error
	if err != nil {
		return nil, translateError(err, "failed to list estimates")
	}
	out := make([]estimate.Estimate, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *EstimateRepository) MaxChangeOrderNumber(ctx context.Context, projectID string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&estimateRow{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(change_order_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, translateError(err, "failed to read max change order number")
	}
	return max, nil
}

func (r *EstimateRepository) SetDocumentURL(ctx context.Context, id, url string) error {
	result := r.db.WithContext(ctx).Model(&estimateRow{}).Where("id = ?", id).Update("document_url", url)
	if result.Error != nil {
		return translateError(result.Error, "failed to set estimate document")
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// InvoiceRepository implements invoice.Repository.
type InvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db *DB) *InvoiceRepository {
	return &InvoiceRepository{db: db.DB}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	row := invoiceToRow(inv)
	return translateError(r.db.WithContext(ctx).Create(&row).Error, "failed to create invoice")
}

func (r *InvoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	var row invoiceRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translateError(err, "failed to get invoice")
	}
	inv := row.toDomain()
	return &inv, nil
}

func (r *InvoiceRepository) List(ctx context.Context, opts invoice.ListOptions) ([]invoice.Invoice, error) {
	q := r.db.WithContext(ctx).Model(&invoiceRow{})
	if opts.ProjectID != "" {
		q = q.Where("project_id = ?", opts.ProjectID)
	}
	if len(opts.Statuses) > 0 {
		statuses := make([]string, len(opts.Statuses))
		for i, s := range opts.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}

	var rows []invoiceRow
	if err := page(q.Order("created_at DESC, id"), opts.Limit, opts.Offset).Find(&rows).Error; err != nil {
		return nil, translateError(err, "failed to list invoices")
	}
	out := make([]invoice.Invoice, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// Update writes inv if its stored status still equals expectedStatus and is
// not PAID.
func (r *InvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice, expectedStatus invoice.Status) error {
	result := r.db.WithContext(ctx).Model(&invoiceRow{}).
		Where("id = ? AND status = ? AND status <> ?", inv.ID, string(expectedStatus), string(invoice.StatusPaid)).
		Updates(map[string]any{
			"amount":            inv.Amount.Amount,
			"status":            string(inv.Status),
			"due_date":          utcPtr(inv.DueDate),
			"paid_at":           utcPtr(inv.PaidAt),
			"payment_reference": inv.PaymentReference,
			"updated_at":        inv.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return translateError(result.Error, "failed to update invoice")
	}
	if result.RowsAffected == 0 {
		return missingOrConflict(ctx, r.db, &invoiceRow{}, "id = ?", inv.ID)
	}
	return nil
}

func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status <> ?", id, string(invoice.StatusPaid)).
		Delete(&invoiceRow{})
	if result.Error != nil {
		return translateError(result.Error, "failed to delete invoice")
	}
	if result.RowsAffected == 0 {
		return missingOrConflict(ctx, r.db, &invoiceRow{}, "id = ?", id)
	}
	return nil
}

// APIKeyRepository implements auth.APIKeyStore.
type APIKeyRepository struct {
	db *gorm.DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db.DB}
}

func (r *APIKeyRepository) CreateAPIKey(ctx context.Context, key *auth.APIKey) error {
	row := apiKeyToRow(key)
	return translateError(r.db.WithContext(ctx).Create(&row).Error, "failed to create api key")
}

func (r *APIKeyRepository) GetAPIKey(ctx context.Context, hash string) (*auth.APIKey, error) {
	var row apiKeyRow
	if err := r.db.WithContext(ctx).Where("key_hash = ?", hash).Take(&row).Error; err != nil {
		return nil, translateError(err, "failed to get api key")
	}
	key := row.toDomain()
	return &key, nil
}

func (r *APIKeyRepository) TouchAPIKey(ctx context.Context, hash string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&apiKeyRow{}).Where("key_hash = ?", hash).Update("last_used", at.UTC())
	if result.Error != nil {
		return translateError(result.Error, "failed to touch api key")
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// missingOrConflict explains a guarded write that matched no rows.
func missingOrConflict(ctx context.Context, db *gorm.DB, model any, where string, args ...any) error {
	var count int64
	if err := db.WithContext(ctx).Model(model).Where(where, args...).Count(&count).Error; err != nil {
		return translateError(err, "failed to check existence")
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}
