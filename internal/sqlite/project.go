package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/money"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db DBTX
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db DBTX) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `
	p.id, p.name, p.description, p.address, p.claim_number, p.customer_id, p.adjuster_id,
	p.status, p.priority, p.currency, p.budget_min, p.budget_max, p.actual_cost,
	p.version, p.created_at, p.updated_at`

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	query := `
		INSERT INTO projects (
			id, name, description, address, claim_number, customer_id, adjuster_id,
			status, priority, currency, budget_min, budget_max, actual_cost,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		proj.Name,
		proj.Description,
		proj.Address,
		proj.ClaimNumber,
		proj.CustomerID,
		proj.AdjusterID,
		proj.Status,
		proj.Priority,
		proj.Currency,
		proj.BudgetMin.Amount,
		proj.BudgetMax.Amount,
		proj.ActualCost.Amount,
		proj.Version,
		ts(proj.CreatedAt),
		ts(proj.UpdatedAt),
	)
	return translateError(err, "failed to create project")
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.id = ?`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "failed to get project")
	}
	return proj, nil
}

// List returns projects matching opts, most recently updated first. A
// non-empty Query restricts results to full-text matches.
func (r *ProjectRepository) List(ctx context.Context, opts project.ListOptions) ([]project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p`
	args := []any{}
	conditions := []string{}

	if q := ftsQuery(opts.Query); q != "" {
		query += ` JOIN projects_fts ON projects_fts.rowid = p.rowid`
		conditions = append(conditions, "projects_fts MATCH ?")
		args = append(args, q)
	}
	if len(opts.Statuses) > 0 {
		conditions = append(conditions, fmt.Sprintf("p.status IN (%s)", placeholders(len(opts.Statuses))))
		for _, s := range opts.Statuses {
			args = append(args, s)
		}
	}
	if opts.CustomerID != "" {
		conditions = append(conditions, "p.customer_id = ?")
		args = append(args, opts.CustomerID)
	}
	if opts.AdjusterID != "" {
		conditions = append(conditions, "p.adjuster_id = ?")
		args = append(args, opts.AdjusterID)
	}

	if len(conditions) > 0 {
		query += " WHERE " + joinConditions(conditions)
	}
	query += " ORDER BY p.updated_at DESC, p.id"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []project.Project{}
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *proj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// Update writes proj with optimistic concurrency control
func (r *ProjectRepository) Update(ctx context.Context, proj *project.Project, expectedVersion int64) error {
	query := `
		UPDATE projects
		SET name = ?, description = ?, address = ?, claim_number = ?, adjuster_id = ?,
		    status = ?, priority = ?, budget_min = ?, budget_max = ?, actual_cost = ?,
		    version = ?, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		proj.Name,
		proj.Description,
		proj.Address,
		proj.ClaimNumber,
		proj.AdjusterID,
		proj.Status,
		proj.Priority,
		proj.BudgetMin.Amount,
		proj.BudgetMax.Amount,
		proj.ActualCost.Amount,
		proj.Version,
		ts(proj.UpdatedAt),
		proj.ID,
		expectedVersion,
	)
	if err != nil {
		return translateError(err, "failed to update project")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM projects WHERE id = ?)`
		if err := r.db.QueryRowContext(ctx, checkQuery, proj.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check project existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		// Project exists but version doesn't match - conflict
		return repository.ErrConflict
	}

	return nil
}

// Delete deletes a project together with its ledger, estimates and
// attachments. The status guard is part of the statement, so a project that
// reached a locked status fails with ErrConflict. Projects with invoices fail
// with ErrForeignKeyViolation.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	args := []any{id}
	for _, st := range project.LockedStatuses {
		args = append(args, string(st))
	}
	query := `DELETE FROM projects WHERE id = ? AND status NOT IN (` +
		strings.TrimSuffix(strings.Repeat("?, ", len(project.LockedStatuses)), ", ") + `)`
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err, "failed to delete project")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM projects WHERE id = ?)`
		if err := r.db.QueryRowContext(ctx, checkQuery, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check project existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	return nil
}

// AddAttachment stores an attachment reference
func (r *ProjectRepository) AddAttachment(ctx context.Context, att *project.Attachment) error {
	query := `
		INSERT INTO attachments (
			id, project_id, estimate_id, name, content_type, url, size, uploaded_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		att.ID,
		att.ProjectID,
		nullableString(att.EstimateID),
		att.Name,
		att.ContentType,
		att.URL,
		att.Size,
		att.UploadedBy,
		ts(att.CreatedAt),
	)
	return translateError(err, "failed to add attachment")
}

// ListAttachments returns a project's attachments oldest first
func (r *ProjectRepository) ListAttachments(ctx context.Context, projectID string) ([]project.Attachment, error) {
	query := `
		SELECT id, project_id, estimate_id, name, content_type, url, size, uploaded_by, created_at
		FROM attachments
		WHERE project_id = ?
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	atts := []project.Attachment{}
	for rows.Next() {
		var (
			att        project.Attachment
			estimateID sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&att.ID, &att.ProjectID, &estimateID, &att.Name, &att.ContentType,
			&att.URL, &att.Size, &att.UploadedBy, &createdRaw); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		att.EstimateID = estimateID.String
		if att.CreatedAt, err = parseTS(createdRaw); err != nil {
			return nil, err
		}
		atts = append(atts, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}
	return atts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*project.Project, error) {
	var (
		proj                       project.Project
		budgetMin, budgetMax, cost int64
		createdRaw, updatedRaw     string
	)
	err := s.Scan(
		&proj.ID,
		&proj.Name,
		&proj.Description,
		&proj.Address,
		&proj.ClaimNumber,
		&proj.CustomerID,
		&proj.AdjusterID,
		&proj.Status,
		&proj.Priority,
		&proj.Currency,
		&budgetMin,
		&budgetMax,
		&cost,
		&proj.Version,
		&createdRaw,
		&updatedRaw,
	)
	if err != nil {
		return nil, err
	}
	proj.BudgetMin = money.Money{Amount: budgetMin, Currency: proj.Currency}
	proj.BudgetMax = money.Money{Amount: budgetMax, Currency: proj.Currency}
	proj.ActualCost = money.Money{Amount: cost, Currency: proj.Currency}
	if proj.CreatedAt, err = parseTS(createdRaw); err != nil {
		return nil, err
	}
	if proj.UpdatedAt, err = parseTS(updatedRaw); err != nil {
		return nil, err
	}
	return &proj, nil
}

// ftsQuery turns free text into an FTS5 query of quoted prefix terms.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		terms = append(terms, `"`+f+`"*`)
	}
	return strings.Join(terms, " ")
}

func joinConditions(conditions []string) string {
	return strings.Join(conditions, " AND ")
}
