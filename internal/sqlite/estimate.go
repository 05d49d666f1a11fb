package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/money"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
)

// EstimateRepository implements estimate.Repository for SQLite
type EstimateRepository struct {
	db DBTX
}

// NewEstimateRepository creates a new EstimateRepository
func NewEstimateRepository(db DBTX) *EstimateRepository {
	return &EstimateRepository{db: db}
}

const estimateColumns = `
	id, project_id, change_order_number, total_amount, currency, line_items,
	notes, document_url, created_by, created_at`

// Create inserts an estimate. A taken change-order number yields ErrConflict.
func (r *EstimateRepository) Create(ctx context.Context, est *estimate.Estimate) error {
	items := est.LineItems
	if items == nil {
		items = []estimate.LineItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}

	query := `INSERT INTO estimates (` + estimateColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		est.ID,
		est.ProjectID,
		est.ChangeOrderNumber,
		est.Total.Amount,
		est.Total.Currency,
		string(itemsJSON),
		est.Notes,
		est.DocumentURL,
		est.CreatedBy,
		ts(est.CreatedAt),
	)
	return translateError(err, "failed to create estimate")
}

// Get retrieves an estimate by ID
func (r *EstimateRepository) Get(ctx context.Context, id string) (*estimate.Estimate, error) {
	query := `SELECT ` + estimateColumns + ` FROM estimates WHERE id = ?`
	est, err := scanEstimate(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "failed to get estimate")
	}
	return est, nil
}

// List returns a project's estimates ordered by change-order number
func (r *EstimateRepository) List(ctx context.Context, projectID string) ([]estimate.Estimate, error) {
	query := `SELECT ` + estimateColumns + ` FROM estimates WHERE project_id = ? ORDER BY change_order_number`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	defer rows.Close()

	ests := []estimate.Estimate{}
	for rows.Next() {
		est, err := scanEstimate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		ests = append(ests, *est)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating estimates: %w", err)
	}
	return ests, nil
}

// MaxChangeOrderNumber returns the highest number in use, or 0
func (r *EstimateRepository) MaxChangeOrderNumber(ctx context.Context, projectID string) (int, error) {
	var max int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(change_order_number), 0) FROM estimates WHERE project_id = ?`, projectID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to read max change order number: %w", err)
	}
	return max, nil
}

// SetDocumentURL links a stored document to an estimate
func (r *EstimateRepository) SetDocumentURL(ctx context.Context, id, url string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE estimates SET document_url = ? WHERE id = ?`, url, id)
	if err != nil {
		return translateError(err, "failed to set estimate document")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanEstimate(s scanner) (*estimate.Estimate, error) {
	var (
		est        estimate.Estimate
		amount     int64
		currency   string
		itemsRaw   string
		createdRaw string
	)
	err := s.Scan(
		&est.ID,
		&est.ProjectID,
		&est.ChangeOrderNumber,
		&amount,
		&currency,
		&itemsRaw,
		&est.Notes,
		&est.DocumentURL,
		&est.CreatedBy,
		&createdRaw,
	)
	if err != nil {
		return nil, err
	}
	est.Total = money.Money{Amount: amount, Currency: currency}
	if err := json.Unmarshal([]byte(itemsRaw), &est.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}
	if est.CreatedAt, err = parseTS(createdRaw); err != nil {
		return nil, err
	}
	return &est, nil
}
