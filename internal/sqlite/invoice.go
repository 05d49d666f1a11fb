package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/money"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
)

// InvoiceRepository implements invoice.Repository for SQLite
type InvoiceRepository struct {
	db DBTX
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db DBTX) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `
	id, project_id, number, amount, currency, status, due_date, paid_at,
	payment_reference, created_at, updated_at`

// Create inserts an invoice
func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `INSERT INTO invoices (` + invoiceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		inv.ID,
		nullableString(inv.ProjectID),
		inv.Number,
		inv.Amount.Amount,
		inv.Amount.Currency,
		inv.Status,
		nullableTS(inv.DueDate),
		nullableTS(inv.PaidAt),
		inv.PaymentReference,
		ts(inv.CreatedAt),
		ts(inv.UpdatedAt),
	)
	return translateError(err, "failed to create invoice")
}

// Get retrieves an invoice by ID
func (r *InvoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "failed to get invoice")
	}
	return inv, nil
}

// List returns invoices matching opts, newest first
func (r *InvoiceRepository) List(ctx context.Context, opts invoice.ListOptions) ([]invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	args := []any{}
	conditions := []string{}

	if opts.ProjectID != "" {
		conditions = append(conditions, "project_id = ?")
		args = append(args, opts.ProjectID)
	}
	if len(opts.Statuses) > 0 {
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", placeholders(len(opts.Statuses))))
		for _, s := range opts.Statuses {
			args = append(args, s)
		}
	}
	if len(conditions) > 0 {
		query += " WHERE " + joinConditions(conditions)
	}
	query += " ORDER BY created_at DESC, id"

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
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invs := []invoice.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invs = append(invs, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}
	return invs, nil
}

// Update writes inv if its stored status still equals expectedStatus and is
// not PAID.
func (r *InvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice, expectedStatus invoice.Status) error {
	query := `
		UPDATE invoices
		SET amount = ?, status = ?, due_date = ?, paid_at = ?, payment_reference = ?, updated_at = ?
		WHERE id = ? AND status = ? AND status != 'PAID'
	`
	result, err := r.db.ExecContext(ctx, query,
		inv.Amount.Amount,
		inv.Status,
		nullableTS(inv.DueDate),
		nullableTS(inv.PaidAt),
		inv.PaymentReference,
		ts(inv.UpdatedAt),
		inv.ID,
		expectedStatus,
	)
	if err != nil {
		return translateError(err, "failed to update invoice")
	}
	return r.checkGuarded(ctx, result, inv.ID)
}

// Delete removes an invoice that is not PAID
func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ? AND status != 'PAID'`, id)
	if err != nil {
		return translateError(err, "failed to delete invoice")
	}
	return r.checkGuarded(ctx, result, id)
}

// checkGuarded turns a zero-row guarded write into ErrNotFound or ErrConflict.
func (r *InvoiceRepository) checkGuarded(ctx context.Context, result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM invoices WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check invoice existence: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func scanInvoice(s scanner) (*invoice.Invoice, error) {
	var (
		inv                    invoice.Invoice
		projectID              sql.NullString
		amount                 int64
		currency               string
		dueRaw, paidRaw        sql.NullString
		createdRaw, updatedRaw string
	)
	err := s.Scan(
		&inv.ID,
		&projectID,
		&inv.Number,
		&amount,
		&currency,
		&inv.Status,
		&dueRaw,
		&paidRaw,
		&inv.PaymentReference,
		&createdRaw,
		&updatedRaw,
	)
	if err != nil {
		return nil, err
	}
	inv.ProjectID = projectID.String
	inv.Amount = money.Money{Amount: amount, Currency: currency}
	if inv.DueDate, err = parseNullTS(dueRaw); err != nil {
		return nil, err
	}
	if inv.PaidAt, err = parseNullTS(paidRaw); err != nil {
		return nil, err
	}
	if inv.CreatedAt, err = parseTS(createdRaw); err != nil {
		return nil, err
	}
	if inv.UpdatedAt, err = parseTS(updatedRaw); err != nil {
		return nil, err
	}
	return &inv, nil
}
