package sqlite

import (
	"context"
	"fmt"

	"github.com/wardadevcode/buildwise-backend/internal/workflow"
)

// UnitOfWork implements workflow.UnitOfWork with a SQLite transaction.
type UnitOfWork struct {
	db *DB
}

// NewUnitOfWork creates a new UnitOfWork
func NewUnitOfWork(db *DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Repositories returns repositories bound to q.
func Repositories(q DBTX) workflow.Repositories {
	return workflow.Repositories{
		Projects:  NewProjectRepository(q),
		Timeline:  NewTimelineRepository(q),
		Estimates: NewEstimateRepository(q),
		Invoices:  NewInvoiceRepository(q),
	}
}

// Do runs fn in a transaction. Only the repositories passed to fn may be
// used inside it: the pool has a single connection, held by the transaction.
func (u *UnitOfWork) Do(ctx context.Context, fn func(r workflow.Repositories) error) (err error) {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(Repositories(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
