package postgres

import (
	"context"

	"github.com/wardadevcode/buildwise-backend/internal/workflow"
	"gorm.io/gorm"
)

// UnitOfWork implements workflow.UnitOfWork with a gorm transaction.
type UnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a new UnitOfWork
func NewUnitOfWork(db *DB) *UnitOfWork {
	return &UnitOfWork{db: db.DB}
}

// Do runs fn in a transaction. gorm rolls back on error or panic.
func (u *UnitOfWork) Do(ctx context.Context, fn func(r workflow.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repositories(tx))
	})
}
