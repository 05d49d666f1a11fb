// Package postgres implements the workflow repositories on PostgreSQL
// through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wardadevcode/buildwise-backend/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options tunes Open.
type Options struct {
	// MaxAttempts bounds connection attempts. Zero means 10.
	MaxAttempts int
	// RetryDelay is the pause between attempts. Zero means 2s.
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// DB wraps a gorm handle.
type DB struct {
	*gorm.DB
}

// Open connects to dsn, retrying while the server comes up, and migrates
// the schema.
func Open(ctx context.Context, dsn string, opts Options) (*DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var (
		gdb *gorm.DB
		err error
	)
	for i := 1; i <= opts.MaxAttempts; i++ {
		log.Info("connecting to postgres", "attempt", i, "max_attempts", opts.MaxAttempts)
		gdb, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
			NowFunc:        func() time.Time { return time.Now().UTC() },
		})
		if err == nil {
			break
		}
		log.Warn("postgres connection failed", "attempt", i, "error", err)
		if i == opts.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres after %d attempts: %w", opts.MaxAttempts, err)
	}

	db := &DB{gdb}
	if err := db.Migrate(ctx); err != nil {
		return nil, err
	}
	log.Info("connected to postgres")
	return db, nil
}

// Migrate creates or updates every table.
func (db *DB) Migrate(ctx context.Context) error {
	err := db.WithContext(ctx).AutoMigrate(
		&projectRow{},
		&timelineRow{},
		&estimateRow{},
		&invoiceRow{},
		&attachmentRow{},
		&apiKeyRow{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translateError maps driver failures to repository sentinels.
func translateError(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "SQLSTATE 23505"):
		return fmt.Errorf("%s: %w: %v", msg, repository.ErrConflict, err)
	case strings.Contains(err.Error(), "SQLSTATE 23503"):
		return fmt.Errorf("%s: %w: %v", msg, repository.ErrForeignKeyViolation, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func page(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
