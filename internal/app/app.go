// Package app wires storage, domain services and authentication from
// configuration. The server entrypoint and the test server share it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wardadevcode/buildwise-backend/internal/auth"
	"github.com/wardadevcode/buildwise-backend/internal/blob"
	"github.com/wardadevcode/buildwise-backend/internal/config"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/policy"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
	"github.com/wardadevcode/buildwise-backend/internal/payments"
	"github.com/wardadevcode/buildwise-backend/internal/postgres"
	"github.com/wardadevcode/buildwise-backend/internal/sqlite"
	"github.com/wardadevcode/buildwise-backend/internal/workflow"
)

// LocalActor is the caller of every request when authentication is disabled.
var LocalActor = actor.Actor{ID: "local", Name: "Local Admin", Role: actor.RoleAdmin}

// Store is an opened persistence backend.
type Store struct {
	UnitOfWork workflow.UnitOfWork
	// Repositories run outside any transaction and back the read services.
	Repositories workflow.Repositories
	APIKeys      auth.APIKeyStore
	close        func() error
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// NewSQLiteStore wraps a migrated SQLite database.
func NewSQLiteStore(db *sqlite.DB) *Store {
	return &Store{
		UnitOfWork:   sqlite.NewUnitOfWork(db),
		Repositories: sqlite.Repositories(db),
		APIKeys:      sqlite.NewAPIKeyRepository(db),
		close:        db.Close,
	}
}

// NewPostgresStore wraps a migrated Postgres database.
func NewPostgresStore(db *postgres.DB) *Store {
	return &Store{
		UnitOfWork:   postgres.NewUnitOfWork(db),
		Repositories: postgres.Repositories(db.DB),
		APIKeys:      postgres.NewAPIKeyRepository(db),
		close:        db.Close,
	}
}

// OpenStore opens the configured backend and applies its schema.
func OpenStore(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DSN, postgres.Options{Logger: logger})
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(db), nil
	case "sqlite", "":
		if err := ensureDBDir(cfg.Path); err != nil {
			return nil, fmt.Errorf("preparing database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrationsContext(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return NewSQLiteStore(db), nil
	}
	return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
}

func ensureDBDir(path string) error {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// App holds the wired services.
type App struct {
	Engine    *workflow.Engine
	Projects  *project.Service
	Estimates *estimate.Service
	Invoices  *invoice.Service
	Timeline  *timeline.Service
	Resolver  auth.Resolver
	// JWT issues and verifies tokens. It is nil without a configured secret.
	JWT    *auth.JWTResolver
	Logger *slog.Logger
}

// Options override parts of the wiring, mainly for tests.
type Options struct {
	Policy   policy.Policy
	Payments payments.Gateway
}

// New builds the services over store.
func New(cfg *config.Config, store *Store, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pol := opts.Policy
	if pol == nil {
		pol = policy.NewRolePolicy(policy.DefaultRules())
	}

	blobs, err := blob.NewFileStore(cfg.Blob.Dir, cfg.Blob.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening blob store: %w", err)
	}

	gateway := opts.Payments
	if gateway == nil {
		mp, err := payments.NewMercadoPagoGateway(cfg.Payments.AccessToken, cfg.Payments.Mock, logger)
		if err != nil {
			return nil, fmt.Errorf("configuring payments: %w", err)
		}
		gateway = mp
	}

	engine, err := workflow.NewEngine(workflow.Config{
		UnitOfWork:         store.UnitOfWork,
		Policy:             pol,
		Blobs:              blobs,
		Payments:           gateway,
		Logger:             logger,
		MaxConflictRetries: cfg.Workflow.MaxConflictRetries,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		Engine:    engine,
		Projects:  project.NewService(store.Repositories.Projects, pol, logger),
		Estimates: estimate.NewService(store.Repositories.Estimates, store.Repositories.Projects, pol, logger),
		Invoices:  invoice.NewService(store.Repositories.Invoices, store.Repositories.Projects, pol, logger),
		Timeline:  timeline.NewService(store.Repositories.Timeline, logger),
		Logger:    logger,
	}

	if cfg.Auth.JWTSecret != "" {
		a.JWT, err = auth.NewJWTResolver(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Auth.Enabled {
		chain := auth.ChainResolver{auth.NewAPIKeyResolver(store.APIKeys, logger)}
		if a.JWT != nil {
			chain = append(chain, a.JWT)
		}
		a.Resolver = chain
	} else {
		a.Resolver = auth.StaticResolver{Actor: LocalActor}
	}

	return a, nil
}
