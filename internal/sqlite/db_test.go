package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/money"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"projects",
		"timeline_events",
		"estimates",
		"invoices",
		"attachments",
		"projects_fts",
		"api_keys",
		"schema_migrations",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

func TestMigrations_Idempotent(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.RunMigrations())

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	require.Equal(t, 2, applied)
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func TestTimestampLayoutSorts(t *testing.T) {
	a := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	b := a.Add(500 * time.Millisecond)
	c := a.Add(time.Second)
	require.Less(t, ts(a), ts(b))
	require.Less(t, ts(b), ts(c))

	parsed, err := parseTS(ts(b))
	require.NoError(t, err)
	require.True(t, parsed.Equal(b))
}

// testProject inserts a PENDING project through the repository.
func testProject(t *testing.T, db *DB, id, customerID string) *project.Project {
	t.Helper()
	now := time.Now().UTC()
	proj := &project.Project{
		ID:         id,
		Name:       "Project " + id,
		CustomerID: customerID,
		Status:     project.StatusPending,
		Priority:   project.PriorityMedium,
		Currency:   "USD",
		BudgetMin:  money.Zero("USD"),
		BudgetMax:  money.Zero("USD"),
		ActualCost: money.Zero("USD"),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, NewProjectRepository(db).Create(context.Background(), proj))
	return proj
}
