package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/money"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
)

func TestProjectRepository_Create(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := testProject(t, db, "p1", "cust1")

	retrieved, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, proj.ID, retrieved.ID)
	require.Equal(t, proj.Name, retrieved.Name)
	require.Equal(t, project.StatusPending, retrieved.Status)
	require.Equal(t, "USD", retrieved.BudgetMax.Currency)
	require.True(t, proj.CreatedAt.Equal(retrieved.CreatedAt))
	require.Equal(t, int64(1), retrieved.Version)
}

func TestProjectRepository_CreateDuplicate(t *testing.T) {
	db := NewTestDB(t)
	proj := testProject(t, db, "p1", "cust1")

	err := NewProjectRepository(db).Create(context.Background(), proj)
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestProjectRepository_Get(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_List(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	testProject(t, db, "p1", "cust1")
	testProject(t, db, "p2", "cust1")
	p3 := testProject(t, db, "p3", "cust2")

	p3.Status = project.StatusEstimateReady
	p3.AdjusterID = "adj1"
	p3.Version = 2
	p3.UpdatedAt = time.Now().UTC().Add(time.Minute)
	require.NoError(t, repo.Update(ctx, p3, 1))

	all, err := repo.List(ctx, project.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "p3", all[0].ID, "most recently updated first")

	byCustomer, err := repo.List(ctx, project.ListOptions{CustomerID: "cust1"})
	require.NoError(t, err)
	require.Len(t, byCustomer, 2)

	byAdjuster, err := repo.List(ctx, project.ListOptions{AdjusterID: "adj1"})
	require.NoError(t, err)
	require.Len(t, byAdjuster, 1)

	byStatus, err := repo.List(ctx, project.ListOptions{Statuses: []project.Status{project.StatusPending}})
	require.NoError(t, err)
	require.Len(t, byStatus, 2)

	page, err := repo.List(ctx, project.ListOptions{Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)

	limited, err := repo.List(ctx, project.ListOptions{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestProjectRepository_Search(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	p1 := testProject(t, db, "p1", "cust1")
	testProject(t, db, "p2", "cust1")

	p1.Name = "Kitchen water damage"
	p1.Address = "12 Elm Street"
	p1.Version = 2
	require.NoError(t, repo.Update(ctx, p1, 1))

	results, err := repo.List(ctx, project.ListOptions{Query: "kitch"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "p1", results[0].ID)

	results, err = repo.List(ctx, project.ListOptions{Query: `elm "street`})
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = repo.List(ctx, project.ListOptions{Query: "roof"})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestProjectRepository_UpdateConflict(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := testProject(t, db, "p1", "cust1")

	proj.Status = project.StatusEstimateReady
	proj.Version = 2
	require.NoError(t, repo.Update(ctx, proj, 1))

	// A writer holding the old version loses.
	stale := *proj
	stale.Status = project.StatusCancelled
	stale.Version = 2
	err := repo.Update(ctx, &stale, 1)
	require.ErrorIs(t, err, repository.ErrConflict)

	missing := *proj
	missing.ID = "missing"
	err = repo.Update(ctx, &missing, 1)
	require.ErrorIs(t, err, repository.ErrNotFound)

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, project.StatusEstimateReady, got.Status)
	require.Equal(t, int64(2), got.Version)
}

func TestProjectRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	testProject(t, db, "p1", "cust1")
	testEvent(t, db, "p1", "created", time.Now())

	require.NoError(t, repo.Delete(ctx, "p1"))

	_, err := repo.Get(ctx, "p1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	events, err := NewTimelineRepository(db).List(ctx, timelineOpts("p1"))
	require.NoError(t, err)
	require.Empty(t, events, "ledger is removed with its project")

	require.ErrorIs(t, repo.Delete(ctx, "p1"), repository.ErrNotFound)
}

func TestProjectRepository_DeleteLockedStatus(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	for _, st := range project.LockedStatuses {
		testProject(t, db, "p1", "cust1")
		testEvent(t, db, "p1", "created", time.Now())
		_, err := db.Exec(`UPDATE projects SET status = ? WHERE id = ?`, string(st), "p1")
		require.NoError(t, err)

		require.ErrorIs(t, repo.Delete(ctx, "p1"), repository.ErrConflict, st)

		got, err := repo.Get(ctx, "p1")
		require.NoError(t, err)
		require.Equal(t, st, got.Status)

		_, err = db.Exec(`UPDATE projects SET status = ? WHERE id = ?`, string(project.StatusPending), "p1")
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, "p1"))
	}
}

func TestProjectRepository_DeleteWithInvoice(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	testProject(t, db, "p1", "cust1")
	testInvoice(t, db, "inv1", "p1", 5000)

	err := repo.Delete(ctx, "p1")
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)

	_, err = repo.Get(ctx, "p1")
	require.NoError(t, err)
}

func TestProjectRepository_Attachments(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	testProject(t, db, "p1", "cust1")
	now := time.Now().UTC()

	require.NoError(t, repo.AddAttachment(ctx, &project.Attachment{
		ID: "a1", ProjectID: "p1", Name: "photo.jpg", ContentType: "image/jpeg",
		URL: "file:///tmp/photo.jpg", Size: 10, UploadedBy: "u1", CreatedAt: now,
	}))
	require.NoError(t, repo.AddAttachment(ctx, &project.Attachment{
		ID: "a2", ProjectID: "p1", Name: "scope.pdf", ContentType: "application/pdf",
		URL: "file:///tmp/scope.pdf", Size: 20, UploadedBy: "u1", CreatedAt: now.Add(time.Second),
	}))

	err := repo.AddAttachment(ctx, &project.Attachment{
		ID: "a3", ProjectID: "missing", Name: "x", ContentType: "text/plain", URL: "u", UploadedBy: "u1", CreatedAt: now,
	})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)

	atts, err := repo.ListAttachments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, atts, 2)
	require.Equal(t, "a1", atts[0].ID)
	require.Empty(t, atts[0].EstimateID)
}

func TestFTSQuery(t *testing.T) {
	require.Equal(t, "", ftsQuery("   "))
	require.Equal(t, `"water"* "damage"*`, ftsQuery("water damage"))
	require.Equal(t, `"a""b"*`, ftsQuery(`a"b`))
}

func TestScanProject_Money(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := testProject(t, db, "p1", "cust1")
	proj.BudgetMin = money.Money{Amount: 100000, Currency: "USD"}
	proj.BudgetMax = money.Money{Amount: 250000, Currency: "USD"}
	proj.Version = 2
	require.NoError(t, repo.Update(ctx, proj, 1))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, proj.BudgetMin, got.BudgetMin)
	require.Equal(t, proj.BudgetMax, got.BudgetMax)
}
