package workflow_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
	"github.com/wardadevcode/buildwise-backend/internal/workflow"
)

// conflictingProjects fails the first n updates as if another writer got
// there first.
type conflictingProjects struct {
	project.Repository
	remaining *atomic.Int32
}

func (c conflictingProjects) Update(ctx context.Context, proj *project.Project, expectedVersion int64) error {
	if c.remaining.Add(-1) >= 0 {
		return repository.ErrConflict
	}
	return c.Repository.Update(ctx, proj, expectedVersion)
}

type conflictingUnitOfWork struct {
	inner     workflow.UnitOfWork
	remaining *atomic.Int32
	calls     atomic.Int32
}

func (u *conflictingUnitOfWork) Do(ctx context.Context, fn func(r workflow.Repositories) error) error {
	u.calls.Add(1)
	return u.inner.Do(ctx, func(r workflow.Repositories) error {
		r.Projects = conflictingProjects{Repository: r.Projects, remaining: u.remaining}
		return fn(r)
	})
}

func withConflicts(n int32) (*conflictingUnitOfWork, func(cfg *workflow.Config)) {
	uow := &conflictingUnitOfWork{remaining: &atomic.Int32{}}
	return uow, func(cfg *workflow.Config) {
		uow.inner = cfg.UnitOfWork
		uow.remaining.Store(n)
		cfg.UnitOfWork = uow
	}
}

func TestRetry_RecoversFromConflict(t *testing.T) {
	uow, mutate := withConflicts(0)
	h := newHarness(t, mutate)
	h.createProject(t, "p1")

	uow.remaining.Store(2)
	uow.calls.Store(0)

	proj, err := h.engine.SetStatus(context.Background(), staff, "p1", project.StatusCancelled)
	require.NoError(t, err)
	require.Equal(t, project.StatusCancelled, proj.Status)
	require.Equal(t, int32(3), uow.calls.Load())

	// Rolled back attempts leave no trace in the ledger.
	var changes int
	for _, e := range h.events(t, "p1") {
		if e.Type == timeline.TypeStatusChange {
			changes++
		}
	}
	require.Equal(t, 1, changes)
	require.Equal(t, int64(2), h.project(t, "p1").Version)
}

func TestRetry_GivesUp(t *testing.T) {
	uow, mutate := withConflicts(0)
	h := newHarness(t, mutate, func(cfg *workflow.Config) { cfg.MaxConflictRetries = 2 })
	h.createProject(t, "p1")

	uow.remaining.Store(100)
	uow.calls.Store(0)

	_, err := h.engine.SetStatus(context.Background(), staff, "p1", project.StatusCancelled)
	require.ErrorIs(t, err, workflow.ErrConflict)
	require.Equal(t, int32(2), uow.calls.Load())
	require.Equal(t, project.StatusPending, h.project(t, "p1").Status)
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	h := newHarness(t)
	h.createProject(t, "p1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.engine.SetStatus(ctx, staff, "p1", project.StatusCancelled)
	require.ErrorIs(t, err, context.Canceled)
}
