package invoice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/policy"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/money"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
	"github.com/wardadevcode/buildwise-backend/internal/repository/mocks"
)

var (
	staff    = actor.Actor{ID: "staff-1", Role: actor.RoleStaff}
	owner    = actor.Actor{ID: "cust-1", Role: actor.RoleCustomer}
	stranger = actor.Actor{ID: "cust-2", Role: actor.RoleCustomer}
)

func usd(amount int64) money.Money {
	return money.Money{Amount: amount, Currency: "USD"}
}

func newInvoiceService(t *testing.T) (*invoice.Service, *mocks.InvoiceRepository) {
	t.Helper()
	projects := &mocks.ProjectRepository{}
	projects.On("Get", context.Background(), "p1").Return(&project.Project{
		ID:         "p1",
		CustomerID: owner.ID,
		Status:     project.StatusCompleted,
		Currency:   "USD",
	}, nil)
	projects.On("Get", context.Background(), "missing").Return((*project.Project)(nil), repository.ErrNotFound)

	repo := &mocks.InvoiceRepository{}
	return invoice.NewService(repo, projects, policy.NewRolePolicy(nil), nil), repo
}

func TestInvoiceService_Totals(t *testing.T) {
	ctx := context.Background()
	svc, repo := newInvoiceService(t)
	repo.On("List", ctx, invoice.ListOptions{ProjectID: "p1"}).Return([]invoice.Invoice{
		{ID: "i1", ProjectID: "p1", Amount: usd(50000), Status: invoice.StatusPaid},
		{ID: "i2", ProjectID: "p1", Amount: usd(30000), Status: invoice.StatusOverdue},
		{ID: "i3", ProjectID: "p1", Amount: usd(20000), Status: invoice.StatusPending},
	}, nil)

	totals, err := svc.Totals(ctx, owner, "p1")
	require.NoError(t, err)
	require.Equal(t, usd(100000), totals.Invoiced)
	require.Equal(t, usd(50000), totals.Paid)
	require.Equal(t, usd(50000), totals.Outstanding)
	require.Equal(t, usd(30000), totals.Overdue)
}

func TestInvoiceService_ListAuthorization(t *testing.T) {
	ctx := context.Background()
	svc, repo := newInvoiceService(t)
	opts := invoice.ListOptions{ProjectID: "p1", Statuses: []invoice.Status{invoice.StatusPending}}
	repo.On("List", ctx, opts).Return([]invoice.Invoice{{ID: "i3", ProjectID: "p1", Amount: usd(20000), Status: invoice.StatusPending}}, nil)

	invs, err := svc.List(ctx, owner, opts)
	require.NoError(t, err)
	require.Len(t, invs, 1)

	_, err = svc.List(ctx, stranger, opts)
	require.ErrorIs(t, err, policy.ErrForbidden)

	_, err = svc.List(ctx, owner, invoice.ListOptions{ProjectID: "missing"})
	require.ErrorIs(t, err, project.ErrProjectNotFound)

	_, err = svc.List(ctx, owner, invoice.ListOptions{ProjectID: "p1", Statuses: []invoice.Status{"VOID"}})
	require.ErrorIs(t, err, invoice.ErrInvalidInput)
	repo.AssertNumberOfCalls(t, "List", 1)
}

func TestInvoiceService_UnattachedInvoicesAreInternal(t *testing.T) {
	ctx := context.Background()
	svc, repo := newInvoiceService(t)
	loose := &invoice.Invoice{ID: "i9", Amount: usd(1000), Status: invoice.StatusPending}
	repo.On("Get", ctx, "i9").Return(loose, nil)
	repo.On("Get", ctx, "gone").Return((*invoice.Invoice)(nil), repository.ErrNotFound)

	inv, err := svc.Get(ctx, staff, "i9")
	require.NoError(t, err)
	require.Equal(t, "i9", inv.ID)

	_, err = svc.Get(ctx, owner, "i9")
	require.ErrorIs(t, err, policy.ErrForbidden)

	_, err = svc.Get(ctx, staff, "gone")
	require.ErrorIs(t, err, invoice.ErrInvoiceNotFound)
}
