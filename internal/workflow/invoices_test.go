package workflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/policy"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
	"github.com/wardadevcode/buildwise-backend/internal/payments"
	"github.com/wardadevcode/buildwise-backend/internal/workflow"
)

type declinedGateway struct{}

func (declinedGateway) Charge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	return payments.ChargeResult{ID: "mp-1", Status: "rejected", StatusDetail: "cc_rejected_insufficient_amount"}, nil
}

func TestCreateInvoice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createProject(t, "p1")

	inv, err := h.engine.CreateInvoice(ctx, staff, invoice.Draft{ProjectID: "p1", Amount: 120000})
	require.NoError(t, err)
	require.Equal(t, invoice.StatusPending, inv.Status)
	require.Equal(t, "USD", inv.Amount.Currency)

	events := h.events(t, "p1")
	require.Equal(t, timeline.TypeInvoice, events[len(events)-1].Type)

	standalone, err := h.engine.CreateInvoice(ctx, staff, invoice.Draft{Amount: 500, Currency: "eur"})
	require.NoError(t, err)
	require.Empty(t, standalone.ProjectID)
	require.Equal(t, "EUR", standalone.Amount.Currency)

	_, err = h.engine.CreateInvoice(ctx, customer, invoice.Draft{ProjectID: "p1", Amount: 1})
	require.ErrorIs(t, err, policy.ErrForbidden)

	_, err = h.engine.CreateInvoice(ctx, staff, invoice.Draft{ProjectID: "missing", Amount: 1})
	require.ErrorIs(t, err, project.ErrProjectNotFound)

	_, err = h.engine.CreateInvoice(ctx, staff, invoice.Draft{ProjectID: "p1", Amount: 0})
	require.ErrorIs(t, err, invoice.ErrInvalidInput)
}

func TestInvoiceAmountAndOverdue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createProject(t, "p1")

	inv, err := h.engine.CreateInvoice(ctx, staff, invoice.Draft{ProjectID: "p1", Amount: 1000})
	require.NoError(t, err)

	updated, err := h.engine.UpdateInvoiceAmount(ctx, staff, inv.ID, 1500)
	require.NoError(t, err)
	require.Equal(t, int64(1500), updated.Amount.Amount)

	_, err = h.engine.UpdateInvoiceAmount(ctx, staff, inv.ID, 0)
	require.ErrorIs(t, err, invoice.ErrInvalidInput)

	overdue, err := h.engine.MarkInvoiceOverdue(ctx, staff, inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoice.StatusOverdue, overdue.Status)

	before := len(h.events(t, "p1"))
	again, err := h.engine.MarkInvoiceOverdue(ctx, staff, inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoice.StatusOverdue, again.Status)
	require.Len(t, h.events(t, "p1"), before)

	_, err = h.engine.MarkInvoiceOverdue(ctx, staff, "missing")
	require.ErrorIs(t, err, invoice.ErrInvoiceNotFound)
}

func TestPayInvoice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createProject(t, "p1")

	inv, err := h.engine.CreateInvoice(ctx, staff, invoice.Draft{ProjectID: "p1", Amount: 1000})
	require.NoError(t, err)

	_, err = h.engine.PayInvoice(ctx, stranger, inv.ID, workflow.PaymentDetails{})
	require.ErrorIs(t, err, policy.ErrForbidden)

	paid, err := h.engine.PayInvoice(ctx, customer, inv.ID, workflow.PaymentDetails{PayerEmail: "casey@example.com"})
	require.NoError(t, err)
	require.Equal(t, invoice.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	require.NotEmpty(t, paid.PaymentReference)

	events := h.events(t, "p1")
	require.Contains(t, events[len(events)-1].Event, "paid")
}

// A paid invoice rejects every change and the stored row stays as it was.
func TestPaidInvoiceIsTerminal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createProject(t, "p1")

	inv, err := h.engine.CreateInvoice(ctx, staff, invoice.Draft{ProjectID: "p1", Amount: 1000})
	require.NoError(t, err)
	_, err = h.engine.PayInvoice(ctx, staff, inv.ID, workflow.PaymentDetails{})
	require.NoError(t, err)
	before := len(h.events(t, "p1"))

	err = h.engine.DeleteInvoice(ctx, staff, inv.ID)
	require.ErrorIs(t, err, invoice.ErrInvoicePaid)

	_, err = h.engine.UpdateInvoiceAmount(ctx, staff, inv.ID, 1)
	require.ErrorIs(t, err, invoice.ErrInvoicePaid)

	_, err = h.engine.MarkInvoiceOverdue(ctx, staff, inv.ID)
	require.ErrorIs(t, err, invoice.ErrInvoicePaid)

	_, err = h.engine.PayInvoice(ctx, staff, inv.ID, workflow.PaymentDetails{})
	require.ErrorIs(t, err, invoice.ErrInvoicePaid)

	stored, err := h.engine.Summary(ctx, staff, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(1000), stored.Invoices.Paid.Amount)
	require.Len(t, h.events(t, "p1"), before)
}

func TestPayInvoice_Declined(t *testing.T) {
	h := newHarness(t, func(cfg *workflow.Config) { cfg.Payments = declinedGateway{} })
	ctx := context.Background()
	h.createProject(t, "p1")

	inv, err := h.engine.CreateInvoice(ctx, staff, invoice.Draft{ProjectID: "p1", Amount: 1000})
	require.NoError(t, err)

	_, err = h.engine.PayInvoice(ctx, customer, inv.ID, workflow.PaymentDetails{})
	require.ErrorIs(t, err, invoice.ErrPaymentDeclined)

	// Declined charges leave the invoice payable.
	updated, err := h.engine.UpdateInvoiceAmount(ctx, staff, inv.ID, 900)
	require.NoError(t, err)
	require.Equal(t, invoice.StatusPending, updated.Status)
}

func TestPayInvoice_NoGateway(t *testing.T) {
	h := newHarness(t, func(cfg *workflow.Config) { cfg.Payments = nil })
	_, err := h.engine.PayInvoice(context.Background(), staff, "inv", workflow.PaymentDetails{})
	require.ErrorIs(t, err, payments.ErrNotConfigured)
}

func TestDeleteInvoice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createProject(t, "p1")

	inv, err := h.engine.CreateInvoice(ctx, staff, invoice.Draft{ProjectID: "p1", Amount: 1000})
	require.NoError(t, err)

	require.NoError(t, h.engine.DeleteInvoice(ctx, staff, inv.ID))
	require.ErrorIs(t, h.engine.DeleteInvoice(ctx, staff, inv.ID), invoice.ErrInvoiceNotFound)

	events := h.events(t, "p1")
	require.Contains(t, events[len(events)-1].Event, "deleted")
}
