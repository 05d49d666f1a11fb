package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/policy"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
	"github.com/wardadevcode/buildwise-backend/internal/money"
	"github.com/wardadevcode/buildwise-backend/internal/payments"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
)

// PaymentDetails carries payer data forwarded to the gateway.
type PaymentDetails struct {
	PayerEmail      string
	PaymentMethodID string
	Token           string
	Installments    int
}

// CreateInvoice issues a PENDING invoice, optionally against a project.
func (e *Engine) CreateInvoice(ctx context.Context, a actor.Actor, d invoice.Draft) (*invoice.Invoice, error) {
	id := e.newID()
	key := d.ProjectID
	if key == "" {
		key = invoiceKey(id)
	}

	var out *invoice.Invoice
	err := e.atomic(ctx, "create_invoice", key, func(ctx context.Context, r Repositories) error {
		proj, err := e.invoiceScope(ctx, r, a, policy.OpManageInvoice, d.ProjectID)
		if err != nil {
			return err
		}
		inv, err := invoice.New(d, proj.Currency, id, e.now())
		if err != nil {
			return err
		}
		if err := r.Invoices.Create(ctx, inv); err != nil {
			return fmt.Errorf("creating invoice: %w", err)
		}
		if err := e.recordInvoice(ctx, r, inv, a,
			fmt.Sprintf("Invoice %s for %s issued by %s", inv.Number, inv.Amount, a.DisplayName())); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInvoiceAmount re-prices an unpaid invoice.
func (e *Engine) UpdateInvoiceAmount(ctx context.Context, a actor.Actor, invoiceID string, amount int64) (*invoice.Invoice, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", invoice.ErrInvalidInput)
	}
	return e.changeInvoice(ctx, a, "update_invoice", invoiceID, func(inv *invoice.Invoice) (string, error) {
		if inv.Amount.Amount == amount {
			return "", nil
		}
		prev := inv.Amount
		inv.Amount = money.Money{Amount: amount, Currency: inv.Amount.Currency}
		return fmt.Sprintf("Invoice %s changed from %s to %s by %s", inv.Number, prev, inv.Amount, a.DisplayName()), nil
	})
}

// MarkInvoiceOverdue flags an unpaid invoice as OVERDUE.
func (e *Engine) MarkInvoiceOverdue(ctx context.Context, a actor.Actor, invoiceID string) (*invoice.Invoice, error) {
	return e.changeInvoice(ctx, a, "mark_invoice_overdue", invoiceID, func(inv *invoice.Invoice) (string, error) {
		if inv.Status == invoice.StatusOverdue {
			return "", nil
		}
		if err := invoice.ValidateStatusChange(inv.Status, invoice.StatusOverdue); err != nil {
			return "", err
		}
		inv.Status = invoice.StatusOverdue
		return fmt.Sprintf("Invoice %s marked overdue by %s", inv.Number, a.DisplayName()), nil
	})
}

// PayInvoice charges the invoice through the payment gateway and marks it
// PAID. The charge happens before the write; a declined charge changes nothing.
func (e *Engine) PayInvoice(ctx context.Context, a actor.Actor, invoiceID string, details PaymentDetails) (*invoice.Invoice, error) {
	if e.payments == nil {
		return nil, payments.ErrNotConfigured
	}
	key, err := e.lockKeyForInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	var out *invoice.Invoice
	err = e.run(ctx, "pay_invoice", key, func(ctx context.Context) error {
		var pending *invoice.Invoice
		err := e.uow.Do(ctx, func(r Repositories) error {
			inv, err := loadInvoice(ctx, r, invoiceID)
			if err != nil {
				return err
			}
			if _, err := e.invoiceScope(ctx, r, a, policy.OpPayInvoice, inv.ProjectID); err != nil {
				return err
			}
			if err := invoice.CheckMutable(inv); err != nil {
				return err
			}
			pending = inv
			return nil
		})
		if err != nil {
			return err
		}

		res, err := e.payments.Charge(ctx, payments.ChargeRequest{
			Reference:       pending.ID,
			Description:     "Invoice " + pending.Number,
			Amount:          pending.Amount,
			PayerEmail:      details.PayerEmail,
			PaymentMethodID: details.PaymentMethodID,
			Token:           details.Token,
			Installments:    details.Installments,
		})
		if err != nil {
			return fmt.Errorf("charging invoice: %w", err)
		}
		if !res.Approved() {
			return fmt.Errorf("%w: provider status %s %s", invoice.ErrPaymentDeclined, res.Status, res.StatusDetail)
		}

		return e.retry(ctx, "pay_invoice", func(ctx context.Context, r Repositories) error {
			inv, err := loadInvoice(ctx, r, invoiceID)
			if err != nil {
				return err
			}
			if err := invoice.ValidateStatusChange(inv.Status, invoice.StatusPaid); err != nil {
				return err
			}
			expected := inv.Status
			now := e.now()
			inv.Status = invoice.StatusPaid
			inv.PaidAt = &now
			inv.PaymentReference = res.ID
			inv.UpdatedAt = now
			if err := r.Invoices.Update(ctx, inv, expected); err != nil {
				return fmt.Errorf("updating invoice: %w", err)
			}
			if err := e.recordInvoice(ctx, r, inv, a,
				fmt.Sprintf("Invoice %s paid (%s) by %s, reference %s", inv.Number, inv.Amount, a.DisplayName(), res.ID)); err != nil {
				return err
			}
			out = inv
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("invoice paid", "invoice_id", out.ID, "payment_reference", out.PaymentReference, "actor_id", a.ID)
	return out, nil
}

// DeleteInvoice removes an unpaid invoice.
func (e *Engine) DeleteInvoice(ctx context.Context, a actor.Actor, invoiceID string) error {
	key, err := e.lockKeyForInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	return e.atomic(ctx, "delete_invoice", key, func(ctx context.Context, r Repositories) error {
		inv, err := loadInvoice(ctx, r, invoiceID)
		if err != nil {
			return err
		}
		if _, err := e.invoiceScope(ctx, r, a, policy.OpManageInvoice, inv.ProjectID); err != nil {
			return err
		}
		if err := invoice.CheckMutable(inv); err != nil {
			return err
		}
		if err := r.Invoices.Delete(ctx, inv.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invoice.ErrInvoiceNotFound
			}
			return fmt.Errorf("deleting invoice: %w", err)
		}
		return e.recordInvoice(ctx, r, inv, a,
			fmt.Sprintf("Invoice %s deleted by %s", inv.Number, a.DisplayName()))
	})
}

// changeInvoice applies mutate to an unpaid invoice under the manage
// permission. mutate returns the ledger text, or "" when nothing changed.
func (e *Engine) changeInvoice(ctx context.Context, a actor.Actor, op, invoiceID string, mutate func(inv *invoice.Invoice) (string, error)) (*invoice.Invoice, error) {
	key, err := e.lockKeyForInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	var out *invoice.Invoice
	err = e.atomic(ctx, op, key, func(ctx context.Context, r Repositories) error {
		inv, err := loadInvoice(ctx, r, invoiceID)
		if err != nil {
			return err
		}
		if _, err := e.invoiceScope(ctx, r, a, policy.OpManageInvoice, inv.ProjectID); err != nil {
			return err
		}
		if err := invoice.CheckMutable(inv); err != nil {
			return err
		}

		expected := inv.Status
		text, err := mutate(inv)
		if err != nil {
			return err
		}
		if text == "" {
			out = inv
			return nil
		}
		inv.UpdatedAt = e.now()
		if err := r.Invoices.Update(ctx, inv, expected); err != nil {
			return fmt.Errorf("updating invoice: %w", err)
		}
		if err := e.recordInvoice(ctx, r, inv, a, text); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// invoiceScope authorizes op against the invoice's project. Invoices without
// a project are checked with an empty scope and priced in the default currency.
func (e *Engine) invoiceScope(ctx context.Context, r Repositories, a actor.Actor, op policy.Operation, projectID string) (*project.Project, error) {
	if strings.TrimSpace(projectID) == "" {
		if err := e.policy.Authorize(a, op, policy.Scope{}); err != nil {
			return nil, err
		}
		return &project.Project{}, nil
	}
	proj, err := loadProject(ctx, r, projectID)
	if err != nil {
		return nil, err
	}
	if err := e.policy.Authorize(a, op, proj.Scope()); err != nil {
		return nil, err
	}
	return proj, nil
}

func (e *Engine) recordInvoice(ctx context.Context, r Repositories, inv *invoice.Invoice, a actor.Actor, text string) error {
	if inv.ProjectID == "" {
		return nil
	}
	return e.record(ctx, r, inv.ProjectID, timeline.TypeInvoice, a, e.now(), text)
}

// lockKeyForInvoice serializes invoice work with the rest of its project.
func (e *Engine) lockKeyForInvoice(ctx context.Context, invoiceID string) (string, error) {
	var key string
	err := e.uow.Do(ctx, func(r Repositories) error {
		inv, err := loadInvoice(ctx, r, invoiceID)
		if err != nil {
			return err
		}
		key = inv.ProjectID
		if key == "" {
			key = invoiceKey(inv.ID)
		}
		return nil
	})
	return key, err
}

func invoiceKey(id string) string {
	return "invoice:" + id
}

func loadInvoice(ctx context.Context, r Repositories, id string) (*invoice.Invoice, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: invoice_id is required", invoice.ErrInvalidInput)
	}
	inv, err := r.Invoices.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("getting invoice: %w", err)
	}
	return inv, nil
}
