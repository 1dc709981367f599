package statemachine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/looplab/fsm"
	"github.com/nestora/studio-api/internal/models"
)

// InvoiceFSM wraps an invoice with its state machine. paid and cancelled
// are terminal: no event leaves either state.
type InvoiceFSM struct {
	invoice *models.Invoice
	fsm     *fsm.FSM
}

// NewInvoiceFSM creates a new invoice state machine
func NewInvoiceFSM(invoice *models.Invoice) *InvoiceFSM {
	ifsm := &InvoiceFSM{
		invoice: invoice,
	}

	ifsm.fsm = fsm.NewFSM(
		invoice.Status,
		fsm.Events{
			// pending → approved
			{Name: "approve", Src: []string{models.InvoiceStatusPending}, Dst: models.InvoiceStatusApproved},

			// approved → paid (requires an actual payment date)
			{Name: "pay", Src: []string{models.InvoiceStatusApproved}, Dst: models.InvoiceStatusPaid},

			// pending/approved → cancelled (requires a reason)
			{Name: "cancel", Src: []string{models.InvoiceStatusPending, models.InvoiceStatusApproved}, Dst: models.InvoiceStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return ifsm
}

// Approve transitions the invoice to approved
func (i *InvoiceFSM) Approve(ctx context.Context) error {
	if i.invoice.IsTerminal() {
		return fmt.Errorf("invoice %d is terminal in status %s", i.invoice.ID, i.invoice.Status)
	}
	if !i.invoice.MayApprove() {
		return fmt.Errorf("invoice cannot be approved in current state: %s", i.invoice.Status)
	}

	if err := i.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve invoice: %w", err)
	}

	now := time.Now()
	i.invoice.ApprovedAt = &now
	i.invoice.Status = i.fsm.Current()
	return nil
}

// Pay transitions the invoice to paid. The actual payment date is required;
// it may fall after the due date, which is recorded rather than rejected.
func (i *InvoiceFSM) Pay(ctx context.Context, paymentDate time.Time) error {
	if i.invoice.IsTerminal() {
		return fmt.Errorf("invoice %d is terminal in status %s", i.invoice.ID, i.invoice.Status)
	}
	if !i.invoice.MayMarkPaid() {
		return fmt.Errorf("invoice cannot be paid in current state: %s", i.invoice.Status)
	}
	if paymentDate.IsZero() {
		return fmt.Errorf("actual payment date is required to mark invoice paid")
	}

	if err := i.fsm.Event(ctx, "pay"); err != nil {
		return fmt.Errorf("failed to pay invoice: %w", err)
	}

	i.invoice.ActualPaymentDate = &paymentDate
	i.invoice.Status = i.fsm.Current()
	return nil
}

// Cancel transitions the invoice to cancelled with the given reason
func (i *InvoiceFSM) Cancel(ctx context.Context, reason string) error {
	if i.invoice.IsTerminal() {
		return fmt.Errorf("invoice %d is terminal in status %s", i.invoice.ID, i.invoice.Status)
	}
	if !i.invoice.MayCancel() {
		return fmt.Errorf("invoice cannot be cancelled in current state: %s", i.invoice.Status)
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("cancellation reason is required")
	}

	if err := i.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel invoice: %w", err)
	}

	i.invoice.CancellationReason = &reason
	i.invoice.Status = i.fsm.Current()
	return nil
}

// Current returns the current state
func (i *InvoiceFSM) Current() string {
	return i.fsm.Current()
}

// Can checks if a transition is possible
func (i *InvoiceFSM) Can(event string) bool {
	return i.fsm.Can(event)
}
