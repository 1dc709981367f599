package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nestora/studio-api/internal/models"
	"github.com/nestora/studio-api/internal/repository"
	"github.com/nestora/studio-api/internal/statemachine"
	"github.com/nestora/studio-api/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Currency math is done in decimals and rounded half-up to 2 places.
// Financial totals must be reproducible, so the rounding mode is part of
// the contract and never left to float formatting.

// ComputeWeeklyAmount returns totalCost × percentage / 100, rounded to
// 2 decimal places.
func ComputeWeeklyAmount(totalCost, percentage float64) float64 {
	amount := decimal.NewFromFloat(totalCost).
		Mul(decimal.NewFromFloat(percentage)).
		Div(decimal.NewFromInt(100))
	return roundMoney(amount)
}

// ComputeGstTotal returns amount plus the combined central and state GST,
// rounded to 2 decimal places.
func ComputeGstTotal(amount, gstCentralPct, gstStatePct float64) float64 {
	base := decimal.NewFromFloat(amount)
	rate := decimal.NewFromFloat(gstCentralPct).
		Add(decimal.NewFromFloat(gstStatePct)).
		Div(decimal.NewFromInt(100))
	return roundMoney(base.Add(base.Mul(rate)))
}

// roundMoney rounds half away from zero at 2 places, which is half-up for
// the non-negative amounts this engine deals in.
func roundMoney(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// BuildInvoice derives a complete invoice from a payment week and project.
// WeeklyCostAmount and TotalWithTax are always computed here, never taken
// from caller input, so they cannot drift from the percentage.
func BuildInvoice(week *models.PaymentWeek, project *models.Project, receiverCategory, payerCategory string, gstCentralPct, gstStatePct, penaltyAmount float64, dueDate time.Time) (*models.Invoice, error) {
	if !models.ValidPartyCategory(receiverCategory) {
		return nil, fmt.Errorf("receiver category %q: %w", receiverCategory, ErrInvalidCategory)
	}
	if !models.ValidPartyCategory(payerCategory) {
		return nil, fmt.Errorf("payer category %q: %w", payerCategory, ErrInvalidCategory)
	}
	if gstCentralPct < 0 || gstStatePct < 0 {
		return nil, fmt.Errorf("GST rates %.2f/%.2f: %w", gstCentralPct, gstStatePct, ErrNegativeAmount)
	}
	if penaltyAmount < 0 {
		return nil, fmt.Errorf("penalty amount %.2f: %w", penaltyAmount, ErrNegativeAmount)
	}

	amount := ComputeWeeklyAmount(project.TotalCost, week.Percentage)
	total := ComputeGstTotal(amount, gstCentralPct, gstStatePct)
	if amount < 0 || total < 0 {
		return nil, fmt.Errorf("project %d week %d: computed amount %.2f, total %.2f: %w",
			project.ID, week.WeekNo, amount, total, ErrNegativeAmount)
	}

	if dueDate.IsZero() {
		dueDate = week.DueDate
	}

	return &models.Invoice{
		GUID:                 uuid.NewString(),
		ProjectID:            project.ID,
		WeekNo:               week.WeekNo,
		ReceiverCategory:     receiverCategory,
		PayerCategory:        payerCategory,
		WeeklyCostPercentage: week.Percentage,
		WeeklyCostAmount:     amount,
		GSTCentralPct:        gstCentralPct,
		GSTStatePct:          gstStatePct,
		PenaltyAmount:        penaltyAmount,
		TotalWithTax:         total,
		DueDate:              dueDate,
		Status:               models.InvoiceStatusPending,
	}, nil
}

// InvoiceService handles invoice generation and lifecycle events
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	projectRepo repository.ProjectRepository
	weekRepo    repository.PaymentWeekRepository
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(invoiceRepo repository.InvoiceRepository, projectRepo repository.ProjectRepository, weekRepo repository.PaymentWeekRepository) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		projectRepo: projectRepo,
		weekRepo:    weekRepo,
	}
}

// Generate builds and persists an invoice for a scheduled payment week
func (s *InvoiceService) Generate(ctx context.Context, projectID uint, weekNo int, receiverCategory, payerCategory string, gstCentralPct, gstStatePct, penaltyAmount float64, dueDate time.Time) (*models.Invoice, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", projectID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load project %d: %w", projectID, err)
	}

	week, err := s.weekRepo.FindByProjectAndWeek(ctx, projectID, weekNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d week %d: %w", projectID, weekNo, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load week %d: %w", weekNo, err)
	}

	invoice, err := BuildInvoice(week, project, receiverCategory, payerCategory, gstCentralPct, gstStatePct, penaltyAmount, dueDate)
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to persist invoice: %w", err)
	}

	logger.Info("Invoice generated",
		"project_id", projectID,
		"week_no", weekNo,
		"guid", invoice.GUID,
		"total_with_tax", invoice.TotalWithTax)
	return invoice, nil
}

// UpdatePercentage changes the weekly cost percentage on a pending invoice
// and recomputes the derived amounts before persisting. Approved, paid, and
// cancelled invoices are frozen.
func (s *InvoiceService) UpdatePercentage(ctx context.Context, id uint, percentage float64) (*models.Invoice, error) {
	if percentage < 0 || percentage > 100 {
		return nil, fmt.Errorf("invoice %d: percentage %.2f: %w", id, percentage, ErrInvalidPercentage)
	}

	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoiceStatusPending {
		return nil, &TransitionError{Entity: "invoice", ID: id, From: invoice.Status, Event: "update_percentage", Err: ErrTerminalState}
	}

	project, err := s.projectRepo.FindByID(ctx, invoice.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %d: %w", invoice.ProjectID, err)
	}

	invoice.WeeklyCostPercentage = percentage
	invoice.WeeklyCostAmount = ComputeWeeklyAmount(project.TotalCost, percentage)
	invoice.TotalWithTax = ComputeGstTotal(invoice.WeeklyCostAmount, invoice.GSTCentralPct, invoice.GSTStatePct)

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice %d: %w", id, err)
	}
	return invoice, nil
}

// Approve transitions an invoice from pending to approved
func (s *InvoiceService) Approve(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	ifsm := statemachine.NewInvoiceFSM(invoice)
	if err := ifsm.Approve(ctx); err != nil {
		return nil, s.transitionError(invoice, "approve", err)
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice %d: %w", id, err)
	}

	logger.Info("Invoice approved", "invoice_id", id, "guid", invoice.GUID)
	return invoice, nil
}

// MarkPaid transitions an approved invoice to paid with the actual payment
// date. Late payments are recorded as-is.
func (s *InvoiceService) MarkPaid(ctx context.Context, id uint, paymentDate time.Time) (*models.Invoice, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	ifsm := statemachine.NewInvoiceFSM(invoice)
	if err := ifsm.Pay(ctx, paymentDate); err != nil {
		return nil, s.transitionError(invoice, "pay", err)
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice %d: %w", id, err)
	}

	logger.Info("Invoice paid", "invoice_id", id, "late", invoice.IsLate())
	return invoice, nil
}

// Cancel transitions a pending or approved invoice to cancelled. The reason
// is mandatory; the record stays, only the status changes.
func (s *InvoiceService) Cancel(ctx context.Context, id uint, reason string) (*models.Invoice, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	ifsm := statemachine.NewInvoiceFSM(invoice)
	if err := ifsm.Cancel(ctx, reason); err != nil {
		return nil, s.transitionError(invoice, "cancel", err)
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice %d: %w", id, err)
	}

	logger.Info("Invoice cancelled", "invoice_id", id, "reason", reason)
	return invoice, nil
}

// ListByProject returns the invoices for a project, optionally filtered by
// week number
func (s *InvoiceService) ListByProject(ctx context.Context, projectID uint, weekNo *int) ([]models.Invoice, error) {
	if weekNo != nil {
		return s.invoiceRepo.FindByProjectAndWeek(ctx, projectID, *weekNo)
	}
	return s.invoiceRepo.FindByProject(ctx, projectID)
}

// Get returns an invoice with its project loaded
func (s *InvoiceService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDWithProject(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load invoice %d: %w", id, err)
	}
	return invoice, nil
}

func (s *InvoiceService) findInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load invoice %d: %w", id, err)
	}
	return invoice, nil
}

func (s *InvoiceService) transitionError(invoice *models.Invoice, event string, err error) error {
	if invoice.IsTerminal() {
		return &TransitionError{Entity: "invoice", ID: invoice.ID, From: invoice.Status, Event: event, Err: ErrTerminalState}
	}
	return &TransitionError{Entity: "invoice", ID: invoice.ID, From: invoice.Status, Event: event, Err: err}
}
