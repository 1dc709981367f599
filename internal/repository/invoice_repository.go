package repository

import (
	"context"

	"github.com/nestora/studio-api/internal/models"
	"gorm.io/gorm"
)

// InvoiceRepository defines the interface for invoice data access.
// Invoices are never deleted; cancellation is a status, not a removal.
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Invoice, error)
	FindByIDWithProject(ctx context.Context, id uint) (*models.Invoice, error)
	FindByProject(ctx context.Context, projectID uint) ([]models.Invoice, error)
	FindByProjectAndWeek(ctx context.Context, projectID uint, weekNo int) ([]models.Invoice, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDWithProject(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Joins("Project").
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByProject(ctx context.Context, projectID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("week_no ASC, created_at ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) FindByProjectAndWeek(ctx context.Context, projectID uint, weekNo int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND week_no = ?", projectID, weekNo).
		Order("created_at ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}
