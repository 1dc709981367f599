package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Project     ProjectRepository
	PaymentWeek PaymentWeekRepository
	Invoice     InvoiceRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Project:     NewProjectRepository(db),
		PaymentWeek: NewPaymentWeekRepository(db),
		Invoice:     NewInvoiceRepository(db),
	}
}
