package services

import (
	"github.com/nestora/studio-api/internal/config"
	"github.com/nestora/studio-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Project  *ProjectService
	Schedule *ScheduleService
	Invoice  *InvoiceService
	Export   *ExportService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	scheduleSvc := NewScheduleService(repos.Project, repos.PaymentWeek, cfg.DueGraceDays)
	invoiceSvc := NewInvoiceService(repos.Invoice, repos.Project, repos.PaymentWeek)

	return &Services{
		Project:  NewProjectService(repos.Project),
		Schedule: scheduleSvc,
		Invoice:  invoiceSvc,
		Export:   NewExportService(scheduleSvc, invoiceSvc),
	}
}
