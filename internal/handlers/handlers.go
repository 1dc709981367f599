package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nestora/studio-api/internal/config"
	"github.com/nestora/studio-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health   *HealthHandler
	Project  *ProjectHandler
	Schedule *ScheduleHandler
	Invoice  *InvoiceHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(),
		Project:  NewProjectHandler(svcs.Project),
		Schedule: NewScheduleHandler(svcs.Schedule, svcs.Export),
		Invoice:  NewInvoiceHandler(svcs.Invoice, svcs.Export, cfg.DefaultGSTCentralPct, cfg.DefaultGSTStatePct),
	}
}

// respondError maps engine errors to HTTP status codes. Validation errors
// carry enough context to render directly; nothing is reduced to a generic
// unknown-error message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConflictingWeek), errors.Is(err, services.ErrTerminalState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case services.IsClientError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
