package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nestora/studio-api/internal/models"
	"github.com/nestora/studio-api/internal/services"
)

// ScheduleHandler serves the payment schedule endpoints
type ScheduleHandler struct {
	scheduleService *services.ScheduleService
	exportService   *services.ExportService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(scheduleService *services.ScheduleService, exportService *services.ExportService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService, exportService: exportService}
}

type weekRequest struct {
	WeekNo      int     `json:"week_no" binding:"required"`
	Percentage  float64 `json:"percentage"`
	InvoiceDate string  `json:"invoice_date" binding:"required"`
	DueDate     *string `json:"due_date"`
}

type submitRequest struct {
	Weeks []weekRequest `json:"weeks" binding:"required"`
}

type paymentRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// Show returns the current schedule for a project. Loading a project with a
// signup date for the first time materializes its week-0 signup entry.
// An optional status filter accepts canonical names or legacy numeric codes.
func (h *ScheduleHandler) Show(c *gin.Context) {
	projectID, ok := paramUint(c, "project_id")
	if !ok {
		return
	}

	statusFilter := ""
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseWeekStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		statusFilter = parsed
	}

	session, err := h.scheduleService.LoadSession(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	project := session.Project()
	var weeks []models.PaymentWeekResponse
	for _, w := range session.Weeks() {
		if statusFilter != "" && w.Status != statusFilter {
			continue
		}
		weeks = append(weeks, w.ToResponse(project.TotalCost))
	}

	c.JSON(http.StatusOK, gin.H{
		"project":          project.ToResponse(),
		"weeks":            weeks,
		"total_percentage": session.TotalPercentage(),
		"is_complete":      session.IsComplete(),
	})
}

// Submit validates and persists a full draft schedule
func (h *ScheduleHandler) Submit(c *gin.Context) {
	projectID, ok := paramUint(c, "project_id")
	if !ok {
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.scheduleService.LoadSession(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	for _, w := range req.Weeks {
		invoiceDate, dueDate, err := parseWeekDates(w.InvoiceDate, w.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := session.AddWeek(w.WeekNo, w.Percentage, invoiceDate, dueDate); err != nil {
			respondError(c, err)
			return
		}
	}

	if err := h.scheduleService.Submit(c.Request.Context(), session); err != nil {
		respondError(c, err)
		return
	}

	project := session.Project()
	var weeks []models.PaymentWeekResponse
	for _, w := range session.Weeks() {
		weeks = append(weeks, w.ToResponse(project.TotalCost))
	}

	c.JSON(http.StatusCreated, gin.H{"weeks": weeks})
}

// AddWeek appends a single week to an already submitted schedule
func (h *ScheduleHandler) AddWeek(c *gin.Context) {
	projectID, ok := paramUint(c, "project_id")
	if !ok {
		return
	}

	var req weekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoiceDate, dueDate, err := parseWeekDates(req.InvoiceDate, req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	week, err := h.scheduleService.AddWeek(c.Request.Context(), projectID, req.WeekNo, req.Percentage, invoiceDate, dueDate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"week": week})
}

// EditWeek updates percentage and dates of a non-signup week
func (h *ScheduleHandler) EditWeek(c *gin.Context) {
	projectID, ok := paramUint(c, "project_id")
	if !ok {
		return
	}
	weekNo, ok := paramInt(c, "week_no")
	if !ok {
		return
	}

	var req struct {
		Percentage  float64 `json:"percentage"`
		InvoiceDate string  `json:"invoice_date" binding:"required"`
		DueDate     *string `json:"due_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoiceDate, dueDate, err := parseWeekDates(req.InvoiceDate, req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	week, err := h.scheduleService.EditWeek(c.Request.Context(), projectID, weekNo, req.Percentage, invoiceDate, dueDate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"week": week})
}

// DeleteWeek removes a non-signup week from the schedule
func (h *ScheduleHandler) DeleteWeek(c *gin.Context) {
	projectID, ok := paramUint(c, "project_id")
	if !ok {
		return
	}
	weekNo, ok := paramInt(c, "week_no")
	if !ok {
		return
	}

	if err := h.scheduleService.DeleteWeek(c.Request.Context(), projectID, weekNo); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": weekNo})
}

// RecordPayment applies a received amount to a week
func (h *ScheduleHandler) RecordPayment(c *gin.Context) {
	projectID, ok := paramUint(c, "project_id")
	if !ok {
		return
	}
	weekNo, ok := paramInt(c, "week_no")
	if !ok {
		return
	}

	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	week, err := h.scheduleService.RecordPayment(c.Request.Context(), projectID, weekNo, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"week": week})
}

// Export streams the schedule as CSV or XLSX
func (h *ScheduleHandler) Export(c *gin.Context) {
	projectID, ok := paramUint(c, "project_id")
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "csv")

	var (
		data     []byte
		filename string
		mime     string
		err      error
	)
	switch format {
	case "csv":
		data, filename, err = h.exportService.ScheduleCSV(c.Request.Context(), projectID)
		mime = "text/csv"
	case "xlsx":
		data, filename, err = h.exportService.ScheduleXLSX(c.Request.Context(), projectID)
		mime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, mime, data)
}

func parseWeekDates(invoiceDate string, dueDate *string) (time.Time, *time.Time, error) {
	inv, err := time.Parse("2006-01-02", invoiceDate)
	if err != nil {
		return time.Time{}, nil, err
	}
	if dueDate == nil || *dueDate == "" {
		return inv, nil, nil
	}
	due, err := time.Parse("2006-01-02", *dueDate)
	if err != nil {
		return time.Time{}, nil, err
	}
	return inv, &due, nil
}

func paramUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(v), true
}

func paramInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}
