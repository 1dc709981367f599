package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nestora/studio-api/internal/models"
	"github.com/nestora/studio-api/internal/services"
)

// InvoiceHandler serves the invoice endpoints
type InvoiceHandler struct {
	invoiceService *services.InvoiceService
	exportService  *services.ExportService
	gstCentralPct  float64
	gstStatePct    float64
}

// NewInvoiceHandler creates a new invoice handler. The GST rates are the
// configured defaults applied when a request omits them.
func NewInvoiceHandler(invoiceService *services.InvoiceService, exportService *services.ExportService, gstCentralPct, gstStatePct float64) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		exportService:  exportService,
		gstCentralPct:  gstCentralPct,
		gstStatePct:    gstStatePct,
	}
}

type generateInvoiceRequest struct {
	WeekNo           int      `json:"week_no"`
	ReceiverCategory string   `json:"receiver_category" binding:"required"`
	PayerCategory    string   `json:"payer_category" binding:"required"`
	GSTCentralPct    *float64 `json:"gst_central_pct"`
	GSTStatePct      *float64 `json:"gst_state_pct"`
	PenaltyAmount    float64  `json:"penalty_amount"`
	DueDate          *string  `json:"due_date"`
}

// Create generates an invoice for a scheduled payment week
func (h *InvoiceHandler) Create(c *gin.Context) {
	projectID, ok := paramUint(c, "project_id")
	if !ok {
		return
	}

	var req generateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gstCentral := h.gstCentralPct
	if req.GSTCentralPct != nil {
		gstCentral = *req.GSTCentralPct
	}
	gstState := h.gstStatePct
	if req.GSTStatePct != nil {
		gstState = *req.GSTStatePct
	}

	var dueDate time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		dueDate = parsed
	}

	invoice, err := h.invoiceService.Generate(c.Request.Context(), projectID, req.WeekNo,
		req.ReceiverCategory, req.PayerCategory, gstCentral, gstState, req.PenaltyAmount, dueDate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invoice": invoice.ToResponse()})
}

// Index lists invoices for a project, optionally filtered by week number
// and status. Status accepts canonical names or legacy numeric codes.
func (h *InvoiceHandler) Index(c *gin.Context) {
	projectID, ok := paramUint(c, "project_id")
	if !ok {
		return
	}

	var weekNo *int
	if raw := c.Query("week_no"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid week_no"})
			return
		}
		weekNo = &n
	}

	statusFilter := ""
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseInvoiceStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		statusFilter = parsed
	}

	invoices, err := h.invoiceService.ListByProject(c.Request.Context(), projectID, weekNo)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []models.InvoiceResponse
	for _, inv := range invoices {
		if statusFilter != "" && inv.Status != statusFilter {
			continue
		}
		responses = append(responses, inv.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"invoices": responses})
}

// Approve transitions an invoice to approved
func (h *InvoiceHandler) Approve(c *gin.Context) {
	id, ok := paramUint(c, "invoice_id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse()})
}

// Pay marks an approved invoice paid. The payment date defaults to today.
func (h *InvoiceHandler) Pay(c *gin.Context) {
	id, ok := paramUint(c, "invoice_id")
	if !ok {
		return
	}

	var req struct {
		PaymentDate *string `json:"payment_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paymentDate := time.Now()
	if req.PaymentDate != nil && *req.PaymentDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		paymentDate = parsed
	}

	invoice, err := h.invoiceService.MarkPaid(c.Request.Context(), id, paymentDate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse()})
}

// Cancel transitions an invoice to cancelled with a mandatory reason
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, ok := paramUint(c, "invoice_id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cancellation reason is required"})
		return
	}

	invoice, err := h.invoiceService.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse()})
}

// UpdatePercentage changes the weekly cost percentage on a pending invoice;
// derived amounts are recomputed server-side.
func (h *InvoiceHandler) UpdatePercentage(c *gin.Context) {
	id, ok := paramUint(c, "invoice_id")
	if !ok {
		return
	}

	var req struct {
		WeeklyCostPercentage float64 `json:"weekly_cost_percentage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.invoiceService.UpdatePercentage(c.Request.Context(), id, req.WeeklyCostPercentage)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse()})
}

// PDF streams an invoice as a PDF document
func (h *InvoiceHandler) PDF(c *gin.Context) {
	id, ok := paramUint(c, "invoice_id")
	if !ok {
		return
	}

	data, filename, err := h.exportService.InvoicePDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", data)
}
