package models

import (
	"fmt"
	"time"
)

// Invoice is the billing view of a single payment week. It carries the tax
// and party-role information and is statused independently from the week.
// Invoices are never deleted; cancellation is a terminal status.
type Invoice struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	GUID                 string     `gorm:"column:guid;not null;uniqueIndex" json:"guid"`
	ProjectID            uint       `gorm:"not null;index" json:"project_id"`
	WeekNo               int        `gorm:"not null;index" json:"week_no"`
	ReceiverCategory     string     `gorm:"not null" json:"receiver_category"`
	PayerCategory        string     `gorm:"not null" json:"payer_category"`
	WeeklyCostPercentage float64    `gorm:"type:decimal(5,2);not null" json:"weekly_cost_percentage"`
	WeeklyCostAmount     float64    `gorm:"type:decimal(15,2);not null" json:"weekly_cost_amount"`
	GSTCentralPct        float64    `gorm:"type:decimal(5,2);default:0" json:"gst_central_pct"`
	GSTStatePct          float64    `gorm:"type:decimal(5,2);default:0" json:"gst_state_pct"`
	PenaltyAmount        float64    `gorm:"type:decimal(15,2);default:0" json:"penalty_amount"`
	TotalWithTax         float64    `gorm:"type:decimal(15,2);not null" json:"total_with_tax"`
	DueDate              time.Time  `gorm:"type:date;not null;index" json:"due_date"`
	ActualPaymentDate    *time.Time `gorm:"type:date" json:"actual_payment_date"`
	Status               string     `gorm:"default:pending;not null;index" json:"status"`
	CancellationReason   *string    `gorm:"type:text" json:"cancellation_reason,omitempty"`
	ApprovedAt           *time.Time `gorm:"index" json:"approved_at"`
	CreatedAt            time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	// Associations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// TableName specifies the table name for Invoice
func (Invoice) TableName() string {
	return "invoices"
}

// Invoice status constants
const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusApproved  = "approved"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

// Party category constants
const (
	PartyVendor     = "vendor"
	PartyCompany    = "company"
	PartyCustomer   = "customer"
	PartyThirdParty = "third_party"
)

// ValidPartyCategory reports whether s is a recognized party role
func ValidPartyCategory(s string) bool {
	switch s {
	case PartyVendor, PartyCompany, PartyCustomer, PartyThirdParty:
		return true
	}
	return false
}

// ParseInvoiceStatus normalizes a status value into the canonical string form.
// Legacy numeric codes (1=pending, 2=approved, 3=paid, 4=cancelled) are
// translated at the boundary.
func ParseInvoiceStatus(v any) (string, error) {
	switch s := v.(type) {
	case string:
		switch s {
		case InvoiceStatusPending, InvoiceStatusApproved, InvoiceStatusPaid, InvoiceStatusCancelled:
			return s, nil
		case "1":
			return InvoiceStatusPending, nil
		case "2":
			return InvoiceStatusApproved, nil
		case "3":
			return InvoiceStatusPaid, nil
		case "4":
			return InvoiceStatusCancelled, nil
		}
	case int:
		return parseInvoiceStatusCode(s)
	case float64:
		return parseInvoiceStatusCode(int(s))
	}
	return "", fmt.Errorf("unknown invoice status: %v", v)
}

func parseInvoiceStatusCode(code int) (string, error) {
	switch code {
	case 1:
		return InvoiceStatusPending, nil
	case 2:
		return InvoiceStatusApproved, nil
	case 3:
		return InvoiceStatusPaid, nil
	case 4:
		return InvoiceStatusCancelled, nil
	}
	return "", fmt.Errorf("unknown invoice status code: %d", code)
}

// IsTerminal returns true when no further transitions are allowed
func (i *Invoice) IsTerminal() bool {
	return i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusCancelled
}

// MayApprove returns true if the invoice can be approved
func (i *Invoice) MayApprove() bool {
	return i.Status == InvoiceStatusPending
}

// MayMarkPaid returns true if the invoice can be marked paid
func (i *Invoice) MayMarkPaid() bool {
	return i.Status == InvoiceStatusApproved
}

// MayCancel returns true if the invoice can be cancelled
func (i *Invoice) MayCancel() bool {
	return i.Status == InvoiceStatusPending || i.Status == InvoiceStatusApproved
}

// IsLate returns true when the payment arrived after the due date.
// Late payment is representable, not rejected.
func (i *Invoice) IsLate() bool {
	return i.ActualPaymentDate != nil && i.ActualPaymentDate.After(i.DueDate)
}

// InvoiceResponse is the JSON response format for invoices
type InvoiceResponse struct {
	ID                   uint       `json:"id"`
	GUID                 string     `json:"guid"`
	ProjectID            uint       `json:"project_id"`
	WeekNo               int        `json:"week_no"`
	ReceiverCategory     string     `json:"receiver_category"`
	PayerCategory        string     `json:"payer_category"`
	WeeklyCostPercentage float64    `json:"weekly_cost_percentage"`
	WeeklyCostAmount     float64    `json:"weekly_cost_amount"`
	GSTCentralPct        float64    `json:"gst_central_pct"`
	GSTStatePct          float64    `json:"gst_state_pct"`
	PenaltyAmount        float64    `json:"penalty_amount"`
	TotalWithTax         float64    `json:"total_with_tax"`
	DueDate              time.Time  `json:"due_date"`
	ActualPaymentDate    *time.Time `json:"actual_payment_date"`
	Status               string     `json:"status"`
	CancellationReason   *string    `json:"cancellation_reason,omitempty"`
	IsLate               bool       `json:"is_late"`
	ProjectName          string     `json:"project_name,omitempty"`
	ClientName           string     `json:"client_name,omitempty"`
}

// ToResponse converts Invoice to InvoiceResponse
func (i *Invoice) ToResponse() InvoiceResponse {
	resp := InvoiceResponse{
		ID:                   i.ID,
		GUID:                 i.GUID,
		ProjectID:            i.ProjectID,
		WeekNo:               i.WeekNo,
		ReceiverCategory:     i.ReceiverCategory,
		PayerCategory:        i.PayerCategory,
		WeeklyCostPercentage: i.WeeklyCostPercentage,
		WeeklyCostAmount:     i.WeeklyCostAmount,
		GSTCentralPct:        i.GSTCentralPct,
		GSTStatePct:          i.GSTStatePct,
		PenaltyAmount:        i.PenaltyAmount,
		TotalWithTax:         i.TotalWithTax,
		DueDate:              i.DueDate,
		ActualPaymentDate:    i.ActualPaymentDate,
		Status:               i.Status,
		CancellationReason:   i.CancellationReason,
		IsLate:               i.IsLate(),
	}

	if i.Project.ID != 0 {
		resp.ProjectName = i.Project.Name
		resp.ClientName = i.Project.ClientName
	}

	return resp
}
