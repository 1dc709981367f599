package models

import (
	"fmt"
	"time"
)

// PaymentWeek represents one scheduled payment obligation for a project.
// Week 0 is the signup charge: generated by the system, never editable.
type PaymentWeek struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ProjectID    uint       `gorm:"not null;uniqueIndex:idx_project_week" json:"project_id"`
	CustomerID   *uint      `gorm:"index" json:"customer_id"`
	WeekNo       int        `gorm:"not null;uniqueIndex:idx_project_week" json:"week_no"`
	Percentage   float64    `gorm:"type:decimal(5,2);not null" json:"percentage"`
	InvoiceDate  time.Time  `gorm:"type:date;not null" json:"invoice_date"`
	DueDate      time.Time  `gorm:"type:date;not null;index" json:"due_date"`
	Status       string     `gorm:"default:pending;not null;index" json:"status"`
	PaidAmount   float64    `gorm:"type:decimal(15,2);default:0" json:"paid_amount"`
	IsSignupWeek bool       `gorm:"default:false" json:"is_signup_week"`
	Notes        *string    `gorm:"type:text" json:"notes"`
	PaidAt       *time.Time `gorm:"type:date" json:"paid_at"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Associations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// TableName specifies the table name for PaymentWeek
func (PaymentWeek) TableName() string {
	return "payment_weeks"
}

// Payment week status constants
const (
	WeekStatusPending = "pending"
	WeekStatusPartial = "partial"
	WeekStatusPaid    = "paid"
)

// SignupWeekNo is the reserved week number for the signup charge
const SignupWeekNo = 0

// ParseWeekStatus normalizes a status value into the canonical string form.
// Legacy clients send numeric codes (1=pending, 2=partial, 3=paid); those are
// translated here, at the boundary, so nothing downstream branches on raw codes.
func ParseWeekStatus(v any) (string, error) {
	switch s := v.(type) {
	case string:
		switch s {
		case WeekStatusPending, WeekStatusPartial, WeekStatusPaid:
			return s, nil
		case "1":
			return WeekStatusPending, nil
		case "2":
			return WeekStatusPartial, nil
		case "3":
			return WeekStatusPaid, nil
		}
	case int:
		return parseWeekStatusCode(s)
	case float64:
		return parseWeekStatusCode(int(s))
	}
	return "", fmt.Errorf("unknown payment week status: %v", v)
}

func parseWeekStatusCode(code int) (string, error) {
	switch code {
	case 1:
		return WeekStatusPending, nil
	case 2:
		return WeekStatusPartial, nil
	case 3:
		return WeekStatusPaid, nil
	}
	return "", fmt.Errorf("unknown payment week status code: %d", code)
}

// ScheduledAmount returns the monetary amount this week represents
// against the given project total cost
func (w *PaymentWeek) ScheduledAmount(totalCost float64) float64 {
	return totalCost * w.Percentage / 100
}

// MayRecordPartial returns true if a partial payment may be recorded
func (w *PaymentWeek) MayRecordPartial() bool {
	return w.Status == WeekStatusPending
}

// MayRecordPaid returns true if the week may be marked fully paid
func (w *PaymentWeek) MayRecordPaid() bool {
	return w.Status == WeekStatusPending || w.Status == WeekStatusPartial
}

// IsOverdue returns true if the week is past due and not fully paid
func (w *PaymentWeek) IsOverdue() bool {
	return w.Status != WeekStatusPaid && time.Now().After(w.DueDate)
}

// OverdueDays returns the number of days the week is overdue
func (w *PaymentWeek) OverdueDays() int {
	if !w.IsOverdue() {
		return 0
	}
	return int(time.Since(w.DueDate).Hours() / 24)
}

// PaymentWeekResponse is the JSON response format for payment weeks
type PaymentWeekResponse struct {
	ID              uint       `json:"id"`
	ProjectID       uint       `json:"project_id"`
	WeekNo          int        `json:"week_no"`
	Percentage      float64    `json:"percentage"`
	InvoiceDate     time.Time  `json:"invoice_date"`
	DueDate         time.Time  `json:"due_date"`
	Status          string     `json:"status"`
	PaidAmount      float64    `json:"paid_amount"`
	ScheduledAmount float64    `json:"scheduled_amount"`
	IsSignupWeek    bool       `json:"is_signup_week"`
	OverdueDays     int        `json:"overdue_days"`
	Notes           *string    `json:"notes"`
	PaidAt          *time.Time `json:"paid_at"`
}

// ToResponse converts PaymentWeek to PaymentWeekResponse. The scheduled
// amount is derived from the project total cost, which must be supplied
// since the association is not always loaded.
func (w *PaymentWeek) ToResponse(totalCost float64) PaymentWeekResponse {
	return PaymentWeekResponse{
		ID:              w.ID,
		ProjectID:       w.ProjectID,
		WeekNo:          w.WeekNo,
		Percentage:      w.Percentage,
		InvoiceDate:     w.InvoiceDate,
		DueDate:         w.DueDate,
		Status:          w.Status,
		PaidAmount:      w.PaidAmount,
		ScheduledAmount: w.ScheduledAmount(totalCost),
		IsSignupWeek:    w.IsSignupWeek,
		OverdueDays:     w.OverdueDays(),
		Notes:           w.Notes,
		PaidAt:          w.PaidAt,
	}
}
