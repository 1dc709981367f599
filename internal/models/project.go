package models

import (
	"time"
)

// Project represents a rental or interior-design engagement. The payment
// engine reads project parameters but never mutates them; the project CRUD
// surface lives in the main application.
type Project struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"not null" json:"name"`
	ClientName       string     `gorm:"not null" json:"client_name"`
	ServiceType      string     `gorm:"default:design" json:"service_type"`
	Address          string     `json:"address"`
	TotalCost        float64    `gorm:"type:decimal(15,2);not null" json:"total_cost"`
	SignupPercentage *float64   `gorm:"type:decimal(5,2)" json:"signup_percentage"`
	SignupDate       *time.Time `gorm:"type:date" json:"signup_date"`
	TotalWeeks       int        `gorm:"not null;default:0" json:"total_weeks"`
	GUID             string     `gorm:"column:guid;not null" json:"guid"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Associations
	PaymentWeeks []PaymentWeek `gorm:"foreignKey:ProjectID" json:"payment_weeks,omitempty"`
	Invoices     []Invoice     `gorm:"foreignKey:ProjectID" json:"invoices,omitempty"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

// Service type constants
const (
	ServiceTypeRental = "rental"
	ServiceTypeDesign = "design"
)

// ProjectEndDate returns the last date of the project window
// (signup date plus total weeks). Second return is false when no
// signup date is set, in which case no window constraint applies.
func (p *Project) ProjectEndDate() (time.Time, bool) {
	if p.SignupDate == nil {
		return time.Time{}, false
	}
	return p.SignupDate.AddDate(0, 0, p.TotalWeeks*7), true
}

// HasSignup returns true when both signup date and signup percentage are set
func (p *Project) HasSignup() bool {
	return p.SignupDate != nil && p.SignupPercentage != nil
}

// SignupShare returns the signup percentage, or 0 when unset
func (p *Project) SignupShare() float64 {
	if p.SignupPercentage == nil {
		return 0
	}
	return *p.SignupPercentage
}

// ProjectResponse is the JSON response format for projects
type ProjectResponse struct {
	ID               uint       `json:"id"`
	Name             string     `json:"name"`
	ClientName       string     `json:"client_name"`
	ServiceType      string     `json:"service_type"`
	Address          string     `json:"address"`
	TotalCost        float64    `json:"total_cost"`
	SignupPercentage *float64   `json:"signup_percentage"`
	SignupDate       *time.Time `json:"signup_date"`
	TotalWeeks       int        `json:"total_weeks"`
	ScheduledWeeks   int        `json:"scheduled_weeks"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ToResponse converts Project to ProjectResponse
func (p *Project) ToResponse() ProjectResponse {
	return ProjectResponse{
		ID:               p.ID,
		Name:             p.Name,
		ClientName:       p.ClientName,
		ServiceType:      p.ServiceType,
		Address:          p.Address,
		TotalCost:        p.TotalCost,
		SignupPercentage: p.SignupPercentage,
		SignupDate:       p.SignupDate,
		TotalWeeks:       p.TotalWeeks,
		ScheduledWeeks:   len(p.PaymentWeeks),
		CreatedAt:        p.CreatedAt,
	}
}
