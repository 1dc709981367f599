package services

import (
	"time"
)

// Week date arithmetic for payment schedules. All functions are pure; dates
// are treated at day granularity in the project's local calendar.

// DaysPerWeek is the length of a scheduling week
const DaysPerWeek = 7

// DefaultGraceDays is the default gap between invoice date and due date
const DefaultGraceDays = 2

// ComputeWeekDate returns the invoice date for a given week offset from the
// signup date. Week 0 is the signup date itself.
func ComputeWeekDate(signupDate time.Time, weekNo int) time.Time {
	return signupDate.AddDate(0, 0, weekNo*DaysPerWeek)
}

// ComputeDueDate returns the default due date for an invoice date when the
// caller does not supply one explicitly.
func ComputeDueDate(invoiceDate time.Time, graceDays int) time.Time {
	if graceDays <= 0 {
		graceDays = DefaultGraceDays
	}
	return invoiceDate.AddDate(0, 0, graceDays)
}

// WithinProjectWindow reports whether date falls inside
// [signupDate, signupDate + totalWeeks*7 days]. When signupDate is nil the
// project has no window and no constraint applies.
func WithinProjectWindow(date time.Time, signupDate *time.Time, totalWeeks int) bool {
	if signupDate == nil {
		return true
	}
	start := atMidnight(*signupDate)
	end := start.AddDate(0, 0, totalWeeks*DaysPerWeek)
	d := atMidnight(date)
	return !d.Before(start) && !d.After(end)
}

// ValidateDateOrder checks that the due date does not precede the invoice
// date. Returns a DateRangeError identifying the offending week on failure.
func ValidateDateOrder(projectID uint, weekNo int, invoiceDate, dueDate time.Time) error {
	if atMidnight(dueDate).Before(atMidnight(invoiceDate)) {
		return &DateRangeError{
			ProjectID:   projectID,
			WeekNo:      weekNo,
			InvoiceDate: invoiceDate,
			DueDate:     dueDate,
		}
	}
	return nil
}

func atMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
