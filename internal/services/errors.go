package services

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the payment-plan engine. Use with errors.Is().
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidPercentage  = errors.New("percentage out of range")
	ErrInvalidWeek        = errors.New("invalid week number")
	ErrDuplicateWeek      = errors.New("week already scheduled")
	ErrImmutableWeek      = errors.New("signup week cannot be modified")
	ErrInvalidDateRange   = errors.New("due date precedes invoice date")
	ErrIncompleteSchedule = errors.New("schedule percentages do not sum to 100")
	ErrInvalidCategory    = errors.New("unknown party category")
	ErrNegativeAmount     = errors.New("computed amount is negative")
	ErrTerminalState      = errors.New("invoice is in a terminal state")
	ErrConflictingWeek    = errors.New("week already persisted for project")
)

// WeekError reports a validation failure for a specific week of a project.
// It wraps one of the sentinel errors above.
type WeekError struct {
	ProjectID uint
	WeekNo    int
	Value     float64
	Err       error
}

func (e *WeekError) Error() string {
	return fmt.Sprintf("project %d week %d (value %.2f): %v", e.ProjectID, e.WeekNo, e.Value, e.Err)
}

func (e *WeekError) Unwrap() error {
	return e.Err
}

// DateRangeError reports an invalid invoice/due date pair.
type DateRangeError struct {
	ProjectID   uint
	WeekNo      int
	InvoiceDate time.Time
	DueDate     time.Time
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("project %d week %d: due date %s precedes invoice date %s",
		e.ProjectID, e.WeekNo, e.DueDate.Format("2006-01-02"), e.InvoiceDate.Format("2006-01-02"))
}

func (e *DateRangeError) Unwrap() error {
	return ErrInvalidDateRange
}

// IncompleteScheduleError reports how far a schedule is from 100%.
type IncompleteScheduleError struct {
	ProjectID uint
	Total     float64
}

func (e *IncompleteScheduleError) Error() string {
	return fmt.Sprintf("project %d: schedule totals %.2f%%, must equal 100%%", e.ProjectID, e.Total)
}

func (e *IncompleteScheduleError) Unwrap() error {
	return ErrIncompleteSchedule
}

// SubmitError reports which week of a submission failed to persist.
// Weeks persisted before the failure remain persisted; the caller decides
// whether to retry the failed week or abandon the submission.
type SubmitError struct {
	ProjectID uint
	WeekNo    int
	Err       error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("project %d: persisting week %d failed: %v", e.ProjectID, e.WeekNo, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// TransitionError reports an illegal status transition attempt.
type TransitionError struct {
	Entity  string
	ID      uint
	From    string
	Event   string
	Err     error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %d: cannot %s from status %q: %v", e.Entity, e.ID, e.Event, e.From, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// IsClientError returns true if the error is caused by invalid caller input
// rather than an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPercentage) ||
		errors.Is(err, ErrInvalidWeek) ||
		errors.Is(err, ErrDuplicateWeek) ||
		errors.Is(err, ErrImmutableWeek) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrIncompleteSchedule) ||
		errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrTerminalState) ||
		errors.Is(err, ErrConflictingWeek)
}
