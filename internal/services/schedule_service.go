package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nestora/studio-api/internal/models"
	"github.com/nestora/studio-api/internal/repository"
	"github.com/nestora/studio-api/internal/statemachine"
	"github.com/nestora/studio-api/pkg/logger"
	"gorm.io/gorm"
)

// ScheduleSession is the in-memory working copy of one project's payment
// plan. It is owned by a single caller; totals are always derived from the
// current entry set, never cached. Mutations validate eagerly, completeness
// is only enforced at submit time so a plan may be out of balance while
// being edited.
type ScheduleSession struct {
	project   *models.Project
	alloc     *PercentageAllocator
	weeks     map[int]*models.PaymentWeek
	graceDays int
}

// NewScheduleSession creates a session for a project and synthesizes the
// week-0 signup entry when a signup date exists. Without a signup date no
// week 0 is generated; the schedule then consists of weeks 1..N only.
func NewScheduleSession(project *models.Project, graceDays int) *ScheduleSession {
	s := &ScheduleSession{
		project:   project,
		weeks:     make(map[int]*models.PaymentWeek),
		graceDays: graceDays,
	}

	signupShare := 0.0
	if project.SignupDate != nil {
		signupShare = project.SignupShare()
		s.weeks[models.SignupWeekNo] = s.synthesizeSignupWeek()
	}
	s.alloc = NewPercentageAllocator(project.ID, project.TotalWeeks, signupShare)

	return s
}

// synthesizeSignupWeek builds the week-0 entry. The signup charge is taken
// at signup, so it is born paid, with the signup share as its percentage
// (zero when the project has no signup percentage).
func (s *ScheduleSession) synthesizeSignupWeek() *models.PaymentWeek {
	signup := *s.project.SignupDate
	pct := s.project.SignupShare()

	return &models.PaymentWeek{
		ProjectID:    s.project.ID,
		WeekNo:       models.SignupWeekNo,
		Percentage:   pct,
		InvoiceDate:  signup,
		DueDate:      ComputeDueDate(signup, s.graceDays),
		Status:       models.WeekStatusPaid,
		PaidAmount:   ComputeWeeklyAmount(s.project.TotalCost, pct),
		IsSignupWeek: true,
		PaidAt:       &signup,
	}
}

// Restore loads persisted weeks into the session, replacing any synthesized
// entries. Used when a session is rebuilt from storage.
func (s *ScheduleSession) Restore(weeks []models.PaymentWeek) error {
	for i := range weeks {
		w := &weeks[i]
		if w.WeekNo == models.SignupWeekNo {
			s.weeks[models.SignupWeekNo] = w
			continue
		}
		if err := s.alloc.AddWeek(w.WeekNo, w.Percentage); err != nil {
			return err
		}
		s.weeks[w.WeekNo] = w
	}
	return nil
}

// Project returns the project this session belongs to
func (s *ScheduleSession) Project() *models.Project {
	return s.project
}

// AddWeek validates and registers a new payment week. The due date is
// derived from the invoice date when omitted.
func (s *ScheduleSession) AddWeek(weekNo int, percentage float64, invoiceDate time.Time, dueDate *time.Time) (*models.PaymentWeek, error) {
	if !WithinProjectWindow(invoiceDate, s.project.SignupDate, s.project.TotalWeeks) {
		return nil, fmt.Errorf("project %d week %d: invoice date %s outside project window: %w",
			s.project.ID, weekNo, invoiceDate.Format("2006-01-02"), ErrInvalidDateRange)
	}

	due := ComputeDueDate(invoiceDate, s.graceDays)
	if dueDate != nil {
		due = *dueDate
	}
	if err := ValidateDateOrder(s.project.ID, weekNo, invoiceDate, due); err != nil {
		return nil, err
	}
	if !WithinProjectWindow(due, s.project.SignupDate, s.project.TotalWeeks) {
		return nil, fmt.Errorf("project %d week %d: due date %s outside project window: %w",
			s.project.ID, weekNo, due.Format("2006-01-02"), ErrInvalidDateRange)
	}

	if err := s.alloc.AddWeek(weekNo, percentage); err != nil {
		return nil, err
	}

	week := &models.PaymentWeek{
		ProjectID:   s.project.ID,
		WeekNo:      weekNo,
		Percentage:  percentage,
		InvoiceDate: invoiceDate,
		DueDate:     due,
		Status:      models.WeekStatusPending,
	}
	s.weeks[weekNo] = week
	return week, nil
}

// EditWeek updates percentage and dates of an existing week. Week 0 is
// immutable once created.
func (s *ScheduleSession) EditWeek(weekNo int, percentage float64, invoiceDate time.Time, dueDate *time.Time) (*models.PaymentWeek, error) {
	if weekNo == models.SignupWeekNo {
		return nil, &WeekError{ProjectID: s.project.ID, WeekNo: weekNo, Value: percentage, Err: ErrImmutableWeek}
	}
	week, ok := s.weeks[weekNo]
	if !ok {
		return nil, &WeekError{ProjectID: s.project.ID, WeekNo: weekNo, Value: percentage, Err: ErrInvalidWeek}
	}

	if !WithinProjectWindow(invoiceDate, s.project.SignupDate, s.project.TotalWeeks) {
		return nil, fmt.Errorf("project %d week %d: invoice date %s outside project window: %w",
			s.project.ID, weekNo, invoiceDate.Format("2006-01-02"), ErrInvalidDateRange)
	}

	due := ComputeDueDate(invoiceDate, s.graceDays)
	if dueDate != nil {
		due = *dueDate
	}
	if err := ValidateDateOrder(s.project.ID, weekNo, invoiceDate, due); err != nil {
		return nil, err
	}
	if !WithinProjectWindow(due, s.project.SignupDate, s.project.TotalWeeks) {
		return nil, fmt.Errorf("project %d week %d: due date %s outside project window: %w",
			s.project.ID, weekNo, due.Format("2006-01-02"), ErrInvalidDateRange)
	}

	if err := s.alloc.UpdateWeek(weekNo, percentage); err != nil {
		return nil, err
	}

	week.Percentage = percentage
	week.InvoiceDate = invoiceDate
	week.DueDate = due
	return week, nil
}

// DeleteWeek removes a week from the session. Week 0 is immutable.
func (s *ScheduleSession) DeleteWeek(weekNo int) (*models.PaymentWeek, error) {
	if weekNo == models.SignupWeekNo {
		return nil, &WeekError{ProjectID: s.project.ID, WeekNo: weekNo, Err: ErrImmutableWeek}
	}
	week, ok := s.weeks[weekNo]
	if !ok {
		return nil, &WeekError{ProjectID: s.project.ID, WeekNo: weekNo, Err: ErrInvalidWeek}
	}
	if err := s.alloc.RemoveWeek(weekNo); err != nil {
		return nil, err
	}
	delete(s.weeks, weekNo)
	return week, nil
}

// Week returns the session entry for a week number
func (s *ScheduleSession) Week(weekNo int) (*models.PaymentWeek, bool) {
	w, ok := s.weeks[weekNo]
	return w, ok
}

// Weeks returns all entries in ascending week order, week 0 first
func (s *ScheduleSession) Weeks() []models.PaymentWeek {
	nos := make([]int, 0, len(s.weeks))
	for n := range s.weeks {
		nos = append(nos, n)
	}
	sort.Ints(nos)

	out := make([]models.PaymentWeek, 0, len(nos))
	for _, n := range nos {
		out = append(out, *s.weeks[n])
	}
	return out
}

// TotalPercentage returns the grand total including the signup share
func (s *ScheduleSession) TotalPercentage() float64 {
	return s.alloc.TotalPercentage()
}

// IsComplete reports whether the schedule sums to 100% within tolerance
func (s *ScheduleSession) IsComplete() bool {
	return s.alloc.IsComplete()
}

// ScheduleService orchestrates payment plan sessions against storage
type ScheduleService struct {
	projectRepo repository.ProjectRepository
	weekRepo    repository.PaymentWeekRepository
	graceDays   int
}

// NewScheduleService creates a new schedule service
func NewScheduleService(projectRepo repository.ProjectRepository, weekRepo repository.PaymentWeekRepository, graceDays int) *ScheduleService {
	return &ScheduleService{
		projectRepo: projectRepo,
		weekRepo:    weekRepo,
		graceDays:   graceDays,
	}
}

// LoadSession rebuilds a session from the project record and its persisted
// weeks. The first time a project with a signup date is loaded, the
// synthesized week 0 is persisted so the signup charge exists from then on.
func (s *ScheduleService) LoadSession(ctx context.Context, projectID uint) (*ScheduleSession, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", projectID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load project %d: %w", projectID, err)
	}

	weeks, err := s.weekRepo.FindByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment weeks for project %d: %w", projectID, err)
	}

	session := NewScheduleSession(project, s.graceDays)

	hasPersistedSignup := false
	for _, w := range weeks {
		if w.WeekNo == models.SignupWeekNo {
			hasPersistedSignup = true
		}
	}

	if err := session.Restore(weeks); err != nil {
		return nil, err
	}

	// First load of a project with a signup date: materialize week 0
	if !hasPersistedSignup {
		if week, ok := session.Week(models.SignupWeekNo); ok {
			if err := s.weekRepo.Create(ctx, week); err != nil {
				return nil, fmt.Errorf("failed to persist signup week for project %d: %w", projectID, err)
			}
			logger.Info("Created signup week", "project_id", projectID, "percentage", week.Percentage)
		}
	}

	return session, nil
}

// Submit validates the session and persists its weeks: week 0 first, then
// ascending week number, so downstream totals stay consistent. Persistence
// is per week with no rollback; on failure the error names the failed week
// and the caller may retry just that week.
func (s *ScheduleService) Submit(ctx context.Context, session *ScheduleSession) error {
	if !session.IsComplete() {
		return &IncompleteScheduleError{
			ProjectID: session.project.ID,
			Total:     session.TotalPercentage(),
		}
	}
	if session.alloc.Len() == 0 {
		return fmt.Errorf("project %d: schedule has no billable weeks: %w", session.project.ID, ErrIncompleteSchedule)
	}

	for _, week := range session.Weeks() {
		w := week
		var err error
		if w.ID == 0 {
			err = s.weekRepo.Create(ctx, &w)
		} else {
			err = s.weekRepo.Update(ctx, &w)
		}
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				err = fmt.Errorf("week %d: %w", w.WeekNo, ErrConflictingWeek)
			}
			return &SubmitError{ProjectID: session.project.ID, WeekNo: w.WeekNo, Err: err}
		}
		if stored, ok := session.Week(w.WeekNo); ok {
			stored.ID = w.ID
		}
	}

	logger.Info("Payment schedule submitted",
		"project_id", session.project.ID,
		"weeks", len(session.weeks),
		"total_percentage", session.TotalPercentage())
	return nil
}

// AddWeek appends a single week to an already submitted schedule. Only
// unused week numbers are accepted; conflicts at the storage layer surface
// as ErrConflictingWeek.
func (s *ScheduleService) AddWeek(ctx context.Context, projectID uint, weekNo int, percentage float64, invoiceDate time.Time, dueDate *time.Time) (*models.PaymentWeek, error) {
	session, err := s.LoadSession(ctx, projectID)
	if err != nil {
		return nil, err
	}

	week, err := session.AddWeek(weekNo, percentage, invoiceDate, dueDate)
	if err != nil {
		return nil, err
	}

	if err := s.weekRepo.Create(ctx, week); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("project %d week %d: %w", projectID, weekNo, ErrConflictingWeek)
		}
		return nil, fmt.Errorf("failed to persist week %d: %w", weekNo, err)
	}
	return week, nil
}

// EditWeek updates a persisted week after revalidating the full schedule
func (s *ScheduleService) EditWeek(ctx context.Context, projectID uint, weekNo int, percentage float64, invoiceDate time.Time, dueDate *time.Time) (*models.PaymentWeek, error) {
	session, err := s.LoadSession(ctx, projectID)
	if err != nil {
		return nil, err
	}

	week, err := session.EditWeek(weekNo, percentage, invoiceDate, dueDate)
	if err != nil {
		return nil, err
	}

	if err := s.weekRepo.Update(ctx, week); err != nil {
		return nil, fmt.Errorf("failed to update week %d: %w", weekNo, err)
	}
	return week, nil
}

// DeleteWeek removes a persisted non-signup week
func (s *ScheduleService) DeleteWeek(ctx context.Context, projectID uint, weekNo int) error {
	session, err := s.LoadSession(ctx, projectID)
	if err != nil {
		return err
	}

	week, err := session.DeleteWeek(weekNo)
	if err != nil {
		return err
	}
	if week.ID == 0 {
		return nil
	}

	if err := s.weekRepo.Delete(ctx, week.ID); err != nil {
		return fmt.Errorf("failed to delete week %d: %w", weekNo, err)
	}
	return nil
}

// RecordPayment applies a received amount to a week and advances its status
// through the payment state machine. Amounts accumulate; once the running
// total reaches the scheduled amount the week is paid.
func (s *ScheduleService) RecordPayment(ctx context.Context, projectID uint, weekNo int, amount float64) (*models.PaymentWeek, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("project %d week %d: payment amount %.2f: %w", projectID, weekNo, amount, ErrNegativeAmount)
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", projectID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load project %d: %w", projectID, err)
	}

	week, err := s.weekRepo.FindByProjectAndWeek(ctx, projectID, weekNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d week %d: %w", projectID, weekNo, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load week %d: %w", weekNo, err)
	}

	newPaid := week.PaidAmount + amount
	scheduled := week.ScheduledAmount(project.TotalCost)

	wfsm := statemachine.NewPaymentWeekFSM(week)
	if newPaid >= scheduled-0.005 {
		if err := wfsm.RecordPaid(ctx); err != nil {
			return nil, &TransitionError{Entity: "payment week", ID: week.ID, From: week.Status, Event: "record_paid", Err: err}
		}
		now := time.Now()
		week.PaidAt = &now
	} else if week.Status == models.WeekStatusPending {
		if err := wfsm.RecordPartial(ctx); err != nil {
			return nil, &TransitionError{Entity: "payment week", ID: week.ID, From: week.Status, Event: "record_partial", Err: err}
		}
	}
	week.PaidAmount = newPaid

	if err := s.weekRepo.Update(ctx, week); err != nil {
		return nil, fmt.Errorf("failed to update week %d: %w", weekNo, err)
	}

	logger.Info("Payment recorded",
		"project_id", projectID,
		"week_no", weekNo,
		"amount", amount,
		"status", week.Status)
	return week, nil
}

// ScanOverdue logs weeks that are past due and not fully paid. Runs as a
// recurring background job.
func (s *ScheduleService) ScanOverdue(ctx context.Context) error {
	weeks, err := s.weekRepo.FindOverdue(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan overdue weeks: %w", err)
	}

	for _, w := range weeks {
		outstanding := w.ScheduledAmount(w.Project.TotalCost) - w.PaidAmount
		logger.Warn("Payment week overdue",
			"project_id", w.ProjectID,
			"week_no", w.WeekNo,
			"days_overdue", w.OverdueDays(),
			"outstanding", math.Max(outstanding, 0))
	}
	return nil
}
