package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/nestora/studio-api/internal/models"
	"github.com/nestora/studio-api/internal/repository"
	"github.com/nestora/studio-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Mock ProjectRepository
type mockProjectRepository struct {
	repository.ProjectRepository
	project *models.Project
}

func (m *mockProjectRepository) FindByID(ctx context.Context, id uint) (*models.Project, error) {
	if m.project != nil && m.project.ID == id {
		return m.project, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// Mock PaymentWeekRepository backed by a map
type mockPaymentWeekRepository struct {
	repository.PaymentWeekRepository
	weeks          map[int]*models.PaymentWeek
	createOrder    []int
	failWeekNo     *int
	conflictWeekNo *int
	nextID         uint
}

func newMockWeekRepo() *mockPaymentWeekRepository {
	return &mockPaymentWeekRepository{weeks: make(map[int]*models.PaymentWeek)}
}

func (m *mockPaymentWeekRepository) FindByProject(ctx context.Context, projectID uint) ([]models.PaymentWeek, error) {
	nos := make([]int, 0, len(m.weeks))
	for n := range m.weeks {
		nos = append(nos, n)
	}
	sort.Ints(nos)

	var out []models.PaymentWeek
	for _, n := range nos {
		out = append(out, *m.weeks[n])
	}
	return out, nil
}

func (m *mockPaymentWeekRepository) FindByProjectAndWeek(ctx context.Context, projectID uint, weekNo int) (*models.PaymentWeek, error) {
	if w, ok := m.weeks[weekNo]; ok {
		return w, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentWeekRepository) Create(ctx context.Context, week *models.PaymentWeek) error {
	if m.failWeekNo != nil && *m.failWeekNo == week.WeekNo {
		return fmt.Errorf("storage unavailable")
	}
	if m.conflictWeekNo != nil && *m.conflictWeekNo == week.WeekNo {
		return gorm.ErrDuplicatedKey
	}
	if _, exists := m.weeks[week.WeekNo]; exists {
		return gorm.ErrDuplicatedKey
	}
	m.nextID++
	week.ID = m.nextID
	copy := *week
	m.weeks[week.WeekNo] = &copy
	m.createOrder = append(m.createOrder, week.WeekNo)
	return nil
}

func (m *mockPaymentWeekRepository) Update(ctx context.Context, week *models.PaymentWeek) error {
	copy := *week
	m.weeks[week.WeekNo] = &copy
	return nil
}

func (m *mockPaymentWeekRepository) Delete(ctx context.Context, id uint) error {
	for n, w := range m.weeks {
		if w.ID == id {
			delete(m.weeks, n)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func floatPtr(f float64) *float64 { return &f }

func testProject() *models.Project {
	signup := date(2025, 1, 1)
	return &models.Project{
		ID:               1,
		Name:             "Lakeview Apartments",
		ClientName:       "A. Subramanian",
		TotalCost:        1000000,
		SignupPercentage: floatPtr(20),
		SignupDate:       &signup,
		TotalWeeks:       10,
	}
}

func newTestService(project *models.Project) (*ScheduleService, *mockPaymentWeekRepository) {
	logger.Setup("test")
	weekRepo := newMockWeekRepo()
	svc := NewScheduleService(&mockProjectRepository{project: project}, weekRepo, 2)
	return svc, weekRepo
}

func TestInitializeSynthesizesSignupWeek(t *testing.T) {
	session := NewScheduleSession(testProject(), 2)

	week, ok := session.Week(0)
	require.True(t, ok)
	assert.Equal(t, 20.0, week.Percentage)
	assert.Equal(t, date(2025, 1, 1), week.InvoiceDate)
	assert.Equal(t, date(2025, 1, 3), week.DueDate)
	assert.Equal(t, models.WeekStatusPaid, week.Status)
	assert.True(t, week.IsSignupWeek)
	assert.Equal(t, 200000.0, week.PaidAmount)
}

func TestSignupChargeUsesMoneyRounding(t *testing.T) {
	project := testProject()
	project.TotalCost = 999.85
	project.SignupPercentage = floatPtr(3.3335)

	session := NewScheduleSession(project, 2)

	week, ok := session.Week(0)
	require.True(t, ok)
	assert.Equal(t, ComputeWeeklyAmount(999.85, 3.3335), week.PaidAmount)
	assert.Equal(t, 33.33, week.PaidAmount)
}

func TestInitializeWithoutSignupPercentage(t *testing.T) {
	project := testProject()
	project.SignupPercentage = nil

	session := NewScheduleSession(project, 2)

	week, ok := session.Week(0)
	require.True(t, ok)
	assert.Equal(t, 0.0, week.Percentage)
	assert.True(t, week.IsSignupWeek)
}

func TestInitializeWithoutSignupDate(t *testing.T) {
	project := testProject()
	project.SignupDate = nil

	session := NewScheduleSession(project, 2)

	_, ok := session.Week(0)
	assert.False(t, ok, "no signup date means no week 0")
	assert.Empty(t, session.Weeks())
	assert.Equal(t, 0.0, session.TotalPercentage(), "signup share not counted without a signup entry")
}

func TestSessionAddWeek(t *testing.T) {
	session := NewScheduleSession(testProject(), 2)

	week, err := session.AddWeek(1, 8, date(2025, 1, 8), nil)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 1, 10), week.DueDate, "due date derived from invoice date")
	assert.Equal(t, models.WeekStatusPending, week.Status)

	t.Run("explicit due date before invoice date", func(t *testing.T) {
		bad := date(2025, 1, 7)
		_, err := session.AddWeek(2, 8, date(2025, 1, 15), &bad)
		assert.True(t, errors.Is(err, ErrInvalidDateRange))
	})

	t.Run("invoice date outside project window", func(t *testing.T) {
		_, err := session.AddWeek(2, 8, date(2026, 1, 1), nil)
		assert.True(t, errors.Is(err, ErrInvalidDateRange))
	})
}

func TestSessionEditAndDeleteWeek(t *testing.T) {
	session := NewScheduleSession(testProject(), 2)
	_, err := session.AddWeek(1, 8, date(2025, 1, 8), nil)
	require.NoError(t, err)

	week, err := session.EditWeek(1, 10, date(2025, 1, 9), nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, week.Percentage)
	assert.InDelta(t, 30.0, session.TotalPercentage(), 1e-9)

	t.Run("due date outside project window", func(t *testing.T) {
		outside := date(2026, 6, 1)
		_, err := session.EditWeek(1, 10, date(2025, 1, 9), &outside)
		assert.True(t, errors.Is(err, ErrInvalidDateRange))
	})

	t.Run("signup week is immutable", func(t *testing.T) {
		_, err := session.EditWeek(0, 10, date(2025, 1, 1), nil)
		assert.True(t, errors.Is(err, ErrImmutableWeek))

		_, err = session.DeleteWeek(0)
		assert.True(t, errors.Is(err, ErrImmutableWeek))
	})

	_, err = session.DeleteWeek(1)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, session.TotalPercentage(), 1e-9)
}

func TestLoadSessionPersistsSignupWeekOnce(t *testing.T) {
	svc, weekRepo := newTestService(testProject())
	ctx := context.Background()

	session, err := svc.LoadSession(ctx, 1)
	require.NoError(t, err)
	_, ok := session.Week(0)
	assert.True(t, ok)
	assert.Equal(t, []int{0}, weekRepo.createOrder, "week 0 materialized on first load")

	// Second load restores the persisted entry instead of re-creating it
	_, err = svc.LoadSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, weekRepo.createOrder)
}

func TestSubmitCompleteSchedule(t *testing.T) {
	svc, weekRepo := newTestService(testProject())
	ctx := context.Background()

	session, err := svc.LoadSession(ctx, 1)
	require.NoError(t, err)

	for week := 1; week <= 10; week++ {
		_, err := session.AddWeek(week, 8, ComputeWeekDate(date(2025, 1, 1), week), nil)
		require.NoError(t, err)
		if week < 10 {
			assert.False(t, session.IsComplete())
		}
	}
	assert.True(t, session.IsComplete())

	require.NoError(t, svc.Submit(ctx, session))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, weekRepo.createOrder, "week 0 first, then ascending")
}

func TestSubmitIncompleteSchedule(t *testing.T) {
	svc, _ := newTestService(testProject())
	ctx := context.Background()

	session, err := svc.LoadSession(ctx, 1)
	require.NoError(t, err)
	_, err = session.AddWeek(1, 79.5, date(2025, 1, 8), nil)
	require.NoError(t, err)

	err = svc.Submit(ctx, session)
	assert.True(t, errors.Is(err, ErrIncompleteSchedule))

	var ise *IncompleteScheduleError
	require.True(t, errors.As(err, &ise))
	assert.InDelta(t, 99.5, ise.Total, 1e-9)
}

func TestSubmitWithinTolerance(t *testing.T) {
	svc, _ := newTestService(testProject())
	ctx := context.Background()

	session, err := svc.LoadSession(ctx, 1)
	require.NoError(t, err)
	for week := 1; week <= 9; week++ {
		_, err := session.AddWeek(week, 8, ComputeWeekDate(date(2025, 1, 1), week), nil)
		require.NoError(t, err)
	}
	_, err = session.AddWeek(10, 8.005, ComputeWeekDate(date(2025, 1, 1), 10), nil)
	require.NoError(t, err)

	assert.NoError(t, svc.Submit(ctx, session), "100.005 is within the ±0.01 tolerance")
}

func TestSubmitRequiresBillableWeek(t *testing.T) {
	project := testProject()
	project.SignupPercentage = floatPtr(100)
	svc, _ := newTestService(project)
	ctx := context.Background()

	session, err := svc.LoadSession(ctx, 1)
	require.NoError(t, err)

	err = svc.Submit(ctx, session)
	assert.True(t, errors.Is(err, ErrIncompleteSchedule), "signup-only schedule is not submittable")
}

func TestSubmitReportsFailedWeekWithoutRollback(t *testing.T) {
	svc, weekRepo := newTestService(testProject())
	ctx := context.Background()

	session, err := svc.LoadSession(ctx, 1)
	require.NoError(t, err)
	for week := 1; week <= 10; week++ {
		_, err := session.AddWeek(week, 8, ComputeWeekDate(date(2025, 1, 1), week), nil)
		require.NoError(t, err)
	}

	failAt := 5
	weekRepo.failWeekNo = &failAt

	err = svc.Submit(ctx, session)
	require.Error(t, err)

	var se *SubmitError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 5, se.WeekNo)

	// Weeks before the failure stay persisted
	assert.Equal(t, []int{0, 1, 2, 3, 4}, weekRepo.createOrder)

	// Retrying after the fault clears succeeds for the remaining weeks
	weekRepo.failWeekNo = nil
	require.NoError(t, svc.Submit(ctx, session))
}

func TestAddWeekConflictSurfaces(t *testing.T) {
	svc, weekRepo := newTestService(testProject())
	ctx := context.Background()

	_, err := svc.AddWeek(ctx, 1, 1, 8, date(2025, 1, 8), nil)
	require.NoError(t, err)

	// A second caller persists week 2 between our session load and create
	conflictAt := 2
	weekRepo.conflictWeekNo = &conflictAt

	_, err = svc.AddWeek(ctx, 1, 2, 8, date(2025, 1, 15), nil)
	assert.True(t, errors.Is(err, ErrConflictingWeek))
}

func TestRecordPaymentAdvancesStatus(t *testing.T) {
	svc, _ := newTestService(testProject())
	ctx := context.Background()

	session, err := svc.LoadSession(ctx, 1)
	require.NoError(t, err)
	for week := 1; week <= 10; week++ {
		_, err := session.AddWeek(week, 8, ComputeWeekDate(date(2025, 1, 1), week), nil)
		require.NoError(t, err)
	}
	require.NoError(t, svc.Submit(ctx, session))

	// Week 1 is scheduled at 8% of 1,000,000 = 80,000
	week, err := svc.RecordPayment(ctx, 1, 1, 30000)
	require.NoError(t, err)
	assert.Equal(t, models.WeekStatusPartial, week.Status)
	assert.Equal(t, 30000.0, week.PaidAmount)

	week, err = svc.RecordPayment(ctx, 1, 1, 50000)
	require.NoError(t, err)
	assert.Equal(t, models.WeekStatusPaid, week.Status)
	assert.Equal(t, 80000.0, week.PaidAmount)
	assert.NotNil(t, week.PaidAt)

	t.Run("non-positive amount rejected", func(t *testing.T) {
		_, err := svc.RecordPayment(ctx, 1, 2, 0)
		assert.True(t, errors.Is(err, ErrNegativeAmount))
	})

	t.Run("unknown week", func(t *testing.T) {
		_, err := svc.RecordPayment(ctx, 1, 42, 100)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestRecordPaymentFullAmountAtOnce(t *testing.T) {
	svc, _ := newTestService(testProject())
	ctx := context.Background()

	session, err := svc.LoadSession(ctx, 1)
	require.NoError(t, err)
	_, err = session.AddWeek(1, 8, date(2025, 1, 8), nil)
	require.NoError(t, err)
	for week := 2; week <= 10; week++ {
		_, err := session.AddWeek(week, 8, ComputeWeekDate(date(2025, 1, 1), week), nil)
		require.NoError(t, err)
	}
	require.NoError(t, svc.Submit(ctx, session))

	week, err := svc.RecordPayment(ctx, 1, 3, 80000)
	require.NoError(t, err)
	assert.Equal(t, models.WeekStatusPaid, week.Status, "pending goes straight to paid on full payment")
}
