package repository

import (
	"context"

	"github.com/nestora/studio-api/internal/models"
	"gorm.io/gorm"
)

// PaymentWeekRepository defines the interface for payment week data access
type PaymentWeekRepository interface {
	FindByID(ctx context.Context, id uint) (*models.PaymentWeek, error)
	FindByProject(ctx context.Context, projectID uint) ([]models.PaymentWeek, error)
	FindByProjectAndWeek(ctx context.Context, projectID uint, weekNo int) (*models.PaymentWeek, error)
	Create(ctx context.Context, week *models.PaymentWeek) error
	Update(ctx context.Context, week *models.PaymentWeek) error
	Delete(ctx context.Context, id uint) error
	FindOverdue(ctx context.Context) ([]models.PaymentWeek, error)
}

type paymentWeekRepository struct {
	db *gorm.DB
}

// NewPaymentWeekRepository creates a new payment week repository
func NewPaymentWeekRepository(db *gorm.DB) PaymentWeekRepository {
	return &paymentWeekRepository{db: db}
}

func (r *paymentWeekRepository) FindByID(ctx context.Context, id uint) (*models.PaymentWeek, error) {
	var week models.PaymentWeek
	err := r.db.WithContext(ctx).First(&week, id).Error
	if err != nil {
		return nil, err
	}
	return &week, nil
}

func (r *paymentWeekRepository) FindByProject(ctx context.Context, projectID uint) ([]models.PaymentWeek, error) {
	var weeks []models.PaymentWeek
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("week_no ASC").
		Find(&weeks).Error
	return weeks, err
}

func (r *paymentWeekRepository) FindByProjectAndWeek(ctx context.Context, projectID uint, weekNo int) (*models.PaymentWeek, error) {
	var week models.PaymentWeek
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND week_no = ?", projectID, weekNo).
		First(&week).Error
	if err != nil {
		return nil, err
	}
	return &week, nil
}

func (r *paymentWeekRepository) Create(ctx context.Context, week *models.PaymentWeek) error {
	return r.db.WithContext(ctx).Create(week).Error
}

func (r *paymentWeekRepository) Update(ctx context.Context, week *models.PaymentWeek) error {
	return r.db.WithContext(ctx).Save(week).Error
}

func (r *paymentWeekRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.PaymentWeek{}, id).Error
}

// FindOverdue returns weeks that are past due and not fully paid
func (r *paymentWeekRepository) FindOverdue(ctx context.Context) ([]models.PaymentWeek, error) {
	var weeks []models.PaymentWeek
	err := r.db.WithContext(ctx).
		Where("status <> ? AND due_date < CURRENT_DATE", models.WeekStatusPaid).
		Preload("Project").
		Order("due_date ASC").
		Find(&weeks).Error
	return weeks, err
}
