package repositories

import (
	"context"

	"jobatlas_backend/internal/models"

	"gorm.io/gorm"
)

type PlanRepository interface {
	Create(ctx context.Context, db *gorm.DB, plan *models.SubscriptionPlan) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*models.SubscriptionPlan, error)
	FindActive(ctx context.Context, db *gorm.DB) ([]models.SubscriptionPlan, error)
	Update(ctx context.Context, db *gorm.DB, plan *models.SubscriptionPlan) error
	CountAll(ctx context.Context, db *gorm.DB) (int64, error)
}

type PlanRepositoryImpl struct{}

func NewPlanRepository() PlanRepository {
	return &PlanRepositoryImpl{}
}

// Create создает план; если план объявлен планом по умолчанию,
// снимает флаг с остальных в той же транзакции (инвариант каталога:
// не более одного плана по умолчанию).
func (r *PlanRepositoryImpl) Create(ctx context.Context, db *gorm.DB, plan *models.SubscriptionPlan) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if plan.IsDefault {
			if err := tx.Model(&models.SubscriptionPlan{}).
				Where("is_default = ?", true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(plan).Error
	})
}

func (r *PlanRepositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepositoryImpl) FindActive(ctx context.Context, db *gorm.DB) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price_per_country ASC").
		Find(&plans).Error
	return plans, err
}

// Update сохраняет план, поддерживая тот же инвариант каталога, что и Create
func (r *PlanRepositoryImpl) Update(ctx context.Context, db *gorm.DB, plan *models.SubscriptionPlan) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if plan.IsDefault {
			if err := tx.Model(&models.SubscriptionPlan{}).
				Where("is_default = ? AND id <> ?", true, plan.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(plan).Error
	})
}

func (r *PlanRepositoryImpl) CountAll(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&models.SubscriptionPlan{}).Count(&count).Error
	return count, err
}
