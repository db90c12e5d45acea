package repositories

import (
	"context"
	"time"

	"jobatlas_backend/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(ctx context.Context, db *gorm.DB, id string) (*models.User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*models.User, error)
	Create(ctx context.Context, db *gorm.DB, user *models.User) error
	UpdateSubscriptionSummary(ctx context.Context, db *gorm.DB, userID string, summary SubscriptionSummary) error
}

// SubscriptionSummary - денормализованная сводка последней покупки на кандидате
type SubscriptionSummary struct {
	PlanName     string
	CountryCount int
	UnitPrice    float64
	ExpiresAt    time.Time
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) Create(ctx context.Context, db *gorm.DB, user *models.User) error {
	return db.WithContext(ctx).Create(user).Error
}

// UpdateSubscriptionSummary обновляет read-model поля кандидата
func (r *UserRepositoryImpl) UpdateSubscriptionSummary(ctx context.Context, db *gorm.DB, userID string, summary SubscriptionSummary) error {
	return db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_plan_name":          summary.PlanName,
			"last_country_count":      summary.CountryCount,
			"last_unit_price":         summary.UnitPrice,
			"subscription_expires_at": summary.ExpiresAt,
		}).Error
}
