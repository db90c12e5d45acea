package repositories

import (
	"context"
	"time"

	"jobatlas_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository interface {
	// Subscription operations
	Create(ctx context.Context, db *gorm.DB, sub *models.Subscription, memberships []models.CountryMembership) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*models.Subscription, error)
	// FindByIDForUpdate берет строку подписки под SELECT ... FOR UPDATE;
	// вызывать только внутри транзакции
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Subscription, error)
	FindCurrentActive(ctx context.Context, db *gorm.DB, candidateID string) (*models.Subscription, error)
	FindByCandidate(ctx context.Context, db *gorm.DB, candidateID string) ([]models.Subscription, error)
	FindAll(ctx context.Context, db *gorm.DB, status *models.SubscriptionStatus) ([]models.Subscription, error)
	FindByBillingExternalID(ctx context.Context, db *gorm.DB, externalID string) (*models.Subscription, error)
	Save(ctx context.Context, db *gorm.DB, sub *models.Subscription) error
	MarkExpired(ctx context.Context, db *gorm.DB) (int64, error)

	// CountryMembership operations
	FindMemberships(ctx context.Context, db *gorm.DB, subscriptionID string) ([]models.CountryMembership, error)
	AppendMemberships(ctx context.Context, db *gorm.DB, memberships []models.CountryMembership) error
	DeleteMemberships(ctx context.Context, db *gorm.DB, subscriptionID string, countryIDs []string) (int64, error)
	CountMemberships(ctx context.Context, db *gorm.DB, subscriptionID string) (int64, error)

	// PaymentTransaction operations
	CreatePayment(ctx context.Context, db *gorm.DB, payment *models.PaymentTransaction) error
	FindPaymentByInvID(ctx context.Context, db *gorm.DB, invID string) (*models.PaymentTransaction, error)
	UpdatePaymentStatus(ctx context.Context, db *gorm.DB, invID string, status models.PaymentStatus, externalID string, paidAt *time.Time) error
	LinkPaymentToSubscription(ctx context.Context, db *gorm.DB, invID, subscriptionID string) error
}

type SubscriptionRepositoryImpl struct{}

func NewSubscriptionRepository() SubscriptionRepository {
	return &SubscriptionRepositoryImpl{}
}

// Create сохраняет подписку вместе с ее странами одной транзакцией
func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, db *gorm.DB, sub *models.Subscription, memberships []models.CountryMembership) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		for i := range memberships {
			memberships[i].SubscriptionID = sub.ID
		}
		return tx.Create(&memberships).Error
	})
}

func (r *SubscriptionRepositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id string) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.WithContext(ctx).
		Preload("Plan").
		Preload("Countries.Country").
		First(&sub, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByIDForUpdate сериализует конкурентные мутации одной подписки:
// read-modify-write country_count/total_amount выполняется под блокировкой строки
func (r *SubscriptionRepositoryImpl) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Subscription, error) {
	var sub models.Subscription
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sub, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindCurrentActive - текущая действующая подписка кандидата:
// status=active, end_date в будущем, самая свежая первой
func (r *SubscriptionRepositoryImpl) FindCurrentActive(ctx context.Context, db *gorm.DB, candidateID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.WithContext(ctx).
		Where("candidate_id = ? AND status = ? AND end_date > ?",
			candidateID, models.SubscriptionStatusActive, time.Now()).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) FindByCandidate(ctx context.Context, db *gorm.DB, candidateID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := db.WithContext(ctx).
		Preload("Plan").
		Preload("Countries.Country").
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepositoryImpl) FindAll(ctx context.Context, db *gorm.DB, status *models.SubscriptionStatus) ([]models.Subscription, error) {
	query := db.WithContext(ctx).
		Preload("Plan").
		Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var subs []models.Subscription
	err := query.Find(&subs).Error
	return subs, err
}

// FindByBillingExternalID ищет подписку по идентификатору процессора (для webhook-ов)
func (r *SubscriptionRepositoryImpl) FindByBillingExternalID(ctx context.Context, db *gorm.DB, externalID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.WithContext(ctx).
		Where("billing_external_id = ?", externalID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) Save(ctx context.Context, db *gorm.DB, sub *models.Subscription) error {
	return db.WithContext(ctx).Save(sub).Error
}

// MarkExpired помечает истекшие активные подписки (периодический sweep)
func (r *SubscriptionRepositoryImpl) MarkExpired(ctx context.Context, db *gorm.DB) (int64, error) {
	result := db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ? AND end_date < ?", models.SubscriptionStatusActive, time.Now()).
		Update("status", models.SubscriptionStatusExpired)
	return result.RowsAffected, result.Error
}

func (r *SubscriptionRepositoryImpl) FindMemberships(ctx context.Context, db *gorm.DB, subscriptionID string) ([]models.CountryMembership, error) {
	var memberships []models.CountryMembership
	err := db.WithContext(ctx).
		Preload("Country").
		Where("subscription_id = ?", subscriptionID).
		Find(&memberships).Error
	return memberships, err
}

func (r *SubscriptionRepositoryImpl) AppendMemberships(ctx context.Context, db *gorm.DB, memberships []models.CountryMembership) error {
	return db.WithContext(ctx).Create(&memberships).Error
}

func (r *SubscriptionRepositoryImpl) DeleteMemberships(ctx context.Context, db *gorm.DB, subscriptionID string, countryIDs []string) (int64, error) {
	result := db.WithContext(ctx).
		Where("subscription_id = ? AND country_id IN ?", subscriptionID, countryIDs).
		Delete(&models.CountryMembership{})
	return result.RowsAffected, result.Error
}

func (r *SubscriptionRepositoryImpl) CountMemberships(ctx context.Context, db *gorm.DB, subscriptionID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&models.CountryMembership{}).
		Where("subscription_id = ?", subscriptionID).
		Count(&count).Error
	return count, err
}

func (r *SubscriptionRepositoryImpl) CreatePayment(ctx context.Context, db *gorm.DB, payment *models.PaymentTransaction) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *SubscriptionRepositoryImpl) FindPaymentByInvID(ctx context.Context, db *gorm.DB, invID string) (*models.PaymentTransaction, error) {
	var payment models.PaymentTransaction
	if err := db.WithContext(ctx).First(&payment, "inv_id = ?", invID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *SubscriptionRepositoryImpl) UpdatePaymentStatus(ctx context.Context, db *gorm.DB, invID string, status models.PaymentStatus, externalID string, paidAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if externalID != "" {
		updates["external_id"] = externalID
	}
	if paidAt != nil {
		updates["paid_at"] = paidAt
	}
	return db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("inv_id = ?", invID).
		Updates(updates).Error
}

func (r *SubscriptionRepositoryImpl) LinkPaymentToSubscription(ctx context.Context, db *gorm.DB, invID, subscriptionID string) error {
	return db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("inv_id = ?", invID).
		Update("subscription_id", subscriptionID).Error
}
