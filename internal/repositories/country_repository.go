package repositories

import (
	"context"

	"jobatlas_backend/internal/models"

	"gorm.io/gorm"
)

type CountryRepository interface {
	FindAll(ctx context.Context, db *gorm.DB) ([]models.Country, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]models.Country, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	CreateBatch(ctx context.Context, db *gorm.DB, countries []models.Country) error
}

type CountryRepositoryImpl struct{}

func NewCountryRepository() CountryRepository {
	return &CountryRepositoryImpl{}
}

func (r *CountryRepositoryImpl) FindAll(ctx context.Context, db *gorm.DB) ([]models.Country, error) {
	var countries []models.Country
	err := db.WithContext(ctx).Order("code ASC").Find(&countries).Error
	return countries, err
}

// FindByIDs возвращает найденные строки; вызывающий сравнивает длину
// с запрошенным набором, чтобы отличить частичное совпадение
func (r *CountryRepositoryImpl) FindByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]models.Country, error) {
	var countries []models.Country
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&countries).Error
	return countries, err
}

func (r *CountryRepositoryImpl) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&models.Country{}).Count(&count).Error
	return count, err
}

func (r *CountryRepositoryImpl) CreateBatch(ctx context.Context, db *gorm.DB, countries []models.Country) error {
	return db.WithContext(ctx).Create(&countries).Error
}
