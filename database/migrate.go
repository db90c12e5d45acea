package database

import (
	"context"
	"fmt"

	"jobatlas_backend/internal/logger"
	"jobatlas_backend/internal/models"
	"jobatlas_backend/internal/repositories"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect открывает соединение с Postgres и проверяет его
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}

	return db, nil
}

// Migrate выполняет AutoMigrate всех моделей
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to create uuid extension: %w", err)
	}

	return db.AutoMigrate(
		&models.User{},
		&models.Country{},
		&models.SubscriptionPlan{},
		&models.Subscription{},
		&models.CountryMembership{},
		&models.PaymentTransaction{},
	)
}

// SeedCatalog наполняет пустой каталог стартовыми странами и планом
// по умолчанию. Повторный запуск ничего не меняет.
func SeedCatalog(ctx context.Context, db *gorm.DB) error {
	countryRepo := repositories.NewCountryRepository()
	planRepo := repositories.NewPlanRepository()

	count, err := countryRepo.Count(ctx, db)
	if err != nil {
		return err
	}
	if count == 0 {
		if err := countryRepo.CreateBatch(ctx, db, defaultCountries()); err != nil {
			return fmt.Errorf("failed to seed countries: %w", err)
		}
		logger.Info("country catalog seeded", "count", len(defaultCountries()))
	}

	planCount, err := planRepo.CountAll(ctx, db)
	if err != nil {
		return err
	}
	if planCount == 0 {
		plan := &models.SubscriptionPlan{
			Name:            "Standard",
			DurationDays:    180,
			PricePerCountry: 20,
			Currency:        "USD",
			Features:        datatypes.JSON(`{"visibility": "per_country", "support": "email"}`),
			IsDefault:       true,
			IsActive:        true,
		}
		if err := planRepo.Create(ctx, db, plan); err != nil {
			return fmt.Errorf("failed to seed default plan: %w", err)
		}
		logger.Info("default subscription plan seeded", "name", plan.Name)
	}

	return nil
}

func defaultCountries() []models.Country {
	return []models.Country{
		{Code: "AE", Name: "United Arab Emirates"},
		{Code: "AU", Name: "Australia"},
		{Code: "BR", Name: "Brazil"},
		{Code: "CA", Name: "Canada"},
		{Code: "CH", Name: "Switzerland"},
		{Code: "CZ", Name: "Czechia"},
		{Code: "DE", Name: "Germany"},
		{Code: "ES", Name: "Spain"},
		{Code: "FR", Name: "France"},
		{Code: "GB", Name: "United Kingdom"},
		{Code: "IT", Name: "Italy"},
		{Code: "JP", Name: "Japan"},
		{Code: "KZ", Name: "Kazakhstan"},
		{Code: "NL", Name: "Netherlands"},
		{Code: "PL", Name: "Poland"},
		{Code: "PT", Name: "Portugal"},
		{Code: "SG", Name: "Singapore"},
		{Code: "TR", Name: "Turkey"},
		{Code: "US", Name: "United States"},
		{Code: "UZ", Name: "Uzbekistan"},
	}
}
