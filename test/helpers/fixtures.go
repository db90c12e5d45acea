package helpers

import (
	"testing"

	"jobatlas_backend/internal/auth"
	"jobatlas_backend/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateUser создает пользователя в транзакции с хешированием пароля
func CreateUser(t *testing.T, tx *gorm.DB, name, email, password string, role models.UserRole) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err, "Не удалось хешировать пароль")

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.UserStatusActive,
		IsVerified:   true,
	}
	require.NoError(t, tx.Create(user).Error, "Не удалось создать пользователя %s", email)
	return user
}

// CreateUserWithToken создает пользователя и выпускает для него JWT
func CreateUserWithToken(t *testing.T, tx *gorm.DB, name, email string, role models.UserRole) (*models.User, string) {
	user := CreateUser(t, tx, name, email, "password-123", role)

	token, err := auth.GenerateToken(user.ID, string(role))
	require.NoError(t, err, "Не удалось выпустить токен")
	return user, token
}

// CreatePlan создает активный план подписки
func CreatePlan(t *testing.T, tx *gorm.DB, name string, durationDays int, pricePerCountry float64) *models.SubscriptionPlan {
	plan := &models.SubscriptionPlan{
		Name:            name,
		DurationDays:    durationDays,
		PricePerCountry: pricePerCountry,
		Currency:        "USD",
		Features:        datatypes.JSON(`{"visibility": "per_country"}`),
		IsActive:        true,
	}
	require.NoError(t, tx.Create(plan).Error, "Не удалось создать план %s", name)
	return plan
}

// CreateCountries создает страны каталога и возвращает их id
func CreateCountries(t *testing.T, tx *gorm.DB, codes ...string) []string {
	ids := make([]string, 0, len(codes))
	for _, code := range codes {
		country := &models.Country{Code: code, Name: "Country " + code}
		require.NoError(t, tx.Create(country).Error, "Не удалось создать страну %s", code)
		ids = append(ids, country.ID)
	}
	return ids
}

// LoadSubscription перечитывает подписку со странами из транзакции
func LoadSubscription(t *testing.T, tx *gorm.DB, id string) *models.Subscription {
	var sub models.Subscription
	err := tx.Preload("Plan").Preload("Countries").Where("id = ?", id).First(&sub).Error
	require.NoError(t, err, "Не удалось перечитать подписку %s", id)
	return &sub
}
