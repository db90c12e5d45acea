package models

import "time"

type User struct {
	BaseModel
	Name         string     `gorm:"not null"`
	Email        string     `gorm:"uniqueIndex;not null"`
	PasswordHash string     `gorm:"not null"`
	Role         UserRole   `gorm:"type:varchar(20);not null"`
	Status       UserStatus `gorm:"type:varchar(20);default:'pending'"`
	IsVerified   bool       `gorm:"default:false"`

	// Денормализованная сводка последней покупки (read-model, обновляется
	// best-effort после успешного создания подписки)
	LastPlanName          string
	LastCountryCount      int
	LastUnitPrice         float64
	SubscriptionExpiresAt *time.Time

	// Relations
	Subscriptions []Subscription `gorm:"foreignKey:CandidateID"`
}
