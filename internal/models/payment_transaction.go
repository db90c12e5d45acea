package models

import "time"

// PaymentTransaction - запись о каждой попытке списания (журнал платежей)
type PaymentTransaction struct {
	BaseModel
	CandidateID    string        `gorm:"type:uuid;not null;index"`
	SubscriptionID string        `gorm:"type:uuid;index"` // пусто, пока подписка не создана
	Amount         float64       `gorm:"not null"`
	Currency       string        `gorm:"default:'USD'"`
	Status         PaymentStatus `gorm:"type:varchar(20);default:'pending'"`
	InvID          string        `gorm:"uniqueIndex"` // наш invoice id, передается процессору
	ExternalID     string        `gorm:"index"`       // charge id у процессора
	PaidAt         *time.Time
}
