package models

import "gorm.io/datatypes"

// SubscriptionPlan - строка каталога тарифов. Для движка подписок план
// неизменяем в момент использования; инвариант "не более одного плана
// по умолчанию" обеспечивает каталог, а не движок.
type SubscriptionPlan struct {
	BaseModel
	Name            string         `gorm:"not null"`
	DurationDays    int            `gorm:"not null"`
	PricePerCountry float64        `gorm:"not null"` // цена за одну страну на полный срок
	Currency        string         `gorm:"default:'USD'"`
	Features        datatypes.JSON `gorm:"type:jsonb"` // {"priority_support": true, ...}
	IsDefault       bool           `gorm:"default:false"`
	IsActive        bool           `gorm:"default:true"`
}
