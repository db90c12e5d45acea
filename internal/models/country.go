package models

// Country - строка каталога стран; подписка дает видимость вакансий по странам
type Country struct {
	BaseModel
	Code string `gorm:"type:varchar(2);uniqueIndex;not null"` // ISO 3166-1 alpha-2
	Name string `gorm:"not null"`
}
