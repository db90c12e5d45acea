package models

import "time"

// BillingRef - полиморфная ссылка на внешний биллинг: имя процессора плюс
// его идентификаторы. Сущность не завязана на форму конкретного процессора.
type BillingRef struct {
	Provider   string `gorm:"column:billing_provider"`
	CustomerID string `gorm:"column:billing_customer_id;index"`
	ExternalID string `gorm:"column:billing_external_id;index"` // charge/subscription id у процессора
}

// Subscription - центральная сущность: оплаченный, ограниченный по времени
// доступ кандидата к набору стран.
//
// Инварианты:
//   - CountryCount == числу строк CountryMembership этой подписки;
//   - EndDate фиксируется при создании и не меняется top-up операциями;
//   - TotalAmount - накопительная сумма всех списаний, никогда не уменьшается;
//   - у кандидата не более одной подписки со status=active и EndDate в будущем.
type Subscription struct {
	BaseModel
	CandidateID string `gorm:"type:uuid;not null;index"`
	PlanID      string `gorm:"type:uuid;not null;index"`

	CountryCount int        `gorm:"not null"`
	TotalAmount  float64    `gorm:"not null"`
	Billing      BillingRef `gorm:"embedded"`

	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`

	Status        SubscriptionStatus `gorm:"type:varchar(20);default:'pending';index"`
	PaymentStatus PaymentStatus      `gorm:"type:varchar(20);default:'pending'"`
	CancelledAt   *time.Time

	CreatedBy string
	UpdatedBy string

	// Relations
	Plan      SubscriptionPlan    `gorm:"foreignKey:PlanID"`
	Countries []CountryMembership `gorm:"foreignKey:SubscriptionID"`
}

// IsCurrentlyActive - подписка активна и срок не истек
func (s *Subscription) IsCurrentlyActive(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && s.EndDate.After(now)
}

// RemainingDays - полных и неполных дней до конца срока, минимум 0
func (s *Subscription) RemainingDays(now time.Time) int {
	if !s.EndDate.After(now) {
		return 0
	}
	const day = 24 * time.Hour
	return int((s.EndDate.Sub(now) + day - 1) / day)
}

// CountryMembership - право видимости одной страны внутри подписки,
// пара (subscription_id, country_id) уникальна.
type CountryMembership struct {
	BaseModel
	SubscriptionID string `gorm:"type:uuid;not null;uniqueIndex:idx_subscription_country"`
	CountryID      string `gorm:"type:uuid;not null;uniqueIndex:idx_subscription_country"`

	// Relations
	Country Country `gorm:"foreignKey:CountryID"`
}
