package dto

import "time"

// CalculateRequest - предпросмотр цены, без побочных эффектов
type CalculateRequest struct {
	PlanID     string   `json:"plan_id" validate:"required,uuid4"`
	CountryIDs []string `json:"country_ids" validate:"required,min=1,unique,dive,uuid4"`
}

// CreateSubscriptionRequest - покупка подписки
type CreateSubscriptionRequest struct {
	PlanID       string   `json:"plan_id" validate:"required,uuid4"`
	CountryIDs   []string `json:"country_ids" validate:"required,min=1,unique,dive,uuid4"`
	PaymentToken string   `json:"payment_instrument_token" validate:"required"`
}

// AddCountriesRequest - top-up: докупка стран в действующую подписку
type AddCountriesRequest struct {
	CountryIDs   []string `json:"country_ids" validate:"required,min=1,unique,dive,uuid4"`
	PaymentToken string   `json:"payment_instrument_token" validate:"required"`
}

// RemoveCountriesRequest - удаление стран из подписки (без возврата денег)
type RemoveCountriesRequest struct {
	CountryIDs []string `json:"country_ids" validate:"required,min=1,unique,dive,uuid4"`
}

// MembershipResponse - одна страна внутри подписки
type MembershipResponse struct {
	CountryID string `json:"country_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
}

// SubscriptionResponse - денормализованный снимок подписки для клиента
type SubscriptionResponse struct {
	ID            string               `json:"id"`
	CandidateID   string               `json:"candidate_id"`
	PlanID        string               `json:"plan_id"`
	PlanName      string               `json:"plan_name,omitempty"`
	Status        string               `json:"status"`
	PaymentStatus string               `json:"payment_status"`
	CountryCount  int                  `json:"country_count"`
	TotalAmount   float64              `json:"total_amount"`
	Countries     []MembershipResponse `json:"countries"`
	StartDate     time.Time            `json:"start_date"`
	EndDate       time.Time            `json:"end_date"`
	DaysRemaining int                  `json:"days_remaining"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`
}
