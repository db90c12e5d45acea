package dto

// PlanResponse - DTO плана для каталога
type PlanResponse struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	DurationDays    int                    `json:"duration_days"`
	PricePerCountry float64                `json:"price_per_country"`
	Currency        string                 `json:"currency"`
	Features        map[string]interface{} `json:"features,omitempty"`
	IsDefault       bool                   `json:"is_default"`
	IsActive        bool                   `json:"is_active"`
}

// CountryResponse - DTO страны каталога
type CountryResponse struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// CreatePlanRequest - создание плана админом
type CreatePlanRequest struct {
	Name            string                 `json:"name" validate:"required"`
	DurationDays    int                    `json:"duration_days" validate:"required,min=1"`
	PricePerCountry float64                `json:"price_per_country" validate:"required,gt=0"`
	Currency        string                 `json:"currency" validate:"omitempty,len=3"`
	Features        map[string]interface{} `json:"features"`
	IsDefault       bool                   `json:"is_default"`
	IsActive        bool                   `json:"is_active"`
}

// UpdatePlanRequest - частичное обновление плана админом
type UpdatePlanRequest struct {
	Name            *string                `json:"name"`
	DurationDays    *int                   `json:"duration_days" validate:"omitempty,min=1"`
	PricePerCountry *float64               `json:"price_per_country" validate:"omitempty,gt=0"`
	Currency        *string                `json:"currency" validate:"omitempty,len=3"`
	Features        map[string]interface{} `json:"features"`
	IsDefault       *bool                  `json:"is_default"`
	IsActive        *bool                  `json:"is_active"`
}
