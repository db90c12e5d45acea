package handlers

import (
	"jobatlas_backend/internal/services"
	"jobatlas_backend/internal/validator"
)

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	PlanHandler         *PlanHandler
	SubscriptionHandler *SubscriptionHandler
	WebhookHandler      *WebhookHandler
}

// NewAppHandlers собирает хэндлеры поверх контейнера сервисов
func NewAppHandlers(sc *services.ServiceContainer) *AppHandlers {
	base := NewBaseHandler(validator.New())

	return &AppHandlers{
		PlanHandler:         NewPlanHandler(base, sc.PlanService),
		SubscriptionHandler: NewSubscriptionHandler(base, sc.SubscriptionService),
		WebhookHandler:      NewWebhookHandler(base, sc.WebhookService),
	}
}
