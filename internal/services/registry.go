package services

import (
	"jobatlas_backend/internal/config"
	"jobatlas_backend/internal/email"
	"jobatlas_backend/internal/payment"
	"jobatlas_backend/internal/repositories"
)

// ServiceContainer - контейнер всех сервисов приложения
type ServiceContainer struct {
	PlanService         PlanService
	SubscriptionService SubscriptionService
	WebhookService      WebhookService
}

// NewServiceContainer собирает сервисы и их зависимости
func NewServiceContainer(gateway payment.Gateway, emailSender email.Sender, cfg *config.Config) *ServiceContainer {
	userRepo := repositories.NewUserRepository()
	planRepo := repositories.NewPlanRepository()
	countryRepo := repositories.NewCountryRepository()
	subRepo := repositories.NewSubscriptionRepository()

	return &ServiceContainer{
		PlanService:         NewPlanService(planRepo, countryRepo),
		SubscriptionService: NewSubscriptionService(subRepo, planRepo, countryRepo, userRepo, gateway, emailSender, cfg),
		WebhookService:      NewWebhookService(subRepo, gateway),
	}
}
