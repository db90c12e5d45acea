package routes

import (
	"jobatlas_backend/internal/handlers"
	"jobatlas_backend/internal/middleware"
	"jobatlas_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(ginRouter *gin.Engine, appHandlers *handlers.AppHandlers) {
	api := ginRouter.Group("/api/v1")

	// Публичный каталог и webhook процессора (проверяется подписью)
	{
		appHandlers.PlanHandler.RegisterPublicRoutes(api)
		appHandlers.WebhookHandler.RegisterRoutes(api)
	}

	// Операции кандидата над своими подписками
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware())
	{
		appHandlers.SubscriptionHandler.RegisterRoutes(authed)
	}

	// Админка
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleAdmin))
	{
		appHandlers.PlanHandler.RegisterAdminRoutes(admin)
		appHandlers.SubscriptionHandler.RegisterAdminRoutes(admin)
	}
}
