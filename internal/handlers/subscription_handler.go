package handlers

import (
	"net/http"

	"jobatlas_backend/internal/dto"
	"jobatlas_backend/internal/models"
	"jobatlas_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// SubscriptionHandler - операции кандидата над своими подписками
// и админский обзор всех подписок
type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
	}
}

// RegisterRoutes - маршруты кандидата (под AuthMiddleware)
func (h *SubscriptionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/subscriptions/calculate", h.Calculate)
	r.POST("/subscriptions", h.CreateSubscription)
	r.GET("/subscriptions", h.ListSubscriptions)
	r.GET("/subscriptions/:id", h.GetSubscription)
	r.DELETE("/subscriptions/:id", h.CancelSubscription)
	r.POST("/subscriptions/:id/add-countries", h.AddCountries)
	r.DELETE("/subscriptions/:id/countries", h.RemoveCountries)
}

// RegisterAdminRoutes - обзор и управление для админа
func (h *SubscriptionHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/subscriptions", h.AdminListSubscriptions)
	r.DELETE("/subscriptions/:id", h.AdminCancelSubscription)
	r.POST("/subscriptions/process-expired", h.ProcessExpired)
}

func (h *SubscriptionHandler) Calculate(c *gin.Context) {
	db := h.GetDB(c)

	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CalculateRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	quote, err := h.subscriptionService.Calculate(c.Request.Context(), db, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	db := h.GetDB(c)

	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateSubscriptionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.Create(c.Request.Context(), db, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Subscription created successfully",
		"subscription": sub,
	})
}

func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	db := h.GetDB(c)

	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	subs, err := h.subscriptionService.List(c.Request.Context(), db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscriptions": subs,
		"total":         len(subs),
	})
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	db := h.GetDB(c)

	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.Get(c.Request.Context(), db, userID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	db := h.GetDB(c)

	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.subscriptionService.Cancel(c.Request.Context(), db, c.Param("id"), userID, false); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled successfully"})
}

func (h *SubscriptionHandler) AddCountries(c *gin.Context) {
	db := h.GetDB(c)

	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.AddCountriesRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.AddCountries(c.Request.Context(), db, userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Countries added successfully",
		"subscription": sub,
	})
}

func (h *SubscriptionHandler) RemoveCountries(c *gin.Context) {
	db := h.GetDB(c)

	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.RemoveCountriesRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.RemoveCountries(c.Request.Context(), db, userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Countries removed successfully",
		"subscription": sub,
	})
}

func (h *SubscriptionHandler) AdminListSubscriptions(c *gin.Context) {
	db := h.GetDB(c)

	var status *models.SubscriptionStatus
	if raw := c.Query("status"); raw != "" {
		s := models.SubscriptionStatus(raw)
		status = &s
	}

	subs, err := h.subscriptionService.ListAll(c.Request.Context(), db, status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscriptions": subs,
		"total":         len(subs),
	})
}

func (h *SubscriptionHandler) AdminCancelSubscription(c *gin.Context) {
	db := h.GetDB(c)

	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.subscriptionService.Cancel(c.Request.Context(), db, c.Param("id"), userID, true); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled successfully"})
}

func (h *SubscriptionHandler) ProcessExpired(c *gin.Context) {
	db := h.GetDB(c)

	count, err := h.subscriptionService.ProcessExpired(c.Request.Context(), db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Expired subscriptions processed successfully",
		"processed": count,
	})
}
