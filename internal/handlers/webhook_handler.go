package handlers

import (
	"io"
	"net/http"

	"jobatlas_backend/internal/logger"
	"jobatlas_backend/internal/services"
	"jobatlas_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// WebhookHandler принимает асинхронные события платежного процессора.
// После структурного принятия события ответ всегда 200, иначе процессор
// будет ретраить событие, которое мы осознанно проигнорировали.
type WebhookHandler struct {
	*BaseHandler
	webhookService services.WebhookService
}

func NewWebhookHandler(base *BaseHandler, webhookService services.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    base,
		webhookService: webhookService,
	}
}

func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/payments/webhook", h.ProcessWebhook)
}

func (h *WebhookHandler) ProcessWebhook(c *gin.Context) {
	db := h.GetDB(c)
	ctx := c.Request.Context()

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read webhook body"))
		return
	}

	signature := c.GetHeader("X-Signature")

	if err := h.webhookService.Process(ctx, db, signature, payload); err != nil {
		var appErr *apperrors.AppError
		if apperrors.As(err, &appErr) && appErr == apperrors.ErrWebhookSignature {
			apperrors.HandleError(c, appErr)
			return
		}
		// Внутренний сбой: 500, процессор повторит событие позже
		logger.CtxWithError(ctx, "webhook processing failed", err)
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
