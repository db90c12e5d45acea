package apperrors

import (
	"net/http"
)

/*
Этот файл содержит фабрики и предопределенные переменные
для доменных ошибок подписок, каталога и платежей.
*/

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// --- Каталог ---

// ErrPlanNotFound - план не найден.
var ErrPlanNotFound = New(
	CodeNotFound,
	"catalog",
	"Subscription plan not found",
	http.StatusNotFound,
)

// ErrPlanInactive - план существует, но отключен и недоступен для покупки.
var ErrPlanInactive = New(
	CodeInvalidOperation,
	"catalog",
	"Subscription plan is not active",
	http.StatusBadRequest,
)

// ErrCountryNotFound - хотя бы одна из запрошенных стран не существует в каталоге.
var ErrCountryNotFound = New(
	CodeValidationFailed,
	"catalog",
	"One or more country ids do not exist",
	http.StatusBadRequest,
)

// --- Подписки ---

// ErrSubscriptionNotFound - подписка не найдена.
var ErrSubscriptionNotFound = New(
	CodeNotFound,
	"subscription",
	"Subscription not found",
	http.StatusNotFound,
)

// ErrNotSubscriptionOwner - подписка принадлежит другому кандидату.
var ErrNotSubscriptionOwner = New(
	CodeForbidden,
	"subscription",
	"Subscription belongs to a different candidate",
	http.StatusForbidden,
)

// ErrSubscriptionNotActive - операция возможна только для активной, не истекшей подписки.
var ErrSubscriptionNotActive = New(
	CodeInvalidStatus,
	"subscription",
	"Subscription is not active",
	http.StatusConflict,
)

// ErrSubscriptionCancelled - подписка уже отменена.
var ErrSubscriptionCancelled = New(
	CodeConflict,
	"subscription",
	"Subscription is already cancelled",
	http.StatusConflict,
)

// ErrNothingToAdd - все запрошенные страны уже входят в подписку.
var ErrNothingToAdd = New(
	CodeConflict,
	"subscription",
	"All requested countries are already part of the subscription",
	http.StatusConflict,
)

// ErrCountryNotMember - страна из набора на удаление не входит в подписку.
var ErrCountryNotMember = New(
	CodeValidationFailed,
	"subscription",
	"One or more countries are not part of the subscription",
	http.StatusBadRequest,
)

// ErrLastCountry - нельзя удалить последнюю страну; для полного отключения есть отмена.
var ErrLastCountry = New(
	CodeConflict,
	"subscription",
	"Cannot remove the last country from an active subscription, cancel it instead",
	http.StatusConflict,
)

// --- Платежи ---

// ErrPaymentDeclined - процессор отклонил списание.
var ErrPaymentDeclined = New(
	CodePaymentDeclined,
	"payment",
	"Payment was declined by the processor",
	http.StatusPaymentRequired,
)

// ErrPaymentTokenUsed - одноразовый платежный токен уже был использован.
// Клиент должен запросить новый инструмент и повторить.
var ErrPaymentTokenUsed = New(
	CodePaymentRequired,
	"payment",
	"Payment instrument already used, resubmit with a new token",
	http.StatusPaymentRequired,
)

// ErrPaymentPendingVerification - исход списания неизвестен (таймаут процессора).
// Подписка сохранена как pending, итог придет через webhook.
var ErrPaymentPendingVerification = New(
	CodePaymentPending,
	"payment",
	"Payment outcome is pending verification, do not retry with the same token",
	http.StatusPaymentRequired,
)

// ErrPaymentProviderUnavailable - процессор недоступен или ответил невалидно.
var ErrPaymentProviderUnavailable = New(
	CodeExternalServiceError,
	"payment",
	"Payment provider is unavailable",
	http.StatusBadGateway,
)

// ErrWebhookSignature - подпись webhook-а не прошла проверку.
var ErrWebhookSignature = New(
	CodeInvalidToken,
	"payment",
	"Webhook signature verification failed",
	http.StatusBadRequest,
)
