package payment

import (
	"context"
	"errors"
)

// Типовые ошибки адаптера. Оркестратор различает их, чтобы отдать клиенту
// корректный ответ: отклонение, повтор токена или неизвестный исход.
var (
	ErrDeclined       = errors.New("payment declined by processor")
	ErrTokenUsed      = errors.New("payment instrument token already used")
	ErrUnknownOutcome = errors.New("payment outcome unknown, awaiting webhook")
	ErrUnavailable    = errors.New("payment provider unavailable")
	ErrBadSignature   = errors.New("webhook signature mismatch")
)

// EventKind - вид асинхронного события процессора
type EventKind string

const (
	EventChargeSucceeded       EventKind = "charge.succeeded"
	EventChargeFailed          EventKind = "charge.failed"
	EventSubscriptionCancelled EventKind = "subscription.cancelled"
	EventSubscriptionExpired   EventKind = "subscription.expired"
)

// ChargeResult - результат успешного синхронного списания
type ChargeResult struct {
	ExternalID string // charge id на стороне процессора
}

// WebhookEvent - распарсенное и проверенное событие процессора
type WebhookEvent struct {
	Kind       EventKind `json:"event"`
	ExternalID string    `json:"object_id"`  // subscription/charge id процессора
	InvID      string    `json:"invoice_id"` // наш invoice id, если процессор его вернул
	Amount     float64   `json:"amount"`
}

// Gateway - контракт, который движок требует от любого платежного процессора.
// Локальная запись остается источником истины по entitlement-ам; адаптер
// только двигает деньги и переводит события процессора в типизованный вид.
type Gateway interface {
	// FindOrCreateCustomer возвращает customer id процессора,
	// создавая клиента при первом обращении (find-or-create)
	FindOrCreateCustomer(ctx context.Context, candidateID, name, email string) (string, error)

	// Charge списывает сумму с одноразового платежного токена.
	// Таймаут процессора возвращается как ErrUnknownOutcome: нельзя считать
	// списание ни успешным, ни проваленным.
	Charge(ctx context.Context, customerID string, amount float64, currency, instrumentToken, invID string) (*ChargeResult, error)

	// CancelRecurring отменяет рекуррентное списание на стороне процессора
	CancelRecurring(ctx context.Context, externalID string) error

	// VerifyWebhook проверяет подпись и парсит сырой payload события
	VerifyWebhook(signature string, payload []byte) (*WebhookEvent, error)
}
