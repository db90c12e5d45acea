package helpers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"jobatlas_backend/internal/payment"
)

// StubWebhookSecret - секрет подписи вебхуков в тестовом окружении
const StubWebhookSecret = "test-webhook-secret"

// StubCharge - зафиксированное стабом списание
type StubCharge struct {
	CustomerID string
	Amount     float64
	Currency   string
	Token      string
	InvID      string
	ExternalID string
}

// StubGateway - скриптуемый платежный процессор для интеграционных тестов.
// Повторное использование токена отклоняется как у настоящего процессора,
// следующий исход списания программируется через FailNextCharge.
type StubGateway struct {
	mu            sync.Mutex
	nextChargeErr error
	usedTokens    map[string]bool
	seq           int

	Charges   []StubCharge
	Cancelled []string
}

func NewStubGateway() *StubGateway {
	return &StubGateway{
		usedTokens: map[string]bool{},
	}
}

// FailNextCharge программирует ошибку следующего вызова Charge
func (g *StubGateway) FailNextCharge(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextChargeErr = err
}

func (g *StubGateway) FindOrCreateCustomer(ctx context.Context, candidateID, name, email string) (string, error) {
	return "cus_test_" + candidateID, nil
}

func (g *StubGateway) Charge(ctx context.Context, customerID string, amount float64, currency, instrumentToken, invID string) (*payment.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.nextChargeErr != nil {
		err := g.nextChargeErr
		g.nextChargeErr = nil
		return nil, err
	}
	if g.usedTokens[instrumentToken] {
		return nil, payment.ErrTokenUsed
	}
	g.usedTokens[instrumentToken] = true

	g.seq++
	externalID := fmt.Sprintf("ch_test_%d", g.seq)
	g.Charges = append(g.Charges, StubCharge{
		CustomerID: customerID,
		Amount:     amount,
		Currency:   currency,
		Token:      instrumentToken,
		InvID:      invID,
		ExternalID: externalID,
	})
	return &payment.ChargeResult{ExternalID: externalID}, nil
}

func (g *StubGateway) CancelRecurring(ctx context.Context, externalID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Cancelled = append(g.Cancelled, externalID)
	return nil
}

func (g *StubGateway) VerifyWebhook(signature string, payload []byte) (*payment.WebhookEvent, error) {
	if SignWebhook(payload) != signature {
		return nil, payment.ErrBadSignature
	}

	var event payment.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	if event.Kind == "" {
		return nil, fmt.Errorf("webhook payload without event kind")
	}
	return &event, nil
}

// SignWebhook подписывает payload так, как это делает тестовый процессор
func SignWebhook(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(StubWebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
