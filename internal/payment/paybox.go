package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"jobatlas_backend/internal/config"
)

// PayBoxGateway - HTTP-адаптер процессора в стиле PayBox.
// Все запросы подписываются HMAC-SHA256 от тела запроса секретным ключом
// мерчанта; webhook-и проверяются отдельным webhook-секретом.
type PayBoxGateway struct {
	merchantID    string
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

// NewPayBoxGateway инициализирует адаптер из конфигурации
func NewPayBoxGateway(cfg *config.Config) *PayBoxGateway {
	return &PayBoxGateway{
		merchantID:    cfg.Payment.MerchantID,
		secretKey:     cfg.Payment.SecretKey,
		webhookSecret: cfg.Payment.WebhookSecret,
		baseURL:       cfg.Payment.BaseURL,
		client: &http.Client{
			Timeout: time.Duration(cfg.Payment.TimeoutSec) * time.Second,
		},
	}
}

type customerRequest struct {
	MerchantID string `json:"merchant_id"`
	Reference  string `json:"reference"` // наш candidate id
	Name       string `json:"name"`
	Email      string `json:"email"`
}

type customerResponse struct {
	CustomerID string `json:"customer_id"`
}

type chargeRequest struct {
	MerchantID string  `json:"merchant_id"`
	CustomerID string  `json:"customer_id"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Token      string  `json:"token"`
	InvoiceID  string  `json:"invoice_id"`
}

type chargeResponse struct {
	Status   string `json:"status"` // ok | declined | token_used
	ChargeID string `json:"charge_id"`
	Reason   string `json:"reason"`
}

// FindOrCreateCustomer - find-or-create клиента у процессора
func (g *PayBoxGateway) FindOrCreateCustomer(ctx context.Context, candidateID, name, email string) (string, error) {
	req := customerRequest{
		MerchantID: g.merchantID,
		Reference:  candidateID,
		Name:       name,
		Email:      email,
	}

	var resp customerResponse
	if err := g.post(ctx, "/v1/customers", req, &resp); err != nil {
		return "", err
	}
	if resp.CustomerID == "" {
		return "", ErrUnavailable
	}
	return resp.CustomerID, nil
}

// Charge списывает сумму с одноразового токена
func (g *PayBoxGateway) Charge(ctx context.Context, customerID string, amount float64, currency, instrumentToken, invID string) (*ChargeResult, error) {
	req := chargeRequest{
		MerchantID: g.merchantID,
		CustomerID: customerID,
		Amount:     amount,
		Currency:   currency,
		Token:      instrumentToken,
		InvoiceID:  invID,
	}

	var resp chargeResponse
	if err := g.post(ctx, "/v1/charges", req, &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case "ok":
		return &ChargeResult{ExternalID: resp.ChargeID}, nil
	case "token_used":
		return nil, ErrTokenUsed
	case "declined":
		return nil, fmt.Errorf("%w: %s", ErrDeclined, resp.Reason)
	default:
		return nil, ErrUnavailable
	}
}

// CancelRecurring отменяет рекуррентное списание
func (g *PayBoxGateway) CancelRecurring(ctx context.Context, externalID string) error {
	req := map[string]string{
		"merchant_id": g.merchantID,
		"object_id":   externalID,
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := g.post(ctx, "/v1/recurring/cancel", req, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return ErrUnavailable
	}
	return nil
}

// VerifyWebhook проверяет HMAC подпись и парсит событие.
// Невалидная подпись отклоняется до любого изменения состояния.
func (g *PayBoxGateway) VerifyWebhook(signature string, payload []byte) (*WebhookEvent, error) {
	if !verifyHMAC(g.webhookSecret, payload, signature) {
		return nil, ErrBadSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	if event.Kind == "" {
		return nil, errors.New("webhook payload has no event kind")
	}
	return &event, nil
}

func (g *PayBoxGateway) post(ctx context.Context, path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Signature", signHMAC(g.secretKey, raw))

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		// Таймаут - неизвестный исход: запрос мог дойти до процессора
		if isTimeout(err) {
			return ErrUnknownOutcome
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 500 {
		return ErrUnavailable
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: invalid response: %v", ErrUnavailable, err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func signHMAC(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyHMAC(secret string, payload []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}
