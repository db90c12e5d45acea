package services

import (
	"context"
	"errors"
	"time"

	"jobatlas_backend/internal/logger"
	"jobatlas_backend/internal/models"
	"jobatlas_backend/internal/payment"
	"jobatlas_backend/internal/repositories"
	"jobatlas_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// WebhookService - реконсайлер асинхронных событий процессора.
//
// Вебхуки приходят с повторами и не по порядку, поэтому каждое применение
// идемпотентно: уже находящаяся в целевом статусе подписка не трогается.
// Событие по неизвестной подписке принимается и игнорируется, чтобы
// процессор не ретраил его бесконечно.
type WebhookService interface {
	Process(ctx context.Context, db *gorm.DB, signature string, payload []byte) error
}

type webhookService struct {
	subRepo repositories.SubscriptionRepository
	gateway payment.Gateway
}

func NewWebhookService(subRepo repositories.SubscriptionRepository, gateway payment.Gateway) WebhookService {
	return &webhookService{
		subRepo: subRepo,
		gateway: gateway,
	}
}

func (s *webhookService) Process(ctx context.Context, db *gorm.DB, signature string, payload []byte) error {
	event, err := s.gateway.VerifyWebhook(signature, payload)
	if err != nil {
		logger.CtxWarn(ctx, "webhook rejected", "reason", err.Error())
		return apperrors.ErrWebhookSignature
	}

	sub, err := s.locate(ctx, db, event)
	if err != nil {
		return err
	}
	if sub == nil {
		logger.CtxWarn(ctx, "webhook for unknown subscription ignored",
			"event", string(event.Kind), "external_id", event.ExternalID, "invoice_id", event.InvID)
		return nil
	}

	now := time.Now().UTC()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.subRepo.FindByIDForUpdate(ctx, tx, sub.ID)
		if err != nil {
			return err
		}

		switch event.Kind {
		case payment.EventChargeSucceeded:
			return s.applyChargeSucceeded(ctx, tx, locked, event, now)
		case payment.EventChargeFailed:
			return s.applyChargeFailed(ctx, tx, locked, event)
		case payment.EventSubscriptionCancelled:
			return s.applyCancelled(ctx, tx, locked, now)
		case payment.EventSubscriptionExpired:
			return s.applyExpired(ctx, tx, locked)
		default:
			logger.CtxWarn(ctx, "webhook with unsupported event kind ignored",
				"event", string(event.Kind), "subscription_id", locked.ID)
			return nil
		}
	})
}

// locate находит подписку по external id процессора, затем по invoice id
// из журнала платежей. nil без ошибки = событие не наше.
func (s *webhookService) locate(ctx context.Context, db *gorm.DB, event *payment.WebhookEvent) (*models.Subscription, error) {
	if event.ExternalID != "" {
		sub, err := s.subRepo.FindByBillingExternalID(ctx, db, event.ExternalID)
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if event.InvID != "" {
		tr, err := s.subRepo.FindPaymentByInvID(ctx, db, event.InvID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		if tr.SubscriptionID == "" {
			return nil, nil
		}
		sub, err := s.subRepo.FindByID(ctx, db, tr.SubscriptionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return sub, nil
	}

	return nil, nil
}

// applyChargeSucceeded закрывает платеж по invoice id и активирует
// pending-подписку (исход таймаута). Повтор события по уже закрытому
// платежу и активной подписке - no-op.
func (s *webhookService) applyChargeSucceeded(ctx context.Context, tx *gorm.DB, sub *models.Subscription, event *payment.WebhookEvent, now time.Time) error {
	// Платеж закрывается независимо от состояния подписки: подтвержденная
	// доплата приходит по уже активной подписке
	settled := false
	if event.InvID != "" {
		tr, err := s.subRepo.FindPaymentByInvID(ctx, tx, event.InvID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && tr.Status != models.PaymentStatusCompleted {
			if err := s.subRepo.UpdatePaymentStatus(ctx, tx, event.InvID, models.PaymentStatusCompleted, event.ExternalID, &now); err != nil {
				return err
			}
			settled = true
		}
	}

	changed := false
	if sub.Status == models.SubscriptionStatusPending {
		sub.Status = models.SubscriptionStatusActive
		changed = true
	}
	if sub.PaymentStatus != models.PaymentStatusCompleted {
		sub.PaymentStatus = models.PaymentStatusCompleted
		changed = true
	}
	if sub.Billing.ExternalID == "" && event.ExternalID != "" {
		sub.Billing.ExternalID = event.ExternalID
		changed = true
	}

	if changed {
		if err := s.subRepo.Save(ctx, tx, sub); err != nil {
			return err
		}
		logger.CtxInfo(ctx, "subscription activated via webhook",
			"subscription_id", sub.ID, "external_id", event.ExternalID)
		return nil
	}
	if settled {
		// Доплата подтвердилась после таймаута, но состав стран не менялся:
		// доначисление выполняется оператором по этой записи журнала
		logger.CtxWarn(ctx, "top-up charge settled via webhook, entitlement requires manual reconciliation",
			"subscription_id", sub.ID, "inv_id", event.InvID, "external_id", event.ExternalID)
		return nil
	}

	logger.CtxDebug(ctx, "charge.succeeded replay ignored", "subscription_id", sub.ID)
	return nil
}

// applyChargeFailed помечает платеж проваленным. Статус подписки не меняется:
// активный доступ не отбирается из-за неудачного списания.
func (s *webhookService) applyChargeFailed(ctx context.Context, tx *gorm.DB, sub *models.Subscription, event *payment.WebhookEvent) error {
	if sub.PaymentStatus == models.PaymentStatusFailed {
		return nil
	}
	sub.PaymentStatus = models.PaymentStatusFailed
	if err := s.subRepo.Save(ctx, tx, sub); err != nil {
		return err
	}
	if event.InvID != "" {
		if err := s.subRepo.UpdatePaymentStatus(ctx, tx, event.InvID, models.PaymentStatusFailed, event.ExternalID, nil); err != nil {
			return err
		}
	}

	logger.CtxWarn(ctx, "charge failed reported by processor",
		"subscription_id", sub.ID, "external_id", event.ExternalID)
	return nil
}

func (s *webhookService) applyCancelled(ctx context.Context, tx *gorm.DB, sub *models.Subscription, now time.Time) error {
	if sub.Status == models.SubscriptionStatusCancelled {
		return nil
	}
	sub.Status = models.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	if err := s.subRepo.Save(ctx, tx, sub); err != nil {
		return err
	}

	logger.CtxInfo(ctx, "subscription cancelled via webhook", "subscription_id", sub.ID)
	return nil
}

func (s *webhookService) applyExpired(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error {
	if sub.Status == models.SubscriptionStatusExpired {
		return nil
	}
	if sub.Status == models.SubscriptionStatusCancelled {
		// Отмененная подписка терминальна, expired ее не перезаписывает
		return nil
	}
	sub.Status = models.SubscriptionStatusExpired
	if err := s.subRepo.Save(ctx, tx, sub); err != nil {
		return err
	}

	logger.CtxInfo(ctx, "subscription expired via webhook", "subscription_id", sub.ID)
	return nil
}
