package workers

import (
	"context"
	"time"

	"jobatlas_backend/internal/logger"
	"jobatlas_backend/internal/repositories"

	"gorm.io/gorm"
)

// SubscriptionWorker - фоновый переводчик истекших подписок в expired.
// Тот же переход доступен админу синхронно через process-expired.
type SubscriptionWorker struct {
	db      *gorm.DB
	subRepo repositories.SubscriptionRepository
	period  time.Duration
}

func NewSubscriptionWorker(db *gorm.DB, subRepo repositories.SubscriptionRepository) *SubscriptionWorker {
	return &SubscriptionWorker{
		db:      db,
		subRepo: subRepo,
		period:  6 * time.Hour,
	}
}

// Start запускает фоновые задачи для подписок
func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.sweepExpired(ctx)
}

func (w *SubscriptionWorker) sweepExpired(ctx context.Context) {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	// Первый проход сразу при старте, чтобы не ждать целый период
	w.runSweep(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("subscription worker stopped")
			return
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

func (w *SubscriptionWorker) runSweep(ctx context.Context) {
	count, err := w.subRepo.MarkExpired(ctx, w.db)
	logger.WorkerLog("subscription", "sweep_expired", err)
	if err == nil && count > 0 {
		logger.Info("expired subscriptions swept", "count", count)
	}
}
