package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobatlas_backend/internal/models"
	"jobatlas_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// currentActiveStub подменяет только FindCurrentActive, остальные методы
// интерфейса в этих тестах не вызываются
type currentActiveStub struct {
	repositories.SubscriptionRepository
	sub *models.Subscription
	err error
}

func (s *currentActiveStub) FindCurrentActive(ctx context.Context, db *gorm.DB, candidateID string) (*models.Subscription, error) {
	return s.sub, s.err
}

func TestRemainingDaysOfCurrent_NoActiveSubscription(t *testing.T) {
	svc := &subscriptionService{subRepo: &currentActiveStub{err: gorm.ErrRecordNotFound}}

	days, err := svc.remainingDaysOfCurrent(context.Background(), nil, "cand-1", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 0, days)
}

// Ошибка БД не маскируется под "подписки нет": иначе кандидату
// посчитают полную цену вместо proration
func TestRemainingDaysOfCurrent_PropagatesRepoError(t *testing.T) {
	dbErr := errors.New("connection reset by peer")
	svc := &subscriptionService{subRepo: &currentActiveStub{err: dbErr}}

	_, err := svc.remainingDaysOfCurrent(context.Background(), nil, "cand-1", time.Now().UTC())
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
}

func TestRemainingDaysOfCurrent_CountsFromSubscriptionEnd(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		Status:  models.SubscriptionStatusActive,
		EndDate: now.Add(30 * 24 * time.Hour),
	}
	svc := &subscriptionService{subRepo: &currentActiveStub{sub: sub}}

	days, err := svc.remainingDaysOfCurrent(context.Background(), nil, "cand-1", now)
	require.NoError(t, err)
	assert.Equal(t, 30, days)
}
