package pricing

import (
	"testing"
	"time"

	"jobatlas_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan(durationDays int, pricePerCountry float64) *models.SubscriptionPlan {
	return &models.SubscriptionPlan{
		Name:            "Standard",
		DurationDays:    durationDays,
		PricePerCountry: pricePerCountry,
		IsActive:        true,
	}
}

func TestCalculate_FullPrice(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		plan          *models.SubscriptionPlan
		countries     int
		remainingDays int
		wantFinal     float64
		wantDays      int
	}{
		{"two countries no existing subscription", testPlan(180, 20.00), 2, 0, 40.00, 180},
		{"single country", testPlan(180, 20.00), 1, 0, 20.00, 180},
		{"five countries monthly plan", testPlan(30, 9.99), 5, 0, 49.95, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := Calculate(tt.plan, tt.countries, tt.remainingDays, now)
			require.NoError(t, err)

			assert.Equal(t, tt.wantFinal, quote.FinalAmount)
			assert.Equal(t, tt.wantFinal, quote.OriginalAmount)
			assert.Equal(t, tt.wantDays, quote.EffectiveDurationDays)
			assert.False(t, quote.IsProrated)
			assert.Equal(t, now.AddDate(0, 0, tt.wantDays), quote.EndDate)
		})
	}
}

func TestCalculate_Prorated(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		plan          *models.SubscriptionPlan
		countries     int
		remainingDays int
		wantOriginal  float64
		wantFinal     float64
		wantDays      int
	}{
		{"30 of 180 days remaining", testPlan(180, 20.00), 1, 30, 20.00, 3.33, 30},
		{"two countries 30 of 180", testPlan(180, 20.00), 2, 30, 40.00, 6.67, 30},
		{"half of the period", testPlan(30, 10.00), 3, 15, 30.00, 15.00, 15},
		{"one day left", testPlan(180, 20.00), 1, 1, 20.00, 0.11, 1},
		{"remaining exceeds plan duration", testPlan(30, 10.00), 2, 90, 20.00, 20.00, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := Calculate(tt.plan, tt.countries, tt.remainingDays, now)
			require.NoError(t, err)

			assert.Equal(t, tt.wantOriginal, quote.OriginalAmount)
			assert.Equal(t, tt.wantFinal, quote.FinalAmount)
			assert.Equal(t, tt.wantDays, quote.EffectiveDurationDays)
			assert.True(t, quote.IsProrated)
			assert.Equal(t, now.AddDate(0, 0, tt.wantDays), quote.EndDate)
		})
	}
}

// Округление выполняется один раз на итоговой сумме, а не на цене за страну.
func TestCalculate_RoundsOnceAtFinalAmount(t *testing.T) {
	now := time.Now()

	// 3 страны * 0.115 = 0.345 -> 0.35 (half-up на сумме);
	// округление по-странно дало бы 0.12*3 = 0.36
	quote, err := Calculate(testPlan(30, 0.115), 3, 0, now)
	require.NoError(t, err)
	assert.Equal(t, 0.35, quote.FinalAmount)

	// Прорация: 7 стран * 20 = 140, 140 * 17/180 = 13.222... -> 13.22
	quote, err = Calculate(testPlan(180, 20.00), 7, 17, now)
	require.NoError(t, err)
	assert.Equal(t, 13.22, quote.FinalAmount)
}

func TestCalculate_Validation(t *testing.T) {
	now := time.Now()

	_, err := Calculate(testPlan(180, 20.00), 0, 0, now)
	assert.ErrorIs(t, err, ErrNoCountries)

	_, err = Calculate(testPlan(0, 20.00), 1, 0, now)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}
