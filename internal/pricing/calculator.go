package pricing

import (
	"errors"
	"time"

	"jobatlas_backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNoCountries     = errors.New("at least one country is required")
	ErrInvalidDuration = errors.New("plan duration must be positive")
)

// Quote - результат расчета стоимости и срока действия
type Quote struct {
	CountryCount          int       `json:"country_count"`
	OriginalAmount        float64   `json:"original_amount"`
	FinalAmount           float64   `json:"final_amount"`
	EffectiveDurationDays int       `json:"effective_duration_days"`
	IsProrated            bool      `json:"is_prorated"`
	StartDate             time.Time `json:"start_date"`
	EndDate               time.Time `json:"end_date"`
}

// Calculate - чистая функция расчета цены.
//
// Без действующей подписки (remainingDays <= 0) кандидат платит полную цену
// за полный срок плана. С действующей подпиской срок обрезается до остатка
// ее жизни и цена пропорционально уменьшается (top-up не продлевает доступ).
//
// Денежное округление half-up до 2 знаков выполняется ровно один раз,
// на итоговой сумме; промежуточные значения не округляются.
func Calculate(plan *models.SubscriptionPlan, countryCount, remainingDays int, now time.Time) (*Quote, error) {
	if countryCount < 1 {
		return nil, ErrNoCountries
	}
	if plan.DurationDays <= 0 {
		return nil, ErrInvalidDuration
	}

	original := decimal.NewFromFloat(plan.PricePerCountry).
		Mul(decimal.NewFromInt(int64(countryCount)))

	effectiveDays := plan.DurationDays
	prorated := false

	if remainingDays > 0 {
		prorated = true
		if remainingDays < effectiveDays {
			effectiveDays = remainingDays
		}
	}

	final := original
	if prorated {
		factor := decimal.NewFromInt(int64(effectiveDays)).
			Div(decimal.NewFromInt(int64(plan.DurationDays)))
		final = original.Mul(factor)
	}

	return &Quote{
		CountryCount:          countryCount,
		OriginalAmount:        original.Round(2).InexactFloat64(),
		FinalAmount:           final.Round(2).InexactFloat64(),
		EffectiveDurationDays: effectiveDays,
		IsProrated:            prorated,
		StartDate:             now,
		EndDate:               now.AddDate(0, 0, effectiveDays),
	}, nil
}
