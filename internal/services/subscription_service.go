package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobatlas_backend/internal/config"
	"jobatlas_backend/internal/dto"
	"jobatlas_backend/internal/email"
	"jobatlas_backend/internal/logger"
	"jobatlas_backend/internal/models"
	"jobatlas_backend/internal/payment"
	"jobatlas_backend/internal/pricing"
	"jobatlas_backend/internal/repositories"
	"jobatlas_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionService - оркестратор жизненного цикла подписки.
//
// Каждая операция с деньгами идет по схеме "проверить -> посчитать ->
// списать -> зафиксировать": платеж выполняется вне транзакции БД, фиксация
// результата - внутри. Конкурентные мутации одной подписки сериализуются
// блокировкой строки (SELECT ... FOR UPDATE).
type SubscriptionService interface {
	Calculate(ctx context.Context, db *gorm.DB, candidateID string, req *dto.CalculateRequest) (*pricing.Quote, error)
	Create(ctx context.Context, db *gorm.DB, candidateID string, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	AddCountries(ctx context.Context, db *gorm.DB, candidateID, subscriptionID string, req *dto.AddCountriesRequest) (*dto.SubscriptionResponse, error)
	RemoveCountries(ctx context.Context, db *gorm.DB, candidateID, subscriptionID string, req *dto.RemoveCountriesRequest) (*dto.SubscriptionResponse, error)
	Cancel(ctx context.Context, db *gorm.DB, subscriptionID, actorID string, isAdmin bool) error
	List(ctx context.Context, db *gorm.DB, candidateID string) ([]dto.SubscriptionResponse, error)
	Get(ctx context.Context, db *gorm.DB, candidateID, subscriptionID string) (*dto.SubscriptionResponse, error)
	ListAll(ctx context.Context, db *gorm.DB, status *models.SubscriptionStatus) ([]dto.SubscriptionResponse, error)
	ProcessExpired(ctx context.Context, db *gorm.DB) (int64, error)
}

type subscriptionService struct {
	subRepo     repositories.SubscriptionRepository
	planRepo    repositories.PlanRepository
	countryRepo repositories.CountryRepository
	userRepo    repositories.UserRepository
	gateway     payment.Gateway
	emailSender email.Sender
	provider    string
}

func NewSubscriptionService(
	subRepo repositories.SubscriptionRepository,
	planRepo repositories.PlanRepository,
	countryRepo repositories.CountryRepository,
	userRepo repositories.UserRepository,
	gateway payment.Gateway,
	emailSender email.Sender,
	cfg *config.Config,
) SubscriptionService {
	return &subscriptionService{
		subRepo:     subRepo,
		planRepo:    planRepo,
		countryRepo: countryRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		emailSender: emailSender,
		provider:    cfg.Payment.Provider,
	}
}

// Calculate - предпросмотр цены покупки. Считает по тем же правилам, что и
// Create, но ничего не списывает и не сохраняет.
func (s *subscriptionService) Calculate(ctx context.Context, db *gorm.DB, candidateID string, req *dto.CalculateRequest) (*pricing.Quote, error) {
	now := time.Now().UTC()

	plan, err := s.loadPurchasablePlan(ctx, db, req.PlanID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolveCountries(ctx, db, req.CountryIDs); err != nil {
		return nil, err
	}

	remaining, err := s.remainingDaysOfCurrent(ctx, db, candidateID, now)
	if err != nil {
		return nil, err
	}
	quote, err := pricing.Calculate(plan, len(req.CountryIDs), remaining, now)
	if err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	return quote, nil
}

// Create - покупка подписки: валидация каталога, расчет (с проration при
// действующей подписке), синхронное списание, затем фиксация записи.
func (s *subscriptionService) Create(ctx context.Context, db *gorm.DB, candidateID string, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	now := time.Now().UTC()

	plan, err := s.loadPurchasablePlan(ctx, db, req.PlanID)
	if err != nil {
		return nil, err
	}
	countries, err := s.resolveCountries(ctx, db, req.CountryIDs)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, db, candidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewUnauthorizedError("candidate account not found")
		}
		return nil, err
	}

	remaining, err := s.remainingDaysOfCurrent(ctx, db, candidateID, now)
	if err != nil {
		return nil, err
	}
	quote, err := pricing.Calculate(plan, len(countries), remaining, now)
	if err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	customerID, err := s.gateway.FindOrCreateCustomer(ctx, user.ID, user.Name, user.Email)
	if err != nil {
		logger.CtxWithError(ctx, "billing customer lookup failed", err, "candidate_id", candidateID)
		return nil, apperrors.ErrPaymentProviderUnavailable
	}

	invID := newInvoiceID()
	if err := s.subRepo.CreatePayment(ctx, db, &models.PaymentTransaction{
		CandidateID: candidateID,
		Amount:      quote.FinalAmount,
		Currency:    plan.Currency,
		Status:      models.PaymentStatusPending,
		InvID:       invID,
	}); err != nil {
		return nil, fmt.Errorf("failed to open payment transaction: %w", err)
	}

	sub := &models.Subscription{
		CandidateID:  candidateID,
		PlanID:       plan.ID,
		CountryCount: len(countries),
		TotalAmount:  quote.FinalAmount,
		Billing: models.BillingRef{
			Provider:   s.provider,
			CustomerID: customerID,
		},
		StartDate: quote.StartDate,
		EndDate:   quote.EndDate,
		CreatedBy: candidateID,
		UpdatedBy: candidateID,
	}
	memberships := make([]models.CountryMembership, 0, len(countries))
	for _, c := range countries {
		memberships = append(memberships, models.CountryMembership{CountryID: c.ID})
	}

	result, chargeErr := s.gateway.Charge(ctx, customerID, quote.FinalAmount, plan.Currency, req.PaymentToken, invID)
	switch {
	case chargeErr == nil:
		// ниже

	case errors.Is(chargeErr, payment.ErrUnknownOutcome):
		// Исход неизвестен: фиксируем подписку как pending, чтобы webhook-у
		// было что активировать. Деньги могли уйти - записи должны быть.
		sub.Status = models.SubscriptionStatusPending
		sub.PaymentStatus = models.PaymentStatusPending
		if err := s.persistSubscription(ctx, db, sub, memberships, invID, "", nil); err != nil {
			logger.CtxWithError(ctx, "failed to persist pending subscription after payment timeout", err,
				"candidate_id", candidateID, "inv_id", invID)
			return nil, apperrors.InternalError(err)
		}
		logger.CtxWarn(ctx, "payment outcome unknown, subscription pending webhook",
			"subscription_id", sub.ID, "inv_id", invID)
		return nil, apperrors.ErrPaymentPendingVerification

	case errors.Is(chargeErr, payment.ErrTokenUsed):
		s.closeFailedPayment(ctx, db, invID)
		return nil, apperrors.ErrPaymentTokenUsed

	case errors.Is(chargeErr, payment.ErrDeclined):
		s.closeFailedPayment(ctx, db, invID)
		return nil, apperrors.ErrPaymentDeclined

	default:
		s.closeFailedPayment(ctx, db, invID)
		logger.CtxWithError(ctx, "payment charge failed", chargeErr, "candidate_id", candidateID, "inv_id", invID)
		return nil, apperrors.ErrPaymentProviderUnavailable
	}

	sub.Status = models.SubscriptionStatusActive
	sub.PaymentStatus = models.PaymentStatusCompleted
	sub.Billing.ExternalID = result.ExternalID

	if err := s.persistSubscription(ctx, db, sub, memberships, invID, result.ExternalID, &now); err != nil {
		// Деньги списаны, запись не создана: переплата фиксируется в логах
		// для ручной сверки, клиент получает 500.
		logger.CtxWithError(ctx, "charged but failed to persist subscription, manual reconciliation required", err,
			"candidate_id", candidateID, "inv_id", invID, "external_id", result.ExternalID)
		return nil, apperrors.InternalError(err)
	}

	s.projectSummary(ctx, db, user, plan, sub)
	s.sendReceipt(user, plan, sub)

	logger.CtxInfo(ctx, "subscription created",
		"subscription_id", sub.ID, "candidate_id", candidateID,
		"countries", sub.CountryCount, "amount", sub.TotalAmount, "prorated", quote.IsProrated)

	return s.snapshot(ctx, db, sub.ID)
}

// AddCountries - докупка стран в действующую подписку. Срок подписки не
// меняется, доплата пропорциональна остатку дней.
func (s *subscriptionService) AddCountries(ctx context.Context, db *gorm.DB, candidateID, subscriptionID string, req *dto.AddCountriesRequest) (*dto.SubscriptionResponse, error) {
	now := time.Now().UTC()

	sub, err := s.loadOwned(ctx, db, candidateID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.IsCurrentlyActive(now) {
		return nil, apperrors.ErrSubscriptionNotActive
	}

	countries, err := s.resolveCountries(ctx, db, req.CountryIDs)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]bool, len(sub.Countries))
	for _, m := range sub.Countries {
		existing[m.CountryID] = true
	}
	toAdd := make([]models.Country, 0, len(countries))
	for _, c := range countries {
		if !existing[c.ID] {
			toAdd = append(toAdd, c)
		}
	}
	if len(toAdd) == 0 {
		return nil, apperrors.ErrNothingToAdd
	}

	// Остаток считается от конца самой подписки, не от текущей активной
	remaining := sub.RemainingDays(now)
	quote, err := pricing.Calculate(&sub.Plan, len(toAdd), remaining, now)
	if err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	customerID := sub.Billing.CustomerID
	if customerID == "" {
		user, err := s.userRepo.FindByID(ctx, db, candidateID)
		if err != nil {
			return nil, err
		}
		customerID, err = s.gateway.FindOrCreateCustomer(ctx, user.ID, user.Name, user.Email)
		if err != nil {
			logger.CtxWithError(ctx, "billing customer lookup failed", err, "candidate_id", candidateID)
			return nil, apperrors.ErrPaymentProviderUnavailable
		}
	}

	invID := newInvoiceID()
	if err := s.subRepo.CreatePayment(ctx, db, &models.PaymentTransaction{
		CandidateID:    candidateID,
		SubscriptionID: sub.ID,
		Amount:         quote.FinalAmount,
		Currency:       sub.Plan.Currency,
		Status:         models.PaymentStatusPending,
		InvID:          invID,
	}); err != nil {
		return nil, fmt.Errorf("failed to open payment transaction: %w", err)
	}

	result, chargeErr := s.gateway.Charge(ctx, customerID, quote.FinalAmount, sub.Plan.Currency, req.PaymentToken, invID)
	if chargeErr != nil {
		switch {
		case errors.Is(chargeErr, payment.ErrTokenUsed):
			s.closeFailedPayment(ctx, db, invID)
			return nil, apperrors.ErrPaymentTokenUsed
		case errors.Is(chargeErr, payment.ErrDeclined):
			s.closeFailedPayment(ctx, db, invID)
			return nil, apperrors.ErrPaymentDeclined
		case errors.Is(chargeErr, payment.ErrUnknownOutcome):
			logger.CtxWarn(ctx, "top-up payment outcome unknown, awaiting webhook",
				"subscription_id", sub.ID, "inv_id", invID)
			return nil, apperrors.ErrPaymentPendingVerification
		default:
			s.closeFailedPayment(ctx, db, invID)
			logger.CtxWithError(ctx, "top-up charge failed", chargeErr, "subscription_id", sub.ID, "inv_id", invID)
			return nil, apperrors.ErrPaymentProviderUnavailable
		}
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.subRepo.FindByIDForUpdate(ctx, tx, sub.ID)
		if err != nil {
			return err
		}
		if !locked.IsCurrentlyActive(now) {
			return apperrors.ErrSubscriptionNotActive
		}

		memberships := make([]models.CountryMembership, 0, len(toAdd))
		for _, c := range toAdd {
			memberships = append(memberships, models.CountryMembership{
				SubscriptionID: locked.ID,
				CountryID:      c.ID,
			})
		}
		if err := s.subRepo.AppendMemberships(ctx, tx, memberships); err != nil {
			// Уникальный индекс (subscription_id, country_id) ловит гонку
			// двух одновременных докупок одной и той же страны
			return apperrors.ErrConflict(err, "subscription", "Concurrent country change, retry the operation")
		}

		// count держится равным числу строк membership, а не арифметике
		count, err := s.subRepo.CountMemberships(ctx, tx, locked.ID)
		if err != nil {
			return err
		}
		locked.CountryCount = int(count)
		locked.TotalAmount += quote.FinalAmount
		locked.UpdatedBy = candidateID
		if err := s.subRepo.Save(ctx, tx, locked); err != nil {
			return err
		}

		return s.subRepo.UpdatePaymentStatus(ctx, tx, invID, models.PaymentStatusCompleted, result.ExternalID, &now)
	})
	if err != nil {
		var appErr *apperrors.AppError
		if apperrors.As(err, &appErr) {
			logger.CtxWithError(ctx, "charged top-up but failed to apply, manual reconciliation required", err,
				"subscription_id", sub.ID, "inv_id", invID, "external_id", result.ExternalID)
			return nil, appErr
		}
		logger.CtxWithError(ctx, "charged top-up but failed to apply, manual reconciliation required", err,
			"subscription_id", sub.ID, "inv_id", invID, "external_id", result.ExternalID)
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "countries added to subscription",
		"subscription_id", sub.ID, "added", len(toAdd), "amount", quote.FinalAmount)

	return s.snapshot(ctx, db, sub.ID)
}

// RemoveCountries - сужение подписки. Денег не возвращает, сумму не меняет;
// последняя страна не удаляется.
func (s *subscriptionService) RemoveCountries(ctx context.Context, db *gorm.DB, candidateID, subscriptionID string, req *dto.RemoveCountriesRequest) (*dto.SubscriptionResponse, error) {
	now := time.Now().UTC()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.subRepo.FindByIDForUpdate(ctx, tx, subscriptionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrSubscriptionNotFound
			}
			return err
		}
		if locked.CandidateID != candidateID {
			return apperrors.ErrNotSubscriptionOwner
		}
		if !locked.IsCurrentlyActive(now) {
			return apperrors.ErrSubscriptionNotActive
		}

		memberships, err := s.subRepo.FindMemberships(ctx, tx, locked.ID)
		if err != nil {
			return err
		}
		member := make(map[string]bool, len(memberships))
		for _, m := range memberships {
			member[m.CountryID] = true
		}
		for _, id := range req.CountryIDs {
			if !member[id] {
				return apperrors.ErrCountryNotMember
			}
		}
		if len(memberships)-len(req.CountryIDs) < 1 {
			return apperrors.ErrLastCountry
		}

		if _, err := s.subRepo.DeleteMemberships(ctx, tx, locked.ID, req.CountryIDs); err != nil {
			return err
		}

		count, err := s.subRepo.CountMemberships(ctx, tx, locked.ID)
		if err != nil {
			return err
		}
		locked.CountryCount = int(count)
		locked.UpdatedBy = candidateID
		return s.subRepo.Save(ctx, tx, locked)
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "countries removed from subscription",
		"subscription_id", subscriptionID, "removed", len(req.CountryIDs))

	return s.snapshot(ctx, db, subscriptionID)
}

// Cancel - немедленная отмена подписки. Отмена рекуррента у процессора
// best-effort: локальный статус меняется в любом случае.
func (s *subscriptionService) Cancel(ctx context.Context, db *gorm.DB, subscriptionID, actorID string, isAdmin bool) error {
	now := time.Now().UTC()

	sub, err := s.subRepo.FindByID(ctx, db, subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrSubscriptionNotFound
		}
		return err
	}
	if !isAdmin && sub.CandidateID != actorID {
		return apperrors.ErrNotSubscriptionOwner
	}
	if sub.Status == models.SubscriptionStatusCancelled {
		return apperrors.ErrSubscriptionCancelled
	}

	if sub.Billing.ExternalID != "" {
		if err := s.gateway.CancelRecurring(ctx, sub.Billing.ExternalID); err != nil {
			logger.CtxWithError(ctx, "failed to cancel recurring billing, local cancellation proceeds", err,
				"subscription_id", sub.ID, "external_id", sub.Billing.ExternalID)
		}
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.subRepo.FindByIDForUpdate(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if locked.Status == models.SubscriptionStatusCancelled {
			return apperrors.ErrSubscriptionCancelled
		}
		locked.Status = models.SubscriptionStatusCancelled
		locked.CancelledAt = &now
		locked.UpdatedBy = actorID
		return s.subRepo.Save(ctx, tx, locked)
	})
	if err != nil {
		return err
	}

	// Кандидат читается до запуска горутины: request-scoped *gorm.DB
	// нельзя трогать после возврата из хендлера
	if user, uerr := s.userRepo.FindByID(ctx, db, sub.CandidateID); uerr != nil {
		logger.CtxWithError(ctx, "failed to load candidate for cancellation notice", uerr, "subscription_id", sub.ID)
	} else {
		s.sendCancellationNotice(user, sub)
	}

	logger.CtxInfo(ctx, "subscription cancelled", "subscription_id", sub.ID, "actor_id", actorID, "admin", isAdmin)
	return nil
}

func (s *subscriptionService) List(ctx context.Context, db *gorm.DB, candidateID string) ([]dto.SubscriptionResponse, error) {
	subs, err := s.subRepo.FindByCandidate(ctx, db, candidateID)
	if err != nil {
		return nil, err
	}
	return s.toResponses(subs), nil
}

func (s *subscriptionService) Get(ctx context.Context, db *gorm.DB, candidateID, subscriptionID string) (*dto.SubscriptionResponse, error) {
	sub, err := s.loadOwned(ctx, db, candidateID, subscriptionID)
	if err != nil {
		return nil, err
	}
	resp := toSubscriptionResponse(sub, time.Now().UTC())
	return &resp, nil
}

func (s *subscriptionService) ListAll(ctx context.Context, db *gorm.DB, status *models.SubscriptionStatus) ([]dto.SubscriptionResponse, error) {
	subs, err := s.subRepo.FindAll(ctx, db, status)
	if err != nil {
		return nil, err
	}
	return s.toResponses(subs), nil
}

// ProcessExpired переводит активные подписки с истекшим сроком в expired
func (s *subscriptionService) ProcessExpired(ctx context.Context, db *gorm.DB) (int64, error) {
	count, err := s.subRepo.MarkExpired(ctx, db)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.CtxInfo(ctx, "expired subscriptions processed", "count", count)
	}
	return count, nil
}

// --- helpers ---

func (s *subscriptionService) loadPurchasablePlan(ctx context.Context, db *gorm.DB, planID string) (*models.SubscriptionPlan, error) {
	plan, err := s.planRepo.FindByID(ctx, db, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.IsActive {
		return nil, apperrors.ErrPlanInactive
	}
	return plan, nil
}

// resolveCountries проверяет, что все id существуют в каталоге
func (s *subscriptionService) resolveCountries(ctx context.Context, db *gorm.DB, ids []string) ([]models.Country, error) {
	countries, err := s.countryRepo.FindByIDs(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	if len(countries) != len(ids) {
		found := make(map[string]bool, len(countries))
		for _, c := range countries {
			found[c.ID] = true
		}
		missing := make([]string, 0)
		for _, id := range ids {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		// Не используем общий ErrCountryNotFound: WithDetails мутирует ошибку
		notFound := *apperrors.ErrCountryNotFound
		return nil, notFound.WithDetails(map[string]interface{}{"missing": missing})
	}
	return countries, nil
}

func (s *subscriptionService) loadOwned(ctx context.Context, db *gorm.DB, candidateID, subscriptionID string) (*models.Subscription, error) {
	sub, err := s.subRepo.FindByID(ctx, db, subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubscriptionNotFound
		}
		return nil, err
	}
	if sub.CandidateID != candidateID {
		return nil, apperrors.ErrNotSubscriptionOwner
	}
	return sub, nil
}

// remainingDaysOfCurrent - остаток дней текущей активной подписки кандидата,
// 0 при ее отсутствии. Ошибка БД не маскируется под "подписки нет": иначе
// кандидату посчитают полную цену вместо proration.
func (s *subscriptionService) remainingDaysOfCurrent(ctx context.Context, db *gorm.DB, candidateID string, now time.Time) (int, error) {
	current, err := s.subRepo.FindCurrentActive(ctx, db, candidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return current.RemainingDays(now), nil
}

func (s *subscriptionService) persistSubscription(ctx context.Context, db *gorm.DB, sub *models.Subscription, memberships []models.CountryMembership, invID, externalID string, paidAt *time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.subRepo.Create(ctx, tx, sub, memberships); err != nil {
			return err
		}
		if err := s.subRepo.LinkPaymentToSubscription(ctx, tx, invID, sub.ID); err != nil {
			return err
		}
		if paidAt != nil {
			return s.subRepo.UpdatePaymentStatus(ctx, tx, invID, models.PaymentStatusCompleted, externalID, paidAt)
		}
		return nil
	})
}

func (s *subscriptionService) closeFailedPayment(ctx context.Context, db *gorm.DB, invID string) {
	if err := s.subRepo.UpdatePaymentStatus(ctx, db, invID, models.PaymentStatusFailed, "", nil); err != nil {
		logger.CtxWithError(ctx, "failed to close payment transaction", err, "inv_id", invID)
	}
}

// projectSummary обновляет денормализованную сводку на кандидате; ошибка
// не фатальна для покупки
func (s *subscriptionService) projectSummary(ctx context.Context, db *gorm.DB, user *models.User, plan *models.SubscriptionPlan, sub *models.Subscription) {
	err := s.userRepo.UpdateSubscriptionSummary(ctx, db, user.ID, repositories.SubscriptionSummary{
		PlanName:     plan.Name,
		CountryCount: sub.CountryCount,
		UnitPrice:    plan.PricePerCountry,
		ExpiresAt:    sub.EndDate,
	})
	if err != nil {
		logger.CtxWithError(ctx, "failed to update candidate subscription summary", err,
			"candidate_id", user.ID, "subscription_id", sub.ID)
	}
}

func (s *subscriptionService) sendCancellationNotice(user *models.User, sub *models.Subscription) {
	go func() {
		if err := s.emailSender.SendCancellationNotice(user.Email, user.Name, sub.Plan.Name); err != nil {
			logger.WithError(err).Warn("failed to send cancellation notice",
				"subscription_id", sub.ID, "email", user.Email)
		}
	}()
}

func (s *subscriptionService) sendReceipt(user *models.User, plan *models.SubscriptionPlan, sub *models.Subscription) {
	go func() {
		if err := s.emailSender.SendPaymentReceipt(user.Email, user.Name, plan.Name,
			sub.TotalAmount, plan.Currency, sub.CountryCount, sub.EndDate); err != nil {
			logger.WithError(err).Warn("failed to send payment receipt",
				"subscription_id", sub.ID, "email", user.Email)
		}
	}()
}

// snapshot перечитывает подписку с каталогом стран и строит ответ клиенту
func (s *subscriptionService) snapshot(ctx context.Context, db *gorm.DB, subscriptionID string) (*dto.SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByID(ctx, db, subscriptionID)
	if err != nil {
		return nil, err
	}
	resp := toSubscriptionResponse(sub, time.Now().UTC())
	return &resp, nil
}

func (s *subscriptionService) toResponses(subs []models.Subscription) []dto.SubscriptionResponse {
	now := time.Now().UTC()
	result := make([]dto.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		result = append(result, toSubscriptionResponse(&subs[i], now))
	}
	return result
}

func toSubscriptionResponse(sub *models.Subscription, now time.Time) dto.SubscriptionResponse {
	countries := make([]dto.MembershipResponse, 0, len(sub.Countries))
	for _, m := range sub.Countries {
		countries = append(countries, dto.MembershipResponse{
			CountryID: m.CountryID,
			Code:      m.Country.Code,
			Name:      m.Country.Name,
		})
	}
	return dto.SubscriptionResponse{
		ID:            sub.ID,
		CandidateID:   sub.CandidateID,
		PlanID:        sub.PlanID,
		PlanName:      sub.Plan.Name,
		Status:        string(sub.Status),
		PaymentStatus: string(sub.PaymentStatus),
		CountryCount:  sub.CountryCount,
		TotalAmount:   sub.TotalAmount,
		Countries:     countries,
		StartDate:     sub.StartDate,
		EndDate:       sub.EndDate,
		DaysRemaining: sub.RemainingDays(now),
		CancelledAt:   sub.CancelledAt,
	}
}

func newInvoiceID() string {
	return "inv_" + uuid.NewString()
}
