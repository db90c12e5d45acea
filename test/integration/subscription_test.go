package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"jobatlas_backend/internal/models"
	"jobatlas_backend/internal/payment"
	"jobatlas_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subscriptionEnvelope struct {
	Subscription struct {
		ID            string  `json:"id"`
		Status        string  `json:"status"`
		PaymentStatus string  `json:"payment_status"`
		CountryCount  int     `json:"country_count"`
		TotalAmount   float64 `json:"total_amount"`
	} `json:"subscription"`
}

// TestSubscription_FullPriceCreation - первая покупка по полной цене
func TestSubscription_FullPriceCreation(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	user, token := helpers.CreateUserWithToken(t, tx, "Buyer", "buyer@sub.test", models.UserRoleCandidate)
	plan := helpers.CreatePlan(t, tx, "Standard 180", 180, 20)
	countryIDs := helpers.CreateCountries(t, tx, "C1", "C2")

	body := map[string]interface{}{
		"plan_id":                  plan.ID,
		"country_ids":              countryIDs,
		"payment_instrument_token": "tok_full_price",
	}
	res, bodyStr := ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions", token, body)
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var env subscriptionEnvelope
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &env))
	assert.Equal(t, "active", env.Subscription.Status)
	assert.Equal(t, "completed", env.Subscription.PaymentStatus)
	assert.Equal(t, 2, env.Subscription.CountryCount)
	assert.Equal(t, 40.0, env.Subscription.TotalAmount)

	// Число связей совпадает со счетчиком, срок равен длительности плана
	sub := helpers.LoadSubscription(t, tx, env.Subscription.ID)
	assert.Len(t, sub.Countries, 2)
	assert.Equal(t, user.ID, sub.CandidateID)
	wantEnd := sub.StartDate.AddDate(0, 0, 180)
	assert.WithinDuration(t, wantEnd, sub.EndDate, time.Second)

	// Журнал платежей закрыт успешным списанием
	var tr models.PaymentTransaction
	require.NoError(t, tx.Where("subscription_id = ?", sub.ID).First(&tr).Error)
	assert.Equal(t, models.PaymentStatusCompleted, tr.Status)
	assert.NotEmpty(t, tr.ExternalID)
}

// TestSubscription_CalculatePreviewHasNoSideEffects - превью не списывает деньги
func TestSubscription_CalculatePreviewHasNoSideEffects(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	_, token := helpers.CreateUserWithToken(t, tx, "Previewer", "preview@sub.test", models.UserRoleCandidate)
	plan := helpers.CreatePlan(t, tx, "Preview 180", 180, 20)
	countryIDs := helpers.CreateCountries(t, tx, "P1", "P2", "P3")

	body := map[string]interface{}{
		"plan_id":     plan.ID,
		"country_ids": countryIDs,
	}
	res, bodyStr := ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions/calculate", token, body)
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	var quote struct {
		FinalAmount float64 `json:"final_amount"`
		IsProrated  bool    `json:"is_prorated"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &quote))
	assert.Equal(t, 60.0, quote.FinalAmount)
	assert.False(t, quote.IsProrated)

	var count int64
	require.NoError(t, tx.Model(&models.Subscription{}).Count(&count).Error)
	assert.Zero(t, count, "превью не должно создавать подписок")
}

// TestSubscription_ProratedSecondPurchase - вторая покупка при действующей
// подписке обрезается по остатку дней и пропорционально дешевле
func TestSubscription_ProratedSecondPurchase(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	user, token := helpers.CreateUserWithToken(t, tx, "Prorated", "prorated@sub.test", models.UserRoleCandidate)
	plan := helpers.CreatePlan(t, tx, "Prorate 180", 180, 20)
	countryIDs := helpers.CreateCountries(t, tx, "R1", "R2")

	// Действующая подписка, до конца которой осталось 30 дней
	now := time.Now().UTC()
	existing := &models.Subscription{
		CandidateID:   user.ID,
		PlanID:        plan.ID,
		CountryCount:  1,
		TotalAmount:   20,
		StartDate:     now.AddDate(0, 0, -150),
		EndDate:       now.Add(30 * 24 * time.Hour),
		Status:        models.SubscriptionStatusActive,
		PaymentStatus: models.PaymentStatusCompleted,
	}
	require.NoError(t, tx.Create(existing).Error)

	body := map[string]interface{}{
		"plan_id":                  plan.ID,
		"country_ids":              []string{countryIDs[0]},
		"payment_instrument_token": "tok_prorated",
	}
	res, bodyStr := ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions", token, body)
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	// 20 * 30/180 = 3.33
	var env subscriptionEnvelope
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &env))
	assert.Equal(t, 3.33, env.Subscription.TotalAmount)

	sub := helpers.LoadSubscription(t, tx, env.Subscription.ID)
	remaining := time.Until(sub.EndDate)
	assert.LessOrEqual(t, remaining, 30*24*time.Hour+time.Minute, "срок не длиннее остатка старой подписки")
}

// TestSubscription_DeclinedCharge - отклоненное списание не создает подписку
func TestSubscription_DeclinedCharge(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	_, token := helpers.CreateUserWithToken(t, tx, "Declined", "declined@sub.test", models.UserRoleCandidate)
	plan := helpers.CreatePlan(t, tx, "Declined 180", 180, 20)
	countryIDs := helpers.CreateCountries(t, tx, "D1")

	ts.Gateway.FailNextCharge(payment.ErrDeclined)

	body := map[string]interface{}{
		"plan_id":                  plan.ID,
		"country_ids":              countryIDs,
		"payment_instrument_token": "tok_declined",
	}
	res, bodyStr := ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions", token, body)
	assert.Equal(t, http.StatusPaymentRequired, res.StatusCode, bodyStr)

	var count int64
	require.NoError(t, tx.Model(&models.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)

	// Платеж остался в журнале как failed
	var tr models.PaymentTransaction
	require.NoError(t, tx.Order("created_at DESC").First(&tr).Error)
	assert.Equal(t, models.PaymentStatusFailed, tr.Status)
}

// TestSubscription_TokenReuseRejected - одноразовый токен не списывается дважды
func TestSubscription_TokenReuseRejected(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	_, token := helpers.CreateUserWithToken(t, tx, "Reuser", "reuse@sub.test", models.UserRoleCandidate)
	plan := helpers.CreatePlan(t, tx, "Reuse 180", 180, 20)
	countryIDs := helpers.CreateCountries(t, tx, "T1")

	body := map[string]interface{}{
		"plan_id":                  plan.ID,
		"country_ids":              countryIDs,
		"payment_instrument_token": "tok_once",
	}
	res, bodyStr := ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions", token, body)
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	// Повтор с тем же токеном
	res, bodyStr = ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions", token, body)
	assert.Equal(t, http.StatusPaymentRequired, res.StatusCode, bodyStr)
	assert.Contains(t, bodyStr, "already used")
}

// TestSubscription_AddCountries - top-up не двигает срок и доплачивает
// только за добавленные страны
func TestSubscription_AddCountries(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	_, token := helpers.CreateUserWithToken(t, tx, "Adder", "adder@sub.test", models.UserRoleCandidate)
	plan := helpers.CreatePlan(t, tx, "Add 180", 180, 20)
	countryIDs := helpers.CreateCountries(t, tx, "A1", "A2", "A3")

	body := map[string]interface{}{
		"plan_id":                  plan.ID,
		"country_ids":              []string{countryIDs[0], countryIDs[1]},
		"payment_instrument_token": "tok_add_base",
	}
	res, bodyStr := ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions", token, body)
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var env subscriptionEnvelope
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &env))
	subID := env.Subscription.ID
	endBefore := helpers.LoadSubscription(t, tx, subID).EndDate

	// Сразу после покупки остаток = полной длительности, доплата за
	// одну страну равна полной цене за страну
	addBody := map[string]interface{}{
		"country_ids":              []string{countryIDs[2]},
		"payment_instrument_token": "tok_add_extra",
	}
	res, bodyStr = ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions/"+subID+"/add-countries", token, addBody)
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	require.NoError(t, json.Unmarshal([]byte(bodyStr), &env))
	assert.Equal(t, 3, env.Subscription.CountryCount)
	assert.Equal(t, 60.0, env.Subscription.TotalAmount)

	sub := helpers.LoadSubscription(t, tx, subID)
	assert.Len(t, sub.Countries, 3)
	assert.True(t, sub.EndDate.Equal(endBefore), "top-up не должен менять срок")

	// Повтор с теми же странами - нечего добавлять
	addBody["payment_instrument_token"] = "tok_add_again"
	res, bodyStr = ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions/"+subID+"/add-countries", token, addBody)
	assert.Equal(t, http.StatusConflict, res.StatusCode, bodyStr)
}

// TestSubscription_RemoveCountries - удаление сужает доступ без возврата денег
func TestSubscription_RemoveCountries(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	_, token := helpers.CreateUserWithToken(t, tx, "Remover", "remover@sub.test", models.UserRoleCandidate)
	plan := helpers.CreatePlan(t, tx, "Remove 180", 180, 20)
	countryIDs := helpers.CreateCountries(t, tx, "M1", "M2", "M3")

	body := map[string]interface{}{
		"plan_id":                  plan.ID,
		"country_ids":              countryIDs,
		"payment_instrument_token": "tok_remove_base",
	}
	res, bodyStr := ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions", token, body)
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var env subscriptionEnvelope
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &env))
	subID := env.Subscription.ID

	removeBody := map[string]interface{}{
		"country_ids": []string{countryIDs[0], countryIDs[1]},
	}
	res, bodyStr = ts.SendRequest(t, tx, "DELETE", "/api/v1/subscriptions/"+subID+"/countries", token, removeBody)
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	require.NoError(t, json.Unmarshal([]byte(bodyStr), &env))
	assert.Equal(t, 1, env.Subscription.CountryCount)
	assert.Equal(t, 60.0, env.Subscription.TotalAmount, "сумма не уменьшается при удалении")

	// Страна не из подписки
	removeBody = map[string]interface{}{"country_ids": []string{countryIDs[0]}}
	res, bodyStr = ts.SendRequest(t, tx, "DELETE", "/api/v1/subscriptions/"+subID+"/countries", token, removeBody)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, bodyStr)

	// Последняя страна не удаляется
	removeBody = map[string]interface{}{"country_ids": []string{countryIDs[2]}}
	res, bodyStr = ts.SendRequest(t, tx, "DELETE", "/api/v1/subscriptions/"+subID+"/countries", token, removeBody)
	assert.Equal(t, http.StatusConflict, res.StatusCode, bodyStr)
	assert.Contains(t, bodyStr, "cancel it instead")
}

// TestSubscription_CancelFlow - отмена, идемпотентность и отмена рекуррента
func TestSubscription_CancelFlow(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	_, token := helpers.CreateUserWithToken(t, tx, "Canceller", "cancel@sub.test", models.UserRoleCandidate)
	plan := helpers.CreatePlan(t, tx, "Cancel 180", 180, 20)
	countryIDs := helpers.CreateCountries(t, tx, "X1")

	body := map[string]interface{}{
		"plan_id":                  plan.ID,
		"country_ids":              countryIDs,
		"payment_instrument_token": "tok_cancel",
	}
	res, bodyStr := ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions", token, body)
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var env subscriptionEnvelope
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &env))
	subID := env.Subscription.ID

	res, bodyStr = ts.SendRequest(t, tx, "DELETE", "/api/v1/subscriptions/"+subID, token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	sub := helpers.LoadSubscription(t, tx, subID)
	assert.Equal(t, models.SubscriptionStatusCancelled, sub.Status)
	assert.NotNil(t, sub.CancelledAt)

	// Уведомление об отмене: кандидат читается до запуска горутины,
	// поэтому письмо уходит даже после завершения запроса
	require.Eventually(t, func() bool {
		return ts.Emails.HasCancellationNotice("cancel@sub.test")
	}, 2*time.Second, 20*time.Millisecond, "уведомление об отмене не отправлено")

	// Повторная отмена - конфликт
	res, bodyStr = ts.SendRequest(t, tx, "DELETE", "/api/v1/subscriptions/"+subID, token, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode, bodyStr)

	// Операции над отмененной подпиской невозможны
	addBody := map[string]interface{}{
		"country_ids":              countryIDs,
		"payment_instrument_token": "tok_after_cancel",
	}
	res, bodyStr = ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions/"+subID+"/add-countries", token, addBody)
	assert.Equal(t, http.StatusConflict, res.StatusCode, bodyStr)
}

// TestSubscription_OwnershipEnforced - чужая подписка недоступна
func TestSubscription_OwnershipEnforced(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	_, ownerToken := helpers.CreateUserWithToken(t, tx, "Owner", "owner@sub.test", models.UserRoleCandidate)
	_, strangerToken := helpers.CreateUserWithToken(t, tx, "Stranger", "stranger@sub.test", models.UserRoleCandidate)
	plan := helpers.CreatePlan(t, tx, "Own 180", 180, 20)
	countryIDs := helpers.CreateCountries(t, tx, "O1")

	body := map[string]interface{}{
		"plan_id":                  plan.ID,
		"country_ids":              countryIDs,
		"payment_instrument_token": "tok_owner",
	}
	res, bodyStr := ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions", ownerToken, body)
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var env subscriptionEnvelope
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &env))
	subID := env.Subscription.ID

	res, _ = ts.SendRequest(t, tx, "GET", "/api/v1/subscriptions/"+subID, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = ts.SendRequest(t, tx, "DELETE", "/api/v1/subscriptions/"+subID, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

// TestSubscription_ValidationErrors - ошибки каталога и валидации запроса
func TestSubscription_ValidationErrors(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	_, token := helpers.CreateUserWithToken(t, tx, "Validator", "validator@sub.test", models.UserRoleCandidate)
	plan := helpers.CreatePlan(t, tx, "Valid 180", 180, 20)
	inactive := helpers.CreatePlan(t, tx, "Inactive 180", 180, 20)
	require.NoError(t, tx.Model(inactive).Update("is_active", false).Error)
	countryIDs := helpers.CreateCountries(t, tx, "V1")

	// Пустой список стран режется валидатором
	body := map[string]interface{}{
		"plan_id":                  plan.ID,
		"country_ids":              []string{},
		"payment_instrument_token": "tok_v",
	}
	res, _ := ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions", token, body)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	// Несуществующая страна
	body["country_ids"] = []string{"11111111-1111-4111-8111-111111111111"}
	res, bodyStr := ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions", token, body)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, bodyStr)

	// Неактивный план
	body["plan_id"] = inactive.ID
	body["country_ids"] = countryIDs
	res, bodyStr = ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions", token, body)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, bodyStr)
	assert.Contains(t, bodyStr, "not active")
}

// TestSubscription_AdminOverview - админ видит все и может отменить чужую
func TestSubscription_AdminOverview(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	_, candidateToken := helpers.CreateUserWithToken(t, tx, "Seen", "seen@sub.test", models.UserRoleCandidate)
	_, adminToken := helpers.CreateUserWithToken(t, tx, "Boss", "boss@sub.test", models.UserRoleAdmin)
	plan := helpers.CreatePlan(t, tx, "Admin 180", 180, 20)
	countryIDs := helpers.CreateCountries(t, tx, "B1")

	body := map[string]interface{}{
		"plan_id":                  plan.ID,
		"country_ids":              countryIDs,
		"payment_instrument_token": "tok_admin_view",
	}
	res, bodyStr := ts.SendRequest(t, tx, "POST", "/api/v1/subscriptions", candidateToken, body)
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var env subscriptionEnvelope
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &env))
	subID := env.Subscription.ID

	res, bodyStr = ts.SendRequest(t, tx, "GET", "/api/v1/admin/subscriptions?status=active", adminToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, subID)

	res, bodyStr = ts.SendRequest(t, tx, "DELETE", "/api/v1/admin/subscriptions/"+subID, adminToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	sub := helpers.LoadSubscription(t, tx, subID)
	assert.Equal(t, models.SubscriptionStatusCancelled, sub.Status)
}

// TestSubscription_ProcessExpired - ручной перевод истекших в expired
func TestSubscription_ProcessExpired(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	user, _ := helpers.CreateUserWithToken(t, tx, "Expired", "expired@sub.test", models.UserRoleCandidate)
	_, adminToken := helpers.CreateUserWithToken(t, tx, "Sweeper", "sweeper@sub.test", models.UserRoleAdmin)
	plan := helpers.CreatePlan(t, tx, "Expire 180", 180, 20)

	now := time.Now().UTC()
	stale := &models.Subscription{
		CandidateID:   user.ID,
		PlanID:        plan.ID,
		CountryCount:  1,
		TotalAmount:   20,
		StartDate:     now.AddDate(0, 0, -200),
		EndDate:       now.AddDate(0, 0, -20),
		Status:        models.SubscriptionStatusActive,
		PaymentStatus: models.PaymentStatusCompleted,
	}
	require.NoError(t, tx.Create(stale).Error)

	res, bodyStr := ts.SendRequest(t, tx, "POST", "/api/v1/admin/subscriptions/process-expired", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	var result struct {
		Processed int64 `json:"processed"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &result))
	assert.GreaterOrEqual(t, result.Processed, int64(1))

	sub := helpers.LoadSubscription(t, tx, stale.ID)
	assert.Equal(t, models.SubscriptionStatusExpired, sub.Status)
}
