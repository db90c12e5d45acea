package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"jobatlas_backend/internal/models"
	"jobatlas_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPlans_PublicListing - анонимный пользователь видит только активные планы
func TestPlans_PublicListing(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	active := helpers.CreatePlan(t, tx, "Visible Plan", 180, 20)
	inactive := helpers.CreatePlan(t, tx, "Hidden Plan", 90, 10)
	require.NoError(t, tx.Model(inactive).Update("is_active", false).Error)

	res, bodyStr := ts.SendRequest(t, tx, "GET", "/api/v1/plans", "", nil)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, `"Visible Plan"`)
	assert.NotContains(t, bodyStr, `"Hidden Plan"`)

	// Карточка плана доступна по id
	res, bodyStr = ts.SendRequest(t, tx, "GET", "/api/v1/plans/"+active.ID, "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, `"duration_days":180`)
}

// TestPlans_UnknownPlanReturns404 - запрос несуществующего плана
func TestPlans_UnknownPlanReturns404(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	res, _ := ts.SendRequest(t, tx, "GET", "/api/v1/plans/00000000-0000-4000-8000-000000000000", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

// TestPlans_CountryCatalog - публичный список стран
func TestPlans_CountryCatalog(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	helpers.CreateCountries(t, tx, "QA", "QB")

	res, bodyStr := ts.SendRequest(t, tx, "GET", "/api/v1/countries", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, `"QA"`)
	assert.Contains(t, bodyStr, `"QB"`)
}

// TestPlans_AdminManagement - создание и обновление плана админом
func TestPlans_AdminManagement(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	_, adminToken := helpers.CreateUserWithToken(t, tx, "Admin", "admin@plans.test", models.UserRoleAdmin)

	planBody := map[string]interface{}{
		"name":              "Premium Reach",
		"duration_days":     365,
		"price_per_country": 35.5,
		"currency":          "USD",
		"features":          map[string]any{"support": "priority"},
		"is_active":         true,
	}
	res, bodyStr := ts.SendRequest(t, tx, "POST", "/api/v1/admin/plans", adminToken, planBody)
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)
	assert.Contains(t, bodyStr, "Plan created successfully")

	var created struct {
		Plan struct {
			ID string `json:"id"`
		} `json:"plan"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &created))
	require.NotEmpty(t, created.Plan.ID)

	updateBody := map[string]interface{}{
		"price_per_country": 40.0,
		"is_active":         false,
	}
	res, bodyStr = ts.SendRequest(t, tx, "PUT", "/api/v1/admin/plans/"+created.Plan.ID, adminToken, updateBody)
	assert.Equal(t, http.StatusOK, res.StatusCode, bodyStr)
	assert.Contains(t, bodyStr, "Plan updated successfully")

	var plan models.SubscriptionPlan
	require.NoError(t, tx.Where("id = ?", created.Plan.ID).First(&plan).Error)
	assert.Equal(t, 40.0, plan.PricePerCountry)
	assert.False(t, plan.IsActive)
}

// TestPlans_AdminRoutesForbiddenForCandidate - каталог меняет только админ
func TestPlans_AdminRoutesForbiddenForCandidate(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	_, token := helpers.CreateUserWithToken(t, tx, "Candidate", "candidate@plans.test", models.UserRoleCandidate)

	planBody := map[string]interface{}{
		"name":              "Nope",
		"duration_days":     30,
		"price_per_country": 1.0,
	}
	res, _ := ts.SendRequest(t, tx, "POST", "/api/v1/admin/plans", token, planBody)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = ts.SendRequest(t, tx, "POST", "/api/v1/admin/plans", "", planBody)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
