package services

import (
	"context"
	"encoding/json"
	"fmt"

	"jobatlas_backend/internal/dto"
	"jobatlas_backend/internal/models"
	"jobatlas_backend/internal/repositories"
	"jobatlas_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PlanService - каталог тарифов и стран. Движок подписок читает каталог
// как данность; инвариант "не более одного плана по умолчанию"
// обеспечивается здесь, на стороне каталога.
type PlanService interface {
	GetPlans(ctx context.Context, db *gorm.DB) ([]dto.PlanResponse, error)
	GetPlan(ctx context.Context, db *gorm.DB, planID string) (*dto.PlanResponse, error)
	GetCountries(ctx context.Context, db *gorm.DB) ([]dto.CountryResponse, error)
	CreatePlan(ctx context.Context, db *gorm.DB, req *dto.CreatePlanRequest) (*dto.PlanResponse, error)
	UpdatePlan(ctx context.Context, db *gorm.DB, planID string, req *dto.UpdatePlanRequest) (*dto.PlanResponse, error)
}

type planService struct {
	planRepo    repositories.PlanRepository
	countryRepo repositories.CountryRepository
}

func NewPlanService(planRepo repositories.PlanRepository, countryRepo repositories.CountryRepository) PlanService {
	return &planService{
		planRepo:    planRepo,
		countryRepo: countryRepo,
	}
}

func (s *planService) GetPlans(ctx context.Context, db *gorm.DB) ([]dto.PlanResponse, error) {
	plans, err := s.planRepo.FindActive(ctx, db)
	if err != nil {
		return nil, err
	}

	result := make([]dto.PlanResponse, 0, len(plans))
	for i := range plans {
		result = append(result, toPlanResponse(&plans[i]))
	}
	return result, nil
}

func (s *planService) GetPlan(ctx context.Context, db *gorm.DB, planID string) (*dto.PlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, db, planID)
	if err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		return nil, err
	}

	resp := toPlanResponse(plan)
	return &resp, nil
}

func (s *planService) GetCountries(ctx context.Context, db *gorm.DB) ([]dto.CountryResponse, error) {
	countries, err := s.countryRepo.FindAll(ctx, db)
	if err != nil {
		return nil, err
	}

	result := make([]dto.CountryResponse, 0, len(countries))
	for _, c := range countries {
		result = append(result, dto.CountryResponse{ID: c.ID, Code: c.Code, Name: c.Name})
	}
	return result, nil
}

func (s *planService) CreatePlan(ctx context.Context, db *gorm.DB, req *dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	featuresJSON, err := json.Marshal(req.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal features: %w", err)
	}

	plan := &models.SubscriptionPlan{
		Name:            req.Name,
		DurationDays:    req.DurationDays,
		PricePerCountry: req.PricePerCountry,
		Currency:        req.Currency,
		Features:        datatypes.JSON(featuresJSON),
		IsDefault:       req.IsDefault,
		IsActive:        req.IsActive,
	}
	if plan.Currency == "" {
		plan.Currency = "USD"
	}

	if err := s.planRepo.Create(ctx, db, plan); err != nil {
		return nil, err
	}

	resp := toPlanResponse(plan)
	return &resp, nil
}

func (s *planService) UpdatePlan(ctx context.Context, db *gorm.DB, planID string, req *dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, db, planID)
	if err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.DurationDays != nil {
		plan.DurationDays = *req.DurationDays
	}
	if req.PricePerCountry != nil {
		plan.PricePerCountry = *req.PricePerCountry
	}
	if req.Currency != nil {
		plan.Currency = *req.Currency
	}
	if req.Features != nil {
		featuresJSON, err := json.Marshal(req.Features)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal features: %w", err)
		}
		plan.Features = datatypes.JSON(featuresJSON)
	}
	if req.IsDefault != nil {
		plan.IsDefault = *req.IsDefault
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := s.planRepo.Update(ctx, db, plan); err != nil {
		return nil, err
	}

	resp := toPlanResponse(plan)
	return &resp, nil
}

func toPlanResponse(plan *models.SubscriptionPlan) dto.PlanResponse {
	resp := dto.PlanResponse{
		ID:              plan.ID,
		Name:            plan.Name,
		DurationDays:    plan.DurationDays,
		PricePerCountry: plan.PricePerCountry,
		Currency:        plan.Currency,
		IsDefault:       plan.IsDefault,
		IsActive:        plan.IsActive,
	}
	if len(plan.Features) > 0 {
		_ = json.Unmarshal(plan.Features, &resp.Features)
	}
	return resp
}
