package handlers

import (
	"net/http"

	"jobatlas_backend/internal/dto"
	"jobatlas_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// PlanHandler - публичный каталог тарифов и стран плюс админское управление
type PlanHandler struct {
	*BaseHandler
	planService services.PlanService
}

func NewPlanHandler(base *BaseHandler, planService services.PlanService) *PlanHandler {
	return &PlanHandler{
		BaseHandler: base,
		planService: planService,
	}
}

// RegisterPublicRoutes - каталог доступен без авторизации
func (h *PlanHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/plans", h.GetPlans)
	r.GET("/plans/:planId", h.GetPlan)
	r.GET("/countries", h.GetCountries)
}

// RegisterAdminRoutes - управление каталогом, только admin
func (h *PlanHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/plans", h.CreatePlan)
	r.PUT("/plans/:planId", h.UpdatePlan)
}

func (h *PlanHandler) GetPlans(c *gin.Context) {
	db := h.GetDB(c)

	plans, err := h.planService.GetPlans(c.Request.Context(), db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plans": plans,
		"total": len(plans),
	})
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	db := h.GetDB(c)

	plan, err := h.planService.GetPlan(c.Request.Context(), db, c.Param("planId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) GetCountries(c *gin.Context) {
	db := h.GetDB(c)

	countries, err := h.planService.GetCountries(c.Request.Context(), db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"countries": countries,
		"total":     len(countries),
	})
}

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	db := h.GetDB(c)

	var req dto.CreatePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), db, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Plan created successfully",
		"plan":    plan,
	})
}

func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	db := h.GetDB(c)

	var req dto.UpdatePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), db, c.Param("planId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Plan updated successfully",
		"plan":    plan,
	})
}
