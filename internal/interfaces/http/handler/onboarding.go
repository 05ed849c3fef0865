package handler

import (
	"github.com/gin-gonic/gin"

	appidentity "github.com/crmhub/backend/internal/application/identity"
)

// OnboardingHandler serves tenant provisioning and setup.
type OnboardingHandler struct {
	BaseHandler
	service *appidentity.OnboardingService
}

// NewOnboardingHandler creates the onboarding handler.
func NewOnboardingHandler(service *appidentity.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{service: service}
}

// RegisterRoutes mounts the authenticated onboarding routes.
func (h *OnboardingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	onboarding := rg.Group("/onboarding")
	{
		onboarding.GET("/tenant", h.GetTenant)
		onboarding.PATCH("/settings", h.UpdateSettings)
		onboarding.POST("/complete", h.CompleteSetup)
	}
}

// RegisterPublicRoutes mounts the pre-auth provisioning route.
func (h *OnboardingHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/onboarding/provision", h.Provision)
}

type provisionTenantRequest struct {
	TenantID     string `json:"tenant_id"`
	BusinessName string `json:"business_name" binding:"required"`
	BusinessType string `json:"business_type"`
	OwnerEmail   string `json:"owner_email" binding:"required"`
}

func (h *OnboardingHandler) Provision(c *gin.Context) {
	var req provisionTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	tenant, err := h.service.ProvisionTenant(c.Request.Context(), appidentity.ProvisionTenantInput{
		TenantID:     req.TenantID,
		BusinessName: req.BusinessName,
		BusinessType: req.BusinessType,
		OwnerEmail:   req.OwnerEmail,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tenant)
}

func (h *OnboardingHandler) GetTenant(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	record, err := h.service.GetTenant(c.Request.Context(), tenant)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

func (h *OnboardingHandler) UpdateSettings(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		h.BadRequest(c, err)
		return
	}

	record, err := h.service.UpdateSettings(c.Request.Context(), tenant, updates)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

type completeSetupRequest struct {
	Currency      *string        `json:"currency"`
	Timezone      *string        `json:"timezone"`
	BusinessHours map[string]any `json:"business_hours"`
	Settings      map[string]any `json:"settings"`
}

func (h *OnboardingHandler) CompleteSetup(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req completeSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	record, err := h.service.CompleteSetup(c.Request.Context(), tenant, appidentity.CompleteSetupInput{
		Currency:      req.Currency,
		Timezone:      req.Timezone,
		BusinessHours: req.BusinessHours,
		Settings:      req.Settings,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}
