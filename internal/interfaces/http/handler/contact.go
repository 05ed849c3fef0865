package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/crmhub/backend/internal/application/crm"
)

// ContactHandler serves the contact funnel endpoints.
type ContactHandler struct {
	BaseHandler
	service *crm.Service
}

// NewContactHandler creates the contact handler.
func NewContactHandler(service *crm.Service) *ContactHandler {
	return &ContactHandler{service: service}
}

// RegisterRoutes mounts the contact routes.
func (h *ContactHandler) RegisterRoutes(rg *gin.RouterGroup) {
	contacts := rg.Group("/contacts")
	{
		contacts.POST("", h.Create)
		contacts.GET("", h.List)
		contacts.GET("/:id", h.Get)
		contacts.PATCH("/:id", h.Patch)
		contacts.DELETE("/:id", h.Delete)
	}
}

type createContactRequest struct {
	Name          string   `json:"name" binding:"required"`
	Phone         string   `json:"phone"`
	Email         string   `json:"email"`
	SourceChannel string   `json:"source_channel"`
	Tags          []string `json:"tags"`
}

func (h *ContactHandler) Create(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req createContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	contact, err := h.service.CreateContact(c.Request.Context(), tenant, crm.CreateContactInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		SourceChannel: req.SourceChannel,
		Tags:          req.Tags,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, contact)
}

func (h *ContactHandler) List(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	limit, cursor := pagination(c)

	page, err := h.service.ListContacts(c.Request.Context(), tenant, limit, cursor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Page(c, page.Items, len(page.Items), page.NextCursor)
}

func (h *ContactHandler) Get(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	contact, err := h.service.GetContact(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contact)
}

type patchContactRequest struct {
	Name           *string  `json:"name"`
	Phone          *string  `json:"phone"`
	Email          *string  `json:"email"`
	SourceChannel  *string  `json:"source_channel"`
	LeadStatus     *string  `json:"lead_status"`
	Tier           *string  `json:"tier"`
	LastActivityTS *string  `json:"last_activity_ts"`
	Tags           []string `json:"tags"`
}

func (h *ContactHandler) Patch(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req patchContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	contact, err := h.service.PatchContact(c.Request.Context(), tenant, c.Param("id"), crm.PatchContactInput{
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		SourceChannel:  req.SourceChannel,
		LeadStatus:     req.LeadStatus,
		Tier:           req.Tier,
		LastActivityTS: req.LastActivityTS,
		Tags:           req.Tags,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contact)
}

func (h *ContactHandler) Delete(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteContact(c.Request.Context(), tenant, c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
