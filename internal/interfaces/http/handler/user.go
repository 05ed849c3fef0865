package handler

import (
	"github.com/gin-gonic/gin"

	appidentity "github.com/crmhub/backend/internal/application/identity"
	"github.com/crmhub/backend/internal/domain/identity"
	"github.com/crmhub/backend/internal/interfaces/http/middleware"
)

// UserHandler serves the staff management endpoints.
type UserHandler struct {
	BaseHandler
	service *appidentity.UserService
}

// NewUserHandler creates the user handler.
func NewUserHandler(service *appidentity.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes mounts the user routes.
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.POST("", h.Invite)
		users.GET("", h.List)
		users.GET("/:id", h.Get)
		users.PATCH("/:id/role", h.UpdateRole)
		users.DELETE("/:id", h.Deactivate)
	}
}

type inviteUserRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (h *UserHandler) Invite(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req inviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	actor := identity.Role(middleware.GetRole(c))
	user, err := h.service.InviteUser(c.Request.Context(), tenant, actor, req.Email, req.Name, identity.Role(req.Role))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

func (h *UserHandler) List(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	limit, cursor := pagination(c)

	page, err := h.service.ListUsers(c.Request.Context(), tenant, limit, cursor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Page(c, page.Items, len(page.Items), page.NextCursor)
}

func (h *UserHandler) Get(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	actor := identity.Role(middleware.GetRole(c))
	user, err := h.service.UpdateUserRole(c.Request.Context(), tenant, actor, c.Param("id"), identity.Role(req.Role))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	actor := identity.Role(middleware.GetRole(c))
	user, err := h.service.DeactivateUser(c.Request.Context(), tenant, actor, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
