// Package handler implements the gin HTTP handlers.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/crmhub/backend/internal/interfaces/http/dto"
	"github.com/crmhub/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides shared response helpers.
type BaseHandler struct{}

// Success sends a 200 envelope.
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Page sends a 200 envelope with pagination meta.
func (h *BaseHandler) Page(c *gin.Context, data any, count int, nextCursor string) {
	c.JSON(http.StatusOK, dto.NewPageResponse(data, count, nextCursor))
}

// Created sends a 201 envelope.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends 204.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// HandleError maps a domain error onto its HTTP status.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	status, resp := dto.MapError(err)
	c.JSON(status, resp)
}

// BadRequest reports a malformed request body or query.
func (h *BaseHandler) BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse("VALIDATION_ERROR", middleware.BindingErrorMessage(err)))
}

// tenantID returns the authenticated tenant, aborting 401 when the
// middleware did not resolve one.
func tenantID(c *gin.Context) (string, bool) {
	id := middleware.GetTenantID(c)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			dto.NewErrorResponse("UNAUTHORIZED", "no tenant in request context"))
		return "", false
	}
	return id, true
}

// pagination reads the limit/cursor query parameters. Out-of-range
// limits are clamped downstream, never rejected.
func pagination(c *gin.Context) (int, string) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return limit, c.Query("cursor")
}
