package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crmhub/backend/internal/application/insights"
)

// InsightHandler serves the daily business insight endpoints.
type InsightHandler struct {
	BaseHandler
	service *insights.Service
}

// NewInsightHandler creates the insight handler.
func NewInsightHandler(service *insights.Service) *InsightHandler {
	return &InsightHandler{service: service}
}

// RegisterRoutes mounts the insight routes.
func (h *InsightHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ins := rg.Group("/insights")
	{
		ins.GET("", h.Get)
		ins.GET("/snapshot", h.Snapshot)
		ins.POST("/generate", h.Generate)
	}
}

// insightDate defaults a missing date parameter to today (UTC).
func insightDate(c *gin.Context) string {
	if date := c.Query("date"); date != "" {
		return date
	}
	return time.Now().UTC().Format("2006-01-02")
}

func (h *InsightHandler) Get(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	insight, err := h.service.GetOrGenerate(c.Request.Context(), tenant, insightDate(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, insight)
}

func (h *InsightHandler) Snapshot(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	snapshot, err := h.service.Snapshot(c.Request.Context(), tenant, insightDate(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, snapshot)
}

func (h *InsightHandler) Generate(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	insight, err := h.service.Generate(c.Request.Context(), tenant, insightDate(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, insight)
}
