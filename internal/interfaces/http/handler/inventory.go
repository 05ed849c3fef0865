package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/crmhub/backend/internal/application/inventory"
)

// InventoryHandler serves the product catalog endpoints.
type InventoryHandler struct {
	BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates the inventory handler.
func NewInventoryHandler(service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// RegisterRoutes mounts the inventory routes.
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inv := rg.Group("/inventory")
	{
		inv.POST("", h.Create)
		inv.GET("", h.List)
		inv.GET("/low-stock", h.LowStock)
		inv.GET("/:id", h.Get)
		inv.PATCH("/:id", h.Update)
		inv.DELETE("/:id", h.Delete)
		inv.POST("/:id/adjust", h.Adjust)
	}
}

type createProductRequest struct {
	Name             string           `json:"name" binding:"required"`
	Category         string           `json:"category"`
	Quantity         int64            `json:"quantity" binding:"min=0"`
	UnitCost         *decimal.Decimal `json:"unit_cost"`
	ReorderThreshold *int64           `json:"reorder_threshold"`
	Unit             string           `json:"unit"`
	SKU              string           `json:"sku"`
	SupplierID       string           `json:"supplier_id"`
	Notes            string           `json:"notes"`
}

func (h *InventoryHandler) Create(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), tenant, inventory.CreateProductInput{
		Name:             req.Name,
		Category:         req.Category,
		Quantity:         req.Quantity,
		UnitCost:         req.UnitCost,
		ReorderThreshold: req.ReorderThreshold,
		Unit:             req.Unit,
		SKU:              req.SKU,
		SupplierID:       req.SupplierID,
		Notes:            req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

func (h *InventoryHandler) List(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	if category := c.Query("category"); category != "" {
		products, err := h.service.ListByCategory(c.Request.Context(), tenant, category)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, products)
		return
	}

	limit, cursor := pagination(c)
	page, err := h.service.ListProducts(c.Request.Context(), tenant, limit, cursor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Page(c, page.Items, len(page.Items), page.NextCursor)
}

func (h *InventoryHandler) LowStock(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	products, err := h.service.LowStock(c.Request.Context(), tenant)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

func (h *InventoryHandler) Get(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	product, err := h.service.GetProduct(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

type updateProductRequest struct {
	Name             *string          `json:"name"`
	Category         *string          `json:"category"`
	Quantity         *int64           `json:"quantity"`
	UnitCost         *decimal.Decimal `json:"unit_cost"`
	ReorderThreshold *int64           `json:"reorder_threshold"`
	Unit             *string          `json:"unit"`
	SKU              *string          `json:"sku"`
	SupplierID       *string          `json:"supplier_id"`
	Notes            *string          `json:"notes"`
}

func (h *InventoryHandler) Update(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), tenant, c.Param("id"), inventory.UpdateProductInput{
		Name:             req.Name,
		Category:         req.Category,
		Quantity:         req.Quantity,
		UnitCost:         req.UnitCost,
		ReorderThreshold: req.ReorderThreshold,
		Unit:             req.Unit,
		SKU:              req.SKU,
		SupplierID:       req.SupplierID,
		Notes:            req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

func (h *InventoryHandler) Delete(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(c.Request.Context(), tenant, c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

type adjustQuantityRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}

func (h *InventoryHandler) Adjust(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req adjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	product, err := h.service.AdjustQuantity(c.Request.Context(), tenant, c.Param("id"), req.Delta)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
