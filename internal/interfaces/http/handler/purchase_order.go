package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/crmhub/backend/internal/application/purchasing"
)

// PurchaseOrderHandler serves the purchase order endpoints.
type PurchaseOrderHandler struct {
	BaseHandler
	service *purchasing.Service
}

// NewPurchaseOrderHandler creates the purchase order handler.
func NewPurchaseOrderHandler(service *purchasing.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{service: service}
}

// RegisterRoutes mounts the purchase order routes.
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/purchases")
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.PATCH("/:id", h.Update)
	}
}

type orderItemRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  int64           `json:"quantity" binding:"required,gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type createOrderRequest struct {
	SupplierName string             `json:"supplier_name" binding:"required"`
	Items        []orderItemRequest `json:"items" binding:"required,min=1,dive"`
	TotalCost    *decimal.Decimal   `json:"total_cost"`
	Notes        string             `json:"notes"`
}

func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	items := make([]purchasing.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, purchasing.OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
		})
	}

	po, err := h.service.CreateOrder(c.Request.Context(), tenant, purchasing.CreateOrderInput{
		SupplierName: req.SupplierName,
		Items:        items,
		TotalCost:    req.TotalCost,
		Notes:        req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, po)
}

func (h *PurchaseOrderHandler) List(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	limit, cursor := pagination(c)

	page, err := h.service.ListOrders(c.Request.Context(), tenant, c.Query("status"), limit, cursor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Page(c, page.Items, len(page.Items), page.NextCursor)
}

func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	po, err := h.service.GetOrder(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

type updateOrderRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	po, err := h.service.UpdateOrder(c.Request.Context(), tenant, c.Param("id"), purchasing.UpdateOrderInput{
		Status: req.Status,
		Notes:  req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}
