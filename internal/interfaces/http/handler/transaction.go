package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	appledger "github.com/crmhub/backend/internal/application/ledger"
	"github.com/crmhub/backend/internal/domain/ledger"
)

// TransactionHandler serves the sale ledger endpoints.
type TransactionHandler struct {
	BaseHandler
	service *appledger.Service
}

// NewTransactionHandler creates the transaction handler.
func NewTransactionHandler(service *appledger.Service) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// RegisterRoutes mounts the transaction routes.
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	txns := rg.Group("/transactions")
	{
		txns.POST("", h.Record)
		txns.GET("", h.List)
		txns.GET("/summary", h.Summary)
		txns.GET("/:id", h.Get)
		txns.PATCH("/:id", h.Patch)
	}
}

type lineItemRequest struct {
	ProductID   string          `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity" binding:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type recordSaleRequest struct {
	Items            []lineItemRequest `json:"items" binding:"required,min=1,dive"`
	PaymentMethod    string            `json:"payment_method"`
	Total            *decimal.Decimal  `json:"total"`
	IdempotencyKey   string            `json:"idempotency_key"`
	Notes            string            `json:"notes"`
	DeliveryMethod   string            `json:"delivery_method"`
	DeliveryLocation string            `json:"delivery_location"`
}

func (r recordSaleRequest) toInput() appledger.RecordSaleInput {
	items := make([]appledger.LineItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, appledger.LineItemInput{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return appledger.RecordSaleInput{
		Items:            items,
		PaymentMethod:    r.PaymentMethod,
		Total:            r.Total,
		IdempotencyKey:   r.IdempotencyKey,
		Notes:            r.Notes,
		DeliveryMethod:   r.DeliveryMethod,
		DeliveryLocation: r.DeliveryLocation,
	}
}

func (h *TransactionHandler) Record(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req recordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	txn, err := h.service.RecordSale(c.Request.Context(), tenant, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, txn)
}

func (h *TransactionHandler) List(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	limit, cursor := pagination(c)

	txns, next, err := h.service.ListTransactions(c.Request.Context(), tenant, ledger.TransactionQuery{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Limit:     limit,
		Cursor:    cursor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Page(c, txns, len(txns), next)
}

func (h *TransactionHandler) Summary(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	summary, err := h.service.Summarize(c.Request.Context(), tenant, c.Query("date"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

func (h *TransactionHandler) Get(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	txn, err := h.service.GetTransaction(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txn)
}

type patchTransactionRequest struct {
	Status           *string `json:"status"`
	Notes            *string `json:"notes"`
	DeliveryMethod   *string `json:"delivery_method"`
	DeliveryLocation *string `json:"delivery_location"`
}

func (h *TransactionHandler) Patch(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req patchTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	txn, err := h.service.PatchTransaction(c.Request.Context(), tenant, c.Param("id"), appledger.PatchTransactionInput{
		Status:           req.Status,
		Notes:            req.Notes,
		DeliveryMethod:   req.DeliveryMethod,
		DeliveryLocation: req.DeliveryLocation,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txn)
}
