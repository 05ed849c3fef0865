package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appledger "github.com/crmhub/backend/internal/application/ledger"
	"github.com/crmhub/backend/internal/infrastructure/logger"
	"github.com/crmhub/backend/internal/interfaces/http/dto"
)

// signatureHeader carries the gateway's webhook HMAC.
const signatureHeader = "X-Gateway-Hmacsha256-Signature"

// WebhookVerifier checks the signature the gateway sends with each
// webhook delivery.
type WebhookVerifier interface {
	VerifyWebhookSignature(payload []byte, signature string) bool
}

// PaymentHandler serves payment creation, the gateway connection
// lifecycle and the status webhook.
type PaymentHandler struct {
	BaseHandler
	service  *appledger.PaymentService
	verifier WebhookVerifier
}

// NewPaymentHandler creates the payment handler.
func NewPaymentHandler(service *appledger.PaymentService, verifier WebhookVerifier) *PaymentHandler {
	return &PaymentHandler{service: service, verifier: verifier}
}

// RegisterRoutes mounts the authenticated payment routes.
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.Create)
		payments.GET("/gateway/status", h.GatewayStatus)
		payments.POST("/gateway/connect", h.ConnectGateway)
		payments.DELETE("/gateway", h.DisconnectGateway)
	}
}

// RegisterWebhookRoutes mounts the unauthenticated webhook route.
func (h *PaymentHandler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/webhook", h.Webhook)
}

type createPaymentRequest struct {
	Items          []lineItemRequest `json:"items" binding:"required,min=1,dive"`
	Total          *decimal.Decimal  `json:"total"`
	SourceID       string            `json:"source_id"`
	Currency       string            `json:"currency"`
	IdempotencyKey string            `json:"idempotency_key"`
	Notes          string            `json:"notes"`
}

type createPaymentResponse struct {
	Transaction any `json:"transaction"`
	Payment     any `json:"payment"`
}

func (h *PaymentHandler) Create(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	items := make([]appledger.LineItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, appledger.LineItemInput{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	txn, payment, err := h.service.CreatePayment(c.Request.Context(), tenant, appledger.CreatePaymentInput{
		Items:          items,
		Total:          req.Total,
		SourceID:       req.SourceID,
		Currency:       req.Currency,
		IdempotencyKey: req.IdempotencyKey,
		Notes:          req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, createPaymentResponse{Transaction: txn, Payment: payment})
}

// webhookEvent is the subset of the gateway event we act on.
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			Payment struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"payment"`
			Refund struct {
				PaymentID string `json:"payment_id"`
				Status    string `json:"status"`
			} `json:"refund"`
		} `json:"object"`
	} `json:"data"`
}

// Webhook applies a payment status event. The response is always 200
// once the signature checks out; unprocessable events are logged and
// acknowledged so the gateway stops retrying.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, err)
		return
	}
	if !h.verifier.VerifyWebhookSignature(body, c.GetHeader(signatureHeader)) {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse("UNAUTHORIZED", "invalid webhook signature"))
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.L(c.Request.Context()).Warn("unparseable webhook acknowledged", zap.Error(err))
		h.Success(c, gin.H{"received": true})
		return
	}

	externalID := event.Data.Object.Payment.ID
	status := event.Data.Object.Payment.Status
	if event.Data.Object.Refund.PaymentID != "" {
		// refund events resolve the original payment and mark it refunded
		externalID = event.Data.Object.Refund.PaymentID
		status = "refunded"
	}
	if externalID == "" {
		h.Success(c, gin.H{"received": true})
		return
	}

	if err := h.service.ApplyPaymentStatusEvent(c.Request.Context(), externalID, status); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"received": true})
}

type connectGatewayRequest struct {
	MerchantID   string `json:"merchant_id" binding:"required"`
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token"`
	LocationID   string `json:"location_id"`
}

func (h *PaymentHandler) ConnectGateway(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req connectGatewayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	conn, err := h.service.ConnectGateway(c.Request.Context(), tenant, appledger.ConnectGatewayInput{
		MerchantID:   req.MerchantID,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		LocationID:   req.LocationID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	// tokens never leave the server
	h.Created(c, gin.H{
		"merchant_id":  conn.MerchantID,
		"location_id":  conn.LocationID,
		"connected_at": conn.ConnectedAt,
	})
}

func (h *PaymentHandler) GatewayStatus(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	status, err := h.service.GatewayStatus(c.Request.Context(), tenant)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

func (h *PaymentHandler) DisconnectGateway(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	if err := h.service.DisconnectGateway(c.Request.Context(), tenant); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
