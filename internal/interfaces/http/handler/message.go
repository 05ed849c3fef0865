package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crmhub/backend/internal/application/crm"
	"github.com/crmhub/backend/internal/infrastructure/config"
	"github.com/crmhub/backend/internal/infrastructure/logger"
	"github.com/crmhub/backend/internal/interfaces/http/dto"
)

const hubSignatureHeader = "X-Hub-Signature-256"

// MessageHandler serves the conversation endpoints and the inbound
// channel webhook.
type MessageHandler struct {
	BaseHandler
	service *crm.Service
	webhook config.WebhookConfig
}

// NewMessageHandler creates the message handler.
func NewMessageHandler(service *crm.Service, webhook config.WebhookConfig) *MessageHandler {
	return &MessageHandler{service: service, webhook: webhook}
}

// RegisterRoutes mounts the authenticated message routes.
func (h *MessageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	msgs := rg.Group("/messages")
	{
		msgs.POST("", h.Create)
		msgs.GET("", h.List)
		msgs.GET("/:id", h.Get)
		msgs.PATCH("/:id/flags", h.PatchFlags)
		msgs.POST("/phone-lines", h.RegisterPhoneLine)
	}
}

// RegisterWebhookRoutes mounts the unauthenticated webhook routes.
func (h *MessageHandler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.GET("/messages/webhook", h.VerifyChallenge)
	rg.POST("/messages/webhook", h.Webhook)
}

type createMessageRequest struct {
	Channel          string         `json:"channel"`
	Category         string         `json:"category"`
	ChannelMessageID string         `json:"channel_message_id"`
	FromNumber       string         `json:"from_number"`
	ToNumber         string         `json:"to_number"`
	Text             string         `json:"text"`
	ContactID        string         `json:"contact_id"`
	Metadata         map[string]any `json:"metadata"`
}

func (h *MessageHandler) Create(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	msg, err := h.service.CreateMessage(c.Request.Context(), tenant, crm.CreateMessageInput{
		Channel:          req.Channel,
		Category:         req.Category,
		ChannelMessageID: req.ChannelMessageID,
		FromNumber:       req.FromNumber,
		ToNumber:         req.ToNumber,
		Text:             req.Text,
		ContactID:        req.ContactID,
		Metadata:         req.Metadata,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, msg)
}

func (h *MessageHandler) List(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	limit, cursor := pagination(c)

	page, err := h.service.ListMessages(c.Request.Context(), tenant, c.Query("contact_id"), limit, cursor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Page(c, page.Items, len(page.Items), page.NextCursor)
}

func (h *MessageHandler) Get(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	msg, err := h.service.GetMessage(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, msg)
}

func (h *MessageHandler) PatchFlags(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var flags map[string]any
	if err := c.ShouldBindJSON(&flags); err != nil {
		h.BadRequest(c, err)
		return
	}

	msg, err := h.service.PatchMessageFlags(c.Request.Context(), tenant, c.Param("id"), flags)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, msg)
}

type registerPhoneLineRequest struct {
	Number string `json:"number" binding:"required"`
}

func (h *MessageHandler) RegisterPhoneLine(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req registerPhoneLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	if err := h.service.RegisterPhoneLine(c.Request.Context(), tenant, req.Number); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{"number": req.Number})
}

// VerifyChallenge answers the channel's subscription handshake by
// echoing the challenge when the verify token matches.
func (h *MessageHandler) VerifyChallenge(c *gin.Context) {
	if !h.webhook.VerifyChallenge {
		c.Status(http.StatusNotFound)
		return
	}
	if c.Query("hub.mode") != "subscribe" || c.Query("hub.verify_token") != h.webhook.Secret {
		c.Status(http.StatusForbidden)
		return
	}
	c.String(http.StatusOK, c.Query("hub.challenge"))
}

// inboundWebhookPayload is the channel delivery envelope.
type inboundWebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					DisplayPhoneNumber string `json:"display_phone_number"`
				} `json:"metadata"`
				Messages []struct {
					ID   string `json:"id"`
					From string `json:"from"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
					Timestamp string `json:"timestamp"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Webhook ingests inbound channel messages. Deliveries are always
// acknowledged once the signature checks out; per-message failures are
// logged so the channel does not redeliver the whole batch.
func (h *MessageHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, err)
		return
	}
	if !h.verifySignature(body, c.GetHeader(hubSignatureHeader)) {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse("UNAUTHORIZED", "invalid webhook signature"))
		return
	}

	var payload inboundWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.L(c.Request.Context()).Warn("unparseable inbound webhook acknowledged", zap.Error(err))
		h.Success(c, gin.H{"received": true})
		return
	}

	stored := 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			toNumber := change.Value.Metadata.DisplayPhoneNumber
			for _, m := range change.Value.Messages {
				msg, err := h.service.IngestInboundMessage(c.Request.Context(), crm.InboundMessage{
					ChannelMessageID: m.ID,
					FromNumber:       m.From,
					ToNumber:         toNumber,
					Text:             m.Text.Body,
					Metadata:         map[string]any{"timestamp": m.Timestamp},
				})
				if err != nil {
					logger.L(c.Request.Context()).Warn("inbound message ingestion failed",
						zap.String("channel_message_id", m.ID), zap.Error(err))
					continue
				}
				if msg == nil && h.webhook.FallbackTenant != "" {
					// unclaimed number, route to the fallback tenant
					msg, err = h.service.CreateMessage(c.Request.Context(), h.webhook.FallbackTenant, crm.CreateMessageInput{
						ChannelMessageID: m.ID,
						FromNumber:       m.From,
						ToNumber:         toNumber,
						Text:             m.Text.Body,
						Metadata:         map[string]any{"timestamp": m.Timestamp},
					})
					if err != nil {
						logger.L(c.Request.Context()).Warn("fallback tenant ingestion failed",
							zap.String("channel_message_id", m.ID), zap.Error(err))
						continue
					}
				}
				if msg != nil {
					stored++
				}
			}
		}
	}
	h.Success(c, gin.H{"received": true, "stored": stored})
}

// verifySignature checks the sha256= hex HMAC the channel signs each
// delivery with.
func (h *MessageHandler) verifySignature(payload []byte, signature string) bool {
	if h.webhook.Secret == "" || signature == "" {
		return false
	}
	decoded, err := hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.webhook.Secret))
	mac.Write(payload)
	return hmac.Equal(decoded, mac.Sum(nil))
}
