// Package gateway implements the payment gateway collaborator against
// a Square-compatible HTTP API.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appledger "github.com/crmhub/backend/internal/application/ledger"
	"github.com/crmhub/backend/internal/infrastructure/config"
)

const (
	createPaymentPath = "/v2/payments"
	revokeTokenPath   = "/oauth2/revoke"
	apiVersion        = "2024-01-18"
)

// SquareAdapter implements the ledger Gateway interface against the
// Square payments API.
type SquareAdapter struct {
	baseURL       string
	webhookSecret string
	webhookURL    string
	httpClient    *http.Client
}

// NewSquareAdapter creates the adapter from configuration.
func NewSquareAdapter(cfg *config.GatewayConfig) *SquareAdapter {
	return &SquareAdapter{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		webhookSecret: cfg.WebhookSecret,
		webhookURL:    cfg.WebhookURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

var _ appledger.Gateway = (*SquareAdapter)(nil)

type createPaymentRequest struct {
	SourceID       string      `json:"source_id"`
	IdempotencyKey string      `json:"idempotency_key"`
	AmountMoney    amountMoney `json:"amount_money"`
	LocationID     string      `json:"location_id,omitempty"`
}

type amountMoney struct {
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
}

type createPaymentResponse struct {
	Payment struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		ReceiptURL  string `json:"receipt_url"`
		CardDetails struct {
			Card struct {
				CardBrand string `json:"card_brand"`
				Last4     string `json:"last_4"`
			} `json:"card"`
		} `json:"card_details"`
	} `json:"payment"`
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Charge captures a card payment. The idempotency reference falls back
// to a fresh uuid so a retried call without a caller key never double
// charges on the gateway side.
func (a *SquareAdapter) Charge(ctx context.Context, req appledger.ChargeRequest) (*appledger.ChargeResult, error) {
	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	body, err := json.Marshal(createPaymentRequest{
		SourceID:       req.SourceID,
		IdempotencyKey: idempotencyKey,
		AmountMoney: amountMoney{
			Amount:   toMinorUnits(req.Amount),
			Currency: currency,
		},
		LocationID: req.LocationID,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal charge request: %w", err)
	}

	respBody, status, err := a.doRequest(ctx, http.MethodPost, createPaymentPath, req.AccessToken, body)
	if err != nil {
		return nil, err
	}

	var resp createPaymentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("gateway: parse charge response: %w", err)
	}
	if status >= 400 || len(resp.Errors) > 0 {
		detail := "charge rejected"
		if len(resp.Errors) > 0 {
			detail = fmt.Sprintf("%s: %s", resp.Errors[0].Code, resp.Errors[0].Detail)
		}
		return nil, fmt.Errorf("gateway: %s (http %d)", detail, status)
	}

	return &appledger.ChargeResult{
		ExternalPaymentID: resp.Payment.ID,
		Status:            resp.Payment.Status,
		CardBrand:         resp.Payment.CardDetails.Card.CardBrand,
		CardLast4:         resp.Payment.CardDetails.Card.Last4,
		ReceiptURL:        resp.Payment.ReceiptURL,
	}, nil
}

// RevokeToken invalidates a merchant access token.
func (a *SquareAdapter) RevokeToken(ctx context.Context, accessToken string) error {
	body, err := json.Marshal(map[string]string{"access_token": accessToken})
	if err != nil {
		return fmt.Errorf("gateway: marshal revoke request: %w", err)
	}
	_, status, err := a.doRequest(ctx, http.MethodPost, revokeTokenPath, accessToken, body)
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("gateway: token revocation failed (http %d)", status)
	}
	return nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 signature the gateway
// sends with every webhook: base64(hmac(secret, notification_url+body)).
func (a *SquareAdapter) VerifyWebhookSignature(payload []byte, signature string) bool {
	if a.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	mac.Write([]byte(a.webhookURL))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (a *SquareAdapter) doRequest(ctx context.Context, method, path, accessToken string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Square-Version", apiVersion)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("gateway: read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// toMinorUnits converts a decimal amount to integer cents.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
