package ledger

import (
	"strings"

	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStatus tracks a payment through the gateway lifecycle. The
// type is open: unknown gateway statuses are stored verbatim so no
// webhook information is lost.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// MapExternalStatus translates the gateway's status vocabulary into
// ours. Statuses with no mapping pass through unchanged.
func MapExternalStatus(external string) PaymentStatus {
	switch strings.ToLower(external) {
	case "completed":
		return PaymentStatusCompleted
	case "approved", "pending":
		return PaymentStatusPending
	case "canceled", "cancelled":
		return PaymentStatusCancelled
	case "failed":
		return PaymentStatusFailed
	default:
		return PaymentStatus(strings.ToLower(external))
	}
}

// SourceType is how the payment was captured.
type SourceType string

const (
	SourceTypeCash        SourceType = "cash"
	SourceTypeCardPresent SourceType = "card_present"
	SourceTypeCardOnline  SourceType = "card_online"
)

// Payment links a transaction to the gateway charge that settled it.
// ExternalPaymentID is the gateway's identifier and backs the secondary
// index used by status webhooks.
type Payment struct {
	ID                string          `json:"id"`
	TransactionID     string          `json:"transaction_id"`
	ExternalPaymentID string          `json:"external_payment_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            PaymentStatus   `json:"status"`
	SourceType        SourceType      `json:"source_type"`
	CardBrand         string          `json:"card_brand,omitempty"`
	CardLast4         string          `json:"card_last4,omitempty"`
	ReceiptURL        string          `json:"receipt_url,omitempty"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

// NewPayment builds a validated payment record.
func NewPayment(transactionID, externalPaymentID string, amount decimal.Decimal, currency string, status PaymentStatus, sourceType SourceType) (*Payment, error) {
	if transactionID == "" {
		return nil, shared.NewValidationError("transaction_id", "is required")
	}
	if externalPaymentID == "" {
		return nil, shared.NewValidationError("external_payment_id", "is required")
	}
	if amount.IsNegative() {
		return nil, shared.NewValidationError("amount", "cannot be negative")
	}
	if currency == "" {
		currency = "USD"
	}
	now := shared.NowISO()
	return &Payment{
		ID:                shared.NewID(),
		TransactionID:     transactionID,
		ExternalPaymentID: externalPaymentID,
		Amount:            amount,
		Currency:          currency,
		Status:            status,
		SourceType:        sourceType,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func (p *Payment) GetID() string        { return p.ID }
func (p *Payment) GetCreatedAt() string { return p.CreatedAt }
