// Package ledger holds the sale transaction and payment entities.
package ledger

import (
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a sale was settled.
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodCardOnline PaymentMethod = "card_online"
	PaymentMethodOther      PaymentMethod = "other"
)

// IsValid checks whether the payment method is a known value.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodCardOnline, PaymentMethodOther:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a recorded sale.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
)

// IsValid checks whether the status is a known value.
func (s TransactionStatus) IsValid() bool {
	return s == TransactionStatusPending || s == TransactionStatusConfirmed
}

// LineItem is one sold product within a transaction. Quantity must be
// positive; the unit price is captured at sale time.
type LineItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Transaction is an immutable sale record. The sort key embeds the
// creation timestamp, so listings come back in chronological order.
type Transaction struct {
	ID                string            `json:"id"`
	Items             []LineItem        `json:"items"`
	Total             decimal.Decimal   `json:"total"`
	PaymentMethod     PaymentMethod     `json:"payment_method"`
	Status            TransactionStatus `json:"status"`
	IdempotencyKey    string            `json:"idempotency_key,omitempty"`
	ExternalPaymentID string            `json:"external_payment_id,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	DeliveryMethod    string            `json:"delivery_method,omitempty"`
	DeliveryLocation  string            `json:"delivery_location,omitempty"`
	CreatedAt         string            `json:"created_at"`
}

// NewTransaction builds a validated transaction. When total is nil it is
// computed from the line items.
func NewTransaction(items []LineItem, method PaymentMethod, total *decimal.Decimal) (*Transaction, error) {
	if len(items) == 0 {
		return nil, shared.NewValidationError("items", "must not be empty")
	}
	for _, item := range items {
		if item.ProductID == "" {
			return nil, shared.NewValidationError("items.product_id", "is required")
		}
		if item.Quantity <= 0 {
			return nil, shared.NewValidationError("items.quantity", "must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, shared.NewValidationError("items.unit_price", "cannot be negative")
		}
	}
	if method == "" {
		method = PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("payment_method", "must be one of: cash, card, card_online, other")
	}

	t := &Transaction{
		ID:            shared.NewID(),
		Items:         items,
		PaymentMethod: method,
		Status:        TransactionStatusPending,
		CreatedAt:     shared.NowISO(),
	}
	if total != nil {
		if total.IsNegative() {
			return nil, shared.NewValidationError("total", "cannot be negative")
		}
		t.Total = *total
	} else {
		t.Total = t.computeTotal()
	}
	return t, nil
}

func (t *Transaction) computeTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range t.Items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
	}
	return sum
}

func (t *Transaction) GetID() string        { return t.ID }
func (t *Transaction) GetCreatedAt() string { return t.CreatedAt }
