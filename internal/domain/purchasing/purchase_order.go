// Package purchasing holds the purchase order entity and its status
// state machine.
package purchasing

import (
	"strings"

	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is the purchase order lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusReceived || s == StatusCancelled
}

// CanTransitionTo checks the allowed status transitions:
// draft -> sent or cancelled, sent -> received or cancelled.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusSent || target == StatusCancelled
	case StatusSent:
		return target == StatusReceived || target == StatusCancelled
	default:
		return false
	}
}

// OrderItem is one requested product line on a purchase order.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// PurchaseOrder tracks restocking from a supplier. Receiving the order
// is what credits product stock, so the status machine is strict about
// which transitions exist.
type PurchaseOrder struct {
	ID           string          `json:"id"`
	SupplierName string          `json:"supplier_name"`
	Items        []OrderItem     `json:"items"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Status       Status          `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

// NewPurchaseOrder builds a draft order. When totalCost is nil it is
// computed from the item lines.
func NewPurchaseOrder(supplierName string, items []OrderItem, totalCost *decimal.Decimal) (*PurchaseOrder, error) {
	if strings.TrimSpace(supplierName) == "" {
		return nil, shared.NewValidationError("supplier_name", "is required")
	}
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
		if item.UnitCost.IsNegative() {
			return nil, shared.NewValidationError("items.unit_cost", "cannot be negative")
		}
	}

	po := &PurchaseOrder{
		ID:           shared.NewID(),
		SupplierName: strings.TrimSpace(supplierName),
		Items:        items,
		Status:       StatusDraft,
		CreatedAt:    shared.NowISO(),
	}
	po.UpdatedAt = po.CreatedAt
	if totalCost != nil {
		if totalCost.IsNegative() {
			return nil, shared.NewValidationError("total_cost", "cannot be negative")
		}
		po.TotalCost = *totalCost
	} else {
		po.TotalCost = po.computeTotal()
	}
	return po, nil
}

// TransitionTo moves the order to the target status or reports the
// rejected transition, naming both states.
func (po *PurchaseOrder) TransitionTo(target Status) error {
	if !target.IsValid() {
		return shared.NewValidationError("status", "must be one of: draft, sent, received, cancelled")
	}
	if !po.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(string(po.Status), string(target))
	}
	po.Status = target
	po.UpdatedAt = shared.NowISO()
	return nil
}

func (po *PurchaseOrder) computeTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range po.Items {
		sum = sum.Add(item.UnitCost.Mul(decimal.NewFromInt(item.Quantity)))
	}
	return sum
}

func (po *PurchaseOrder) GetID() string        { return po.ID }
func (po *PurchaseOrder) GetCreatedAt() string { return po.CreatedAt }
