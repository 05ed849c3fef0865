// Package ledger implements the sale recording use cases: atomic
// stock-decrementing sales, gateway payments and the status webhook.
package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/crmhub/backend/internal/domain/ledger"
	"github.com/crmhub/backend/internal/domain/shared"
)

// LineItemInput is one sold product line on a sale request.
type LineItemInput struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// RecordSaleInput carries everything needed to record a sale.
type RecordSaleInput struct {
	Items            []LineItemInput
	PaymentMethod    string
	Total            *decimal.Decimal
	IdempotencyKey   string
	Notes            string
	DeliveryMethod   string
	DeliveryLocation string
}

// PatchTransactionInput patches the mutable transaction fields. Nil
// pointers leave the field untouched.
type PatchTransactionInput struct {
	Status           *string
	Notes            *string
	DeliveryMethod   *string
	DeliveryLocation *string
}

// DailySummary aggregates one day of sales. Amounts are float64 here
// only because this is a display boundary; the stored records stay
// decimal-exact.
type DailySummary struct {
	Date                   string             `json:"date"`
	TotalRevenue           float64            `json:"total_revenue"`
	TransactionCount       int                `json:"transaction_count"`
	ItemsSold              int64              `json:"items_sold"`
	RevenueByPaymentMethod map[string]float64 `json:"revenue_by_payment_method"`
}

// Service handles sale transactions on the tenant ledger.
type Service struct {
	transactions ledger.TransactionRepository
	writer       ledger.Writer
}

// NewService creates the ledger service.
func NewService(transactions ledger.TransactionRepository, writer ledger.Writer) *Service {
	return &Service{transactions: transactions, writer: writer}
}

// RecordSale records a sale: one atomic write holding the transaction
// record and a guarded stock decrement per line item. When an
// idempotency key is supplied and a recent transaction already carries
// it, that transaction is returned unchanged.
//
// The idempotency pre-check is a separate read, not part of the atomic
// write, so two concurrent requests with the same key can both pass it
// and record twice. Callers needing a hard guarantee must serialize.
func (s *Service) RecordSale(ctx context.Context, tenantID string, input RecordSaleInput) (*ledger.Transaction, error) {
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		existing, err := s.transactions.FindByIdempotencyKey(ctx, tenantID, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	txn, err := buildTransaction(input)
	if err != nil {
		return nil, err
	}

	if err := s.writer.Commit(ctx, tenantID, txn, nil); err != nil {
		return nil, mapCommitErr(err)
	}
	return txn, nil
}

// GetTransaction returns one transaction or shared.ErrNotFound.
func (s *Service) GetTransaction(ctx context.Context, tenantID, transactionID string) (*ledger.Transaction, error) {
	return s.transactions.FindByID(ctx, tenantID, transactionID)
}

// ListTransactions pages the tenant's sales newest first, optionally
// bounded to an inclusive date range.
func (s *Service) ListTransactions(ctx context.Context, tenantID string, query ledger.TransactionQuery) ([]*ledger.Transaction, string, error) {
	return s.transactions.Page(ctx, tenantID, query)
}

// PatchTransaction updates the mutable fields of a recorded sale. The
// line items and total are immutable once recorded.
func (s *Service) PatchTransaction(ctx context.Context, tenantID, transactionID string, patch PatchTransactionInput) (*ledger.Transaction, error) {
	txn, err := s.transactions.FindByID(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		status := ledger.TransactionStatus(*patch.Status)
		if !status.IsValid() {
			return nil, shared.NewValidationError("status", "must be one of: pending, confirmed")
		}
		txn.Status = status
	}
	if patch.Notes != nil {
		txn.Notes = *patch.Notes
	}
	if patch.DeliveryMethod != nil {
		txn.DeliveryMethod = *patch.DeliveryMethod
	}
	if patch.DeliveryLocation != nil {
		txn.DeliveryLocation = *patch.DeliveryLocation
	}

	if err := s.transactions.Save(ctx, tenantID, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// Summarize aggregates the sales of one day (YYYY-MM-DD).
func (s *Service) Summarize(ctx context.Context, tenantID, date string) (*DailySummary, error) {
	if date == "" {
		return nil, shared.NewValidationError("date", "is required")
	}

	summary := &DailySummary{
		Date:                   date,
		RevenueByPaymentMethod: map[string]float64{},
	}
	total := decimal.Zero
	byMethod := map[string]decimal.Decimal{}

	cursor := ""
	for {
		txns, next, err := s.transactions.Page(ctx, tenantID, ledger.TransactionQuery{
			StartDate: date,
			EndDate:   date,
			Limit:     shared.MaxPageSize,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, err
		}
		for _, txn := range txns {
			summary.TransactionCount++
			total = total.Add(txn.Total)
			method := string(txn.PaymentMethod)
			byMethod[method] = byMethod[method].Add(txn.Total)
			for _, item := range txn.Items {
				summary.ItemsSold += item.Quantity
			}
		}
		if next == "" {
			break
		}
		cursor = next
	}

	summary.TotalRevenue = total.InexactFloat64()
	for method, amount := range byMethod {
		summary.RevenueByPaymentMethod[method] = amount.InexactFloat64()
	}
	return summary, nil
}

func buildTransaction(input RecordSaleInput) (*ledger.Transaction, error) {
	items := make([]ledger.LineItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, ledger.LineItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	txn, err := ledger.NewTransaction(items, ledger.PaymentMethod(input.PaymentMethod), input.Total)
	if err != nil {
		return nil, err
	}
	txn.IdempotencyKey = strings.TrimSpace(input.IdempotencyKey)
	txn.Notes = input.Notes
	txn.DeliveryMethod = input.DeliveryMethod
	txn.DeliveryLocation = input.DeliveryLocation
	return txn, nil
}

// mapCommitErr folds a failed stock guard into the aggregate
// insufficient-stock error. The failing line is deliberately not
// revealed.
func mapCommitErr(err error) error {
	if errors.Is(err, shared.ErrPreconditionFailed) {
		return shared.ErrInsufficientStock
	}
	return err
}
