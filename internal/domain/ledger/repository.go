package ledger

import (
	"context"
)

// TransactionQuery narrows a transaction listing. Dates are YYYY-MM-DD
// and inclusive.
type TransactionQuery struct {
	StartDate string
	EndDate   string
	Limit     int
	Cursor    string
}

// TransactionRepository reads and patches the tenant's sale history.
type TransactionRepository interface {
	// Page lists transactions newest first.
	Page(ctx context.Context, tenantID string, query TransactionQuery) ([]*Transaction, string, error)

	// FindByID scans the transaction partition for the given id, or
	// returns shared.ErrNotFound.
	FindByID(ctx context.Context, tenantID, transactionID string) (*Transaction, error)

	// FindByIdempotencyKey scans recent transactions for a matching
	// idempotency key. Returns nil with no error when none matches
	// within the bounded scan window.
	FindByIdempotencyKey(ctx context.Context, tenantID, key string) (*Transaction, error)

	// Save replaces the transaction record. The sort key is derived
	// from the unchanged creation timestamp.
	Save(ctx context.Context, tenantID string, txn *Transaction) error
}

// PaymentRepository persists payments and resolves gateway webhooks.
type PaymentRepository interface {
	// Get returns the payment or shared.ErrNotFound.
	Get(ctx context.Context, tenantID, paymentID string) (*Payment, error)

	// FindByExternalID resolves a payment through the secondary index,
	// returning the payment and its owning tenant id, or
	// shared.ErrNotFound.
	FindByExternalID(ctx context.Context, externalPaymentID string) (*Payment, string, error)

	// UpdateStatus patches only the status and update timestamp.
	UpdateStatus(ctx context.Context, tenantID, paymentID string, status PaymentStatus) error
}

// Writer commits a sale atomically: the transaction record, the
// optional payment record and one guarded stock decrement per line
// item. A failed stock guard surfaces as shared.ErrPreconditionFailed
// and nothing is written.
type Writer interface {
	Commit(ctx context.Context, tenantID string, txn *Transaction, payment *Payment) error
}
