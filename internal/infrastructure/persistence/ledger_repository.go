package persistence

import (
	"context"
	"strings"

	"github.com/crmhub/backend/internal/domain/ledger"
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/store"
)

// idempotencyScanLimit bounds how many recent transactions the
// idempotency pre-check walks. Replays older than the window create a
// duplicate; the window is a deliberate trade against scan cost.
const idempotencyScanLimit = 1000

// StoreTransactionRepository implements ledger.TransactionRepository.
type StoreTransactionRepository struct {
	store store.Store
}

// NewStoreTransactionRepository creates a transaction repository.
func NewStoreTransactionRepository(s store.Store) *StoreTransactionRepository {
	return &StoreTransactionRepository{store: s}
}

var _ ledger.TransactionRepository = (*StoreTransactionRepository)(nil)

func (r *StoreTransactionRepository) Page(ctx context.Context, tenantID string, query ledger.TransactionQuery) ([]*ledger.Transaction, string, error) {
	opts := store.QueryOptions{
		Prefix:     transactionPrefix,
		Limit:      shared.ClampPageSize(query.Limit),
		Cursor:     query.Cursor,
		Descending: true,
	}
	// date bounds translate directly onto the timestamp-ordered sort key
	if query.StartDate != "" {
		opts.Start = transactionPrefix + query.StartDate
	}
	if query.EndDate != "" {
		// trailing high byte keeps the whole end day inclusive
		opts.End = transactionPrefix + query.EndDate + "~"
	}

	items, next, err := r.store.Query(ctx, tenantPK(tenantID), opts)
	if err != nil {
		return nil, "", mapStoreErr(err)
	}
	txns := make([]*ledger.Transaction, 0, len(items))
	for i := range items {
		txn, err := decodeAttributes[ledger.Transaction](&items[i])
		if err != nil {
			return nil, "", err
		}
		txns = append(txns, txn)
	}
	return txns, next, nil
}

// FindByID walks the tenant's transactions newest first until it finds
// the id or exhausts the partition. The id is not part of the sort key,
// so unlike the idempotency pre-check this lookup is never bounded: an
// old transaction must stay reachable for as long as it is stored.
func (r *StoreTransactionRepository) FindByID(ctx context.Context, tenantID, transactionID string) (*ledger.Transaction, error) {
	cursor := ""
	for {
		items, next, err := r.store.Query(ctx, tenantPK(tenantID), store.QueryOptions{
			Prefix:     transactionPrefix,
			Limit:      shared.MaxPageSize,
			Cursor:     cursor,
			Descending: true,
		})
		if err != nil {
			return nil, mapStoreErr(err)
		}
		for i := range items {
			txn, err := decodeAttributes[ledger.Transaction](&items[i])
			if err != nil {
				return nil, err
			}
			if txn.ID == transactionID {
				return txn, nil
			}
		}
		if next == "" {
			return nil, shared.ErrNotFound
		}
		cursor = next
	}
}

func (r *StoreTransactionRepository) FindByIdempotencyKey(ctx context.Context, tenantID, key string) (*ledger.Transaction, error) {
	if key == "" {
		return nil, nil
	}
	cursor := ""
	for scanned := 0; scanned < idempotencyScanLimit; {
		items, next, err := r.store.Query(ctx, tenantPK(tenantID), store.QueryOptions{
			Prefix:     transactionPrefix,
			Limit:      shared.MaxPageSize,
			Cursor:     cursor,
			Descending: true,
		})
		if err != nil {
			return nil, mapStoreErr(err)
		}
		for i := range items {
			txn, err := decodeAttributes[ledger.Transaction](&items[i])
			if err != nil {
				return nil, err
			}
			if txn.IdempotencyKey == key {
				return txn, nil
			}
		}
		scanned += len(items)
		if next == "" {
			break
		}
		cursor = next
	}
	return nil, nil
}

func (r *StoreTransactionRepository) Save(ctx context.Context, tenantID string, txn *ledger.Transaction) error {
	item, err := encodeTransaction(tenantID, txn)
	if err != nil {
		return err
	}
	return mapStoreErr(r.store.Put(ctx, item))
}

// StorePaymentRepository implements ledger.PaymentRepository. Payments
// project onto the secondary index by external payment id so webhook
// lookups need no tenant context.
type StorePaymentRepository struct {
	store store.Store
}

// NewStorePaymentRepository creates a payment repository.
func NewStorePaymentRepository(s store.Store) *StorePaymentRepository {
	return &StorePaymentRepository{store: s}
}

var _ ledger.PaymentRepository = (*StorePaymentRepository)(nil)

func (r *StorePaymentRepository) Get(ctx context.Context, tenantID, paymentID string) (*ledger.Payment, error) {
	item, err := r.store.Get(ctx, tenantPK(tenantID), paymentSK(paymentID))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return decodeAttributes[ledger.Payment](item)
}

func (r *StorePaymentRepository) FindByExternalID(ctx context.Context, externalPaymentID string) (*ledger.Payment, string, error) {
	items, err := r.store.QueryIndex(ctx, externalPaymentIndexPK(externalPaymentID), "")
	if err != nil {
		return nil, "", mapStoreErr(err)
	}
	if len(items) == 0 {
		return nil, "", shared.ErrNotFound
	}
	payment, err := decodeAttributes[ledger.Payment](&items[0])
	if err != nil {
		return nil, "", err
	}
	tenantID := strings.TrimPrefix(items[0].PK, "TENANT#")
	return payment, tenantID, nil
}

func (r *StorePaymentRepository) UpdateStatus(ctx context.Context, tenantID, paymentID string, status ledger.PaymentStatus) error {
	_, err := r.store.Update(ctx, tenantPK(tenantID), paymentSK(paymentID), store.Patch{
		Attributes: map[string]any{
			"status":     string(status),
			"updated_at": shared.NowISO(),
		},
	})
	return mapStoreErr(err)
}

// StoreLedgerWriter implements ledger.Writer: one transactional batch
// holding the sale record, the optional payment record and a guarded
// decrement per sold line.
type StoreLedgerWriter struct {
	store store.Store
}

// NewStoreLedgerWriter creates the atomic sale writer.
func NewStoreLedgerWriter(s store.Store) *StoreLedgerWriter {
	return &StoreLedgerWriter{store: s}
}

var _ ledger.Writer = (*StoreLedgerWriter)(nil)

func (w *StoreLedgerWriter) Commit(ctx context.Context, tenantID string, txn *ledger.Transaction, payment *ledger.Payment) error {
	txnItem, err := encodeTransaction(tenantID, txn)
	if err != nil {
		return err
	}
	ops := []store.WriteOp{{Put: txnItem}}

	if payment != nil {
		payItem, err := encodePayment(tenantID, payment)
		if err != nil {
			return err
		}
		ops = append(ops, store.WriteOp{Put: payItem})
	}

	for _, line := range txn.Items {
		qty := line.Quantity
		ops = append(ops, store.WriteOp{ConditionalAdd: &store.ConditionalAdd{
			PK:      tenantPK(tenantID),
			SK:      productSK(line.ProductID),
			Delta:   -qty,
			Require: &qty,
		}})
	}

	return mapStoreErr(w.store.AtomicWrite(ctx, ops))
}

func encodeTransaction(tenantID string, txn *ledger.Transaction) (*store.Item, error) {
	attrs, err := encodeAttributes(txn)
	if err != nil {
		return nil, err
	}
	return &store.Item{
		PK:         tenantPK(tenantID),
		SK:         transactionSK(txn.CreatedAt, txn.ID),
		EntityType: typeTransaction,
		Attributes: attrs,
	}, nil
}

func encodePayment(tenantID string, payment *ledger.Payment) (*store.Item, error) {
	attrs, err := encodeAttributes(payment)
	if err != nil {
		return nil, err
	}
	return &store.Item{
		PK:         tenantPK(tenantID),
		SK:         paymentSK(payment.ID),
		EntityType: typePayment,
		IndexPK:    externalPaymentIndexPK(payment.ExternalPaymentID),
		IndexSK:    tenantPK(tenantID),
		Attributes: attrs,
	}, nil
}
