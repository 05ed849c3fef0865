package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/crmhub/backend/internal/domain/catalog"
	"github.com/crmhub/backend/internal/domain/crm"
	"github.com/crmhub/backend/internal/domain/identity"
	"github.com/crmhub/backend/internal/domain/ledger"
	"github.com/crmhub/backend/internal/domain/purchasing"
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&store.Item{}))
	return store.NewGormStore(db)
}

func mustProduct(t *testing.T, name string, qty int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, qty)
	require.NoError(t, err)
	return p
}

func TestStoreProductRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	repo := NewStoreProductRepository(s)

	t.Run("round-trips a product with its stock quantity", func(t *testing.T) {
		p := mustProduct(t, "Chicken Breast", 100)
		cost := decimal.RequireFromString("4.50")
		p.UnitCost = &cost
		p.Category = "protein"

		require.NoError(t, repo.Save(ctx, "t1", p))

		got, err := repo.Get(ctx, "t1", p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Name, got.Name)
		assert.Equal(t, int64(100), got.Quantity)
		require.NotNil(t, got.UnitCost)
		assert.True(t, got.UnitCost.Equal(cost))
	})

	t.Run("returns not found for a missing product", func(t *testing.T) {
		_, err := repo.Get(ctx, "t1", "missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lists by category through the index", func(t *testing.T) {
		p := mustProduct(t, "Rice", 50)
		p.Category = "grain"
		require.NoError(t, repo.Save(ctx, "t1", p))

		grains, err := repo.ListByCategory(ctx, "t1", "grain")
		require.NoError(t, err)
		require.Len(t, grains, 1)
		assert.Equal(t, "Rice", grains[0].Name)
	})

	t.Run("does not leak products across tenants", func(t *testing.T) {
		p := mustProduct(t, "Vodka", 12)
		require.NoError(t, repo.Save(ctx, "t2", p))

		_, err := repo.Get(ctx, "t1", p.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("add quantity adjusts stock in place", func(t *testing.T) {
		p := mustProduct(t, "Limes", 30)
		require.NoError(t, repo.Save(ctx, "t1", p))

		require.NoError(t, repo.AddQuantity(ctx, "t1", p.ID, 15))

		got, err := repo.Get(ctx, "t1", p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(45), got.Quantity)
	})

	t.Run("add quantity on a missing product is not found", func(t *testing.T) {
		err := repo.AddQuantity(ctx, "t1", "nope", 5)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("negative adjust within stock applies", func(t *testing.T) {
		p := mustProduct(t, "Tonic", 8)
		require.NoError(t, repo.Save(ctx, "t1", p))

		require.NoError(t, repo.AddQuantity(ctx, "t1", p.ID, -3))

		got, err := repo.Get(ctx, "t1", p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.Quantity)
	})

	t.Run("negative adjust past zero is insufficient stock", func(t *testing.T) {
		p := mustProduct(t, "Gin", 3)
		require.NoError(t, repo.Save(ctx, "t1", p))

		err := repo.AddQuantity(ctx, "t1", p.ID, -5)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		// the rejected correction leaves stock untouched
		got, err := repo.Get(ctx, "t1", p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Quantity)
	})

	t.Run("negative adjust on a missing product is not found", func(t *testing.T) {
		err := repo.AddQuantity(ctx, "t1", "nope", -5)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestStoreLedgerWriter_Commit(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (store.Store, *StoreProductRepository, *StoreLedgerWriter, *catalog.Product) {
		s := newTestStore(t)
		products := NewStoreProductRepository(s)
		p := mustProduct(t, "Widget A", 100)
		require.NoError(t, products.Save(ctx, "t1", p))
		return s, products, NewStoreLedgerWriter(s), p
	}

	t.Run("decrements stock and lands the transaction", func(t *testing.T) {
		s, products, writer, p := setup(t)
		txn, err := ledger.NewTransaction([]ledger.LineItem{
			{ProductID: p.ID, Quantity: 3, UnitPrice: decimal.RequireFromString("5.99")},
		}, ledger.PaymentMethodCash, nil)
		require.NoError(t, err)

		require.NoError(t, writer.Commit(ctx, "t1", txn, nil))

		got, err := products.Get(ctx, "t1", p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(97), got.Quantity)

		found, err := NewStoreTransactionRepository(s).FindByID(ctx, "t1", txn.ID)
		require.NoError(t, err)
		assert.Equal(t, txn.ID, found.ID)
	})

	t.Run("insufficient stock writes nothing", func(t *testing.T) {
		s, products, writer, p := setup(t)
		txn, err := ledger.NewTransaction([]ledger.LineItem{
			{ProductID: p.ID, Quantity: 500, UnitPrice: decimal.RequireFromString("5.99")},
		}, ledger.PaymentMethodCash, nil)
		require.NoError(t, err)

		err = writer.Commit(ctx, "t1", txn, nil)
		assert.ErrorIs(t, err, shared.ErrPreconditionFailed)

		got, err := products.Get(ctx, "t1", p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), got.Quantity)

		_, err = NewStoreTransactionRepository(s).FindByID(ctx, "t1", txn.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("stores the payment alongside the sale", func(t *testing.T) {
		s, _, writer, p := setup(t)
		txn, err := ledger.NewTransaction([]ledger.LineItem{
			{ProductID: p.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("5.99")},
		}, ledger.PaymentMethodCard, nil)
		require.NoError(t, err)
		payment, err := ledger.NewPayment(txn.ID, "ext-123", txn.Total, "USD", ledger.PaymentStatusPending, ledger.SourceTypeCardPresent)
		require.NoError(t, err)

		require.NoError(t, writer.Commit(ctx, "t1", txn, payment))

		payments := NewStorePaymentRepository(s)
		got, tenantID, err := payments.FindByExternalID(ctx, "ext-123")
		require.NoError(t, err)
		assert.Equal(t, "t1", tenantID)
		assert.Equal(t, payment.ID, got.ID)
		assert.True(t, got.Amount.Equal(txn.Total))
	})
}

func TestStoreTransactionRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	repo := NewStoreTransactionRepository(s)

	save := func(t *testing.T, createdAt, key string) *ledger.Transaction {
		t.Helper()
		txn, err := ledger.NewTransaction([]ledger.LineItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: decimal.RequireFromString("2.00")},
		}, ledger.PaymentMethodCash, nil)
		require.NoError(t, err)
		txn.CreatedAt = createdAt
		txn.IdempotencyKey = key
		require.NoError(t, repo.Save(ctx, "t1", txn))
		return txn
	}

	early := save(t, "2026-08-29T10:00:00Z", "")
	mid := save(t, "2026-08-30T10:00:00Z", "replay-1")
	late := save(t, "2026-08-31T10:00:00Z", "")

	t.Run("pages newest first", func(t *testing.T) {
		txns, next, err := repo.Page(ctx, "t1", ledger.TransactionQuery{Limit: 2})
		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, late.ID, txns[0].ID)
		assert.Equal(t, mid.ID, txns[1].ID)
		require.NotEmpty(t, next)

		rest, _, err := repo.Page(ctx, "t1", ledger.TransactionQuery{Limit: 2, Cursor: next})
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, early.ID, rest[0].ID)
	})

	t.Run("date bounds are inclusive", func(t *testing.T) {
		txns, _, err := repo.Page(ctx, "t1", ledger.TransactionQuery{
			StartDate: "2026-08-30",
			EndDate:   "2026-08-30",
		})
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, mid.ID, txns[0].ID)
	})

	t.Run("finds by idempotency key", func(t *testing.T) {
		found, err := repo.FindByIdempotencyKey(ctx, "t1", "replay-1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, mid.ID, found.ID)
	})

	t.Run("missing idempotency key yields nil without error", func(t *testing.T) {
		found, err := repo.FindByIdempotencyKey(ctx, "t1", "never-seen")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("empty idempotency key never matches", func(t *testing.T) {
		found, err := repo.FindByIdempotencyKey(ctx, "t1", "")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestStoreTransactionRepository_FindByID_DeepHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	repo := NewStoreTransactionRepository(s)

	save := func(t *testing.T, createdAt string) *ledger.Transaction {
		t.Helper()
		txn, err := ledger.NewTransaction([]ledger.LineItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: decimal.RequireFromString("1.00")},
		}, ledger.PaymentMethodCash, nil)
		require.NoError(t, err)
		txn.CreatedAt = createdAt
		require.NoError(t, repo.Save(ctx, "t1", txn))
		return txn
	}

	oldest := save(t, "2026-01-01T00:00:00Z")
	// bury it under more recent history than the idempotency window scans
	for i := 0; i < idempotencyScanLimit+5; i++ {
		save(t, fmt.Sprintf("2026-06-01T%02d:%02d:%02dZ", i/3600, (i/60)%60, i%60))
	}

	found, err := repo.FindByID(ctx, "t1", oldest.ID)
	require.NoError(t, err)
	assert.Equal(t, oldest.ID, found.ID)

	_, err = repo.FindByID(ctx, "t1", "never-written")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStorePaymentRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	writer := NewStoreLedgerWriter(s)
	repo := NewStorePaymentRepository(s)

	products := NewStoreProductRepository(s)
	p := mustProduct(t, "Beer Keg", 10)
	require.NoError(t, products.Save(ctx, "t1", p))

	txn, err := ledger.NewTransaction([]ledger.LineItem{
		{ProductID: p.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("85.00")},
	}, ledger.PaymentMethodCardOnline, nil)
	require.NoError(t, err)
	payment, err := ledger.NewPayment(txn.ID, "sq-pay-9", txn.Total, "USD", ledger.PaymentStatusPending, ledger.SourceTypeCardOnline)
	require.NoError(t, err)
	require.NoError(t, writer.Commit(ctx, "t1", txn, payment))

	require.NoError(t, repo.UpdateStatus(ctx, "t1", payment.ID, ledger.PaymentStatusCompleted))

	got, err := repo.Get(ctx, "t1", payment.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.PaymentStatusCompleted, got.Status)
	// untouched fields survive the patch
	assert.True(t, got.Amount.Equal(txn.Total))
	assert.Equal(t, "sq-pay-9", got.ExternalPaymentID)

	t.Run("unknown external id resolves to not found", func(t *testing.T) {
		_, _, err := repo.FindByExternalID(ctx, "no-such-payment")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestStoreTenantRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	repo := NewStoreTenantRepository(s)

	tenant, err := identity.NewTenant("Maria's Tacos", identity.BusinessTypeRestaurant, "maria@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tenant))

	t.Run("provisioning the same tenant twice conflicts", func(t *testing.T) {
		err := repo.Create(ctx, tenant)
		assert.ErrorIs(t, err, shared.ErrConflict)
	})

	t.Run("update settings patches only the provided fields", func(t *testing.T) {
		updated, err := repo.UpdateSettings(ctx, tenant.ID, map[string]any{
			"currency": "MXN",
			"timezone": "America/Mexico_City",
		})
		require.NoError(t, err)
		assert.Equal(t, "MXN", updated.Currency)
		assert.Equal(t, "America/Mexico_City", updated.Timezone)
		assert.Equal(t, "Maria's Tacos", updated.BusinessName)
		assert.NotEmpty(t, updated.UpdatedAt)
	})

	t.Run("update settings on a missing tenant is not found", func(t *testing.T) {
		_, err := repo.UpdateSettings(ctx, "ghost", map[string]any{"currency": "USD"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestStorePurchaseOrderRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	repo := NewStorePurchaseOrderRepository(s)

	cost := decimal.RequireFromString("47.40")
	po, err := purchasing.NewPurchaseOrder("Acme Supply", []purchasing.OrderItem{
		{ProductID: "p1", Quantity: 10, UnitCost: decimal.RequireFromString("4.74")},
	}, &cost)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, "t1", po))

	got, err := repo.Get(ctx, "t1", po.ID)
	require.NoError(t, err)
	assert.Equal(t, purchasing.StatusDraft, got.Status)
	assert.True(t, got.TotalCost.Equal(cost))

	page, err := repo.List(ctx, "t1", 0, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Empty(t, page.NextCursor)
}

func TestStoreMessageRepository_PhoneLines(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	repo := NewStoreMessageRepository(s)

	require.NoError(t, repo.RegisterPhoneLine(ctx, "t1", "+1 (555) 123-4567"))

	t.Run("resolves regardless of formatting", func(t *testing.T) {
		tenantID, err := repo.ResolveTenantByPhone(ctx, "15551234567")
		require.NoError(t, err)
		assert.Equal(t, "t1", tenantID)

		tenantID, err = repo.ResolveTenantByPhone(ctx, "+1-555-123-4567")
		require.NoError(t, err)
		assert.Equal(t, "t1", tenantID)
	})

	t.Run("unclaimed numbers are not found", func(t *testing.T) {
		_, err := repo.ResolveTenantByPhone(ctx, "15550000000")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("re-registering an owned number is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.RegisterPhoneLine(ctx, "t1", "15551234567"))
	})

	t.Run("a number claimed by another tenant conflicts", func(t *testing.T) {
		err := repo.RegisterPhoneLine(ctx, "t2", "15551234567")
		assert.ErrorIs(t, err, shared.ErrConflict)

		// routing is unchanged after the rejected claim
		tenantID, err := repo.ResolveTenantByPhone(ctx, "15551234567")
		require.NoError(t, err)
		assert.Equal(t, "t1", tenantID)
	})

	t.Run("messages round-trip with metadata", func(t *testing.T) {
		msg, err := crm.NewMessage("whatsapp", crm.MessageCategoryActive)
		require.NoError(t, err)
		msg.Metadata = map[string]any{"from": "15559998888"}
		require.NoError(t, repo.Save(ctx, "t1", msg))

		got, err := repo.Get(ctx, "t1", msg.ID)
		require.NoError(t, err)
		assert.Equal(t, "whatsapp", got.Channel)
		assert.Equal(t, "15559998888", got.Metadata["from"])
	})
}

func TestStoreGatewayConnectionRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	repo := NewStoreGatewayConnectionRepository(s)

	conn, err := identity.NewGatewayConnection("t1", "MERCH-1", "token-abc")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, conn))

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "MERCH-1", got.MerchantID)

	require.NoError(t, repo.Delete(ctx, "t1"))
	_, err = repo.Get(ctx, "t1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
