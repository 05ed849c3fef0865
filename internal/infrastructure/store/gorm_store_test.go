package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Item{}))
	return NewGormStore(db)
}

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStore(gormDB), mock, mockDB
}

func intPtr(v int64) *int64 {
	return &v
}

func productItem(pk, id string, qty int64) *Item {
	return &Item{
		PK:         pk,
		SK:         "PRODUCT#" + id,
		EntityType: "PRODUCT",
		Quantity:   intPtr(qty),
		Attributes: fmt.Sprintf(`{"id":%q,"name":"Widget"}`, id),
	}
}

func TestGormStore_GetPut(t *testing.T) {
	ctx := context.Background()

	t.Run("put then get round-trips the item", func(t *testing.T) {
		s := newTestStore(t)
		item := productItem("TENANT#t1", "p1", 100)
		require.NoError(t, s.Put(ctx, item))

		got, err := s.Get(ctx, "TENANT#t1", "PRODUCT#p1")
		require.NoError(t, err)
		assert.Equal(t, "PRODUCT", got.EntityType)
		assert.Equal(t, int64(100), *got.Quantity)
		assert.JSONEq(t, `{"id":"p1","name":"Widget"}`, got.Attributes)
	})

	t.Run("put replaces an existing item", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Put(ctx, productItem("TENANT#t1", "p1", 100)))
		require.NoError(t, s.Put(ctx, productItem("TENANT#t1", "p1", 42)))

		got, err := s.Get(ctx, "TENANT#t1", "PRODUCT#p1")
		require.NoError(t, err)
		assert.Equal(t, int64(42), *got.Quantity)
	})

	t.Run("get of missing key returns ErrItemNotFound", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Get(ctx, "TENANT#t1", "PRODUCT#nope")
		assert.ErrorIs(t, err, ErrItemNotFound)
	})
}

func TestGormStore_PutIfAbsent(t *testing.T) {
	ctx := context.Background()

	t.Run("creates when absent, conflicts when present", func(t *testing.T) {
		s := newTestStore(t)
		item := &Item{PK: "TENANT#t1", SK: "TENANT#t1", EntityType: "TENANT", Attributes: `{"id":"t1"}`}
		require.NoError(t, s.PutIfAbsent(ctx, item))

		dup := &Item{PK: "TENANT#t1", SK: "TENANT#t1", EntityType: "TENANT", Attributes: `{"id":"other"}`}
		err := s.PutIfAbsent(ctx, dup)
		assert.ErrorIs(t, err, ErrItemExists)

		got, err := s.Get(ctx, "TENANT#t1", "TENANT#t1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"t1"}`, got.Attributes)
	})
}

func TestGormStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("merges attributes and keeps unmentioned keys", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Put(ctx, productItem("TENANT#t1", "p1", 100)))

		updated, err := s.Update(ctx, "TENANT#t1", "PRODUCT#p1", Patch{
			Attributes: map[string]any{"name": "Gadget", "notes": "restock soon"},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"p1","name":"Gadget","notes":"restock soon"}`, updated.Attributes)
		assert.Equal(t, int64(100), *updated.Quantity)
	})

	t.Run("nil attribute value removes the key", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Put(ctx, productItem("TENANT#t1", "p1", 100)))

		updated, err := s.Update(ctx, "TENANT#t1", "PRODUCT#p1", Patch{
			Attributes: map[string]any{"name": nil},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"p1"}`, updated.Attributes)
	})

	t.Run("updates promoted quantity and index columns", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Put(ctx, productItem("TENANT#t1", "p1", 100)))

		updated, err := s.Update(ctx, "TENANT#t1", "PRODUCT#p1", Patch{
			Quantity: intPtr(7),
			Index:    &IndexKey{PK: "TENANT#t1", SK: "CATEGORY#produce"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7), *updated.Quantity)
		assert.Equal(t, "CATEGORY#produce", updated.IndexSK)
	})

	t.Run("missing item returns ErrItemNotFound", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Update(ctx, "TENANT#t1", "PRODUCT#missing", Patch{
			Attributes: map[string]any{"name": "x"},
		})
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("locks the row for the read-modify-write", func(t *testing.T) {
		s, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		columns := []string{"pk", "sk", "entity_type", "gsi1pk", "gsi1sk", "quantity", "attributes", "created_at", "updated_at"}
		mock.ExpectBegin()
		// concurrent patches must serialize on the row, not race the read
		mock.ExpectQuery(`SELECT \* FROM "items" WHERE pk = \$1 AND sk = \$2.*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("TENANT#t1", "PRODUCT#p1", "PRODUCT", "", "", 100, `{"id":"p1"}`, time.Now(), time.Now()))
		mock.ExpectExec(`UPDATE "items" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := s.Update(ctx, "TENANT#t1", "PRODUCT#p1", Patch{
			Attributes: map[string]any{"name": "Gadget"},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, productItem("TENANT#t1", "p1", 1)))
	require.NoError(t, s.Delete(ctx, "TENANT#t1", "PRODUCT#p1"))

	_, err := s.Get(ctx, "TENANT#t1", "PRODUCT#p1")
	assert.ErrorIs(t, err, ErrItemNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "TENANT#t1", "PRODUCT#p1"), ErrItemNotFound)
}

func TestGormStore_Query(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, s *GormStore) {
		for i := 1; i <= 5; i++ {
			require.NoError(t, s.Put(ctx, productItem("TENANT#t1", fmt.Sprintf("p%d", i), int64(i))))
		}
		require.NoError(t, s.Put(ctx, &Item{
			PK: "TENANT#t1", SK: "CONTACT#c1", EntityType: "CONTACT", Attributes: `{"id":"c1"}`,
		}))
		// another tenant's partition must never leak into results
		require.NoError(t, s.Put(ctx, productItem("TENANT#t2", "p1", 99)))
	}

	t.Run("prefix narrows to one entity type", func(t *testing.T) {
		s := newTestStore(t)
		seed(t, s)

		items, next, err := s.Query(ctx, "TENANT#t1", QueryOptions{Prefix: "PRODUCT#", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, items, 5)
		assert.Empty(t, next)
		for _, it := range items {
			assert.Equal(t, "TENANT#t1", it.PK)
			assert.Equal(t, "PRODUCT", it.EntityType)
		}
	})

	t.Run("pages with opaque cursor", func(t *testing.T) {
		s := newTestStore(t)
		seed(t, s)

		first, cursor, err := s.Query(ctx, "TENANT#t1", QueryOptions{Prefix: "PRODUCT#", Limit: 2})
		require.NoError(t, err)
		require.Len(t, first, 2)
		require.NotEmpty(t, cursor)

		second, cursor2, err := s.Query(ctx, "TENANT#t1", QueryOptions{Prefix: "PRODUCT#", Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		require.Len(t, second, 2)
		require.NotEmpty(t, cursor2)
		assert.NotEqual(t, first[0].SK, second[0].SK)

		third, cursor3, err := s.Query(ctx, "TENANT#t1", QueryOptions{Prefix: "PRODUCT#", Limit: 2, Cursor: cursor2})
		require.NoError(t, err)
		assert.Len(t, third, 1)
		assert.Empty(t, cursor3)
	})

	t.Run("garbage cursor restarts from the top", func(t *testing.T) {
		s := newTestStore(t)
		seed(t, s)

		items, _, err := s.Query(ctx, "TENANT#t1", QueryOptions{Prefix: "PRODUCT#", Limit: 10, Cursor: "!!!not-base64!!!"})
		require.NoError(t, err)
		assert.Len(t, items, 5)
	})

	t.Run("descending order reverses the page", func(t *testing.T) {
		s := newTestStore(t)
		seed(t, s)

		items, _, err := s.Query(ctx, "TENANT#t1", QueryOptions{Prefix: "PRODUCT#", Limit: 10, Descending: true})
		require.NoError(t, err)
		require.Len(t, items, 5)
		assert.Equal(t, "PRODUCT#p5", items[0].SK)
		assert.Equal(t, "PRODUCT#p1", items[4].SK)
	})

	t.Run("sort-key bounds select a range", func(t *testing.T) {
		s := newTestStore(t)
		seed(t, s)

		items, _, err := s.Query(ctx, "TENANT#t1", QueryOptions{
			Start: "PRODUCT#p2",
			End:   "PRODUCT#p4",
			Limit: 10,
		})
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})
}

func TestGormStore_QueryIndex(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	pay := &Item{
		PK: "TENANT#t1", SK: "PAYMENT#pay1", EntityType: "PAYMENT",
		IndexPK: "EXTPAY#ext-123", IndexSK: "TENANT#t1",
		Attributes: `{"id":"pay1","status":"pending"}`,
	}
	require.NoError(t, s.Put(ctx, pay))

	t.Run("finds item by index key", func(t *testing.T) {
		items, err := s.QueryIndex(ctx, "EXTPAY#ext-123", "")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "PAYMENT#pay1", items[0].SK)
	})

	t.Run("prefix on index sort key filters", func(t *testing.T) {
		items, err := s.QueryIndex(ctx, "EXTPAY#ext-123", "TENANT#t2")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("unknown index key yields empty result", func(t *testing.T) {
		items, err := s.QueryIndex(ctx, "EXTPAY#unknown", "")
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestGormStore_AtomicWrite(t *testing.T) {
	ctx := context.Background()

	t.Run("applies put and guarded decrement together", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Put(ctx, productItem("TENANT#t1", "p1", 100)))

		txn := &Item{
			PK: "TENANT#t1", SK: "TXN#2026-01-01T00:00:00Z#tx1",
			EntityType: "TRANSACTION", Attributes: `{"id":"tx1"}`,
		}
		err := s.AtomicWrite(ctx, []WriteOp{
			{Put: txn},
			{ConditionalAdd: &ConditionalAdd{
				PK: "TENANT#t1", SK: "PRODUCT#p1", Delta: -3, Require: intPtr(3),
			}},
		})
		require.NoError(t, err)

		prod, err := s.Get(ctx, "TENANT#t1", "PRODUCT#p1")
		require.NoError(t, err)
		assert.Equal(t, int64(97), *prod.Quantity)

		_, err = s.Get(ctx, "TENANT#t1", "TXN#2026-01-01T00:00:00Z#tx1")
		assert.NoError(t, err)
	})

	t.Run("failed guard rolls back every op", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Put(ctx, productItem("TENANT#t1", "p1", 2)))

		txn := &Item{
			PK: "TENANT#t1", SK: "TXN#2026-01-01T00:00:00Z#tx2",
			EntityType: "TRANSACTION", Attributes: `{"id":"tx2"}`,
		}
		err := s.AtomicWrite(ctx, []WriteOp{
			{Put: txn},
			{ConditionalAdd: &ConditionalAdd{
				PK: "TENANT#t1", SK: "PRODUCT#p1", Delta: -10, Require: intPtr(10),
			}},
		})

		var precond *PreconditionError
		require.ErrorAs(t, err, &precond)
		assert.Equal(t, 1, precond.Index)

		// quantity untouched and the transaction item never landed
		prod, err := s.Get(ctx, "TENANT#t1", "PRODUCT#p1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), *prod.Quantity)

		_, err = s.Get(ctx, "TENANT#t1", "TXN#2026-01-01T00:00:00Z#tx2")
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("missing row fails the guard", func(t *testing.T) {
		s := newTestStore(t)
		err := s.AtomicWrite(ctx, []WriteOp{
			{ConditionalAdd: &ConditionalAdd{
				PK: "TENANT#t1", SK: "PRODUCT#ghost", Delta: -1, Require: intPtr(1),
			}},
		})
		var precond *PreconditionError
		assert.ErrorAs(t, err, &precond)
	})

	t.Run("unconditional credit applies without a guard", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Put(ctx, productItem("TENANT#t1", "p1", 5)))

		err := s.AtomicWrite(ctx, []WriteOp{
			{ConditionalAdd: &ConditionalAdd{PK: "TENANT#t1", SK: "PRODUCT#p1", Delta: 10}},
		})
		require.NoError(t, err)

		prod, err := s.Get(ctx, "TENANT#t1", "PRODUCT#p1")
		require.NoError(t, err)
		assert.Equal(t, int64(15), *prod.Quantity)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		s := newTestStore(t)
		assert.NoError(t, s.AtomicWrite(ctx, nil))
	})
}

func TestGormStore_TransportErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("driver failure surfaces as StoreError", func(t *testing.T) {
		s, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "items"`).
			WillReturnError(fmt.Errorf("connection reset"))

		_, err := s.Get(ctx, "TENANT#t1", "PRODUCT#p1")
		var storeErr *StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Contains(t, storeErr.Error(), "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCursorRoundTrip(t *testing.T) {
	token := encodeCursor("TENANT#t1", "PRODUCT#p3")
	require.NotEmpty(t, token)

	pos := decodeCursor(token)
	require.NotNil(t, pos)
	assert.Equal(t, "TENANT#t1", pos.PK)
	assert.Equal(t, "PRODUCT#p3", pos.SK)

	assert.Nil(t, decodeCursor(""))
	assert.Nil(t, decodeCursor("zzz not a cursor"))
}
