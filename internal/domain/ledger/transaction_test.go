package ledger

import (
	"encoding/json"
	"testing"

	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saleItems() []LineItem {
	return []LineItem{
		{ProductID: "p1", ProductName: "Chicken Breast", Quantity: 3, UnitPrice: decimal.RequireFromString("4.50")},
	}
}

func TestNewTransaction(t *testing.T) {
	t.Run("computes total from line items", func(t *testing.T) {
		txn, err := NewTransaction(saleItems(), PaymentMethodCash, nil)
		require.NoError(t, err)

		assert.NotEmpty(t, txn.ID)
		assert.Equal(t, TransactionStatusPending, txn.Status)
		assert.True(t, txn.Total.Equal(decimal.RequireFromString("13.50")),
			"expected 13.50, got %s", txn.Total)
	})

	t.Run("defaults payment method to cash", func(t *testing.T) {
		txn, err := NewTransaction(saleItems(), "", nil)
		require.NoError(t, err)
		assert.Equal(t, PaymentMethodCash, txn.PaymentMethod)
	})

	t.Run("honors explicit total", func(t *testing.T) {
		total := decimal.RequireFromString("12.00")
		txn, err := NewTransaction(saleItems(), PaymentMethodCard, &total)
		require.NoError(t, err)
		assert.True(t, txn.Total.Equal(total))
	})

	t.Run("rejects empty items", func(t *testing.T) {
		_, err := NewTransaction(nil, PaymentMethodCash, nil)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, shared.CodeValidation, derr.Code)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		items := []LineItem{{ProductID: "p1", Quantity: 0, UnitPrice: decimal.NewFromInt(1)}}
		_, err := NewTransaction(items, PaymentMethodCash, nil)
		assert.Error(t, err)
	})

	t.Run("rejects unknown payment method", func(t *testing.T) {
		_, err := NewTransaction(saleItems(), PaymentMethod("bitcoin"), nil)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, shared.CodeValidation, derr.Code)
	})
}

func TestTransaction_DecimalRoundTrip(t *testing.T) {
	// Money must survive JSON encoding with no binary float drift:
	// a 4.50 unit price times 3 is exactly 13.50 before and after.
	txn, err := NewTransaction(saleItems(), PaymentMethodCash, nil)
	require.NoError(t, err)

	raw, err := json.Marshal(txn)
	require.NoError(t, err)

	var decoded Transaction
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.True(t, decoded.Total.Equal(decimal.RequireFromString("13.50")))
	assert.True(t, decoded.Items[0].UnitPrice.Equal(decimal.RequireFromString("4.50")))
	// repeated round-trips stay stable
	raw2, err := json.Marshal(&decoded)
	require.NoError(t, err)
	var decoded2 Transaction
	require.NoError(t, json.Unmarshal(raw2, &decoded2))
	assert.True(t, decoded2.Total.Equal(txn.Total))
}

func TestPaymentMethod_IsValid(t *testing.T) {
	assert.True(t, PaymentMethodCash.IsValid())
	assert.True(t, PaymentMethodCard.IsValid())
	assert.True(t, PaymentMethodCardOnline.IsValid())
	assert.True(t, PaymentMethodOther.IsValid())
	assert.False(t, PaymentMethod("wire").IsValid())
}
