package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingCategoryValid(t *testing.T) {
	for _, c := range PricingCategories {
		assert.True(t, c.Valid(), string(c))
	}
	assert.False(t, PricingCategory("year").Valid())
	assert.False(t, PricingCategory("").Valid())
}

func TestTransactionKindValid(t *testing.T) {
	assert.True(t, TransactionKindCreditAdd.Valid())
	assert.True(t, TransactionKindVoucherPurchase.Valid())
	assert.False(t, TransactionKind("refund").Valid())
}

func TestDiscountScheduleScan(t *testing.T) {
	var s DiscountSchedule
	require.NoError(t, s.Scan([]byte(`[{"threshold":0,"percent":20},{"threshold":100,"percent":25}]`)))
	require.Len(t, s, 2)
	assert.Equal(t, 25.0, s[1].Percent)

	v, err := s.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"threshold":0,"percent":20},{"threshold":100,"percent":25}]`, v.(string))

	var empty DiscountSchedule
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)

	assert.Error(t, empty.Scan(42))
}

func TestDeviceActive(t *testing.T) {
	active := true
	d := Device{IsActive: &active}
	assert.True(t, d.Active())
	assert.False(t, (&Device{}).Active())
}
