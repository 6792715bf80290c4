package receivable

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

func TestNewCurrencyLedger(t *testing.T) {
	l, err := NewCurrencyLedger(valueobject.USD, "")
	require.NoError(t, err)
	assert.Equal(t, "USD", l.Name)
	assert.True(t, l.AmountDue.IsZero())

	_, err = NewCurrencyLedger("usd", "US Dollar")
	requireCode(t, err, "INVALID_CURRENCY")
}

func TestCurrencyLedgerInvoiceMutations(t *testing.T) {
	l, err := NewCurrencyLedger(valueobject.USD, "US Dollar")
	require.NoError(t, err)

	l.AddInvoice(d("100"))
	l.AddInvoice(d("50.5"))
	assert.True(t, l.AmountDue.Equal(d("150.5")))
	assert.True(t, l.TotalAmount.Equal(d("150.5")))

	l.ReviseInvoice(d("50.5"), d("40"))
	assert.True(t, l.AmountDue.Equal(d("140")))

	l.RemoveInvoice(d("500"))
	assert.True(t, l.AmountDue.IsZero(), "amount due is clamped at zero")
	assert.True(t, l.TotalAmount.IsZero())
}

func TestCurrencyLedgerPaymentRoundTrip(t *testing.T) {
	l, err := NewCurrencyLedger(valueobject.USD, "US Dollar")
	require.NoError(t, err)
	l.AddInvoice(d("1000"))

	before := *l
	totals := PaymentTotals{
		Allocated:         d("1000"),
		AmountInJPY:       d("146000"),
		ForeignBankCharge: d("20"),
		LocalBankCharge:   d("5"),
	}
	l.ApplyPayment(totals)
	assert.True(t, l.AmountDue.IsZero())
	assert.True(t, l.AmountPaid.Equal(d("1000")))
	assert.True(t, l.AmountInJPY.Equal(d("146000")))

	l.ReversePayment(totals)
	assert.True(t, l.AmountDue.Equal(before.AmountDue))
	assert.True(t, l.AmountPaid.Equal(before.AmountPaid))
	assert.True(t, l.AmountInJPY.Equal(before.AmountInJPY))
	assert.True(t, l.ForeignBankCharge.Equal(before.ForeignBankCharge))
	assert.True(t, l.LocalBankCharge.Equal(before.LocalBankCharge))
	assert.True(t, l.TotalAmount.Equal(before.TotalAmount))
}

func TestCurrencyLedgerReverseClamps(t *testing.T) {
	l, err := NewCurrencyLedger(valueobject.EUR, "Euro")
	require.NoError(t, err)
	l.ReversePayment(PaymentTotals{Allocated: d("10"), AmountInJPY: d("1600"), ForeignBankCharge: decimal.Zero, LocalBankCharge: decimal.Zero})
	assert.True(t, l.AmountPaid.IsZero())
	assert.True(t, l.AmountInJPY.IsZero())
	assert.True(t, l.AmountDue.Equal(d("10")))
}
