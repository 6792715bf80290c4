package receivable

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openInvoices(balances ...string) []OpenInvoice {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]OpenInvoice, len(balances))
	for i, b := range balances {
		out[i] = OpenInvoice{
			ID:        uuid.New(),
			InvoiceNo: "INV-" + string(rune('A'+i)),
			Date:      base.AddDate(0, 0, i),
			CreatedAt: base,
			Balance:   d(b),
		}
	}
	return out
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %T", err)
	assert.Equal(t, code, de.Code)
}

func TestAllocationStrategyType(t *testing.T) {
	assert.True(t, AllocationStrategyFIFO.IsValid())
	assert.True(t, AllocationStrategyManual.IsValid())
	assert.False(t, AllocationStrategyType("LIFO").IsValid())
	assert.Equal(t, "FIFO", AllocationStrategyFIFO.String())
}

func TestAllocateFIFO(t *testing.T) {
	t.Run("pays oldest first and drops unreached invoices", func(t *testing.T) {
		invs := openInvoices("100", "50", "30")
		lines, err := AllocateFIFO(invs, d("120"))
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, invs[0].ID, lines[0].InvoiceID)
		assert.True(t, lines[0].AllocatedAmount.Equal(d("100")))
		assert.Equal(t, invs[1].ID, lines[1].InvoiceID)
		assert.True(t, lines[1].AllocatedAmount.Equal(d("20")))
	})

	t.Run("orders by date then creation time", func(t *testing.T) {
		day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		newer := OpenInvoice{ID: uuid.New(), InvoiceNo: "N", Date: day, CreatedAt: day.Add(time.Hour), Balance: d("10")}
		older := OpenInvoice{ID: uuid.New(), InvoiceNo: "O", Date: day, CreatedAt: day, Balance: d("10")}
		earliest := OpenInvoice{ID: uuid.New(), InvoiceNo: "E", Date: day.AddDate(0, 0, -1), CreatedAt: day.Add(2 * time.Hour), Balance: d("10")}

		lines, err := AllocateFIFO([]OpenInvoice{newer, older, earliest}, d("25"))
		require.NoError(t, err)
		require.Len(t, lines, 3)
		assert.Equal(t, "E", lines[0].InvoiceNo)
		assert.Equal(t, "O", lines[1].InvoiceNo)
		assert.Equal(t, "N", lines[2].InvoiceNo)
		assert.True(t, lines[2].AllocatedAmount.Equal(d("5")))
	})

	t.Run("allocation sum equals amount when balance suffices", func(t *testing.T) {
		invs := openInvoices("33.33", "33.33", "33.34", "10")
		for _, amount := range []string{"0.01", "33.33", "66.67", "99.99", "100", "110"} {
			lines, err := AllocateFIFO(invs, d(amount))
			require.NoError(t, err)
			sum := decimal.Zero
			for _, l := range lines {
				sum = sum.Add(l.AllocatedAmount)
				assert.True(t, l.AllocatedAmount.LessThanOrEqual(l.Balance))
			}
			assert.True(t, sum.Equal(d(amount)), "amount %s allocated %s", amount, sum)
		}
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := AllocateFIFO(openInvoices("10"), d("-1"))
		requireCode(t, err, "INVALID_AMOUNT")
	})
}

func TestAllocateManual(t *testing.T) {
	invs := openInvoices("100", "50")

	t.Run("keeps every open invoice in FIFO order", func(t *testing.T) {
		lines, err := AllocateManual(invs, []ManualAllocation{{InvoiceID: invs[1].ID, Amount: d("40")}})
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.True(t, lines[0].AllocatedAmount.IsZero())
		assert.True(t, lines[1].AllocatedAmount.Equal(d("40")))
	})

	t.Run("rejects amount above balance", func(t *testing.T) {
		_, err := AllocateManual(invs, []ManualAllocation{{InvoiceID: invs[1].ID, Amount: d("50.01")}})
		requireCode(t, err, "OVER_ALLOCATION")
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := AllocateManual(invs, []ManualAllocation{{InvoiceID: invs[0].ID, Amount: d("-1")}})
		requireCode(t, err, "INVALID_AMOUNT")
	})

	t.Run("rejects invoices that are not open", func(t *testing.T) {
		_, err := AllocateManual(invs, []ManualAllocation{{InvoiceID: uuid.New(), Amount: d("1")}})
		requireCode(t, err, "INVOICE_NOT_OPEN")
	})
}

func TestBuildAllocationLines(t *testing.T) {
	invs := openInvoices("100")
	lines, err := BuildAllocationLines("", invs, d("10"), nil)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	_, err = BuildAllocationLines("LIFO", invs, d("10"), nil)
	requireCode(t, err, "INVALID_STRATEGY")
}

func TestJPYAmountFor(t *testing.T) {
	jpy, err := JPYAmountFor(valueobject.JPY, d("10000"), d("300"), nil)
	require.NoError(t, err)
	assert.True(t, jpy.Equal(d("9700")))

	_, err = JPYAmountFor(valueobject.USD, d("100"), decimal.Zero, nil)
	requireCode(t, err, "JPY_AMOUNT_REQUIRED")

	manual := d("14500")
	jpy, err = JPYAmountFor(valueobject.USD, d("100"), decimal.Zero, &manual)
	require.NoError(t, err)
	assert.True(t, jpy.Equal(manual))
}

func TestRealizedRate(t *testing.T) {
	assert.True(t, RealizedRate(d("1000"), d("20"), d("146000")).Equal(d("148.98")))
	assert.True(t, RealizedRate(d("10"), d("10"), d("1000")).IsZero())
	assert.True(t, RealizedRate(d("5"), d("10"), d("1000")).IsZero())
}

func TestDistributeJPY(t *testing.T) {
	t.Run("charge invoice absorbs both charges", func(t *testing.T) {
		chargeID := uuid.New()
		lines := []AllocationLine{
			{InvoiceID: chargeID, InvoiceNo: "A", Balance: d("100"), AllocatedAmount: d("100")},
			{InvoiceID: uuid.New(), InvoiceNo: "B", Balance: d("50"), AllocatedAmount: decimal.Zero},
		}
		drafts := DistributeJPY(lines, d("150"), &chargeID, d("10"), d("5"))
		require.Len(t, drafts, 2)
		assert.True(t, drafts[0].ReceivedJPY.Equal(d("13495")), "got %s", drafts[0].ReceivedJPY)
		assert.True(t, drafts[0].ForeignBankCharge.Equal(d("10")))
		assert.True(t, drafts[0].LocalBankCharge.Equal(d("5")))
		assert.True(t, drafts[1].ReceivedJPY.IsZero())
		assert.True(t, drafts[1].ForeignBankCharge.IsZero())
	})

	t.Run("floors converted yen", func(t *testing.T) {
		lines := []AllocationLine{{InvoiceID: uuid.New(), Balance: d("33.33"), AllocatedAmount: d("33.33")}}
		drafts := DistributeJPY(lines, d("150"), nil, decimal.Zero, decimal.Zero)
		assert.True(t, drafts[0].ReceivedJPY.Equal(d("4999")))
	})
}

func TestComputeAllocation(t *testing.T) {
	t.Run("single invoice settled with foreign charge", func(t *testing.T) {
		invs := openInvoices("1000")
		lines, err := AllocateFIFO(invs, d("1000"))
		require.NoError(t, err)
		in := AllocationInput{
			Currency:          valueobject.USD,
			PaymentAmount:     d("1000"),
			ForeignBankCharge: d("20"),
			LocalBankCharge:   decimal.Zero,
			JPYAmount:         d("146000"),
			Lines:             lines,
		}
		result, err := ComputeAllocation(in)
		require.NoError(t, err)
		require.NoError(t, ValidateAllocation(in, result))

		assert.True(t, result.ExchangeRate.Equal(d("148.98")))
		assert.True(t, result.TotalReceivedJPY.Equal(d("146000")))
		assert.True(t, result.FullyAllocated)
		assert.True(t, result.ChargeInvoiceDefaulted)
		require.NotNil(t, result.ChargeInvoiceID)
		assert.Equal(t, invs[0].ID, *result.ChargeInvoiceID)
		assert.True(t, result.Allocations[0].ForeignBankCharge.Equal(d("20")))
	})

	t.Run("rounding remainder goes to the charge invoice", func(t *testing.T) {
		invs := openInvoices("33.33", "33.33", "33.34")
		lines, err := AllocateFIFO(invs, d("100"))
		require.NoError(t, err)
		in := AllocationInput{
			Currency:      valueobject.USD,
			PaymentAmount: d("100"),
			JPYAmount:     d("15000"),
			Lines:         lines,
		}
		result, err := ComputeAllocation(in)
		require.NoError(t, err)
		require.NoError(t, ValidateAllocation(in, result))

		assert.True(t, result.RoundingAdjustment.Equal(d("1")))
		assert.False(t, result.ChargeInvoiceDefaulted, "no charges to attribute")
		require.NotNil(t, result.ChargeInvoiceID)
		assert.Equal(t, invs[0].ID, *result.ChargeInvoiceID)
		assert.True(t, result.Allocations[0].ReceivedJPY.Equal(d("5000")))
		assert.True(t, result.Allocations[1].ReceivedJPY.Equal(d("4999")))
		assert.True(t, result.Allocations[2].ReceivedJPY.Equal(d("5001")))
		assert.True(t, result.TotalReceivedJPY.Equal(d("15000")))
	})

	t.Run("explicit charge invoice receives remainder", func(t *testing.T) {
		invs := openInvoices("33.33", "33.33", "33.34")
		lines, err := AllocateFIFO(invs, d("100"))
		require.NoError(t, err)
		charge := invs[2].ID
		result, err := ComputeAllocation(AllocationInput{
			PaymentAmount:   d("100"),
			JPYAmount:       d("15000"),
			ChargeInvoiceID: &charge,
			Lines:           lines,
		})
		require.NoError(t, err)
		assert.False(t, result.ChargeInvoiceDefaulted)
		assert.True(t, result.Allocations[2].ReceivedJPY.Equal(d("5002")))
	})

	t.Run("partial allocation is not adjusted", func(t *testing.T) {
		invs := openInvoices("33.33", "66.67")
		lines, err := AllocateManual(invs, []ManualAllocation{{InvoiceID: invs[0].ID, Amount: d("33.33")}})
		require.NoError(t, err)
		in := AllocationInput{PaymentAmount: d("100"), JPYAmount: d("15000"), Lines: lines}
		result, err := ComputeAllocation(in)
		require.NoError(t, err)
		assert.False(t, result.FullyAllocated)
		assert.True(t, result.RoundingAdjustment.IsZero())
		assert.True(t, result.TotalReceivedJPY.Equal(d("4999")))
		requireCode(t, ValidateAllocation(in, result), "ALLOCATION_SUM_MISMATCH")
	})

	t.Run("unknown charge invoice is rejected", func(t *testing.T) {
		lines, err := AllocateFIFO(openInvoices("10"), d("10"))
		require.NoError(t, err)
		other := uuid.New()
		_, err = ComputeAllocation(AllocationInput{PaymentAmount: d("10"), JPYAmount: d("1500"), ChargeInvoiceID: &other, Lines: lines})
		requireCode(t, err, "UNKNOWN_CHARGE_INVOICE")
	})

	t.Run("negative charges are rejected", func(t *testing.T) {
		_, err := ComputeAllocation(AllocationInput{PaymentAmount: d("10"), ForeignBankCharge: d("-1")})
		requireCode(t, err, "INVALID_CHARGE")
	})
}

func TestValidateAllocation(t *testing.T) {
	t.Run("charge invoice must cover the foreign charge", func(t *testing.T) {
		invs := openInvoices("5", "95")
		lines, err := AllocateFIFO(invs, d("100"))
		require.NoError(t, err)
		charge := invs[0].ID
		in := AllocationInput{
			PaymentAmount:     d("100"),
			ForeignBankCharge: d("10"),
			JPYAmount:         d("13500"),
			ChargeInvoiceID:   &charge,
			Lines:             lines,
		}
		result, err := ComputeAllocation(in)
		require.NoError(t, err)
		requireCode(t, ValidateAllocation(in, result), "CHARGE_EXCEEDS_ALLOCATION")
	})

	t.Run("charges without an allocated charge invoice", func(t *testing.T) {
		invs := openInvoices("100", "100")
		charge := invs[1].ID
		in := AllocationInput{
			PaymentAmount:   d("100"),
			LocalBankCharge: d("5"),
			JPYAmount:       d("15000"),
			ChargeInvoiceID: &charge,
			Lines: []AllocationLine{
				{InvoiceID: invs[0].ID, Balance: d("100"), AllocatedAmount: d("100")},
				{InvoiceID: invs[1].ID, Balance: d("100"), AllocatedAmount: decimal.Zero},
			},
		}
		result, err := ComputeAllocation(in)
		require.NoError(t, err)
		requireCode(t, ValidateAllocation(in, result), "CHARGE_INVOICE_REQUIRED")
	})

	t.Run("over allocation", func(t *testing.T) {
		id := uuid.New()
		in := AllocationInput{
			PaymentAmount: d("60"),
			JPYAmount:     d("6000"),
			Lines:         []AllocationLine{{InvoiceID: id, InvoiceNo: "A", Balance: d("50"), AllocatedAmount: d("60")}},
		}
		result, err := ComputeAllocation(in)
		require.NoError(t, err)
		requireCode(t, ValidateAllocation(in, result), "OVER_ALLOCATION")
	})

	t.Run("jpy mismatch", func(t *testing.T) {
		in := AllocationInput{PaymentAmount: d("10"), JPYAmount: d("1500")}
		result := &AllocationResult{TotalAllocated: d("10"), TotalReceivedJPY: d("1499")}
		requireCode(t, ValidateAllocation(in, result), "JPY_SUM_MISMATCH")
	})

	t.Run("zero payment", func(t *testing.T) {
		requireCode(t, ValidateAllocation(AllocationInput{}, &AllocationResult{}), "INVALID_AMOUNT")
	})
}
