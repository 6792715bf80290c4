package receivable

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

type reconFixture struct {
	invoices []*Invoice
	payment  *Payment
	ledger   *CurrencyLedger
}

// settledFixture applies one 150 USD payment across two invoices with a
// 10 USD foreign and 500 JPY local charge.
func settledFixture(t *testing.T) reconFixture {
	t.Helper()
	first := newTestInvoice(t, "100")
	second, err := NewInvoice(invoiceParams("INV-B", "50"))
	require.NoError(t, err)
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	ledger, err := NewCurrencyLedger(valueobject.USD, "US Dollar")
	require.NoError(t, err)
	ledger.AddInvoice(first.TotalAmount)
	ledger.AddInvoice(second.TotalAmount)

	lines, err := AllocateFIFO([]OpenInvoice{OpenInvoiceFrom(first), OpenInvoiceFrom(second)}, d("150"))
	require.NoError(t, err)
	in := AllocationInput{
		PaymentAmount:     d("150"),
		ForeignBankCharge: d("10"),
		LocalBankCharge:   d("500"),
		JPYAmount:         d("21000"),
		Lines:             lines,
	}
	result, err := ComputeAllocation(in)
	require.NoError(t, err)
	require.NoError(t, ValidateAllocation(in, result))

	payment, err := NewPayment(PaymentParams{
		PaymentNo:         "PAY-000100",
		CustomerID:        first.CustomerID,
		Currency:          valueobject.USD,
		Amount:            d("150"),
		ForeignBankCharge: d("10"),
		LocalBankCharge:   d("500"),
		PaymentDate:       time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}, result)
	require.NoError(t, err)

	byID := map[uuid.UUID]*Invoice{first.ID: first, second.ID: second}
	for i := range payment.Allocations {
		require.NoError(t, byID[payment.Allocations[i].InvoiceID].ApplyAllocation(&payment.Allocations[i]))
	}
	ledger.ApplyPayment(payment.Totals())
	return reconFixture{invoices: []*Invoice{first, second}, payment: payment, ledger: ledger}
}

func (f reconFixture) input(allocations []PaymentAllocation) ReconciliationInput {
	return ReconciliationInput{
		Invoices:    f.invoices,
		Payments:    []*Payment{f.payment},
		Allocations: allocations,
		Ledgers:     []*CurrencyLedger{f.ledger},
		CheckedAt:   time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestCheckReconciliationHealthy(t *testing.T) {
	f := settledFixture(t)
	report := CheckReconciliation(f.input(f.payment.Allocations))

	assert.True(t, report.Healthy, "drifts: %+v %+v %+v", report.AmountDrifts, report.LedgerDrifts, report.InvoiceMismatches)
	assert.True(t, report.TotalsAgree)
	assert.Zero(t, report.DriftCount())
	assert.True(t, report.AllocationTotals.ForeignBankCharge.Equal(d("10")))
	assert.True(t, report.InvoiceTotals.LocalBankCharge.Equal(d("500")))
	assert.True(t, report.PaymentTotals.LocalBankCharge.Equal(d("500")))
}

func TestCheckReconciliationDetectsDeletedAllocation(t *testing.T) {
	f := settledFixture(t)
	require.Len(t, f.payment.Allocations, 2)

	// Drop the charge-carrying row without touching its parents.
	var kept []PaymentAllocation
	var dropped PaymentAllocation
	for _, a := range f.payment.Allocations {
		if a.CarriesCharges() {
			dropped = a
			continue
		}
		kept = append(kept, a)
	}

	report := CheckReconciliation(f.input(kept))
	assert.False(t, report.Healthy)
	assert.False(t, report.TotalsAgree)

	require.Len(t, report.PaymentMismatches, 1)
	assert.Equal(t, f.payment.ID, report.PaymentMismatches[0].ID)
	assert.True(t, report.PaymentMismatches[0].ForeignDelta.Equal(d("10")))
	assert.True(t, report.PaymentMismatches[0].LocalDelta.Equal(d("500")))

	require.Len(t, report.InvoiceMismatches, 1)
	assert.Equal(t, dropped.InvoiceID, report.InvoiceMismatches[0].ID)

	fields := map[string]bool{}
	for _, drift := range report.AmountDrifts {
		fields[string(drift.Subject)+"."+drift.Field] = true
	}
	assert.True(t, fields["payment.allocated_amount"])
	assert.True(t, fields["invoice.amount_paid"])
}

func TestCheckReconciliationDetectsMutatedAllocation(t *testing.T) {
	f := settledFixture(t)
	mutated := make([]PaymentAllocation, len(f.payment.Allocations))
	copy(mutated, f.payment.Allocations)
	for i := range mutated {
		if !mutated[i].CarriesCharges() {
			mutated[i].AllocatedAmount = mutated[i].AllocatedAmount.Sub(d("1"))
		}
	}

	report := CheckReconciliation(f.input(mutated))
	assert.False(t, report.Healthy)
	assert.Empty(t, report.PaymentMismatches)
	assert.True(t, report.TotalsAgree, "charges are untouched")

	deltas := map[string]decimal.Decimal{}
	for _, drift := range report.AmountDrifts {
		deltas[string(drift.Subject)+"."+drift.Field] = drift.Delta
	}
	require.Contains(t, deltas, "payment.allocated_amount")
	require.Contains(t, deltas, "invoice.amount_paid")
	assert.True(t, deltas["payment.allocated_amount"].Equal(d("1")))
	assert.True(t, deltas["invoice.amount_paid"].Equal(d("1")))
}

func TestCheckReconciliationOrphans(t *testing.T) {
	f := settledFixture(t)
	orphan := PaymentAllocation{
		ID:                uuid.New(),
		PaymentID:         uuid.New(),
		InvoiceID:         f.invoices[0].ID,
		AllocatedAmount:   d("1"),
		ForeignBankCharge: decimal.Zero,
		LocalBankCharge:   decimal.Zero,
		ReceivedJPY:       decimal.Zero,
	}
	report := CheckReconciliation(f.input(append(append([]PaymentAllocation{}, f.payment.Allocations...), orphan)))

	require.Len(t, report.Orphans, 1)
	assert.True(t, report.Orphans[0].MissingPayment)
	assert.False(t, report.Orphans[0].MissingInvoice)
	assert.False(t, report.Healthy)
}

func TestCheckReconciliationLedgerDrift(t *testing.T) {
	f := settledFixture(t)
	f.ledger.AmountPaid = f.ledger.AmountPaid.Add(d("5"))
	report := CheckReconciliation(f.input(f.payment.Allocations))

	require.Len(t, report.LedgerDrifts, 1)
	assert.Equal(t, "amount_paid", report.LedgerDrifts[0].Field)
	assert.Equal(t, "USD", report.LedgerDrifts[0].ID)
	assert.True(t, report.LedgerDrifts[0].Delta.Equal(d("5")))
}

func TestCheckReconciliationLegacyRecords(t *testing.T) {
	f := settledFixture(t)
	f.invoices[1].SchemaVersion = 1
	f.invoices[1].ReceivedJPY = decimal.Zero
	report := CheckReconciliation(f.input(f.payment.Allocations))

	assert.Equal(t, 1, report.LegacyRecords)
	for _, drift := range report.AmountDrifts {
		assert.NotEqual(t, f.invoices[1].ID.String(), drift.ID)
	}
}
