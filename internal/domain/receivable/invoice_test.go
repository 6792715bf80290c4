package receivable

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

// invoiceParams prices a single line at rate 1 and no markup, so the
// invoice total equals total.
func invoiceParams(no, total string) InvoiceParams {
	return InvoiceParams{
		InvoiceNo:    no,
		CustomerID:   uuid.MustParse("6f1c2a9e-1d7b-4a55-9d4e-0b8c2f7f3a10"),
		CustomerName: "Kobe Marine Supply",
		Currency:     valueobject.USD,
		Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ExchangeRate: decimal.NewFromInt(1),
		MarkupMode:   MarkupModePercent,
		MarkupValue:  decimal.Zero,
		ItemGroups: []ItemGroup{{
			Name:   "Parts",
			IsShow: true,
			Items:  []InvoiceItem{{ItemName: "Gasket", Cost: d(total), Quantity: decimal.NewFromInt(1)}},
		}},
	}
}

func newTestInvoice(t *testing.T, total string) *Invoice {
	t.Helper()
	inv, err := NewInvoice(invoiceParams("INV-"+total, total))
	require.NoError(t, err)
	return inv
}

func alloc(amount string) *PaymentAllocation {
	return &PaymentAllocation{
		ID:                uuid.New(),
		AllocatedAmount:   d(amount),
		ForeignBankCharge: decimal.Zero,
		LocalBankCharge:   decimal.Zero,
		ReceivedJPY:       decimal.Zero,
	}
}

func TestInvoiceStatus(t *testing.T) {
	assert.True(t, InvoiceStatusPending.CanReceivePayment())
	assert.True(t, InvoiceStatusPartiallyPaid.CanReceivePayment())
	assert.False(t, InvoiceStatusDraft.CanReceivePayment())
	assert.False(t, InvoiceStatusPaid.CanReceivePayment())

	assert.True(t, InvoiceStatusDraft.CanDelete())
	assert.True(t, InvoiceStatusPending.CanDelete())
	assert.False(t, InvoiceStatusPaid.CanDelete())
	assert.False(t, InvoiceStatusPartiallyPaid.CanDelete())

	assert.False(t, InvoiceStatus("void").IsValid())
}

func TestNewInvoice(t *testing.T) {
	t.Run("prices lines and opens balance", func(t *testing.T) {
		p := invoiceParams("INV-001", "0")
		p.ExchangeRate = d("0.0067")
		p.MarkupValue = d("20")
		p.ItemGroups[0].Items = []InvoiceItem{
			{ItemName: "Valve", Cost: d("10000"), Quantity: d("2")},
			{ItemName: "Seal", Cost: d("500"), Quantity: d("10"), MarkupMode: MarkupModeFixed, MarkupValue: d("100")},
		}
		inv, err := NewInvoice(p)
		require.NoError(t, err)

		valve := inv.ItemGroups[0].Items[0]
		assert.Equal(t, 1, valve.LineNo)
		assert.True(t, valve.UnitPriceJPY.Equal(d("12000")))
		assert.True(t, valve.UnitPrice.Equal(d("80.4")))
		assert.True(t, valve.TotalPrice.Equal(d("160.8")))

		seal := inv.ItemGroups[0].Items[1]
		assert.Equal(t, 2, seal.LineNo)
		assert.True(t, seal.UnitPriceJPY.Equal(d("600")))
		assert.True(t, seal.UnitPrice.Equal(d("4.02")))
		assert.True(t, seal.TotalPrice.Equal(d("40.2")))

		assert.True(t, inv.TotalAmount.Equal(d("201")))
		assert.True(t, inv.Balance.Equal(d("201")))
		assert.True(t, inv.TotalCost.Equal(d("25000")))
		assert.True(t, inv.TotalJPY.Equal(d("30000")))
		assert.True(t, inv.TotalProfitJPY.Equal(d("5000")))
		assert.Equal(t, InvoiceStatusPending, inv.Status)
		assert.Equal(t, DefaultItemsPerPage, inv.ItemsPerPage)
		assert.Equal(t, shared.CurrentSchemaVersion, inv.SchemaVersion)
		assert.Equal(t, time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC), inv.Date)
		assert.NotEmpty(t, inv.ItemGroups[0].ID)
	})

	t.Run("draft flag", func(t *testing.T) {
		p := invoiceParams("INV-002", "10")
		p.Draft = true
		inv, err := NewInvoice(p)
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
		assert.False(t, inv.IsOpen())
	})

	t.Run("validation", func(t *testing.T) {
		p := invoiceParams("", "10")
		_, err := NewInvoice(p)
		requireCode(t, err, "INVALID_INVOICE_NUMBER")

		p = invoiceParams("INV-003", "10")
		p.ExchangeRate = decimal.Zero
		_, err = NewInvoice(p)
		requireCode(t, err, "INVALID_EXCHANGE_RATE")

		p = invoiceParams("INV-003", "10")
		p.ItemGroups[0].Items[0].Quantity = decimal.Zero
		_, err = NewInvoice(p)
		requireCode(t, err, "INVALID_QUANTITY")
	})
}

func TestInvoiceAllocationLifecycle(t *testing.T) {
	inv := newTestInvoice(t, "100")

	require.NoError(t, inv.ApplyAllocation(alloc("40")))
	assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
	assert.True(t, inv.Balance.Equal(d("60")))

	require.NoError(t, inv.ApplyAllocation(alloc("60")))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.Balance.IsZero())
	assert.True(t, inv.AmountPaid.Equal(inv.TotalAmount))

	requireCode(t, inv.ApplyAllocation(alloc("1")), "INVALID_STATE")

	require.NoError(t, inv.ReverseAllocation(alloc("60")))
	assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
	require.NoError(t, inv.ReverseAllocation(alloc("40")))
	assert.Equal(t, InvoiceStatusPending, inv.Status)
	assert.True(t, inv.Balance.Equal(d("100")))
	assert.True(t, inv.AmountPaid.IsZero())
}

func TestInvoiceApplyAllocation(t *testing.T) {
	t.Run("rejects over allocation", func(t *testing.T) {
		inv := newTestInvoice(t, "100")
		err := inv.ApplyAllocation(alloc("100.01"))
		requireCode(t, err, "OVER_ALLOCATION")
		assert.True(t, inv.AmountPaid.IsZero())
	})

	t.Run("accumulates charges and yen", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		a := alloc("1000")
		a.ForeignBankCharge = d("20")
		a.ReceivedJPY = d("146000")
		require.NoError(t, inv.ApplyAllocation(a))
		assert.True(t, inv.ForeignBankCharge.Equal(d("20")))
		assert.True(t, inv.ReceivedJPY.Equal(d("146000")))

		require.NoError(t, inv.ReverseAllocation(a))
		assert.True(t, inv.ForeignBankCharge.IsZero())
		assert.True(t, inv.ReceivedJPY.IsZero())
	})

	t.Run("reversal cannot exceed amount paid", func(t *testing.T) {
		inv := newTestInvoice(t, "100")
		require.NoError(t, inv.ApplyAllocation(alloc("10")))
		requireCode(t, inv.ReverseAllocation(alloc("11")), "REVERSAL_EXCEEDS_PAID")
	})
}

func TestInvoiceFinalizeAndDelete(t *testing.T) {
	p := invoiceParams("INV-010", "50")
	p.Draft = true
	inv, err := NewInvoice(p)
	require.NoError(t, err)

	require.NoError(t, inv.EnsureDeletable())
	require.NoError(t, inv.Finalize())
	assert.Equal(t, InvoiceStatusPending, inv.Status)
	requireCode(t, inv.Finalize(), "INVALID_STATE")

	require.NoError(t, inv.ApplyAllocation(alloc("50")))
	err = inv.EnsureDeletable()
	requireCode(t, err, "INVOICE_HAS_PAYMENTS")
	assert.True(t, shared.IsKind(err, shared.KindPrecondition))
}

func TestInvoiceRevise(t *testing.T) {
	t.Run("unlocked invoice reprices", func(t *testing.T) {
		inv := newTestInvoice(t, "100")
		require.NoError(t, inv.Revise(invoiceParams("INV-100", "150")))
		assert.True(t, inv.TotalAmount.Equal(d("150")))
		assert.True(t, inv.Balance.Equal(d("150")))
	})

	t.Run("locked invoice keeps its financials", func(t *testing.T) {
		inv := newTestInvoice(t, "100")
		require.NoError(t, inv.ApplyAllocation(alloc("30")))

		p := invoiceParams("INV-100", "150")
		p.Remarks = "revised"
		require.NoError(t, inv.Revise(p))
		assert.True(t, inv.TotalAmount.Equal(d("100")))
		assert.True(t, inv.Balance.Equal(d("70")))
		assert.True(t, inv.TotalCost.Equal(d("150")))
		assert.True(t, inv.TotalJPY.Equal(d("100")), "TotalJPY %s", inv.TotalJPY)
		assert.True(t, inv.TotalProfitJPY.Equal(d("-50")), "TotalProfitJPY %s", inv.TotalProfitJPY)
		assert.Equal(t, "revised", inv.Remarks)

		p.Currency = valueobject.EUR
		requireCode(t, inv.Revise(p), "INVOICE_FINANCIALS_LOCKED")
	})
}

func TestNormalizeItemsPerPage(t *testing.T) {
	assert.Equal(t, DefaultItemsPerPage, NormalizeItemsPerPage(0))
	assert.Equal(t, 1, NormalizeItemsPerPage(-3))
	assert.Equal(t, 12, NormalizeItemsPerPage(12))
}

func TestJapanMidnight(t *testing.T) {
	in := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	got := JapanMidnight(in)
	assert.Equal(t, time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC), got)
	assert.Equal(t, got, JapanMidnight(got))
	assert.Equal(t, in, JapanDate(got))
}

func TestNewInvoiceDocument(t *testing.T) {
	p := invoiceParams("INV-DOC", "1")
	p.ItemsPerPage = 2
	p.BankAccountID = "b"
	p.ItemGroups = []ItemGroup{
		{Name: "Engine", IsShow: true, Items: []InvoiceItem{
			{ItemName: "Piston", Cost: d("1"), Quantity: d("1")},
			{ItemName: "Ring", Cost: d("1"), Quantity: d("1")},
			{ItemName: "Pin", Cost: d("1"), Quantity: d("1")},
		}},
		{Name: "Hidden", IsShow: false, Items: []InvoiceItem{
			{ItemName: "Bolt", Cost: d("1"), Quantity: d("1")},
			{ItemName: "Nut", Cost: d("1"), Quantity: d("1")},
		}},
	}
	inv, err := NewInvoice(p)
	require.NoError(t, err)

	meta := &InvoiceMetadata{CompanyName: "Trade Co", BankAccounts: []BankAccount{{ID: "a"}, {ID: "b"}}}
	doc := NewInvoiceDocument(inv, meta)
	require.Equal(t, 3, doc.TotalPages())
	assert.Len(t, doc.Pages[0].Lines, 2)
	assert.Len(t, doc.Pages[2].Lines, 1)
	assert.True(t, doc.Pages[0].Lines[0].GroupHeader)
	assert.False(t, doc.Pages[1].Lines[1].GroupHeader)
	assert.Equal(t, "b", doc.BankAccount.ID)

	inv.ItemGroups = nil
	assert.Equal(t, 1, NewInvoiceDocument(inv, nil).TotalPages())
	assert.Contains(t, inv.DocumentKey(), "INV-DOC")
}
