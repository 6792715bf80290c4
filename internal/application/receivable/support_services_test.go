package receivable

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

func TestReconciliationService_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy snapshot", func(t *testing.T) {
		uow := newMockUnitOfWork()
		svc := NewReconciliationService(uow, nil, nil)

		customer := testCustomer(t)
		inv := testInvoice(t, customer, "INV-1", "100")
		ledger := testLedger(t)
		ledger.AddInvoice(inv.TotalAmount)
		payment := appliedPayment(t, customer, inv, ledger)

		uow.invoices.On("ListAll", mock.Anything).Return([]*receivable.Invoice{inv}, nil)
		uow.payments.On("ListAll", mock.Anything).Return([]*receivable.Payment{payment}, nil)
		uow.allocations.On("ListAll", mock.Anything).Return(payment.Allocations, nil)
		uow.ledgers.On("FindAll", mock.Anything).Return([]*receivable.CurrencyLedger{ledger}, nil)

		report, err := svc.Run(ctx)
		require.NoError(t, err)
		assert.True(t, report.Healthy)
		assert.True(t, report.AllocationTotals.LocalBankCharge.Equal(d("300")))
		assert.False(t, report.CheckedAt.IsZero())
	})

	t.Run("load failure aborts", func(t *testing.T) {
		uow := newMockUnitOfWork()
		svc := NewReconciliationService(uow, nil, nil)

		uow.invoices.On("ListAll", mock.Anything).Return([]*receivable.Invoice{}, nil)
		uow.payments.On("ListAll", mock.Anything).Return([]*receivable.Payment(nil), errors.New("connection reset"))
		uow.allocations.On("ListAll", mock.Anything).Return([]receivable.PaymentAllocation{}, nil)
		uow.ledgers.On("FindAll", mock.Anything).Return([]*receivable.CurrencyLedger{}, nil)

		_, err := svc.Run(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load payments")
	})
}

func TestRateService_Lookup(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 4, 2, 3, 0, 0, 0, time.UTC)

	t.Run("base currency is one", func(t *testing.T) {
		provider := new(MockRateProvider)
		resp, err := NewRateService(provider, nil).Lookup(ctx, "JPY", date)
		require.NoError(t, err)
		assert.True(t, resp.Found)
		assert.True(t, resp.Rate.Equal(decimal.NewFromInt(1)))
		provider.AssertNotCalled(t, "FetchRate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider rate", func(t *testing.T) {
		provider := new(MockRateProvider)
		provider.On("FetchRate", mock.Anything, valueobject.USD, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)).
			Return(d("0.0066"), true, nil)

		resp, err := NewRateService(provider, nil).Lookup(ctx, "USD", date)
		require.NoError(t, err)
		assert.True(t, resp.Found)
		assert.Equal(t, "2024-04-02", resp.Date)
		assert.True(t, resp.Rate.Equal(d("0.0066")))
	})

	t.Run("provider failure falls back to manual", func(t *testing.T) {
		provider := new(MockRateProvider)
		provider.On("FetchRate", mock.Anything, valueobject.USD, mock.Anything).
			Return(decimal.Zero, false, errors.New("timeout"))

		resp, err := NewRateService(provider, nil).Lookup(ctx, "USD", date)
		require.NoError(t, err)
		assert.False(t, resp.Found)
		assert.True(t, resp.Rate.IsZero())
	})
}

func TestDocumentService(t *testing.T) {
	ctx := context.Background()

	t.Run("render uploads and records link", func(t *testing.T) {
		uow := newMockUnitOfWork()
		meta := new(MockMetadataRepository)
		renderer := new(MockDocumentRenderer)
		storage := new(MockObjectStorage)
		svc := NewDocumentService(uow, meta, renderer, storage, time.Minute, nil)

		inv := testInvoice(t, testCustomer(t), "INV-7", "10")
		key := inv.DocumentKey()
		expires := time.Now().Add(time.Minute)

		uow.invoices.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
		uow.invoices.On("SaveWithLock", mock.Anything, inv).Return(nil)
		meta.On("Get", mock.Anything).Return(&receivable.InvoiceMetadata{CompanyName: "Trade Co"}, nil)
		renderer.On("RenderInvoice", mock.Anything, mock.MatchedBy(func(doc *receivable.InvoiceDocument) bool {
			return doc.Invoice == inv && doc.TotalPages() == 1
		})).Return([]byte("%PDF-1.7"), nil)
		storage.On("Upload", mock.Anything, key, []byte("%PDF-1.7"), "application/pdf").Return(nil)
		storage.On("GenerateDownloadURL", mock.Anything, key, time.Minute).Return("https://files.example/inv-7.pdf", expires, nil)

		link, err := svc.RenderInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://files.example/inv-7.pdf", link.URL)
		assert.Equal(t, expires, link.ExpiresAt)
		assert.Equal(t, key, inv.InvoiceLink)
		assert.Equal(t, receivable.DocumentSourceSystem, inv.DocumentSource)
	})

	t.Run("render failure leaves invoice untouched", func(t *testing.T) {
		uow := newMockUnitOfWork()
		meta := new(MockMetadataRepository)
		renderer := new(MockDocumentRenderer)
		storage := new(MockObjectStorage)
		svc := NewDocumentService(uow, meta, renderer, storage, 0, nil)

		inv := testInvoice(t, testCustomer(t), "INV-8", "10")
		uow.invoices.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
		meta.On("Get", mock.Anything).Return(&receivable.InvoiceMetadata{}, nil)
		renderer.On("RenderInvoice", mock.Anything, mock.Anything).Return(nil, errors.New("chrome crashed"))

		_, err := svc.RenderInvoice(ctx, inv.ID)
		require.Error(t, err)
		assert.Empty(t, inv.InvoiceLink)
		storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("download link requires a rendered document", func(t *testing.T) {
		uow := newMockUnitOfWork()
		svc := NewDocumentService(uow, nil, nil, nil, 0, nil)

		inv := testInvoice(t, testCustomer(t), "INV-9", "10")
		uow.invoices.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)

		_, err := svc.DownloadLink(ctx, inv.ID)
		requireCode(t, err, "DOCUMENT_NOT_RENDERED")
		assert.True(t, shared.IsKind(err, shared.KindPrecondition))
	})
}

func TestCurrencyService_Seed(t *testing.T) {
	uow := newMockUnitOfWork()
	svc := NewCurrencyService(uow, nil)

	uow.ledgers.On("FindByCode", mock.Anything, valueobject.USD).Return(testLedger(t), nil)
	uow.ledgers.On("FindByCode", mock.Anything, valueobject.EUR).
		Return(nil, shared.NewNotFoundError("currency ledger", "EUR"))
	uow.ledgers.On("Create", mock.Anything, mock.AnythingOfType("*receivable.CurrencyLedger")).Return(nil)

	created, err := svc.Seed(context.Background(), []CurrencyRequest{{Code: "USD"}, {Code: "EUR", Name: "Euro"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR"}, created)
	uow.ledgers.AssertNumberOfCalls(t, "Create", 1)
}

func TestSnapshotSource_Subscribe(t *testing.T) {
	uow := newMockUnitOfWork()
	invoices := NewInvoiceService(uow)
	source := NewSnapshotSource(invoices, 10*time.Millisecond, nil)

	inv := testInvoice(t, testCustomer(t), "INV-1", "10")
	uow.invoices.On("FindAll", mock.Anything, mock.Anything).Return([]*receivable.Invoice{inv}, int64(1), nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch := source.Subscribe(ctx, InvoiceListFilter{})

	select {
	case snap := <-ch:
		require.Len(t, snap.Invoices, 1)
		assert.Equal(t, "INV-1", snap.Invoices[0].InvoiceNo)
		assert.Equal(t, int64(1), snap.Total)
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
	}

	cancel()
	for range ch {
	}
}
