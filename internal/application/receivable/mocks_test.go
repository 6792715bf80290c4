package receivable

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*receivable.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByInvoiceNo(ctx context.Context, invoiceNo string) (*receivable.Invoice, error) {
	args := m.Called(ctx, invoiceNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter receivable.InvoiceFilter) ([]*receivable.Invoice, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*receivable.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) FindOpenForCustomer(ctx context.Context, customerID uuid.UUID, currency valueobject.CurrencyCode) ([]*receivable.Invoice, error) {
	args := m.Called(ctx, customerID, currency)
	return args.Get(0).([]*receivable.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListAll(ctx context.Context) ([]*receivable.Invoice, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*receivable.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsByInvoiceNo(ctx context.Context, invoiceNo string) (bool, error) {
	args := m.Called(ctx, invoiceNo)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *receivable.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *receivable.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*receivable.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, filter receivable.PaymentFilter) ([]*receivable.Payment, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*receivable.Payment), args.Get(1).(int64), args.Error(2)
}

func (m *MockPaymentRepository) FindLatestForCustomer(ctx context.Context, customerID uuid.UUID) (*receivable.Payment, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListAll(ctx context.Context) ([]*receivable.Payment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*receivable.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *receivable.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockAllocationRepository struct {
	mock.Mock
}

func (m *MockAllocationRepository) ListAll(ctx context.Context) ([]receivable.PaymentAllocation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]receivable.PaymentAllocation), args.Error(1)
}

func (m *MockAllocationRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]receivable.PaymentAllocation, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).([]receivable.PaymentAllocation), args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*receivable.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*receivable.Customer, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*receivable.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *receivable.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *MockCustomerRepository) SaveWithLock(ctx context.Context, customer *receivable.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) FindByCode(ctx context.Context, code valueobject.CurrencyCode) (*receivable.CurrencyLedger, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.CurrencyLedger), args.Error(1)
}

func (m *MockLedgerRepository) FindAll(ctx context.Context) ([]*receivable.CurrencyLedger, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*receivable.CurrencyLedger), args.Error(1)
}

func (m *MockLedgerRepository) Create(ctx context.Context, ledger *receivable.CurrencyLedger) error {
	return m.Called(ctx, ledger).Error(0)
}

func (m *MockLedgerRepository) SaveWithLock(ctx context.Context, ledger *receivable.CurrencyLedger) error {
	return m.Called(ctx, ledger).Error(0)
}

// =============================================================================
// Mock Unit of Work and collaborators
// =============================================================================

// mockUnitOfWork runs fn directly against the mock repositories and records
// whether the transaction committed
type mockUnitOfWork struct {
	invoices    *MockInvoiceRepository
	payments    *MockPaymentRepository
	allocations *MockAllocationRepository
	customers   *MockCustomerRepository
	ledgers     *MockLedgerRepository
	commits     int
	rollbacks   int
}

func newMockUnitOfWork() *mockUnitOfWork {
	return &mockUnitOfWork{
		invoices:    new(MockInvoiceRepository),
		payments:    new(MockPaymentRepository),
		allocations: new(MockAllocationRepository),
		customers:   new(MockCustomerRepository),
		ledgers:     new(MockLedgerRepository),
	}
}

func (u *mockUnitOfWork) Repositories() Repositories {
	return Repositories{
		Invoices:    u.invoices,
		Payments:    u.payments,
		Allocations: u.allocations,
		Customers:   u.customers,
		Ledgers:     u.ledgers,
	}
}

func (u *mockUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	if err := fn(ctx, u.Repositories()); err != nil {
		u.rollbacks++
		return err
	}
	u.commits++
	return nil
}

type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) FetchRate(ctx context.Context, currency valueobject.CurrencyCode, date time.Time) (decimal.Decimal, bool, error) {
	args := m.Called(ctx, currency, date)
	return args.Get(0).(decimal.Decimal), args.Bool(1), args.Error(2)
}

type MockDocumentRenderer struct {
	mock.Mock
}

func (m *MockDocumentRenderer) RenderInvoice(ctx context.Context, doc *receivable.InvoiceDocument) ([]byte, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

type MockMetadataRepository struct {
	mock.Mock
}

func (m *MockMetadataRepository) Get(ctx context.Context) (*receivable.InvoiceMetadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.InvoiceMetadata), args.Error(1)
}

func (m *MockMetadataRepository) Save(ctx context.Context, metadata *receivable.InvoiceMetadata) error {
	return m.Called(ctx, metadata).Error(0)
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueInvoiceDocument(ctx context.Context, invoiceID uuid.UUID) error {
	return m.Called(ctx, invoiceID).Error(0)
}
