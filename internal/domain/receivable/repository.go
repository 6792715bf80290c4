package receivable

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	CustomerID *uuid.UUID                // Filter by customer
	Currency   *valueobject.CurrencyCode // Filter by currency
	Status     *InvoiceStatus            // Filter by status
	FromDate   *time.Time                // Invoice date range start
	ToDate     *time.Time                // Invoice date range end
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Currency   *valueobject.CurrencyCode
	FromDate   *time.Time // Credit date range start
	ToDate     *time.Time // Credit date range end
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID returns a NotFound DomainError when the invoice does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	FindByInvoiceNo(ctx context.Context, invoiceNo string) (*Invoice, error)

	// FindAll returns one page of invoices and the total match count
	FindAll(ctx context.Context, filter InvoiceFilter) ([]*Invoice, int64, error)

	// FindOpenForCustomer returns pending and partially paid invoices with a
	// positive balance, ordered by date then created_at ascending
	FindOpenForCustomer(ctx context.Context, customerID uuid.UUID, currency valueobject.CurrencyCode) ([]*Invoice, error)

	// ListAll returns every invoice, used by reconciliation
	ListAll(ctx context.Context) ([]*Invoice, error)

	ExistsByInvoiceNo(ctx context.Context, invoiceNo string) (bool, error)

	// Create inserts a new invoice
	Create(ctx context.Context, invoice *Invoice) error

	// SaveWithLock updates with optimistic locking and increments Version
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentRepository defines the interface for payment persistence.
// Payments are stored together with their allocation rows.
type PaymentRepository interface {
	// FindByID loads the payment with its allocations
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	FindAll(ctx context.Context, filter PaymentFilter) ([]*Payment, int64, error)

	// FindLatestForCustomer returns the most recently created payment, or a
	// NotFound error when the customer has none
	FindLatestForCustomer(ctx context.Context, customerID uuid.UUID) (*Payment, error)

	// ListAll returns every payment without allocations
	ListAll(ctx context.Context) ([]*Payment, error)

	// Create inserts the payment and its allocation rows
	Create(ctx context.Context, payment *Payment) error

	// Delete removes the payment and its allocation rows
	Delete(ctx context.Context, id uuid.UUID) error
}

// AllocationRepository provides read access to allocation rows
type AllocationRepository interface {
	ListAll(ctx context.Context) ([]PaymentAllocation, error)
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]PaymentAllocation, error)
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Customer, int64, error)
	Create(ctx context.Context, customer *Customer) error
	SaveWithLock(ctx context.Context, customer *Customer) error
}

// CurrencyLedgerRepository defines the interface for currency ledger persistence
type CurrencyLedgerRepository interface {
	// FindByCode returns a NotFound DomainError when no ledger is seeded for code
	FindByCode(ctx context.Context, code valueobject.CurrencyCode) (*CurrencyLedger, error)
	FindAll(ctx context.Context) ([]*CurrencyLedger, error)
	Create(ctx context.Context, ledger *CurrencyLedger) error
	SaveWithLock(ctx context.Context, ledger *CurrencyLedger) error
}

// CatalogItemRepository defines the interface for catalog item persistence
type CatalogItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CatalogItem, error)
	FindAll(ctx context.Context, activeOnly bool) ([]*CatalogItem, error)
	Save(ctx context.Context, item *CatalogItem) error
}

// InvoiceMetadataRepository stores the single issuer settings record
type InvoiceMetadataRepository interface {
	// Get returns empty settings when none have been saved
	Get(ctx context.Context) (*InvoiceMetadata, error)
	Save(ctx context.Context, metadata *InvoiceMetadata) error
}
