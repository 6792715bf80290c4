package receivable

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

// Repositories groups the stores used by one unit of work
type Repositories struct {
	Invoices    receivable.InvoiceRepository
	Payments    receivable.PaymentRepository
	Allocations receivable.AllocationRepository
	Customers   receivable.CustomerRepository
	Ledgers     receivable.CurrencyLedgerRepository
}

// UnitOfWork runs a set of writes atomically
type UnitOfWork interface {
	// Do runs fn inside one transaction. Returning an error rolls back
	// every write made through the repositories passed to fn.
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	// Repositories returns repositories bound to no transaction, for reads
	Repositories() Repositories
}

// RateProvider looks up the market rate of one unit of JPY in currency.
// ok is false when no rate is available for that date.
type RateProvider interface {
	FetchRate(ctx context.Context, currency valueobject.CurrencyCode, date time.Time) (rate decimal.Decimal, ok bool, err error)
}

// DocumentRenderer turns a paginated invoice into PDF bytes
type DocumentRenderer interface {
	RenderInvoice(ctx context.Context, doc *receivable.InvoiceDocument) ([]byte, error)
}

// ObjectStorage stores rendered documents
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// DocumentTaskEnqueuer schedules background rendering of an invoice
type DocumentTaskEnqueuer interface {
	EnqueueInvoiceDocument(ctx context.Context, invoiceID uuid.UUID) error
}
