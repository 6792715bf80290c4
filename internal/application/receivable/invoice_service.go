package receivable

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InvoiceService handles invoice lifecycle operations and keeps the
// currency ledgers in step with invoice totals
type InvoiceService struct {
	uow      UnitOfWork
	logger   *zap.Logger
	metrics  *telemetry.LedgerMetrics
	enqueuer DocumentTaskEnqueuer
}

// InvoiceServiceOption is a functional option for configuring InvoiceService
type InvoiceServiceOption func(*InvoiceService)

// WithInvoiceLogger sets the logger
func WithInvoiceLogger(logger *zap.Logger) InvoiceServiceOption {
	return func(s *InvoiceService) {
		s.logger = logger
	}
}

// WithInvoiceMetrics sets the ledger metrics collector
func WithInvoiceMetrics(m *telemetry.LedgerMetrics) InvoiceServiceOption {
	return func(s *InvoiceService) {
		s.metrics = m
	}
}

// WithDocumentEnqueuer schedules a document render after issuing invoices
func WithDocumentEnqueuer(e DocumentTaskEnqueuer) InvoiceServiceOption {
	return func(s *InvoiceService) {
		s.enqueuer = e
	}
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(uow UnitOfWork, opts ...InvoiceServiceOption) *InvoiceService {
	s := &InvoiceService{uow: uow, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInvoice prices and stores a new invoice and adds its total to the
// ledger of its currency
func (s *InvoiceService) CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceNo, req.InvoiceNo,
		telemetry.SpanAttrCustomerID, req.CustomerID.String(),
		telemetry.SpanAttrCurrency, req.Currency,
	)

	var inv *receivable.Invoice
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		customer, err := repos.Customers.FindByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		exists, err := repos.Invoices.ExistsByInvoiceNo(ctx, req.InvoiceNo)
		if err != nil {
			return fmt.Errorf("failed to check invoice number: %w", err)
		}
		if exists {
			return shared.NewValidationError("DUPLICATE_INVOICE_NUMBER",
				fmt.Sprintf("Invoice number %s is already in use", req.InvoiceNo))
		}

		inv, err = receivable.NewInvoice(req.params(customer.Name))
		if err != nil {
			return err
		}
		ledger, err := repos.Ledgers.FindByCode(ctx, inv.Currency)
		if err != nil {
			return err
		}
		if err := repos.Invoices.Create(ctx, inv); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		ledger.AddInvoice(inv.TotalAmount)
		return repos.Ledgers.SaveWithLock(ctx, ledger)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.recordChange(ctx, "create", inv)
	s.logger.Info("Invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_no", inv.InvoiceNo),
		zap.String("currency", inv.Currency.String()),
		zap.String("total_amount", inv.TotalAmount.String()),
		zap.String("status", inv.Status.String()),
	)
	s.enqueueDocument(ctx, inv)

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// UpdateInvoice applies an edit. A changed total in the same currency is
// written to the ledger as a single difference; a changed currency moves
// the old total off the old ledger and the new total onto the new one.
// Invoices with payments keep their financial fields.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id uuid.UUID, req InvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, id.String())

	var inv *receivable.Invoice
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		var err error
		inv, err = repos.Invoices.FindByID(ctx, id)
		if err != nil {
			return err
		}
		oldTotal, oldCurrency := inv.TotalAmount, inv.Currency

		if req.InvoiceNo != inv.InvoiceNo {
			exists, err := repos.Invoices.ExistsByInvoiceNo(ctx, req.InvoiceNo)
			if err != nil {
				return fmt.Errorf("failed to check invoice number: %w", err)
			}
			if exists {
				return shared.NewValidationError("DUPLICATE_INVOICE_NUMBER",
					fmt.Sprintf("Invoice number %s is already in use", req.InvoiceNo))
			}
		}
		customerName := inv.CustomerName
		if req.CustomerID != inv.CustomerID {
			customer, err := repos.Customers.FindByID(ctx, req.CustomerID)
			if err != nil {
				return err
			}
			customerName = customer.Name
		}

		if err := inv.Revise(req.params(customerName)); err != nil {
			return err
		}
		if err := repos.Invoices.SaveWithLock(ctx, inv); err != nil {
			return err
		}

		if inv.Currency == oldCurrency {
			if inv.TotalAmount.Equal(oldTotal) {
				return nil
			}
			ledger, err := repos.Ledgers.FindByCode(ctx, inv.Currency)
			if err != nil {
				return err
			}
			ledger.ReviseInvoice(oldTotal, inv.TotalAmount)
			return repos.Ledgers.SaveWithLock(ctx, ledger)
		}

		oldLedger, err := repos.Ledgers.FindByCode(ctx, oldCurrency)
		if err != nil {
			return err
		}
		newLedger, err := repos.Ledgers.FindByCode(ctx, inv.Currency)
		if err != nil {
			return err
		}
		oldLedger.RemoveInvoice(oldTotal)
		newLedger.AddInvoice(inv.TotalAmount)
		if err := repos.Ledgers.SaveWithLock(ctx, oldLedger); err != nil {
			return err
		}
		return repos.Ledgers.SaveWithLock(ctx, newLedger)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.recordChange(ctx, "update", inv)
	s.logger.Info("Invoice updated",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_no", inv.InvoiceNo),
		zap.String("total_amount", inv.TotalAmount.String()),
		zap.Int("version", inv.Version),
	)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// DeleteInvoice removes an unpaid invoice and withdraws its total from the
// ledger, clamping the ledger at zero
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "delete")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, id.String())

	var inv *receivable.Invoice
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		var err error
		inv, err = repos.Invoices.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := inv.EnsureDeletable(); err != nil {
			return err
		}
		ledger, err := repos.Ledgers.FindByCode(ctx, inv.Currency)
		if err != nil {
			return err
		}
		if err := repos.Invoices.Delete(ctx, inv.ID); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		ledger.RemoveInvoice(inv.TotalAmount)
		return repos.Ledgers.SaveWithLock(ctx, ledger)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.recordChange(ctx, "delete", inv)
	s.logger.Info("Invoice deleted",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_no", inv.InvoiceNo),
		zap.String("total_amount", inv.TotalAmount.String()),
	)
	return nil
}

// FinalizeInvoice issues a draft invoice
func (s *InvoiceService) FinalizeInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	var inv *receivable.Invoice
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		var err error
		inv, err = repos.Invoices.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := inv.Finalize(); err != nil {
			return err
		}
		return repos.Invoices.SaveWithLock(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice finalized", zap.String("invoice_no", inv.InvoiceNo))
	s.enqueueDocument(ctx, inv)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// GetInvoice returns an invoice with its line items
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.uow.Repositories().Invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// ListInvoices returns one page of invoice summaries
func (s *InvoiceService) ListInvoices(ctx context.Context, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	f := receivable.InvoiceFilter{
		Filter:     pageFilter(filter.Page, filter.PageSize),
		CustomerID: filter.CustomerID,
		FromDate:   filter.FromDate,
		ToDate:     filter.ToDate,
	}
	f.Search = filter.Search
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.Currency != "" {
		currency, err := parseCurrency(filter.Currency)
		if err != nil {
			return nil, 0, err
		}
		f.Currency = &currency
	}
	if filter.Status != "" {
		status := receivable.InvoiceStatus(filter.Status)
		f.Status = &status
	}

	invoices, total, err := s.uow.Repositories().Invoices.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		out[i] = toInvoiceSummary(inv)
	}
	return out, total, nil
}

// OpenInvoices lists the invoices a payment from this customer can settle,
// oldest first
func (s *InvoiceService) OpenInvoices(ctx context.Context, customerID uuid.UUID, currencyCode string) ([]OpenInvoiceResponse, error) {
	currency, err := parseCurrency(currencyCode)
	if err != nil {
		return nil, err
	}
	invoices, err := s.uow.Repositories().Invoices.FindOpenForCustomer(ctx, customerID, currency)
	if err != nil {
		return nil, err
	}

	open := make([]receivable.OpenInvoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.IsOpen() {
			open = append(open, receivable.OpenInvoiceFrom(inv))
		}
	}
	out := make([]OpenInvoiceResponse, 0, len(open))
	for _, o := range receivable.SortFIFO(open) {
		out = append(out, OpenInvoiceResponse{ID: o.ID, InvoiceNo: o.InvoiceNo, Date: o.Date, Balance: o.Balance})
	}
	return out, nil
}

func (s *InvoiceService) recordChange(ctx context.Context, op string, inv *receivable.Invoice) {
	if s.metrics != nil {
		s.metrics.RecordInvoiceChange(ctx, op, inv.Currency.String())
	}
}

// enqueueDocument schedules rendering for issued invoices. Failure to
// enqueue does not fail the write; the document can be requested again.
func (s *InvoiceService) enqueueDocument(ctx context.Context, inv *receivable.Invoice) {
	if s.enqueuer == nil || inv.Status == receivable.InvoiceStatusDraft {
		return
	}
	if err := s.enqueuer.EnqueueInvoiceDocument(ctx, inv.ID); err != nil {
		s.logger.Warn("Failed to enqueue invoice document",
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err),
		)
	}
}
