package receivable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
	"github.com/tradeledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentService applies and reverses customer payments
type PaymentService struct {
	uow     UnitOfWork
	logger  *zap.Logger
	metrics *telemetry.LedgerMetrics
	now     func() time.Time
}

// PaymentServiceOption is a functional option for configuring PaymentService
type PaymentServiceOption func(*PaymentService)

// WithPaymentLogger sets the logger
func WithPaymentLogger(logger *zap.Logger) PaymentServiceOption {
	return func(s *PaymentService) {
		s.logger = logger
	}
}

// WithPaymentMetrics sets the ledger metrics collector
func WithPaymentMetrics(m *telemetry.LedgerMetrics) PaymentServiceOption {
	return func(s *PaymentService) {
		s.metrics = m
	}
}

// WithPaymentClock overrides the clock used for payment numbers
func WithPaymentClock(now func() time.Time) PaymentServiceOption {
	return func(s *PaymentService) {
		s.now = now
	}
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(uow UnitOfWork, opts ...PaymentServiceOption) *PaymentService {
	s := &PaymentService{
		uow:    uow,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextPaymentNo suggests a payment number for a new payment
func (s *PaymentService) NextPaymentNo() string {
	return receivable.NextPaymentNo(s.now())
}

// PreviewAllocation computes the allocation a payment would produce without
// writing anything. Gate failures are reported in ValidationError so the
// caller can show the draft alongside the reason it would be rejected.
func (s *PaymentService) PreviewAllocation(ctx context.Context, req PaymentRequest) (*AllocationPreviewResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "preview")
	defer span.End()

	currency, err := parseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	invoices, err := s.uow.Repositories().Invoices.FindOpenForCustomer(ctx, req.CustomerID, currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load open invoices: %w", err)
	}

	in, result, err := buildAllocation(req, currency, invoices)
	if err != nil {
		return nil, err
	}
	resp := ToAllocationPreviewResponse(in.JPYAmount, result)
	if err := receivable.ValidateAllocation(in, result); err != nil {
		resp.ValidationError = err.Error()
	}
	return &resp, nil
}

// ApplyPayment validates the allocation against fresh balances and writes
// the payment, its allocation rows, the invoices, the customer and the
// currency ledger in one transaction.
func (s *PaymentService) ApplyPayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "apply")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, req.CustomerID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
		telemetry.SpanAttrCurrency, req.Currency,
	)

	currency, err := parseCurrency(req.Currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var payment *receivable.Payment
	var result *receivable.AllocationResult
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationApplyPayment, currency.String()), func(c context.Context) {
		err = s.uow.Do(c, func(ctx context.Context, repos Repositories) error {
			customer, err := repos.Customers.FindByID(ctx, req.CustomerID)
			if err != nil {
				return err
			}
			ledger, err := repos.Ledgers.FindByCode(ctx, currency)
			if err != nil {
				return err
			}
			invoices, err := repos.Invoices.FindOpenForCustomer(ctx, customer.ID, currency)
			if err != nil {
				return fmt.Errorf("failed to load open invoices: %w", err)
			}

			var in receivable.AllocationInput
			in, result, err = buildAllocation(req, currency, invoices)
			if err != nil {
				return err
			}
			if err := receivable.ValidateAllocation(in, result); err != nil {
				return err
			}

			paymentNo := req.PaymentNo
			if paymentNo == "" {
				paymentNo = receivable.NextPaymentNo(s.now())
			}
			params := receivable.PaymentParams{
				PaymentNo:         paymentNo,
				CustomerID:        customer.ID,
				CustomerName:      customer.Name,
				Currency:          currency,
				Amount:            req.Amount,
				ForeignBankCharge: req.ForeignBankCharge,
				LocalBankCharge:   req.LocalBankCharge,
				PaymentDate:       req.PaymentDate,
			}
			if req.CreditDate != nil {
				params.CreditDate = *req.CreditDate
			}
			payment, err = receivable.NewPayment(params, result)
			if err != nil {
				return err
			}
			if err := repos.Payments.Create(ctx, payment); err != nil {
				return fmt.Errorf("failed to save payment: %w", err)
			}

			byID := make(map[uuid.UUID]*receivable.Invoice, len(invoices))
			for _, inv := range invoices {
				byID[inv.ID] = inv
			}
			for i := range payment.Allocations {
				a := &payment.Allocations[i]
				inv := byID[a.InvoiceID]
				if err := inv.ApplyAllocation(a); err != nil {
					return err
				}
				if err := repos.Invoices.SaveWithLock(ctx, inv); err != nil {
					return err
				}
			}

			customer.CreditJPY(payment.AmountInJPY)
			if err := repos.Customers.SaveWithLock(ctx, customer); err != nil {
				return err
			}
			ledger.ApplyPayment(payment.Totals())
			return repos.Ledgers.SaveWithLock(ctx, ledger)
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if result.ChargeInvoiceDefaulted {
		s.logger.Warn("Bank charges attributed to first allocated invoice",
			zap.String("payment_no", payment.PaymentNo),
			zap.Stringp("invoice_id", uuidString(result.ChargeInvoiceID)),
		)
	}
	telemetry.AddEvent(span, "payment_applied",
		telemetry.SpanAttrPaymentID, payment.ID.String(),
		"allocations", len(payment.Allocations),
	)
	if s.metrics != nil {
		s.metrics.RecordPaymentApplied(ctx, currency.String(), payment.AllocatedAmount)
	}
	s.logger.Info("Payment applied",
		zap.String("payment_id", payment.ID.String()),
		zap.String("payment_no", payment.PaymentNo),
		zap.String("customer_id", payment.CustomerID.String()),
		zap.String("currency", currency.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("amount_in_jpy", payment.AmountInJPY.String()),
		zap.String("exchange_rate", payment.ExchangeRate.String()),
	)

	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// DeletePayment reverses a payment using its stored allocation rows. Only
// the customer's most recent payment can be reversed.
func (s *PaymentService) DeletePayment(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "reverse")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, id.String())

	var (
		payment *receivable.Payment
		err     error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationReversePayment, ""), func(c context.Context) {
		err = s.uow.Do(c, func(ctx context.Context, repos Repositories) error {
			p, err := repos.Payments.FindByID(ctx, id)
			if err != nil {
				return err
			}
			payment = p
			latest, err := repos.Payments.FindLatestForCustomer(ctx, payment.CustomerID)
			if err != nil {
				return err
			}
			if latest.ID != payment.ID {
				return shared.NewPreconditionError("NOT_LATEST_PAYMENT",
					fmt.Sprintf("Only the latest payment %s of this customer can be deleted", latest.PaymentNo))
			}

			for i := range payment.Allocations {
				a := &payment.Allocations[i]
				inv, err := repos.Invoices.FindByID(ctx, a.InvoiceID)
				if err != nil {
					return err
				}
				if err := inv.ReverseAllocation(a); err != nil {
					return err
				}
				if err := repos.Invoices.SaveWithLock(ctx, inv); err != nil {
					return err
				}
			}

			customer, err := repos.Customers.FindByID(ctx, payment.CustomerID)
			if err != nil {
				return err
			}
			customer.DebitJPY(payment.AmountInJPY)
			if err := repos.Customers.SaveWithLock(ctx, customer); err != nil {
				return err
			}

			ledger, err := repos.Ledgers.FindByCode(ctx, payment.Currency)
			if err != nil {
				return err
			}
			ledger.ReversePayment(payment.Totals())
			if err := repos.Ledgers.SaveWithLock(ctx, ledger); err != nil {
				return err
			}
			return repos.Payments.Delete(ctx, payment.ID)
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordPaymentReversed(ctx, payment.Currency.String())
	}
	s.logger.Info("Payment reversed",
		zap.String("payment_id", payment.ID.String()),
		zap.String("payment_no", payment.PaymentNo),
		zap.Int("allocations", len(payment.Allocations)),
	)
	return nil
}

// GetPayment returns a payment with its allocations
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.uow.Repositories().Payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// ListPayments returns one page of payments, newest first
func (s *PaymentService) ListPayments(ctx context.Context, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	f := receivable.PaymentFilter{
		Filter:     pageFilter(filter.Page, filter.PageSize),
		CustomerID: filter.CustomerID,
		FromDate:   filter.FromDate,
		ToDate:     filter.ToDate,
	}
	if filter.Currency != "" {
		currency, err := parseCurrency(filter.Currency)
		if err != nil {
			return nil, 0, err
		}
		f.Currency = &currency
	}

	payments, total, err := s.uow.Repositories().Payments.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		out[i] = ToPaymentResponse(p)
	}
	return out, total, nil
}

// buildAllocation runs the allocation engine over freshly loaded invoices
func buildAllocation(req PaymentRequest, currency valueobject.CurrencyCode, invoices []*receivable.Invoice) (receivable.AllocationInput, *receivable.AllocationResult, error) {
	open := make([]receivable.OpenInvoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.IsOpen() {
			open = append(open, receivable.OpenInvoiceFrom(inv))
		}
	}

	lines, err := receivable.BuildAllocationLines(receivable.AllocationStrategyType(req.Strategy), open, req.Amount, req.manual())
	if err != nil {
		return receivable.AllocationInput{}, nil, err
	}
	jpy, err := receivable.JPYAmountFor(currency, req.Amount, req.ForeignBankCharge, req.JPYAmount)
	if err != nil {
		return receivable.AllocationInput{}, nil, err
	}

	in := receivable.AllocationInput{
		Currency:          currency,
		PaymentAmount:     req.Amount,
		ForeignBankCharge: req.ForeignBankCharge,
		LocalBankCharge:   req.LocalBankCharge,
		JPYAmount:         jpy,
		ChargeInvoiceID:   req.ChargeInvoiceID,
		Lines:             lines,
	}
	result, err := receivable.ComputeAllocation(in)
	if err != nil {
		return in, nil, err
	}
	return in, result, nil
}

func parseCurrency(s string) (valueobject.CurrencyCode, error) {
	code, err := valueobject.ParseCurrencyCode(s)
	if err != nil {
		return "", shared.NewValidationError("INVALID_CURRENCY", err.Error())
	}
	return code, nil
}

func pageFilter(page, pageSize int) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	return f
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func asDomainError(err error, target **shared.DomainError) bool {
	return errors.As(err, target)
}

func isNotFound(err error) bool {
	return shared.IsKind(err, shared.KindNotFound)
}
