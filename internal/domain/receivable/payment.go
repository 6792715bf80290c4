package receivable

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

// Payment records one receipt of funds from a customer and the allocation
// rows it produced.
type Payment struct {
	shared.BaseAggregateRoot
	PaymentNo         string
	CustomerID        uuid.UUID
	CustomerName      string
	Currency          valueobject.CurrencyCode
	Amount            decimal.Decimal
	ExchangeRate      decimal.Decimal // realized JPY per unit
	AllocatedAmount   decimal.Decimal
	AmountInJPY       decimal.Decimal
	ForeignBankCharge decimal.Decimal
	LocalBankCharge   decimal.Decimal
	PaymentDate       time.Time // when funds were received
	CreditDate        time.Time // accounting date used for aging
	Allocations       []PaymentAllocation
}

// PaymentParams carries the user-entered payment header
type PaymentParams struct {
	PaymentNo         string
	CustomerID        uuid.UUID
	CustomerName      string
	Currency          valueobject.CurrencyCode
	Amount            decimal.Decimal
	ForeignBankCharge decimal.Decimal
	LocalBankCharge   decimal.Decimal
	PaymentDate       time.Time
	CreditDate        time.Time
}

// NewPayment builds a payment from a validated allocation result
func NewPayment(p PaymentParams, result *AllocationResult) (*Payment, error) {
	if strings.TrimSpace(p.PaymentNo) == "" {
		return nil, shared.NewValidationError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if p.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !p.Currency.IsValid() {
		return nil, shared.NewValidationError("INVALID_CURRENCY", fmt.Sprintf("Currency %q is not valid", p.Currency))
	}
	if p.PaymentDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "Payment date is required")
	}
	if result == nil || len(result.Allocations) == 0 {
		return nil, shared.NewValidationError("NO_ALLOCATIONS", "Payment must be allocated to at least one invoice")
	}
	creditDate := p.CreditDate
	if creditDate.IsZero() {
		creditDate = p.PaymentDate
	}

	payment := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PaymentNo:         strings.TrimSpace(p.PaymentNo),
		CustomerID:        p.CustomerID,
		CustomerName:      p.CustomerName,
		Currency:          p.Currency,
		Amount:            valueobject.Round2(p.Amount),
		ExchangeRate:      result.ExchangeRate,
		AllocatedAmount:   result.TotalAllocated,
		AmountInJPY:       result.TotalReceivedJPY,
		ForeignBankCharge: valueobject.Round2(p.ForeignBankCharge),
		LocalBankCharge:   valueobject.Round2(p.LocalBankCharge),
		PaymentDate:       JapanMidnight(p.PaymentDate),
		CreditDate:        JapanMidnight(creditDate),
		Allocations:       make([]PaymentAllocation, 0, len(result.Allocations)),
	}
	for _, draft := range result.Allocations {
		if draft.AllocatedAmount.IsZero() {
			continue
		}
		payment.Allocations = append(payment.Allocations, PaymentAllocation{
			ID:                uuid.New(),
			PaymentID:         payment.ID,
			InvoiceID:         draft.InvoiceID,
			InvoiceNo:         draft.InvoiceNo,
			AllocatedAmount:   draft.AllocatedAmount,
			ForeignBankCharge: draft.ForeignBankCharge,
			LocalBankCharge:   draft.LocalBankCharge,
			ReceivedJPY:       draft.ReceivedJPY,
			ExchangeRate:      result.ExchangeRate,
			CreatedAt:         payment.CreatedAt,
		})
	}
	return payment, nil
}

// Totals returns the amounts this payment moves on ledgers and customers
func (p *Payment) Totals() PaymentTotals {
	return PaymentTotals{
		Allocated:         p.AllocatedAmount,
		AmountInJPY:       p.AmountInJPY,
		ForeignBankCharge: p.ForeignBankCharge,
		LocalBankCharge:   p.LocalBankCharge,
	}
}

// NextPaymentNo formats a payment number from the last six digits of the
// millisecond timestamp. Numbers are expected, not guaranteed, to be distinct.
func NextPaymentNo(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "PAY-" + ms
}
