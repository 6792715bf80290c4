package receivable

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

// CurrencyLedger holds the running totals for one currency. AmountDue is
// clamped at zero on every mutation.
type CurrencyLedger struct {
	shared.BaseAggregateRoot
	Code              valueobject.CurrencyCode
	Name              string
	TotalAmount       decimal.Decimal
	AmountDue         decimal.Decimal
	AmountPaid        decimal.Decimal
	AmountInJPY       decimal.Decimal
	ForeignBankCharge decimal.Decimal
	LocalBankCharge   decimal.Decimal
}

// PaymentTotals are the amounts a payment moves on a ledger
type PaymentTotals struct {
	Allocated         decimal.Decimal
	AmountInJPY       decimal.Decimal
	ForeignBankCharge decimal.Decimal
	LocalBankCharge   decimal.Decimal
}

// NewCurrencyLedger creates an empty ledger
func NewCurrencyLedger(code valueobject.CurrencyCode, name string) (*CurrencyLedger, error) {
	if !code.IsValid() {
		return nil, shared.NewValidationError("INVALID_CURRENCY", fmt.Sprintf("Currency %q is not valid", code))
	}
	if strings.TrimSpace(name) == "" {
		name = code.String()
	}
	return &CurrencyLedger{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		TotalAmount:       decimal.Zero,
		AmountDue:         decimal.Zero,
		AmountPaid:        decimal.Zero,
		AmountInJPY:       decimal.Zero,
		ForeignBankCharge: decimal.Zero,
		LocalBankCharge:   decimal.Zero,
	}, nil
}

// AddInvoice records a newly issued invoice total
func (l *CurrencyLedger) AddInvoice(total decimal.Decimal) {
	l.AmountDue = valueobject.Round2(l.AmountDue.Add(total))
	l.TotalAmount = valueobject.Round2(l.TotalAmount.Add(total))
	l.Touch()
}

// RemoveInvoice withdraws an invoice total
func (l *CurrencyLedger) RemoveInvoice(total decimal.Decimal) {
	l.AmountDue = valueobject.ClampZero(valueobject.Round2(l.AmountDue.Sub(total)))
	l.TotalAmount = valueobject.ClampZero(valueobject.Round2(l.TotalAmount.Sub(total)))
	l.Touch()
}

// ReviseInvoice applies an edited total as one diff write
func (l *CurrencyLedger) ReviseInvoice(oldTotal, newTotal decimal.Decimal) {
	diff := newTotal.Sub(oldTotal)
	l.AmountDue = valueobject.ClampZero(valueobject.Round2(l.AmountDue.Add(diff)))
	l.TotalAmount = valueobject.ClampZero(valueobject.Round2(l.TotalAmount.Add(diff)))
	l.Touch()
}

// ApplyPayment credits a payment to the ledger
func (l *CurrencyLedger) ApplyPayment(t PaymentTotals) {
	l.AmountDue = valueobject.ClampZero(valueobject.Round2(l.AmountDue.Sub(t.Allocated)))
	l.AmountPaid = valueobject.Round2(l.AmountPaid.Add(t.Allocated))
	l.AmountInJPY = valueobject.Round2(l.AmountInJPY.Add(t.AmountInJPY))
	l.ForeignBankCharge = valueobject.Round2(l.ForeignBankCharge.Add(t.ForeignBankCharge))
	l.LocalBankCharge = valueobject.Round2(l.LocalBankCharge.Add(t.LocalBankCharge))
	l.Touch()
}

// ReversePayment is the inverse of ApplyPayment
func (l *CurrencyLedger) ReversePayment(t PaymentTotals) {
	l.AmountDue = valueobject.Round2(l.AmountDue.Add(t.Allocated))
	l.AmountPaid = valueobject.ClampZero(valueobject.Round2(l.AmountPaid.Sub(t.Allocated)))
	l.AmountInJPY = valueobject.ClampZero(valueobject.Round2(l.AmountInJPY.Sub(t.AmountInJPY)))
	l.ForeignBankCharge = valueobject.ClampZero(valueobject.Round2(l.ForeignBankCharge.Sub(t.ForeignBankCharge)))
	l.LocalBankCharge = valueobject.ClampZero(valueobject.Round2(l.LocalBankCharge.Sub(t.LocalBankCharge)))
	l.Touch()
}
