package receivable

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentAllocation is the portion of one payment credited to one invoice.
// Rows are written with the payment and deleted with it; never updated.
type PaymentAllocation struct {
	ID                uuid.UUID
	PaymentID         uuid.UUID
	InvoiceID         uuid.UUID
	InvoiceNo         string
	AllocatedAmount   decimal.Decimal
	ForeignBankCharge decimal.Decimal
	LocalBankCharge   decimal.Decimal
	ReceivedJPY       decimal.Decimal
	ExchangeRate      decimal.Decimal
	CreatedAt         time.Time
}

// CarriesCharges reports whether this row is the payment's charge invoice row
func (a *PaymentAllocation) CarriesCharges() bool {
	return !a.ForeignBankCharge.IsZero() || !a.LocalBankCharge.IsZero()
}
