package receivable

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"          // Not yet issued
	InvoiceStatusPending       InvoiceStatus = "pending"        // Issued, nothing paid
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid" // 0 < paid < total
	InvoiceStatusPaid          InvoiceStatus = "paid"           // balance == 0
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusPartiallyPaid, InvoiceStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanReceivePayment returns true if allocations may be applied in this status
func (s InvoiceStatus) CanReceivePayment() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPartiallyPaid
}

// CanDelete returns true if the invoice may be deleted in this status
func (s InvoiceStatus) CanDelete() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusPending
}

// HasLockedFinancials returns true once any payment has been applied
func (s InvoiceStatus) HasLockedFinancials() bool {
	return s == InvoiceStatusPartiallyPaid || s == InvoiceStatusPaid
}

// DocumentSource records how the printable document was produced
type DocumentSource string

const (
	DocumentSourceLegacy DocumentSource = "legacy"
	DocumentSourceSystem DocumentSource = "system"
)

// DefaultItemsPerPage is the pagination used by the invoice document when unset.
const DefaultItemsPerPage = 20

// Invoice is the aggregate root for a customer invoice
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNo         string
	CustomerID        uuid.UUID
	CustomerName      string
	Currency          valueobject.CurrencyCode
	Date              time.Time
	Status            InvoiceStatus
	ExchangeRate      decimal.Decimal // foreign units per 1 JPY, 4dp
	MarkupMode        MarkupMode
	MarkupValue       decimal.Decimal
	ItemGroups        []ItemGroup
	TotalCost         decimal.Decimal // JPY
	TotalJPY          decimal.Decimal
	TotalProfitJPY    decimal.Decimal
	TotalAmount       decimal.Decimal // invoice currency
	AmountPaid        decimal.Decimal
	Balance           decimal.Decimal
	ForeignBankCharge decimal.Decimal
	LocalBankCharge   decimal.Decimal
	ReceivedJPY       decimal.Decimal
	ItemsPerPage      int
	Remarks           string
	BankAccountID     string
	InvoiceLink       string
	TemplateVersion   int
	DocumentSource    DocumentSource
}

// InvoiceParams carries the editable fields of an invoice
type InvoiceParams struct {
	InvoiceNo     string
	CustomerID    uuid.UUID
	CustomerName  string
	Currency      valueobject.CurrencyCode
	Date          time.Time
	ExchangeRate  decimal.Decimal
	MarkupMode    MarkupMode
	MarkupValue   decimal.Decimal
	ItemGroups    []ItemGroup
	ItemsPerPage  int
	Remarks       string
	BankAccountID string
	Draft         bool
}

func (p InvoiceParams) validate() error {
	if strings.TrimSpace(p.InvoiceNo) == "" {
		return shared.NewValidationError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(p.InvoiceNo) > 50 {
		return shared.NewValidationError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if p.CustomerID == uuid.Nil {
		return shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if strings.TrimSpace(p.CustomerName) == "" {
		return shared.NewValidationError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if !p.Currency.IsValid() {
		return shared.NewValidationError("INVALID_CURRENCY", fmt.Sprintf("Currency %q is not valid", p.Currency))
	}
	if p.Date.IsZero() {
		return shared.NewValidationError("INVALID_DATE", "Invoice date is required")
	}
	if p.ExchangeRate.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("INVALID_EXCHANGE_RATE", "Exchange rate must be positive")
	}
	if p.MarkupMode != "" && !p.MarkupMode.IsValid() {
		return shared.NewValidationError("INVALID_MARKUP_MODE", fmt.Sprintf("Markup mode %q is not valid", p.MarkupMode))
	}
	return nil
}

// NewInvoice creates a priced invoice in draft or pending status
func NewInvoice(p InvoiceParams) (*Invoice, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	priced, err := PriceItemGroups(p.ItemGroups, PricingInput{
		ExchangeRate: p.ExchangeRate,
		MarkupMode:   p.MarkupMode,
		MarkupValue:  p.MarkupValue,
	})
	if err != nil {
		return nil, err
	}

	status := InvoiceStatusPending
	if p.Draft {
		status = InvoiceStatusDraft
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Status:            status,
		AmountPaid:        decimal.Zero,
		ForeignBankCharge: decimal.Zero,
		LocalBankCharge:   decimal.Zero,
		ReceivedJPY:       decimal.Zero,
		TemplateVersion:   1,
		DocumentSource:    DocumentSourceSystem,
	}
	inv.applyParams(p, priced)
	inv.TotalAmount = priced.TotalAmount
	inv.Balance = priced.TotalAmount
	return inv, nil
}

func (inv *Invoice) applyParams(p InvoiceParams, priced *PricedInvoice) {
	inv.InvoiceNo = strings.TrimSpace(p.InvoiceNo)
	inv.CustomerID = p.CustomerID
	inv.CustomerName = p.CustomerName
	inv.Currency = p.Currency
	inv.Date = JapanMidnight(p.Date)
	inv.ExchangeRate = valueobject.Round4(p.ExchangeRate)
	inv.MarkupMode = p.MarkupMode
	inv.MarkupValue = p.MarkupValue
	inv.ItemGroups = priced.ItemGroups
	inv.TotalCost = priced.TotalCost
	inv.TotalJPY = priced.TotalJPY
	inv.TotalProfitJPY = priced.TotalProfitJPY
	inv.ItemsPerPage = NormalizeItemsPerPage(p.ItemsPerPage)
	inv.Remarks = p.Remarks
	inv.BankAccountID = p.BankAccountID
}

// Revise applies an edit. Once any payment has been applied the currency
// is fixed and TotalAmount, AmountPaid, Balance, charges and ReceivedJPY
// are carried over unchanged; only costing and descriptive fields move,
// and TotalJPY is derived from the locked TotalAmount.
func (inv *Invoice) Revise(p InvoiceParams) error {
	if err := p.validate(); err != nil {
		return err
	}
	if inv.Status.HasLockedFinancials() && (p.Currency != inv.Currency || p.CustomerID != inv.CustomerID) {
		return shared.NewPreconditionError("INVOICE_FINANCIALS_LOCKED",
			fmt.Sprintf("Invoice %s has payments applied; its customer and currency cannot change", inv.InvoiceNo))
	}
	priced, err := PriceItemGroups(p.ItemGroups, PricingInput{
		ExchangeRate: p.ExchangeRate,
		MarkupMode:   p.MarkupMode,
		MarkupValue:  p.MarkupValue,
	})
	if err != nil {
		return err
	}

	inv.applyParams(p, priced)
	if inv.Status.HasLockedFinancials() {
		// yen figures follow the locked total, not the repriced items
		inv.TotalJPY = valueobject.Round2(inv.TotalAmount.Div(inv.ExchangeRate))
		inv.TotalProfitJPY = valueobject.Round2(inv.TotalJPY.Sub(inv.TotalCost))
	} else {
		inv.TotalAmount = priced.TotalAmount
		inv.Balance = valueobject.Round2(inv.TotalAmount.Sub(inv.AmountPaid))
		if !p.Draft && inv.Status == InvoiceStatusDraft {
			inv.Status = InvoiceStatusPending
		}
	}
	inv.Touch()
	return nil
}

// Finalize moves a draft invoice to pending
func (inv *Invoice) Finalize() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewPreconditionError("INVALID_STATE",
			fmt.Sprintf("Cannot finalize invoice in %s status", inv.Status))
	}
	inv.Status = InvoiceStatusPending
	inv.Touch()
	return nil
}

// EnsureDeletable rejects deletion once payments have been applied
func (inv *Invoice) EnsureDeletable() error {
	if !inv.Status.CanDelete() {
		return shared.NewPreconditionError("INVOICE_HAS_PAYMENTS",
			fmt.Sprintf("Invoice %s is %s and cannot be deleted", inv.InvoiceNo, inv.Status))
	}
	return nil
}

// ApplyAllocation credits one allocation row to the invoice
func (inv *Invoice) ApplyAllocation(a *PaymentAllocation) error {
	if !inv.Status.CanReceivePayment() {
		return shared.NewPreconditionError("INVALID_STATE",
			fmt.Sprintf("Cannot apply payment to invoice %s in %s status", inv.InvoiceNo, inv.Status))
	}
	if a.AllocatedAmount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("INVALID_AMOUNT", "Allocated amount must be positive")
	}
	if a.AllocatedAmount.GreaterThan(inv.Balance) {
		return shared.NewValidationError("OVER_ALLOCATION",
			fmt.Sprintf("Allocation %s exceeds invoice %s balance %s",
				a.AllocatedAmount.StringFixed(2), inv.InvoiceNo, inv.Balance.StringFixed(2)))
	}

	inv.AmountPaid = valueobject.Round2(inv.AmountPaid.Add(a.AllocatedAmount))
	inv.Balance = valueobject.Round2(inv.TotalAmount.Sub(inv.AmountPaid))
	if inv.Balance.IsZero() {
		inv.Status = InvoiceStatusPaid
	} else {
		inv.Status = InvoiceStatusPartiallyPaid
	}
	inv.ForeignBankCharge = valueobject.Round2(inv.ForeignBankCharge.Add(a.ForeignBankCharge))
	inv.LocalBankCharge = valueobject.Round2(inv.LocalBankCharge.Add(a.LocalBankCharge))
	inv.ReceivedJPY = valueobject.Round2(inv.ReceivedJPY.Add(a.ReceivedJPY))
	inv.Touch()
	return nil
}

// ReverseAllocation undoes ApplyAllocation using the stored allocation row
func (inv *Invoice) ReverseAllocation(a *PaymentAllocation) error {
	if a.AllocatedAmount.GreaterThan(inv.AmountPaid) {
		return shared.NewPreconditionError("REVERSAL_EXCEEDS_PAID",
			fmt.Sprintf("Reversal %s exceeds amount paid %s on invoice %s",
				a.AllocatedAmount.StringFixed(2), inv.AmountPaid.StringFixed(2), inv.InvoiceNo))
	}

	inv.AmountPaid = valueobject.Round2(inv.AmountPaid.Sub(a.AllocatedAmount))
	inv.Balance = valueobject.Round2(inv.TotalAmount.Sub(inv.AmountPaid))
	switch {
	case inv.Balance.IsZero():
		inv.Status = InvoiceStatusPaid
	case inv.AmountPaid.IsZero():
		inv.Status = InvoiceStatusPending
	default:
		inv.Status = InvoiceStatusPartiallyPaid
	}
	inv.ForeignBankCharge = valueobject.Round2(inv.ForeignBankCharge.Sub(a.ForeignBankCharge))
	inv.LocalBankCharge = valueobject.Round2(inv.LocalBankCharge.Sub(a.LocalBankCharge))
	inv.ReceivedJPY = valueobject.Round2(inv.ReceivedJPY.Sub(a.ReceivedJPY))
	inv.Touch()
	return nil
}

// IsOpen reports whether the invoice can take part in allocation
func (inv *Invoice) IsOpen() bool {
	return inv.Status.CanReceivePayment() && inv.Balance.GreaterThan(decimal.Zero)
}

// SetDocumentLink records where the rendered document was stored
func (inv *Invoice) SetDocumentLink(link string) {
	inv.InvoiceLink = link
	inv.DocumentSource = DocumentSourceSystem
	inv.Touch()
}

// NormalizeItemsPerPage returns max(1, n), or the default when unset.
func NormalizeItemsPerPage(n int) int {
	if n == 0 {
		return DefaultItemsPerPage
	}
	if n < 1 {
		return 1
	}
	return n
}
