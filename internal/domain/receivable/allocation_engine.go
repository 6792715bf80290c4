package receivable

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

// AllocationStrategyType selects how the allocation vector is produced
type AllocationStrategyType string

const (
	AllocationStrategyFIFO   AllocationStrategyType = "FIFO"   // Oldest invoice first
	AllocationStrategyManual AllocationStrategyType = "MANUAL" // User-supplied amounts
)

// IsValid checks if the strategy type is valid
func (t AllocationStrategyType) IsValid() bool {
	return t == AllocationStrategyFIFO || t == AllocationStrategyManual
}

// String returns the string representation
func (t AllocationStrategyType) String() string {
	return string(t)
}

// OpenInvoice is the allocation engine's view of an invoice with a balance
type OpenInvoice struct {
	ID        uuid.UUID
	InvoiceNo string
	Date      time.Time
	CreatedAt time.Time
	Balance   decimal.Decimal
}

// OpenInvoiceFrom snapshots an invoice for allocation
func OpenInvoiceFrom(inv *Invoice) OpenInvoice {
	return OpenInvoice{
		ID:        inv.ID,
		InvoiceNo: inv.InvoiceNo,
		Date:      inv.Date,
		CreatedAt: inv.CreatedAt,
		Balance:   inv.Balance,
	}
}

// AllocationLine is one entry of the allocation vector
type AllocationLine struct {
	InvoiceID       uuid.UUID
	InvoiceNo       string
	Balance         decimal.Decimal
	AllocatedAmount decimal.Decimal
}

// ManualAllocation is a user-entered amount for one invoice
type ManualAllocation struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
}

// SortFIFO returns a copy of invoices ordered by (Date, CreatedAt) ascending.
func SortFIFO(invoices []OpenInvoice) []OpenInvoice {
	sorted := make([]OpenInvoice, len(invoices))
	copy(sorted, invoices)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// AllocateFIFO walks the invoices oldest first, allocating min(remaining, balance)
// to each until the amount is consumed. Invoices not reached are dropped.
func AllocateFIFO(invoices []OpenInvoice, amount decimal.Decimal) ([]AllocationLine, error) {
	if amount.IsNegative() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Payment amount cannot be negative")
	}
	remaining := valueobject.Round2(amount)
	lines := make([]AllocationLine, 0, len(invoices))
	for _, inv := range SortFIFO(invoices) {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		if inv.Balance.LessThanOrEqual(decimal.Zero) {
			continue
		}
		alloc := decimal.Min(remaining, inv.Balance)
		lines = append(lines, AllocationLine{
			InvoiceID:       inv.ID,
			InvoiceNo:       inv.InvoiceNo,
			Balance:         inv.Balance,
			AllocatedAmount: alloc,
		})
		remaining = valueobject.Round2(remaining.Sub(alloc))
	}
	return lines, nil
}

// AllocateManual builds the vector from user amounts. Every open invoice is
// returned in FIFO order, with zero where the user entered nothing. Amounts
// outside [0, balance] or for invoices that are not open are rejected.
func AllocateManual(invoices []OpenInvoice, requests []ManualAllocation) ([]AllocationLine, error) {
	requested := make(map[uuid.UUID]decimal.Decimal, len(requests))
	for _, r := range requests {
		requested[r.InvoiceID] = requested[r.InvoiceID].Add(r.Amount)
	}

	sorted := SortFIFO(invoices)
	lines := make([]AllocationLine, 0, len(sorted))
	for _, inv := range sorted {
		amount, ok := requested[inv.ID]
		if !ok {
			amount = decimal.Zero
		}
		delete(requested, inv.ID)
		amount = valueobject.Round2(amount)
		if amount.IsNegative() {
			return nil, shared.NewValidationError("INVALID_AMOUNT",
				fmt.Sprintf("Allocation to invoice %s cannot be negative", inv.InvoiceNo))
		}
		if amount.GreaterThan(inv.Balance) {
			return nil, shared.NewValidationError("OVER_ALLOCATION",
				fmt.Sprintf("Allocation %s exceeds invoice %s balance %s",
					amount.StringFixed(2), inv.InvoiceNo, inv.Balance.StringFixed(2)))
		}
		lines = append(lines, AllocationLine{
			InvoiceID:       inv.ID,
			InvoiceNo:       inv.InvoiceNo,
			Balance:         inv.Balance,
			AllocatedAmount: amount,
		})
	}
	for id, amount := range requested {
		if amount.IsZero() {
			continue
		}
		return nil, shared.NewValidationError("INVOICE_NOT_OPEN",
			fmt.Sprintf("Invoice %s is not open for this customer and currency", id))
	}
	return lines, nil
}

// BuildAllocationLines dispatches to the selected strategy
func BuildAllocationLines(strategy AllocationStrategyType, invoices []OpenInvoice, amount decimal.Decimal, manual []ManualAllocation) ([]AllocationLine, error) {
	switch strategy {
	case AllocationStrategyFIFO, "":
		return AllocateFIFO(invoices, amount)
	case AllocationStrategyManual:
		return AllocateManual(invoices, manual)
	default:
		return nil, shared.NewValidationError("INVALID_STRATEGY",
			fmt.Sprintf("Allocation strategy %q is not supported", strategy))
	}
}

// JPYAmountFor returns the yen credited for a receipt. For JPY receipts it is
// the amount net of the foreign charge; otherwise the bank-reported figure is
// required.
func JPYAmountFor(currency valueobject.CurrencyCode, amount, foreignBankCharge decimal.Decimal, manualJPY *decimal.Decimal) (decimal.Decimal, error) {
	if currency.IsBase() {
		return valueobject.Round2(amount.Sub(foreignBankCharge)), nil
	}
	if manualJPY == nil {
		return decimal.Zero, shared.NewValidationError("JPY_AMOUNT_REQUIRED",
			fmt.Sprintf("JPY amount credited is required for %s payments", currency))
	}
	if manualJPY.IsNegative() {
		return decimal.Zero, shared.NewValidationError("INVALID_AMOUNT", "JPY amount cannot be negative")
	}
	return valueobject.Round2(*manualJPY), nil
}

// RealizedRate is round2(jpy / (amount - foreignBankCharge)), or zero when
// nothing is left after the charge.
func RealizedRate(amount, foreignBankCharge, jpyAmount decimal.Decimal) decimal.Decimal {
	effective := amount.Sub(foreignBankCharge)
	if effective.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return valueobject.Round2(jpyAmount.Div(effective))
}

// AllocationInput is everything ComputeAllocation needs. It carries no
// references to stores or clocks.
type AllocationInput struct {
	Currency          valueobject.CurrencyCode
	PaymentAmount     decimal.Decimal
	ForeignBankCharge decimal.Decimal
	LocalBankCharge   decimal.Decimal
	JPYAmount         decimal.Decimal
	ChargeInvoiceID   *uuid.UUID
	Lines             []AllocationLine
}

// AllocationDraft is a proposed allocation row
type AllocationDraft struct {
	InvoiceID         uuid.UUID
	InvoiceNo         string
	Balance           decimal.Decimal
	AllocatedAmount   decimal.Decimal
	ForeignBankCharge decimal.Decimal
	LocalBankCharge   decimal.Decimal
	ReceivedJPY       decimal.Decimal
}

// AllocationResult is the engine output
type AllocationResult struct {
	Allocations      []AllocationDraft
	ExchangeRate     decimal.Decimal
	TotalAllocated   decimal.Decimal
	TotalReceivedJPY decimal.Decimal
	ChargeInvoiceID  *uuid.UUID
	// ChargeInvoiceDefaulted is set when bank charges were present, no charge
	// invoice was chosen and the first allocated invoice was used instead.
	ChargeInvoiceDefaulted bool
	FullyAllocated         bool
	RoundingAdjustment     decimal.Decimal
}

// DistributeJPY converts each allocation to yen at rate. The charge invoice
// has the foreign charge deducted before conversion and the local charge
// deducted after. Lines with no allocation receive nothing.
func DistributeJPY(lines []AllocationLine, rate decimal.Decimal, chargeInvoiceID *uuid.UUID, foreignBankCharge, localBankCharge decimal.Decimal) []AllocationDraft {
	drafts := make([]AllocationDraft, 0, len(lines))
	for _, line := range lines {
		isCharge := chargeInvoiceID != nil && *chargeInvoiceID == line.InvoiceID
		draft := AllocationDraft{
			InvoiceID:         line.InvoiceID,
			InvoiceNo:         line.InvoiceNo,
			Balance:           line.Balance,
			AllocatedAmount:   valueobject.Round2(line.AllocatedAmount),
			ForeignBankCharge: decimal.Zero,
			LocalBankCharge:   decimal.Zero,
			ReceivedJPY:       decimal.Zero,
		}
		if draft.AllocatedAmount.GreaterThan(decimal.Zero) {
			adjusted := draft.AllocatedAmount
			if isCharge {
				adjusted = adjusted.Sub(foreignBankCharge)
			}
			received := valueobject.FloorJPY(adjusted.Mul(rate))
			if isCharge {
				received = received.Sub(localBankCharge)
			}
			draft.ReceivedJPY = received
		}
		if isCharge {
			draft.ForeignBankCharge = valueobject.Round2(foreignBankCharge)
			draft.LocalBankCharge = valueobject.Round2(localBankCharge)
		}
		drafts = append(drafts, draft)
	}
	return drafts
}

// ComputeAllocation derives the realized rate, distributes yen across the
// allocation vector and, when the payment is fully consumed, pushes the
// floor-rounding remainder onto the charge invoice so totals tie out.
func ComputeAllocation(in AllocationInput) (*AllocationResult, error) {
	if in.PaymentAmount.IsNegative() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Payment amount cannot be negative")
	}
	if in.ForeignBankCharge.IsNegative() || in.LocalBankCharge.IsNegative() {
		return nil, shared.NewValidationError("INVALID_CHARGE", "Bank charges cannot be negative")
	}

	chargeID, defaulted, err := resolveChargeInvoice(in.Lines, in.ChargeInvoiceID)
	if err != nil {
		return nil, err
	}
	// only worth flagging when there is a charge to attribute
	defaulted = defaulted && (in.ForeignBankCharge.IsPositive() || in.LocalBankCharge.IsPositive())

	rate := RealizedRate(in.PaymentAmount, in.ForeignBankCharge, in.JPYAmount)
	drafts := DistributeJPY(in.Lines, rate, chargeID, in.ForeignBankCharge, in.LocalBankCharge)

	result := &AllocationResult{
		Allocations:            drafts,
		ExchangeRate:           rate,
		ChargeInvoiceID:        chargeID,
		ChargeInvoiceDefaulted: defaulted,
		RoundingAdjustment:     decimal.Zero,
	}
	result.TotalAllocated, result.TotalReceivedJPY = sumDrafts(drafts)
	result.FullyAllocated = result.TotalAllocated.Equal(valueobject.Round2(in.PaymentAmount))

	if result.FullyAllocated && len(drafts) > 0 {
		diff := valueobject.Round2(in.JPYAmount.Sub(result.TotalReceivedJPY))
		if !diff.IsZero() {
			idx := adjustmentIndex(drafts, chargeID)
			if idx >= 0 {
				drafts[idx].ReceivedJPY = valueobject.Round2(drafts[idx].ReceivedJPY.Add(diff))
				result.RoundingAdjustment = diff
				_, result.TotalReceivedJPY = sumDrafts(drafts)
			}
		}
	}
	return result, nil
}

// ValidateAllocation applies the commit gates. Every failure is a
// ValidationError; nothing is clamped.
func ValidateAllocation(in AllocationInput, result *AllocationResult) error {
	if result == nil {
		return shared.NewValidationError("NO_ALLOCATIONS", "Allocation has not been computed")
	}
	amount := valueobject.Round2(in.PaymentAmount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !result.TotalAllocated.Equal(amount) {
		return shared.NewValidationError("ALLOCATION_SUM_MISMATCH",
			fmt.Sprintf("Allocated total %s does not equal payment amount %s",
				result.TotalAllocated.StringFixed(2), amount.StringFixed(2)))
	}
	jpy := valueobject.Round2(in.JPYAmount)
	if !result.TotalReceivedJPY.Equal(jpy) {
		return shared.NewValidationError("JPY_SUM_MISMATCH",
			fmt.Sprintf("Received JPY total %s does not equal JPY amount %s",
				result.TotalReceivedJPY.StringFixed(2), jpy.StringFixed(2)))
	}
	for _, d := range result.Allocations {
		if d.AllocatedAmount.IsNegative() {
			return shared.NewValidationError("INVALID_AMOUNT",
				fmt.Sprintf("Allocation to invoice %s cannot be negative", d.InvoiceNo))
		}
		if d.AllocatedAmount.GreaterThan(d.Balance) {
			return shared.NewValidationError("OVER_ALLOCATION",
				fmt.Sprintf("Allocation %s exceeds invoice %s balance %s",
					d.AllocatedAmount.StringFixed(2), d.InvoiceNo, d.Balance.StringFixed(2)))
		}
	}
	if in.ForeignBankCharge.GreaterThan(decimal.Zero) || in.LocalBankCharge.GreaterThan(decimal.Zero) {
		charge := result.chargeDraft()
		if charge == nil || charge.AllocatedAmount.IsZero() {
			return shared.NewValidationError("CHARGE_INVOICE_REQUIRED",
				"Bank charges require a charge invoice with a non-zero allocation")
		}
		if charge.AllocatedAmount.LessThan(in.ForeignBankCharge) {
			return shared.NewValidationError("CHARGE_EXCEEDS_ALLOCATION",
				fmt.Sprintf("Foreign bank charge %s exceeds allocation %s on invoice %s",
					in.ForeignBankCharge.StringFixed(2), charge.AllocatedAmount.StringFixed(2), charge.InvoiceNo))
		}
	}
	return nil
}

// NonZero returns the drafts that move money
func (r *AllocationResult) NonZero() []AllocationDraft {
	out := make([]AllocationDraft, 0, len(r.Allocations))
	for _, d := range r.Allocations {
		if !d.AllocatedAmount.IsZero() {
			out = append(out, d)
		}
	}
	return out
}

func (r *AllocationResult) chargeDraft() *AllocationDraft {
	if r.ChargeInvoiceID == nil {
		return nil
	}
	for i := range r.Allocations {
		if r.Allocations[i].InvoiceID == *r.ChargeInvoiceID {
			return &r.Allocations[i]
		}
	}
	return nil
}

func resolveChargeInvoice(lines []AllocationLine, requested *uuid.UUID) (*uuid.UUID, bool, error) {
	if requested != nil {
		for _, l := range lines {
			if l.InvoiceID == *requested {
				id := l.InvoiceID
				return &id, false, nil
			}
		}
		return nil, false, shared.NewValidationError("UNKNOWN_CHARGE_INVOICE",
			fmt.Sprintf("Charge invoice %s is not part of this allocation", requested))
	}
	for _, l := range lines {
		if l.AllocatedAmount.GreaterThan(decimal.Zero) {
			id := l.InvoiceID
			return &id, true, nil
		}
	}
	return nil, false, nil
}

func adjustmentIndex(drafts []AllocationDraft, chargeID *uuid.UUID) int {
	if chargeID != nil {
		for i := range drafts {
			if drafts[i].InvoiceID == *chargeID {
				return i
			}
		}
	}
	for i := range drafts {
		if drafts[i].AllocatedAmount.GreaterThan(decimal.Zero) {
			return i
		}
	}
	return -1
}

func sumDrafts(drafts []AllocationDraft) (allocated, received decimal.Decimal) {
	allocated, received = decimal.Zero, decimal.Zero
	for _, d := range drafts {
		allocated = allocated.Add(d.AllocatedAmount)
		received = received.Add(d.ReceivedJPY)
	}
	return valueobject.Round2(allocated), valueobject.Round2(received)
}
