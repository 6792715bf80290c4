package receivable

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

// DriftSubject names the record type a drift entry refers to
type DriftSubject string

const (
	DriftSubjectInvoice DriftSubject = "invoice"
	DriftSubjectPayment DriftSubject = "payment"
	DriftSubjectLedger  DriftSubject = "ledger"
)

// ChargeDrift compares stored charges with the sums of allocation rows
type ChargeDrift struct {
	Subject            DriftSubject    `json:"subject"`
	ID                 uuid.UUID       `json:"id"`
	Number             string          `json:"number"`
	StoredForeign      decimal.Decimal `json:"stored_foreign_bank_charge"`
	StoredLocal        decimal.Decimal `json:"stored_local_bank_charge"`
	AllocatedForeign   decimal.Decimal `json:"allocated_foreign_bank_charge"`
	AllocatedLocal     decimal.Decimal `json:"allocated_local_bank_charge"`
	ForeignDelta       decimal.Decimal `json:"foreign_delta"`
	LocalDelta         decimal.Decimal `json:"local_delta"`
	AllocationsScanned int             `json:"allocations_scanned"`
}

// AmountDrift is a single stored field that disagrees with its derived value
type AmountDrift struct {
	Subject DriftSubject    `json:"subject"`
	ID      string          `json:"id"`
	Number  string          `json:"number"`
	Field   string          `json:"field"`
	Stored  decimal.Decimal `json:"stored"`
	Derived decimal.Decimal `json:"derived"`
	Delta   decimal.Decimal `json:"delta"`
}

// OrphanAllocation is an allocation row whose parent no longer exists
type OrphanAllocation struct {
	AllocationID   uuid.UUID `json:"allocation_id"`
	PaymentID      uuid.UUID `json:"payment_id"`
	InvoiceID      uuid.UUID `json:"invoice_id"`
	InvoiceNo      string    `json:"invoice_no"`
	MissingPayment bool      `json:"missing_payment"`
	MissingInvoice bool      `json:"missing_invoice"`
}

// ChargeTotals is a grand total of bank charges
type ChargeTotals struct {
	ForeignBankCharge decimal.Decimal `json:"foreign_bank_charge"`
	LocalBankCharge   decimal.Decimal `json:"local_bank_charge"`
}

func (t ChargeTotals) closeTo(o ChargeTotals) bool {
	return valueobject.IsClose(t.ForeignBankCharge, o.ForeignBankCharge) &&
		valueobject.IsClose(t.LocalBankCharge, o.LocalBankCharge)
}

// ReconciliationInput is a point-in-time snapshot of every record involved
type ReconciliationInput struct {
	Invoices    []*Invoice
	Payments    []*Payment
	Allocations []PaymentAllocation
	Ledgers     []*CurrencyLedger
	CheckedAt   time.Time
}

// ReconciliationReport is the outcome of a reconciliation run
type ReconciliationReport struct {
	PaymentMismatches []ChargeDrift      `json:"payment_mismatches"`
	InvoiceMismatches []ChargeDrift      `json:"invoice_mismatches"`
	AmountDrifts      []AmountDrift      `json:"amount_drifts"`
	LedgerDrifts      []AmountDrift      `json:"ledger_drifts"`
	Orphans           []OrphanAllocation `json:"orphans"`
	InvoiceTotals     ChargeTotals       `json:"invoice_totals"`
	PaymentTotals     ChargeTotals       `json:"payment_totals"`
	AllocationTotals  ChargeTotals       `json:"allocation_totals"`
	TotalsAgree       bool               `json:"totals_agree"`
	LegacyRecords     int                `json:"legacy_records"`
	Healthy           bool               `json:"healthy"`
	CheckedAt         time.Time          `json:"checked_at"`
}

// DriftCount is the number of flagged entries
func (r *ReconciliationReport) DriftCount() int {
	return len(r.PaymentMismatches) + len(r.InvoiceMismatches) + len(r.AmountDrifts) +
		len(r.LedgerDrifts) + len(r.Orphans)
}

type allocationSums struct {
	foreign   decimal.Decimal
	local     decimal.Decimal
	allocated decimal.Decimal
	received  decimal.Decimal
	count     int
}

func (s *allocationSums) add(a *PaymentAllocation) {
	s.foreign = s.foreign.Add(a.ForeignBankCharge)
	s.local = s.local.Add(a.LocalBankCharge)
	s.allocated = s.allocated.Add(a.AllocatedAmount)
	s.received = s.received.Add(a.ReceivedJPY)
	s.count++
}

// CheckReconciliation re-derives aggregates from allocation rows and compares
// them with stored invoice, payment and ledger fields. It never mutates its input.
// Legacy invoices are counted but not checked for charges or received yen,
// since those fields did not exist when they were written.
func CheckReconciliation(in ReconciliationInput) *ReconciliationReport {
	report := &ReconciliationReport{
		PaymentMismatches: []ChargeDrift{},
		InvoiceMismatches: []ChargeDrift{},
		AmountDrifts:      []AmountDrift{},
		LedgerDrifts:      []AmountDrift{},
		Orphans:           []OrphanAllocation{},
		CheckedAt:         in.CheckedAt,
	}

	invoices := make(map[uuid.UUID]*Invoice, len(in.Invoices))
	for _, inv := range in.Invoices {
		invoices[inv.ID] = inv
	}
	payments := make(map[uuid.UUID]*Payment, len(in.Payments))
	for _, p := range in.Payments {
		payments[p.ID] = p
	}

	byPayment := make(map[uuid.UUID]*allocationSums)
	byInvoice := make(map[uuid.UUID]*allocationSums)
	for i := range in.Allocations {
		a := &in.Allocations[i]
		report.AllocationTotals.ForeignBankCharge = report.AllocationTotals.ForeignBankCharge.Add(a.ForeignBankCharge)
		report.AllocationTotals.LocalBankCharge = report.AllocationTotals.LocalBankCharge.Add(a.LocalBankCharge)

		_, hasPayment := payments[a.PaymentID]
		_, hasInvoice := invoices[a.InvoiceID]
		if !hasPayment || !hasInvoice {
			report.Orphans = append(report.Orphans, OrphanAllocation{
				AllocationID:   a.ID,
				PaymentID:      a.PaymentID,
				InvoiceID:      a.InvoiceID,
				InvoiceNo:      a.InvoiceNo,
				MissingPayment: !hasPayment,
				MissingInvoice: !hasInvoice,
			})
		}
		sumFor(byPayment, a.PaymentID).add(a)
		sumFor(byInvoice, a.InvoiceID).add(a)
	}

	for _, p := range in.Payments {
		report.PaymentTotals.ForeignBankCharge = report.PaymentTotals.ForeignBankCharge.Add(p.ForeignBankCharge)
		report.PaymentTotals.LocalBankCharge = report.PaymentTotals.LocalBankCharge.Add(p.LocalBankCharge)
		if p.IsLegacy() {
			report.LegacyRecords++
		}
		sums := sumFor(byPayment, p.ID)
		if drift, ok := chargeDrift(DriftSubjectPayment, p.ID, p.PaymentNo, p.ForeignBankCharge, p.LocalBankCharge, sums); ok {
			report.PaymentMismatches = append(report.PaymentMismatches, drift)
		}
		report.AmountDrifts = appendDrift(report.AmountDrifts, DriftSubjectPayment, p.ID.String(), p.PaymentNo,
			"allocated_amount", p.AllocatedAmount, sums.allocated)
		report.AmountDrifts = appendDrift(report.AmountDrifts, DriftSubjectPayment, p.ID.String(), p.PaymentNo,
			"amount_in_jpy", p.AmountInJPY, sums.received)
	}

	for _, inv := range in.Invoices {
		report.InvoiceTotals.ForeignBankCharge = report.InvoiceTotals.ForeignBankCharge.Add(inv.ForeignBankCharge)
		report.InvoiceTotals.LocalBankCharge = report.InvoiceTotals.LocalBankCharge.Add(inv.LocalBankCharge)
		sums := sumFor(byInvoice, inv.ID)
		report.AmountDrifts = appendDrift(report.AmountDrifts, DriftSubjectInvoice, inv.ID.String(), inv.InvoiceNo,
			"balance", inv.Balance, inv.TotalAmount.Sub(inv.AmountPaid))
		if inv.IsLegacy() {
			report.LegacyRecords++
			continue
		}
		if drift, ok := chargeDrift(DriftSubjectInvoice, inv.ID, inv.InvoiceNo, inv.ForeignBankCharge, inv.LocalBankCharge, sums); ok {
			report.InvoiceMismatches = append(report.InvoiceMismatches, drift)
		}
		report.AmountDrifts = appendDrift(report.AmountDrifts, DriftSubjectInvoice, inv.ID.String(), inv.InvoiceNo,
			"amount_paid", inv.AmountPaid, sums.allocated)
		report.AmountDrifts = appendDrift(report.AmountDrifts, DriftSubjectInvoice, inv.ID.String(), inv.InvoiceNo,
			"received_jpy", inv.ReceivedJPY, sums.received)
	}

	report.LedgerDrifts = checkLedgers(in.Ledgers, in.Payments)

	report.InvoiceTotals = roundTotals(report.InvoiceTotals)
	report.PaymentTotals = roundTotals(report.PaymentTotals)
	report.AllocationTotals = roundTotals(report.AllocationTotals)
	report.TotalsAgree = report.InvoiceTotals.closeTo(report.PaymentTotals) &&
		report.PaymentTotals.closeTo(report.AllocationTotals) &&
		report.InvoiceTotals.closeTo(report.AllocationTotals)

	sortChargeDrifts(report.PaymentMismatches)
	sortChargeDrifts(report.InvoiceMismatches)
	report.Healthy = report.TotalsAgree && report.DriftCount() == 0
	return report
}

// checkLedgers compares each ledger's payment-side totals with the sum of
// payments in its currency.
func checkLedgers(ledgers []*CurrencyLedger, payments []*Payment) []AmountDrift {
	type totals struct{ paid, jpy, foreign, local decimal.Decimal }
	byCurrency := make(map[valueobject.CurrencyCode]*totals)
	for _, p := range payments {
		t, ok := byCurrency[p.Currency]
		if !ok {
			t = &totals{}
			byCurrency[p.Currency] = t
		}
		t.paid = t.paid.Add(p.AllocatedAmount)
		t.jpy = t.jpy.Add(p.AmountInJPY)
		t.foreign = t.foreign.Add(p.ForeignBankCharge)
		t.local = t.local.Add(p.LocalBankCharge)
	}

	drifts := []AmountDrift{}
	for _, l := range ledgers {
		t, ok := byCurrency[l.Code]
		if !ok {
			t = &totals{}
		}
		code := l.Code.String()
		drifts = appendDrift(drifts, DriftSubjectLedger, code, code, "amount_paid", l.AmountPaid, t.paid)
		drifts = appendDrift(drifts, DriftSubjectLedger, code, code, "amount_in_jpy", l.AmountInJPY, t.jpy)
		drifts = appendDrift(drifts, DriftSubjectLedger, code, code, "foreign_bank_charge", l.ForeignBankCharge, t.foreign)
		drifts = appendDrift(drifts, DriftSubjectLedger, code, code, "local_bank_charge", l.LocalBankCharge, t.local)
	}
	return drifts
}

func sumFor(m map[uuid.UUID]*allocationSums, id uuid.UUID) *allocationSums {
	s, ok := m[id]
	if !ok {
		s = &allocationSums{}
		m[id] = s
	}
	return s
}

func chargeDrift(subject DriftSubject, id uuid.UUID, number string, foreign, local decimal.Decimal, sums *allocationSums) (ChargeDrift, bool) {
	allocForeign := valueobject.Round2(sums.foreign)
	allocLocal := valueobject.Round2(sums.local)
	if valueobject.IsClose(foreign, allocForeign) && valueobject.IsClose(local, allocLocal) {
		return ChargeDrift{}, false
	}
	return ChargeDrift{
		Subject:            subject,
		ID:                 id,
		Number:             number,
		StoredForeign:      foreign,
		StoredLocal:        local,
		AllocatedForeign:   allocForeign,
		AllocatedLocal:     allocLocal,
		ForeignDelta:       valueobject.Round2(foreign.Sub(allocForeign)),
		LocalDelta:         valueobject.Round2(local.Sub(allocLocal)),
		AllocationsScanned: sums.count,
	}, true
}

func appendDrift(drifts []AmountDrift, subject DriftSubject, id, number, field string, stored, derived decimal.Decimal) []AmountDrift {
	derived = valueobject.Round2(derived)
	if valueobject.IsClose(stored, derived) {
		return drifts
	}
	return append(drifts, AmountDrift{
		Subject: subject,
		ID:      id,
		Number:  number,
		Field:   field,
		Stored:  stored,
		Derived: derived,
		Delta:   valueobject.Round2(stored.Sub(derived)),
	})
}

func roundTotals(t ChargeTotals) ChargeTotals {
	return ChargeTotals{
		ForeignBankCharge: valueobject.Round2(t.ForeignBankCharge),
		LocalBankCharge:   valueobject.Round2(t.LocalBankCharge),
	}
}

func sortChargeDrifts(d []ChargeDrift) {
	sort.Slice(d, func(i, j int) bool { return d[i].Number < d[j].Number })
}
