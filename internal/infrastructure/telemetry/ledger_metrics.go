package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// LedgerSnapshotProvider reports the outstanding balance of every currency
// ledger for the periodic gauges.
type LedgerSnapshotProvider interface {
	AmountDueByCurrency(ctx context.Context) (map[string]decimal.Decimal, error)
}

// LedgerMetrics records payment, invoice and reconciliation activity.
type LedgerMetrics struct {
	logger *zap.Logger

	paymentsApplied     *Counter
	paymentsReversed    *Counter
	allocatedAmount     *Histogram
	invoiceChanges      *Counter
	reconciliationRuns  *Counter
	reconciliationDrift *Gauge
	amountDue           *FloatGauge
	taskOutcomes        *Counter

	provider LedgerSnapshotProvider
	stopChan chan struct{}
	stopOnce sync.Once
	runOnce  sync.Once
	wg       sync.WaitGroup
}

// NewLedgerMetrics creates the ledger instruments on meter. provider may be
// nil, in which case StartPeriodicCollection is a no-op.
func NewLedgerMetrics(meter metric.Meter, provider LedgerSnapshotProvider, logger *zap.Logger) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	lm := &LedgerMetrics{
		logger:   logger,
		provider: provider,
		stopChan: make(chan struct{}),
	}

	var err error
	if lm.paymentsApplied, err = NewCounter(meter, "ledger_payments_applied_total", "Payments applied to invoices", "{payments}"); err != nil {
		return nil, err
	}
	if lm.paymentsReversed, err = NewCounter(meter, "ledger_payments_reversed_total", "Payments reversed", "{payments}"); err != nil {
		return nil, err
	}
	if lm.allocatedAmount, err = NewHistogram(meter, "ledger_payment_allocated_amount", "Allocated amount per payment in payment currency", "{currency}"); err != nil {
		return nil, err
	}
	if lm.invoiceChanges, err = NewCounter(meter, "ledger_invoice_changes_total", "Invoice create, update and delete operations", "{invoices}"); err != nil {
		return nil, err
	}
	if lm.reconciliationRuns, err = NewCounter(meter, "ledger_reconciliation_runs_total", "Reconciliation checks by outcome", "{runs}"); err != nil {
		return nil, err
	}
	if lm.reconciliationDrift, err = NewGauge(meter, "ledger_reconciliation_drift", "Number of drifting totals found by the last reconciliation", "{checks}"); err != nil {
		return nil, err
	}
	if lm.amountDue, err = NewFloatGauge(meter, "ledger_amount_due", "Outstanding receivable per currency ledger", "{currency}"); err != nil {
		return nil, err
	}
	if lm.taskOutcomes, err = NewCounter(meter, "ledger_task_outcomes_total", "Background task executions by outcome", "{tasks}"); err != nil {
		return nil, err
	}
	return lm, nil
}

// RecordPaymentApplied counts an applied payment and its allocated amount.
func (lm *LedgerMetrics) RecordPaymentApplied(ctx context.Context, currency string, allocated decimal.Decimal) {
	lm.paymentsApplied.Inc(ctx, AttrCurrency.String(currency))
	lm.allocatedAmount.Record(ctx, allocated.InexactFloat64(), AttrCurrency.String(currency))
}

// RecordPaymentReversed counts a reversed payment.
func (lm *LedgerMetrics) RecordPaymentReversed(ctx context.Context, currency string) {
	lm.paymentsReversed.Inc(ctx, AttrCurrency.String(currency))
}

// RecordInvoiceChange counts an invoice write; op is create, update or delete.
func (lm *LedgerMetrics) RecordInvoiceChange(ctx context.Context, op, currency string) {
	lm.invoiceChanges.Inc(ctx, AttrOperation.String(op), AttrCurrency.String(currency))
}

// RecordReconciliation records the outcome of a reconciliation run.
func (lm *LedgerMetrics) RecordReconciliation(ctx context.Context, driftCount int64, healthy bool) {
	lm.reconciliationRuns.Inc(ctx, AttrHealthy.Bool(healthy))
	lm.reconciliationDrift.Record(ctx, driftCount)
}

// RecordTask counts a background task execution.
func (lm *LedgerMetrics) RecordTask(ctx context.Context, taskType string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	lm.taskOutcomes.Inc(ctx, AttrTaskType.String(taskType), AttrTaskOutcome.String(outcome))
}

// StartPeriodicCollection samples ledger balances every interval (5m when
// zero) until ctx is done or Stop is called.
func (lm *LedgerMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if lm.provider == nil {
		return
	}
	lm.runOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		lm.wg.Add(1)
		go lm.run(ctx, interval)
	})
}

func (lm *LedgerMetrics) run(ctx context.Context, interval time.Duration) {
	defer lm.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lm.collect(ctx)
	for {
		select {
		case <-lm.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			lm.collect(ctx)
		}
	}
}

func (lm *LedgerMetrics) collect(ctx context.Context) {
	due, err := lm.provider.AmountDueByCurrency(ctx)
	if err != nil {
		lm.logger.Warn("Failed to sample ledger balances", zap.Error(err))
		return
	}
	for currency, amount := range due {
		lm.amountDue.Record(ctx, amount.InexactFloat64(), AttrCurrency.String(currency))
	}
}

// Stop ends periodic collection and waits for the collector to exit.
func (lm *LedgerMetrics) Stop() {
	lm.stopOnce.Do(func() {
		close(lm.stopChan)
		lm.wg.Wait()
	})
}
