package telemetry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeledger/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func newManualMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumFor(t *testing.T, data metricdata.Aggregation, kv attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, found := dp.Attributes.Value(kv.Key); found && v == kv.Value {
			total += dp.Value
		}
	}
	return total
}

type stubLedgerSnapshot struct {
	calls atomic.Int32
	due   map[string]decimal.Decimal
	err   error
}

func (s *stubLedgerSnapshot) AmountDueByCurrency(context.Context) (map[string]decimal.Decimal, error) {
	s.calls.Add(1)
	return s.due, s.err
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewLedgerMetrics(nil, nil, nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestLedgerMetrics_Counters(t *testing.T) {
	reader, mp := newManualMeter(t)
	lm, err := telemetry.NewLedgerMetrics(mp.Meter("ledger"), nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx := context.Background()
	lm.RecordPaymentApplied(ctx, "USD", decimal.RequireFromString("100"))
	lm.RecordPaymentApplied(ctx, "USD", decimal.RequireFromString("20"))
	lm.RecordPaymentApplied(ctx, "EUR", decimal.RequireFromString("5"))
	lm.RecordPaymentReversed(ctx, "USD")
	lm.RecordInvoiceChange(ctx, "create", "USD")
	lm.RecordInvoiceChange(ctx, "delete", "USD")
	lm.RecordReconciliation(ctx, 2, false)
	lm.RecordTask(ctx, "invoice:render", errors.New("chrome crashed"))

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, data["ledger_payments_applied_total"], telemetry.AttrCurrency.String("USD")))
	assert.Equal(t, int64(1), sumFor(t, data["ledger_payments_applied_total"], telemetry.AttrCurrency.String("EUR")))
	assert.Equal(t, int64(1), sumFor(t, data["ledger_payments_reversed_total"], telemetry.AttrCurrency.String("USD")))
	assert.Equal(t, int64(1), sumFor(t, data["ledger_invoice_changes_total"], telemetry.AttrOperation.String("delete")))
	assert.Equal(t, int64(1), sumFor(t, data["ledger_reconciliation_runs_total"], telemetry.AttrHealthy.Bool(false)))
	assert.Equal(t, int64(1), sumFor(t, data["ledger_task_outcomes_total"], telemetry.AttrTaskOutcome.String("failure")))

	drift, ok := data["ledger_reconciliation_drift"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, drift.DataPoints, 1)
	assert.Equal(t, int64(2), drift.DataPoints[0].Value)

	hist, ok := data["ledger_payment_allocated_amount"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestLedgerMetrics_PeriodicCollection(t *testing.T) {
	reader, mp := newManualMeter(t)
	provider := &stubLedgerSnapshot{due: map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("140.50"),
		"EUR": decimal.Zero,
	}}
	lm, err := telemetry.NewLedgerMetrics(mp.Meter("ledger"), provider, zaptest.NewLogger(t))
	require.NoError(t, err)

	lm.StartPeriodicCollection(context.Background(), 10*time.Millisecond)
	assert.Eventually(t, func() bool { return provider.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	lm.Stop()
	lm.Stop()

	gauge, ok := collect(t, reader)["ledger_amount_due"].(metricdata.Gauge[float64])
	require.True(t, ok)
	values := map[string]float64{}
	for _, dp := range gauge.DataPoints {
		v, _ := dp.Attributes.Value(telemetry.AttrCurrency)
		values[v.AsString()] = dp.Value
	}
	assert.InDelta(t, 140.50, values["USD"], 0.001)
	assert.Zero(t, values["EUR"])
}

func TestLedgerMetrics_CollectionErrorKeepsRunning(t *testing.T) {
	_, mp := newManualMeter(t)
	provider := &stubLedgerSnapshot{err: errors.New("db down")}
	lm, err := telemetry.NewLedgerMetrics(mp.Meter("ledger"), provider, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	lm.StartPeriodicCollection(ctx, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return provider.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	lm.Stop()
}
