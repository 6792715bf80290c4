package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func labelsIn(ctx context.Context) map[string]string {
	out := map[string]string{}
	pprof.ForLabels(ctx, func(key, value string) bool {
		out[key] = value
		return true
	})
	return out
}

func TestWithProfilingLabels(t *testing.T) {
	var got map[string]string
	WithProfilingLabels(context.Background(), LedgerOperationLabels(OperationApplyPayment, "USD"), func(ctx context.Context) {
		got = labelsIn(ctx)
	})
	assert.Equal(t, map[string]string{"operation": "apply_payment", "currency": "USD"}, got)
}

func TestWithProfilingLabels_Empty(t *testing.T) {
	called := false
	WithProfilingLabels(context.Background(), nil, func(ctx context.Context) {
		called = true
		assert.Empty(t, labelsIn(ctx))
	})
	assert.True(t, called)
}

func TestLedgerOperationLabels_OmitsEmptyCurrency(t *testing.T) {
	labels := LedgerOperationLabels(OperationReconcile, "")
	assert.Equal(t, map[string]string{"operation": "reconcile"}, labels)
}

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"Task-Type":  "invoice:render",
		"invoice_id": "d6c1",
		"route":      strings.Repeat("x", MaxLabelValueLength+10),
		"empty":      "",
		"!!":         "dropped",
	})
	// keys are sorted before sanitizing, so "Task-Type" precedes "route"
	assert.Equal(t, []string{
		"task_type", "invoice:render",
		"route", strings.Repeat("x", MaxLabelValueLength),
	}, pairs)
}

func TestHTTPRequestLabels(t *testing.T) {
	assert.Equal(t, map[string]string{"route": "/api/payments/:id", "method": "DELETE"},
		HTTPRequestLabels("/api/payments/:id", "DELETE"))
}
