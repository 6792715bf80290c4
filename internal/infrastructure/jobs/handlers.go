package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DocumentRenderer renders and stores one invoice document.
type DocumentRenderer interface {
	RenderInvoice(ctx context.Context, invoiceID uuid.UUID) (*appreceivable.DocumentLinkResponse, error)
}

// Reconciler runs one reconciliation pass.
type Reconciler interface {
	Run(ctx context.Context) (*receivable.ReconciliationReport, error)
}

// Handlers executes ledger tasks against the application services.
type Handlers struct {
	documents  DocumentRenderer
	reconciler Reconciler
	metrics    *telemetry.LedgerMetrics
	logger     *zap.Logger
}

// NewHandlers creates task handlers. documents or reconciler may be nil, in
// which case the matching task type is not registered.
func NewHandlers(documents DocumentRenderer, reconciler Reconciler, metrics *telemetry.LedgerMetrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		documents:  documents,
		reconciler: reconciler,
		metrics:    metrics,
		logger:     logger.Named("jobs"),
	}
}

// TaskHandlers lists the handlers to mount on a worker.
func (h *Handlers) TaskHandlers() []TaskHandler {
	var out []TaskHandler
	if h.documents != nil {
		out = append(out, TaskHandler{Type: TaskInvoiceDocument, Handler: h.HandleInvoiceDocument})
	}
	if h.reconciler != nil {
		out = append(out, TaskHandler{Type: TaskReconcile, Handler: h.HandleReconcile})
	}
	return out
}

// HandleInvoiceDocument processes TaskInvoiceDocument. A deleted invoice
// is not retried.
func (h *Handlers) HandleInvoiceDocument(ctx context.Context, t *asynq.Task) error {
	var payload InvoiceDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.InvoiceID == uuid.Nil {
		h.logger.Warn("Dropping malformed document task", zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("decode document payload: %w", asynq.SkipRetry)
	}

	log := h.logger.With(zap.String("invoice_id", payload.InvoiceID.String()))
	link, err := h.documents.RenderInvoice(ctx, payload.InvoiceID)
	h.record(ctx, TaskInvoiceDocument, err)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			log.Info("Invoice gone before rendering")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		log.Error("Invoice rendering failed", zap.Error(err))
		return err
	}
	log.Info("Invoice document stored", zap.Time("link_expires_at", link.ExpiresAt))
	return nil
}

// HandleReconcile processes TaskReconcile. Drift is logged by the
// reconciler and never fails the task.
func (h *Handlers) HandleReconcile(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode reconcile payload: %w", asynq.SkipRetry)
		}
	}

	report, err := h.reconciler.Run(ctx)
	h.record(ctx, TaskReconcile, err)
	if err != nil {
		h.logger.Error("Reconciliation task failed", zap.String("trigger", payload.Trigger), zap.Error(err))
		return err
	}
	h.logger.Info("Reconciliation task finished",
		zap.String("trigger", payload.Trigger),
		zap.Bool("healthy", report.Healthy),
		zap.Int("drift_count", report.DriftCount()),
	)
	return nil
}

func (h *Handlers) record(ctx context.Context, taskType string, err error) {
	if h.metrics != nil {
		h.metrics.RecordTask(ctx, taskType, err)
	}
}
