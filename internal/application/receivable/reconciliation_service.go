package receivable

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReconciliationService loads a snapshot of every ledger record and runs
// the reconciliation checker over it
type ReconciliationService struct {
	uow     UnitOfWork
	logger  *zap.Logger
	metrics *telemetry.LedgerMetrics
	now     func() time.Time
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(uow UnitOfWork, logger *zap.Logger, metrics *telemetry.LedgerMetrics) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{uow: uow, logger: logger, metrics: metrics, now: time.Now}
}

// Run checks stored charges and amounts against the allocation rows. It
// only reads; drift is reported, never repaired.
func (s *ReconciliationService) Run(ctx context.Context) (*receivable.ReconciliationReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "run")
	defer span.End()

	var (
		report *receivable.ReconciliationReport
		err    error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationReconcile, ""), func(c context.Context) {
		var in receivable.ReconciliationInput
		in, err = s.snapshot(c)
		if err != nil {
			return
		}
		report = receivable.CheckReconciliation(in)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		"drift_count", report.DriftCount(),
		"healthy", report.Healthy,
		"legacy_records", report.LegacyRecords,
	)
	if s.metrics != nil {
		s.metrics.RecordReconciliation(ctx, int64(report.DriftCount()), report.Healthy)
	}

	fields := []zap.Field{
		zap.Int("payment_mismatches", len(report.PaymentMismatches)),
		zap.Int("invoice_mismatches", len(report.InvoiceMismatches)),
		zap.Int("amount_drifts", len(report.AmountDrifts)),
		zap.Int("ledger_drifts", len(report.LedgerDrifts)),
		zap.Int("orphans", len(report.Orphans)),
		zap.Bool("totals_agree", report.TotalsAgree),
		zap.Int("legacy_records", report.LegacyRecords),
	}
	if report.Healthy {
		s.logger.Info("Reconciliation passed", fields...)
	} else {
		s.logger.Warn("Reconciliation found drift", fields...)
	}
	return report, nil
}

func (s *ReconciliationService) snapshot(ctx context.Context) (receivable.ReconciliationInput, error) {
	repos := s.uow.Repositories()
	in := receivable.ReconciliationInput{CheckedAt: s.now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		invoices, err := repos.Invoices.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("failed to load invoices: %w", err)
		}
		in.Invoices = invoices
		return nil
	})
	g.Go(func() error {
		payments, err := repos.Payments.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("failed to load payments: %w", err)
		}
		in.Payments = payments
		return nil
	})
	g.Go(func() error {
		allocations, err := repos.Allocations.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("failed to load allocations: %w", err)
		}
		in.Allocations = allocations
		return nil
	})
	g.Go(func() error {
		ledgers, err := repos.Ledgers.FindAll(gctx)
		if err != nil {
			return fmt.Errorf("failed to load currency ledgers: %w", err)
		}
		in.Ledgers = ledgers
		return nil
	})
	if err := g.Wait(); err != nil {
		return receivable.ReconciliationInput{}, err
	}
	return in, nil
}
