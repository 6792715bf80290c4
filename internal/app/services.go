package app

import (
	"context"
	"fmt"

	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
	"github.com/tradeledger/backend/internal/infrastructure/cache"
	"github.com/tradeledger/backend/internal/infrastructure/exchangerate"
	"github.com/tradeledger/backend/internal/infrastructure/jobs"
	"github.com/tradeledger/backend/internal/infrastructure/persistence"
	"github.com/tradeledger/backend/internal/infrastructure/printing"
	"github.com/tradeledger/backend/internal/infrastructure/storage"
)

// DocumentsPath is the route prefix serving documents kept in memory.
const DocumentsPath = "/documents"

// Services is the application layer assembled over a Runtime.
type Services struct {
	Currencies     *appreceivable.CurrencyService
	Customers      *appreceivable.CustomerService
	Invoices       *appreceivable.InvoiceService
	Payments       *appreceivable.PaymentService
	Rates          *appreceivable.RateService
	Reconciliation *appreceivable.ReconciliationService
	Settings       *appreceivable.SettingsService
	Documents      *appreceivable.DocumentService // nil when rendering is disabled

	// LocalFiles is set when documents are kept in process instead of S3.
	LocalFiles *storage.MemoryStorage
	// Queue is set when redis is reachable.
	Queue *jobs.Client

	closers []func() error
}

// ServiceOptions selects the optional parts of the service graph.
type ServiceOptions struct {
	// Documents wires the chromedp renderer and object storage.
	Documents bool
	// EnqueueDocuments renders invoice PDFs through the task queue after
	// every invoice write. Requires redis.
	EnqueueDocuments bool
}

// NewServices builds the receivables services on top of rt.
func NewServices(ctx context.Context, rt *Runtime, opts ServiceOptions) (*Services, error) {
	cfg := rt.Config
	log := rt.Logger
	db := rt.DB.DB
	uow := persistence.NewGormUnitOfWork(db)
	s := &Services{}

	var upstream appreceivable.RateProvider = exchangerate.NewClient(cfg.Rates.BaseURL, cfg.Rates.Timeout,
		exchangerate.WithLogger(log))
	if rt.Redis != nil {
		upstream = cache.NewRateCache(upstream, rt.Redis, cfg.Rates.CacheTTL, log)
	}
	s.Rates = appreceivable.NewRateService(upstream, log)

	if rt.Redis != nil {
		s.Queue = jobs.NewClient(jobs.RedisOpt(cfg.Redis), jobs.ClientOptions{
			DocumentMaxRetry: cfg.Worker.DocumentMaxRetry,
			DocumentTimeout:  cfg.Worker.DocumentTaskTimeout,
		}, log)
		s.closers = append(s.closers, s.Queue.Close)
	}

	invoiceOpts := []appreceivable.InvoiceServiceOption{
		appreceivable.WithInvoiceLogger(log),
		appreceivable.WithInvoiceMetrics(rt.Metrics),
	}
	if opts.EnqueueDocuments && s.Queue != nil {
		invoiceOpts = append(invoiceOpts, appreceivable.WithDocumentEnqueuer(s.Queue))
	}

	metadata := persistence.NewGormInvoiceMetadataRepository(db)
	s.Currencies = appreceivable.NewCurrencyService(uow, log)
	s.Customers = appreceivable.NewCustomerService(uow, log)
	s.Invoices = appreceivable.NewInvoiceService(uow, invoiceOpts...)
	s.Payments = appreceivable.NewPaymentService(uow,
		appreceivable.WithPaymentLogger(log),
		appreceivable.WithPaymentMetrics(rt.Metrics),
	)
	s.Reconciliation = appreceivable.NewReconciliationService(uow, log, rt.Metrics)
	s.Settings = appreceivable.NewSettingsService(persistence.NewGormCatalogItemRepository(db), metadata, log)

	if opts.Documents {
		if err := s.initDocuments(ctx, rt, uow, metadata); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Services) initDocuments(ctx context.Context, rt *Runtime, uow appreceivable.UnitOfWork, metadata *persistence.GormInvoiceMetadataRepository) error {
	cfg := rt.Config
	log := rt.Logger

	var objects appreceivable.ObjectStorage
	if cfg.Storage.Bucket != "" && cfg.Storage.AccessKey != "" {
		s3, err := storage.NewS3Storage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return fmt.Errorf("init document storage: %w", err)
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure document bucket: %w", err)
		}
		objects = s3
	} else {
		s.LocalFiles = storage.NewMemoryStorage(fmt.Sprintf("http://localhost:%s%s", cfg.App.Port, DocumentsPath))
		objects = s.LocalFiles
		log.Warn("No storage credentials configured, keeping invoice documents in memory")
	}

	chrome, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		ExecPath:       cfg.Worker.ChromePath,
		NoSandbox:      true,
		DefaultTimeout: cfg.Worker.RenderTimeout,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("init pdf renderer: %w", err)
	}
	s.closers = append(s.closers, chrome.Close)

	renderer, err := printing.NewInvoiceRenderer(chrome)
	if err != nil {
		return fmt.Errorf("init invoice renderer: %w", err)
	}
	s.Documents = appreceivable.NewDocumentService(uow, metadata, renderer, objects, cfg.Storage.PresignExpiration, log)
	return nil
}

// Close releases the queue client and the browser allocator.
func (s *Services) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}
