package receivable

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const pdfContentType = "application/pdf"

// DocumentService renders invoice PDFs and stores them
type DocumentService struct {
	uow      UnitOfWork
	metadata receivable.InvoiceMetadataRepository
	renderer DocumentRenderer
	storage  ObjectStorage
	linkTTL  time.Duration
	logger   *zap.Logger
}

// NewDocumentService creates a new DocumentService. linkTTL bounds the
// lifetime of generated download links.
func NewDocumentService(
	uow UnitOfWork,
	metadata receivable.InvoiceMetadataRepository,
	renderer DocumentRenderer,
	storage ObjectStorage,
	linkTTL time.Duration,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if linkTTL <= 0 {
		linkTTL = 15 * time.Minute
	}
	return &DocumentService{
		uow:      uow,
		metadata: metadata,
		renderer: renderer,
		storage:  storage,
		linkTTL:  linkTTL,
		logger:   logger,
	}
}

// RenderInvoice renders the current version of an invoice, uploads it and
// records the storage key on the invoice
func (s *DocumentService) RenderInvoice(ctx context.Context, invoiceID uuid.UUID) (*DocumentLinkResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "render_invoice")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	inv, err := s.uow.Repositories().Invoices.FindByID(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	meta, err := s.metadata.Get(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load invoice metadata: %w", err)
	}

	doc := receivable.NewInvoiceDocument(inv, meta)
	var pdf []byte
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationRenderDocument, inv.Currency.String()), func(c context.Context) {
		pdf, err = s.renderer.RenderInvoice(c, doc)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to render invoice %s: %w", inv.InvoiceNo, err)
	}

	key := inv.DocumentKey()
	if err := s.storage.Upload(ctx, key, pdf, pdfContentType); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to upload invoice %s: %w", inv.InvoiceNo, err)
	}

	err = s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		fresh, err := repos.Invoices.FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		fresh.SetDocumentLink(key)
		return repos.Invoices.SaveWithLock(ctx, fresh)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Invoice document rendered",
		zap.String("invoice_no", inv.InvoiceNo),
		zap.String("storage_key", key),
		zap.Int("pages", doc.TotalPages()),
		zap.Int("bytes", len(pdf)),
	)
	return s.link(ctx, invoiceID, key)
}

// DownloadLink returns a time-limited link to the stored document
func (s *DocumentService) DownloadLink(ctx context.Context, invoiceID uuid.UUID) (*DocumentLinkResponse, error) {
	inv, err := s.uow.Repositories().Invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.InvoiceLink == "" {
		return nil, shared.NewPreconditionError("DOCUMENT_NOT_RENDERED",
			fmt.Sprintf("Invoice %s has no rendered document", inv.InvoiceNo))
	}
	return s.link(ctx, invoiceID, inv.InvoiceLink)
}

func (s *DocumentService) link(ctx context.Context, invoiceID uuid.UUID, key string) (*DocumentLinkResponse, error) {
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, s.linkTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate download link: %w", err)
	}
	return &DocumentLinkResponse{InvoiceID: invoiceID, URL: url, ExpiresAt: expiresAt}, nil
}
