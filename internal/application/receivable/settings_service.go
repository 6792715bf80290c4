package receivable

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"go.uber.org/zap"
)

// SettingsService manages the catalog of reusable line items and the
// issuer details printed on invoices
type SettingsService struct {
	catalog  receivable.CatalogItemRepository
	metadata receivable.InvoiceMetadataRepository
	logger   *zap.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(catalog receivable.CatalogItemRepository, metadata receivable.InvoiceMetadataRepository, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{catalog: catalog, metadata: metadata, logger: logger}
}

// CreateCatalogItem adds a line-item template
func (s *SettingsService) CreateCatalogItem(ctx context.Context, req CatalogItemRequest) (*CatalogItemResponse, error) {
	item, err := receivable.NewCatalogItem(req.ItemName, req.Description, req.PartNo, req.ItemCode, req.DefaultUnitPriceJPY)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save catalog item: %w", err)
	}
	resp := ToCatalogItemResponse(item)
	return &resp, nil
}

// DeactivateCatalogItem hides an item from new invoices
func (s *SettingsService) DeactivateCatalogItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return err
	}
	item.Deactivate()
	return s.catalog.Save(ctx, item)
}

// ListCatalogItems returns catalog items, optionally only active ones
func (s *SettingsService) ListCatalogItems(ctx context.Context, activeOnly bool) ([]CatalogItemResponse, error) {
	items, err := s.catalog.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]CatalogItemResponse, len(items))
	for i, item := range items {
		out[i] = ToCatalogItemResponse(item)
	}
	return out, nil
}

// GetMetadata returns the issuer settings
func (s *SettingsService) GetMetadata(ctx context.Context) (*receivable.InvoiceMetadata, error) {
	return s.metadata.Get(ctx)
}

// SaveMetadata validates and replaces the issuer settings
func (s *SettingsService) SaveMetadata(ctx context.Context, m *receivable.InvoiceMetadata) (*receivable.InvoiceMetadata, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.UpdatedAt = time.Now().UTC()
	if err := s.metadata.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save invoice metadata: %w", err)
	}
	s.logger.Info("Invoice metadata updated", zap.Int("bank_accounts", len(m.BankAccounts)))
	return m, nil
}
