package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCatalogItemRepository implements receivable.CatalogItemRepository
type GormCatalogItemRepository struct {
	db *gorm.DB
}

func NewGormCatalogItemRepository(db *gorm.DB) *GormCatalogItemRepository {
	return &GormCatalogItemRepository{db: db}
}

func (r *GormCatalogItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*receivable.CatalogItem, error) {
	var model models.CatalogItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "catalog item", id)
	}
	return model.ToDomain(), nil
}

func (r *GormCatalogItemRepository) FindAll(ctx context.Context, activeOnly bool) ([]*receivable.CatalogItem, error) {
	query := r.db.WithContext(ctx).Order("item_name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.CatalogItemModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]*receivable.CatalogItem, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, nil
}

// Save inserts or fully replaces the catalog item.
func (r *GormCatalogItemRepository) Save(ctx context.Context, item *receivable.CatalogItem) error {
	return r.db.WithContext(ctx).Save(models.CatalogItemModelFromDomain(item)).Error
}

// GormInvoiceMetadataRepository stores the single issuer settings row
type GormInvoiceMetadataRepository struct {
	db *gorm.DB
}

func NewGormInvoiceMetadataRepository(db *gorm.DB) *GormInvoiceMetadataRepository {
	return &GormInvoiceMetadataRepository{db: db}
}

func (r *GormInvoiceMetadataRepository) Get(ctx context.Context) (*receivable.InvoiceMetadata, error) {
	var model models.InvoiceMetadataModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", models.InvoiceMetadataID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &receivable.InvoiceMetadata{}, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormInvoiceMetadataRepository) Save(ctx context.Context, metadata *receivable.InvoiceMetadata) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(models.InvoiceMetadataModelFromDomain(metadata)).Error
}

var (
	_ receivable.CatalogItemRepository     = (*GormCatalogItemRepository)(nil)
	_ receivable.InvoiceMetadataRepository = (*GormInvoiceMetadataRepository)(nil)
)
