package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
	"github.com/tradeledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements receivable.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *GormInvoiceRepository) WithTx(tx *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: tx}
}

func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*receivable.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "invoice", id)
	}
	return model.ToDomain(), nil
}

func (r *GormInvoiceRepository) FindByInvoiceNo(ctx context.Context, invoiceNo string) (*receivable.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "invoice_no = ?", invoiceNo).Error; err != nil {
		return nil, notFoundOr(err, "invoice", invoiceNo)
	}
	return model.ToDomain(), nil
}

func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter receivable.InvoiceFilter) ([]*receivable.Invoice, int64, error) {
	scoped := func() *gorm.DB {
		return r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), filter)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InvoiceModel
	if err := paginate(scoped(), filter.Filter, InvoiceSortFields, "date").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return invoicesToDomain(rows), total, nil
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter receivable.InvoiceFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Currency != nil {
		query = query.Where("currency = ?", filter.Currency.String())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(invoice_no) LIKE ? OR LOWER(customer_name) LIKE ?", pattern, pattern)
	}
	return query
}

func (r *GormInvoiceRepository) FindOpenForCustomer(ctx context.Context, customerID uuid.UUID, currency valueobject.CurrencyCode) ([]*receivable.Invoice, error) {
	var rows []models.InvoiceModel
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND currency = ?", customerID, currency.String()).
		Where("status IN ?", []string{
			string(receivable.InvoiceStatusPending),
			string(receivable.InvoiceStatusPartiallyPaid),
		}).
		Where("balance > 0").
		Order("date ASC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return invoicesToDomain(rows), nil
}

func (r *GormInvoiceRepository) ListAll(ctx context.Context) ([]*receivable.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return invoicesToDomain(rows), nil
}

func (r *GormInvoiceRepository) ExistsByInvoiceNo(ctx context.Context, invoiceNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("invoice_no = ?", invoiceNo).
		Count(&count).Error
	return count > 0, err
}

func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *receivable.Invoice) error {
	err := r.db.WithContext(ctx).Create(models.InvoiceModelFromDomain(invoice)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewValidationError("DUPLICATE_INVOICE_NUMBER", "invoice number "+invoice.InvoiceNo+" already exists")
	}
	return err
}

// SaveWithLock writes every column when the stored version still matches
// invoice.Version, then bumps the version on both sides.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *receivable.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	model.Version = invoice.Version + 1

	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return staleWrite("invoice")
	}
	invoice.IncrementVersion()
	return nil
}

func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.InvoiceModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("invoice", id)
	}
	return nil
}

func invoicesToDomain(rows []models.InvoiceModel) []*receivable.Invoice {
	out := make([]*receivable.Invoice, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ receivable.InvoiceRepository = (*GormInvoiceRepository)(nil)
