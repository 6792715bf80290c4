package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository stores payments together with their allocation rows
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: tx}
}

func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*receivable.Payment, error) {
	var model models.PaymentModel
	err := r.db.WithContext(ctx).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "payment", id)
	}
	return model.ToDomain(), nil
}

func (r *GormPaymentRepository) FindAll(ctx context.Context, filter receivable.PaymentFilter) ([]*receivable.Payment, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.PaymentModel{})
		if filter.CustomerID != nil {
			query = query.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.Currency != nil {
			query = query.Where("currency = ?", filter.Currency.String())
		}
		if filter.FromDate != nil {
			query = query.Where("credit_date >= ?", *filter.FromDate)
		}
		if filter.ToDate != nil {
			query = query.Where("credit_date <= ?", *filter.ToDate)
		}
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			query = query.Where("LOWER(payment_no) LIKE ? OR LOWER(customer_name) LIKE ?", pattern, pattern)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PaymentModel
	err := paginate(scoped(), filter.Filter, PaymentSortFields, "created_at").
		Preload("Allocations").
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return paymentsToDomain(rows), total, nil
}

// FindLatestForCustomer returns the customer's newest payment by creation time.
func (r *GormPaymentRepository) FindLatestForCustomer(ctx context.Context, customerID uuid.UUID) (*receivable.Payment, error) {
	var model models.PaymentModel
	err := r.db.WithContext(ctx).
		Preload("Allocations").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Order("payment_no DESC").
		First(&model).Error
	if err != nil {
		return nil, notFoundOr(err, "latest payment for customer", customerID)
	}
	return model.ToDomain(), nil
}

func (r *GormPaymentRepository) ListAll(ctx context.Context) ([]*receivable.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// Create inserts the payment row and then its allocation rows in one
// transaction, nested as a savepoint when called inside a unit of work.
func (r *GormPaymentRepository) Create(ctx context.Context, payment *receivable.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	allocations := model.Allocations
	model.Allocations = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(allocations) == 0 {
			return nil
		}
		return tx.Create(&allocations).Error
	})
}

func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("payment_id = ?", id).Delete(&models.PaymentAllocationModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.PaymentModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("payment", id)
		}
		return nil
	})
}

func paymentsToDomain(rows []models.PaymentModel) []*receivable.Payment {
	out := make([]*receivable.Payment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// GormAllocationRepository reads allocation rows
type GormAllocationRepository struct {
	db *gorm.DB
}

func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

func (r *GormAllocationRepository) ListAll(ctx context.Context) ([]receivable.PaymentAllocation, error) {
	var rows []models.PaymentAllocationModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return allocationsToDomain(rows), nil
}

func (r *GormAllocationRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]receivable.PaymentAllocation, error) {
	var rows []models.PaymentAllocationModel
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return allocationsToDomain(rows), nil
}

func allocationsToDomain(rows []models.PaymentAllocationModel) []receivable.PaymentAllocation {
	out := make([]receivable.PaymentAllocation, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var (
	_ receivable.PaymentRepository    = (*GormPaymentRepository)(nil)
	_ receivable.AllocationRepository = (*GormAllocationRepository)(nil)
)
