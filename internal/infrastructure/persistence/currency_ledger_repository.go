package persistence

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
	"github.com/tradeledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCurrencyLedgerRepository implements receivable.CurrencyLedgerRepository
type GormCurrencyLedgerRepository struct {
	db *gorm.DB
}

func NewGormCurrencyLedgerRepository(db *gorm.DB) *GormCurrencyLedgerRepository {
	return &GormCurrencyLedgerRepository{db: db}
}

func (r *GormCurrencyLedgerRepository) FindByCode(ctx context.Context, code valueobject.CurrencyCode) (*receivable.CurrencyLedger, error) {
	var model models.CurrencyLedgerModel
	if err := r.db.WithContext(ctx).First(&model, "code = ?", code.String()).Error; err != nil {
		return nil, notFoundOr(err, "currency ledger", code)
	}
	return model.ToDomain(), nil
}

func (r *GormCurrencyLedgerRepository) FindAll(ctx context.Context) ([]*receivable.CurrencyLedger, error) {
	var rows []models.CurrencyLedgerModel
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	ledgers := make([]*receivable.CurrencyLedger, len(rows))
	for i := range rows {
		ledgers[i] = rows[i].ToDomain()
	}
	return ledgers, nil
}

func (r *GormCurrencyLedgerRepository) Create(ctx context.Context, ledger *receivable.CurrencyLedger) error {
	err := r.db.WithContext(ctx).Create(models.CurrencyLedgerModelFromDomain(ledger)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainError("ALREADY_EXISTS", "currency "+ledger.Code.String()+" is already seeded")
	}
	return err
}

func (r *GormCurrencyLedgerRepository) SaveWithLock(ctx context.Context, ledger *receivable.CurrencyLedger) error {
	model := models.CurrencyLedgerModelFromDomain(ledger)
	model.Version = ledger.Version + 1

	result := r.db.WithContext(ctx).
		Model(&models.CurrencyLedgerModel{}).
		Where("id = ? AND version = ?", ledger.ID, ledger.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return staleWrite("currency ledger")
	}
	ledger.IncrementVersion()
	return nil
}

// AmountDueByCurrency feeds the ledger_amount_due gauge.
func (r *GormCurrencyLedgerRepository) AmountDueByCurrency(ctx context.Context) (map[string]decimal.Decimal, error) {
	var rows []struct {
		Code      string
		AmountDue decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.CurrencyLedgerModel{}).
		Select("code, amount_due").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	due := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		due[row.Code] = row.AmountDue
	}
	return due, nil
}

var _ receivable.CurrencyLedgerRepository = (*GormCurrencyLedgerRepository)(nil)
