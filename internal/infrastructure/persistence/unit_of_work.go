package persistence

import (
	"context"

	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
	"gorm.io/gorm"
)

// GormUnitOfWork runs receivable writes inside one database transaction.
type GormUnitOfWork struct {
	db    *gorm.DB
	repos appreceivable.Repositories
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db, repos: repositoriesFor(db)}
}

// Do commits when fn returns nil and rolls back every write otherwise.
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos appreceivable.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, repositoriesFor(tx))
	})
}

func (u *GormUnitOfWork) Repositories() appreceivable.Repositories {
	return u.repos
}

func repositoriesFor(db *gorm.DB) appreceivable.Repositories {
	return appreceivable.Repositories{
		Invoices:    NewGormInvoiceRepository(db),
		Payments:    NewGormPaymentRepository(db),
		Allocations: NewGormAllocationRepository(db),
		Customers:   NewGormCustomerRepository(db),
		Ledgers:     NewGormCurrencyLedgerRepository(db),
	}
}

var _ appreceivable.UnitOfWork = (*GormUnitOfWork)(nil)
