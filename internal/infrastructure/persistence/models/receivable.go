package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	InvoiceNo         string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_invoice_customer_open,priority:1"`
	CustomerName      string          `gorm:"type:varchar(200);not null"`
	Currency          string          `gorm:"type:varchar(3);not null;index:idx_invoice_customer_open,priority:2"`
	Date              time.Time       `gorm:"not null;index"`
	Status            string          `gorm:"type:varchar(20);not null;index:idx_invoice_customer_open,priority:3"`
	ExchangeRate      decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	MarkupMode        string          `gorm:"type:varchar(10);not null"`
	MarkupValue       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ItemGroups        ItemGroups      `gorm:"type:jsonb;not null;default:'[]'"`
	TotalCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalJPY          decimal.Decimal `gorm:"column:total_jpy;type:decimal(18,4);not null"`
	TotalProfitJPY    decimal.Decimal `gorm:"column:total_profit_jpy;type:decimal(18,4);not null"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AmountPaid        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Balance           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ForeignBankCharge decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LocalBankCharge   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReceivedJPY       decimal.Decimal `gorm:"column:received_jpy;type:decimal(18,4);not null"`
	ItemsPerPage      int             `gorm:"not null;default:20"`
	Remarks           string          `gorm:"type:text"`
	BankAccountID     string          `gorm:"type:varchar(64)"`
	InvoiceLink       string          `gorm:"type:varchar(500)"`
	TemplateVersion   int             `gorm:"not null;default:1"`
	DocumentSource    string          `gorm:"type:varchar(10);not null;default:'system'"`
}

func (InvoiceModel) TableName() string {
	return "invoices"
}

func (m *InvoiceModel) ToDomain() *receivable.Invoice {
	return &receivable.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNo:         m.InvoiceNo,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		Currency:          valueobject.CurrencyCode(m.Currency),
		Date:              m.Date,
		Status:            receivable.InvoiceStatus(m.Status),
		ExchangeRate:      m.ExchangeRate,
		MarkupMode:        receivable.MarkupMode(m.MarkupMode),
		MarkupValue:       m.MarkupValue,
		ItemGroups:        m.ItemGroups.ToDomain(),
		TotalCost:         m.TotalCost,
		TotalJPY:          m.TotalJPY,
		TotalProfitJPY:    m.TotalProfitJPY,
		TotalAmount:       m.TotalAmount,
		AmountPaid:        m.AmountPaid,
		Balance:           m.Balance,
		ForeignBankCharge: m.ForeignBankCharge,
		LocalBankCharge:   m.LocalBankCharge,
		ReceivedJPY:       m.ReceivedJPY,
		ItemsPerPage:      m.ItemsPerPage,
		Remarks:           m.Remarks,
		BankAccountID:     m.BankAccountID,
		InvoiceLink:       m.InvoiceLink,
		TemplateVersion:   m.TemplateVersion,
		DocumentSource:    receivable.DocumentSource(m.DocumentSource),
	}
}

func InvoiceModelFromDomain(inv *receivable.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		InvoiceNo:         inv.InvoiceNo,
		CustomerID:        inv.CustomerID,
		CustomerName:      inv.CustomerName,
		Currency:          inv.Currency.String(),
		Date:              inv.Date,
		Status:            string(inv.Status),
		ExchangeRate:      inv.ExchangeRate,
		MarkupMode:        string(inv.MarkupMode),
		MarkupValue:       inv.MarkupValue,
		ItemGroups:        ItemGroupsFromDomain(inv.ItemGroups),
		TotalCost:         inv.TotalCost,
		TotalJPY:          inv.TotalJPY,
		TotalProfitJPY:    inv.TotalProfitJPY,
		TotalAmount:       inv.TotalAmount,
		AmountPaid:        inv.AmountPaid,
		Balance:           inv.Balance,
		ForeignBankCharge: inv.ForeignBankCharge,
		LocalBankCharge:   inv.LocalBankCharge,
		ReceivedJPY:       inv.ReceivedJPY,
		ItemsPerPage:      inv.ItemsPerPage,
		Remarks:           inv.Remarks,
		BankAccountID:     inv.BankAccountID,
		InvoiceLink:       inv.InvoiceLink,
		TemplateVersion:   inv.TemplateVersion,
		DocumentSource:    string(inv.DocumentSource),
	}
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	AggregateModel
	PaymentNo         string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID        uuid.UUID                `gorm:"type:uuid;not null;index:idx_payment_customer_created,priority:1"`
	CustomerName      string                   `gorm:"type:varchar(200);not null"`
	Currency          string                   `gorm:"type:varchar(3);not null;index"`
	Amount            decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	ExchangeRate      decimal.Decimal          `gorm:"type:decimal(18,6);not null"`
	AllocatedAmount   decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	AmountInJPY       decimal.Decimal          `gorm:"column:amount_in_jpy;type:decimal(18,4);not null"`
	ForeignBankCharge decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	LocalBankCharge   decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	PaymentDate       time.Time                `gorm:"not null"`
	CreditDate        time.Time                `gorm:"not null;index"`
	Allocations       []PaymentAllocationModel `gorm:"foreignKey:PaymentID;references:ID"`
}

func (PaymentModel) TableName() string {
	return "payments"
}

func (m *PaymentModel) ToDomain() *receivable.Payment {
	p := &receivable.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PaymentNo:         m.PaymentNo,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		Currency:          valueobject.CurrencyCode(m.Currency),
		Amount:            m.Amount,
		ExchangeRate:      m.ExchangeRate,
		AllocatedAmount:   m.AllocatedAmount,
		AmountInJPY:       m.AmountInJPY,
		ForeignBankCharge: m.ForeignBankCharge,
		LocalBankCharge:   m.LocalBankCharge,
		PaymentDate:       m.PaymentDate,
		CreditDate:        m.CreditDate,
	}
	if len(m.Allocations) > 0 {
		p.Allocations = make([]receivable.PaymentAllocation, len(m.Allocations))
		for i := range m.Allocations {
			p.Allocations[i] = m.Allocations[i].ToDomain()
		}
	}
	return p
}

func PaymentModelFromDomain(p *receivable.Payment) *PaymentModel {
	m := &PaymentModel{
		PaymentNo:         p.PaymentNo,
		CustomerID:        p.CustomerID,
		CustomerName:      p.CustomerName,
		Currency:          p.Currency.String(),
		Amount:            p.Amount,
		ExchangeRate:      p.ExchangeRate,
		AllocatedAmount:   p.AllocatedAmount,
		AmountInJPY:       p.AmountInJPY,
		ForeignBankCharge: p.ForeignBankCharge,
		LocalBankCharge:   p.LocalBankCharge,
		PaymentDate:       p.PaymentDate,
		CreditDate:        p.CreditDate,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	for i := range p.Allocations {
		m.Allocations = append(m.Allocations, *PaymentAllocationModelFromDomain(&p.Allocations[i]))
	}
	return m
}

// PaymentAllocationModel is one allocation row. Rows are immutable.
type PaymentAllocationModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	PaymentID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceNo         string          `gorm:"type:varchar(50);not null"`
	AllocatedAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ForeignBankCharge decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LocalBankCharge   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReceivedJPY       decimal.Decimal `gorm:"column:received_jpy;type:decimal(18,4);not null"`
	ExchangeRate      decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	CreatedAt         time.Time       `gorm:"not null"`
}

func (PaymentAllocationModel) TableName() string {
	return "payment_allocations"
}

func (m *PaymentAllocationModel) ToDomain() receivable.PaymentAllocation {
	return receivable.PaymentAllocation{
		ID:                m.ID,
		PaymentID:         m.PaymentID,
		InvoiceID:         m.InvoiceID,
		InvoiceNo:         m.InvoiceNo,
		AllocatedAmount:   m.AllocatedAmount,
		ForeignBankCharge: m.ForeignBankCharge,
		LocalBankCharge:   m.LocalBankCharge,
		ReceivedJPY:       m.ReceivedJPY,
		ExchangeRate:      m.ExchangeRate,
		CreatedAt:         m.CreatedAt,
	}
}

func PaymentAllocationModelFromDomain(a *receivable.PaymentAllocation) *PaymentAllocationModel {
	return &PaymentAllocationModel{
		ID:                a.ID,
		PaymentID:         a.PaymentID,
		InvoiceID:         a.InvoiceID,
		InvoiceNo:         a.InvoiceNo,
		AllocatedAmount:   a.AllocatedAmount,
		ForeignBankCharge: a.ForeignBankCharge,
		LocalBankCharge:   a.LocalBankCharge,
		ReceivedJPY:       a.ReceivedJPY,
		ExchangeRate:      a.ExchangeRate,
		CreatedAt:         a.CreatedAt,
	}
}

// CustomerModel is the persistence model for the Customer aggregate root.
type CustomerModel struct {
	AggregateModel
	Name        string          `gorm:"type:varchar(200);not null;index"`
	Email       string          `gorm:"type:varchar(200)"`
	Phone       string          `gorm:"type:varchar(50)"`
	Address     string          `gorm:"type:text"`
	Currency    string          `gorm:"type:varchar(3);not null"`
	AmountInJPY decimal.Decimal `gorm:"column:amount_in_jpy;type:decimal(18,4);not null"`
}

func (CustomerModel) TableName() string {
	return "customers"
}

func (m *CustomerModel) ToDomain() *receivable.Customer {
	return &receivable.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Email:             m.Email,
		Phone:             m.Phone,
		Address:           m.Address,
		Currency:          valueobject.CurrencyCode(m.Currency),
		AmountInJPY:       m.AmountInJPY,
	}
}

func CustomerModelFromDomain(c *receivable.Customer) *CustomerModel {
	m := &CustomerModel{
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		Currency:    c.Currency.String(),
		AmountInJPY: c.AmountInJPY,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// CurrencyLedgerModel holds the running totals for one currency.
type CurrencyLedgerModel struct {
	AggregateModel
	Code              string          `gorm:"type:varchar(3);not null;uniqueIndex"`
	Name              string          `gorm:"type:varchar(100);not null"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AmountDue         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AmountPaid        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AmountInJPY       decimal.Decimal `gorm:"column:amount_in_jpy;type:decimal(18,4);not null"`
	ForeignBankCharge decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LocalBankCharge   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

func (CurrencyLedgerModel) TableName() string {
	return "currency_ledgers"
}

func (m *CurrencyLedgerModel) ToDomain() *receivable.CurrencyLedger {
	return &receivable.CurrencyLedger{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              valueobject.CurrencyCode(m.Code),
		Name:              m.Name,
		TotalAmount:       m.TotalAmount,
		AmountDue:         m.AmountDue,
		AmountPaid:        m.AmountPaid,
		AmountInJPY:       m.AmountInJPY,
		ForeignBankCharge: m.ForeignBankCharge,
		LocalBankCharge:   m.LocalBankCharge,
	}
}

func CurrencyLedgerModelFromDomain(l *receivable.CurrencyLedger) *CurrencyLedgerModel {
	m := &CurrencyLedgerModel{
		Code:              l.Code.String(),
		Name:              l.Name,
		TotalAmount:       l.TotalAmount,
		AmountDue:         l.AmountDue,
		AmountPaid:        l.AmountPaid,
		AmountInJPY:       l.AmountInJPY,
		ForeignBankCharge: l.ForeignBankCharge,
		LocalBankCharge:   l.LocalBankCharge,
	}
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	return m
}

// AllModels lists every model in migration order.
func AllModels() []any {
	return []any{
		&CustomerModel{},
		&CurrencyLedgerModel{},
		&InvoiceModel{},
		&PaymentModel{},
		&PaymentAllocationModel{},
		&CatalogItemModel{},
		&InvoiceMetadataModel{},
	}
}
