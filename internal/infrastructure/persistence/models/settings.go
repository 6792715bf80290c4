package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/receivable"
)

// CatalogItemModel is a reusable line item offered when building invoices.
type CatalogItemModel struct {
	BaseModel
	ItemName            string          `gorm:"type:varchar(200);not null"`
	Description         string          `gorm:"type:text"`
	PartNo              string          `gorm:"type:varchar(100)"`
	ItemCode            string          `gorm:"type:varchar(100);index"`
	DefaultUnitPriceJPY decimal.Decimal `gorm:"column:default_unit_price_jpy;type:decimal(18,4);not null"`
	IsActive            bool            `gorm:"not null;index"`
}

func (CatalogItemModel) TableName() string {
	return "catalog_items"
}

func (m *CatalogItemModel) ToDomain() *receivable.CatalogItem {
	return &receivable.CatalogItem{
		BaseEntity:          m.BaseModel.ToDomain(),
		ItemName:            m.ItemName,
		Description:         m.Description,
		PartNo:              m.PartNo,
		ItemCode:            m.ItemCode,
		DefaultUnitPriceJPY: m.DefaultUnitPriceJPY,
		IsActive:            m.IsActive,
	}
}

func CatalogItemModelFromDomain(c *receivable.CatalogItem) *CatalogItemModel {
	m := &CatalogItemModel{
		ItemName:            c.ItemName,
		Description:         c.Description,
		PartNo:              c.PartNo,
		ItemCode:            c.ItemCode,
		DefaultUnitPriceJPY: c.DefaultUnitPriceJPY,
		IsActive:            c.IsActive,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// InvoiceMetadataID is the key of the single issuer settings row.
const InvoiceMetadataID = 1

// InvoiceMetadataModel stores the issuer details printed on every invoice.
type InvoiceMetadataModel struct {
	ID             int          `gorm:"primaryKey;autoIncrement:false"`
	CompanyName    string       `gorm:"type:varchar(200)"`
	CompanyAddress string       `gorm:"type:text"`
	Phone          string       `gorm:"type:varchar(50)"`
	Fax            string       `gorm:"type:varchar(50)"`
	LogoURL        string       `gorm:"type:varchar(500)"`
	BankAccounts   BankAccounts `gorm:"type:jsonb;not null;default:'[]'"`
	BankNotes      string       `gorm:"type:text"`
	SignatoryName  string       `gorm:"type:varchar(200)"`
	SignatoryTitle string       `gorm:"type:varchar(200)"`
	FooterNotes    string       `gorm:"type:text"`
	UpdatedAt      time.Time
}

func (InvoiceMetadataModel) TableName() string {
	return "invoice_metadata"
}

func (m *InvoiceMetadataModel) ToDomain() *receivable.InvoiceMetadata {
	return &receivable.InvoiceMetadata{
		CompanyName:    m.CompanyName,
		CompanyAddress: m.CompanyAddress,
		Phone:          m.Phone,
		Fax:            m.Fax,
		LogoURL:        m.LogoURL,
		BankAccounts:   []receivable.BankAccount(m.BankAccounts),
		BankNotes:      m.BankNotes,
		SignatoryName:  m.SignatoryName,
		SignatoryTitle: m.SignatoryTitle,
		FooterNotes:    m.FooterNotes,
		UpdatedAt:      m.UpdatedAt,
	}
}

func InvoiceMetadataModelFromDomain(md *receivable.InvoiceMetadata) *InvoiceMetadataModel {
	return &InvoiceMetadataModel{
		ID:             InvoiceMetadataID,
		CompanyName:    md.CompanyName,
		CompanyAddress: md.CompanyAddress,
		Phone:          md.Phone,
		Fax:            md.Fax,
		LogoURL:        md.LogoURL,
		BankAccounts:   BankAccounts(md.BankAccounts),
		BankNotes:      md.BankNotes,
		SignatoryName:  md.SignatoryName,
		SignatoryTitle: md.SignatoryTitle,
		FooterNotes:    md.FooterNotes,
		UpdatedAt:      md.UpdatedAt,
	}
}
