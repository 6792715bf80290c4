package receivable

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/shared"
)

// CatalogItem is a reusable line-item template
type CatalogItem struct {
	shared.BaseEntity
	ItemName            string
	Description         string
	PartNo              string
	ItemCode            string
	DefaultUnitPriceJPY decimal.Decimal
	IsActive            bool
}

// NewCatalogItem creates an active catalog item
func NewCatalogItem(name, description, partNo, itemCode string, unitPriceJPY decimal.Decimal) (*CatalogItem, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_ITEM", "Item name cannot be empty")
	}
	if unitPriceJPY.IsNegative() {
		return nil, shared.NewValidationError("INVALID_PRICE", "Default unit price cannot be negative")
	}
	return &CatalogItem{
		BaseEntity:          shared.NewBaseEntity(),
		ItemName:            strings.TrimSpace(name),
		Description:         description,
		PartNo:              partNo,
		ItemCode:            itemCode,
		DefaultUnitPriceJPY: unitPriceJPY,
		IsActive:            true,
	}, nil
}

// Deactivate hides the item from selection without deleting it
func (c *CatalogItem) Deactivate() {
	c.IsActive = false
	c.Touch()
}
