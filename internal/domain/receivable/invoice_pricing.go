package receivable

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

// MarkupMode selects how a markup value is applied to a JPY cost
type MarkupMode string

const (
	MarkupModePercent MarkupMode = "percent"
	MarkupModeFixed   MarkupMode = "fixed"
)

// IsValid checks if the markup mode is valid
func (m MarkupMode) IsValid() bool {
	return m == MarkupModePercent || m == MarkupModeFixed
}

var hundred = decimal.NewFromInt(100)

// ItemGroup is a titled section of invoice lines
type ItemGroup struct {
	ID     string
	Name   string
	IsShow bool
	Items  []InvoiceItem
}

// InvoiceItem is a single priced line. Cost and UnitPriceJPY are in JPY,
// UnitPrice and TotalPrice in the invoice currency.
type InvoiceItem struct {
	LineNo        int
	CatalogItemID *uuid.UUID
	ItemName      string
	Description   string
	PartNo        string
	ItemCode      string
	Cost          decimal.Decimal
	UnitPriceJPY  decimal.Decimal
	MarkupMode    MarkupMode
	MarkupValue   decimal.Decimal
	UnitPrice     decimal.Decimal
	Quantity      decimal.Decimal
	TotalPrice    decimal.Decimal
}

// PricingInput holds the invoice-level pricing parameters
type PricingInput struct {
	ExchangeRate decimal.Decimal // foreign units per 1 JPY
	MarkupMode   MarkupMode      // default for lines without their own markup
	MarkupValue  decimal.Decimal
}

// PricedInvoice is the output of PriceItemGroups
type PricedInvoice struct {
	ItemGroups     []ItemGroup
	TotalCost      decimal.Decimal
	TotalJPY       decimal.Decimal
	TotalProfitJPY decimal.Decimal
	TotalAmount    decimal.Decimal
}

// UnitPriceJPY applies a markup to a JPY cost.
func UnitPriceJPY(cost decimal.Decimal, mode MarkupMode, value decimal.Decimal) decimal.Decimal {
	if mode == MarkupModeFixed {
		return valueobject.Round2(cost.Add(value))
	}
	return valueobject.Round2(cost.Mul(decimal.NewFromInt(1).Add(value.Div(hundred))))
}

// PriceItemGroups prices every line and derives the invoice totals.
// Line numbers are reassigned sequentially across groups.
func PriceItemGroups(groups []ItemGroup, in PricingInput) (*PricedInvoice, error) {
	if in.ExchangeRate.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("INVALID_EXCHANGE_RATE", "Exchange rate must be positive")
	}
	rate := valueobject.Round4(in.ExchangeRate)
	defaultMode := in.MarkupMode
	if defaultMode == "" {
		defaultMode = MarkupModePercent
	}

	out := &PricedInvoice{
		ItemGroups:  make([]ItemGroup, len(groups)),
		TotalCost:   decimal.Zero,
		TotalAmount: decimal.Zero,
	}
	lineNo := 0
	for gi, g := range groups {
		pg := ItemGroup{ID: g.ID, Name: g.Name, IsShow: g.IsShow, Items: make([]InvoiceItem, len(g.Items))}
		if pg.ID == "" {
			pg.ID = uuid.NewString()
		}
		for ii, item := range g.Items {
			lineNo++
			if strings.TrimSpace(item.ItemName) == "" {
				return nil, shared.NewValidationError("INVALID_ITEM", fmt.Sprintf("Line %d: item name is required", lineNo))
			}
			if item.Quantity.LessThanOrEqual(decimal.Zero) {
				return nil, shared.NewValidationError("INVALID_QUANTITY", fmt.Sprintf("Line %d: quantity must be positive", lineNo))
			}
			if item.Cost.IsNegative() {
				return nil, shared.NewValidationError("INVALID_COST", fmt.Sprintf("Line %d: cost cannot be negative", lineNo))
			}
			if item.MarkupMode != "" && !item.MarkupMode.IsValid() {
				return nil, shared.NewValidationError("INVALID_MARKUP_MODE", fmt.Sprintf("Line %d: markup mode %q is not valid", lineNo, item.MarkupMode))
			}

			mode, value := item.MarkupMode, item.MarkupValue
			if mode == "" {
				mode, value = defaultMode, in.MarkupValue
			}
			item.LineNo = lineNo
			item.MarkupMode = mode
			item.MarkupValue = value
			item.UnitPriceJPY = UnitPriceJPY(item.Cost, mode, value)
			item.UnitPrice = valueobject.Round2(item.UnitPriceJPY.Mul(rate))
			item.TotalPrice = valueobject.Round2(item.UnitPrice.Mul(item.Quantity))
			pg.Items[ii] = item

			out.TotalAmount = out.TotalAmount.Add(item.TotalPrice)
			out.TotalCost = out.TotalCost.Add(item.Cost.Mul(item.Quantity))
		}
		out.ItemGroups[gi] = pg
	}

	out.TotalAmount = valueobject.Round2(out.TotalAmount)
	out.TotalCost = valueobject.Round2(out.TotalCost)
	out.TotalJPY = valueobject.Round2(out.TotalAmount.Div(rate))
	out.TotalProfitJPY = valueobject.Round2(out.TotalJPY.Sub(out.TotalCost))
	return out, nil
}
