package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/receivable"
)

func scanJSON(value any, dest any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan json column: unsupported type")
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

type invoiceItemRecord struct {
	LineNo        int             `json:"line_no"`
	CatalogItemID *uuid.UUID      `json:"catalog_item_id,omitempty"`
	ItemName      string          `json:"item_name"`
	Description   string          `json:"description,omitempty"`
	PartNo        string          `json:"part_no,omitempty"`
	ItemCode      string          `json:"item_code,omitempty"`
	Cost          decimal.Decimal `json:"cost"`
	UnitPriceJPY  decimal.Decimal `json:"unit_price_jpy"`
	MarkupMode    string          `json:"markup_mode,omitempty"`
	MarkupValue   decimal.Decimal `json:"markup_value"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      decimal.Decimal `json:"quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

type itemGroupRecord struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	IsShow bool                `json:"is_show"`
	Items  []invoiceItemRecord `json:"items"`
}

// ItemGroups is the JSON column holding an invoice's grouped lines.
type ItemGroups []itemGroupRecord

func (g ItemGroups) Value() (driver.Value, error) {
	if g == nil {
		return "[]", nil
	}
	b, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (g *ItemGroups) Scan(value any) error {
	*g = ItemGroups{}
	return scanJSON(value, g)
}

func ItemGroupsFromDomain(groups []receivable.ItemGroup) ItemGroups {
	out := make(ItemGroups, len(groups))
	for i, g := range groups {
		items := make([]invoiceItemRecord, len(g.Items))
		for j, it := range g.Items {
			items[j] = invoiceItemRecord{
				LineNo:        it.LineNo,
				CatalogItemID: it.CatalogItemID,
				ItemName:      it.ItemName,
				Description:   it.Description,
				PartNo:        it.PartNo,
				ItemCode:      it.ItemCode,
				Cost:          it.Cost,
				UnitPriceJPY:  it.UnitPriceJPY,
				MarkupMode:    string(it.MarkupMode),
				MarkupValue:   it.MarkupValue,
				UnitPrice:     it.UnitPrice,
				Quantity:      it.Quantity,
				TotalPrice:    it.TotalPrice,
			}
		}
		out[i] = itemGroupRecord{ID: g.ID, Name: g.Name, IsShow: g.IsShow, Items: items}
	}
	return out
}

func (g ItemGroups) ToDomain() []receivable.ItemGroup {
	out := make([]receivable.ItemGroup, len(g))
	for i, rec := range g {
		items := make([]receivable.InvoiceItem, len(rec.Items))
		for j, it := range rec.Items {
			items[j] = receivable.InvoiceItem{
				LineNo:        it.LineNo,
				CatalogItemID: it.CatalogItemID,
				ItemName:      it.ItemName,
				Description:   it.Description,
				PartNo:        it.PartNo,
				ItemCode:      it.ItemCode,
				Cost:          it.Cost,
				UnitPriceJPY:  it.UnitPriceJPY,
				MarkupMode:    receivable.MarkupMode(it.MarkupMode),
				MarkupValue:   it.MarkupValue,
				UnitPrice:     it.UnitPrice,
				Quantity:      it.Quantity,
				TotalPrice:    it.TotalPrice,
			}
		}
		out[i] = receivable.ItemGroup{ID: rec.ID, Name: rec.Name, IsShow: rec.IsShow, Items: items}
	}
	return out
}

// BankAccounts is the JSON column holding the issuer's bank accounts.
type BankAccounts []receivable.BankAccount

func (b BankAccounts) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (b *BankAccounts) Scan(value any) error {
	*b = BankAccounts{}
	return scanJSON(value, b)
}
