package receivable

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

// InvoiceItemRequest is one line of an invoice request
type InvoiceItemRequest struct {
	CatalogItemID *uuid.UUID      `json:"catalog_item_id"`
	ItemName      string          `json:"item_name" binding:"required,min=1,max=200"`
	Description   string          `json:"description" binding:"max=2000"`
	PartNo        string          `json:"part_no" binding:"max=100"`
	ItemCode      string          `json:"item_code" binding:"max=100"`
	Cost          decimal.Decimal `json:"cost"`
	MarkupMode    string          `json:"markup_mode" binding:"omitempty,oneof=percent fixed"`
	MarkupValue   decimal.Decimal `json:"markup_value"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// ItemGroupRequest is a titled section of lines
type ItemGroupRequest struct {
	Name   string               `json:"name" binding:"max=200"`
	IsShow bool                 `json:"is_show"`
	Items  []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
}

// InvoiceRequest creates or replaces an invoice
type InvoiceRequest struct {
	InvoiceNo     string             `json:"invoice_no" binding:"required,min=1,max=50"`
	CustomerID    uuid.UUID          `json:"customer_id" binding:"required"`
	Currency      string             `json:"currency" binding:"required,len=3"`
	Date          time.Time          `json:"date" binding:"required"`
	ExchangeRate  decimal.Decimal    `json:"exchange_rate"`
	MarkupMode    string             `json:"markup_mode" binding:"omitempty,oneof=percent fixed"`
	MarkupValue   decimal.Decimal    `json:"markup_value"`
	ItemGroups    []ItemGroupRequest `json:"item_groups" binding:"required,min=1,dive"`
	ItemsPerPage  int                `json:"items_per_page"`
	Remarks       string             `json:"remarks" binding:"max=2000"`
	BankAccountID string             `json:"bank_account_id"`
	Draft         bool               `json:"draft"`
}

func (r InvoiceRequest) params(customerName string) receivable.InvoiceParams {
	groups := make([]receivable.ItemGroup, len(r.ItemGroups))
	for i, g := range r.ItemGroups {
		items := make([]receivable.InvoiceItem, len(g.Items))
		for j, it := range g.Items {
			items[j] = receivable.InvoiceItem{
				CatalogItemID: it.CatalogItemID,
				ItemName:      it.ItemName,
				Description:   it.Description,
				PartNo:        it.PartNo,
				ItemCode:      it.ItemCode,
				Cost:          it.Cost,
				MarkupMode:    receivable.MarkupMode(it.MarkupMode),
				MarkupValue:   it.MarkupValue,
				Quantity:      it.Quantity,
			}
		}
		groups[i] = receivable.ItemGroup{Name: g.Name, IsShow: g.IsShow, Items: items}
	}
	return receivable.InvoiceParams{
		InvoiceNo:     r.InvoiceNo,
		CustomerID:    r.CustomerID,
		CustomerName:  customerName,
		Currency:      valueobject.CurrencyCode(r.Currency),
		Date:          r.Date,
		ExchangeRate:  r.ExchangeRate,
		MarkupMode:    receivable.MarkupMode(r.MarkupMode),
		MarkupValue:   r.MarkupValue,
		ItemGroups:    groups,
		ItemsPerPage:  r.ItemsPerPage,
		Remarks:       r.Remarks,
		BankAccountID: r.BankAccountID,
		Draft:         r.Draft,
	}
}

// InvoiceListFilter represents filter options for the invoice list
type InvoiceListFilter struct {
	CustomerID *uuid.UUID `form:"customer_id"`
	Currency   string     `form:"currency" binding:"omitempty,len=3"`
	Status     string     `form:"status" binding:"omitempty,oneof=draft pending partially_paid paid"`
	FromDate   *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate     *time.Time `form:"to_date" time_format:"2006-01-02"`
	Search     string     `form:"search"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by" binding:"omitempty,oneof=date created_at invoice_no total_amount balance"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InvoiceItemResponse is one priced line
type InvoiceItemResponse struct {
	LineNo        int             `json:"line_no"`
	CatalogItemID *uuid.UUID      `json:"catalog_item_id,omitempty"`
	ItemName      string          `json:"item_name"`
	Description   string          `json:"description"`
	PartNo        string          `json:"part_no"`
	ItemCode      string          `json:"item_code"`
	Cost          decimal.Decimal `json:"cost"`
	UnitPriceJPY  decimal.Decimal `json:"unit_price_jpy"`
	MarkupMode    string          `json:"markup_mode"`
	MarkupValue   decimal.Decimal `json:"markup_value"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      decimal.Decimal `json:"quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// ItemGroupResponse is a titled section of priced lines
type ItemGroupResponse struct {
	ID     string                `json:"id"`
	Name   string                `json:"name"`
	IsShow bool                  `json:"is_show"`
	Items  []InvoiceItemResponse `json:"items"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                uuid.UUID           `json:"id"`
	InvoiceNo         string              `json:"invoice_no"`
	CustomerID        uuid.UUID           `json:"customer_id"`
	CustomerName      string              `json:"customer_name"`
	Currency          string              `json:"currency"`
	Date              time.Time           `json:"date"`
	Status            string              `json:"status"`
	ExchangeRate      decimal.Decimal     `json:"exchange_rate"`
	MarkupMode        string              `json:"markup_mode"`
	MarkupValue       decimal.Decimal     `json:"markup_value"`
	ItemGroups        []ItemGroupResponse `json:"item_groups,omitempty"`
	TotalCost         decimal.Decimal     `json:"total_cost"`
	TotalJPY          decimal.Decimal     `json:"total_jpy"`
	TotalProfitJPY    decimal.Decimal     `json:"total_profit_jpy"`
	TotalAmount       decimal.Decimal     `json:"total_amount"`
	AmountPaid        decimal.Decimal     `json:"amount_paid"`
	Balance           decimal.Decimal     `json:"balance"`
	ForeignBankCharge decimal.Decimal     `json:"foreign_bank_charge"`
	LocalBankCharge   decimal.Decimal     `json:"local_bank_charge"`
	ReceivedJPY       decimal.Decimal     `json:"received_jpy"`
	ItemsPerPage      int                 `json:"items_per_page"`
	Remarks           string              `json:"remarks"`
	BankAccountID     string              `json:"bank_account_id"`
	InvoiceLink       string              `json:"invoice_link"`
	TemplateVersion   int                 `json:"template_version"`
	DocumentSource    string              `json:"document_source"`
	SchemaVersion     int                 `json:"schema_version"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Version           int                 `json:"version"`
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(inv *receivable.Invoice) InvoiceResponse {
	resp := toInvoiceSummary(inv)
	resp.ItemGroups = make([]ItemGroupResponse, len(inv.ItemGroups))
	for i, g := range inv.ItemGroups {
		items := make([]InvoiceItemResponse, len(g.Items))
		for j, it := range g.Items {
			items[j] = InvoiceItemResponse{
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
		resp.ItemGroups[i] = ItemGroupResponse{ID: g.ID, Name: g.Name, IsShow: g.IsShow, Items: items}
	}
	return resp
}

// toInvoiceSummary omits the line items, used by list endpoints
func toInvoiceSummary(inv *receivable.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:                inv.ID,
		InvoiceNo:         inv.InvoiceNo,
		CustomerID:        inv.CustomerID,
		CustomerName:      inv.CustomerName,
		Currency:          inv.Currency.String(),
		Date:              inv.Date,
		Status:            inv.Status.String(),
		ExchangeRate:      inv.ExchangeRate,
		MarkupMode:        string(inv.MarkupMode),
		MarkupValue:       inv.MarkupValue,
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
		SchemaVersion:     inv.SchemaVersion,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
		Version:           inv.Version,
	}
}

// OpenInvoiceResponse is an invoice that can receive an allocation
type OpenInvoiceResponse struct {
	ID        uuid.UUID       `json:"id"`
	InvoiceNo string          `json:"invoice_no"`
	Date      time.Time       `json:"date"`
	Balance   decimal.Decimal `json:"balance"`
}

// ManualAllocationRequest is one user-entered allocation
type ManualAllocationRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

// PaymentRequest describes a payment to preview or apply
type PaymentRequest struct {
	PaymentNo         string                    `json:"payment_no" binding:"max=50"`
	CustomerID        uuid.UUID                 `json:"customer_id" binding:"required"`
	Currency          string                    `json:"currency" binding:"required,len=3"`
	Amount            decimal.Decimal           `json:"amount"`
	ForeignBankCharge decimal.Decimal           `json:"foreign_bank_charge"`
	LocalBankCharge   decimal.Decimal           `json:"local_bank_charge"`
	JPYAmount         *decimal.Decimal          `json:"jpy_amount"`
	PaymentDate       time.Time                 `json:"payment_date" binding:"required"`
	CreditDate        *time.Time                `json:"credit_date"`
	Strategy          string                    `json:"strategy" binding:"omitempty,oneof=FIFO MANUAL"`
	Allocations       []ManualAllocationRequest `json:"allocations" binding:"omitempty,dive"`
	ChargeInvoiceID   *uuid.UUID                `json:"charge_invoice_id"`
}

func (r PaymentRequest) manual() []receivable.ManualAllocation {
	out := make([]receivable.ManualAllocation, len(r.Allocations))
	for i, a := range r.Allocations {
		out[i] = receivable.ManualAllocation{InvoiceID: a.InvoiceID, Amount: a.Amount}
	}
	return out
}

// AllocationDraftResponse is one proposed allocation row
type AllocationDraftResponse struct {
	InvoiceID         uuid.UUID       `json:"invoice_id"`
	InvoiceNo         string          `json:"invoice_no"`
	Balance           decimal.Decimal `json:"balance"`
	AllocatedAmount   decimal.Decimal `json:"allocated_amount"`
	ForeignBankCharge decimal.Decimal `json:"foreign_bank_charge"`
	LocalBankCharge   decimal.Decimal `json:"local_bank_charge"`
	ReceivedJPY       decimal.Decimal `json:"received_jpy"`
}

// AllocationPreviewResponse is the outcome of a dry-run allocation
type AllocationPreviewResponse struct {
	Allocations            []AllocationDraftResponse `json:"allocations"`
	ExchangeRate           decimal.Decimal           `json:"exchange_rate"`
	JPYAmount              decimal.Decimal           `json:"jpy_amount"`
	TotalAllocated         decimal.Decimal           `json:"total_allocated"`
	TotalReceivedJPY       decimal.Decimal           `json:"total_received_jpy"`
	ChargeInvoiceID        *uuid.UUID                `json:"charge_invoice_id,omitempty"`
	ChargeInvoiceDefaulted bool                      `json:"charge_invoice_defaulted"`
	FullyAllocated         bool                      `json:"fully_allocated"`
	RoundingAdjustment     decimal.Decimal           `json:"rounding_adjustment"`
	// ValidationError is set when the draft would be rejected on apply
	ValidationError string `json:"validation_error,omitempty"`
}

// ToAllocationPreviewResponse converts an engine result
func ToAllocationPreviewResponse(jpy decimal.Decimal, r *receivable.AllocationResult) AllocationPreviewResponse {
	drafts := make([]AllocationDraftResponse, len(r.Allocations))
	for i, a := range r.Allocations {
		drafts[i] = AllocationDraftResponse{
			InvoiceID:         a.InvoiceID,
			InvoiceNo:         a.InvoiceNo,
			Balance:           a.Balance,
			AllocatedAmount:   a.AllocatedAmount,
			ForeignBankCharge: a.ForeignBankCharge,
			LocalBankCharge:   a.LocalBankCharge,
			ReceivedJPY:       a.ReceivedJPY,
		}
	}
	return AllocationPreviewResponse{
		Allocations:            drafts,
		ExchangeRate:           r.ExchangeRate,
		JPYAmount:              jpy,
		TotalAllocated:         r.TotalAllocated,
		TotalReceivedJPY:       r.TotalReceivedJPY,
		ChargeInvoiceID:        r.ChargeInvoiceID,
		ChargeInvoiceDefaulted: r.ChargeInvoiceDefaulted,
		FullyAllocated:         r.FullyAllocated,
		RoundingAdjustment:     r.RoundingAdjustment,
	}
}

// PaymentListFilter represents filter options for the payment list
type PaymentListFilter struct {
	CustomerID *uuid.UUID `form:"customer_id"`
	Currency   string     `form:"currency" binding:"omitempty,len=3"`
	FromDate   *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate     *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AllocationResponse is a stored allocation row
type AllocationResponse struct {
	ID                uuid.UUID       `json:"id"`
	InvoiceID         uuid.UUID       `json:"invoice_id"`
	InvoiceNo         string          `json:"invoice_no"`
	AllocatedAmount   decimal.Decimal `json:"allocated_amount"`
	ForeignBankCharge decimal.Decimal `json:"foreign_bank_charge"`
	LocalBankCharge   decimal.Decimal `json:"local_bank_charge"`
	ReceivedJPY       decimal.Decimal `json:"received_jpy"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                uuid.UUID            `json:"id"`
	PaymentNo         string               `json:"payment_no"`
	CustomerID        uuid.UUID            `json:"customer_id"`
	CustomerName      string               `json:"customer_name"`
	Currency          string               `json:"currency"`
	Amount            decimal.Decimal      `json:"amount"`
	ExchangeRate      decimal.Decimal      `json:"exchange_rate"`
	AllocatedAmount   decimal.Decimal      `json:"allocated_amount"`
	AmountInJPY       decimal.Decimal      `json:"amount_in_jpy"`
	ForeignBankCharge decimal.Decimal      `json:"foreign_bank_charge"`
	LocalBankCharge   decimal.Decimal      `json:"local_bank_charge"`
	PaymentDate       time.Time            `json:"payment_date"`
	CreditDate        time.Time            `json:"credit_date"`
	Allocations       []AllocationResponse `json:"allocations,omitempty"`
	SchemaVersion     int                  `json:"schema_version"`
	CreatedAt         time.Time            `json:"created_at"`
}

// ToPaymentResponse converts a domain Payment to PaymentResponse
func ToPaymentResponse(p *receivable.Payment) PaymentResponse {
	allocs := make([]AllocationResponse, len(p.Allocations))
	for i, a := range p.Allocations {
		allocs[i] = AllocationResponse{
			ID:                a.ID,
			InvoiceID:         a.InvoiceID,
			InvoiceNo:         a.InvoiceNo,
			AllocatedAmount:   a.AllocatedAmount,
			ForeignBankCharge: a.ForeignBankCharge,
			LocalBankCharge:   a.LocalBankCharge,
			ReceivedJPY:       a.ReceivedJPY,
			ExchangeRate:      a.ExchangeRate,
		}
	}
	return PaymentResponse{
		ID:                p.ID,
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
		Allocations:       allocs,
		SchemaVersion:     p.SchemaVersion,
		CreatedAt:         p.CreatedAt,
	}
}

// CustomerRequest creates or updates a customer
type CustomerRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=200"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone" binding:"max=50"`
	Address  string `json:"address" binding:"max=500"`
	Currency string `json:"currency" binding:"required,len=3"`
}

func (r CustomerRequest) params() receivable.CustomerParams {
	return receivable.CustomerParams{
		Name:     r.Name,
		Email:    r.Email,
		Phone:    r.Phone,
		Address:  r.Address,
		Currency: valueobject.CurrencyCode(r.Currency),
	}
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Address     string          `json:"address"`
	Currency    string          `json:"currency"`
	AmountInJPY decimal.Decimal `json:"amount_in_jpy"`
	CreatedAt   time.Time       `json:"created_at"`
	Version     int             `json:"version"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *receivable.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		Currency:    c.Currency.String(),
		AmountInJPY: c.AmountInJPY,
		CreatedAt:   c.CreatedAt,
		Version:     c.Version,
	}
}

// CurrencyRequest seeds a currency ledger
type CurrencyRequest struct {
	Code string `json:"code" binding:"required,len=3"`
	Name string `json:"name" binding:"max=100"`
}

// CurrencyResponse represents a currency ledger in API responses
type CurrencyResponse struct {
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	AmountDue         decimal.Decimal `json:"amount_due"`
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	AmountInJPY       decimal.Decimal `json:"amount_in_jpy"`
	ForeignBankCharge decimal.Decimal `json:"foreign_bank_charge"`
	LocalBankCharge   decimal.Decimal `json:"local_bank_charge"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToCurrencyResponse converts a domain CurrencyLedger to CurrencyResponse
func ToCurrencyResponse(l *receivable.CurrencyLedger) CurrencyResponse {
	return CurrencyResponse{
		Code:              l.Code.String(),
		Name:              l.Name,
		TotalAmount:       l.TotalAmount,
		AmountDue:         l.AmountDue,
		AmountPaid:        l.AmountPaid,
		AmountInJPY:       l.AmountInJPY,
		ForeignBankCharge: l.ForeignBankCharge,
		LocalBankCharge:   l.LocalBankCharge,
		UpdatedAt:         l.UpdatedAt,
	}
}

// CatalogItemRequest creates a catalog item
type CatalogItemRequest struct {
	ItemName            string          `json:"item_name" binding:"required,min=1,max=200"`
	Description         string          `json:"description" binding:"max=2000"`
	PartNo              string          `json:"part_no" binding:"max=100"`
	ItemCode            string          `json:"item_code" binding:"max=100"`
	DefaultUnitPriceJPY decimal.Decimal `json:"default_unit_price_jpy"`
}

// CatalogItemResponse represents a catalog item in API responses
type CatalogItemResponse struct {
	ID                  uuid.UUID       `json:"id"`
	ItemName            string          `json:"item_name"`
	Description         string          `json:"description"`
	PartNo              string          `json:"part_no"`
	ItemCode            string          `json:"item_code"`
	DefaultUnitPriceJPY decimal.Decimal `json:"default_unit_price_jpy"`
	IsActive            bool            `json:"is_active"`
}

// ToCatalogItemResponse converts a domain CatalogItem
func ToCatalogItemResponse(c *receivable.CatalogItem) CatalogItemResponse {
	return CatalogItemResponse{
		ID:                  c.ID,
		ItemName:            c.ItemName,
		Description:         c.Description,
		PartNo:              c.PartNo,
		ItemCode:            c.ItemCode,
		DefaultUnitPriceJPY: c.DefaultUnitPriceJPY,
		IsActive:            c.IsActive,
	}
}

// RateResponse is a market exchange rate lookup result
type RateResponse struct {
	Currency string          `json:"currency"`
	Date     string          `json:"date"`
	Rate     decimal.Decimal `json:"rate"`
	Found    bool            `json:"found"`
}

// DocumentLinkResponse points at a rendered invoice document
type DocumentLinkResponse struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
