package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
	"github.com/tradeledger/backend/internal/domain/receivable"
)

// SettingsHandler handles the catalog and the invoice issuer settings
type SettingsHandler struct {
	BaseHandler
	settings *appreceivable.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settings *appreceivable.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// MetadataRequest replaces the invoice issuer settings
type MetadataRequest struct {
	CompanyName    string                   `json:"company_name" binding:"required,max=200"`
	CompanyAddress string                   `json:"company_address" binding:"max=500"`
	Phone          string                   `json:"phone" binding:"max=50"`
	Fax            string                   `json:"fax" binding:"max=50"`
	LogoURL        string                   `json:"logo_url" binding:"omitempty,url"`
	BankAccounts   []receivable.BankAccount `json:"bank_accounts"`
	BankNotes      string                   `json:"bank_notes" binding:"max=2000"`
	SignatoryName  string                   `json:"signatory_name" binding:"max=200"`
	SignatoryTitle string                   `json:"signatory_title" binding:"max=200"`
	FooterNotes    string                   `json:"footer_notes" binding:"max=2000"`
}

// MetadataResponse is the stored issuer settings
type MetadataResponse struct {
	MetadataRequest
	UpdatedAt time.Time `json:"updated_at"`
}

func toMetadataResponse(m *receivable.InvoiceMetadata) MetadataResponse {
	return MetadataResponse{
		MetadataRequest: MetadataRequest{
			CompanyName:    m.CompanyName,
			CompanyAddress: m.CompanyAddress,
			Phone:          m.Phone,
			Fax:            m.Fax,
			LogoURL:        m.LogoURL,
			BankAccounts:   m.BankAccounts,
			BankNotes:      m.BankNotes,
			SignatoryName:  m.SignatoryName,
			SignatoryTitle: m.SignatoryTitle,
			FooterNotes:    m.FooterNotes,
		},
		UpdatedAt: m.UpdatedAt,
	}
}

// ListCatalogItems returns catalog items; ?active=false includes retired ones
func (h *SettingsHandler) ListCatalogItems(c *gin.Context) {
	items, err := h.settings.ListCatalogItems(c.Request.Context(), c.DefaultQuery("active", "true") != "false")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

func (h *SettingsHandler) CreateCatalogItem(c *gin.Context) {
	var req appreceivable.CatalogItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.settings.CreateCatalogItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// DeactivateCatalogItem retires an item. Invoices that used it keep their copy.
func (h *SettingsHandler) DeactivateCatalogItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.settings.DeactivateCatalogItem(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *SettingsHandler) GetMetadata(c *gin.Context) {
	m, err := h.settings.GetMetadata(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toMetadataResponse(m))
}

func (h *SettingsHandler) SaveMetadata(c *gin.Context) {
	var req MetadataRequest
	if !h.bindJSON(c, &req) {
		return
	}
	saved, err := h.settings.SaveMetadata(c.Request.Context(), &receivable.InvoiceMetadata{
		CompanyName:    req.CompanyName,
		CompanyAddress: req.CompanyAddress,
		Phone:          req.Phone,
		Fax:            req.Fax,
		LogoURL:        req.LogoURL,
		BankAccounts:   req.BankAccounts,
		BankNotes:      req.BankNotes,
		SignatoryName:  req.SignatoryName,
		SignatoryTitle: req.SignatoryTitle,
		FooterNotes:    req.FooterNotes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toMetadataResponse(saved))
}
