package handler

import (
	"github.com/gin-gonic/gin"
	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
	"github.com/tradeledger/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices  *appreceivable.InvoiceService
	documents *appreceivable.DocumentService
	enqueuer  appreceivable.DocumentTaskEnqueuer
}

// InvoiceHandlerOption configures optional document support
type InvoiceHandlerOption func(*InvoiceHandler)

// WithDocuments enables download links and synchronous rendering
func WithDocuments(documents *appreceivable.DocumentService) InvoiceHandlerOption {
	return func(h *InvoiceHandler) {
		h.documents = documents
	}
}

// WithDocumentQueue renders documents in the background instead of inline
func WithDocumentQueue(enqueuer appreceivable.DocumentTaskEnqueuer) InvoiceHandlerOption {
	return func(h *InvoiceHandler) {
		h.enqueuer = enqueuer
	}
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *appreceivable.InvoiceService, opts ...InvoiceHandlerOption) *InvoiceHandler {
	h := &InvoiceHandler{invoices: invoices}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Create godoc
// @ID           createInvoice
// @Summary      Issue an invoice
// @Description  Prices the items, stores the invoice and adds its total to the currency ledger
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body appreceivable.InvoiceRequest true "Invoice"
// @Success      201 {object} dto.Response{data=appreceivable.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req appreceivable.InvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.invoices.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// Update godoc
// @ID           updateInvoice
// @Summary      Revise an invoice
// @Description  Applies the difference between the old and new totals to the ledger. Settled invoices keep their financial fields.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Param        request body appreceivable.InvoiceRequest true "Invoice"
// @Success      200 {object} dto.Response{data=appreceivable.InvoiceResponse}
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appreceivable.InvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.invoices.UpdateInvoice(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Delete removes an invoice and its ledger contribution
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.invoices.DeleteInvoice(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Finalize moves a draft invoice to pending
func (h *InvoiceHandler) Finalize(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.FinalizeInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        customer_id query string false "Customer ID"
// @Param        currency query string false "ISO currency code"
// @Param        status query string false "draft, pending, partially_paid or paid"
// @Param        from_date query string false "YYYY-MM-DD"
// @Param        to_date query string false "YYYY-MM-DD"
// @Param        search query string false "Invoice number or customer name"
// @Success      200 {object} dto.Response{data=[]appreceivable.InvoiceResponse}
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter appreceivable.InvoiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	invoices, total, err := h.invoices.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := orDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, invoices, total, page, size)
}

// RenderDocument godoc
// @ID           renderInvoiceDocument
// @Summary      Render the invoice PDF
// @Description  Queues rendering when a task queue is configured (202), otherwise renders inline and returns the link (200)
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200 {object} dto.Response{data=appreceivable.DocumentLinkResponse}
// @Success      202 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Router       /invoices/{id}/document [post]
func (h *InvoiceHandler) RenderDocument(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// confirm the invoice exists before queueing work for it
	if _, err := h.invoices.GetInvoice(ctx, id); err != nil {
		h.HandleError(c, err)
		return
	}

	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueInvoiceDocument(ctx, id); err != nil {
			logger.GetGinLogger(c).Warn("Document enqueue failed", zap.String("invoice_id", id.String()), zap.Error(err))
			h.Unavailable(c, "Document queue is unavailable")
			return
		}
		h.Accepted(c, gin.H{"invoice_id": id, "status": "queued"})
		return
	}
	if h.documents == nil {
		h.Unavailable(c, "Document rendering is not configured")
		return
	}
	link, err := h.documents.RenderInvoice(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}

// DocumentLink returns a time-limited download link for the rendered PDF
func (h *InvoiceHandler) DocumentLink(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if h.documents == nil {
		h.Unavailable(c, "Document storage is not configured")
		return
	}
	link, err := h.documents.DownloadLink(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}
