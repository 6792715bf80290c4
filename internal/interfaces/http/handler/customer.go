package handler

import (
	"github.com/gin-gonic/gin"
	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
)

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	BaseHandler
	customers *appreceivable.CustomerService
	invoices  *appreceivable.InvoiceService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customers *appreceivable.CustomerService, invoices *appreceivable.InvoiceService) *CustomerHandler {
	return &CustomerHandler{customers: customers, invoices: invoices}
}

// Create godoc
// @ID           createCustomer
// @Summary      Create a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body appreceivable.CustomerRequest true "Customer"
// @Success      201 {object} dto.Response{data=appreceivable.CustomerResponse}
// @Failure      400 {object} dto.Response
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req appreceivable.CustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	customer, err := h.customers.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// Update replaces a customer's contact details
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appreceivable.CustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	customer, err := h.customers.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.customers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// List returns one page of customers, optionally filtered by ?search=
func (h *CustomerHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	customers, total, err := h.customers.List(c.Request.Context(), c.Query("search"), page, size)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, customers, total, page, size)
}

// OpenInvoices godoc
// @ID           listCustomerOpenInvoices
// @Summary      Invoices a payment can settle, oldest first
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID"
// @Param        currency query string true "ISO currency code"
// @Success      200 {object} dto.Response{data=[]appreceivable.OpenInvoiceResponse}
// @Router       /customers/{id}/open-invoices [get]
func (h *CustomerHandler) OpenInvoices(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	currency := c.Query("currency")
	if currency == "" {
		h.BadRequest(c, "currency is required")
		return
	}
	open, err := h.invoices.OpenInvoices(c.Request.Context(), id, currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, open)
}
