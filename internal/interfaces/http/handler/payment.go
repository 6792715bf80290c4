package handler

import (
	"github.com/gin-gonic/gin"
	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	BaseHandler
	payments *appreceivable.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *appreceivable.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Preview godoc
// @ID           previewPayment
// @Summary      Preview a payment allocation
// @Description  Runs the allocation engine against current balances without writing. A rejected draft is returned with validation_error set.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body appreceivable.PaymentRequest true "Payment"
// @Success      200 {object} dto.Response{data=appreceivable.AllocationPreviewResponse}
// @Router       /payments/preview [post]
func (h *PaymentHandler) Preview(c *gin.Context) {
	var req appreceivable.PaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	preview, err := h.payments.PreviewAllocation(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}

// Apply godoc
// @ID           applyPayment
// @Summary      Apply a payment
// @Description  Allocates the payment across open invoices and updates invoices, customer and ledger atomically
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body appreceivable.PaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=appreceivable.PaymentResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response "Balances changed concurrently; recompute and retry"
// @Router       /payments [post]
func (h *PaymentHandler) Apply(c *gin.Context) {
	var req appreceivable.PaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	payment, err := h.payments.ApplyPayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Delete godoc
// @ID           deletePayment
// @Summary      Reverse a payment
// @Description  Only the customer's most recent payment can be reversed
// @Tags         payments
// @Param        id path string true "Payment ID"
// @Success      204
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.payments.DeletePayment(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	payment, err := h.payments.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// List returns one page of payments, newest first
func (h *PaymentHandler) List(c *gin.Context) {
	var filter appreceivable.PaymentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	payments, total, err := h.payments.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := orDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, payments, total, page, size)
}

// NextNumber suggests a payment number for the entry form
func (h *PaymentHandler) NextNumber(c *gin.Context) {
	h.Success(c, gin.H{"payment_no": h.payments.NextPaymentNo()})
}
