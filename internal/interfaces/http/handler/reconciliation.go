package handler

import (
	"github.com/gin-gonic/gin"
	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
)

// ReconciliationHandler exposes the ledger consistency check
type ReconciliationHandler struct {
	BaseHandler
	reconciler *appreceivable.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(reconciler *appreceivable.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciler: reconciler}
}

// Run godoc
// @ID           runReconciliation
// @Summary      Check stored charges and amounts against allocation rows
// @Description  Read only. Drift is reported, never repaired.
// @Tags         reconciliation
// @Produce      json
// @Success      200 {object} dto.Response{data=receivable.ReconciliationReport}
// @Router       /reconciliation [get]
func (h *ReconciliationHandler) Run(c *gin.Context) {
	report, err := h.reconciler.Run(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
