package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
)

// CurrencyHandler exposes the per-currency ledgers
type CurrencyHandler struct {
	BaseHandler
	currencies *appreceivable.CurrencyService
}

// NewCurrencyHandler creates a new CurrencyHandler
func NewCurrencyHandler(currencies *appreceivable.CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencies: currencies}
}

// List godoc
// @ID           listCurrencies
// @Summary      List currency ledgers
// @Tags         currencies
// @Produce      json
// @Success      200 {object} dto.Response{data=[]appreceivable.CurrencyResponse}
// @Router       /currencies [get]
func (h *CurrencyHandler) List(c *gin.Context) {
	ledgers, err := h.currencies.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledgers)
}

// Create godoc
// @ID           createCurrency
// @Summary      Open a ledger for a currency
// @Tags         currencies
// @Accept       json
// @Produce      json
// @Param        request body appreceivable.CurrencyRequest true "Currency"
// @Success      201 {object} dto.Response{data=appreceivable.CurrencyResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /currencies [post]
func (h *CurrencyHandler) Create(c *gin.Context) {
	var req appreceivable.CurrencyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ledger, err := h.currencies.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ledger)
}

// Get returns one ledger by ISO code
func (h *CurrencyHandler) Get(c *gin.Context) {
	ledger, err := h.currencies.Get(c.Request.Context(), strings.ToUpper(c.Param("code")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledger)
}
