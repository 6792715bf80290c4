package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
)

// RateHandler serves market exchange rates
type RateHandler struct {
	BaseHandler
	rates *appreceivable.RateService
}

// NewRateHandler creates a new RateHandler
func NewRateHandler(rates *appreceivable.RateService) *RateHandler {
	return &RateHandler{rates: rates}
}

// Lookup godoc
// @ID           lookupRate
// @Summary      Market rate of one JPY in a currency
// @Description  found=false means no rate is available and the caller should enter one manually
// @Tags         rates
// @Produce      json
// @Param        currency path string true "ISO currency code"
// @Param        date query string false "YYYY-MM-DD, defaults to today"
// @Success      200 {object} dto.Response{data=appreceivable.RateResponse}
// @Router       /rates/{currency} [get]
func (h *RateHandler) Lookup(c *gin.Context) {
	var date time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			h.BadRequest(c, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}
	rate, err := h.rates.Lookup(c.Request.Context(), c.Param("currency"), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rate)
}
