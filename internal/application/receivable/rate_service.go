package receivable

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"go.uber.org/zap"
)

// RateService looks up market rates for the invoice form. A missing rate is
// not an error: the user enters one manually.
type RateService struct {
	provider RateProvider
	logger   *zap.Logger
}

// NewRateService creates a new RateService
func NewRateService(provider RateProvider, logger *zap.Logger) *RateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateService{provider: provider, logger: logger}
}

// Lookup returns the rate of one JPY in currency on date, or today when
// date is zero. JPY is always 1.
func (s *RateService) Lookup(ctx context.Context, currencyCode string, date time.Time) (*RateResponse, error) {
	currency, err := parseCurrency(currencyCode)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = time.Now()
	}
	day := receivable.JapanDate(date)
	resp := &RateResponse{Currency: currency.String(), Date: day.Format(time.DateOnly), Rate: decimal.Zero}

	if currency.IsBase() {
		resp.Rate = decimal.NewFromInt(1)
		resp.Found = true
		return resp, nil
	}

	rate, ok, err := s.provider.FetchRate(ctx, currency, day)
	if err != nil {
		s.logger.Warn("Exchange rate lookup failed, manual rate required",
			zap.String("currency", currency.String()),
			zap.String("date", resp.Date),
			zap.Error(err),
		)
		return resp, nil
	}
	if ok {
		resp.Rate = rate
		resp.Found = true
	}
	return resp, nil
}
