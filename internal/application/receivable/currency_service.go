package receivable

import (
	"context"
	"fmt"

	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CurrencyService manages the per-currency ledgers
type CurrencyService struct {
	uow    UnitOfWork
	logger *zap.Logger
}

// NewCurrencyService creates a new CurrencyService
func NewCurrencyService(uow UnitOfWork, logger *zap.Logger) *CurrencyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurrencyService{uow: uow, logger: logger}
}

// Create seeds an empty ledger for a currency
func (s *CurrencyService) Create(ctx context.Context, req CurrencyRequest) (*CurrencyResponse, error) {
	code, err := parseCurrency(req.Code)
	if err != nil {
		return nil, err
	}
	repos := s.uow.Repositories()
	if _, err := repos.Ledgers.FindByCode(ctx, code); err == nil {
		return nil, shared.NewValidationError("DUPLICATE_CURRENCY",
			fmt.Sprintf("Currency %s already has a ledger", code))
	} else if !isNotFound(err) {
		return nil, err
	}

	ledger, err := receivable.NewCurrencyLedger(code, req.Name)
	if err != nil {
		return nil, err
	}
	if err := repos.Ledgers.Create(ctx, ledger); err != nil {
		return nil, fmt.Errorf("failed to save currency ledger: %w", err)
	}
	s.logger.Info("Currency ledger created", zap.String("currency", code.String()))
	resp := ToCurrencyResponse(ledger)
	return &resp, nil
}

// Seed creates ledgers for any of the given currencies that lack one and
// returns the codes it created
func (s *CurrencyService) Seed(ctx context.Context, reqs []CurrencyRequest) ([]string, error) {
	var created []string
	for _, req := range reqs {
		_, err := s.Create(ctx, req)
		var de *shared.DomainError
		switch {
		case err == nil:
			created = append(created, req.Code)
		case asDomainError(err, &de) && de.Code == "DUPLICATE_CURRENCY":
			continue
		default:
			return created, err
		}
	}
	return created, nil
}

// Get returns the ledger of one currency
func (s *CurrencyService) Get(ctx context.Context, code string) (*CurrencyResponse, error) {
	c, err := parseCurrency(code)
	if err != nil {
		return nil, err
	}
	ledger, err := s.uow.Repositories().Ledgers.FindByCode(ctx, c)
	if err != nil {
		return nil, err
	}
	resp := ToCurrencyResponse(ledger)
	return &resp, nil
}

// List returns every ledger
func (s *CurrencyService) List(ctx context.Context) ([]CurrencyResponse, error) {
	ledgers, err := s.uow.Repositories().Ledgers.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CurrencyResponse, len(ledgers))
	for i, l := range ledgers {
		out[i] = ToCurrencyResponse(l)
	}
	return out, nil
}
