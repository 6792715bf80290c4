package receivable

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"go.uber.org/zap"
)

// CustomerService manages customers
type CustomerService struct {
	uow    UnitOfWork
	logger *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(uow UnitOfWork, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{uow: uow, logger: logger}
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, req CustomerRequest) (*CustomerResponse, error) {
	customer, err := receivable.NewCustomer(req.params())
	if err != nil {
		return nil, err
	}
	if err := s.uow.Repositories().Customers.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}

	s.logger.Info("Customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("name", customer.Name),
	)
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// Update changes a customer's contact details and default currency
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req CustomerRequest) (*CustomerResponse, error) {
	var customer *receivable.Customer
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		var err error
		customer, err = repos.Customers.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := customer.Update(req.params()); err != nil {
			return err
		}
		return repos.Customers.SaveWithLock(ctx, customer)
	})
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// GetByID returns a customer
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.uow.Repositories().Customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// List returns one page of customers ordered by name
func (s *CustomerService) List(ctx context.Context, search string, page, pageSize int) ([]CustomerResponse, int64, error) {
	f := pageFilter(page, pageSize)
	f.Search = search
	f.OrderBy = "name"
	f.OrderDir = "asc"

	customers, total, err := s.uow.Repositories().Customers.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]CustomerResponse, len(customers))
	for i, c := range customers {
		out[i] = ToCustomerResponse(c)
	}
	return out, total, nil
}
