package receivable

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

// Customer is a buyer invoiced in a single default currency
type Customer struct {
	shared.BaseAggregateRoot
	Name        string
	Email       string
	Phone       string
	Address     string
	Currency    valueobject.CurrencyCode
	AmountInJPY decimal.Decimal // cumulative JPY received
}

// CustomerParams carries the editable customer fields
type CustomerParams struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Currency valueobject.CurrencyCode
}

func (p CustomerParams) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return shared.NewValidationError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if len(p.Name) > 200 {
		return shared.NewValidationError("INVALID_CUSTOMER_NAME", "Customer name cannot exceed 200 characters")
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return shared.NewValidationError("INVALID_EMAIL", fmt.Sprintf("Email %q is not valid", p.Email))
		}
	}
	if !p.Currency.IsValid() {
		return shared.NewValidationError("INVALID_CURRENCY", fmt.Sprintf("Currency %q is not valid", p.Currency))
	}
	return nil
}

// NewCustomer creates a customer
func NewCustomer(p CustomerParams) (*Customer, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	c := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AmountInJPY:       decimal.Zero,
	}
	c.apply(p)
	return c, nil
}

// Update replaces the editable fields
func (c *Customer) Update(p CustomerParams) error {
	if err := p.validate(); err != nil {
		return err
	}
	c.apply(p)
	c.Touch()
	return nil
}

func (c *Customer) apply(p CustomerParams) {
	c.Name = strings.TrimSpace(p.Name)
	c.Email = strings.TrimSpace(p.Email)
	c.Phone = p.Phone
	c.Address = p.Address
	c.Currency = p.Currency
}

// CreditJPY adds received yen
func (c *Customer) CreditJPY(amount decimal.Decimal) {
	c.AmountInJPY = valueobject.Round2(c.AmountInJPY.Add(amount))
	c.Touch()
}

// DebitJPY removes previously credited yen
func (c *Customer) DebitJPY(amount decimal.Decimal) {
	c.AmountInJPY = valueobject.ClampZero(valueobject.Round2(c.AmountInJPY.Sub(amount)))
	c.Touch()
}
