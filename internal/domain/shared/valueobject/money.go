package valueobject

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyCode represents a currency code (ISO 4217)
type CurrencyCode string

const (
	JPY CurrencyCode = "JPY" // Japanese Yen (base currency)
	USD CurrencyCode = "USD" // US Dollar
	EUR CurrencyCode = "EUR" // Euro
	GBP CurrencyCode = "GBP" // British Pound
)

// BaseCurrency is the currency every ledger converts into.
const BaseCurrency = JPY

var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ParseCurrencyCode normalizes and validates a currency code.
func ParseCurrencyCode(s string) (CurrencyCode, error) {
	code := CurrencyCode(strings.ToUpper(strings.TrimSpace(s)))
	if !code.IsValid() {
		return "", fmt.Errorf("invalid currency code %q", s)
	}
	return code, nil
}

// IsValid checks the three-letter shape of the code.
func (c CurrencyCode) IsValid() bool {
	return currencyCodePattern.MatchString(string(c))
}

// IsBase reports whether c is the base currency.
func (c CurrencyCode) IsBase() bool {
	return c == BaseCurrency
}

// String returns the string representation
func (c CurrencyCode) String() string {
	return string(c)
}

// Value implements driver.Valuer for database storage
func (c CurrencyCode) Value() (driver.Value, error) {
	return string(c), nil
}

// Scan implements sql.Scanner for database retrieval
func (c *CurrencyCode) Scan(value any) error {
	switch v := value.(type) {
	case string:
		*c = CurrencyCode(v)
	case []byte:
		*c = CurrencyCode(v)
	case nil:
		*c = ""
	default:
		return fmt.Errorf("cannot scan %T into CurrencyCode", value)
	}
	return nil
}

// ReconciliationTolerance is the largest difference treated as equal when
// comparing independently accumulated monetary totals.
var ReconciliationTolerance = decimal.NewFromFloat(0.01)

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(x decimal.Decimal) decimal.Decimal {
	return x.Round(2)
}

// Round4 rounds to 4 decimal places, used for quoted exchange rates.
func Round4(x decimal.Decimal) decimal.Decimal {
	return x.Round(4)
}

// FloorJPY floors a converted amount to whole yen. Converted yen never
// credits a fractional unit.
func FloorJPY(x decimal.Decimal) decimal.Decimal {
	return x.Floor()
}

// ClampZero returns max(0, x).
func ClampZero(x decimal.Decimal) decimal.Decimal {
	if x.IsNegative() {
		return decimal.Zero
	}
	return x
}

// IsClose reports |a-b| <= 0.01.
func IsClose(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(ReconciliationTolerance)
}

// Sum adds values and rounds the result to 2dp.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return Round2(total)
}
