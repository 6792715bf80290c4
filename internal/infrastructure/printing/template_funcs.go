package printing

import (
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	printer = message.NewPrinter(language.English)
	titler  = cases.Title(language.English)
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":    formatMoney,
		"quantity": formatQuantity,
		"rate":     formatRate,
		"date":     formatDate,
		"label":    formatLabel,
		"lines":    splitLines,
		"add":      func(a, b int) int { return a + b },
	}
}

// formatMoney groups thousands and prints whole yen for JPY, cents otherwise.
func formatMoney(amount decimal.Decimal, currency valueobject.CurrencyCode) string {
	places := 2
	if currency.IsBase() {
		places = 0
	}
	return printer.Sprint(number.Decimal(amount.Round(int32(places)).InexactFloat64(), number.Scale(places)))
}

// formatQuantity groups thousands and drops trailing zeros: 2 not 2.00.
func formatQuantity(q decimal.Decimal) string {
	places := 0
	if s := q.String(); strings.Contains(s, ".") {
		places = len(s) - strings.Index(s, ".") - 1
	}
	return printer.Sprint(number.Decimal(q.InexactFloat64(), number.Scale(places)))
}

func formatRate(rate decimal.Decimal) string {
	return rate.StringFixed(4)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return receivable.JapanDate(t).Format("Jan 2, 2006")
}

// formatLabel turns an enum value such as partially_paid into Partially Paid.
func formatLabel(s string) string {
	return titler.String(strings.ReplaceAll(s, "_", " "))
}

func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
