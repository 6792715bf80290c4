package persistence

import (
	"strings"

	"github.com/tradeledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes orderDir to ASC or DESC, defaulting to DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, otherwise defaultField.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

var InvoiceSortFields = map[string]bool{
	"date":         true,
	"created_at":   true,
	"invoice_no":   true,
	"total_amount": true,
	"balance":      true,
}

var PaymentSortFields = map[string]bool{
	"credit_date":  true,
	"payment_date": true,
	"created_at":   true,
	"amount":       true,
}

var CustomerSortFields = map[string]bool{
	"name":       true,
	"created_at": true,
	"updated_at": true,
}

// paginate applies whitelisted ordering and the page window. created_at is
// always the tie breaker so pages are stable.
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(field + " " + dir)
	if field != "created_at" {
		query = query.Order("created_at " + dir)
	}
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// likePattern builds a case-insensitive LIKE pattern that works on both
// postgres and sqlite when compared against LOWER(column).
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
