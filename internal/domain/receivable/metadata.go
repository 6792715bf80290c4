package receivable

import (
	"time"

	"github.com/tradeledger/backend/internal/domain/shared"
)

// BankAccount is a remittance account printed on invoices
type BankAccount struct {
	ID            string `json:"id"`
	Label         string `json:"label,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	Branch        string `json:"branch,omitempty"`
	SwiftCode     string `json:"swift_code,omitempty"`
	BankAddress   string `json:"bank_address,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
	AccountType   string `json:"account_type,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
}

// InvoiceMetadata is the issuer information shared by every invoice document
type InvoiceMetadata struct {
	CompanyName    string
	CompanyAddress string
	Phone          string
	Fax            string
	LogoURL        string
	BankAccounts   []BankAccount
	BankNotes      string
	SignatoryName  string
	SignatoryTitle string
	FooterNotes    string
	UpdatedAt      time.Time
}

// Validate checks the fields required to print an invoice
func (m *InvoiceMetadata) Validate() error {
	if m.CompanyName == "" {
		return shared.NewValidationError("INVALID_METADATA", "Company name is required")
	}
	seen := make(map[string]struct{}, len(m.BankAccounts))
	for _, a := range m.BankAccounts {
		if a.ID == "" {
			return shared.NewValidationError("INVALID_BANK_ACCOUNT", "Bank account id is required")
		}
		if _, dup := seen[a.ID]; dup {
			return shared.NewValidationError("INVALID_BANK_ACCOUNT", "Bank account ids must be unique")
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}

// BankAccountByID returns the account selected on an invoice, or the first one.
func (m *InvoiceMetadata) BankAccountByID(id string) *BankAccount {
	for i := range m.BankAccounts {
		if m.BankAccounts[i].ID == id {
			return &m.BankAccounts[i]
		}
	}
	if len(m.BankAccounts) > 0 {
		return &m.BankAccounts[0]
	}
	return nil
}
