package receivable

import (
	"fmt"
	"strings"
)

// DocumentLine is one printed row. GroupHeader is set on the first line of
// a group whose title is shown.
type DocumentLine struct {
	GroupName   string
	GroupHeader bool
	Item        InvoiceItem
}

// DocumentPage is one printed page of lines
type DocumentPage struct {
	Number int
	Lines  []DocumentLine
}

// InvoiceDocument is a fully resolved, paginated invoice ready to render
type InvoiceDocument struct {
	Invoice     *Invoice
	Metadata    *InvoiceMetadata
	BankAccount *BankAccount
	Pages       []DocumentPage
}

// NewInvoiceDocument splits the invoice lines into pages of ItemsPerPage.
// An invoice without lines still produces one page.
func NewInvoiceDocument(inv *Invoice, meta *InvoiceMetadata) *InvoiceDocument {
	perPage := NormalizeItemsPerPage(inv.ItemsPerPage)
	lines := make([]DocumentLine, 0)
	for _, g := range inv.ItemGroups {
		for i, item := range g.Items {
			lines = append(lines, DocumentLine{
				GroupName:   g.Name,
				GroupHeader: i == 0 && g.IsShow && g.Name != "",
				Item:        item,
			})
		}
	}

	doc := &InvoiceDocument{Invoice: inv, Metadata: meta}
	if meta != nil {
		doc.BankAccount = meta.BankAccountByID(inv.BankAccountID)
	}
	for start := 0; start < len(lines) || start == 0; start += perPage {
		end := min(start+perPage, len(lines))
		doc.Pages = append(doc.Pages, DocumentPage{Number: len(doc.Pages) + 1, Lines: lines[start:end]})
		if end == len(lines) {
			break
		}
	}
	return doc
}

// TotalPages returns the page count
func (d *InvoiceDocument) TotalPages() int {
	return len(d.Pages)
}

// DocumentKey is the object storage key of the rendered invoice PDF
func (inv *Invoice) DocumentKey() string {
	no := strings.NewReplacer("/", "-", " ", "_").Replace(inv.InvoiceNo)
	return fmt.Sprintf("invoices/%s/%s-v%d.pdf", inv.ID, no, inv.Version)
}
