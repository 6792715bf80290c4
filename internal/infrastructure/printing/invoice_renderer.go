package printing

import (
	"bytes"
	"context"
	"embed"
	"html/template"

	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
	"github.com/tradeledger/backend/internal/domain/receivable"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var _ appreceivable.DocumentRenderer = (*InvoiceRenderer)(nil)

// InvoiceRenderer fills the invoice template and prints it.
type InvoiceRenderer struct {
	tmpl *template.Template
	pdf  PDFRenderer
	page PageOptions
}

func NewInvoiceRenderer(pdf PDFRenderer) (*InvoiceRenderer, error) {
	tmpl, err := template.New("invoice.html.tmpl").Funcs(templateFuncs()).ParseFS(templateFS, "templates/invoice.html.tmpl")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "parse invoice template", err)
	}
	return &InvoiceRenderer{tmpl: tmpl, pdf: pdf, page: DefaultPageOptions()}, nil
}

// RenderHTML produces the HTML document without printing it.
func (r *InvoiceRenderer) RenderHTML(doc *receivable.InvoiceDocument) (string, error) {
	if doc == nil || doc.Invoice == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "invoice document is empty", nil)
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, doc); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "execute invoice template", err)
	}
	return buf.String(), nil
}

func (r *InvoiceRenderer) RenderInvoice(ctx context.Context, doc *receivable.InvoiceDocument) ([]byte, error) {
	html, err := r.RenderHTML(doc)
	if err != nil {
		return nil, err
	}
	opts := r.page
	opts.Title = doc.Invoice.InvoiceNo
	return r.pdf.Render(ctx, html, opts)
}
