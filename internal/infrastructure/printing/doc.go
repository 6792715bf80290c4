// Package printing renders invoice documents: an html/template produces
// the paginated invoice and headless Chrome prints it to A4 PDF.
//
//	pdf, _ := NewChromedpRenderer(&ChromedpConfig{NoSandbox: true})
//	defer pdf.Close()
//	invoices, _ := NewInvoiceRenderer(pdf)
//	data, err := invoices.RenderInvoice(ctx, doc)
package printing
