package pos

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// InvoicePDF renders a sale or purchase as a printable A4 document
type InvoicePDF struct {
	Kind     InvoiceKind
	Doc      InvoiceDocument
	Brand    string
	Currency string
}

// Render writes the PDF to w. Totals are derived from the detail lines.
func (p InvoicePDF) Render(w io.Writer) error {
	items := Hydrate(p.Doc.Details)
	totals := ComputeTotals(items)
	money := func(s string) string { return p.Currency + s }

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(p.Kind.DocumentName(p.Doc.ID), true)
	pdf.SetCreator(p.Brand, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(120, 10, tr(p.Brand), "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(70, 10, tr(p.Kind.DocumentName(p.Doc.ID)), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 11)
	party := p.Kind.Counterparty().Singular()
	pdf.CellFormat(40, 7, party+":", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr(p.Doc.CounterpartyName()), "", 1, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Date:", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, FormatDate(p.Doc.Date()), "", 1, "L", false, 0, "")
	if p.Doc.DueDate != "" {
		pdf.CellFormat(40, 7, "Due date:", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, FormatDate(p.Doc.DueDate), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	cols := []struct {
		title string
		width float64
		align string
	}{
		{"Product", 80, "L"},
		{"Qty", 25, "R"},
		{"Unit", 20, "L"},
		{"Price", 30, "R"},
		{"Amount", 35, "R"},
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range cols {
		pdf.CellFormat(c.width, 8, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, li := range items.Items() {
		row := []string{
			tr(li.Name),
			li.Quantity.String(),
			tr(li.UnitLabel),
			money(li.UnitPrice.StringFixed(2)),
			money(li.Amount().StringFixed(2)),
		}
		for i, c := range cols {
			pdf.CellFormat(c.width, 7, row[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	summary := [][2]string{
		{"Subtotal", money(totals.Subtotal.StringFixed(2))},
		{fmt.Sprintf("Tax (%s%%)", TaxRate.Shift(2).String()), money(totals.Tax.StringFixed(2))},
		{"Total", money(totals.Total.StringFixed(2))},
	}
	for i, row := range summary {
		style := ""
		if i == len(summary)-1 {
			style = "B"
		}
		pdf.SetFont("Arial", style, 11)
		pdf.CellFormat(155, 7, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, row[1], "", 1, "R", false, 0, "")
	}

	pdf.SetY(-20)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 6, "Generated "+time.Now().Format("2006-01-02 15:04"), "", 0, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build PDF: %w", err)
	}
	return pdf.Output(w)
}

// WriteFile renders the PDF into path
func (p InvoicePDF) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	if err := p.Render(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// ExportInvoicePDF fetches a document and writes it to path. An empty path
// defaults to <DocumentName>.pdf in the working directory.
func (c *Client) ExportInvoicePDF(ctx context.Context, kind InvoiceKind, id int64, path string) (string, error) {
	doc, err := c.GetInvoice(ctx, kind, id)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = kind.DocumentName(id) + ".pdf"
	}

	p := InvoicePDF{Kind: kind, Doc: *doc, Brand: c.Config.Brand, Currency: c.Config.Currency}
	if err := p.WriteFile(path); err != nil {
		return "", err
	}
	return path, nil
}
