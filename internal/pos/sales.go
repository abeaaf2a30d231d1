package pos

import (
	"context"
	"fmt"
	"strings"
)

// CmdInvoiceList lists sales or purchases
func (c *Client) CmdInvoiceList(ctx context.Context, kind InvoiceKind, search string) error {
	fmt.Printf("%sFetching %s...%s\n", Blue, strings.ToLower(kind.Plural()), Reset)

	docs, err := c.ListInvoices(ctx, kind, search)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Printf("%sNo %s found%s\n", Yellow, strings.ToLower(kind.Plural()), Reset)
		return nil
	}

	fmt.Printf("\n%s%s (%d):%s\n", Cyan, kind.Plural(), len(docs), Reset)
	for _, d := range docs {
		fmt.Printf("  %-14s %-14s %-25s %s%14s%s\n",
			kind.DocumentName(d.ID), FormatDate(d.Date()), truncate(d.CounterpartyName(), 25),
			Yellow, c.Config.FormatMoney(d.GrandTotal), Reset)
	}
	return nil
}

// CmdInvoiceGet prints a document with its lines and derived totals
func (c *Client) CmdInvoiceGet(ctx context.Context, kind InvoiceKind, id int64) error {
	fmt.Printf("%sFetching %s: %d%s\n", Blue, strings.ToLower(kind.Label()), id, Reset)

	doc, err := c.GetInvoice(ctx, kind, id)
	if err != nil {
		return err
	}

	items := Hydrate(doc.Details)
	totals := ComputeTotals(items)
	money := c.Config.FormatMoney

	fmt.Printf("\n%s%s%s\n", Cyan, kind.DocumentName(doc.ID), Reset)
	fmt.Printf("  %s: %s\n", kind.Counterparty().Singular(), doc.CounterpartyName())
	fmt.Printf("  Date: %s\n", FormatDate(doc.Date()))
	if doc.DueDate != "" {
		fmt.Printf("  Due: %s\n", FormatDate(doc.DueDate))
	}
	fmt.Println()

	for _, li := range items.Items() {
		fmt.Printf("  %-30s %8s %-6s x %12s = %14s\n",
			truncate(li.Name, 30), li.Quantity, li.UnitLabel, money(li.UnitPrice), money(li.Amount()))
	}
	fmt.Println()
	fmt.Printf("  %-58s %14s\n", "Subtotal", money(totals.Subtotal))
	fmt.Printf("  %-58s %14s\n", "Tax", money(totals.Tax))
	fmt.Printf("  %s%-58s %14s%s\n", Green, "Total", money(totals.Total), Reset)
	if !doc.GrandTotal.IsZero() && !doc.GrandTotal.Equal(totals.Total.Round(2)) {
		fmt.Printf("  %s%-58s %14s%s\n", Yellow, "Recorded grand total", money(doc.GrandTotal), Reset)
	}
	return nil
}

// CmdInvoicePDF exports a document to PDF
func (c *Client) CmdInvoicePDF(ctx context.Context, kind InvoiceKind, id int64, path string) error {
	fmt.Printf("%sExporting %s...%s\n", Blue, kind.DocumentName(id), Reset)

	out, err := c.ExportInvoicePDF(ctx, kind, id, path)
	if err != nil {
		return err
	}
	fmt.Printf("%s✓ PDF written: %s%s\n", Green, out, Reset)
	return nil
}
