package pos

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ReportData holds all dashboard metrics
type ReportData struct {
	// Stock
	TotalProducts  int
	StockValue     decimal.Decimal // sum of quantity x cost price
	ZeroStockItems int
	LowStock       []Product

	// Trade
	SalesCount     int
	SalesValue     decimal.Decimal
	PurchasesCount int
	PurchasesValue decimal.Decimal
	TopCustomers   []PartyStat

	// Catalog
	TotalCategories int
	TotalUnits      int
	TotalSuppliers  int
	TotalCustomers  int

	// Errors (for partial data display)
	Errors []string

	GeneratedAt time.Time
}

// PartyStat holds per-customer sales
type PartyStat struct {
	Name  string
	Count int
	Value decimal.Decimal
}

const topPartyLimit = 5

// FetchReport loads all metrics concurrently. Failed sections are listed in
// Errors; only an authentication failure aborts the whole report.
func (c *Client) FetchReport(ctx context.Context) (*ReportData, error) {
	data := &ReportData{GeneratedAt: time.Now()}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	partial := func(section string, err error) error {
		if IsUnauthorized(err) {
			return err
		}
		mu.Lock()
		data.Errors = append(data.Errors, fmt.Sprintf("Failed to fetch %s: %v", section, err))
		mu.Unlock()
		return nil
	}

	g.Go(func() error {
		products, err := c.ListProducts(ctx, "")
		if err != nil {
			return partial("products", err)
		}
		mu.Lock()
		defer mu.Unlock()
		data.applyProducts(products)
		return nil
	})

	for _, kind := range []InvoiceKind{SaleInvoice, PurchaseInvoice} {
		kind := kind
		g.Go(func() error {
			docs, err := c.ListInvoices(ctx, kind, "")
			if err != nil {
				return partial(kind.Path(), err)
			}
			mu.Lock()
			defer mu.Unlock()
			data.applyInvoices(kind, docs)
			return nil
		})
	}

	for _, kind := range []TermKind{Categories, Units} {
		kind := kind
		g.Go(func() error {
			terms, err := c.ListTerms(ctx, kind, "")
			if err != nil {
				return partial(kind.Path(), err)
			}
			mu.Lock()
			defer mu.Unlock()
			if kind == Units {
				data.TotalUnits = len(terms)
			} else {
				data.TotalCategories = len(terms)
			}
			return nil
		})
	}

	for _, kind := range []PartyKind{Customers, Suppliers} {
		kind := kind
		g.Go(func() error {
			parties, err := c.ListParties(ctx, kind, "")
			if err != nil {
				return partial(kind.Path(), err)
			}
			mu.Lock()
			defer mu.Unlock()
			if kind == Suppliers {
				data.TotalSuppliers = len(parties)
			} else {
				data.TotalCustomers = len(parties)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(data.Errors)
	return data, nil
}

func (d *ReportData) applyProducts(products []Product) {
	d.TotalProducts = len(products)
	d.StockValue = decimal.Zero
	d.LowStock = nil
	for _, p := range products {
		d.StockValue = d.StockValue.Add(p.Quantity.Mul(p.CostPrice))
		if p.Quantity.IsZero() {
			d.ZeroStockItems++
		}
		if p.LowStock() {
			d.LowStock = append(d.LowStock, p)
		}
	}
	sort.Slice(d.LowStock, func(i, j int) bool {
		return d.LowStock[i].Quantity.LessThan(d.LowStock[j].Quantity)
	})
}

func (d *ReportData) applyInvoices(kind InvoiceKind, docs []InvoiceDocument) {
	total := decimal.Zero
	for _, doc := range docs {
		total = total.Add(doc.GrandTotal)
	}

	if kind == PurchaseInvoice {
		d.PurchasesCount = len(docs)
		d.PurchasesValue = total
		return
	}

	d.SalesCount = len(docs)
	d.SalesValue = total
	d.TopCustomers = topParties(docs, topPartyLimit)
}

// topParties ranks counterparties by invoiced value
func topParties(docs []InvoiceDocument, limit int) []PartyStat {
	byName := make(map[string]*PartyStat)
	for _, doc := range docs {
		name := doc.CounterpartyName()
		s, ok := byName[name]
		if !ok {
			s = &PartyStat{Name: name}
			byName[name] = s
		}
		s.Count++
		s.Value = s.Value.Add(doc.GrandTotal)
	}

	stats := make([]PartyStat, 0, len(byName))
	for _, s := range byName {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if !stats[i].Value.Equal(stats[j].Value) {
			return stats[i].Value.GreaterThan(stats[j].Value)
		}
		return stats[i].Name < stats[j].Name
	})
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

// CmdReport displays the summary dashboard
func (c *Client) CmdReport(ctx context.Context) error {
	fmt.Printf("%sLoading dashboard...%s\n", Blue, Reset)

	data, err := c.FetchReport(ctx)
	if err != nil {
		return err
	}
	money := c.Config.FormatMoney

	fmt.Println()
	fmt.Printf("%s══════════════════════════════════════════════════════════════%s\n", Cyan, Reset)
	fmt.Printf("%s  %-58s  %s\n", Cyan, c.Config.Brand+" DASHBOARD", Reset)
	fmt.Printf("%s══════════════════════════════════════════════════════════════%s\n", Cyan, Reset)
	fmt.Println()

	fmt.Printf("%s── STOCK ─────────────────────────────────────────────────────%s\n", Yellow, Reset)
	fmt.Printf("  Products:          %d\n", data.TotalProducts)
	fmt.Printf("  Stock value:       %s\n", money(data.StockValue))
	if data.ZeroStockItems > 0 {
		fmt.Printf("  Out of stock:      %s%d ⚠%s\n", Red, data.ZeroStockItems, Reset)
	} else {
		fmt.Printf("  Out of stock:      0\n")
	}
	for _, p := range data.LowStock {
		fmt.Printf("    %s%-30s%s %s %s (min %s)\n", Red, truncate(p.Name, 30), Reset, p.Quantity, p.UnitName(), p.LowStockQuantity)
	}
	fmt.Println()

	fmt.Printf("%s── TRADE ─────────────────────────────────────────────────────%s\n", Yellow, Reset)
	fmt.Printf("  Sales:             %d (%s)\n", data.SalesCount, money(data.SalesValue))
	fmt.Printf("  Purchases:         %d (%s)\n", data.PurchasesCount, money(data.PurchasesValue))
	if len(data.TopCustomers) > 0 {
		fmt.Printf("  %sTop customers:%s\n", Cyan, Reset)
		for i, s := range data.TopCustomers {
			fmt.Printf("    %d. %-25s %3d sales  %s\n", i+1, truncate(s.Name, 25), s.Count, money(s.Value))
		}
	}
	fmt.Println()

	fmt.Printf("%s── CATALOG ───────────────────────────────────────────────────%s\n", Yellow, Reset)
	fmt.Printf("  Categories: %-4d Units: %-4d Suppliers: %-4d Customers: %d\n",
		data.TotalCategories, data.TotalUnits, data.TotalSuppliers, data.TotalCustomers)
	fmt.Println()

	fmt.Printf("Generated: %s\n", data.GeneratedAt.Format("2006-01-02 15:04:05"))
	if len(data.Errors) > 0 {
		fmt.Println()
		fmt.Printf("%sWarnings:%s\n", Yellow, Reset)
		for _, e := range data.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}
