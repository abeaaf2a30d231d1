package pos

import (
	"github.com/shopspring/decimal"
)

// TaxRate is the flat rate applied to every sale and purchase
var TaxRate = decimal.RequireFromString("0.13")

// LineItem is one product entry of an invoice
type LineItem struct {
	ProductID     int64
	ProductUnitID int64
	Name          string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	UnitLabel     string
}

// Amount is quantity x unit price, unrounded
func (li LineItem) Amount() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// LineItems is the ordered set of lines of one invoice, keyed by product id.
// Insertion order is kept for display; adding a product that is already
// present replaces that line in place. The zero value is ready to use.
type LineItems struct {
	order []int64
	byID  map[int64]LineItem
}

// NewLineItems returns an empty collection
func NewLineItems() *LineItems {
	return &LineItems{byID: make(map[int64]LineItem)}
}

// AddOrReplace appends item, or replaces the line with the same product id
// keeping its position.
func (l *LineItems) AddOrReplace(item LineItem) *LineItems {
	if l.byID == nil {
		l.byID = make(map[int64]LineItem)
	}
	if _, ok := l.byID[item.ProductID]; !ok {
		l.order = append(l.order, item.ProductID)
	}
	l.byID[item.ProductID] = item
	return l
}

// Remove drops the line for productID. Removing an absent product is a no-op.
func (l *LineItems) Remove(productID int64) *LineItems {
	if _, ok := l.byID[productID]; !ok {
		return l
	}
	delete(l.byID, productID)
	for i, id := range l.order {
		if id == productID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return l
}

// Get returns the line for productID
func (l *LineItems) Get(productID int64) (LineItem, bool) {
	if l == nil {
		return LineItem{}, false
	}
	item, ok := l.byID[productID]
	return item, ok
}

// Len returns the number of lines
func (l *LineItems) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// Items returns the lines in display order
func (l *LineItems) Items() []LineItem {
	if l == nil {
		return nil
	}
	items := make([]LineItem, 0, len(l.order))
	for _, id := range l.order {
		items = append(items, l.byID[id])
	}
	return items
}

// At returns the line at display position i
func (l *LineItems) At(i int) (LineItem, bool) {
	if l == nil || i < 0 || i >= len(l.order) {
		return LineItem{}, false
	}
	return l.byID[l.order[i]], true
}

// Clone returns an independent copy
func (l *LineItems) Clone() *LineItems {
	c := NewLineItems()
	for _, item := range l.Items() {
		c.AddOrReplace(item)
	}
	return c
}

// Totals are derived from the lines on demand and never stored
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums quantity x price over all lines without intermediate
// rounding. Tax is rounded to cents and the total is subtotal + tax.
func ComputeTotals(items *LineItems) Totals {
	subtotal := decimal.Zero
	for _, item := range items.Items() {
		subtotal = subtotal.Add(item.Amount())
	}
	tax := subtotal.Mul(TaxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Totals is a shortcut for ComputeTotals(l)
func (l *LineItems) Totals() Totals {
	return ComputeTotals(l)
}

// Hydrate builds a collection from the detail lines of a server invoice,
// in server order.
func Hydrate(details []InvoiceDetail) *LineItems {
	items := NewLineItems()
	for _, d := range details {
		unitID := d.UnitID
		if unitID == 0 {
			unitID = d.Unit.ID
		}
		items.AddOrReplace(LineItem{
			ProductID:     d.ProductID,
			ProductUnitID: unitID,
			Name:          d.Product.Name,
			Quantity:      d.Quantity,
			UnitPrice:     d.Price,
			UnitLabel:     d.Unit.Name,
		})
	}
	return items
}

// InvoiceItemPayload is one entry of invoiceItems in a save request
type InvoiceItemPayload struct {
	ProductID int64           `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	UnitID    int64           `json:"unitId"`
	Unit      string          `json:"unit"`
}

// Serialize maps the lines to the request shape, in display order. The
// result is never nil so it encodes as [] when empty.
func (l *LineItems) Serialize() []InvoiceItemPayload {
	out := make([]InvoiceItemPayload, 0, l.Len())
	for _, item := range l.Items() {
		out = append(out, InvoiceItemPayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
			UnitID:    item.ProductUnitID,
			Unit:      item.UnitLabel,
		})
	}
	return out
}
