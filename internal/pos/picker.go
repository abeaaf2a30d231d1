package pos

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

const (
	// ProductSearchDelay is the quiet period before the picker queries
	ProductSearchDelay = 300 * time.Millisecond
	// CounterpartySearchDelay applies to list search and party lookup
	CounterpartySearchDelay = 500 * time.Millisecond
)

// SearchGate debounces a search box. Every keystroke takes a new generation;
// only the newest generation may start a request, and results carrying an
// older generation are dropped. Starting a generation cancels the request
// of the previous one.
type SearchGate struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Next registers a keystroke and returns its generation
func (g *SearchGate) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.gen++
	g.stopLocked()
	return g.gen
}

// Current reports whether gen is still the newest generation
func (g *SearchGate) Current(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gen == g.gen
}

// Begin returns the context for gen's request, or ok=false when gen has
// already been superseded.
func (g *SearchGate) Begin(parent context.Context, gen uint64) (ctx context.Context, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if gen != g.gen {
		return nil, false
	}
	g.stopLocked()
	ctx, g.cancel = context.WithCancel(parent)
	return ctx, true
}

// Stop cancels any request in flight and invalidates pending generations
func (g *SearchGate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.stopLocked()
}

func (g *SearchGate) stopLocked() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// SelectProduct turns a picked product into a line. When the user is editing
// a line for the same product, its quantity and price are kept; otherwise
// quantity defaults to current stock and price to the selling price.
func SelectProduct(p Product, existing *LineItem) LineItem {
	li := LineItem{
		ProductID:     p.ID,
		ProductUnitID: p.UnitRef(),
		Name:          p.Name,
		Quantity:      p.Quantity,
		UnitPrice:     p.SellingPrice,
		UnitLabel:     p.UnitName(),
	}
	if existing != nil && existing.ProductID == p.ID {
		li.Quantity = existing.Quantity
		li.UnitPrice = existing.UnitPrice
		if li.UnitLabel == "" {
			li.UnitLabel = existing.UnitLabel
		}
		if li.ProductUnitID == 0 {
			li.ProductUnitID = existing.ProductUnitID
		}
	}
	return li
}

// LineItemForm is the text state of the picker form
type LineItemForm struct {
	Name     string
	Quantity string
	Price    string
	Unit     string
}

// FormFromLine prefills the form from a line
func FormFromLine(li LineItem) LineItemForm {
	return LineItemForm{
		Name:     li.Name,
		Quantity: li.Quantity.String(),
		Price:    li.UnitPrice.String(),
		Unit:     li.UnitLabel,
	}
}

// Build validates the form and merges it into base, which carries the ids of
// the selected product. Nothing reaches the editor unless this succeeds.
func (f LineItemForm) Build(base LineItem) (LineItem, error) {
	if base.ProductID == 0 {
		return LineItem{}, errors.New("select a product from the suggestions")
	}
	if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Quantity) == "" ||
		strings.TrimSpace(f.Price) == "" || strings.TrimSpace(f.Unit) == "" {
		return LineItem{}, errors.New("please fill all fields")
	}

	qty, err := parseAmount("quantity", f.Quantity, true)
	if err != nil {
		return LineItem{}, err
	}
	price, err := parseAmount("price", f.Price, true)
	if err != nil {
		return LineItem{}, err
	}

	li := base
	li.Name = strings.TrimSpace(f.Name)
	li.Quantity = qty
	li.UnitPrice = price
	li.UnitLabel = strings.TrimSpace(f.Unit)
	return li, nil
}
