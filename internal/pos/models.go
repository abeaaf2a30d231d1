package pos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Unit is a unit of measure (pcs, kg, box...)
type Unit struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Category groups products
type Category struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Party is a supplier or a customer. Both share the same shape on the API.
type Party struct {
	ID             int64           `json:"id,omitempty"`
	Name           string          `json:"name"`
	Address        string          `json:"address,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Mobile         string          `json:"mobile,omitempty"`
	TaxNumber      string          `json:"tax_number,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Description    string          `json:"description,omitempty"`
}

// Product represents a catalog product
type Product struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	SKU              string          `json:"sku"`
	UnitID           int64           `json:"unit_id"`
	CategoryID       int64           `json:"category_id"`
	Description      string          `json:"description"`
	CostPrice        decimal.Decimal `json:"cp"`
	SellingPrice     decimal.Decimal `json:"sp"`
	OpeningStock     decimal.Decimal `json:"opening_stock"`
	LowStockQuantity decimal.Decimal `json:"low_stock_quantity"`
	HSNCode          string          `json:"hsn_code"`
	Barcode          string          `json:"bar_code"`
	Quantity         decimal.Decimal `json:"quantity"` // current stock
	Unit             *Unit           `json:"unit,omitempty"`
	Category         *Category       `json:"category,omitempty"`
}

// UnitName returns the product's unit label, empty when the API omitted it
func (p Product) UnitName() string {
	if p.Unit == nil {
		return ""
	}
	return p.Unit.Name
}

// UnitRef returns the unit id, preferring the embedded unit object
func (p Product) UnitRef() int64 {
	if p.Unit != nil && p.Unit.ID != 0 {
		return p.Unit.ID
	}
	return p.UnitID
}

// LowStock reports whether current stock is at or below the configured threshold
func (p Product) LowStock() bool {
	if p.LowStockQuantity.IsZero() {
		return false
	}
	return p.Quantity.LessThanOrEqual(p.LowStockQuantity)
}

// ProductImage is an uploaded product picture
type ProductImage struct {
	ID           int64  `json:"id"`
	FullLocation string `json:"full_location"`
}

// UnitRef is the unit on an invoice detail line. The API has been seen to
// send it as a plain name, a numeric id or a {id, name} object.
type UnitRef struct {
	ID   int64
	Name string
}

func (u *UnitRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &u.Name)
	case '{':
		var obj struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		u.ID, u.Name = obj.ID, obj.Name
		return nil
	default:
		id, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unit value: %s", string(data))
		}
		u.ID = id
		return nil
	}
}

func (u UnitRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Name)
}

// InvoiceDetail is one line of a sale or purchase as returned by the API
type InvoiceDetail struct {
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	UnitID    int64           `json:"unit_id"`
	Unit      UnitRef         `json:"unit"`
	Product   struct {
		Name string `json:"name"`
	} `json:"product"`
}

// InvoiceDocument is a sale or a purchase as returned by the API
type InvoiceDocument struct {
	ID           int64           `json:"id"`
	InvoiceDate  string          `json:"invoice_date,omitempty"`
	PurchaseDate string          `json:"purchase_date,omitempty"`
	DueDate      string          `json:"due_date,omitempty"`
	Customer     *Party          `json:"customer,omitempty"`
	Supplier     *Party          `json:"supplier,omitempty"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	Details      []InvoiceDetail `json:"details,omitempty"`
}

// Date returns the document date regardless of kind
func (d InvoiceDocument) Date() string {
	if d.InvoiceDate != "" {
		return d.InvoiceDate
	}
	return d.PurchaseDate
}

// Counterparty returns the customer of a sale or the supplier of a purchase
func (d InvoiceDocument) Counterparty() *Party {
	if d.Customer != nil {
		return d.Customer
	}
	return d.Supplier
}

// CounterpartyName is a nil-safe shortcut used by list rendering
func (d InvoiceDocument) CounterpartyName() string {
	if p := d.Counterparty(); p != nil {
		return p.Name
	}
	return "-"
}

// WriteResult is the response convention for write endpoints
type WriteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// API dates come back either as plain dates or as Laravel timestamps
var apiDateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05",
}

// ParseAPIDate parses a date as sent by the API
func ParseAPIDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range apiDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date: %q", s)
}

// FormatDate renders an API date the way lists show it (Jan 2, 2006)
func FormatDate(s string) string {
	t, err := ParseAPIDate(s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}
