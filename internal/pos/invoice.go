package pos

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceKind distinguishes sales from purchases. Both share the editor.
type InvoiceKind int

const (
	SaleInvoice InvoiceKind = iota
	PurchaseInvoice
)

// Path is the API collection path
func (k InvoiceKind) Path() string {
	if k == PurchaseInvoice {
		return "purchases"
	}
	return "sales"
}

// Label is the display name of one document
func (k InvoiceKind) Label() string {
	if k == PurchaseInvoice {
		return "Purchase"
	}
	return "Sale"
}

// Plural is the display name of the collection
func (k InvoiceKind) Plural() string {
	return k.Label() + "s"
}

// Counterparty is the party on the other side of the document
func (k InvoiceKind) Counterparty() PartyKind {
	if k == PurchaseInvoice {
		return Suppliers
	}
	return Customers
}

// DocumentName is the printed reference, e.g. Sales-12
func (k InvoiceKind) DocumentName(id int64) string {
	if k == PurchaseInvoice {
		return fmt.Sprintf("Purchases-%d", id)
	}
	return fmt.Sprintf("Sales-%d", id)
}

const dateLayout = "2006-01-02"

// InvoiceHeader holds the document fields outside the lines
type InvoiceHeader struct {
	CounterpartyID   int64
	CounterpartyName string
	InvoiceDate      time.Time
	DueDate          time.Time
	Tax              decimal.Decimal // header-level adjustment, sent as is
	Discount         decimal.Decimal
}

// NewInvoiceHeader returns an empty header dated today
func NewInvoiceHeader(now time.Time) InvoiceHeader {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return InvoiceHeader{InvoiceDate: today, DueDate: today}
}

// HeaderFromDocument fills a header from a server document. Unparseable
// dates fall back to now.
func HeaderFromDocument(doc InvoiceDocument, now time.Time) InvoiceHeader {
	h := NewInvoiceHeader(now)
	if t, err := ParseAPIDate(doc.Date()); err == nil {
		h.InvoiceDate = t
	}
	if t, err := ParseAPIDate(doc.DueDate); err == nil {
		h.DueDate = t
	}
	if p := doc.Counterparty(); p != nil {
		h.CounterpartyID = p.ID
		h.CounterpartyName = p.Name
	}
	return h
}

// InvoicePayload is the save request body
type InvoicePayload struct {
	InvoiceDate  string               `json:"invoiceDate"`
	DueDate      string               `json:"dueDate"`
	Tax          decimal.Decimal      `json:"tax"`
	Discount     decimal.Decimal      `json:"discount"`
	CustomerID   *int64               `json:"customerId,omitempty"`
	SupplierID   *int64               `json:"supplierId,omitempty"`
	InvoiceItems []InvoiceItemPayload `json:"invoiceItems"`
}

// BuildInvoicePayload assembles the save body from the header and lines
func BuildInvoicePayload(kind InvoiceKind, h InvoiceHeader, items *LineItems) InvoicePayload {
	p := InvoicePayload{
		InvoiceDate:  h.InvoiceDate.Format(dateLayout),
		DueDate:      h.DueDate.Format(dateLayout),
		Tax:          h.Tax,
		Discount:     h.Discount,
		InvoiceItems: items.Serialize(),
	}
	if h.CounterpartyID != 0 {
		id := h.CounterpartyID
		if kind == PurchaseInvoice {
			p.SupplierID = &id
		} else {
			p.CustomerID = &id
		}
	}
	return p
}

// InvoiceEditor is the state of one sale or purchase being entered
type InvoiceEditor struct {
	Kind   InvoiceKind
	ID     int64 // 0 while creating
	Header InvoiceHeader
	Items  *LineItems
}

// NewInvoiceEditor starts a blank document
func NewInvoiceEditor(kind InvoiceKind, now time.Time) *InvoiceEditor {
	return &InvoiceEditor{
		Kind:   kind,
		Header: NewInvoiceHeader(now),
		Items:  NewLineItems(),
	}
}

// EditInvoice loads a server document into an editor
func EditInvoice(kind InvoiceKind, doc InvoiceDocument, now time.Time) *InvoiceEditor {
	return &InvoiceEditor{
		Kind:   kind,
		ID:     doc.ID,
		Header: HeaderFromDocument(doc, now),
		Items:  Hydrate(doc.Details),
	}
}

// Title is shown at the top of the editor
func (e *InvoiceEditor) Title() string {
	if e.ID == 0 {
		return "New " + e.Kind.Label()
	}
	return "Edit " + e.Kind.DocumentName(e.ID)
}

// Totals derives subtotal, tax and total from the current lines
func (e *InvoiceEditor) Totals() Totals {
	return ComputeTotals(e.Items)
}

// Payload builds the save body
func (e *InvoiceEditor) Payload() InvoicePayload {
	return BuildInvoicePayload(e.Kind, e.Header, e.Items)
}

// Validate reports what would make the server reject the document
func (e *InvoiceEditor) Validate() error {
	if e.Header.CounterpartyID == 0 {
		return fmt.Errorf("select a %s", strings.ToLower(e.Kind.Counterparty().Singular()))
	}
	if e.Items.Len() == 0 {
		return fmt.Errorf("add at least one product")
	}
	if e.Header.DueDate.Before(e.Header.InvoiceDate) {
		return fmt.Errorf("due date is before the invoice date")
	}
	return nil
}

// Save sends the document. The editor state is never modified, so a failed
// save can be retried as is.
func (e *InvoiceEditor) Save(ctx context.Context, c *Client) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	res, err := c.SaveInvoice(ctx, e.Kind, e.ID, e.Payload())
	if err != nil {
		return "", err
	}
	if res.Message != "" {
		return res.Message, nil
	}
	return e.Kind.Label() + " saved", nil
}

// ListInvoices returns sales or purchases matching search
func (c *Client) ListInvoices(ctx context.Context, kind InvoiceKind, search string) ([]InvoiceDocument, error) {
	return listResource[InvoiceDocument](ctx, c, kind.Path(), search)
}

// GetInvoice fetches one sale or purchase with its details
func (c *Client) GetInvoice(ctx context.Context, kind InvoiceKind, id int64) (*InvoiceDocument, error) {
	return getResource[InvoiceDocument](ctx, c, kind.Path(), id)
}

// SaveInvoice creates (id == 0) or updates a document
func (c *Client) SaveInvoice(ctx context.Context, kind InvoiceKind, id int64, payload InvoicePayload) (WriteResult, error) {
	method, endpoint := http.MethodPost, kind.Path()
	if id != 0 {
		method, endpoint = http.MethodPut, fmt.Sprintf("%s/%d", kind.Path(), id)
	}
	return c.Write(ctx, method, endpoint, payload, "Failed to save "+strings.ToLower(kind.Label()))
}
