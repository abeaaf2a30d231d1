package pos

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)

func filledEditor(kind InvoiceKind) *InvoiceEditor {
	e := NewInvoiceEditor(kind, testNow)
	e.Header.CounterpartyID = 8
	e.Header.CounterpartyName = "Asha Traders"
	e.Items.AddOrReplace(item(1, "2", "50"))
	e.Items.AddOrReplace(item(2, "1", "19.99"))
	return e
}

func TestNewInvoiceHeader_DatesAtMidnight(t *testing.T) {
	h := NewInvoiceHeader(testNow)
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !h.InvoiceDate.Equal(want) || !h.DueDate.Equal(want) {
		t.Fatalf("dates = %s / %s", h.InvoiceDate, h.DueDate)
	}
}

func TestBuildInvoicePayload_Counterparty(t *testing.T) {
	sale := filledEditor(SaleInvoice).Payload()
	if sale.CustomerID == nil || *sale.CustomerID != 8 || sale.SupplierID != nil {
		t.Fatalf("sale payload has wrong counterparty: %+v", sale)
	}

	purchase := filledEditor(PurchaseInvoice).Payload()
	if purchase.SupplierID == nil || *purchase.SupplierID != 8 || purchase.CustomerID != nil {
		t.Fatalf("purchase payload has wrong counterparty: %+v", purchase)
	}

	raw, err := json.Marshal(purchase)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "customerId") {
		t.Errorf("purchase JSON mentions customerId: %s", raw)
	}
}

func TestBuildInvoicePayload_Shape(t *testing.T) {
	e := filledEditor(SaleInvoice)
	e.Header.DueDate = e.Header.InvoiceDate.AddDate(0, 0, 30)

	raw, err := json.Marshal(e.Payload())
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}

	if got["invoiceDate"] != "2026-03-14" || got["dueDate"] != "2026-04-13" {
		t.Errorf("dates = %v / %v", got["invoiceDate"], got["dueDate"])
	}
	items, ok := got["invoiceItems"].([]interface{})
	if !ok || len(items) != 2 {
		t.Fatalf("invoiceItems = %v", got["invoiceItems"])
	}
	first := items[0].(map[string]interface{})
	if first["productId"] != float64(1) || first["unitId"] != float64(10) || first["unit"] != "pcs" {
		t.Errorf("first item = %v", first)
	}
}

func TestInvoiceEditor_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *InvoiceEditor)
		want   string
	}{
		{"ok", func(e *InvoiceEditor) {}, ""},
		{"no customer", func(e *InvoiceEditor) { e.Header.CounterpartyID = 0 }, "select a customer"},
		{"no lines", func(e *InvoiceEditor) { e.Items = NewLineItems() }, "add at least one product"},
		{"due before date", func(e *InvoiceEditor) {
			e.Header.DueDate = e.Header.InvoiceDate.AddDate(0, 0, -1)
		}, "due date is before the invoice date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := filledEditor(SaleInvoice)
			tt.mutate(e)
			err := e.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.want {
				t.Fatalf("error = %v, want %q", err, tt.want)
			}
		})
	}

	p := filledEditor(PurchaseInvoice)
	p.Header.CounterpartyID = 0
	if err := p.Validate(); err == nil || err.Error() != "select a supplier" {
		t.Errorf("purchase error = %v", err)
	}
}

func TestInvoiceEditor_Title(t *testing.T) {
	if got := NewInvoiceEditor(PurchaseInvoice, testNow).Title(); got != "New Purchase" {
		t.Errorf("Title = %q", got)
	}
	e := NewInvoiceEditor(SaleInvoice, testNow)
	e.ID = 12
	if got := e.Title(); got != "Edit Sales-12" {
		t.Errorf("Title = %q", got)
	}
}

func TestEditInvoice_LoadsDocument(t *testing.T) {
	var doc InvoiceDocument
	raw := `{
		"id": 31,
		"invoice_date": "2026-02-01",
		"due_date": "2026-02-15T00:00:00.000000Z",
		"customer": {"id": 4, "name": "Bina"},
		"grand_total": "226",
		"details": [
			{"product_id": 1, "quantity": "2", "price": "100", "unit": {"id": 3, "name": "pcs"}, "product": {"name": "Tea"}}
		]
	}`
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	e := EditInvoice(SaleInvoice, doc, testNow)
	if e.ID != 31 || e.Header.CounterpartyID != 4 || e.Header.CounterpartyName != "Bina" {
		t.Fatalf("header = %+v", e.Header)
	}
	if got := e.Header.InvoiceDate.Format(dateLayout); got != "2026-02-01" {
		t.Errorf("invoice date = %s", got)
	}
	if got := e.Header.DueDate.Format(dateLayout); got != "2026-02-15" {
		t.Errorf("due date = %s", got)
	}

	li, ok := e.Items.Get(1)
	if !ok || li.ProductUnitID != 3 || li.Name != "Tea" {
		t.Fatalf("line = %+v", li)
	}
	if !e.Totals().Total.Equal(decimal.RequireFromString("226")) {
		t.Errorf("total = %s", e.Totals().Total)
	}
}

func TestInvoiceEditor_SaveCreateAndUpdate(t *testing.T) {
	var calls []string
	var lastBody InvoicePayload
	r := mux.NewRouter()
	handler := func(w http.ResponseWriter, req *http.Request) {
		calls = append(calls, req.Method+" "+req.URL.Path)
		_ = json.NewDecoder(req.Body).Decode(&lastBody)
		writeJSON(w, http.StatusOK, WriteResult{Success: true})
	}
	r.HandleFunc("/sales", handler).Methods(http.MethodPost)
	r.HandleFunc("/sales/{id}", handler).Methods(http.MethodPut)

	c := newTestClient(t, r, "tok")
	ctx := context.Background()

	e := filledEditor(SaleInvoice)
	msg, err := e.Save(ctx, c)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if msg != "Sale saved" {
		t.Errorf("message = %q", msg)
	}

	e.ID = 17
	if _, err := e.Save(ctx, c); err != nil {
		t.Fatalf("Save update: %v", err)
	}

	if diff := cmp.Diff([]string{"POST /sales", "PUT /sales/17"}, calls); diff != "" {
		t.Fatalf("unexpected calls (-want +got):\n%s", diff)
	}
	if len(lastBody.InvoiceItems) != 2 {
		t.Errorf("sent %d items", len(lastBody.InvoiceItems))
	}
}

func TestInvoiceEditor_SaveFailureKeepsState(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/purchases", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, WriteResult{Success: false, Message: "Supplier is inactive"})
	})

	c := newTestClient(t, r, "tok")
	e := filledEditor(PurchaseInvoice)
	before := productIDs(e.Items)

	_, err := e.Save(context.Background(), c)
	if err == nil || !strings.Contains(err.Error(), "Supplier is inactive") {
		t.Fatalf("expected the server message, got %v", err)
	}
	if diff := cmp.Diff(before, productIDs(e.Items)); diff != "" {
		t.Fatalf("lines changed after a failed save (-want +got):\n%s", diff)
	}
	if e.Header.CounterpartyID != 8 {
		t.Error("header changed after a failed save")
	}
}

func TestInvoiceEditor_SaveInvalidSendsNothing(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/sales", func(w http.ResponseWriter, req *http.Request) {
		t.Error("invalid document was sent")
	})

	c := newTestClient(t, r, "tok")
	e := NewInvoiceEditor(SaleInvoice, testNow)
	if _, err := e.Save(context.Background(), c); err == nil {
		t.Fatal("expected a validation error")
	}
}
