package pos

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
)

// newTestClient points a client at a fake API served by r. The store lives
// in a temp dir and starts with token set (empty means logged out).
func newTestClient(t *testing.T, r *mux.Router, token string) *Client {
	t.Helper()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	store, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if token != "" {
		if err := store.Set(TokenKey, token); err != nil {
			t.Fatalf("Set token: %v", err)
		}
	}

	config := &Config{APIURL: srv.URL, Brand: "Test Shop", Currency: "Rs.", Timeout: 5 * time.Second}
	return NewClient(config, store)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_SendsBearerAndRequestID(t *testing.T) {
	var auth, reqID, accept string
	r := mux.NewRouter()
	r.HandleFunc("/products", func(w http.ResponseWriter, req *http.Request) {
		auth = req.Header.Get("Authorization")
		reqID = req.Header.Get("X-Request-Id")
		accept = req.Header.Get("Accept")
		writeJSON(w, http.StatusOK, []Product{})
	}).Methods(http.MethodGet)

	c := newTestClient(t, r, "secret-token")
	if _, err := c.ListProducts(context.Background(), ""); err != nil {
		t.Fatalf("ListProducts: %v", err)
	}

	if auth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", auth)
	}
	if reqID == "" {
		t.Error("expected an X-Request-Id header")
	}
	if accept != "application/json" {
		t.Errorf("Accept = %q", accept)
	}
}

func TestClient_NoAuthorizationWhenLoggedOut(t *testing.T) {
	var seen bool
	r := mux.NewRouter()
	r.HandleFunc("/products", func(w http.ResponseWriter, req *http.Request) {
		_, seen = req.Header["Authorization"]
		writeJSON(w, http.StatusOK, []Product{})
	})

	c := newTestClient(t, r, "")
	if _, err := c.ListProducts(context.Background(), ""); err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if seen {
		t.Fatal("Authorization header sent without a token")
	}
}

func TestClient_SearchQuery(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   string
	}{
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"text", "rice bag", "rice bag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			var had bool
			r := mux.NewRouter()
			r.HandleFunc("/customers", func(w http.ResponseWriter, req *http.Request) {
				_, had = req.URL.Query()["search"]
				got = req.URL.Query().Get("search")
				writeJSON(w, http.StatusOK, []Party{{ID: 1, Name: "Asha"}})
			})

			c := newTestClient(t, r, "tok")
			parties, err := c.ListParties(context.Background(), Customers, tt.search)
			if err != nil {
				t.Fatalf("ListParties: %v", err)
			}
			if len(parties) != 1 {
				t.Fatalf("expected 1 party, got %d", len(parties))
			}
			if got != tt.want {
				t.Errorf("search = %q, want %q", got, tt.want)
			}
			if had != (tt.want != "") {
				t.Errorf("search param present = %v", had)
			}
		})
	}
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message", http.StatusUnprocessableEntity, `{"message":"The name field is required."}`, "The name field is required."},
		{"field errors", http.StatusUnprocessableEntity, `{"errors":{"sku":["The sku has already been taken."]}}`, "sku: The sku has already been taken."},
		{"plain text", http.StatusInternalServerError, `boom`, "boom"},
		{"empty body", http.StatusNotFound, ``, "404 Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mux.NewRouter()
			r.HandleFunc("/units/{id}", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			c := newTestClient(t, r, "tok")
			_, err := c.GetTerm(context.Background(), Units, 4)

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Message != tt.want {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.want)
			}
		})
	}
}

func TestClient_Unauthorized(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/sales", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
	})

	c := newTestClient(t, r, "stale")
	_, err := c.ListInvoices(context.Background(), SaleInvoice, "")
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestClient_WriteRejectsSuccessFalse(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/sales", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, WriteResult{Success: false, Message: "Insufficient stock"})
	}).Methods(http.MethodPost)

	c := newTestClient(t, r, "tok")
	_, err := c.Write(context.Background(), http.MethodPost, "sales", map[string]string{}, "Failed to save sale")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Message != "Insufficient stock" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestClient_WriteFallbackMessage(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/purchases", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"success": false})
	})

	c := newTestClient(t, r, "tok")
	_, err := c.Write(context.Background(), http.MethodPost, "purchases", nil, "Failed to save purchase")
	if err == nil || err.Error() != "API error (200): Failed to save purchase" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_SaveProductUpdateUsesMethodOverride(t *testing.T) {
	var method, override, name, cp string
	r := mux.NewRouter()
	r.HandleFunc("/products/{id}", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		method = req.Method
		override = req.FormValue("_method")
		name = req.FormValue("name")
		cp = req.FormValue("cp")
		writeJSON(w, http.StatusOK, WriteResult{Success: true, Message: "Product updated"})
	})

	c := newTestClient(t, r, "tok")
	msg, err := c.SaveProduct(context.Background(), 9, ProductInput{Name: " Rice ", CostPrice: "40.5"})
	if err != nil {
		t.Fatalf("SaveProduct: %v", err)
	}

	got := []string{method, override, name, cp, msg}
	want := []string{http.MethodPost, http.MethodPut, "Rice", "40.5", "Product updated"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected request (-want +got):\n%s", diff)
	}
}

func TestClient_SaveProductCreateHasNoOverride(t *testing.T) {
	var override string
	var called bool
	r := mux.NewRouter()
	r.HandleFunc("/products", func(w http.ResponseWriter, req *http.Request) {
		_ = req.ParseMultipartForm(1 << 20)
		called = true
		override = req.FormValue("_method")
		writeJSON(w, http.StatusOK, WriteResult{Success: true})
	}).Methods(http.MethodPost)

	c := newTestClient(t, r, "tok")
	if _, err := c.SaveProduct(context.Background(), 0, ProductInput{Name: "Rice"}); err != nil {
		t.Fatalf("SaveProduct: %v", err)
	}
	if !called || override != "" {
		t.Fatalf("called=%v override=%q", called, override)
	}
}

func TestClient_SaveProductValidatesBeforeSending(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/products", func(w http.ResponseWriter, req *http.Request) {
		t.Error("request should not be sent")
	})

	c := newTestClient(t, r, "tok")
	tests := []ProductInput{
		{},
		{Name: "Rice", UnitID: "kg"},
		{Name: "Rice", SellingPrice: "-1"},
		{Name: "Rice", CostPrice: "abc"},
	}
	for _, in := range tests {
		if _, err := c.SaveProduct(context.Background(), 0, in); err == nil {
			t.Errorf("expected validation error for %+v", in)
		}
	}
}

func TestClient_UploadProductImages(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "front.png"), filepath.Join(dir, "back.png")}
	for _, p := range paths {
		if err := os.WriteFile(p, []byte("png-bytes"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	var names []string
	r := mux.NewRouter()
	r.HandleFunc("/products/{id}/images/upload", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["id"] != "3" {
			t.Errorf("id = %s", mux.Vars(req)["id"])
		}
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		for _, fh := range req.MultipartForm.File["images[]"] {
			names = append(names, fh.Filename)
		}
		writeJSON(w, http.StatusOK, []ProductImage{{ID: 1, FullLocation: "/img/1.png"}, {ID: 2, FullLocation: "/img/2.png"}})
	}).Methods(http.MethodPost)

	c := newTestClient(t, r, "tok")
	images, err := c.UploadProductImages(context.Background(), 3, paths)
	if err != nil {
		t.Fatalf("UploadProductImages: %v", err)
	}

	if diff := cmp.Diff([]string{"front.png", "back.png"}, names); diff != "" {
		t.Errorf("unexpected files (-want +got):\n%s", diff)
	}
	if len(images) != 2 {
		t.Errorf("expected 2 images, got %d", len(images))
	}
}

func TestClient_UploadMissingFile(t *testing.T) {
	c := newTestClient(t, mux.NewRouter(), "tok")
	_, err := c.UploadProductImages(context.Background(), 3, []string{filepath.Join(t.TempDir(), "nope.png")})
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestClient_DeleteProductImage(t *testing.T) {
	var path string
	r := mux.NewRouter()
	r.HandleFunc("/products/{pid}/images/{iid}", func(w http.ResponseWriter, req *http.Request) {
		path = req.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	c := newTestClient(t, r, "tok")
	if err := c.DeleteProductImage(context.Background(), 7, 21); err != nil {
		t.Fatalf("DeleteProductImage: %v", err)
	}
	if path != "/products/7/images/21" {
		t.Errorf("path = %s", path)
	}
}

func TestClient_SaveTermAndParty(t *testing.T) {
	var termMethod, partyMethod string
	var partyBody map[string]interface{}
	r := mux.NewRouter()
	r.HandleFunc("/categories", func(w http.ResponseWriter, req *http.Request) {
		termMethod = req.Method
		writeJSON(w, http.StatusOK, WriteResult{Success: true, Message: "Category created"})
	})
	r.HandleFunc("/suppliers/{id}", func(w http.ResponseWriter, req *http.Request) {
		partyMethod = req.Method
		_ = json.NewDecoder(req.Body).Decode(&partyBody)
		writeJSON(w, http.StatusOK, WriteResult{Success: true, Message: "Supplier updated"})
	})

	c := newTestClient(t, r, "tok")
	ctx := context.Background()

	msg, err := c.SaveTerm(ctx, Categories, Term{Name: "Grains"})
	if err != nil || msg != "Category created" || termMethod != http.MethodPost {
		t.Fatalf("SaveTerm: msg=%q err=%v method=%s", msg, err, termMethod)
	}

	msg, err = c.SaveParty(ctx, Suppliers, Party{ID: 5, Name: "Valley Farms", TaxNumber: "PAN-1"})
	if err != nil || msg != "Supplier updated" || partyMethod != http.MethodPut {
		t.Fatalf("SaveParty: msg=%q err=%v method=%s", msg, err, partyMethod)
	}
	if partyBody["tax_number"] != "PAN-1" {
		t.Errorf("tax_number = %v", partyBody["tax_number"])
	}

	if _, err := c.SaveTerm(ctx, Units, Term{Name: "  "}); err == nil {
		t.Error("expected an error for a blank unit name")
	}
}

func TestClient_ContextCancel(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/products", func(w http.ResponseWriter, req *http.Request) {
		<-req.Context().Done()
	})

	c := newTestClient(t, r, "tok")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.ListProducts(ctx, "rice"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
