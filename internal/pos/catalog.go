package pos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PartyKind selects the customer or supplier endpoints
type PartyKind int

const (
	Customers PartyKind = iota
	Suppliers
)

// Path is the API collection path
func (k PartyKind) Path() string {
	if k == Suppliers {
		return "suppliers"
	}
	return "customers"
}

// Singular is the display name of one entity
func (k PartyKind) Singular() string {
	if k == Suppliers {
		return "Supplier"
	}
	return "Customer"
}

// Plural is the display name of the collection
func (k PartyKind) Plural() string {
	return k.Singular() + "s"
}

// TermKind selects the category or unit endpoints. Both are {name, description}.
type TermKind int

const (
	Categories TermKind = iota
	Units
)

func (k TermKind) Path() string {
	if k == Units {
		return "units"
	}
	return "categories"
}

func (k TermKind) Singular() string {
	if k == Units {
		return "Unit"
	}
	return "Category"
}

func (k TermKind) Plural() string {
	if k == Units {
		return "Units"
	}
	return "Categories"
}

// Term is a category or a unit
type Term struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func listResource[T any](ctx context.Context, c *Client, path, search string) ([]T, error) {
	var out []T
	if err := c.Request(ctx, http.MethodGet, withSearch(path, search), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func getResource[T any](ctx context.Context, c *Client, path string, id int64) (*T, error) {
	var out T
	if err := c.Request(ctx, http.MethodGet, fmt.Sprintf("%s/%d", path, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// saveResource creates (id == 0) or updates a JSON resource
func (c *Client) saveResource(ctx context.Context, path string, id int64, body interface{}) (string, error) {
	method, endpoint := http.MethodPost, path
	if id != 0 {
		method, endpoint = http.MethodPut, fmt.Sprintf("%s/%d", path, id)
	}

	var result WriteResult
	if err := c.Request(ctx, method, endpoint, body, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// DeleteResource deletes path/id
func (c *Client) DeleteResource(ctx context.Context, path string, id int64) error {
	return c.Request(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", path, id), nil, nil)
}

// ListTerms returns categories or units matching search
func (c *Client) ListTerms(ctx context.Context, kind TermKind, search string) ([]Term, error) {
	return listResource[Term](ctx, c, kind.Path(), search)
}

// GetTerm fetches one category or unit
func (c *Client) GetTerm(ctx context.Context, kind TermKind, id int64) (*Term, error) {
	return getResource[Term](ctx, c, kind.Path(), id)
}

// SaveTerm creates or updates a category or unit
func (c *Client) SaveTerm(ctx context.Context, kind TermKind, t Term) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", errors.New("name is required")
	}
	body := map[string]string{"name": strings.TrimSpace(t.Name), "description": t.Description}
	return c.saveResource(ctx, kind.Path(), t.ID, body)
}

// ListParties returns customers or suppliers matching search
func (c *Client) ListParties(ctx context.Context, kind PartyKind, search string) ([]Party, error) {
	return listResource[Party](ctx, c, kind.Path(), search)
}

// GetParty fetches one customer or supplier
func (c *Client) GetParty(ctx context.Context, kind PartyKind, id int64) (*Party, error) {
	return getResource[Party](ctx, c, kind.Path(), id)
}

// SaveParty creates or updates a customer or supplier
func (c *Client) SaveParty(ctx context.Context, kind PartyKind, p Party) (string, error) {
	if strings.TrimSpace(p.Name) == "" {
		return "", errors.New("name is required")
	}
	body := map[string]interface{}{
		"name":            strings.TrimSpace(p.Name),
		"address":         p.Address,
		"phone":           p.Phone,
		"mobile":          p.Mobile,
		"tax_number":      p.TaxNumber,
		"opening_balance": p.OpeningBalance,
		"description":     p.Description,
	}
	return c.saveResource(ctx, kind.Path(), p.ID, body)
}

// ProductInput is the product form as sent to the API. Values stay as text
// because the endpoint takes multipart fields.
type ProductInput struct {
	Name             string
	SKU              string
	UnitID           string
	CategoryID       string
	Description      string
	CostPrice        string
	SellingPrice     string
	OpeningStock     string
	LowStockQuantity string
	HSNCode          string
	Barcode          string
}

// ProductInputFrom prefills a form from an existing product
func ProductInputFrom(p Product) ProductInput {
	id := func(v int64) string {
		if v == 0 {
			return ""
		}
		return strconv.FormatInt(v, 10)
	}
	return ProductInput{
		Name:             p.Name,
		SKU:              p.SKU,
		UnitID:           id(p.UnitRef()),
		CategoryID:       id(p.CategoryID),
		Description:      p.Description,
		CostPrice:        p.CostPrice.String(),
		SellingPrice:     p.SellingPrice.String(),
		OpeningStock:     p.OpeningStock.String(),
		LowStockQuantity: p.LowStockQuantity.String(),
		HSNCode:          p.HSNCode,
		Barcode:          p.Barcode,
	}
}

// Validate checks required fields and numeric formats
func (in ProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	for _, f := range [][2]string{{"unit", in.UnitID}, {"category", in.CategoryID}} {
		if f[1] == "" {
			continue
		}
		if _, err := strconv.ParseInt(f[1], 10, 64); err != nil {
			return fmt.Errorf("%s must be a numeric id", f[0])
		}
	}
	for _, f := range [][2]string{
		{"cost price", in.CostPrice},
		{"selling price", in.SellingPrice},
		{"opening stock", in.OpeningStock},
		{"low stock quantity", in.LowStockQuantity},
	} {
		if _, err := parseAmount(f[0], f[1], false); err != nil {
			return err
		}
	}
	return nil
}

// Fields returns the multipart form fields
func (in ProductInput) Fields() map[string]string {
	return map[string]string{
		"name":               strings.TrimSpace(in.Name),
		"sku":                in.SKU,
		"unit_id":            in.UnitID,
		"category_id":        in.CategoryID,
		"description":        in.Description,
		"cp":                 in.CostPrice,
		"sp":                 in.SellingPrice,
		"opening_stock":      in.OpeningStock,
		"low_stock_quantity": in.LowStockQuantity,
		"hsn_code":           in.HSNCode,
		"bar_code":           in.Barcode,
	}
}

// parseAmount parses a non-negative decimal form value. Blank is zero
// unless required.
func parseAmount(label, v string, required bool) (decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		if required {
			return decimal.Zero, fmt.Errorf("%s is required", label)
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a number", label)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s cannot be negative", label)
	}
	return d, nil
}

// ListProducts returns products matching search
func (c *Client) ListProducts(ctx context.Context, search string) ([]Product, error) {
	return listResource[Product](ctx, c, "products", search)
}

// GetProduct fetches one product
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return getResource[Product](ctx, c, "products", id)
}

// SaveProduct creates (id == 0) or updates a product. Updates go through
// POST with _method=PUT because the endpoint is multipart.
func (c *Client) SaveProduct(ctx context.Context, id int64, in ProductInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	fields := in.Fields()
	endpoint := "products"
	if id != 0 {
		fields["_method"] = http.MethodPut
		endpoint = fmt.Sprintf("products/%d", id)
	}

	var result WriteResult
	if err := c.RequestMultipart(ctx, http.MethodPost, endpoint, fields, nil, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// ListProductImages returns the pictures of a product
func (c *Client) ListProductImages(ctx context.Context, productID int64) ([]ProductImage, error) {
	var images []ProductImage
	if err := c.Request(ctx, http.MethodGet, fmt.Sprintf("products/%d/images", productID), nil, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// UploadProductImages uploads files and returns the created images
func (c *Client) UploadProductImages(ctx context.Context, productID int64, paths []string) ([]ProductImage, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files to upload")
	}

	files := make([]FormFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, FormFile{Field: "images[]", Path: p})
	}

	var images []ProductImage
	endpoint := fmt.Sprintf("products/%d/images/upload", productID)
	if err := c.RequestMultipart(ctx, http.MethodPost, endpoint, nil, files, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// DeleteProductImage removes one picture
func (c *Client) DeleteProductImage(ctx context.Context, productID, imageID int64) error {
	return c.Request(ctx, http.MethodDelete, fmt.Sprintf("products/%d/images/%d", productID, imageID), nil, nil)
}
