package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Colors for terminal output
const (
	Red    = "\033[0;31m"
	Green  = "\033[0;32m"
	Yellow = "\033[1;33m"
	Blue   = "\033[0;34m"
	Cyan   = "\033[0;36m"
	Reset  = "\033[0m"
)

// ErrNotLoggedIn is returned when a call needs a token and none is stored
var ErrNotLoggedIn = errors.New("not logged in, run 'pos-cli login' first")

// APIError is a request the server answered but rejected
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Client handles API requests
type Client struct {
	Config     *Config
	HTTPClient *http.Client
	Store      *Store
}

// NewClient creates a new API client. store may be nil for unauthenticated use.
func NewClient(config *Config, store *Store) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		Config: config,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Store: store,
	}
}

// Token returns the stored bearer token, or "" when logged out
func (c *Client) Token() string {
	if c.Store == nil {
		return ""
	}
	token, err := c.Store.Get(TokenKey)
	if err != nil {
		log.Printf("[Auth] cannot read token: %v", err)
		return ""
	}
	return token
}

func (c *Client) endpointURL(endpoint string) string {
	return c.Config.APIURL + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpointURL(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends req and decodes a JSON response into out (may be nil)
func (c *Client) do(req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Printf("[API] %s %s failed: %v", req.Method, req.URL.Path, err)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	log.Printf("[API] %s %s -> %d in %s (%s)", req.Method, req.URL.Path, resp.StatusCode,
		time.Since(start).Round(time.Millisecond), req.Header.Get("X-Request-Id"))

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody, resp.Status)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %s", truncate(string(respBody), 200))
	}
	return nil
}

// errorMessage pulls {"message": "..."} out of an error body
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		for field, msgs := range payload.Errors {
			if len(msgs) > 0 {
				return field + ": " + msgs[0]
			}
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" && len(s) < 200 {
		return s
	}
	return fallback
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Request makes a JSON API request and decodes the response into out
func (c *Client) Request(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := c.newRequest(ctx, method, endpoint, reqBody, "application/json")
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// Write sends a create/update/delete and enforces the {success, message}
// convention. A success:false body comes back as an *APIError.
func (c *Client) Write(ctx context.Context, method, endpoint string, body interface{}, fallback string) (WriteResult, error) {
	var result WriteResult
	if err := c.Request(ctx, method, endpoint, body, &result); err != nil {
		return result, err
	}
	if !result.Success {
		msg := result.Message
		if msg == "" {
			msg = fallback
		}
		return result, &APIError{StatusCode: http.StatusOK, Message: msg}
	}
	return result, nil
}

// FormFile is a file attached to a multipart request
type FormFile struct {
	Field string
	Path  string
}

// RequestMultipart sends fields and files as multipart/form-data
func (c *Client) RequestMultipart(ctx context.Context, method, endpoint string, fields map[string]string, files []FormFile, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}
	for _, f := range files {
		if err := attachFile(w, f); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to build form: %w", err)
	}

	req, err := c.newRequest(ctx, method, endpoint, &buf, w.FormDataContentType())
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func attachFile(w *multipart.Writer, f FormFile) error {
	file, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", f.Path, err)
	}
	defer file.Close()

	part, err := w.CreateFormFile(f.Field, filepath.Base(f.Path))
	if err != nil {
		return fmt.Errorf("failed to attach %s: %w", f.Path, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to attach %s: %w", f.Path, err)
	}
	return nil
}

// withSearch appends ?search= when text is not empty
func withSearch(endpoint, search string) string {
	search = strings.TrimSpace(search)
	if search == "" {
		return endpoint
	}
	return endpoint + "?" + url.Values{"search": {search}}.Encode()
}

// Ping checks the API is reachable and the token is accepted
func (c *Client) Ping(ctx context.Context) (int, error) {
	var products []Product
	err := c.Request(ctx, http.MethodGet, "products", nil, &products)
	return len(products), err
}

// CmdPing tests the connection
func (c *Client) CmdPing(ctx context.Context) error {
	fmt.Printf("%sTesting connection to %s...%s\n", Blue, c.Config.APIURL, Reset)

	start := time.Now()
	n, err := c.Ping(ctx)
	if IsUnauthorized(err) {
		return fmt.Errorf("server reachable but token rejected: %w", err)
	}
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	fmt.Printf("%s✓ Connection successful%s (%s)\n", Green, Reset, time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Products visible: %s%d%s\n", Yellow, n, Reset)
	return nil
}

// CmdConfig shows current configuration
func (c *Client) CmdConfig() error {
	fmt.Printf("%sCurrent configuration:%s\n", Blue, Reset)
	if c.Config.Path != "" {
		fmt.Printf("  Config file: %s\n", c.Config.Path)
	} else {
		fmt.Printf("  Config file: %snone%s (environment only)\n", Yellow, Reset)
	}
	fmt.Printf("  API URL: %s\n", c.Config.APIURL)
	fmt.Printf("  Brand: %s\n", c.Config.Brand)
	fmt.Printf("  Currency: %s\n", c.Config.Currency)
	fmt.Printf("  Timeout: %s\n", c.Config.Timeout)
	if c.Store != nil {
		fmt.Printf("  State file: %s\n", c.Store.Path())
	}

	if c.Token() != "" {
		fmt.Printf("  Session: %slogged in%s\n", Green, Reset)
	} else {
		fmt.Printf("  Session: %snot logged in%s\n", Yellow, Reset)
	}
	return nil
}
