// Package api is the HTTP client of the invoicing REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/diewo77/invoicer-web/internal/config"
	"github.com/diewo77/invoicer-web/internal/pagination"
)

var ErrNotFound = errors.New("not found")

// Error is a non-2xx backend response.
type Error struct {
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Observer receives the duration and outcome of every call.
type Observer interface {
	ObserveAPICall(op string, d time.Duration, err error)
}

type Client struct {
	baseURL  string
	http     *http.Client
	log      zerolog.Logger
	observer Observer
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithObserver reports call metrics to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(cfg config.APIConfig, opts ...Option) *Client {
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListInvoices returns one page of invoices.
func (c *Client) ListInvoices(ctx context.Context, p pagination.Params) (*InvoicePage, error) {
	var out InvoicePage
	if err := c.do(ctx, "list_invoices", http.MethodGet, "/invoices", p.Query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	var out Invoice
	if err := c.do(ctx, "get_invoice", http.MethodGet, "/invoices/"+itoa(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	var out Invoice
	if err := c.do(ctx, "create_invoice", http.MethodPost, "/invoices", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateInvoice(ctx context.Context, id int64, req InvoiceRequest) (*Invoice, error) {
	var out Invoice
	if err := c.do(ctx, "update_invoice", http.MethodPut, "/invoices/"+itoa(id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangeStatus sends a partial update carrying only the finalized/paid flags.
func (c *Client) ChangeStatus(ctx context.Context, change StatusChange) (*Invoice, error) {
	var out Invoice
	body := statusRequest{Invoice: change}
	if err := c.do(ctx, "change_invoice_status", http.MethodPut, "/invoices/"+itoa(change.ID), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteInvoice(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_invoice", http.MethodDelete, "/invoices/"+itoa(id), nil, nil, nil)
}

// SearchCustomers returns one page of customers matching query.
func (c *Client) SearchCustomers(ctx context.Context, query string, p pagination.Params) (*CustomerPage, error) {
	q := p.Query()
	q.Set("query", query)
	var out CustomerPage
	if err := c.do(ctx, "search_customers", http.MethodGet, "/customers/search", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchProducts returns one page of products. The backend does not support filtering
// products, so query is accepted for symmetry with SearchCustomers and never sent.
func (c *Client) SearchProducts(ctx context.Context, query string, p pagination.Params) (*ProductPage, error) {
	_ = query
	var out ProductPage
	if err := c.do(ctx, "search_products", http.MethodGet, "/products/search", p.Query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var out Product
	if err := c.do(ctx, "get_product", http.MethodGet, "/products/"+itoa(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) (err error) {
	start := time.Now()
	defer func() {
		d := time.Since(start)
		if c.observer != nil {
			c.observer.ObserveAPICall(op, d, err)
		}
		ev := c.log.Debug()
		if err != nil {
			ev = c.log.Warn().Err(err)
		}
		ev.Str("op", op).Str("method", method).Str("path", path).Dur("duration", d).Msg("api call")
	}()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} from a response body, or returns the raw text.
func errorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(b) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(b))
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
