// Package handlers serves the HTML screens of the invoicing front-end.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/diewo77/invoicer-web/httpx"
	"github.com/diewo77/invoicer-web/i18n"
	"github.com/diewo77/invoicer-web/internal/api"
	"github.com/diewo77/invoicer-web/internal/invoicelines"
	"github.com/diewo77/invoicer-web/internal/pagination"
	"github.com/diewo77/invoicer-web/view"
)

// Backend is the invoicing REST backend. *api.Client implements it.
type Backend interface {
	ListInvoices(ctx context.Context, p pagination.Params) (*api.InvoicePage, error)
	GetInvoice(ctx context.Context, id int64) (*api.Invoice, error)
	CreateInvoice(ctx context.Context, req api.InvoiceRequest) (*api.Invoice, error)
	UpdateInvoice(ctx context.Context, id int64, req api.InvoiceRequest) (*api.Invoice, error)
	ChangeStatus(ctx context.Context, change api.StatusChange) (*api.Invoice, error)
	DeleteInvoice(ctx context.Context, id int64) error
	SearchCustomers(ctx context.Context, query string, p pagination.Params) (*api.CustomerPage, error)
	SearchProducts(ctx context.Context, query string, p pagination.Params) (*api.ProductPage, error)
	GetProduct(ctx context.Context, id int64) (*api.Product, error)
}

var _ Backend = (*api.Client)(nil)

// errorCode maps an error to a translation code shown to the user.
func errorCode(err error) string {
	var apiErr *api.Error
	switch {
	case errors.Is(err, invoicelines.ErrIndexOutOfRange):
		return "index_out_of_range"
	case errors.Is(err, invoicelines.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, invoicelines.ErrNoProduct):
		return "no_product"
	case errors.Is(err, api.ErrNotFound):
		return "not_found"
	case errors.As(err, &apiErr) && apiErr.Message == "invoice_finalized":
		return "invoice_finalized"
	}
	return "flash_backend_error"
}

// fail answers a request whose backend call failed.
func fail(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, api.ErrNotFound) {
		status = http.StatusNotFound
	} else {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("backend call failed")
	}
	code := errorCode(err)
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, status, code, nil)
		return
	}
	http.Error(w, i18n.T(i18n.LangFromContext(r.Context()), code), status)
}

// render writes a page, logging template errors.
func render(w http.ResponseWriter, r *http.Request, log zerolog.Logger, status int, name string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// returnTo returns the local URL posted in the "return" field, or fallback.
func returnTo(r *http.Request, fallback string) string {
	v := r.FormValue("return")
	if strings.HasPrefix(v, "/") && !strings.HasPrefix(v, "//") {
		return v
	}
	return fallback
}
