package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/diewo77/invoicer-web/httpx"
	"github.com/diewo77/invoicer-web/internal/pagination"
)

type CustomerHandler struct {
	backend Backend
	log     zerolog.Logger
}

func NewCustomerHandler(backend Backend, log zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{backend: backend, log: log}
}

// List: GET /customers, optionally filtered by ?query=
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.ParseParams(r.URL.Query())
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	page, err := h.backend.SearchCustomers(r.Context(), query, p)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, page)
		return
	}
	render(w, r, h.log, http.StatusOK, "customers/index.html", map[string]any{
		"Customers": page.Customers,
		"Query":     query,
		"Pager":     pagination.New(p.Page, page.Pagination.TotalPages, p.PerPage),
	})
}
