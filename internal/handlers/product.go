package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/diewo77/invoicer-web/httpx"
	"github.com/diewo77/invoicer-web/internal/pagination"
)

type ProductHandler struct {
	backend Backend
	log     zerolog.Logger
}

func NewProductHandler(backend Backend, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{backend: backend, log: log}
}

// List: GET /products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.ParseParams(r.URL.Query())
	page, err := h.backend.SearchProducts(r.Context(), r.URL.Query().Get("query"), p)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, page)
		return
	}
	render(w, r, h.log, http.StatusOK, "products/index.html", map[string]any{
		"Products": page.Products,
		"Pager":    pagination.New(p.Page, page.Pagination.TotalPages, p.PerPage),
	})
}
