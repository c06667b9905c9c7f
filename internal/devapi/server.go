// Package devapi is a reference implementation of the invoicing REST backend, used for local
// development and integration tests of the web front-end.
package devapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/diewo77/invoicer-web/httpx"
	"github.com/diewo77/invoicer-web/internal/api"
	"github.com/diewo77/invoicer-web/internal/pagination"
)

// Prefix is the path every backend route lives under.
const Prefix = "/api/v1"

var (
	errNotFound  = errors.New("not_found")
	errFinalized = errors.New("invoice_finalized")
)

type Server struct {
	db  *gorm.DB
	log zerolog.Logger
	mux *http.ServeMux
}

func New(db *gorm.DB, log zerolog.Logger) *Server {
	s := &Server{db: db, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET "+Prefix+"/invoices", s.listInvoices)
	s.mux.HandleFunc("POST "+Prefix+"/invoices", s.createInvoice)
	s.mux.HandleFunc("GET "+Prefix+"/invoices/{id}", s.getInvoice)
	s.mux.HandleFunc("PUT "+Prefix+"/invoices/{id}", s.updateInvoice)
	s.mux.HandleFunc("DELETE "+Prefix+"/invoices/{id}", s.deleteInvoice)

	s.mux.HandleFunc("GET "+Prefix+"/customers/search", s.searchCustomers)
	s.mux.HandleFunc("GET "+Prefix+"/products/search", s.searchProducts)
	s.mux.HandleFunc("GET "+Prefix+"/products/{id}", s.getProduct)
}

func pageInfo(p pagination.Params, total int64) api.Pagination {
	return api.Pagination{
		Page:         p.Page,
		PageSize:     p.PerPage,
		TotalPages:   pagination.TotalPages(total, p.PerPage),
		TotalEntries: total,
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// fail maps an error to a JSON error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, errNotFound.Error(), nil)
	case errors.Is(err, errFinalized):
		httpx.JSONError(w, http.StatusUnprocessableEntity, errFinalized.Error(), nil)
	default:
		s.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
