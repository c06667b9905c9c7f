package main

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/diewo77/invoicer-web/i18n"
	"github.com/diewo77/invoicer-web/internal/handlers"
	"github.com/diewo77/invoicer-web/internal/logging"
	"github.com/diewo77/invoicer-web/internal/metrics"
	"github.com/diewo77/invoicer-web/internal/session"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	log     zerolog.Logger
	metrics *metrics.Metrics

	invoices  *handlers.InvoiceHandler
	edits     *handlers.EditHandler
	customers *handlers.CustomerHandler
	products  *handlers.ProductHandler
}

// NewApp creates a new application with all routes configured.
func NewApp(backend handlers.Backend, sessions session.Store, m *metrics.Metrics, log zerolog.Logger) *App {
	app := &App{
		mux:       http.NewServeMux(),
		log:       log,
		metrics:   m,
		invoices:  handlers.NewInvoiceHandler(backend, sessions, log.With().Str("cmp", "invoices").Logger()),
		edits:     handlers.NewEditHandler(backend, sessions, log.With().Str("cmp", "edits").Logger()),
		customers: handlers.NewCustomerHandler(backend, log.With().Str("cmp", "customers").Logger()),
		products:  handlers.NewProductHandler(backend, log.With().Str("cmp", "products").Logger()),
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
// The metrics middleware wraps the mux directly so it sees the matched pattern.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var handler http.Handler = a.mux
	if a.metrics != nil {
		handler = a.metrics.Middleware(handler)
	}
	handler = logging.Middleware(a.log)(withPreferences(handler))
	handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	a.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/invoices", http.StatusSeeOther)
	})

	// ─────────────────────────────────────────────────────────────────────────
	// Invoices
	// ─────────────────────────────────────────────────────────────────────────
	ih := a.invoices
	a.mux.HandleFunc("GET /invoices", ih.List)
	a.mux.HandleFunc("GET /invoices/export.xlsx", ih.Export)
	a.mux.HandleFunc("GET /invoices/new", ih.New)
	a.mux.HandleFunc("GET /invoices/{id}", ih.Show)
	a.mux.HandleFunc("GET /invoices/{id}/pdf", ih.PDF)
	a.mux.HandleFunc("GET /invoices/{id}/edit", ih.Edit)
	a.mux.HandleFunc("POST /invoices/{id}/finalize", ih.Finalize)
	a.mux.HandleFunc("POST /invoices/{id}/pay", ih.Pay)
	a.mux.HandleFunc("POST /invoices/{id}/delete", ih.Delete)

	// ─────────────────────────────────────────────────────────────────────────
	// Edit sessions
	// ─────────────────────────────────────────────────────────────────────────
	eh := a.edits
	a.mux.HandleFunc("GET /edits/{sid}", eh.Show)
	a.mux.HandleFunc("POST /edits/{sid}/lines/{index}/toggle", eh.ToggleLine)
	a.mux.HandleFunc("POST /edits/{sid}/new-lines", eh.AddLine)
	a.mux.HandleFunc("POST /edits/{sid}/new-lines/{index}/delete", eh.RemoveNewLine)
	a.mux.HandleFunc("POST /edits/{sid}/save", eh.Save)
	a.mux.HandleFunc("POST /edits/{sid}/cancel", eh.Cancel)

	// ─────────────────────────────────────────────────────────────────────────
	// Catalog
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("GET /customers", a.customers.List)
	a.mux.HandleFunc("GET /products", a.products.List)

	if a.metrics != nil {
		a.mux.Handle("GET /metrics", a.metrics.Handler())
	}
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
}

// withPreferences injects the language preference from cookie, query or Accept-Language.
func withPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); i18n.Supported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
			})
		}
		if lang == "" {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}
