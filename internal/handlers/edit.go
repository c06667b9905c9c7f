package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/diewo77/invoicer-web/httpx"
	"github.com/diewo77/invoicer-web/internal/api"
	"github.com/diewo77/invoicer-web/internal/invoicelines"
	"github.com/diewo77/invoicer-web/internal/pagination"
	"github.com/diewo77/invoicer-web/internal/services"
	"github.com/diewo77/invoicer-web/internal/session"
	"github.com/diewo77/invoicer-web/validation"
	"github.com/diewo77/invoicer-web/view"
)

// customerChoices is how many customers the edit screen offers per search.
const customerChoices = 20

// customerOption is one entry of the customer select.
type customerOption struct {
	ID       int64
	Label    string
	Selected bool
}

// customerOptions lists the search results and always includes the session's customer,
// so posting the form unchanged keeps it.
func customerOptions(s *session.EditSession, customers []api.Customer) []customerOption {
	out := make([]customerOption, 0, len(customers)+1)
	found := false
	for _, c := range customers {
		selected := c.ID == s.Header.CustomerID
		found = found || selected
		out = append(out, customerOption{ID: c.ID, Label: customerLabel(c), Selected: selected})
	}
	if !found && s.Header.CustomerID > 0 {
		label := s.CustomerLabel
		if label == "" {
			label = "#" + strconv.FormatInt(s.Header.CustomerID, 10)
		}
		out = append([]customerOption{{ID: s.Header.CustomerID, Label: label, Selected: true}}, out...)
	}
	return out
}

func customerLabel(c api.Customer) string {
	if c.City == "" {
		return c.Name()
	}
	return c.Name() + " (" + c.City + ")"
}

// EditHandler drives an edit session: line toggles, new lines, save and cancel.
type EditHandler struct {
	backend  Backend
	sessions session.Store
	log      zerolog.Logger
}

func NewEditHandler(backend Backend, sessions session.Store, log zerolog.Logger) *EditHandler {
	return &EditHandler{backend: backend, sessions: sessions, log: log}
}

// editState is the JSON view of a session.
type editState struct {
	ID        string                       `json:"id"`
	InvoiceID int64                        `json:"invoice_id,omitempty"`
	Header    invoicelines.Header          `json:"header"`
	Persisted []invoicelines.PersistedLine `json:"persisted_lines"`
	Added     []invoicelines.NewLine       `json:"new_lines"`
	Totals    services.Totals              `json:"totals"`
}

func stateOf(s *session.EditSession) editState {
	return editState{
		ID:        s.ID,
		InvoiceID: s.InvoiceID,
		Header:    s.Header,
		Persisted: s.Persisted,
		Added:     s.Added,
		Totals:    services.EditTotals(s.Persisted, s.Added),
	}
}

func editURL(sid string) string { return "/edits/" + sid }

// expired answers requests on a session that no longer exists.
func (h *EditHandler) expired(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusNotFound, "flash_session_expired", nil)
		return
	}
	view.Flash(w, r, "flash_session_expired")
	http.Redirect(w, r, "/invoices", http.StatusSeeOther)
}

// Show: GET /edits/{sid}
func (h *EditHandler) Show(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(r.PathValue("sid"))
	if err != nil {
		h.expired(w, r)
		return
	}
	h.render(w, r, http.StatusOK, s, nil, "")
}

func (h *EditHandler) render(w http.ResponseWriter, r *http.Request, status int, s *session.EditSession, errs validation.Violations, errCode string) {
	if httpx.WantsJSON(r) {
		if errs != nil {
			httpx.JSONError(w, status, "validation", errs)
			return
		}
		if errCode != "" {
			httpx.JSONError(w, status, errCode, nil)
			return
		}
		httpx.JSON(w, status, stateOf(s))
		return
	}

	ctx := r.Context()
	pp := pagination.ParseParams(r.URL.Query())
	var products []api.Product
	productPager := pagination.New(pp.Page, 1, pp.PerPage)
	if page, err := h.backend.SearchProducts(ctx, "", pp); err != nil {
		h.log.Warn().Err(err).Msg("load products")
	} else {
		products = page.Products
		productPager = pagination.New(pp.Page, page.Pagination.TotalPages, pp.PerPage)
	}
	customerQuery := strings.TrimSpace(r.FormValue("customer_query"))
	var customers []api.Customer
	if page, err := h.backend.SearchCustomers(ctx, customerQuery, pagination.Params{Page: 1, PerPage: customerChoices}); err != nil {
		h.log.Warn().Err(err).Msg("load customers")
	} else {
		customers = page.Customers
	}

	render(w, r, h.log, status, "edits/edit.html", map[string]any{
		"Session":       s,
		"Totals":        services.EditTotals(s.Persisted, s.Added),
		"Products":      products,
		"ProductPager":  productPager,
		"Customers":     customerOptions(s, customers),
		"CustomerQuery": customerQuery,
		"Errors":        errs,
		"Error":         errCode,
	})
}

// after finishes a line operation: redirect back to the screen, or show why it failed.
func (h *EditHandler) after(w http.ResponseWriter, r *http.Request, s *session.EditSession, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		h.expired(w, r)
	case err != nil:
		h.render(w, r, http.StatusBadRequest, s, nil, errorCode(err))
	case httpx.WantsJSON(r):
		httpx.JSON(w, http.StatusOK, stateOf(s))
	default:
		http.Redirect(w, r, editURL(s.ID), http.StatusSeeOther)
	}
}

// pathIndex parses the {index} wildcard. Malformed values map to -1, which every
// line operation rejects as out of range.
func pathIndex(r *http.Request) int {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return -1
	}
	return i
}

// ToggleLine: POST /edits/{sid}/lines/{index}/toggle
func (h *EditHandler) ToggleLine(w http.ResponseWriter, r *http.Request) {
	index := pathIndex(r)
	s, err := h.sessions.Update(r.PathValue("sid"), func(s *session.EditSession) error {
		return s.ToggleRemoval(index)
	})
	h.after(w, r, s, err)
}

// AddLine: POST /edits/{sid}/new-lines with product_id and quantity.
func (h *EditHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	current, err := h.sessions.Get(sid)
	if err != nil {
		h.expired(w, r)
		return
	}

	productID, _ := strconv.ParseInt(strings.TrimSpace(r.FormValue("product_id")), 10, 64)
	quantity, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		quantity = 0
	}
	if productID <= 0 {
		h.after(w, r, current, invoicelines.ErrNoProduct)
		return
	}
	product, err := h.backend.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			err = invoicelines.ErrNoProduct
		}
		h.after(w, r, current, err)
		return
	}
	line, err := invoicelines.LineFromProduct(product.Ref(), quantity)
	if err != nil {
		h.after(w, r, current, err)
		return
	}
	s, err := h.sessions.Update(sid, func(s *session.EditSession) error { return s.AddLine(line) })
	h.after(w, r, s, err)
}

// RemoveNewLine: POST /edits/{sid}/new-lines/{index}/delete
func (h *EditHandler) RemoveNewLine(w http.ResponseWriter, r *http.Request) {
	index := pathIndex(r)
	s, err := h.sessions.Update(r.PathValue("sid"), func(s *session.EditSession) error {
		return s.RemoveNewLine(index)
	})
	h.after(w, r, s, err)
}

// Save: POST /edits/{sid}/save validates the session and sends it to the backend.
// Invalid sessions are shown again and nothing is sent.
func (h *EditHandler) Save(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	s, err := h.sessions.Update(sid, func(s *session.EditSession) error {
		previous := s.Header.CustomerID
		applyHeader(&s.Header, r)
		if s.Header.CustomerID != previous {
			s.CustomerLabel = ""
		}
		return nil
	})
	if err != nil {
		h.expired(w, r)
		return
	}

	attrs, err := s.Submission()
	var verr *invoicelines.ValidationError
	if errors.As(err, &verr) {
		h.render(w, r, http.StatusUnprocessableEntity, s, verr.Violations, "")
		return
	}

	ctx := r.Context()
	req := api.InvoiceRequest{Invoice: attrs}
	var inv *api.Invoice
	flash := "flash_invoice_saved"
	if s.IsNew() {
		inv, err = h.backend.CreateInvoice(ctx, req)
		flash = "flash_invoice_created"
	} else {
		inv, err = h.backend.UpdateInvoice(ctx, s.InvoiceID, req)
	}
	if err != nil {
		h.log.Warn().Err(err).Int64("invoice_id", s.InvoiceID).Msg("save invoice failed")
		h.render(w, r, http.StatusUnprocessableEntity, s, nil, errorCode(err))
		return
	}

	h.sessions.Delete(sid)
	h.log.Info().Int64("invoice_id", inv.ID).Bool("created", s.IsNew()).Msg("invoice saved")
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, inv)
		return
	}
	view.Flash(w, r, flash)
	http.Redirect(w, r, "/invoices/"+strconv.FormatInt(inv.ID, 10), http.StatusSeeOther)
}

// applyHeader copies the header fields present in the form.
func applyHeader(h *invoicelines.Header, r *http.Request) {
	if r.PostForm.Has("customer_id") {
		id, err := strconv.ParseInt(strings.TrimSpace(r.PostForm.Get("customer_id")), 10, 64)
		if err != nil {
			id = 0
		}
		h.CustomerID = id
	}
	if r.PostForm.Has("date") {
		h.Date = strings.TrimSpace(r.PostForm.Get("date"))
	}
	if r.PostForm.Has("deadline") {
		h.Deadline = strings.TrimSpace(r.PostForm.Get("deadline"))
	}
}

// Cancel: POST /edits/{sid}/cancel drops the session without sending anything.
func (h *EditHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	target := "/invoices"
	if s, err := h.sessions.Get(sid); err == nil && !s.IsNew() {
		target = "/invoices/" + strconv.FormatInt(s.InvoiceID, 10)
	}
	h.sessions.Delete(sid)
	if httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
