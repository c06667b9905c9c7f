package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/diewo77/invoicer-web/httpx"
	"github.com/diewo77/invoicer-web/internal/api"
	"github.com/diewo77/invoicer-web/internal/export"
	"github.com/diewo77/invoicer-web/internal/pagination"
	"github.com/diewo77/invoicer-web/internal/pdf"
	"github.com/diewo77/invoicer-web/internal/services"
	"github.com/diewo77/invoicer-web/internal/session"
	"github.com/diewo77/invoicer-web/validation"
	"github.com/diewo77/invoicer-web/view"
)

// DefaultPaymentTerm is the deadline offset prefilled on new invoices.
const DefaultPaymentTerm = 30 * 24 * time.Hour

type InvoiceHandler struct {
	backend  Backend
	sessions session.Store
	log      zerolog.Logger
	now      func() time.Time
}

func NewInvoiceHandler(backend Backend, sessions session.Store, log zerolog.Logger) *InvoiceHandler {
	return &InvoiceHandler{backend: backend, sessions: sessions, log: log, now: time.Now}
}

func invoiceID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// List: GET /invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.ParseParams(r.URL.Query())
	page, err := h.backend.ListInvoices(r.Context(), p)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, page)
		return
	}
	render(w, r, h.log, http.StatusOK, "invoices/index.html", map[string]any{
		"Invoices": page.Invoices,
		"Pager":    pagination.New(p.Page, page.Pagination.TotalPages, p.PerPage),
		"ReturnTo": r.URL.RequestURI(),
	})
}

// Export: GET /invoices/export.xlsx, the invoices of the requested list page.
func (h *InvoiceHandler) Export(w http.ResponseWriter, r *http.Request) {
	p := pagination.ParseParams(r.URL.Query())
	page, err := h.backend.ListInvoices(r.Context(), p)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(h.now())+`"`)
	if err := export.WriteInvoices(w, page.Invoices); err != nil {
		h.log.Error().Err(err).Msg("xlsx export failed")
	}
}

// Show: GET /invoices/{id}
func (h *InvoiceHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	inv, err := h.backend.GetInvoice(r.Context(), id)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, inv)
		return
	}
	totals := services.EditTotals(inv.PersistedLines(), nil)
	render(w, r, h.log, http.StatusOK, "invoices/show.html", map[string]any{
		"Invoice": inv,
		"Totals":  totals,
	})
}

// PDF: GET /invoices/{id}/pdf
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	inv, err := h.backend.GetInvoice(r.Context(), id)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	data, err := pdf.Invoice(*inv)
	if err != nil {
		h.log.Error().Err(err).Int64("invoice_id", id).Msg("pdf generation failed")
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+pdf.FileName(inv.ID, h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Edit: GET /invoices/{id}/edit opens an edit session on the invoice.
func (h *InvoiceHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	inv, err := h.backend.GetInvoice(r.Context(), id)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	if inv.Finalized {
		view.Flash(w, r, "invoice_finalized")
		http.Redirect(w, r, "/invoices/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
		return
	}
	sid := h.sessions.Create(&session.EditSession{
		InvoiceID:     inv.ID,
		Header:        inv.Header(),
		CustomerLabel: inv.CustomerName(),
		Persisted:     inv.PersistedLines(),
	})
	http.Redirect(w, r, "/edits/"+sid, http.StatusSeeOther)
}

// New: GET /invoices/new opens an edit session for an invoice that does not exist yet.
func (h *InvoiceHandler) New(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	s := &session.EditSession{}
	s.Header.Date = now.Format(validation.DateLayout)
	s.Header.Deadline = now.Add(DefaultPaymentTerm).Format(validation.DateLayout)
	sid := h.sessions.Create(s)
	http.Redirect(w, r, "/edits/"+sid, http.StatusSeeOther)
}

// Finalize: POST /invoices/{id}/finalize
func (h *InvoiceHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	yes := true
	h.changeStatus(w, r, api.StatusChange{Finalized: &yes}, "flash_invoice_finalized")
}

// Pay: POST /invoices/{id}/pay marks the invoice paid, which also finalizes it.
func (h *InvoiceHandler) Pay(w http.ResponseWriter, r *http.Request) {
	yes := true
	h.changeStatus(w, r, api.StatusChange{Finalized: &yes, Paid: &yes}, "flash_invoice_paid")
}

func (h *InvoiceHandler) changeStatus(w http.ResponseWriter, r *http.Request, change api.StatusChange, flash string) {
	id, ok := invoiceID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	change.ID = id
	inv, err := h.backend.ChangeStatus(r.Context(), change)
	if httpx.WantsJSON(r) {
		if err != nil {
			fail(w, r, h.log, err)
			return
		}
		httpx.JSON(w, http.StatusOK, inv)
		return
	}
	if err != nil {
		h.log.Warn().Err(err).Int64("invoice_id", id).Msg("status change failed")
		flash = errorCode(err)
	}
	view.Flash(w, r, flash)
	http.Redirect(w, r, returnTo(r, "/invoices"), http.StatusSeeOther)
}

// Delete: POST /invoices/{id}/delete
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	err := h.backend.DeleteInvoice(r.Context(), id)
	if httpx.WantsJSON(r) {
		if err != nil {
			fail(w, r, h.log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	flash := "flash_invoice_deleted"
	if err != nil {
		h.log.Warn().Err(err).Int64("invoice_id", id).Msg("delete failed")
		flash = errorCode(err)
	}
	view.Flash(w, r, flash)
	http.Redirect(w, r, returnTo(r, "/invoices"), http.StatusSeeOther)
}
