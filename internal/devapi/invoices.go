package devapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/invoicer-web/httpx"
	"github.com/diewo77/invoicer-web/internal/invoicelines"
	"github.com/diewo77/invoicer-web/internal/models"
	"github.com/diewo77/invoicer-web/internal/pagination"
	"github.com/diewo77/invoicer-web/validation"
)

// invoiceInput is the body of invoice writes. Nil fields are left unchanged, so
// {"id": 1, "paid": true} only marks the invoice paid.
type invoiceInput struct {
	CustomerID *int64                        `json:"customer_id"`
	Date       *string                       `json:"date"`
	Deadline   *string                       `json:"deadline"`
	Finalized  *bool                         `json:"finalized"`
	Paid       *bool                         `json:"paid"`
	Lines      []invoicelines.LineAttributes `json:"invoice_lines_attributes"`
}

type invoiceEnvelope struct {
	Invoice invoiceInput `json:"invoice"`
}

// changesContent reports whether applying in would change more than the status flags
// of a finalized invoice.
func (in invoiceInput) changesContent(inv *models.Invoice) bool {
	switch {
	case len(in.Lines) > 0:
		return true
	case in.CustomerID != nil && *in.CustomerID != inv.CustomerID:
		return true
	case in.Date != nil && *in.Date != inv.Date:
		return true
	case in.Deadline != nil && *in.Deadline != inv.Deadline:
		return true
	case in.Finalized != nil && !*in.Finalized:
		return true
	}
	return false
}

func (in invoiceInput) apply(inv *models.Invoice) {
	if in.CustomerID != nil && *in.CustomerID != inv.CustomerID {
		inv.CustomerID = *in.CustomerID
		inv.Customer = nil
	}
	if in.Date != nil {
		inv.Date = *in.Date
	}
	if in.Deadline != nil {
		inv.Deadline = *in.Deadline
	}
	if in.Finalized != nil {
		inv.Finalized = *in.Finalized
	}
	if in.Paid != nil {
		inv.Paid = *in.Paid
	}
}

func withLines(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Customer").Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func (s *Server) load(ctx context.Context, id int64) (*models.Invoice, error) {
	var inv models.Invoice
	if err := withLines(s.db.WithContext(ctx)).First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("load invoice %d: %w", id, err)
	}
	return &inv, nil
}

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := pagination.ParseParams(r.URL.Query())

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Invoice{}).Count(&total).Error; err != nil {
		s.fail(w, r, err)
		return
	}
	invoices := []models.Invoice{}
	if err := withLines(s.db.WithContext(ctx)).Order("id DESC").Limit(p.PerPage).Offset(p.Offset()).
		Find(&invoices).Error; err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoices":   invoices,
		"pagination": pageInfo(p, total),
	})
}

func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.fail(w, r, errNotFound)
		return
	}
	inv, err := s.load(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body invoiceEnvelope
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	in := body.Invoice

	inv := &models.Invoice{}
	in.apply(inv)

	v := s.validateHeader(ctx, inv)
	if len(in.Lines) == 0 {
		v["invoice_lines_attributes"] = "required"
	}
	for i, a := range in.Lines {
		if a.ID != nil {
			v[lineField(i, "id")] = "unknown_line"
			continue
		}
		if a.Destroy {
			continue
		}
		s.validateLine(ctx, i, a, v)
		line := models.InvoiceLine{}
		line.Assign(a)
		inv.Lines = append(inv.Lines, line)
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation", v)
		return
	}

	inv.Recompute()
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		s.fail(w, r, fmt.Errorf("create invoice: %w", err))
		return
	}
	s.log.Info().Int64("invoice_id", inv.ID).Int("lines", len(inv.Lines)).Msg("invoice created")

	created, err := s.load(ctx, inv.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (s *Server) updateInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(r)
	if !ok {
		s.fail(w, r, errNotFound)
		return
	}
	var body invoiceEnvelope
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	in := body.Invoice

	inv, err := s.load(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if inv.Finalized && in.changesContent(inv) {
		s.fail(w, r, errFinalized)
		return
	}
	in.apply(inv)

	existing := make(map[int64]*models.InvoiceLine, len(inv.Lines))
	for i := range inv.Lines {
		existing[inv.Lines[i].ID] = &inv.Lines[i]
	}

	v := s.validateHeader(ctx, inv)
	for i, a := range in.Lines {
		if a.ID != nil {
			if _, ok := existing[*a.ID]; !ok {
				v[lineField(i, "id")] = "unknown_line"
				continue
			}
		}
		if !a.Destroy {
			s.validateLine(ctx, i, a, v)
		}
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation", v)
		return
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range in.Lines {
			switch {
			case a.ID == nil && a.Destroy:
			case a.ID == nil:
				line := models.InvoiceLine{InvoiceID: inv.ID}
				line.Assign(a)
				if err := tx.Create(&line).Error; err != nil {
					return fmt.Errorf("create line: %w", err)
				}
			case a.Destroy:
				if err := tx.Delete(&models.InvoiceLine{}, *a.ID).Error; err != nil {
					return fmt.Errorf("delete line %d: %w", *a.ID, err)
				}
			default:
				line := existing[*a.ID]
				line.Assign(a)
				if err := tx.Omit(clause.Associations).Save(line).Error; err != nil {
					return fmt.Errorf("update line %d: %w", line.ID, err)
				}
			}
		}

		var lines []models.InvoiceLine
		if err := tx.Where("invoice_id = ?", inv.ID).Order("id").Find(&lines).Error; err != nil {
			return fmt.Errorf("reload lines: %w", err)
		}
		inv.Lines = lines
		inv.Recompute()
		return tx.Omit(clause.Associations).Save(inv).Error
	})
	if err != nil {
		s.fail(w, r, fmt.Errorf("update invoice %d: %w", id, err))
		return
	}
	s.log.Info().Int64("invoice_id", id).Bool("finalized", inv.Finalized).Bool("paid", inv.Paid).Msg("invoice updated")

	updated, err := s.load(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (s *Server) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(r)
	if !ok {
		s.fail(w, r, errNotFound)
		return
	}
	var inv models.Invoice
	if err := s.db.WithContext(ctx).First(&inv, id).Error; err != nil {
		s.fail(w, r, err)
		return
	}
	if inv.Finalized {
		s.fail(w, r, errFinalized)
		return
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Invoice{}, id).Error
	})
	if err != nil {
		s.fail(w, r, fmt.Errorf("delete invoice %d: %w", id, err))
		return
	}
	s.log.Info().Int64("invoice_id", id).Msg("invoice deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validateHeader(ctx context.Context, inv *models.Invoice) validation.Violations {
	v := make(validation.Violations)
	validation.RequiredID("customer_id", inv.CustomerID, v)
	validation.Required("date", inv.Date, v)
	validation.Required("deadline", inv.Deadline, v)
	validation.Date("date", inv.Date, v)
	validation.Date("deadline", inv.Deadline, v)
	if _, bad := v["customer_id"]; !bad && !s.exists(ctx, &models.Customer{}, inv.CustomerID) {
		v["customer_id"] = "not_found"
	}
	return v
}

func (s *Server) validateLine(ctx context.Context, i int, a invoicelines.LineAttributes, v validation.Violations) {
	validation.MinInt(lineField(i, "quantity"), a.Quantity, 1, v)
	if !a.Unit.Valid() {
		v[lineField(i, "unit")] = "invalid"
	}
	if !a.VATRate.Valid() {
		v[lineField(i, "vat_rate")] = "invalid"
	}
	if a.ProductID == 0 {
		v[lineField(i, "product_id")] = "required"
	} else if !s.exists(ctx, &models.Product{}, a.ProductID) {
		v[lineField(i, "product_id")] = "not_found"
	}
}

func (s *Server) exists(ctx context.Context, model any, id int64) bool {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		s.log.Warn().Err(err).Msg("existence check failed")
		return false
	}
	return n > 0
}

func lineField(i int, name string) string {
	return fmt.Sprintf("invoice_lines_attributes[%d].%s", i, name)
}
