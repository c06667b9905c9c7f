package invoicelines

import (
	"errors"
	"strings"

	"github.com/diewo77/invoicer-web/validation"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("invoice validation failed")

// ValidationError lists the invoice fields that block submission.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Violations.Fields(), ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// LineAttributes is one entry of invoice_lines_attributes.
// A missing id creates the line; an id updates it, or deletes it when Destroy is set.
type LineAttributes struct {
	ID        *int64  `json:"id,omitempty"`
	Destroy   bool    `json:"_destroy"`
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Label     string  `json:"label"`
	Unit      Unit    `json:"unit"`
	VATRate   VATRate `json:"vat_rate"`
	Price     float64 `json:"price"`
	Tax       float64 `json:"tax"`
}

// InvoiceAttributes is the body of an invoice create or update request.
type InvoiceAttributes struct {
	CustomerID int64            `json:"customer_id"`
	Date       string           `json:"date"`
	Deadline   string           `json:"deadline"`
	Finalized  bool             `json:"finalized"`
	Paid       bool             `json:"paid"`
	Lines      []LineAttributes `json:"invoice_lines_attributes"`
}

// Header holds the invoice fields edited next to the lines.
type Header struct {
	CustomerID int64  `json:"customer_id"`
	Date       string `json:"date"`
	Deadline   string `json:"deadline"`
	Finalized  bool   `json:"finalized"`
	Paid       bool   `json:"paid"`
}

func attributes(id *int64, destroy bool, l Line) LineAttributes {
	return LineAttributes{
		ID:        id,
		Destroy:   destroy,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		Label:     l.Label,
		Unit:      l.Unit,
		VATRate:   l.VATRate,
		Price:     l.Price,
		Tax:       l.Tax,
	}
}

// BuildSubmissionPayload flattens persisted lines, then new lines, keeping their order.
func BuildSubmissionPayload(persisted []PersistedLine, added []NewLine) []LineAttributes {
	out := make([]LineAttributes, 0, len(persisted)+len(added))
	for _, l := range persisted {
		id := l.ID
		out = append(out, attributes(&id, l.MarkedForRemoval, l.Line))
	}
	for _, l := range added {
		out = append(out, attributes(nil, false, l.Line))
	}
	return out
}

// ValidateHeader checks the fields every submission needs: customer, date and deadline.
func ValidateHeader(h Header) validation.Violations {
	v := make(validation.Violations)
	validation.RequiredID("customer_id", h.CustomerID, v)
	validation.Required("date", h.Date, v)
	validation.Required("deadline", h.Deadline, v)
	validation.Date("date", h.Date, v)
	validation.Date("deadline", h.Deadline, v)
	return v
}

// ValidateNew adds the rules for creating an invoice: at least one line and a deadline
// on or after the date.
func ValidateNew(h Header, added []NewLine) validation.Violations {
	v := ValidateHeader(h)
	if len(added) == 0 {
		v["lines"] = "required"
	}
	if v.Empty() {
		validation.NotBefore("deadline", h.Deadline, h.Date, v)
	}
	return v
}

// Submission validates an edit and builds the invoice attributes to send.
// Nothing should be sent to the backend when it returns an error.
func Submission(h Header, persisted []PersistedLine, added []NewLine) (InvoiceAttributes, error) {
	if v := ValidateHeader(h); !v.Empty() {
		return InvoiceAttributes{}, &ValidationError{Violations: v}
	}
	return invoiceAttributes(h, BuildSubmissionPayload(persisted, added)), nil
}

// NewSubmission is Submission for an invoice that does not exist yet.
func NewSubmission(h Header, added []NewLine) (InvoiceAttributes, error) {
	if v := ValidateNew(h, added); !v.Empty() {
		return InvoiceAttributes{}, &ValidationError{Violations: v}
	}
	return invoiceAttributes(h, BuildSubmissionPayload(nil, added)), nil
}

func invoiceAttributes(h Header, lines []LineAttributes) InvoiceAttributes {
	return InvoiceAttributes{
		CustomerID: h.CustomerID,
		Date:       h.Date,
		Deadline:   h.Deadline,
		Finalized:  h.Finalized,
		Paid:       h.Paid,
		Lines:      lines,
	}
}
