// Package invoicelines reconciles the lines of an invoice being edited: persisted lines that can be
// flagged for removal, and new lines that only exist locally until the invoice is submitted.
package invoicelines

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrIndexOutOfRange = errors.New("line index out of range")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNoProduct       = errors.New("no product selected")
)

// Unit is the billing unit of a product.
type Unit string

const (
	UnitHour  Unit = "hour"
	UnitDay   Unit = "day"
	UnitPiece Unit = "piece"
)

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	switch u {
	case UnitHour, UnitDay, UnitPiece:
		return true
	}
	return false
}

// VATRate is a VAT percentage as exchanged with the backend.
type VATRate string

const (
	VATRate0   VATRate = "0"
	VATRate5_5 VATRate = "5.5"
	VATRate10  VATRate = "10"
	VATRate20  VATRate = "20"
)

// Valid reports whether r is a supported rate.
func (r VATRate) Valid() bool {
	switch r {
	case VATRate0, VATRate5_5, VATRate10, VATRate20:
		return true
	}
	return false
}

// Line holds the product fields shared by persisted and new lines.
type Line struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Label     string  `json:"label"`
	Unit      Unit    `json:"unit"`
	VATRate   VATRate `json:"vat_rate"`
	Price     float64 `json:"price"` // unit price without tax
	Tax       float64 `json:"tax"`   // unit tax
}

// UnitPrice returns the unit price including tax.
func (l Line) UnitPrice() float64 { return l.Price + l.Tax }

// Total returns the line total including tax.
func (l Line) Total() float64 { return float64(l.Quantity) * l.UnitPrice() }

// TotalTax returns the tax part of the line total.
func (l Line) TotalTax() float64 { return float64(l.Quantity) * l.Tax }

// PersistedLine is a line already stored by the backend.
// ID never changes once loaded; MarkedForRemoval is toggled locally until submission.
type PersistedLine struct {
	ID               int64 `json:"id"`
	MarkedForRemoval bool  `json:"marked_for_removal"`
	Line
}

// NewLine is a line added during the edit session. It has no id and is removed outright.
type NewLine struct {
	Line
}

// ProductRef carries the product fields a new line is built from.
type ProductRef struct {
	ID        int64
	Label     string
	Unit      Unit
	VATRate   VATRate
	UnitPrice float64 // without tax
	UnitTax   float64
}

// LineFromProduct builds a new line for quantity units of p.
func LineFromProduct(p ProductRef, quantity int) (NewLine, error) {
	if p.ID <= 0 {
		return NewLine{}, ErrNoProduct
	}
	if quantity < 1 {
		return NewLine{}, ErrInvalidQuantity
	}
	return NewLine{Line: Line{
		ProductID: p.ID,
		Quantity:  quantity,
		Label:     p.Label,
		Unit:      p.Unit,
		VATRate:   p.VATRate,
		Price:     p.UnitPrice,
		Tax:       p.UnitTax,
	}}, nil
}

// ToggleRemoval flips MarkedForRemoval on the line at index and returns the updated copy.
// The input slice is not modified.
func ToggleRemoval(lines []PersistedLine, index int) ([]PersistedLine, error) {
	if index < 0 || index >= len(lines) {
		return lines, fmt.Errorf("toggle removal at %d of %d: %w", index, len(lines), ErrIndexOutOfRange)
	}
	out := slices.Clone(lines)
	out[index].MarkedForRemoval = !out[index].MarkedForRemoval
	return out, nil
}

// AddLine appends candidate to the new lines.
func AddLine(lines []NewLine, candidate NewLine) ([]NewLine, error) {
	if candidate.Quantity < 1 {
		return lines, ErrInvalidQuantity
	}
	out := make([]NewLine, 0, len(lines)+1)
	out = append(out, lines...)
	return append(out, candidate), nil
}

// RemoveNewLine drops the new line at index.
func RemoveNewLine(lines []NewLine, index int) ([]NewLine, error) {
	if index < 0 || index >= len(lines) {
		return lines, fmt.Errorf("remove new line at %d of %d: %w", index, len(lines), ErrIndexOutOfRange)
	}
	return slices.Delete(slices.Clone(lines), index, index+1), nil
}

// Active returns the persisted lines that are not flagged for removal.
func Active(lines []PersistedLine) []PersistedLine {
	out := make([]PersistedLine, 0, len(lines))
	for _, l := range lines {
		if !l.MarkedForRemoval {
			out = append(out, l)
		}
	}
	return out
}
