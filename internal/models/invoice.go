package models

import (
	"time"

	"github.com/diewo77/invoicer-web/internal/invoicelines"
	"github.com/diewo77/invoicer-web/internal/services"
)

// Invoice represents a billing invoice.
type Invoice struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	CustomerID int64     `gorm:"index;not null" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	// Dates are kept as YYYY-MM-DD, the format exchanged with clients.
	Date     string `gorm:"size:10;not null" json:"date"`
	Deadline string `gorm:"size:10" json:"deadline"`

	Finalized bool `gorm:"not null;default:false" json:"finalized"`
	Paid      bool `gorm:"not null;default:false" json:"paid"`

	// Total includes tax.
	Total float64 `gorm:"not null;default:0" json:"total"`
	Tax   float64 `gorm:"not null;default:0" json:"tax"`

	Lines []InvoiceLine `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"invoice_lines"`
}

// CanEdit returns true if the lines and header can still change.
func (i *Invoice) CanEdit() bool {
	return !i.Finalized
}

// Recompute refreshes Total and Tax from the lines.
func (i *Invoice) Recompute() {
	lines := make([]invoicelines.Line, 0, len(i.Lines))
	for _, l := range i.Lines {
		lines = append(lines, l.Line())
	}
	t := services.ComputeTotals(lines)
	i.Total = t.Total
	i.Tax = t.Tax
}

// InvoiceLine is one product entry of an invoice. Price and Tax are per unit.
type InvoiceLine struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	InvoiceID int64    `gorm:"index;not null" json:"invoice_id"`
	ProductID int64    `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	Quantity int                  `gorm:"not null;default:1" json:"quantity"`
	Label    string               `gorm:"size:255" json:"label"`
	Unit     invoicelines.Unit    `gorm:"size:10" json:"unit"`
	VATRate  invoicelines.VATRate `gorm:"size:4" json:"vat_rate"`
	Price    float64              `gorm:"not null" json:"price"`
	Tax      float64              `gorm:"not null" json:"tax"`
}

// Line returns the line in the reconciler's representation.
func (l InvoiceLine) Line() invoicelines.Line {
	return invoicelines.Line{
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		Label:     l.Label,
		Unit:      l.Unit,
		VATRate:   l.VATRate,
		Price:     l.Price,
		Tax:       l.Tax,
	}
}

// Assign copies submitted attributes onto the line, leaving its identity alone.
func (l *InvoiceLine) Assign(a invoicelines.LineAttributes) {
	l.ProductID = a.ProductID
	l.Quantity = a.Quantity
	l.Label = a.Label
	l.Unit = a.Unit
	l.VATRate = a.VATRate
	l.Price = a.Price
	l.Tax = a.Tax
}
