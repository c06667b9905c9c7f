package services

import (
	"math"

	"github.com/diewo77/invoicer-web/internal/invoicelines"
)

// Totals are the amounts of an invoice.
type Totals struct {
	WithoutTax float64 `json:"without_tax"`
	Tax        float64 `json:"tax"`
	Total      float64 `json:"total"`
}

// ComputeTotals sums the lines, rounding each amount to the cent.
func ComputeTotals(lines []invoicelines.Line) Totals {
	var t Totals
	for _, l := range lines {
		t.WithoutTax += float64(l.Quantity) * l.Price
		t.Tax += l.TotalTax()
	}
	t.WithoutTax = Round2(t.WithoutTax)
	t.Tax = Round2(t.Tax)
	t.Total = Round2(t.WithoutTax + t.Tax)
	return t
}

// EditTotals previews the totals an edit would produce: persisted lines not flagged for
// removal plus the new lines.
func EditTotals(persisted []invoicelines.PersistedLine, added []invoicelines.NewLine) Totals {
	lines := make([]invoicelines.Line, 0, len(persisted)+len(added))
	for _, l := range invoicelines.Active(persisted) {
		lines = append(lines, l.Line)
	}
	for _, l := range added {
		lines = append(lines, l.Line)
	}
	return ComputeTotals(lines)
}

// Round2 rounds to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
