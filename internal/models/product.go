package models

import (
	"time"

	"github.com/diewo77/invoicer-web/internal/invoicelines"
	"github.com/diewo77/invoicer-web/internal/services"
)

// Product is something that can be put on an invoice line.
type Product struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Label               string               `gorm:"size:255;not null" json:"label"`
	Unit                invoicelines.Unit    `gorm:"size:10;not null" json:"unit"`
	VATRate             invoicelines.VATRate `gorm:"size:4;not null" json:"vat_rate"`
	UnitPrice           float64              `gorm:"not null" json:"unit_price"`
	UnitPriceWithoutTax float64              `gorm:"not null" json:"unit_price_without_tax"`
	UnitTax             float64              `gorm:"not null" json:"unit_tax"`
}

// NewProduct derives the tax and the price including tax from the price without tax.
func NewProduct(label string, unit invoicelines.Unit, rate invoicelines.VATRate, priceWithoutTax float64) Product {
	tax := services.Round2(priceWithoutTax * VATRatePercent(rate) / 100)
	return Product{
		Label:               label,
		Unit:                unit,
		VATRate:             rate,
		UnitPriceWithoutTax: priceWithoutTax,
		UnitTax:             tax,
		UnitPrice:           services.Round2(priceWithoutTax + tax),
	}
}

// VATRatePercent returns the numeric percentage of a rate, 0 for unknown rates.
func VATRatePercent(rate invoicelines.VATRate) float64 {
	switch rate {
	case invoicelines.VATRate5_5:
		return 5.5
	case invoicelines.VATRate10:
		return 10
	case invoicelines.VATRate20:
		return 20
	}
	return 0
}
