package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/diewo77/invoicer-web/internal/invoicelines"
)

// Decimal is a money amount. The backend may encode it as a JSON number or string.
type Decimal float64

func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*d = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("decode decimal %s: %w", b, err)
	}
	*d = Decimal(f)
	return nil
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(d))
}

func (d Decimal) Float() float64 { return float64(d) }

// Pagination is the paging block of list responses.
type Pagination struct {
	Page         int   `json:"page"`
	PageSize     int   `json:"page_size"`
	TotalPages   int   `json:"total_pages"`
	TotalEntries int64 `json:"total_entries"`
}

type Customer struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Address     string `json:"address"`
	ZipCode     string `json:"zip_code"`
	City        string `json:"city"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

// Name returns "First Last".
func (c Customer) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// FullAddress returns "address, zip city".
func (c Customer) FullAddress() string {
	city := strings.TrimSpace(c.ZipCode + " " + c.City)
	switch {
	case c.Address == "":
		return city
	case city == "":
		return c.Address
	}
	return c.Address + ", " + city
}

type Product struct {
	ID                  int64                `json:"id"`
	Label               string               `json:"label"`
	VATRate             invoicelines.VATRate `json:"vat_rate"`
	Unit                invoicelines.Unit    `json:"unit"`
	UnitPrice           Decimal              `json:"unit_price"`
	UnitPriceWithoutTax Decimal              `json:"unit_price_without_tax"`
	UnitTax             Decimal              `json:"unit_tax"`
}

// Ref returns the fields a new invoice line is built from.
func (p Product) Ref() invoicelines.ProductRef {
	return invoicelines.ProductRef{
		ID:        p.ID,
		Label:     p.Label,
		Unit:      p.Unit,
		VATRate:   p.VATRate,
		UnitPrice: p.UnitPriceWithoutTax.Float(),
		UnitTax:   p.UnitTax.Float(),
	}
}

type InvoiceLine struct {
	ID        int64                `json:"id"`
	InvoiceID int64                `json:"invoice_id"`
	ProductID int64                `json:"product_id"`
	Quantity  int                  `json:"quantity"`
	Label     string               `json:"label"`
	Unit      invoicelines.Unit    `json:"unit"`
	VATRate   invoicelines.VATRate `json:"vat_rate"`
	Price     Decimal              `json:"price"`
	Tax       Decimal              `json:"tax"`
	Product   *Product             `json:"product,omitempty"`
}

// Line converts the wire line to the reconciler's representation.
func (l InvoiceLine) Line() invoicelines.Line {
	return invoicelines.Line{
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		Label:     l.Label,
		Unit:      l.Unit,
		VATRate:   l.VATRate,
		Price:     l.Price.Float(),
		Tax:       l.Tax.Float(),
	}
}

type Invoice struct {
	ID         int64         `json:"id"`
	CustomerID int64         `json:"customer_id"`
	Customer   *Customer     `json:"customer,omitempty"`
	Finalized  bool          `json:"finalized"`
	Paid       bool          `json:"paid"`
	Date       string        `json:"date"`
	Deadline   string        `json:"deadline"`
	Total      Decimal       `json:"total"`
	Tax        Decimal       `json:"tax"`
	Lines      []InvoiceLine `json:"invoice_lines"`
}

// CustomerName returns the customer's name or an empty string.
func (inv Invoice) CustomerName() string {
	if inv.Customer == nil {
		return ""
	}
	return inv.Customer.Name()
}

// Header returns the editable invoice fields.
func (inv Invoice) Header() invoicelines.Header {
	return invoicelines.Header{
		CustomerID: inv.CustomerID,
		Date:       inv.Date,
		Deadline:   inv.Deadline,
		Finalized:  inv.Finalized,
		Paid:       inv.Paid,
	}
}

// PersistedLines returns the invoice lines in their loaded state, none flagged for removal.
func (inv Invoice) PersistedLines() []invoicelines.PersistedLine {
	out := make([]invoicelines.PersistedLine, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		out = append(out, invoicelines.PersistedLine{ID: l.ID, Line: l.Line()})
	}
	return out
}

type InvoicePage struct {
	Invoices   []Invoice  `json:"invoices"`
	Pagination Pagination `json:"pagination"`
}

type CustomerPage struct {
	Customers  []Customer `json:"customers"`
	Pagination Pagination `json:"pagination"`
}

type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// InvoiceRequest is the envelope of invoice writes.
type InvoiceRequest struct {
	Invoice invoicelines.InvoiceAttributes `json:"invoice"`
}

// StatusChange marks an invoice finalized and/or paid without touching anything else.
type StatusChange struct {
	ID        int64 `json:"id"`
	Finalized *bool `json:"finalized,omitempty"`
	Paid      *bool `json:"paid,omitempty"`
}

type statusRequest struct {
	Invoice StatusChange `json:"invoice"`
}
