// Package pdf renders invoices as PDF documents.
package pdf

import (
	"fmt"
	"strconv"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/diewo77/invoicer-web/internal/api"
	"github.com/diewo77/invoicer-web/internal/invoicelines"
	"github.com/diewo77/invoicer-web/internal/services"
)

// FileName returns the download name of an invoice PDF generated at now,
// e.g. invoice_12_2024-03-05_14-07-09.pdf.
func FileName(invoiceID int64, now time.Time) string {
	return fmt.Sprintf("invoice_%d_%s.pdf", invoiceID, now.Format("2006-01-02_15-04-05"))
}

var (
	titleStyle    = props.Text{Size: 16, Style: fontstyle.Bold, Top: 2}
	subtitleStyle = props.Text{Size: 12, Style: fontstyle.Bold, Top: 2}
	bodyStyle     = props.Text{Size: 10, Top: 1}
	headStyle     = props.Text{Size: 9, Style: fontstyle.Bold, Top: 1.5, Align: align.Center}
	cellStyle     = props.Text{Size: 9, Top: 1.5, Align: align.Center}
	totalStyle    = props.Text{Size: 10, Style: fontstyle.Bold, Top: 1, Align: align.Right}
	headerFill    = &props.Cell{BackgroundColor: &props.Color{Red: 230, Green: 230, Blue: 230}}
)

// Invoice renders inv: invoice details next to customer details, then the lines table and totals.
func Invoice(inv api.Invoice) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()
	m := maroto.New(cfg)

	m.AddRows(text.NewRow(12, "Invoice #"+strconv.FormatInt(inv.ID, 10), titleStyle))
	m.AddRows(detailRows(inv)...)
	m.AddRows(text.NewRow(10, "Products", subtitleStyle))
	m.AddRows(lineRows(inv.Lines)...)
	m.AddRows(totalRows(inv)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate invoice %d pdf: %w", inv.ID, err)
	}
	return doc.GetBytes(), nil
}

func rowOf(height float64, cols ...core.Col) core.Row {
	return row.New(height).Add(cols...)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// detailRows lays invoice details in the left half and customer details in the right half.
func detailRows(inv api.Invoice) []core.Row {
	left := []string{
		"Invoice ID: " + strconv.FormatInt(inv.ID, 10),
		"Finalized: " + yesNo(inv.Finalized),
		"Paid: " + yesNo(inv.Paid),
		"Date: " + inv.Date,
		"Deadline: " + inv.Deadline,
		"Total: " + amount(inv.Total.Float()),
		"Tax: " + amount(inv.Tax.Float()),
	}
	var c api.Customer
	if inv.Customer != nil {
		c = *inv.Customer
	}
	right := []string{
		"First Name: " + c.FirstName,
		"Last Name: " + c.LastName,
		"Address: " + c.Address,
		"Zip Code: " + c.ZipCode,
		"City: " + c.City,
		"Country: " + c.Country,
	}

	rows := []core.Row{
		rowOf(8,
			text.NewCol(6, "Invoice Details", subtitleStyle),
			text.NewCol(6, "Customer Details", subtitleStyle)),
	}
	for i := 0; i < max(len(left), len(right)); i++ {
		l, r := "", ""
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		rows = append(rows, rowOf(6, text.NewCol(6, l, bodyStyle), text.NewCol(6, r, bodyStyle)))
	}
	return rows
}

var lineColumns = []struct {
	title string
	size  int
}{
	{"Product", 2},
	{"Quantity", 1},
	{"Unit", 1},
	{"Unit Price (excl.)", 2},
	{"VAT Rate", 1},
	{"Unit Tax", 1},
	{"Unit Price", 2},
	{"Total", 2},
}

func lineRows(lines []api.InvoiceLine) []core.Row {
	head := make([]core.Col, 0, len(lineColumns))
	for _, c := range lineColumns {
		head = append(head, text.NewCol(c.size, c.title, headStyle))
	}
	rows := []core.Row{rowOf(8, head...).WithStyle(headerFill)}

	for _, l := range lines {
		line := l.Line()
		label := line.Label
		if label == "" && l.Product != nil {
			label = l.Product.Label
		}
		values := []string{
			label,
			strconv.Itoa(line.Quantity),
			string(line.Unit),
			amount(line.Price),
			string(line.VATRate) + " %",
			amount(line.Tax),
			amount(line.UnitPrice()),
			amount(line.Total()),
		}
		cols := make([]core.Col, 0, len(values))
		for i, v := range values {
			cols = append(cols, text.NewCol(lineColumns[i].size, v, cellStyle))
		}
		rows = append(rows, rowOf(7, cols...))
	}
	return rows
}

func totalRows(inv api.Invoice) []core.Row {
	lines := make([]invoicelines.Line, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, l.Line())
	}
	t := services.ComputeTotals(lines)
	return []core.Row{
		rowOf(8, col.New(6), text.NewCol(6, "Total excl. tax: "+amount(t.WithoutTax), totalStyle)),
		rowOf(6, col.New(6), text.NewCol(6, "Total tax: "+amount(inv.Tax.Float()), totalStyle)),
		rowOf(6, col.New(6), text.NewCol(6, "Total: "+amount(inv.Total.Float()), totalStyle)),
	}
}
