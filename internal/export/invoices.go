// Package export writes invoice lists as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/diewo77/invoicer-web/internal/api"
)

// Sheet is the name of the worksheet holding the invoices.
const Sheet = "Invoices"

// ContentType is the MIME type of XLSX files.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []any{"Id", "Customer", "Address", "Date", "Deadline", "Total", "Tax", "Finalized", "Paid"}

// FileName returns the download name of an export generated at now.
func FileName(now time.Time) string {
	return "invoices_" + now.Format("2006-01-02") + ".xlsx"
}

// WriteInvoices writes one row per invoice, after a header row, to w.
func WriteInvoices(w io.Writer, invoices []api.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}

	sw, err := f.NewStreamWriter(Sheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	// Column widths must be set before the first row.
	widths := []float64{8, 24, 36, 12, 12, 12, 12, 10, 8}
	for i, wd := range widths {
		if err := sw.SetColWidth(i+1, i+1, wd); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("header row: %w", err)
	}
	for i, inv := range invoices {
		address := ""
		if inv.Customer != nil {
			address = inv.Customer.FullAddress()
		}
		row := []any{
			inv.ID,
			inv.CustomerName(),
			address,
			inv.Date,
			inv.Deadline,
			excelize.Cell{StyleID: moneyStyle, Value: inv.Total.Float()},
			excelize.Cell{StyleID: moneyStyle, Value: inv.Tax.Float()},
			yesNo(inv.Finalized),
			yesNo(inv.Paid),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("invoice %d row: %w", inv.ID, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
