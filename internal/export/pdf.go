package export

import (
	"io"

	"github.com/go-pdf/fpdf"
)

// writePDF emits the report as a landscape A4 table, one header row plus
// one row per record. Column widths split the page evenly; long values are
// truncated by the cell, not wrapped, to keep row heights uniform.
func writePDF(w io.Writer, report Report) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(report.Title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, report.Title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(report.Columns))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range report.Columns {
		pdf.CellFormat(colWidth, 7, col, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range report.Rows {
		for _, v := range row {
			pdf.CellFormat(colWidth, 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
