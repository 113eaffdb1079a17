package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

// writeExcel emits the same logical columns as the CSV export as an xlsx
// workbook. Cell values are written as strings, so no escaping semantics
// diverge from the CSV contract.
func writeExcel(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(report.Columns))
	for i, col := range report.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	for i, row := range report.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return err
		}
	}

	return f.Write(w)
}
