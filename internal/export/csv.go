package export

import (
	"encoding/csv"
	"io"
)

// writeCSV emits the report with RFC 4180 escaping: fields containing a
// comma, double quote, or newline are wrapped in double quotes with
// internal quotes doubled, everything else stays unquoted.
func writeCSV(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(report.Columns); err != nil {
		return err
	}
	for _, row := range report.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
