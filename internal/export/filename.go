package export

import (
	"strings"
	"time"
)

// Filename builds the export filename:
//
//	{organizationName}_attendance[_{reportType}][_{formatTag}]_{ISODate}.{ext}
//
// Optional segments are joined only when present, so an omitted report
// type or format tag never leaves a double underscore behind. The detailed
// report and the CSV format are the defaults and carry no tag.
func Filename(organizationName string, report ReportType, format Format, date time.Time) string {
	segments := []string{sanitizeSegment(organizationName), "attendance"}
	if report != "" && report != ReportDetailed {
		segments = append(segments, string(report))
	}
	if format != "" && format != FormatCSV {
		segments = append(segments, string(format))
	}
	segments = append(segments, date.Format("2006-01-02"))
	return strings.Join(segments, "_") + "." + format.Extension()
}

// sanitizeSegment keeps the organization name filesystem-friendly without
// inventing consecutive underscores.
func sanitizeSegment(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "organization"
	}
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '/' || r == '\\' || r == '_'
	})
	return strings.Join(fields, "_")
}
