package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"csd-portal/ops-portal/ops-portal-backend/internal/dashboard"
)

// Format represents supported export formats
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "xlsx"
	FormatPDF   Format = "pdf"
)

// ErrUnsupportedFormat is returned for unknown export formats
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat parses a format name. "excel" is accepted for xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Extension returns the file extension of the format, without the dot
func (f Format) Extension() string {
	return string(f)
}

// SummaryItem is one labelled value printed above the table
type SummaryItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Table is the tabular content of an export
type Table struct {
	Title    string             `json:"title"`
	Subtitle string             `json:"subtitle,omitempty"`
	Columns  []dashboard.Column `json:"columns"`
	Rows     []map[string]any   `json:"rows"`
	Summary  []SummaryItem      `json:"summary,omitempty"`
}

// Keys returns the column keys in order
func (t Table) Keys() []string {
	keys := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		keys[i] = c.Key
	}
	return keys
}

// Labels returns the column labels in order
func (t Table) Labels() []string {
	labels := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		labels[i] = c.Label
		if labels[i] == "" {
			labels[i] = c.Key
		}
	}
	return labels
}

// FromView builds an export of the filtered table of a rendered view. The
// metric cards become the summary and the active query the subtitle.
func FromView(title string, v dashboard.View) Table {
	t := Table{
		Title:    title,
		Subtitle: describeQuery(v),
		Columns:  v.Columns,
		Rows:     v.Rows,
	}
	for _, m := range v.Metrics {
		t.Summary = append(t.Summary, SummaryItem{Label: m.Title, Value: m.Value})
	}
	return t
}

func describeQuery(v dashboard.View) string {
	var parts []string
	if v.State.SearchTerm != "" {
		parts = append(parts, fmt.Sprintf("search %q", v.State.SearchTerm))
	}
	for _, key := range v.State.ActiveFilters.Keys() {
		value, _ := dashboard.Canonical(v.State.ActiveFilters[key])
		parts = append(parts, fmt.Sprintf("%s = %s", key, value))
	}
	summary := fmt.Sprintf("%d of %d records", v.Matched, v.Total)
	if len(parts) == 0 {
		return summary
	}
	return summary + ", " + strings.Join(parts, ", ")
}

// Options configures every exporter
type Options struct {
	CSV   CSVOptions   `json:"csv"`
	Excel ExcelOptions `json:"excel"`
	PDF   PDFOptions   `json:"pdf"`
}

// DefaultOptions returns default export options
func DefaultOptions() Options {
	return Options{
		CSV:   DefaultCSVOptions(),
		Excel: DefaultExcelOptions(),
		PDF:   DefaultPDFOptions(),
	}
}

// Write renders t in the given format
func Write(w io.Writer, format Format, t Table, opts Options) error {
	switch format {
	case FormatCSV:
		e := NewCSVExporter(w, opts.CSV)
		if err := e.WriteTable(t); err != nil {
			return err
		}
		return e.Flush()
	case FormatExcel:
		e := NewExcelExporter(opts.Excel)
		defer e.Close()
		if err := e.WriteTable(t); err != nil {
			return err
		}
		return e.WriteTo(w)
	case FormatPDF:
		g := NewPDFGenerator(opts.PDF)
		if err := g.GenerateTable(t); err != nil {
			return err
		}
		return g.WriteTo(w)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// formatText renders a cell value as text
func formatText(val any, dateFormat, timestampFormat string) string {
	switch v := val.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		if v.Hour() != 0 || v.Minute() != 0 || v.Second() != 0 {
			return v.Format(timestampFormat)
		}
		return v.Format(dateFormat)
	case decimal.Decimal:
		return v.String()
	}
	s, _ := dashboard.Canonical(val)
	return s
}
