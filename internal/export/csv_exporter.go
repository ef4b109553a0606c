package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVExporter exports tables to CSV format
type CSVExporter struct {
	writer  *csv.Writer
	options CSVOptions
}

// CSVOptions configures CSV export behavior
type CSVOptions struct {
	Delimiter       rune   `json:"delimiter"`
	UseCRLF         bool   `json:"use_crlf"`
	IncludeHeader   bool   `json:"include_header"`
	DateFormat      string `json:"date_format"`
	TimestampFormat string `json:"timestamp_format"`
	NullValue       string `json:"null_value"`
}

// DefaultCSVOptions returns default CSV export options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:       ',',
		IncludeHeader:   true,
		DateFormat:      "2006-01-02",
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	}
}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter(w io.Writer, options CSVOptions) *CSVExporter {
	writer := csv.NewWriter(w)
	if options.Delimiter != 0 {
		writer.Comma = options.Delimiter
	}
	writer.UseCRLF = options.UseCRLF

	return &CSVExporter{
		writer:  writer,
		options: options,
	}
}

// WriteTable writes the header row and every data row of t
func (e *CSVExporter) WriteTable(t Table) error {
	if e.options.IncludeHeader {
		if err := e.writer.Write(t.Labels()); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	keys := t.Keys()
	for _, row := range t.Rows {
		record := make([]string, len(keys))
		for i, key := range keys {
			val, ok := row[key]
			if !ok || val == nil {
				record[i] = e.options.NullValue
				continue
			}
			record[i] = formatText(val, e.options.DateFormat, e.options.TimestampFormat)
		}
		if err := e.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer
func (e *CSVExporter) Flush() error {
	e.writer.Flush()
	return e.writer.Error()
}
