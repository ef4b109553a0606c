package export

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"csd-portal/ops-portal/ops-portal-backend/internal/dashboard"
)

func sampleTable() Table {
	return Table{
		Title:    "Settlement Monitor",
		Subtitle: "2 of 3 records, status = Settled",
		Columns: []dashboard.Column{
			{Key: "reference", Label: "Reference"},
			{Key: "amount", Label: "Amount"},
			{Key: "settlement_date", Label: "Settlement Date"},
			{Key: "note"},
		},
		Rows: []map[string]any{
			{"reference": "STL-000001", "amount": decimal.RequireFromString("1250.50"), "settlement_date": time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), "note": "urgent, call desk"},
			{"reference": "STL-000003", "amount": decimal.RequireFromString("99"), "settlement_date": time.Date(2026, 3, 4, 14, 30, 0, 0, time.UTC)},
		},
		Summary: []SummaryItem{{Label: "Instructions", Value: "2"}, {Label: "Settled Value", Value: "$1,349.50"}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"csv", FormatCSV},
		{"XLSX", FormatExcel},
		{"excel", FormatExcel},
		{"pdf", FormatPDF},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "pdf", FormatPDF.Extension())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Write(&buf, FormatCSV, sampleTable(), DefaultOptions()))

	assert.Equal(t, "Reference,Amount,Settlement Date,note\n"+
		"STL-000001,1250.5,2026-03-04,\"urgent, call desk\"\n"+
		"STL-000003,99,2026-03-04T14:30:00Z,\n", buf.String())
}

func TestWriteCSV_Options(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.CSV.Delimiter = ';'
	opts.CSV.IncludeHeader = false
	opts.CSV.NullValue = "-"

	require.NoError(t, Write(&buf, FormatCSV, sampleTable(), opts))

	assert.Equal(t, "STL-000001;1250.5;2026-03-04;urgent, call desk\n"+
		"STL-000003;99;2026-03-04T14:30:00Z;-\n", buf.String())
}

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatExcel, sampleTable(), DefaultOptions()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Data", "Summary"}, f.GetSheetList())

	header, err := f.GetCellValue("Data", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Reference", header)

	ref, err := f.GetCellValue("Data", "A3")
	require.NoError(t, err)
	assert.Equal(t, "STL-000003", ref)

	raw, err := f.GetCellValue("Data", "B2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1250.5", raw)

	label, err := f.GetCellValue("Summary", "A5")
	require.NoError(t, err)
	assert.Equal(t, "Settled Value", label)
}

func TestWritePDF(t *testing.T) {
	table := sampleTable()
	for i := range 120 {
		table.Rows = append(table.Rows, map[string]any{
			"reference": fmt.Sprintf("STL-%06d", i+10),
			"amount":    decimal.NewFromInt(int64(i)),
			"note":      "Großbetrag mit sehr langer Bemerkung, die abgeschnitten werden muss",
		})
	}

	g := NewPDFGenerator(DefaultPDFOptions())
	require.NoError(t, g.GenerateTable(table))
	assert.Greater(t, g.PageCount(), 1, "long tables span pages")

	out, err := g.OutputToBytes()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format("docx"), sampleTable(), DefaultOptions())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFromView(t *testing.T) {
	view := dashboard.View{
		State: dashboard.State{
			SearchTerm:    "stl",
			ActiveFilters: dashboard.Filters{"type": "DVP", "status": "Settled"},
		},
		Total:   10,
		Matched: 4,
		Columns: []dashboard.Column{{Key: "reference", Label: "Reference"}},
		Rows:    []map[string]any{{"reference": "STL-000001"}},
		Metrics: []dashboard.RenderedMetric{{Title: "Instructions", Value: "4"}},
	}

	table := FromView("Settlement Monitor", view)

	assert.Equal(t, "Settlement Monitor", table.Title)
	assert.Equal(t, `4 of 10 records, search "stl", status = Settled, type = DVP`, table.Subtitle)
	assert.Equal(t, []SummaryItem{{Label: "Instructions", Value: "4"}}, table.Summary)
	assert.Equal(t, view.Rows, table.Rows)
	assert.Equal(t, "4 of 10 records", describeQuery(dashboard.View{Total: 10, Matched: 4}))
}
