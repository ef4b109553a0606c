package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExcelExporter exports tables to Excel format
type ExcelExporter struct {
	file    *excelize.File
	options ExcelOptions

	dataStyle   int
	numberStyle int
	dateStyle   int
}

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	SheetName      string            `json:"sheet_name"`
	SummarySheet   string            `json:"summary_sheet"`
	FreezeHeader   bool              `json:"freeze_header"`
	AutoFilter     bool              `json:"auto_filter"`
	DateFormat     string            `json:"date_format"`
	NumberFormat   string            `json:"number_format"`
	HeaderStyle    *ExcelStyleConfig `json:"header_style,omitempty"`
	DataStyle      *ExcelStyleConfig `json:"data_style,omitempty"`
	AutoWidth      bool              `json:"auto_width"`
	MinColumnWidth float64           `json:"min_column_width"`
	MaxColumnWidth float64           `json:"max_column_width"`
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool   `json:"font_bold"`
	FontSize  int    `json:"font_size"`
	FontColor string `json:"font_color"`
	FillColor string `json:"fill_color"`
	Alignment string `json:"alignment"` // left, center, right
	Border    bool   `json:"border"`
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		SheetName:      "Data",
		SummarySheet:   "Summary",
		FreezeHeader:   true,
		AutoFilter:     true,
		DateFormat:     "yyyy-mm-dd",
		NumberFormat:   "#,##0.00",
		AutoWidth:      true,
		MinColumnWidth: 10,
		MaxColumnWidth: 50,
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  11,
			FillColor: "1F4E79",
			FontColor: "FFFFFF",
			Alignment: "center",
			Border:    true,
		},
		DataStyle: &ExcelStyleConfig{
			FontSize: 11,
			Border:   true,
		},
	}
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(options ExcelOptions) *ExcelExporter {
	if options.SheetName == "" {
		options.SheetName = DefaultExcelOptions().SheetName
	}
	file := excelize.NewFile()
	file.SetSheetName("Sheet1", options.SheetName)

	return &ExcelExporter{
		file:    file,
		options: options,
	}
}

// WriteTable writes the table to the data sheet and its summary, if any, to
// the summary sheet.
func (e *ExcelExporter) WriteTable(t Table) error {
	if err := e.prepareStyles(); err != nil {
		return err
	}
	if err := e.writeHeader(t.Labels()); err != nil {
		return err
	}
	if err := e.writeRows(t); err != nil {
		return err
	}
	if len(t.Summary) > 0 && e.options.SummarySheet != "" {
		return e.writeSummary(t)
	}
	return nil
}

func (e *ExcelExporter) prepareStyles() error {
	var err error
	base := e.options.DataStyle
	if base == nil {
		base = &ExcelStyleConfig{}
	}
	if e.dataStyle, err = e.createStyle(base, nil); err != nil {
		return fmt.Errorf("failed to create data style: %w", err)
	}
	numFmt := e.options.NumberFormat
	if e.numberStyle, err = e.createStyle(base, &numFmt); err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}
	dateFmt := e.options.DateFormat
	if e.dateStyle, err = e.createStyle(base, &dateFmt); err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}
	return nil
}

// writeHeader writes the header row with styling
func (e *ExcelExporter) writeHeader(labels []string) error {
	sheet := e.options.SheetName

	headerStyleID := 0
	if e.options.HeaderStyle != nil {
		style, err := e.createStyle(e.options.HeaderStyle, nil)
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		headerStyleID = style
	}

	for i, label := range labels {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := e.file.SetCellValue(sheet, cell, label); err != nil {
			return fmt.Errorf("failed to set header cell: %w", err)
		}
		if headerStyleID > 0 {
			e.file.SetCellStyle(sheet, cell, cell, headerStyleID)
		}
	}

	if e.options.FreezeHeader {
		e.file.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
	return nil
}

// writeRows writes data rows starting below the header
func (e *ExcelExporter) writeRows(t Table) error {
	sheet := e.options.SheetName
	keys := t.Keys()
	labels := t.Labels()

	columnWidths := make([]float64, len(keys))
	for i, label := range labels {
		columnWidths[i] = estimateWidth(label)
	}

	for rowIdx, row := range t.Rows {
		for colIdx, key := range keys {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			val := row[key]
			if err := e.setCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}
			if w := estimateWidth(formatText(val, "2006-01-02", time.RFC3339)); w > columnWidths[colIdx] {
				columnWidths[colIdx] = w
			}
		}
	}

	if e.options.AutoFilter && len(keys) > 0 {
		lastCell, _ := excelize.CoordinatesToCellName(len(keys), len(t.Rows)+1)
		if err := e.file.AutoFilter(sheet, "A1:"+lastCell, nil); err != nil {
			return fmt.Errorf("failed to set auto filter: %w", err)
		}
	}

	if e.options.AutoWidth {
		for colIdx, width := range columnWidths {
			width = max(width, e.options.MinColumnWidth)
			if e.options.MaxColumnWidth > 0 {
				width = min(width, e.options.MaxColumnWidth)
			}
			col, _ := excelize.ColumnNumberToName(colIdx + 1)
			e.file.SetColWidth(sheet, col, col, width)
		}
	}
	return nil
}

func (e *ExcelExporter) writeSummary(t Table) error {
	sheet := e.options.SummarySheet
	if _, err := e.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	e.file.SetCellValue(sheet, "A1", t.Title)
	e.file.SetCellValue(sheet, "A2", t.Subtitle)
	for i, item := range t.Summary {
		row := i + 4
		e.file.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.Label)
		e.file.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Value)
	}
	e.file.SetColWidth(sheet, "A", "B", 30)
	return nil
}

// WriteTo writes the Excel file to a writer
func (e *ExcelExporter) WriteTo(w io.Writer) error {
	return e.file.Write(w)
}

// Close closes the Excel file
func (e *ExcelExporter) Close() error {
	return e.file.Close()
}

// createStyle creates an Excel style from config
func (e *ExcelExporter) createStyle(config *ExcelStyleConfig, numFmt *string) (int, error) {
	style := &excelize.Style{
		Font: &excelize.Font{
			Bold:  config.FontBold,
			Size:  float64(config.FontSize),
			Color: config.FontColor,
		},
	}
	if config.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{config.FillColor},
		}
	}
	switch config.Alignment {
	case "left", "center", "right":
		style.Alignment = &excelize.Alignment{Horizontal: config.Alignment}
	}
	if config.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		}
	}
	if numFmt != nil && *numFmt != "" {
		style.CustomNumFmt = numFmt
	}
	return e.file.NewStyle(style)
}

// setCellValue writes numbers and dates as typed cells and everything else
// as text.
func (e *ExcelExporter) setCellValue(sheet, cell string, val any) error {
	styleID := e.dataStyle
	var err error

	switch v := val.(type) {
	case nil:
		err = e.file.SetCellValue(sheet, cell, "")
	case time.Time:
		if v.IsZero() {
			err = e.file.SetCellValue(sheet, cell, "")
			break
		}
		err = e.file.SetCellValue(sheet, cell, v)
		styleID = e.dateStyle
	case decimal.Decimal:
		err = e.file.SetCellValue(sheet, cell, v.InexactFloat64())
		styleID = e.numberStyle
	case float32, float64:
		err = e.file.SetCellValue(sheet, cell, v)
		styleID = e.numberStyle
	case int, int32, int64, bool:
		err = e.file.SetCellValue(sheet, cell, v)
	default:
		err = e.file.SetCellValue(sheet, cell, formatText(v, "2006-01-02", time.RFC3339))
	}
	if err != nil {
		return err
	}
	return e.file.SetCellStyle(sheet, cell, cell, styleID)
}

// estimateWidth estimates the display width of a cell value
func estimateWidth(s string) float64 {
	return float64(len([]rune(s)))*1.2 + 2
}
