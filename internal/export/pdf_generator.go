package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFGenerator renders tables as PDF documents
type PDFGenerator struct {
	pdf     *gofpdf.Fpdf
	options PDFOptions
	tr      func(string) string
	now     func() time.Time
}

// PDFOptions configures PDF generation
type PDFOptions struct {
	PageSize        string     `json:"page_size"`   // A4, Letter, Legal
	Orientation     string     `json:"orientation"` // portrait, landscape
	Author          string     `json:"author,omitempty"`
	DateFormat      string     `json:"date_format"`
	TimestampFormat string     `json:"timestamp_format"`
	IncludePageNum  bool       `json:"include_page_num"`
	IncludeDate     bool       `json:"include_date"`
	HeaderColor     PDFColor   `json:"header_color"`
	AlternateRows   bool       `json:"alternate_rows"`
	AlternateColor  PDFColor   `json:"alternate_color"`
	FontFamily      string     `json:"font_family"`
	FontSize        float64    `json:"font_size"`
	HeaderFontSize  float64    `json:"header_font_size"`
	TitleFontSize   float64    `json:"title_font_size"`
	Margins         PDFMargins `json:"margins"`
}

// PDFColor represents an RGB color
type PDFColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// PDFMargins represents page margins
type PDFMargins struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:        "A4",
		Orientation:     "landscape",
		DateFormat:      "2006-01-02",
		TimestampFormat: "2006-01-02 15:04",
		IncludePageNum:  true,
		IncludeDate:     true,
		HeaderColor:     PDFColor{R: 31, G: 78, B: 121},
		AlternateRows:   true,
		AlternateColor:  PDFColor{R: 242, G: 242, B: 242},
		FontFamily:      "Arial",
		FontSize:        9,
		HeaderFontSize:  10,
		TitleFontSize:   16,
		Margins: PDFMargins{
			Left:   12,
			Right:  12,
			Top:    15,
			Bottom: 15,
		},
	}
}

// NewPDFGenerator creates a new PDF generator
func NewPDFGenerator(options PDFOptions) *PDFGenerator {
	orientation := "P"
	if options.Orientation == "landscape" {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "mm", options.PageSize, "")
	pdf.SetMargins(options.Margins.Left, options.Margins.Top, options.Margins.Right)
	pdf.SetAutoPageBreak(false, options.Margins.Bottom)
	if options.Author != "" {
		pdf.SetAuthor(options.Author, true)
	}

	g := &PDFGenerator{
		pdf:     pdf,
		options: options,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		now:     time.Now,
	}
	g.setFooter()
	return g
}

// GenerateTable renders the title block, the summary and the table
func (g *PDFGenerator) GenerateTable(t Table) error {
	g.pdf.SetTitle(t.Title, true)
	g.pdf.AddPage()

	g.addTitle(t.Title)
	if t.Subtitle != "" {
		g.addSubtitle(t.Subtitle)
	}
	if g.options.IncludeDate {
		g.addDate()
	}
	if len(t.Summary) > 0 {
		g.addSummary(t.Summary)
	}
	g.pdf.Ln(6)

	labels := t.Labels()
	widths := g.calculateColumnWidths(t, labels)
	g.addTableHeader(labels, widths)
	g.addTableData(t, labels, widths)

	return g.pdf.Error()
}

// addTitle adds the report title
func (g *PDFGenerator) addTitle(title string) {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.TitleFontSize)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 10, g.tr(title), "", 1, "C", false, 0, "")
}

// addSubtitle adds the query description
func (g *PDFGenerator) addSubtitle(subtitle string) {
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize+2)
	g.pdf.SetTextColor(100, 100, 100)
	g.pdf.CellFormat(0, 8, g.tr(subtitle), "", 1, "C", false, 0, "")
}

// addDate adds the generation date
func (g *PDFGenerator) addDate() {
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize-1)
	g.pdf.SetTextColor(128, 128, 128)
	dateStr := fmt.Sprintf("Generated: %s", g.now().Format(g.options.TimestampFormat))
	g.pdf.CellFormat(0, 6, dateStr, "", 1, "R", false, 0, "")
}

// addSummary prints the summary items in their given order
func (g *PDFGenerator) addSummary(items []SummaryItem) {
	g.pdf.Ln(4)
	g.pdf.SetTextColor(0, 0, 0)
	for _, item := range items {
		g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize)
		g.pdf.CellFormat(60, 6, g.tr(item.Label+":"), "", 0, "L", false, 0, "")
		g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
		g.pdf.CellFormat(0, 6, g.tr(item.Value), "", 1, "L", false, 0, "")
	}
}

// calculateColumnWidths sizes columns to their content and scales them to
// the printable width.
func (g *PDFGenerator) calculateColumnWidths(t Table, labels []string) []float64 {
	pageWidth, _ := g.pdf.GetPageSize()
	availableWidth := pageWidth - g.options.Margins.Left - g.options.Margins.Right
	widths := make([]float64, len(labels))
	if len(labels) == 0 {
		return widths
	}

	g.pdf.SetFont(g.options.FontFamily, "B", g.options.HeaderFontSize)
	for i, label := range labels {
		widths[i] = g.pdf.GetStringWidth(g.tr(label)) + 4
	}

	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	keys := t.Keys()
	for _, row := range t.Rows[:min(len(t.Rows), 100)] {
		for i, key := range keys {
			if w := g.pdf.GetStringWidth(g.cellText(row[key])) + 4; w > widths[i] {
				widths[i] = w
			}
		}
	}

	total := 0.0
	for _, w := range widths {
		total += w
	}
	scale := availableWidth / total
	for i := range widths {
		widths[i] *= scale
	}
	return widths
}

// addTableHeader adds the table header row
func (g *PDFGenerator) addTableHeader(labels []string, widths []float64) {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.HeaderFontSize)
	g.pdf.SetFillColor(g.options.HeaderColor.R, g.options.HeaderColor.G, g.options.HeaderColor.B)
	g.pdf.SetTextColor(255, 255, 255)

	for i, label := range labels {
		g.pdf.CellFormat(widths[i], 8, g.fit(g.tr(label), widths[i]), "1", 0, "C", true, 0, "")
	}
	g.pdf.Ln(-1)
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	g.pdf.SetTextColor(0, 0, 0)
}

// addTableData adds the data rows, repeating the header on every new page
func (g *PDFGenerator) addTableData(t Table, labels []string, widths []float64) {
	const rowHeight = 7
	_, pageHeight := g.pdf.GetPageSize()
	keys := t.Keys()

	for i, row := range t.Rows {
		if g.pdf.GetY()+rowHeight > pageHeight-g.options.Margins.Bottom {
			g.pdf.AddPage()
			g.addTableHeader(labels, widths)
		}

		if g.options.AlternateRows && i%2 == 1 {
			g.pdf.SetFillColor(g.options.AlternateColor.R, g.options.AlternateColor.G, g.options.AlternateColor.B)
		} else {
			g.pdf.SetFillColor(255, 255, 255)
		}

		for j, key := range keys {
			g.pdf.CellFormat(widths[j], rowHeight, g.fit(g.cellText(row[key]), widths[j]), "1", 0, "L", true, 0, "")
		}
		g.pdf.Ln(-1)
	}
}

func (g *PDFGenerator) cellText(val any) string {
	return g.tr(formatText(val, g.options.DateFormat, g.options.TimestampFormat))
}

// fit truncates s with an ellipsis until it fits width
func (g *PDFGenerator) fit(s string, width float64) string {
	limit := width - 2
	if g.pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && g.pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// setFooter sets up the page footer
func (g *PDFGenerator) setFooter() {
	g.pdf.SetFooterFunc(func() {
		if !g.options.IncludePageNum {
			return
		}
		g.pdf.SetY(-12)
		g.pdf.SetFont(g.options.FontFamily, "", 8)
		g.pdf.SetTextColor(128, 128, 128)
		g.pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", g.pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	g.pdf.AliasNbPages("")
}

// WriteTo writes the PDF to a writer
func (g *PDFGenerator) WriteTo(w io.Writer) error {
	return g.pdf.Output(w)
}

// OutputToBytes returns the PDF as bytes
func (g *PDFGenerator) OutputToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := g.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PageCount returns the number of pages generated so far
func (g *PDFGenerator) PageCount() int {
	return g.pdf.PageCount()
}
