package dashboard

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// ChartType is the kind of chart a panel renders
type ChartType string

const (
	ChartPie  ChartType = "pie"
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
)

// Valid reports whether t is a supported chart type
func (t ChartType) Valid() bool {
	_, ok := palettes[t]
	return ok
}

// palettes assign colors by series position only, so re-rendering the same
// series never changes a slice's color.
var palettes = map[ChartType][]string{
	ChartPie:  {"#1F4E79", "#2E75B6", "#9DC3E6", "#C55A11", "#F4B183", "#548235", "#A9D18E", "#7F6000"},
	ChartBar:  {"#4472C4", "#ED7D31", "#A5A5A5", "#FFC000", "#5B9BD5", "#70AD47", "#264478", "#9E480E"},
	ChartLine: {"#4472C4", "#70AD47", "#ED7D31", "#7030A0", "#00B0F0", "#FF0000"},
}

// Palette returns a copy of the palette for a chart kind
func Palette(kind ChartType) []string {
	return slices.Clone(palettes[kind])
}

// ColorAt returns the palette color for the i-th point of a chart kind
func ColorAt(kind ChartType, i int) string {
	p := palettes[kind]
	if len(p) == 0 {
		p = palettes[ChartBar]
	}
	return p[i%len(p)]
}

// SeriesPoint is one slice or bar
type SeriesPoint struct {
	Name        string  `json:"name" yaml:"name"`
	Value       float64 `json:"value" yaml:"value"`
	Color       string  `json:"color,omitempty" yaml:"color,omitempty"`
	FilterKey   string  `json:"filter_key,omitempty" yaml:"filter_key,omitempty"`
	FilterValue any     `json:"filter_value,omitempty" yaml:"filter_value,omitempty"`
}

// ChartConfig describes a chart. With GroupBy set the points are built from
// the filtered records, one per distinct value of that field, counting
// records or summing ValueField; otherwise Data is rendered as given.
type ChartConfig struct {
	Type       ChartType     `json:"type" yaml:"type"`
	Title      string        `json:"title" yaml:"title"`
	Height     int           `json:"height,omitempty" yaml:"height,omitempty"`
	Data       []SeriesPoint `json:"data,omitempty" yaml:"data,omitempty"`
	GroupBy    string        `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	ValueField string        `json:"value_field,omitempty" yaml:"value_field,omitempty"`
}

// RenderedPoint is a chart point ready for display
type RenderedPoint struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Color       string  `json:"color"`
	FilterKey   string  `json:"filter_key,omitempty"`
	FilterValue any     `json:"filter_value,omitempty"`
	Clickable   bool    `json:"clickable"`
	OnClick     func()  `json:"-"`
}

// RenderedChart is a chart ready for display
type RenderedChart struct {
	Type   ChartType       `json:"type"`
	Title  string          `json:"title"`
	Height int             `json:"height,omitempty"`
	Points []RenderedPoint `json:"points"`
	Empty  bool            `json:"empty"`
}

// DeriveChartSeries turns a chart config into renderable points, binding a
// click handler to every point that names a filter.
func DeriveChartSeries[R Record](filtered []R, chart ChartConfig, target FilterTarget) RenderedChart {
	data := chart.Data
	if chart.GroupBy != "" {
		data = GroupSeries(filtered, chart.GroupBy, chart.ValueField, nil)
	}

	rc := RenderedChart{
		Type:   chart.Type,
		Title:  chart.Title,
		Height: chart.Height,
		Points: make([]RenderedPoint, len(data)),
	}
	for i, p := range data {
		rp := RenderedPoint{
			Name:  p.Name,
			Value: p.Value,
			Color: p.Color,
		}
		if rp.Color == "" {
			rp.Color = ColorAt(chart.Type, i)
		}
		if p.FilterKey != "" && p.FilterValue != nil && target != nil {
			rp.Clickable = true
			rp.FilterKey = p.FilterKey
			rp.FilterValue = p.FilterValue
			key, value := p.FilterKey, p.FilterValue
			rp.OnClick = func() { target.ApplyFilterAndSwitchView(key, value) }
		}
		rc.Points[i] = rp
	}
	rc.Empty = len(rc.Points) == 0
	return rc
}

// GroupSeries builds one point per distinct value of groupBy. Values listed
// in order come first in that order, the rest follow in first-seen order.
// Groups without records are omitted. With valueField empty each point
// counts records, otherwise it sums the numeric values of valueField.
func GroupSeries[R Record](records []R, groupBy, valueField string, order []any) []SeriesPoint {
	type group struct {
		value any
		total decimal.Decimal
	}
	groups := make(map[string]*group)
	var seen []string

	for _, r := range records {
		v, ok := r.Field(groupBy)
		if !ok {
			continue
		}
		key, ok := Canonical(v)
		if !ok {
			continue
		}
		g, exists := groups[key]
		if !exists {
			g = &group{value: v}
			groups[key] = g
			seen = append(seen, key)
		}
		if valueField == "" {
			g.total = g.total.Add(decimal.NewFromInt(1))
			continue
		}
		if raw, ok := r.Field(valueField); ok {
			if d, err := ToDecimal(raw); err == nil {
				g.total = g.total.Add(d)
			}
		}
	}

	keys := make([]string, 0, len(seen))
	placed := make(map[string]bool, len(seen))
	for _, o := range order {
		key, ok := Canonical(o)
		if !ok || placed[key] || groups[key] == nil {
			continue
		}
		keys = append(keys, key)
		placed[key] = true
	}
	for _, key := range seen {
		if !placed[key] {
			keys = append(keys, key)
		}
	}

	points := make([]SeriesPoint, len(keys))
	for i, key := range keys {
		g := groups[key]
		points[i] = SeriesPoint{
			Name:        key,
			Value:       g.total.InexactFloat64(),
			FilterKey:   groupBy,
			FilterValue: g.value,
		}
	}
	return points
}

// Validate checks the chart against the dashboard config and record schema
func (c ChartConfig) Validate(config Config, schema Schema) *ValidationResult {
	result := NewValidationResult()
	if !c.Type.Valid() {
		result.AddError("type", CodeInvalid, fmt.Sprintf("Chart type must be pie, bar or line, got '%s'", c.Type))
	}
	if c.Height < 0 {
		result.AddError("height", CodeInvalid, "Height must be non-negative")
	}
	if c.GroupBy != "" {
		if !schema.Has(c.GroupBy) {
			result.AddError("group_by", CodeUnknownField, fmt.Sprintf("Field '%s' not found in record schema", c.GroupBy))
		} else if !config.Declares(c.GroupBy) {
			result.AddError("group_by", CodeUnknownFilter, fmt.Sprintf("Filter '%s' is not declared", c.GroupBy))
		}
		if len(c.Data) > 0 {
			result.AddError("data", CodeInvalid, "Static data cannot be combined with group_by")
		}
	} else if c.ValueField != "" {
		result.AddError("value_field", CodeInvalid, "value_field requires group_by")
	}
	if c.ValueField != "" && !schema.Has(c.ValueField) {
		result.AddError("value_field", CodeUnknownField, fmt.Sprintf("Field '%s' not found in record schema", c.ValueField))
	}
	for i, p := range c.Data {
		fieldPath := fmt.Sprintf("data[%d]", i)
		if p.Name == "" {
			result.AddError(fieldPath+".name", CodeRequired, "Point name is required")
		}
		validateClickTarget(fieldPath, p.FilterKey, p.FilterValue, config, result)
	}
	return result
}
