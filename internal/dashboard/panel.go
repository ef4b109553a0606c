package dashboard

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNotClickable is returned when clicking an element without a filter target
	ErrNotClickable = errors.New("element is not clickable")
	// ErrNoSuchElement is returned when a click names a missing element
	ErrNoSuchElement = errors.New("no such element")
)

// Column is one table column
type Column struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// PanelConfig declares what a page renders from its filtered data
type PanelConfig struct {
	Metrics []MetricDescriptor `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Stats   []StatSpec         `json:"stats,omitempty" yaml:"stats,omitempty"`
	Chart   *ChartConfig       `json:"chart,omitempty" yaml:"chart,omitempty"`
	Columns []Column           `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// Validate checks the panel against the dashboard config and record schema
func (p PanelConfig) Validate(config Config, schema Schema) *ValidationResult {
	result := NewValidationResult()
	stats := validateStats(p.Stats, schema, result)
	validateMetrics(p.Metrics, config, stats, result)
	if p.Chart != nil {
		result.Merge("chart", p.Chart.Validate(config, schema))
	}
	for i, col := range p.Columns {
		fieldPath := fmt.Sprintf("columns[%d].key", i)
		if col.Key == "" {
			result.AddError(fieldPath, CodeRequired, "Column key is required")
		} else if !schema.Has(col.Key) {
			result.AddError(fieldPath, CodeUnknownField, fmt.Sprintf("Field '%s' not found in record schema", col.Key))
		}
	}
	return result
}

// ElementKind selects the clickable element family
type ElementKind string

const (
	ElementMetric ElementKind = "metric"
	ElementChart  ElementKind = "chart"
)

// View is everything a page needs to draw one frame
type View struct {
	State            State            `json:"state"`
	HasActiveFilters bool             `json:"has_active_filters"`
	Total            int              `json:"total"`
	Matched          int              `json:"matched"`
	Columns          []Column         `json:"columns"`
	Rows             []map[string]any `json:"rows"`
	Metrics          []RenderedMetric `json:"metrics"`
	Chart            *RenderedChart   `json:"chart,omitempty"`
}

// Panel binds a store to its metric, chart and table configuration
type Panel[R Record] struct {
	*Store[R]
	config PanelConfig

	failMu  sync.Mutex
	failing map[string]bool // metric keys whose formatter currently fails
}

// NewPanel validates the panel configuration and binds it to store
func NewPanel[R Record](store *Store[R], config PanelConfig) (*Panel[R], error) {
	if err := config.Validate(store.Config(), store.Schema()).Err(); err != nil {
		return nil, err
	}
	if len(config.Columns) == 0 {
		for _, f := range store.Schema().Fields {
			config.Columns = append(config.Columns, Column{Key: f.Name, Label: store.Schema().Label(f.Name)})
		}
	}
	for i, col := range config.Columns {
		if col.Label == "" {
			config.Columns[i].Label = store.Schema().Label(col.Key)
		}
	}
	return &Panel[R]{Store: store, config: config, failing: make(map[string]bool)}, nil
}

// PanelConfig returns the panel configuration with default columns filled in
func (p *Panel[R]) PanelConfig() PanelConfig {
	return p.config
}

// Render derives the current frame from a single store snapshot
func (p *Panel[R]) Render() View {
	state, filtered := p.Snapshot()
	return p.render(state, filtered)
}

func (p *Panel[R]) render(state State, filtered []R) View {
	stats := Aggregate(filtered, p.config.Stats)
	metrics := DeriveMetrics(p.config.Metrics, stats, p.Store)
	p.trackFormatterFailures(metrics)

	view := View{
		State:            state,
		HasActiveFilters: len(state.ActiveFilters) > 0,
		Total:            p.Total(),
		Matched:          len(filtered),
		Columns:          p.config.Columns,
		Rows:             p.rows(filtered),
		Metrics:          metrics,
	}
	if p.config.Chart != nil {
		chart := *p.config.Chart
		if chart.GroupBy != "" {
			var order []any
			if f, ok := p.Config().Filter(chart.GroupBy); ok {
				order = f.Values()
			}
			chart.Data = GroupSeries(filtered, chart.GroupBy, chart.ValueField, order)
			chart.GroupBy = ""
		}
		rc := DeriveChartSeries(filtered, chart, p.Store)
		view.Chart = &rc
	}
	return view
}

// trackFormatterFailures diagnoses a metric when its formatter starts
// failing. Repeated renders of the same failure are not recorded again.
func (p *Panel[R]) trackFormatterFailures(metrics []RenderedMetric) {
	p.failMu.Lock()
	defer p.failMu.Unlock()
	for _, m := range metrics {
		if m.Err == nil {
			delete(p.failing, m.Key)
			continue
		}
		if p.failing[m.Key] {
			continue
		}
		p.failing[m.Key] = true
		p.logger.Warn("Failed to format metric value",
			zap.String("metric", m.Key),
			zap.Error(m.Err))
		p.addDiagnostic(Diagnostic{
			Code:    DiagFormatterFailed,
			Key:     m.Key,
			Message: fmt.Sprintf("metric %q rendered raw: %v", m.Key, m.Err),
		})
	}
}

// rows projects records onto the table columns
func (p *Panel[R]) rows(records []R) []map[string]any {
	rows := make([]map[string]any, len(records))
	for i, r := range records {
		row := make(map[string]any, len(p.config.Columns))
		for _, col := range p.config.Columns {
			if v, ok := r.Field(col.Key); ok {
				row[col.Key] = v
			}
		}
		rows[i] = row
	}
	return rows
}

// Click invokes the click handler of the index-th metric card or chart point
// of the current frame.
func (p *Panel[R]) Click(kind ElementKind, index int) error {
	view := p.Render()
	var onClick func()
	switch kind {
	case ElementMetric:
		if index < 0 || index >= len(view.Metrics) {
			return fmt.Errorf("%w: metric %d", ErrNoSuchElement, index)
		}
		onClick = view.Metrics[index].OnClick
	case ElementChart:
		if view.Chart == nil || index < 0 || index >= len(view.Chart.Points) {
			return fmt.Errorf("%w: chart point %d", ErrNoSuchElement, index)
		}
		onClick = view.Chart.Points[index].OnClick
	default:
		return fmt.Errorf("%w: kind %q", ErrNoSuchElement, kind)
	}
	if onClick == nil {
		return fmt.Errorf("%w: %s %d", ErrNotClickable, kind, index)
	}
	onClick()
	return nil
}

// Watch calls fn with a freshly rendered view after every transition and
// returns a function that stops watching.
func (p *Panel[R]) Watch(fn func(View)) func() {
	return p.Subscribe(func(state State, filtered []R) {
		fn(p.render(state, filtered))
	})
}
