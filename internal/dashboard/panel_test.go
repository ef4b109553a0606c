package dashboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func settlementPanelConfig() PanelConfig {
	return PanelConfig{
		Stats: []StatSpec{
			{Key: "total", Func: AggregateCount},
			{Key: "rejected", Func: AggregateCount, Where: Filters{"status": "Rejected"}},
		},
		Metrics: []MetricDescriptor{
			{Key: "total", Title: "Instructions", Format: "count"},
			{Key: "rejected", Title: "Rejected", FilterKey: "status", FilterValue: "Rejected"},
		},
		Chart:   &ChartConfig{Type: ChartPie, Title: "By status", GroupBy: "status"},
		Columns: []Column{{Key: "reference"}, {Key: "status", Label: "State"}},
	}
}

func newSettlementPanel(t *testing.T, opts ...Option) *Panel[Row] {
	t.Helper()
	panel, err := NewPanel(newSettlementStore(t, opts...), settlementPanelConfig())
	require.NoError(t, err)
	return panel
}

func TestNewPanel_FillsColumns(t *testing.T) {
	panel := newSettlementPanel(t)
	assert.Equal(t, []Column{{Key: "reference", Label: "Reference"}, {Key: "status", Label: "State"}}, panel.PanelConfig().Columns)

	bare, err := NewPanel(newSettlementStore(t), PanelConfig{})
	require.NoError(t, err)
	assert.Equal(t, []Column{
		{Key: "id", Label: "ID"},
		{Key: "status", Label: "Status"},
		{Key: "reference", Label: "Reference"},
	}, bare.PanelConfig().Columns)
}

func TestNewPanel_RejectsInvalidConfig(t *testing.T) {
	cfg := settlementPanelConfig()
	cfg.Columns = append(cfg.Columns, Column{Key: "counterparty"})
	cfg.Chart = &ChartConfig{Type: ChartPie, GroupBy: "reference"}

	panel, err := NewPanel(newSettlementStore(t), cfg)

	assert.Nil(t, panel)
	require.ErrorIs(t, err, ErrInvalidConfig)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "columns[2].key")
	assert.Contains(t, err.Error(), "chart.group_by")
}

func TestPanel_Render(t *testing.T) {
	panel := newSettlementPanel(t)

	view := panel.Render()

	assert.Equal(t, 3, view.Total)
	assert.Equal(t, 3, view.Matched)
	assert.False(t, view.HasActiveFilters)
	assert.Equal(t, []map[string]any{
		{"reference": "STL-0001", "status": "Settled"},
		{"reference": "STL-0002", "status": "Rejected"},
		{"reference": "STL-0003", "status": "Settled"},
	}, view.Rows)

	require.Len(t, view.Metrics, 2)
	assert.Equal(t, "3", view.Metrics[0].Value)
	assert.Equal(t, "1", view.Metrics[1].Value)
	assert.True(t, view.Metrics[1].Clickable)

	require.NotNil(t, view.Chart)
	assert.Equal(t, []string{"Settled", "Rejected"}, pointNames(*view.Chart))
	assert.Equal(t, 2.0, view.Chart.Points[0].Value)
	assert.Equal(t, 1.0, view.Chart.Points[1].Value)
}

func TestPanel_RenderFollowsFilters(t *testing.T) {
	panel := newSettlementPanel(t)
	panel.SetFilter("status", "Settled")

	view := panel.Render()

	assert.Equal(t, 2, view.Matched)
	assert.True(t, view.HasActiveFilters)
	assert.Equal(t, "0", view.Metrics[1].Value, "no rejected records left to count")
	assert.Equal(t, []string{"Settled"}, pointNames(*view.Chart))
}

func TestPanel_ClickChartPoint(t *testing.T) {
	panel := newSettlementPanel(t)

	require.NoError(t, panel.Click(ElementChart, 1))

	assert.Equal(t, Filters{"status": "Rejected"}, panel.ActiveFilters())
	assert.Equal(t, ViewTable, panel.ViewMode())
	assert.Equal(t, []int{2}, ids(panel.FilteredData()))
}

func TestPanel_ClickMetric(t *testing.T) {
	panel := newSettlementPanel(t)

	err := panel.Click(ElementMetric, 0)
	assert.ErrorIs(t, err, ErrNotClickable)
	assert.Equal(t, ViewVisual, panel.ViewMode())

	require.NoError(t, panel.Click(ElementMetric, 1))
	assert.Equal(t, ViewTable, panel.ViewMode())
}

func TestPanel_ClickMissingElement(t *testing.T) {
	panel := newSettlementPanel(t)

	assert.ErrorIs(t, panel.Click(ElementMetric, 5), ErrNoSuchElement)
	assert.ErrorIs(t, panel.Click(ElementChart, -1), ErrNoSuchElement)
	assert.ErrorIs(t, panel.Click("table", 0), ErrNoSuchElement)
}

func TestPanel_Watch(t *testing.T) {
	panel := newSettlementPanel(t)
	var views []View
	stop := panel.Watch(func(v View) { views = append(views, v) })

	require.NoError(t, panel.Click(ElementChart, 0))
	panel.SetSearchTerm("stl")

	require.Len(t, views, 2)
	assert.Equal(t, ViewTable, views[0].State.ViewMode)
	assert.Equal(t, 2, views[0].Matched)
	assert.Equal(t, "stl", views[1].State.SearchTerm)

	stop()
	panel.ClearAllFilters()
	assert.Len(t, views, 2)
}

func TestPanel_FormatterFailureIsDiagnosed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := settlementPanelConfig()
	cfg.Metrics[0].ValueFormatter = func(any) (string, error) { return "", errors.New("boom") }
	panel, err := NewPanel(newSettlementStore(t, WithLogger(zap.New(core))), cfg)
	require.NoError(t, err)

	view := panel.Render()

	assert.Equal(t, "3", view.Metrics[0].Value)
	assert.True(t, view.Metrics[0].Fallback)
	diags := panel.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, DiagFormatterFailed, diags[0].Code)
	assert.Equal(t, "total", diags[0].Key)
	assert.Equal(t, 1, logs.FilterMessage("Failed to format metric value").Len())
}

func TestPanel_FormatterFailureRecordedOncePerEpisode(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := settlementPanelConfig()
	cfg.Metrics[0].ValueFormatter = func(v any) (string, error) {
		if v == 1 {
			return "one", nil
		}
		return "", errors.New("boom")
	}
	panel, err := NewPanel(newSettlementStore(t, WithLogger(zap.New(core))), cfg)
	require.NoError(t, err)
	stop := panel.Watch(func(View) {})
	defer stop()

	for i := 0; i < 5; i++ {
		panel.Render()
	}
	panel.SetSearchTerm("ed")
	require.Len(t, panel.Diagnostics(), 1)

	panel.SetFilter("status", "Rejected")
	assert.Equal(t, "one", panel.Render().Metrics[0].Value)
	panel.ClearFilter("status")

	diags := panel.Diagnostics()
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, DiagFormatterFailed, d.Code)
	}
	assert.Equal(t, 2, logs.FilterMessage("Failed to format metric value").Len())
}
