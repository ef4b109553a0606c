package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveChartSeries_StaticData(t *testing.T) {
	store := newSettlementStore(t)
	chart := ChartConfig{
		Type:   ChartPie,
		Title:  "By status",
		Height: 300,
		Data: []SeriesPoint{
			{Name: "Settled", Value: 2, FilterKey: "status", FilterValue: "Settled"},
			{Name: "Rejected", Value: 1, FilterKey: "status", FilterValue: "Rejected"},
			{Name: "Info", Value: 5, Color: "#000000"},
		},
	}

	rc := DeriveChartSeries(store.FilteredData(), chart, store)

	require.Len(t, rc.Points, 3)
	assert.Equal(t, ColorAt(ChartPie, 0), rc.Points[0].Color)
	assert.Equal(t, ColorAt(ChartPie, 1), rc.Points[1].Color)
	assert.Equal(t, "#000000", rc.Points[2].Color)
	assert.False(t, rc.Points[2].Clickable)
	assert.Nil(t, rc.Points[2].OnClick)
	assert.Equal(t, 300, rc.Height)
	assert.False(t, rc.Empty)

	rc.Points[1].OnClick()

	assert.Equal(t, Filters{"status": "Rejected"}, store.ActiveFilters())
	assert.Equal(t, ViewTable, store.ViewMode())
}

func TestDeriveChartSeries_ColorsDependOnPositionOnly(t *testing.T) {
	a := DeriveChartSeries([]Row{}, ChartConfig{Type: ChartBar, Data: []SeriesPoint{{Name: "x", Value: 1}, {Name: "y", Value: 100}}}, nil)
	b := DeriveChartSeries([]Row{}, ChartConfig{Type: ChartBar, Data: []SeriesPoint{{Name: "p", Value: 9}, {Name: "q", Value: 0}}}, nil)

	assert.Equal(t, a.Points[0].Color, b.Points[0].Color)
	assert.Equal(t, a.Points[1].Color, b.Points[1].Color)
	assert.NotEqual(t, ColorAt(ChartPie, 0), ColorAt(ChartBar, 0), "palettes differ per kind")
}

func TestDeriveChartSeries_GroupBy(t *testing.T) {
	rows := []Row{
		{"status": "Rejected", "amount": 10},
		{"status": "Settled", "amount": 5},
		{"status": "Rejected", "amount": 2.5},
		{"status": "Pending"},
	}

	rc := DeriveChartSeries(rows, ChartConfig{Type: ChartBar, GroupBy: "status"}, nil)
	require.Len(t, rc.Points, 3)
	assert.Equal(t, []string{"Rejected", "Settled", "Pending"}, pointNames(rc))
	assert.Equal(t, 2.0, rc.Points[0].Value)

	summed := DeriveChartSeries(rows, ChartConfig{Type: ChartBar, GroupBy: "status", ValueField: "amount"}, nil)
	assert.Equal(t, 12.5, summed.Points[0].Value)
	assert.Equal(t, 0.0, summed.Points[2].Value)
}

func TestDeriveChartSeries_Empty(t *testing.T) {
	rc := DeriveChartSeries([]Row{}, ChartConfig{Type: ChartPie, GroupBy: "status"}, nil)
	assert.True(t, rc.Empty)
	assert.Empty(t, rc.Points)
}

func TestGroupSeries_DeclaredOrderFirst(t *testing.T) {
	rows := []Row{
		{"status": "Failed"},
		{"status": "Rejected"},
		{"status": "Settled"},
		{"status": "Settled"},
	}

	points := GroupSeries(rows, "status", "", []any{"Settled", "Pending", "Rejected"})

	names := make([]string, len(points))
	for i, p := range points {
		names[i] = p.Name
		assert.Equal(t, "status", p.FilterKey)
	}
	assert.Equal(t, []string{"Settled", "Rejected", "Failed"}, names)
	assert.Equal(t, 2.0, points[0].Value)
	assert.Equal(t, "Settled", points[0].FilterValue)
}

func TestChartConfigValidate(t *testing.T) {
	cfg := settlementConfig()
	schema := settlementSchema()

	assert.True(t, ChartConfig{Type: ChartPie, GroupBy: "status"}.Validate(cfg, schema).IsValid)

	result := ChartConfig{
		Type:       "donut",
		Height:     -1,
		ValueField: "amount",
		Data:       []SeriesPoint{{Name: "", FilterKey: "venue", FilterValue: "x"}},
	}.Validate(cfg, schema)
	require.False(t, result.IsValid)
	assert.True(t, result.HasCode(CodeInvalid))
	assert.True(t, result.HasCode(CodeUnknownField))
	assert.True(t, result.HasCode(CodeUnknownFilter))
	assert.True(t, result.HasCode(CodeRequired))

	grouped := ChartConfig{Type: ChartBar, GroupBy: "reference"}.Validate(cfg, schema)
	assert.True(t, grouped.HasCode(CodeUnknownFilter), "group_by must be a declared filter")
}

func pointNames(rc RenderedChart) []string {
	names := make([]string, len(rc.Points))
	for i, p := range rc.Points {
		names[i] = p.Name
	}
	return names
}
