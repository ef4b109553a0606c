package pages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csd-portal/ops-portal/ops-portal-backend/internal/dashboard"
	"csd-portal/ops-portal/ops-portal-backend/internal/fixtures"
)

func newDefaultRegistry(t *testing.T) *Registry {
	t.Helper()
	defs, err := Defaults()
	require.NoError(t, err)
	reg, err := NewRegistry(defs, FixtureSources(fixtures.Generate(fixtures.DefaultSeed, 60)), nil)
	require.NoError(t, err)
	return reg
}

const minimalPage = `
pages:
  - id: settlements
    title: Settlements
    dataset: settlements
    permission: settlements.view
    dashboard:
      default_view: table
      search_fields: [reference]
      filters:
        - key: status
          label: Status
          options: [{ value: Settled, label: Settled }]
`

func TestDefaults_AreValid(t *testing.T) {
	reg := newDefaultRegistry(t)

	ids := make([]string, 0)
	for _, def := range reg.Definitions() {
		ids = append(ids, def.ID)
	}
	assert.Equal(t, []string{"settlements", "auctions", "participants"}, ids)
}

func TestParse(t *testing.T) {
	defs, err := Parse([]byte(minimalPage))
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, dashboard.ViewTable, defs[0].Dashboard.DefaultView)
	assert.Equal(t, []any{"Settled"}, defs[0].Dashboard.Filters[0].Values())

	empty, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = Parse([]byte("pages:\n  - id: x\n    colour: red\n"))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalPage), 0o600))

	defs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, defs, 1)

	defaults, err := LoadFile("")
	require.NoError(t, err)
	assert.Len(t, defaults, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewRegistry_ReportsEveryProblem(t *testing.T) {
	defs, err := Parse([]byte(minimalPage))
	require.NoError(t, err)
	bad := defs[0]
	bad.Dashboard.SearchFields = []string{"counterparty_name"}
	orphan := defs[0]
	orphan.ID = "orphan"
	orphan.Dataset = "repo_trades"

	_, err = NewRegistry([]Definition{defs[0], defs[0], bad, orphan}, FixtureSources(fixtures.Generate(1, 10)), nil)

	require.ErrorIs(t, err, dashboard.ErrInvalidConfig)
	var cfgErr *dashboard.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	fields := make([]string, len(cfgErr.Result.Errors))
	for i, e := range cfgErr.Result.Errors {
		fields[i] = e.Field
	}
	assert.Equal(t, []string{
		"pages[1].id",
		"pages[2].id",
		"pages[2].dashboard.search_fields[0]",
		"pages[3].dataset",
	}, fields)
}

func TestRegistry_Navigation(t *testing.T) {
	reg := newDefaultRegistry(t)

	all := reg.Navigation(nil)
	assert.Len(t, all, 3)

	settlementsOnly := reg.Navigation(func(p string) bool { return p == "settlements.view" })
	require.Len(t, settlementsOnly, 1)
	assert.Equal(t, NavItem{ID: "settlements", Title: "Settlement Monitor", Permission: "settlements.view"}, settlementsOnly[0])
}

func TestRegistry_Mount(t *testing.T) {
	reg := newDefaultRegistry(t)

	a, err := reg.Mount("settlements")
	require.NoError(t, err)
	b, err := reg.Mount("settlements")
	require.NoError(t, err)

	a.SetFilter("status", "Settled")
	assert.True(t, a.HasActiveFilters())
	assert.False(t, b.HasActiveFilters(), "instances do not share state")

	view := a.Render()
	assert.Equal(t, 60, view.Total)
	for _, row := range view.Rows {
		assert.Equal(t, "Settled", row["status"])
	}
	require.NotNil(t, view.Chart)
	assert.Equal(t, []string{"Settled"}, []string{view.Chart.Points[0].Name})

	_, err = reg.Mount("repo")
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestRegistry_MountedMetricClick(t *testing.T) {
	reg := newDefaultRegistry(t)
	page, err := reg.Mount("auctions")
	require.NoError(t, err)
	assert.Equal(t, dashboard.ViewVisual, page.State().ViewMode)

	view := page.Render()
	for i, m := range view.Metrics {
		if m.Key == "upcoming" {
			require.NoError(t, page.Click(dashboard.ElementMetric, i))
		}
	}

	assert.Equal(t, dashboard.ViewTable, page.State().ViewMode)
	assert.Equal(t, dashboard.Filters{"status": "Announced"}, page.State().ActiveFilters)
	assert.Equal(t, 1, page.Render().Matched)
}
