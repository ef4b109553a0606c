package pages

import (
	"csd-portal/ops-portal/ops-portal-backend/internal/dashboard"
	"csd-portal/ops-portal/ops-portal-backend/internal/fixtures"
)

// Instance is a mounted page: one store and its panel, independent of the
// record type behind them.
type Instance interface {
	Config() dashboard.Config
	Schema() dashboard.Schema
	State() dashboard.State
	HasActiveFilters() bool
	Diagnostics() []dashboard.Diagnostic

	SetSearchTerm(term string)
	SetFilter(key string, value any)
	ClearFilter(key string)
	ClearAllFilters()
	SetViewMode(mode dashboard.ViewMode) error
	ApplyFilterAndSwitchView(key string, value any)
	Reset()

	Render() dashboard.View
	Click(kind dashboard.ElementKind, index int) error
	Watch(fn func(dashboard.View)) func()
}

// Source supplies the records of one dataset
type Source interface {
	Name() string
	Schema() dashboard.Schema
	Mount(def Definition, opts ...dashboard.Option) (Instance, error)
}

type source[R dashboard.Record] struct {
	name    string
	schema  dashboard.Schema
	records func() []R
}

// NewSource creates a dataset source. records is called on every mount.
func NewSource[R dashboard.Record](name string, schema dashboard.Schema, records func() []R) Source {
	return &source[R]{name: name, schema: schema, records: records}
}

func (s *source[R]) Name() string {
	return s.name
}

func (s *source[R]) Schema() dashboard.Schema {
	return s.schema
}

func (s *source[R]) Mount(def Definition, opts ...dashboard.Option) (Instance, error) {
	store, err := dashboard.NewStore(s.records(), def.Dashboard, s.schema, opts...)
	if err != nil {
		return nil, err
	}
	panel, err := dashboard.NewPanel(store, def.Panel)
	if err != nil {
		return nil, err
	}
	return panel, nil
}

// FixtureSources exposes a generated dataset as the settlements, auctions and
// participants sources.
func FixtureSources(ds fixtures.Dataset) []Source {
	return []Source{
		NewSource("settlements", fixtures.SettlementSchema, func() []fixtures.Settlement {
			return ds.Settlements
		}),
		NewSource("auctions", fixtures.AuctionSchema, func() []fixtures.Auction {
			return ds.Auctions
		}),
		NewSource("participants", fixtures.ParticipantSchema, func() []fixtures.Participant {
			return ds.Participants
		}),
	}
}
