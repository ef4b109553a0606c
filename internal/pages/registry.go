package pages

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"csd-portal/ops-portal/ops-portal-backend/internal/dashboard"
)

// ErrUnknownPage is returned when a page id is not registered
var ErrUnknownPage = errors.New("unknown page")

// NavItem is one entry of the navigation menu
type NavItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Permission string `json:"permission,omitempty"`
}

// Registry holds validated page definitions and the datasets they draw from
type Registry struct {
	defs    []Definition
	byID    map[string]int
	sources map[string]Source
	logger  *zap.Logger
}

// NewRegistry validates every definition against its dataset schema and
// fails with a *dashboard.ConfigError listing all problems.
func NewRegistry(defs []Definition, sources []Source, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		defs:    defs,
		byID:    make(map[string]int, len(defs)),
		sources: make(map[string]Source, len(sources)),
		logger:  logger,
	}
	for _, s := range sources {
		r.sources[s.Name()] = s
	}

	result := dashboard.NewValidationResult()
	for i, def := range defs {
		fieldPath := fmt.Sprintf("pages[%d]", i)
		if def.ID != "" {
			if _, dup := r.byID[def.ID]; dup {
				result.AddError(fieldPath+".id", dashboard.CodeDuplicate, fmt.Sprintf("Page '%s' is defined more than once", def.ID))
			}
			r.byID[def.ID] = i
		}
		src, ok := r.sources[def.Dataset]
		if !ok {
			result.AddError(fieldPath+".dataset", dashboard.CodeInvalid, fmt.Sprintf("Unknown dataset '%s'", def.Dataset))
			continue
		}
		result.Merge(fieldPath, def.Validate(src.Schema()))
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	logger.Info("Page registry loaded", zap.Int("pages", len(defs)), zap.Int("datasets", len(sources)))
	return r, nil
}

// Definitions returns the registered definitions in file order
func (r *Registry) Definitions() []Definition {
	return append([]Definition(nil), r.defs...)
}

// Lookup returns the definition of a page
func (r *Registry) Lookup(id string) (Definition, error) {
	i, ok := r.byID[id]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownPage, id)
	}
	return r.defs[i], nil
}

// Navigation lists, in file order, the pages whose permission passes allowed.
// A nil allowed lists every page.
func (r *Registry) Navigation(allowed func(permission string) bool) []NavItem {
	items := make([]NavItem, 0, len(r.defs))
	for _, def := range r.defs {
		if allowed != nil && !allowed(def.Permission) {
			continue
		}
		items = append(items, NavItem{ID: def.ID, Title: def.Title, Permission: def.Permission})
	}
	return items
}

// Mount creates a fresh page instance with its own store
func (r *Registry) Mount(id string, opts ...dashboard.Option) (Instance, error) {
	def, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	opts = append([]dashboard.Option{dashboard.WithLogger(r.logger.With(zap.String("page", id)))}, opts...)
	inst, err := r.sources[def.Dataset].Mount(def, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to mount page %s: %w", id, err)
	}
	r.logger.Debug("Page mounted", zap.String("page", id))
	return inst, nil
}
