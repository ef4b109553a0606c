package dashboard

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the mutable query state of one page instance
type State struct {
	SearchTerm    string   `json:"search_term"`
	ActiveFilters Filters  `json:"active_filters"`
	ViewMode      ViewMode `json:"view_mode"`
}

func (s State) clone() State {
	s.ActiveFilters = s.ActiveFilters.Clone()
	return s
}

// ChangeFunc is called after state transitions with the new state and
// filtered data. It runs outside the store lock and may call back into the
// store. Concurrent transitions are coalesced: a listener may skip an
// intermediate state but always ends on the current one.
type ChangeFunc[R Record] func(state State, filtered []R)

// Option configures a Store
type Option func(*options)

type options struct {
	logger *zap.Logger
	now    func() time.Time
}

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the clock used to timestamp diagnostics
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Store holds the search term, active filters and view mode of one page and
// derives the filtered dataset from them. Mutations are serialized; the
// filtered dataset is recomputed synchronously inside each transition.
type Store[R Record] struct {
	mu          sync.RWMutex
	records     []R
	config      Config
	schema      Schema
	logger      *zap.Logger
	now         func() time.Time
	state       State
	filtered    []R
	diagnostics []Diagnostic
	listeners   map[int]ChangeFunc[R]
	nextID      int

	// seq counts committed transitions; notified is the last one delivered.
	// Both are guarded by mu. notifyMu is held by the notifying goroutine.
	seq      uint64
	notified uint64
	notifyMu sync.Mutex
}

// NewStore creates a store over records. The configuration is validated
// against schema and a *ConfigError is returned when it does not fit.
func NewStore[R Record](records []R, config Config, schema Schema, opts ...Option) (*Store[R], error) {
	o := options{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if err := config.Validate(schema).Err(); err != nil {
		return nil, err
	}

	s := &Store[R]{
		records:   slices.Clone(records),
		config:    config,
		schema:    schema,
		logger:    o.logger,
		now:       o.now,
		listeners: make(map[int]ChangeFunc[R]),
		state: State{
			ActiveFilters: Filters{},
			ViewMode:      config.DefaultView,
		},
	}
	s.recompute()
	return s, nil
}

// Config returns the configuration the store was built with
func (s *Store[R]) Config() Config {
	return s.config
}

// Schema returns the record schema the store was built with
func (s *Store[R]) Schema() Schema {
	return s.schema
}

// Total returns the number of unfiltered records
func (s *Store[R]) Total() int {
	return len(s.records)
}

// Records returns a copy of the unfiltered records
func (s *Store[R]) Records() []R {
	return slices.Clone(s.records)
}

// State returns a copy of the current state
func (s *Store[R]) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// FilteredData returns the records matching the current state, in their
// original order.
func (s *Store[R]) FilteredData() []R {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.filtered)
}

// Snapshot returns the state and the filtered data of the same transition
func (s *Store[R]) Snapshot() (State, []R) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone(), slices.Clone(s.filtered)
}

// HasActiveFilters reports whether any filter is set
func (s *Store[R]) HasActiveFilters() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.ActiveFilters) > 0
}

// SearchTerm returns the current search term
func (s *Store[R]) SearchTerm() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SearchTerm
}

// ViewMode returns the current view mode
func (s *Store[R]) ViewMode() ViewMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ViewMode
}

// ActiveFilters returns a copy of the active filter set
func (s *Store[R]) ActiveFilters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ActiveFilters.Clone()
}

// Diagnostics returns the recorded diagnostics, oldest first
func (s *Store[R]) Diagnostics() []Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.diagnostics)
}

// SetSearchTerm replaces the search term
func (s *Store[R]) SetSearchTerm(term string) {
	s.transition(func(st *State) {
		st.SearchTerm = term
	})
}

// SetFilter sets or replaces the active filter for key
func (s *Store[R]) SetFilter(key string, value any) {
	s.checkKey("set", key)
	s.transition(func(st *State) {
		st.ActiveFilters[key] = value
	})
}

// ClearFilter removes the active filter for key if present
func (s *Store[R]) ClearFilter(key string) {
	s.checkKey("clear", key)
	s.mu.RLock()
	_, ok := s.state.ActiveFilters[key]
	s.mu.RUnlock()
	if !ok {
		return
	}
	s.transition(func(st *State) {
		delete(st.ActiveFilters, key)
	})
}

// ClearAllFilters empties the active filter set
func (s *Store[R]) ClearAllFilters() {
	s.transition(func(st *State) {
		st.ActiveFilters = Filters{}
	})
}

// SetViewMode switches the rendering mode
func (s *Store[R]) SetViewMode(mode ViewMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidViewMode, mode)
	}
	s.transition(func(st *State) {
		st.ViewMode = mode
	})
	return nil
}

// ApplyFilterAndSwitchView sets the filter for key and switches to the table
// view in a single transition. Chart slices and metric cards call it on click.
func (s *Store[R]) ApplyFilterAndSwitchView(key string, value any) {
	s.checkKey("apply", key)
	s.transition(func(st *State) {
		st.ActiveFilters[key] = value
		st.ViewMode = ViewTable
	})
}

// Reset restores the initial state: no search, no filters, default view.
func (s *Store[R]) Reset() {
	s.transition(func(st *State) {
		st.SearchTerm = ""
		st.ActiveFilters = Filters{}
		st.ViewMode = s.config.DefaultView
	})
}

// Subscribe registers fn to run after transitions and returns a
// function that removes it.
func (s *Store[R]) Subscribe(fn ChangeFunc[R]) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// transition applies a state change, recomputes the filtered data and
// notifies listeners once the lock is released.
func (s *Store[R]) transition(apply func(*State)) {
	s.mu.Lock()
	apply(&s.state)
	s.recompute()
	s.seq++
	s.mu.Unlock()

	s.notify()
}

// notify delivers pending transitions to the listeners. One goroutine
// notifies at a time and always delivers the newest state, so the last
// notification a listener sees matches the store. Transitions committed while
// another goroutine is notifying, including those made from a listener, are
// picked up by that goroutine.
func (s *Store[R]) notify() {
	for s.notifyMu.TryLock() {
		for {
			s.mu.Lock()
			if s.notified == s.seq {
				s.mu.Unlock()
				break
			}
			s.notified = s.seq
			state := s.state.clone()
			filtered := slices.Clone(s.filtered)
			listeners := s.sortedListeners()
			s.mu.Unlock()

			for _, fn := range listeners {
				fn(state, filtered)
			}
		}
		s.notifyMu.Unlock()

		s.mu.RLock()
		pending := s.notified != s.seq
		s.mu.RUnlock()
		if !pending {
			return
		}
	}
}

// sortedListeners returns the listeners in subscription order. Caller holds
// the lock.
func (s *Store[R]) sortedListeners() []ChangeFunc[R] {
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]ChangeFunc[R], len(ids))
	for i, id := range ids {
		listeners[i] = s.listeners[id]
	}
	return listeners
}

// recompute rebuilds the filtered data. Undeclared keys stay in the active
// set but never take part in matching. Caller holds the lock.
func (s *Store[R]) recompute() {
	effective := make(Filters, len(s.state.ActiveFilters))
	for key, value := range s.state.ActiveFilters {
		if s.config.Declares(key) {
			effective[key] = value
		}
	}
	s.filtered = Filter(s.records, s.state.SearchTerm, s.config.SearchFields, effective)
}

// checkKey records a diagnostic for filter keys missing from the config
func (s *Store[R]) checkKey(op, key string) {
	if s.config.Declares(key) {
		return
	}
	s.logger.Warn("Filter key not declared in dashboard configuration",
		zap.String("operation", op),
		zap.String("key", key))
	s.addDiagnostic(Diagnostic{
		Code:    DiagUnknownFilterKey,
		Key:     key,
		Message: fmt.Sprintf("filter key %q is not declared in the filters config; it has no effect", key),
	})
}

// addDiagnostic appends a diagnostic, dropping the oldest past the limit
func (s *Store[R]) addDiagnostic(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.At.IsZero() {
		d.At = s.now()
	}
	s.diagnostics = append(s.diagnostics, d)
	if over := len(s.diagnostics) - maxDiagnostics; over > 0 {
		s.diagnostics = slices.Delete(s.diagnostics, 0, over)
	}
}
