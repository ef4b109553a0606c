// Package dashboard implements the in-memory query engine behind every portal
// page: a filter store holding the search term, active filters and view mode
// for one page instance, the predicate that decides which records survive, and
// the pipeline that turns the surviving records into metric cards, chart
// series and table rows.
//
// A page supplies its records, a Config and a Schema to NewStore. Configuration
// mistakes are reported when the store is built; operations on undeclared
// filter keys are recorded as diagnostics instead of failing.
package dashboard
