package search

import (
	"go.uber.org/zap"

	"propscout/internal/catalog"
)

// State is the presentation state of the result set. Exactly one holds at
// any time.
type State int

const (
	StateLoading State = iota
	StateEmpty
	StatePopulated
)

// String returns the display name for each state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	}
	return "unknown"
}

// Coordinator combines the filter query with catalog search results. It owns
// the result set exclusively: results are replaced wholesale on each
// completed search and ordered exactly as the catalog returned them.
//
// Every dispatched search carries a monotonically increasing dispatch number.
// A resolution older than the latest dispatch is dropped, so the displayed
// state always reflects the most recently initiated search regardless of
// resolution order. The coordinator is not safe for concurrent use; it is
// driven from a single event loop.
type Coordinator struct {
	query    FilterQuery
	state    State
	results  []catalog.PropertySummary
	dispatch uint64
	logger   *zap.Logger
}

// NewCoordinator creates a coordinator with an empty query in the loading
// state (the initial unconstrained search is expected to begin immediately).
func NewCoordinator(logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{state: StateLoading, logger: logger}
}

// Query returns the current filter query.
func (c *Coordinator) Query() FilterQuery { return c.query }

// SetField updates one filter field without triggering a search.
func (c *Coordinator) SetField(name, value string) {
	c.query = c.query.SetField(name, value)
}

// State returns the current presentation state.
func (c *Coordinator) State() State { return c.state }

// Results returns the displayed result set. Valid only in StatePopulated.
func (c *Coordinator) Results() []catalog.PropertySummary { return c.results }

// Begin marks a new search as in flight and returns its dispatch number.
// The caller issues the catalog request with the query's Params() and feeds
// the outcome back through Resolve with the same dispatch number.
func (c *Coordinator) Begin() uint64 {
	c.dispatch++
	c.state = StateLoading
	c.logger.Debug("search dispatched",
		zap.Uint64("dispatch", c.dispatch),
		zap.String("params", c.query.Params().Encode()))
	return c.dispatch
}

// Reset clears the filter query and begins an immediate unconstrained
// search, returning its dispatch number.
func (c *Coordinator) Reset() uint64 {
	c.query = FilterQuery{}
	return c.Begin()
}

// Resolve applies a completed search. It returns false when the result is
// stale (a newer search was dispatched after this one) and was discarded.
// A failed search resolves to the empty state; the error is logged and the
// result list shows no results rather than a raw error.
func (c *Coordinator) Resolve(dispatch uint64, results []catalog.PropertySummary, err error) bool {
	if dispatch < c.dispatch {
		c.logger.Debug("stale search result dropped",
			zap.Uint64("dispatch", dispatch),
			zap.Uint64("current", c.dispatch))
		return false
	}

	if err != nil {
		c.logger.Warn("search failed", zap.Uint64("dispatch", dispatch), zap.Error(err))
		c.results = nil
		c.state = StateEmpty
		return true
	}

	c.results = results
	if len(results) == 0 {
		c.state = StateEmpty
	} else {
		c.state = StatePopulated
	}
	return true
}
