package lineage

// Phase names the BFS controller's state machine, STARTED through DONE,
// with a silent TIMED_OUT transition possible from any EXPANDING(h) state.
type Phase string

const (
	PhaseStarted   Phase = "STARTED"
	PhaseExpanding Phase = "EXPANDING"
	PhaseTimedOut  Phase = "TIMED_OUT"
	PhaseDone      Phase = "DONE"
)

// Fixed protocol constants, per the external-interfaces contract.
const (
	// BatchSize is the maximum number of urns placed in a single search
	// request when expanding a frontier.
	BatchSize = 1000

	// MaxElasticResult bounds how many hits a single search request may
	// return; traversal relies on pagination (search-after) beyond this,
	// though the BFS path never needs more than one page per batch.
	MaxElasticResult = 10000

	// DefaultTimeoutSecs is the default wall-clock budget for one getLineage
	// call, counted from the moment expansion of hop 1 begins.
	DefaultTimeoutSecs = 10

	// ManualSentinel marks an edge as authored through the manual-lineage
	// UI rather than discovered by automated extraction.
	ManualSentinel = "UI"
)
