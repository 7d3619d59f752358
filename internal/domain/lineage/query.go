package lineage

// TimeRange bounds an edge search to documents touched within
// [StartMs, EndMs]; either bound may be nil for unbounded.
type TimeRange struct {
	StartMs *int64
	EndMs   *int64
}

// EdgeSideQuery is one branch of a FrontierQuery: match edges anchored on
// one side (source for Outgoing, destination for Incoming) to a set of
// frontier urns, restricted to a set of relation types and, optionally, to
// an allow-list of entity types that both endpoints must belong to.
type EdgeSideQuery struct {
	Urns               []Urn
	RelationTypes      []string
	AllowedEntityTypes []string
}

// FrontierQuery is the backend-agnostic query the Batch Executor asks the
// search backend to run for one batch of one hop: a disjunction of an
// Outgoing branch (anchored on source.urn) and an Incoming branch
// (anchored on destination.urn), either of which is nil when its edge
// subset is empty, plus an optional shared time-range constraint.
type FrontierQuery struct {
	Outgoing  *EdgeSideQuery
	Incoming  *EdgeSideQuery
	TimeRange *TimeRange
	Size      int
}

// Empty reports whether the query has no branches to search at all.
func (q FrontierQuery) Empty() bool {
	return q.Outgoing == nil && q.Incoming == nil
}

// Condition names a comparison operator usable in a static-edge Criterion.
// The engine only ever accepts ConditionEqual; any other value fails
// query construction with InvalidFilterCondition.
type Condition string

const ConditionEqual Condition = "EQUAL"

// Criterion is one field/condition/value comparison against either the
// source or destination side of an edge document.
type Criterion struct {
	Field     string
	Condition Condition
	Value     string
}

// ConjunctiveCriterion is a conjunction (AND) of Criteria.
type ConjunctiveCriterion struct {
	Criteria []Criterion
}

// Filter is a disjunction (OR) of ConjunctiveCriterions.
type Filter struct {
	Or []ConjunctiveCriterion
}

// StaticEdgeQuery is the non-lineage edge-search query shape: a fixed pair
// of entity-type term sets plus per-side filters and a relation-type
// disjunction, used outside the BFS traversal path (e.g. ad hoc edge
// lookups that do not walk a frontier).
type StaticEdgeQuery struct {
	SourceTypes       []string
	SourceFilter      *Filter
	DestinationTypes  []string
	DestinationFilter *Filter
	RelationTypes     []string
}
