package lineage

import (
	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
	"github.com/turtacn/keyip-lineage/pkg/errors"
)

// QueryBuilder composes the backend-agnostic queries the Batch Executor
// issues against the search backend: one FrontierQuery per BFS batch, or
// (outside the BFS path) a StaticEdgeQuery for ad hoc edge lookups.
type QueryBuilder struct{}

// NewQueryBuilder returns a QueryBuilder. It is stateless; the registry
// lookups that feed it live in RegistryAdapter.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// BuildFrontierQuery composes the disjunction of an outgoing sub-query
// (source.urn ∈ urns) and an incoming sub-query (destination.urn ∈ urns)
// for the given batch, restricted to the relation types the registry
// permits for the entity types present in the batch and to
// graphFilters.AllowedEntityTypes on both endpoints. Either branch is
// omitted when its edge subset is empty. startMs/endMs add the
// time-range constraint described in spec.md §4.2; either may be nil for
// unbounded.
func (b *QueryBuilder) BuildFrontierQuery(urns []domain.Urn, edges *domain.ValidEdgeSet, filters domain.GraphFilters, startMs, endMs *int64) (domain.FrontierQuery, error) {
	if len(urns) == 0 {
		return domain.FrontierQuery{}, errors.InvalidFilterCondition("frontier batch must contain at least one urn")
	}

	types := distinctTypes(urns)
	outgoingRel := unionRelationTypes(edges, types, domain.Outgoing)
	incomingRel := unionRelationTypes(edges, types, domain.Incoming)

	q := domain.FrontierQuery{Size: domain.BatchSize}
	if len(outgoingRel) > 0 {
		q.Outgoing = &domain.EdgeSideQuery{
			Urns:               urns,
			RelationTypes:      outgoingRel,
			AllowedEntityTypes: filters.AllowedEntityTypes,
		}
	}
	if len(incomingRel) > 0 {
		q.Incoming = &domain.EdgeSideQuery{
			Urns:               urns,
			RelationTypes:      incomingRel,
			AllowedEntityTypes: filters.AllowedEntityTypes,
		}
	}
	if startMs != nil || endMs != nil {
		q.TimeRange = &domain.TimeRange{StartMs: startMs, EndMs: endMs}
	}
	return q, nil
}

// BuildStaticEdgeQuery composes a non-lineage edge-search query: a source
// and destination entity-type disjunction, a per-side filter restricted
// to EQUAL criteria, and a relation-type disjunction. Any criterion whose
// Condition is not domain.ConditionEqual fails the whole call with
// InvalidFilterCondition.
func (b *QueryBuilder) BuildStaticEdgeQuery(sourceTypes []string, sourceFilter *domain.Filter, destTypes []string, destFilter *domain.Filter, relationTypes []string) (domain.StaticEdgeQuery, error) {
	if err := validateFilter(sourceFilter); err != nil {
		return domain.StaticEdgeQuery{}, err
	}
	if err := validateFilter(destFilter); err != nil {
		return domain.StaticEdgeQuery{}, err
	}
	return domain.StaticEdgeQuery{
		SourceTypes:       sourceTypes,
		SourceFilter:      sourceFilter,
		DestinationTypes:  destTypes,
		DestinationFilter: destFilter,
		RelationTypes:     relationTypes,
	}, nil
}

func validateFilter(f *domain.Filter) error {
	if f == nil {
		return nil
	}
	for _, conj := range f.Or {
		for _, c := range conj.Criteria {
			if c.Condition != domain.ConditionEqual {
				return errors.InvalidFilterCondition("unsupported filter condition " + string(c.Condition) + " on field " + c.Field)
			}
		}
	}
	return nil
}

func distinctTypes(urns []domain.Urn) []string {
	seen := make(map[string]bool, len(urns))
	var out []string
	for _, u := range urns {
		t := u.EntityType()
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func unionRelationTypes(edges *domain.ValidEdgeSet, types []string, dir domain.EdgeDirection) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range types {
		for _, rel := range edges.RelationTypesFor(t, dir) {
			if seen[rel] {
				continue
			}
			seen[rel] = true
			out = append(out, rel)
		}
	}
	return out
}
