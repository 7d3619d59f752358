package lineage

import (
	"context"

	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
)

// CountsByType maps an entity type to how many distinct entities of that
// type were reached by a traversal.
type CountsByType map[string]int64

// GetLineageCounts runs the same traversal as GetLineage, ignoring req's
// Offset and Count, and returns only the total number of relationships
// discovered. It is not a separate algorithm: the BFS, including path
// construction, runs in full, and no per-hop breakdown is returned.
func (s *Service) GetLineageCounts(ctx context.Context, req Request) (int, error) {
	unpaged := req
	unpaged.Offset = 0
	unpaged.Count = 0
	result, err := s.controller.GetLineage(ctx, unpaged)
	if err != nil {
		return 0, err
	}
	return result.Total, nil
}

// ImpactSummary runs the full traversal and groups the resulting entities
// by entity type, answering "how many of each kind of thing sits
// {upstream,downstream} of this entity" without requiring the caller to
// page through every relationship themselves.
func (s *Service) ImpactSummary(ctx context.Context, root domain.Urn, direction domain.Direction, filters domain.GraphFilters, maxHops int) (CountsByType, error) {
	result, err := s.controller.GetLineage(ctx, Request{
		Root:      root,
		Direction: direction,
		Filters:   filters,
		MaxHops:   maxHops,
		Count:     0,
	})
	if err != nil {
		return nil, err
	}

	counts := make(CountsByType)
	for _, rel := range result.Relationships {
		counts[rel.Entity.EntityType()]++
	}
	return counts, nil
}
