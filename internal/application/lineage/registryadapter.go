package lineage

import (
	"context"

	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
)

// RegistryAdapter wraps the consumed domain.Registry and collects the
// valid-edge set for every entity type in a set of urns in one call. It
// keeps no cache; the BFS Controller calls it once per hop for the whole
// frontier, so the registry is consulted once per (entityType, direction)
// per hop regardless of how many batches or urns share that entity type.
type RegistryAdapter struct {
	registry domain.Registry
}

// NewRegistryAdapter wraps reg.
func NewRegistryAdapter(reg domain.Registry) *RegistryAdapter {
	return &RegistryAdapter{registry: reg}
}

// ValidEdgesFor returns the ValidEdgeSet covering every distinct entity
// type found among urns, for direction dir.
func (a *RegistryAdapter) ValidEdgesFor(ctx context.Context, urns []domain.Urn, dir domain.Direction) (*domain.ValidEdgeSet, error) {
	types := make([]string, 0, len(urns))
	seen := make(map[string]bool, len(urns))
	for _, u := range urns {
		t := u.EntityType()
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	return domain.NewValidEdgeSet(ctx, a.registry, types, dir)
}
