package lineage

import (
	"context"
	"strings"
)

// Registry answers, for a given entity type and traversal direction, which
// edge types may leave it, which side of the index document that entity
// type sits on for each, and what entity type sits on the other side.
// Registry contents (the actual edge schema) are an external concern; the
// lineage engine only ever consumes this interface.
type Registry interface {
	GetLineageRelationships(ctx context.Context, entityType string, direction Direction) ([]EdgeInfo, error)
}

// validEdgeKey identifies one (entityType, EdgeInfo) tuple in the registry's
// valid-edge set, normalized to lowercase so lookups match the
// case-insensitive comparison the spec requires for entity types.
type validEdgeKey struct {
	entityType     string
	relationType   string
	direction      EdgeDirection
	oppositeEntity string
}

func newValidEdgeKey(entityType string, info EdgeInfo) validEdgeKey {
	return validEdgeKey{
		entityType:     strings.ToLower(entityType),
		relationType:   info.RelationType,
		direction:      info.Direction,
		oppositeEntity: strings.ToLower(info.OppositeEntity),
	}
}

// ValidEdgeSet is the universe of (sourceEntityType, EdgeInfo) tuples the
// registry permits for a batch of entity types in one traversal direction,
// collected once per hop per the Registry Adapter contract.
type ValidEdgeSet struct {
	keys map[validEdgeKey]struct{}
	// byType retains, per entity type, every EdgeInfo returned by the
	// registry — the Query Builder needs the relation-type union per side,
	// not just membership.
	byType map[string][]EdgeInfo
}

// NewValidEdgeSet builds a ValidEdgeSet by calling
// reg.GetLineageRelationships once for every distinct entity type in
// entityTypes, in direction dir.
func NewValidEdgeSet(ctx context.Context, reg Registry, entityTypes []string, dir Direction) (*ValidEdgeSet, error) {
	set := &ValidEdgeSet{
		keys:   make(map[validEdgeKey]struct{}),
		byType: make(map[string][]EdgeInfo),
	}
	seen := make(map[string]bool, len(entityTypes))
	for _, et := range entityTypes {
		norm := strings.ToLower(et)
		if et == "" || seen[norm] {
			continue
		}
		seen[norm] = true

		infos, err := reg.GetLineageRelationships(ctx, et, dir)
		if err != nil {
			return nil, err
		}
		set.byType[et] = infos
		for _, info := range infos {
			set.keys[newValidEdgeKey(et, info)] = struct{}{}
		}
	}
	return set, nil
}

// Contains reports whether (entityType, info) is a registered edge.
func (s *ValidEdgeSet) Contains(entityType string, info EdgeInfo) bool {
	if s == nil {
		return false
	}
	_, ok := s.keys[newValidEdgeKey(entityType, info)]
	return ok
}

// EdgesFor returns every EdgeInfo the registry returned for entityType.
func (s *ValidEdgeSet) EdgesFor(entityType string) []EdgeInfo {
	if s == nil {
		return nil
	}
	return s.byType[entityType]
}

// RelationTypesFor returns the deduplicated relation types among EdgesFor
// whose Direction matches dir — the set the Query Builder should search for
// on that side of the edge document.
func (s *ValidEdgeSet) RelationTypesFor(entityType string, dir EdgeDirection) []string {
	var out []string
	seen := make(map[string]bool)
	for _, info := range s.EdgesFor(entityType) {
		if info.Direction != dir || seen[info.RelationType] {
			continue
		}
		seen[info.RelationType] = true
		out = append(out, info.RelationType)
	}
	return out
}
