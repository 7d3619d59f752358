package lineage

import (
	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
)

// PathTracker maintains the root-to-entity path set as new entities are
// discovered, implementing the extendPaths policy of spec.md §4.4: every
// path recorded for parent is cloned and grown by child in the direction
// dictated by dir, or — if parent has no recorded path yet — a single
// two-element path is seeded.
type PathTracker struct {
	store *domain.PathStore
}

// NewPathTracker seeds a PathTracker with the traversal root as a
// single-element path.
func NewPathTracker(root domain.Urn) *PathTracker {
	store := domain.NewPathStore()
	store.Add(root, domain.Path{root})
	return &PathTracker{store: store}
}

// Extend grows every path recorded for parent by child, in direction dir,
// storing each result as a path to child and returning the new paths. If
// parent has no recorded path (should not happen once BFS order is
// respected), a single seed path is created instead: [child, parent] for
// Outgoing, [parent, child] for Incoming.
func (t *PathTracker) Extend(parent, child domain.Urn, dir domain.EdgeDirection) ([]domain.Path, error) {
	parentPaths := t.store.Get(parent)
	if len(parentPaths) == 0 {
		seed, err := domain.Path{parent}.Extend(child, dir)
		if err != nil {
			return nil, err
		}
		t.store.Add(child, seed)
		return []domain.Path{seed}, nil
	}

	extended := make([]domain.Path, 0, len(parentPaths))
	for _, p := range parentPaths {
		np, err := p.Extend(child, dir)
		if err != nil {
			return nil, err
		}
		t.store.Add(child, np)
		extended = append(extended, np)
	}
	return extended, nil
}

// PathsTo returns every recorded path reaching urn.
func (t *PathTracker) PathsTo(urn domain.Urn) []domain.Path {
	return t.store.Get(urn)
}
