package lineage

import "github.com/turtacn/keyip-lineage/pkg/errors"

// Path is an ordered chain of urns from the traversal root to a discovered
// entity. Which end is the root depends on how it was grown: Prepend adds
// a new head (used for Outgoing matches, root at the tail), Append adds a
// new tail (used for Incoming matches, root at the head).
type Path []Urn

// Prepend returns a new Path with child placed at index 0, never mutating
// the receiver's backing array: every branch of the BFS frontier must see
// an independent path, since two children can share a parent path.
func (p Path) Prepend(child Urn) (Path, error) {
	cloned := make(Path, 0, len(p)+1)
	cloned = append(cloned, child)
	n := len(cloned)
	cloned = append(cloned, p...)
	if len(cloned) != n+len(p) {
		return nil, errors.PathCloneFailure("short copy while prepending to lineage path")
	}
	return cloned, nil
}

// Append returns a new Path with child placed at the end, never mutating
// the receiver's backing array.
func (p Path) Append(child Urn) (Path, error) {
	cloned := make(Path, len(p), len(p)+1)
	n := copy(cloned, p)
	if n != len(p) {
		return nil, errors.PathCloneFailure("short copy while appending to lineage path")
	}
	return append(cloned, child), nil
}

// Extend grows p by child in the direction dictated by dir: Outgoing
// prepends (the root stays at the tail), Incoming appends (the root stays
// at the head).
func (p Path) Extend(child Urn, dir EdgeDirection) (Path, error) {
	if dir == Outgoing {
		return p.Prepend(child)
	}
	return p.Append(child)
}

// Clone returns an independent copy of p.
func (p Path) Clone() Path {
	cloned := make(Path, len(p))
	copy(cloned, p)
	return cloned
}
