package lineage

import (
	"strings"

	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
)

// Candidate is one (parent, child) discovery produced by matching a single
// EdgeDocument against the current frontier, independent of whatever other
// candidates the same document produced.
type Candidate struct {
	Parent    domain.Urn
	Child     domain.Urn
	Direction domain.EdgeDirection
	Doc       domain.EdgeDocument
}

// HitExtractor turns one raw EdgeDocument into zero, one, or two
// Candidates, one per side of the document that matches the frontier and
// survives registry validation. The two sides are evaluated independently
// (spec.md §4.3, §9 open question): a single hit may match via its source
// side, its destination side, or both, when both endpoints happen to be
// in the frontier and both corresponding edge triples are registered.
type HitExtractor struct{}

// NewHitExtractor returns a stateless HitExtractor.
func NewHitExtractor() *HitExtractor {
	return &HitExtractor{}
}

// Extract evaluates doc against frontier (a membership set of this hop's
// urns) and edges (the precomputed valid-edge set for this hop), filtering
// out any side already present in visited.
func (h *HitExtractor) Extract(doc domain.EdgeDocument, frontier map[domain.Urn]bool, edges *domain.ValidEdgeSet, visited *domain.VisitedSet) []Candidate {
	var out []Candidate

	if frontier[doc.Source] && !visited.Contains(doc.Destination) {
		info := domain.EdgeInfo{
			RelationType:   doc.RelationType,
			Direction:      domain.Outgoing,
			OppositeEntity: strings.ToLower(doc.Destination.EntityType()),
		}
		if edges.Contains(doc.Source.EntityType(), info) {
			out = append(out, Candidate{Parent: doc.Source, Child: doc.Destination, Direction: domain.Outgoing, Doc: doc})
		}
	}

	if frontier[doc.Destination] && !visited.Contains(doc.Source) {
		info := domain.EdgeInfo{
			RelationType:   doc.RelationType,
			Direction:      domain.Incoming,
			OppositeEntity: strings.ToLower(doc.Source.EntityType()),
		}
		if edges.Contains(doc.Destination.EntityType(), info) {
			out = append(out, Candidate{Parent: doc.Destination, Child: doc.Source, Direction: domain.Incoming, Doc: doc})
		}
	}

	return out
}
