package lineage

import "strings"

// GraphFilters narrows a getLineage call to a subset of entity types. A
// zero-value GraphFilters matches every entity type. It restricts both the
// source-side and destination-side entity types of any edge considered,
// per spec.md §3.
type GraphFilters struct {
	AllowedEntityTypes []string
}

// MatchesEntityType reports whether t passes the entity-type filter,
// case-insensitively. An empty filter list matches every type.
func (f GraphFilters) MatchesEntityType(t string) bool {
	if len(f.AllowedEntityTypes) == 0 {
		return true
	}
	for _, want := range f.AllowedEntityTypes {
		if strings.EqualFold(want, t) {
			return true
		}
	}
	return false
}
