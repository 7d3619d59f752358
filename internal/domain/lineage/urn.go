package lineage

import "strings"

// Urn identifies a single entity in the lineage graph. The platform's urns
// carry their entity type inline ("urn:li:dataset:(...)"), but the spec
// treats entityType as a first-class, case-insensitively-compared field
// rather than something re-derived from the string form on every
// comparison, so it travels alongside the stable string form instead of
// being parsed out of it at match time.
type Urn struct {
	// Value is the opaque, stable string form, e.g.
	// "urn:li:dataset:(urn:li:dataPlatform:hive,fct_users,PROD)".
	Value string
	// Type is the entity type this urn identifies an instance of.
	Type string
}

// NewUrn returns a Urn with the given string form and entity type.
func NewUrn(value, entityType string) Urn {
	return Urn{Value: value, Type: entityType}
}

// String implements fmt.Stringer so Urn prints naturally in logs.
func (u Urn) String() string {
	return u.Value
}

// EntityType returns the urn's entity type.
func (u Urn) EntityType() string {
	return u.Type
}

// SameType reports whether u and typ name the same entity type, ignoring
// case: the registry and edge documents are not guaranteed to agree on
// casing, and the spec requires entityType comparisons for edge matching
// to be case-insensitive.
func (u Urn) SameType(typ string) bool {
	return strings.EqualFold(u.Type, typ)
}

// Valid reports whether u has a non-empty string form and entity type.
func (u Urn) Valid() bool {
	return u.Value != "" && u.Type != ""
}
