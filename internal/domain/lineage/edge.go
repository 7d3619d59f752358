package lineage

// Direction is the traversal direction requested by a caller of getLineage:
// which way along the lineage graph to walk away from the root.
type Direction string

const (
	Upstream   Direction = "UPSTREAM"
	Downstream Direction = "DOWNSTREAM"
)

// EdgeDirection names which side of an EdgeDocument a given entity type
// appears on for one registered edge: Outgoing means the entity is the
// document's source, Incoming means it is the destination. This is
// independent of the traversal Direction above — the registry answers,
// for entityType in a given traversal Direction, which index-side
// orientation(s) of which relation types reach the next hop.
type EdgeDirection string

const (
	Outgoing EdgeDirection = "OUTGOING"
	Incoming EdgeDirection = "INCOMING"
)

// EdgeInfo is a registry-owned descriptor of one edge that may leave an
// entity of a given type: the relation type, which side of the index
// document that entity type sits on, and the entity type on the other
// side. Two EdgeInfos are equal (comparable with ==, since all fields are
// plain strings) only when all three match.
type EdgeInfo struct {
	RelationType   string
	Direction      EdgeDirection
	OppositeEntity string
}

// EdgeDocument is the raw shape decoded from a single search hit in the
// edge index: a directed (source, destination) pair with authorship
// metadata. Source.Type and Destination.Type carry each side's
// entityType. CreatedOn/UpdatedOn are nil when the document carries no
// timestamp for that field.
type EdgeDocument struct {
	Source       Urn
	Destination  Urn
	RelationType string
	CreatedOn    *int64 // epoch millis
	CreatedActor string
	UpdatedOn    *int64 // epoch millis
	UpdatedActor string
	Properties   map[string]string
}

// IsManual reports whether this edge document was authored through the
// manual-lineage UI, identified by properties["source"] == ManualSentinel.
// Manual edges are exempt from the time-range filtering applied to edges
// discovered through automated extraction; they are never exempt from
// entity-type/registry validation, which all emitted edges must satisfy.
func (d *EdgeDocument) IsManual() bool {
	return d.Properties != nil && d.Properties["source"] == ManualSentinel
}
