package lineage

// LineageRelationship is one edge in the result set returned by getLineage:
// the entity reached, the relation type that reached it, the hop at which
// it was first discovered, every root-to-entity path found for it, and the
// authorship metadata of the edge that discovered it.
type LineageRelationship struct {
	Type         string `json:"type"`
	Entity       Urn    `json:"entity"`
	Degree       int    `json:"degree"`
	Paths        []Path `json:"paths"`
	CreatedOn    *int64 `json:"createdOn,omitempty"`
	CreatedActor string `json:"createdActor,omitempty"`
	UpdatedOn    *int64 `json:"updatedOn,omitempty"`
	UpdatedActor string `json:"updatedActor,omitempty"`
	IsManual     bool   `json:"isManual"`
}

// Result is the full response of one getLineage call.
type Result struct {
	Total         int                     `json:"total"`
	Relationships []*LineageRelationship `json:"relationships"`
	TimedOut      bool                    `json:"-"`
}
