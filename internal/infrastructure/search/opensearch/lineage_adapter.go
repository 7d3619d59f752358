package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/turtacn/keyip-lineage/internal/domain/lineage"
	"github.com/turtacn/keyip-lineage/pkg/errors"
)

// edgeDocSource mirrors the _source shape of one document in an edge
// index: a directed relationship between two urns plus authorship
// metadata used to detect manually-authored edges and honor the
// time-range exemption of spec.md §4.2. sourceType/destinationType carry
// each endpoint's entity type alongside its urn value, since the index
// does not otherwise encode it.
type edgeDocSource struct {
	Source          string            `json:"source"`
	SourceType      string            `json:"sourceType"`
	Destination     string            `json:"destination"`
	DestinationType string            `json:"destinationType"`
	RelationType    string            `json:"relationType"`
	CreatedOn       *int64            `json:"createdOn,omitempty"`
	CreatedActor    string            `json:"createdActor,omitempty"`
	UpdatedOn       *int64            `json:"updatedOn,omitempty"`
	UpdatedActor    string            `json:"updatedActor,omitempty"`
	Properties      map[string]string `json:"properties,omitempty"`
}

// LineageSearchAdapter implements lineage.SearchClient on top of the
// platform's hand-built Searcher, the same way every other domain in this
// codebase reaches OpenSearch: by composing a Query/Filter tree and
// decoding SearchHit._source into a typed struct. The field names here
// (source/sourceType/destination/destinationType/relationType/
// createdOn/createdActor/updatedOn/updatedActor/properties) are the
// edge-index schema this adapter assumes; the index mapping itself is
// owned by the ingestion pipeline, out of scope here.
type LineageSearchAdapter struct {
	searcher *Searcher
}

// NewLineageSearchAdapter wraps an existing Searcher for lineage-edge queries.
func NewLineageSearchAdapter(searcher *Searcher) *LineageSearchAdapter {
	return &LineageSearchAdapter{searcher: searcher}
}

// SearchEdges executes one batched boolean query against index and decodes
// the resulting hits into domain edge documents.
func (a *LineageSearchAdapter) SearchEdges(ctx context.Context, index string, q lineage.FrontierQuery) ([]lineage.EdgeDocument, error) {
	query, err := buildFrontierQuery(q)
	if err != nil {
		return nil, err
	}
	if query == nil {
		return nil, nil
	}

	size := q.Size
	if size <= 0 || size > lineage.MaxElasticResult {
		size = lineage.BatchSize
	}

	req := SearchRequest{
		IndexName:  index,
		Query:      query,
		Pagination: &Pagination{Offset: 0, Limit: size},
	}

	result, err := a.searcher.Search(ctx, req)
	if err != nil {
		return nil, errors.SearchBackendError(err, "lineage edge search failed")
	}
	return decodeHits(result.Hits)
}

// SearchEdgesAfter runs q with search_after pagination for streaming scans
// outside the BFS path. The Searcher's generic DSL builder has no notion
// of search_after or point-in-time, so this method assembles the request
// body directly, reusing buildFrontierQuery for the query clause and
// a.searcher's underlying client for transport.
func (a *LineageSearchAdapter) SearchEdgesAfter(ctx context.Context, index string, q lineage.FrontierQuery, sortKey []interface{}, pointInTimeID string, keepAlive time.Duration, size int) ([]lineage.EdgeDocument, []interface{}, error) {
	query, err := buildFrontierQuery(q)
	if err != nil {
		return nil, nil, err
	}
	if query == nil {
		return nil, nil, nil
	}
	if size <= 0 || size > lineage.MaxElasticResult {
		size = lineage.BatchSize
	}

	dsl := map[string]interface{}{
		"size": size,
		"sort": []map[string]interface{}{
			{"_doc": map[string]interface{}{"order": "asc"}},
		},
		"query": a.searcher.buildQuery(query),
	}
	if len(sortKey) > 0 {
		dsl["search_after"] = sortKey
	}
	if pointInTimeID != "" {
		pit := map[string]interface{}{"id": pointInTimeID}
		if keepAlive > 0 {
			pit["keep_alive"] = keepAlive.String()
		}
		dsl["pit"] = pit
		delete(dsl, "sort")
		dsl["sort"] = []map[string]interface{}{
			{"_shard_doc": map[string]interface{}{"order": "asc"}},
		}
	}

	body, err := json.Marshal(dsl)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeInternal, "failed to marshal search_after query")
	}

	osReq := opensearchapi.SearchRequest{Body: bytes.NewReader(body)}
	if pointInTimeID == "" {
		osReq.Index = []string{index}
	}

	resp, err := osReq.Do(ctx, a.searcher.client.GetClient())
	if err != nil {
		return nil, nil, errors.SearchBackendError(err, "lineage edge search_after request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, nil, errors.SearchBackendError(fmt.Errorf("status %d", resp.StatusCode), "opensearch returned an error response")
	}

	var raw struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
				Sort   []interface{}   `json:"sort"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeInternal, "failed to decode search_after response")
	}

	docs := make([]lineage.EdgeDocument, 0, len(raw.Hits.Hits))
	var nextSort []interface{}
	for _, h := range raw.Hits.Hits {
		var src edgeDocSource
		if err := json.Unmarshal(h.Source, &src); err != nil {
			return nil, nil, errors.Wrap(err, errors.CodeInternal, "failed to decode edge document")
		}
		docs = append(docs, toEdgeDocument(src))
		nextSort = h.Sort
	}
	return docs, nextSort, nil
}

// buildFrontierQuery translates a FrontierQuery into the Searcher's Query
// tree: a top-level bool whose must clause ORs the Outgoing and Incoming
// side-branches (spec.md §9's independent dual-direction matching) and
// ANDs in the time-range exemption clauses when a bound is set. Returns a
// nil Query (no error) when q has no branches at all.
func buildFrontierQuery(q lineage.FrontierQuery) (*Query, error) {
	if q.Empty() {
		return nil, nil
	}

	var sideClauses []Query
	if q.Outgoing != nil {
		sideClauses = append(sideClauses, sideQuery("source", "destinationType", *q.Outgoing))
	}
	if q.Incoming != nil {
		sideClauses = append(sideClauses, sideQuery("destination", "sourceType", *q.Incoming))
	}

	must := []Query{{
		QueryType:          "bool",
		Should:             sideClauses,
		MinimumShouldMatch: "1",
	}}

	if q.TimeRange != nil {
		if q.TimeRange.StartMs != nil {
			must = append(must, startTimeClause(*q.TimeRange.StartMs))
		}
		if q.TimeRange.EndMs != nil {
			must = append(must, endTimeClause(*q.TimeRange.EndMs))
		}
	}

	return &Query{QueryType: "bool", Must: must}, nil
}

func sideQuery(anchorField, oppositeTypeField string, side lineage.EdgeSideQuery) Query {
	values := make([]interface{}, len(side.Urns))
	for i, u := range side.Urns {
		values[i] = u.String()
	}

	clauses := []Query{{QueryType: "terms", Field: anchorField, Value: values}}
	if len(side.RelationTypes) > 0 {
		relValues := make([]interface{}, len(side.RelationTypes))
		for i, r := range side.RelationTypes {
			relValues[i] = r
		}
		clauses = append(clauses, Query{QueryType: "terms", Field: "relationType", Value: relValues})
	}
	if len(side.AllowedEntityTypes) > 0 {
		typeValues := make([]interface{}, len(side.AllowedEntityTypes))
		for i, t := range side.AllowedEntityTypes {
			typeValues[i] = t
		}
		clauses = append(clauses, Query{QueryType: "terms", Field: oppositeTypeField, Value: typeValues})
	}
	return Query{QueryType: "bool", Must: clauses}
}

// startTimeClause implements startTimeFilter: updatedOn>=start OR
// createdOn>=start OR both timestamps absent OR manually authored.
func startTimeClause(startMs int64) Query {
	return Query{
		QueryType: "bool",
		Should: []Query{
			{QueryType: "range", Field: "updatedOn", Value: map[string]interface{}{"gte": startMs}},
			{QueryType: "range", Field: "createdOn", Value: map[string]interface{}{"gte": startMs}},
			bothTimestampsAbsent(),
			{QueryType: "term", Field: "properties.source", Value: lineage.ManualSentinel},
		},
		MinimumShouldMatch: "1",
	}
}

// endTimeClause implements endTimeFilter: createdOn<=end OR both
// timestamps absent OR manually authored.
func endTimeClause(endMs int64) Query {
	return Query{
		QueryType: "bool",
		Should: []Query{
			{QueryType: "range", Field: "createdOn", Value: map[string]interface{}{"lte": endMs}},
			bothTimestampsAbsent(),
			{QueryType: "term", Field: "properties.source", Value: lineage.ManualSentinel},
		},
		MinimumShouldMatch: "1",
	}
}

func bothTimestampsAbsent() Query {
	return Query{
		QueryType: "bool",
		MustNot: []Query{
			{QueryType: "exists", Field: "updatedOn"},
			{QueryType: "exists", Field: "createdOn"},
		},
	}
}

func decodeHits(hits []SearchHit) ([]lineage.EdgeDocument, error) {
	docs := make([]lineage.EdgeDocument, 0, len(hits))
	for _, hit := range hits {
		var src edgeDocSource
		if err := json.Unmarshal(hit.Source, &src); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to decode edge document")
		}
		docs = append(docs, toEdgeDocument(src))
	}
	return docs, nil
}

func toEdgeDocument(src edgeDocSource) lineage.EdgeDocument {
	return lineage.EdgeDocument{
		Source:       lineage.NewUrn(src.Source, src.SourceType),
		Destination:  lineage.NewUrn(src.Destination, src.DestinationType),
		RelationType: src.RelationType,
		CreatedOn:    src.CreatedOn,
		CreatedActor: src.CreatedActor,
		UpdatedOn:    src.UpdatedOn,
		UpdatedActor: src.UpdatedActor,
		Properties:   src.Properties,
	}
}
