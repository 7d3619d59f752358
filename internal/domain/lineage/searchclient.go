package lineage

import (
	"context"
	"time"
)

// SearchClient is the lineage engine's only external collaborator besides
// Registry: it executes one batched query against the edge index and
// returns the raw documents. Its own transport, retry, and
// cluster-topology concerns are out of scope for the engine — only this
// port is consumed.
type SearchClient interface {
	// SearchEdges runs q against index with from=0, size=q.Size (bounded to
	// MaxElasticResult) and returns the matching edge documents. This is
	// the only method the BFS path calls.
	SearchEdges(ctx context.Context, index string, q FrontierQuery) ([]EdgeDocument, error)

	// SearchEdgesAfter runs q using search_after / point-in-time pagination
	// for streaming scans outside the BFS path (e.g. full-index exports).
	// sortKey and pointInTimeID are empty on the first page; the returned
	// nextSort is passed back in on the following call. Exposed per the
	// external-interfaces contract but not used by GetLineage itself.
	SearchEdgesAfter(ctx context.Context, index string, q FrontierQuery, sortKey []interface{}, pointInTimeID string, keepAlive time.Duration, size int) (docs []EdgeDocument, nextSort []interface{}, err error)
}
