package lineage

import (
	"context"

	"golang.org/x/sync/errgroup"

	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/monitoring/prometheus"
)

// BatchExecutor partitions a hop's frontier into search-sized batches and
// dispatches them concurrently, the same fan-out-with-shared-deadline
// pattern the platform's hybrid search service uses for its three search
// branches — here every batch runs the same query shape, just over a
// different slice of urns. Run does I/O only: it never touches the shared
// visited set or path store, so per-hop merging of its results stays
// single-threaded in the BFS Controller (spec.md §9's message-passing
// design for avoiding path races).
type BatchExecutor struct {
	indexName string
	client    domain.SearchClient
	builder   *QueryBuilder
	logger    logging.Logger
	reads     prometheus.Counter
	timer     prometheus.HistogramVec
}

// NewBatchExecutor wires a BatchExecutor against the given search backend
// and the num_elasticSearch_reads / esQuery metrics.
func NewBatchExecutor(indexName string, client domain.SearchClient, builder *QueryBuilder, logger logging.Logger, reads prometheus.CounterVec, esQuery prometheus.HistogramVec) *BatchExecutor {
	return &BatchExecutor{
		indexName: indexName,
		client:    client,
		builder:   builder,
		logger:    logger,
		reads:     reads.WithLabelValues(indexName),
		timer:     esQuery,
	}
}

// Run splits frontier into batches of at most domain.BatchSize urns and
// queries each concurrently under ctx, reusing the hop's precomputed
// edges (the BFS Controller consults the registry exactly once per hop,
// covering every entity type in the whole frontier). All batches share a
// single errgroup-derived context: if ctx's deadline arrives, every batch
// still in flight observes the same cancellation and returns promptly, and
// Run reports whatever batches had already completed with timedOut=true.
// A hard SearchBackendError from any batch before the deadline cancels the
// group and aborts the whole call.
func (e *BatchExecutor) Run(ctx context.Context, frontier []domain.Urn, edges *domain.ValidEdgeSet, filters domain.GraphFilters, startMs, endMs *int64) ([]domain.EdgeDocument, bool, error) {
	batches := partition(frontier, domain.BatchSize)
	results := make([][]domain.EdgeDocument, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			docs, err := e.runBatch(gctx, batch, edges, filters, startMs, endMs)
			if err != nil {
				return err
			}
			results[i] = docs
			return nil
		})
	}

	err := g.Wait()
	var all []domain.EdgeDocument
	for _, docs := range results {
		all = append(all, docs...)
	}

	if err != nil {
		if ctx.Err() != nil {
			e.logger.Info("lineage hop hit its deadline with batches still in flight", logging.Err(err))
			return all, true, nil
		}
		return nil, false, err
	}
	return all, false, nil
}

func (e *BatchExecutor) runBatch(ctx context.Context, batch []domain.Urn, edges *domain.ValidEdgeSet, filters domain.GraphFilters, startMs, endMs *int64) ([]domain.EdgeDocument, error) {
	query, err := e.builder.BuildFrontierQuery(batch, edges, filters, startMs, endMs)
	if err != nil {
		return nil, err
	}
	if query.Empty() {
		return nil, nil
	}

	timer := prometheus.NewTimer(e.timer.WithLabelValues(e.indexName))
	defer timer.ObserveDuration()

	docs, err := e.client.SearchEdges(ctx, e.indexName, query)
	if err != nil {
		return nil, err
	}
	e.reads.Add(1)
	return docs, nil
}

func partition(urns []domain.Urn, size int) [][]domain.Urn {
	if size <= 0 {
		size = domain.BatchSize
	}
	var out [][]domain.Urn
	for i := 0; i < len(urns); i += size {
		end := i + size
		if end > len(urns) {
			end = len(urns)
		}
		out = append(out, urns[i:end])
	}
	return out
}
