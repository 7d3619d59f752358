package lineage

import (
	"context"
	"time"

	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/monitoring/prometheus"
)

// Service is the application-facing entry point for lineage traversal: the
// single object cmd/ and the HTTP handler depend on.
type Service struct {
	controller *BFSController
}

// NewService assembles a Service from its infrastructure collaborators.
func NewService(indexName string, client domain.SearchClient, reg domain.Registry, metrics prometheus.MetricsCollector, logger logging.Logger, timeout time.Duration) *Service {
	reads := metrics.RegisterCounter("num_elasticSearch_reads", "number of searches issued against the lineage edge index", "index")
	esQuery := metrics.RegisterHistogram("es_query_duration_seconds", "lineage edge index query latency", nil, "index")
	depthGauge := metrics.RegisterGauge("graph_lineage_depth_reached", "deepest hop a getLineage call actually traversed", "direction")

	builder := NewQueryBuilder()
	extractor := NewHitExtractor()
	registry := NewRegistryAdapter(reg)
	executor := NewBatchExecutor(indexName, client, builder, logger, reads, esQuery)
	controller := NewBFSController(executor, extractor, registry, logger, timeout, depthGauge)

	return &Service{controller: controller}
}

// GetLineage runs getLineage for req.
func (s *Service) GetLineage(ctx context.Context, req Request) (*domain.Result, error) {
	return s.controller.GetLineage(ctx, req)
}
