package lineage

import (
	"context"
	"time"

	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/keyip-lineage/pkg/errors"
)

// Request is the input to one getLineage call.
type Request struct {
	Root      domain.Urn
	Direction domain.Direction
	Filters   domain.GraphFilters
	MaxHops   int
	Offset    int
	Count     int
	StartMs   *int64
	EndMs     *int64
}

// BFSController runs the level-order expansion described by spec.md §4.6:
// serial across hops, parallel across batches within a hop, bounded by a
// single wall-clock deadline for the whole call. Between hops it owns the
// only write access to the visited set and path store, which is what lets
// the Batch Executor run its I/O fully concurrently without locking them.
type BFSController struct {
	executor   *BatchExecutor
	extractor  *HitExtractor
	registry   *RegistryAdapter
	logger     logging.Logger
	timeout    time.Duration
	depthGauge prometheus.GaugeVec
}

// NewBFSController wires a controller from its collaborators. timeout
// defaults to domain.DefaultTimeoutSecs when zero. depthGauge may be nil;
// when set it records how many hops a call actually reached, labeled by
// direction, mirroring the Graph Layer's own depth gauges.
func NewBFSController(executor *BatchExecutor, extractor *HitExtractor, registry *RegistryAdapter, logger logging.Logger, timeout time.Duration, depthGauge prometheus.GaugeVec) *BFSController {
	if timeout <= 0 {
		timeout = domain.DefaultTimeoutSecs * time.Second
	}
	return &BFSController{executor: executor, extractor: extractor, registry: registry, logger: logger, timeout: timeout, depthGauge: depthGauge}
}

// GetLineage runs the full BFS traversal for req and returns the
// paginated, deduplicated relationship set.
func (c *BFSController) GetLineage(ctx context.Context, req Request) (*domain.Result, error) {
	if !req.Root.Valid() {
		return nil, errors.InvalidFilterCondition("root urn is malformed")
	}
	if req.StartMs != nil && req.EndMs != nil && *req.StartMs > *req.EndMs {
		return nil, errors.InvalidFilterCondition("startMs must not be after endMs")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	visited := domain.NewVisitedSet(req.Root)
	tracker := NewPathTracker(req.Root)

	var all []*domain.LineageRelationship
	timedOut := false

	reachedHop := 0
	frontier := []domain.Urn{req.Root}
	for hop := 1; hop <= req.MaxHops && len(frontier) > 0; hop++ {
		if ctx.Err() != nil {
			timedOut = true
			c.logger.Info("lineage traversal hit its deadline", logging.Int("hop", hop), logging.Int("discovered", visited.Size()))
			break
		}
		reachedHop = hop

		edges, err := c.registry.ValidEdgesFor(ctx, frontier, req.Direction)
		if err != nil {
			return nil, err
		}

		docs, hopTimedOut, err := c.executor.Run(ctx, frontier, edges, req.Filters, req.StartMs, req.EndMs)
		if err != nil {
			return nil, err
		}

		next, rels := c.mergeHop(docs, frontier, hop, visited, tracker, edges)
		all = append(all, rels...)
		frontier = next

		if hopTimedOut {
			timedOut = true
			break
		}
	}

	if c.depthGauge != nil {
		c.depthGauge.WithLabelValues(string(req.Direction)).Set(float64(reachedHop))
	}

	total := len(all)
	start := req.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	// req.Count == 0 means unbounded: return every relationship from start
	// to total rather than an empty page. GetLineageCounts and ImpactSummary
	// both issue a GetLineage call with Count left at zero so they see the
	// full relationship set to count or summarize.
	end := total
	if req.Count > 0 && start+req.Count < total {
		end = start + req.Count
	}

	return &domain.Result{
		Total:         total,
		Relationships: all[start:end],
		TimedOut:      timedOut,
	}, nil
}

// mergeHop folds every EdgeDocument collected for this hop into the shared
// visited set and path store, serially, and builds the next frontier and
// the hop's emitted relationships. Every candidate is matched against
// visited as it stood at the start of this hop (no document processed
// this hop can mark another document's child as already visited), so two
// parents discovering the same new child in the same hop both contribute
// their paths to its single emitted relationship — the multi-path-diamond
// case of spec.md §8 S3.
func (c *BFSController) mergeHop(docs []domain.EdgeDocument, frontier []domain.Urn, hop int, visited *domain.VisitedSet, tracker *PathTracker, edges *domain.ValidEdgeSet) ([]domain.Urn, []*domain.LineageRelationship) {
	frontierSet := make(map[domain.Urn]bool, len(frontier))
	for _, u := range frontier {
		frontierSet[u] = true
	}

	type childState struct {
		rel   *domain.LineageRelationship
		paths []domain.Path
	}
	order := make([]domain.Urn, 0)
	byChild := make(map[domain.Urn]*childState)

	for _, doc := range docs {
		for _, cand := range c.extractor.Extract(doc, frontierSet, edges, visited) {
			if visited.Contains(cand.Child) {
				continue
			}
			st, ok := byChild[cand.Child]
			if !ok {
				st = &childState{rel: &domain.LineageRelationship{
					Type:         cand.Doc.RelationType,
					Entity:       cand.Child,
					Degree:       hop,
					CreatedOn:    cand.Doc.CreatedOn,
					CreatedActor: cand.Doc.CreatedActor,
					UpdatedOn:    cand.Doc.UpdatedOn,
					UpdatedActor: cand.Doc.UpdatedActor,
					IsManual:     cand.Doc.IsManual(),
				}}
				byChild[cand.Child] = st
				order = append(order, cand.Child)
			}

			newPaths, err := tracker.Extend(cand.Parent, cand.Child, cand.Direction)
			if err != nil {
				c.logger.Warn("dropping lineage candidate after path-clone failure", logging.Err(err))
				continue
			}
			st.paths = append(st.paths, newPaths...)
		}
	}

	var next []domain.Urn
	var rels []*domain.LineageRelationship
	for _, child := range order {
		st := byChild[child]
		if len(st.paths) == 0 {
			continue
		}
		st.rel.Paths = st.paths
		visited.MarkIfAbsent(child)
		next = append(next, child)
		rels = append(rels, st.rel)
	}
	return next, rels
}
