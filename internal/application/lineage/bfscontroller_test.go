package lineage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/turtacn/keyip-lineage/internal/application/lineage"
	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/monitoring/logging"
)

var edgeSchema = map[string][]domain.EdgeInfo{
	"Dataset": {
		{RelationType: "PRODUCED_BY", Direction: domain.Outgoing, OppositeEntity: "pipeline"},
		{RelationType: "TRANSFORMS_TO", Direction: domain.Outgoing, OppositeEntity: "dataset"},
		{RelationType: "CONSUMES", Direction: domain.Incoming, OppositeEntity: "dashboard"},
	},
	"Pipeline": {
		{RelationType: "READS_FROM", Direction: domain.Outgoing, OppositeEntity: "dataset"},
		{RelationType: "PRODUCED_BY", Direction: domain.Incoming, OppositeEntity: "dataset"},
	},
	"Dashboard": {
		{RelationType: "CONSUMES", Direction: domain.Outgoing, OppositeEntity: "dataset"},
	},
}

func newTestController(client domain.SearchClient, depthGauge *fakeGaugeVec) *app.BFSController {
	reg := newFakeRegistry(edgeSchema)
	executor := app.NewBatchExecutor("graph_edge_v2", client, app.NewQueryBuilder(), logging.NewNopLogger(), newFakeCounterVec(), newFakeHistogramVec())
	if depthGauge == nil {
		return app.NewBFSController(executor, app.NewHitExtractor(), app.NewRegistryAdapter(reg), logging.NewNopLogger(), 2*time.Second, nil)
	}
	return app.NewBFSController(executor, app.NewHitExtractor(), app.NewRegistryAdapter(reg), logging.NewNopLogger(), 2*time.Second, depthGauge)
}

func TestBFSController_GetLineage_SingleHopUpstream(t *testing.T) {
	dataset := domain.NewUrn("urn:dataset:1", "Dataset")
	pipeline := domain.NewUrn("urn:pipeline:1", "Pipeline")

	client := &fakeSearchClient{docs: []domain.EdgeDocument{
		{Source: dataset, Destination: pipeline, RelationType: "PRODUCED_BY"},
	}}
	ctrl := newTestController(client, nil)

	result, err := ctrl.GetLineage(context.Background(), app.Request{
		Root: dataset, Direction: domain.Upstream, MaxHops: 1, Count: 10,
	})
	require.NoError(t, err)
	require.Len(t, result.Relationships, 1)
	assert.Equal(t, pipeline, result.Relationships[0].Entity)
	assert.Equal(t, 1, result.Relationships[0].Degree)
	assert.False(t, result.TimedOut)
}

func TestBFSController_GetLineage_RejectsInvalidRoot(t *testing.T) {
	ctrl := newTestController(&fakeSearchClient{}, nil)
	_, err := ctrl.GetLineage(context.Background(), app.Request{Root: domain.Urn{}, MaxHops: 1})
	assert.Error(t, err)
}

func TestBFSController_GetLineage_RejectsInvertedTimeRange(t *testing.T) {
	ctrl := newTestController(&fakeSearchClient{}, nil)
	start := int64(2000)
	end := int64(1000)
	_, err := ctrl.GetLineage(context.Background(), app.Request{
		Root: domain.NewUrn("urn:x", "Dataset"), MaxHops: 1, StartMs: &start, EndMs: &end,
	})
	assert.Error(t, err)
}

func TestBFSController_GetLineage_CycleDoesNotReexpandRoot(t *testing.T) {
	a := domain.NewUrn("urn:dataset:a", "Dataset")
	b := domain.NewUrn("urn:dataset:b", "Dataset")

	// hop 1: a -> b. hop 2: b -> a (cycle back to root, must not reappear).
	client := &scriptedSearchClient{responses: [][]domain.EdgeDocument{
		{{Source: a, Destination: b, RelationType: "TRANSFORMS_TO"}},
		{{Source: b, Destination: a, RelationType: "TRANSFORMS_TO"}},
	}}
	ctrl := newTestController(client, nil)

	result, err := ctrl.GetLineage(context.Background(), app.Request{
		Root: a, Direction: domain.Downstream, MaxHops: 3, Count: 10,
	})
	require.NoError(t, err)
	require.Len(t, result.Relationships, 1, "the root must never be re-emitted once a cycle leads back to it")
	assert.Equal(t, b, result.Relationships[0].Entity)
}

func TestBFSController_GetLineage_MultiPathDiamondMergesIntoOneRelationship(t *testing.T) {
	root := domain.NewUrn("urn:dataset:root", "Dataset")
	a := domain.NewUrn("urn:pipeline:a", "Pipeline")
	b := domain.NewUrn("urn:pipeline:b", "Pipeline")
	shared := domain.NewUrn("urn:dataset:shared", "Dataset")

	// hop 1: root -> a (PRODUCED_BY), root -> b (PRODUCED_BY).
	// hop 2: a -> shared and b -> shared both discovered in the same hop.
	client := &scriptedSearchClient{responses: [][]domain.EdgeDocument{
		{
			{Source: root, Destination: a, RelationType: "PRODUCED_BY"},
			{Source: root, Destination: b, RelationType: "PRODUCED_BY"},
		},
		{
			{Source: a, Destination: shared, RelationType: "READS_FROM"},
			{Source: b, Destination: shared, RelationType: "READS_FROM"},
		},
	}}
	ctrl := newTestController(client, nil)

	result, err := ctrl.GetLineage(context.Background(), app.Request{
		Root: root, Direction: domain.Upstream, MaxHops: 3, Count: 100,
	})
	require.NoError(t, err)

	var sharedRel *domain.LineageRelationship
	for _, rel := range result.Relationships {
		if rel.Entity == shared {
			sharedRel = rel
		}
	}
	require.NotNil(t, sharedRel, "shared must be discovered exactly once")
	assert.Len(t, sharedRel.Paths, 2, "both parents discovering shared in the same hop must both contribute a path")
}

func TestBFSController_GetLineage_ManualEdgeExemptFromTimeFilter(t *testing.T) {
	root := domain.NewUrn("urn:dataset:root", "Dataset")
	manualChild := domain.NewUrn("urn:pipeline:manual", "Pipeline")

	client := &fakeSearchClient{docs: []domain.EdgeDocument{
		{Source: root, Destination: manualChild, RelationType: "PRODUCED_BY", Properties: map[string]string{"source": domain.ManualSentinel}},
	}}
	ctrl := newTestController(client, nil)

	start := int64(9999999999999) // far future window, would exclude any real timestamped edge
	result, err := ctrl.GetLineage(context.Background(), app.Request{
		Root: root, Direction: domain.Upstream, MaxHops: 1, Count: 10, StartMs: &start,
	})
	require.NoError(t, err)
	require.Len(t, result.Relationships, 1)
	assert.True(t, result.Relationships[0].IsManual)
}

func TestBFSController_GetLineage_DeadlineSetsTimedOut(t *testing.T) {
	root := domain.NewUrn("urn:dataset:root", "Dataset")
	client := &fakeSearchClient{delay: 100 * time.Millisecond}
	reg := newFakeRegistry(edgeSchema)
	executor := app.NewBatchExecutor("graph_edge_v2", client, app.NewQueryBuilder(), logging.NewNopLogger(), newFakeCounterVec(), newFakeHistogramVec())
	ctrl := app.NewBFSController(executor, app.NewHitExtractor(), app.NewRegistryAdapter(reg), logging.NewNopLogger(), 10*time.Millisecond, nil)

	result, err := ctrl.GetLineage(context.Background(), app.Request{Root: root, Direction: domain.Upstream, MaxHops: 5, Count: 10})
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
}

func TestBFSController_GetLineage_PaginatesRelationships(t *testing.T) {
	root := domain.NewUrn("urn:dataset:root", "Dataset")
	p1 := domain.NewUrn("urn:pipeline:1", "Pipeline")
	p2 := domain.NewUrn("urn:pipeline:2", "Pipeline")

	client := &fakeSearchClient{docs: []domain.EdgeDocument{
		{Source: root, Destination: p1, RelationType: "PRODUCED_BY"},
		{Source: root, Destination: p2, RelationType: "PRODUCED_BY"},
	}}
	ctrl := newTestController(client, nil)

	result, err := ctrl.GetLineage(context.Background(), app.Request{
		Root: root, Direction: domain.Upstream, MaxHops: 1, Offset: 1, Count: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Len(t, result.Relationships, 1)
}

func TestBFSController_GetLineage_RecordsDepthGauge(t *testing.T) {
	root := domain.NewUrn("urn:dataset:root", "Dataset")
	a := domain.NewUrn("urn:pipeline:a", "Pipeline")
	b := domain.NewUrn("urn:dataset:b", "Dataset")

	client := &scriptedSearchClient{responses: [][]domain.EdgeDocument{
		{{Source: root, Destination: a, RelationType: "PRODUCED_BY"}},
		{{Source: a, Destination: b, RelationType: "READS_FROM"}},
	}}
	gauge := newFakeGaugeVec()
	ctrl := newTestController(client, gauge)

	_, err := ctrl.GetLineage(context.Background(), app.Request{
		Root: root, Direction: domain.Upstream, MaxHops: 2, Count: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(2), gauge.valueFor(string(domain.Upstream)))
}
