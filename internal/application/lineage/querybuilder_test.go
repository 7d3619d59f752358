package lineage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/turtacn/keyip-lineage/internal/application/lineage"
	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
)

func mustEdgeSet(t *testing.T, edges map[string][]domain.EdgeInfo, types []string, dir domain.Direction) *domain.ValidEdgeSet {
	t.Helper()
	set, err := domain.NewValidEdgeSet(context.Background(), newFakeRegistry(edges), types, dir)
	require.NoError(t, err)
	return set
}

func TestQueryBuilder_BuildFrontierQuery_BothBranches(t *testing.T) {
	b := app.NewQueryBuilder()
	dataset := domain.NewUrn("urn:dataset:1", "Dataset")

	edges := mustEdgeSet(t, map[string][]domain.EdgeInfo{
		"Dataset": {
			{RelationType: "PRODUCED_BY", Direction: domain.Outgoing, OppositeEntity: "Pipeline"},
			{RelationType: "CONSUMES", Direction: domain.Incoming, OppositeEntity: "Dashboard"},
		},
	}, []string{"Dataset"}, domain.Upstream)

	q, err := b.BuildFrontierQuery([]domain.Urn{dataset}, edges, domain.GraphFilters{}, nil, nil)
	require.NoError(t, err)

	require.NotNil(t, q.Outgoing)
	assert.Equal(t, []string{"PRODUCED_BY"}, q.Outgoing.RelationTypes)
	require.NotNil(t, q.Incoming)
	assert.Equal(t, []string{"CONSUMES"}, q.Incoming.RelationTypes)
	assert.Nil(t, q.TimeRange)
	assert.Equal(t, domain.BatchSize, q.Size)
}

func TestQueryBuilder_BuildFrontierQuery_OmitsEmptyBranch(t *testing.T) {
	b := app.NewQueryBuilder()
	dashboard := domain.NewUrn("urn:dashboard:1", "Dashboard")

	edges := mustEdgeSet(t, map[string][]domain.EdgeInfo{
		"Dashboard": {{RelationType: "CONSUMES", Direction: domain.Outgoing, OppositeEntity: "Dataset"}},
	}, []string{"Dashboard"}, domain.Upstream)

	q, err := b.BuildFrontierQuery([]domain.Urn{dashboard}, edges, domain.GraphFilters{}, nil, nil)
	require.NoError(t, err)

	assert.NotNil(t, q.Outgoing)
	assert.Nil(t, q.Incoming, "a side with no registered relation types must be omitted, not sent empty")
}

func TestQueryBuilder_BuildFrontierQuery_EmptyUrnsRejected(t *testing.T) {
	b := app.NewQueryBuilder()
	_, err := b.BuildFrontierQuery(nil, &domain.ValidEdgeSet{}, domain.GraphFilters{}, nil, nil)
	assert.Error(t, err)
}

func TestQueryBuilder_BuildFrontierQuery_TimeRangePropagated(t *testing.T) {
	b := app.NewQueryBuilder()
	dataset := domain.NewUrn("urn:dataset:1", "Dataset")
	edges := mustEdgeSet(t, map[string][]domain.EdgeInfo{
		"Dataset": {{RelationType: "PRODUCED_BY", Direction: domain.Outgoing, OppositeEntity: "Pipeline"}},
	}, []string{"Dataset"}, domain.Upstream)

	start := int64(1000)
	end := int64(2000)
	q, err := b.BuildFrontierQuery([]domain.Urn{dataset}, edges, domain.GraphFilters{}, &start, &end)
	require.NoError(t, err)

	require.NotNil(t, q.TimeRange)
	assert.Equal(t, &start, q.TimeRange.StartMs)
	assert.Equal(t, &end, q.TimeRange.EndMs)
}

func TestQueryBuilder_BuildStaticEdgeQuery_RejectsNonEqualCondition(t *testing.T) {
	b := app.NewQueryBuilder()
	_, err := b.BuildStaticEdgeQuery(
		[]string{"Dataset"}, &domain.Filter{Or: []domain.ConjunctiveCriterion{{
			Criteria: []domain.Criterion{{Field: "status", Condition: "GREATER_THAN", Value: "1"}},
		}}},
		[]string{"Dashboard"}, nil, []string{"CONSUMES"},
	)
	assert.Error(t, err)
}

func TestQueryBuilder_BuildStaticEdgeQuery_AcceptsEqualCondition(t *testing.T) {
	b := app.NewQueryBuilder()
	q, err := b.BuildStaticEdgeQuery(
		[]string{"Dataset"}, &domain.Filter{Or: []domain.ConjunctiveCriterion{{
			Criteria: []domain.Criterion{{Field: "status", Condition: domain.ConditionEqual, Value: "ACTIVE"}},
		}}},
		[]string{"Dashboard"}, nil, []string{"CONSUMES"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dataset"}, q.SourceTypes)
	assert.Equal(t, []string{"Dashboard"}, q.DestinationTypes)
}
