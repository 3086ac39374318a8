package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratify-hq/stratify/modules/planning/domain/aggregates/workitem"
	"github.com/stratify-hq/stratify/modules/planning/domain/entities/lineage"
	"github.com/stratify-hq/stratify/modules/planning/services"
)

type fakeLineageQueries struct {
	rows []workitem.LineageRow
	err  error
}

func (f *fakeLineageQueries) ListWithLineage(context.Context, *workitem.Filters) ([]workitem.LineageRow, error) {
	return f.rows, f.err
}

type lineageFixture struct {
	items   *fakeItemRepo
	edges   *fakeEdgeRepo
	queries *fakeLineageQueries
	gateway *fakeGateway
	svc     *services.LineageQueryService
}

func newLineageFixture(t *testing.T) *lineageFixture {
	t.Helper()

	f := &lineageFixture{
		items:   newFakeItemRepo(),
		edges:   &fakeEdgeRepo{},
		queries: &fakeLineageQueries{},
		gateway: &fakeGateway{denyReadIDs: map[uuid.UUID]bool{}},
	}
	f.svc = services.NewLineageQueryService(f.queries, f.items, f.edges, f.gateway)
	return f
}

func TestListWithLineage_FiltersUnreadableRowsAfterPagination(t *testing.T) {
	t.Parallel()

	f := newLineageFixture(t)
	tenantID := uuid.New()
	p := manager(tenantID)

	task := workitem.New(tenantID, workitem.TypeTask, "Task", p.ID)
	initiative := workitem.New(tenantID, workitem.TypeInitiative, "Initiative", p.ID)
	strategy := workitem.New(tenantID, workitem.TypeStrategy, "Strategy", p.ID)
	f.queries.rows = []workitem.LineageRow{
		{Item: task, Depth: 0},
		{Item: initiative, Depth: 1},
		{Item: strategy, Depth: 2},
	}
	f.gateway.denyReadIDs[initiative.ID()] = true

	rows, err := f.svc.ListWithLineage(testCtx(), p, &workitem.Filters{Limit: 3})
	require.NoError(t, err)

	require.Len(t, rows, 2, "the page shrinks when a row fails the read check")
	assert.Equal(t, task.ID(), rows[0].Item.ID())
	assert.Equal(t, 0, rows[0].Depth)
	assert.Equal(t, strategy.ID(), rows[1].Item.ID())
	assert.Equal(t, 2, rows[1].Depth, "remaining rows keep their order and depth")
}

func TestListWithLineage_EmptyResult(t *testing.T) {
	t.Parallel()

	f := newLineageFixture(t)
	rows, err := f.svc.ListWithLineage(testCtx(), manager(uuid.New()), &workitem.Filters{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetLineageForWorkItem_ReturnsAnnotatedEdges(t *testing.T) {
	t.Parallel()

	f := newLineageFixture(t)
	tenantID := uuid.New()
	p := manager(tenantID)

	item, err := f.items.Create(testCtx(), workitem.New(tenantID, workitem.TypeStrategy, "Strategy", p.ID))
	require.NoError(t, err)

	parentEdge := lineage.New(tenantID, uuid.New(), item.ID(), p.ID)
	childEdge := lineage.New(tenantID, item.ID(), uuid.New(), p.ID)
	f.edges.annotated = []lineage.AnnotatedEdge{
		lineage.Annotate(parentEdge, "Objective", "Strategy"),
		lineage.Annotate(childEdge, "Strategy", "Initiative"),
	}

	edges, err := f.svc.GetLineageForWorkItem(testCtx(), p, item.ID())
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "Objective", edges[0].ParentTitle)
	assert.Equal(t, "Initiative", edges[1].ChildTitle)
}

func TestGetLineageForWorkItem_MissingItem(t *testing.T) {
	t.Parallel()

	f := newLineageFixture(t)
	_, err := f.svc.GetLineageForWorkItem(testCtx(), manager(uuid.New()), uuid.New())
	require.ErrorIs(t, err, workitem.ErrNotFound)
}

func TestGetLineageForWorkItem_UnreadableItemReadsAsNotFound(t *testing.T) {
	t.Parallel()

	f := newLineageFixture(t)
	tenantID := uuid.New()
	p := manager(tenantID)

	item, err := f.items.Create(testCtx(), workitem.New(tenantID, workitem.TypeStrategy, "Hidden", uuid.New()))
	require.NoError(t, err)
	f.gateway.denyReadIDs[item.ID()] = true

	_, err = f.svc.GetLineageForWorkItem(testCtx(), p, item.ID())
	require.ErrorIs(t, err, workitem.ErrNotFound)
}
