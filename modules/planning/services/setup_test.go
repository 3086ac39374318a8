package services_test

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/stratify-hq/stratify/modules/planning/domain/aggregates/workitem"
	"github.com/stratify-hq/stratify/modules/planning/domain/entities/lineage"
	"github.com/stratify-hq/stratify/modules/planning/domain/entities/statushistory"
	"github.com/stratify-hq/stratify/modules/planning/services"
	"github.com/stratify-hq/stratify/pkg/composables"
	"github.com/stratify-hq/stratify/pkg/eventbus"
	"github.com/stratify-hq/stratify/pkg/policy"
)

// stubTx satisfies pgx.Tx so InTenantTx joins it instead of demanding a
// live pool. The fakes below never issue SQL through it.
type stubTx struct{}

func (stubTx) Begin(context.Context) (pgx.Tx, error) { return stubTx{}, nil }
func (stubTx) Commit(context.Context) error          { return nil }
func (stubTx) Rollback(context.Context) error        { return nil }
func (stubTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (stubTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (stubTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (stubTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (stubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (stubTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (stubTx) Conn() *pgx.Conn                                         { return nil }

func testCtx() context.Context {
	log := logrus.New()
	log.SetOutput(io.Discard)
	ctx := composables.WithLogger(context.Background(), logrus.NewEntry(log))
	return composables.WithTx(ctx, stubTx{})
}

type fakeItemRepo struct {
	mu     sync.Mutex
	items  map[uuid.UUID]workitem.WorkItem
	getErr error
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: map[uuid.UUID]workitem.WorkItem{}}
}

func (f *fakeItemRepo) GetByID(_ context.Context, id uuid.UUID) (workitem.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return workitem.WorkItem{}, f.getErr
	}
	w, ok := f.items[id]
	if !ok {
		return workitem.WorkItem{}, workitem.ErrNotFound
	}
	return w, nil
}

func (f *fakeItemRepo) Create(_ context.Context, w workitem.WorkItem) (workitem.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[w.ID()] = w
	return w, nil
}

func (f *fakeItemRepo) Update(_ context.Context, w workitem.WorkItem) (workitem.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[w.ID()] = w
	return w, nil
}

func (f *fakeItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func (f *fakeItemRepo) Count(context.Context, *workitem.Filters) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return 0, f.getErr
	}
	return int64(len(f.items)), nil
}

type fakeEdgeRepo struct {
	mu        sync.Mutex
	edges     []lineage.Edge
	annotated []lineage.AnnotatedEdge
	createErr error
}

func (f *fakeEdgeRepo) Create(_ context.Context, e lineage.Edge) (lineage.Edge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return lineage.Edge{}, f.createErr
	}
	for _, existing := range f.edges {
		if existing.ParentID() == e.ParentID() && existing.ChildID() == e.ChildID() {
			return lineage.Edge{}, lineage.ErrDuplicateEdge
		}
	}
	f.edges = append(f.edges, e)
	return e, nil
}

func (f *fakeEdgeRepo) CountChildren(_ context.Context, parentID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.edges {
		if e.ParentID() == parentID {
			n++
		}
	}
	return n, nil
}

func (f *fakeEdgeRepo) ListForItem(context.Context, uuid.UUID) ([]lineage.AnnotatedEdge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.annotated, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []statushistory.Entry
}

func (f *fakeHistoryRepo) Append(_ context.Context, e statushistory.Entry) (statushistory.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return e, nil
}

func (f *fakeHistoryRepo) GetForWorkItem(_ context.Context, workItemID uuid.UUID) ([]statushistory.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []statushistory.Entry
	for _, e := range f.entries {
		if e.WorkItemID() == workItemID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeGateway allows everything unless a flag says otherwise.
type fakeGateway struct {
	denyCreate  bool
	denyUpdate  bool
	denyDelete  bool
	denyReadAll bool
	denyReadIDs map[uuid.UUID]bool
	reason      string
}

func (g *fakeGateway) decision(allowed bool) policy.Decision {
	reason := g.reason
	if reason == "" {
		reason = "stubbed"
	}
	return policy.Decision{Allowed: allowed, PolicyID: "test-policy", Reason: reason}
}

func (g *fakeGateway) Evaluate(ctx context.Context, p policy.Principal, action policy.Action, resource policy.Resource, _ map[string]any) policy.Decision {
	switch action {
	case policy.ActionCreate:
		return g.CanCreate(ctx, p, resource, nil)
	case policy.ActionRead:
		return g.CanRead(ctx, p, resource)
	case policy.ActionUpdate:
		return g.CanUpdate(ctx, p, resource)
	case policy.ActionDelete:
		return g.CanDelete(ctx, p, resource)
	default:
		return g.decision(true)
	}
}

func (g *fakeGateway) CanCreate(_ context.Context, _ policy.Principal, _ policy.Resource, _ *uuid.UUID) policy.Decision {
	return g.decision(!g.denyCreate)
}

func (g *fakeGateway) CanRead(_ context.Context, _ policy.Principal, resource policy.Resource) policy.Decision {
	if g.denyReadAll || g.denyReadIDs[resource.ID] {
		return g.decision(false)
	}
	return g.decision(true)
}

func (g *fakeGateway) CanUpdate(_ context.Context, _ policy.Principal, _ policy.Resource) policy.Decision {
	return g.decision(!g.denyUpdate)
}

func (g *fakeGateway) CanDelete(_ context.Context, _ policy.Principal, _ policy.Resource) policy.Decision {
	return g.decision(!g.denyDelete)
}

func (g *fakeGateway) CanManageLineage(context.Context, policy.Principal, policy.Resource) policy.Decision {
	return g.decision(true)
}

type recordingSink struct {
	mu        sync.Mutex
	envelopes []eventbus.Envelope
}

func (s *recordingSink) Publish(_ context.Context, exchange, routingKey string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelopes = append(s.envelopes, eventbus.Envelope{
		Exchange:   exchange,
		RoutingKey: routingKey,
		Payload:    payload,
	})
	return nil
}

func (s *recordingSink) routingKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.envelopes))
	for _, e := range s.envelopes {
		keys = append(keys, e.RoutingKey)
	}
	return keys
}

type fixture struct {
	items   *fakeItemRepo
	edges   *fakeEdgeRepo
	history *fakeHistoryRepo
	gateway *fakeGateway
	sink    *recordingSink
	svc     *services.WorkItemService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		items:   newFakeItemRepo(),
		edges:   &fakeEdgeRepo{},
		history: &fakeHistoryRepo{},
		gateway: &fakeGateway{denyReadIDs: map[uuid.UUID]bool{}},
		sink:    &recordingSink{},
	}
	emitter := services.NewEventEmitter(f.sink, "test.domain", log)
	f.svc = services.NewWorkItemService(f.items, f.edges, f.history, f.gateway, emitter)
	return f
}

func manager(tenantID uuid.UUID) policy.Principal {
	return policy.Principal{
		ID:       uuid.New(),
		Email:    "manager@example.com",
		TenantID: tenantID,
		Roles:    []string{policy.RoleManager},
	}
}

func executive(tenantID uuid.UUID) policy.Principal {
	return policy.Principal{
		ID:       uuid.New(),
		Email:    "ceo@example.com",
		TenantID: tenantID,
		Roles:    []string{policy.RoleCEO},
	}
}
