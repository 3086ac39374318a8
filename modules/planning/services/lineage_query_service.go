package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/stratify-hq/stratify/modules/planning/domain/aggregates/workitem"
	"github.com/stratify-hq/stratify/modules/planning/domain/entities/lineage"
	"github.com/stratify-hq/stratify/pkg/composables"
	"github.com/stratify-hq/stratify/pkg/policy"
)

// LineageQueryService answers hierarchy-aware read queries: filtered
// listings annotated with ancestor chains, and the edge set of a single
// node.
type LineageQueryService struct {
	queries workitem.LineageQueryRepository
	items   workitem.Repository
	edges   lineage.Repository
	gateway policy.Gateway
}

func NewLineageQueryService(
	queries workitem.LineageQueryRepository,
	items workitem.Repository,
	edges lineage.Repository,
	gateway policy.Gateway,
) *LineageQueryService {
	return &LineageQueryService{
		queries: queries,
		items:   items,
		edges:   edges,
		gateway: gateway,
	}
}

// ListWithLineage returns matching items plus their ancestor chains,
// one row per distinct item at its shallowest depth. Every row passes a
// read-authorization check after pagination, so the returned page may
// be smaller than the requested limit.
func (s *LineageQueryService) ListWithLineage(ctx context.Context, principal policy.Principal, params *workitem.Filters) ([]workitem.LineageRow, error) {
	ctx = composables.WithPrincipal(ctx, principal)

	rows, err := s.queries.ListWithLineage(ctx, params)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	out := make([]workitem.LineageRow, 0, len(rows))
	for _, row := range rows {
		if d := s.gateway.CanRead(ctx, principal, resourceFor(row.Item)); !d.Allowed {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// GetLineageForWorkItem returns every edge touching the item, parent or
// child side, annotated with both endpoints' titles and ordered by edge
// creation time. An unreadable item reads as not found.
func (s *LineageQueryService) GetLineageForWorkItem(ctx context.Context, principal policy.Principal, id uuid.UUID) ([]lineage.AnnotatedEdge, error) {
	ctx = composables.WithPrincipal(ctx, principal)

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, workitem.ErrNotFound) {
			return nil, workitem.ErrNotFound
		}
		return nil, translateStoreErr(err)
	}
	if d := s.gateway.CanRead(ctx, principal, resourceFor(item)); !d.Allowed {
		return nil, workitem.ErrNotFound
	}

	edges, err := s.edges.ListForItem(ctx, id)
	return edges, translateStoreErr(err)
}
