package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stratify-hq/stratify/modules/planning/domain/aggregates/workitem"
	"github.com/stratify-hq/stratify/pkg/composables"
	"github.com/stratify-hq/stratify/pkg/repo"
)

type PgLineageQueryRepository struct{}

func NewLineageQueryRepository() workitem.LineageQueryRepository {
	return &PgLineageQueryRepository{}
}

// ListWithLineage matches items against the filters, then ascends each
// item's contains-chain up to the depth cap. An item reachable several
// ways keeps its shallowest depth, so the result holds one row per
// distinct id. Limit and offset apply to the combined result; the
// service filters rows by read authorization afterwards.
func (g *PgLineageQueryRepository) ListWithLineage(ctx context.Context, params *workitem.Filters) ([]workitem.LineageRow, error) {
	if params == nil {
		params = &workitem.Filters{}
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args, joinParent, err := buildFilters(ctx, params)
	if err != nil {
		return nil, err
	}

	base := "SELECT w.id, 0 AS depth FROM work_items w"
	if joinParent {
		base += " JOIN lineage_edges pe ON pe.child_id = w.id"
	}

	query := repo.Join(fmt.Sprintf(`
        WITH RECURSIVE ascent AS (
            %s
            UNION ALL
            SELECT e.parent_id, a.depth + 1
            FROM ascent a
            JOIN lineage_edges e ON e.child_id = a.id AND e.relation_type = 'contains'
            WHERE a.depth < %d
        ), ranked AS (
            SELECT id, MIN(depth) AS depth FROM ascent GROUP BY id
        )
        SELECT`+workItemColumns+`, r.depth
        FROM ranked r
        JOIN work_items w ON w.id = r.id AND w.tenant_id = $1
        ORDER BY r.depth, w.created_at`,
		repo.Join(base, repo.JoinWhere(where...)),
		workitem.MaxLineageDepth,
	), repo.FormatLimitOffset(params.Limit, params.Offset))

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query lineage listing")
	}
	defer rows.Close()

	var out []workitem.LineageRow
	for rows.Next() {
		item, depth, err := scanLineageRow(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan lineage row")
		}
		out = append(out, workitem.LineageRow{Item: item, Depth: depth})
	}
	return out, rows.Err()
}

func scanLineageRow(rows pgx.Rows) (workitem.WorkItem, int, error) {
	var (
		id, tenantID, createdBy, ownerID uuid.UUID
		itemType, title, description     string
		status, priority                 string
		dueAt, startedAt, completedAt    *time.Time
		createdAt, updatedAt             time.Time
		metadataRaw                      []byte
		depth                            int
	)
	err := rows.Scan(
		&id, &tenantID, &itemType, &title, &description, &status, &priority,
		&createdBy, &ownerID, &dueAt, &startedAt, &completedAt,
		&createdAt, &updatedAt, &metadataRaw, &depth,
	)
	if err != nil {
		return workitem.WorkItem{}, 0, err
	}

	var metadata map[string]any
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &metadata); err != nil {
			return workitem.WorkItem{}, 0, errors.Wrap(err, "failed to decode metadata")
		}
	}

	item := workitem.Hydrate(
		id, tenantID, workitem.Type(itemType), title, description,
		workitem.Status(status), workitem.Priority(priority),
		createdBy, ownerID, dueAt, startedAt, completedAt,
		createdAt, updatedAt, metadata,
	)
	return item, depth, nil
}
