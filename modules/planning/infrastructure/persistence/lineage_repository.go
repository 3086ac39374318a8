package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stratify-hq/stratify/modules/planning/domain/entities/lineage"
	"github.com/stratify-hq/stratify/pkg/composables"
)

const (
	lineageEdgeInsertQuery = `
        INSERT INTO lineage_edges (
            id, tenant_id, parent_id, child_id, relation_type, created_by, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	lineageEdgeCountChildrenQuery = `
        SELECT COUNT(*) FROM lineage_edges WHERE parent_id = $1 AND tenant_id = $2`

	lineageEdgeListForItemQuery = `
        SELECT
            e.id,
            e.tenant_id,
            e.parent_id,
            e.child_id,
            e.relation_type,
            e.created_by,
            e.created_at,
            p.title AS parent_title,
            c.title AS child_title
        FROM lineage_edges e
        JOIN work_items p ON p.id = e.parent_id
        JOIN work_items c ON c.id = e.child_id
        WHERE (e.parent_id = $1 OR e.child_id = $1) AND e.tenant_id = $2
        ORDER BY e.created_at`
)

// uniqueViolation is the SQLSTATE raised when the (parent_id, child_id)
// constraint rejects a duplicate edge.
const uniqueViolation = "23505"

type PgLineageRepository struct{}

func NewLineageRepository() lineage.Repository {
	return &PgLineageRepository{}
}

func (g *PgLineageRepository) Create(ctx context.Context, e lineage.Edge) (lineage.Edge, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return lineage.Edge{}, err
	}

	_, err = tx.Exec(ctx, lineageEdgeInsertQuery,
		e.ID(), e.TenantID(), e.ParentID(), e.ChildID(),
		e.RelationType(), e.CreatedBy(), e.CreatedAt(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return lineage.Edge{}, lineage.ErrDuplicateEdge
		}
		return lineage.Edge{}, errors.Wrap(err, "failed to insert lineage edge")
	}
	return e, nil
}

func (g *PgLineageRepository) CountChildren(ctx context.Context, parentID uuid.UUID) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.QueryRow(ctx, lineageEdgeCountChildrenQuery, parentID, tenantID).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count children")
	}
	return count, nil
}

func (g *PgLineageRepository) ListForItem(ctx context.Context, itemID uuid.UUID) ([]lineage.AnnotatedEdge, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, lineageEdgeListForItemQuery, itemID, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list lineage edges")
	}
	defer rows.Close()

	var out []lineage.AnnotatedEdge
	for rows.Next() {
		var (
			id, edgeTenantID, parentID, childID, createdBy uuid.UUID
			relationType, parentTitle, childTitle          string
			createdAt                                      time.Time
		)
		if err := rows.Scan(
			&id, &edgeTenantID, &parentID, &childID,
			&relationType, &createdBy, &createdAt,
			&parentTitle, &childTitle,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan lineage edge")
		}
		edge := lineage.Hydrate(id, edgeTenantID, parentID, childID, relationType, createdBy, createdAt)
		out = append(out, lineage.Annotate(edge, parentTitle, childTitle))
	}
	return out, rows.Err()
}
