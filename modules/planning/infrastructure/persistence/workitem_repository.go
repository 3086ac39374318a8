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

const (
	workItemColumns = `
        w.id,
        w.tenant_id,
        w.type,
        w.title,
        w.description,
        w.status,
        w.priority,
        w.created_by,
        w.owner_id,
        w.due_at,
        w.started_at,
        w.completed_at,
        w.created_at,
        w.updated_at,
        w.metadata`

	workItemFindQuery = `SELECT` + workItemColumns + ` FROM work_items w`

	workItemCountQuery = `SELECT COUNT(w.id) FROM work_items w`

	workItemInsertQuery = `
        INSERT INTO work_items (
            id, tenant_id, type, title, description, status, priority,
            created_by, owner_id, due_at, started_at, completed_at,
            created_at, updated_at, metadata
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	workItemUpdateQuery = `
        UPDATE work_items SET
            title = $3,
            description = $4,
            status = $5,
            priority = $6,
            owner_id = $7,
            due_at = $8,
            started_at = $9,
            completed_at = $10,
            updated_at = $11,
            metadata = $12
        WHERE id = $1 AND tenant_id = $2`

	workItemDeleteQuery = `DELETE FROM work_items WHERE id = $1 AND tenant_id = $2`
)

type PgWorkItemRepository struct{}

func NewWorkItemRepository() workitem.Repository {
	return &PgWorkItemRepository{}
}

// buildFilters renders the tenant filter plus the optional listing
// filters. joinParent reports whether the caller must join
// lineage_edges pe for the parent filter.
func buildFilters(ctx context.Context, params *workitem.Filters) (where []string, args []any, joinParent bool, err error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, nil, false, errors.Wrap(err, "failed to get tenant from context")
	}

	where = []string{"w.tenant_id = $1"}
	args = []any{tenantID}

	if len(params.Types) > 0 {
		types := make([]string, len(params.Types))
		for i, t := range params.Types {
			types[i] = string(t)
		}
		where = append(where, fmt.Sprintf("w.type = ANY($%d)", len(args)+1))
		args = append(args, types)
	}
	if len(params.Statuses) > 0 {
		statuses := make([]string, len(params.Statuses))
		for i, st := range params.Statuses {
			statuses[i] = string(st)
		}
		where = append(where, fmt.Sprintf("w.status = ANY($%d)", len(args)+1))
		args = append(args, statuses)
	}
	if len(params.Priorities) > 0 {
		priorities := make([]string, len(params.Priorities))
		for i, p := range params.Priorities {
			priorities[i] = string(p)
		}
		where = append(where, fmt.Sprintf("w.priority = ANY($%d)", len(args)+1))
		args = append(args, priorities)
	}
	if params.OwnerID != nil {
		where = append(where, fmt.Sprintf("w.owner_id = $%d", len(args)+1))
		args = append(args, *params.OwnerID)
	}
	if params.ParentID != nil {
		joinParent = true
		where = append(where, fmt.Sprintf("pe.parent_id = $%d", len(args)+1))
		args = append(args, *params.ParentID)
	}
	if params.Search != "" {
		index := len(args) + 1
		where = append(where, fmt.Sprintf("(w.title ILIKE $%d OR w.description ILIKE $%d)", index, index))
		args = append(args, "%"+repo.EscapeLike(params.Search)+"%")
	}

	return where, args, joinParent, nil
}

func (g *PgWorkItemRepository) GetByID(ctx context.Context, id uuid.UUID) (workitem.WorkItem, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return workitem.WorkItem{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return workitem.WorkItem{}, err
	}

	row := tx.QueryRow(ctx, workItemFindQuery+" WHERE w.id = $1 AND w.tenant_id = $2", id, tenantID)
	item, err := scanWorkItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workitem.WorkItem{}, workitem.ErrNotFound
		}
		return workitem.WorkItem{}, errors.Wrap(err, fmt.Sprintf("failed to query work item %s", id))
	}
	return item, nil
}

func (g *PgWorkItemRepository) Create(ctx context.Context, w workitem.WorkItem) (workitem.WorkItem, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return workitem.WorkItem{}, err
	}

	metadata, err := marshalMetadata(w.Metadata())
	if err != nil {
		return workitem.WorkItem{}, err
	}

	_, err = tx.Exec(ctx, workItemInsertQuery,
		w.ID(), w.TenantID(), string(w.Type()), w.Title(), w.Description(),
		string(w.Status()), string(w.Priority()), w.CreatedBy(), w.OwnerID(),
		w.DueAt(), w.StartedAt(), w.CompletedAt(), w.CreatedAt(), w.UpdatedAt(), metadata,
	)
	if err != nil {
		return workitem.WorkItem{}, errors.Wrap(err, "failed to insert work item")
	}
	return w, nil
}

func (g *PgWorkItemRepository) Update(ctx context.Context, w workitem.WorkItem) (workitem.WorkItem, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return workitem.WorkItem{}, err
	}

	metadata, err := marshalMetadata(w.Metadata())
	if err != nil {
		return workitem.WorkItem{}, err
	}

	tag, err := tx.Exec(ctx, workItemUpdateQuery,
		w.ID(), w.TenantID(), w.Title(), w.Description(), string(w.Status()),
		string(w.Priority()), w.OwnerID(), w.DueAt(), w.StartedAt(), w.CompletedAt(),
		w.UpdatedAt(), metadata,
	)
	if err != nil {
		return workitem.WorkItem{}, errors.Wrap(err, "failed to update work item")
	}
	if tag.RowsAffected() == 0 {
		return workitem.WorkItem{}, workitem.ErrNotFound
	}
	return w, nil
}

func (g *PgWorkItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, workItemDeleteQuery, id, tenantID)
	if err != nil {
		return errors.Wrap(err, "failed to delete work item")
	}
	if tag.RowsAffected() == 0 {
		return workitem.ErrNotFound
	}
	return nil
}

func (g *PgWorkItemRepository) Count(ctx context.Context, params *workitem.Filters) (int64, error) {
	if params == nil {
		params = &workitem.Filters{}
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	where, args, joinParent, err := buildFilters(ctx, params)
	if err != nil {
		return 0, err
	}

	baseQuery := workItemCountQuery
	if joinParent {
		baseQuery += " JOIN lineage_edges pe ON pe.child_id = w.id"
	}

	var count int64
	if err := tx.QueryRow(ctx, repo.Join(baseQuery, repo.JoinWhere(where...)), args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count work items")
	}
	return count, nil
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return []byte("{}"), nil
	}
	out, err := json.Marshal(metadata)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode metadata")
	}
	return out, nil
}

func scanWorkItem(row pgx.Row) (workitem.WorkItem, error) {
	var (
		id, tenantID, createdBy, ownerID uuid.UUID
		itemType, title, description     string
		status, priority                 string
		dueAt, startedAt, completedAt    *time.Time
		createdAt, updatedAt             time.Time
		metadataRaw                      []byte
	)
	err := row.Scan(
		&id, &tenantID, &itemType, &title, &description, &status, &priority,
		&createdBy, &ownerID, &dueAt, &startedAt, &completedAt,
		&createdAt, &updatedAt, &metadataRaw,
	)
	if err != nil {
		return workitem.WorkItem{}, err
	}

	var metadata map[string]any
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &metadata); err != nil {
			return workitem.WorkItem{}, errors.Wrap(err, "failed to decode metadata")
		}
	}

	return workitem.Hydrate(
		id, tenantID, workitem.Type(itemType), title, description,
		workitem.Status(status), workitem.Priority(priority),
		createdBy, ownerID, dueAt, startedAt, completedAt,
		createdAt, updatedAt, metadata,
	), nil
}
