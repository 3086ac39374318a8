package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/stratify-hq/stratify/modules/planning/domain/entities/statushistory"
	"github.com/stratify-hq/stratify/pkg/composables"
)

const (
	statusHistoryInsertQuery = `
        INSERT INTO status_history (
            id, tenant_id, work_item_id, from_status, to_status, changed_by, changed_at, reason
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	statusHistoryListQuery = `
        SELECT id, tenant_id, work_item_id, from_status, to_status, changed_by, changed_at, reason
        FROM status_history
        WHERE work_item_id = $1 AND tenant_id = $2
        ORDER BY changed_at`
)

type PgStatusHistoryRepository struct{}

func NewStatusHistoryRepository() statushistory.Repository {
	return &PgStatusHistoryRepository{}
}

func (g *PgStatusHistoryRepository) Append(ctx context.Context, e statushistory.Entry) (statushistory.Entry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return statushistory.Entry{}, err
	}

	_, err = tx.Exec(ctx, statusHistoryInsertQuery,
		e.ID(), e.TenantID(), e.WorkItemID(), e.FromStatus(), e.ToStatus(),
		e.ChangedBy(), e.ChangedAt(), e.Reason(),
	)
	if err != nil {
		return statushistory.Entry{}, errors.Wrap(err, "failed to append status history")
	}
	return e, nil
}

func (g *PgStatusHistoryRepository) GetForWorkItem(ctx context.Context, workItemID uuid.UUID) ([]statushistory.Entry, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, statusHistoryListQuery, workItemID, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list status history")
	}
	defer rows.Close()

	var out []statushistory.Entry
	for rows.Next() {
		var (
			id, entryTenantID, itemID, changedBy uuid.UUID
			fromStatus                           *string
			toStatus, reason                     string
			changedAt                            time.Time
		)
		if err := rows.Scan(&id, &entryTenantID, &itemID, &fromStatus, &toStatus, &changedBy, &changedAt, &reason); err != nil {
			return nil, errors.Wrap(err, "failed to scan status history entry")
		}
		out = append(out, statushistory.Hydrate(id, entryTenantID, itemID, fromStatus, toStatus, changedBy, changedAt, reason))
	}
	return out, rows.Err()
}
