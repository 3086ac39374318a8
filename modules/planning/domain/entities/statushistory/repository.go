package statushistory

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Append(ctx context.Context, e Entry) (Entry, error)
	// GetForWorkItem returns the item's transitions ordered by change
	// time, oldest first.
	GetForWorkItem(ctx context.Context, workItemID uuid.UUID) ([]Entry, error)
}
