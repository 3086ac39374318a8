package lineage

import (
	"context"

	"github.com/google/uuid"

	"github.com/stratify-hq/stratify/pkg/serrors"
)

// ErrDuplicateEdge is returned when the store's (parent_id, child_id)
// uniqueness constraint rejects an insert.
var ErrDuplicateEdge = serrors.NewError("CONFLICT", "lineage edge already exists", "")

type Repository interface {
	Create(ctx context.Context, e Edge) (Edge, error)
	// CountChildren counts edges where the item is the parent.
	CountChildren(ctx context.Context, parentID uuid.UUID) (int64, error)
	// ListForItem returns all edges touching the item, parent or child
	// side, annotated with both endpoints' titles and ordered by edge
	// creation time.
	ListForItem(ctx context.Context, itemID uuid.UUID) ([]AnnotatedEdge, error)
}
