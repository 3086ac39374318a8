package workitem

import (
	"context"

	"github.com/google/uuid"
)

// Filters narrows tenant-scoped listings. Search matches title and
// description. ParentID restricts to direct children of that item.
type Filters struct {
	Types      []Type
	Statuses   []Status
	Priorities []Priority
	OwnerID    *uuid.UUID
	ParentID   *uuid.UUID
	Search     string
	Limit      int
	Offset     int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (WorkItem, error)
	Create(ctx context.Context, w WorkItem) (WorkItem, error)
	Update(ctx context.Context, w WorkItem) (WorkItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, params *Filters) (int64, error)
}

// LineageRow is a listing row annotated with its ascent depth: 0 for a
// directly matched item, 1 for its parent, and so on.
type LineageRow struct {
	Item  WorkItem
	Depth int
}

// LineageQueryRepository runs the recursive lineage listing: matched
// items plus their ancestor chains up to MaxLineageDepth, one row per
// distinct item at its shallowest depth.
type LineageQueryRepository interface {
	ListWithLineage(ctx context.Context, params *Filters) ([]LineageRow, error)
}

// MaxLineageDepth bounds the recursive ascent of lineage listings.
const MaxLineageDepth = 10
