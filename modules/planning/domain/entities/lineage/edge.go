package lineage

import (
	"time"

	"github.com/google/uuid"
)

// RelationContains is the default relation type. Edges of this relation
// form a forest: at most one contains-parent per item, no self-edges.
const RelationContains = "contains"

// Edge is a directed parent-to-child relationship between two work
// items in the same tenant. The (parent_id, child_id) pair is unique.
type Edge struct {
	id           uuid.UUID
	tenantID     uuid.UUID
	parentID     uuid.UUID
	childID      uuid.UUID
	relationType string
	createdBy    uuid.UUID
	createdAt    time.Time
}

func New(tenantID, parentID, childID, createdBy uuid.UUID) Edge {
	return Edge{
		id:           uuid.New(),
		tenantID:     tenantID,
		parentID:     parentID,
		childID:      childID,
		relationType: RelationContains,
		createdBy:    createdBy,
		createdAt:    time.Now().UTC(),
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	parentID uuid.UUID,
	childID uuid.UUID,
	relationType string,
	createdBy uuid.UUID,
	createdAt time.Time,
) Edge {
	return Edge{
		id:           id,
		tenantID:     tenantID,
		parentID:     parentID,
		childID:      childID,
		relationType: relationType,
		createdBy:    createdBy,
		createdAt:    createdAt,
	}
}

func (e Edge) ID() uuid.UUID        { return e.id }
func (e Edge) TenantID() uuid.UUID  { return e.tenantID }
func (e Edge) ParentID() uuid.UUID  { return e.parentID }
func (e Edge) ChildID() uuid.UUID   { return e.childID }
func (e Edge) RelationType() string { return e.relationType }
func (e Edge) CreatedBy() uuid.UUID { return e.createdBy }
func (e Edge) CreatedAt() time.Time { return e.createdAt }

// AnnotatedEdge is an edge decorated with both endpoints' titles, used
// to render ancestors and descendants of a single node.
type AnnotatedEdge struct {
	Edge
	ParentTitle string
	ChildTitle  string
}

func Annotate(e Edge, parentTitle, childTitle string) AnnotatedEdge {
	return AnnotatedEdge{Edge: e, ParentTitle: parentTitle, ChildTitle: childTitle}
}
