package lineage

import (
	"time"

	"github.com/google/uuid"
)

// EventEdgeCreated is the routing key for lineage edge events.
const EventEdgeCreated = "lineage.edge_created"

type EdgeCreatedEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	ActorID      uuid.UUID `json:"actor_id"`
	OccurredAt   time.Time `json:"occurred_at"`
	EdgeID       uuid.UUID `json:"edge_id"`
	ParentID     uuid.UUID `json:"parent_id"`
	ChildID      uuid.UUID `json:"child_id"`
	RelationType string    `json:"relation_type"`
}

func NewEdgeCreatedEvent(e Edge, actorID uuid.UUID, occurredAt time.Time) EdgeCreatedEvent {
	return EdgeCreatedEvent{
		EventID:      uuid.New(),
		TenantID:     e.TenantID(),
		ActorID:      actorID,
		OccurredAt:   occurredAt,
		EdgeID:       e.ID(),
		ParentID:     e.ParentID(),
		ChildID:      e.ChildID(),
		RelationType: e.RelationType(),
	}
}

func (EdgeCreatedEvent) RoutingKey() string { return EventEdgeCreated }
