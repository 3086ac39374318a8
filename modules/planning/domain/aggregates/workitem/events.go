package workitem

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys for work-item domain events.
const (
	EventCreated = "work_item.created"
	EventUpdated = "work_item.updated"
	EventDeleted = "work_item.deleted"
)

// Envelope carries the stable metadata shared by every domain event.
type Envelope struct {
	EventID    uuid.UUID `json:"event_id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	ActorID    uuid.UUID `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEnvelope(tenantID, actorID uuid.UUID, occurredAt time.Time) Envelope {
	return Envelope{
		EventID:    uuid.New(),
		TenantID:   tenantID,
		ActorID:    actorID,
		OccurredAt: occurredAt,
	}
}

// Snapshot is the serializable view of a work item carried in events.
type Snapshot struct {
	ID          uuid.UUID      `json:"id"`
	TenantID    uuid.UUID      `json:"tenant_id"`
	Type        Type           `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      Status         `json:"status"`
	Priority    Priority       `json:"priority"`
	CreatedBy   uuid.UUID      `json:"created_by"`
	OwnerID     uuid.UUID      `json:"owner_id"`
	DueAt       *time.Time     `json:"due_at,omitempty"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (w WorkItem) Snapshot() Snapshot {
	return Snapshot{
		ID:          w.id,
		TenantID:    w.tenantID,
		Type:        w.itemType,
		Title:       w.title,
		Description: w.description,
		Status:      w.status,
		Priority:    w.priority,
		CreatedBy:   w.createdBy,
		OwnerID:     w.ownerID,
		DueAt:       w.dueAt,
		StartedAt:   w.startedAt,
		CompletedAt: w.completedAt,
		CreatedAt:   w.createdAt,
		UpdatedAt:   w.updatedAt,
		Metadata:    w.metadata,
	}
}

type CreatedEvent struct {
	Envelope
	Item     Snapshot   `json:"item"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

func (CreatedEvent) RoutingKey() string { return EventCreated }

type UpdatedEvent struct {
	Envelope
	Before  Snapshot       `json:"before"`
	After   Snapshot       `json:"after"`
	Changes map[string]any `json:"changes"`
}

func (UpdatedEvent) RoutingKey() string { return EventUpdated }

type DeletedEvent struct {
	Envelope
	Item Snapshot `json:"item"`
}

func (DeletedEvent) RoutingKey() string { return EventDeleted }
