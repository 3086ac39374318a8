package workitem

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeObjective  Type = "objective"
	TypeStrategy   Type = "strategy"
	TypeInitiative Type = "initiative"
	TypeTask       Type = "task"
	TypeSubtask    Type = "subtask"
)

func (t Type) Valid() bool {
	switch t {
	case TypeObjective, TypeStrategy, TypeInitiative, TypeTask, TypeSubtask:
		return true
	}
	return false
}

type Status string

const (
	StatusDraft      Status = "draft"
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusReview     Status = "review"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPlanned, StatusInProgress, StatusBlocked,
		StatusReview, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// WorkItem is a tenant-scoped node in the planning hierarchy. Every
// item belongs to exactly one tenant; all reads and writes are
// tenant-filtered at the persistence layer.
type WorkItem struct {
	id          uuid.UUID
	tenantID    uuid.UUID
	itemType    Type
	title       string
	description string
	status      Status
	priority    Priority
	createdBy   uuid.UUID
	ownerID     uuid.UUID
	dueAt       *time.Time
	startedAt   *time.Time
	completedAt *time.Time
	createdAt   time.Time
	updatedAt   time.Time
	metadata    map[string]any
}

type Option func(*WorkItem)

func WithDescription(description string) Option {
	return func(w *WorkItem) { w.description = description }
}

func WithPriority(priority Priority) Option {
	return func(w *WorkItem) { w.priority = priority }
}

func WithOwner(ownerID uuid.UUID) Option {
	return func(w *WorkItem) { w.ownerID = ownerID }
}

func WithDueAt(dueAt time.Time) Option {
	return func(w *WorkItem) { w.dueAt = &dueAt }
}

func WithMetadata(metadata map[string]any) Option {
	return func(w *WorkItem) { w.metadata = metadata }
}

// New creates a work item in draft status. The owner defaults to the
// creator unless overridden with WithOwner.
func New(tenantID uuid.UUID, itemType Type, title string, createdBy uuid.UUID, opts ...Option) WorkItem {
	now := time.Now().UTC()
	w := WorkItem{
		id:        uuid.New(),
		tenantID:  tenantID,
		itemType:  itemType,
		title:     strings.TrimSpace(title),
		status:    StatusDraft,
		priority:  PriorityMedium,
		createdBy: createdBy,
		ownerID:   createdBy,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(&w)
	}
	return w
}

// Hydrate rebuilds a work item from persisted state.
func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	itemType Type,
	title string,
	description string,
	status Status,
	priority Priority,
	createdBy uuid.UUID,
	ownerID uuid.UUID,
	dueAt *time.Time,
	startedAt *time.Time,
	completedAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
	metadata map[string]any,
) WorkItem {
	return WorkItem{
		id:          id,
		tenantID:    tenantID,
		itemType:    itemType,
		title:       title,
		description: description,
		status:      status,
		priority:    priority,
		createdBy:   createdBy,
		ownerID:     ownerID,
		dueAt:       dueAt,
		startedAt:   startedAt,
		completedAt: completedAt,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
		metadata:    metadata,
	}
}

func (w WorkItem) ID() uuid.UUID           { return w.id }
func (w WorkItem) TenantID() uuid.UUID     { return w.tenantID }
func (w WorkItem) Type() Type              { return w.itemType }
func (w WorkItem) Title() string           { return w.title }
func (w WorkItem) Description() string     { return w.description }
func (w WorkItem) Status() Status          { return w.status }
func (w WorkItem) Priority() Priority      { return w.priority }
func (w WorkItem) CreatedBy() uuid.UUID    { return w.createdBy }
func (w WorkItem) OwnerID() uuid.UUID      { return w.ownerID }
func (w WorkItem) DueAt() *time.Time       { return w.dueAt }
func (w WorkItem) StartedAt() *time.Time   { return w.startedAt }
func (w WorkItem) CompletedAt() *time.Time { return w.completedAt }
func (w WorkItem) CreatedAt() time.Time    { return w.createdAt }
func (w WorkItem) UpdatedAt() time.Time    { return w.updatedAt }
func (w WorkItem) Metadata() map[string]any {
	return w.metadata
}
func (w WorkItem) IsZero() bool { return w.id == uuid.Nil }

// Changes is a partial update: nil fields are untouched.
type Changes struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	OwnerID     *uuid.UUID
	DueAt       *time.Time
	Metadata    map[string]any
}

func (c Changes) Empty() bool {
	return c.Title == nil && c.Description == nil && c.Status == nil &&
		c.Priority == nil && c.OwnerID == nil && c.DueAt == nil && c.Metadata == nil
}

// Apply returns a copy with the present fields applied and updatedAt
// bumped to now. The change set mirrors the raw request for the updated
// event. Entering in_progress stamps startedAt and entering completed
// stamps completedAt, each exactly once; the stamps are never
// overwritten on repeat transitions.
func (w WorkItem) Apply(c Changes, now time.Time) (WorkItem, map[string]any) {
	changed := map[string]any{}

	if c.Title != nil {
		w.title = strings.TrimSpace(*c.Title)
		changed["title"] = w.title
	}
	if c.Description != nil {
		w.description = *c.Description
		changed["description"] = w.description
	}
	if c.Priority != nil {
		w.priority = *c.Priority
		changed["priority"] = string(w.priority)
	}
	if c.OwnerID != nil {
		w.ownerID = *c.OwnerID
		changed["owner_id"] = w.ownerID.String()
	}
	if c.DueAt != nil {
		due := *c.DueAt
		w.dueAt = &due
		changed["due_at"] = due
	}
	if c.Metadata != nil {
		w.metadata = c.Metadata
		changed["metadata"] = c.Metadata
	}
	if c.Status != nil {
		w.status = *c.Status
		changed["status"] = string(w.status)
		if w.status == StatusInProgress && w.startedAt == nil {
			started := now
			w.startedAt = &started
		}
		if w.status == StatusCompleted && w.completedAt == nil {
			completed := now
			w.completedAt = &completed
		}
	}

	if len(changed) > 0 {
		w.updatedAt = now
	}
	return w, changed
}
