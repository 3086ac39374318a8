package statushistory

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one row of the append-only status audit trail. FromStatus is
// nil for the initial transition into draft. Entries are never mutated;
// they disappear only when the owning work item is deleted and the
// store cascades.
type Entry struct {
	id         uuid.UUID
	tenantID   uuid.UUID
	workItemID uuid.UUID
	fromStatus *string
	toStatus   string
	changedBy  uuid.UUID
	changedAt  time.Time
	reason     string
}

func New(tenantID, workItemID uuid.UUID, fromStatus *string, toStatus string, changedBy uuid.UUID) Entry {
	return Entry{
		id:         uuid.New(),
		tenantID:   tenantID,
		workItemID: workItemID,
		fromStatus: fromStatus,
		toStatus:   toStatus,
		changedBy:  changedBy,
		changedAt:  time.Now().UTC(),
	}
}

func (e Entry) WithReason(reason string) Entry {
	e.reason = reason
	return e
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	workItemID uuid.UUID,
	fromStatus *string,
	toStatus string,
	changedBy uuid.UUID,
	changedAt time.Time,
	reason string,
) Entry {
	return Entry{
		id:         id,
		tenantID:   tenantID,
		workItemID: workItemID,
		fromStatus: fromStatus,
		toStatus:   toStatus,
		changedBy:  changedBy,
		changedAt:  changedAt,
		reason:     reason,
	}
}

func (e Entry) ID() uuid.UUID         { return e.id }
func (e Entry) TenantID() uuid.UUID   { return e.tenantID }
func (e Entry) WorkItemID() uuid.UUID { return e.workItemID }
func (e Entry) FromStatus() *string   { return e.fromStatus }
func (e Entry) ToStatus() string      { return e.toStatus }
func (e Entry) ChangedBy() uuid.UUID  { return e.changedBy }
func (e Entry) ChangedAt() time.Time  { return e.changedAt }
func (e Entry) Reason() string        { return e.reason }
