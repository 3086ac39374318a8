package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/stratify-hq/stratify/modules/planning/domain/aggregates/workitem"
	"github.com/stratify-hq/stratify/modules/planning/domain/entities/lineage"
	"github.com/stratify-hq/stratify/modules/planning/domain/entities/statushistory"
	"github.com/stratify-hq/stratify/pkg/composables"
	"github.com/stratify-hq/stratify/pkg/policy"
	"github.com/stratify-hq/stratify/pkg/serrors"
)

// ErrValidation rejects requests missing boundary-required fields.
var ErrValidation = serrors.NewError("VALIDATION_ERROR", "invalid request", "")

// CreateRequest carries the fields of a new work item. ParentID is
// required for non-top-level types unless the principal holds an
// executive role.
type CreateRequest struct {
	Type        workitem.Type
	Title       string
	Description string
	Priority    *workitem.Priority
	OwnerID     *uuid.UUID
	DueAt       *time.Time
	Metadata    map[string]any
	ParentID    *uuid.UUID
}

func (r CreateRequest) validate() error {
	if !r.Type.Valid() {
		return ErrValidation.WithMessage(fmt.Sprintf("unknown work item type %q", r.Type))
	}
	if r.Title == "" {
		return &serrors.BaseError{Code: ErrValidation.Code, Message: "title is required", Field: "title"}
	}
	if r.Priority != nil && !r.Priority.Valid() {
		return &serrors.BaseError{Code: ErrValidation.Code, Message: fmt.Sprintf("unknown priority %q", *r.Priority), Field: "priority"}
	}
	return nil
}

// WorkItemService is the work-item lifecycle engine. Every mutating
// operation authorizes through the policy gateway, runs its store
// writes inside one transaction, and emits domain events only after the
// transaction commits.
type WorkItemService struct {
	items   workitem.Repository
	edges   lineage.Repository
	history statushistory.Repository
	gateway policy.Gateway
	emitter *EventEmitter
}

func NewWorkItemService(
	items workitem.Repository,
	edges lineage.Repository,
	history statushistory.Repository,
	gateway policy.Gateway,
	emitter *EventEmitter,
) *WorkItemService {
	return &WorkItemService{
		items:   items,
		edges:   edges,
		history: history,
		gateway: gateway,
		emitter: emitter,
	}
}

// translateStoreErr classifies connection-level store failures as the
// upstream-unavailable kind so callers never see driver internals.
// Query-level failures pass through untouched.
func translateStoreErr(err error) error {
	if err == nil {
		return nil
	}
	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) {
		return workitem.ErrUpstreamUnavailable.WithMessage("store unreachable: " + err.Error())
	}
	return err
}

func resourceFor(w workitem.WorkItem) policy.Resource {
	return policy.Resource{
		ID:       w.ID(),
		Type:     string(w.Type()),
		TenantID: w.TenantID(),
		OwnerID:  w.OwnerID(),
	}
}

// Create inserts a work item in draft status, links it to its parent
// when one is given, and records the initial status transition.
func (s *WorkItemService) Create(ctx context.Context, principal policy.Principal, req CreateRequest) (workitem.WorkItem, error) {
	if err := req.validate(); err != nil {
		return workitem.WorkItem{}, err
	}

	decision := s.gateway.CanCreate(ctx, principal, policy.Resource{
		Type:     string(req.Type),
		TenantID: principal.TenantID,
	}, req.ParentID)
	if !decision.Allowed {
		return workitem.WorkItem{}, workitem.ErrLineageRequired.WithMessage(decision.Reason)
	}
	if req.ParentID == nil && !workitem.IsTopLevel(req.Type) && !policy.IsExecutive(principal) {
		return workitem.WorkItem{}, workitem.ErrLineageRequired.WithMessage(
			fmt.Sprintf("a %s must be created under a parent", req.Type),
		)
	}

	ctx = composables.WithPrincipal(ctx, principal)

	opts := []workitem.Option{}
	if req.Description != "" {
		opts = append(opts, workitem.WithDescription(req.Description))
	}
	if req.Priority != nil {
		opts = append(opts, workitem.WithPriority(*req.Priority))
	}
	if req.OwnerID != nil {
		opts = append(opts, workitem.WithOwner(*req.OwnerID))
	}
	if req.DueAt != nil {
		opts = append(opts, workitem.WithDueAt(*req.DueAt))
	}
	if req.Metadata != nil {
		opts = append(opts, workitem.WithMetadata(req.Metadata))
	}

	var edgeEvent *lineage.EdgeCreatedEvent
	created, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (workitem.WorkItem, error) {
		if req.ParentID != nil {
			parent, err := s.items.GetByID(txCtx, *req.ParentID)
			if err != nil {
				if errors.Is(err, workitem.ErrNotFound) {
					return workitem.WorkItem{}, workitem.ErrParentNotFound
				}
				return workitem.WorkItem{}, err
			}
			if d := s.gateway.CanRead(txCtx, principal, resourceFor(parent)); !d.Allowed {
				return workitem.WorkItem{}, workitem.ErrParentNotFound
			}
			if err := workitem.ValidateHierarchy(parent.Type(), req.Type); err != nil {
				return workitem.WorkItem{}, err
			}
		}

		item, err := s.items.Create(txCtx, workitem.New(principal.TenantID, req.Type, req.Title, principal.ID, opts...))
		if err != nil {
			return workitem.WorkItem{}, err
		}

		if req.ParentID != nil {
			edge, err := s.edges.Create(txCtx, lineage.New(principal.TenantID, *req.ParentID, item.ID(), principal.ID))
			if err != nil {
				if errors.Is(err, lineage.ErrDuplicateEdge) {
					return workitem.WorkItem{}, workitem.ErrConflict.WithMessage("lineage edge already exists for this parent and child")
				}
				return workitem.WorkItem{}, err
			}
			ev := lineage.NewEdgeCreatedEvent(edge, principal.ID, time.Now().UTC())
			edgeEvent = &ev
		}

		initial := string(workitem.StatusDraft)
		if _, err := s.history.Append(txCtx, statushistory.New(principal.TenantID, item.ID(), nil, initial, principal.ID)); err != nil {
			return workitem.WorkItem{}, err
		}
		return item, nil
	})
	if err != nil {
		return workitem.WorkItem{}, translateStoreErr(err)
	}

	if edgeEvent != nil {
		s.emitter.Emit(ctx, *edgeEvent)
	}
	s.emitter.Emit(ctx, workitem.CreatedEvent{
		Envelope: workitem.NewEnvelope(principal.TenantID, principal.ID, time.Now().UTC()),
		Item:     created.Snapshot(),
		ParentID: req.ParentID,
	})

	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"tenant_id":    principal.TenantID,
		"principal_id": principal.ID,
		"work_item_id": created.ID(),
		"type":         created.Type(),
		"policy_id":    decision.PolicyID,
	}).Info("work item created")

	return created, nil
}

// Update applies a partial change set. Absent fields are untouched; an
// empty change set returns the existing record with no write, no
// history row, and no event.
func (s *WorkItemService) Update(ctx context.Context, principal policy.Principal, id uuid.UUID, changes workitem.Changes) (workitem.WorkItem, error) {
	if changes.Status != nil && !changes.Status.Valid() {
		return workitem.WorkItem{}, &serrors.BaseError{Code: ErrValidation.Code, Message: fmt.Sprintf("unknown status %q", *changes.Status), Field: "status"}
	}
	if changes.Priority != nil && !changes.Priority.Valid() {
		return workitem.WorkItem{}, &serrors.BaseError{Code: ErrValidation.Code, Message: fmt.Sprintf("unknown priority %q", *changes.Priority), Field: "priority"}
	}
	if changes.Title != nil && *changes.Title == "" {
		return workitem.WorkItem{}, &serrors.BaseError{Code: ErrValidation.Code, Message: "title cannot be empty", Field: "title"}
	}

	ctx = composables.WithPrincipal(ctx, principal)

	var before, after workitem.WorkItem
	var changedSet map[string]any
	err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		existing, err := s.items.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if d := s.gateway.CanRead(txCtx, principal, resourceFor(existing)); !d.Allowed {
			return workitem.ErrNotFound
		}
		if d := s.gateway.CanUpdate(txCtx, principal, resourceFor(existing)); !d.Allowed {
			return workitem.ErrInsufficientPermissions.WithMessage(d.Reason)
		}

		before = existing
		if changes.Empty() {
			after = existing
			return nil
		}

		updated, changed := existing.Apply(changes, time.Now().UTC())
		if changes.Status != nil {
			from := string(existing.Status())
			entry := statushistory.New(principal.TenantID, existing.ID(), &from, string(*changes.Status), principal.ID)
			if _, err := s.history.Append(txCtx, entry); err != nil {
				return err
			}
		}

		after, err = s.items.Update(txCtx, updated)
		if err != nil {
			return err
		}
		changedSet = changed
		return nil
	})
	if err != nil {
		return workitem.WorkItem{}, translateStoreErr(err)
	}

	if len(changedSet) == 0 {
		return after, nil
	}

	s.emitter.Emit(ctx, workitem.UpdatedEvent{
		Envelope: workitem.NewEnvelope(principal.TenantID, principal.ID, time.Now().UTC()),
		Before:   before.Snapshot(),
		After:    after.Snapshot(),
		Changes:  changedSet,
	})

	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"tenant_id":    principal.TenantID,
		"principal_id": principal.ID,
		"work_item_id": id,
	}).Info("work item updated")

	return after, nil
}

// Delete removes a leaf work item. Items with contains-children are
// rejected; the store cascades history, edges, attachments and comments
// of the removed item.
func (s *WorkItemService) Delete(ctx context.Context, principal policy.Principal, id uuid.UUID) error {
	ctx = composables.WithPrincipal(ctx, principal)

	var removed workitem.WorkItem
	err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		existing, err := s.items.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if d := s.gateway.CanRead(txCtx, principal, resourceFor(existing)); !d.Allowed {
			return workitem.ErrNotFound
		}
		if d := s.gateway.CanDelete(txCtx, principal, resourceFor(existing)); !d.Allowed {
			return workitem.ErrInsufficientPermissions.WithMessage(d.Reason)
		}

		children, err := s.edges.CountChildren(txCtx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return workitem.ErrCannotDeleteParent.WithMessage(
				fmt.Sprintf("work item has %d children; remove or re-parent them first", children),
			)
		}

		removed = existing
		return s.items.Delete(txCtx, id)
	})
	if err != nil {
		return translateStoreErr(err)
	}

	s.emitter.Emit(ctx, workitem.DeletedEvent{
		Envelope: workitem.NewEnvelope(principal.TenantID, principal.ID, time.Now().UTC()),
		Item:     removed.Snapshot(),
	})

	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"tenant_id":    principal.TenantID,
		"principal_id": principal.ID,
		"work_item_id": id,
	}).Info("work item deleted")

	return nil
}

// GetByID returns the item and true when it exists and the principal
// may read it. A missing item and a read denial are indistinguishable
// so existence never leaks across tenants or permissions.
func (s *WorkItemService) GetByID(ctx context.Context, principal policy.Principal, id uuid.UUID) (workitem.WorkItem, bool, error) {
	ctx = composables.WithPrincipal(ctx, principal)

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, workitem.ErrNotFound) {
			return workitem.WorkItem{}, false, nil
		}
		return workitem.WorkItem{}, false, translateStoreErr(err)
	}
	if d := s.gateway.CanRead(ctx, principal, resourceFor(item)); !d.Allowed {
		return workitem.WorkItem{}, false, nil
	}
	return item, true, nil
}

// History returns the item's status transitions, oldest first. An
// unreadable item reads as not found.
func (s *WorkItemService) History(ctx context.Context, principal policy.Principal, id uuid.UUID) ([]statushistory.Entry, error) {
	ctx = composables.WithPrincipal(ctx, principal)

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if d := s.gateway.CanRead(ctx, principal, resourceFor(item)); !d.Allowed {
		return nil, workitem.ErrNotFound
	}
	entries, err := s.history.GetForWorkItem(ctx, id)
	return entries, translateStoreErr(err)
}

// Count returns the tenant-scoped number of items matching the filters.
func (s *WorkItemService) Count(ctx context.Context, principal policy.Principal, params *workitem.Filters) (int64, error) {
	ctx = composables.WithPrincipal(ctx, principal)
	n, err := s.items.Count(ctx, params)
	return n, translateStoreErr(err)
}
