package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/stratify-hq/stratify/modules/planning/domain/aggregates/workitem"
	"github.com/stratify-hq/stratify/modules/planning/services"
	"github.com/stratify-hq/stratify/pkg/composables"
	"github.com/stratify-hq/stratify/pkg/httpapi"
	"github.com/stratify-hq/stratify/pkg/policy"
)

const maxPageSize = 100

type WorkItemController struct {
	items   *services.WorkItemService
	queries *services.LineageQueryService
}

func NewWorkItemController(items *services.WorkItemService, queries *services.LineageQueryService) *WorkItemController {
	return &WorkItemController{items: items, queries: queries}
}

func (c *WorkItemController) Register(r *mux.Router) {
	sub := r.PathPrefix("/planning/work-items").Subrouter()
	sub.HandleFunc("", c.create).Methods(http.MethodPost)
	sub.HandleFunc("", c.list).Methods(http.MethodGet)
	sub.HandleFunc("/{id}", c.get).Methods(http.MethodGet)
	sub.HandleFunc("/{id}", c.update).Methods(http.MethodPatch)
	sub.HandleFunc("/{id}", c.delete).Methods(http.MethodDelete)
	sub.HandleFunc("/{id}/lineage", c.lineage).Methods(http.MethodGet)
	sub.HandleFunc("/{id}/history", c.history).Methods(http.MethodGet)
}

type createBody struct {
	Type        string             `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Priority    *workitem.Priority `json:"priority"`
	OwnerID     *uuid.UUID         `json:"owner_id"`
	DueAt       *time.Time         `json:"due_at"`
	Metadata    map[string]any     `json:"metadata"`
	ParentID    *uuid.UUID         `json:"parent_id"`
}

func (c *WorkItemController) create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var body createBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, &httpapi.ErrorEnvelope{
			Code: "VALIDATION_ERROR", Message: "malformed request body",
		})
		return
	}

	created, err := c.items.Create(r.Context(), principal, services.CreateRequest{
		Type:        workitem.Type(body.Type),
		Title:       body.Title,
		Description: body.Description,
		Priority:    body.Priority,
		OwnerID:     body.OwnerID,
		DueAt:       body.DueAt,
		Metadata:    body.Metadata,
		ParentID:    body.ParentID,
	})
	if err != nil {
		httpapi.WriteDomainError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, created.Snapshot())
}

type updateBody struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Status      *workitem.Status   `json:"status"`
	Priority    *workitem.Priority `json:"priority"`
	OwnerID     *uuid.UUID         `json:"owner_id"`
	DueAt       *time.Time         `json:"due_at"`
	Metadata    map[string]any     `json:"metadata"`
}

func (c *WorkItemController) update(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body updateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, &httpapi.ErrorEnvelope{
			Code: "VALIDATION_ERROR", Message: "malformed request body",
		})
		return
	}

	updated, err := c.items.Update(r.Context(), principal, id, workitem.Changes{
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Priority:    body.Priority,
		OwnerID:     body.OwnerID,
		DueAt:       body.DueAt,
		Metadata:    body.Metadata,
	})
	if err != nil {
		httpapi.WriteDomainError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, updated.Snapshot())
}

func (c *WorkItemController) get(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, found, err := c.items.GetByID(r.Context(), principal, id)
	if err != nil {
		httpapi.WriteDomainError(w, r, err)
		return
	}
	if !found {
		httpapi.WriteDomainError(w, r, workitem.ErrNotFound)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, item.Snapshot())
}

func (c *WorkItemController) delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := c.items.Delete(r.Context(), principal, id); err != nil {
		httpapi.WriteDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type lineageRowDTO struct {
	Item  workitem.Snapshot `json:"item"`
	Depth int               `json:"depth"`
}

func (c *WorkItemController) list(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	filters, err := filtersFromQuery(r)
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, &httpapi.ErrorEnvelope{
			Code: "VALIDATION_ERROR", Message: err.Error(),
		})
		return
	}

	rows, err := c.queries.ListWithLineage(r.Context(), principal, filters)
	if err != nil {
		httpapi.WriteDomainError(w, r, err)
		return
	}

	out := make([]lineageRowDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, lineageRowDTO{Item: row.Item.Snapshot(), Depth: row.Depth})
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

type edgeDTO struct {
	ID           uuid.UUID `json:"id"`
	ParentID     uuid.UUID `json:"parent_id"`
	ChildID      uuid.UUID `json:"child_id"`
	RelationType string    `json:"relation_type"`
	ParentTitle  string    `json:"parent_title"`
	ChildTitle   string    `json:"child_title"`
	CreatedAt    time.Time `json:"created_at"`
}

func (c *WorkItemController) lineage(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	edges, err := c.queries.GetLineageForWorkItem(r.Context(), principal, id)
	if err != nil {
		httpapi.WriteDomainError(w, r, err)
		return
	}

	out := make([]edgeDTO, 0, len(edges))
	for _, e := range edges {
		out = append(out, edgeDTO{
			ID:           e.ID(),
			ParentID:     e.ParentID(),
			ChildID:      e.ChildID(),
			RelationType: e.RelationType(),
			ParentTitle:  e.ParentTitle,
			ChildTitle:   e.ChildTitle,
			CreatedAt:    e.CreatedAt(),
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

type historyEntryDTO struct {
	FromStatus *string   `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedBy  uuid.UUID `json:"changed_by"`
	ChangedAt  time.Time `json:"changed_at"`
	Reason     string    `json:"reason,omitempty"`
}

func (c *WorkItemController) history(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entries, err := c.items.History(r.Context(), principal, id)
	if err != nil {
		httpapi.WriteDomainError(w, r, err)
		return
	}

	out := make([]historyEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntryDTO{
			FromStatus: e.FromStatus(),
			ToStatus:   e.ToStatus(),
			ChangedBy:  e.ChangedBy(),
			ChangedAt:  e.ChangedAt(),
			Reason:     e.Reason(),
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

func requirePrincipal(w http.ResponseWriter, r *http.Request) (policy.Principal, bool) {
	principal, err := composables.UsePrincipal(r.Context())
	if err != nil {
		httpapi.WriteJSON(w, http.StatusUnauthorized, &httpapi.ErrorEnvelope{
			Code: "UNAUTHENTICATED", Message: "authentication required",
		})
		return policy.Principal{}, false
	}
	return principal, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, &httpapi.ErrorEnvelope{
			Code: "VALIDATION_ERROR", Message: "malformed work item id", Field: "id",
		})
		return uuid.Nil, false
	}
	return id, true
}

func filtersFromQuery(r *http.Request) (*workitem.Filters, error) {
	q := r.URL.Query()
	filters := &workitem.Filters{
		Search: q.Get("search"),
		Limit:  25,
	}

	for _, t := range q["type"] {
		filters.Types = append(filters.Types, workitem.Type(t))
	}
	for _, s := range q["status"] {
		filters.Statuses = append(filters.Statuses, workitem.Status(s))
	}
	for _, p := range q["priority"] {
		filters.Priorities = append(filters.Priorities, workitem.Priority(p))
	}

	if raw := q.Get("owner_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		filters.OwnerID = &id
	}
	if raw := q.Get("parent_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		filters.ParentID = &id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		if limit > 0 && limit <= maxPageSize {
			filters.Limit = limit
		}
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		if offset > 0 {
			filters.Offset = offset
		}
	}
	return filters, nil
}
