package workitem

import "github.com/stratify-hq/stratify/pkg/serrors"

// Domain errors surfaced by the lifecycle engine. Each carries a stable
// code; transports map codes to status codes. All of them abort the
// enclosing transaction.
var (
	ErrNotFound                = serrors.NewError("WORK_ITEM_NOT_FOUND", "work item not found", "")
	ErrLineageRequired         = serrors.NewError("LINEAGE_REQUIRED", "work item creation denied by lineage policy", "")
	ErrParentNotFound          = serrors.NewError("PARENT_NOT_FOUND", "referenced parent work item not found", "parent_id")
	ErrInvalidHierarchy        = serrors.NewError("INVALID_HIERARCHY", "parent/child type pair is not permitted", "")
	ErrInsufficientPermissions = serrors.NewError("INSUFFICIENT_PERMISSIONS", "policy denied the operation", "")
	ErrCannotDeleteParent      = serrors.NewError("CANNOT_DELETE_PARENT", "work item still has children", "")
	ErrConflict                = serrors.NewError("CONFLICT", "conflicting write detected", "")
	ErrUpstreamUnavailable     = serrors.NewError("UPSTREAM_UNAVAILABLE", "upstream dependency unavailable", "")
)
