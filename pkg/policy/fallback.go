package policy

import (
	"fmt"

	"github.com/google/uuid"
)

// Minimum role rank required per action when the remote evaluator is
// unreachable.
var fallbackRequiredRank = map[Action]int{
	ActionRead:          roleRank["contributor"],
	ActionCreate:        roleRank["manager"],
	ActionUpdate:        roleRank["manager"],
	ActionManageLineage: roleRank["manager"],
	ActionDelete:        roleRank["director"],
}

// FallbackAuthorize is the pure local authorization used when the
// remote policy service cannot be reached. It combines a tenant-match
// check, an action-to-role table, and an owner override (the resource
// owner may read and update regardless of role). It performs no I/O and
// is safe for concurrent use.
func FallbackAuthorize(p Principal, action Action, resource Resource) Decision {
	if resource.TenantID != p.TenantID {
		return Decision{
			Allowed:  false,
			PolicyID: PolicyIDFallback,
			Reason:   fmt.Sprintf("tenant mismatch: principal belongs to %s", p.TenantID),
		}
	}

	if (action == ActionRead || action == ActionUpdate) &&
		resource.OwnerID != uuid.Nil && resource.OwnerID == p.ID {
		return Decision{
			Allowed:  true,
			PolicyID: PolicyIDFallback,
			Reason:   "owner override",
		}
	}

	required, ok := fallbackRequiredRank[action]
	if !ok {
		return Decision{
			Allowed:  false,
			PolicyID: PolicyIDFallback,
			Reason:   fmt.Sprintf("unknown action %q", action),
		}
	}

	if maxRank(p) >= required {
		return Decision{
			Allowed:  true,
			PolicyID: PolicyIDFallback,
			Reason:   fmt.Sprintf("role grants %s", action),
		}
	}
	return Decision{
		Allowed:  false,
		PolicyID: PolicyIDFallback,
		Reason:   fmt.Sprintf("no role grants %s", action),
	}
}
