package policy

import (
	"strings"

	"github.com/google/uuid"
)

// Principal is the authenticated identity attached to every request by
// the authentication layer. The core treats it as opaque, trusted input
// and never reads it from ambient state.
type Principal struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	TenantID uuid.UUID `json:"tenant_id"`
	Roles    []string  `json:"roles"`
}

// HasRole reports whether the principal carries the role,
// case-insensitively.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// Action is a normalized operation type evaluated against policies.
type Action string

const (
	ActionCreate        Action = "create"
	ActionRead          Action = "read"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionManageLineage Action = "manage_lineage"
)

// Resource describes the object of an authorization decision.
type Resource struct {
	ID       uuid.UUID `json:"id,omitempty"`
	Type     string    `json:"type"`
	TenantID uuid.UUID `json:"tenant_id"`
	OwnerID  uuid.UUID `json:"owner_id,omitempty"`
}

// Decision is the outcome of an evaluation. Denial is a modeled
// outcome, not an error: callers inspect Allowed and PolicyID.
type Decision struct {
	Allowed  bool           `json:"allowed"`
	PolicyID string         `json:"policy_id"`
	Reason   string         `json:"reason"`
	Context  map[string]any `json:"context,omitempty"`
}

// Distinguished PolicyID values for degraded decisions, so auditors can
// tell authoritative remote decisions from local ones.
const (
	PolicyIDFallback  = "fallback_authorization"
	PolicyIDErrorDeny = "error_deny"
)

// Role names understood by the local fallback. Any role not listed
// ranks below Contributor.
const (
	RoleContributor = "Contributor"
	RoleManager     = "Manager"
	RoleDirector    = "Director"
	RoleVP          = "VP"
	RoleCEO         = "CEO"
	RolePresident   = "President"
)

var roleRank = map[string]int{
	strings.ToLower(RoleContributor): 1,
	strings.ToLower(RoleManager):     2,
	strings.ToLower(RoleDirector):    3,
	strings.ToLower(RoleVP):          4,
	strings.ToLower(RoleCEO):         5,
	strings.ToLower(RolePresident):   5,
}

// maxRank returns the highest rank among the principal's roles.
func maxRank(p Principal) int {
	best := 0
	for _, r := range p.Roles {
		if rank, ok := roleRank[strings.ToLower(r)]; ok && rank > best {
			best = rank
		}
	}
	return best
}

// IsExecutive reports whether the principal holds an executive role.
// Executives may create parentless work items of any type.
func IsExecutive(p Principal) bool {
	return p.HasRole(RoleCEO) || p.HasRole(RolePresident)
}
