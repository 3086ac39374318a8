package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/stratify-hq/stratify/pkg/composables"
	"github.com/stratify-hq/stratify/pkg/httpapi"
	"github.com/stratify-hq/stratify/pkg/policy"
)

// Identity headers set by the authenticating reverse proxy. The core
// trusts them as-is; the proxy strips client-supplied copies.
const (
	principalIDHeader    = "X-Principal-Id"
	principalEmailHeader = "X-Principal-Email"
	tenantIDHeader       = "X-Tenant-Id"
	rolesHeader          = "X-Principal-Roles"
)

// RequirePrincipal builds the principal from the identity headers and
// rejects requests missing them.
func RequirePrincipal() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principalID, err := uuid.Parse(r.Header.Get(principalIDHeader))
			if err != nil {
				httpapi.WriteJSON(w, http.StatusUnauthorized, &httpapi.ErrorEnvelope{
					Code: "UNAUTHENTICATED", Message: "missing or malformed principal id",
				})
				return
			}
			tenantID, err := uuid.Parse(r.Header.Get(tenantIDHeader))
			if err != nil {
				httpapi.WriteJSON(w, http.StatusUnauthorized, &httpapi.ErrorEnvelope{
					Code: "UNAUTHENTICATED", Message: "missing or malformed tenant id",
				})
				return
			}

			var roles []string
			if raw := r.Header.Get(rolesHeader); raw != "" {
				for _, role := range strings.Split(raw, ",") {
					if role = strings.TrimSpace(role); role != "" {
						roles = append(roles, role)
					}
				}
			}

			p := policy.Principal{
				ID:       principalID,
				Email:    r.Header.Get(principalEmailHeader),
				TenantID: tenantID,
				Roles:    roles,
			}
			ctx := composables.WithPrincipal(r.Context(), p)
			ctx = composables.WithTenantID(ctx, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
