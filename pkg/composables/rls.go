package composables

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stratify-hq/stratify/pkg/configuration"
)

// ApplyTenantRLS pins the transaction to the context tenant by setting
// the app.current_tenant GUC, which the row-level-security policies
// read. A no-op unless RLS_ENFORCE is "enforce".
func ApplyTenantRLS(ctx context.Context, tx pgx.Tx) error {
	if configuration.Use().RLSEnforce != "enforce" {
		return nil
	}
	tenantID, err := UseTenantID(ctx)
	if err != nil {
		return fmt.Errorf("rls requires tenant in context: %w", err)
	}
	_, err = tx.Exec(ctx, "SELECT set_config('app.current_tenant', $1, true)", tenantID.String())
	if err != nil {
		return fmt.Errorf("failed to set rls tenant context: %w", err)
	}
	return nil
}
