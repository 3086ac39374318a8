package composables_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratify-hq/stratify/pkg/composables"
	"github.com/stratify-hq/stratify/pkg/policy"
)

func TestUsePrincipal(t *testing.T) {
	t.Parallel()

	_, err := composables.UsePrincipal(context.Background())
	require.ErrorIs(t, err, composables.ErrNoPrincipal)

	p := policy.Principal{ID: uuid.New(), TenantID: uuid.New()}
	got, err := composables.UsePrincipal(composables.WithPrincipal(context.Background(), p))
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestUseTenantID_FallsBackToPrincipal(t *testing.T) {
	t.Parallel()

	_, err := composables.UseTenantID(context.Background())
	require.ErrorIs(t, err, composables.ErrNoTenantID)

	p := policy.Principal{ID: uuid.New(), TenantID: uuid.New()}
	ctx := composables.WithPrincipal(context.Background(), p)
	got, err := composables.UseTenantID(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.TenantID, got)

	override := uuid.New()
	got, err = composables.UseTenantID(composables.WithTenantID(ctx, override))
	require.NoError(t, err)
	assert.Equal(t, override, got, "explicit tenant wins over the principal's")
}

func TestUseLogger_DefaultsWhenAbsent(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, composables.UseLogger(context.Background()))

	entry := logrus.NewEntry(logrus.New()).WithField("request_id", "abc")
	got := composables.UseLogger(composables.WithLogger(context.Background(), entry))
	assert.Equal(t, entry, got)
}

func TestUsePool_MissingPool(t *testing.T) {
	t.Parallel()

	_, err := composables.UsePool(context.Background())
	require.ErrorIs(t, err, composables.ErrNoPool)
}

func TestInTenantTx_RequiresTxOrPool(t *testing.T) {
	t.Parallel()

	err := composables.InTenantTx(context.Background(), func(context.Context) error { return nil })
	require.ErrorIs(t, err, composables.ErrNoPool)
}
