package persistence_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratify-hq/stratify/modules/planning/domain/aggregates/workitem"
	"github.com/stratify-hq/stratify/modules/planning/domain/entities/lineage"
	"github.com/stratify-hq/stratify/modules/planning/infrastructure/persistence"
)

func TestLineageCreate_UniqueViolationIsDuplicateEdge(t *testing.T) {
	t.Parallel()

	tx := &recordingTx{execErr: &pgconn.PgError{Code: "23505", ConstraintName: "lineage_edges_parent_child_key"}}
	tenantID := uuid.New()
	edge := lineage.New(tenantID, uuid.New(), uuid.New(), uuid.New())

	_, err := persistence.NewLineageRepository().Create(repoCtx(tx, tenantID), edge)
	require.ErrorIs(t, err, lineage.ErrDuplicateEdge)
	require.Len(t, tx.sql, 1)
	assert.Contains(t, tx.sql[0], "INSERT INTO lineage_edges")
}

func TestLineageCreate_OtherPgErrorsPassThrough(t *testing.T) {
	t.Parallel()

	tx := &recordingTx{execErr: &pgconn.PgError{Code: "23503"}}
	tenantID := uuid.New()
	edge := lineage.New(tenantID, uuid.New(), uuid.New(), uuid.New())

	_, err := persistence.NewLineageRepository().Create(repoCtx(tx, tenantID), edge)
	require.Error(t, err)
	assert.NotErrorIs(t, err, lineage.ErrDuplicateEdge)
}

func TestWorkItemGetByID_NoRowsReadsAsNotFound(t *testing.T) {
	t.Parallel()

	tx := &recordingTx{row: errRow{err: pgx.ErrNoRows}}

	_, err := persistence.NewWorkItemRepository().GetByID(repoCtx(tx, uuid.New()), uuid.New())
	require.ErrorIs(t, err, workitem.ErrNotFound)
}
