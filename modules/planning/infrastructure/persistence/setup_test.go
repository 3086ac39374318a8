package persistence_test

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stratify-hq/stratify/pkg/composables"
)

// errQueryShortCircuit stops repositories right after they hand their
// SQL to the recording transaction, so shape tests never need rows.
var errQueryShortCircuit = errors.New("recorded")

// recordingTx satisfies pgx.Tx, captures every statement it receives,
// and answers with configurable results instead of touching a database.
type recordingTx struct {
	sql  []string
	args [][]any

	execErr error
	row     pgx.Row
}

func (r *recordingTx) record(sql string, args []any) {
	r.sql = append(r.sql, sql)
	r.args = append(r.args, args)
}

func (r *recordingTx) Begin(context.Context) (pgx.Tx, error) { return r, nil }
func (r *recordingTx) Commit(context.Context) error          { return nil }
func (r *recordingTx) Rollback(context.Context) error        { return nil }
func (r *recordingTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (r *recordingTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (r *recordingTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (r *recordingTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (r *recordingTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.record(sql, args)
	return pgconn.CommandTag{}, r.execErr
}

func (r *recordingTx) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	r.record(sql, args)
	return nil, errQueryShortCircuit
}

func (r *recordingTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	r.record(sql, args)
	return r.row
}

func (r *recordingTx) Conn() *pgx.Conn { return nil }

// errRow is a pgx.Row whose Scan fails with a fixed error.
type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func repoCtx(tx *recordingTx, tenantID uuid.UUID) context.Context {
	ctx := composables.WithTenantID(context.Background(), tenantID)
	return composables.WithTx(ctx, tx)
}
