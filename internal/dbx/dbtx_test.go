package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTargets(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE target_jobs (id TEXT PRIMARY KEY, role_model_id TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO target_jobs VALUES ('t1', 'rm1'), ('t2', 'rm1'), ('t3', 'rm2')`)
	require.NoError(t, err)
	return db
}

func linked(t *testing.T, db *sql.DB, roleModelID string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM target_jobs WHERE role_model_id = ?`, roleModelID).Scan(&n))
	return n
}

func clearRefs(ctx context.Context, tx DBTX) error {
	_, err := tx.ExecContext(ctx, `UPDATE target_jobs SET role_model_id = NULL WHERE role_model_id = 'rm1'`)
	return err
}

func TestWithTx_Commit(t *testing.T) {
	db := openTargets(t)

	require.NoError(t, WithTx(context.Background(), db, nil, clearRefs))
	assert.Equal(t, 0, linked(t, db, "rm1"))
	assert.Equal(t, 1, linked(t, db, "rm2"))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := openTargets(t)
	boom := errors.New("role model still referenced")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, clearRefs(ctx, tx))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, linked(t, db, "rm1"))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openTargets(t)

	assert.PanicsWithValue(t, "half-written", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, clearRefs(ctx, tx))
			panic("half-written")
		})
	})
	assert.Equal(t, 2, linked(t, db, "rm1"))
}

func TestWithTx_BeginAndCommitErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("no connection"))
	err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return nil })
	require.ErrorContains(t, err, "begin tx: no connection")

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
	err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return nil })
	require.ErrorContains(t, err, "commit tx: serialization failure")

	require.NoError(t, mock.ExpectationsWereMet())
}
