package sql

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testTables(db Executor, _ *zap.Logger) error {
	if _, err := db.Exec(`create table testing1 (
		id varchar primary key,
		field int
	)`, nil, nil); err != nil {
		return err
	}
	return nil
}

func testURI(tb testing.TB) string {
	tb.Helper()
	return "file:" + filepath.Join(tb.TempDir(), "state.sql")
}

func TestTransactionIsolation(t *testing.T) {
	db := InMemory(WithMigrations(testTables))

	tx, err := db.Tx(context.Background())
	require.NoError(t, err)

	key := "dsada"
	_, err = tx.Exec("insert into testing1(id, field) values (?1, ?2)", func(stmt *Statement) {
		stmt.BindText(1, key)
		stmt.BindInt64(2, 20)
	}, nil)
	require.NoError(t, err)

	rows, err := tx.Exec("select 1 from testing1 where id = ?1", func(stmt *Statement) {
		stmt.BindText(1, key)
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, rows)

	require.NoError(t, tx.Release())

	rows, err = db.Exec("select 1 from testing1 where id = ?1", func(stmt *Statement) {
		stmt.BindText(1, key)
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 0, rows)
}

func TestWithTx(t *testing.T) {
	db := InMemory(WithMigrations(testTables))
	insert := func(tx *Tx) error {
		_, err := tx.Exec("insert into testing1(id, field) values (?1, ?2)", func(stmt *Statement) {
			stmt.BindText(1, "key")
			stmt.BindInt64(2, 1)
		}, nil)
		return err
	}

	failure := errors.New("rollback")
	err := db.WithTx(context.Background(), func(tx *Tx) error {
		require.NoError(t, insert(tx))
		return failure
	})
	require.ErrorIs(t, err, failure)

	rows, err := db.Exec("select 1 from testing1", nil, nil)
	require.NoError(t, err)
	require.Zero(t, rows)

	require.NoError(t, db.WithTxImmediate(context.Background(), insert))
	rows, err = db.Exec("select 1 from testing1", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, rows)

	err = db.WithTx(context.Background(), insert)
	require.ErrorIs(t, err, ErrObjectExists)
}

func TestDecoderStopsIteration(t *testing.T) {
	db := InMemory(WithMigrations(testTables))
	for _, id := range []string{"a", "b", "c"} {
		_, err := db.Exec("insert into testing1(id, field) values (?1, 0)", func(stmt *Statement) {
			stmt.BindText(1, id)
		}, nil)
		require.NoError(t, err)
	}
	var ids []string
	rows, err := db.Exec("select id from testing1 order by id", nil, func(stmt *Statement) bool {
		ids = append(ids, stmt.ColumnText(0))
		return len(ids) < 2
	})
	require.NoError(t, err)
	require.Equal(t, 2, rows)
	require.Equal(t, []string{"a", "b"}, ids)
	require.Equal(t, 5, db.QueryCount(), "migration, inserts and select")
}

func TestMigrationsAppliedOnce(t *testing.T) {
	uri := testURI(t)
	db, err := Open(uri)
	require.NoError(t, err)

	current, err := version(db)
	require.NoError(t, err)
	latest, err := LatestVersion()
	require.NoError(t, err)
	require.Equal(t, latest, current)
	require.NoError(t, db.Close())

	db, err = Open(uri, WithMigrationsDisabled())
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close(), "close is idempotent")
}

func TestMigrationsDisabled(t *testing.T) {
	_, err := Open(testURI(t), WithMigrationsDisabled())
	require.ErrorIs(t, err, ErrOldSchema)
}

func TestDatabaseTooNew(t *testing.T) {
	uri := testURI(t)
	db, err := Open(uri)
	require.NoError(t, err)
	latest, err := LatestVersion()
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 1000;", nil, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(uri)
	require.ErrorIs(t, err, ErrTooNew)
	require.Less(t, latest, 1000)
}
