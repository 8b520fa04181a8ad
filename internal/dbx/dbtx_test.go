package dbx_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/toolshare/internal/client/store"
	"github.com/dmitrijs2005/toolshare/internal/dbx"
	"github.com/stretchr/testify/require"
)

func openSessionDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.OpenDatabase(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sessionValue(t *testing.T, db *sql.DB, key string) (string, bool) {
	t.Helper()
	var v []byte
	err := db.QueryRow(`SELECT value FROM session WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	require.NoError(t, err)
	return string(v), true
}

func setSession(ctx context.Context, tx dbx.DBTX, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO session(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, []byte(value))
	return err
}

func TestWithTx_CommitsSessionRows(t *testing.T) {
	db := openSessionDB(t)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := setSession(ctx, tx, "accessToken", "a1"); err != nil {
			return err
		}
		return setSession(ctx, tx, "refreshToken", "r1")
	})
	require.NoError(t, err)

	v, ok := sessionValue(t, db, "accessToken")
	require.True(t, ok)
	require.Equal(t, "a1", v)
	v, ok = sessionValue(t, db, "refreshToken")
	require.True(t, ok)
	require.Equal(t, "r1", v)
}

func TestWithTx_RollbackKeepsPreviousSession(t *testing.T) {
	db := openSessionDB(t)
	ctx := context.Background()
	require.NoError(t, setSession(ctx, db, "accessToken", "a1"))

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM session`); err != nil {
			return err
		}
		if err := setSession(ctx, tx, "accessToken", "a2"); err != nil {
			return err
		}
		return errors.New("user document rejected")
	})
	require.EqualError(t, err, "user document rejected")

	v, ok := sessionValue(t, db, "accessToken")
	require.True(t, ok, "a failed transaction must not clear the session")
	require.Equal(t, "a1", v)
	_, ok = sessionValue(t, db, "refreshToken")
	require.False(t, ok)
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openSessionDB(t)

	defer func() {
		require.NotNil(t, recover(), "panic must propagate")
		_, ok := sessionValue(t, db, "user")
		require.False(t, ok, "must roll back on panic")
	}()

	_ = dbx.WithTx(context.Background(), db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		require.NoError(t, setSession(ctx, tx, "user", `{"id":"u1"}`))
		panic("kaput")
	})
}

func TestWithTx_ConstraintErrorRollsBack(t *testing.T) {
	db := openSessionDB(t)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := setSession(ctx, tx, "accessToken", "a1"); err != nil {
			return err
		}
		// value is NOT NULL.
		_, err := tx.ExecContext(ctx, `INSERT INTO session(key, value) VALUES('user', NULL)`)
		return err
	})
	require.Error(t, err)

	_, ok := sessionValue(t, db, "accessToken")
	require.False(t, ok)
}

func TestWithTx_BeginError(t *testing.T) {
	db := openSessionDB(t)
	require.NoError(t, db.Close())

	err := dbx.WithTx(context.Background(), db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return nil
	})
	require.Error(t, err, "begin should fail when DB is closed")
}
