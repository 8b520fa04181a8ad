package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/toolshare/internal/client/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// RunMigrations applies the embedded goose migrations. It is idempotent.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// OpenDatabase opens (creating if needed) the SQLite database at dsn and
// migrates it. Transactions take the write lock at BEGIN so concurrent
// Update calls queue on the busy timeout instead of failing with
// SQLITE_BUSY when a read lock cannot be upgraded.
func OpenDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	dsn = withDefaultParams(dsn)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}
	return db, nil
}

func withDefaultParams(dsn string) string {
	for _, p := range []struct{ key, param string }{
		{"busy_timeout", "_pragma=busy_timeout(5000)"},
		{"_txlock", "_txlock=immediate"},
	} {
		if strings.Contains(dsn, p.key) {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.param
	}
	return dsn
}
