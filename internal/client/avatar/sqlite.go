package avatar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/toolshare/internal/dbx"
)

// SQLiteCache keeps images in the `avatars` table created by the client
// migrations.
type SQLiteCache struct {
	db dbx.DBTX
}

func NewSQLiteCache(db dbx.DBTX) *SQLiteCache {
	return &SQLiteCache{db: db}
}

func (c *SQLiteCache) Get(ctx context.Context, ref string) (*Entry, error) {
	e := Entry{Ref: ref}
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT content_type, data, fetched_at FROM avatars WHERE ref = ?`, ref,
	).Scan(&e.ContentType, &e.Data, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get avatar %q: %w", ref, err)
	}
	e.FetchedAt = time.Unix(fetchedAt, 0).UTC()
	return &e, nil
}

func (c *SQLiteCache) Put(ctx context.Context, e *Entry) error {
	fetchedAt := e.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO avatars (ref, content_type, data, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			content_type = excluded.content_type,
			data = excluded.data,
			fetched_at = excluded.fetched_at
	`, e.Ref, e.ContentType, e.Data, fetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to put avatar %q: %w", e.Ref, err)
	}
	return nil
}

func (c *SQLiteCache) Invalidate(ctx context.Context, ref string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM avatars WHERE ref = ?`, ref); err != nil {
		return fmt.Errorf("failed to invalidate avatar %q: %w", ref, err)
	}
	return nil
}

func (c *SQLiteCache) Purge(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM avatars`); err != nil {
		return fmt.Errorf("failed to purge avatars: %w", err)
	}
	return nil
}
