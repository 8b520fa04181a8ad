package avatar

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/toolshare/internal/client/models"
	"github.com/dmitrijs2005/toolshare/internal/client/store"
	"github.com/stretchr/testify/require"
)

func caches(t *testing.T) map[string]Cache {
	t.Helper()
	db, err := store.OpenDatabase(context.Background(), filepath.Join(t.TempDir(), "avatars.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Cache{
		"memory": NewMemoryCache(),
		"sqlite": NewSQLiteCache(db),
	}
}

func TestCache_PutGetInvalidatePurge(t *testing.T) {
	for name, c := range caches(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := c.Get(ctx, "/uploads/a.png")
			require.NoError(t, err)
			require.Nil(t, got)

			at := time.Unix(1700000000, 0).UTC()
			require.NoError(t, c.Put(ctx, &Entry{Ref: "/uploads/a.png", ContentType: "image/png", Data: []byte{1, 2}, FetchedAt: at}))
			require.NoError(t, c.Put(ctx, &Entry{Ref: "/uploads/b.png", ContentType: "image/png", Data: []byte{3}}))

			got, err = c.Get(ctx, "/uploads/a.png")
			require.NoError(t, err)
			require.Equal(t, "image/png", got.ContentType)
			require.Equal(t, []byte{1, 2}, got.Data)
			require.True(t, at.Equal(got.FetchedAt))

			require.NoError(t, c.Invalidate(ctx, "/uploads/a.png"))
			got, err = c.Get(ctx, "/uploads/a.png")
			require.NoError(t, err)
			require.Nil(t, got)

			got, err = c.Get(ctx, "/uploads/b.png")
			require.NoError(t, err)
			require.NotNil(t, got)

			require.NoError(t, c.Purge(ctx))
			got, err = c.Get(ctx, "/uploads/b.png")
			require.NoError(t, err)
			require.Nil(t, got)
		})
	}
}

func TestCache_PutOverwrites(t *testing.T) {
	for name, c := range caches(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, c.Put(ctx, &Entry{Ref: "r", ContentType: "image/png", Data: []byte{1}}))
			require.NoError(t, c.Put(ctx, &Entry{Ref: "r", ContentType: "image/jpeg", Data: []byte{2}}))

			got, err := c.Get(ctx, "r")
			require.NoError(t, err)
			require.Equal(t, "image/jpeg", got.ContentType)
			require.Equal(t, []byte{2}, got.Data)
		})
	}
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	data := []byte{1, 2, 3}
	require.NoError(t, c.Put(ctx, &Entry{Ref: "r", Data: data}))
	data[0] = 9

	got, err := c.Get(ctx, "r")
	require.NoError(t, err)
	require.Equal(t, byte(1), got.Data[0])
	got.Data[1] = 9

	again, _ := c.Get(ctx, "r")
	require.Equal(t, byte(2), again.Data[1])
}

func TestDataURL(t *testing.T) {
	require.Equal(t, "data:image/png;base64,AQI=", DataURL("image/png", []byte{1, 2}))
	require.True(t, strings.HasPrefix(DataURL("", []byte{1}), "data:application/octet-stream;base64,"))
}

func TestPlaceholder(t *testing.T) {
	url := Placeholder(&models.User{ID: "u1", FirstName: "Jane", LastName: "Doe"})
	const prefix = "data:image/svg+xml;base64,"
	require.True(t, strings.HasPrefix(url, prefix))

	svg, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	require.NoError(t, err)
	require.Contains(t, string(svg), ">JD</text>")

	require.Equal(t, url, Placeholder(&models.User{ID: "u1", FirstName: "Jane", LastName: "Doe"}))

	svg, _ = base64.StdEncoding.DecodeString(strings.TrimPrefix(Placeholder(nil), prefix))
	require.Contains(t, string(svg), ">?</text>")
}
