package events

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/toolshare/internal/logging"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return rdb
}

func TestRedisBroker_RelaysBetweenProcesses(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)

	a, err := NewRedisBroker(ctx, rdb, "", "tab-a", logging.Nop())
	require.NoError(t, err)
	defer a.Close()
	b, err := NewRedisBroker(ctx, rdb, "", "tab-b", logging.Nop())
	require.NoError(t, err)
	defer b.Close()

	subA, cancelA := a.Subscribe()
	defer cancelA()
	subB, cancelB := b.Subscribe()
	defer cancelB()

	require.NoError(t, a.Publish(ctx, Event{Kind: KindLogout, Source: "tab-a"}))

	got := recv(t, subB)
	require.Equal(t, KindLogout, got.Kind)
	require.Equal(t, "tab-a", got.Source)

	// The publisher sees its own event once, from the local fan-out.
	require.Equal(t, KindLogout, recv(t, subA).Kind)
	requireNoEvent(t, subA)
}

func TestRedisBroker_IgnoresMalformedPayload(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)

	b, err := NewRedisBroker(ctx, rdb, "custom", "tab-b", logging.Nop())
	require.NoError(t, err)
	defer b.Close()
	sub, cancel := b.Subscribe()
	defer cancel()

	require.NoError(t, rdb.Publish(ctx, "custom", "{nope").Err())
	require.NoError(t, rdb.Publish(ctx, "custom", `{"kind":"login","source":"tab-z"}`).Err())

	require.Equal(t, KindLogin, recv(t, sub).Kind)
}

func TestRedisBroker_CloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)

	b, err := NewRedisBroker(ctx, rdb, "", "x", logging.Nop())
	require.NoError(t, err)
	sub, _ := b.Subscribe()

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, ok := <-sub
	require.False(t, ok)
}
