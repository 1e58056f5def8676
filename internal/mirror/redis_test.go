package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/aiomayo/portwatch/internal/inventory"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeSingle, "single": ModeSingle, "sentinel": ModeSentinel, "cluster": ModeCluster} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("ring")
	assert.Error(t, err)
}

func TestNewRequiresAddrs(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.ErrorContains(t, err, "addrs")
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := New(context.Background(), Options{Addrs: []string{"localhost:6379"}, Mode: Mode(9)})
	assert.Error(t, err)
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := New(ctx, Options{Addrs: []string{"127.0.0.1:1"}})
	assert.ErrorContains(t, err, "redis ping")
}

func TestOperationsSurfaceClientErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	m := NewWithClient(client, "", time.Second)
	defer m.Close()

	assert.Equal(t, DefaultKey, m.key)

	ctx := context.Background()
	_, err := m.Load(ctx)
	assert.Error(t, err)
	assert.Error(t, m.Save(ctx, inventory.NewSnapshot(nil, time.Now())))
	assert.Error(t, m.Clear(ctx))
}

func newMirror(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	m, err := New(context.Background(), Options{Addrs: []string{mr.Addr()}, Key: "test:snapshot", TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, mr
}

func TestLoadMissingKey(t *testing.T) {
	m, _ := newMirror(t, time.Minute)

	snap, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m, mr := newMirror(t, time.Minute)
	ctx := context.Background()
	captured := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []inventory.Record{{
		Endpoint: inventory.Endpoint{Protocol: inventory.TCP, LocalAddress: "0.0.0.0", LocalPort: 5432, State: "LISTEN", PID: 812},
		Process:  inventory.ProcessInfo{PID: 812, Name: "postgres", Path: "/usr/lib/postgresql/16/bin/postgres"},
	}}

	require.NoError(t, m.Save(ctx, inventory.NewSnapshot(records, captured)))
	assert.True(t, mr.Exists("test:snapshot"))

	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, records, got.Records)
	assert.True(t, captured.Equal(got.CapturedAt))
}

func TestSaveAppliesTTL(t *testing.T) {
	m, mr := newMirror(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, inventory.NewSnapshot(nil, time.Now())))
	assert.Equal(t, 30*time.Second, mr.TTL("test:snapshot"))

	mr.FastForward(31 * time.Second)
	snap, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestClearDeletesKey(t *testing.T) {
	m, mr := newMirror(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, inventory.NewSnapshot(nil, time.Now())))
	require.NoError(t, m.Clear(ctx))
	assert.False(t, mr.Exists("test:snapshot"))

	// clearing an absent key is not an error
	require.NoError(t, m.Clear(ctx))
}
