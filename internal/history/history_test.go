package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisStore(t *testing.T, limit int) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, limit, 24*time.Hour, zap.NewNop()), mr
}

func entry(client string, i int) model.HistoryEntry {
	return model.HistoryEntry{
		ID:        fmt.Sprintf("id-%d", i),
		ClientID:  client,
		Text:      fmt.Sprintf("command %d", i),
		Category:  "time",
		Status:    model.StatusSuccess,
		Message:   "ok",
		Timestamp: float64(i),
	}
}

func TestRedisStoreKeepsMostRecent(t *testing.T) {
	store, mr := newRedisStore(t, 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Append(ctx, entry("pixel", i)))
	}

	got, err := store.Recent(ctx, "pixel", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "id-5", got[0].ID)
	assert.Equal(t, "id-3", got[2].ID)

	got, err = store.Recent(ctx, "pixel", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-5", "id-4"}, []string{got[0].ID, got[1].ID})

	assert.Equal(t, 24*time.Hour, mr.TTL("command_history:pixel"))
}

func TestRedisStoreSeparatesClients(t *testing.T) {
	store, _ := newRedisStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, entry("a", 1)))
	require.NoError(t, store.Append(ctx, entry("", 2)))

	got, err := store.Recent(ctx, "a", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = store.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "id-2", got[0].ID)
}

func TestRedisStoreExpires(t *testing.T) {
	store, mr := newRedisStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, entry("a", 1)))
	mr.FastForward(25 * time.Hour)

	got, err := store.Recent(ctx, "a", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisStoreSkipsCorrupt(t *testing.T) {
	store, mr := newRedisStore(t, 10)
	ctx := context.Background()

	_, err := mr.RPush("command_history:a", "not json")
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, entry("a", 1)))

	got, err := store.Recent(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "id-1", got[0].ID)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewRedisStore(client, 10, time.Hour, zap.NewNop())
	mr.Close()

	assert.Error(t, store.Append(context.Background(), entry("a", 1)))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Append(ctx, entry("a", i)))
	}

	got, err := store.Recent(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "id-3", got[0].ID)
	assert.Equal(t, "id-2", got[1].ID)

	got, err = store.Recent(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
