package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sialweb/bookline/internal/dialog"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client, time.Minute, nil), mr
}

func TestSaveAndLoad(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := dialog.NewSession(1)
	sess.State = dialog.StateAskingPhone
	sess.CustomerName = "Maria Lopez"

	require.NoError(t, store.Save(ctx, "conv-1", sess))

	loaded, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, sess, *loaded)
}

func TestLoadMissingReturnsNil(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "conv-1", dialog.NewSession(1)))
	assert.Equal(t, time.Minute, mr.TTL("session:conv-1"))

	// An idle half-life followed by another message starts the clock
	// over.
	mr.FastForward(30 * time.Second)
	require.NoError(t, store.Save(ctx, "conv-1", dialog.NewSession(1)))
	assert.Equal(t, time.Minute, mr.TTL("session:conv-1"))
}

func TestExpiredSessionIsGone(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "conv-1", dialog.NewSession(1)))
	mr.FastForward(2 * time.Minute)

	loaded, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "conv-1", dialog.NewSession(1)))
	require.NoError(t, store.Delete(ctx, "conv-1"))
	assert.False(t, mr.Exists("session:conv-1"))

	// Idempotent.
	require.NoError(t, store.Delete(ctx, "conv-1"))
}

func TestCorruptedPayloadFails(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("session:conv-1", "{not json"))

	_, err := store.Load(context.Background(), "conv-1")
	require.Error(t, err)
}
