package redis

import (
	"context"
	"testing"

	"aucto-auction-client/internal/config"
	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*miniredis.Miniredis, *SessionStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := &config.Config{Redis: config.RedisConfig{Addr: mr.Addr(), SessionKey: "test:session"}}
	client := NewClient(cfg)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, PingRedis(context.Background(), client))

	return mr, NewSessionStore(SessionStoreParams{
		RedisClient: client,
		Key:         cfg.Redis.SessionKey,
		Logger:      zerolog.Nop(),
	})
}

func TestSessionStore_RoundTrip(t *testing.T) {
	t.Parallel()

	mr, store := newStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, shared.ErrNoSession)

	saved := outbound.StoredSession{
		Token: "tok",
		User:  shared.User{ID: "u1", Name: "Alice", Role: shared.RoleUser},
	}
	require.NoError(t, store.Save(ctx, saved))
	require.True(t, mr.Exists("test:session"))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, saved, *loaded)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	require.ErrorIs(t, err, shared.ErrNoSession)
}

func TestSessionStore_DiscardsCorruptValue(t *testing.T) {
	t.Parallel()

	mr, store := newStore(t)
	require.NoError(t, mr.Set("test:session", "{not json"))

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, shared.ErrNoSession)
	require.False(t, mr.Exists("test:session"))
}
