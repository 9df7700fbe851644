package app

import (
	"context"
	"net/http"
	"testing"

	"aucto-auction-client/internal/domain/shared"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestWishlist(f *fixture) *Wishlist {
	return NewWishlist(WishlistParams{API: f.client, Session: f.session, Logger: zerolog.Nop()})
}

func TestWishlist_TogglePair(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(100)
	w := newTestWishlist(f)

	in, err := w.Toggle(context.Background(), a.ID)
	require.NoError(t, err)
	require.True(t, in)
	require.True(t, w.Contains(a.ID))
	require.Equal(t, a.Title, w.Items()[0].Auction.Title)
	require.Equal(t, 1, f.srv.Hits("GET /wishlist"))

	in, err = w.Toggle(context.Background(), a.ID)
	require.NoError(t, err)
	require.False(t, in)
	require.False(t, w.Contains(a.ID))
	require.Equal(t, 1, f.srv.Hits("GET /wishlist"))
}

func TestWishlist_AddAndRemove(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(100)
	b := f.seedAuction(200)
	w := newTestWishlist(f)

	require.NoError(t, w.Add(context.Background(), a.ID))
	require.NoError(t, w.Add(context.Background(), b.ID))
	require.Len(t, w.Items(), 2)

	err := w.Add(context.Background(), a.ID)
	require.ErrorIs(t, err, shared.ErrServerRejection)
	require.Equal(t, "Auction already in wishlist", shared.UserMessage(w.LastError()))

	require.NoError(t, w.Remove(context.Background(), a.ID))
	require.False(t, w.Contains(a.ID))
	require.True(t, w.Contains(b.ID))

	require.Error(t, w.Remove(context.Background(), a.ID))
}

func TestWishlist_CheckStatusFailsClosed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(100)
	w := newTestWishlist(f)
	require.NoError(t, w.Add(context.Background(), a.ID))

	require.True(t, w.CheckStatus(context.Background(), a.ID))

	f.srv.FailNext("GET /wishlist/check/{id}", http.StatusInternalServerError, "boom")
	require.False(t, w.CheckStatus(context.Background(), a.ID))
}

func TestWishlist_RequiresSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := NewWishlist(WishlistParams{API: f.client, Session: NewSession(SessionParams{Logger: zerolog.Nop()}), Logger: zerolog.Nop()})

	_, err := w.Toggle(context.Background(), "a1")
	require.ErrorIs(t, err, shared.ErrAuth)
	require.False(t, w.CheckStatus(context.Background(), "a1"))
	require.Equal(t, 0, f.srv.TotalHits())
}
