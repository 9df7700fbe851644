package app

import (
	"context"
	"testing"
	"time"

	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/bid"
	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/outbound"
	"aucto-auction-client/internal/ports/outbound/mocks"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDetailView_MountLoadsAndJoins(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(300)
	f.addBid(a.ID, f.seller, 350)

	view := f.detailView(DetailViewParams{})
	require.NoError(t, view.Mount(context.Background(), a.ID))
	t.Cleanup(view.Unmount)

	require.Equal(t, 1, f.srv.Hits("GET /auctions/{id}"))
	require.Equal(t, 1, f.srv.Hits("GET /bids/auction/{id}"))
	require.Equal(t, 1, f.srv.Hits("GET /wishlist/check/{id}"))

	require.Eventually(t, func() bool {
		return view.RoomState() == outbound.RoomSubscribed
	}, waitFor, pollAt)
	require.Equal(t, 1, f.srv.RoomSize(a.ID))
	require.Eventually(t, func() bool { return view.Countdown().Label != "" }, waitFor, pollAt)

	loaded, ok := view.Bids().Auction()
	require.True(t, ok)
	require.Equal(t, a.ID, loaded.ID)
	require.Len(t, view.Bids().Bids(), 1)
}

func TestDetailView_NewBidTriggersRefetch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(300)

	view := f.detailView(DetailViewParams{})
	require.NoError(t, view.Mount(context.Background(), a.ID))
	t.Cleanup(view.Unmount)
	require.Eventually(t, func() bool {
		return view.RoomState() == outbound.RoomSubscribed
	}, waitFor, pollAt)

	f.srv.ResetHits()
	placed := f.addBid(a.ID, f.seller, 420)
	f.srv.Broadcast(a.ID, outbound.Event{Type: outbound.EventNewBid})

	require.Eventually(t, func() bool {
		w, ok := view.Bids().WinningBid()
		return ok && w.ID == placed.ID
	}, waitFor, pollAt)
	require.Equal(t, 1, f.srv.Hits("GET /auctions/{id}"))
	require.Equal(t, 1, f.srv.Hits("GET /bids/auction/{id}"))

	current, _ := view.Bids().Auction()
	require.True(t, current.CurrentBid.Equal(decimal.NewFromInt(420)))
}

func TestDetailView_AuctionEndedRefetches(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(300)
	f.addBid(a.ID, f.viewer, 500)

	view := f.detailView(DetailViewParams{})
	require.NoError(t, view.Mount(context.Background(), a.ID))
	t.Cleanup(view.Unmount)
	require.Eventually(t, func() bool {
		return view.RoomState() == outbound.RoomSubscribed
	}, waitFor, pollAt)

	f.srv.EndAuction(a.ID)

	require.Eventually(t, func() bool {
		current, ok := view.Bids().Auction()
		return ok && current.IsCompleted()
	}, waitFor, pollAt)

	current, _ := view.Bids().Auction()
	require.True(t, current.IsWinner(f.viewer.ID))
	require.True(t, view.Bids().IsViewerWinning())
	require.False(t, view.Bids().CanBid(time.Now()))
}

func TestDetailView_PresenceOnlyUpdatesCounter(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(300)

	view := f.detailView(DetailViewParams{})
	require.NoError(t, view.Mount(context.Background(), a.ID))
	t.Cleanup(view.Unmount)
	require.Eventually(t, func() bool {
		return view.RoomState() == outbound.RoomSubscribed
	}, waitFor, pollAt)

	f.srv.ResetHits()
	f.srv.Broadcast(a.ID, outbound.Event{Type: outbound.EventUserJoined, ActiveUsers: 4})

	require.Eventually(t, func() bool { return view.Presence() == 4 }, waitFor, pollAt)
	require.Equal(t, 0, f.srv.Hits("GET /auctions/{id}"))
	require.Equal(t, 0, f.srv.Hits("GET /bids/auction/{id}"))
}

func TestDetailView_PlaceBidUpdatesExistingBid(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(300)
	existing := f.addBid(a.ID, f.viewer, 500)

	view := f.detailView(DetailViewParams{})
	require.NoError(t, view.Mount(context.Background(), a.ID))
	t.Cleanup(view.Unmount)
	require.Eventually(t, func() bool {
		return view.RoomState() == outbound.RoomSubscribed
	}, waitFor, pollAt)
	require.Equal(t, bid.ModeUpdate, view.Bids().Mode())

	view.Bids().SetInput(decimal.NewFromInt(700))
	placed, err := view.PlaceBid(context.Background(), decimal.NewFromInt(700))
	require.NoError(t, err)
	require.Equal(t, existing.ID, placed.ID)

	require.Equal(t, 1, f.srv.Hits("PUT /bids/{id}"))
	require.Equal(t, 0, f.srv.Hits("POST /bids"))
	require.True(t, view.Bids().Input().IsZero())

	mine := viewerBids(view.Bids().Bids(), f.viewer.ID)
	require.Len(t, mine, 1)
	require.True(t, mine[0].Amount.Equal(decimal.NewFromInt(700)))
	require.Eventually(t, func() bool {
		return f.srv.Received(outbound.EventBidPlaced) == 1
	}, waitFor, pollAt)
}

func TestDetailView_RejectedBidKeepsState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(300)

	view := f.detailView(DetailViewParams{})
	require.NoError(t, view.Mount(context.Background(), a.ID))
	t.Cleanup(view.Unmount)

	f.srv.ResetHits()
	_, err := view.PlaceBid(context.Background(), decimal.NewFromInt(299))
	require.ErrorIs(t, err, shared.ErrBidBelowFloor)
	require.Equal(t, 0, f.srv.TotalHits())
	require.ErrorIs(t, view.Bids().LastError(), shared.ErrValidation)

	f.srv.FailNext("POST /bids", 400, "Auction is not active")
	_, err = view.PlaceBid(context.Background(), decimal.NewFromInt(300))
	require.ErrorIs(t, err, shared.ErrServerRejection)
	require.Equal(t, "Auction is not active", shared.UserMessage(view.Bids().LastError()))
	require.Empty(t, view.Bids().Bids())
}

func TestDetailView_UnmountStopsTickerAndLeavesOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(300)

	clock := &steppingClock{now: time.Now()}
	ticks := &tickLog{}
	view := f.detailView(DetailViewParams{
		Tick:   5 * time.Millisecond,
		Clock:  clock.Now,
		OnTick: ticks.record,
	})
	require.NoError(t, view.Mount(context.Background(), a.ID))
	require.Eventually(t, func() bool {
		return view.RoomState() == outbound.RoomSubscribed && ticks.count() > 2
	}, waitFor, pollAt)

	view.Unmount()
	view.Unmount()

	seen := ticks.count()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, seen, ticks.count())

	require.Eventually(t, func() bool {
		return f.srv.Received(outbound.EventLeaveAuction) == 1 && f.srv.RoomSize(a.ID) == 0
	}, waitFor, pollAt)

	f.srv.ResetHits()
	f.srv.Broadcast(a.ID, outbound.Event{Type: outbound.EventNewBid})
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 0, f.srv.TotalHits())
	require.Equal(t, 1, f.srv.Received(outbound.EventLeaveAuction))
	require.False(t, view.Mounted())
}

func TestDetailView_MissingAuction(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	view := f.detailView(DetailViewParams{})

	err := view.Mount(context.Background(), "missing")
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.False(t, view.Mounted())
	require.Equal(t, outbound.RoomDisconnected, view.RoomState())
}

func TestDetailView_ToggleWishlist(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(300)

	view := f.detailView(DetailViewParams{})
	require.NoError(t, view.Mount(context.Background(), a.ID))
	t.Cleanup(view.Unmount)
	require.False(t, view.InWishlist())

	in, err := view.ToggleWishlist(context.Background())
	require.NoError(t, err)
	require.True(t, in)
	require.True(t, view.InWishlist())

	in, err = view.ToggleWishlist(context.Background())
	require.NoError(t, err)
	require.False(t, in)
}

// mockedView mounts auction y over mocks and hands back the captured live
// handler.
func mockedView(t *testing.T, ctrl *gomock.Controller) (*DetailView, *mocks.MockRoom, func() outbound.EventHandler) {
	t.Helper()

	viewer := shared.User{ID: "u1", Name: "Viewer", Permissions: bidder}
	session := NewSession(SessionParams{Token: "opaque", User: &viewer, Logger: zerolog.Nop()})

	auctions := mocks.NewMockAuctionAPI(ctrl)
	bids := mocks.NewMockBidAPI(ctrl)
	wishlist := mocks.NewMockWishlistAPI(ctrl)
	live := mocks.NewMockLiveChannel(ctrl)
	room := mocks.NewMockRoom(ctrl)

	y := &auction.Auction{
		ID:               "y",
		MinAuctionAmount: decimal.NewFromInt(100),
		Status:           auction.StatusActive,
		EndTime:          time.Now().Add(time.Hour),
		Seller:           shared.Party{ID: "seller"},
	}
	auctions.EXPECT().GetAuction(gomock.Any(), "y").Return(y, nil).Times(1)
	bids.EXPECT().BidsForAuction(gomock.Any(), "y").Return([]bid.Bid{}, nil).Times(1)
	wishlist.EXPECT().InWishlist(gomock.Any(), "y").Return(false, nil).Times(1)

	handlers := make(chan outbound.EventHandler, 1)
	live.EXPECT().Join(gomock.Any(), "y", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, h outbound.EventHandler) (outbound.Room, error) {
			handlers <- h
			return room, nil
		}).Times(1)

	view := NewDetailView(DetailViewParams{
		Bids: NewBidViewModel(BidViewModelParams{
			Bids:     bids,
			Auctions: auctions,
			Session:  session,
			Logger:   zerolog.Nop(),
		}),
		Wishlist: NewWishlist(WishlistParams{API: wishlist, Session: session, Logger: zerolog.Nop()}),
		Live:     live,
		Session:  session,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, view.Mount(context.Background(), "y"))

	return view, room, func() outbound.EventHandler { return <-handlers }
}

func TestDetailView_IgnoresOtherAuctionEvents(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	view, room, handler := mockedView(t, ctrl)
	room.EXPECT().Leave().Return(nil).Times(1)

	h := handler()
	h(outbound.Event{Type: outbound.EventNewBid, AuctionID: "x"})
	h(outbound.Event{Type: outbound.EventAuctionEnded, AuctionID: "x"})
	h(outbound.Event{Type: outbound.EventUserJoined, AuctionID: "x", ActiveUsers: 9})
	require.Equal(t, 0, view.Presence())

	view.Unmount()
}

func TestDetailView_EventsAfterUnmountAreDropped(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	view, room, handler := mockedView(t, ctrl)
	room.EXPECT().Leave().Return(nil).Times(1)

	h := handler()
	view.Unmount()
	view.Unmount()

	h(outbound.Event{Type: outbound.EventNewBid, AuctionID: "y"})
	h(outbound.Event{Type: outbound.EventUserJoined, AuctionID: "y", ActiveUsers: 3})
	require.Equal(t, 0, view.Presence())
}

func TestDetailView_AnonymousViewerSkipsLiveChannel(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	auctions := mocks.NewMockAuctionAPI(ctrl)
	bids := mocks.NewMockBidAPI(ctrl)
	live := mocks.NewMockLiveChannel(ctrl)
	session := NewSession(SessionParams{Logger: zerolog.Nop()})

	auctions.EXPECT().GetAuction(gomock.Any(), "a1").
		Return(&auction.Auction{ID: "a1", Status: auction.StatusActive, EndTime: time.Now().Add(time.Minute)}, nil)
	bids.EXPECT().BidsForAuction(gomock.Any(), "a1").Return(nil, nil)

	view := NewDetailView(DetailViewParams{
		Bids:    NewBidViewModel(BidViewModelParams{Bids: bids, Auctions: auctions, Session: session, Logger: zerolog.Nop()}),
		Live:    live,
		Session: session,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, view.Mount(context.Background(), "a1"))
	require.Equal(t, outbound.RoomDisconnected, view.RoomState())
	require.False(t, view.Bids().CanBid(time.Now()))

	_, err := view.PlaceBid(context.Background(), decimal.NewFromInt(10))
	require.ErrorIs(t, err, shared.ErrAuth)
	view.Unmount()
}

func TestDetailView_RecordsSnapshots(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(300)
	f.addBid(a.ID, f.seller, 310)

	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockSnapshotRecorder(ctrl)
	recorder.EXPECT().Record(gomock.Any(), gomock.Any(), gomock.Len(1)).
		DoAndReturn(func(_ context.Context, got auction.Auction, _ []bid.Bid) error {
			require.Equal(t, a.ID, got.ID)
			return nil
		}).Times(1)

	view := f.detailView(DetailViewParams{Recorder: recorder})
	require.NoError(t, view.Mount(context.Background(), a.ID))
	view.Unmount()
}
