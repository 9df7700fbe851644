package app

import (
	"sync"
	"testing"
	"time"

	"aucto-auction-client/internal/adapters/api"
	"aucto-auction-client/internal/adapters/api/apitest"
	"aucto-auction-client/internal/adapters/ws"
	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/bid"
	"aucto-auction-client/internal/domain/countdown"
	"aucto-auction-client/internal/domain/shared"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	waitFor = 2 * time.Second
	pollAt  = 10 * time.Millisecond
)

var bidder = shared.Permissions{CanBid: true}

// fixture wires the real REST and live clients against the fake server
type fixture struct {
	srv     *apitest.Server
	client  *api.Client
	live    *ws.Client
	session *Session
	viewer  shared.User
	seller  shared.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	srv := apitest.New(t)
	seller := srv.AddUser(shared.User{
		Name:        "Seller",
		Email:       "seller@example.com",
		Permissions: shared.Permissions{CanBid: true, CanCreateAuction: true},
	}, "secret")
	viewer := srv.AddUser(shared.User{Name: "Viewer", Email: "viewer@example.com", Permissions: bidder}, "secret")

	f := &fixture{srv: srv, viewer: viewer, seller: seller}
	f.session = f.sessionFor(viewer)
	f.client = f.clientFor(f.session)
	f.session.users = f.client
	f.live = ws.NewClient(ws.ClientParams{URL: srv.WSURL(), Tokens: f.session, Logger: zerolog.Nop()})
	t.Cleanup(f.live.Close)
	return f
}

func (f *fixture) sessionFor(u shared.User) *Session {
	return NewSession(SessionParams{
		Token:  f.srv.TokenFor(u.ID, time.Hour),
		User:   &u,
		Logger: zerolog.Nop(),
	})
}

func (f *fixture) clientFor(s *Session) *api.Client {
	return api.NewClient(api.ClientParams{
		BaseURL: f.srv.URL,
		Tokens:  api.TokenFunc(s.Token),
		Logger:  zerolog.Nop(),
	})
}

// seedAuction adds a live auction owned by the fixture's seller
func (f *fixture) seedAuction(floor int64) auction.Auction {
	now := time.Now()
	return f.srv.AddAuction(auction.Auction{
		Title:      "Brass compass",
		Category:   "antiques",
		BasePrice:  decimal.NewFromInt(floor),
		StartTime:  now.Add(-time.Hour),
		EndTime:    now.Add(time.Hour),
		Seller:     shared.Party{ID: f.seller.ID, Name: f.seller.Name},
		IsApproved: true,
	})
}

func (f *fixture) addBid(auctionID string, u shared.User, amount int64) bid.Bid {
	return f.srv.AddBid(bid.Bid{
		AuctionID: auctionID,
		Bidder:    shared.Party{ID: u.ID, Name: u.Name},
		Amount:    decimal.NewFromInt(amount),
	})
}

func (f *fixture) bidViewModel() *BidViewModel {
	return NewBidViewModel(BidViewModelParams{
		Bids:     f.client,
		Auctions: f.client,
		Session:  f.session,
		Logger:   zerolog.Nop(),
	})
}

func (f *fixture) detailView(params DetailViewParams) *DetailView {
	params.Bids = f.bidViewModel()
	params.Wishlist = NewWishlist(WishlistParams{API: f.client, Session: f.session, Logger: zerolog.Nop()})
	params.Live = f.live
	params.Session = f.session
	params.Logger = zerolog.Nop()
	return NewDetailView(params)
}

// tickLog records countdown labels as they arrive
type tickLog struct {
	mu     sync.Mutex
	labels []string
}

func (l *tickLog) record(c countdown.Countdown) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.labels = append(l.labels, c.Label)
}

func (l *tickLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.labels)
}

// steppingClock advances one second on every read
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func viewerBids(list []bid.Bid, userID string) []bid.Bid {
	var out []bid.Bid
	for _, b := range list {
		if b.PlacedBy(userID) {
			out = append(out, b)
		}
	}
	return out
}
