package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"aucto-auction-client/internal/adapters/api/apitest"
	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/bid"
	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(srv *apitest.Server, token string) *Client {
	return NewClient(ClientParams{
		BaseURL: srv.URL,
		Tokens:  staticToken(token),
		Logger:  zerolog.Nop(),
	})
}

func seedAuction(srv *apitest.Server, seller shared.User) auction.Auction {
	now := time.Now()
	return srv.AddAuction(auction.Auction{
		Title:      "Vintage camera",
		Category:   "electronics",
		BasePrice:  decimal.NewFromInt(100),
		StartTime:  now.Add(-time.Hour),
		EndTime:    now.Add(time.Hour),
		Seller:     shared.Party{ID: seller.ID},
		IsApproved: true,
	})
}

func bidFor(auctionID, userID string, amount int64) bid.Bid {
	return bid.Bid{AuctionID: auctionID, Bidder: shared.Party{ID: userID}, Amount: decimal.NewFromInt(amount)}
}

func TestClient_LoginAndMe(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	alice := srv.AddUser(shared.User{Name: "Alice", Email: "alice@example.com"}, "secret")

	anon := newTestClient(srv, "")
	result, err := anon.Login(context.Background(), inbound.LoginRequest{Email: "alice@example.com", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, alice.ID, result.User.ID)
	require.NotEmpty(t, result.Token)

	me, err := newTestClient(srv, result.Token).Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Alice", me.Name)

	_, err = anon.Login(context.Background(), inbound.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	require.ErrorIs(t, err, shared.ErrServerRejection)
	require.Equal(t, "Invalid email or password", err.Error())
}

func TestClient_ErrorMapping(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	alice := srv.AddUser(shared.User{Name: "Alice", Email: "alice@example.com"}, "secret")
	token := srv.TokenFor(alice.ID, time.Hour)

	testCases := []struct {
		name    string
		call    func(ctx context.Context) error
		wantErr error
		message string
	}{
		{
			name: "missing token is an auth error",
			call: func(ctx context.Context) error {
				_, err := newTestClient(srv, "").Me(ctx)
				return err
			},
			wantErr: shared.ErrAuth,
		},
		{
			name: "unknown auction is not found",
			call: func(ctx context.Context) error {
				_, err := newTestClient(srv, token).GetAuction(ctx, "missing")
				return err
			},
			wantErr: shared.ErrNotFound,
		},
		{
			name: "server failure keeps the message verbatim",
			call: func(ctx context.Context) error {
				srv.FailNext("GET /notifications", http.StatusInternalServerError, "Database unavailable")
				_, err := newTestClient(srv, token).Notifications(ctx)
				return err
			},
			wantErr: shared.ErrServerRejection,
			message: "Database unavailable",
		},
		{
			name: "unreachable server is a network error",
			call: func(ctx context.Context) error {
				c := NewClient(ClientParams{BaseURL: "http://127.0.0.1:1", Timeout: time.Second, Logger: zerolog.Nop()})
				_, err := c.ListAuctions(ctx, auction.Filter{})
				return err
			},
			wantErr: shared.ErrNetwork,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call(context.Background())
			require.ErrorIs(t, err, tc.wantErr)
			if tc.message != "" {
				require.Equal(t, tc.message, err.Error())
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	no, yes := false, true
	testCases := []struct {
		name    string
		status  int
		env     envelope
		wantErr error
	}{
		{name: "ok", status: http.StatusOK, env: envelope{Success: &yes}},
		{name: "ok without flag", status: http.StatusOK},
		{name: "success false on 200", status: http.StatusOK, env: envelope{Success: &no, Message: "nope"}, wantErr: shared.ErrServerRejection},
		{name: "bad request", status: http.StatusBadRequest, wantErr: shared.ErrServerRejection},
		{name: "forbidden", status: http.StatusForbidden, wantErr: shared.ErrServerRejection},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: shared.ErrAuth},
		{name: "not found", status: http.StatusNotFound, wantErr: shared.ErrNotFound},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := statusError(tc.status, &tc.env, "/x")
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, tc.wantErr), "got %v", err)
		})
	}
}

func TestClient_PlaceThenUpdateBid(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	seller := srv.AddUser(shared.User{Name: "Sam"}, "x")
	bidder := srv.AddUser(shared.User{Name: "Bea"}, "x")
	a := seedAuction(srv, seller)
	c := newTestClient(srv, srv.TokenFor(bidder.ID, time.Hour))
	ctx := context.Background()

	_, err := c.PlaceBid(ctx, inbound.PlaceBidRequest{AuctionID: a.ID, Amount: decimal.NewFromInt(50)})
	require.ErrorIs(t, err, shared.ErrServerRejection)
	require.Contains(t, err.Error(), "at least")

	placed, err := c.PlaceBid(ctx, inbound.PlaceBidRequest{AuctionID: a.ID, Amount: decimal.NewFromInt(120)})
	require.NoError(t, err)
	require.True(t, placed.IsWinning)

	_, err = c.PlaceBid(ctx, inbound.PlaceBidRequest{AuctionID: a.ID, Amount: decimal.NewFromInt(130)})
	require.ErrorIs(t, err, shared.ErrServerRejection)

	updated, err := c.UpdateBid(ctx, placed.ID, inbound.UpdateBidRequest{Amount: decimal.NewFromInt(150)})
	require.NoError(t, err)
	require.Equal(t, placed.ID, updated.ID)
	require.True(t, updated.Amount.Equal(decimal.NewFromInt(150)))

	bids, err := c.BidsForAuction(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	require.Equal(t, 1, srv.Hits("PUT /bids/{id}"))

	got, err := c.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentBid)
	require.True(t, got.CurrentBid.Equal(decimal.NewFromInt(150)))
}

func TestClient_CreateAuctionUploadsForm(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	seller := srv.AddUser(shared.User{Name: "Sam", Permissions: shared.Permissions{CanCreateAuction: true}}, "x")
	c := newTestClient(srv, srv.TokenFor(seller.ID, time.Hour))

	start := time.Now().Add(time.Hour)
	created, err := c.CreateAuction(context.Background(), auction.Draft{
		Title:       "Oak desk",
		Description: "Solid oak",
		Category:    "furniture",
		Condition:   "used",
		BasePrice:   decimal.NewFromInt(250),
		StartTime:   start,
		EndTime:     start.Add(24 * time.Hour),
		Images:      []shared.Upload{{Name: "desk.jpg", Content: []byte("jpeg")}},
	})
	require.NoError(t, err)
	require.Equal(t, "Oak desk", created.Title)
	require.Equal(t, []string{"/uploads/desk.jpg"}, created.Images)
	require.True(t, created.MinAuctionAmount.Equal(created.BasePrice))
	require.Equal(t, auction.StatusPending, created.Status)

	mine, err := c.MyAuctions(context.Background())
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestClient_Wishlist(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	seller := srv.AddUser(shared.User{Name: "Sam"}, "x")
	viewer := srv.AddUser(shared.User{Name: "Vic"}, "x")
	a := seedAuction(srv, seller)
	c := newTestClient(srv, srv.TokenFor(viewer.ID, time.Hour))
	ctx := context.Background()

	in, err := c.InWishlist(ctx, a.ID)
	require.NoError(t, err)
	require.False(t, in)

	action, err := c.ToggleWishlist(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, inbound.WishlistAdded, action)

	in, err = c.InWishlist(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, in)

	action, err = c.ToggleWishlist(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, inbound.WishlistRemoved, action)

	err = c.RemoveFromWishlist(ctx, a.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestClient_PaymentOrderAndVerify(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	seller := srv.AddUser(shared.User{Name: "Sam"}, "x")
	winner := srv.AddUser(shared.User{Name: "Wen"}, "x")
	a := seedAuction(srv, seller)
	srv.AddBid(bidFor(a.ID, winner.ID, 300))
	srv.EndAuction(a.ID)

	c := newTestClient(srv, srv.TokenFor(winner.ID, time.Hour))
	ctx := context.Background()

	order, err := c.CreatePaymentOrder(ctx, inbound.CreateOrderRequest{AuctionID: a.ID, Amount: decimal.NewFromInt(300)})
	require.NoError(t, err)
	require.Equal(t, int64(30000), order.Amount)
	require.Equal(t, "INR", order.Currency)

	err = c.VerifyPayment(ctx, shared.PaymentConfirmation{
		OrderID:   order.ID,
		PaymentID: "pay_1",
		Signature: "forged",
		AuctionID: a.ID,
	})
	require.ErrorIs(t, err, shared.ErrServerRejection)

	err = c.VerifyPayment(ctx, shared.PaymentConfirmation{
		OrderID:   order.ID,
		PaymentID: "pay_1",
		Signature: apitest.SignPayment(order.ID, "pay_1"),
		AuctionID: a.ID,
	})
	require.NoError(t, err)

	paid, _ := srv.Auction(a.ID)
	require.Equal(t, auction.PaymentPaid, paid.PaymentStatus)
}

func TestClient_UploadDocuments(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	user := srv.AddUser(shared.User{Name: "Uma"}, "x")
	admin := srv.AddUser(shared.User{Name: "Ada", Role: shared.RoleAdmin}, "x")

	err := newTestClient(srv, srv.TokenFor(user.ID, time.Hour)).UploadDocuments(context.Background(), "1234 5678 9012",
		[]shared.Upload{{Name: "front.png", Content: []byte("png")}})
	require.NoError(t, err)

	adminClient := newTestClient(srv, srv.TokenFor(admin.ID, time.Hour))
	pending, err := adminClient.PendingVerifications(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "1234 5678 9012", pending[0].DocumentNumber)

	err = adminClient.VerifyDocuments(context.Background(), user.ID, inbound.VerifyDocumentsRequest{Status: shared.VerificationVerified})
	require.NoError(t, err)

	stored, _ := srv.User(user.ID)
	require.Equal(t, shared.VerificationVerified, stored.VerificationStatus)

	_, err = newTestClient(srv, srv.TokenFor(user.ID, time.Hour)).Users(context.Background())
	require.ErrorIs(t, err, shared.ErrServerRejection)
}
