package app

import (
	"context"
	"testing"
	"time"

	"aucto-auction-client/internal/adapters/api/apitest"
	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"
	"aucto-auction-client/internal/ports/outbound/mocks"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNotifications_UnreadCount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	base := time.Now()
	first := f.srv.AddNotification(shared.Notification{User: f.viewer.ID, Type: shared.NotificationOutbid, Title: "Outbid", CreatedAt: base})
	f.srv.AddNotification(shared.Notification{User: f.viewer.ID, Type: shared.NotificationEndingSoon, Title: "Ending", CreatedAt: base.Add(time.Minute)})
	read := f.srv.AddNotification(shared.Notification{User: f.viewer.ID, Type: shared.NotificationAuctionWon, IsRead: true, CreatedAt: base.Add(2 * time.Minute)})

	n := NewNotifications(NotificationsParams{API: f.client, Session: f.session, Logger: zerolog.Nop()})
	items, err := n.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, read.ID, items[0].ID)
	require.Equal(t, 2, n.UnreadCount())

	require.NoError(t, n.MarkAsRead(context.Background(), first.ID))
	require.Equal(t, 1, n.UnreadCount())
	require.NoError(t, n.MarkAsRead(context.Background(), first.ID))
	require.Equal(t, 1, n.UnreadCount())
	require.NoError(t, n.MarkAsRead(context.Background(), read.ID))
	require.Equal(t, 1, n.UnreadCount())

	require.NoError(t, n.MarkAllAsRead(context.Background()))
	require.Equal(t, 0, n.UnreadCount())
	for _, item := range n.Items() {
		require.True(t, item.IsRead)
	}
	for _, stored := range f.srv.Notifications(f.viewer.ID) {
		require.True(t, stored.IsRead)
	}
}

func TestReviews_WinnerReviewsSeller(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(100)
	f.addBid(a.ID, f.viewer, 140)
	f.srv.EndAuction(a.ID)

	r := NewReviews(ReviewsParams{API: f.client, Session: f.session, Logger: zerolog.Nop()})
	_, err := r.FetchForUser(context.Background(), f.seller.ID)
	require.NoError(t, err)

	_, err = r.Create(context.Background(), inbound.ReviewRequest{AuctionID: a.ID, Rating: 6})
	require.ErrorIs(t, err, shared.ErrRatingInvalid)

	review, err := r.Create(context.Background(), inbound.ReviewRequest{AuctionID: a.ID, Rating: 5, Title: "Great", Comment: "As described"})
	require.NoError(t, err)
	require.Equal(t, f.seller.ID, review.Reviewee)
	require.Len(t, r.Items(), 1)

	updated, err := r.Update(context.Background(), review.ID, inbound.ReviewRequest{Rating: 4})
	require.NoError(t, err)
	require.Equal(t, 4, updated.Rating)

	count, err := r.MarkHelpful(context.Background(), review.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, 1, r.Items()[0].Helpful)

	require.NoError(t, r.Delete(context.Background(), review.ID))
	require.Empty(t, r.Items())
}

func TestPayment_WinnerPays(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(100)
	f.addBid(a.ID, f.viewer, 300)
	f.srv.EndAuction(a.ID)
	ended, _ := f.srv.Auction(a.ID)

	p := NewPayment(PaymentParams{API: f.client, Session: f.session, Logger: zerolog.Nop()})
	order, err := p.CreateOrder(context.Background(), ended)
	require.NoError(t, err)
	require.Equal(t, int64(30000), order.Amount)
	require.Equal(t, "INR", order.Currency)

	forged := shared.PaymentConfirmation{OrderID: order.ID, PaymentID: "pay_1", Signature: "00", AuctionID: a.ID}
	require.ErrorIs(t, p.Verify(context.Background(), forged), shared.ErrServerRejection)
	require.False(t, p.Paid(a.ID))

	good := forged
	good.Signature = apitest.SignPayment(order.ID, "pay_1")
	require.NoError(t, p.Verify(context.Background(), good))
	require.True(t, p.Paid(a.ID))
	_, open := p.Order()
	require.False(t, open)
}

func TestPayment_OnlyWinnerMayPay(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seedAuction(100)
	f.addBid(a.ID, f.seller, 300)
	f.srv.EndAuction(a.ID)
	ended, _ := f.srv.Auction(a.ID)
	f.srv.ResetHits()

	p := NewPayment(PaymentParams{API: f.client, Session: f.session, Logger: zerolog.Nop()})
	_, err := p.CreateOrder(context.Background(), ended)
	require.ErrorIs(t, err, shared.ErrNotAuctionWinner)
	require.Equal(t, 0, f.srv.TotalHits())
}

func TestVerification_UploadMarksPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	v := NewVerification(VerificationParams{API: f.client, Session: f.session, Logger: zerolog.Nop()})

	err := v.Upload(context.Background(), "", nil)
	require.ErrorIs(t, err, shared.ErrDocumentRequired)
	require.Equal(t, 0, f.srv.TotalHits())

	err = v.Upload(context.Background(), "1234 5678 9012", []shared.Upload{{Name: "front.jpg", Content: []byte("img")}})
	require.NoError(t, err)
	require.Equal(t, shared.VerificationPending, v.Status())
	require.Equal(t, 1, f.srv.Hits("GET /users/me"))
}

func TestAdminConsole_RequiresAdmin(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	viewer := shared.User{ID: "u1", Role: shared.RoleUser}
	console := NewAdminConsole(AdminConsoleParams{
		API:      mocks.NewMockAdminAPI(ctrl),
		Auctions: mocks.NewMockAuctionAPI(ctrl),
		Session:  NewSession(SessionParams{Token: "opaque", User: &viewer, Logger: zerolog.Nop()}),
		Logger:   zerolog.Nop(),
	})

	_, err := console.PendingAuctions(context.Background())
	require.ErrorIs(t, err, shared.ErrAuth)
	require.ErrorIs(t, err, shared.ErrAdminRequired)
	require.ErrorIs(t, console.ApproveAuction(context.Background(), "a1"), shared.ErrAdminRequired)
}

func TestAdminConsole_Moderation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	admin := f.srv.AddUser(shared.User{Name: "Admin", Role: shared.RoleAdmin}, "secret")
	session := f.sessionFor(admin)
	client := f.clientFor(session)
	console := NewAdminConsole(AdminConsoleParams{API: client, Auctions: client, Session: session, Logger: zerolog.Nop()})

	pending := f.srv.AddAuction(auction.Auction{
		Title:     "Pending lamp",
		BasePrice: decimal.NewFromInt(50),
		Status:    auction.StatusPending,
		Seller:    shared.Party{ID: f.seller.ID},
	})
	list, err := console.PendingAuctions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, console.ApproveAuction(context.Background(), pending.ID))
	require.Empty(t, console.Pending())
	approved, _ := f.srv.Auction(pending.ID)
	require.True(t, approved.IsApproved)

	// viewer uploads documents, admin rejects an invalid decision then verifies
	v := NewVerification(VerificationParams{API: f.client, Session: f.session, Logger: zerolog.Nop()})
	require.NoError(t, v.Upload(context.Background(), "1234", []shared.Upload{{Name: "id.jpg", Content: []byte("x")}}))

	queue, err := console.PendingVerifications(context.Background())
	require.NoError(t, err)
	require.Len(t, queue, 1)

	err = console.VerifyDocuments(context.Background(), f.viewer.ID, inbound.VerifyDocumentsRequest{Status: shared.VerificationPending})
	require.ErrorIs(t, err, shared.ErrVerificationStatus)

	require.NoError(t, console.VerifyDocuments(context.Background(), f.viewer.ID, inbound.VerifyDocumentsRequest{Status: shared.VerificationVerified}))
	require.Empty(t, console.Verifications())
	u, _ := f.srv.User(f.viewer.ID)
	require.Equal(t, shared.VerificationVerified, u.VerificationStatus)

	users, err := console.Users(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, users)

	updated, err := console.UpdateUser(context.Background(), f.viewer.ID, inbound.AdminUserUpdate{Name: "Renamed"})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)

	require.NoError(t, console.DeleteUser(context.Background(), f.seller.ID))
	_, ok := f.srv.User(f.seller.ID)
	require.False(t, ok)
}
