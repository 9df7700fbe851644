package outbound

import (
	"context"

	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/bid"
	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"
)

//go:generate mockgen -source=api.go -destination=mocks/api_mock.go -package=mocks

// AuctionAPI is the server's auction resource
type AuctionAPI interface {
	// ListAuctions retrieves auctions matching the filter
	ListAuctions(ctx context.Context, filter auction.Filter) ([]auction.Auction, error)

	// GetAuction retrieves an auction by ID
	GetAuction(ctx context.Context, id string) (*auction.Auction, error)

	// MyAuctions lists auctions the viewer is selling
	MyAuctions(ctx context.Context) ([]auction.Auction, error)

	// WonAuctions lists auctions the viewer has won
	WonAuctions(ctx context.Context) ([]auction.Auction, error)

	// CreateAuction uploads a new listing with its images
	CreateAuction(ctx context.Context, draft auction.Draft) (*auction.Auction, error)

	// UpdateAuction edits a listing the viewer owns
	UpdateAuction(ctx context.Context, id string, req inbound.UpdateAuctionRequest) (*auction.Auction, error)

	// DeleteAuction removes a listing the viewer owns
	DeleteAuction(ctx context.Context, id string) error

	// ApproveAuction is an admin action
	ApproveAuction(ctx context.Context, id string) error
}

// BidAPI is the server's bid resource
type BidAPI interface {
	BidsForAuction(ctx context.Context, auctionID string) ([]bid.Bid, error)
	MyBids(ctx context.Context) ([]bid.Bid, error)
	PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*bid.Bid, error)
	UpdateBid(ctx context.Context, bidID string, req inbound.UpdateBidRequest) (*bid.Bid, error)
}

// UserAPI covers identity and profile endpoints
type UserAPI interface {
	Login(ctx context.Context, req inbound.LoginRequest) (*inbound.AuthResult, error)
	Register(ctx context.Context, req inbound.RegisterRequest) (*inbound.AuthResult, error)
	Me(ctx context.Context) (*shared.User, error)
	UpdateProfile(ctx context.Context, req inbound.ProfileUpdate) (*shared.User, error)
	UploadDocuments(ctx context.Context, number string, images []shared.Upload) error
}

type WishlistAPI interface {
	Wishlist(ctx context.Context) ([]shared.WishlistItem, error)
	AddToWishlist(ctx context.Context, auctionID string) (*shared.WishlistItem, error)
	RemoveFromWishlist(ctx context.Context, auctionID string) error
	InWishlist(ctx context.Context, auctionID string) (bool, error)
	ToggleWishlist(ctx context.Context, auctionID string) (inbound.WishlistAction, error)
}

type NotificationAPI interface {
	Notifications(ctx context.Context) ([]shared.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

type ReviewAPI interface {
	ReviewsForUser(ctx context.Context, userID string) ([]shared.Review, error)
	CreateReview(ctx context.Context, req inbound.ReviewRequest) (*shared.Review, error)
	UpdateReview(ctx context.Context, id string, req inbound.ReviewRequest) (*shared.Review, error)
	DeleteReview(ctx context.Context, id string) error
	// MarkReviewHelpful returns the new helpful count
	MarkReviewHelpful(ctx context.Context, id string) (int, error)
}

type PaymentAPI interface {
	CreatePaymentOrder(ctx context.Context, req inbound.CreateOrderRequest) (*shared.PaymentOrder, error)
	VerifyPayment(ctx context.Context, confirmation shared.PaymentConfirmation) error
}

type AdminAPI interface {
	PendingAuctions(ctx context.Context) ([]auction.Auction, error)
	Users(ctx context.Context) ([]shared.User, error)
	UpdateUser(ctx context.Context, id string, req inbound.AdminUserUpdate) (*shared.User, error)
	DeleteUser(ctx context.Context, id string) error
	PendingVerifications(ctx context.Context) ([]shared.PendingVerification, error)
	VerifyDocuments(ctx context.Context, userID string, req inbound.VerifyDocumentsRequest) error
}
