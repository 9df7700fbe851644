package inbound

import (
	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/shared"

	"github.com/shopspring/decimal"
)

// request to log in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// request to register; ConfirmPassword never leaves the client
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

// AuthResult is returned by login and register
type AuthResult struct {
	User  shared.User `json:"user"`
	Token string      `json:"token"`
}

// ProfileUpdate carries only the fields being changed
type ProfileUpdate struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
}

// request to place a bid
type PlaceBidRequest struct {
	AuctionID string          `json:"auctionId"`
	Amount    decimal.Decimal `json:"amount"`
}

// request to replace the amount of an existing bid
type UpdateBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// request to edit an auction the viewer owns
type UpdateAuctionRequest struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Condition   *string          `json:"condition,omitempty"`
	BasePrice   *decimal.Decimal `json:"basePrice,omitempty"`
	Status      *auction.Status  `json:"status,omitempty"`
}

// request to write a review for a completed auction
type ReviewRequest struct {
	AuctionID string `json:"auctionId,omitempty"`
	Rating    int    `json:"rating,omitempty"`
	Title     string `json:"title,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// request to open a payment order
type CreateOrderRequest struct {
	AuctionID string          `json:"auctionId"`
	Amount    decimal.Decimal `json:"amount"`
}

// admin edit of a user account
type AdminUserUpdate struct {
	Name               string                    `json:"name,omitempty"`
	Email              string                    `json:"email,omitempty"`
	Role               shared.Role               `json:"role,omitempty"`
	Permissions        *shared.Permissions       `json:"permissions,omitempty"`
	VerificationStatus shared.VerificationStatus `json:"verificationStatus,omitempty"`
}

// admin decision on a user's identity documents
type VerifyDocumentsRequest struct {
	Status shared.VerificationStatus `json:"status"`
	Notes  string                    `json:"notes,omitempty"`
}

// WishlistAction is what the server reports after a toggle
type WishlistAction string

const (
	WishlistAdded   WishlistAction = "added"
	WishlistRemoved WishlistAction = "removed"
)
