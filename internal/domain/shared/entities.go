package shared

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role of an account
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// VerificationStatus of a user's identity documents
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Permissions gate which actions the client offers.
type Permissions struct {
	CanBid           bool `json:"canBid"`
	CanCreateAuction bool `json:"canCreateAuction"`
}

// User represents an authenticated user in the system
type User struct {
	ID                 string             `json:"_id"`
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	Role               Role               `json:"role"`
	UserType           string             `json:"userType,omitempty"`
	Permissions        Permissions        `json:"permissions"`
	Avatar             string             `json:"avatar,omitempty"`
	Phone              string             `json:"phone,omitempty"`
	Address            string             `json:"address,omitempty"`
	VerificationStatus VerificationStatus `json:"verificationStatus,omitempty"`
	SellerRating       float64            `json:"sellerRating,omitempty"`
	TotalReviews       int                `json:"totalReviews,omitempty"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Party is a user reference embedded in other records (seller, bidder, winner).
type Party struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// NotificationType enumerates the server's notification kinds
type NotificationType string

const (
	NotificationBidReceived      NotificationType = "bid_received"
	NotificationOutbid           NotificationType = "outbid"
	NotificationAuctionWon       NotificationType = "auction_won"
	NotificationAuctionLost      NotificationType = "auction_lost"
	NotificationEndingSoon       NotificationType = "auction_ending_soon"
	NotificationAuctionApproved  NotificationType = "auction_approved"
	NotificationAuctionRejected  NotificationType = "auction_rejected"
	NotificationPaymentRequired  NotificationType = "payment_required"
	NotificationPaymentSucceeded NotificationType = "payment_successful"
	NotificationReviewReceived   NotificationType = "review_received"
	NotificationDocsUploaded     NotificationType = "aadhaar_uploaded"
	NotificationDocsVerified     NotificationType = "aadhaar_verified"
	NotificationDocsRejected     NotificationType = "aadhaar_rejected"
)

type Notification struct {
	ID        string           `json:"_id"`
	User      string           `json:"user"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Auction   string           `json:"auction,omitempty"`
	Bid       string           `json:"bid,omitempty"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}

// WishlistAuction is the auction summary embedded in a wishlist entry
type WishlistAuction struct {
	ID         string          `json:"_id"`
	Title      string          `json:"title"`
	Images     []string        `json:"images,omitempty"`
	CurrentBid decimal.Decimal `json:"currentBid"`
	BasePrice  decimal.Decimal `json:"basePrice"`
	EndTime    time.Time       `json:"endTime"`
	Status     string          `json:"status"`
	Seller     Party           `json:"seller"`
}

type WishlistItem struct {
	ID      string          `json:"_id"`
	User    string          `json:"user"`
	Auction WishlistAuction `json:"auction"`
	AddedAt time.Time       `json:"addedAt"`
}

// AuctionRef is the short auction reference embedded in reviews
type AuctionRef struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

type Review struct {
	ID         string     `json:"_id"`
	Reviewer   Party      `json:"reviewer"`
	Reviewee   string     `json:"reviewee"`
	Auction    AuctionRef `json:"auction"`
	Rating     int        `json:"rating"`
	Title      string     `json:"title"`
	Comment    string     `json:"comment"`
	IsVerified bool       `json:"isVerified"`
	Helpful    int        `json:"helpful"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// PaymentOrder is the order the checkout widget is opened with
type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PaymentConfirmation is what the checkout widget hands back on success
type PaymentConfirmation struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	AuctionID string `json:"auctionId"`
}

// PendingVerification is a user awaiting document review
type PendingVerification struct {
	User           User     `json:"user"`
	DocumentNumber string   `json:"aadhaarNumber"`
	Images         []string `json:"aadhaarImages"`
}

// Upload is a file attached to a multipart request
type Upload struct {
	Name    string
	Content []byte
}
