package auction

import (
	"time"

	"aucto-auction-client/internal/domain/shared"

	"github.com/shopspring/decimal"
)

// Status represents the current status of an auction
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus of a completed auction
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

// Auction is the client's cached copy of a server-owned auction. It is
// replaced wholesale on every fetch, never patched.
type Auction struct {
	ID               string           `json:"_id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Category         string           `json:"category"`
	Subcategory      string           `json:"subcategory,omitempty"`
	Condition        string           `json:"condition"`
	Images           []string         `json:"images,omitempty"`
	BasePrice        decimal.Decimal  `json:"basePrice"`
	MinAuctionAmount decimal.Decimal  `json:"minAuctionAmount"`
	CurrentBid       *decimal.Decimal `json:"currentBid,omitempty"`
	StartTime        time.Time        `json:"startTime"`
	EndTime          time.Time        `json:"endTime"`
	Status           Status           `json:"status"`
	Seller           shared.Party     `json:"seller"`
	Winner           *shared.Party    `json:"winner,omitempty"`
	PaymentStatus    PaymentStatus    `json:"paymentStatus,omitempty"`
	IsApproved       bool             `json:"isApproved"`
	Views            int              `json:"views"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// IsActive returns true if the auction is currently active
func (a *Auction) IsActive() bool {
	return a.Status == StatusActive
}

// IsCompleted returns true once the server has closed the auction
func (a *Auction) IsCompleted() bool {
	return a.Status == StatusCompleted
}

// HasEnded is the client's displayed assumption: the end time has passed.
// The server's status wins on the next fetch.
func (a *Auction) HasEnded(now time.Time) bool {
	return !now.Before(a.EndTime)
}

// HasBids reports whether any bid has been accepted
func (a *Auction) HasBids() bool {
	return a.CurrentBid != nil
}

// MinimumBid is the flat per-auction floor declared by the server.
func (a *Auction) MinimumBid() decimal.Decimal {
	return a.MinAuctionAmount
}

// IsSeller reports whether userID owns the auction
func (a *Auction) IsSeller(userID string) bool {
	return userID != "" && a.Seller.ID == userID
}

// IsWinner reports whether userID won the auction
func (a *Auction) IsWinner(userID string) bool {
	return userID != "" && a.Winner != nil && a.Winner.ID == userID
}

// AmountDue is what the winner pays: the highest accepted bid.
func (a *Auction) AmountDue() decimal.Decimal {
	if a.CurrentBid == nil {
		return decimal.Zero
	}
	return *a.CurrentBid
}

// Filter narrows the auction list
type Filter struct {
	Category string
	Status   Status
	Search   string
	Sort     string
}
