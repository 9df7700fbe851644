package bid

import (
	"fmt"
	"sort"
	"time"

	"aucto-auction-client/internal/domain/shared"

	"github.com/shopspring/decimal"
)

// Bid represents a bid on an auction
type Bid struct {
	ID        string          `json:"_id"`
	AuctionID string          `json:"auction"`
	Bidder    shared.Party    `json:"bidder"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
	IsWinning bool            `json:"isWinning"`
	IsOutbid  bool            `json:"isOutbid"`
}

// IsValid returns true if the bid amount is valid (greater than 0)
func (b *Bid) IsValid() bool {
	return b.Amount.IsPositive()
}

// PlacedBy reports whether userID owns this bid
func (b *Bid) PlacedBy(userID string) bool {
	return userID != "" && b.Bidder.ID == userID
}

// Mode is the submission path a viewer takes
type Mode string

const (
	ModePlace  Mode = "place"
	ModeUpdate Mode = "update"
)

// SortForDisplay returns a copy ordered by amount, highest first. Equal
// amounts keep the server's order.
func SortForDisplay(bids []Bid) []Bid {
	sorted := make([]Bid, len(bids))
	copy(sorted, bids)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.GreaterThan(sorted[j].Amount)
	})
	return sorted
}

// ViewerBid returns the single bid owned by userID, if any.
func ViewerBid(bids []Bid, userID string) (Bid, bool) {
	for _, b := range bids {
		if b.PlacedBy(userID) {
			return b, true
		}
	}
	return Bid{}, false
}

// Winning returns the bid the server flagged as winning.
func Winning(bids []Bid) (Bid, bool) {
	for _, b := range bids {
		if b.IsWinning {
			return b, true
		}
	}
	return Bid{}, false
}

// Highest returns the bid with the greatest amount.
func Highest(bids []Bid) (Bid, bool) {
	if len(bids) == 0 {
		return Bid{}, false
	}
	best := bids[0]
	for _, b := range bids[1:] {
		if b.Amount.GreaterThan(best.Amount) {
			best = b
		}
	}
	return best, true
}

// CheckWinning verifies the server payload: exactly one winning flag when
// bids exist, on a bid holding the maximum amount.
func CheckWinning(bids []Bid) error {
	if len(bids) == 0 {
		return nil
	}

	flagged := 0
	var winner Bid
	for _, b := range bids {
		if b.IsWinning {
			flagged++
			winner = b
		}
	}
	if flagged != 1 {
		return fmt.Errorf("expected exactly one winning bid, got %d", flagged)
	}

	highest, _ := Highest(bids)
	if !winner.Amount.Equal(highest.Amount) {
		return fmt.Errorf("winning bid %s (%s) is below highest amount %s", winner.ID, winner.Amount, highest.Amount)
	}
	return nil
}
