package app

import (
	"context"
	"sync"
	"time"

	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/bid"
	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
)

// BidViewModel holds one auction and its bids as last fetched from the
// server. The winning flag is never derived locally; it is read from the
// server payload after each re-fetch.
type BidViewModel struct {
	bids     outbound.BidAPI
	auctions outbound.AuctionAPI
	session  *Session
	clock    func() time.Time
	logger   zerolog.Logger

	mu         sync.RWMutex
	generation uint64
	auctionID  string
	auction    *auction.Auction
	list       []bid.Bid
	myBids     []bid.Bid
	input      decimal.Decimal

	viewState
}

type BidViewModelParams struct {
	Bids     outbound.BidAPI
	Auctions outbound.AuctionAPI
	Session  *Session
	Clock    func() time.Time
	Logger   zerolog.Logger
}

// NewBidViewModel creates a new bid view-model
func NewBidViewModel(params BidViewModelParams) *BidViewModel {
	return &BidViewModel{
		bids:     params.Bids,
		auctions: params.Auctions,
		session:  params.Session,
		clock:    clockOrNow(params.Clock),
		logger:   params.Logger.With().Str("component", "bid_view_model").Logger(),
	}
}

// Load fetches the auction and its bids concurrently and replaces both
// wholesale. A result that arrives after Reset or after another auction was
// loaded is dropped.
func (vm *BidViewModel) Load(ctx context.Context, auctionID string) error {
	vm.mu.Lock()
	if vm.auctionID != auctionID {
		vm.generation++
		vm.auctionID = auctionID
		vm.auction = nil
		vm.list = nil
	}
	gen := vm.generation
	vm.mu.Unlock()

	return vm.fetch(ctx, gen, auctionID)
}

// Reload re-fetches the auction already bound to the view-model. It does
// nothing once the view-model was reset or moved to another auction.
func (vm *BidViewModel) Reload(ctx context.Context, auctionID string) error {
	vm.mu.Lock()
	if auctionID == "" || vm.auctionID != auctionID {
		vm.mu.Unlock()
		vm.logger.Debug().Str("auction_id", auctionID).Msg("Skipping reload of unbound auction")
		return nil
	}
	gen := vm.generation
	vm.mu.Unlock()

	return vm.fetch(ctx, gen, auctionID)
}

func (vm *BidViewModel) fetch(ctx context.Context, gen uint64, auctionID string) error {
	vm.begin()

	var (
		a       *auction.Auction
		list    []bid.Bid
		aErr    error
		bidsErr error
	)
	var wg conc.WaitGroup
	wg.Go(func() { a, aErr = vm.auctions.GetAuction(ctx, auctionID) })
	wg.Go(func() { list, bidsErr = vm.bids.BidsForAuction(ctx, auctionID) })
	wg.Wait()

	vm.mu.Lock()
	if gen != vm.generation {
		vm.mu.Unlock()
		// loading and lastErr belong to whatever superseded this fetch
		vm.logger.Debug().Str("auction_id", auctionID).Msg("Dropping stale fetch")
		return nil
	}
	if aErr == nil {
		vm.auction = a
	}
	if bidsErr == nil {
		vm.list = list
	}
	vm.mu.Unlock()

	if aErr != nil {
		vm.logger.Warn().Err(aErr).Str("auction_id", auctionID).Msg("Failed to fetch auction")
		return vm.finish(aErr)
	}
	if bidsErr != nil {
		vm.logger.Warn().Err(bidsErr).Str("auction_id", auctionID).Msg("Failed to fetch bids")
		return vm.finish(bidsErr)
	}

	if err := bid.CheckWinning(list); err != nil {
		vm.logger.Warn().Err(err).Str("auction_id", auctionID).Msg("Server bid list is inconsistent")
	}
	vm.logger.Debug().
		Str("auction_id", auctionID).
		Str("status", string(a.Status)).
		Int("bids", len(list)).
		Msg("Auction reconciled")
	return vm.finish(nil)
}

// Reset forgets the loaded auction. Fetches still in flight become no-ops.
func (vm *BidViewModel) Reset() {
	vm.mu.Lock()
	vm.generation++
	vm.auctionID = ""
	vm.auction = nil
	vm.list = nil
	vm.input = decimal.Zero
	vm.mu.Unlock()
	vm.clear()
}

// SetInput stores the amount the viewer is typing
func (vm *BidViewModel) SetInput(amount decimal.Decimal) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.input = amount
}

func (vm *BidViewModel) Input() decimal.Decimal {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.input
}

// Submit places the viewer's bid or replaces its amount. Every local
// rejection happens before a request is sent. On success the input is
// cleared; the bid list and winning flag change only on the next re-fetch.
func (vm *BidViewModel) Submit(ctx context.Context, amount decimal.Decimal) (*bid.Bid, error) {
	user, err := vm.session.RequireUser()
	if err != nil {
		return nil, vm.fail(err)
	}

	vm.mu.RLock()
	loaded := vm.auction
	var a auction.Auction
	if loaded != nil {
		a = *loaded
	}
	existing, hasBid := bid.ViewerBid(vm.list, user.ID)
	vm.mu.RUnlock()

	if err := vm.precheck(user, loaded != nil, a, amount); err != nil {
		vm.logger.Debug().
			Err(err).
			Str("auction_id", a.ID).
			Str("amount", amount.String()).
			Msg("Bid rejected locally")
		return nil, vm.fail(err)
	}

	vm.begin()

	var placed *bid.Bid
	if hasBid {
		vm.logger.Info().
			Str("auction_id", a.ID).
			Str("bid_id", existing.ID).
			Str("user_id", user.ID).
			Str("previous_amount", existing.Amount.String()).
			Str("amount", amount.String()).
			Msg("Updating bid")
		placed, err = vm.bids.UpdateBid(ctx, existing.ID, inbound.UpdateBidRequest{Amount: amount})
	} else {
		vm.logger.Info().
			Str("auction_id", a.ID).
			Str("user_id", user.ID).
			Str("amount", amount.String()).
			Msg("Placing bid")
		placed, err = vm.bids.PlaceBid(ctx, inbound.PlaceBidRequest{AuctionID: a.ID, Amount: amount})
	}
	if err != nil {
		vm.logger.Warn().Err(err).Str("auction_id", a.ID).Msg("Bid rejected by server")
		return nil, vm.finish(err)
	}

	vm.mu.Lock()
	vm.input = decimal.Zero
	vm.mu.Unlock()

	vm.logger.Info().Str("auction_id", a.ID).Str("bid_id", placed.ID).Msg("Bid accepted")
	return placed, vm.finish(nil)
}

func (vm *BidViewModel) precheck(user shared.User, loaded bool, a auction.Auction, amount decimal.Decimal) error {
	switch {
	case !loaded:
		return shared.NewValidationError("auction", shared.ErrAuctionNotLoaded)
	case !user.Permissions.CanBid:
		return shared.NewValidationError("permissions", shared.ErrBiddingNotAllowed)
	case a.IsSeller(user.ID):
		return shared.NewValidationError("auction", shared.ErrBidOnOwnAuction)
	case a.HasEnded(vm.clock()) || a.IsCompleted() || a.Status == auction.StatusCancelled:
		return shared.NewValidationError("auction", shared.ErrAuctionEnded)
	case !amount.IsPositive():
		return shared.NewValidationError("amount", shared.ErrBidAmountInvalid)
	case amount.LessThan(a.MinimumBid()):
		return shared.NewValidationError("amount", shared.ErrBidBelowFloor)
	}
	return nil
}

// FetchMyBids lists every bid the viewer has placed
func (vm *BidViewModel) FetchMyBids(ctx context.Context) ([]bid.Bid, error) {
	if _, err := vm.session.RequireUser(); err != nil {
		return nil, vm.fail(err)
	}

	vm.begin()
	list, err := vm.bids.MyBids(ctx)
	if err != nil {
		return nil, vm.finish(err)
	}
	vm.mu.Lock()
	vm.myBids = list
	vm.mu.Unlock()
	return bid.SortForDisplay(list), vm.finish(nil)
}

// MyBids is the last FetchMyBids result
func (vm *BidViewModel) MyBids() []bid.Bid {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return bid.SortForDisplay(vm.myBids)
}

func (vm *BidViewModel) AuctionID() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.auctionID
}

// Auction is the loaded auction, if any
func (vm *BidViewModel) Auction() (auction.Auction, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.auction == nil {
		return auction.Auction{}, false
	}
	return *vm.auction, true
}

// Bids is the loaded list ordered highest first
func (vm *BidViewModel) Bids() []bid.Bid {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return bid.SortForDisplay(vm.list)
}

// ViewerBid is the session user's bid on the loaded auction
func (vm *BidViewModel) ViewerBid() (bid.Bid, bool) {
	userID := vm.session.UserID()
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return bid.ViewerBid(vm.list, userID)
}

// WinningBid is the bid the server flagged as winning
func (vm *BidViewModel) WinningBid() (bid.Bid, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return bid.Winning(vm.list)
}

// MinimumBid is the loaded auction's floor, zero before a load
func (vm *BidViewModel) MinimumBid() decimal.Decimal {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.auction == nil {
		return decimal.Zero
	}
	return vm.auction.MinimumBid()
}

// Mode is the path the next Submit takes
func (vm *BidViewModel) Mode() bid.Mode {
	if _, ok := vm.ViewerBid(); ok {
		return bid.ModeUpdate
	}
	return bid.ModePlace
}

// IsViewerWinning reads the server's winning flag on the viewer's bid
func (vm *BidViewModel) IsViewerWinning() bool {
	b, ok := vm.ViewerBid()
	return ok && b.IsWinning
}

// CanBid reports whether the bid form should be offered at now
func (vm *BidViewModel) CanBid(now time.Time) bool {
	user, err := vm.session.RequireUser()
	if err != nil || !user.Permissions.CanBid {
		return false
	}
	a, ok := vm.Auction()
	if !ok {
		return false
	}
	return a.IsActive() && !a.HasEnded(now) && !a.IsSeller(user.ID)
}
