package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"aucto-auction-client/internal/adapters/scheduler"
	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/bid"
	"aucto-auction-client/internal/domain/countdown"
	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DetailView is the auction detail screen. While mounted it joins the
// auction's live room, treats newBid and auctionEnded as a signal to
// re-fetch, and keeps the countdown label current.
type DetailView struct {
	bids      *BidViewModel
	wishlist  *Wishlist
	live      outbound.LiveChannel
	session   *Session
	countdown *scheduler.Countdown
	recorder  outbound.SnapshotRecorder
	logger    zerolog.Logger

	onRefresh func(auction.Auction, []bid.Bid)
	onTick    func(countdown.Countdown)

	mu         sync.Mutex
	mounted    bool
	generation uint64
	auctionID  string
	ctx        context.Context
	cancel     context.CancelFunc
	room       outbound.Room
	presence   int
	inWishlist bool
}

type DetailViewParams struct {
	Bids     *BidViewModel
	Wishlist *Wishlist
	Live     outbound.LiveChannel
	Session  *Session
	// Tick and Clock drive the countdown
	Tick     time.Duration
	Clock    func() time.Time
	Recorder outbound.SnapshotRecorder
	Logger   zerolog.Logger

	// OnRefresh runs after every reconciled fetch
	OnRefresh func(auction.Auction, []bid.Bid)
	// OnTick runs whenever the countdown label changes
	OnTick func(countdown.Countdown)
}

// NewDetailView creates an unmounted detail view
func NewDetailView(params DetailViewParams) *DetailView {
	logger := params.Logger.With().Str("component", "detail_view").Logger()
	return &DetailView{
		bids:     params.Bids,
		wishlist: params.Wishlist,
		live:     params.Live,
		session:  params.Session,
		countdown: scheduler.NewCountdown(scheduler.CountdownParams{
			Tick:   params.Tick,
			Clock:  params.Clock,
			Logger: params.Logger,
		}),
		recorder:  params.Recorder,
		logger:    logger,
		onRefresh: params.OnRefresh,
		onTick:    params.OnTick,
	}
}

// Mount loads the auction, then joins its room and starts the countdown.
// Only a failed load is fatal; the view works without the live channel.
func (v *DetailView) Mount(ctx context.Context, auctionID string) error {
	v.Unmount()

	v.mu.Lock()
	v.generation++
	gen := v.generation
	v.auctionID = auctionID
	v.mounted = true
	v.presence = 0
	v.inWishlist = false
	v.ctx, v.cancel = context.WithCancel(context.Background())
	v.mu.Unlock()

	v.logger.Info().Str("auction_id", auctionID).Msg("Mounting auction view")

	if err := v.bids.Load(ctx, auctionID); err != nil {
		v.logger.Warn().Err(err).Str("auction_id", auctionID).Msg("Initial load failed")
		v.Unmount()
		return err
	}
	a, _ := v.bids.Auction()

	if v.session != nil && v.session.IsAuthenticated() {
		if v.wishlist != nil {
			in := v.wishlist.CheckStatus(ctx, auctionID)
			v.mu.Lock()
			if v.alive(gen) {
				v.inWishlist = in
			}
			v.mu.Unlock()
		}
		v.join(ctx, gen, auctionID)
	}

	if !v.isAlive(gen) {
		return nil
	}
	v.countdown.Start(a.EndTime, v.tick)
	v.afterRefresh(gen)
	return nil
}

func (v *DetailView) join(ctx context.Context, gen uint64, auctionID string) {
	if v.live == nil {
		return
	}
	room, err := v.live.Join(ctx, auctionID, func(e outbound.Event) { v.handleEvent(gen, e) })
	if err != nil {
		v.logger.Warn().Err(err).Str("auction_id", auctionID).Msg("Live channel unavailable")
		return
	}

	v.mu.Lock()
	if !v.alive(gen) {
		v.mu.Unlock()
		_ = room.Leave()
		return
	}
	v.room = room
	v.mu.Unlock()
}

// handleEvent reacts to one live event. Events for another auction, or that
// arrive after Unmount, are ignored.
func (v *DetailView) handleEvent(gen uint64, e outbound.Event) {
	v.mu.Lock()
	if !v.alive(gen) || e.AuctionID != v.auctionID {
		v.mu.Unlock()
		v.logger.Debug().Str("event", string(e.Type)).Str("auction_id", e.AuctionID).Msg("Ignoring event")
		return
	}

	switch {
	case e.Type.IsPresence():
		v.presence = e.ActiveUsers
		v.mu.Unlock()
		return
	case e.Type.IsInvalidation():
		ctx := v.ctx
		v.mu.Unlock()
		v.logger.Debug().Str("event", string(e.Type)).Str("auction_id", e.AuctionID).Msg("Server state changed")
		if err := v.refresh(ctx, gen); err != nil && !errors.Is(err, context.Canceled) {
			v.logger.Warn().Err(err).Str("auction_id", e.AuctionID).Msg("Re-fetch after event failed")
		}
	default:
		v.mu.Unlock()
	}
}

// Refresh re-fetches the auction and its bids
func (v *DetailView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	gen := v.generation
	mounted := v.mounted
	v.mu.Unlock()
	if !mounted {
		return nil
	}
	return v.refresh(ctx, gen)
}

func (v *DetailView) refresh(ctx context.Context, gen uint64) error {
	id := v.AuctionID()
	if !v.isAlive(gen) {
		return nil
	}
	if err := v.bids.Reload(ctx, id); err != nil {
		return err
	}
	v.afterRefresh(gen)
	return nil
}

func (v *DetailView) afterRefresh(gen uint64) {
	if !v.isAlive(gen) {
		return
	}
	a, ok := v.bids.Auction()
	if !ok {
		return
	}
	list := v.bids.Bids()
	v.countdown.SetEnd(a.EndTime)

	if v.recorder != nil {
		if err := v.recorder.Record(context.Background(), a, list); err != nil {
			v.logger.Warn().Err(err).Str("auction_id", a.ID).Msg("Failed to archive snapshot")
		}
	}
	if v.onRefresh != nil {
		v.onRefresh(a, list)
	}
}

func (v *DetailView) tick(c countdown.Countdown) {
	if v.onTick != nil {
		v.onTick(c)
	}
}

// PlaceBid submits the viewer's bid, echoes it to other viewers and
// re-fetches so the list shows the server's verdict.
func (v *DetailView) PlaceBid(ctx context.Context, amount decimal.Decimal) (*bid.Bid, error) {
	v.mu.Lock()
	gen := v.generation
	mounted := v.mounted
	room := v.room
	v.mu.Unlock()
	if !mounted {
		return nil, v.bids.fail(shared.NewValidationError("auction", shared.ErrAuctionNotLoaded))
	}

	placed, err := v.bids.Submit(ctx, amount)
	if err != nil {
		return nil, err
	}

	if room != nil {
		echo := outbound.BidEcho{Amount: placed.Amount.String(), Bidder: placed.Bidder}
		if err := room.EmitBidPlaced(echo); err != nil {
			v.logger.Debug().Err(err).Msg("Bid echo not sent")
		}
	}

	if err := v.refresh(ctx, gen); err != nil {
		v.logger.Warn().Err(err).Str("auction_id", placed.AuctionID).Msg("Re-fetch after bid failed")
	}
	return placed, nil
}

// ToggleWishlist flips the wishlist membership of the mounted auction
func (v *DetailView) ToggleWishlist(ctx context.Context) (bool, error) {
	if v.wishlist == nil {
		return false, nil
	}
	id := v.AuctionID()
	in, err := v.wishlist.Toggle(ctx, id)
	if err != nil {
		return v.InWishlist(), err
	}
	v.mu.Lock()
	v.inWishlist = in
	v.mu.Unlock()
	return in, nil
}

// Unmount stops the countdown and leaves the room. It is safe to call more
// than once; leaveAuction is emitted at most once per mount.
func (v *DetailView) Unmount() {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = false
	v.generation++
	room := v.room
	v.room = nil
	id := v.auctionID
	if v.cancel != nil {
		v.cancel()
	}
	v.mu.Unlock()

	v.countdown.Stop()
	if room != nil {
		if err := room.Leave(); err != nil {
			v.logger.Debug().Err(err).Str("auction_id", id).Msg("Leave not delivered")
		}
	}
	v.bids.Reset()
	v.logger.Info().Str("auction_id", id).Msg("Auction view unmounted")
}

func (v *DetailView) AuctionID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.auctionID
}

func (v *DetailView) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// Presence is the last viewer count the room reported
func (v *DetailView) Presence() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.presence
}

func (v *DetailView) InWishlist() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inWishlist
}

// RoomState is disconnected when no room is joined
func (v *DetailView) RoomState() outbound.RoomState {
	v.mu.Lock()
	room := v.room
	v.mu.Unlock()
	if room == nil {
		return outbound.RoomDisconnected
	}
	return room.State()
}

// Countdown is the last evaluated label
func (v *DetailView) Countdown() countdown.Countdown {
	return v.countdown.Current()
}

func (v *DetailView) Bids() *BidViewModel {
	return v.bids
}

func (v *DetailView) alive(gen uint64) bool {
	return v.mounted && v.generation == gen
}

func (v *DetailView) isAlive(gen uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.alive(gen)
}
