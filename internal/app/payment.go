package app

import (
	"context"
	"sync"

	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// Payment drives the winner's checkout. The client never retries; a failed
// verification leaves the auction unpaid until the viewer tries again.
type Payment struct {
	api     outbound.PaymentAPI
	session *Session
	logger  zerolog.Logger

	mu    sync.RWMutex
	order *shared.PaymentOrder
	paid  map[string]bool

	viewState
}

type PaymentParams struct {
	API     outbound.PaymentAPI
	Session *Session
	Logger  zerolog.Logger
}

// NewPayment creates a new payment view-model
func NewPayment(params PaymentParams) *Payment {
	return &Payment{
		api:     params.API,
		session: params.Session,
		paid:    make(map[string]bool),
		logger:  params.Logger.With().Str("component", "payment").Logger(),
	}
}

// CreateOrder opens an order for the winning amount of a completed auction
func (p *Payment) CreateOrder(ctx context.Context, a auction.Auction) (*shared.PaymentOrder, error) {
	user, err := p.session.RequireUser()
	if err != nil {
		return nil, p.fail(err)
	}
	if !a.IsWinner(user.ID) {
		return nil, p.fail(shared.NewValidationError("auction", shared.ErrNotAuctionWinner))
	}

	p.begin()
	amount := a.AmountDue()
	p.logger.Info().
		Str("auction_id", a.ID).
		Str("user_id", user.ID).
		Str("amount", amount.String()).
		Msg("Creating payment order")

	order, err := p.api.CreatePaymentOrder(ctx, inbound.CreateOrderRequest{AuctionID: a.ID, Amount: amount})
	if err != nil {
		p.logger.Warn().Err(err).Str("auction_id", a.ID).Msg("Payment order rejected")
		return nil, p.finish(err)
	}

	p.mu.Lock()
	p.order = order
	p.mu.Unlock()
	return order, p.finish(nil)
}

// Verify hands the checkout confirmation to the server
func (p *Payment) Verify(ctx context.Context, confirmation shared.PaymentConfirmation) error {
	if _, err := p.session.RequireUser(); err != nil {
		return p.fail(err)
	}

	p.begin()
	if err := p.api.VerifyPayment(ctx, confirmation); err != nil {
		p.logger.Warn().Err(err).Str("order_id", confirmation.OrderID).Msg("Payment verification failed")
		return p.finish(err)
	}

	p.mu.Lock()
	p.paid[confirmation.AuctionID] = true
	p.order = nil
	p.mu.Unlock()

	p.logger.Info().Str("auction_id", confirmation.AuctionID).Str("payment_id", confirmation.PaymentID).Msg("Payment verified")
	return p.finish(nil)
}

// Order is the open order, if any
func (p *Payment) Order() (shared.PaymentOrder, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.order == nil {
		return shared.PaymentOrder{}, false
	}
	return *p.order, true
}

// Paid reports a payment verified in this process
func (p *Payment) Paid(auctionID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paid[auctionID]
}
