package app

import (
	"context"
	"sync"

	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// Wishlist caches the viewer's saved auctions
type Wishlist struct {
	api     outbound.WishlistAPI
	session *Session
	logger  zerolog.Logger

	mu    sync.RWMutex
	items []shared.WishlistItem

	viewState
}

type WishlistParams struct {
	API     outbound.WishlistAPI
	Session *Session
	Logger  zerolog.Logger
}

// NewWishlist creates a new wishlist view-model
func NewWishlist(params WishlistParams) *Wishlist {
	return &Wishlist{
		api:     params.API,
		session: params.Session,
		logger:  params.Logger.With().Str("component", "wishlist").Logger(),
	}
}

// Fetch replaces the cached list
func (w *Wishlist) Fetch(ctx context.Context) ([]shared.WishlistItem, error) {
	if _, err := w.session.RequireUser(); err != nil {
		return nil, w.fail(err)
	}

	w.begin()
	items, err := w.api.Wishlist(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Failed to fetch wishlist")
		return nil, w.finish(err)
	}
	w.mu.Lock()
	w.items = items
	w.mu.Unlock()
	return w.Items(), w.finish(nil)
}

// Add saves an auction and re-fetches so the entry carries its summary
func (w *Wishlist) Add(ctx context.Context, auctionID string) error {
	if _, err := w.session.RequireUser(); err != nil {
		return w.fail(err)
	}

	w.begin()
	if _, err := w.api.AddToWishlist(ctx, auctionID); err != nil {
		return w.finish(err)
	}
	w.finish(nil)

	_, err := w.Fetch(ctx)
	return err
}

// Remove deletes an auction and filters it out locally
func (w *Wishlist) Remove(ctx context.Context, auctionID string) error {
	if _, err := w.session.RequireUser(); err != nil {
		return w.fail(err)
	}

	w.begin()
	if err := w.api.RemoveFromWishlist(ctx, auctionID); err != nil {
		return w.finish(err)
	}
	w.drop(auctionID)
	return w.finish(nil)
}

// CheckStatus reports membership. Any failure reads as not saved.
func (w *Wishlist) CheckStatus(ctx context.Context, auctionID string) bool {
	if !w.session.IsAuthenticated() {
		return false
	}
	in, err := w.api.InWishlist(ctx, auctionID)
	if err != nil {
		w.logger.Debug().Err(err).Str("auction_id", auctionID).Msg("Wishlist check failed")
		return false
	}
	return in
}

// Toggle flips membership and reports whether the auction is now saved. An
// add re-fetches the list; a removal filters locally.
func (w *Wishlist) Toggle(ctx context.Context, auctionID string) (bool, error) {
	if _, err := w.session.RequireUser(); err != nil {
		return false, w.fail(err)
	}

	w.begin()
	action, err := w.api.ToggleWishlist(ctx, auctionID)
	if err != nil {
		return false, w.finish(err)
	}
	w.finish(nil)

	w.logger.Info().Str("auction_id", auctionID).Str("action", string(action)).Msg("Wishlist toggled")

	if action == inbound.WishlistRemoved {
		w.drop(auctionID)
		return false, nil
	}
	if _, err := w.Fetch(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Contains answers from the cached list only
func (w *Wishlist) Contains(auctionID string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, item := range w.items {
		if item.Auction.ID == auctionID {
			return true
		}
	}
	return false
}

func (w *Wishlist) Items() []shared.WishlistItem {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]shared.WishlistItem, len(w.items))
	copy(out, w.items)
	return out
}

func (w *Wishlist) drop(auctionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.items[:0:0]
	for _, item := range w.items {
		if item.Auction.ID != auctionID {
			kept = append(kept, item)
		}
	}
	w.items = kept
}
