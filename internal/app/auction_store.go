package app

import (
	"context"
	"sync"
	"time"

	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// AuctionStore caches auction lists. Every fetch replaces the cached copy.
type AuctionStore struct {
	api     outbound.AuctionAPI
	session *Session
	clock   func() time.Time
	logger  zerolog.Logger

	mu       sync.RWMutex
	auctions []auction.Auction
	current  *auction.Auction
	mine     []auction.Auction
	won      []auction.Auction

	viewState
}

type AuctionStoreParams struct {
	API     outbound.AuctionAPI
	Session *Session
	Clock   func() time.Time
	Logger  zerolog.Logger
}

// NewAuctionStore creates a new auction store
func NewAuctionStore(params AuctionStoreParams) *AuctionStore {
	return &AuctionStore{
		api:     params.API,
		session: params.Session,
		clock:   clockOrNow(params.Clock),
		logger:  params.Logger.With().Str("component", "auction_store").Logger(),
	}
}

// List fetches the public auction list
func (s *AuctionStore) List(ctx context.Context, filter auction.Filter) ([]auction.Auction, error) {
	s.begin()
	list, err := s.api.ListAuctions(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("category", filter.Category).Msg("Failed to list auctions")
		return nil, s.finish(err)
	}

	s.mu.Lock()
	s.auctions = list
	s.mu.Unlock()
	return cloneAuctions(list), s.finish(nil)
}

// Get fetches one auction and makes it current
func (s *AuctionStore) Get(ctx context.Context, id string) (*auction.Auction, error) {
	s.begin()
	a, err := s.api.GetAuction(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("auction_id", id).Msg("Failed to get auction")
		return nil, s.finish(err)
	}

	s.mu.Lock()
	current := *a
	s.current = &current
	s.mu.Unlock()
	return a, s.finish(nil)
}

// MyAuctions fetches the listings the viewer is selling
func (s *AuctionStore) MyAuctions(ctx context.Context) ([]auction.Auction, error) {
	if _, err := s.session.RequireUser(); err != nil {
		return nil, s.fail(err)
	}

	s.begin()
	list, err := s.api.MyAuctions(ctx)
	if err != nil {
		return nil, s.finish(err)
	}
	s.mu.Lock()
	s.mine = list
	s.mu.Unlock()
	return cloneAuctions(list), s.finish(nil)
}

// WonAuctions fetches the auctions the viewer won
func (s *AuctionStore) WonAuctions(ctx context.Context) ([]auction.Auction, error) {
	if _, err := s.session.RequireUser(); err != nil {
		return nil, s.fail(err)
	}

	s.begin()
	list, err := s.api.WonAuctions(ctx)
	if err != nil {
		return nil, s.finish(err)
	}
	s.mu.Lock()
	s.won = list
	s.mu.Unlock()
	return cloneAuctions(list), s.finish(nil)
}

// Create validates the draft locally, then uploads it. The new auction is
// pending approval and is prepended to the viewer's listings.
func (s *AuctionStore) Create(ctx context.Context, draft auction.Draft) (*auction.Auction, error) {
	user, err := s.session.RequireUser()
	if err != nil {
		return nil, s.fail(err)
	}
	if err := draft.Validate(s.clock()); err != nil {
		s.logger.Debug().Err(err).Msg("Auction draft rejected locally")
		return nil, s.fail(err)
	}
	if !user.Permissions.CanCreateAuction {
		s.logger.Warn().Str("user_id", user.ID).Msg("User may not create auctions")
		return nil, s.fail(shared.NewValidationError("permissions", shared.ErrCreateNotAllowed))
	}

	s.begin()
	s.logger.Info().
		Str("user_id", user.ID).
		Str("title", draft.Title).
		Str("base_price", draft.BasePrice.String()).
		Int("images", len(draft.Images)).
		Msg("Creating auction")

	created, err := s.api.CreateAuction(ctx, draft)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create auction")
		return nil, s.finish(err)
	}

	s.mu.Lock()
	s.mine = append([]auction.Auction{*created}, s.mine...)
	s.mu.Unlock()

	s.logger.Info().Str("auction_id", created.ID).Msg("Auction created")
	return created, s.finish(nil)
}

// Update edits a listing and replaces every cached copy of it
func (s *AuctionStore) Update(ctx context.Context, id string, req inbound.UpdateAuctionRequest) (*auction.Auction, error) {
	if _, err := s.session.RequireUser(); err != nil {
		return nil, s.fail(err)
	}

	s.begin()
	updated, err := s.api.UpdateAuction(ctx, id, req)
	if err != nil {
		return nil, s.finish(err)
	}

	s.mu.Lock()
	replaceAuction(s.auctions, *updated)
	replaceAuction(s.mine, *updated)
	if s.current != nil && s.current.ID == id {
		current := *updated
		s.current = &current
	}
	s.mu.Unlock()
	return updated, s.finish(nil)
}

// Delete removes a listing and drops it from the caches
func (s *AuctionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.session.RequireUser(); err != nil {
		return s.fail(err)
	}

	s.begin()
	if err := s.api.DeleteAuction(ctx, id); err != nil {
		return s.finish(err)
	}

	s.mu.Lock()
	s.auctions = removeAuction(s.auctions, id)
	s.mine = removeAuction(s.mine, id)
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()

	s.logger.Info().Str("auction_id", id).Msg("Auction deleted")
	return s.finish(nil)
}

func (s *AuctionStore) Auctions() []auction.Auction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAuctions(s.auctions)
}

func (s *AuctionStore) Current() (auction.Auction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return auction.Auction{}, false
	}
	return *s.current, true
}

func (s *AuctionStore) Mine() []auction.Auction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAuctions(s.mine)
}

func (s *AuctionStore) Won() []auction.Auction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAuctions(s.won)
}

func cloneAuctions(list []auction.Auction) []auction.Auction {
	if list == nil {
		return nil
	}
	out := make([]auction.Auction, len(list))
	copy(out, list)
	return out
}

func replaceAuction(list []auction.Auction, a auction.Auction) {
	for i := range list {
		if list[i].ID == a.ID {
			list[i] = a
		}
	}
}

func removeAuction(list []auction.Auction, id string) []auction.Auction {
	out := list[:0:0]
	for _, a := range list {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}
