package app

import (
	"context"
	"sync"

	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// Reviews caches the reviews received by one user
type Reviews struct {
	api     outbound.ReviewAPI
	session *Session
	logger  zerolog.Logger

	mu     sync.RWMutex
	userID string
	items  []shared.Review

	viewState
}

type ReviewsParams struct {
	API     outbound.ReviewAPI
	Session *Session
	Logger  zerolog.Logger
}

// NewReviews creates a new reviews view-model
func NewReviews(params ReviewsParams) *Reviews {
	return &Reviews{
		api:     params.API,
		session: params.Session,
		logger:  params.Logger.With().Str("component", "reviews").Logger(),
	}
}

// FetchForUser lists reviews written about userID
func (r *Reviews) FetchForUser(ctx context.Context, userID string) ([]shared.Review, error) {
	r.begin()
	items, err := r.api.ReviewsForUser(ctx, userID)
	if err != nil {
		return nil, r.finish(err)
	}
	r.mu.Lock()
	r.userID = userID
	r.items = items
	r.mu.Unlock()
	return r.Items(), r.finish(nil)
}

// Create reviews a completed auction the viewer won
func (r *Reviews) Create(ctx context.Context, req inbound.ReviewRequest) (*shared.Review, error) {
	user, err := r.session.RequireUser()
	if err != nil {
		return nil, r.fail(err)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, r.fail(shared.NewValidationError("rating", shared.ErrRatingInvalid))
	}

	r.begin()
	review, err := r.api.CreateReview(ctx, req)
	if err != nil {
		r.logger.Warn().Err(err).Str("auction_id", req.AuctionID).Msg("Review rejected")
		return nil, r.finish(err)
	}

	r.mu.Lock()
	if r.userID == review.Reviewee {
		r.items = append([]shared.Review{*review}, r.items...)
	}
	r.mu.Unlock()

	r.logger.Info().Str("review_id", review.ID).Str("user_id", user.ID).Msg("Review created")
	return review, r.finish(nil)
}

func (r *Reviews) Update(ctx context.Context, id string, req inbound.ReviewRequest) (*shared.Review, error) {
	if _, err := r.session.RequireUser(); err != nil {
		return nil, r.fail(err)
	}
	if req.Rating != 0 && (req.Rating < 1 || req.Rating > 5) {
		return nil, r.fail(shared.NewValidationError("rating", shared.ErrRatingInvalid))
	}

	r.begin()
	review, err := r.api.UpdateReview(ctx, id, req)
	if err != nil {
		return nil, r.finish(err)
	}
	r.mu.Lock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i] = *review
		}
	}
	r.mu.Unlock()
	return review, r.finish(nil)
}

func (r *Reviews) Delete(ctx context.Context, id string) error {
	if _, err := r.session.RequireUser(); err != nil {
		return r.fail(err)
	}

	r.begin()
	if err := r.api.DeleteReview(ctx, id); err != nil {
		return r.finish(err)
	}
	r.mu.Lock()
	kept := r.items[:0:0]
	for _, item := range r.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	r.items = kept
	r.mu.Unlock()
	return r.finish(nil)
}

// MarkHelpful adopts the server's new count
func (r *Reviews) MarkHelpful(ctx context.Context, id string) (int, error) {
	if _, err := r.session.RequireUser(); err != nil {
		return 0, r.fail(err)
	}

	r.begin()
	count, err := r.api.MarkReviewHelpful(ctx, id)
	if err != nil {
		return 0, r.finish(err)
	}
	r.mu.Lock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Helpful = count
		}
	}
	r.mu.Unlock()
	return count, r.finish(nil)
}

func (r *Reviews) Items() []shared.Review {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]shared.Review, len(r.items))
	copy(out, r.items)
	return out
}
