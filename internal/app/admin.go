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

// AdminConsole holds the moderation queues. Every operation requires an
// admin session.
type AdminConsole struct {
	api      outbound.AdminAPI
	auctions outbound.AuctionAPI
	session  *Session
	logger   zerolog.Logger

	mu            sync.RWMutex
	pending       []auction.Auction
	users         []shared.User
	verifications []shared.PendingVerification

	viewState
}

type AdminConsoleParams struct {
	API      outbound.AdminAPI
	Auctions outbound.AuctionAPI
	Session  *Session
	Logger   zerolog.Logger
}

// NewAdminConsole creates a new admin console
func NewAdminConsole(params AdminConsoleParams) *AdminConsole {
	return &AdminConsole{
		api:      params.API,
		auctions: params.Auctions,
		session:  params.Session,
		logger:   params.Logger.With().Str("component", "admin_console").Logger(),
	}
}

func (c *AdminConsole) requireAdmin() error {
	if _, err := c.session.RequireUser(); err != nil {
		return err
	}
	if !c.session.IsAdmin() {
		return &shared.AuthError{Err: shared.ErrAdminRequired}
	}
	return nil
}

// PendingAuctions lists auctions awaiting approval
func (c *AdminConsole) PendingAuctions(ctx context.Context) ([]auction.Auction, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, c.fail(err)
	}

	c.begin()
	list, err := c.api.PendingAuctions(ctx)
	if err != nil {
		return nil, c.finish(err)
	}
	c.mu.Lock()
	c.pending = list
	c.mu.Unlock()
	return cloneAuctions(list), c.finish(nil)
}

// ApproveAuction publishes a listing and removes it from the queue
func (c *AdminConsole) ApproveAuction(ctx context.Context, id string) error {
	if err := c.requireAdmin(); err != nil {
		return c.fail(err)
	}

	c.begin()
	if err := c.auctions.ApproveAuction(ctx, id); err != nil {
		c.logger.Warn().Err(err).Str("auction_id", id).Msg("Approval failed")
		return c.finish(err)
	}
	c.mu.Lock()
	c.pending = removeAuction(c.pending, id)
	c.mu.Unlock()

	c.logger.Info().Str("auction_id", id).Msg("Auction approved")
	return c.finish(nil)
}

func (c *AdminConsole) Users(ctx context.Context) ([]shared.User, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, c.fail(err)
	}

	c.begin()
	users, err := c.api.Users(ctx)
	if err != nil {
		return nil, c.finish(err)
	}
	c.mu.Lock()
	c.users = users
	c.mu.Unlock()
	return append([]shared.User(nil), users...), c.finish(nil)
}

func (c *AdminConsole) UpdateUser(ctx context.Context, id string, req inbound.AdminUserUpdate) (*shared.User, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, c.fail(err)
	}

	c.begin()
	updated, err := c.api.UpdateUser(ctx, id, req)
	if err != nil {
		return nil, c.finish(err)
	}
	c.mu.Lock()
	for i := range c.users {
		if c.users[i].ID == id {
			c.users[i] = *updated
		}
	}
	c.mu.Unlock()

	c.logger.Info().Str("user_id", id).Msg("User updated")
	return updated, c.finish(nil)
}

func (c *AdminConsole) DeleteUser(ctx context.Context, id string) error {
	if err := c.requireAdmin(); err != nil {
		return c.fail(err)
	}

	c.begin()
	if err := c.api.DeleteUser(ctx, id); err != nil {
		return c.finish(err)
	}
	c.mu.Lock()
	kept := c.users[:0:0]
	for _, u := range c.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	c.users = kept
	c.mu.Unlock()

	c.logger.Info().Str("user_id", id).Msg("User deleted")
	return c.finish(nil)
}

func (c *AdminConsole) PendingVerifications(ctx context.Context) ([]shared.PendingVerification, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, c.fail(err)
	}

	c.begin()
	list, err := c.api.PendingVerifications(ctx)
	if err != nil {
		return nil, c.finish(err)
	}
	c.mu.Lock()
	c.verifications = list
	c.mu.Unlock()
	return append([]shared.PendingVerification(nil), list...), c.finish(nil)
}

// VerifyDocuments records the admin's decision and drops the user from the
// queue.
func (c *AdminConsole) VerifyDocuments(ctx context.Context, userID string, req inbound.VerifyDocumentsRequest) error {
	if err := c.requireAdmin(); err != nil {
		return c.fail(err)
	}
	if req.Status != shared.VerificationVerified && req.Status != shared.VerificationRejected {
		return c.fail(shared.NewValidationError("status", shared.ErrVerificationStatus))
	}

	c.begin()
	if err := c.api.VerifyDocuments(ctx, userID, req); err != nil {
		return c.finish(err)
	}
	c.mu.Lock()
	kept := c.verifications[:0:0]
	for _, p := range c.verifications {
		if p.User.ID != userID {
			kept = append(kept, p)
		}
	}
	c.verifications = kept
	c.mu.Unlock()

	c.logger.Info().Str("user_id", userID).Str("status", string(req.Status)).Msg("Documents reviewed")
	return c.finish(nil)
}

func (c *AdminConsole) Pending() []auction.Auction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAuctions(c.pending)
}

func (c *AdminConsole) Verifications() []shared.PendingVerification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]shared.PendingVerification(nil), c.verifications...)
}
