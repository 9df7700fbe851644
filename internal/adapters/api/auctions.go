package api

import (
	"context"
	"net/http"
	"net/url"

	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/ports/inbound"
)

// ListAuctions retrieves auctions matching the filter
func (c *Client) ListAuctions(ctx context.Context, filter auction.Filter) ([]auction.Auction, error) {
	query := url.Values{}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Sort != "" {
		query.Set("sort", filter.Sort)
	}
	return c.auctionList(ctx, request{method: http.MethodGet, path: "/auctions", query: query})
}

// GetAuction retrieves an auction by ID
func (c *Client) GetAuction(ctx context.Context, id string) (*auction.Auction, error) {
	return c.auctionOne(ctx, request{method: http.MethodGet, path: "/auctions/" + escape(id)})
}

func (c *Client) MyAuctions(ctx context.Context) ([]auction.Auction, error) {
	return c.auctionList(ctx, request{method: http.MethodGet, path: "/auctions/myauctions"})
}

func (c *Client) WonAuctions(ctx context.Context) ([]auction.Auction, error) {
	return c.auctionList(ctx, request{method: http.MethodGet, path: "/auctions/won"})
}

// CreateAuction uploads the draft as multipart form data with its images
func (c *Client) CreateAuction(ctx context.Context, draft auction.Draft) (*auction.Auction, error) {
	return c.auctionOne(ctx, request{
		method: http.MethodPost,
		path:   "/auctions",
		form: &multipartForm{
			fields:    draft.Fields(),
			fileField: "images",
			files:     draft.Images,
		},
	})
}

func (c *Client) UpdateAuction(ctx context.Context, id string, req inbound.UpdateAuctionRequest) (*auction.Auction, error) {
	return c.auctionOne(ctx, request{method: http.MethodPut, path: "/auctions/" + escape(id), body: req})
}

func (c *Client) DeleteAuction(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: "/auctions/" + escape(id)})
	return err
}

// ApproveAuction is an admin action
func (c *Client) ApproveAuction(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{method: http.MethodPut, path: "/auctions/" + escape(id) + "/approve"})
	return err
}

// PendingAuctions lists auctions awaiting admin approval
func (c *Client) PendingAuctions(ctx context.Context) ([]auction.Auction, error) {
	return c.auctionList(ctx, request{method: http.MethodGet, path: "/admin/pending-auctions"})
}

func (c *Client) auctionList(ctx context.Context, req request) ([]auction.Auction, error) {
	env, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	auctions := []auction.Auction{}
	if err := decodeData(env, &auctions); err != nil {
		return nil, err
	}
	return auctions, nil
}

func (c *Client) auctionOne(ctx context.Context, req request) (*auction.Auction, error) {
	env, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var a auction.Auction
	if err := decodeData(env, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
