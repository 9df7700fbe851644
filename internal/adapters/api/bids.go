package api

import (
	"context"
	"net/http"

	"aucto-auction-client/internal/domain/bid"
	"aucto-auction-client/internal/ports/inbound"
)

func (c *Client) BidsForAuction(ctx context.Context, auctionID string) ([]bid.Bid, error) {
	return c.bidList(ctx, request{method: http.MethodGet, path: "/bids/auction/" + escape(auctionID)})
}

func (c *Client) MyBids(ctx context.Context) ([]bid.Bid, error) {
	return c.bidList(ctx, request{method: http.MethodGet, path: "/bids/my-bids"})
}

// PlaceBid creates the viewer's first bid on an auction
func (c *Client) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*bid.Bid, error) {
	return c.bidOne(ctx, request{method: http.MethodPost, path: "/bids", body: req})
}

// UpdateBid replaces the amount of the viewer's existing bid
func (c *Client) UpdateBid(ctx context.Context, bidID string, req inbound.UpdateBidRequest) (*bid.Bid, error) {
	return c.bidOne(ctx, request{method: http.MethodPut, path: "/bids/" + escape(bidID), body: req})
}

func (c *Client) bidList(ctx context.Context, req request) ([]bid.Bid, error) {
	env, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	bids := []bid.Bid{}
	if err := decodeData(env, &bids); err != nil {
		return nil, err
	}
	return bids, nil
}

func (c *Client) bidOne(ctx context.Context, req request) (*bid.Bid, error) {
	env, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var b bid.Bid
	if err := decodeData(env, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
