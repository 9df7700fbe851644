package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"
)

// Wishlist

func (c *Client) Wishlist(ctx context.Context) ([]shared.WishlistItem, error) {
	env, err := c.do(ctx, request{method: http.MethodGet, path: "/wishlist"})
	if err != nil {
		return nil, err
	}
	items := []shared.WishlistItem{}
	if err := decodeData(env, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) AddToWishlist(ctx context.Context, auctionID string) (*shared.WishlistItem, error) {
	env, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/wishlist",
		body:   map[string]string{"auctionId": auctionID},
	})
	if err != nil {
		return nil, err
	}
	var item shared.WishlistItem
	if err := decodeData(env, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) RemoveFromWishlist(ctx context.Context, auctionID string) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: "/wishlist/" + escape(auctionID)})
	return err
}

func (c *Client) InWishlist(ctx context.Context, auctionID string) (bool, error) {
	env, err := c.do(ctx, request{method: http.MethodGet, path: "/wishlist/check/" + escape(auctionID)})
	if err != nil {
		return false, err
	}
	return env.InWishlist, nil
}

func (c *Client) ToggleWishlist(ctx context.Context, auctionID string) (inbound.WishlistAction, error) {
	env, err := c.do(ctx, request{method: http.MethodPut, path: "/wishlist/toggle/" + escape(auctionID)})
	if err != nil {
		return "", err
	}
	action := inbound.WishlistAction(env.Action)
	if action != inbound.WishlistAdded && action != inbound.WishlistRemoved {
		return "", fmt.Errorf("unexpected wishlist action %q", env.Action)
	}
	return action, nil
}

// Notifications

func (c *Client) Notifications(ctx context.Context) ([]shared.Notification, error) {
	env, err := c.do(ctx, request{method: http.MethodGet, path: "/notifications"})
	if err != nil {
		return nil, err
	}
	notifications := []shared.Notification{}
	if err := decodeData(env, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{method: http.MethodPut, path: "/notifications/" + escape(id) + "/read"})
	return err
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodPut, path: "/notifications/read-all"})
	return err
}

// Reviews

func (c *Client) ReviewsForUser(ctx context.Context, userID string) ([]shared.Review, error) {
	env, err := c.do(ctx, request{method: http.MethodGet, path: "/reviews/user/" + escape(userID)})
	if err != nil {
		return nil, err
	}
	reviews := []shared.Review{}
	if err := decodeData(env, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (c *Client) CreateReview(ctx context.Context, req inbound.ReviewRequest) (*shared.Review, error) {
	return c.reviewOne(ctx, request{method: http.MethodPost, path: "/reviews", body: req})
}

func (c *Client) UpdateReview(ctx context.Context, id string, req inbound.ReviewRequest) (*shared.Review, error) {
	return c.reviewOne(ctx, request{method: http.MethodPut, path: "/reviews/" + escape(id), body: req})
}

func (c *Client) DeleteReview(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: "/reviews/" + escape(id)})
	return err
}

func (c *Client) MarkReviewHelpful(ctx context.Context, id string) (int, error) {
	env, err := c.do(ctx, request{method: http.MethodPut, path: "/reviews/" + escape(id) + "/helpful"})
	if err != nil {
		return 0, err
	}
	var payload struct {
		Helpful int `json:"helpful"`
	}
	if err := decodeData(env, &payload); err != nil {
		return 0, err
	}
	return payload.Helpful, nil
}

func (c *Client) reviewOne(ctx context.Context, req request) (*shared.Review, error) {
	env, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var r shared.Review
	if err := decodeData(env, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Payments

// CreatePaymentOrder opens an order for the checkout widget
func (c *Client) CreatePaymentOrder(ctx context.Context, req inbound.CreateOrderRequest) (*shared.PaymentOrder, error) {
	env, err := c.do(ctx, request{method: http.MethodPost, path: "/payments/create-order", body: req})
	if err != nil {
		return nil, err
	}
	if len(env.Order) == 0 {
		return nil, fmt.Errorf("create order: response carried no order")
	}
	var order shared.PaymentOrder
	if err := json.Unmarshal(env.Order, &order); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return &order, nil
}

// VerifyPayment forwards the widget's signed confirmation to the server
func (c *Client) VerifyPayment(ctx context.Context, confirmation shared.PaymentConfirmation) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/payments/verify", body: confirmation})
	return err
}
