package api

import (
	"context"
	"net/http"

	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"
)

func (c *Client) Login(ctx context.Context, req inbound.LoginRequest) (*inbound.AuthResult, error) {
	return c.authResult(ctx, request{method: http.MethodPost, path: "/users/login", body: req})
}

func (c *Client) Register(ctx context.Context, req inbound.RegisterRequest) (*inbound.AuthResult, error) {
	return c.authResult(ctx, request{method: http.MethodPost, path: "/users/register", body: req})
}

// Me returns the user the current token belongs to
func (c *Client) Me(ctx context.Context) (*shared.User, error) {
	return c.userOne(ctx, request{method: http.MethodGet, path: "/users/me"})
}

func (c *Client) UpdateProfile(ctx context.Context, req inbound.ProfileUpdate) (*shared.User, error) {
	return c.userOne(ctx, request{method: http.MethodPut, path: "/users/profile", body: req})
}

// UploadDocuments submits identity documents for admin verification
func (c *Client) UploadDocuments(ctx context.Context, number string, images []shared.Upload) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/users/upload-aadhaar",
		form: &multipartForm{
			fields:    map[string]string{"aadhaarNumber": number},
			fileField: "images",
			files:     images,
		},
	})
	return err
}

func (c *Client) Users(ctx context.Context) ([]shared.User, error) {
	env, err := c.do(ctx, request{method: http.MethodGet, path: "/admin/users"})
	if err != nil {
		return nil, err
	}
	users := []shared.User{}
	if err := decodeData(env, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, req inbound.AdminUserUpdate) (*shared.User, error) {
	return c.userOne(ctx, request{method: http.MethodPut, path: "/admin/users/" + escape(id), body: req})
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: "/admin/users/" + escape(id)})
	return err
}

func (c *Client) PendingVerifications(ctx context.Context) ([]shared.PendingVerification, error) {
	env, err := c.do(ctx, request{method: http.MethodGet, path: "/admin/pending-verifications"})
	if err != nil {
		return nil, err
	}
	pending := []shared.PendingVerification{}
	if err := decodeData(env, &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

func (c *Client) VerifyDocuments(ctx context.Context, userID string, req inbound.VerifyDocumentsRequest) error {
	_, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/admin/users/" + escape(userID) + "/verify-aadhaar",
		body:   req,
	})
	return err
}

func (c *Client) authResult(ctx context.Context, req request) (*inbound.AuthResult, error) {
	env, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var result inbound.AuthResult
	if err := decodeData(env, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) userOne(ctx context.Context, req request) (*shared.User, error) {
	env, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var u shared.User
	if err := decodeData(env, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
