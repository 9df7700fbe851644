package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxResponseBytes = 8 << 20

var (
	_ outbound.AuctionAPI      = (*Client)(nil)
	_ outbound.BidAPI          = (*Client)(nil)
	_ outbound.UserAPI         = (*Client)(nil)
	_ outbound.WishlistAPI     = (*Client)(nil)
	_ outbound.NotificationAPI = (*Client)(nil)
	_ outbound.ReviewAPI       = (*Client)(nil)
	_ outbound.PaymentAPI      = (*Client)(nil)
	_ outbound.AdminAPI        = (*Client)(nil)
)

// TokenSource supplies the bearer credential for each request. An empty
// token sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client implements the outbound API ports against the REST server
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  zerolog.Logger
}

type ClientParams struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Tokens     TokenSource
	Logger     zerolog.Logger
}

// NewClient creates a new REST client
func NewClient(params ClientParams) *Client {
	httpClient := params.HTTPClient
	if httpClient == nil {
		timeout := params.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: params.BaseURL,
		http:    httpClient,
		tokens:  params.Tokens,
		logger:  params.Logger.With().Str("component", "api_client").Logger(),
	}
}

// envelope is the server's response wrapper. Most endpoints fill Data; a few
// put their payload in a dedicated top-level field.
type envelope struct {
	Success    *bool           `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	InWishlist bool            `json:"inWishlist"`
	Action     string          `json:"action"`
	Order      json.RawMessage `json:"order"`
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	form   *multipartForm
}

type multipartForm struct {
	fields    map[string]string
	fileField string
	files     []shared.Upload
}

// do sends the request and maps every failure onto the error taxonomy.
func (c *Client) do(ctx context.Context, req request) (*envelope, error) {
	op := req.method + " " + req.path

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", op, err)
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Str("op", op).Msg("Request failed before a response")
		return nil, &shared.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &shared.NetworkError{Op: op, Err: err}
	}

	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Request completed")

	env := &envelope{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, env); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("decode %s: %w", op, err)
		}
	}

	if err := statusError(resp.StatusCode, env, req.path); err != nil {
		return nil, err
	}
	return env, nil
}

func statusError(status int, env *envelope, path string) error {
	message := env.Message
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized:
		return &shared.AuthError{Err: errors.New(message)}
	case status == http.StatusNotFound:
		return &shared.NotFoundError{Resource: path, Message: env.Message}
	case status >= 400:
		return &shared.ServerRejection{StatusCode: status, Message: message}
	case env.Success != nil && !*env.Success:
		return &shared.ServerRejection{StatusCode: status, Message: message}
	}
	return nil
}

func encodeBody(req request) (io.Reader, string, error) {
	switch {
	case req.form != nil:
		return encodeMultipart(req.form)
	case req.body != nil:
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
	return nil, "", nil
}

func encodeMultipart(form *multipartForm) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for name, value := range form.fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	for _, file := range form.files {
		part, err := w.CreateFormFile(form.fileField, file.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// decodeData unmarshals the envelope's data field into out
func decodeData(env *envelope, out any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
