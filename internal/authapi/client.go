// Package authapi is the HTTP client for the diary backend's
// authentication endpoints.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexandernizov/moodiary/internal/domain"
)

const (
	loginPath    = "/login"
	registerPath = "/register"

	maxErrorBody = 4 << 10
)

var (
	// ErrTransport means the request never produced an HTTP response.
	ErrTransport = errors.New("auth api unreachable")
	// ErrRejected means the server answered with a non-success status.
	ErrRejected = errors.New("auth api rejected request")
	// ErrMalformedResponse means a success status carried an unusable body.
	ErrMalformedResponse = errors.New("auth api returned malformed response")
)

// StatusError describes a non-success response. It matches ErrRejected.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", ErrRejected, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrRejected, e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrRejected
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

type Client struct {
	log     *slog.Logger
	baseURL string
	http    *http.Client
}

func New(baseURL string, options ...func(*Client)) *Client {
	c := &Client{
		log:     slog.Default(),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func WithLogger(log *slog.Logger) func(*Client) {
	return func(c *Client) {
		c.log = log
	}
}

// WithHTTPClient uses a copy of client, so later options never change the
// caller's value. A nil client keeps the default.
func WithHTTPClient(client *http.Client) func(*Client) {
	return func(c *Client) {
		if client == nil {
			return
		}
		cp := *client
		c.http = &cp
	}
}

func WithTimeout(timeout time.Duration) func(*Client) {
	return func(c *Client) {
		cp := *c.http
		cp.Timeout = timeout
		c.http = &cp
	}
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (LoginResponse, error) {
	const op = "authapi.Login"

	resp, err := c.post(ctx, loginPath, creds)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	var out LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return LoginResponse{}, fmt.Errorf("%s: %w: %w", op, ErrMalformedResponse, err)
	}
	if out.AccessToken == "" {
		return LoginResponse{}, fmt.Errorf("%s: %w: access_token is empty", op, ErrMalformedResponse)
	}
	return out, nil
}

// Register creates an account. The response body is not consumed.
func (c *Client) Register(ctx context.Context, creds domain.Credentials) error {
	const op = "authapi.Register"

	resp, err := c.post(ctx, registerPath, creds)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// post returns the response only for 2xx statuses; the caller closes the body.
func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.log.Debug("auth api request", slog.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: readMessage(resp.Body)}
	}
	return resp, nil
}

// readMessage extracts the backend's {"message": "..."} error text if any.
func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Message
}
