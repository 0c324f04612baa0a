// Package backend is a client of the backend-as-a-service REST API: generic
// record CRUD, an object-storage bucket and the auth endpoint family.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pictora/pictora/internal/session"
)

var log = logrus.WithField("layer", "backend")

// ErrUnauthorized returned when the backend rejects the stored credentials.
// By the time the caller sees it the session store has already been wiped
// and the unauthorized handler invoked.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotFound ...
var ErrNotFound = errors.New("not found")

// UnauthorizedHandler is the navigation signal raised on an authentication
// failure, in place of the browser client's forced redirect to the login page.
type UnauthorizedHandler func()

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend responded with %d: %s", e.Status, e.Message)
}

// Client ...
type Client struct {
	baseURL string
	http    *http.Client
	session session.Store

	onUnauthorized UnauthorizedHandler
}

// Option ...
type Option func(c *Client)

// WithHTTPClient overrides the underlying http client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithUnauthorizedHandler sets the handler invoked after a 401 wiped the session.
func WithUnauthorizedHandler(f UnauthorizedHandler) Option {
	return func(c *Client) { c.onUnauthorized = f }
}

// New creates a backend client. Every request carries a bearer token when the
// session store holds one.
func New(baseURL string, s session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: s,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, nil, out)
}

// PostJSON issues a POST with a JSON body and decodes the JSON response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	return c.do(ctx, http.MethodPost, path, nil, nil, bytes.NewReader(b), out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, header http.Header, body io.Reader, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range header {
		req.Header[k] = v
	}

	if t := c.session.Token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	// JSON by default, multipart bodies bring their own content type
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.dropSession()
		return ErrUnauthorized
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &Error{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// dropSession wipes the stored credentials and raises the navigation signal.
// This is the only cross-cutting error policy in the client.
func (c *Client) dropSession() {
	if err := c.session.Clear(); err != nil {
		log.WithError(err).Error("failed to clear session")
	}

	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func readErrorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 1024))
	if err != nil {
		return ""
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &body); err == nil && body.Message != "" {
		return body.Message
	}

	return string(bytes.TrimSpace(b))
}
