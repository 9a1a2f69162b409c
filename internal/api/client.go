// Package api provides an HTTP client for the chat server's REST API.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoServer is returned by NewClient when no server URL is given.
var ErrNoServer = errors.New("api: no server URL")

// apiPrefix is where the REST API lives relative to the server origin.
const apiPrefix = "/api/v1"

// ClientOptions configures a new Client.
type ClientOptions struct {
	// Realm is the server origin, e.g. https://chat.example.com.
	Realm     string
	Email     string
	APIKey    string
	Verbose   bool
	UserAgent string
}

// Client wraps an HTTP client for REST API calls against one server.
type Client struct {
	http      *http.Client
	baseURL   string
	email     string
	apiKey    string
	userAgent string
}

// NewClient builds a Client with retry transport and optional verbose logging.
func NewClient(opts ClientOptions) (*Client, error) {
	realm := strings.TrimRight(strings.TrimSpace(opts.Realm), "/")
	if realm == "" {
		return nil, ErrNoServer
	}

	if _, err := url.Parse(realm); err != nil {
		return nil, fmt.Errorf("api: invalid server URL: %w", err)
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "narrowlink-cli/dev"
	}

	var transport http.RoundTripper = &retryTransport{
		base:       http.DefaultTransport,
		maxRetries: 3,
		baseDelay:  1 * time.Second,
		maxDelay:   30 * time.Second,
	}

	if opts.Verbose {
		transport = &loggingTransport{base: transport}
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		baseURL:   realm + apiPrefix,
		email:     opts.Email,
		apiKey:    opts.APIKey,
		userAgent: ua,
	}, nil
}

// Authenticated reports whether the client carries credentials.
func (c *Client) Authenticated() bool {
	return c.email != "" && c.apiKey != ""
}

// do executes an HTTP request with standard headers.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if c.Authenticated() {
		req.SetBasicAuth(c.email, c.apiKey)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	return resp, nil
}

// Get performs a GET request against the API.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request against the API with a form-encoded body.
func (c *Client) Post(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, strings.NewReader(form.Encode()))
}

type clientCtxKey struct{}

// WithClient stores a Client in the context.
func WithClient(ctx context.Context, cl *Client) context.Context {
	return context.WithValue(ctx, clientCtxKey{}, cl)
}

// ClientFromContext retrieves the Client from the context.
func ClientFromContext(ctx context.Context) *Client {
	if v := ctx.Value(clientCtxKey{}); v != nil {
		if cl, ok := v.(*Client); ok {
			return cl
		}
	}

	return nil
}
