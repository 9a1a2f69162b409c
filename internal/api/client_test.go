package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Client header tests ---

func TestClient_Headers(t *testing.T) {
	var gotUA, gotUser, gotPass, gotPath string
	var gotAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotUser, gotPass, gotAuth = r.BasicAuth()
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "iago@example.com", "secret-key")
	resp, err := c.Get(context.Background(), "/test")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "narrowlink-cli/test", gotUA)
	assert.True(t, gotAuth)
	assert.Equal(t, "iago@example.com", gotUser)
	assert.Equal(t, "secret-key", gotPass)
	assert.Equal(t, "/api/v1/test", gotPath)
}

func TestClient_NoCredentials(t *testing.T) {
	var gotAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, gotAuth = r.BasicAuth()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "iago@example.com", "")
	assert.False(t, c.Authenticated())

	resp, err := c.Get(context.Background(), "/test")
	require.NoError(t, err)
	resp.Body.Close()

	assert.False(t, gotAuth)
}

func TestClient_PostForm(t *testing.T) {
	var gotCT, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "", "")
	resp, err := c.Post(context.Background(), "/test", url.Values{"anchor": {"newest"}})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "application/x-www-form-urlencoded", gotCT)
	assert.Equal(t, "anchor=newest", gotBody)
}

// --- Retry transport tests ---

func TestRetryTransport_Success(t *testing.T) {
	var callCount atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		callCount.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "", "")
	resp, err := c.Get(context.Background(), "/ok")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(1), callCount.Load())
}

func TestRetryTransport_RetryOn5xx(t *testing.T) {
	var callCount atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := callCount.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "", "")
	resp, err := c.Get(context.Background(), "/retry")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), callCount.Load())
}

func TestRetryTransport_RetryOn429(t *testing.T) {
	var callCount atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := callCount.Add(1)
		if n < 2 {
			w.Header().Set("Retry-After", "0.01")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "", "")
	resp, err := c.Get(context.Background(), "/rate-limit")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), callCount.Load())
}

func TestRetryTransport_NoRetryOn4xx(t *testing.T) {
	var callCount atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		callCount.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "", "")
	resp, err := c.Get(context.Background(), "/bad")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), callCount.Load())
}

func TestRetryTransport_MaxRetries(t *testing.T) {
	var callCount atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		callCount.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "", "")
	resp, err := c.Get(context.Background(), "/always-fail")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	// initial + 3 retries = 4 calls
	assert.Equal(t, int32(4), callCount.Load())
}

func TestRetryTransport_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		http: &http.Client{
			Transport: &retryTransport{
				base:       http.DefaultTransport,
				maxRetries: 3,
				baseDelay:  500 * time.Millisecond,
			},
		},
		baseURL:   srv.URL + apiPrefix,
		userAgent: "narrowlink-cli/test",
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	resp, err := c.Get(ctx, "/cancel")
	if resp != nil {
		resp.Body.Close()
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")
}

func TestRetryTransport_Delay(t *testing.T) {
	rt := &retryTransport{baseDelay: time.Second, maxDelay: 5 * time.Second}

	tests := []struct {
		name       string
		attempt    int
		retryAfter string
		want       time.Duration
	}{
		{"first", 0, "", time.Second},
		{"second", 1, "", 2 * time.Second},
		{"capped", 4, "", 5 * time.Second},
		{"retry-after", 0, "3", 3 * time.Second},
		{"fractional retry-after", 2, "0.5", 500 * time.Millisecond},
		{"retry-after capped", 0, "120", 5 * time.Second},
		{"garbage retry-after", 1, "soon", 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rt.delay(tt.attempt, tt.retryAfter))
		})
	}
}

// --- Context round-trip tests ---

func TestWithClient_RoundTrip(t *testing.T) {
	c, err := NewClient(ClientOptions{Realm: "https://chat.example.com"})
	require.NoError(t, err)

	ctx := WithClient(context.Background(), c)
	assert.Same(t, c, ClientFromContext(ctx))
}

func TestClientFromContext_Nil(t *testing.T) {
	assert.Nil(t, ClientFromContext(context.Background()))
}

// --- ShouldRetry tests ---

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{200, false},
		{301, false},
		{400, false},
		{401, false},
		{404, false},
		{429, true},
		{500, true},
		{501, true},
		{502, true},
		{503, true},
		{504, true},
		{505, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, shouldRetry(tt.code), "status %d", tt.code)
	}
}

func TestRetryTransport_PostBodyPreserved(t *testing.T) {
	var bodies []string
	var callCount atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		n := callCount.Add(1)
		if n < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "", "")
	resp, err := c.Post(context.Background(), "/post", url.Values{"content": {"hello"}})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(2), callCount.Load())
	require.Len(t, bodies, 2)
	assert.Equal(t, "content=hello", bodies[0])
	assert.Equal(t, bodies[0], bodies[1])
}

func TestLoggingTransport_WrapsBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &Client{
		http: &http.Client{
			Transport: &loggingTransport{
				base: &retryTransport{
					base:       http.DefaultTransport,
					maxRetries: 0,
					baseDelay:  1 * time.Millisecond,
				},
			},
		},
		baseURL:   srv.URL + apiPrefix,
		userAgent: "narrowlink-cli/test",
	}

	resp, err := c.Get(context.Background(), "/log")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// --- NewClient ---

func TestNewClient_RequiresRealm(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.ErrorIs(t, err, ErrNoServer)
}

func TestNewClient_BaseURL(t *testing.T) {
	c, err := NewClient(ClientOptions{Realm: "https://chat.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com/api/v1", c.baseURL)
}

func TestNewClient_DefaultUserAgent(t *testing.T) {
	c, err := NewClient(ClientOptions{Realm: "https://chat.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "narrowlink-cli/dev", c.userAgent)
}

// --- helpers ---

func newTestClient(serverURL, email, apiKey string) *Client {
	return &Client{
		http: &http.Client{
			Transport: &retryTransport{
				base:       http.DefaultTransport,
				maxRetries: 3,
				baseDelay:  1 * time.Millisecond,
			},
		},
		baseURL:   strings.TrimRight(serverURL, "/") + apiPrefix,
		email:     email,
		apiKey:    apiKey,
		userAgent: "narrowlink-cli/test",
	}
}
