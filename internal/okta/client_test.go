package okta

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient wires a client against an httptest server and counts how many
// requests actually reach the transport.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := newClientWithTransport(srv.URL, staticTokenProvider{token: "test-token"}, NewRateLimiter(1000), 2*time.Second)
	t.Cleanup(c.Close)
	return c, &hits
}

func TestRequestInjectsDefaultHeaders(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SSWS test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "mcp-okta-support/test", r.Header.Get("User-Agent"))
		assert.Equal(t, "/api/v1/users/u1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "u1"}`))
	})

	raw, err := c.Request(context.Background(), http.MethodGet, "/users/u1", nil, nil, nil)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "u1", body["id"])
}

func TestRequestHeaderOverride(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer custom", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.Request(context.Background(), http.MethodGet, "/users", nil, nil,
		map[string]string{"Authorization": "Bearer custom"})
	require.NoError(t, err)
}

func TestRequestQueryParams(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, `status eq "ACTIVE"`, r.URL.Query().Get("filter"))
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.Request(context.Background(), http.MethodGet, "/users",
		map[string]string{"limit": "25", "filter": `status eq "ACTIVE"`}, nil, nil)
	require.NoError(t, err)
}

func TestRequestEmptyBodyBecomesEmptyObject(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	raw, err := c.Request(context.Background(), http.MethodPost, "/users/u1/lifecycle/unlock", nil, nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestRequestRateLimited(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.Header().Set("X-Rate-Limit-Remaining", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errorSummary": "API call exceeded rate limit"}`))
	})

	_, err := c.Request(context.Background(), http.MethodGet, "/users", nil, nil, nil)
	require.Error(t, err)

	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindRateLimit, e.Kind)
	assert.Equal(t, 30, e.RetryAfter)

	// The dispatcher must not retry 429 responses.
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	// Server quota from the 429 response feeds the limiter.
	assert.Equal(t, 0, c.RateLimit().ServerRemaining)
}

func TestRequestRateLimitedDefaultRetryAfter(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Request(context.Background(), http.MethodGet, "/users", nil, nil, nil)
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, defaultRetryAfterSeconds, e.RetryAfter)
}

func TestRequestClassifiesErrorResponses(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errorSummary": "Invalid token provided", "errorCode": "E0000011"}`))
	})

	_, err := c.Request(context.Background(), http.MethodGet, "/users", nil, nil, nil)
	require.True(t, IsAuthentication(err))

	e, _ := AsError(err)
	assert.Equal(t, "Invalid token provided", e.Message)
	assert.Equal(t, "E0000011", e.ErrorCode)
}

func TestRequestNonJSONErrorBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	})

	_, err := c.Request(context.Background(), http.MethodGet, "/users", nil, nil, nil)
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindAPI, e.Kind)
	assert.Equal(t, "upstream unavailable", e.Message)
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	c := newClientWithTransport(srv.URL, staticTokenProvider{token: "t"}, NewRateLimiter(1000), 50*time.Millisecond)
	t.Cleanup(c.Close)

	_, err := c.Request(context.Background(), http.MethodGet, "/users", nil, nil, nil)
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindAPI, e.Kind)
	assert.Equal(t, http.StatusRequestTimeout, e.Status)
	assert.Contains(t, e.Message, "request timeout after")
}

func TestRequestContextCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	c := newClientWithTransport(srv.URL, staticTokenProvider{token: "t"}, NewRateLimiter(1000), 5*time.Second)
	t.Cleanup(c.Close)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.Request(ctx, http.MethodGet, "/users", nil, nil, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRequestUpdatesLimiterOnSuccess(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Rate-Limit-Limit", "600")
		w.Header().Set("X-Rate-Limit-Remaining", "599")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.Request(context.Background(), http.MethodGet, "/users", nil, nil, nil)
	require.NoError(t, err)

	snapshot := c.RateLimit()
	assert.Equal(t, 600, snapshot.ServerLimit)
	assert.Equal(t, 599, snapshot.ServerRemaining)
}

func TestRequestPagedExposesLinks(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Link", `<https://acme.okta.com/api/v1/users?after=100>; rel="next"`)
		w.Header().Add("Link", `<https://acme.okta.com/api/v1/users>; rel="self"`)
		_, _ = w.Write([]byte(`[]`))
	})

	_, links, err := c.RequestPaged(context.Background(), http.MethodGet, "/users", nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, links.HasMore())
	assert.Equal(t, "https://acme.okta.com/api/v1/users?after=100", links.Next())
}

// failingProvider simulates a credentials provider that cannot produce a
// token.
type failingProvider struct{}

func (failingProvider) Authorization(context.Context) (string, error) {
	return "", &Error{Kind: KindAuthentication, Message: "failed to obtain OAuth access token"}
}

func TestRequestCredentialsFailure(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	t.Cleanup(srv.Close)

	c := newClientWithTransport(srv.URL, failingProvider{}, NewRateLimiter(1000), time.Second)
	t.Cleanup(c.Close)

	_, err := c.Request(context.Background(), http.MethodGet, "/users", nil, nil, nil)
	require.True(t, IsAuthentication(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestCloseIdempotent(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	c.Close()
	c.Close()
}
