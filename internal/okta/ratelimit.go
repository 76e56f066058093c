package okta

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"mcp-okta-support/pkg/logging"
)

// rateLimitWindow is the trailing window the local request budget applies to.
const rateLimitWindow = time.Minute

// Okta rate limit response headers.
const (
	headerRateLimitLimit     = "X-Rate-Limit-Limit"
	headerRateLimitRemaining = "X-Rate-Limit-Remaining"
	headerRateLimitReset     = "X-Rate-Limit-Reset"
)

// RateLimiter admits API calls under a combined local and server-declared
// quota. The local policy is a sliding window of request timestamps capped at
// requestsPerMinute; the server policy is the limit/remaining/reset triple
// reported by Okta response headers. All mutable state is guarded by mu;
// sleeps happen outside the lock so a throttled caller never blocks others.
type RateLimiter struct {
	requestsPerMinute int

	mu     sync.Mutex
	window []time.Time

	// Server-declared quota, updated best-effort from response headers.
	limit     int
	remaining int
	resetTime time.Time

	// now is overridable in tests.
	now func() time.Time
}

// RateLimitSnapshot is a read-only view of the limiter state.
type RateLimitSnapshot struct {
	RequestsPerMinute int       `json:"requests_per_minute"`
	WindowSize        int       `json:"window_size"`
	ServerLimit       int       `json:"server_limit"`
	ServerRemaining   int       `json:"server_remaining"`
	ServerReset       time.Time `json:"server_reset"`
}

// NewRateLimiter creates a limiter admitting at most requestsPerMinute calls
// in any trailing 60 second window.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		limit:             requestsPerMinute,
		remaining:         requestsPerMinute,
		resetTime:         time.Now().Add(rateLimitWindow),
		now:               time.Now,
	}
}

// prune drops window entries older than the trailing window. Callers must
// hold mu.
func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rateLimitWindow)
	i := 0
	for i < len(r.window) && !r.window[i].After(cutoff) {
		i++
	}
	if i > 0 {
		r.window = append(r.window[:0], r.window[i:]...)
	}
}

// nextDelay computes how long the caller must wait before admission, given
// the current window and server quota. Zero means admit immediately. Callers
// must hold mu.
func (r *RateLimiter) nextDelay(now time.Time) time.Duration {
	if len(r.window) >= r.requestsPerMinute {
		if d := rateLimitWindow - now.Sub(r.window[0]); d > 0 {
			return d
		}
	}
	if r.remaining <= 0 && now.Before(r.resetTime) {
		return r.resetTime.Sub(now)
	}
	return 0
}

// Acquire blocks the calling goroutine until a request may be issued, then
// records its timestamp in the window. It returns early with the context's
// error if ctx is cancelled while waiting; no timestamp is committed for a
// cancelled acquisition.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := r.now()
		r.prune(now)
		delay := r.nextDelay(now)
		if delay <= 0 {
			r.window = append(r.window, now)
			r.mu.Unlock()
			return nil
		}
		windowLen := len(r.window)
		r.mu.Unlock()

		logging.Warn("RateLimit", "rate limit reached, sleeping %.1fs (window %d/%d)",
			delay.Seconds(), windowLen, r.requestsPerMinute)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		// Re-prune and re-check under the lock on the next iteration.
	}
}

// UpdateFromResponse refreshes the server-declared quota from Okta rate limit
// headers. Parsing is best-effort per header: a malformed value is logged and
// leaves the corresponding field unchanged. It never returns an error.
func (r *RateLimiter) UpdateFromResponse(headers http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v := headers.Get(headerRateLimitLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			r.limit = n
		} else {
			logging.Debug("RateLimit", "ignoring malformed %s header: %q", headerRateLimitLimit, v)
		}
	}
	if v := headers.Get(headerRateLimitRemaining); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			r.remaining = n
		} else {
			logging.Debug("RateLimit", "ignoring malformed %s header: %q", headerRateLimitRemaining, v)
		}
	}
	if v := headers.Get(headerRateLimitReset); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			r.resetTime = time.Unix(epoch, 0)
		} else {
			logging.Debug("RateLimit", "ignoring malformed %s header: %q", headerRateLimitReset, v)
		}
	}

	logging.Debug("RateLimit", "quota updated: limit=%d remaining=%d reset=%s",
		r.limit, r.remaining, r.resetTime.Format(time.RFC3339))
}

// Snapshot returns the current limiter state for introspection.
func (r *RateLimiter) Snapshot() RateLimitSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(r.now())
	return RateLimitSnapshot{
		RequestsPerMinute: r.requestsPerMinute,
		WindowSize:        len(r.window),
		ServerLimit:       r.limit,
		ServerRemaining:   r.remaining,
		ServerReset:       r.resetTime,
	}
}
