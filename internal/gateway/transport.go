package gateway

import (
	"net/http"
	"path"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/log"
	"github.com/spiffcs/scout/internal/metrics"
)

// Transport wraps an http.RoundTripper to pace outgoing requests, honor
// upstream rate limits and record request metrics.
type Transport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
	state   *RateLimitState
}

// NewTransport wraps base. A non-positive rps disables pacing; a nil base
// uses http.DefaultTransport.
func NewTransport(base http.RoundTripper, rps float64, state *RateLimitState) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if state == nil {
		state = NewRateLimitState()
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Transport{
		base:    base,
		limiter: rate.NewLimiter(limit, constants.DefaultRequestBurst),
		state:   state,
	}
}

// State returns the rate limit state the transport updates.
func (t *Transport) State() *RateLimitState {
	return t.state
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Check if we're already rate limited before making the request
	if t.state.IsLimited() {
		return nil, ErrRateLimited
	}

	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	endpoint := path.Base(req.URL.Path)
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return resp, err
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	remaining, limit, resetAt := parseRateLimitHeaders(resp.Header)
	if remaining >= 0 && limit > 0 {
		t.state.Update(remaining, limit, resetAt)
	}

	if remaining <= constants.RateLimitLowWatermark && remaining > 0 {
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	if resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0") {
		if resetAt.IsZero() {
			resetAt = retryAfter(resp.Header, time.Now())
		}
		t.state.SetLimited(resetAt)
		_ = resp.Body.Close()
		return nil, ErrRateLimited
	}

	return resp, nil
}
