package gateway

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitState tracks the upstream's reported rate limit.
type RateLimitState struct {
	mu        sync.RWMutex
	limited   bool
	resetAt   time.Time
	remaining int
	limit     int
}

// NewRateLimitState returns a state with unknown limits.
func NewRateLimitState() *RateLimitState {
	return &RateLimitState{remaining: -1, limit: -1}
}

// IsLimited returns true if we are currently rate limited.
func (s *RateLimitState) IsLimited() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limited && time.Now().Before(s.resetAt)
}

// SetLimited marks the state limited until resetAt.
func (s *RateLimitState) SetLimited(resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limited = true
	s.resetAt = resetAt
}

// Update records the values from response headers.
func (s *RateLimitState) Update(remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = remaining
	s.limit = limit
	s.resetAt = resetAt
	s.limited = remaining == 0
}

// Status is a point-in-time view of the rate limit.
type Status struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
	Limited   bool
}

// Known reports whether the upstream has reported any limits.
func (s Status) Known() bool {
	return s.Limit > 0
}

// Status returns the current rate limit status.
func (s *RateLimitState) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Remaining: s.remaining,
		Limit:     s.limit,
		ResetAt:   s.resetAt,
		Limited:   s.limited && time.Now().Before(s.resetAt),
	}
}

// parseRateLimitHeaders extracts rate limit info from response headers.
// Missing values come back as -1 and the zero time.
func parseRateLimitHeaders(h http.Header) (remaining, limit int, resetAt time.Time) {
	remaining, limit = -1, -1

	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			remaining = n
		}
	}
	if v := h.Get("X-RateLimit-Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			resetAt = time.Unix(n, 0)
		}
	}
	return remaining, limit, resetAt
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header, now time.Time) time.Time {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return now.Add(time.Duration(secs) * time.Second)
		}
	}
	return now.Add(time.Minute)
}
