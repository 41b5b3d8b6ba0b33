package gateway

import (
	"net/http"
	"testing"
	"time"
)

func TestParseRateLimitHeaders(t *testing.T) {
	tests := []struct {
		name          string
		headers       map[string]string
		wantRemaining int
		wantLimit     int
		wantReset     int64
	}{
		{"none", nil, -1, -1, 0},
		{"all", map[string]string{
			"X-RateLimit-Remaining": "10",
			"X-RateLimit-Limit":     "5000",
			"X-RateLimit-Reset":     "1700000000",
		}, 10, 5000, 1700000000},
		{"garbage", map[string]string{"X-RateLimit-Remaining": "many"}, -1, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			rem, lim, reset := parseRateLimitHeaders(h)
			if rem != tt.wantRemaining || lim != tt.wantLimit {
				t.Errorf("got remaining=%d limit=%d, want %d/%d", rem, lim, tt.wantRemaining, tt.wantLimit)
			}
			if tt.wantReset == 0 && !reset.IsZero() {
				t.Errorf("expected zero reset, got %v", reset)
			}
			if tt.wantReset != 0 && reset.Unix() != tt.wantReset {
				t.Errorf("reset = %d, want %d", reset.Unix(), tt.wantReset)
			}
		})
	}
}

func TestRateLimitStateExpires(t *testing.T) {
	s := NewRateLimitState()
	if s.IsLimited() || s.Status().Known() {
		t.Fatal("fresh state must be unlimited and unknown")
	}

	s.SetLimited(time.Now().Add(-time.Second))
	if s.IsLimited() {
		t.Error("a limit whose reset passed must not block")
	}

	s.SetLimited(time.Now().Add(time.Minute))
	if !s.IsLimited() {
		t.Error("expected limited state")
	}

	s.Update(100, 5000, time.Now().Add(time.Hour))
	if s.IsLimited() {
		t.Error("Update with remaining > 0 must clear the limit")
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h := http.Header{}
	if got := retryAfter(h, now); !got.Equal(now.Add(time.Minute)) {
		t.Errorf("default retryAfter = %v", got)
	}
	h.Set("Retry-After", "5")
	if got := retryAfter(h, now); !got.Equal(now.Add(5 * time.Second)) {
		t.Errorf("retryAfter = %v", got)
	}
}
