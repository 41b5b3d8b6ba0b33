// Package ghgateway is a FetchGateway that talks to the GitHub REST API
// directly instead of going through the dashboard API.
package ghgateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/gateway"
	"github.com/spiffcs/scout/internal/log"
)

// ErrExplainUnsupported is returned by ExplainIssue: GitHub has no
// explanation endpoint.
var ErrExplainUnsupported = errors.New("issue explanations are not available from the GitHub backend")

// Client wraps the GitHub API client
type Client struct {
	client    *gh.Client
	transport *gateway.Transport
}

// Ensure Client implements FetchGateway.
var _ gateway.FetchGateway = (*Client)(nil)

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL string
	rps     float64
	base    http.RoundTripper
}

// WithBaseURL points the client at another API root, such as GitHub
// Enterprise or a test server.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithRequestsPerSecond sets client-side pacing. Zero disables it.
func WithRequestsPerSecond(rps float64) Option {
	return func(o *options) { o.rps = rps }
}

// WithRoundTripper sets the transport under the auth and pacing layers.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// NewClient creates a GitHub-backed gateway. The token falls back to
// GITHUB_TOKEN; without one, requests are unauthenticated and share the much
// lower anonymous rate limit.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	o := options{rps: constants.DefaultRequestsPerSecond}
	for _, opt := range opts {
		opt(&o)
	}

	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	hc := &http.Client{Transport: o.base, Timeout: constants.HTTPTimeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		if o.base != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: o.base})
		}
		hc = oauth2.NewClient(ctx, ts)
		hc.Timeout = constants.HTTPTimeout
	} else {
		log.Warn("no GitHub token provided, using unauthenticated requests")
	}

	// Wrap transport with pacing and rate limit handling
	t := gateway.NewTransport(hc.Transport, o.rps, nil)
	hc.Transport = t

	client := gh.NewClient(hc)
	if o.baseURL != "" {
		u, err := url.Parse(o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API url %q: %w", o.baseURL, err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		client.BaseURL = u
	}

	return &Client{client: client, transport: t}, nil
}

// RateLimits fetches the current GitHub API rate limit status.
func (c *Client) RateLimits(ctx context.Context) (*gh.RateLimits, error) {
	limits, _, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limits: %w", err)
	}
	return limits, nil
}

// RateLimit returns the last rate limit status GitHub reported.
func (c *Client) RateLimit() gateway.Status {
	return c.transport.State().Status()
}

// fetchError converts a go-github error into the gateway's error type.
func fetchError(endpoint string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gateway.ErrRateLimited) {
		return &gateway.FetchError{Endpoint: endpoint, StatusCode: http.StatusTooManyRequests, Err: gateway.ErrRateLimited}
	}
	var rle *gh.RateLimitError
	if errors.As(err, &rle) {
		return &gateway.FetchError{Endpoint: endpoint, StatusCode: http.StatusForbidden, Message: rle.Message, Err: gateway.ErrRateLimited}
	}
	var er *gh.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return &gateway.FetchError{Endpoint: endpoint, StatusCode: er.Response.StatusCode, Message: er.Message, Err: err}
	}
	return &gateway.FetchError{Endpoint: endpoint, Err: err}
}
