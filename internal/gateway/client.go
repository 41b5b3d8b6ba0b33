package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/log"
	"github.com/spiffcs/scout/internal/model"
)

// Upstream endpoint names, relative to the base URL.
const (
	EndpointSearch  = "search-trending-repos"
	EndpointIssues  = "get-labeled-issues"
	EndpointExplain = "explain-issue"
)

// Client is the FetchGateway backed by the discovery dashboard API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	transport *Transport
}

// Ensure Client implements FetchGateway.
var _ FetchGateway = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	base http.RoundTripper
	rps  float64
}

// WithRoundTripper sets the transport under the pacing layer.
func WithRoundTripper(rt http.RoundTripper) ClientOption {
	return func(o *clientOptions) { o.base = rt }
}

// WithRequestsPerSecond sets client-side pacing. Zero disables it.
func WithRequestsPerSecond(rps float64) ClientOption {
	return func(o *clientOptions) { o.rps = rps }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	o := clientOptions{rps: constants.DefaultRequestsPerSecond}
	for _, opt := range opts {
		opt(&o)
	}

	if baseURL == "" {
		baseURL = constants.DefaultAPIURL
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}

	t := NewTransport(o.base, o.rps, nil)
	return &Client{
		baseURL:   u,
		transport: t,
		http: &http.Client{
			Transport: t,
			Timeout:   constants.HTTPTimeout,
		},
	}, nil
}

// RateLimit returns the last rate limit status the upstream reported.
func (c *Client) RateLimit() Status {
	return c.transport.State().Status()
}

func (c *Client) endpoint(name string, params url.Values) string {
	u := *c.baseURL
	u.Path = u.Path + "/" + name
	if params != nil {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

// SearchTrendingRepos fetches one primary page.
func (c *Client) SearchTrendingRepos(ctx context.Context, query model.SearchQuery) (*SearchPage, error) {
	params := url.Values{}
	params.Set("filter", query.Filter.String())
	params.Set("language", query.Language)
	params.Set("page", strconv.Itoa(query.Page))
	params.Set("per_page", strconv.Itoa(constants.PageSize))

	var body searchResponse
	if err := c.do(ctx, http.MethodGet, EndpointSearch, params, nil, &body); err != nil {
		return nil, err
	}

	page := &SearchPage{
		HasMore:    body.HasMore,
		TotalCount: body.TotalCount,
		Items:      make([]model.Repository, 0, len(body.Items)),
	}
	for _, w := range body.Items {
		page.Items = append(page.Items, w.toModel())
	}

	// An error field next to an empty page is a soft failure.
	if len(page.Items) == 0 {
		if msg := (errorBody{body.Error, body.Message}).text(); msg != "" {
			return nil, &FetchError{Endpoint: EndpointSearch, StatusCode: http.StatusOK, Message: msg}
		}
	}

	log.Debug("search page fetched", "filter", query.Filter, "language", query.Language,
		"page", query.Page, "items", len(page.Items))
	return page, nil
}

// ListLabeledIssues fetches open issues of one repository.
func (c *Client) ListLabeledIssues(ctx context.Context, query IssueQuery) ([]model.Issue, error) {
	params := url.Values{}
	params.Set("repo", query.Repo)
	if len(query.Labels) > 0 {
		params.Set("labels", strings.Join(query.Labels, ","))
	}
	state := query.State
	if state == "" {
		state = "open"
	}
	params.Set("state", state)
	params.Set("page", strconv.Itoa(max(query.Page, constants.FirstPage)))
	params.Set("perPage", strconv.Itoa(query.PerPage))
	if query.BountySignals {
		params.Set("bountySignals", "true")
	}

	var body issuesResponse
	if err := c.do(ctx, http.MethodGet, EndpointIssues, params, nil, &body); err != nil {
		return nil, err
	}

	issues := make([]model.Issue, 0, len(body.Issues))
	for _, w := range body.Issues {
		issues = append(issues, w.toModel())
	}
	log.Trace("issues fetched", "repo", query.Repo, "labels", len(query.Labels),
		"bounty", query.BountySignals, "count", len(issues))
	return issues, nil
}

// ExplainIssue requests an explanation. A response with success=false is
// returned as a FetchError.
func (c *Client) ExplainIssue(ctx context.Context, repoFullName string, issue model.Issue) (string, error) {
	req := explainRequest{Issue: issueToWire(issue), RepoName: repoFullName}

	var body explainResponse
	if err := c.do(ctx, http.MethodPost, EndpointExplain, nil, req, &body); err != nil {
		return "", err
	}
	if !body.Success {
		return "", &FetchError{Endpoint: EndpointExplain, StatusCode: http.StatusOK, Message: body.Error}
	}
	return body.Explanation, nil
}

// do performs one request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, name string, params url.Values, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", name, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(name, params), reqBody)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constants.UserAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Trace("upstream request", "method", method, "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			return &FetchError{Endpoint: name, StatusCode: http.StatusTooManyRequests, Err: ErrRateLimited}
		}
		return &FetchError{Endpoint: name, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Endpoint: name, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return &FetchError{Endpoint: name, StatusCode: resp.StatusCode, Message: eb.text()}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &FetchError{Endpoint: name, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
