package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api", WithRequestsPerSecond(0))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c, srv
}

func TestSearchTrendingRepos(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search-trending-repos" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": 1, "full_name": "cli/cli", "stargazers_count": 35000, "relevance_score": 0.9,
				 "description": "GitHub CLI", "language": "Go", "html_url": "https://github.com/cli/cli"},
				{"id": 2, "full_name": "a/b", "stargazers_count": 120, "description": null, "language": null}
			],
			"has_more": true,
			"total_count": 57
		}`))
	})

	page, err := c.SearchTrendingRepos(context.Background(), model.SearchQuery{
		Filter: model.FilterGoodFirstIssue, Language: "Go", Page: 2,
	})
	if err != nil {
		t.Fatalf("SearchTrendingRepos() error = %v", err)
	}

	for _, want := range []string{"filter=good+first+issue", "language=Go", "page=2", "per_page=10"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
	if len(page.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(page.Items))
	}
	first := page.Items[0]
	if first.FullName != "cli/cli" || first.StarCount != 35000 || first.GetDescription() != "GitHub CLI" || first.Language != "Go" {
		t.Errorf("unexpected first item: %+v", first)
	}
	if page.Items[1].Description != nil || page.Items[1].Language != "" {
		t.Errorf("null fields should stay empty: %+v", page.Items[1])
	}
	if page.HasMore == nil || !*page.HasMore || page.TotalCount != 57 {
		t.Errorf("HasMore/TotalCount = %v/%d", page.HasMore, page.TotalCount)
	}
	if !page.MorePages(constants.PageSize) {
		t.Error("MorePages should honor upstream has_more")
	}
}

func TestSearchPageMorePagesFallback(t *testing.T) {
	full := &SearchPage{Items: make([]model.Repository, 10)}
	short := &SearchPage{Items: make([]model.Repository, 4)}
	no := false
	flagged := &SearchPage{Items: make([]model.Repository, 10), HasMore: &no}

	if !full.MorePages(10) {
		t.Error("full page without flag should have more")
	}
	if short.MorePages(10) {
		t.Error("short page without flag should not have more")
	}
	if flagged.MorePages(10) {
		t.Error("upstream has_more=false must win over page size")
	}
}

func TestSearchErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error field", 500, `{"error":"Failed to search trending repositories"}`, "Failed to search trending repositories"},
		{"message field", 502, `{"message":"bad gateway"}`, "bad gateway"},
		{"no body", 500, ``, ""},
		{"soft failure", 200, `{"items":[],"has_more":false,"error":"No bounty repos found (fallback failed)."}`, "No bounty repos found (fallback failed)."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.SearchTrendingRepos(context.Background(), model.SearchQuery{Filter: model.FilterBountyIssue, Page: 1})

			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FetchError, got %T %v", err, err)
			}
			if fe.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", fe.Message, tt.wantMsg)
			}
			if tt.wantMsg == "" && fe.UserMessage(constants.MsgSearchFailed) != constants.MsgSearchFailed {
				t.Errorf("UserMessage should fall back, got %q", fe.UserMessage(constants.MsgSearchFailed))
			}
		})
	}
}

func TestSearchEmptyPageIsNotAnError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	})
	page, err := c.SearchTrendingRepos(context.Background(), model.SearchQuery{Filter: model.FilterMajorIssue, Page: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 0 || page.HasMore != nil {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestListLabeledIssuesParams(t *testing.T) {
	tests := []struct {
		name    string
		filter  model.FilterKind
		want    map[string]string
		missing []string
	}{
		{
			name:   "good first",
			filter: model.FilterGoodFirstIssue,
			want: map[string]string{
				"labels":  "good first issue,good-first-issue,Good first issue,help wanted,help-wanted,beginner,beginner-friendly,easy,E-easy,newcomer,first-timers-only,up-for-grabs,low-hanging-fruit",
				"state":   "open",
				"page":    "1",
				"perPage": "50",
			},
			missing: []string{"bountySignals"},
		},
		{
			name:    "bounty",
			filter:  model.FilterBountyIssue,
			want:    map[string]string{"bountySignals": "true", "state": "open", "perPage": "50"},
			missing: []string{"labels"},
		},
		{
			name:    "major",
			filter:  model.FilterMajorIssue,
			want:    map[string]string{"state": "open", "perPage": "50"},
			missing: []string{"labels", "bountySignals"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("repo") != "cli/cli" {
					t.Errorf("repo = %q", q.Get("repo"))
				}
				for k, v := range tt.want {
					if q.Get(k) != v {
						t.Errorf("%s = %q, want %q", k, q.Get(k), v)
					}
				}
				for _, k := range tt.missing {
					if q.Has(k) {
						t.Errorf("unexpected parameter %s", k)
					}
				}
				_, _ = w.Write([]byte(`{"issues":[]}`))
			})
			q := IssueQueryFor("cli/cli", tt.filter, constants.EnrichmentPerPage)
			if _, err := c.ListLabeledIssues(context.Background(), q); err != nil {
				t.Fatalf("ListLabeledIssues() error = %v", err)
			}
		})
	}
}

func TestListLabeledIssuesDecodes(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"issues":[{
			"id": 99, "number": 12, "title": "Add flag", "body": null,
			"labels": [{"name":"good first issue","color":"7057ff"}],
			"user": {"login":"octocat"},
			"created_at": "2025-02-01T10:00:00Z",
			"html_url": "https://github.com/cli/cli/issues/12"
		}]}`))
	})

	issues, err := c.ListLabeledIssues(context.Background(), IssueQueryFor("cli/cli", model.FilterGoodFirstIssue, 100))
	if err != nil {
		t.Fatalf("ListLabeledIssues() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues", len(issues))
	}
	is := issues[0]
	want := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	if is.Number != 12 || is.Author != "octocat" || is.Body != "" || !is.CreatedAt.Equal(want) {
		t.Errorf("unexpected issue: %+v", is)
	}
	if len(is.Labels) != 1 || is.Labels[0].Color != "7057ff" {
		t.Errorf("labels = %+v", is.Labels)
	}
}

func TestExplainIssue(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"success", `{"success":true,"explanation":"Adds a CLI flag."}`, "Adds a CLI flag.", false},
		{"not successful", `{"success":false,"error":"model overloaded"}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s", r.Method)
				}
				var req struct {
					Issue struct {
						Number int `json:"number"`
					} `json:"issue"`
					RepoName string `json:"repoName"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode: %v", err)
				}
				if req.RepoName != "cli/cli" || req.Issue.Number != 7 {
					t.Errorf("unexpected request: %+v", req)
				}
				_, _ = w.Write([]byte(tt.body))
			})
			got, err := c.ExplainIssue(context.Background(), "cli/cli", model.Issue{Number: 7, Title: "x"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExplainIssue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExplainIssue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimitedResponse(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.ListLabeledIssues(context.Background(), IssueQueryFor("a/b", model.FilterMajorIssue, 50))
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if !c.RateLimit().Limited {
		t.Error("state should be limited after 429")
	}

	// Further requests fail fast without reaching the server.
	_, err = c.ListLabeledIssues(context.Background(), IssueQueryFor("a/b", model.FilterMajorIssue, 50))
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1", calls.Load())
	}
}

func TestRateLimitHeadersTracked(t *testing.T) {
	reset := time.Now().Add(time.Hour).Unix()
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "42")
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
		_, _ = w.Write([]byte(`{"issues":[]}`))
	})

	if _, err := c.ListLabeledIssues(context.Background(), IssueQueryFor("a/b", model.FilterMajorIssue, 50)); err != nil {
		t.Fatal(err)
	}
	st := c.RateLimit()
	if !st.Known() || st.Remaining != 42 || st.Limit != 60 || st.Limited {
		t.Errorf("Status = %+v", st)
	}
}

func TestNewClientValidatesURL(t *testing.T) {
	if _, err := NewClient("ftp://example.com"); err == nil {
		t.Error("expected error for non-http scheme")
	}
	c, err := NewClient("")
	if err != nil {
		t.Fatalf("NewClient(\"\") error = %v", err)
	}
	if got := c.endpoint(EndpointSearch, nil); got != constants.DefaultAPIURL+"/search-trending-repos" {
		t.Errorf("endpoint = %q", got)
	}
}

func TestTransportHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr := NewTransport(nil, 1000, nil)
	tr.limiter.SetBurst(1)
	client := &http.Client{Transport: tr}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if _, err := client.Do(req); err == nil {
		t.Error("expected canceled context to stop the limiter wait")
	}
}
