package ghgateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spiffcs/scout/internal/gateway"
	"github.com/spiffcs/scout/internal/model"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Setenv("GITHUB_TOKEN", "")
	c, err := NewClient(context.Background(), "test-token", WithBaseURL(srv.URL), WithRequestsPerSecond(0))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func repoJSON(id int, name, lang string, stars int) string {
	return fmt.Sprintf(`{"id":%d,"full_name":%q,"language":%q,"stargazers_count":%d,"html_url":"https://github.com/%s"}`,
		id, name, lang, stars, name)
}

func searchBody(total int, repos ...string) string {
	return fmt.Sprintf(`{"total_count":%d,"items":[%s]}`, total, strings.Join(repos, ","))
}

func TestSearchGoodFirstMergesQueries(t *testing.T) {
	var mu sync.Mutex
	var queries []string

	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query().Get("q")
		mu.Lock()
		queries = append(queries, q)
		mu.Unlock()

		if strings.Contains(q, "good-first-issues:>0") {
			_, _ = w.Write([]byte(searchBody(30, repoJSON(1, "a/one", "Go", 900), repoJSON(2, "a/two", "Go", 800))))
			return
		}
		_, _ = w.Write([]byte(searchBody(25, repoJSON(2, "a/two", "Go", 800), repoJSON(3, "a/three", "Go", 700))))
	})
	c := newTestClient(t, mux)

	page, err := c.SearchTrendingRepos(context.Background(), model.SearchQuery{
		Filter: model.FilterGoodFirstIssue, Language: "Go", Page: 1,
	})
	if err != nil {
		t.Fatalf("SearchTrendingRepos() error = %v", err)
	}

	if len(queries) != 2 {
		t.Fatalf("expected 2 searches, got %d", len(queries))
	}
	for _, q := range queries {
		for _, want := range []string{"is:public", "archived:false", "stars:>=100", "pushed:>=2024-01-01", "language:Go"} {
			if !strings.Contains(q, want) {
				t.Errorf("query %q missing %q", q, want)
			}
		}
	}

	var names []string
	for _, r := range page.Items {
		names = append(names, r.FullName)
	}
	if strings.Join(names, ",") != "a/one,a/two,a/three" {
		t.Errorf("merged items = %v", names)
	}
	if page.TotalCount != 55 {
		t.Errorf("TotalCount = %d, want 55", page.TotalCount)
	}
	if page.HasMore == nil || *page.HasMore {
		t.Errorf("3 items on a page of 10 must not have more")
	}
	if page.Items[0].RelevanceScore <= page.Items[1].RelevanceScore {
		t.Error("relevance must decrease with rank")
	}
}

func TestSearchMajorHasMore(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sort") != "stars" || r.URL.Query().Get("per_page") != "10" {
			t.Errorf("unexpected params %s", r.URL.RawQuery)
		}
		var repos []string
		for i := 0; i < 10; i++ {
			repos = append(repos, repoJSON(100+i, fmt.Sprintf("o/r%d", i), "Rust", 5000-i))
		}
		_, _ = w.Write([]byte(searchBody(5000, repos...)))
	})
	c := newTestClient(t, mux)

	page, err := c.SearchTrendingRepos(context.Background(), model.SearchQuery{Filter: model.FilterMajorIssue, Page: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 10 || page.HasMore == nil || !*page.HasMore {
		t.Errorf("expected full page with more, got %d items, hasMore=%v", len(page.Items), page.HasMore)
	}
}

func TestSearchBountyToleratesPartialFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		switch {
		case strings.Contains(q, "topic:bounty"):
			_, _ = w.Write([]byte(searchBody(1, repoJSON(1, "b/low", "", 150))))
		case strings.Contains(q, "bounty in:readme"):
			_, _ = w.Write([]byte(searchBody(1, repoJSON(2, "b/high", "", 9000))))
		default:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"Validation Failed"}`))
		}
	})
	c := newTestClient(t, mux)

	page, err := c.SearchTrendingRepos(context.Background(), model.SearchQuery{Filter: model.FilterBountyIssue, Page: 1})
	if err != nil {
		t.Fatalf("SearchTrendingRepos() error = %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].FullName != "b/high" {
		t.Errorf("expected star-sorted merge, got %+v", page.Items)
	}
}

func TestSearchFailureIsFetchError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Server Error"}`))
	})
	c := newTestClient(t, mux)

	_, err := c.SearchTrendingRepos(context.Background(), model.SearchQuery{Filter: model.FilterMajorIssue, Page: 1})
	var fe *gateway.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *gateway.FetchError, got %T %v", err, err)
	}
	if fe.StatusCode != http.StatusInternalServerError || fe.Message != "Server Error" {
		t.Errorf("FetchError = %+v", fe)
	}
}

func TestListLabeledIssues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/cli/cli/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != "open" {
			t.Errorf("state = %q", r.URL.Query().Get("state"))
		}
		if r.URL.Query().Has("labels") {
			t.Error("labels must be matched client-side")
		}
		_, _ = w.Write([]byte(`[
			{"id":1,"number":1,"title":"Docs","labels":[{"name":"Good First Issue"}],"user":{"login":"u1"}},
			{"id":2,"number":2,"title":"PR","labels":[{"name":"good first issue"}],"pull_request":{"url":"x"}},
			{"id":3,"number":3,"title":"Core","labels":[{"name":"bug"}]},
			{"id":4,"number":4,"title":"Fix crash ($100)","labels":[]},
			{"id":5,"number":5,"title":"Help","labels":[{"name":"help wanted"}]}
		]`))
	})
	c := newTestClient(t, mux)

	tests := []struct {
		name  string
		query gateway.IssueQuery
		want  []int
	}{
		{"good first labels", gateway.IssueQueryFor("cli/cli", model.FilterGoodFirstIssue, 100), []int{1, 5}},
		{"bounty signals", gateway.IssueQueryFor("cli/cli", model.FilterBountyIssue, 100), []int{4}},
		{"major unfiltered", gateway.IssueQueryFor("cli/cli", model.FilterMajorIssue, 100), []int{1, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues, err := c.ListLabeledIssues(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("ListLabeledIssues() error = %v", err)
			}
			var got []int
			for _, is := range issues {
				got = append(got, is.Number)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("numbers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListLabeledIssuesInvalidRepo(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())
	_, err := c.ListLabeledIssues(context.Background(), gateway.IssueQuery{Repo: "noslash"})
	var fe *gateway.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestExplainUnsupported(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())
	_, err := c.ExplainIssue(context.Background(), "cli/cli", model.Issue{Number: 1})
	if !errors.Is(err, ErrExplainUnsupported) {
		t.Errorf("expected ErrExplainUnsupported, got %v", err)
	}
}
