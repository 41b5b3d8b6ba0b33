package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spiffcs/scout/config"
	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/output"
)

func TestNew(t *testing.T) {
	cmd := New()
	if cmd.Use != "scout" {
		t.Errorf("expected Use to be 'scout', got %q", cmd.Use)
	}

	want := []string{"search", "issues", "explain", "browse", "serve", "config", "ratelimit", "version"}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub == cmd {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"output", "filter", "language", "sort", "backend", "pages", "no-counts", "tui"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("root command missing --%s", flag)
		}
	}
}

func TestTUIFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    *bool
		wantErr bool
	}{
		{"true", boolPtr(true), false},
		{"on", boolPtr(true), false},
		{"false", boolPtr(false), false},
		{"0", boolPtr(false), false},
		{"auto", nil, false},
		{"sometimes", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			opts := NewOptions()
			f := newTUIFlag(opts)
			err := f.Set(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if (opts.TUI == nil) != (tt.want == nil) || (opts.TUI != nil && *opts.TUI != *tt.want) {
				t.Errorf("TUI = %v, want %v", f.String(), tt.want)
			}
		})
	}
}

func TestShouldUseTUI(t *testing.T) {
	tests := []struct {
		name   string
		opts   *Options
		format output.Format
		want   bool
	}{
		{"forced on", NewOptions(WithTUI(boolPtr(true))), output.FormatTable, true},
		{"forced off", NewOptions(WithTUI(boolPtr(false))), output.FormatTable, false},
		{"json never", NewOptions(WithTUI(boolPtr(true))), output.FormatJSON, false},
		{"verbose never", NewOptions(WithTUI(boolPtr(true)), WithVerbosity(1)), output.FormatTable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldUseTUI(tt.opts, tt.format); got != tt.want {
				t.Errorf("shouldUseTUI() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveQuery(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DefaultLanguage = "go"

	q, err := resolveQuery(NewOptions(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if q.filter != model.FilterGoodFirstIssue || q.language != "go" || q.sort != model.SortRelevance || q.format != output.FormatTable {
		t.Errorf("defaults = %+v", q)
	}

	q, err = resolveQuery(NewOptions(
		WithFilter("bounty"),
		WithLanguage("rust"),
		WithSort("stars"),
		WithFormat("markdown"),
	), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if q.filter != model.FilterBountyIssue || q.language != "rust" || q.sort != model.SortStars || q.format != output.FormatMarkdown {
		t.Errorf("overrides = %+v", q)
	}

	for _, opts := range []*Options{
		NewOptions(WithFilter("easy")),
		NewOptions(WithSort("newest")),
		NewOptions(WithFormat("csv")),
	} {
		if _, err := resolveQuery(opts, cfg); err == nil {
			t.Errorf("resolveQuery(%+v) expected error", opts)
		}
	}
}

func TestNewGatewayRejectsUnknownBackend(t *testing.T) {
	if _, err := newGateway(context.Background(), config.DefaultConfig(), "gitlab"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestOpenedSince(t *testing.T) {
	now := time.Now()
	issues := []model.Issue{
		{Number: 1, CreatedAt: now.Add(-time.Hour)},
		{Number: 2, CreatedAt: now.Add(-60 * 24 * time.Hour)},
	}
	if got := openedSince(issues, time.Time{}); len(got) != 2 {
		t.Errorf("zero since kept %d issues, want 2", len(got))
	}
	got := openedSince(issues, now.Add(-7*24*time.Hour))
	if len(got) != 1 || got[0].Number != 1 {
		t.Errorf("openedSince() = %+v", got)
	}
}

// dashboardAPI serves the three dashboard endpoints from fixed data.
type dashboardAPI struct {
	repos      []map[string]any
	issues     map[string][]map[string]any
	explainErr string
}

func (d *dashboardAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var body any
	switch strings.TrimPrefix(r.URL.Path, "/") {
	case "search-trending-repos":
		body = map[string]any{"items": d.repos, "has_more": false, "total_count": len(d.repos)}
	case "get-labeled-issues":
		issues := d.issues[r.URL.Query().Get("repo")]
		if issues == nil {
			issues = []map[string]any{}
		}
		body = map[string]any{"issues": issues}
	case "explain-issue":
		if d.explainErr != "" {
			body = map[string]any{"success": false, "error": d.explainErr}
		} else {
			body = map[string]any{"success": true, "explanation": "It asks for a retry flag."}
		}
	default:
		http.NotFound(w, r)
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func newDashboardAPI() *dashboardAPI {
	created := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)
	return &dashboardAPI{
		repos: []map[string]any{
			{"id": 1, "full_name": "acme/rocket", "stargazers_count": 900, "language": "Go", "html_url": "https://github.com/acme/rocket"},
			{"id": 2, "full_name": "acme/sled", "stargazers_count": 40, "language": "Go", "html_url": "https://github.com/acme/sled"},
		},
		issues: map[string][]map[string]any{
			"acme/rocket": {
				{"id": 70, "number": 7, "title": "Add a retry flag", "labels": []map[string]any{{"name": "good first issue"}},
					"created_at": created, "html_url": "https://github.com/acme/rocket/issues/7"},
				{"id": 80, "number": 8, "title": "Document the config file", "labels": []map[string]any{{"name": "good first issue"}},
					"created_at": created, "html_url": "https://github.com/acme/rocket/issues/8"},
			},
		},
	}
}

// setupCLI isolates the command from the user's config and points it at api.
func setupCLI(t *testing.T, api http.Handler) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv(config.EnvAPIURL, srv.URL)
	t.Setenv(config.EnvGitHubToken, "")
	t.Chdir(t.TempDir())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := New()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchJSON(t *testing.T) {
	setupCLI(t, newDashboardAPI())

	out, err := execute(t, "search", "-o", "json", "--tui=false", "-l", "go")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}

	var snap struct {
		Results []struct {
			FullName   string `json:"fullName"`
			IssueCount int    `json:"issueCount"`
		} `json:"results"`
		State   string `json:"state"`
		HasMore bool   `json:"hasMore"`
	}
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(snap.Results) != 2 || snap.HasMore {
		t.Fatalf("snapshot = %+v", snap)
	}
	counts := map[string]int{}
	for _, r := range snap.Results {
		counts[r.FullName] = r.IssueCount
	}
	if counts["acme/rocket"] != 2 || counts["acme/sled"] != 0 {
		t.Errorf("issue counts = %v", counts)
	}
	if snap.State != "results-ready" {
		t.Errorf("state = %q, want results-ready", snap.State)
	}
}

func TestSearchRejectsBadPages(t *testing.T) {
	setupCLI(t, newDashboardAPI())
	if _, err := execute(t, "--pages", "0", "-o", "json"); err == nil {
		t.Error("expected error for --pages 0")
	}
}

func TestIssuesCommand(t *testing.T) {
	setupCLI(t, newDashboardAPI())

	out, err := execute(t, "issues", "https://github.com/acme/rocket", "-o", "json", "--since", "1w")
	if err != nil {
		t.Fatalf("issues error = %v", err)
	}
	var list struct {
		Repo   string `json:"repo"`
		Issues []struct {
			Number int `json:"number"`
		} `json:"issues"`
	}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if list.Repo != "acme/rocket" || len(list.Issues) != 2 {
		t.Errorf("list = %+v", list)
	}
}

func TestIssuesCommandEmpty(t *testing.T) {
	setupCLI(t, newDashboardAPI())

	out, err := execute(t, "issues", "acme/sled", "-o", "table")
	if err != nil {
		t.Fatalf("an empty list is not an error: %v", err)
	}
	if !strings.Contains(out, "No good first issues found in this repository.") {
		t.Errorf("output = %q", out)
	}
}

func TestExplainCommand(t *testing.T) {
	setupCLI(t, newDashboardAPI())

	out, err := execute(t, "explain", "acme/rocket#7", "-o", "json")
	if err != nil {
		t.Fatalf("explain error = %v", err)
	}
	var got output.Explanation
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Number != 7 || got.Title != "Add a retry flag" || got.Text != "It asks for a retry flag." {
		t.Errorf("explanation = %+v", got)
	}
}

func TestExplainCommandFallback(t *testing.T) {
	api := newDashboardAPI()
	api.explainErr = "model unavailable"
	setupCLI(t, api)

	out, err := execute(t, "explain", "acme/rocket", "8", "-o", "markdown")
	if err != nil {
		t.Fatalf("explain must not fail on upstream errors: %v", err)
	}
	if !strings.Contains(out, constants.MsgExplanationFailed) {
		t.Errorf("output = %q", out)
	}
}

func TestConfigSetLocal(t *testing.T) {
	setupCLI(t, newDashboardAPI())

	if _, err := execute(t, "config", "set", "sort", "stars", "--local"); err != nil {
		t.Fatalf("config set error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(".", config.LocalConfigPath()))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "sort: stars" {
		t.Errorf(".scout.yaml = %q", data)
	}

	if _, err := execute(t, "config", "set", "github_token", "x"); err == nil {
		t.Error("expected tokens to be refused")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "scout ") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "version", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var info versionInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil || info.Version == "" || info.GoVersion == "" {
		t.Errorf("json version = %q (%v)", out, err)
	}
}

func boolPtr(b bool) *bool {
	return &b
}
