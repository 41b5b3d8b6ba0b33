package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spiffcs/scout/internal/gateway"
	"github.com/spiffcs/scout/internal/model"
)

// fakeGateway implements gateway.FetchGateway for tests.
type fakeGateway struct {
	mu          sync.Mutex
	pages       map[int]*gateway.SearchPage // by page number
	searchErr   error
	searchCalls int
	searchDelay time.Duration

	issues     map[string][]model.Issue // by repo
	issueErr   map[string]error
	issueDelay time.Duration
	issueBlock chan struct{} // when set, issue calls wait on it or ctx
	issueCalls map[string]int
	issueQs    []gateway.IssueQuery

	explanation  string
	explainErr   error
	explainCalls int

	inFlight atomic.Int32
	peak     atomic.Int32
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		pages:      map[int]*gateway.SearchPage{},
		issues:     map[string][]model.Issue{},
		issueErr:   map[string]error{},
		issueCalls: map[string]int{},
	}
}

func (f *fakeGateway) SearchTrendingRepos(ctx context.Context, q model.SearchQuery) (*gateway.SearchPage, error) {
	f.mu.Lock()
	f.searchCalls++
	delay := f.searchDelay
	err := f.searchErr
	page := f.pages[q.Page]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if page == nil {
		return &gateway.SearchPage{}, nil
	}
	out := *page
	out.Items = append([]model.Repository(nil), page.Items...)
	return &out, nil
}

func (f *fakeGateway) ListLabeledIssues(ctx context.Context, q gateway.IssueQuery) ([]model.Issue, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		old := f.peak.Load()
		if n <= old || f.peak.CompareAndSwap(old, n) {
			break
		}
	}

	f.mu.Lock()
	f.issueCalls[q.Repo]++
	f.issueQs = append(f.issueQs, q)
	delay, block := f.issueDelay, f.issueBlock
	err := f.issueErr[q.Repo]
	issues := f.issues[q.Repo]
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return issues, nil
}

func (f *fakeGateway) ExplainIssue(_ context.Context, _ string, _ model.Issue) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.explainCalls++
	return f.explanation, f.explainErr
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

func (f *fakeGateway) issueCallsFor(repo string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueCalls[repo]
}

func (f *fakeGateway) totalIssueCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.issueCalls {
		n += c
	}
	return n
}

// repos builds n repositories with IDs starting at firstID.
func repos(firstID, n int) []model.Repository {
	out := make([]model.Repository, n)
	for i := range out {
		id := firstID + i
		out[i] = model.Repository{
			ID:             int64(id),
			FullName:       fmt.Sprintf("org/repo%d", id),
			StarCount:      1000 - id,
			RelevanceScore: float64(100 - id),
		}
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

func labeled(id int64, labels ...string) model.Issue {
	is := model.Issue{ID: id, Number: int(id), Title: fmt.Sprintf("Issue %d", id)}
	for _, l := range labels {
		is.Labels = append(is.Labels, model.Label{Name: l})
	}
	return is
}
