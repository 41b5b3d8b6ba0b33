// Package gateway performs the upstream calls the discovery session is built
// on. Each operation makes one HTTP request and returns typed results or a
// typed failure; it holds no session state.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/issuefilter"
	"github.com/spiffcs/scout/internal/model"
)

// ErrRateLimited is returned when the upstream rate limit has been exceeded.
var ErrRateLimited = errors.New("rate limited")

// FetchGateway is implemented by every upstream backend.
type FetchGateway interface {
	// SearchTrendingRepos fetches one primary page of trending repositories.
	SearchTrendingRepos(ctx context.Context, query model.SearchQuery) (*SearchPage, error)

	// ListLabeledIssues fetches open issues of a repository.
	ListLabeledIssues(ctx context.Context, query IssueQuery) ([]model.Issue, error)

	// ExplainIssue asks the upstream for a plain-language explanation.
	ExplainIssue(ctx context.Context, repoFullName string, issue model.Issue) (string, error)
}

// SearchPage is one primary page as returned by the upstream.
type SearchPage struct {
	Items []model.Repository

	// HasMore is the upstream's own continuation flag, nil when it sent none.
	HasMore *bool

	// TotalCount is the upstream's total estimate, 0 when it sent none.
	TotalCount int
}

// MorePages decides whether another page follows: the upstream flag when
// present, otherwise whether the page came back full.
func (p *SearchPage) MorePages(pageSize int) bool {
	if p.HasMore != nil {
		return *p.HasMore
	}
	return len(p.Items) == pageSize
}

// IssueQuery describes one labeled-issues request.
type IssueQuery struct {
	Repo          string
	Labels        []string // any-of; empty requests unfiltered open issues
	State         string
	Page          int
	PerPage       int
	BountySignals bool // let the upstream match bounty heuristics instead of labels
}

// IssueQueryFor builds the kind-specific issue request for repo: the fixed
// good-first label vocabulary, bounty-signal matching, or no label filter
// for major issues.
func IssueQueryFor(repo string, filter model.FilterKind, perPage int) IssueQuery {
	q := IssueQuery{
		Repo:    repo,
		State:   "open",
		Page:    constants.FirstPage,
		PerPage: perPage,
	}
	switch filter {
	case model.FilterGoodFirstIssue:
		q.Labels = issuefilter.GoodFirstLabels
	case model.FilterBountyIssue:
		q.BountySignals = true
	}
	return q
}

// FetchError is a failed upstream call. Message carries the upstream's own
// error text when it sent one.
type FetchError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream returned %d", e.Endpoint, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	}
	return e.Endpoint + ": request failed"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UserMessage returns the upstream-supplied message, or fallback when the
// upstream sent none.
func (e *FetchError) UserMessage(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}
