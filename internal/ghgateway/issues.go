package ghgateway

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/gateway"
	"github.com/spiffcs/scout/internal/issuefilter"
	"github.com/spiffcs/scout/internal/log"
	"github.com/spiffcs/scout/internal/model"
)

// maxIssuePages bounds how many pages of open issues are scanned when labels
// or bounty signals have to be matched client-side.
const maxIssuePages = 5

// ListLabeledIssues lists open issues of a repository. GitHub's labels
// parameter requires all labels, so any-of label matching and bounty signal
// matching are done here over the repository's open issues. Pull requests
// are dropped.
func (c *Client) ListLabeledIssues(ctx context.Context, query gateway.IssueQuery) ([]model.Issue, error) {
	owner, repo, ok := strings.Cut(query.Repo, "/")
	if !ok || owner == "" || repo == "" {
		return nil, &gateway.FetchError{Endpoint: "issues", Message: fmt.Sprintf("invalid repository %q", query.Repo)}
	}

	match := matcherFor(query)
	perPage := query.PerPage
	if perPage <= 0 {
		perPage = constants.IssueListPerPage
	}
	state := query.State
	if state == "" {
		state = "open"
	}

	opts := &gh.IssueListByRepoOptions{
		State:       state,
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{Page: max(query.Page, constants.FirstPage), PerPage: perPage},
	}

	var out []model.Issue
	for pages := 0; pages < maxIssuePages; pages++ {
		issues, resp, err := c.client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, fetchError("issues", err)
		}
		for _, is := range issues {
			if is.IsPullRequest() {
				continue
			}
			mi := toIssue(is)
			if match != nil && !match(mi) {
				continue
			}
			out = append(out, mi)
			if len(out) == perPage {
				return out, nil
			}
		}
		// Unfiltered listings return exactly the requested page.
		if match == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	log.Trace("github issues listed", "repo", query.Repo, "count", len(out))
	return out, nil
}

// matcherFor returns the client-side predicate for query, or nil when every
// open issue qualifies.
func matcherFor(query gateway.IssueQuery) func(model.Issue) bool {
	switch {
	case query.BountySignals:
		return issuefilter.HasBountySignal
	case len(query.Labels) > 0:
		return func(is model.Issue) bool {
			for _, l := range is.Labels {
				if issuefilter.LabelMatches(l.Name, query.Labels) {
					return true
				}
			}
			return false
		}
	}
	return nil
}

// ExplainIssue always fails: explanations need the dashboard API.
func (c *Client) ExplainIssue(_ context.Context, _ string, _ model.Issue) (string, error) {
	return "", ErrExplainUnsupported
}

func toIssue(is *gh.Issue) model.Issue {
	out := model.Issue{
		ID:        is.GetID(),
		Number:    is.GetNumber(),
		Title:     is.GetTitle(),
		Body:      is.GetBody(),
		Author:    is.GetUser().GetLogin(),
		CreatedAt: is.GetCreatedAt().Time,
		URL:       is.GetHTMLURL(),
	}
	for _, l := range is.Labels {
		out.Labels = append(out.Labels, model.Label{Name: l.GetName(), Color: l.GetColor()})
	}
	return out
}
