package service

import (
	"context"
	"fmt"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/gateway"
	"github.com/spiffcs/scout/internal/issuefilter"
	"github.com/spiffcs/scout/internal/log"
	"github.com/spiffcs/scout/internal/model"
)

// ViewIssues returns the open issues of repo that match filter. Lists are
// cached per (repository, filter) for the session. Issues written in CJK
// scripts are dropped; major issues are those carrying neither a good-first
// nor a bounty label.
//
// Failures come back as *IssueListError. An empty list is reported the same
// way wrapping ErrNoIssues and is not cached.
func (o *SearchOrchestrator) ViewIssues(ctx context.Context, repo string, filter model.FilterKind) ([]model.Issue, error) {
	key := model.RepoFilterKey(repo, filter)
	if issues, ok := o.cache.Issues.Get(key); ok {
		log.Debug("issues served from cache", "session", o.id, "repo", repo, "filter", filter)
		return issues, nil
	}

	gen := o.currentGeneration()
	raw, err := o.gw.ListLabeledIssues(ctx, gateway.IssueQueryFor(repo, filter, constants.IssueListPerPage))
	if err != nil {
		log.Debug("issue list failed", "session", o.id, "repo", repo, "filter", filter, "error", err)
		return nil, &IssueListError{
			Repo:    repo,
			Filter:  filter,
			Message: fmt.Sprintf(constants.MsgIssueFetchTemplate, filter),
			Err:     err,
		}
	}

	issues := issuefilter.Apply(filter, raw)
	log.Debug("issues fetched", "session", o.id, "repo", repo, "filter", filter,
		"fetched", len(raw), "kept", len(issues))
	if len(issues) == 0 {
		return nil, &IssueListError{
			Repo:    repo,
			Filter:  filter,
			Message: emptyIssuesMessage(filter),
			Err:     ErrNoIssues,
		}
	}

	if o.currentGeneration() == gen {
		o.cache.Issues.Put(key, issues)
	}
	return issues, nil
}

func emptyIssuesMessage(filter model.FilterKind) string {
	if filter == model.FilterMajorIssue {
		return constants.MsgNoMajorIssues
	}
	return fmt.Sprintf(constants.MsgNoIssuesTemplate, filter)
}

// Explain returns a plain-language explanation of an issue. It never fails:
// any upstream failure yields the fallback text, which is not cached.
func (o *SearchOrchestrator) Explain(ctx context.Context, repo string, issue model.Issue) string {
	key := model.ExplanationKey(repo, issue.Number)
	if text, ok := o.cache.Explanations.Get(key); ok {
		return text
	}

	gen := o.currentGeneration()
	text, err := o.gw.ExplainIssue(ctx, repo, issue)
	if err != nil || text == "" {
		log.Debug("explanation failed", "session", o.id, "repo", repo, "issue", issue.Number, "error", err)
		return constants.MsgExplanationFailed
	}

	if o.currentGeneration() == gen {
		o.cache.Explanations.Put(key, text)
	}
	return text
}

func (o *SearchOrchestrator) currentGeneration() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}
