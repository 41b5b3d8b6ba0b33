package ghgateway

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/gateway"
	"github.com/spiffcs/scout/internal/log"
	"github.com/spiffcs/scout/internal/model"
)

// baseQualifiers returns the quality and recency qualifiers every trending
// search carries.
func baseQualifiers(language string) []string {
	q := []string{
		"is:public",
		"archived:false",
		"stars:>=" + strconv.Itoa(constants.MinStars),
		"pushed:>=" + constants.PushedSince,
	}
	if language != "" {
		q = append(q, "language:"+language)
	}
	return q
}

// bountyQualifiers are the repository-level bounty heuristics, each run as
// its own search because GitHub rejects complex boolean repository queries.
var bountyQualifiers = []string{
	"topic:bounty",
	"topic:bug-bounty",
	"bounty in:readme",
	"reward in:readme",
	"bounty in:description",
	"reward in:description",
}

// SearchTrendingRepos runs the filter-specific repository searches for one page.
func (c *Client) SearchTrendingRepos(ctx context.Context, query model.SearchQuery) (*gateway.SearchPage, error) {
	perPage := constants.PageSize
	base := baseQualifiers(query.Language)

	var (
		repos []*gh.Repository
		total int
		err   error
	)
	switch query.Filter {
	case model.FilterGoodFirstIssue:
		repos, total, err = c.searchMerged(ctx, query.Page, perPage, false,
			join(base, "good-first-issues:>0"),
			join(base, "help-wanted-issues:>0"),
		)
	case model.FilterBountyIssue:
		qs := make([]string, 0, len(bountyQualifiers))
		for _, b := range bountyQualifiers {
			qs = append(qs, join(base, b))
		}
		repos, _, err = c.searchMerged(ctx, query.Page, perPage, true, qs...)
		sort.SliceStable(repos, func(i, j int) bool {
			return repos[i].GetStargazersCount() > repos[j].GetStargazersCount()
		})
		total = len(repos)
	default:
		repos, total, err = c.searchRepos(ctx, join(base), query.Page, perPage)
	}
	if err != nil {
		return nil, err
	}

	if query.Language != "" {
		repos = filterLanguage(repos, query.Language)
	}
	if len(repos) > perPage {
		repos = repos[:perPage]
	}

	hasMore := query.Page*perPage < min(total, constants.MaxSearchResults) && len(repos) == perPage
	page := &gateway.SearchPage{
		Items:      make([]model.Repository, 0, len(repos)),
		HasMore:    &hasMore,
		TotalCount: total,
	}
	offset := (query.Page - 1) * perPage
	for i, r := range repos {
		page.Items = append(page.Items, toRepository(r, offset+i))
	}

	log.Debug("github search complete", "filter", query.Filter, "language", query.Language,
		"page", query.Page, "items", len(page.Items), "total", total)
	return page, nil
}

// searchMerged runs queries in parallel and merges their results by ID in
// query order. With tolerant set, a failing query is dropped as long as at
// least one succeeds; otherwise the first failure fails the whole search.
func (c *Client) searchMerged(ctx context.Context, page, perPage int, tolerant bool, queries ...string) ([]*gh.Repository, int, error) {
	results := make([][]*gh.Repository, len(queries))
	totals := make([]int, len(queries))
	errs := make([]error, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			repos, total, err := c.searchRepos(gctx, q, page, perPage)
			if err != nil {
				if tolerant {
					log.Debug("bounty heuristic search failed", "query", q, "error", err)
					errs[i] = err
					return nil
				}
				return err
			}
			results[i], totals[i] = repos, total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if tolerant && allFailed(errs) {
		return nil, 0, errors.Join(errs...)
	}

	seen := make(map[int64]bool)
	var merged []*gh.Repository
	total := 0
	for i, repos := range results {
		total += totals[i]
		for _, r := range repos {
			if seen[r.GetID()] {
				continue
			}
			seen[r.GetID()] = true
			merged = append(merged, r)
		}
	}
	return merged, total, nil
}

func allFailed(errs []error) bool {
	for _, err := range errs {
		if err == nil {
			return false
		}
	}
	return len(errs) > 0
}

// searchRepos runs one repository search sorted by stars.
func (c *Client) searchRepos(ctx context.Context, q string, page, perPage int) ([]*gh.Repository, int, error) {
	opts := &gh.SearchOptions{
		Sort:  "stars",
		Order: "desc",
		ListOptions: gh.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}
	log.Trace("github repository search", "q", q, "page", page)
	result, _, err := c.client.Search.Repositories(ctx, q, opts)
	if err != nil {
		return nil, 0, fetchError("search/repositories", err)
	}
	return result.Repositories, result.GetTotal(), nil
}

func filterLanguage(repos []*gh.Repository, language string) []*gh.Repository {
	out := repos[:0:0]
	for _, r := range repos {
		if strings.EqualFold(r.GetLanguage(), language) {
			out = append(out, r)
		}
	}
	return out
}

// toRepository converts a search hit. GitHub reports no relevance score for
// star-sorted searches, so the score decays with the hit's overall rank.
func toRepository(r *gh.Repository, rank int) model.Repository {
	repo := model.Repository{
		ID:             r.GetID(),
		FullName:       r.GetFullName(),
		StarCount:      r.GetStargazersCount(),
		RelevanceScore: 1 / float64(rank+1),
		Language:       r.GetLanguage(),
		HTMLURL:        r.GetHTMLURL(),
	}
	if r.Description != nil {
		d := r.GetDescription()
		repo.Description = &d
	}
	return repo
}

func join(base []string, extra ...string) string {
	parts := append(append([]string{}, base...), extra...)
	return strings.Join(parts, " ")
}
