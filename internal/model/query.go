package model

import "fmt"

// SearchQuery identifies one primary page of a search. It is immutable once issued.
type SearchQuery struct {
	Filter   FilterKind `json:"filter"`
	Language string     `json:"language"`
	Page     int        `json:"page"`
}

// Key returns the canonical identity of the query, used for deduplication
// and as the result-page cache key.
func (q SearchQuery) Key() string {
	return PageKey(q.Filter, q.Language, q.Page)
}

// WithPage returns a copy of the query for another page of the same search.
func (q SearchQuery) WithPage(page int) SearchQuery {
	q.Page = page
	return q
}

// SameSearch reports whether q and other differ only by page.
func (q SearchQuery) SameSearch(other SearchQuery) bool {
	return q.Filter == other.Filter && q.Language == other.Language
}

// PageKey builds the cache key for a primary result page.
func PageKey(filter FilterKind, language string, page int) string {
	return fmt.Sprintf("%s|%s|%d", filter, language, page)
}

// RepoFilterKey builds the cache key for a repository's issue list or issue
// count under a filter.
func RepoFilterKey(repoFullName string, filter FilterKind) string {
	return fmt.Sprintf("%s-%s", repoFullName, filter)
}

// ExplanationKey builds the cache key for an issue explanation.
func ExplanationKey(repoFullName string, issueNumber int) string {
	return fmt.Sprintf("%s-%d", repoFullName, issueNumber)
}

// EnrichmentTask asks the enrichment pool to count a repository's issues
// under a filter.
type EnrichmentTask struct {
	RepoFullName string
	Filter       FilterKind
}

// Key returns the computed-set key for the task.
func (t EnrichmentTask) Key() string {
	return RepoFilterKey(t.RepoFullName, t.Filter)
}
