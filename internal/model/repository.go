package model

import "sort"

// Repository is a repository returned by a trending search.
// IssueCount and HasTargetIssues are the only fields that change after
// creation; the enrichment pipeline writes them, keyed by FullName.
type Repository struct {
	ID              int64   `json:"id"`
	FullName        string  `json:"fullName"`
	StarCount       int     `json:"starCount"`
	RelevanceScore  float64 `json:"relevanceScore"`
	Description     *string `json:"description,omitempty"`
	Language        string  `json:"language,omitempty"`
	HTMLURL         string  `json:"htmlUrl,omitempty"`
	IssueCount      int     `json:"issueCount"`
	HasTargetIssues bool    `json:"hasTargetIssues"`
}

// SetIssueCount records an enrichment result and keeps the derived flag in sync.
func (r *Repository) SetIssueCount(n int) {
	r.IssueCount = n
	r.HasTargetIssues = n > 0
}

// GetDescription returns the description or "" when absent.
func (r *Repository) GetDescription() string {
	if r.Description == nil {
		return ""
	}
	return *r.Description
}

// SortOrder selects how a result set is presented.
type SortOrder string

const (
	SortRelevance SortOrder = "relevance"
	SortStars     SortOrder = "stars"
)

// ParseSortOrder parses a sort order, defaulting to relevance for "".
func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(s) {
	case "", SortRelevance:
		return SortRelevance, true
	case SortStars:
		return SortStars, true
	}
	return "", false
}

// Sorted returns a sorted copy of repos; the input is left untouched.
func Sorted(repos []Repository, order SortOrder) []Repository {
	out := make([]Repository, len(repos))
	copy(out, repos)
	switch order {
	case SortStars:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].StarCount > out[j].StarCount
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RelevanceScore > out[j].RelevanceScore
		})
	}
	return out
}
