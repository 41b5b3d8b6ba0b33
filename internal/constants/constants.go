// Package constants provides a centralized location for all configuration
// values and magic numbers used throughout the scout application.
package constants

import "time"

// Search and pagination constants
const (
	// PageSize is the number of repositories requested per primary page.
	PageSize = 10

	// FirstPage is the page a new search starts from.
	FirstPage = 1

	// SlowResponseAfter is how long a primary-page fetch may run before a
	// "still searching" advisory is shown. The request is never aborted.
	SlowResponseAfter = 3000 * time.Millisecond
)

// Enrichment constants
const (
	// EnrichmentWidth is the maximum number of simultaneously outstanding
	// issue-count requests.
	EnrichmentWidth = 3

	// EnrichmentPerPage is the perPage used when counting a repository's issues.
	EnrichmentPerPage = 50

	// IssueListPerPage is the perPage used when viewing a repository's issues.
	IssueListPerPage = 100
)

// Upstream client constants
const (
	// DefaultRequestsPerSecond paces outgoing upstream requests.
	DefaultRequestsPerSecond = 5

	// DefaultRequestBurst is the token bucket burst for upstream pacing.
	DefaultRequestBurst = 5

	// HTTPTimeout bounds a single upstream round trip.
	HTTPTimeout = 30 * time.Second

	// RateLimitLowWatermark is the threshold below which rate limit
	// warnings are logged.
	RateLimitLowWatermark = 100

	// DefaultAPIURL is the upstream dashboard API used when none is configured.
	DefaultAPIURL = "http://localhost:3000/api"

	// UserAgent identifies scout to upstream services.
	UserAgent = "scout-cli"
)

// GitHub search qualifiers applied by the direct GitHub backend.
const (
	// MinStars is the minimum stargazer count for trending repositories.
	MinStars = 100

	// PushedSince is the earliest last-push date for trending repositories.
	PushedSince = "2024-01-01"

	// MaxSearchResults is GitHub's hard cap on reachable search results.
	MaxSearchResults = 1000
)

// Display constants
const (
	// TruncationSuffix marks text cut to fit a column.
	TruncationSuffix = "..."

	// TruncationSuffixWidth is the display width of TruncationSuffix.
	TruncationSuffixWidth = 3
)

// User-visible messages
const (
	MsgNoRepositories     = "No repositories found matching your criteria. Try different filters."
	MsgSearchFailed       = "Failed to fetch trending repositories. Please try again later."
	MsgExplanationFailed  = "Failed to generate explanation. Please try again."
	MsgSlowResponse       = "Still searching... the upstream is taking longer than usual."
	MsgNoMajorIssues      = "No major issues found in this repository."
	MsgIssueFetchTemplate = "Failed to fetch %ss. Please try again later."
	MsgNoIssuesTemplate   = "No %ss found in this repository."
)
