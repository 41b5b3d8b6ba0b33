// Package output renders search results and issue lists for the terminal.
package output

import (
	"fmt"
	"io"

	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/service"
)

// Format represents the output format
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name. The empty string selects the table.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("invalid output format %q: use table, json, or markdown", s)
}

// IssueList is one repository's issues under a filter.
type IssueList struct {
	Repo   string           `json:"repo"`
	Filter model.FilterKind `json:"filter"`
	Issues []model.Issue    `json:"issues"`
}

// Explanation is the plain-language explanation of one issue.
type Explanation struct {
	Repo   string `json:"repo"`
	Number int    `json:"number"`
	Title  string `json:"title,omitempty"`
	URL    string `json:"url,omitempty"`
	Text   string `json:"explanation"`
}

// Formatter defines the interface for output formatters
type Formatter interface {
	FormatResults(snap service.Snapshot, w io.Writer) error
	FormatIssues(list IssueList, w io.Writer) error
	FormatExplanation(e Explanation, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}
