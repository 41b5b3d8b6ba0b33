package service

import (
	"errors"

	"github.com/spiffcs/scout/internal/model"
)

var (
	// ErrNoIssues marks an issue list that came back empty after filtering.
	ErrNoIssues = errors.New("no matching issues")

	// ErrNoMorePages is returned by LoadMore when the search is exhausted.
	ErrNoMorePages = errors.New("no more pages")

	// ErrInvalidPage is returned by GoToPage for pages below 1.
	ErrInvalidPage = errors.New("invalid page")

	// ErrSuperseded is returned when a newer search replaced the one a
	// request belonged to before its response arrived.
	ErrSuperseded = errors.New("search superseded by a newer search")
)

// IssueListError is a failure scoped to viewing one repository's issues.
// Message is ready to show as is. An empty result wraps ErrNoIssues; a
// failed fetch wraps the gateway error.
type IssueListError struct {
	Repo    string
	Filter  model.FilterKind
	Message string
	Err     error
}

func (e *IssueListError) Error() string {
	return e.Message
}

func (e *IssueListError) Unwrap() error {
	return e.Err
}

// Empty reports whether the error is the empty-result state rather than a
// failed fetch.
func (e *IssueListError) Empty() bool {
	return errors.Is(e.Err, ErrNoIssues)
}
