// Package model contains domain types for the scout application.
// These types are independent of any upstream wire format.
package model

import (
	"fmt"
	"strings"
)

// FilterKind is one of the mutually exclusive issue categories a search targets.
type FilterKind string

const (
	FilterGoodFirstIssue FilterKind = "good first issue"
	FilterBountyIssue    FilterKind = "bounty issue"
	FilterMajorIssue     FilterKind = "major issue"
)

// AllFilterKinds contains all valid filter kinds in display order.
var AllFilterKinds = []FilterKind{
	FilterGoodFirstIssue,
	FilterBountyIssue,
	FilterMajorIssue,
}

// filterAliases maps accepted spellings to their filter kind.
var filterAliases = map[string]FilterKind{
	"good first issue": FilterGoodFirstIssue,
	"good-first-issue": FilterGoodFirstIssue,
	"good-first":       FilterGoodFirstIssue,
	"goodfirst":        FilterGoodFirstIssue,
	"gfi":              FilterGoodFirstIssue,
	"bounty issue":     FilterBountyIssue,
	"bounty-issue":     FilterBountyIssue,
	"bounty":           FilterBountyIssue,
	"major issue":      FilterMajorIssue,
	"major-issue":      FilterMajorIssue,
	"major":            FilterMajorIssue,
}

// ParseFilterKind parses a filter kind from its literal upstream string or a
// short alias. Matching is case-insensitive.
func ParseFilterKind(s string) (FilterKind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if k, ok := filterAliases[key]; ok {
		return k, nil
	}
	return "", fmt.Errorf("invalid filter %q: use good-first, bounty, or major", s)
}

// String returns the upstream literal for the filter kind.
func (k FilterKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the known filter kinds.
func (k FilterKind) Valid() bool {
	switch k {
	case FilterGoodFirstIssue, FilterBountyIssue, FilterMajorIssue:
		return true
	}
	return false
}

// Short returns a compact label for narrow displays.
func (k FilterKind) Short() string {
	switch k {
	case FilterGoodFirstIssue:
		return "good-first"
	case FilterBountyIssue:
		return "bounty"
	case FilterMajorIssue:
		return "major"
	default:
		return string(k)
	}
}

// Next returns the filter kind after k, wrapping around.
func (k FilterKind) Next() FilterKind {
	for i, f := range AllFilterKinds {
		if f == k {
			return AllFilterKinds[(i+1)%len(AllFilterKinds)]
		}
	}
	return FilterGoodFirstIssue
}
