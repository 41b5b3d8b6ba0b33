// Package issuefilter classifies issues by label vocabulary and drops issues
// written in scripts the discovery view does not target.
package issuefilter

import (
	"strings"

	"golang.org/x/text/cases"
)

// GoodFirstLabels is the exact label vocabulary sent upstream when listing
// good-first issues. Upstream matching is any-of.
var GoodFirstLabels = []string{
	"good first issue",
	"good-first-issue",
	"Good first issue",
	"help wanted",
	"help-wanted",
	"beginner",
	"beginner-friendly",
	"easy",
	"E-easy",
	"newcomer",
	"first-timers-only",
	"up-for-grabs",
	"low-hanging-fruit",
}

// goodFirstFragments and bountyFragments are substring vocabularies used to
// recognize a label as good-first or bounty when classifying major issues.
var (
	goodFirstFragments = []string{
		"good first",
		"good-first",
		"beginner",
		"easy",
		"help wanted",
		"newcomer",
		"first-timers",
	}

	bountyFragments = []string{
		"bounty",
		"hacktoberfest",
		"monetary",
		"reward",
		"prize",
	}
)

// GoodFirstLabelCSV returns GoodFirstLabels joined for the labels query parameter.
func GoodFirstLabelCSV() string {
	return strings.Join(GoodFirstLabels, ",")
}

// fold returns the case-folded form of s. A Caser keeps state, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

// IsGoodFirstLabel reports whether a label name belongs to the good-first vocabulary.
func IsGoodFirstLabel(name string) bool {
	return containsAny(fold(name), goodFirstFragments)
}

// IsBountyLabel reports whether a label name belongs to the bounty vocabulary.
func IsBountyLabel(name string) bool {
	return containsAny(fold(name), bountyFragments)
}

// LabelMatches reports whether name equals any of wanted, ignoring case.
func LabelMatches(name string, wanted []string) bool {
	n := fold(name)
	for _, w := range wanted {
		if fold(w) == n {
			return true
		}
	}
	return false
}
