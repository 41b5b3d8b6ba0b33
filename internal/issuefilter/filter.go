package issuefilter

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/spiffcs/scout/internal/model"
)

// cjk covers CJK Unified Ideographs with Extension A, Hiragana with
// Katakana, and Hangul Syllables.
var cjk = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3040, Hi: 0x30FF, Stride: 1},
		{Lo: 0x3400, Hi: 0x9FFF, Stride: 1},
		{Lo: 0xAC00, Hi: 0xD7AF, Stride: 1},
	},
}

// ContainsCJK reports whether s contains a code point in the excluded ranges.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(cjk, r) {
			return true
		}
	}
	return false
}

// ExcludeCJK returns the issues whose title and body contain no CJK code
// points. The input is not modified.
func ExcludeCJK(issues []model.Issue) []model.Issue {
	out := make([]model.Issue, 0, len(issues))
	for _, issue := range issues {
		if ContainsCJK(issue.Title) || ContainsCJK(issue.Body) {
			continue
		}
		out = append(out, issue)
	}
	return out
}

// IsMajor reports whether an issue carries neither a good-first nor a bounty
// label. Major issues are defined by what they are not.
func IsMajor(issue model.Issue) bool {
	for _, l := range issue.Labels {
		if IsGoodFirstLabel(l.Name) || IsBountyLabel(l.Name) {
			return false
		}
	}
	return true
}

// SelectMajor returns the major issues among issues.
func SelectMajor(issues []model.Issue) []model.Issue {
	out := make([]model.Issue, 0, len(issues))
	for _, issue := range issues {
		if IsMajor(issue) {
			out = append(out, issue)
		}
	}
	return out
}

// Apply runs the client-side pipeline for a filter kind over issues the
// upstream returned: major classification when filter is major, then CJK
// exclusion for every kind.
func Apply(filter model.FilterKind, issues []model.Issue) []model.Issue {
	if filter == model.FilterMajorIssue {
		issues = SelectMajor(issues)
	}
	return ExcludeCJK(issues)
}

var (
	bountyWords = []string{
		"bounty", "reward", "paid", "funded", "bug-bounty",
		"cash", "gitcoin", "issuehunt", "algora",
	}
	moneyPattern = regexp.MustCompile(`\$\s?\d+|\b\d+\s?(?:usd|eur|inr)\b`)
)

// HasBountySignal reports whether an issue looks like it carries a bounty,
// judged by its labels, title and body.
func HasBountySignal(issue model.Issue) bool {
	for _, l := range issue.Labels {
		if IsBountyLabel(l.Name) {
			return true
		}
	}
	text := fold(issue.Title + " " + issue.Body)
	for _, w := range bountyWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return moneyPattern.MatchString(text)
}
