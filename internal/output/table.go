package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/spiffcs/scout/internal/format"
	"github.com/spiffcs/scout/internal/issuefilter"
	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/service"
)

// TableFormatter formats output as a terminal table
type TableFormatter struct {
	// Links forces OSC 8 hyperlinks on or off; nil detects a terminal.
	Links *bool
}

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func (f *TableFormatter) hyperlink(text, url string) string {
	if url == "" || !f.linksEnabled() {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

func (f *TableFormatter) linksEnabled() bool {
	if f.Links != nil {
		return *f.Links
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Column widths
const (
	colRepo     = 32
	colStars    = 6
	colLanguage = 12
	colIssues   = 6
	colDesc     = 50

	colNumber = 7
	colTitle  = 56
	colLabels = 30
	colAge    = 5
)

// FormatResults outputs the accumulated repositories as a table
func (f *TableFormatter) FormatResults(snap service.Snapshot, w io.Writer) error {
	if snap.Empty() {
		fmt.Fprintln(w, noticeOr(snap.Notice, "No repositories found."))
		return nil
	}

	fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		format.Fit("Repository", colRepo),
		format.Fit("Stars", colStars),
		format.Fit("Language", colLanguage),
		format.Fit("Issues", colIssues),
		"Description")
	fmt.Fprintln(w, strings.Repeat("-", colRepo+colStars+colLanguage+colIssues+colDesc+8))

	for _, r := range snap.Results {
		name, nameWidth := format.TruncateToWidth(r.FullName, colRepo)
		name = format.PadRight(f.hyperlink(name, r.HTMLURL), nameWidth, colRepo)

		issues := issueCountText(r)
		issuesWidth := len(issues)
		if r.HasTargetIssues {
			issues = color.GreenString(issues)
		} else {
			issues = color.HiBlackString(issues)
		}

		desc, _ := format.TruncateToWidth(format.OneLine(r.GetDescription()), colDesc)

		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			name,
			format.Fit(format.FormatStars(r.StarCount), colStars),
			format.Fit(dashIfEmpty(r.Language), colLanguage),
			format.PadRight(issues, issuesWidth, colIssues),
			desc)
	}

	printResultsFooter(snap, w)
	return nil
}

func printResultsFooter(snap service.Snapshot, w io.Writer) {
	withIssues := 0
	for _, r := range snap.Results {
		if r.HasTargetIssues {
			withIssues++
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d repositories, %d with %ss", len(snap.Results), withIssues, snap.Query.Filter)
	fmt.Fprintf(w, " | page %d of %d", snap.Page, snap.TotalPages)
	if snap.HasMore {
		fmt.Fprint(w, color.CyanString(" | more available"))
	}
	if snap.EnrichOf > 0 && snap.Enriched < snap.EnrichOf {
		fmt.Fprintf(w, " | counting issues %d/%d", snap.Enriched, snap.EnrichOf)
	}
	fmt.Fprintln(w)
}

// FormatIssues outputs an issue list as a table
func (f *TableFormatter) FormatIssues(list IssueList, w io.Writer) error {
	if len(list.Issues) == 0 {
		fmt.Fprintf(w, "No %ss found in %s.\n", list.Filter, list.Repo)
		return nil
	}

	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		format.Fit("Number", colNumber),
		format.Fit("Title", colTitle),
		format.Fit("Labels", colLabels),
		"Age")
	fmt.Fprintln(w, strings.Repeat("-", colNumber+colTitle+colLabels+colAge+6))

	now := time.Now()
	for _, issue := range list.Issues {
		num := "#" + strconv.Itoa(issue.Number)
		title, titleWidth := format.TruncateToWidth(format.OneLine(issue.Title), colTitle)
		title = format.PadRight(f.hyperlink(title, issue.URL), titleWidth, colTitle)

		labels, labelsWidth := formatLabels(issue.Labels, colLabels)

		age := format.Age(issue.CreatedAt, now)

		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			format.Fit(num, colNumber),
			title,
			format.PadRight(labels, labelsWidth, colLabels),
			age)
	}

	fmt.Fprintf(w, "\n%d %ss in %s\n", len(list.Issues), list.Filter, list.Repo)
	return nil
}

// FormatExplanation outputs an explanation below a one-line issue header
func (f *TableFormatter) FormatExplanation(e Explanation, w io.Writer) error {
	header := color.New(color.Bold).Sprintf("%s#%d", e.Repo, e.Number)
	if e.Title != "" {
		header += "  " + f.hyperlink(format.OneLine(e.Title), e.URL)
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.TrimSpace(e.Text))
	return nil
}

// formatLabels joins label names, coloring the vocabulary labels, and
// truncates to width. Returns the text and its visible width.
func formatLabels(labels []model.Label, width int) (string, int) {
	var plain []string
	for _, l := range labels {
		plain = append(plain, l.Name)
	}
	text, visible := format.TruncateToWidth(strings.Join(plain, ", "), width)
	if visible < format.DisplayWidth(strings.Join(plain, ", ")) {
		return text, visible
	}

	colored := make([]string, len(labels))
	for i, l := range labels {
		switch {
		case issuefilter.IsBountyLabel(l.Name):
			colored[i] = color.YellowString(l.Name)
		case issuefilter.IsGoodFirstLabel(l.Name):
			colored[i] = color.GreenString(l.Name)
		default:
			colored[i] = l.Name
		}
	}
	return strings.Join(colored, ", "), visible
}

func issueCountText(r model.Repository) string {
	return strconv.Itoa(r.IssueCount)
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func noticeOr(notice, fallback string) string {
	if notice != "" {
		return notice
	}
	return fallback
}
