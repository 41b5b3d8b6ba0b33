package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/spiffcs/scout/internal/format"
	"github.com/spiffcs/scout/internal/service"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct{}

// FormatResults outputs repositories as a Markdown table
func (f *MarkdownFormatter) FormatResults(snap service.Snapshot, w io.Writer) error {
	fmt.Fprintf(w, "# Trending repositories: %s", snap.Query.Filter)
	if snap.Query.Language != "" {
		fmt.Fprintf(w, " (%s)", snap.Query.Language)
	}
	fmt.Fprint(w, "\n\n")

	if snap.Empty() {
		fmt.Fprintln(w, noticeOr(snap.Notice, "No repositories found."))
		return nil
	}

	fmt.Fprintln(w, "| Repository | Stars | Language | Issues | Description |")
	fmt.Fprintln(w, "|---|---:|---|---:|---|")
	for _, r := range snap.Results {
		fmt.Fprintf(w, "| [%s](%s) | %s | %s | %s | %s |\n",
			r.FullName, r.HTMLURL,
			format.FormatStars(r.StarCount),
			dashIfEmpty(r.Language),
			issueCountText(r),
			escapeCell(format.OneLine(r.GetDescription())))
	}

	fmt.Fprintf(w, "\n*Page %d of %d loaded", snap.Page, snap.TotalPages)
	if snap.HasMore {
		fmt.Fprint(w, ", more available")
	}
	fmt.Fprintln(w, "*")
	return nil
}

// FormatIssues outputs an issue list as Markdown
func (f *MarkdownFormatter) FormatIssues(list IssueList, w io.Writer) error {
	fmt.Fprintf(w, "# %s: %ss (%d)\n\n", list.Repo, list.Filter, len(list.Issues))
	for _, issue := range list.Issues {
		fmt.Fprintf(w, "### [#%d %s](%s)\n\n", issue.Number, issue.Title, issue.URL)
		if labels := issue.LabelNames(); len(labels) > 0 {
			fmt.Fprintf(w, "- **Labels:** %s\n", strings.Join(labels, ", "))
		}
		if issue.Author != "" {
			fmt.Fprintf(w, "- **Author:** %s\n", issue.Author)
		}
		fmt.Fprintf(w, "- **Opened:** %s\n\n", format.FormatDate(issue.CreatedAt))
	}
	return nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// FormatExplanation outputs an explanation under an issue heading
func (f *MarkdownFormatter) FormatExplanation(e Explanation, w io.Writer) error {
	heading := fmt.Sprintf("%s#%d", e.Repo, e.Number)
	if e.URL != "" {
		heading = fmt.Sprintf("[%s](%s)", heading, e.URL)
	}
	fmt.Fprintf(w, "## %s", heading)
	if e.Title != "" {
		fmt.Fprintf(w, ": %s", format.OneLine(e.Title))
	}
	fmt.Fprintf(w, "\n\n%s\n", strings.TrimSpace(e.Text))
	return nil
}
