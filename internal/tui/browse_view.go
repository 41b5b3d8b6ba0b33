package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/format"
)

// Column widths for the results screen
const (
	colCursor   = 2
	colRepo     = 34
	colStars    = 6
	colLanguage = 11
	colIssues   = 6
)

// Column widths for the issues screen
const (
	colNumber = 7
	colAge    = 5
)

// chromeLines is the number of lines taken by the header, status and footer.
const chromeLines = 7

func renderBrowseView(m BrowseModel) string {
	var b strings.Builder
	b.WriteString(renderHeader(m))
	b.WriteString("\n")
	b.WriteString(renderStatusLine(m))
	b.WriteString("\n\n")

	switch m.screen {
	case ScreenIssues:
		b.WriteString(renderIssues(m))
	case ScreenExplanation:
		b.WriteString(renderExplanation(m))
	default:
		b.WriteString(renderResults(m))
	}

	b.WriteString(renderFooter(m))
	return b.String()
}

func renderHeader(m BrowseModel) string {
	lang := m.language.Value()
	if lang == "" {
		lang = "any"
	}
	parts := []string{
		titleStyle.Render("scout"),
		"filter: " + filterStyle.Render(m.filter.String()),
	}
	if m.editing {
		parts = append(parts, m.language.View())
	} else {
		parts = append(parts, "language: "+lang)
	}
	parts = append(parts, "sort: "+string(m.sort))
	return strings.Join(parts, "   ")
}

func renderStatusLine(m BrowseModel) string {
	switch {
	case m.errMsg != "":
		return errorStyle.Render(m.errMsg)
	case m.busy && m.slow:
		return fmt.Sprintf("%s %s", spinnerStyle.Render(m.spinner.View()), warnStyle.Render(constants.MsgSlowResponse))
	case m.busy:
		return fmt.Sprintf("%s %s", spinnerStyle.Render(m.spinner.View()), messageStyle.Render("Loading..."))
	case m.snap.EnrichOf > 0 && m.snap.Enriched < m.snap.EnrichOf:
		pct := float64(m.snap.Enriched) / float64(m.snap.EnrichOf)
		return fmt.Sprintf("%s counting issues %s %s",
			spinnerStyle.Render(m.spinner.View()),
			m.progress.ViewAs(pct),
			messageStyle.Render(fmt.Sprintf("%d/%d", m.snap.Enriched, m.snap.EnrichOf)))
	case m.statusMsg != "":
		return messageStyle.Render(m.statusMsg)
	case m.snap.Notice != "":
		return warnStyle.Render(m.snap.Notice)
	}
	return ""
}

func renderResults(m BrowseModel) string {
	if len(m.pageItems) == 0 {
		if m.snap.Query.Filter.Valid() || m.busy {
			return ""
		}
		return messageStyle.Render("  Press s to search, f to change filter, / to set a language.") + "\n"
	}

	descWidth := max(m.width-colCursor-colRepo-colStars-colLanguage-colIssues-10, 10)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s%s  %s  %s  %s  %s",
		strings.Repeat(" ", colCursor),
		format.Fit("Repository", colRepo),
		format.Fit("Stars", colStars),
		format.Fit("Language", colLanguage),
		format.Fit("Issues", colIssues),
		"Description")))
	b.WriteString("\n")

	start, end := visibleRange(m.repoCursor, len(m.pageItems), m.listHeight())
	for i := start; i < end; i++ {
		r := m.pageItems[i]
		cursor := "  "
		if i == m.repoCursor {
			cursor = "> "
		}

		count := strconv.Itoa(r.IssueCount)
		countText := zeroCountStyle.Render(count)
		if r.HasTargetIssues {
			countText = countStyle.Render(count)
		}

		line := fmt.Sprintf("%s%s  %s  %s  %s  %s",
			cursor,
			format.Fit(r.FullName, colRepo),
			format.Fit(format.FormatStars(r.StarCount), colStars),
			format.Fit(orDash(r.Language), colLanguage),
			format.PadRight(countText, len(count), colIssues),
			format.Fit(format.OneLine(r.GetDescription()), descWidth))
		if i == m.repoCursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func renderIssues(m BrowseModel) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.issuesRepo))
	b.WriteString(messageStyle.Render(fmt.Sprintf("  %ss", m.filter)))
	b.WriteString("\n")

	if m.issueErr != "" {
		b.WriteString(warnStyle.Render(m.issueErr))
		b.WriteString("\n")
		return b.String()
	}

	titleWidth := max(m.width-colCursor-colNumber-colAge-30, 20)
	start, end := visibleRange(m.issueCursor, len(m.issues), m.listHeight()-1)
	now := time.Now()
	for i := start; i < end; i++ {
		issue := m.issues[i]
		cursor := "  "
		if i == m.issueCursor {
			cursor = "> "
		}
		age := format.Age(issue.CreatedAt, now)
		line := fmt.Sprintf("%s%s  %s  %s  %s",
			cursor,
			format.Fit("#"+strconv.Itoa(issue.Number), colNumber),
			format.Fit(format.OneLine(issue.Title), titleWidth),
			format.Fit(age, colAge),
			labelStyle.Render(strings.Join(issue.LabelNames(), ", ")))
		if i == m.issueCursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func renderExplanation(m BrowseModel) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s #%d", m.issuesRepo, m.explainIssue.Number)))
	b.WriteString("  ")
	b.WriteString(format.OneLine(m.explainIssue.Title))
	b.WriteString("\n")
	b.WriteString(explanationStyle.Width(max(m.width-4, 20)).Render(m.explanation))
	b.WriteString("\n")
	return b.String()
}

func renderFooter(m BrowseModel) string {
	var hints string
	switch m.screen {
	case ScreenIssues:
		hints = "j/k move  enter explain  w open  esc back  q quit"
	case ScreenExplanation:
		hints = "w open issue  esc back  q quit"
	default:
		hints = "s search  f filter  / language  o sort  n/p page  enter issues  w open  q quit"
	}

	var pages string
	if m.snap.TotalPages > 0 {
		pages = fmt.Sprintf("page %d of %d", m.snap.Page, m.snap.TotalPages)
		if m.snap.HasMore {
			pages += " (more)"
		}
		pages += "  "
	}
	return footerStyle.Render(pages + hints)
}

// listHeight returns how many list rows fit on screen.
func (m BrowseModel) listHeight() int {
	return max(m.height-chromeLines, 3)
}

// visibleRange returns the window of rows to render so the cursor stays visible.
func visibleRange(cursor, total, height int) (int, int) {
	if total <= height {
		return 0, total
	}
	start := cursor - height/2
	start = max(start, 0)
	start = min(start, total-height)
	return start, start + height
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
