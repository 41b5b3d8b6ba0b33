// Package format provides shared text formatting utilities for terminal output.
package format

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/spiffcs/scout/internal/constants"
)

// ansiRegex matches ANSI escape sequences
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripAnsi removes ANSI escape sequences from a string.
func StripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// DisplayWidth returns the visible width of a string in terminal columns,
// ignoring ANSI escape sequences. Wide runes (CJK, most emoji) count as 2.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(StripAnsi(s))
}

// TruncateToWidth truncates a string to fit within maxWidth display columns.
// ANSI sequences before the cut are preserved and a reset code is appended
// when truncation happens. Returns the result and its visible width.
func TruncateToWidth(s string, maxWidth int) (string, int) {
	width := DisplayWidth(s)
	if width <= maxWidth {
		return s, width
	}
	if maxWidth <= constants.TruncationSuffixWidth {
		return strings.Repeat(".", max(maxWidth, 0)), max(maxWidth, 0)
	}

	target := maxWidth - constants.TruncationSuffixWidth
	matches := ansiRegex.FindAllStringIndex(s, -1)

	var b strings.Builder
	visible, pos, m := 0, 0, 0
	for pos < len(s) {
		if m < len(matches) && pos == matches[m][0] {
			b.WriteString(s[matches[m][0]:matches[m][1]])
			pos = matches[m][1]
			m++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[pos:])
		rw := runewidth.RuneWidth(r)
		if visible+rw > target {
			break
		}
		b.WriteString(s[pos : pos+size])
		visible += rw
		pos += size
	}
	b.WriteString(constants.TruncationSuffix)
	if len(matches) > 0 {
		b.WriteString("\033[0m")
	}
	return b.String(), visible + constants.TruncationSuffixWidth
}

// PadRight pads a string with spaces to reach the target visible width.
func PadRight(s string, visibleWidth, targetWidth int) string {
	if visibleWidth >= targetWidth {
		return s
	}
	return s + strings.Repeat(" ", targetWidth-visibleWidth)
}

// Fit truncates or pads s so it occupies exactly width columns.
func Fit(s string, width int) string {
	t, w := TruncateToWidth(s, width)
	return PadRight(t, w, width)
}

// OneLine collapses all whitespace runs, including newlines, into single spaces.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FormatStars renders a star count compactly: 950, 1.2k, 34k, 1.1m.
func FormatStars(n int) string {
	switch {
	case n < 1000:
		return fmt.Sprintf("%d", n)
	case n < 10_000:
		return trimZero(fmt.Sprintf("%.1fk", float64(n)/1000))
	case n < 1_000_000:
		return fmt.Sprintf("%dk", n/1000)
	default:
		return trimZero(fmt.Sprintf("%.1fm", float64(n)/1_000_000))
	}
}

func trimZero(s string) string {
	return strings.Replace(s, ".0", "", 1)
}
