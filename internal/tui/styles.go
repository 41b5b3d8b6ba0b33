package tui

import "github.com/charmbracelet/lipgloss"

// Palette shared by the progress display and the browser.
const (
	colorAccent = lipgloss.Color("86")
	colorText   = lipgloss.Color("252")
	colorMuted  = lipgloss.Color("244")
	colorDim    = lipgloss.Color("240")
	colorGood   = lipgloss.Color("46")
	colorWarn   = lipgloss.Color("214")
	colorBad    = lipgloss.Color("196")
	colorFilter = lipgloss.Color("220")
	colorLabel  = lipgloss.Color("111")
	colorCursor = lipgloss.Color("237")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	iconPending  = fg(colorDim).Render("○")
	iconSlow     = fg(colorWarn).Render("◔")
	iconComplete = fg(colorGood).Render("✓")
	iconError    = fg(colorBad).Render("✗")
	iconSkipped  = fg(colorDim).Render("–")

	// Progress display
	taskNameStyle = fg(colorText)
	taskDimStyle  = fg(colorDim)
	messageStyle  = fg(colorMuted)
	errorStyle    = fg(colorBad)
	warnStyle     = fg(colorWarn)
	spinnerStyle  = fg(colorAccent)
	footerStyle   = fg(colorDim).MarginTop(1)

	// Browser
	titleStyle       = fg(colorAccent).Bold(true)
	filterStyle      = fg(colorFilter).Bold(true)
	headerStyle      = fg(colorMuted).Bold(true)
	selectedStyle    = lipgloss.NewStyle().Background(colorCursor)
	countStyle       = fg(colorGood)
	zeroCountStyle   = fg(colorDim)
	labelStyle       = fg(colorLabel)
	explanationStyle = lipgloss.NewStyle().Padding(1, 2)
)

// StatusIcon returns the icon for a task status. Running tasks show the
// current spinner frame.
func StatusIcon(status TaskStatus, spinnerFrame string) string {
	switch status {
	case StatusRunning:
		return spinnerStyle.Render(spinnerFrame)
	case StatusSlow:
		return iconSlow
	case StatusComplete:
		return iconComplete
	case StatusError:
		return iconError
	case StatusSkipped:
		return iconSkipped
	default:
		return iconPending
	}
}
