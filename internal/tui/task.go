package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/spiffcs/scout/internal/constants"
)

// Task is one line of the progress display.
type Task struct {
	ID       TaskID
	Status   TaskStatus
	Message  string
	Count    int
	Progress float64
	Error    error
}

// NewTask creates a pending task.
func NewTask(id TaskID) Task {
	return Task{ID: id, Status: StatusPending}
}

// View renders the task as a string.
func (t Task) View(spinnerFrame string, prog progress.Model) string {
	icon := StatusIcon(t.Status, spinnerFrame)

	name := taskNameStyle.Render(t.ID.Name())
	if t.Status == StatusPending || t.Status == StatusSkipped {
		name = taskDimStyle.Render(t.ID.Name())
	}
	line := fmt.Sprintf("  %s %s", icon, name)

	switch {
	case t.Status == StatusSlow:
		line += " " + warnStyle.Render(constants.MsgSlowResponse)
	case t.Status == StatusSkipped:
		line += " " + messageStyle.Render("(skipped)")
	case t.Status == StatusRunning && t.Progress > 0:
		line += fmt.Sprintf(" %s %d%%", prog.ViewAs(t.Progress), int(t.Progress*100))
		if t.Message != "" {
			line += " " + messageStyle.Render("("+t.Message+")")
		}
	case t.Status == StatusComplete:
		line += " " + messageStyle.Render(fmt.Sprintf("(%d %s)", t.Count, t.ID.unit()))
	case t.Message != "":
		line += " " + messageStyle.Render(t.Message)
	}

	if t.Error != nil {
		line += " " + errorStyle.Render(t.Error.Error())
	}
	return line
}
