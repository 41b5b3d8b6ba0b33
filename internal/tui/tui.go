// Package tui renders scout's terminal interfaces: a progress display for
// one-shot searches and the interactive browser.
package tui

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/spiffcs/scout/internal/service"
)

// Run starts the progress display and blocks until the event channel is
// closed or the user quits.
func Run(events <-chan Event) error {
	model := NewModel(events)
	// Don't use alt screen - render inline
	p := tea.NewProgram(model)
	_, err := p.Run()
	return err
}

// ShouldUseTUI returns true if the TUI should be used based on environment.
func ShouldUseTUI() bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}

	ciVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"GITLAB_CI",
		"BUILDKITE",
	}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return false
		}
	}
	return true
}

// SendEvent sends an event to the channel in a non-blocking manner.
func SendEvent(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	default:
		// Non-blocking send - drop event if channel is full
	}
}

// SendTaskEvent is a convenience function for sending task events.
func SendTaskEvent(ch chan<- Event, task TaskID, status TaskStatus, opts ...TaskEventOption) {
	e := TaskEvent{
		Task:   task,
		Status: status,
	}
	for _, opt := range opts {
		opt(&e)
	}
	SendEvent(ch, e)
}

// TaskEventOption is a functional option for TaskEvent.
type TaskEventOption func(*TaskEvent)

// WithMessage sets the message on a TaskEvent.
func WithMessage(msg string) TaskEventOption {
	return func(e *TaskEvent) {
		e.Message = msg
	}
}

// WithCount sets the count on a TaskEvent.
func WithCount(count int) TaskEventOption {
	return func(e *TaskEvent) {
		e.Count = count
	}
}

// WithProgress sets the progress on a TaskEvent.
func WithProgress(progress float64) TaskEventOption {
	return func(e *TaskEvent) {
		e.Progress = progress
	}
}

// WithError sets the error on a TaskEvent.
func WithError(err error) TaskEventOption {
	return func(e *TaskEvent) {
		e.Error = err
	}
}

// Bridge forwards orchestrator events into a buffered channel the browse
// model drains. Events are dropped when the buffer is full; the model
// re-reads the session snapshot on every event it does receive.
type Bridge struct {
	ch chan service.Event
}

// NewBridge creates a bridge with room for size pending events.
func NewBridge(size int) *Bridge {
	return &Bridge{ch: make(chan service.Event, size)}
}

// Listener returns the function to register with the orchestrator.
func (b *Bridge) Listener() service.Listener {
	return func(e service.Event) {
		select {
		case b.ch <- e:
		default:
		}
	}
}

// Events returns the receiving side of the bridge.
func (b *Bridge) Events() <-chan service.Event {
	return b.ch
}

// RunBrowser starts the interactive browser over session and blocks until
// the user quits.
func RunBrowser(ctx context.Context, session Session, bridge *Bridge, opts ...BrowseOption) error {
	model := NewBrowseModel(ctx, session, bridge.Events(), opts...)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
