package tui

import "time"

// TaskID identifies a step of a one-shot search in the progress display.
type TaskID int

const (
	TaskSearch TaskID = iota // Fetching the first page of repositories
	TaskEnrich               // Counting matching issues per repository
)

// Name returns the label the progress display shows for the task.
func (id TaskID) Name() string {
	switch id {
	case TaskSearch:
		return "Searching repositories"
	case TaskEnrich:
		return "Counting issues"
	default:
		return "Working"
	}
}

// unit names what a task's Count counts.
func (id TaskID) unit() string {
	switch id {
	case TaskSearch:
		return "repositories"
	case TaskEnrich:
		return "counted"
	default:
		return ""
	}
}

// TaskStatus represents the current status of a task.
type TaskStatus int

const (
	StatusPending TaskStatus = iota
	StatusRunning
	StatusSlow // still running past the slow-response threshold
	StatusComplete
	StatusError
	StatusSkipped
)

// Event is the interface for all TUI events.
type Event interface {
	isEvent()
}

// TaskEvent represents an update to a task's status.
type TaskEvent struct {
	Task     TaskID
	Status   TaskStatus
	Message  string  // Optional message (e.g., "12/30" for progress)
	Count    int     // repositories found or issue counts landed
	Progress float64 // Progress from 0.0 to 1.0
	Error    error   // Error if status is StatusError
}

func (TaskEvent) isEvent() {}

// RateLimitEvent reports that the upstream quota ran out.
type RateLimitEvent struct {
	ResetAt time.Time
}

func (RateLimitEvent) isEvent() {}

// DoneEvent signals that the search and its counting are finished.
type DoneEvent struct{}

func (DoneEvent) isEvent() {}
