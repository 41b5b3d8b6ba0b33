package service

import (
	"github.com/spiffcs/scout/internal/model"
)

// State is the orchestrator's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateResultsReady
	StateEnriching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateResultsReady:
		return "results-ready"
	case StateEnriching:
		return "enriching"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a consistent copy of the session's visible state.
type Snapshot struct {
	SessionID  string             `json:"sessionId"`
	Query      model.SearchQuery  `json:"query"`
	Results    []model.Repository `json:"results"`
	Sort       model.SortOrder    `json:"sort"`
	Page       int                `json:"page"`
	TotalPages int                `json:"totalPages"`
	HasMore    bool               `json:"hasMore"`
	State      State              `json:"state"`
	Slow       bool               `json:"slow,omitempty"`
	Notice     string             `json:"notice,omitempty"`
	Enriched   int                `json:"enriched"`
	EnrichOf   int                `json:"enrichOf"`
}

// Empty reports whether the snapshot holds no repositories.
func (s Snapshot) Empty() bool {
	return len(s.Results) == 0
}
