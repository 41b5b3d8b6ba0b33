package service

import (
	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/pool"
)

// Event is the interface for all orchestrator events.
type Event interface {
	isEvent()
}

// Listener receives events. It is called from several goroutines and must
// not block or call back into the orchestrator.
type Listener func(Event)

// SearchStartedEvent is sent when a primary fetch for a new search begins.
type SearchStartedEvent struct {
	Query model.SearchQuery
}

func (SearchStartedEvent) isEvent() {}

// SlowResponseEvent is sent when a primary fetch has been outstanding for
// longer than the slow-response threshold. The fetch continues.
type SlowResponseEvent struct {
	Query model.SearchQuery
}

func (SlowResponseEvent) isEvent() {}

// PageLoadedEvent is sent when a primary page has been merged into the results.
type PageLoadedEvent struct {
	Query   model.SearchQuery
	Added   int  // repositories appended to the accumulated results
	HasMore bool // whether another page follows
}

func (PageLoadedEvent) isEvent() {}

// EnrichmentEvent is sent each time an issue count lands.
type EnrichmentEvent struct {
	Repo      string
	Count     int
	Completed int // tasks finished in the current search, failures included
	Total     int // tasks scheduled in the current search
}

func (EnrichmentEvent) isEvent() {}

// EnrichmentDoneEvent is sent when one enrichment run drains.
type EnrichmentDoneEvent struct {
	Stats pool.Stats
	Stale bool // the run belonged to a superseded search
}

func (EnrichmentDoneEvent) isEvent() {}
