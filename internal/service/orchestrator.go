// Package service coordinates one discovery session: primary page fetches,
// pagination, background issue-count enrichment and issue viewing, all
// backed by a session-scoped cache.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spiffcs/scout/internal/cache"
	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/gateway"
	"github.com/spiffcs/scout/internal/log"
	"github.com/spiffcs/scout/internal/metrics"
	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/session"
)

// Option configures a SearchOrchestrator.
type Option func(*SearchOrchestrator)

// WithListener sets the event listener.
func WithListener(l Listener) Option {
	return func(o *SearchOrchestrator) { o.listener = l }
}

// WithWidth sets the enrichment pool width.
func WithWidth(n int) Option {
	return func(o *SearchOrchestrator) {
		if n > 0 {
			o.width = n
		}
	}
}

// WithRetryAfterFailure controls whether a failed primary fetch clears the
// dedup key so the identical request can be retried at once. When false, a
// failed query stays suppressed until a different query is issued.
func WithRetryAfterFailure(retry bool) Option {
	return func(o *SearchOrchestrator) { o.retryAfterFailure = retry }
}

// WithSlowAfter sets the delay before a slow-response event.
func WithSlowAfter(d time.Duration) Option {
	return func(o *SearchOrchestrator) { o.slowAfter = d }
}

// WithSessionID sets the session identifier instead of a random one.
func WithSessionID(id string) Option {
	return func(o *SearchOrchestrator) { o.id = id }
}

// WithSort sets the initial result order.
func WithSort(order model.SortOrder) Option {
	return func(o *SearchOrchestrator) { o.sort = order }
}

// SearchOrchestrator owns one browsing session. All session state is
// guarded by mu; gateway calls are made without holding it.
type SearchOrchestrator struct {
	gw                gateway.FetchGateway
	id                string
	listener          Listener
	width             int
	retryAfterFailure bool
	slowAfter         time.Duration

	mu       sync.Mutex
	cache    *cache.ResultCache
	dedup    session.Deduplicator
	pages    *session.PageTracker
	computed session.ComputedSet

	query      model.SearchQuery
	active     bool // a search has produced a query
	results    []model.Repository
	sort       model.SortOrder
	page       int
	totalPages int
	hasMore    bool
	state      State
	slow       bool
	notice     string

	// generation increments with every new search. Work started under an
	// older generation must not touch the current session state.
	generation uint64
	runCtx     context.Context
	cancelRun  context.CancelFunc
	runs       sync.WaitGroup
	activeRuns int
	enriched   int
	enrichOf   int
}

// New creates an orchestrator for one session over gw.
func New(gw gateway.FetchGateway, opts ...Option) *SearchOrchestrator {
	o := &SearchOrchestrator{
		gw:                gw,
		width:             constants.EnrichmentWidth,
		retryAfterFailure: true,
		slowAfter:         constants.SlowResponseAfter,
		cache:             cache.New(),
		pages:             session.NewPageTracker(),
		computed:          session.ComputedSet{},
		sort:              model.SortRelevance,
		state:             StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	o.runCtx, o.cancelRun = context.WithCancel(context.Background())
	return o
}

// ID returns the session identifier.
func (o *SearchOrchestrator) ID() string {
	return o.id
}

// AutoSearches reports whether selecting filter should start a search
// immediately instead of waiting for an explicit search action.
func AutoSearches(filter model.FilterKind) bool {
	return filter == model.FilterBountyIssue
}

func (o *SearchOrchestrator) emit(e Event) {
	if o.listener != nil {
		o.listener(e)
	}
}

// Search starts a new search for filter and language and blocks until the
// first page is in. Issue counts are filled in afterwards in the background.
//
// Repeating the most recent query is a no-op that returns the current
// snapshot. The duplicate check runs before the session is reset, so a
// suppressed repeat keeps the results, pages and counts already on screen.
// A first page with no repositories is not an error; the snapshot
// carries a notice instead.
func (o *SearchOrchestrator) Search(ctx context.Context, filter model.FilterKind, language string) (Snapshot, error) {
	q := model.SearchQuery{Filter: filter, Language: language, Page: constants.FirstPage}
	key := q.Key()

	o.mu.Lock()
	if !o.dedup.ShouldIssue(key) {
		metrics.DedupSuppressedTotal.Inc()
		log.Debug("duplicate search suppressed", "session", o.id, "key", key)
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap, nil
	}
	o.resetLocked(q)
	gen := o.generation
	o.mu.Unlock()

	log.Info("search started", "session", o.id, "filter", filter, "language", language)
	o.emit(SearchStartedEvent{Query: q})

	timer := time.AfterFunc(o.slowAfter, func() {
		o.mu.Lock()
		current := o.generation == gen && o.state == StateSearching
		if current {
			o.slow = true
		}
		o.mu.Unlock()
		if current {
			log.Info("search still running", "session", o.id, "after", o.slowAfter)
			o.emit(SlowResponseEvent{Query: q})
		}
	})
	page, err := o.gw.SearchTrendingRepos(ctx, q)
	timer.Stop()

	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		return Snapshot{}, ErrSuperseded
	}
	o.slow = false
	if err != nil {
		o.state = StateIdle
		o.failLocked(key)
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap, searchError(err)
	}

	added := o.applyPageLocked(q, page)
	snap := o.snapshotLocked()
	o.mu.Unlock()

	if len(page.Items) > 0 {
		o.emit(PageLoadedEvent{Query: q, Added: added, HasMore: snap.HasMore})
	}
	return snap, nil
}

// LoadMore fetches the page after the highest loaded one and appends its
// repositories, skipping any whose ID is already in the results.
func (o *SearchOrchestrator) LoadMore(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	if !o.active || !o.hasMore {
		o.mu.Unlock()
		return o.Snapshot(), ErrNoMorePages
	}
	next := o.pages.Next()
	o.mu.Unlock()

	if err := o.fetchPage(ctx, next); err != nil {
		return o.Snapshot(), err
	}
	return o.Snapshot(), nil
}

// GoToPage makes page n current and returns its repositories. A page that
// is already loaded is served from the cache without any request.
func (o *SearchOrchestrator) GoToPage(ctx context.Context, n int) ([]model.Repository, error) {
	if n < constants.FirstPage {
		return nil, ErrInvalidPage
	}

	o.mu.Lock()
	if !o.active {
		o.mu.Unlock()
		return nil, ErrInvalidPage
	}
	if o.pages.IsLoaded(n) {
		items := o.pageLocked(n)
		o.page = n
		o.mu.Unlock()
		log.Debug("page served from cache", "session", o.id, "page", n)
		return items, nil
	}
	o.mu.Unlock()

	if err := o.fetchPage(ctx, n); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.pages.IsLoaded(n) {
		return []model.Repository{}, nil
	}
	o.page = n
	return o.pageLocked(n), nil
}

// fetchPage fetches page n of the current search and merges it.
func (o *SearchOrchestrator) fetchPage(ctx context.Context, n int) error {
	o.mu.Lock()
	q := o.query.WithPage(n)
	key := q.Key()
	if !o.dedup.ShouldIssue(key) {
		metrics.DedupSuppressedTotal.Inc()
		log.Debug("duplicate page fetch suppressed", "session", o.id, "key", key)
		o.mu.Unlock()
		return nil
	}
	gen := o.generation
	o.mu.Unlock()

	log.Debug("fetching page", "session", o.id, "filter", q.Filter, "language", q.Language, "page", n)
	page, err := o.gw.SearchTrendingRepos(ctx, q)

	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		o.failLocked(key)
		o.mu.Unlock()
		return searchError(err)
	}
	added := o.applyPageLocked(q, page)
	hasMore := o.hasMore
	o.mu.Unlock()

	if len(page.Items) > 0 {
		o.emit(PageLoadedEvent{Query: q, Added: added, HasMore: hasMore})
	}
	return nil
}

// resetLocked clears all session state for a new search.
func (o *SearchOrchestrator) resetLocked(q model.SearchQuery) {
	o.cancelRun()
	o.runCtx, o.cancelRun = context.WithCancel(context.Background())
	o.generation++

	o.pages.Reset()
	o.cache.InvalidateAll()
	o.computed.Reset()

	o.query = q
	o.active = true
	o.results = nil
	o.page = constants.FirstPage
	o.totalPages = 0
	o.hasMore = false
	o.state = StateSearching
	o.slow = false
	o.notice = ""
	o.activeRuns = 0
	o.enriched = 0
	o.enrichOf = 0
}

// failLocked applies the dedup policy after a failed fetch of key.
func (o *SearchOrchestrator) failLocked(key string) {
	if o.retryAfterFailure {
		o.dedup.Forget(key)
	}
}

// applyPageLocked merges a fetched page into the session and schedules
// enrichment for its repositories. It returns how many repositories were
// appended to the results.
func (o *SearchOrchestrator) applyPageLocked(q model.SearchQuery, page *gateway.SearchPage) int {
	if len(page.Items) == 0 {
		o.hasMore = false
		if q.Page == constants.FirstPage {
			o.notice = constants.MsgNoRepositories
		}
		if o.state == StateSearching {
			o.state = StateResultsReady
		}
		log.Info("no repositories returned", "session", o.id, "page", q.Page)
		return 0
	}

	items := make([]model.Repository, len(page.Items))
	copy(items, page.Items)
	for i := range items {
		if n, ok := o.cache.Counts.Get(model.RepoFilterKey(items[i].FullName, q.Filter)); ok {
			items[i].SetIssueCount(n)
		} else {
			items[i].SetIssueCount(0)
		}
	}

	o.cache.PutPage(q.Key(), items)
	o.pages.MarkLoaded(q.Page)
	o.hasMore = page.MorePages(constants.PageSize)
	o.totalPages = max(o.totalPages, q.Page)
	o.page = q.Page
	o.notice = ""

	added := 0
	if q.Page == constants.FirstPage && len(o.results) == 0 {
		o.results = items
		added = len(items)
	} else {
		o.results, added = appendUnique(o.results, items)
	}
	if o.state == StateSearching {
		o.state = StateResultsReady
	}

	log.Info("page loaded", "session", o.id, "page", q.Page, "items", len(items),
		"added", added, "has_more", o.hasMore)

	o.startEnrichmentLocked(items, q.Filter)
	return added
}

// appendUnique appends repositories whose ID is not already present.
func appendUnique(existing, incoming []model.Repository) ([]model.Repository, int) {
	seen := make(map[int64]bool, len(existing))
	for _, r := range existing {
		seen[r.ID] = true
	}
	added := 0
	for _, r := range incoming {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		existing = append(existing, r)
		added++
	}
	return existing, added
}

// pageLocked returns the cached page n with the latest counts applied.
func (o *SearchOrchestrator) pageLocked(n int) []model.Repository {
	items, ok := o.cache.GetPage(model.PageKey(o.query.Filter, o.query.Language, n))
	if !ok {
		return nil
	}
	for i := range items {
		key := model.RepoFilterKey(items[i].FullName, o.query.Filter)
		if o.cache.Counts.Has(key) {
			c, _ := o.cache.Counts.Get(key)
			items[i].SetIssueCount(c)
		}
	}
	return items
}

// searchError converts a primary fetch failure into a FetchError whose
// message is always presentable.
func searchError(err error) error {
	var fe *gateway.FetchError
	if errors.As(err, &fe) {
		out := *fe
		out.Message = fe.UserMessage(constants.MsgSearchFailed)
		return &out
	}
	return &gateway.FetchError{Endpoint: gateway.EndpointSearch, Message: constants.MsgSearchFailed, Err: err}
}

// SetSort changes the order results are presented in.
func (o *SearchOrchestrator) SetSort(order model.SortOrder) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sort = order
}

// Snapshot returns a copy of the session's visible state.
func (o *SearchOrchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *SearchOrchestrator) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:  o.id,
		Query:      o.query,
		Results:    model.Sorted(o.results, o.sort),
		Sort:       o.sort,
		Page:       o.page,
		TotalPages: o.totalPages,
		HasMore:    o.hasMore,
		State:      o.state,
		Slow:       o.slow,
		Notice:     o.notice,
		Enriched:   o.enriched,
		EnrichOf:   o.enrichOf,
	}
}

// Results returns the accumulated repositories in fetch order.
func (o *SearchOrchestrator) Results() []model.Repository {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]model.Repository, len(o.results))
	copy(out, o.results)
	return out
}

// State returns the lifecycle state.
func (o *SearchOrchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// CacheStats returns the session cache statistics.
func (o *SearchOrchestrator) CacheStats() cache.Stats {
	return o.cache.Stats()
}

// Wait blocks until every enrichment run started so far has drained, or ctx
// is done.
func (o *SearchOrchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any running enrichment. Counts for the current results stop
// arriving and the repositories left uncounted are released. The next page
// loaded, by Search, LoadMore or GoToPage, starts enrichment afresh.
func (o *SearchOrchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelRun()
}
