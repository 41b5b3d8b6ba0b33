package service

import (
	"context"
	"fmt"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/gateway"
	"github.com/spiffcs/scout/internal/issuefilter"
	"github.com/spiffcs/scout/internal/log"
	"github.com/spiffcs/scout/internal/metrics"
	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/pool"
)

// startEnrichmentLocked schedules one count task per repository whose
// (repository, filter) pair has not been claimed in this search, and runs
// them on the pool in the background.
func (o *SearchOrchestrator) startEnrichmentLocked(items []model.Repository, filter model.FilterKind) {
	var tasks []model.EnrichmentTask
	for _, r := range items {
		t := model.EnrichmentTask{RepoFullName: r.FullName, Filter: filter}
		if o.computed.Claim(t.Key()) {
			tasks = append(tasks, t)
		}
	}
	if len(tasks) == 0 {
		return
	}

	if o.runCtx.Err() != nil {
		// Close canceled the previous runs of this search.
		o.runCtx, o.cancelRun = context.WithCancel(context.Background())
	}
	gen := o.generation
	ctx := o.runCtx
	o.activeRuns++
	o.enrichOf += len(tasks)
	o.state = StateEnriching
	log.Debug("enrichment scheduled", "session", o.id, "tasks", len(tasks), "width", o.width)

	o.runs.Add(1)
	go func() {
		defer o.runs.Done()
		stats := pool.Run(ctx, tasks, o.width, func(ctx context.Context, t model.EnrichmentTask) error {
			return o.enrich(ctx, gen, t)
		})
		o.finishRun(gen, tasks, stats)
	}()
}

// enrich counts one repository's issues and merges the count into the
// current results. Failures leave the previous count in place.
func (o *SearchOrchestrator) enrich(ctx context.Context, gen uint64, t model.EnrichmentTask) error {
	metrics.EnrichmentInFlight.Inc()
	issues, err := o.gw.ListLabeledIssues(ctx, gateway.IssueQueryFor(t.RepoFullName, t.Filter, constants.EnrichmentPerPage))
	metrics.EnrichmentInFlight.Dec()

	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		metrics.EnrichmentTasksTotal.WithLabelValues(metrics.OutcomeStale).Inc()
		return nil
	}
	o.enriched++
	if err != nil {
		// Let a later page retry this pair.
		o.computed.Release(t.Key())
		o.mu.Unlock()
		outcome := metrics.OutcomeFailed
		if ctx.Err() != nil {
			outcome = metrics.OutcomeCanceled
		}
		metrics.EnrichmentTasksTotal.WithLabelValues(outcome).Inc()
		return fmt.Errorf("count issues for %s: %w", t.RepoFullName, err)
	}

	count := len(issuefilter.Apply(t.Filter, issues))
	o.cache.Counts.Put(t.Key(), count)
	for i := range o.results {
		if o.results[i].FullName == t.RepoFullName {
			o.results[i].SetIssueCount(count)
		}
	}
	ev := EnrichmentEvent{Repo: t.RepoFullName, Count: count, Completed: o.enriched, Total: o.enrichOf}
	o.mu.Unlock()

	metrics.EnrichmentTasksTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	log.Trace("issue count merged", "session", o.id, "repo", t.RepoFullName, "filter", t.Filter, "count", count)
	o.emit(ev)
	return nil
}

// finishRun records the end of one enrichment run. Tasks the pool skipped
// give up their claim so a later page can schedule them again.
func (o *SearchOrchestrator) finishRun(gen uint64, tasks []model.EnrichmentTask, stats pool.Stats) {
	o.mu.Lock()
	stale := o.generation != gen
	if !stale {
		if stats.Skipped > 0 {
			for _, t := range tasks {
				if !o.cache.Counts.Has(t.Key()) {
					o.computed.Release(t.Key())
				}
			}
		}
		o.activeRuns--
		if o.activeRuns == 0 && o.state == StateEnriching {
			o.state = StateResultsReady
		}
	}
	o.mu.Unlock()

	log.Debug("enrichment run finished", "session", o.id, "completed", stats.Completed,
		"failed", stats.Failed, "skipped", stats.Skipped, "stale", stale)
	o.emit(EnrichmentDoneEvent{Stats: stats, Stale: stale})
}
