package cmd

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/spiffcs/scout/internal/gateway"
	"github.com/spiffcs/scout/internal/log"
	"github.com/spiffcs/scout/internal/output"
	"github.com/spiffcs/scout/internal/service"
	"github.com/spiffcs/scout/internal/tui"
)

// NewCmdSearch creates the search command.
func NewCmdSearch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find trending repositories with open issues to work on (same as root scout)",
		Long: `Searches for trending repositories that have open issues in the chosen
category, then counts the matching issues in each repository.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, opts)
		},
	}

	addSearchFlags(cmd, opts)
	return cmd
}

// addSearchFlags adds the search flags to a command.
func addSearchFlags(cmd *cobra.Command, opts *Options) {
	addQueryFlags(cmd, opts)
	cmd.Flags().IntVar(&opts.Pages, "pages", opts.Pages, "Number of result pages to load")
	cmd.Flags().BoolVar(&opts.NoCounts, "no-counts", false, "Print results without waiting for issue counts")

	// TUI flag with tri-state: nil = auto, true = force, false = disable
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable TUI progress (default: auto-detect)")

	cmd.Flags().StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	cmd.Flags().StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "Write execution trace to file")
}

// addQueryFlags adds the flags shared by every command that talks upstream.
func addQueryFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json, markdown)")
	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "Issue category (good-first, bounty, major)")
	cmd.Flags().StringVarP(&opts.Language, "language", "l", "", "Only repositories in this language")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Result order (relevance, stars)")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "Upstream to query (api, github)")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
}

func runSearch(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()

	stopProfiling, err := startProfiling(opts)
	if err != nil {
		return err
	}
	defer stopProfiling()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	q, err := resolveQuery(opts, cfg)
	if err != nil {
		return err
	}
	if opts.Pages < 1 {
		return fmt.Errorf("invalid --pages %d: must be at least 1", opts.Pages)
	}

	rt := &searchRuntime{useTUI: shouldUseTUI(opts, q.format)}
	initLogging(opts, rt.useTUI)

	gw, err := newGateway(ctx, cfg, opts.Backend)
	if err != nil {
		return err
	}

	rt.startTUI()
	relay := newProgressRelay(rt)
	orch := service.New(gw, append(orchestratorOptions(cfg, q.sort),
		service.WithListener(relay.listen))...)

	snap, err := orch.Search(ctx, q.filter, q.language)
	if err != nil {
		rt.sendEvent(tui.TaskSearch, tui.StatusError, tui.WithError(err))
		reportRateLimit(rt, gw, err)
		relay.close()
		return err
	}
	rt.sendEvent(tui.TaskSearch, tui.StatusComplete, tui.WithCount(len(snap.Results)))

	for page := 2; page <= opts.Pages && snap.HasMore; page++ {
		snap, err = orch.LoadMore(ctx)
		if err != nil {
			// Keep what loaded so far.
			log.Warn("could not load more results", "page", page, "error", err)
			reportRateLimit(rt, gw, err)
			break
		}
	}

	if opts.NoCounts || snap.Empty() {
		orch.Close()
		rt.sendEvent(tui.TaskEnrich, tui.StatusSkipped)
	}
	if err := orch.Wait(ctx); err != nil {
		orch.Close()
		relay.close()
		return err
	}
	relay.close()

	return output.NewFormatter(q.format).FormatResults(orch.Snapshot(), cmd.OutOrStdout())
}

// progressRelay turns orchestrator events into progress updates. Events can
// arrive from background goroutines until the relay is closed.
type progressRelay struct {
	mu     sync.Mutex
	rt     *searchRuntime
	closed bool
}

func newProgressRelay(rt *searchRuntime) *progressRelay {
	return &progressRelay{rt: rt}
}

func (r *progressRelay) listen(e service.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	switch e := e.(type) {
	case service.SearchStartedEvent:
		r.rt.sendEvent(tui.TaskSearch, tui.StatusRunning, tui.WithMessage(e.Query.Filter.Short()))
		if !r.rt.useTUI {
			log.Progress("Searching for %ss...", e.Query.Filter)
		}
	case service.SlowResponseEvent:
		r.rt.sendEvent(tui.TaskSearch, tui.StatusSlow)
		log.Info("search is taking longer than usual")
	case service.PageLoadedEvent:
		if !r.rt.useTUI {
			log.ProgressDone()
		}
		log.Info("page loaded", "page", e.Query.Page, "added", e.Added, "more", e.HasMore)
	case service.EnrichmentEvent:
		progress := float64(e.Completed) / float64(max(e.Total, 1))
		r.rt.sendEvent(tui.TaskEnrich, tui.StatusRunning,
			tui.WithProgress(progress),
			tui.WithMessage(fmt.Sprintf("%d/%d", e.Completed, e.Total)))
		if !r.rt.useTUI {
			log.Progress("Counting issues... %d/%d", e.Completed, e.Total)
		}
	case service.EnrichmentDoneEvent:
		if e.Stale {
			return
		}
		r.rt.sendEvent(tui.TaskEnrich, tui.StatusComplete, tui.WithCount(e.Stats.Completed))
		if !r.rt.useTUI {
			log.ProgressDone()
		}
		if e.Stats.Failed > 0 {
			log.Warn("some issue counts could not be fetched", "failed", e.Stats.Failed)
		}
	}
}

// close stops forwarding and shuts the progress display down.
func (r *progressRelay) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.rt.close()
}

// rateLimited is implemented by gateways that track upstream quota.
type rateLimited interface {
	RateLimit() gateway.Status
}

// reportRateLimit shows the reset time when err came from an exhausted quota.
func reportRateLimit(rt *searchRuntime, gw gateway.FetchGateway, err error) {
	if !errors.Is(err, gateway.ErrRateLimited) {
		return
	}
	rl, ok := gw.(rateLimited)
	if !ok {
		return
	}
	status := rl.RateLimit()
	if rt.events != nil {
		tui.SendEvent(rt.events, tui.RateLimitEvent{ResetAt: status.ResetAt})
	}
	log.Warn("rate limited", "reset", status.ResetAt)
}
