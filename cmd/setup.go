package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spiffcs/scout/config"
	"github.com/spiffcs/scout/internal/gateway"
	"github.com/spiffcs/scout/internal/ghgateway"
	"github.com/spiffcs/scout/internal/log"
	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/output"
	"github.com/spiffcs/scout/internal/service"
	"github.com/spiffcs/scout/internal/tui"
)

// searchRuntime bundles TUI-related state that's threaded through a command.
type searchRuntime struct {
	useTUI  bool
	events  chan tui.Event
	tuiDone chan error
}

// startTUI initializes and starts the TUI goroutine if TUI mode is enabled.
func (rt *searchRuntime) startTUI() {
	if !rt.useTUI {
		return
	}
	rt.events = make(chan tui.Event, 100)
	rt.tuiDone = make(chan error, 1)
	go func() {
		rt.tuiDone <- tui.Run(rt.events)
	}()
}

// close closes the event channel and waits for the TUI to finish.
func (rt *searchRuntime) close() {
	if rt.events == nil {
		return
	}
	close(rt.events)
	rt.events = nil
	if rt.tuiDone != nil {
		<-rt.tuiDone
	}
}

// sendEvent sends a task event to the TUI channel if it exists.
func (rt *searchRuntime) sendEvent(task tui.TaskID, status tui.TaskStatus, opts ...tui.TaskEventOption) {
	if rt.events == nil {
		return
	}
	tui.SendTaskEvent(rt.events, task, status, opts...)
}

// query is a search request resolved from flags and config.
type query struct {
	filter   model.FilterKind
	language string
	sort     model.SortOrder
	format   output.Format
}

// resolveQuery applies flags over config defaults.
func resolveQuery(opts *Options, cfg *config.Config) (query, error) {
	q := query{
		filter:   cfg.GetFilter(),
		language: cfg.DefaultLanguage,
		sort:     cfg.GetSort(),
	}

	if opts.Filter != "" {
		f, err := model.ParseFilterKind(opts.Filter)
		if err != nil {
			return query{}, err
		}
		q.filter = f
	}
	if opts.Language != "" {
		q.language = opts.Language
	}
	if opts.Sort != "" {
		s, ok := model.ParseSortOrder(opts.Sort)
		if !ok {
			return query{}, fmt.Errorf("invalid sort %q: use relevance or stars", opts.Sort)
		}
		q.sort = s
	}

	formatName := opts.Format
	if formatName == "" {
		formatName = cfg.DefaultFormat
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return query{}, err
	}
	q.format = format
	return q, nil
}

// initLogging routes logs to stderr, or discards them while a display owns
// the terminal.
func initLogging(opts *Options, useTUI bool) {
	var w io.Writer = os.Stderr
	if useTUI {
		w = io.Discard
	}
	log.Initialize(opts.Verbosity, w)
}

// loadConfig loads configuration with a wrapped error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newGateway builds the upstream client for the selected backend.
func newGateway(ctx context.Context, cfg *config.Config, backend string) (gateway.FetchGateway, error) {
	if backend == "" {
		backend = cfg.Backend
	}
	rps := cfg.GetRequestsPerSecond()

	switch backend {
	case config.BackendAPI:
		c, err := gateway.NewClient(cfg.GetAPIURL(), gateway.WithRequestsPerSecond(rps))
		if err != nil {
			return nil, err
		}
		log.Debug("using dashboard API", "url", cfg.GetAPIURL())
		return c, nil
	case config.BackendGitHub:
		c, err := ghgateway.NewClient(ctx, cfg.GetGitHubToken(), ghgateway.WithRequestsPerSecond(rps))
		if err != nil {
			return nil, err
		}
		log.Debug("using GitHub directly")
		return c, nil
	}
	return nil, fmt.Errorf("invalid backend %q: use %s or %s", backend, config.BackendAPI, config.BackendGitHub)
}

// orchestratorOptions returns the session options shared by every command.
func orchestratorOptions(cfg *config.Config, sort model.SortOrder) []service.Option {
	return []service.Option{
		service.WithRetryAfterFailure(cfg.RetryAfterFailure()),
		service.WithSort(sort),
	}
}
