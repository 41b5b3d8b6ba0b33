package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/spiffcs/scout/internal/duration"
	"github.com/spiffcs/scout/internal/log"
	"github.com/spiffcs/scout/internal/metrics"
	"github.com/spiffcs/scout/internal/server"
)

const shutdownTimeout = 10 * time.Second

// NewCmdServe creates the serve command.
func NewCmdServe(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve search sessions over HTTP",
		Long: `Runs an HTTP server that gives every client its own search session,
tracked by cookie. Sessions idle for longer than --session-ttl are dropped.

Endpoints live under /api/v1; /healthz and /metrics sit at the root.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "Address to listen on (default from config, 127.0.0.1:8080)")
	cmd.Flags().StringVar(&opts.SessionTTL, "session-ttl", opts.SessionTTL, "Drop sessions idle for this long (e.g., 30m, 2h, 1d)")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "Upstream to query (api, github)")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *Options) error {
	ttl, err := duration.ParseDuration(opts.SessionTTL)
	if err != nil {
		return fmt.Errorf("invalid --session-ttl: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogging(opts, false)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := newGateway(ctx, cfg, opts.Backend)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(reg)

	srv := server.New(gw,
		server.WithGatherer(reg),
		server.WithDefaultFilter(cfg.GetFilter()),
		server.WithSessionTTL(ttl),
		server.WithOrchestratorOptions(orchestratorOptions(cfg, cfg.GetSort())...),
	)

	addr := opts.Listen
	if addr == "" {
		addr = cfg.GetListen()
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Listen(addr)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", shutdownTimeout)
	if err := srv.Shutdown(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
