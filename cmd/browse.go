package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spiffcs/scout/internal/service"
	"github.com/spiffcs/scout/internal/tui"
)

// browseEventBuffer is how many orchestrator events may wait for the
// browser before newer ones are dropped.
const browseEventBuffer = 64

// NewCmdBrowse creates the browse command.
func NewCmdBrowse(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse trending repositories interactively",
		Long: `Opens a full-screen browser over one session: switch filters, page
through results, open a repository's issues, and ask for explanations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd, opts)
		},
	}

	addQueryFlags(cmd, opts)
	return cmd
}

func runBrowse(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	q, err := resolveQuery(opts, cfg)
	if err != nil {
		return err
	}
	// The browser owns the screen.
	initLogging(opts, true)

	gw, err := newGateway(ctx, cfg, opts.Backend)
	if err != nil {
		return err
	}

	bridge := tui.NewBridge(browseEventBuffer)
	orch := service.New(gw, append(orchestratorOptions(cfg, q.sort),
		service.WithListener(bridge.Listener()))...)
	defer orch.Close()

	return tui.RunBrowser(ctx, orch, bridge,
		tui.WithFilter(q.filter),
		tui.WithLanguage(q.language),
		tui.WithSortOrder(q.sort))
}
