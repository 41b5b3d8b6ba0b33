package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/scout/internal/duration"
	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/output"
	"github.com/spiffcs/scout/internal/service"
	"github.com/spiffcs/scout/internal/urlutil"
)

// NewCmdIssues creates the issues command.
func NewCmdIssues(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues <owner/repo>",
		Short: "List a repository's open issues in the chosen category",
		Long: `Lists the open issues of one repository that match the filter.

The repository can be given as owner/name or as a GitHub URL.`,
		Example: `  scout issues charmbracelet/bubbletea
  scout issues https://github.com/gofiber/fiber -f major --since 30d`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIssues(cmd, opts, args[0])
		},
	}

	addQueryFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.Since, "since", "s", "", "Only issues opened within this window (e.g., 1w, 30d, 6mo)")
	return cmd
}

func runIssues(cmd *cobra.Command, opts *Options, ref string) error {
	ctx := cmd.Context()

	repo, err := urlutil.ParseRepo(ref)
	if err != nil {
		return err
	}

	var since time.Time
	if opts.Since != "" {
		since, err = duration.Since(opts.Since, time.Now())
		if err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	q, err := resolveQuery(opts, cfg)
	if err != nil {
		return err
	}
	initLogging(opts, false)

	gw, err := newGateway(ctx, cfg, opts.Backend)
	if err != nil {
		return err
	}
	orch := service.New(gw, orchestratorOptions(cfg, q.sort)...)
	defer orch.Close()

	issues, err := orch.ViewIssues(ctx, repo, q.filter)
	var listErr *service.IssueListError
	if errors.As(err, &listErr) && listErr.Empty() && q.format != output.FormatJSON {
		fmt.Fprintln(cmd.OutOrStdout(), listErr.Message)
		return nil
	}
	if err != nil && !(listErr != nil && listErr.Empty()) {
		return err
	}

	return output.NewFormatter(q.format).FormatIssues(output.IssueList{
		Repo:   repo,
		Filter: q.filter,
		Issues: openedSince(issues, since),
	}, cmd.OutOrStdout())
}

// openedSince keeps the issues created at or after since. A zero since
// keeps everything.
func openedSince(issues []model.Issue, since time.Time) []model.Issue {
	if since.IsZero() {
		return issues
	}
	kept := make([]model.Issue, 0, len(issues))
	for _, is := range issues {
		if !is.CreatedAt.Before(since) {
			kept = append(kept, is)
		}
	}
	return kept
}
