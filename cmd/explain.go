package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/gateway"
	"github.com/spiffcs/scout/internal/log"
	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/output"
	"github.com/spiffcs/scout/internal/service"
	"github.com/spiffcs/scout/internal/urlutil"
)

// NewCmdExplain creates the explain command.
func NewCmdExplain(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <owner/repo> <number> | <owner/repo#number> | <issue-url>",
		Short: "Explain an issue in plain language",
		Long: `Asks the dashboard API for a plain-language explanation of one issue.

When the explanation service is unavailable a fallback message is printed
instead of an error.`,
		Example: `  scout explain spf13/cobra 2101
  scout explain spf13/cobra#2101
  scout explain https://github.com/spf13/cobra/issues/2101`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, opts, args)
		},
	}

	addQueryFlags(cmd, opts)
	return cmd
}

func runExplain(cmd *cobra.Command, opts *Options, args []string) error {
	ctx := cmd.Context()

	repo, number, err := urlutil.ParseIssueRef(args...)
	if err != nil {
		return err
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

	issue := lookupIssue(cmd, gw, repo, number)
	text := orch.Explain(ctx, repo, issue)

	return output.NewFormatter(q.format).FormatExplanation(output.Explanation{
		Repo:   repo,
		Number: number,
		Title:  issue.Title,
		URL:    issue.URL,
		Text:   text,
	}, cmd.OutOrStdout())
}

// lookupIssue finds the issue among the repository's open issues so the
// explanation request carries its title and body. Without a match only the
// number is sent.
func lookupIssue(cmd *cobra.Command, gw gateway.FetchGateway, repo string, number int) model.Issue {
	issues, err := gw.ListLabeledIssues(cmd.Context(),
		gateway.IssueQueryFor(repo, model.FilterMajorIssue, constants.IssueListPerPage))
	if err != nil {
		log.Debug("issue lookup failed", "repo", repo, "issue", number, "error", err)
		return model.Issue{Number: number}
	}
	for _, is := range issues {
		if is.Number == number {
			return is
		}
	}
	log.Debug("issue not among open issues", "repo", repo, "issue", number)
	return model.Issue{Number: number}
}
