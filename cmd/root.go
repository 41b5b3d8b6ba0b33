package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "scout",
		Short: "Find trending open-source repositories with issues to work on",
		Long: `A CLI tool that searches for trending repositories with open issues in a
category you pick (good first issues, bounties, or major issues), counts the
matching issues in each repository, and explains issues in plain language.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, opts)
		},
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Add search flags to root command so `scout` and `scout search` work identically
	addSearchFlags(rootCmd, opts)

	rootCmd.AddCommand(NewCmdSearch(opts))
	rootCmd.AddCommand(NewCmdIssues(opts))
	rootCmd.AddCommand(NewCmdExplain(opts))
	rootCmd.AddCommand(NewCmdBrowse(opts))
	rootCmd.AddCommand(NewCmdServe(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdRateLimit())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
