package cmd

import "github.com/spf13/cobra"

// NewRootCmd returns the Cobra entrypoint for the CLI/server.
func NewRootCmd() *cobra.Command {
	configPath = "config.yaml"
	root := &cobra.Command{
		Use:   "reviewbridge",
		Short: "GitHub pull request review notifications for Slack",
		Long: "reviewbridge receives GitHub pull request webhooks and sends Slack direct messages " +
			"to the reviewers and authors involved, using per-workspace GitHub to Slack account links.",
		Example: "  reviewbridge serve --config config.yaml\n" +
			"  reviewbridge links set --workspace T0123 --github octocat --slack U0456\n" +
			"  reviewbridge logs list --workspace T0123 --since 24h",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "Path to config file")
	root.AddCommand(newServeCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newLinksCmd())
	root.AddCommand(newLogsCmd())
	root.AddCommand(newWorkspacesCmd())
	return root
}

var configPath string
