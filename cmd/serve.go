package cmd

import (
	"github.com/spf13/cobra"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Long: "Run the HTTP server that accepts GitHub webhooks, resolves linked Slack users and " +
			"sends review notifications. Also serves the Slack install flow when configured.",
		Example: "  reviewbridge serve --config config.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return server.RunConfig(configPath)
		},
	}
	return cmd
}
