package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const initConfigTemplate = `server:
  port: 8080

endpoint: http://localhost:8080

webhook:
  path: /webhooks/github

storage:
  driver: sqlite
  dsn: reviewbridge.db
  auto_migrate: true

# Without storage, links are read from this list instead.
# links:
#   - workspace: T0123ABCD
#     github: octocat
#     slack: U0123ABCD

slack:
  bot_token: ${SLACK_BOT_TOKEN}
  oauth:
    client_id: ${SLACK_CLIENT_ID}
    client_secret: ${SLACK_CLIENT_SECRET}

diagnostics:
  log_request_on_error: true
`

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Create a starter config file",
		Example: "  reviewbridge init --config config.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := strings.TrimSpace(configPath)
			if path == "" {
				return fmt.Errorf("config path is required")
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config already exists: %s", path)
				}
			}
			if err := os.WriteFile(path, []byte(initConfigTemplate), 0o644); err != nil {
				return err
			}
			return printf(cmd, "wrote config to %s\n", path)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config")
	return cmd
}
