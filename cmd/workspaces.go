package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

type workspaceView struct {
	Workspace string    `json:"workspace"`
	TeamName  string    `json:"team_name,omitempty"`
	AppID     string    `json:"app_id,omitempty"`
	BotUserID string    `json:"bot_user_id,omitempty"`
	BotToken  string    `json:"bot_token"`
	Scope     string    `json:"scope,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newWorkspacesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspaces",
		Short:   "Inspect installed Slack workspaces",
		Example: "  reviewbridge workspaces list",
	}
	cmd.AddCommand(newWorkspacesListCmd())
	return cmd
}

func newWorkspacesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspaces that installed the Slack app",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openWorkspaceStore()
			if err != nil {
				return err
			}
			defer store.Close()
			records, err := store.ListWorkspaces(cmd.Context())
			if err != nil {
				return err
			}
			views := make([]workspaceView, 0, len(records))
			for _, record := range records {
				views = append(views, workspaceView{
					Workspace: record.Workspace,
					TeamName:  record.TeamName,
					AppID:     record.AppID,
					BotUserID: record.BotUserID,
					BotToken:  redactToken(record.BotToken),
					Scope:     record.Scope,
					CreatedAt: record.CreatedAt,
					UpdatedAt: record.UpdatedAt,
				})
			}
			return printJSON(cmd, views)
		},
	}
	return cmd
}
