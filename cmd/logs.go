package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"
)

type errorLogView struct {
	ID        string    `json:"id"`
	Workspace string    `json:"workspace,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Info      string    `json:"info"`
	Data      string    `json:"data,omitempty"`
}

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect failed webhook requests",
		Long:  "Query the error log written when a webhook request fails and diagnostics.log_request_on_error is set.",
		Example: "  reviewbridge logs list --workspace T0123 --since 24h\n" +
			"  reviewbridge logs list --limit 5 --data",
	}
	cmd.AddCommand(newLogsListCmd())
	return cmd
}

func newLogsListCmd() *cobra.Command {
	var workspace, path string
	var since time.Duration
	var limit int
	var withData bool
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List error log entries, newest first",
		Example: "  reviewbridge logs list --workspace T0123 --since 1h",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openErrorLogStore()
			if err != nil {
				return err
			}
			defer store.Close()
			filter := storage.ErrorLogFilter{
				Workspace: workspace,
				Path:      path,
				Limit:     limit,
			}
			if since > 0 {
				filter.Since = time.Now().UTC().Add(-since)
			}
			records, err := store.ListErrorLogs(cmd.Context(), filter)
			if err != nil {
				return err
			}
			views := make([]errorLogView, 0, len(records))
			for _, record := range records {
				view := errorLogView{
					ID:        record.ID,
					Workspace: record.Workspace,
					RequestID: record.RequestID,
					Time:      record.Time,
					Path:      record.Path,
					Info:      record.Info,
				}
				if withData {
					view.Data = record.DataJSON
				}
				views = append(views, view)
			}
			return printJSON(cmd, views)
		},
	}
	cmd.Flags().StringVar(&workspace, "workspace", "", workspaceFlagDescription+" filter (optional)")
	cmd.Flags().StringVar(&path, "path", "", "Request path filter (optional)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only entries newer than this duration, e.g. 24h")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to return (0 for all)")
	cmd.Flags().BoolVar(&withData, "data", false, "Include the stored request payload")
	return cmd
}
