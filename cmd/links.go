package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"
)

type linkView struct {
	ID        string    `json:"id"`
	Workspace string    `json:"workspace"`
	GitHub    string    `json:"github"`
	Slack     string    `json:"slack"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toLinkView(record storage.LinkRecord) linkView {
	return linkView{
		ID:        record.ID,
		Workspace: record.Workspace,
		GitHub:    record.GitHub,
		Slack:     record.Slack,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func newLinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Manage GitHub to Slack account links",
		Long:  "Read and write the link table used to turn GitHub logins into Slack mentions.",
		Example: "  reviewbridge links list --workspace T0123\n" +
			"  reviewbridge links set --workspace T0123 --github octocat --slack U0456\n" +
			"  reviewbridge links delete --workspace T0123 --github octocat",
	}
	cmd.AddCommand(newLinksSetCmd())
	cmd.AddCommand(newLinksListCmd())
	cmd.AddCommand(newLinksDeleteCmd())
	return cmd
}

func newLinksSetCmd() *cobra.Command {
	var workspace, github, slack string
	cmd := &cobra.Command{
		Use:     "set",
		Short:   "Link a GitHub login to a Slack user",
		Example: "  reviewbridge links set --workspace T0123 --github octocat --slack U0456",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireNonEmpty("workspace", workspace); err != nil {
				return err
			}
			if err := requireNonEmpty("github", github); err != nil {
				return err
			}
			if err := requireNonEmpty("slack", slack); err != nil {
				return err
			}
			store, closeStore, err := openLinkStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			record, err := store.UpsertLink(cmd.Context(), storage.LinkRecord{
				Workspace: workspace,
				GitHub:    github,
				Slack:     slack,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, toLinkView(*record))
		},
	}
	cmd.Flags().StringVar(&workspace, "workspace", "", workspaceFlagDescription)
	cmd.Flags().StringVar(&github, "github", "", "GitHub login")
	cmd.Flags().StringVar(&slack, "slack", "", "Slack user ID")
	return cmd
}

func newLinksListCmd() *cobra.Command {
	var workspace, github, slack string
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List links in a workspace",
		Example: "  reviewbridge links list --workspace T0123 --github octocat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireNonEmpty("workspace", workspace); err != nil {
				return err
			}
			store, closeStore, err := openLinkStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			records, err := store.ListLinks(cmd.Context(), storage.LinkFilter{
				Workspace: workspace,
				GitHub:    github,
				Slack:     slack,
			})
			if err != nil {
				return err
			}
			views := make([]linkView, 0, len(records))
			for _, record := range records {
				views = append(views, toLinkView(record))
			}
			return printJSON(cmd, views)
		},
	}
	cmd.Flags().StringVar(&workspace, "workspace", "", workspaceFlagDescription)
	cmd.Flags().StringVar(&github, "github", "", "GitHub login filter (optional)")
	cmd.Flags().StringVar(&slack, "slack", "", "Slack user ID filter (optional)")
	return cmd
}

func newLinksDeleteCmd() *cobra.Command {
	var workspace, github, slack string
	var all bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete links",
		Example: "  reviewbridge links delete --workspace T0123 --github octocat\n" +
			"  reviewbridge links delete --workspace T0123 --all",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireNonEmpty("workspace", workspace); err != nil {
				return err
			}
			if github == "" && slack == "" && !all {
				return errors.New("github or slack is required (use --all to delete every link in the workspace)")
			}
			store, closeStore, err := openLinkStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			removed, err := store.DeleteLinks(cmd.Context(), storage.LinkFilter{
				Workspace: workspace,
				GitHub:    github,
				Slack:     slack,
			})
			if err != nil {
				return err
			}
			return printf(cmd, "deleted %d link(s)\n", removed)
		},
	}
	cmd.Flags().StringVar(&workspace, "workspace", "", workspaceFlagDescription)
	cmd.Flags().StringVar(&github, "github", "", "GitHub login")
	cmd.Flags().StringVar(&slack, "slack", "", "Slack user ID")
	cmd.Flags().BoolVar(&all, "all", false, "Delete every link in the workspace")
	return cmd
}
