package slack

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/cache"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/core"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/notify"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"

	slackapi "github.com/slack-go/slack"
)

const linkMenuColor = "#3AA3E3"

// NotifierOptions configures a Notifier.
type NotifierOptions struct {
	// APIURL overrides the Slack Web API base URL. It must end with a slash.
	APIURL string
	// DefaultToken is used for workspaces without an installation record.
	DefaultToken string
	Workspaces   storage.WorkspaceStore
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// Notifier posts notifications with chat.postMessage using the workspace's bot token.
type Notifier struct {
	opts    NotifierOptions
	clients *cache.WorkspaceCache[*slackapi.Client]
}

// NewNotifier builds a Notifier.
func NewNotifier(opts NotifierOptions) *Notifier {
	if opts.Logger == nil {
		opts.Logger = core.NewLogger("slack")
	}
	return &Notifier{opts: opts, clients: cache.NewWorkspaceCache[*slackapi.Client]()}
}

// Notify sends one message. It does not retry.
func (n *Notifier) Notify(ctx context.Context, workspace string, msg notify.Notification) (notify.Delivery, error) {
	if strings.TrimSpace(msg.RecipientID) == "" {
		return notify.Delivery{}, fmt.Errorf("slack recipient is required")
	}
	client, err := n.client(ctx, workspace)
	if err != nil {
		return notify.Delivery{}, err
	}
	options := []slackapi.MsgOption{slackapi.MsgOptionText(msg.Text, false)}
	if msg.Menu != nil {
		options = append(options, slackapi.MsgOptionAttachments(linkMenuAttachment(*msg.Menu)))
	}
	channel, ts, err := client.PostMessageContext(ctx, msg.RecipientID, options...)
	if err != nil {
		return notify.Delivery{}, fmt.Errorf("slack chat.postMessage: %w", err)
	}
	n.opts.Logger.Printf("slack message sent workspace=%s channel=%s ts=%s", workspace, channel, ts)
	return notify.Delivery{Channel: channel, Timestamp: ts}, nil
}

// Forget drops the cached client so the next message reloads the workspace token.
func (n *Notifier) Forget(workspace string) {
	n.clients.Delete(workspace)
}

func (n *Notifier) client(ctx context.Context, workspace string) (*slackapi.Client, error) {
	return n.clients.GetOrLoad(workspace, func() (*slackapi.Client, error) {
		token, err := n.token(ctx, workspace)
		if err != nil {
			return nil, err
		}
		options := []slackapi.Option{}
		if n.opts.APIURL != "" {
			options = append(options, slackapi.OptionAPIURL(n.opts.APIURL))
		}
		if n.opts.HTTPClient != nil {
			options = append(options, slackapi.OptionHTTPClient(n.opts.HTTPClient))
		}
		return slackapi.New(token, options...), nil
	})
}

func (n *Notifier) token(ctx context.Context, workspace string) (string, error) {
	if n.opts.Workspaces != nil {
		record, err := n.opts.Workspaces.GetWorkspace(ctx, workspace)
		if err != nil {
			return "", fmt.Errorf("load slack installation for %s: %w", workspace, err)
		}
		if record != nil && record.BotToken != "" {
			return record.BotToken, nil
		}
	}
	if n.opts.DefaultToken != "" {
		return n.opts.DefaultToken, nil
	}
	return "", fmt.Errorf("no slack bot token for workspace %s", workspace)
}

func linkMenuAttachment(menu notify.LinkMenu) slackapi.Attachment {
	return slackapi.Attachment{
		Text:       notify.LinkMenuText(menu.GitHubName),
		Fallback:   "Something went wrong.",
		CallbackID: notify.LinkMenuCallbackID,
		Color:      linkMenuColor,
		Actions: []slackapi.AttachmentAction{
			{
				Name:  notify.LinkMenuActionName,
				Text:  notify.LinkMenuButtonText(menu.GitHubName),
				Type:  "button",
				Value: menu.Payload(),
			},
		},
	}
}
