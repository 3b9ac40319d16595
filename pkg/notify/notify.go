package notify

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrInvariant reports a routing branch that should be unreachable.
var ErrInvariant = errors.New("impossible")

// ErrMalformedEvent reports a typed payload missing a field routing depends on.
var ErrMalformedEvent = errors.New("malformed event payload")

// Envelope is one webhook delivery scoped to a workspace.
type Envelope struct {
	Workspace string
	EventType string
	Action    string
	Body      any
}

// Notification is a message for a single Slack user.
type Notification struct {
	RecipientID string
	Text        string
	Menu        *LinkMenu
}

// LinkMenu offers the recipient a button to link an unresolved GitHub account.
type LinkMenu struct {
	GitHubName string
}

const (
	LinkMenuCallbackID = "link_for_others"
	LinkMenuActionName = "link_other_user"
)

// Payload returns the button value carried back by Slack when the menu is used.
func (m LinkMenu) Payload() string {
	data, _ := json.Marshal(struct {
		GitHubName string `json:"githubName"`
	}{GitHubName: m.GitHubName})
	return string(data)
}

// Delivery identifies a posted Slack message.
type Delivery struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"ts"`
}

// Result is the outcome of routing one envelope.
type Result struct {
	Reply      string
	Deliveries []Delivery
}

// Response returns the value to JSON-encode in the HTTP reply, or nil for an empty body.
func (r Result) Response() any {
	switch {
	case r.Reply != "":
		return r.Reply
	case len(r.Deliveries) > 1:
		return true
	case len(r.Deliveries) == 1:
		return r.Deliveries[0]
	default:
		return nil
	}
}

// Notifier sends a notification within a workspace.
type Notifier interface {
	Notify(ctx context.Context, workspace string, n Notification) (Delivery, error)
}

// IdentityResolver maps a GitHub login to a Slack user ID within a workspace.
type IdentityResolver interface {
	Resolve(ctx context.Context, workspace, githubName string) (string, bool, error)
}
