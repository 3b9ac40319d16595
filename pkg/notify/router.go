package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/core"

	"github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"
)

const (
	EventPing              = "ping"
	EventPullRequest       = "pull_request"
	EventPullRequestReview = "pull_request_review"

	ActionReviewRequested = "review_requested"
	ActionSubmitted       = "submitted"

	ReviewStateApproved = "approved"
)

const (
	replyReady      = "I'm ready!"
	replyUnresolved = "unresolved action"
	replyNoHandler  = "no handler for this event type"
)

type route int

const (
	routeNoHandler route = iota
	routePing
	routeReviewRequested
	routeReviewSubmitted
	routeUnresolvedAction
)

// classify maps an event type and action onto a route. Event types are case-sensitive.
func classify(eventType, action string) route {
	switch eventType {
	case EventPing:
		return routePing
	case EventPullRequest:
		if action == ActionReviewRequested {
			return routeReviewRequested
		}
		return routeUnresolvedAction
	case EventPullRequestReview:
		if action == ActionSubmitted {
			return routeReviewSubmitted
		}
		return routeUnresolvedAction
	default:
		return routeNoHandler
	}
}

type resolution int

const (
	resolvedNeither resolution = iota
	resolvedRequesterOnly
	resolvedReviewerOnly
	resolvedBoth
)

type identity struct {
	name    string
	slackID string
	ok      bool
}

// mention renders a resolved user as "name(<@ID>)" and an unresolved one by name only.
func (i identity) mention() string {
	if !i.ok {
		return i.name
	}
	return fmt.Sprintf("%s(<@%s>)", i.name, i.slackID)
}

type identityPair struct {
	requester identity
	reviewer  identity
}

func (p identityPair) resolution() resolution {
	switch {
	case p.requester.ok && p.reviewer.ok:
		return resolvedBoth
	case p.requester.ok:
		return resolvedRequesterOnly
	case p.reviewer.ok:
		return resolvedReviewerOnly
	default:
		return resolvedNeither
	}
}

// Router turns webhook envelopes into Slack notifications.
type Router struct {
	Resolver IdentityResolver
	Notifier Notifier
	Logger   *log.Logger
}

// ActionOf returns the "action" field of a decoded JSON object, or "".
func ActionOf(body any) string {
	obj, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	action, _ := obj["action"].(string)
	return action
}

// Route classifies env and performs the resulting resolution and dispatch.
func (r *Router) Route(ctx context.Context, env Envelope) (Result, error) {
	switch classify(env.EventType, env.Action) {
	case routePing:
		return Result{Reply: replyReady}, nil
	case routeReviewRequested:
		return r.reviewRequested(ctx, env)
	case routeReviewSubmitted:
		return r.reviewSubmitted(ctx, env)
	case routeUnresolvedAction:
		return Result{Reply: replyUnresolved}, nil
	case routeNoHandler:
		return Result{Reply: replyNoHandler}, nil
	default:
		return Result{}, ErrInvariant
	}
}

func (r *Router) reviewRequested(ctx context.Context, env Envelope) (Result, error) {
	var event *github.PullRequestEvent
	if err := parseEvent(env, &event); err != nil {
		return Result{}, err
	}
	requesterName := event.GetPullRequest().GetUser().GetLogin()
	reviewerName := event.GetRequestedReviewer().GetLogin()
	pullRequestURL := event.GetPullRequest().GetHTMLURL()
	switch {
	case reviewerName == "" && event.RequestedTeam != nil:
		return Result{}, fmt.Errorf("%w: team review requests are not supported (team=%s)", ErrMalformedEvent, event.GetRequestedTeam().GetSlug())
	case requesterName == "":
		return Result{}, fmt.Errorf("%w: pull_request.user.login is missing", ErrMalformedEvent)
	case reviewerName == "":
		return Result{}, fmt.Errorf("%w: requested_reviewer.login is missing", ErrMalformedEvent)
	case pullRequestURL == "":
		return Result{}, fmt.Errorf("%w: pull_request.html_url is missing", ErrMalformedEvent)
	}

	pair, err := r.resolvePair(ctx, env.Workspace, requesterName, reviewerName)
	if err != nil {
		return Result{}, err
	}
	text := reviewRequestedText(pair, pullRequestURL)
	switch pair.resolution() {
	case resolvedBoth:
		return r.sendAll(ctx, env.Workspace,
			Notification{RecipientID: pair.requester.slackID, Text: text},
			Notification{RecipientID: pair.reviewer.slackID, Text: text},
		)
	case resolvedReviewerOnly:
		return r.sendAll(ctx, env.Workspace, Notification{
			RecipientID: pair.reviewer.slackID,
			Text:        text + unlinkedNote(pair.requester.name),
			Menu:        &LinkMenu{GitHubName: pair.requester.name},
		})
	case resolvedRequesterOnly:
		return r.sendAll(ctx, env.Workspace, Notification{
			RecipientID: pair.requester.slackID,
			Text:        text + unlinkedNote(pair.reviewer.name),
			Menu:        &LinkMenu{GitHubName: pair.reviewer.name},
		})
	case resolvedNeither:
		r.logger().Printf("could not find users workspace=%s requester=%s reviewer=%s", env.Workspace, requesterName, reviewerName)
		return Result{}, nil
	default:
		return Result{}, ErrInvariant
	}
}

func (r *Router) reviewSubmitted(ctx context.Context, env Envelope) (Result, error) {
	var event *github.PullRequestReviewEvent
	if err := parseEvent(env, &event); err != nil {
		return Result{}, err
	}
	requesterName := event.GetPullRequest().GetUser().GetLogin()
	reviewerName := event.GetReview().GetUser().GetLogin()
	switch {
	case requesterName == "":
		return Result{}, fmt.Errorf("%w: pull_request.user.login is missing", ErrMalformedEvent)
	case reviewerName == "":
		return Result{}, fmt.Errorf("%w: review.user.login is missing", ErrMalformedEvent)
	}
	if reviewerName == requesterName {
		return Result{}, nil
	}
	reviewURL := event.GetReview().GetHTMLURL()
	if reviewURL == "" {
		return Result{}, fmt.Errorf("%w: review.html_url is missing", ErrMalformedEvent)
	}

	pair, err := r.resolvePair(ctx, env.Workspace, requesterName, reviewerName)
	if err != nil {
		return Result{}, err
	}
	res := pair.resolution()
	if res == resolvedNeither {
		r.logger().Printf("could not find user for neither requester=%s nor reviewer=%s workspace=%s", requesterName, reviewerName, env.Workspace)
		return Result{}, nil
	}

	if event.GetReview().GetState() == ReviewStateApproved {
		switch res {
		case resolvedBoth, resolvedRequesterOnly:
			return r.sendAll(ctx, env.Workspace, Notification{
				RecipientID: pair.requester.slackID,
				Text:        approvedText(reviewURL),
			})
		case resolvedReviewerOnly:
			return r.awaitRequesterIntroduction(env, pair), nil
		default:
			return Result{}, ErrInvariant
		}
	}

	switch res {
	case resolvedBoth:
		return r.sendAll(ctx, env.Workspace, Notification{
			RecipientID: pair.requester.slackID,
			Text:        reviewedText(pair, reviewURL),
		})
	case resolvedRequesterOnly:
		return r.sendAll(ctx, env.Workspace, Notification{
			RecipientID: pair.requester.slackID,
			Text:        reviewedText(pair, reviewURL) + unlinkedNote(pair.reviewer.name),
		})
	case resolvedReviewerOnly:
		return r.awaitRequesterIntroduction(env, pair), nil
	default:
		return Result{}, ErrInvariant
	}
}

// awaitRequesterIntroduction is reached when only the reviewer is linked.
// Asking the reviewer to introduce the app to the requester is not implemented yet.
func (r *Router) awaitRequesterIntroduction(env Envelope, pair identityPair) Result {
	r.logger().Printf("requester not linked, skipping workspace=%s requester=%s reviewer=%s", env.Workspace, pair.requester.name, pair.reviewer.name)
	return Result{}
}

// resolvePair looks up both identities concurrently.
func (r *Router) resolvePair(ctx context.Context, workspace, requesterName, reviewerName string) (identityPair, error) {
	if r.Resolver == nil {
		return identityPair{}, fmt.Errorf("identity resolver is not configured")
	}
	pair := identityPair{
		requester: identity{name: requesterName},
		reviewer:  identity{name: reviewerName},
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, target := range []*identity{&pair.requester, &pair.reviewer} {
		g.Go(func() error {
			id, ok, err := r.Resolver.Resolve(gctx, workspace, target.name)
			if err != nil {
				return err
			}
			target.slackID, target.ok = id, ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return identityPair{}, err
	}
	return pair, nil
}

func (r *Router) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return core.NewLogger("notify")
}

func parseEvent(env Envelope, target any) error {
	raw, err := json.Marshal(env.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	parsed, err := github.ParseWebHook(env.EventType, raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	switch dst := target.(type) {
	case **github.PullRequestEvent:
		event, ok := parsed.(*github.PullRequestEvent)
		if !ok {
			return ErrInvariant
		}
		*dst = event
	case **github.PullRequestReviewEvent:
		event, ok := parsed.(*github.PullRequestReviewEvent)
		if !ok {
			return ErrInvariant
		}
		*dst = event
	default:
		return ErrInvariant
	}
	return nil
}
