package notify

import (
	"context"
	"fmt"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// sendAll dispatches every notification concurrently; any failure fails the whole set.
func (r *Router) sendAll(ctx context.Context, workspace string, notifications ...Notification) (Result, error) {
	if r.Notifier == nil {
		return Result{}, fmt.Errorf("notifier is not configured")
	}
	deliveries := make([]Delivery, len(notifications))
	g, gctx := errgroup.WithContext(ctx)
	for i, n := range notifications {
		g.Go(func() error {
			delivery, err := r.Notifier.Notify(gctx, workspace, n)
			if err != nil {
				metrics.NotificationsTotal.WithLabelValues(metrics.StatusError).Inc()
				return fmt.Errorf("notify %s: %w", n.RecipientID, err)
			}
			metrics.NotificationsTotal.WithLabelValues(metrics.StatusOK).Inc()
			deliveries[i] = delivery
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return Result{Deliveries: deliveries}, nil
}
