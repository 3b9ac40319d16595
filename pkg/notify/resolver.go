package notify

import (
	"context"
	"fmt"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/metrics"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"
)

// LinkResolver resolves identities through a link store.
type LinkResolver struct {
	Links storage.LinkStore
}

// Resolve returns the Slack ID of the first link for githubName. No link is not an error.
func (r *LinkResolver) Resolve(ctx context.Context, workspace, githubName string) (string, bool, error) {
	if r == nil || r.Links == nil {
		return "", false, fmt.Errorf("link store is not configured")
	}
	records, err := r.Links.ListLinks(ctx, storage.LinkFilter{Workspace: workspace, GitHub: githubName})
	if err != nil {
		metrics.IdentityLookupsTotal.WithLabelValues(metrics.LookupError).Inc()
		return "", false, fmt.Errorf("lookup link for %s: %w", githubName, err)
	}
	if len(records) == 0 || records[0].Slack == "" {
		metrics.IdentityLookupsTotal.WithLabelValues(metrics.LookupMiss).Inc()
		return "", false, nil
	}
	metrics.IdentityLookupsTotal.WithLabelValues(metrics.LookupHit).Inc()
	return records[0].Slack, true, nil
}
