package server

import (
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"

	"github.com/redis/go-redis/v9"
)

type serverStores struct {
	links      storage.LinkStore
	logs       storage.ErrorLogStore
	workspaces storage.WorkspaceStore
}

type serverCaches struct {
	redis *redis.Client
	links storage.LinkStore
}
