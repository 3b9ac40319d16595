package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/core"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage/linkcache"

	"github.com/redis/go-redis/v9"
)

func buildCaches(ctx context.Context, stores serverStores, cfg core.Config, logger *log.Logger, addCloser func(func())) (serverCaches, error) {
	links, client, err := WrapLinkCache(ctx, cfg, stores.links, logger)
	if err != nil {
		return serverCaches{}, err
	}
	if client != nil {
		addCloser(func() { _ = client.Close() })
	}
	return serverCaches{redis: client, links: links}, nil
}

// WrapLinkCache puts the Redis lookup cache in front of links when cache.redis.addr is set.
// Every writer of links must go through the returned store so cached lookups are invalidated.
// The returned client is nil when caching is disabled; otherwise the caller closes it.
func WrapLinkCache(ctx context.Context, cfg core.Config, links storage.LinkStore, logger *log.Logger) (storage.LinkStore, *redis.Client, error) {
	if cfg.Cache.Redis.Addr == "" {
		return links, nil, nil
	}
	if logger == nil {
		logger = core.NewLogger("linkcache")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Cache.Redis.Addr, err)
	}
	ttl := time.Duration(cfg.Cache.Redis.TTLSeconds) * time.Second
	logger.Printf("link cache enabled addr=%s db=%d ttl=%s", cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, ttl)
	return linkcache.New(links, client, ttl, core.NewLogger("linkcache")), client, nil
}
