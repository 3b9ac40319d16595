package linkcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "reviewbridge:links"

// Store is a read-through Redis cache in front of a storage.LinkStore.
// Only (workspace, github) lookups are cached; other filters go straight to the backing store.
// Empty results are cached too so unlinked logins do not hit the database on every event.
type Store struct {
	next   storage.LinkStore
	redis  *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// New wraps next with a Redis cache. A nil client disables caching.
func New(next storage.LinkStore, client *redis.Client, ttl time.Duration, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{next: next, redis: client, ttl: ttl, logger: logger}
}

// IsEnabled reports whether a Redis client is configured.
func (s *Store) IsEnabled() bool {
	return s.redis != nil
}

// ListLinks serves cacheable lookups from Redis and falls back to the backing store.
func (s *Store) ListLinks(ctx context.Context, filter storage.LinkFilter) ([]storage.LinkRecord, error) {
	workspace := storage.ResolveWorkspace(ctx, filter.Workspace)
	if !s.IsEnabled() || workspace == "" || filter.GitHub == "" || filter.Slack != "" {
		return s.next.ListLinks(ctx, filter)
	}
	key := linkKey(workspace, filter.GitHub)
	data, err := s.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var records []storage.LinkRecord
		if err := json.Unmarshal(data, &records); err == nil {
			return records, nil
		}
		s.logger.Printf("link cache decode failed key=%s", key)
	case errors.Is(err, redis.Nil):
	default:
		s.logger.Printf("link cache get failed key=%s err=%v", key, err)
	}

	records, err := s.next.ListLinks(ctx, filter)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []storage.LinkRecord{}
	}
	if payload, err := json.Marshal(records); err == nil {
		if err := s.redis.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			s.logger.Printf("link cache set failed key=%s err=%v", key, err)
		}
	}
	return records, nil
}

// UpsertLink writes through and invalidates the cached lookup for the login.
func (s *Store) UpsertLink(ctx context.Context, record storage.LinkRecord) (*storage.LinkRecord, error) {
	out, err := s.next.UpsertLink(ctx, record)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, out.Workspace, out.GitHub)
	return out, nil
}

// DeleteLinks deletes through and invalidates affected cached lookups.
func (s *Store) DeleteLinks(ctx context.Context, filter storage.LinkFilter) (int64, error) {
	removed, err := s.next.DeleteLinks(ctx, filter)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, storage.ResolveWorkspace(ctx, filter.Workspace), filter.GitHub)
	return removed, nil
}

// Close closes the backing store. The Redis client is owned by the caller.
func (s *Store) Close() error {
	return s.next.Close()
}

func (s *Store) invalidate(ctx context.Context, workspace, github string) {
	if !s.IsEnabled() || workspace == "" {
		return
	}
	if github != "" {
		if err := s.redis.Del(ctx, linkKey(workspace, github)).Err(); err != nil {
			s.logger.Printf("link cache invalidate failed workspace=%s github=%s err=%v", workspace, github, err)
		}
		return
	}
	iter := s.redis.Scan(ctx, 0, workspacePrefix(workspace)+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.redis.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Printf("link cache invalidate failed key=%s err=%v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Printf("link cache scan failed workspace=%s err=%v", workspace, err)
	}
}

// Key parts are query-escaped so ':' and glob characters never leave their segment.
func workspacePrefix(workspace string) string {
	return fmt.Sprintf("%s:%s:", keyPrefix, url.QueryEscape(workspace))
}

func linkKey(workspace, github string) string {
	return workspacePrefix(workspace) + url.QueryEscape(github)
}
