package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/notify"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage/linkcache"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage/links"
)

func TestLinksCommandsInvalidateServerCache(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	dsn := filepath.Join(dir, "reviewbridge.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	raw := "storage:\n  driver: sqlite\n  dsn: " + dsn + "\n  auto_migrate: true\n" +
		"cache:\n  redis:\n    addr: " + mr.Addr() + "\n"
	if err := os.WriteFile(cfgPath, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// The server reads links through its own cache on the same Redis.
	base, err := links.Open(links.Config{Driver: "sqlite", DSN: dsn, AutoMigrate: true})
	if err != nil {
		t.Fatalf("open links: %v", err)
	}
	t.Cleanup(func() { _ = base.Close() })
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	resolver := &notify.LinkResolver{Links: linkcache.New(base, client, 5*time.Minute, nil)}
	ctx := context.Background()

	if _, ok, err := resolver.Resolve(ctx, "T1", "bob"); err != nil || ok {
		t.Fatalf("expected bob unlinked, got ok=%v err=%v", ok, err)
	}

	if _, err := runCommand(t, "--config", cfgPath, "links", "set", "--workspace", "T1", "--github", "bob", "--slack", "U2"); err != nil {
		t.Fatalf("links set: %v", err)
	}
	id, ok, err := resolver.Resolve(ctx, "T1", "bob")
	if err != nil || !ok || id != "U2" {
		t.Fatalf("expected bob resolved after links set, got %q ok=%v err=%v", id, ok, err)
	}

	if _, err := runCommand(t, "--config", cfgPath, "links", "delete", "--workspace", "T1", "--github", "bob"); err != nil {
		t.Fatalf("links delete: %v", err)
	}
	if _, ok, err := resolver.Resolve(ctx, "T1", "bob"); err != nil || ok {
		t.Fatalf("expected bob unlinked after delete, got ok=%v err=%v", ok, err)
	}
}
