package server

import (
	"context"
	"fmt"
	"log"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/core"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage/errorlogs"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage/links"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage/workspaces"
)

// PoolFromConfig maps storage pool settings from configuration.
func PoolFromConfig(cfg core.StorageConfig) storage.PoolConfig {
	return storage.PoolConfig{
		MaxOpenConns:      cfg.MaxOpenConns,
		MaxIdleConns:      cfg.MaxIdleConns,
		ConnMaxLifetimeMS: cfg.ConnMaxLifetimeMS,
		ConnMaxIdleTimeMS: cfg.ConnMaxIdleTimeMS,
	}
}

func openStores(cfg core.Config, logger *log.Logger, addCloser func(func())) (serverStores, error) {
	var stores serverStores
	if !cfg.Storage.Enabled() {
		logger.Printf("storage disabled (missing storage.driver or storage.dsn); using in-memory stores, links and installs will not survive a restart")
		memLinks := storage.NewMemoryLinkStore()
		if err := seedLinks(memLinks, cfg.Links); err != nil {
			return stores, err
		}
		if len(cfg.Links) > 0 {
			logger.Printf("seeded %d links from config", len(cfg.Links))
		}
		stores.links = memLinks
		stores.logs = storage.NewMemoryErrorLogStore()
		stores.workspaces = storage.NewMemoryWorkspaceStore()
		return stores, nil
	}

	if len(cfg.Links) > 0 {
		logger.Printf("ignoring %d config links; storage is enabled, manage links with the links command", len(cfg.Links))
	}
	pool := PoolFromConfig(cfg.Storage)
	linkStore, err := links.Open(links.Config{
		Driver:      cfg.Storage.Driver,
		DSN:         cfg.Storage.DSN,
		Dialect:     cfg.Storage.Dialect,
		AutoMigrate: cfg.Storage.AutoMigrate,
		Pool:        pool,
	})
	if err != nil {
		return stores, fmt.Errorf("links storage: %w", err)
	}
	stores.links = linkStore
	addCloser(func() { _ = linkStore.Close() })
	logger.Printf("links enabled driver=%s dialect=%s table=reviewbridge_links", cfg.Storage.Driver, cfg.Storage.Dialect)

	logStore, err := errorlogs.Open(errorlogs.Config{
		Driver:      cfg.Storage.Driver,
		DSN:         cfg.Storage.DSN,
		Dialect:     cfg.Storage.Dialect,
		AutoMigrate: cfg.Storage.AutoMigrate,
		Pool:        pool,
	})
	if err != nil {
		return stores, fmt.Errorf("error logs storage: %w", err)
	}
	stores.logs = logStore
	addCloser(func() { _ = logStore.Close() })
	logger.Printf("error logs enabled driver=%s dialect=%s table=reviewbridge_error_logs", cfg.Storage.Driver, cfg.Storage.Dialect)

	workspaceStore, err := workspaces.Open(workspaces.Config{
		Driver:      cfg.Storage.Driver,
		DSN:         cfg.Storage.DSN,
		Dialect:     cfg.Storage.Dialect,
		AutoMigrate: cfg.Storage.AutoMigrate,
		Pool:        pool,
	})
	if err != nil {
		return stores, fmt.Errorf("workspaces storage: %w", err)
	}
	stores.workspaces = workspaceStore
	addCloser(func() { _ = workspaceStore.Close() })
	logger.Printf("workspaces enabled driver=%s dialect=%s table=reviewbridge_workspaces", cfg.Storage.Driver, cfg.Storage.Dialect)
	return stores, nil
}

func seedLinks(store storage.LinkStore, seeds []core.LinkSeed) error {
	for i, seed := range seeds {
		_, err := store.UpsertLink(context.Background(), storage.LinkRecord{
			Workspace: seed.Workspace,
			GitHub:    seed.GitHub,
			Slack:     seed.Slack,
		})
		if err != nil {
			return fmt.Errorf("links[%d]: %w", i, err)
		}
	}
	return nil
}
