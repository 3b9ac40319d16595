package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/core"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/server"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage/errorlogs"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage/links"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage/workspaces"
)

var errStorageDisabled = errors.New("storage is not configured (set storage.driver and storage.dsn)")

func loadStorageConfig() (core.Config, error) {
	cfg, err := core.LoadConfig(configPath)
	if err != nil {
		return core.Config{}, fmt.Errorf("load config: %w", err)
	}
	if !cfg.Storage.Enabled() {
		return core.Config{}, errStorageDisabled
	}
	return cfg, nil
}

// openLinkStore opens the link table behind the same Redis cache the server reads through,
// so CLI writes invalidate cached lookups. The returned func closes everything it opened.
func openLinkStore(ctx context.Context) (storage.LinkStore, func(), error) {
	cfg, err := loadStorageConfig()
	if err != nil {
		return nil, nil, err
	}
	base, err := links.Open(links.Config{
		Driver:      cfg.Storage.Driver,
		DSN:         cfg.Storage.DSN,
		Dialect:     cfg.Storage.Dialect,
		AutoMigrate: cfg.Storage.AutoMigrate,
		Pool:        server.PoolFromConfig(cfg.Storage),
	})
	if err != nil {
		return nil, nil, err
	}
	store, client, err := server.WrapLinkCache(ctx, cfg, base, core.NewLogger("cli"))
	if err != nil {
		_ = base.Close()
		return nil, nil, err
	}
	closeAll := func() {
		_ = store.Close()
		if client != nil {
			_ = client.Close()
		}
	}
	return store, closeAll, nil
}

func openErrorLogStore() (*errorlogs.Store, error) {
	cfg, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}
	return errorlogs.Open(errorlogs.Config{
		Driver:      cfg.Storage.Driver,
		DSN:         cfg.Storage.DSN,
		Dialect:     cfg.Storage.Dialect,
		AutoMigrate: cfg.Storage.AutoMigrate,
		Pool:        server.PoolFromConfig(cfg.Storage),
	})
}

func openWorkspaceStore() (*workspaces.Store, error) {
	cfg, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}
	return workspaces.Open(workspaces.Config{
		Driver:      cfg.Storage.Driver,
		DSN:         cfg.Storage.DSN,
		Dialect:     cfg.Storage.Dialect,
		AutoMigrate: cfg.Storage.AutoMigrate,
		Pool:        server.PoolFromConfig(cfg.Storage),
	})
}
