package workspaces

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Config mirrors the storage configuration for the workspaces table.
type Config struct {
	Driver      string
	DSN         string
	Dialect     string
	Table       string
	AutoMigrate bool
	Pool        storage.PoolConfig
}

// Store implements storage.WorkspaceStore on top of GORM.
type Store struct {
	db    *gorm.DB
	table string
}

type row struct {
	Workspace string    `gorm:"column:workspace;size:64;primaryKey"`
	TeamName  string    `gorm:"column:team_name;size:255"`
	AppID     string    `gorm:"column:app_id;size:64"`
	BotUserID string    `gorm:"column:bot_user_id;size:64"`
	BotToken  string    `gorm:"column:bot_token"`
	Scope     string    `gorm:"column:scope;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Open creates a GORM-backed workspaces store.
func Open(cfg Config) (*Store, error) {
	db, err := storage.OpenSQL(storage.SQLConfig{
		Driver:  cfg.Driver,
		DSN:     cfg.DSN,
		Dialect: cfg.Dialect,
		Pool:    cfg.Pool,
	})
	if err != nil {
		return nil, err
	}
	table := cfg.Table
	if table == "" {
		table = "reviewbridge_workspaces"
	}
	store := &Store{db: db, table: table}
	if cfg.AutoMigrate {
		if err := store.migrate(); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

// Close closes the underlying DB connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return storage.CloseGorm(s.db)
}

// UpsertWorkspace inserts or updates a workspace installation.
func (s *Store) UpsertWorkspace(ctx context.Context, record storage.WorkspaceRecord) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	record.Workspace = strings.TrimSpace(record.Workspace)
	if record.Workspace == "" {
		return errors.New("workspace is required")
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	data := toRow(record)
	return s.tableDB().
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workspace"}},
			DoUpdates: clause.AssignmentColumns([]string{"team_name", "app_id", "bot_user_id", "bot_token", "scope", "updated_at"}),
		}).
		Create(&data).Error
}

// GetWorkspace returns the installation for a workspace, or nil when none exists.
func (s *Store) GetWorkspace(ctx context.Context, workspace string) (*storage.WorkspaceRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	workspace = strings.TrimSpace(workspace)
	if workspace == "" {
		return nil, errors.New("workspace is required")
	}
	var data row
	err := s.tableDB().WithContext(ctx).Where("workspace = ?", workspace).Take(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record := fromRow(data)
	return &record, nil
}

// ListWorkspaces returns every installed workspace ordered by key.
func (s *Store) ListWorkspaces(ctx context.Context) ([]storage.WorkspaceRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	var data []row
	if err := s.tableDB().WithContext(ctx).Order("workspace asc").Find(&data).Error; err != nil {
		return nil, err
	}
	records := make([]storage.WorkspaceRecord, 0, len(data))
	for _, item := range data {
		records = append(records, fromRow(item))
	}
	return records, nil
}

// DeleteWorkspace removes a workspace installation.
func (s *Store) DeleteWorkspace(ctx context.Context, workspace string) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	workspace = strings.TrimSpace(workspace)
	if workspace == "" {
		return errors.New("workspace is required")
	}
	return s.tableDB().WithContext(ctx).Where("workspace = ?", workspace).Delete(&row{}).Error
}

func (s *Store) migrate() error {
	return s.tableDB().AutoMigrate(&row{})
}

func (s *Store) tableDB() *gorm.DB {
	return s.db.Table(s.table)
}

func toRow(record storage.WorkspaceRecord) row {
	return row{
		Workspace: record.Workspace,
		TeamName:  record.TeamName,
		AppID:     record.AppID,
		BotUserID: record.BotUserID,
		BotToken:  record.BotToken,
		Scope:     record.Scope,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func fromRow(data row) storage.WorkspaceRecord {
	return storage.WorkspaceRecord{
		Workspace: data.Workspace,
		TeamName:  data.TeamName,
		AppID:     data.AppID,
		BotUserID: data.BotUserID,
		BotToken:  data.BotToken,
		Scope:     data.Scope,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
