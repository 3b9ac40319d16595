package links

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Config mirrors the storage configuration for the links table.
type Config struct {
	Driver      string
	DSN         string
	Dialect     string
	Table       string
	AutoMigrate bool
	Pool        storage.PoolConfig
}

// Store implements storage.LinkStore on top of GORM.
type Store struct {
	db    *gorm.DB
	table string
}

type row struct {
	ID        string    `gorm:"column:id;size:64;primaryKey"`
	Workspace string    `gorm:"column:workspace;size:64;not null;index:idx_link_lookup,priority:1"`
	GitHub    string    `gorm:"column:github;size:255;not null;index:idx_link_lookup,priority:2"`
	Slack     string    `gorm:"column:slack;size:64;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Open creates a GORM-backed links store.
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
		table = "reviewbridge_links"
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

// ListLinks returns links for a workspace, oldest first so the first match is stable.
func (s *Store) ListLinks(ctx context.Context, filter storage.LinkFilter) ([]storage.LinkRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if storage.ResolveWorkspace(ctx, filter.Workspace) == "" {
		return nil, errors.New("workspace is required")
	}
	query := s.tableDB().
		WithContext(ctx).
		Scopes(storage.WorkspaceScope(ctx, filter.Workspace, "workspace"))
	if filter.GitHub != "" {
		query = query.Where("github = ?", filter.GitHub)
	}
	if filter.Slack != "" {
		query = query.Where("slack = ?", filter.Slack)
	}
	var data []row
	if err := query.Order("created_at asc").Order("id asc").Find(&data).Error; err != nil {
		return nil, err
	}
	records := make([]storage.LinkRecord, 0, len(data))
	for _, item := range data {
		records = append(records, fromRow(item))
	}
	return records, nil
}

// UpsertLink replaces every link for (workspace, github) with the given one.
func (s *Store) UpsertLink(ctx context.Context, record storage.LinkRecord) (*storage.LinkRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	record.Workspace = storage.ResolveWorkspace(ctx, record.Workspace)
	record.GitHub = strings.TrimSpace(record.GitHub)
	record.Slack = strings.TrimSpace(record.Slack)
	if record.Workspace == "" || record.GitHub == "" || record.Slack == "" {
		return nil, errors.New("workspace, github, and slack are required")
	}
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.UpdatedAt = now

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing row
		err := tx.Table(s.table).
			Where("workspace = ? AND github = ?", record.Workspace, record.GitHub).
			Order("created_at asc").
			Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return err
		default:
			if record.CreatedAt.IsZero() {
				record.CreatedAt = existing.CreatedAt
			}
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		if err := tx.Table(s.table).
			Where("workspace = ? AND github = ?", record.Workspace, record.GitHub).
			Delete(&row{}).Error; err != nil {
			return err
		}
		data := toRow(record)
		return tx.Table(s.table).Create(&data).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteLinks removes links matching filter and returns the number removed.
func (s *Store) DeleteLinks(ctx context.Context, filter storage.LinkFilter) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("store is not initialized")
	}
	if storage.ResolveWorkspace(ctx, filter.Workspace) == "" {
		return 0, errors.New("workspace is required")
	}
	query := s.tableDB().
		WithContext(ctx).
		Scopes(storage.WorkspaceScope(ctx, filter.Workspace, "workspace"))
	if filter.GitHub != "" {
		query = query.Where("github = ?", filter.GitHub)
	}
	if filter.Slack != "" {
		query = query.Where("slack = ?", filter.Slack)
	}
	result := query.Delete(&row{})
	return result.RowsAffected, result.Error
}

func (s *Store) migrate() error {
	return s.tableDB().AutoMigrate(&row{})
}

func (s *Store) tableDB() *gorm.DB {
	return s.db.Table(s.table)
}

func toRow(record storage.LinkRecord) row {
	return row{
		ID:        record.ID,
		Workspace: record.Workspace,
		GitHub:    record.GitHub,
		Slack:     record.Slack,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func fromRow(data row) storage.LinkRecord {
	return storage.LinkRecord{
		ID:        data.ID,
		Workspace: data.Workspace,
		GitHub:    data.GitHub,
		Slack:     data.Slack,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
