package errorlogs

import (
	"context"
	"errors"
	"time"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Config mirrors the storage configuration for the error logs table.
type Config struct {
	Driver      string
	DSN         string
	Dialect     string
	Table       string
	AutoMigrate bool
	Pool        storage.PoolConfig
}

// Store implements storage.ErrorLogStore on top of GORM.
type Store struct {
	db    *gorm.DB
	table string
}

type row struct {
	ID        string    `gorm:"column:id;size:64;primaryKey"`
	Workspace string    `gorm:"column:workspace;size:64;not null;default:'';index:idx_error_logs_workspace_time,priority:1"`
	RequestID string    `gorm:"column:request_id;size:128;index"`
	Time      time.Time `gorm:"column:time;not null;index:idx_error_logs_workspace_time,priority:2,sort:desc"`
	Path      string    `gorm:"column:path;size:512"`
	Info      string    `gorm:"column:info;type:text"`
	DataJSON  string    `gorm:"column:data_json;type:text"`
}

// Open creates a GORM-backed error logs store.
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
		table = "reviewbridge_error_logs"
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

// AppendErrorLog inserts a record and returns it with its generated id.
func (s *Store) AppendErrorLog(ctx context.Context, record storage.ErrorLogRecord) (*storage.ErrorLogRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Workspace == "" {
		record.Workspace = storage.WorkspaceFromContext(ctx)
	}
	if record.Time.IsZero() {
		record.Time = time.Now().UTC()
	}
	data := toRow(record)
	if err := s.tableDB().WithContext(ctx).Create(&data).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ListErrorLogs returns matching records, newest first.
func (s *Store) ListErrorLogs(ctx context.Context, filter storage.ErrorLogFilter) ([]storage.ErrorLogRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	query := s.tableDB().
		WithContext(ctx).
		Scopes(storage.WorkspaceScope(ctx, filter.Workspace, "workspace"))
	if filter.Path != "" {
		query = query.Where("path = ?", filter.Path)
	}
	if !filter.Since.IsZero() {
		query = query.Where("time >= ?", filter.Since.UTC())
	}
	query = query.Order("time desc").Order("id desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var data []row
	if err := query.Find(&data).Error; err != nil {
		return nil, err
	}
	out := make([]storage.ErrorLogRecord, 0, len(data))
	for _, item := range data {
		out = append(out, fromRow(item))
	}
	return out, nil
}

func (s *Store) migrate() error {
	return s.tableDB().AutoMigrate(&row{})
}

func (s *Store) tableDB() *gorm.DB {
	return s.db.Table(s.table)
}

func toRow(record storage.ErrorLogRecord) row {
	return row{
		ID:        record.ID,
		Workspace: record.Workspace,
		RequestID: record.RequestID,
		Time:      record.Time.UTC(),
		Path:      record.Path,
		Info:      record.Info,
		DataJSON:  record.DataJSON,
	}
}

func fromRow(data row) storage.ErrorLogRecord {
	return storage.ErrorLogRecord{
		ID:        data.ID,
		Workspace: data.Workspace,
		RequestID: data.RequestID,
		Time:      data.Time,
		Path:      data.Path,
		Info:      data.Info,
		DataJSON:  data.DataJSON,
	}
}
