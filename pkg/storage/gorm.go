package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLConfig is the connection configuration shared by the SQL-backed stores.
type SQLConfig struct {
	Driver      string
	DSN         string
	Dialect     string
	AutoMigrate bool
	Pool        PoolConfig
}

// ResolveSQLDriver maps a driver or dialect name onto a supported gorm dialector.
func ResolveSQLDriver(driver, dialect string) (string, error) {
	if resolved := normalizeDriver(driver); resolved != "" {
		return resolved, nil
	}
	if resolved := normalizeDriver(dialect); resolved != "" {
		return resolved, nil
	}
	return "", fmt.Errorf("unsupported storage driver: %q", strings.TrimSpace(driver+dialect))
}

// OpenGorm opens a gorm handle for a resolved driver name.
func OpenGorm(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	case "mysql":
		return gorm.Open(mysql.Open(dsn), cfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

// OpenSQL validates cfg and opens a pooled gorm handle.
func OpenSQL(cfg SQLConfig) (*gorm.DB, error) {
	if cfg.Driver == "" && cfg.Dialect == "" {
		return nil, errors.New("storage driver or dialect is required")
	}
	if cfg.DSN == "" {
		return nil, errors.New("storage dsn is required")
	}
	driver, err := ResolveSQLDriver(cfg.Driver, cfg.Dialect)
	if err != nil {
		return nil, err
	}
	db, err := OpenGorm(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := ApplyPoolConfig(db, cfg.Pool); err != nil {
		return nil, err
	}
	return db, nil
}

// CloseGorm closes the connection pool behind a gorm handle.
func CloseGorm(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func normalizeDriver(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "postgres", "postgresql", "pgx":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return ""
	}
}

// PoolConfig controls database connection pooling.
type PoolConfig struct {
	MaxOpenConns      int
	MaxIdleConns      int
	ConnMaxLifetimeMS int64
	ConnMaxIdleTimeMS int64
}

// ApplyPoolConfig applies connection pool limits to a gorm handle. Zero values keep driver defaults.
func ApplyPoolConfig(db *gorm.DB, cfg PoolConfig) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMS > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMS) * time.Millisecond)
	}
	if cfg.ConnMaxIdleTimeMS > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMS) * time.Millisecond)
	}
	return nil
}
