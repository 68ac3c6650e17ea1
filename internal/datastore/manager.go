// Package datastore opens and migrates the progress database.
package datastore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

// slowQueryThreshold marks statements worth a warning
const slowQueryThreshold = 500 * time.Millisecond

// Manager defines the database lifecycle operations.
type Manager interface {
	// Initialize creates or migrates the schema.
	Initialize(ctx context.Context) error
	// DB returns the underlying GORM database.
	DB() *gorm.DB
	// Path returns the database location for display, never credentials.
	Path() string
	// Ping checks the connection.
	Ping(ctx context.Context) error
	// Close closes the database connection.
	Close() error
	// IsMySQL returns true if this is a MySQL manager.
	IsMySQL() bool
}

// NewManager opens the database selected by settings.
func NewManager(settings *conf.DatabaseSettings, debug bool) (Manager, error) {
	resolved, err := settings.Resolved()
	if err != nil {
		return nil, fmt.Errorf("invalid database settings: %w", err)
	}

	switch resolved.Type {
	case conf.DatabaseMySQL:
		return NewMySQLManager(&MySQLConfig{
			Host:         resolved.MySQL.Host,
			Port:         resolved.MySQL.Port,
			Username:     resolved.MySQL.Username,
			Password:     resolved.MySQL.Password,
			Database:     resolved.MySQL.Database,
			MaxOpenConns: resolved.MySQL.MaxOpenConns,
			Debug:        debug,
		})
	case conf.DatabaseSQLite, "":
		return NewSQLiteManager(Config{Path: resolved.SQLite.Path, Debug: debug})
	default:
		return nil, fmt.Errorf("unsupported database type %q", resolved.Type)
	}
}

func gormConfig(debug bool) *gorm.Config {
	adapter := logger.NewGormLoggerAdapter(GetLogger(), slowQueryThreshold)
	if debug {
		adapter = adapter.Verbose()
	}
	return &gorm.Config{
		Logger:         adapter,
		TranslateError: true,
	}
}

func migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(entities.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}
