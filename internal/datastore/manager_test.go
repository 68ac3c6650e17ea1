package datastore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

func TestNewManagerSQLite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "progress.db")
	manager, err := NewManager(&conf.DatabaseSettings{
		Type:   conf.DatabaseSQLite,
		SQLite: conf.SQLiteSettings{Path: path},
	}, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	ctx := context.Background()
	require.NoError(t, manager.Initialize(ctx))
	require.NoError(t, manager.Ping(ctx))
	assert.Equal(t, path, manager.Path())
	assert.False(t, manager.IsMySQL())

	for _, model := range entities.All() {
		assert.True(t, manager.DB().Migrator().HasTable(model), "table for %T", model)
	}

	// Migration is repeatable
	require.NoError(t, manager.Initialize(ctx))
}

func TestNewManagerRejectsUnknownType(t *testing.T) {
	t.Parallel()

	_, err := NewManager(&conf.DatabaseSettings{Type: "postgres"}, false)
	require.Error(t, err)
}

func TestMySQLConfigDSN(t *testing.T) {
	t.Parallel()

	cfg := &MySQLConfig{
		Host:     "db.local",
		Port:     "3306",
		Username: "rec",
		Password: "p@ss:word",
		Database: "shobdotori",
	}

	parsed, err := mysqldriver.ParseDSN(cfg.DSN())
	require.NoError(t, err)
	assert.Equal(t, "rec", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "db.local:3306", parsed.Addr)
	assert.Equal(t, "shobdotori", parsed.DBName)
	assert.True(t, parsed.ParseTime)
}

func TestIsDuplicateKey(t *testing.T) {
	t.Parallel()

	manager, err := NewSQLiteManager(Config{Path: filepath.Join(t.TempDir(), "dup.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	require.NoError(t, manager.Initialize(context.Background()))

	db := manager.DB()
	require.NoError(t, db.Create(&entities.Sentence{ID: 1, Text: "a"}).Error)
	dupErr := db.Create(&entities.Sentence{ID: 1, Text: "b"}).Error
	require.Error(t, dupErr)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sqlite primary key", dupErr, true},
		{"gorm translated", fmt.Errorf("wrap: %w", gorm.ErrDuplicatedKey), true},
		{"mysql 1062", &mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql other", &mysqldriver.MySQLError{Number: 1045}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateKey(tt.err))
		})
	}
}
