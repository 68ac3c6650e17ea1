//go:build integration

package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

func TestMySQLManagerIntegration(t *testing.T) {
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("shobdotori"),
		tcmysql.WithUsername("recorder"),
		tcmysql.WithPassword("recorder"),
	)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	manager, err := NewMySQLManager(&MySQLConfig{
		Host:     host,
		Port:     port.Port(),
		Username: "recorder",
		Password: "recorder",
		Database: "shobdotori",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	require.NoError(t, manager.Initialize(ctx))
	require.NoError(t, manager.Ping(ctx))
	require.True(t, manager.IsMySQL())

	db := manager.DB()
	require.NoError(t, db.Create(&entities.Sentence{ID: 1, Text: "আমি"}).Error)
	err = db.Create(&entities.Sentence{ID: 1, Text: "again"}).Error
	require.True(t, IsDuplicateKey(err), "got %v", err)
}
