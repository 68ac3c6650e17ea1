package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ridwan414/shobdotori/internal/datastore"
	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

// setupTestDB opens a migrated SQLite database in a temporary directory.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	manager, err := datastore.NewSQLiteManager(datastore.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, manager.Initialize(context.Background()))
	t.Cleanup(func() { _ = manager.Close() })

	return manager.DB()
}

func seedSentences(t *testing.T, db *gorm.DB, ids ...int) {
	t.Helper()

	sentences := make([]entities.Sentence, len(ids))
	for i, id := range ids {
		sentences[i] = entities.Sentence{ID: id, Text: "sentence"}
	}
	require.NoError(t, NewSentenceRepository(db).ReplaceAll(context.Background(), sentences))
}

// splitRows returns the recorded and unrecorded sentence ids of a dialect.
func splitRows(t *testing.T, repo DialectRepository, dialectID uint) (recorded, unrecorded []int) {
	t.Helper()

	rows, err := repo.Rows(context.Background(), dialectID)
	require.NoError(t, err)
	recorded, unrecorded = []int{}, []int{}
	for _, row := range rows {
		if row.RecordingID != nil {
			recorded = append(recorded, row.SentenceID)
		} else {
			unrecorded = append(unrecorded, row.SentenceID)
		}
	}
	return recorded, unrecorded
}

func createDialect(t *testing.T, db *gorm.DB, code string, ids ...int) *entities.Dialect {
	t.Helper()

	dialect := &entities.Dialect{
		Code:           code,
		Name:           code,
		Status:         entities.DialectStatusInProgress,
		TotalSentences: len(ids),
	}
	require.NoError(t, NewDialectRepository(db).Create(context.Background(), dialect, ids))
	return dialect
}
