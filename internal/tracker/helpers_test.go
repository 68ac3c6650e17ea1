package tracker

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/datastore"
	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
	"github.com/Ridwan414/shobdotori/internal/datastore/repository"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	manager, err := datastore.NewSQLiteManager(datastore.Config{
		Path: filepath.Join(t.TempDir(), "tracker.db"),
	})
	require.NoError(t, err)
	require.NoError(t, manager.Initialize(context.Background()))
	t.Cleanup(func() { _ = manager.Close() })
	return manager.DB()
}

func seedCatalog(t *testing.T, db *gorm.DB, ids ...int) {
	t.Helper()

	sentences := make([]entities.Sentence, len(ids))
	for i, id := range ids {
		sentences[i] = entities.Sentence{ID: id, Text: fmt.Sprintf("sentence %d", id)}
	}
	require.NoError(t, repository.NewSentenceRepository(db).ReplaceAll(context.Background(), sentences))
}

// newTestTracker returns a tracker over a fresh database seeded with ids.
func newTestTracker(t *testing.T, ids ...int) (*Tracker, *gorm.DB) {
	t.Helper()

	db := setupDB(t)
	seedCatalog(t, db, ids...)
	tr, err := New(db, conf.TrackerSettings{Selection: conf.SelectionSequential})
	require.NoError(t, err)
	return tr, db
}

func ref(name string) StorageRef {
	return StorageRef{Backend: "local", ID: "Dhaka/" + name, Filename: name, Size: 44}
}

type countingObserver struct {
	mu        sync.Mutex
	results   map[string]int
	selected  int
	exhausted int
	progress  map[string][2]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{results: map[string]int{}, progress: map[string][2]int{}}
}

func (o *countingObserver) CommitFinished(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results[result]++
}

func (o *countingObserver) SentenceSelected(_ string, found bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if found {
		o.selected++
	} else {
		o.exhausted++
	}
}

func (o *countingObserver) ProgressUpdated(dialect string, recorded, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress[dialect] = [2]int{recorded, total}
}
