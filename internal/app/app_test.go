package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ridwan414/shobdotori/internal/conf"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	dir := t.TempDir()
	return &conf.Settings{
		DataDir: dir,
		Database: conf.DatabaseSettings{
			Type:   conf.DatabaseSQLite,
			SQLite: conf.SQLiteSettings{Path: filepath.Join(dir, "app.db")},
		},
		Tracker: conf.TrackerSettings{Selection: conf.SelectionRandom},
		Upload: conf.UploadSettings{
			MaxFileSize:       "10MB",
			AllowedExtensions: []string{".wav"},
			Genders:           []string{"male", "female"},
		},
		Audio: conf.AudioSettings{FfmpegPath: filepath.Join(dir, "missing-ffmpeg"), SampleRate: 16000, Channels: 1, BitDepth: 16},
		Storage: conf.StorageSettings{
			Backend: conf.StorageLocal,
			Folders: map[string]string{"dhaka": "Dhaka"},
			Local:   conf.LocalStorageSettings{Path: filepath.Join(dir, "recordings")},
		},
	}
}

func TestOpenDatabaseOnly(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), testSettings(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	assert.NotNil(t, s.DB)
	assert.NotNil(t, s.Tracker)
	assert.Equal(t, conf.SelectionRandom, s.Tracker.Selector().Name())
	assert.Nil(t, s.Store)
	assert.Nil(t, s.Pipeline)
	assert.Nil(t, s.Bus)
	assert.Equal(t, "Dhaka", s.Folders.Folder("dhaka"))
}

func TestOpenFull(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), testSettings(t), WithStorage(), WithEvents())
	require.NoError(t, err)

	assert.Equal(t, conf.StorageLocal, s.Store.Name())
	assert.NotNil(t, s.Pipeline)
	assert.NotNil(t, s.Admin)
	require.NotNil(t, s.Bus)
	assert.Equal(t, uint64(0), s.Bus.Stats().EventsReceived)

	require.NoError(t, s.Close())
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)
	settings.Storage.Backend = "s3"
	_, err := Open(context.Background(), settings, WithStorage())
	require.Error(t, err)
}
