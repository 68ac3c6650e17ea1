package seed

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ridwan414/shobdotori/internal/conf"
)

const sentencesJSON = `[
  {"sentenceId": 1, "text": "আমি ভাত খাই"},
  {"sentenceId": 2, "text": "তুমি কোথায় যাও"},
  {"id": 3, "text": "আজ বৃষ্টি হবে"}
]`

const dialectsYAML = `
- code: dhaka
  name: Dhaka
  label: ঢাকা
- code: sylhet
  name: Sylhet
  label: সিলেট
`

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	dir := t.TempDir()
	return &conf.Settings{
		DataDir: dir,
		Database: conf.DatabaseSettings{
			Type:   conf.DatabaseSQLite,
			SQLite: conf.SQLiteSettings{Path: filepath.Join(dir, "seed.db")},
		},
		Tracker: conf.TrackerSettings{Selection: conf.SelectionSequential},
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSeedCommand(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)
	cmd := Command(settings)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--sentences", writeFile(t, "sentences.json", sentencesJSON),
		"--dialects", writeFile(t, "dialects.yaml", dialectsYAML),
	})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Seeded 3 sentences for 2 dialects (6 recordings possible)")
}

func TestSeedCommandRequiresSentences(t *testing.T) {
	t.Parallel()

	cmd := Command(testSettings(t))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.Error(t, cmd.ExecuteContext(context.Background()))
}
