package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/datastore"
	"github.com/Ridwan414/shobdotori/internal/tracker"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSentencesFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json list", "s.json", `[{"sentenceId": 1, "text": "আমি"}, {"id": 2, "text": "তুমি"}]`},
		{"json document", "s.json", `{"sentences": [{"sentenceId": 1, "text": "আমি"}, {"sentenceId": 2, "text": "তুমি"}]}`},
		{"yaml list", "s.yaml", "- sentenceId: 1\n  text: আমি\n- id: 2\n  text: তুমি\n"},
		{"yaml document", "s.yml", "sentences:\n  - sentenceId: 1\n    text: আমি\n  - sentenceId: 2\n    text: তুমি\n"},
		{"toml", "s.toml", "[[sentences]]\nsentenceId = 1\ntext = \"আমি\"\n\n[[sentences]]\nid = 2\ntext = \"তুমি\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			list, err := LoadSentences(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, 1, list[0].Number())
			assert.Equal(t, 2, list[1].Number())
			assert.Equal(t, "তুমি", list[1].Text)
		})
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unsupported extension", "s.csv", "1,hello"},
		{"malformed json", "s.json", `[{"sentenceId": 1,`},
		{"empty list", "s.json", `[]`},
		{"duplicate id", "s.json", `[{"id": 1, "text": "a"}, {"id": 1, "text": "b"}]`},
		{"zero id", "s.json", `[{"text": "a"}]`},
		{"empty text", "s.yaml", "- id: 3\n  text: \"  \"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadSentences(writeFile(t, tt.file, tt.content))
			assert.ErrorIs(t, err, tracker.ErrInvalidInput)
		})
	}

	_, err := LoadSentences(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadDialects(t *testing.T) {
	t.Parallel()

	list, err := LoadDialects(writeFile(t, "d.toml", "[[dialects]]\ncode = \"dhaka\"\nname = \"Dhaka\"\nlabel = \"ঢাকা\"\n"))
	require.NoError(t, err)
	assert.Equal(t, []Dialect{{Code: "dhaka", Name: "Dhaka", Label: "ঢাকা"}}, list)

	_, err = LoadDialects(writeFile(t, "d.json", `[{"code": "dhaka"}, {"code": " DHAKA "}]`))
	assert.ErrorIs(t, err, tracker.ErrInvalidInput)
}

func TestDefaultDialectsMatchFolders(t *testing.T) {
	t.Parallel()

	list, err := DefaultDialects()
	require.NoError(t, err)
	assert.Len(t, list, len(conf.DefaultFolders))
	for _, d := range list {
		folder, ok := conf.DefaultFolders[d.Code]
		assert.True(t, ok, "dialect %s has no default folder", d.Code)
		assert.Equal(t, folder, d.Name)
		assert.NotEmpty(t, d.Label)
	}
}

func setup(t *testing.T) (*Seeder, *tracker.Tracker) {
	t.Helper()

	manager, err := datastore.NewSQLiteManager(datastore.Config{Path: filepath.Join(t.TempDir(), "seed.db")})
	require.NoError(t, err)
	require.NoError(t, manager.Initialize(context.Background()))
	t.Cleanup(func() { _ = manager.Close() })

	tr, err := tracker.New(manager.DB(), conf.TrackerSettings{Selection: conf.SelectionSequential})
	require.NoError(t, err)
	return New(manager.DB(), tr), tr
}

func TestSeed(t *testing.T) {
	t.Parallel()
	s, tr := setup(t)
	ctx := context.Background()

	sentences := []Sentence{{SentenceID: 2, Text: "দুই"}, {SentenceID: 1, Text: " এক "}}
	dialects := []Dialect{{Code: "dhaka", Name: "Dhaka"}, {Code: "sylhet", Name: "Sylhet"}}

	result, err := s.Seed(ctx, sentences, dialects, false)
	require.NoError(t, err)
	assert.Equal(t, &Result{Sentences: 2, Dialects: 2, MaxRecordings: 4}, result)

	progress, err := tr.GetDialect(ctx, "sylhet")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, progress.UnrecordedIDs)

	sentence, err := tr.Sentence(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "এক", sentence.Text)
}

func TestSeedRefusesToDiscardRecordings(t *testing.T) {
	t.Parallel()
	s, tr := setup(t)
	ctx := context.Background()

	sentences := []Sentence{{ID: 1, Text: "এক"}, {ID: 2, Text: "দুই"}}
	dialects := []Dialect{{Code: "dhaka"}}
	_, err := s.Seed(ctx, sentences, dialects, false)
	require.NoError(t, err)

	_, err = tr.CommitRecording(ctx, "dhaka", 1, tracker.StorageRef{Backend: "local", ID: "Dhaka/a.wav", Filename: "a.wav"})
	require.NoError(t, err)

	replacement := []Sentence{{ID: 1, Text: "নতুন"}, {ID: 2, Text: "দুই"}, {ID: 3, Text: "তিন"}}
	_, err = s.Seed(ctx, replacement, dialects, false)
	require.ErrorIs(t, err, ErrRecordingsExist)

	result, err := s.Seed(ctx, replacement, dialects, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Discarded)

	progress, err := tr.GetDialect(ctx, "dhaka")
	require.NoError(t, err)
	assert.Empty(t, progress.RecordedIDs)
	assert.Equal(t, []int{1, 2, 3}, progress.UnrecordedIDs)
}
