package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/datastore"
	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
	"github.com/Ridwan414/shobdotori/internal/datastore/repository"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/events"
	"github.com/Ridwan414/shobdotori/internal/storage"
	"github.com/Ridwan414/shobdotori/internal/transcode"
	"github.com/Ridwan414/shobdotori/internal/tracker"
)

var testUploadSettings = conf.UploadSettings{
	MaxFileSize:       "1MB",
	AllowedExtensions: []string{".wav", ".webm", ".ogg", ".mp3"},
	Genders:           []string{"male", "female"},
}

// passthrough returns its input as canonical audio.
type passthrough struct{}

func (passthrough) Convert(_ context.Context, data []byte, _ string) (*transcode.Result, error) {
	return &transcode.Result{Data: data, Passthrough: true}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ProgressEvent
}

func (p *recordingPublisher) TryPublish(e events.ProgressEvent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return true
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// hookStore wraps a store to run code during an upload or to fail deletes.
type hookStore struct {
	storage.Store
	onUpload   func()
	onDelete   func()
	deleteOnce sync.Once
	failDelete map[string]bool
	mu         sync.Mutex
	deleted    []string
}

func (s *hookStore) Upload(ctx context.Context, folder, filename string, data []byte) (*storage.Object, error) {
	obj, err := s.Store.Upload(ctx, folder, filename, data)
	if err == nil && s.onUpload != nil {
		s.onUpload()
	}
	return obj, err
}

func (s *hookStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	s.deleted = append(s.deleted, id)
	s.mu.Unlock()
	if s.onDelete != nil {
		s.deleteOnce.Do(s.onDelete)
	}
	if s.failDelete[id] {
		return fmt.Errorf("delete %s: permission denied", id)
	}
	return s.Store.Delete(ctx, id)
}

type fixture struct {
	tracker   *tracker.Tracker
	local     *storage.LocalStore
	store     *hookStore
	folders   *storage.FolderMapper
	pipeline  *Pipeline
	admin     *Admin
	publisher *recordingPublisher
}

func newFixture(t *testing.T, catalog ...int) *fixture {
	t.Helper()
	ctx := context.Background()

	manager, err := datastore.NewSQLiteManager(datastore.Config{
		Path: filepath.Join(t.TempDir(), "recorder.db"),
	})
	require.NoError(t, err)
	require.NoError(t, manager.Initialize(ctx))
	t.Cleanup(func() { _ = manager.Close() })

	sentences := make([]entities.Sentence, len(catalog))
	for i, id := range catalog {
		sentences[i] = entities.Sentence{ID: id, Text: fmt.Sprintf("sentence %d", id)}
	}
	require.NoError(t, repository.NewSentenceRepository(manager.DB()).ReplaceAll(ctx, sentences))

	tr, err := tracker.New(manager.DB(), conf.TrackerSettings{Selection: conf.SelectionSequential})
	require.NoError(t, err)
	_, err = tr.InitDialect(ctx, "dhaka", "Dhaka", "ঢাকা")
	require.NoError(t, err)

	local, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		tracker:   tr,
		local:     local,
		store:     &hookStore{Store: local},
		folders:   storage.NewFolderMapper(map[string]string{"dhaka": "Dhaka", "sylhet": "Sylhet"}),
		publisher: &recordingPublisher{},
	}
	f.pipeline, err = NewPipeline(tr, f.store, passthrough{}, f.folders, testUploadSettings, WithPublisher(f.publisher))
	require.NoError(t, err)
	f.admin = NewAdmin(tr, f.store, f.folders, f.publisher)
	return f
}

func (f *fixture) exists(t *testing.T, folder, name string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(f.local.Root(), folder, name))
	return err == nil
}

func request(sentenceID int) *UploadRequest {
	return &UploadRequest{
		Dialect:    "Dhaka",
		SentenceID: fmt.Sprint(sentenceID),
		Gender:     "Male",
		Filename:   "clip.wav",
		Data:       []byte("RIFF fake wav payload"),
	}
}

func TestUploadStoresAndCommits(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1, 2, 3)
	ctx := context.Background()

	result, err := f.pipeline.Upload(ctx, request(2))
	require.NoError(t, err)

	assert.Equal(t, "dhaka", result.Dialect)
	assert.Equal(t, "Dhaka", result.Folder)
	assert.Equal(t, 1, result.SequenceIndex)
	assert.Equal(t, "male_dhaka_1.wav", result.Filename)
	assert.Equal(t, "sentence 2", result.SentenceText)
	assert.Len(t, result.Checksum, 64)
	assert.True(t, result.Renamed)
	assert.Equal(t, "Dhaka/male_dhaka_1.wav", result.Object.ID)
	assert.False(t, result.Completed)
	assert.True(t, f.exists(t, "Dhaka", "male_dhaka_1.wav"))

	objects, err := f.local.List(ctx, "Dhaka")
	require.NoError(t, err)
	require.Len(t, objects, 1, "no staging object is left behind")

	progress, err := f.tracker.GetDialect(ctx, "dhaka")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, progress.RecordedIDs)

	entries, err := f.tracker.LedgerEntries(ctx, "dhaka")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "male", entries[0].Gender)
	assert.Equal(t, "Dhaka/male_dhaka_1.wav", entries[0].Storage.ID)
	assert.Equal(t, result.Checksum, entries[0].Storage.Checksum)

	assert.Equal(t, []events.EventType{events.RecordingCommitted}, f.publisher.types())
}

func TestUploadValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1, 2)

	strict := testUploadSettings
	strict.RejectIndexMismatch = true
	strictPipeline, err := NewPipeline(f.tracker, f.store, passthrough{}, f.folders, strict)
	require.NoError(t, err)

	tests := []struct {
		name     string
		pipeline *Pipeline
		mutate   func(*UploadRequest)
	}{
		{"no data", f.pipeline, func(r *UploadRequest) { r.Data = nil }},
		{"too large", f.pipeline, func(r *UploadRequest) { r.Data = make([]byte, 2<<20) }},
		{"no dialect", f.pipeline, func(r *UploadRequest) { r.Dialect = "  " }},
		{"no sentence", f.pipeline, func(r *UploadRequest) { r.SentenceID = "" }},
		{"non numeric sentence", f.pipeline, func(r *UploadRequest) { r.SentenceID = "abc" }},
		{"negative sentence", f.pipeline, func(r *UploadRequest) { r.SentenceID = "-3" }},
		{"bad gender", f.pipeline, func(r *UploadRequest) { r.Gender = "robot" }},
		{"bad extension", f.pipeline, func(r *UploadRequest) { r.Filename = "clip.flac" }},
		{"bad index", f.pipeline, func(r *UploadRequest) { r.Index = "first" }},
		{"sentence outside dialect", f.pipeline, func(r *UploadRequest) { r.SentenceID = "99" }},
		{"index mismatch", strictPipeline, func(r *UploadRequest) { r.Index = "5" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(1)
			tt.mutate(req)
			_, err := tt.pipeline.Upload(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tracker.ErrInvalidInput)
		})
	}

	folders, err := f.local.ListFolders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, folders, "rejected uploads must not reach storage")
}

func TestUploadUnknownDialect(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1)

	req := request(1)
	req.Dialect = "barisal"
	_, err := f.pipeline.Upload(context.Background(), req)
	assert.ErrorIs(t, err, tracker.ErrNotFound)
}

func TestUploadIndexMismatchIsTolerated(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1, 2)

	req := request(1)
	req.Index = "7"
	result, err := f.pipeline.Upload(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SequenceIndex, "server index is authoritative")
}

func TestUploadRejectsRecordedSentence(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1, 2)
	ctx := context.Background()

	_, err := f.pipeline.Upload(ctx, request(1))
	require.NoError(t, err)

	_, err = f.pipeline.Upload(ctx, request(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, tracker.ErrAlreadyRecorded)
	assert.True(t, errors.IsConflict(err))
	assert.False(t, f.exists(t, "Dhaka", "male_dhaka_2.wav"))
}

func TestUploadDeletesObjectWhenCommitFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1, 2)
	ctx := context.Background()

	// Another contributor commits the same sentence while our upload is in flight.
	f.store.onUpload = func() {
		_, err := f.tracker.CommitRecording(ctx, "dhaka", 1, tracker.StorageRef{
			Backend: "local", ID: "Dhaka/other.wav", Filename: "other.wav",
		})
		require.NoError(t, err)
	}

	_, err := f.pipeline.Upload(ctx, request(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, tracker.ErrAlreadyRecorded)

	require.Len(t, f.store.deleted, 1)
	assert.True(t, strings.HasPrefix(f.store.deleted[0], "Dhaka/male_dhaka_1."))
	assert.NotEqual(t, "Dhaka/male_dhaka_1.wav", f.store.deleted[0], "only the staging object is deleted")

	objects, err := f.local.List(ctx, "Dhaka")
	require.NoError(t, err)
	assert.Empty(t, objects)
	assert.Empty(t, f.publisher.types())
}

func TestUploadRenamesOnIndexDrift(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1, 2, 3)
	ctx := context.Background()

	// A commit of another sentence takes index 1 after our provisional index was chosen.
	f.store.onUpload = func() {
		f.store.onUpload = nil
		_, err := f.tracker.CommitRecording(ctx, "dhaka", 2, tracker.StorageRef{
			Backend: "local", ID: "Dhaka/female_dhaka_1.wav", Filename: "female_dhaka_1.wav",
		})
		require.NoError(t, err)
	}

	result, err := f.pipeline.Upload(ctx, request(1))
	require.NoError(t, err)

	assert.Equal(t, 1, result.ProvisionalIndex)
	assert.Equal(t, 2, result.SequenceIndex)
	assert.True(t, result.Renamed)
	assert.Equal(t, "male_dhaka_2.wav", result.Filename)
	assert.Equal(t, "Dhaka/male_dhaka_2.wav", result.Object.ID)
	assert.True(t, f.exists(t, "Dhaka", "male_dhaka_2.wav"))
	assert.False(t, f.exists(t, "Dhaka", "male_dhaka_1.wav"))

	entries, err := f.tracker.LedgerEntries(ctx, "dhaka")
	require.NoError(t, err)
	for _, e := range entries {
		if e.SentenceID == 1 {
			assert.Equal(t, "male_dhaka_2.wav", e.Filename)
			assert.Equal(t, "Dhaka/male_dhaka_2.wav", e.Storage.ID)
		}
	}
}

func (f *fixture) readObject(t *testing.T, id string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.local.Root(), filepath.FromSlash(id)))
	require.NoError(t, err, "stored object %s", id)
	return string(data)
}

func TestOverlappingUploadsOfSameSentence(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1, 2)
	ctx := context.Background()

	// A double submit: the second request runs entirely while the first is
	// between its storage upload and its commit.
	second := request(1)
	second.Data = []byte("RIFF second payload")
	f.store.onUpload = func() {
		f.store.onUpload = nil
		_, err := f.pipeline.Upload(ctx, second)
		require.NoError(t, err)
	}

	first := request(1)
	first.Data = []byte("RIFF first payload")
	_, err := f.pipeline.Upload(ctx, first)
	require.Error(t, err)
	assert.ErrorIs(t, err, tracker.ErrAlreadyRecorded)

	entries, err := f.tracker.LedgerEntries(ctx, "dhaka")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Dhaka/male_dhaka_1.wav", entries[0].Storage.ID)
	assert.Equal(t, "RIFF second payload", f.readObject(t, entries[0].Storage.ID))

	objects, err := f.local.List(ctx, "Dhaka")
	require.NoError(t, err)
	assert.Len(t, objects, 1, "the losing upload removes only its own object")
}

func TestOverlappingUploadsOfDifferentSentences(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1, 2, 3)
	ctx := context.Background()

	// Both requests see index 1 as the next one.
	second := request(2)
	second.Data = []byte("RIFF payload for sentence 2")
	f.store.onUpload = func() {
		f.store.onUpload = nil
		_, err := f.pipeline.Upload(ctx, second)
		require.NoError(t, err)
	}

	first := request(1)
	first.Data = []byte("RIFF payload for sentence 1")
	result, err := f.pipeline.Upload(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SequenceIndex)

	entries, err := f.tracker.LedgerEntries(ctx, "dhaka")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	ids := make(map[string]bool)
	for _, e := range entries {
		ids[e.Storage.ID] = true
		assert.Equal(t, "Dhaka/"+e.Filename, e.Storage.ID)
		assert.Equal(t, fmt.Sprintf("RIFF payload for sentence %d", e.SentenceID), f.readObject(t, e.Storage.ID))
	}
	assert.Len(t, ids, 2, "each recording has its own object")

	objects, err := f.local.List(ctx, "Dhaka")
	require.NoError(t, err)
	assert.Len(t, objects, 2)
}

func TestUploadPublishesCompletion(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1, 2)
	ctx := context.Background()

	_, err := f.pipeline.Upload(ctx, request(1))
	require.NoError(t, err)
	result, err := f.pipeline.Upload(ctx, request(2))
	require.NoError(t, err)
	assert.True(t, result.Completed)

	assert.Equal(t, []events.EventType{
		events.RecordingCommitted,
		events.RecordingCommitted,
		events.DialectCompleted,
	}, f.publisher.types())
}

func TestWipeDialect(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1, 2, 3)
	ctx := context.Background()

	for _, id := range []int{1, 3} {
		_, err := f.pipeline.Upload(ctx, request(id))
		require.NoError(t, err)
	}

	result, err := f.admin.WipeDialect(ctx, " DHAKA ")
	require.NoError(t, err)
	assert.Equal(t, "dhaka", result.DialectCode)
	assert.Equal(t, "Dhaka", result.Folder)
	assert.Equal(t, 2, result.DeletedRecordings)
	assert.Equal(t, 2, result.DeletedFiles)
	assert.Zero(t, result.FailedFiles)
	assert.True(t, result.FolderRemoved)
	assert.Empty(t, result.Errors)

	progress, err := f.tracker.GetDialect(ctx, "dhaka")
	require.NoError(t, err)
	assert.Empty(t, progress.RecordedIDs)
	assert.Equal(t, []int{1, 2, 3}, progress.UnrecordedIDs)

	types := f.publisher.types()
	assert.Equal(t, events.DialectReset, types[len(types)-1])
}

func TestWipeDialectResetsDespiteStorageFailures(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1, 2)
	ctx := context.Background()

	for _, id := range []int{1, 2} {
		_, err := f.pipeline.Upload(ctx, request(id))
		require.NoError(t, err)
	}
	f.store.failDelete = map[string]bool{"Dhaka/male_dhaka_2.wav": true}

	result, err := f.admin.WipeDialect(ctx, "dhaka")
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedFiles)
	assert.Equal(t, 1, result.FailedFiles)
	assert.False(t, result.FolderRemoved)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "male_dhaka_2.wav")

	progress, err := f.tracker.GetDialect(ctx, "dhaka")
	require.NoError(t, err)
	assert.Empty(t, progress.RecordedIDs, "progress is reset even when files remain")
}

func TestWipeDialectKeepsCommitRacingTheDeletes(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1, 2, 3)
	ctx := context.Background()

	for _, id := range []int{1, 2} {
		_, err := f.pipeline.Upload(ctx, request(id))
		require.NoError(t, err)
	}

	late := request(3)
	late.Data = []byte("RIFF late payload")
	f.store.onDelete = func() {
		_, err := f.pipeline.Upload(ctx, late)
		assert.NoError(t, err)
	}

	result, err := f.admin.WipeDialect(ctx, "dhaka")
	require.NoError(t, err)
	assert.Equal(t, 2, result.DeletedRecordings)
	assert.Equal(t, 2, result.DeletedFiles)
	assert.False(t, result.FolderRemoved)

	// The late commit landed on the fresh set and its object survived.
	entries, err := f.tracker.LedgerEntries(ctx, "dhaka")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].SentenceID)
	assert.Equal(t, "RIFF late payload", f.readObject(t, entries[0].Storage.ID))

	// Nothing in the folder is unaccounted for.
	objects, err := f.local.List(ctx, "Dhaka")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, entries[0].Storage.ID, objects[0].ID)
}

func TestWipeDialectValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.admin.WipeDialect(ctx, "")
	assert.ErrorIs(t, err, tracker.ErrInvalidInput)

	_, err = f.admin.WipeDialect(ctx, "atlantis")
	assert.ErrorIs(t, err, tracker.ErrInvalidInput)

	// Configured but never initialized
	_, err = f.admin.WipeDialect(ctx, "sylhet")
	assert.ErrorIs(t, err, tracker.ErrNotFound)
}

func TestCleanAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("recordings only", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, 1, 2)
		_, err := f.pipeline.Upload(ctx, request(1))
		require.NoError(t, err)

		result, err := f.admin.CleanAll(ctx, true)
		require.NoError(t, err)
		assert.True(t, result.RecordingsOnly)
		assert.Equal(t, int64(1), result.DeletedRecordings)

		progress, err := f.tracker.GetDialect(ctx, "dhaka")
		require.NoError(t, err)
		assert.Empty(t, progress.RecordedIDs)
	})

	t.Run("everything", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, 1, 2)
		_, err := f.pipeline.Upload(ctx, request(1))
		require.NoError(t, err)

		result, err := f.admin.CleanAll(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.DeletedRecordings)
		assert.Equal(t, 1, result.DeletedDialects)

		_, err = f.tracker.GetDialect(ctx, "dhaka")
		assert.ErrorIs(t, err, tracker.ErrNotFound)
	})
}
