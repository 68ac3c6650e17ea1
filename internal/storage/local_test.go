package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLocalStoreUploadListDelete(t *testing.T) {
	t.Parallel()
	s := newLocal(t)
	ctx := t.Context()

	obj, err := s.Upload(ctx, "Dhaka", "female_dhaka_1.wav", []byte("RIFF1234"))
	require.NoError(t, err)
	assert.Equal(t, "Dhaka/female_dhaka_1.wav", obj.ID)
	assert.Equal(t, int64(8), obj.Size)
	assert.Equal(t, "Dhaka", obj.Folder)

	data, err := os.ReadFile(filepath.Join(s.Root(), "Dhaka", "female_dhaka_1.wav"))
	require.NoError(t, err)
	assert.Equal(t, "RIFF1234", string(data))

	_, err = s.Upload(ctx, "Dhaka", "male_dhaka_2.wav", []byte("RIFF"))
	require.NoError(t, err)

	objects, err := s.List(ctx, "Dhaka")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "female_dhaka_1.wav", objects[0].Name)
	assert.Equal(t, "male_dhaka_2.wav", objects[1].Name)

	require.NoError(t, s.Delete(ctx, obj.ID))
	err = s.Delete(ctx, obj.ID)
	require.ErrorIs(t, err, ErrObjectNotFound)

	objects, err = s.List(ctx, "Dhaka")
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestLocalStoreListMissingFolder(t *testing.T) {
	t.Parallel()
	s := newLocal(t)

	objects, err := s.List(t.Context(), "Sylhet")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestLocalStoreRename(t *testing.T) {
	t.Parallel()
	s := newLocal(t)
	ctx := t.Context()

	obj, err := s.Upload(ctx, "Rangpur", "male_rangpur_4.wav", []byte("data"))
	require.NoError(t, err)

	renamed, err := s.Rename(ctx, obj.ID, "male_rangpur_3.wav")
	require.NoError(t, err)
	assert.Equal(t, "Rangpur/male_rangpur_3.wav", renamed.ID)
	assert.FileExists(t, filepath.Join(s.Root(), "Rangpur", "male_rangpur_3.wav"))
	assert.NoFileExists(t, filepath.Join(s.Root(), "Rangpur", "male_rangpur_4.wav"))

	_, err = s.Rename(ctx, obj.ID, "x.wav")
	require.ErrorIs(t, err, ErrObjectNotFound)

	_, err = s.Rename(ctx, renamed.ID, "../escape.wav")
	require.Error(t, err)
}

func TestLocalStoreRenameNeverReplaces(t *testing.T) {
	t.Parallel()
	s := newLocal(t)
	ctx := t.Context()

	taken, err := s.Upload(ctx, "Dhaka", "male_dhaka_1.wav", []byte("committed"))
	require.NoError(t, err)
	staged, err := s.Upload(ctx, "Dhaka", "male_dhaka_1.abc123.wav", []byte("staged"))
	require.NoError(t, err)

	_, err = s.Rename(ctx, staged.ID, taken.Name)
	require.ErrorIs(t, err, ErrObjectExists)

	data, err := os.ReadFile(filepath.Join(s.Root(), "Dhaka", "male_dhaka_1.wav"))
	require.NoError(t, err)
	assert.Equal(t, "committed", string(data))
	assert.FileExists(t, filepath.Join(s.Root(), "Dhaka", "male_dhaka_1.abc123.wav"))
}

func TestLocalStoreRejectsUnsafeNames(t *testing.T) {
	t.Parallel()
	s := newLocal(t)
	ctx := t.Context()

	for _, tc := range []struct{ folder, name string }{
		{"..", "a.wav"},
		{"Dhaka", "../a.wav"},
		{"Dhaka/sub", "a.wav"},
		{"Dhaka", ""},
		{"Dhaka", ".hidden.wav"},
	} {
		_, err := s.Upload(ctx, tc.folder, tc.name, []byte("x"))
		assert.Error(t, err, "%s/%s", tc.folder, tc.name)
	}
}

func TestLocalStoreFolders(t *testing.T) {
	t.Parallel()
	s := newLocal(t)
	ctx := t.Context()

	_, err := s.Upload(ctx, "Sylhet", "female_sylhet_1.wav", []byte("a"))
	require.NoError(t, err)
	obj, err := s.Upload(ctx, "Barishal", "male_barishal_1.wav", []byte("b"))
	require.NoError(t, err)
	_, err = s.Upload(ctx, "Barishal", "male_barishal_2.wav", []byte("c"))
	require.NoError(t, err)

	folders, err := s.ListFolders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Folder{
		{ID: "Barishal", Name: "Barishal", FileCount: 2},
		{ID: "Sylhet", Name: "Sylhet", FileCount: 1},
	}, folders)

	removed, err := s.RemoveFolderIfEmpty(ctx, "Barishal")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, s.Delete(ctx, obj.ID))
	require.NoError(t, s.Delete(ctx, "Barishal/male_barishal_2.wav"))

	removed, err = s.RemoveFolderIfEmpty(ctx, "Barishal")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoDirExists(t, filepath.Join(s.Root(), "Barishal"))
}

func TestLocalStorePing(t *testing.T) {
	t.Parallel()
	s := newLocal(t)

	info, err := s.Ping(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "local", info.Backend)
	assert.Equal(t, s.Root(), info.Location)

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Empty(t, entries, "ping must not leave files behind")
}

func TestLocalStoreConcurrentUploads(t *testing.T) {
	t.Parallel()
	s := newLocal(t)
	ctx := t.Context()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Go(func() {
			_, err := s.Upload(ctx, "Khulna", Filename("female", "khulna", i+1), []byte("RIFF"))
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	objects, err := s.List(ctx, "Khulna")
	require.NoError(t, err)
	assert.Len(t, objects, 16)
}

type recordedOp struct {
	backend, operation string
	failed             bool
}

type opRecorder struct {
	mu  sync.Mutex
	ops []recordedOp
}

func (r *opRecorder) StorageOperation(backend, operation string, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, recordedOp{backend, operation, err != nil})
}

func TestInstrumentedStore(t *testing.T) {
	t.Parallel()
	rec := &opRecorder{}
	s := Instrument(newLocal(t), rec)
	ctx := t.Context()

	obj, err := s.Upload(ctx, "Dhaka", "dhaka_1.wav", []byte("x"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, obj.ID))
	require.Error(t, s.Delete(ctx, obj.ID))

	assert.Equal(t, []recordedOp{
		{"local", "upload", false},
		{"local", "delete", false},
		{"local", "delete", true},
	}, rec.ops)

	local := newLocal(t)
	assert.Same(t, local, Instrument(local, nil).(*LocalStore))
}
