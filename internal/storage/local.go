package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

// LocalStore keeps recordings in a directory tree: <root>/<folder>/<file>.
// Object ids are "folder/filename".
type LocalStore struct {
	root string
	log  logger.Logger
}

// NewLocalStore creates a store rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, storageError(conf.StorageLocal, "init", fmt.Errorf("path is required"))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, storageError(conf.StorageLocal, "init", err)
	}
	if err := os.MkdirAll(abs, PermDir); err != nil {
		return nil, storageError(conf.StorageLocal, "init", err)
	}
	return &LocalStore{root: abs, log: GetLogger().With(logger.String("backend", conf.StorageLocal))}, nil
}

// Name returns "local".
func (s *LocalStore) Name() string { return conf.StorageLocal }

// Root returns the absolute root directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) objectPath(id string) (string, error) {
	folder, name, err := splitID(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, folder, name), nil
}

func (s *LocalStore) object(folder string, info fs.FileInfo) Object {
	id := path.Join(folder, info.Name())
	return Object{
		ID:        id,
		Name:      info.Name(),
		Folder:    folder,
		Size:      info.Size(),
		Link:      "file://" + filepath.ToSlash(filepath.Join(s.root, folder, info.Name())),
		CreatedAt: info.ModTime().UTC(),
	}
}

// Upload writes data atomically to folder/filename, replacing an existing file.
func (s *LocalStore) Upload(ctx context.Context, folder, filename string, data []byte) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateComponent(folder); err != nil {
		return nil, storageError(s.Name(), "upload", fmt.Errorf("folder %q: %w", folder, err))
	}
	if err := validateComponent(filename); err != nil {
		return nil, storageError(s.Name(), "upload", fmt.Errorf("filename %q: %w", filename, err))
	}

	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, PermDir); err != nil {
		return nil, storageError(s.Name(), "upload", err)
	}

	target := filepath.Join(dir, filename)
	if err := atomicWriteFile(target, tempPrefix+"*", PermFile, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	}); err != nil {
		return nil, storageError(s.Name(), "upload", err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return nil, storageError(s.Name(), "upload", err)
	}
	obj := s.object(folder, info)
	s.log.Debug("stored recording",
		logger.String("id", obj.ID),
		logger.Int64("size", obj.Size))
	return &obj, nil
}

// Delete removes the file with id.
func (s *LocalStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.objectPath(id)
	if err != nil {
		return storageError(s.Name(), "delete", err)
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return notFound(s.Name(), id)
		}
		return storageError(s.Name(), "delete", err)
	}
	return nil
}

// Rename moves id to newName in the same folder, failing when newName is taken.
func (s *LocalStore) Rename(ctx context.Context, id, newName string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	folder, _, err := splitID(id)
	if err != nil {
		return nil, storageError(s.Name(), "rename", err)
	}
	if err := validateComponent(newName); err != nil {
		return nil, storageError(s.Name(), "rename", err)
	}
	src, _ := s.objectPath(id)
	dst := filepath.Join(s.root, folder, newName)

	// link then unlink, so an existing dst fails instead of being replaced
	if err := os.Link(src, dst); err != nil {
		switch {
		case errors.Is(err, fs.ErrExist):
			return nil, exists(s.Name(), path.Join(folder, newName))
		case errors.Is(err, fs.ErrNotExist):
			return nil, notFound(s.Name(), id)
		}
		return nil, storageError(s.Name(), "rename", err)
	}
	if err := os.Remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, storageError(s.Name(), "rename", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		return nil, storageError(s.Name(), "rename", err)
	}
	obj := s.object(folder, info)
	return &obj, nil
}

// List returns the files of folder sorted by name.
func (s *LocalStore) List(ctx context.Context, folder string) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateComponent(folder); err != nil {
		return nil, storageError(s.Name(), "list", err)
	}
	entries, err := os.ReadDir(filepath.Join(s.root, folder))
	if err != nil {
		if os.IsNotExist(err) {
			return []Object{}, nil
		}
		return nil, storageError(s.Name(), "list", err)
	}

	objects := make([]Object, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed while listing
			continue
		}
		objects = append(objects, s.object(folder, info))
	}
	return objects, nil
}

// ListFolders returns the folders under the root with their file counts.
func (s *LocalStore) ListFolders(ctx context.Context) ([]Folder, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, storageError(s.Name(), "list folders", err)
	}

	folders := make([]Folder, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		objects, err := s.List(ctx, entry.Name())
		if err != nil {
			return nil, err
		}
		folders = append(folders, Folder{ID: entry.Name(), Name: entry.Name(), FileCount: len(objects)})
	}
	slices.SortFunc(folders, func(a, b Folder) int { return strings.Compare(a.Name, b.Name) })
	return folders, nil
}

// RemoveFolderIfEmpty removes folder when no files remain in it.
func (s *LocalStore) RemoveFolderIfEmpty(ctx context.Context, folder string) (bool, error) {
	objects, err := s.List(ctx, folder)
	if err != nil {
		return false, err
	}
	if len(objects) > 0 {
		return false, nil
	}
	// RemoveAll also clears stale temp files left by interrupted uploads
	if err := os.RemoveAll(filepath.Join(s.root, folder)); err != nil {
		return false, storageError(s.Name(), "remove folder", err)
	}
	return true, nil
}

// Ping checks that the root is a writable directory.
func (s *LocalStore) Ping(ctx context.Context) (*PingInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(s.root, tempPrefix+"ping-*")
	if err != nil {
		return nil, storageError(s.Name(), "ping", err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	return &PingInfo{Backend: s.Name(), Location: s.root}, nil
}

// Close is a no-op.
func (s *LocalStore) Close() error { return nil }

// atomicWriteFile writes to a temp file in the target directory and renames it into place.
func atomicWriteFile(targetPath, tempPattern string, perm os.FileMode, write func(*os.File) error) error {
	tempFile, err := os.CreateTemp(filepath.Dir(targetPath), tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if err := tempFile.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}
	if err := write(tempFile); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	success = true
	return nil
}
