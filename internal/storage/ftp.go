package storage

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/textproto"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/jlaffaye/ftp"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

const ftpMaxConns = 4

// FTPStore stores recordings below BasePath on an FTP server.
// Object ids are "folder/filename".
type FTPStore struct {
	settings conf.FTPSettings
	retry    RetryConfig
	connPool chan *ftp.ServerConn
	log      logger.Logger
}

// NewFTPStore creates an FTP store with a small connection pool.
func NewFTPStore(settings *conf.FTPSettings, retry RetryConfig) (*FTPStore, error) {
	if settings.Host == "" {
		return nil, configError("ftp: host is required")
	}
	s := &FTPStore{
		settings: *settings,
		retry:    retry,
		connPool: make(chan *ftp.ServerConn, ftpMaxConns),
		log:      GetLogger().With(logger.String("backend", conf.StorageFTP), logger.String("host", settings.Host)),
	}
	if s.settings.Port == 0 {
		s.settings.Port = DefaultFTPPort
	}
	if s.settings.Timeout <= 0 {
		s.settings.Timeout = DefaultTimeout
	}
	if s.settings.BasePath == "" {
		s.settings.BasePath = "recordings"
	}
	return s, nil
}

// Name returns "ftp".
func (s *FTPStore) Name() string { return conf.StorageFTP }

func (s *FTPStore) addr() string {
	return net.JoinHostPort(s.settings.Host, strconv.Itoa(s.settings.Port))
}

func (s *FTPStore) connect(ctx context.Context) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(s.addr(), ftp.DialWithTimeout(s.settings.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	if s.settings.Username != "" {
		if err := conn.Login(s.settings.Username, s.settings.Password); err != nil {
			_ = conn.Quit()
			return nil, fmt.Errorf("login failed: %w", err)
		}
	}
	return conn, nil
}

// getConnection takes a live connection from the pool or dials a new one.
func (s *FTPStore) getConnection(ctx context.Context) (*ftp.ServerConn, error) {
	select {
	case conn := <-s.connPool:
		if conn.NoOp() == nil {
			return conn, nil
		}
		_ = conn.Quit()
	default:
	}
	return s.connect(ctx)
}

// returnConnection puts conn back or closes it when the pool is full.
func (s *FTPStore) returnConnection(conn *ftp.ServerConn) {
	select {
	case s.connPool <- conn:
	default:
		if err := conn.Quit(); err != nil {
			s.log.Debug("failed to close connection", logger.Error(err))
		}
	}
}

func (s *FTPStore) do(ctx context.Context, operation string, op func(*ftp.ServerConn) error) error {
	return WithRetry(ctx, s.retry, operation, func() error {
		conn, err := s.getConnection(ctx)
		if err != nil {
			return err
		}
		if err := op(conn); err != nil {
			if IsTransientError(err) {
				_ = conn.Quit()
			} else {
				s.returnConnection(conn)
			}
			return err
		}
		s.returnConnection(conn)
		return nil
	})
}

func isFTPNotFound(err error) bool {
	var tpErr *textproto.Error
	return errors.As(err, &tpErr) && tpErr.Code == ftp.StatusFileUnavailable
}

func (s *FTPStore) remotePath(parts ...string) string {
	return path.Join(append([]string{s.settings.BasePath}, parts...)...)
}

// mkdirAll creates every component of dir, ignoring existing ones.
func mkdirAll(conn *ftp.ServerConn, dir string) {
	current := ""
	if strings.HasPrefix(dir, "/") {
		current = "/"
	}
	for part := range strings.SplitSeq(strings.Trim(dir, "/"), "/") {
		current = path.Join(current, part)
		_ = conn.MakeDir(current)
	}
}

func (s *FTPStore) object(folder string, entry *ftp.Entry) Object {
	return Object{
		ID:        path.Join(folder, entry.Name),
		Name:      entry.Name,
		Folder:    folder,
		Size:      int64(entry.Size), //nolint:gosec // file sizes fit in int64
		Link:      "ftp://" + s.addr() + "/" + strings.TrimPrefix(s.remotePath(folder, entry.Name), "/"),
		CreatedAt: entry.Time.UTC(),
	}
}

// Upload stores data under a temp name and renames it into place.
func (s *FTPStore) Upload(ctx context.Context, folder, filename string, data []byte) (*Object, error) {
	if err := validateComponent(folder); err != nil {
		return nil, storageError(s.Name(), "upload", fmt.Errorf("folder %q: %w", folder, err))
	}
	if err := validateComponent(filename); err != nil {
		return nil, storageError(s.Name(), "upload", fmt.Errorf("filename %q: %w", filename, err))
	}

	dir := s.remotePath(folder)
	target := path.Join(dir, filename)
	temp := path.Join(dir, tempPrefix+filename)

	err := s.do(ctx, "upload", func(conn *ftp.ServerConn) error {
		mkdirAll(conn, dir)
		if err := conn.Stor(temp, bytes.NewReader(data)); err != nil {
			_ = conn.Delete(temp)
			return fmt.Errorf("failed to store file: %w", err)
		}
		if err := conn.Rename(temp, target); err != nil {
			_ = conn.Delete(temp)
			return fmt.Errorf("failed to rename temporary file: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageError(s.Name(), "upload", err)
	}

	return &Object{
		ID:     path.Join(folder, filename),
		Name:   filename,
		Folder: folder,
		Size:   int64(len(data)),
		Link:   "ftp://" + s.addr() + "/" + strings.TrimPrefix(target, "/"),
	}, nil
}

// Delete removes the file with id.
func (s *FTPStore) Delete(ctx context.Context, id string) error {
	folder, name, err := splitID(id)
	if err != nil {
		return storageError(s.Name(), "delete", err)
	}
	err = s.do(ctx, "delete", func(conn *ftp.ServerConn) error {
		return conn.Delete(s.remotePath(folder, name))
	})
	switch {
	case err == nil:
		return nil
	case isFTPNotFound(err):
		return notFound(s.Name(), id)
	default:
		return storageError(s.Name(), "delete", err)
	}
}

// Rename moves id to newName in the same folder.
func (s *FTPStore) Rename(ctx context.Context, id, newName string) (*Object, error) {
	folder, name, err := splitID(id)
	if err != nil {
		return nil, storageError(s.Name(), "rename", err)
	}
	if err := validateComponent(newName); err != nil {
		return nil, storageError(s.Name(), "rename", err)
	}
	err = s.do(ctx, "rename", func(conn *ftp.ServerConn) error {
		dst := s.remotePath(folder, newName)
		// SIZE answers only for existing files; RNTO would overwrite
		if _, err := conn.FileSize(dst); err == nil {
			return exists(s.Name(), path.Join(folder, newName))
		}
		return conn.Rename(s.remotePath(folder, name), dst)
	})
	switch {
	case err == nil:
		return &Object{
			ID:     path.Join(folder, newName),
			Name:   newName,
			Folder: folder,
			Link:   "ftp://" + s.addr() + "/" + strings.TrimPrefix(s.remotePath(folder, newName), "/"),
		}, nil
	case errors.Is(err, ErrObjectExists):
		return nil, err
	case isFTPNotFound(err):
		return nil, notFound(s.Name(), id)
	default:
		return nil, storageError(s.Name(), "rename", err)
	}
}

func (s *FTPStore) list(ctx context.Context, dir string) ([]*ftp.Entry, error) {
	var entries []*ftp.Entry
	err := s.do(ctx, "list", func(conn *ftp.ServerConn) error {
		var err error
		entries, err = conn.List(dir)
		return err
	})
	if isFTPNotFound(err) {
		return nil, nil
	}
	return entries, err
}

// List returns the files of folder sorted by name.
func (s *FTPStore) List(ctx context.Context, folder string) ([]Object, error) {
	if err := validateComponent(folder); err != nil {
		return nil, storageError(s.Name(), "list", err)
	}
	entries, err := s.list(ctx, s.remotePath(folder))
	if err != nil {
		return nil, storageError(s.Name(), "list", err)
	}

	objects := make([]Object, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != ftp.EntryTypeFile || strings.HasPrefix(entry.Name, ".") {
			continue
		}
		objects = append(objects, s.object(folder, entry))
	}
	slices.SortFunc(objects, func(a, b Object) int { return strings.Compare(a.Name, b.Name) })
	return objects, nil
}

// ListFolders returns the folders under BasePath with their file counts.
func (s *FTPStore) ListFolders(ctx context.Context) ([]Folder, error) {
	entries, err := s.list(ctx, s.remotePath())
	if err != nil {
		return nil, storageError(s.Name(), "list folders", err)
	}

	folders := make([]Folder, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != ftp.EntryTypeFolder || strings.HasPrefix(entry.Name, ".") {
			continue
		}
		objects, err := s.List(ctx, entry.Name)
		if err != nil {
			return nil, err
		}
		folders = append(folders, Folder{ID: entry.Name, Name: entry.Name, FileCount: len(objects)})
	}
	slices.SortFunc(folders, func(a, b Folder) int { return strings.Compare(a.Name, b.Name) })
	return folders, nil
}

// RemoveFolderIfEmpty removes folder when no files remain in it.
func (s *FTPStore) RemoveFolderIfEmpty(ctx context.Context, folder string) (bool, error) {
	objects, err := s.List(ctx, folder)
	if err != nil {
		return false, err
	}
	if len(objects) > 0 {
		return false, nil
	}
	err = s.do(ctx, "remove folder", func(conn *ftp.ServerConn) error {
		return conn.RemoveDir(s.remotePath(folder))
	})
	if err != nil && !isFTPNotFound(err) {
		return false, storageError(s.Name(), "remove folder", err)
	}
	return true, nil
}

// Ping logs in and reads the working directory.
func (s *FTPStore) Ping(ctx context.Context) (*PingInfo, error) {
	var pwd string
	err := s.do(ctx, "ping", func(conn *ftp.ServerConn) error {
		var err error
		pwd, err = conn.CurrentDir()
		return err
	})
	if err != nil {
		return nil, storageError(s.Name(), "ping", err)
	}
	return &PingInfo{
		Backend:  s.Name(),
		Location: s.addr() + ":" + s.remotePath(),
		User:     s.settings.Username,
		Details:  map[string]any{"workingDirectory": pwd},
	}, nil
}

// Close closes pooled connections.
func (s *FTPStore) Close() error {
	for {
		select {
		case conn := <-s.connPool:
			_ = conn.Quit()
		default:
			return nil
		}
	}
}
