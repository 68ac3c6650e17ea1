package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

// SFTPStore stores recordings below BasePath on an SSH server.
// Object ids are "folder/filename".
type SFTPStore struct {
	settings conf.SFTPSettings
	retry    RetryConfig
	log      logger.Logger

	mu     sync.Mutex
	client *sftp.Client
}

// NewSFTPStore creates an SFTP store. The connection is opened lazily.
func NewSFTPStore(settings *conf.SFTPSettings, retry RetryConfig) (*SFTPStore, error) {
	if settings.Host == "" || settings.Username == "" {
		return nil, configError("sftp: host and username are required")
	}
	if settings.Password == "" && settings.KeyFile == "" {
		return nil, configError("sftp: no authentication method provided")
	}
	s := &SFTPStore{
		settings: *settings,
		retry:    retry,
		log:      GetLogger().With(logger.String("backend", conf.StorageSFTP), logger.String("host", settings.Host)),
	}
	if s.settings.Port == 0 {
		s.settings.Port = DefaultSSHPort
	}
	if s.settings.Timeout <= 0 {
		s.settings.Timeout = DefaultTimeout
	}
	if s.settings.BasePath == "" {
		s.settings.BasePath = "recordings"
	}
	return s, nil
}

// Name returns "sftp".
func (s *SFTPStore) Name() string { return conf.StorageSFTP }

func (s *SFTPStore) sshConfig() (*ssh.ClientConfig, error) {
	config := &ssh.ClientConfig{
		User:    s.settings.Username,
		Timeout: s.settings.Timeout,
	}

	if s.settings.KnownHostsFile != "" {
		callback, err := knownhosts.New(s.settings.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		config.HostKeyCallback = callback
	} else {
		s.log.Warn("host key verification disabled, set storage.sftp.knownhostsfile")
		config.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // explicit opt-out when no known_hosts file is configured
	}

	switch {
	case s.settings.KeyFile != "":
		key, err := os.ReadFile(s.settings.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		config.Auth = []ssh.AuthMethod{ssh.PublicKeys(signer)}
	default:
		config.Auth = []ssh.AuthMethod{ssh.Password(s.settings.Password)}
	}
	return config, nil
}

// connect returns the cached client or dials a new one.
func (s *SFTPStore) connect(ctx context.Context) (*sftp.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}

	config, err := s.sshConfig()
	if err != nil {
		return nil, err
	}

	type connResult struct {
		client *sftp.Client
		err    error
	}
	resultChan := make(chan connResult, 1)

	go func() {
		addr := net.JoinHostPort(s.settings.Host, strconv.Itoa(s.settings.Port))
		sshConn, err := ssh.Dial("tcp", addr, config)
		if err != nil {
			resultChan <- connResult{nil, fmt.Errorf("failed to connect: %w", err)}
			return
		}
		client, err := sftp.NewClient(sshConn)
		if err != nil {
			_ = sshConn.Close()
			resultChan <- connResult{nil, fmt.Errorf("failed to create client: %w", err)}
			return
		}
		resultChan <- connResult{client, nil}
	}()

	select {
	case <-ctx.Done():
		// Close a connection that completes after the caller gave up
		go func() {
			if r := <-resultChan; r.client != nil {
				_ = r.client.Close()
			}
		}()
		return nil, ctx.Err()
	case result := <-resultChan:
		if result.err != nil {
			return nil, result.err
		}
		s.client = result.client
		s.log.Debug("connected")
		return s.client, nil
	}
}

// drop closes the cached client after a failure so the next call redials.
func (s *SFTPStore) drop(client *sftp.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == client {
		_ = s.client.Close()
		s.client = nil
	}
}

func (s *SFTPStore) do(ctx context.Context, operation string, op func(*sftp.Client) error) error {
	return WithRetry(ctx, s.retry, operation, func() error {
		client, err := s.connect(ctx)
		if err != nil {
			return err
		}
		if err := op(client); err != nil {
			if IsTransientError(err) {
				s.drop(client)
			}
			return err
		}
		return nil
	})
}

func (s *SFTPStore) remotePath(parts ...string) string {
	return path.Join(append([]string{s.settings.BasePath}, parts...)...)
}

func (s *SFTPStore) object(folder string, info fs.FileInfo) Object {
	return Object{
		ID:        path.Join(folder, info.Name()),
		Name:      info.Name(),
		Folder:    folder,
		Size:      info.Size(),
		Link:      "sftp://" + net.JoinHostPort(s.settings.Host, strconv.Itoa(s.settings.Port)) + "/" + strings.TrimPrefix(s.remotePath(folder, info.Name()), "/"),
		CreatedAt: info.ModTime().UTC(),
	}
}

// Upload writes data to a temp file and renames it into place.
func (s *SFTPStore) Upload(ctx context.Context, folder, filename string, data []byte) (*Object, error) {
	if err := validateComponent(folder); err != nil {
		return nil, storageError(s.Name(), "upload", fmt.Errorf("folder %q: %w", folder, err))
	}
	if err := validateComponent(filename); err != nil {
		return nil, storageError(s.Name(), "upload", fmt.Errorf("filename %q: %w", filename, err))
	}

	var obj Object
	err := s.do(ctx, "upload", func(client *sftp.Client) error {
		dir := s.remotePath(folder)
		if err := client.MkdirAll(dir); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}

		target := path.Join(dir, filename)
		temp := path.Join(dir, tempPrefix+filename)
		f, err := client.Create(temp)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
			_ = f.Close()
			_ = client.Remove(temp)
			return fmt.Errorf("failed to write file: %w", err)
		}
		if err := f.Close(); err != nil {
			_ = client.Remove(temp)
			return fmt.Errorf("failed to close file: %w", err)
		}
		if err := client.PosixRename(temp, target); err != nil {
			_ = client.Remove(temp)
			return fmt.Errorf("failed to rename file: %w", err)
		}

		info, err := client.Stat(target)
		if err != nil {
			return err
		}
		obj = s.object(folder, info)
		return nil
	})
	if err != nil {
		return nil, storageError(s.Name(), "upload", err)
	}
	return &obj, nil
}

// Delete removes the file with id.
func (s *SFTPStore) Delete(ctx context.Context, id string) error {
	folder, name, err := splitID(id)
	if err != nil {
		return storageError(s.Name(), "delete", err)
	}
	err = s.do(ctx, "delete", func(client *sftp.Client) error {
		return client.Remove(s.remotePath(folder, name))
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return notFound(s.Name(), id)
	default:
		return storageError(s.Name(), "delete", err)
	}
}

// Rename moves id to newName in the same folder.
func (s *SFTPStore) Rename(ctx context.Context, id, newName string) (*Object, error) {
	folder, name, err := splitID(id)
	if err != nil {
		return nil, storageError(s.Name(), "rename", err)
	}
	if err := validateComponent(newName); err != nil {
		return nil, storageError(s.Name(), "rename", err)
	}

	var obj Object
	err = s.do(ctx, "rename", func(client *sftp.Client) error {
		dst := s.remotePath(folder, newName)
		if _, err := client.Lstat(dst); err == nil {
			return exists(s.Name(), path.Join(folder, newName))
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := client.PosixRename(s.remotePath(folder, name), dst); err != nil {
			return err
		}
		info, err := client.Stat(dst)
		if err != nil {
			return err
		}
		obj = s.object(folder, info)
		return nil
	})
	switch {
	case err == nil:
		return &obj, nil
	case errors.Is(err, ErrObjectExists):
		return nil, err
	case errors.Is(err, fs.ErrNotExist):
		return nil, notFound(s.Name(), id)
	default:
		return nil, storageError(s.Name(), "rename", err)
	}
}

func (s *SFTPStore) readDir(ctx context.Context, dir string) ([]fs.FileInfo, error) {
	var infos []fs.FileInfo
	err := s.do(ctx, "list", func(client *sftp.Client) error {
		var err error
		infos, err = client.ReadDir(dir)
		return err
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return infos, err
}

// List returns the files of folder sorted by name.
func (s *SFTPStore) List(ctx context.Context, folder string) ([]Object, error) {
	if err := validateComponent(folder); err != nil {
		return nil, storageError(s.Name(), "list", err)
	}
	infos, err := s.readDir(ctx, s.remotePath(folder))
	if err != nil {
		return nil, storageError(s.Name(), "list", err)
	}

	objects := make([]Object, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			continue
		}
		objects = append(objects, s.object(folder, info))
	}
	slices.SortFunc(objects, func(a, b Object) int { return strings.Compare(a.Name, b.Name) })
	return objects, nil
}

// ListFolders returns the folders under BasePath with their file counts.
func (s *SFTPStore) ListFolders(ctx context.Context) ([]Folder, error) {
	infos, err := s.readDir(ctx, s.remotePath())
	if err != nil {
		return nil, storageError(s.Name(), "list folders", err)
	}

	folders := make([]Folder, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			continue
		}
		objects, err := s.List(ctx, info.Name())
		if err != nil {
			return nil, err
		}
		folders = append(folders, Folder{ID: info.Name(), Name: info.Name(), FileCount: len(objects)})
	}
	slices.SortFunc(folders, func(a, b Folder) int { return strings.Compare(a.Name, b.Name) })
	return folders, nil
}

// RemoveFolderIfEmpty removes folder when no files remain in it.
func (s *SFTPStore) RemoveFolderIfEmpty(ctx context.Context, folder string) (bool, error) {
	objects, err := s.List(ctx, folder)
	if err != nil {
		return false, err
	}
	if len(objects) > 0 {
		return false, nil
	}
	err = s.do(ctx, "remove folder", func(client *sftp.Client) error {
		return client.RemoveDirectory(s.remotePath(folder))
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, storageError(s.Name(), "remove folder", err)
	}
	return true, nil
}

// Ping connects and stats the base path.
func (s *SFTPStore) Ping(ctx context.Context) (*PingInfo, error) {
	var cwd string
	err := s.do(ctx, "ping", func(client *sftp.Client) error {
		if err := client.MkdirAll(s.remotePath()); err != nil {
			return err
		}
		var err error
		cwd, err = client.Getwd()
		return err
	})
	if err != nil {
		return nil, storageError(s.Name(), "ping", err)
	}
	return &PingInfo{
		Backend:  s.Name(),
		Location: net.JoinHostPort(s.settings.Host, strconv.Itoa(s.settings.Port)) + ":" + s.remotePath(),
		User:     s.settings.Username,
		Details:  map[string]any{"workingDirectory": cwd},
	}, nil
}

// Close closes the connection.
func (s *SFTPStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
